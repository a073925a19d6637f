package messages

import "time"

// TurnState is the authoritative turn machine snapshot: whose turn it is,
// how many moves and turns remain, and the running score.
type TurnState struct {
	Turn           Role      `json:"turn"`
	MovesRemaining int       `json:"moves_remaining"`
	TurnsLeft      int       `json:"turns_left"`
	TurnEnd        time.Time `json:"turn_end"`
	GameStart      time.Time `json:"game_start"`
	SetsCollected  int       `json:"sets_collected"`
	Score          int       `json:"score"`
	GameOver       bool      `json:"game_over"`
}

// GameOverState derives the terminal snapshot from the final turn state.
func GameOverState(final TurnState) TurnState {
	final.Turn = RoleNone
	final.MovesRemaining = 0
	final.TurnsLeft = 0
	final.GameOver = true
	return final
}
