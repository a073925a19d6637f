package messages

import "github.com/hexcoop/hexcoop/game/hexgrid"

// ActorState is one actor's authoritative pose inside a StateSync.
type ActorState struct {
	ActorID         int               `json:"actor_id"`
	AssetID         int               `json:"asset_id"`
	ActorRole       Role              `json:"actor_role"`
	Location        hexgrid.HecsCoord `json:"location"`
	RotationDegrees float64           `json:"rotation_degrees"`
}

// StateSync is a full snapshot of every actor in the room, addressed to one
// player. Clients must reset their local actor tables before applying any
// deltas that follow.
type StateSync struct {
	Population int          `json:"population"`
	Actors     []ActorState `json:"actors"`
	PlayerID   int          `json:"player_id"`
	PlayerRole Role         `json:"player_role"`
}
