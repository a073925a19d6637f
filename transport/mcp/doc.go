// Package mcp exposes the game to AI agents over the Model Context Protocol.
//
// Each MCP session wraps one headless client connection: join_game dials the
// server and queues for a match, then the remaining tools drive that match
// through the mirrored game state. Sessions are addressed by a short id so a
// single agent can play both sides of a game at once.
//
// Tools:
//   - join_game: connect, queue and wait for a match
//   - game_state: current turn, score, positions, cards and instructions
//   - step: one move (forward, backward, turn_left, turn_right, end_turn,
//     interrupt, positive_feedback, negative_feedback)
//   - bulk_step: several moves in sequence
//   - send_instruction: leader sends an instruction to the follower
//   - instruction_done: follower marks an instruction complete
//   - wait_for_turn: block until this player's turn starts
//   - leave_game: disconnect and discard the session
//   - list_sessions: all live sessions
package mcp
