// Package websocket provides the WebSocket transport between game clients
// and the lobby.
//
// The package implements:
//   - One Session per connection, identified by a server-issued player id
//   - JSON decoding of client envelopes and routing into the lobby
//   - A write pump that drains the player's queued server messages in
//     priority order
//   - A once-per-second STATE_MACHINE_TICK frame that paces client turns
//   - Keepalive pings at both the protocol and application level
//
// Architecture:
//
// A Hub upgrades incoming HTTP requests and spawns a Session for each. The
// session runs a read pump and a write pump as an errgroup pair; either side
// failing tears the whole session down, which removes the player from its
// queue or room.
//
// Message Protocol:
//
// Frames carry one JSON envelope each: MessageToServer inbound and
// MessageFromServer outbound. Enum fields serialize as integers and
// timestamps as ISO 8601.
package websocket
