// Package api exposes the HTTP surface of the game server: a status page, a
// WebSocket endpoint players connect to, and content-addressed asset
// downloads.
//
// Routes:
//   - GET /                 server status and endpoint table
//   - GET /status           lobby occupancy snapshot
//   - GET /player_endpoint  WebSocket upgrade for game clients
//   - GET /assets/{id}      numbered asset downloads with md5 ETags
package api
