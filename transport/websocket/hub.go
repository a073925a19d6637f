package websocket

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/hexcoop/hexcoop/game/lobby"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		// Game clients connect from arbitrary origins.
		return true
	},
}

// Hub accepts WebSocket connections and binds each to a lobby session.
type Hub struct {
	lobby *lobby.Lobby
	log   *zap.Logger
}

// NewHub creates a hub serving the given lobby.
func NewHub(l *lobby.Lobby, log *zap.Logger) *Hub {
	return &Hub{lobby: l, log: log.Named("ws")}
}

// ServeWS upgrades the request and runs a session for its lifetime. Each
// connection gets a fresh player id; reconnecting players re-queue.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	id := uuid.NewString()
	session := &Session{
		id:    id,
		conn:  conn,
		log:   h.log.With(zap.String("player_id", id)),
		lobby: h.lobby,
	}
	// The request context dies with the handler; the session outlives it.
	go session.run(context.Background())
}
