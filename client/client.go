// Package client implements a headless game client: it connects to a server,
// queues for a match and mirrors the authoritative game state locally so
// bots and tooling can play without a renderer.
package client

import (
	"errors"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/hexcoop/hexcoop/game/messages"
)

// State tracks where the client is in its lifecycle.
type State int

const (
	StateBegin State = iota
	StateConnected
	StateInQueue
	StateInGameInit
	StateGameStarted
	StateGameOver
	StateError
)

// QueueType selects which matchmaking queue to join.
type QueueType int

const (
	QueueAny QueueType = iota
	QueueLeaderOnly
	QueueFollowerOnly
)

var (
	ErrNotConnected    = errors.New("client not connected")
	ErrBootedFromQueue = errors.New("booted from the matchmaking queue")
	ErrJoinTimeout     = errors.New("timed out waiting for a match")
	ErrGameOver        = errors.New("game is over")
)

// The server paces clients with one tick per second; waits comfortably
// exceed that so a missed frame doesn't fail the session.
const (
	defaultJoinTimeout = 6 * time.Minute
	readTimeout        = 70 * time.Second
)

// Conn is the client's view of the wire. The production implementation
// wraps a WebSocket; tests substitute a scripted one.
type Conn interface {
	Read(timeout time.Duration) (messages.MessageFromServer, error)
	Write(messages.MessageToServer) error
	Close() error
}

// Client dials a server and joins games on it.
type Client struct {
	url   string
	log   *zap.Logger
	conn  Conn
	state State
}

// NewClient builds a client for the given WebSocket URL
// (ws://host:port/player_endpoint).
func NewClient(url string, log *zap.Logger) *Client {
	return &Client{url: url, log: log.Named("client"), state: StateBegin}
}

// Connect dials the server.
func (c *Client) Connect() error {
	conn, _, err := websocket.DefaultDialer.Dial(c.url, nil)
	if err != nil {
		c.state = StateError
		return fmt.Errorf("failed to dial %s: %w", c.url, err)
	}
	c.conn = &wsConn{conn: conn}
	c.state = StateConnected
	return nil
}

// State returns the client's lifecycle state.
func (c *Client) State() State { return c.state }

// Close tears down the connection.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	c.state = StateBegin
	return err
}

// JoinGame queues for a match and blocks until the opening handshake
// completes: a join response, then the map, props, state sync and first turn
// state. A non-positive timeout uses the default of six minutes.
func (c *Client) JoinGame(queue QueueType, timeout time.Duration) (*Game, error) {
	if c.conn == nil {
		return nil, ErrNotConnected
	}
	if timeout <= 0 {
		timeout = defaultJoinTimeout
	}

	joinType := messages.ToServerJoinQueue
	switch queue {
	case QueueLeaderOnly:
		joinType = messages.ToServerJoinLeaderQueue
	case QueueFollowerOnly:
		joinType = messages.ToServerJoinFollowerQueue
	}
	if err := c.conn.Write(messages.NewSimpleToServer(joinType, time.Now())); err != nil {
		c.state = StateError
		return nil, fmt.Errorf("failed to send queue join: %w", err)
	}
	c.state = StateInQueue

	game := newGame(c.conn, c.log)
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		msg, err := c.conn.Read(time.Until(deadline))
		if err != nil {
			c.state = StateError
			return nil, fmt.Errorf("read during join failed: %w", err)
		}

		if msg.Type == messages.FromServerRoomManagement &&
			msg.RoomManagement.Type == messages.RoomResponseJoinResponse {
			jr := msg.RoomManagement.JoinResponse
			switch {
			case jr.BootedFromQueue:
				c.state = StateConnected
				return nil, ErrBootedFromQueue
			case jr.Joined:
				c.state = StateInGameInit
				game.role = jr.Role
			default:
				c.log.Debug("queued", zap.Int("place", jr.PlaceInQueue))
			}
			continue
		}

		game.handleMessage(msg)
		if c.state == StateInGameInit && game.handshakeComplete() {
			c.state = StateGameStarted
			c.log.Info("game started", zap.String("role", game.role.String()))
			return game, nil
		}
	}
	c.state = StateConnected
	return nil, ErrJoinTimeout
}

// wsConn adapts a gorilla connection to Conn.
type wsConn struct {
	conn *websocket.Conn
}

func (w *wsConn) Read(timeout time.Duration) (messages.MessageFromServer, error) {
	w.conn.SetReadDeadline(time.Now().Add(timeout))
	var msg messages.MessageFromServer
	err := w.conn.ReadJSON(&msg)
	return msg, err
}

func (w *wsConn) Write(msg messages.MessageToServer) error {
	w.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return w.conn.WriteJSON(msg)
}

func (w *wsConn) Close() error {
	return w.conn.Close()
}
