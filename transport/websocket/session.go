package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gorilla/websocket"
	channerics "github.com/niceyeti/channerics/channels"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hexcoop/hexcoop/game/lobby"
	"github.com/hexcoop/hexcoop/game/messages"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer. Client envelopes are small;
	// action batches stay well under this.
	maxMessageSize = 1 << 16

	// How often the write pump drains the player's server-side queues.
	drainPeriod = 20 * time.Millisecond

	// State machine tick cadence; clients pace their turns on this frame.
	statePeriod = time.Second
)

// Session is one player's connection: a read pump decoding client envelopes
// into the lobby and a write pump draining the lobby back out.
type Session struct {
	id    string
	conn  *websocket.Conn
	log   *zap.Logger
	lobby *lobby.Lobby
}

// run pumps until either side fails, then removes the player from the lobby.
func (s *Session) run(ctx context.Context) {
	s.log.Info("session opened")
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.readPump() })
	g.Go(func() error { return s.writePump(ctx) })
	g.Go(func() error {
		// Unblocks the read pump when the write side fails.
		<-ctx.Done()
		return s.conn.Close()
	})
	err := g.Wait()

	if leaveErr := s.lobby.Leave(s.id); leaveErr != nil && !errors.Is(leaveErr, lobby.ErrUnknownPlayer) {
		s.log.Warn("leave on disconnect failed", zap.Error(leaveErr))
	}
	s.log.Info("session closed", zap.Error(err))
}

func (s *Session) readPump() error {
	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Warn("websocket read failed", zap.Error(err))
			}
			// Returning the error cancels the group and stops the write
			// pump, clean closes included.
			return err
		}
		var msg messages.MessageToServer
		if err := json.Unmarshal(data, &msg); err != nil {
			s.log.Warn("undecodable client message", zap.Error(err))
			continue
		}
		// Application-level pong refreshes the read deadline like the
		// protocol-level one.
		if msg.Type == messages.ToServerPong {
			s.conn.SetReadDeadline(time.Now().Add(pongWait))
		}
		if err := s.lobby.Route(s.id, msg); err != nil {
			s.log.Warn("unroutable client message",
				zap.Int("message_type", int(msg.Type)),
				zap.Error(err))
		}
	}
}

func (s *Session) writePump(ctx context.Context) error {
	pinger := time.NewTicker(pingPeriod)
	defer pinger.Stop()
	drain := channerics.NewTicker(ctx.Done(), drainPeriod)
	ticks := channerics.NewTicker(ctx.Done(), statePeriod)

	for {
		select {
		case <-ctx.Done():
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			s.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return nil
		case <-drain:
			for {
				msg, ok := s.lobby.Drain(s.id)
				if !ok {
					break
				}
				if err := s.write(msg); err != nil {
					return err
				}
			}
		case <-ticks:
			if err := s.write(messages.NewTickFromServer(time.Now())); err != nil {
				return err
			}
		case <-pinger.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return err
			}
			if err := s.write(messages.NewPingFromServer(time.Now())); err != nil {
				return err
			}
		}
	}
}

func (s *Session) write(msg messages.MessageFromServer) error {
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteJSON(msg)
}
