// Package events defines the typed event stream the engine emits for every
// observable state change. Persistence and analysis layers subscribe to this
// stream; the engine itself never depends on what happens downstream.
package events

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hexcoop/hexcoop/game/hexgrid"
	"github.com/hexcoop/hexcoop/game/messages"
)

// Origin records who triggered an event. Discriminants are disjoint.
type Origin int

const (
	OriginNone Origin = iota
	OriginLeader
	OriginFollower
	OriginServer
)

// OriginForRole maps a player role onto an event origin.
func OriginForRole(r messages.Role) Origin {
	switch r {
	case messages.RoleLeader:
		return OriginLeader
	case messages.RoleFollower:
		return OriginFollower
	default:
		return OriginNone
	}
}

// Type enumerates everything the engine reports.
type Type int

const (
	TypeNone Type = iota
	TypeMapUpdate
	TypeInitialState
	TypeTurnState
	TypePropUpdate
	TypeCardSpawn
	TypeCardSelect
	TypeCardSet
	TypeInstructionSent
	TypeInstructionActivated
	TypeInstructionDone
	TypeInstructionCancelled
	TypeMove
	TypeLiveFeedback
)

// Event is one record in a room's event log, keyed by game id and tick.
type Event struct {
	ID         string             `json:"id"`
	GameID     string             `json:"game_id"`
	Type       Type               `json:"type"`
	Tick       int64              `json:"tick"`
	ServerTime time.Time          `json:"server_time"`
	Origin     Origin             `json:"origin"`
	Role       messages.Role      `json:"role"`
	ShortCode  string             `json:"short_code,omitempty"`
	Data       string             `json:"data,omitempty"`
	Location   *hexgrid.HecsCoord `json:"location,omitempty"`
	Orientation *float64          `json:"orientation,omitempty"`
}

// New builds an event with a fresh UUID and server timestamp.
func New(gameID string, t Type, tick int64, origin Origin, now time.Time) Event {
	return Event{
		ID:         uuid.NewString(),
		GameID:     gameID,
		Type:       t,
		Tick:       tick,
		ServerTime: now,
		Origin:     origin,
	}
}

// Recorder consumes the event stream. Implementations must not block the
// caller for long; the engine records from inside its tick loop.
type Recorder interface {
	Record(Event)
}

// NopRecorder discards events.
type NopRecorder struct{}

func (NopRecorder) Record(Event) {}

// LogRecorder writes events to a zap logger at debug level. The default
// recorder for rooms without a persistence subscriber.
type LogRecorder struct {
	Log *zap.Logger
}

func (r LogRecorder) Record(e Event) {
	r.Log.Debug("event",
		zap.String("event_id", e.ID),
		zap.String("game_id", e.GameID),
		zap.Int("type", int(e.Type)),
		zap.Int64("tick", e.Tick),
		zap.Int("origin", int(e.Origin)),
		zap.String("short_code", e.ShortCode),
		zap.String("data", e.Data))
}

// StreamRecorder fans events into a channel, dropping when the subscriber
// falls behind rather than stalling the tick loop.
type StreamRecorder struct {
	C chan Event
}

// NewStreamRecorder allocates a recorder with the given buffer depth.
func NewStreamRecorder(depth int) *StreamRecorder {
	return &StreamRecorder{C: make(chan Event, depth)}
}

func (r *StreamRecorder) Record(e Event) {
	select {
	case r.C <- e:
	default:
	}
}
