// Package lobby matches queued players into rooms and routes their messages
// for the lifetime of a game. Players are known by opaque string ids issued
// by the transport layer; inside a room they become engine actors.
package lobby

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	channerics "github.com/niceyeti/channerics/channels"
	"go.uber.org/zap"

	"github.com/hexcoop/hexcoop/game/engine"
	"github.com/hexcoop/hexcoop/game/events"
	"github.com/hexcoop/hexcoop/game/ids"
	"github.com/hexcoop/hexcoop/game/mapgen"
	"github.com/hexcoop/hexcoop/game/messages"
)

var (
	ErrUnknownPlayer  = errors.New("unknown player")
	ErrNotInRoom      = errors.New("player not in a room")
	ErrAlreadyQueued  = errors.New("player already queued")
	ErrAlreadyInRoom  = errors.New("player already in a room")
	ErrUnroutableType = errors.New("message type not routable to a room")
)

const (
	// Queued players are booted after this long without a match.
	queueTimeout = 5 * time.Minute

	matchmakingPeriod = 100 * time.Millisecond
)

type queueEntry struct {
	playerID   string
	preference messages.Role
	joinedAt   time.Time
}

// Assignment binds a queued player to the room and actor it was matched
// into.
type Assignment struct {
	Room    *engine.Room
	ActorID int
	Role    messages.Role
}

// Lobby owns the matchmaking queue and the set of live rooms. All methods
// are safe for concurrent use.
type Lobby struct {
	log      *zap.Logger
	clk      clock.Clock
	recorder events.Recorder

	mu          sync.Mutex
	queue       []queueEntry
	assignments map[string]*Assignment
	responses   map[string][]messages.RoomManagementResponse
	rooms       map[string]*engine.Room
	roomPlayers map[string][]string
	cancels     map[string]context.CancelFunc
	rng         *rand.Rand
	mapSeed     int64
	runCtx      context.Context
}

// NewLobby builds an empty lobby. The recorder is shared by every room the
// lobby creates.
func NewLobby(clk clock.Clock, recorder events.Recorder, log *zap.Logger) *Lobby {
	return &Lobby{
		log:         log.Named("lobby"),
		clk:         clk,
		recorder:    recorder,
		assignments: make(map[string]*Assignment),
		responses:   make(map[string][]messages.RoomManagementResponse),
		rooms:       make(map[string]*engine.Room),
		roomPlayers: make(map[string][]string),
		cancels:     make(map[string]context.CancelFunc),
		rng:         rand.New(rand.NewSource(clk.Now().UnixNano())),
	}
}

// SetMapSeed fixes map generation for every future room. Zero restores
// random seeding.
func (l *Lobby) SetMapSeed(seed int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.mapSeed = seed
}

// Run drives matchmaking until the context is cancelled. Rooms created while
// running get their tick loops started under the same context.
func (l *Lobby) Run(ctx context.Context) {
	l.mu.Lock()
	l.runCtx = ctx
	l.mu.Unlock()
	ticker := channerics.NewTicker(ctx.Done(), matchmakingPeriod)
	for range ticker {
		l.Tick()
	}
}

// JoinQueue enqueues a player. The message type selects the role preference:
// JOIN_QUEUE takes either role, the role-specific variants insist on one.
func (l *Lobby) JoinQueue(playerID string, t messages.ToServerType) error {
	pref := messages.RoleNone
	switch t {
	case messages.ToServerJoinLeaderQueue:
		pref = messages.RoleLeader
	case messages.ToServerJoinFollowerQueue:
		pref = messages.RoleFollower
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.assignments[playerID]; ok {
		return ErrAlreadyInRoom
	}
	for _, e := range l.queue {
		if e.playerID == playerID {
			return ErrAlreadyQueued
		}
	}
	l.queue = append(l.queue, queueEntry{
		playerID:   playerID,
		preference: pref,
		joinedAt:   l.clk.Now(),
	})
	l.respondLocked(playerID, messages.RoomManagementResponse{
		Type: messages.RoomResponseJoinResponse,
		JoinResponse: &messages.JoinResponse{
			PlaceInQueue: len(l.queue),
		},
	})
	l.log.Info("player queued",
		zap.String("player_id", playerID),
		zap.String("preference", pref.String()),
		zap.Int("queue_depth", len(l.queue)))
	return nil
}

// Leave removes a player from the queue or its room. The partner receives a
// leave notice and plays on alone until the turns run out; the game only
// ends immediately when nobody is left in the room.
func (l *Lobby) Leave(playerID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i, e := range l.queue {
		if e.playerID == playerID {
			l.queue = append(l.queue[:i], l.queue[i+1:]...)
			l.log.Info("player left queue", zap.String("player_id", playerID))
			return nil
		}
	}

	a, ok := l.assignments[playerID]
	if !ok {
		return ErrUnknownPlayer
	}
	a.Room.FreeActor(a.ActorID)
	delete(l.assignments, playerID)

	roomID := a.Room.ID()
	remaining := l.roomPlayers[roomID][:0]
	for _, pid := range l.roomPlayers[roomID] {
		if pid == playerID {
			continue
		}
		remaining = append(remaining, pid)
		l.respondLocked(pid, messages.RoomManagementResponse{
			Type:        messages.RoomResponseLeaveNotice,
			LeaveNotice: &messages.LeaveNotice{Reason: "partner left the game"},
		})
	}
	l.roomPlayers[roomID] = remaining
	if len(remaining) == 0 {
		a.Room.EndGame()
	}
	l.log.Info("player left room",
		zap.String("player_id", playerID),
		zap.String("room_id", roomID))
	return nil
}

// Route forwards an in-game message to the player's room.
func (l *Lobby) Route(playerID string, msg messages.MessageToServer) error {
	switch msg.Type {
	case messages.ToServerJoinQueue, messages.ToServerJoinLeaderQueue, messages.ToServerJoinFollowerQueue:
		return l.JoinQueue(playerID, msg.Type)
	case messages.ToServerLeave:
		return l.Leave(playerID)
	}

	l.mu.Lock()
	a, ok := l.assignments[playerID]
	l.mu.Unlock()
	if !ok {
		return ErrNotInRoom
	}
	a.Room.Submit(a.ActorID, msg)
	return nil
}

// Drain returns the next message queued for the player: room management
// responses first, then whatever the player's room has pending.
func (l *Lobby) Drain(playerID string) (messages.MessageFromServer, bool) {
	l.mu.Lock()
	if q := l.responses[playerID]; len(q) > 0 {
		resp := q[0]
		l.responses[playerID] = q[1:]
		now := l.clk.Now()
		l.mu.Unlock()
		return messages.NewRoomManagementFromServer(resp, now), true
	}
	a, ok := l.assignments[playerID]
	l.mu.Unlock()
	if !ok {
		return messages.MessageFromServer{}, false
	}
	return a.Room.Drain(a.ActorID)
}

// Assignment returns the player's room binding, if matched.
func (l *Lobby) Assignment(playerID string) (*Assignment, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	a, ok := l.assignments[playerID]
	return a, ok
}

// Stats snapshots lobby occupancy for the status page.
func (l *Lobby) Stats() messages.RoomStats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return messages.RoomStats{
		Rooms:         len(l.rooms),
		PlayersInGame: len(l.assignments),
		PlayersQueued: len(l.queue),
	}
}

// Tick runs one matchmaking pass: boot stale entries, pair what can be
// paired, reap finished rooms.
func (l *Lobby) Tick() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.bootStaleLocked()
	for l.matchPairLocked() {
	}
	l.reapRoomsLocked()
}

func (l *Lobby) respondLocked(playerID string, resp messages.RoomManagementResponse) {
	l.responses[playerID] = append(l.responses[playerID], resp)
}

func (l *Lobby) bootStaleLocked() {
	cutoff := l.clk.Now().Add(-queueTimeout)
	kept := l.queue[:0]
	for _, e := range l.queue {
		if e.joinedAt.Before(cutoff) {
			l.respondLocked(e.playerID, messages.RoomManagementResponse{
				Type: messages.RoomResponseJoinResponse,
				JoinResponse: &messages.JoinResponse{
					BootedFromQueue: true,
				},
			})
			l.log.Info("booted stale queue entry", zap.String("player_id", e.playerID))
			continue
		}
		kept = append(kept, e)
	}
	l.queue = kept
}

// matchPairLocked pairs the oldest queue entry with the first compatible
// partner. Earlier joiners win the leader seat when neither has a
// preference. Returns false when no pair can form.
func (l *Lobby) matchPairLocked() bool {
	for i := 0; i < len(l.queue); i++ {
		for j := i + 1; j < len(l.queue); j++ {
			leader, follower, ok := assignRoles(l.queue[i], l.queue[j])
			if !ok {
				continue
			}
			// Remove j first so i's index stays valid.
			l.queue = append(l.queue[:j], l.queue[j+1:]...)
			l.queue = append(l.queue[:i], l.queue[i+1:]...)
			l.createRoomLocked(leader, follower)
			return true
		}
	}
	return false
}

func assignRoles(a, b queueEntry) (leader, follower string, ok bool) {
	switch {
	case a.preference == messages.RoleLeader && b.preference != messages.RoleLeader:
		return a.playerID, b.playerID, true
	case b.preference == messages.RoleLeader && a.preference != messages.RoleLeader:
		return b.playerID, a.playerID, true
	case a.preference == messages.RoleFollower && b.preference != messages.RoleFollower:
		return b.playerID, a.playerID, true
	case b.preference == messages.RoleFollower && a.preference != messages.RoleFollower:
		return a.playerID, b.playerID, true
	case a.preference == messages.RoleNone && b.preference == messages.RoleNone:
		return a.playerID, b.playerID, true
	default:
		return "", "", false
	}
}

func (l *Lobby) createRoomLocked(leaderID, followerID string) {
	roomID := uuid.NewString()
	assigner := ids.NewAssigner()
	seed := l.rng.Int63()
	if l.mapSeed != 0 {
		seed = l.mapSeed
	}
	provider := mapgen.NewDefaultProvider(seed, assigner)
	room := engine.NewRoom(roomID, provider, assigner, l.clk, l.recorder, l.log)

	leaderActor := room.CreateActor(messages.RoleLeader)
	followerActor := room.CreateActor(messages.RoleFollower)
	l.assignments[leaderID] = &Assignment{Room: room, ActorID: leaderActor, Role: messages.RoleLeader}
	l.assignments[followerID] = &Assignment{Room: room, ActorID: followerActor, Role: messages.RoleFollower}
	l.rooms[roomID] = room
	l.roomPlayers[roomID] = []string{leaderID, followerID}

	for playerID, role := range map[string]messages.Role{
		leaderID:   messages.RoleLeader,
		followerID: messages.RoleFollower,
	} {
		l.respondLocked(playerID, messages.RoomManagementResponse{
			Type: messages.RoomResponseJoinResponse,
			JoinResponse: &messages.JoinResponse{
				Joined: true,
				Role:   role,
			},
		})
	}

	if l.runCtx != nil {
		roomCtx, cancel := context.WithCancel(l.runCtx)
		l.cancels[roomID] = cancel
		go room.Run(roomCtx)
	}

	l.log.Info("room created",
		zap.String("room_id", roomID),
		zap.String("leader", leaderID),
		zap.String("follower", followerID))
}

// reapRoomsLocked removes rooms that finished and drained dry for every
// remaining player.
func (l *Lobby) reapRoomsLocked() {
	for roomID, room := range l.rooms {
		if !room.Done() {
			continue
		}
		pending := false
		for _, pid := range l.roomPlayers[roomID] {
			a, ok := l.assignments[pid]
			if ok && room.HasPendingMessages(a.ActorID) {
				pending = true
				break
			}
		}
		if pending {
			continue
		}
		for _, pid := range l.roomPlayers[roomID] {
			delete(l.assignments, pid)
		}
		delete(l.roomPlayers, roomID)
		delete(l.rooms, roomID)
		if cancel, ok := l.cancels[roomID]; ok {
			cancel()
			delete(l.cancels, roomID)
		}
		l.log.Info("room reaped", zap.String("room_id", roomID))
	}
}
