package lobby

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hexcoop/hexcoop/game/engine"
	"github.com/hexcoop/hexcoop/game/events"
	"github.com/hexcoop/hexcoop/game/messages"
)

func newTestLobby(t *testing.T) (*Lobby, *clock.Mock) {
	t.Helper()
	clk := clock.NewMock()
	return NewLobby(clk, events.NopRecorder{}, zap.NewNop()), clk
}

func drainAll(l *Lobby, playerID string) []messages.MessageFromServer {
	var out []messages.MessageFromServer
	for {
		msg, ok := l.Drain(playerID)
		if !ok {
			return out
		}
		out = append(out, msg)
	}
}

func findJoinResponses(msgs []messages.MessageFromServer) []messages.JoinResponse {
	var out []messages.JoinResponse
	for _, m := range msgs {
		if m.Type == messages.FromServerRoomManagement &&
			m.RoomManagement.Type == messages.RoomResponseJoinResponse {
			out = append(out, *m.RoomManagement.JoinResponse)
		}
	}
	return out
}

func TestJoinQueueReportsPlace(t *testing.T) {
	l, _ := newTestLobby(t)
	require.NoError(t, l.JoinQueue("p1", messages.ToServerJoinQueue))
	require.NoError(t, l.JoinQueue("p2", messages.ToServerJoinQueue))
	assert.ErrorIs(t, l.JoinQueue("p1", messages.ToServerJoinQueue), ErrAlreadyQueued)

	msg, ok := l.Drain("p2")
	require.True(t, ok)
	require.Equal(t, messages.FromServerRoomManagement, msg.Type)
	assert.Equal(t, 2, msg.RoomManagement.JoinResponse.PlaceInQueue)
	assert.False(t, msg.RoomManagement.JoinResponse.Joined)
}

func TestMatchPairsEarlierJoinerAsLeader(t *testing.T) {
	l, _ := newTestLobby(t)
	require.NoError(t, l.JoinQueue("first", messages.ToServerJoinQueue))
	require.NoError(t, l.JoinQueue("second", messages.ToServerJoinQueue))
	l.Tick()

	first, ok := l.Assignment("first")
	require.True(t, ok)
	second, ok := l.Assignment("second")
	require.True(t, ok)
	assert.Equal(t, messages.RoleLeader, first.Role)
	assert.Equal(t, messages.RoleFollower, second.Role)
	assert.Same(t, first.Room, second.Room)
	assert.NotEqual(t, first.ActorID, second.ActorID)

	joins := findJoinResponses(drainAll(l, "first"))
	require.Len(t, joins, 2)
	assert.True(t, joins[1].Joined)
	assert.Equal(t, messages.RoleLeader, joins[1].Role)
}

func TestRolePreferencesRespected(t *testing.T) {
	l, _ := newTestLobby(t)
	require.NoError(t, l.JoinQueue("wants-follower", messages.ToServerJoinFollowerQueue))
	require.NoError(t, l.JoinQueue("wants-leader", messages.ToServerJoinLeaderQueue))
	l.Tick()

	a, ok := l.Assignment("wants-leader")
	require.True(t, ok)
	assert.Equal(t, messages.RoleLeader, a.Role)
	b, ok := l.Assignment("wants-follower")
	require.True(t, ok)
	assert.Equal(t, messages.RoleFollower, b.Role)
}

func TestConflictingPreferencesDoNotMatch(t *testing.T) {
	l, _ := newTestLobby(t)
	require.NoError(t, l.JoinQueue("a", messages.ToServerJoinLeaderQueue))
	require.NoError(t, l.JoinQueue("b", messages.ToServerJoinLeaderQueue))
	l.Tick()

	_, ok := l.Assignment("a")
	assert.False(t, ok)
	assert.Equal(t, 2, l.Stats().PlayersQueued)

	// A flexible third player unblocks the head of the queue.
	require.NoError(t, l.JoinQueue("c", messages.ToServerJoinQueue))
	l.Tick()
	a, ok := l.Assignment("a")
	require.True(t, ok)
	assert.Equal(t, messages.RoleLeader, a.Role)
	_, ok = l.Assignment("c")
	assert.True(t, ok)
}

func TestAssignRolesTable(t *testing.T) {
	leader := queueEntry{playerID: "L", preference: messages.RoleLeader}
	follower := queueEntry{playerID: "F", preference: messages.RoleFollower}
	either := queueEntry{playerID: "E", preference: messages.RoleNone}

	gotL, gotF, ok := assignRoles(follower, either)
	require.True(t, ok)
	assert.Equal(t, "E", gotL)
	assert.Equal(t, "F", gotF)

	gotL, gotF, ok = assignRoles(leader, follower)
	require.True(t, ok)
	assert.Equal(t, "L", gotL)
	assert.Equal(t, "F", gotF)

	_, _, ok = assignRoles(leader, leader)
	assert.False(t, ok)
	_, _, ok = assignRoles(follower, follower)
	assert.False(t, ok)
}

func TestStaleQueueEntriesBooted(t *testing.T) {
	l, clk := newTestLobby(t)
	require.NoError(t, l.JoinQueue("patient", messages.ToServerJoinQueue))
	drainAll(l, "patient")

	clk.Add(queueTimeout + time.Second)
	l.Tick()

	assert.Zero(t, l.Stats().PlayersQueued)
	msgs := drainAll(l, "patient")
	joins := findJoinResponses(msgs)
	require.Len(t, joins, 1)
	assert.True(t, joins[0].BootedFromQueue)
	assert.False(t, joins[0].Joined)
}

func TestLeaveFromQueue(t *testing.T) {
	l, _ := newTestLobby(t)
	require.NoError(t, l.JoinQueue("p", messages.ToServerJoinQueue))
	require.NoError(t, l.Leave("p"))
	assert.Zero(t, l.Stats().PlayersQueued)
	assert.ErrorIs(t, l.Leave("p"), ErrUnknownPlayer)
}

func TestRouteRequiresRoom(t *testing.T) {
	l, clk := newTestLobby(t)
	err := l.Route("stranger", messages.NewSimpleToServer(messages.ToServerTurnComplete, clk.Now()))
	assert.ErrorIs(t, err, ErrNotInRoom)
}

func TestRouteReachesRoom(t *testing.T) {
	l, clk := newTestLobby(t)
	require.NoError(t, l.JoinQueue("leader", messages.ToServerJoinLeaderQueue))
	require.NoError(t, l.JoinQueue("follower", messages.ToServerJoinFollowerQueue))
	l.Tick()

	require.NoError(t, l.Route("leader",
		messages.NewSimpleToServer(messages.ToServerTurnComplete, clk.Now())))
	a, ok := l.Assignment("leader")
	require.True(t, ok)
	a.Room.Tick()
	assert.Equal(t, messages.RoleFollower, a.Room.TurnState().Turn)
}

func TestLeaveFromRoomLetsPartnerPlayOn(t *testing.T) {
	l, clk := newTestLobby(t)
	require.NoError(t, l.JoinQueue("leaver", messages.ToServerJoinQueue))
	require.NoError(t, l.JoinQueue("partner", messages.ToServerJoinQueue))
	l.Tick()
	drainAll(l, "leaver")
	drainAll(l, "partner")

	a, _ := l.Assignment("partner")
	require.NoError(t, l.Leave("leaver"))
	assert.False(t, a.Room.Done(), "the room keeps running for the partner")
	_, ok := l.Assignment("leaver")
	assert.False(t, ok)

	msgs := drainAll(l, "partner")
	require.NotEmpty(t, msgs)
	assert.Equal(t, messages.FromServerRoomManagement, msgs[0].Type)
	assert.Equal(t, messages.RoomResponseLeaveNotice, msgs[0].RoomManagement.Type)

	var sawStateSync bool
	for _, m := range msgs {
		if m.Type == messages.FromServerStateSync {
			sawStateSync = true
		}
	}
	assert.True(t, sawStateSync, "partner resyncs after the departure")

	// With nobody submitting actions the turn clock runs the game down on
	// its own.
	for i := 0; !a.Room.Done() && i < 4*engine.InitialTurnsLeft; i++ {
		clk.Add(engine.LeaderTurnDuration + time.Second)
		a.Room.Tick()
	}
	assert.True(t, a.Room.Done(), "game ends once the turns run out")

	var sawGameOver bool
	for _, m := range drainAll(l, "partner") {
		if m.Type == messages.FromServerGameState && m.TurnState.GameOver {
			sawGameOver = true
		}
	}
	assert.True(t, sawGameOver, "partner sees the terminal game state")
}

func TestRoomEndsWhenLastPlayerLeaves(t *testing.T) {
	l, _ := newTestLobby(t)
	require.NoError(t, l.JoinQueue("p1", messages.ToServerJoinQueue))
	require.NoError(t, l.JoinQueue("p2", messages.ToServerJoinQueue))
	l.Tick()

	a, _ := l.Assignment("p1")
	require.NoError(t, l.Leave("p1"))
	require.False(t, a.Room.Done())
	require.NoError(t, l.Leave("p2"))
	assert.True(t, a.Room.Done(), "an empty room ends immediately")
}

func TestFinishedRoomsReapedAfterDraining(t *testing.T) {
	l, _ := newTestLobby(t)
	require.NoError(t, l.JoinQueue("p1", messages.ToServerJoinQueue))
	require.NoError(t, l.JoinQueue("p2", messages.ToServerJoinQueue))
	l.Tick()
	require.Equal(t, 1, l.Stats().Rooms)

	a, _ := l.Assignment("p1")
	a.Room.EndGame()

	// Undrained messages keep the room alive.
	l.Tick()
	assert.Equal(t, 1, l.Stats().Rooms)

	drainAll(l, "p1")
	drainAll(l, "p2")
	l.Tick()
	assert.Zero(t, l.Stats().Rooms)
	assert.Zero(t, l.Stats().PlayersInGame)
	_, ok := l.Assignment("p1")
	assert.False(t, ok)
}
