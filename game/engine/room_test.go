package engine

import (
	"testing"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hexcoop/hexcoop/game/events"
	"github.com/hexcoop/hexcoop/game/hexgrid"
	"github.com/hexcoop/hexcoop/game/ids"
	"github.com/hexcoop/hexcoop/game/mapgen"
	"github.com/hexcoop/hexcoop/game/messages"
)

type roomFixture struct {
	room     *Room
	clk      *clock.Mock
	provider *mapgen.Provider
	leader   int
	follower int
}

func newRoomFixture(t *testing.T) *roomFixture {
	t.Helper()
	clk := clock.NewMock()
	assigner := ids.NewAssigner()
	provider := mapgen.NewDefaultProvider(99, assigner)
	room := NewRoom("test-room", provider, assigner, clk, events.NopRecorder{}, zap.NewNop())
	f := &roomFixture{room: room, clk: clk, provider: provider}
	f.leader = room.CreateActor(messages.RoleLeader)
	f.follower = room.CreateActor(messages.RoleFollower)
	return f
}

func (f *roomFixture) drainAll(actorID int) []messages.MessageFromServer {
	var out []messages.MessageFromServer
	for {
		msg, ok := f.room.Drain(actorID)
		if !ok {
			return out
		}
		out = append(out, msg)
	}
}

// settle drains both players dry so a test starts from a quiet room.
func (f *roomFixture) settle() {
	f.drainAll(f.leader)
	f.drainAll(f.follower)
}

func (f *roomFixture) walk(actorID int, dest hexgrid.HecsCoord) {
	now := f.clk.Now()
	actor := f.room.actors[actorID]
	action := messages.Walk(actorID, hexgrid.Sub(dest, actor.Location()), now)
	f.room.Submit(actorID, messages.NewActionsToServer([]messages.Action{action}, now))
	f.room.Tick()
}

// cardFreeNeighbor picks an adjacent cell without a card, so a move doesn't
// also toggle a selection.
func (f *roomFixture) cardFreeNeighbor(actorID int) hexgrid.HecsCoord {
	loc := f.room.actors[actorID].Location()
	for _, n := range loc.Neighbors() {
		if _, ok := f.provider.CardByLocation(n); !ok {
			return n
		}
	}
	return loc.Neighbors()[0]
}

func messageTypes(msgs []messages.MessageFromServer) []messages.FromServerType {
	out := make([]messages.FromServerType, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.Type)
	}
	return out
}

// outlineColors collects the border colors of every card outline in a drain.
func outlineColors(msgs []messages.MessageFromServer) []messages.Color {
	var out []messages.Color
	for _, m := range msgs {
		if m.Type != messages.FromServerActions {
			continue
		}
		for _, a := range m.Actions {
			if a.ActionType == messages.ActionOutline {
				out = append(out, a.BorderColor)
			}
		}
	}
	return out
}

func distinctTriple(cards []mapgen.Card) []mapgen.Card {
	for i := 0; i < len(cards); i++ {
		for j := i + 1; j < len(cards); j++ {
			if cards[i].SharesAttribute(cards[j]) {
				continue
			}
			for k := j + 1; k < len(cards); k++ {
				if !cards[i].SharesAttribute(cards[k]) && !cards[j].SharesAttribute(cards[k]) {
					return []mapgen.Card{cards[i], cards[j], cards[k]}
				}
			}
		}
	}
	return nil
}

func TestJoinHandshakeDeliversWorldSnapshot(t *testing.T) {
	f := newRoomFixture(t)

	for _, id := range []int{f.leader, f.follower} {
		msgs := f.drainAll(id)
		require.GreaterOrEqual(t, len(msgs), 4)
		assert.Equal(t, []messages.FromServerType{
			messages.FromServerMapUpdate,
			messages.FromServerPropUpdate,
			messages.FromServerStateSync,
			messages.FromServerGameState,
		}, messageTypes(msgs)[:4])

		require.NotNil(t, msgs[0].MapUpdate)
		assert.Equal(t, mapgen.DefaultRows, msgs[0].MapUpdate.Rows)
		require.NotNil(t, msgs[1].PropUpdate)
		assert.Len(t, msgs[1].PropUpdate.Props, mapgen.DefaultCardCount)
		require.NotNil(t, msgs[2].State)
		assert.Equal(t, 2, msgs[2].State.Population)
		assert.Equal(t, id, msgs[2].State.PlayerID)
		require.NotNil(t, msgs[3].TurnState)
		assert.Equal(t, messages.RoleLeader, msgs[3].TurnState.Turn)
		assert.Equal(t, LeaderMovesPerTurn, msgs[3].TurnState.MovesRemaining)
		assert.Equal(t, InitialTurnsLeft, msgs[3].TurnState.TurnsLeft)
	}
}

func TestActorsSpawnOnDistinctSpawnPoints(t *testing.T) {
	f := newRoomFixture(t)
	leaderLoc := f.room.actors[f.leader].Location()
	followerLoc := f.room.actors[f.follower].Location()
	assert.False(t, leaderLoc.Equals(followerLoc))

	spawns := map[hexgrid.HecsCoord]bool{}
	for _, s := range f.provider.SpawnPoints() {
		spawns[s] = true
	}
	assert.True(t, spawns[leaderLoc])
	assert.True(t, spawns[followerLoc])
}

func TestCommittedMoveBroadcastsAndChargesAMove(t *testing.T) {
	f := newRoomFixture(t)
	f.settle()

	dest := f.cardFreeNeighbor(f.leader)
	f.walk(f.leader, dest)

	assert.True(t, f.room.actors[f.leader].Location().Equals(dest))
	ts := f.room.TurnState()
	assert.Equal(t, messages.RoleLeader, ts.Turn)
	assert.Equal(t, LeaderMovesPerTurn-1, ts.MovesRemaining)

	for _, id := range []int{f.leader, f.follower} {
		msgs := f.drainAll(id)
		require.NotEmpty(t, msgs)
		assert.Equal(t, messages.FromServerActions, msgs[0].Type)
		require.Len(t, msgs[0].Actions, 1)
		assert.Equal(t, f.leader, msgs[0].Actions[0].ID)
	}
}

func TestOutOfTurnActionDroppedAndDesynced(t *testing.T) {
	f := newRoomFixture(t)
	f.settle()

	before := f.room.actors[f.follower].Location()
	f.walk(f.follower, f.cardFreeNeighbor(f.follower))

	assert.True(t, f.room.actors[f.follower].Location().Equals(before))
	assert.Equal(t, LeaderMovesPerTurn, f.room.TurnState().MovesRemaining)

	msgs := f.drainAll(f.follower)
	require.NotEmpty(t, msgs)
	assert.Equal(t, messages.FromServerStateSync, msgs[0].Type)
}

func TestInvalidActionsRejected(t *testing.T) {
	f := newRoomFixture(t)
	f.settle()
	now := f.clk.Now()
	before := f.room.actors[f.leader].Location()

	// A two-cell jump exceeds the unit displacement tolerance.
	far := hexgrid.Add(hexgrid.Origin().Right(), hexgrid.Origin().Right())
	f.room.Submit(f.leader, messages.NewActionsToServer(
		[]messages.Action{messages.Walk(f.leader, far, now)}, now))
	f.room.Tick()
	assert.True(t, f.room.actors[f.leader].Location().Equals(before))

	// Clients may not issue INIT actions.
	f.room.Submit(f.leader, messages.NewActionsToServer(
		[]messages.Action{messages.Init(f.leader, hexgrid.Origin(), 0, now)}, now))
	f.room.Tick()
	assert.True(t, f.room.actors[f.leader].Location().Equals(before))

	assert.Equal(t, LeaderMovesPerTurn, f.room.TurnState().MovesRemaining)
	msgs := f.drainAll(f.leader)
	require.NotEmpty(t, msgs)
	assert.Equal(t, messages.FromServerStateSync, msgs[0].Type)
}

func TestMismatchedActionIDDesyncs(t *testing.T) {
	f := newRoomFixture(t)
	f.settle()
	now := f.clk.Now()

	f.room.Submit(f.leader, messages.NewActionsToServer(
		[]messages.Action{messages.Walk(f.follower, hexgrid.Origin().Right(), now)}, now))
	f.room.Tick()

	msgs := f.drainAll(f.leader)
	require.NotEmpty(t, msgs)
	assert.Equal(t, messages.FromServerStateSync, msgs[0].Type)
	assert.Empty(t, f.drainAll(f.follower))
}

func TestTurnExpiryFlipsToFollower(t *testing.T) {
	f := newRoomFixture(t)
	f.settle()

	f.clk.Add(LeaderTurnDuration)
	f.room.Tick()

	ts := f.room.TurnState()
	assert.Equal(t, messages.RoleFollower, ts.Turn)
	assert.Equal(t, FollowerMovesPerTurn, ts.MovesRemaining)
	assert.Equal(t, InitialTurnsLeft-1, ts.TurnsLeft)
	assert.Equal(t, f.clk.Now().Add(FollowerTurnDuration), ts.TurnEnd)
}

func TestTurnCompleteEndsTurnEarly(t *testing.T) {
	f := newRoomFixture(t)
	f.settle()
	now := f.clk.Now()

	// Out of turn: ignored.
	f.room.Submit(f.follower, messages.NewSimpleToServer(messages.ToServerTurnComplete, now))
	f.room.Tick()
	assert.Equal(t, messages.RoleLeader, f.room.TurnState().Turn)

	f.room.Submit(f.leader, messages.NewSimpleToServer(messages.ToServerTurnComplete, now))
	f.room.Tick()
	ts := f.room.TurnState()
	assert.Equal(t, messages.RoleFollower, ts.Turn)
	assert.Equal(t, FollowerMovesPerTurn, ts.MovesRemaining)
	assert.Equal(t, InitialTurnsLeft-1, ts.TurnsLeft)
}

func TestExhaustedMovesDropActions(t *testing.T) {
	f := newRoomFixture(t)
	f.settle()

	f.room.mu.Lock()
	f.room.turn.MovesRemaining = 0
	f.room.mu.Unlock()

	before := f.room.actors[f.leader].Location()
	f.walk(f.leader, f.cardFreeNeighbor(f.leader))
	assert.True(t, f.room.actors[f.leader].Location().Equals(before))

	msgs := f.drainAll(f.leader)
	require.NotEmpty(t, msgs)
	assert.Equal(t, messages.FromServerStateSync, msgs[0].Type)
}

func TestHeartbeatReemitsTurnState(t *testing.T) {
	f := newRoomFixture(t)
	f.settle()

	f.clk.Add(heartbeatPeriod)
	f.room.Tick()

	msgs := f.drainAll(f.leader)
	require.Len(t, msgs, 1)
	assert.Equal(t, messages.FromServerGameState, msgs[0].Type)
	assert.Equal(t, f.room.TurnState(), *msgs[0].TurnState)
}

func TestTurnBonusSchedule(t *testing.T) {
	assert.Equal(t, 5, turnBonus(0))
	assert.Equal(t, 4, turnBonus(1))
	assert.Equal(t, 4, turnBonus(2))
	assert.Equal(t, 3, turnBonus(3))
	assert.Equal(t, 3, turnBonus(4))
	assert.Equal(t, 0, turnBonus(5))
	assert.Equal(t, 0, turnBonus(9))
}

func TestValidSetScoresAndRespawns(t *testing.T) {
	f := newRoomFixture(t)
	f.settle()

	triple := distinctTriple(f.provider.Cards())
	for triple == nil {
		f.provider.AddRandomCards(3)
		triple = distinctTriple(f.provider.Cards())
	}
	for _, c := range triple {
		f.provider.SetSelected(c.ID, true)
	}
	f.room.Tick()

	ts := f.room.TurnState()
	assert.Equal(t, 1, ts.Score)
	assert.Equal(t, 1, ts.SetsCollected)
	assert.Equal(t, InitialTurnsLeft+5, ts.TurnsLeft)

	// The scored cards are gone, replacements spawned, selection cleared.
	for _, c := range triple {
		_, ok := f.provider.CardByLocation(c.Location)
		assert.False(t, ok, "scored card still on the board")
	}
	assert.Empty(t, f.provider.SelectedCards())

	msgs := f.drainAll(f.leader)
	require.GreaterOrEqual(t, len(msgs), 2)
	assert.Equal(t, messages.FromServerMapUpdate, msgs[0].Type)
	assert.Equal(t, messages.FromServerPropUpdate, msgs[1].Type)
}

func TestCollidingSelectionOutlinedRedAndCensored(t *testing.T) {
	f := newRoomFixture(t)
	f.settle()

	var pair []mapgen.Card
	cards := f.provider.Cards()
	for i := 0; i < len(cards) && pair == nil; i++ {
		for j := i + 1; j < len(cards); j++ {
			if cards[i].SharesAttribute(cards[j]) {
				pair = []mapgen.Card{cards[i], cards[j]}
				break
			}
		}
	}
	require.NotNil(t, pair, "board with 21 cards must contain a shared attribute")

	for _, c := range pair {
		f.provider.SetSelected(c.ID, true)
	}
	f.room.Tick()
	assert.True(t, f.room.currentSetInvalid)

	// The leader sees the collision in red.
	leaderColors := outlineColors(f.drainAll(f.leader))
	require.NotEmpty(t, leaderColors)
	assert.Contains(t, leaderColors, messages.ColorRed)

	// The follower's copy is censored to blue.
	followerColors := outlineColors(f.drainAll(f.follower))
	require.NotEmpty(t, followerColors)
	assert.NotContains(t, followerColors, messages.ColorRed)
	assert.Contains(t, followerColors, messages.ColorBlue)

	// Deselecting clears the collision and restores blue outlines.
	f.provider.SetSelected(pair[1].ID, false)
	f.room.Tick()
	assert.False(t, f.room.currentSetInvalid)
	leaderColors = outlineColors(f.drainAll(f.leader))
	require.NotEmpty(t, leaderColors)
	assert.NotContains(t, leaderColors, messages.ColorRed)
}

func TestSelectionDuringCollisionOutlinedRed(t *testing.T) {
	f := newRoomFixture(t)
	f.settle()

	var pair []mapgen.Card
	cards := f.provider.Cards()
	for i := 0; i < len(cards) && pair == nil; i++ {
		for j := i + 1; j < len(cards); j++ {
			if cards[i].SharesAttribute(cards[j]) {
				pair = []mapgen.Card{cards[i], cards[j]}
				break
			}
		}
	}
	require.NotNil(t, pair)
	for _, c := range pair {
		f.provider.SetSelected(c.ID, true)
	}
	f.room.Tick()
	require.True(t, f.room.currentSetInvalid)
	f.settle()

	var third mapgen.Card
	found := false
	for _, c := range f.provider.Cards() {
		if c.ID != pair[0].ID && c.ID != pair[1].ID {
			third, found = c, true
			break
		}
	}
	require.True(t, found)

	// Step onto a third card while the collision stands; its outline joins
	// the set in red, not blue.
	f.room.mu.Lock()
	f.room.actors[f.leader].location = third.Location.Neighbors()[0]
	f.room.mu.Unlock()
	f.walk(f.leader, third.Location)

	leaderColors := outlineColors(f.drainAll(f.leader))
	require.NotEmpty(t, leaderColors)
	assert.Contains(t, leaderColors, messages.ColorRed)
	assert.NotContains(t, leaderColors, messages.ColorBlue)

	// The follower's copy is censored to blue.
	followerColors := outlineColors(f.drainAll(f.follower))
	require.NotEmpty(t, followerColors)
	assert.NotContains(t, followerColors, messages.ColorRed)
}

func TestObjectiveFlow(t *testing.T) {
	f := newRoomFixture(t)
	f.settle()
	now := f.clk.Now()

	// Only the leader may send objectives.
	f.room.Submit(f.follower, messages.NewObjectiveToServer("ignored", now))
	f.room.Tick()
	assert.Empty(t, f.drainAll(f.follower))

	f.room.Submit(f.leader, messages.NewObjectiveToServer("grab the red star", now))
	f.room.Tick()

	findObjectives := func(msgs []messages.MessageFromServer) []messages.Objective {
		for _, m := range msgs {
			if m.Type == messages.FromServerObjective {
				return m.Objectives
			}
		}
		return nil
	}

	leaderView := findObjectives(f.drainAll(f.leader))
	followerView := findObjectives(f.drainAll(f.follower))
	require.Len(t, leaderView, 1)
	require.Len(t, followerView, 1)
	assert.Equal(t, "grab the red star", leaderView[0].Text)
	assert.NotEmpty(t, leaderView[0].UUID)
	assert.Equal(t, leaderView[0].UUID, followerView[0].UUID)
	assert.False(t, leaderView[0].Completed)

	// Only the follower may complete, and completion fans back out.
	f.room.Submit(f.follower, messages.NewObjectiveCompleteToServer(leaderView[0].UUID, now))
	f.room.Tick()
	leaderView = findObjectives(f.drainAll(f.leader))
	require.Len(t, leaderView, 1)
	assert.True(t, leaderView[0].Completed)
}

func TestInterruptCancelsObjectivesAndEndsTurn(t *testing.T) {
	f := newRoomFixture(t)
	f.settle()
	now := f.clk.Now()

	f.room.Submit(f.leader, messages.NewObjectiveToServer("walk forward", now))
	f.room.Submit(f.leader, messages.NewSimpleToServer(messages.ToServerTurnComplete, now))
	f.room.Tick()
	require.Equal(t, messages.RoleFollower, f.room.TurnState().Turn)
	f.settle()

	// Interrupt is ignored outside the follower's turn is covered above by
	// construction; here the leader cuts the follower short.
	f.room.Submit(f.leader, messages.NewSimpleToServer(messages.ToServerInterrupt, now))
	f.room.Tick()

	ts := f.room.TurnState()
	assert.Equal(t, messages.RoleLeader, ts.Turn)
	assert.Equal(t, InitialTurnsLeft-2, ts.TurnsLeft)

	var cancelled bool
	for _, m := range f.drainAll(f.follower) {
		if m.Type == messages.FromServerObjective {
			require.Len(t, m.Objectives, 1)
			cancelled = m.Objectives[0].Cancelled
		}
	}
	assert.True(t, cancelled, "outstanding objective should be cancelled")
}

func TestLiveFeedbackOnlyDuringFollowerTurn(t *testing.T) {
	f := newRoomFixture(t)
	f.settle()
	now := f.clk.Now()

	// Leader's own turn: feedback dropped.
	f.room.Submit(f.leader, messages.NewSimpleToServer(messages.ToServerPositiveFeedback, now))
	f.room.Tick()
	assert.Empty(t, f.drainAll(f.follower))

	f.room.Submit(f.leader, messages.NewSimpleToServer(messages.ToServerTurnComplete, now))
	f.room.Tick()
	f.settle()

	f.room.Submit(f.leader, messages.NewSimpleToServer(messages.ToServerPositiveFeedback, now))
	f.room.Tick()

	msgs := f.drainAll(f.follower)
	require.NotEmpty(t, msgs)
	last := msgs[len(msgs)-1]
	assert.Equal(t, messages.FromServerLiveFeedback, last.Type)
	require.NotNil(t, last.LiveFeedback)
	assert.Equal(t, messages.FeedbackPositive, last.LiveFeedback.Signal)

	// The leader never receives its own signal.
	for _, m := range f.drainAll(f.leader) {
		assert.NotEqual(t, messages.FromServerLiveFeedback, m.Type)
	}
}

func TestDrainPriorityActionsBeforeObjectivesBeforeTurnState(t *testing.T) {
	f := newRoomFixture(t)
	f.settle()
	now := f.clk.Now()

	f.walk(f.leader, f.cardFreeNeighbor(f.leader))
	f.room.Submit(f.leader, messages.NewObjectiveToServer("queued after the move", now))
	f.room.Tick()

	types := messageTypes(f.drainAll(f.leader))
	assert.Equal(t, []messages.FromServerType{
		messages.FromServerActions,
		messages.FromServerObjective,
		messages.FromServerGameState,
	}, types)
}

func TestStateSyncRequestForcesResync(t *testing.T) {
	f := newRoomFixture(t)
	f.settle()

	f.room.Submit(f.leader, messages.NewSimpleToServer(messages.ToServerStateSyncRequest, f.clk.Now()))
	f.room.Tick()

	msgs := f.drainAll(f.leader)
	require.Len(t, msgs, 1)
	require.Equal(t, messages.FromServerStateSync, msgs[0].Type)
	assert.Equal(t, f.leader, msgs[0].State.PlayerID)
	assert.Equal(t, messages.RoleLeader, msgs[0].State.PlayerRole)
	assert.Empty(t, f.drainAll(f.follower))
}

func TestFreeActorDesyncsSurvivors(t *testing.T) {
	f := newRoomFixture(t)
	f.settle()

	f.room.FreeActor(f.follower)
	assert.Equal(t, 1, f.room.Population())

	msgs := f.drainAll(f.leader)
	require.NotEmpty(t, msgs)
	assert.Equal(t, messages.FromServerStateSync, msgs[0].Type)
	assert.Equal(t, 1, msgs[0].State.Population)

	_, ok := f.room.Drain(f.follower)
	assert.False(t, ok)
}

func TestGameEndsWhenTurnsRunOut(t *testing.T) {
	f := newRoomFixture(t)
	f.settle()

	for !f.room.Done() {
		ts := f.room.TurnState()
		sender := f.leader
		if ts.Turn == messages.RoleFollower {
			sender = f.follower
		}
		f.room.Submit(sender, messages.NewSimpleToServer(messages.ToServerTurnComplete, f.clk.Now()))
		f.room.Tick()
	}

	ts := f.room.TurnState()
	assert.True(t, ts.GameOver)
	assert.Equal(t, messages.RoleNone, ts.Turn)
	assert.Equal(t, 0, ts.TurnsLeft)

	// A finished room still drains so clients see the terminal state.
	msgs := f.drainAll(f.leader)
	require.NotEmpty(t, msgs)
	final := msgs[len(msgs)-1]
	require.Equal(t, messages.FromServerGameState, final.Type)
	assert.True(t, final.TurnState.GameOver)

	// And stays inert afterwards.
	f.room.Tick()
	assert.Empty(t, f.drainAll(f.leader))
}

func TestEndGameIsIdempotent(t *testing.T) {
	f := newRoomFixture(t)
	f.settle()

	f.room.EndGame()
	f.room.EndGame()
	assert.True(t, f.room.Done())

	msgs := f.drainAll(f.leader)
	require.Len(t, msgs, 1)
	assert.True(t, msgs[0].TurnState.GameOver)
}
