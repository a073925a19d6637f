// Package engine implements the authoritative room state machine: the tick
// loop that validates and commits player actions, the turn machine, card set
// scoring and the per-player outgoing message queues.
package engine

import (
	"context"
	"encoding/json"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hexcoop/hexcoop/game/events"
	"github.com/hexcoop/hexcoop/game/hexgrid"
	"github.com/hexcoop/hexcoop/game/ids"
	"github.com/hexcoop/hexcoop/game/mapgen"
	"github.com/hexcoop/hexcoop/game/messages"
)

// Turn machine parameters. The leader moves first with fewer moves but more
// time per move; the follower gets a shorter, denser turn.
const (
	LeaderMovesPerTurn   = 5
	FollowerMovesPerTurn = 10
	LeaderTurnDuration   = 60 * time.Second
	FollowerTurnDuration = 45 * time.Second
	InitialTurnsLeft     = 6
)

const (
	// Validation tolerances. Translations must land on an adjacent cell
	// (unit distance) and rotations must stay within one 60 degree step;
	// the slack absorbs client float error.
	translateTolerance = 1.001
	rotateTolerance    = 60.01

	tickPeriod      = time.Millisecond
	heartbeatPeriod = time.Second
	inboxDepth      = 64
	cardsPerSet     = 3
)

// turnBonus returns the turns awarded for completing a set. Early sets pay
// more; after the fifth the game no longer extends.
func turnBonus(setsCollected int) int {
	switch {
	case setsCollected == 0:
		return 5
	case setsCollected <= 2:
		return 4
	case setsCollected <= 4:
		return 3
	default:
		return 0
	}
}

// MapProvider is the engine's view of the map layer. mapgen.Provider is the
// production implementation.
type MapProvider interface {
	Map() messages.MapUpdate
	PropUpdate() messages.PropUpdate
	SpawnPoints() []hexgrid.HecsCoord
	CardByLocation(hexgrid.HecsCoord) (mapgen.Card, bool)
	SetSelected(id int, selected bool)
	RemoveCard(id int)
	AddRandomCards(n int) []mapgen.Card
	SelectedCards() []mapgen.Card
	SelectedCardsCollide() bool
	SelectedValidSet() bool
}

type inbound struct {
	actorID int
	msg     messages.MessageToServer
}

// Room owns one game: its actors, map, turn machine, objectives and the
// per-player message queues the session layer drains. All exported methods
// are safe for concurrent use.
type Room struct {
	id       string
	log      *zap.Logger
	clk      clock.Clock
	recorder events.Recorder
	provider MapProvider
	ids      *ids.Assigner

	inbox chan inbound

	mu                sync.Mutex
	actors            map[int]*Actor
	actorSpawns       map[int]hexgrid.HecsCoord
	freeSpawns        []hexgrid.HecsCoord
	outboxes          map[int][]messages.Action
	mapStale          map[int]bool
	propStale         map[int]bool
	synced            map[int]bool
	objectivesStale   map[int]bool
	turnQueues        map[int][]messages.TurnState
	feedbackQueues    map[int][]messages.FeedbackSignal
	objectives        []messages.Objective
	mapUpdate         messages.MapUpdate
	turn              messages.TurnState
	lastHeartbeat     time.Time
	currentSetInvalid bool
	tick              int64
	done              bool
}

// NewRoom builds a room around an already-generated map. The id assigner is
// shared with the map provider so actor and prop ids never overlap. The game
// starts on the leader's turn.
func NewRoom(id string, provider MapProvider, assigner *ids.Assigner, clk clock.Clock, recorder events.Recorder, log *zap.Logger) *Room {
	now := clk.Now()
	r := &Room{
		id:              id,
		log:             log.With(zap.String("room_id", id)),
		clk:             clk,
		recorder:        recorder,
		provider:        provider,
		ids:             assigner,
		inbox:           make(chan inbound, inboxDepth),
		actors:          make(map[int]*Actor),
		actorSpawns:     make(map[int]hexgrid.HecsCoord),
		freeSpawns:      provider.SpawnPoints(),
		outboxes:        make(map[int][]messages.Action),
		mapStale:        make(map[int]bool),
		propStale:       make(map[int]bool),
		synced:          make(map[int]bool),
		objectivesStale: make(map[int]bool),
		turnQueues:      make(map[int][]messages.TurnState),
		feedbackQueues:  make(map[int][]messages.FeedbackSignal),
		mapUpdate:       provider.Map(),
		lastHeartbeat:   now,
	}
	r.turn = messages.TurnState{
		Turn:           messages.RoleLeader,
		MovesRemaining: LeaderMovesPerTurn,
		TurnsLeft:      InitialTurnsLeft,
		TurnEnd:        now.Add(LeaderTurnDuration),
		GameStart:      now,
	}
	return r
}

// ID returns the room id.
func (r *Room) ID() string { return r.id }

// TurnState returns a snapshot of the current turn machine state.
func (r *Room) TurnState() messages.TurnState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.turn
}

// Done reports whether the game has ended. A done room stops ticking but
// still drains, so clients receive the final game state.
func (r *Room) Done() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.done
}

// Population returns the number of actors in the room.
func (r *Room) Population() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.actors)
}

// CreateActor spawns an actor for the given role and returns its id. Every
// other player is desynced so the next state sync includes the newcomer.
func (r *Room) CreateActor(role messages.Role) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.ids.Alloc()
	spawn := hexgrid.Origin()
	if n := len(r.freeSpawns); n > 0 {
		spawn = r.freeSpawns[n-1]
		r.freeSpawns = r.freeSpawns[:n-1]
	}
	asset := mapgen.AssetPlayer
	if role == messages.RoleFollower {
		asset = mapgen.AssetFollowerBot
	}
	actor := NewActor(id, asset, role, spawn)
	r.actors[id] = actor
	r.actorSpawns[id] = spawn
	r.mapStale[id] = true
	r.propStale[id] = true
	r.objectivesStale[id] = true
	r.turnQueues[id] = []messages.TurnState{r.turn}
	r.desyncAllLocked()

	ev := events.New(r.id, events.TypeInitialState, r.tick, events.OriginForRole(role), r.clk.Now())
	ev.Role = role
	loc := actor.Location()
	heading := actor.HeadingDegrees()
	ev.Location = &loc
	ev.Orientation = &heading
	r.recorder.Record(ev)

	r.log.Info("actor joined",
		zap.Int("actor_id", id),
		zap.String("role", role.String()))
	return id
}

// FreeActor removes an actor, returns its id and spawn point to their pools
// and desyncs the remaining players.
func (r *Room) FreeActor(id int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.actors[id]; !ok {
		return
	}
	delete(r.actors, id)
	delete(r.outboxes, id)
	delete(r.mapStale, id)
	delete(r.propStale, id)
	delete(r.synced, id)
	delete(r.objectivesStale, id)
	delete(r.turnQueues, id)
	delete(r.feedbackQueues, id)
	if spawn, ok := r.actorSpawns[id]; ok {
		r.freeSpawns = append(r.freeSpawns, spawn)
		delete(r.actorSpawns, id)
	}
	r.ids.Free(id)
	r.desyncAllLocked()
	r.log.Info("actor left", zap.Int("actor_id", id))
}

// EndGame forces the game over immediately, queueing a terminal game state to
// every player.
func (r *Room) EndGame() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done {
		return
	}
	r.endGameLocked(r.clk.Now())
}

// Submit posts a client message to the room. It never blocks; if the room is
// too far behind, the message is dropped and the client will resync.
func (r *Room) Submit(actorID int, msg messages.MessageToServer) {
	select {
	case r.inbox <- inbound{actorID: actorID, msg: msg}:
	default:
		r.log.Warn("inbox full, dropping message",
			zap.Int("actor_id", actorID),
			zap.Int("message_type", int(msg.Type)))
	}
}

// Run drives the tick loop until the game ends or the context is cancelled.
func (r *Room) Run(ctx context.Context) {
	r.log.Info("room loop started")
	for {
		select {
		case <-ctx.Done():
			return
		case in := <-r.inbox:
			r.handlePacket(in.actorID, in.msg)
		case <-r.clk.After(tickPeriod):
			r.Tick()
		}
		if r.Done() {
			r.log.Info("room loop finished")
			return
		}
	}
}

// Tick runs a single iteration of the state machine: terminal check, turn
// state heartbeat, turn expiry, actor action queues, then card logic.
func (r *Room) Tick() {
	r.drainInbox()

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done {
		return
	}
	r.tick++
	now := r.clk.Now()

	if r.turn.TurnsLeft < 0 {
		r.endGameLocked(now)
		return
	}

	if !now.Before(r.lastHeartbeat.Add(heartbeatPeriod)) {
		r.lastHeartbeat = now
		r.recordTurnStateLocked(r.turn, now)
	}

	if !now.Before(r.turn.TurnEnd) {
		r.advanceTurnLocked(false, now)
	}

	for _, id := range r.sortedActorIDsLocked() {
		actor := r.actors[id]
		if !actor.HasActions() {
			continue
		}
		proposed := actor.Peek()
		switch {
		case actor.Role() != r.turn.Turn:
			actor.Drop()
			r.desyncLocked(id)
			r.log.Warn("action out of turn",
				zap.Int("actor_id", id),
				zap.String("role", actor.Role().String()))
		case r.turn.MovesRemaining <= 0:
			actor.Drop()
			r.desyncLocked(id)
			r.log.Warn("action with no moves remaining", zap.Int("actor_id", id))
		case !validAction(actor, proposed):
			actor.Drop()
			r.desyncLocked(id)
			r.log.Warn("invalid action",
				zap.Int("actor_id", id),
				zap.Int("action_type", int(proposed.ActionType)))
		default:
			r.commitActionLocked(actor, proposed, now)
		}
	}

	r.cardLogicLocked(now)
}

func (r *Room) drainInbox() {
	for {
		select {
		case in := <-r.inbox:
			r.handlePacket(in.actorID, in.msg)
		default:
			return
		}
	}
}

func (r *Room) sortedActorIDsLocked() []int {
	out := make([]int, 0, len(r.actors))
	for id := range r.actors {
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}

// validAction accepts only TRANSLATE and ROTATE proposals within tolerance.
// Everything else a client might send (INIT, OUTLINE, DEATH) is server-issued
// and therefore invalid as input.
func validAction(actor *Actor, proposed messages.Action) bool {
	switch proposed.ActionType {
	case messages.ActionTranslate:
		return proposed.Displacement.Norm() <= translateTolerance
	case messages.ActionRotate:
		return math.Abs(proposed.Rotation) <= rotateTolerance
	default:
		return false
	}
}

func (r *Room) commitActionLocked(actor *Actor, proposed messages.Action, now time.Time) {
	headingBefore := actor.HeadingDegrees()
	actor.Step()
	r.broadcastActionLocked(proposed)

	ev := events.New(r.id, events.TypeMove, r.tick, events.OriginForRole(actor.Role()), now)
	ev.Role = actor.Role()
	loc := actor.Location()
	heading := actor.HeadingDegrees()
	ev.Location = &loc
	ev.Orientation = &heading
	ev.ShortCode = moveShortCode(headingBefore, proposed)
	if data, err := json.Marshal(proposed); err == nil {
		ev.Data = string(data)
	}
	r.recorder.Record(ev)

	if proposed.ActionType == messages.ActionTranslate {
		r.checkSteppedOnCardLocked(actor, now)
	}
	r.advanceTurnLocked(false, now)
}

// moveShortCode compresses a committed move for the event log: forward, back,
// turn left or turn right.
func moveShortCode(headingBefore float64, a messages.Action) string {
	switch a.ActionType {
	case messages.ActionRotate:
		if a.Rotation >= 0 {
			return "TR"
		}
		return "TL"
	case messages.ActionTranslate:
		forward := hexgrid.Origin().NeighborAtHeading(headingBefore)
		if a.Displacement.Equals(forward) {
			return "MF"
		}
		return "MB"
	default:
		return ""
	}
}

// broadcastActionLocked appends a committed action to every player's outbox,
// the originator included so its client confirms the queued step.
func (r *Room) broadcastActionLocked(a messages.Action) {
	for id := range r.actors {
		r.outboxes[id] = append(r.outboxes[id], a)
	}
}

// checkSteppedOnCardLocked toggles the selection of a card under the actor's
// new position.
func (r *Room) checkSteppedOnCardLocked(actor *Actor, now time.Time) {
	card, ok := r.provider.CardByLocation(actor.Location())
	if !ok {
		return
	}
	selected := !card.Selected
	r.provider.SetSelected(card.ID, selected)
	// A selection made while the current set already collides joins it in
	// red; deselection clears the outline.
	color := messages.ColorBlue
	if r.currentSetInvalid {
		color = messages.ColorRed
	}
	if !selected {
		color = messages.ColorNone
	}
	r.broadcastActionLocked(messages.CardSelect(card.ID, selected, color, now))

	ev := events.New(r.id, events.TypeCardSelect, r.tick, events.OriginForRole(actor.Role()), now)
	ev.Role = actor.Role()
	loc := card.Location
	ev.Location = &loc
	if data, err := json.Marshal(card); err == nil {
		ev.Data = string(data)
	}
	r.recorder.Record(ev)
}

// cardLogicLocked runs once per tick, after actions: it outlines colliding
// selections red, restores blue when the collision clears, and scores a
// completed set.
func (r *Room) cardLogicLocked(now time.Time) {
	selected := r.provider.SelectedCards()
	cardsChanged := false

	if r.provider.SelectedCardsCollide() && !r.currentSetInvalid {
		r.currentSetInvalid = true
		cardsChanged = true
		for _, c := range selected {
			r.broadcastActionLocked(messages.CardSelect(c.ID, true, messages.ColorRed, now))
		}
	}

	if !r.provider.SelectedCardsCollide() && r.currentSetInvalid {
		r.currentSetInvalid = false
		cardsChanged = true
		for _, c := range selected {
			r.broadcastActionLocked(messages.CardSelect(c.ID, true, messages.ColorBlue, now))
		}
	}

	if r.provider.SelectedValidSet() {
		r.currentSetInvalid = false
		next := r.turn
		next.TurnsLeft += turnBonus(next.SetsCollected)
		next.SetsCollected++
		next.Score++
		r.recordTurnStateLocked(next, now)

		ev := events.New(r.id, events.TypeCardSet, r.tick, events.OriginServer, now)
		if data, err := json.Marshal(selected); err == nil {
			ev.Data = string(data)
		}
		r.recorder.Record(ev)

		for _, c := range selected {
			r.broadcastActionLocked(messages.CardSelect(c.ID, false, messages.ColorNone, now))
			r.provider.RemoveCard(c.ID)
		}
		for _, c := range r.provider.AddRandomCards(cardsPerSet) {
			spawn := events.New(r.id, events.TypeCardSpawn, r.tick, events.OriginServer, now)
			loc := c.Location
			spawn.Location = &loc
			if data, err := json.Marshal(c); err == nil {
				spawn.Data = string(data)
			}
			r.recorder.Record(spawn)
		}
		cardsChanged = true
	}

	if cardsChanged {
		r.mapUpdate = r.provider.Map()
		for id := range r.actors {
			r.mapStale[id] = true
			r.propStale[id] = true
		}
	}
}

// advanceTurnLocked is the single place the turn machine moves. With force
// (or once the clock passes the deadline) the turn flips to the opposite
// role with a fresh move allowance and deadline, consuming one of the
// remaining turns. Otherwise it just charges one move.
func (r *Room) advanceTurnLocked(force bool, now time.Time) {
	next := r.turn
	if force || !now.Before(r.turn.TurnEnd) {
		next.Turn = r.turn.Turn.Opposite()
		next.TurnsLeft = r.turn.TurnsLeft - 1
		if next.Turn == messages.RoleLeader {
			next.MovesRemaining = LeaderMovesPerTurn
			next.TurnEnd = now.Add(LeaderTurnDuration)
		} else {
			next.MovesRemaining = FollowerMovesPerTurn
			next.TurnEnd = now.Add(FollowerTurnDuration)
		}
	} else if next.MovesRemaining > 0 {
		next.MovesRemaining--
	}
	r.recordTurnStateLocked(next, now)
}

// recordTurnStateLocked commits a turn state and queues it to every player.
func (r *Room) recordTurnStateLocked(ts messages.TurnState, now time.Time) {
	r.turn = ts
	for id := range r.actors {
		r.turnQueues[id] = append(r.turnQueues[id], ts)
	}
	ev := events.New(r.id, events.TypeTurnState, r.tick, events.OriginServer, now)
	if data, err := json.Marshal(ts); err == nil {
		ev.Data = string(data)
	}
	r.recorder.Record(ev)
}

func (r *Room) endGameLocked(now time.Time) {
	r.recordTurnStateLocked(messages.GameOverState(r.turn), now)
	r.done = true
	r.log.Info("game over",
		zap.Int("score", r.turn.Score),
		zap.Int("sets_collected", r.turn.SetsCollected))
}

func (r *Room) handlePacket(actorID int, msg messages.MessageToServer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	actor, ok := r.actors[actorID]
	if !ok {
		r.log.Warn("packet from unknown actor", zap.Int("actor_id", actorID))
		return
	}
	now := r.clk.Now()

	switch msg.Type {
	case messages.ToServerActions:
		for _, a := range msg.Actions {
			if a.ID != actorID {
				r.log.Warn("action with mismatched id",
					zap.Int("actor_id", actorID),
					zap.Int("action_id", a.ID))
				r.desyncLocked(actorID)
				continue
			}
			actor.AddAction(a)
		}
	case messages.ToServerObjective, messages.ToServerInstruction:
		r.handleObjectiveLocked(actor, msg, now)
	case messages.ToServerObjectiveCompleted, messages.ToServerInstructionDone:
		r.handleObjectiveCompleteLocked(actor, msg, now)
	case messages.ToServerTurnComplete:
		if actor.Role() != r.turn.Turn {
			r.log.Warn("turn complete out of turn", zap.Int("actor_id", actorID))
			return
		}
		r.advanceTurnLocked(true, now)
	case messages.ToServerStateSyncRequest:
		r.desyncLocked(actorID)
	case messages.ToServerInterrupt:
		r.handleInterruptLocked(actor, now)
	case messages.ToServerPositiveFeedback:
		r.handleFeedbackLocked(actor, messages.FeedbackPositive, now)
	case messages.ToServerNegativeFeedback:
		r.handleFeedbackLocked(actor, messages.FeedbackNegative, now)
	case messages.ToServerPong:
		// Latency bookkeeping happens at the session layer.
	default:
		r.log.Warn("unhandled message in room",
			zap.Int("actor_id", actorID),
			zap.Int("message_type", int(msg.Type)))
	}
}

func (r *Room) handleObjectiveLocked(actor *Actor, msg messages.MessageToServer, now time.Time) {
	if actor.Role() != messages.RoleLeader {
		r.log.Warn("objective from non-leader", zap.Int("actor_id", actor.ID()))
		return
	}
	if msg.Objective == nil {
		return
	}
	obj := *msg.Objective
	obj.Sender = messages.RoleLeader
	obj.UUID = uuid.NewString()
	obj.Completed = false
	obj.Cancelled = false
	r.objectives = append(r.objectives, obj)
	r.staleObjectivesLocked()

	ev := events.New(r.id, events.TypeInstructionSent, r.tick, events.OriginLeader, now)
	ev.Role = messages.RoleLeader
	if data, err := json.Marshal(obj); err == nil {
		ev.Data = string(data)
	}
	r.recorder.Record(ev)
}

func (r *Room) handleObjectiveCompleteLocked(actor *Actor, msg messages.MessageToServer, now time.Time) {
	if actor.Role() != messages.RoleFollower {
		r.log.Warn("objective completion from non-follower", zap.Int("actor_id", actor.ID()))
		return
	}
	if msg.ObjectiveComplete == nil {
		return
	}
	for i := range r.objectives {
		if r.objectives[i].UUID != msg.ObjectiveComplete.UUID {
			continue
		}
		if r.objectives[i].Cancelled || r.objectives[i].Completed {
			return
		}
		r.objectives[i].Completed = true
		r.staleObjectivesLocked()

		ev := events.New(r.id, events.TypeInstructionDone, r.tick, events.OriginFollower, now)
		ev.Role = messages.RoleFollower
		ev.Data = r.objectives[i].UUID
		r.recorder.Record(ev)
		return
	}
	r.log.Warn("completion for unknown objective",
		zap.String("uuid", msg.ObjectiveComplete.UUID))
}

// handleInterruptLocked lets the leader cut the follower's turn short,
// cancelling every objective still outstanding.
func (r *Room) handleInterruptLocked(actor *Actor, now time.Time) {
	if actor.Role() != messages.RoleLeader || r.turn.Turn != messages.RoleFollower {
		r.log.Warn("interrupt ignored", zap.Int("actor_id", actor.ID()))
		return
	}
	cancelled := 0
	for i := range r.objectives {
		if !r.objectives[i].Completed && !r.objectives[i].Cancelled {
			r.objectives[i].Cancelled = true
			cancelled++
		}
	}
	if cancelled > 0 {
		r.staleObjectivesLocked()
		ev := events.New(r.id, events.TypeInstructionCancelled, r.tick, events.OriginLeader, now)
		ev.Role = messages.RoleLeader
		r.recorder.Record(ev)
	}
	r.advanceTurnLocked(true, now)
}

// handleFeedbackLocked relays a leader signal to every follower. Feedback is
// the one input accepted outside the sender's own turn, and only during the
// follower's.
func (r *Room) handleFeedbackLocked(actor *Actor, signal messages.FeedbackSignal, now time.Time) {
	if actor.Role() != messages.RoleLeader || r.turn.Turn != messages.RoleFollower {
		r.log.Warn("feedback ignored", zap.Int("actor_id", actor.ID()))
		return
	}
	for id, other := range r.actors {
		if other.Role() == messages.RoleFollower {
			r.feedbackQueues[id] = append(r.feedbackQueues[id], signal)
		}
	}
	ev := events.New(r.id, events.TypeLiveFeedback, r.tick, events.OriginLeader, now)
	ev.Role = messages.RoleLeader
	r.recorder.Record(ev)
}

func (r *Room) desyncLocked(id int) { r.synced[id] = false }

func (r *Room) desyncAllLocked() {
	for id := range r.actors {
		r.synced[id] = false
	}
}

func (r *Room) staleObjectivesLocked() {
	for id := range r.actors {
		r.objectivesStale[id] = true
	}
}

// Drain returns the next message queued for the given player, highest
// priority first: map, props, state sync, actions, objectives, turn state,
// live feedback. It returns false when nothing is pending.
func (r *Room) Drain(actorID int) (messages.MessageFromServer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	actor, ok := r.actors[actorID]
	if !ok {
		return messages.MessageFromServer{}, false
	}
	now := r.clk.Now()

	if r.mapStale[actorID] {
		r.mapStale[actorID] = false
		return messages.NewMapUpdateFromServer(r.mapUpdate, now), true
	}
	if r.propStale[actorID] {
		r.propStale[actorID] = false
		return messages.NewPropUpdateFromServer(r.provider.PropUpdate(), now), true
	}
	if !r.synced[actorID] {
		r.synced[actorID] = true
		return messages.NewStateSyncFromServer(r.stateSyncLocked(actorID), now), true
	}
	if len(r.outboxes[actorID]) > 0 {
		actions := r.outboxes[actorID]
		r.outboxes[actorID] = nil
		if actor.Role() == messages.RoleFollower {
			actions = censorActionsForFollower(actions)
		}
		return messages.NewActionsFromServer(actions, now), true
	}
	if r.objectivesStale[actorID] {
		r.objectivesStale[actorID] = false
		if len(r.objectives) > 0 {
			objectives := make([]messages.Objective, len(r.objectives))
			copy(objectives, r.objectives)
			return messages.NewObjectivesFromServer(objectives, now), true
		}
	}
	if q := r.turnQueues[actorID]; len(q) > 0 {
		ts := q[0]
		r.turnQueues[actorID] = q[1:]
		return messages.NewGameStateFromServer(ts, now), true
	}
	if q := r.feedbackQueues[actorID]; len(q) > 0 {
		signal := q[0]
		r.feedbackQueues[actorID] = q[1:]
		return messages.NewLiveFeedbackFromServer(signal, now), true
	}
	return messages.MessageFromServer{}, false
}

// HasPendingMessages reports whether Drain would return a message for the
// player. Rooms are reaped only after every player drains dry.
func (r *Room) HasPendingMessages(actorID int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.actors[actorID]; !ok {
		return false
	}
	return r.mapStale[actorID] ||
		r.propStale[actorID] ||
		!r.synced[actorID] ||
		len(r.outboxes[actorID]) > 0 ||
		(r.objectivesStale[actorID] && len(r.objectives) > 0) ||
		len(r.turnQueues[actorID]) > 0 ||
		len(r.feedbackQueues[actorID]) > 0
}

// censorActionsForFollower downgrades red set-collision outlines to blue so
// the follower cannot read set validity off the wire.
func censorActionsForFollower(actions []messages.Action) []messages.Action {
	out := make([]messages.Action, len(actions))
	copy(out, actions)
	for i := range out {
		if out[i].BorderColor == messages.ColorRed {
			out[i].BorderColor = messages.ColorBlue
		}
	}
	return out
}

func (r *Room) stateSyncLocked(forActor int) messages.StateSync {
	states := make([]messages.ActorState, 0, len(r.actors))
	for _, id := range r.sortedActorIDsLocked() {
		states = append(states, r.actors[id].State())
	}
	return messages.StateSync{
		Population: len(r.actors),
		Actors:     states,
		PlayerID:   forActor,
		PlayerRole: r.actors[forActor].Role(),
	}
}
