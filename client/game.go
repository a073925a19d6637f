package client

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hexcoop/hexcoop/game/hexgrid"
	"github.com/hexcoop/hexcoop/game/messages"
)

// ActionCode enumerates everything a player can do in a step.
type ActionCode int

const (
	ActionForward ActionCode = iota
	ActionBackward
	ActionTurnLeft
	ActionTurnRight
	ActionEndTurn
	ActionSendInstruction
	ActionInstructionDone
	ActionInterrupt
	ActionPositiveFeedback
	ActionNegativeFeedback
)

// Action is one step input. Instruction carries the text for
// SEND_INSTRUCTION; InstructionUUID identifies the target of
// INSTRUCTION_DONE.
type Action struct {
	Code            ActionCode
	Instruction     string
	InstructionUUID string
}

var (
	ErrNotYourTurn   = errors.New("not your turn")
	ErrWrongRole     = errors.New("action not available to this role")
	ErrUnknownAction = errors.New("unknown action code")
)

// mirrorActor is the client-side copy of one actor's pose.
type mirrorActor struct {
	id      int
	assetID int
	role    messages.Role
	loc     hexgrid.HecsCoord
	heading float64
}

func (a *mirrorActor) apply(action messages.Action) {
	switch action.ActionType {
	case messages.ActionTranslate:
		a.loc = hexgrid.Add(a.loc, action.Displacement)
	case messages.ActionRotate:
		a.heading += action.Rotation
	case messages.ActionInit:
		a.loc = action.Displacement
		a.heading = action.Rotation
	}
}

// Game mirrors one match from a single player's perspective. It is not safe
// for concurrent use; callers drive it from one goroutine the way a game
// loop would.
type Game struct {
	conn Conn
	log  *zap.Logger

	role         messages.Role
	playerID     int
	actors       map[int]*mirrorActor
	mapUpdate    *messages.MapUpdate
	props        []messages.Prop
	turnState    messages.TurnState
	instructions []messages.Objective
	over         bool
	pendingPongs int
	haveSync     bool
	haveTurn     bool

	feedbackHandler func(messages.FeedbackSignal)
}

func newGame(conn Conn, log *zap.Logger) *Game {
	return &Game{
		conn:   conn,
		log:    log.Named("game"),
		actors: make(map[int]*mirrorActor),
	}
}

// Role returns which side this player plays.
func (g *Game) Role() messages.Role { return g.role }

// Over reports whether the match ended.
func (g *Game) Over() bool { return g.over }

// TurnState returns the latest authoritative turn snapshot.
func (g *Game) TurnState() messages.TurnState { return g.turnState }

// Map returns the current map, nil before the handshake completes.
func (g *Game) Map() *messages.MapUpdate { return g.mapUpdate }

// Props returns the current prop list.
func (g *Game) Props() []messages.Prop { return g.props }

// Instructions returns the instruction list, oldest first.
func (g *Game) Instructions() []messages.Objective {
	out := make([]messages.Objective, len(g.instructions))
	copy(out, g.instructions)
	return out
}

// Position returns this player's mirrored location and heading.
func (g *Game) Position() (hexgrid.HecsCoord, float64) {
	if a, ok := g.actors[g.playerID]; ok {
		return a.loc, a.heading
	}
	return hexgrid.Origin(), 0
}

// PartnerPosition returns the other player's mirrored location, if known.
func (g *Game) PartnerPosition() (hexgrid.HecsCoord, bool) {
	for id, a := range g.actors {
		if id != g.playerID {
			return a.loc, true
		}
	}
	return hexgrid.Origin(), false
}

// OnFeedback registers a handler for live feedback from the leader.
func (g *Game) OnFeedback(h func(messages.FeedbackSignal)) { g.feedbackHandler = h }

// Step performs one action and blocks until this player can act again or the
// game ends. Movement applies locally at once; the server's echo is
// discarded on receipt.
func (g *Game) Step(action Action) error {
	if g.over {
		return ErrGameOver
	}
	if err := g.validate(action); err != nil {
		return err
	}
	if err := g.send(action); err != nil {
		return err
	}
	if err := g.flushPongs(); err != nil {
		return err
	}
	if err := g.waitForTick(); err != nil {
		return err
	}
	for !g.canAct() && !g.over {
		if err := g.waitForTick(); err != nil {
			return err
		}
	}
	return nil
}

// WaitForTurn blocks until it is this player's turn or the game ends.
func (g *Game) WaitForTurn() error {
	for !g.over && g.turnState.Turn != g.role {
		if err := g.flushPongs(); err != nil {
			return err
		}
		if err := g.waitForTick(); err != nil {
			return err
		}
	}
	return nil
}

// canAct mirrors the server's acceptance rules: the active role can act, and
// the leader can always interject with feedback or an interrupt.
func (g *Game) canAct() bool {
	return g.turnState.Turn == g.role || g.role == messages.RoleLeader
}

func (g *Game) validate(action Action) error {
	switch action.Code {
	case ActionForward, ActionBackward, ActionTurnLeft, ActionTurnRight, ActionEndTurn:
		if g.turnState.Turn != g.role {
			return ErrNotYourTurn
		}
	case ActionSendInstruction:
		if g.role != messages.RoleLeader {
			return ErrWrongRole
		}
		if g.turnState.Turn != messages.RoleLeader {
			return ErrNotYourTurn
		}
	case ActionInstructionDone:
		if g.role != messages.RoleFollower {
			return ErrWrongRole
		}
		if g.turnState.Turn != messages.RoleFollower {
			return ErrNotYourTurn
		}
	case ActionInterrupt, ActionPositiveFeedback, ActionNegativeFeedback:
		if g.role != messages.RoleLeader {
			return ErrWrongRole
		}
		if g.turnState.Turn != messages.RoleFollower {
			return ErrNotYourTurn
		}
	default:
		return fmt.Errorf("%w: %d", ErrUnknownAction, action.Code)
	}
	return nil
}

func (g *Game) send(action Action) error {
	now := time.Now()
	switch action.Code {
	case ActionForward, ActionBackward, ActionTurnLeft, ActionTurnRight:
		wire := g.moveAction(action.Code, now)
		// Optimistic local apply; the echo is skipped in handleActions.
		if a, ok := g.actors[g.playerID]; ok {
			a.apply(wire)
		}
		return g.conn.Write(messages.NewActionsToServer([]messages.Action{wire}, now))
	case ActionEndTurn:
		return g.conn.Write(messages.NewSimpleToServer(messages.ToServerTurnComplete, now))
	case ActionSendInstruction:
		return g.conn.Write(messages.NewObjectiveToServer(action.Instruction, now))
	case ActionInstructionDone:
		return g.conn.Write(messages.NewObjectiveCompleteToServer(action.InstructionUUID, now))
	case ActionInterrupt:
		return g.conn.Write(messages.NewSimpleToServer(messages.ToServerInterrupt, now))
	case ActionPositiveFeedback:
		return g.conn.Write(messages.NewSimpleToServer(messages.ToServerPositiveFeedback, now))
	case ActionNegativeFeedback:
		return g.conn.Write(messages.NewSimpleToServer(messages.ToServerNegativeFeedback, now))
	default:
		return fmt.Errorf("%w: %d", ErrUnknownAction, action.Code)
	}
}

func (g *Game) moveAction(code ActionCode, now time.Time) messages.Action {
	me := g.actors[g.playerID]
	switch code {
	case ActionForward:
		dest := me.loc.NeighborAtHeading(me.heading)
		return messages.Walk(g.playerID, hexgrid.Sub(dest, me.loc), now)
	case ActionBackward:
		dest := me.loc.NeighborAtHeading(me.heading + 180)
		return messages.Walk(g.playerID, hexgrid.Sub(dest, me.loc), now)
	case ActionTurnLeft:
		return messages.Turn(g.playerID, -60, now)
	default:
		return messages.Turn(g.playerID, 60, now)
	}
}

// waitForTick dispatches incoming messages until the next state machine
// tick frame.
func (g *Game) waitForTick() error {
	for {
		msg, err := g.conn.Read(readTimeout)
		if err != nil {
			return fmt.Errorf("read failed: %w", err)
		}
		if msg.Type == messages.FromServerStateMachineTick {
			return nil
		}
		g.handleMessage(msg)
		if g.over {
			return nil
		}
	}
}

func (g *Game) flushPongs() error {
	for g.pendingPongs > 0 {
		if err := g.conn.Write(messages.NewSimpleToServer(messages.ToServerPong, time.Now())); err != nil {
			return err
		}
		g.pendingPongs--
	}
	return nil
}

func (g *Game) handshakeComplete() bool {
	return g.role != messages.RoleNone &&
		g.mapUpdate != nil &&
		g.props != nil &&
		g.haveSync &&
		g.haveTurn
}

func (g *Game) handleMessage(msg messages.MessageFromServer) {
	switch msg.Type {
	case messages.FromServerActions:
		g.handleActions(msg.Actions)
	case messages.FromServerStateSync:
		g.handleStateSync(msg.State)
	case messages.FromServerMapUpdate:
		g.mapUpdate = msg.MapUpdate
	case messages.FromServerPropUpdate:
		g.props = msg.PropUpdate.Props
	case messages.FromServerGameState:
		g.turnState = *msg.TurnState
		g.haveTurn = true
		if g.turnState.GameOver {
			g.over = true
		}
	case messages.FromServerObjective:
		g.instructions = msg.Objectives
	case messages.FromServerPing:
		g.pendingPongs++
	case messages.FromServerLiveFeedback:
		if g.feedbackHandler != nil {
			g.feedbackHandler(msg.LiveFeedback.Signal)
		}
	case messages.FromServerStateMachineTick:
		// Consumed by waitForTick; arriving here is harmless.
	default:
		g.log.Debug("unhandled server message", zap.Int("type", int(msg.Type)))
	}
}

func (g *Game) handleActions(actions []messages.Action) {
	for _, a := range actions {
		// Own movement was applied optimistically at send time.
		if a.ID == g.playerID && a.ActionType != messages.ActionInit {
			continue
		}
		if actor, ok := g.actors[a.ID]; ok {
			actor.apply(a)
			continue
		}
		if a.ActionType == messages.ActionOutline {
			g.applyOutline(a)
		}
	}
}

func (g *Game) applyOutline(a messages.Action) {
	for i := range g.props {
		if g.props[i].ID != a.ID || g.props[i].CardInit == nil {
			continue
		}
		g.props[i].CardInit.Selected = a.BorderRadius > 0
		return
	}
}

// handleStateSync snaps every mirrored actor to the authoritative pose,
// dropping anything the server no longer tracks.
func (g *Game) handleStateSync(sync *messages.StateSync) {
	g.playerID = sync.PlayerID
	if g.role == messages.RoleNone {
		g.role = sync.PlayerRole
	}
	g.actors = make(map[int]*mirrorActor, len(sync.Actors))
	for _, s := range sync.Actors {
		g.actors[s.ActorID] = &mirrorActor{
			id:      s.ActorID,
			assetID: s.AssetID,
			role:    s.ActorRole,
			loc:     s.Location,
			heading: s.RotationDegrees,
		}
	}
	g.haveSync = true
}
