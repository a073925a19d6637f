package engine

import (
	"github.com/hexcoop/hexcoop/game/hexgrid"
	"github.com/hexcoop/hexcoop/game/messages"
)

// Actor is one player's in-world avatar: a pose plus a FIFO of proposed
// actions awaiting validation. Only the room engine mutates an actor, and
// Step is only called after the engine validates the head of the queue.
type Actor struct {
	id             int
	assetID        int
	role           messages.Role
	location       hexgrid.HecsCoord
	headingDegrees float64
	pending        []messages.Action
}

// NewActor places an actor at its spawn point facing heading 0.
func NewActor(id, assetID int, role messages.Role, spawn hexgrid.HecsCoord) *Actor {
	return &Actor{id: id, assetID: assetID, role: role, location: spawn}
}

// ID returns the actor's room-scoped id.
func (a *Actor) ID() int { return a.id }

// AssetID returns the render asset for this actor.
func (a *Actor) AssetID() int { return a.assetID }

// Role returns the actor's role.
func (a *Actor) Role() messages.Role { return a.role }

// Location returns the actor's committed position.
func (a *Actor) Location() hexgrid.HecsCoord { return a.location }

// HeadingDegrees returns the actor's committed heading.
func (a *Actor) HeadingDegrees() float64 { return a.headingDegrees }

// AddAction enqueues a proposed action.
func (a *Actor) AddAction(action messages.Action) {
	a.pending = append(a.pending, action)
}

// HasActions reports whether a proposed action is pending.
func (a *Actor) HasActions() bool { return len(a.pending) > 0 }

// Peek returns the head of the queue without consuming it.
func (a *Actor) Peek() messages.Action { return a.pending[0] }

// Step consumes the head of the queue and applies it: the displacement adds
// onto the location (HECS carry rule) and the rotation onto the heading.
func (a *Actor) Step() {
	if !a.HasActions() {
		return
	}
	action := a.pending[0]
	a.pending = a.pending[1:]
	a.location = hexgrid.Add(a.location, action.Displacement)
	a.headingDegrees += action.Rotation
}

// Drop discards the head of the queue without applying it.
func (a *Actor) Drop() {
	if !a.HasActions() {
		return
	}
	a.pending = a.pending[1:]
}

// State snapshots the actor for a state sync.
func (a *Actor) State() messages.ActorState {
	return messages.ActorState{
		ActorID:         a.id,
		AssetID:         a.assetID,
		ActorRole:       a.role,
		Location:        a.location,
		RotationDegrees: a.headingDegrees,
	}
}
