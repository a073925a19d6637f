// Package messages defines the wire model shared by the server engine and the
// client mirror: actions, map and prop snapshots, turn state, state sync,
// objectives and the tagged message envelopes that carry them.
//
// Every enum serializes as its integer value; the envelopes carry an ISO-8601
// transmission timestamp (time.Time marshals as RFC 3339, which satisfies
// that requirement).
package messages

import (
	"time"

	"github.com/hexcoop/hexcoop/game/hexgrid"
)

// ActionType discriminates what an Action does to an actor or prop.
type ActionType int

const (
	ActionInit ActionType = iota
	ActionInstant
	ActionRotate
	ActionTranslate
	ActionOutline
	ActionDeath
)

// AnimationType is a presentation hint for clients; the engine never
// interprets it.
type AnimationType int

const (
	AnimationNone AnimationType = iota
	AnimationIdle
	AnimationWalking
	AnimationInstant
	AnimationTranslate
	AnimationAccelDecel
	AnimationSkipping
	AnimationRotate
)

// Color is an RGBA color with components in [0, 1].
type Color struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
	A float64 `json:"a"`
}

// Outline colors used by card selection feedback.
var (
	ColorNone = Color{}
	ColorBlue = Color{B: 1, A: 1}
	ColorRed  = Color{R: 1, A: 1}
)

// Action is one immutable proposed or committed change to an actor or prop.
// TRANSLATE carries a unit displacement, ROTATE a rotation in degrees; the
// remaining types carry presentational data only.
type Action struct {
	ID            int               `json:"id"`
	ActionType    ActionType        `json:"action_type"`
	AnimationType AnimationType     `json:"animation_type"`
	Displacement  hexgrid.HecsCoord `json:"displacement"`
	Rotation      float64           `json:"rotation"`
	BorderRadius  float64           `json:"border_radius"`
	BorderColor   Color             `json:"border_color"`
	DurationS     float64           `json:"duration_s"`
	Expiration    time.Time         `json:"expiration"`
}

const actionExpiry = 10 * time.Second

// Walk builds a TRANSLATE action moving the actor by displacement.
func Walk(id int, displacement hexgrid.HecsCoord, now time.Time) Action {
	return Action{
		ID:            id,
		ActionType:    ActionTranslate,
		AnimationType: AnimationWalking,
		Displacement:  displacement,
		DurationS:     0.5,
		Expiration:    now.Add(actionExpiry),
	}
}

// Turn builds a ROTATE action turning the actor by angle degrees.
func Turn(id int, angleDegrees float64, now time.Time) Action {
	return Action{
		ID:            id,
		ActionType:    ActionRotate,
		AnimationType: AnimationRotate,
		Rotation:      angleDegrees,
		DurationS:     0.5,
		Expiration:    now.Add(actionExpiry),
	}
}

// CardSelect builds an OUTLINE action marking a card prop as selected (or
// clearing the outline when selected is false).
func CardSelect(cardID int, selected bool, color Color, now time.Time) Action {
	radius := 0.0
	if selected {
		radius = 2.0
	}
	return Action{
		ID:            cardID,
		ActionType:    ActionOutline,
		AnimationType: AnimationNone,
		BorderRadius:  radius,
		BorderColor:   color,
		DurationS:     0.2,
		Expiration:    now.Add(actionExpiry),
	}
}

// Init builds an INIT action that snaps an actor to a known pose. Used by
// clients when applying a state sync.
func Init(id int, location hexgrid.HecsCoord, headingDegrees float64, now time.Time) Action {
	return Action{
		ID:            id,
		ActionType:    ActionInit,
		AnimationType: AnimationInstant,
		Displacement:  location,
		Rotation:      headingDegrees,
		Expiration:    now.Add(actionExpiry),
	}
}
