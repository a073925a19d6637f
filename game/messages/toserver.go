package messages

import "time"

// ToServerType tags MessageToServer payloads.
type ToServerType int

const (
	ToServerNone ToServerType = iota
	ToServerActions
	ToServerObjective
	ToServerObjectiveCompleted
	ToServerTurnComplete
	ToServerStateSyncRequest
	ToServerJoinQueue
	ToServerJoinLeaderQueue
	ToServerJoinFollowerQueue
	ToServerLeave
	ToServerPong
	ToServerInstruction
	ToServerInstructionDone
	ToServerInterrupt
	ToServerPositiveFeedback
	ToServerNegativeFeedback
)

// MessageToServer is the tagged union clients send. Exactly the payload
// matching Type is populated.
type MessageToServer struct {
	TransmitTime time.Time `json:"transmit_time"`
	Type         ToServerType `json:"type"`

	Actions           []Action           `json:"actions,omitempty"`
	Objective         *Objective         `json:"objective,omitempty"`
	ObjectiveComplete *ObjectiveComplete `json:"objective_complete,omitempty"`
}

// NewActionsToServer wraps proposed actions for transmission.
func NewActionsToServer(actions []Action, now time.Time) MessageToServer {
	return MessageToServer{TransmitTime: now, Type: ToServerActions, Actions: actions}
}

// NewObjectiveToServer wraps a leader instruction for transmission.
func NewObjectiveToServer(text string, now time.Time) MessageToServer {
	return MessageToServer{
		TransmitTime: now,
		Type:         ToServerObjective,
		Objective:    &Objective{Sender: RoleLeader, Text: text},
	}
}

// NewObjectiveCompleteToServer marks the identified objective done.
func NewObjectiveCompleteToServer(uuid string, now time.Time) MessageToServer {
	return MessageToServer{
		TransmitTime:      now,
		Type:              ToServerObjectiveCompleted,
		ObjectiveComplete: &ObjectiveComplete{UUID: uuid},
	}
}

// NewSimpleToServer builds a payload-free message of the given kind
// (TURN_COMPLETE, PONG, LEAVE, queue joins, feedback, ...).
func NewSimpleToServer(t ToServerType, now time.Time) MessageToServer {
	return MessageToServer{TransmitTime: now, Type: t}
}
