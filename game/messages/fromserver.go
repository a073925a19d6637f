package messages

import "time"

// FromServerType tags MessageFromServer payloads.
type FromServerType int

const (
	FromServerNone FromServerType = iota
	FromServerActions
	FromServerStateSync
	FromServerMapUpdate
	FromServerPropUpdate
	FromServerGameState
	FromServerObjective
	FromServerRoomManagement
	FromServerPing
	FromServerLiveFeedback
	FromServerStateMachineTick
)

// MessageFromServer is the tagged union the server sends. Exactly the
// payload matching Type is populated; STATE_MACHINE_TICK and PING carry no
// payload at all.
type MessageFromServer struct {
	TransmitTime time.Time      `json:"transmit_time"`
	Type         FromServerType `json:"type"`

	Actions        []Action                `json:"actions,omitempty"`
	State          *StateSync              `json:"state,omitempty"`
	MapUpdate      *MapUpdate              `json:"map_update,omitempty"`
	PropUpdate     *PropUpdate             `json:"prop_update,omitempty"`
	TurnState      *TurnState              `json:"turn_state,omitempty"`
	Objectives     []Objective             `json:"objectives,omitempty"`
	RoomManagement *RoomManagementResponse `json:"room_management_response,omitempty"`
	LiveFeedback   *LiveFeedback           `json:"live_feedback,omitempty"`
}

// NewActionsFromServer wraps committed actions for transmission.
func NewActionsFromServer(actions []Action, now time.Time) MessageFromServer {
	return MessageFromServer{TransmitTime: now, Type: FromServerActions, Actions: actions}
}

// NewStateSyncFromServer wraps a full actor snapshot.
func NewStateSyncFromServer(sync StateSync, now time.Time) MessageFromServer {
	return MessageFromServer{TransmitTime: now, Type: FromServerStateSync, State: &sync}
}

// NewMapUpdateFromServer wraps a map replacement.
func NewMapUpdateFromServer(m MapUpdate, now time.Time) MessageFromServer {
	return MessageFromServer{TransmitTime: now, Type: FromServerMapUpdate, MapUpdate: &m}
}

// NewPropUpdateFromServer wraps a prop-list replacement.
func NewPropUpdateFromServer(p PropUpdate, now time.Time) MessageFromServer {
	return MessageFromServer{TransmitTime: now, Type: FromServerPropUpdate, PropUpdate: &p}
}

// NewGameStateFromServer wraps a turn state snapshot.
func NewGameStateFromServer(ts TurnState, now time.Time) MessageFromServer {
	return MessageFromServer{TransmitTime: now, Type: FromServerGameState, TurnState: &ts}
}

// NewObjectivesFromServer wraps the full objective list.
func NewObjectivesFromServer(objectives []Objective, now time.Time) MessageFromServer {
	return MessageFromServer{TransmitTime: now, Type: FromServerObjective, Objectives: objectives}
}

// NewRoomManagementFromServer wraps a queue/room lifecycle response.
func NewRoomManagementFromServer(r RoomManagementResponse, now time.Time) MessageFromServer {
	return MessageFromServer{TransmitTime: now, Type: FromServerRoomManagement, RoomManagement: &r}
}

// NewLiveFeedbackFromServer relays a leader feedback signal.
func NewLiveFeedbackFromServer(signal FeedbackSignal, now time.Time) MessageFromServer {
	return MessageFromServer{
		TransmitTime: now,
		Type:         FromServerLiveFeedback,
		LiveFeedback: &LiveFeedback{Signal: signal},
	}
}

// NewPingFromServer builds a keepalive probe; clients answer with PONG.
func NewPingFromServer(now time.Time) MessageFromServer {
	return MessageFromServer{TransmitTime: now, Type: FromServerPing}
}

// NewTickFromServer builds the tick marker that bounds client step calls.
func NewTickFromServer(now time.Time) MessageFromServer {
	return MessageFromServer{TransmitTime: now, Type: FromServerStateMachineTick}
}
