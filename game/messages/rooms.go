package messages

// Role identifies which side of the cooperative pair an actor plays.
// Roles serialize as their integer values.
type Role int

const (
	RoleNone Role = iota
	RoleLeader
	RoleFollower
)

// String returns the display name used in logs and event records.
func (r Role) String() string {
	switch r {
	case RoleLeader:
		return "Leader"
	case RoleFollower:
		return "Follower"
	default:
		return "None"
	}
}

// Opposite returns the other playing role. None maps to itself.
func (r Role) Opposite() Role {
	switch r {
	case RoleLeader:
		return RoleFollower
	case RoleFollower:
		return RoleLeader
	default:
		return RoleNone
	}
}

// RoomResponseType discriminates room-management payloads.
type RoomResponseType int

const (
	RoomResponseNone RoomResponseType = iota
	RoomResponseStats
	RoomResponseJoinResponse
	RoomResponseLeaveNotice
)

// JoinResponse tells a queued client whether it entered a room.
type JoinResponse struct {
	Joined          bool `json:"joined"`
	PlaceInQueue    int  `json:"place_in_queue"`
	Role            Role `json:"role"`
	BootedFromQueue bool `json:"booted_from_queue"`
}

// RoomStats is a lightweight occupancy snapshot for status pages.
type RoomStats struct {
	Rooms         int `json:"rooms"`
	PlayersInGame int `json:"players_in_game"`
	PlayersQueued int `json:"players_queued"`
}

// LeaveNotice explains why the server removed a client from its room.
type LeaveNotice struct {
	Reason string `json:"reason"`
}

// RoomManagementResponse is the ROOM_MANAGEMENT payload.
type RoomManagementResponse struct {
	Type         RoomResponseType `json:"type"`
	JoinResponse *JoinResponse    `json:"join_response,omitempty"`
	Stats        *RoomStats       `json:"stats,omitempty"`
	LeaveNotice  *LeaveNotice     `json:"leave_notice,omitempty"`
}
