package messages

// Objective is a structured instruction from the leader to the follower.
// The server assigns the UUID; clients treat it as opaque.
type Objective struct {
	Sender    Role   `json:"sender"`
	Text      string `json:"text"`
	UUID      string `json:"uuid"`
	Completed bool   `json:"completed"`
	Cancelled bool   `json:"cancelled"`
}

// ObjectiveComplete marks an objective done, identified by its UUID.
type ObjectiveComplete struct {
	UUID string `json:"uuid"`
}
