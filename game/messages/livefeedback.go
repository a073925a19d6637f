package messages

// FeedbackSignal is the leader's real-time reaction to follower moves.
type FeedbackSignal int

const (
	FeedbackNone FeedbackSignal = iota
	FeedbackPositive
	FeedbackNegative
)

// LiveFeedback relays a feedback signal to the follower.
type LiveFeedback struct {
	Signal FeedbackSignal `json:"signal"`
}
