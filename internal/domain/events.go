package domain

import "context"

const (
	EventReviewCreated   = "review.created"
	EventReviewApproved  = "review.approved"
	EventReviewRejected  = "review.rejected"
	EventReviewPosted    = "review.posted"
	EventReviewDiscarded = "review.discarded"
	EventPostFailed      = "review.post_failed"
	EventPRSynced        = "pr.synced"
)

type Event struct {
	Type    string
	Payload map[string]any
}

type EventBus interface {
	Publish(ctx context.Context, e Event)
}
