package review

import (
	"context"
	"time"
)

// Transition carries the fields written together with a CAS status update.
type Transition struct {
	DecidedBy       string
	DecisionComment string
	DecidedAt       *time.Time
	PostedAt        *time.Time
	GithubCommentID *int64
	FailureReason   string
}

// ListFilter narrows List results; zero value means everything.
type ListFilter struct {
	PullRequestID string
	Status        Status
}

type Repository interface {
	Create(ctx context.Context, r Review) (Review, error)
	GetByID(ctx context.Context, id string) (Review, error)
	// LockByID takes a row lock so a transaction can serialize transitions
	// for one review.
	LockByID(ctx context.Context, id string) (Review, error)
	GetByPRAndSHA(ctx context.Context, prID, headSHA string) (Review, bool, error)
	// ListNonTerminalByPR returns reviews still able to move, oldest first.
	ListNonTerminalByPR(ctx context.Context, prID string) ([]Review, error)
	List(ctx context.Context, f ListFilter) ([]Review, error)
	// UpdateStatusCAS flips status only when the stored status equals from.
	// A stale expectation yields a conflict or terminal-state error, never a
	// silent overwrite.
	UpdateStatusCAS(ctx context.Context, id string, from, to Status, tr Transition) (Review, error)
	RecordDecision(ctx context.Context, d Decision) (Decision, error)
}
