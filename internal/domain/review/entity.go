package review

import (
	"fmt"
	"time"

	"reviewgate/internal/domain"
	"reviewgate/internal/domain/engine"
	"reviewgate/internal/domain/rules"
)

type Status string

const (
	StatusPending    Status = "PENDING"
	StatusApproved   Status = "APPROVED"
	StatusRejected   Status = "REJECTED"
	StatusPosted     Status = "POSTED"
	StatusPostFailed Status = "POST_FAILED"
	StatusDiscarded  Status = "DISCARDED"
)

// allowedTransitions is the whole state machine. POST_FAILED -> APPROVED is
// the manual retry edge, and every non-terminal state can be discarded when
// a new head commit supersedes it; everything absent here is illegal.
var allowedTransitions = map[Status][]Status{
	StatusPending:    {StatusApproved, StatusRejected, StatusDiscarded},
	StatusApproved:   {StatusPosted, StatusPostFailed, StatusDiscarded},
	StatusPostFailed: {StatusApproved, StatusDiscarded},
}

// Terminal reports whether no transition may ever leave s.
func (s Status) Terminal() bool {
	return len(allowedTransitions[s]) == 0
}

// CanTransition validates from -> to, distinguishing a dead terminal state
// from a live conflicting one.
func CanTransition(from, to Status) error {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return nil
		}
	}
	if from.Terminal() {
		return domain.NewTerminalStateError(fmt.Sprintf("review is %s, no further transitions", from))
	}
	return domain.NewConflictError(fmt.Sprintf("cannot transition review from %s to %s", from, to))
}

// Review is one generated feedback artifact for a PR at one head commit.
// The expectations snapshot and findings are frozen at creation; only the
// status column and decision metadata move afterwards, and history is
// append-only — superseded reviews are discarded, never deleted.
type Review struct {
	ID              string
	PullRequestID   string
	HeadSHA         string
	Category        rules.Category
	Expectations    rules.RuleSet
	Findings        []engine.Finding
	Remarks         []engine.Remark
	Summary         string
	Score           int
	Rating          engine.Rating
	Verdict         engine.SummaryVerdict
	Status          Status
	FailureReason   string
	GithubCommentID *int64
	DecidedBy       string
	DecisionComment string
	CreatedAt       *time.Time
	DecidedAt       *time.Time
	PostedAt        *time.Time
}

type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
)

// Decision is the immutable record of one instructor call on a review.
type Decision struct {
	ID         string
	ReviewID   string
	Instructor string
	Action     Action
	Comment    string
	CreatedAt  *time.Time
}

// Instructor is the opaque claim supplied by the auth collaborator.
type Instructor struct {
	Login      string
	CanApprove bool
}
