package review

import (
	"context"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"

	"reviewgate/internal/domain"
)

// Service is the approval workflow: every status change of a review goes
// through here, inside a transaction, with the transition table enforced.
type Service interface {
	Get(ctx context.Context, id string) (Review, error)
	List(ctx context.Context, f ListFilter) ([]Review, error)
	Approve(ctx context.Context, id string, instructor Instructor, comment string) (Review, error)
	Reject(ctx context.Context, id string, instructor Instructor, comment string) (Review, error)
	MarkPosted(ctx context.Context, id string, commentID int64) (Review, error)
	MarkPostFailed(ctx context.Context, id, reason string) (Review, error)
	// ReopenForPublish moves POST_FAILED back to APPROVED ahead of a retry.
	ReopenForPublish(ctx context.Context, id string) (Review, error)
	// DiscardStale discards every non-terminal review of the PR whose head
	// SHA differs from keepSHA. Returns the discarded reviews.
	DiscardStale(ctx context.Context, prID, keepSHA string) ([]Review, error)
}

type service struct {
	uow    domain.UnitOfWork
	repo   Repository
	events domain.EventBus
}

func NewService(uow domain.UnitOfWork, repo Repository, events domain.EventBus) Service {
	return &service{uow: uow, repo: repo, events: events}
}

func (s *service) Get(ctx context.Context, id string) (Review, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context, f ListFilter) ([]Review, error) {
	return s.repo.List(ctx, f)
}

func (s *service) Approve(ctx context.Context, id string, instructor Instructor, comment string) (Review, error) {
	if !instructor.CanApprove {
		return Review{}, &domain.DomainError{
			Code:       domain.ErrorCodeForbidden,
			Message:    "instructor lacks approval capability",
			HTTPStatus: 403,
		}
	}
	return s.decide(ctx, id, instructor, ActionApprove, comment)
}

func (s *service) Reject(ctx context.Context, id string, instructor Instructor, comment string) (Review, error) {
	if !instructor.CanApprove {
		return Review{}, &domain.DomainError{
			Code:       domain.ErrorCodeForbidden,
			Message:    "instructor lacks approval capability",
			HTTPStatus: 403,
		}
	}
	return s.decide(ctx, id, instructor, ActionReject, comment)
}

// decide is the shared approve/reject path: row lock, transition check, CAS
// plus the immutable decision record, all in one transaction. Under two
// concurrent decisions the first committer wins and the second sees a
// conflicting-state error from the transition check.
func (s *service) decide(ctx context.Context, id string, instructor Instructor, action Action, comment string) (Review, error) {
	target := StatusApproved
	eventType := domain.EventReviewApproved
	if action == ActionReject {
		target = StatusRejected
		eventType = domain.EventReviewRejected
	}

	var out Review
	err := s.uow.WithinTx(ctx, func(ctx context.Context) error {
		cur, err := s.repo.LockByID(ctx, id)
		if err != nil {
			return err
		}
		if err := CanTransition(cur.Status, target); err != nil {
			return err
		}

		now := time.Now().UTC()
		updated, err := s.repo.UpdateStatusCAS(ctx, id, cur.Status, target, Transition{
			DecidedBy:       instructor.Login,
			DecisionComment: comment,
			DecidedAt:       &now,
		})
		if err != nil {
			return err
		}

		if _, err := s.repo.RecordDecision(ctx, Decision{
			ID:         ulid.Make().String(),
			ReviewID:   id,
			Instructor: instructor.Login,
			Action:     action,
			Comment:    comment,
		}); err != nil {
			return err
		}

		out = updated
		return nil
	})
	if err != nil {
		return Review{}, err
	}

	if s.events != nil {
		s.events.Publish(ctx, domain.Event{
			Type: eventType,
			Payload: map[string]any{
				"review_id":  out.ID,
				"pr_id":      out.PullRequestID,
				"instructor": instructor.Login,
			},
		})
	}

	return out, nil
}

func (s *service) MarkPosted(ctx context.Context, id string, commentID int64) (Review, error) {
	now := time.Now().UTC()
	out, err := s.transition(ctx, id, StatusApproved, StatusPosted, Transition{
		PostedAt:        &now,
		GithubCommentID: &commentID,
	})
	if err != nil {
		return Review{}, err
	}
	if s.events != nil {
		s.events.Publish(ctx, domain.Event{
			Type:    domain.EventReviewPosted,
			Payload: map[string]any{"review_id": id, "comment_id": commentID},
		})
	}
	return out, nil
}

func (s *service) MarkPostFailed(ctx context.Context, id, reason string) (Review, error) {
	out, err := s.transition(ctx, id, StatusApproved, StatusPostFailed, Transition{
		FailureReason: reason,
	})
	if err != nil {
		return Review{}, err
	}
	if s.events != nil {
		s.events.Publish(ctx, domain.Event{
			Type:    domain.EventPostFailed,
			Payload: map[string]any{"review_id": id, "reason": reason},
		})
	}
	return out, nil
}

func (s *service) ReopenForPublish(ctx context.Context, id string) (Review, error) {
	return s.transition(ctx, id, StatusPostFailed, StatusApproved, Transition{})
}

func (s *service) transition(ctx context.Context, id string, from, to Status, tr Transition) (Review, error) {
	var out Review
	err := s.uow.WithinTx(ctx, func(ctx context.Context) error {
		cur, err := s.repo.LockByID(ctx, id)
		if err != nil {
			return err
		}
		if cur.Status != from {
			if err := CanTransition(cur.Status, to); err != nil {
				return err
			}
			return domain.NewConflictError("review status changed concurrently")
		}
		if err := CanTransition(from, to); err != nil {
			return err
		}

		updated, err := s.repo.UpdateStatusCAS(ctx, id, from, to, tr)
		if err != nil {
			return err
		}
		out = updated
		return nil
	})
	return out, err
}

func (s *service) DiscardStale(ctx context.Context, prID, keepSHA string) ([]Review, error) {
	var discarded []Review
	err := s.uow.WithinTx(ctx, func(ctx context.Context) error {
		active, err := s.repo.ListNonTerminalByPR(ctx, prID)
		if err != nil {
			return err
		}
		for _, r := range active {
			if r.HeadSHA == keepSHA {
				continue
			}
			upd, err := s.repo.UpdateStatusCAS(ctx, r.ID, r.Status, StatusDiscarded, Transition{})
			if err != nil {
				// A concurrent publish may have moved the review to POSTED
				// between the list and the CAS; first committer wins.
				var de *domain.DomainError
				if errors.As(err, &de) && (de.Code == domain.ErrorCodeConflictingState || de.Code == domain.ErrorCodeTerminalState) {
					continue
				}
				return err
			}
			discarded = append(discarded, upd)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.events != nil {
		for _, r := range discarded {
			s.events.Publish(ctx, domain.Event{
				Type:    domain.EventReviewDiscarded,
				Payload: map[string]any{"review_id": r.ID, "pr_id": prID, "superseded_by": keepSHA},
			})
		}
	}

	return discarded, nil
}
