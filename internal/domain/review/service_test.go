package review_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"reviewgate/internal/domain"
	"reviewgate/internal/domain/review"
	"reviewgate/internal/domain/rules"
)

type uowStub struct{}

func (uowStub) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type eventBusFake struct {
	mu     sync.Mutex
	events []domain.Event
}

func (e *eventBusFake) Publish(ctx context.Context, ev domain.Event) {
	e.mu.Lock()
	e.events = append(e.events, ev)
	e.mu.Unlock()
}

func (e *eventBusFake) byType(t string) []domain.Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []domain.Event
	for _, ev := range e.events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

type reviewRepoFake struct {
	mu        sync.Mutex
	reviews   map[string]review.Review
	decisions []review.Decision
}

func newReviewRepoFake() *reviewRepoFake {
	return &reviewRepoFake{reviews: map[string]review.Review{}}
}

func (r *reviewRepoFake) Create(ctx context.Context, rev review.Review) (review.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	rev.CreatedAt = &now
	r.reviews[rev.ID] = rev
	return rev, nil
}

func (r *reviewRepoFake) GetByID(ctx context.Context, id string) (review.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rev, ok := r.reviews[id]
	if !ok {
		return review.Review{}, domain.NewNotFoundError("review not found")
	}
	return rev, nil
}

func (r *reviewRepoFake) LockByID(ctx context.Context, id string) (review.Review, error) {
	return r.GetByID(ctx, id)
}

func (r *reviewRepoFake) GetByPRAndSHA(ctx context.Context, prID, sha string) (review.Review, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rev := range r.reviews {
		if rev.PullRequestID == prID && rev.HeadSHA == sha {
			return rev, true, nil
		}
	}
	return review.Review{}, false, nil
}

func (r *reviewRepoFake) ListNonTerminalByPR(ctx context.Context, prID string) ([]review.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []review.Review
	for _, rev := range r.reviews {
		if rev.PullRequestID == prID && !rev.Status.Terminal() {
			out = append(out, rev)
		}
	}
	return out, nil
}

func (r *reviewRepoFake) List(ctx context.Context, f review.ListFilter) ([]review.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []review.Review
	for _, rev := range r.reviews {
		if f.PullRequestID != "" && rev.PullRequestID != f.PullRequestID {
			continue
		}
		if f.Status != "" && rev.Status != f.Status {
			continue
		}
		out = append(out, rev)
	}
	return out, nil
}

func (r *reviewRepoFake) UpdateStatusCAS(ctx context.Context, id string, from, to review.Status, tr review.Transition) (review.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rev, ok := r.reviews[id]
	if !ok {
		return review.Review{}, domain.NewNotFoundError("review not found")
	}
	if rev.Status != from {
		if rev.Status.Terminal() {
			return review.Review{}, domain.NewTerminalStateError(fmt.Sprintf("review is %s", rev.Status))
		}
		return review.Review{}, domain.NewConflictError(fmt.Sprintf("review is %s, expected %s", rev.Status, from))
	}
	rev.Status = to
	if tr.DecidedBy != "" {
		rev.DecidedBy = tr.DecidedBy
		rev.DecisionComment = tr.DecisionComment
		rev.DecidedAt = tr.DecidedAt
	}
	if tr.PostedAt != nil {
		rev.PostedAt = tr.PostedAt
	}
	if tr.GithubCommentID != nil {
		rev.GithubCommentID = tr.GithubCommentID
	}
	if tr.FailureReason != "" {
		rev.FailureReason = tr.FailureReason
	}
	r.reviews[id] = rev
	return rev, nil
}

func (r *reviewRepoFake) RecordDecision(ctx context.Context, d review.Decision) (review.Decision, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	d.CreatedAt = &now
	r.decisions = append(r.decisions, d)
	return d, nil
}

func seedPending(repo *reviewRepoFake, id, prID, sha string) {
	seedWithStatus(repo, id, prID, sha, review.StatusPending)
}

func seedWithStatus(repo *reviewRepoFake, id, prID, sha string, st review.Status) {
	repo.reviews[id] = review.Review{
		ID:            id,
		PullRequestID: prID,
		HeadSHA:       sha,
		Category:      rules.CategoryBugfix,
		Status:        st,
	}
}

var instructor = review.Instructor{Login: "prof", CanApprove: true}

func TestService_ApproveRecordsDecision(t *testing.T) {
	repo := newReviewRepoFake()
	events := &eventBusFake{}
	svc := review.NewService(uowStub{}, repo, events)

	seedPending(repo, "r1", "pr-1", "sha-1")

	got, err := svc.Approve(context.Background(), "r1", instructor, "ship it")
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if got.Status != review.StatusApproved {
		t.Errorf("status = %s, want APPROVED", got.Status)
	}
	if got.DecidedBy != "prof" || got.DecidedAt == nil {
		t.Errorf("decision metadata missing: %+v", got)
	}
	if len(repo.decisions) != 1 || repo.decisions[0].Action != review.ActionApprove {
		t.Fatalf("expected one approve decision, got %+v", repo.decisions)
	}
	if len(events.byType(domain.EventReviewApproved)) != 1 {
		t.Error("expected review.approved event")
	}
}

func TestService_ApproveWithoutCapability(t *testing.T) {
	repo := newReviewRepoFake()
	svc := review.NewService(uowStub{}, repo, &eventBusFake{})

	seedPending(repo, "r1", "pr-1", "sha-1")

	_, err := svc.Approve(context.Background(), "r1", review.Instructor{Login: "guest"}, "")
	var de *domain.DomainError
	if !errors.As(err, &de) || de.Code != domain.ErrorCodeForbidden {
		t.Fatalf("expected FORBIDDEN, got %v", err)
	}
	if len(repo.decisions) != 0 {
		t.Error("no decision must be recorded on a forbidden call")
	}
}

func TestService_ApproveAfterReject(t *testing.T) {
	repo := newReviewRepoFake()
	svc := review.NewService(uowStub{}, repo, &eventBusFake{})

	seedPending(repo, "r1", "pr-1", "sha-1")

	if _, err := svc.Reject(context.Background(), "r1", instructor, "not yet"); err != nil {
		t.Fatalf("Reject: %v", err)
	}

	_, err := svc.Approve(context.Background(), "r1", instructor, "")
	var de *domain.DomainError
	if !errors.As(err, &de) || de.Code != domain.ErrorCodeTerminalState {
		t.Fatalf("expected TERMINAL_STATE after reject, got %v", err)
	}
}

func TestService_TransitionFromPostedFails(t *testing.T) {
	repo := newReviewRepoFake()
	svc := review.NewService(uowStub{}, repo, &eventBusFake{})

	seedPending(repo, "r1", "pr-1", "sha-1")
	ctx := context.Background()

	if _, err := svc.Approve(ctx, "r1", instructor, ""); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if _, err := svc.MarkPosted(ctx, "r1", 4242); err != nil {
		t.Fatalf("MarkPosted: %v", err)
	}

	for name, call := range map[string]func() error{
		"approve": func() error { _, err := svc.Approve(ctx, "r1", instructor, ""); return err },
		"reject":  func() error { _, err := svc.Reject(ctx, "r1", instructor, ""); return err },
		"reopen":  func() error { _, err := svc.ReopenForPublish(ctx, "r1"); return err },
	} {
		err := call()
		var de *domain.DomainError
		if !errors.As(err, &de) || de.Code != domain.ErrorCodeTerminalState {
			t.Errorf("%s from POSTED: expected TERMINAL_STATE, got %v", name, err)
		}
	}

	got, _ := svc.Get(ctx, "r1")
	if got.GithubCommentID == nil || *got.GithubCommentID != 4242 {
		t.Errorf("posted review should carry the GitHub comment id: %+v", got)
	}
}

func TestService_PostFailedIsRetryEligible(t *testing.T) {
	repo := newReviewRepoFake()
	svc := review.NewService(uowStub{}, repo, &eventBusFake{})

	seedPending(repo, "r1", "pr-1", "sha-1")
	ctx := context.Background()

	if _, err := svc.Approve(ctx, "r1", instructor, ""); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	failed, err := svc.MarkPostFailed(ctx, "r1", "github: rate limited")
	if err != nil {
		t.Fatalf("MarkPostFailed: %v", err)
	}
	if failed.Status != review.StatusPostFailed || failed.FailureReason == "" {
		t.Fatalf("expected POST_FAILED with reason, got %+v", failed)
	}

	reopened, err := svc.ReopenForPublish(ctx, "r1")
	if err != nil {
		t.Fatalf("ReopenForPublish: %v", err)
	}
	if reopened.Status != review.StatusApproved {
		t.Errorf("status = %s, want APPROVED", reopened.Status)
	}
	if _, err := svc.MarkPosted(ctx, "r1", 99); err != nil {
		t.Fatalf("MarkPosted after retry: %v", err)
	}
}

func TestService_ConcurrentDecisions_ExactlyOneWins(t *testing.T) {
	repo := newReviewRepoFake()
	svc := review.NewService(uowStub{}, repo, &eventBusFake{})

	seedPending(repo, "r1", "pr-1", "sha-1")

	var wg sync.WaitGroup
	errs := make([]error, 2)

	wg.Add(2)
	go func() {
		defer wg.Done()
		_, errs[0] = svc.Approve(context.Background(), "r1", review.Instructor{Login: "a", CanApprove: true}, "")
	}()
	go func() {
		defer wg.Done()
		_, errs[1] = svc.Reject(context.Background(), "r1", review.Instructor{Login: "b", CanApprove: true}, "")
	}()
	wg.Wait()

	var wins, conflicts int
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		var de *domain.DomainError
		if errors.As(err, &de) && (de.Code == domain.ErrorCodeConflictingState || de.Code == domain.ErrorCodeTerminalState) {
			conflicts++
		}
	}
	if wins != 1 || conflicts != 1 {
		t.Fatalf("expected exactly one winner and one conflict, got wins=%d conflicts=%d errs=%v", wins, conflicts, errs)
	}
	if len(repo.decisions) != 1 {
		t.Fatalf("exactly one decision must be recorded, got %d", len(repo.decisions))
	}
}

func TestService_DiscardStale(t *testing.T) {
	repo := newReviewRepoFake()
	events := &eventBusFake{}
	svc := review.NewService(uowStub{}, repo, events)

	seedPending(repo, "r-old", "pr-1", "sha-old")
	seedPending(repo, "r-new", "pr-1", "sha-new")
	seedPending(repo, "r-other", "pr-2", "sha-x")

	discarded, err := svc.DiscardStale(context.Background(), "pr-1", "sha-new")
	if err != nil {
		t.Fatalf("DiscardStale: %v", err)
	}
	if len(discarded) != 1 || discarded[0].ID != "r-old" {
		t.Fatalf("expected r-old discarded, got %+v", discarded)
	}

	old, _ := svc.Get(context.Background(), "r-old")
	if old.Status != review.StatusDiscarded {
		t.Errorf("r-old status = %s, want DISCARDED", old.Status)
	}
	kept, _ := svc.Get(context.Background(), "r-new")
	if kept.Status != review.StatusPending {
		t.Errorf("r-new status = %s, want PENDING", kept.Status)
	}
	other, _ := svc.Get(context.Background(), "r-other")
	if other.Status != review.StatusPending {
		t.Errorf("unrelated PR review must be untouched, got %s", other.Status)
	}
	if len(events.byType(domain.EventReviewDiscarded)) != 1 {
		t.Error("expected a review.discarded event")
	}
}

func TestService_DiscardStale_SweepsEveryNonTerminalStatus(t *testing.T) {
	repo := newReviewRepoFake()
	events := &eventBusFake{}
	svc := review.NewService(uowStub{}, repo, events)

	seedWithStatus(repo, "r-failed", "pr-1", "sha-1", review.StatusPostFailed)
	seedWithStatus(repo, "r-approved", "pr-2", "sha-1", review.StatusApproved)
	seedWithStatus(repo, "r-posted", "pr-3", "sha-1", review.StatusPosted)

	for _, prID := range []string{"pr-1", "pr-2", "pr-3"} {
		if _, err := svc.DiscardStale(context.Background(), prID, "sha-2"); err != nil {
			t.Fatalf("DiscardStale(%s): %v", prID, err)
		}
	}

	failed, _ := svc.Get(context.Background(), "r-failed")
	if failed.Status != review.StatusDiscarded {
		t.Errorf("POST_FAILED review must be superseded, got %s", failed.Status)
	}
	approved, _ := svc.Get(context.Background(), "r-approved")
	if approved.Status != review.StatusDiscarded {
		t.Errorf("APPROVED review must be superseded, got %s", approved.Status)
	}
	posted, _ := svc.Get(context.Background(), "r-posted")
	if posted.Status != review.StatusPosted {
		t.Errorf("POSTED review is history and must stay, got %s", posted.Status)
	}
}

func TestCanTransition_Table(t *testing.T) {
	cases := []struct {
		from, to review.Status
		wantCode domain.ErrorCode // empty means allowed
	}{
		{review.StatusPending, review.StatusApproved, ""},
		{review.StatusPending, review.StatusRejected, ""},
		{review.StatusPending, review.StatusDiscarded, ""},
		{review.StatusPending, review.StatusPosted, domain.ErrorCodeConflictingState},
		{review.StatusApproved, review.StatusPosted, ""},
		{review.StatusApproved, review.StatusPostFailed, ""},
		{review.StatusApproved, review.StatusDiscarded, ""},
		{review.StatusApproved, review.StatusRejected, domain.ErrorCodeConflictingState},
		{review.StatusPostFailed, review.StatusApproved, ""},
		{review.StatusPostFailed, review.StatusDiscarded, ""},
		{review.StatusPostFailed, review.StatusPosted, domain.ErrorCodeConflictingState},
		{review.StatusPosted, review.StatusApproved, domain.ErrorCodeTerminalState},
		{review.StatusRejected, review.StatusApproved, domain.ErrorCodeTerminalState},
		{review.StatusDiscarded, review.StatusApproved, domain.ErrorCodeTerminalState},
	}

	for _, tc := range cases {
		err := review.CanTransition(tc.from, tc.to)
		if tc.wantCode == "" {
			if err != nil {
				t.Errorf("%s -> %s: unexpected error %v", tc.from, tc.to, err)
			}
			continue
		}
		var de *domain.DomainError
		if !errors.As(err, &de) || de.Code != tc.wantCode {
			t.Errorf("%s -> %s: want %s, got %v", tc.from, tc.to, tc.wantCode, err)
		}
	}
}
