package pullreq_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"reviewgate/internal/domain"
	"reviewgate/internal/domain/pullreq"
)

type repoFake struct {
	mu  sync.Mutex
	prs map[string]pullreq.PullRequest
}

func newRepoFake() *repoFake {
	return &repoFake{prs: map[string]pullreq.PullRequest{}}
}

func (r *repoFake) key(repoID string, number int) string {
	return fmt.Sprintf("%s#%d", repoID, number)
}

func (r *repoFake) Upsert(ctx context.Context, p pullreq.PullRequest) (pullreq.PullRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := r.key(p.RepoID, p.Number)
	if existing, ok := r.prs[k]; ok {
		p.ID = existing.ID
	} else {
		p.ID = k
	}
	r.prs[k] = p
	return p, nil
}

func (r *repoFake) GetByID(ctx context.Context, id string) (pullreq.PullRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.prs {
		if p.ID == id {
			return p, nil
		}
	}
	return pullreq.PullRequest{}, domain.NewNotFoundError("pull request not found")
}

func (r *repoFake) GetByRepoAndNumber(ctx context.Context, repoID string, number int) (pullreq.PullRequest, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.prs[r.key(repoID, number)]
	return p, ok, nil
}

func (r *repoFake) List(ctx context.Context, repoID string) ([]pullreq.PullRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []pullreq.PullRequest
	for _, p := range r.prs {
		if repoID == "" || p.RepoID == repoID {
			out = append(out, p)
		}
	}
	return out, nil
}

func validPR() pullreq.PullRequest {
	return pullreq.PullRequest{
		RepoID:       "repo-1",
		Number:       7,
		Title:        "Add thing",
		SourceBranch: "feature/thing",
		HeadSHA:      "sha-1",
	}
}

func TestSync_DefaultsToOpen(t *testing.T) {
	svc := pullreq.NewService(newRepoFake(), nil)

	p, err := svc.Sync(context.Background(), validPR())
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if p.Status != pullreq.StatusOpen {
		t.Errorf("status = %s, want open", p.Status)
	}
	if p.ID == "" {
		t.Error("stored PR must carry an internal ID")
	}
}

func TestSync_KeepsIdentityAcrossUpdates(t *testing.T) {
	svc := pullreq.NewService(newRepoFake(), nil)
	ctx := context.Background()

	first, err := svc.Sync(ctx, validPR())
	if err != nil {
		t.Fatalf("first Sync: %v", err)
	}

	updated := validPR()
	updated.HeadSHA = "sha-2"
	updated.Title = "Add thing, rebased"

	second, err := svc.Sync(ctx, updated)
	if err != nil {
		t.Fatalf("second Sync: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("internal ID changed across sync: %s vs %s", second.ID, first.ID)
	}
	if second.HeadSHA != "sha-2" {
		t.Errorf("head SHA not refreshed: %s", second.HeadSHA)
	}
}

func TestSync_Validation(t *testing.T) {
	svc := pullreq.NewService(newRepoFake(), nil)

	cases := []struct {
		name   string
		mutate func(*pullreq.PullRequest)
	}{
		{"missing repo", func(p *pullreq.PullRequest) { p.RepoID = "" }},
		{"zero number", func(p *pullreq.PullRequest) { p.Number = 0 }},
		{"missing branch", func(p *pullreq.PullRequest) { p.SourceBranch = "" }},
		{"missing head sha", func(p *pullreq.PullRequest) { p.HeadSHA = "" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := validPR()
			tc.mutate(&p)

			_, err := svc.Sync(context.Background(), p)
			var de *domain.DomainError
			if !errors.As(err, &de) || de.Code != domain.ErrorCodeValidation {
				t.Fatalf("expected VALIDATION error, got %v", err)
			}
		})
	}
}
