package pullreq

import (
	"context"

	"reviewgate/internal/domain"
)

type Service interface {
	Sync(ctx context.Context, p PullRequest) (PullRequest, error)
	Get(ctx context.Context, id string) (PullRequest, error)
	List(ctx context.Context, repoID string) ([]PullRequest, error)
}

type service struct {
	repo   Repository
	events domain.EventBus
}

func NewService(repo Repository, events domain.EventBus) Service {
	return &service{repo: repo, events: events}
}

func (s *service) Sync(ctx context.Context, p PullRequest) (PullRequest, error) {
	if p.RepoID == "" || p.Number <= 0 {
		return PullRequest{}, domain.NewValidationError("pull request needs a repository and a positive number")
	}
	if p.SourceBranch == "" || p.HeadSHA == "" {
		return PullRequest{}, domain.NewValidationError("pull request needs a source branch and head SHA")
	}
	if p.Status == "" {
		p.Status = StatusOpen
	}

	stored, err := s.repo.Upsert(ctx, p)
	if err != nil {
		return PullRequest{}, err
	}

	if s.events != nil {
		s.events.Publish(ctx, domain.Event{
			Type: domain.EventPRSynced,
			Payload: map[string]any{
				"pr_id":    stored.ID,
				"number":   stored.Number,
				"head_sha": stored.HeadSHA,
				"status":   string(stored.Status),
			},
		})
	}

	return stored, nil
}

func (s *service) Get(ctx context.Context, id string) (PullRequest, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context, repoID string) ([]PullRequest, error) {
	return s.repo.List(ctx, repoID)
}
