package pullreq

import "context"

type Repository interface {
	// Upsert inserts or refreshes a PR keyed by (repo, number) and returns
	// the stored row with its stable internal ID.
	Upsert(ctx context.Context, p PullRequest) (PullRequest, error)
	GetByID(ctx context.Context, id string) (PullRequest, error)
	GetByRepoAndNumber(ctx context.Context, repoID string, number int) (PullRequest, bool, error)
	List(ctx context.Context, repoID string) ([]PullRequest, error)
}
