package stats

import "context"

type Repository interface {
	CountPullRequestsByStatus(ctx context.Context) ([]StatusCount, error)
	CountReviewsByStatus(ctx context.Context) ([]StatusCount, error)
	CategoryBreakdown(ctx context.Context) ([]CategoryStat, error)
}
