package stats

import "context"

type Service interface {
	GetDashboard(ctx context.Context) (Dashboard, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) GetDashboard(ctx context.Context) (Dashboard, error) {
	prs, err := s.repo.CountPullRequestsByStatus(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	reviews, err := s.repo.CountReviewsByStatus(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	categories, err := s.repo.CategoryBreakdown(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	return Dashboard{
		PullRequests: prs,
		Reviews:      reviews,
		Categories:   categories,
	}, nil
}
