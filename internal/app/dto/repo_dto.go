package dto

import (
	"time"

	"reviewgate/internal/domain/repo"
	"reviewgate/internal/domain/stats"
)

type Repository struct {
	RepoID        string     `json:"repo_id"`
	Owner         string     `json:"owner"`
	Name          string     `json:"name"`
	DefaultBranch string     `json:"default_branch"`
	Active        bool       `json:"active"`
	CreatedAt     *time.Time `json:"created_at,omitempty"`
}

// FromRepository never exposes the webhook secret.
func FromRepository(r repo.Repository) Repository {
	return Repository{
		RepoID:        r.ID,
		Owner:         r.Owner,
		Name:          r.Name,
		DefaultBranch: r.DefaultBranch,
		Active:        r.Active,
		CreatedAt:     r.CreatedAt,
	}
}

func FromRepositories(in []repo.Repository) []Repository {
	out := make([]Repository, 0, len(in))
	for _, r := range in {
		out = append(out, FromRepository(r))
	}
	return out
}

type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

type CategoryStat struct {
	Category     string  `json:"category"`
	ReviewCount  int     `json:"review_count"`
	AverageScore float64 `json:"average_score"`
}

type DashboardResponse struct {
	PullRequests []StatusCount  `json:"pull_requests"`
	Reviews      []StatusCount  `json:"reviews"`
	Categories   []CategoryStat `json:"categories"`
}

func FromDashboard(d stats.Dashboard) DashboardResponse {
	resp := DashboardResponse{
		PullRequests: make([]StatusCount, 0, len(d.PullRequests)),
		Reviews:      make([]StatusCount, 0, len(d.Reviews)),
		Categories:   make([]CategoryStat, 0, len(d.Categories)),
	}
	for _, c := range d.PullRequests {
		resp.PullRequests = append(resp.PullRequests, StatusCount{Status: c.Status, Count: c.Count})
	}
	for _, c := range d.Reviews {
		resp.Reviews = append(resp.Reviews, StatusCount{Status: c.Status, Count: c.Count})
	}
	for _, c := range d.Categories {
		resp.Categories = append(resp.Categories, CategoryStat{
			Category:     c.Category,
			ReviewCount:  c.ReviewCount,
			AverageScore: c.AverageScore,
		})
	}
	return resp
}
