package dto

import (
	"time"

	"reviewgate/internal/domain/pullreq"
)

type PullRequest struct {
	PullRequestID string     `json:"pull_request_id"`
	RepoID        string     `json:"repo_id"`
	Number        int        `json:"number"`
	Title         string     `json:"title"`
	Description   string     `json:"description,omitempty"`
	Author        string     `json:"author"`
	SourceBranch  string     `json:"source_branch"`
	TargetBranch  string     `json:"target_branch"`
	HeadSHA       string     `json:"head_sha"`
	Status        string     `json:"status"`
	Additions     int        `json:"additions"`
	Deletions     int        `json:"deletions"`
	ChangedFiles  int        `json:"changed_files"`
	CommitsCount  int        `json:"commits_count"`
	CreatedAt     *time.Time `json:"created_at,omitempty"`
	UpdatedAt     *time.Time `json:"updated_at,omitempty"`
}

func FromPullRequest(p pullreq.PullRequest) PullRequest {
	return PullRequest{
		PullRequestID: p.ID,
		RepoID:        p.RepoID,
		Number:        p.Number,
		Title:         p.Title,
		Description:   p.Description,
		Author:        p.Author,
		SourceBranch:  p.SourceBranch,
		TargetBranch:  p.TargetBranch,
		HeadSHA:       p.HeadSHA,
		Status:        string(p.Status),
		Additions:     p.Additions,
		Deletions:     p.Deletions,
		ChangedFiles:  p.ChangedFiles,
		CommitsCount:  p.CommitsCount,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func FromPullRequests(in []pullreq.PullRequest) []PullRequest {
	out := make([]PullRequest, 0, len(in))
	for _, p := range in {
		out = append(out, FromPullRequest(p))
	}
	return out
}
