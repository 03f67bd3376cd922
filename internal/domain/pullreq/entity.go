package pullreq

import "time"

type Status string

const (
	StatusOpen   Status = "open"
	StatusClosed Status = "closed"
	StatusMerged Status = "merged"
)

// PullRequest mirrors what GitHub tells us about a PR. It is owned by the
// webhook/sync path; reviews reference it by ID but never mutate it.
type PullRequest struct {
	ID           string
	RepoID       string
	Number       int
	Title        string
	Description  string
	Author       string
	SourceBranch string
	TargetBranch string
	HeadSHA      string
	Status       Status
	Additions    int
	Deletions    int
	ChangedFiles int
	CommitsCount int
	CreatedAt    *time.Time
	UpdatedAt    *time.Time
}

func (p PullRequest) Open() bool {
	return p.Status == StatusOpen
}
