package dto

import (
	"reviewgate/internal/domain/pullreq"
)

// PullRequestEvent is the slice of GitHub's pull_request webhook payload the
// service reads.
type PullRequestEvent struct {
	Action      string `json:"action"`
	PullRequest struct {
		Number int    `json:"number"`
		Title  string `json:"title"`
		Body   string `json:"body"`
		State  string `json:"state"`
		Merged bool   `json:"merged"`
		User   struct {
			Login string `json:"login"`
		} `json:"user"`
		Head struct {
			Ref string `json:"ref"`
			SHA string `json:"sha"`
		} `json:"head"`
		Base struct {
			Ref string `json:"ref"`
		} `json:"base"`
		Additions    int `json:"additions"`
		Deletions    int `json:"deletions"`
		ChangedFiles int `json:"changed_files"`
		Commits      int `json:"commits"`
	} `json:"pull_request"`
	Repository struct {
		FullName string `json:"full_name"`
		Name     string `json:"name"`
		Owner    struct {
			Login string `json:"login"`
		} `json:"owner"`
	} `json:"repository"`
}

// ToPullRequest maps the payload onto the domain entity. RepoID is filled by
// the caller once the repository registration is resolved.
func (e PullRequestEvent) ToPullRequest(repoID string) pullreq.PullRequest {
	status := pullreq.StatusOpen
	switch {
	case e.PullRequest.Merged:
		status = pullreq.StatusMerged
	case e.PullRequest.State == "closed":
		status = pullreq.StatusClosed
	}

	return pullreq.PullRequest{
		RepoID:       repoID,
		Number:       e.PullRequest.Number,
		Title:        e.PullRequest.Title,
		Description:  e.PullRequest.Body,
		Author:       e.PullRequest.User.Login,
		SourceBranch: e.PullRequest.Head.Ref,
		TargetBranch: e.PullRequest.Base.Ref,
		HeadSHA:      e.PullRequest.Head.SHA,
		Status:       status,
		Additions:    e.PullRequest.Additions,
		Deletions:    e.PullRequest.Deletions,
		ChangedFiles: e.PullRequest.ChangedFiles,
		CommitsCount: e.PullRequest.Commits,
	}
}
