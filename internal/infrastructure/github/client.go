package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"reviewgate/internal/domain"
	"reviewgate/internal/domain/dispatch"
	"reviewgate/internal/domain/engine"
	"reviewgate/internal/domain/pullreq"
	"reviewgate/internal/domain/repo"
)

const defaultBaseURL = "https://api.github.com"

// Client is the narrow slice of the GitHub REST API the service touches.
// It reads PR files, commits and the raw diff, and posts issue comments.
type Client struct {
	http    *http.Client
	baseURL string
	token   string
	log     *zap.Logger
}

func NewClient(baseURL, token string, log *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		http:    &http.Client{Timeout: 30 * time.Second},
		baseURL: baseURL,
		token:   token,
		log:     log,
	}
}

type fileResponse struct {
	Filename  string `json:"filename"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
}

type commitResponse struct {
	SHA    string `json:"sha"`
	Commit struct {
		Message string `json:"message"`
	} `json:"commit"`
}

type commentResponse struct {
	ID int64 `json:"id"`
}

type pullResponse struct {
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
}

// GetPullRequest reads the PR's current state, used by the manual re-trigger
// to pick up the head SHA without waiting for a webhook.
func (c *Client) GetPullRequest(ctx context.Context, r repo.Repository, number int) (pullreq.PullRequest, error) {
	url := fmt.Sprintf("%s/repos/%s/pulls/%d", c.baseURL, r.FullName(), number)
	data, err := c.do(ctx, http.MethodGet, url, "application/vnd.github+json", nil)
	if err != nil {
		return pullreq.PullRequest{}, err
	}

	var pull pullResponse
	if err := json.Unmarshal(data, &pull); err != nil {
		return pullreq.PullRequest{}, fmt.Errorf("decode pull request: %w", err)
	}

	status := pullreq.StatusOpen
	switch {
	case pull.Merged:
		status = pullreq.StatusMerged
	case pull.State == "closed":
		status = pullreq.StatusClosed
	}

	return pullreq.PullRequest{
		RepoID:       r.ID,
		Number:       pull.Number,
		Title:        pull.Title,
		Description:  pull.Body,
		Author:       pull.User.Login,
		SourceBranch: pull.Head.Ref,
		TargetBranch: pull.Base.Ref,
		HeadSHA:      pull.Head.SHA,
		Status:       status,
		Additions:    pull.Additions,
		Deletions:    pull.Deletions,
		ChangedFiles: pull.ChangedFiles,
		CommitsCount: pull.Commits,
	}, nil
}

// FetchDiff assembles the generator's input from three API calls: the file
// list, the commit list and the unified diff text.
func (c *Client) FetchDiff(ctx context.Context, r repo.Repository, number int, headSHA string) (dispatch.Diff, error) {
	files, err := c.listFiles(ctx, r, number)
	if err != nil {
		return dispatch.Diff{}, err
	}
	commits, err := c.listCommits(ctx, r, number)
	if err != nil {
		return dispatch.Diff{}, err
	}
	patch, err := c.getDiff(ctx, r, number)
	if err != nil {
		return dispatch.Diff{}, err
	}
	return dispatch.Diff{Files: files, Patch: patch, Commits: commits}, nil
}

// PostComment publishes the review body as a PR issue comment and returns
// the comment's GitHub ID.
func (c *Client) PostComment(ctx context.Context, r repo.Repository, number int, body string) (int64, error) {
	payload, err := json.Marshal(map[string]string{"body": body})
	if err != nil {
		return 0, err
	}

	url := fmt.Sprintf("%s/repos/%s/issues/%d/comments", c.baseURL, r.FullName(), number)
	data, err := c.do(ctx, http.MethodPost, url, "application/vnd.github+json", payload)
	if err != nil {
		return 0, err
	}

	var comment commentResponse
	if err := json.Unmarshal(data, &comment); err != nil {
		return 0, fmt.Errorf("decode comment response: %w", err)
	}
	return comment.ID, nil
}

func (c *Client) listFiles(ctx context.Context, r repo.Repository, number int) ([]engine.FileChange, error) {
	var out []engine.FileChange
	for page := 1; ; page++ {
		url := fmt.Sprintf("%s/repos/%s/pulls/%d/files?per_page=100&page=%d",
			c.baseURL, r.FullName(), number, page)

		data, err := c.do(ctx, http.MethodGet, url, "application/vnd.github+json", nil)
		if err != nil {
			return nil, err
		}

		var files []fileResponse
		if err := json.Unmarshal(data, &files); err != nil {
			return nil, fmt.Errorf("decode file list: %w", err)
		}
		for _, f := range files {
			out = append(out, engine.FileChange{
				Filename:  f.Filename,
				Additions: f.Additions,
				Deletions: f.Deletions,
			})
		}
		if len(files) < 100 {
			return out, nil
		}
	}
}

func (c *Client) listCommits(ctx context.Context, r repo.Repository, number int) ([]engine.Commit, error) {
	var out []engine.Commit
	for page := 1; ; page++ {
		url := fmt.Sprintf("%s/repos/%s/pulls/%d/commits?per_page=100&page=%d",
			c.baseURL, r.FullName(), number, page)

		data, err := c.do(ctx, http.MethodGet, url, "application/vnd.github+json", nil)
		if err != nil {
			return nil, err
		}

		var commits []commitResponse
		if err := json.Unmarshal(data, &commits); err != nil {
			return nil, fmt.Errorf("decode commit list: %w", err)
		}
		for _, cm := range commits {
			out = append(out, engine.Commit{SHA: cm.SHA, Message: cm.Commit.Message})
		}
		if len(commits) < 100 {
			return out, nil
		}
	}
}

func (c *Client) getDiff(ctx context.Context, r repo.Repository, number int) (string, error) {
	url := fmt.Sprintf("%s/repos/%s/pulls/%d", c.baseURL, r.FullName(), number)
	data, err := c.do(ctx, http.MethodGet, url, "application/vnd.github.v3.diff", nil)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (c *Client) do(ctx context.Context, method, url, accept string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", accept)
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, domain.NewTransientError(fmt.Sprintf("github request failed: %v", err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, domain.NewTransientError(fmt.Sprintf("github response read failed: %v", err))
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return data, nil
	}

	c.log.Warn("github api error",
		zap.String("url", url),
		zap.Int("status", resp.StatusCode),
	)
	return nil, statusToError(resp.StatusCode, url)
}

// statusToError maps GitHub's responses onto the error taxonomy: rate limits
// and server hiccups are retryable, auth problems are not.
func statusToError(status int, url string) error {
	switch {
	case status == http.StatusNotFound:
		return domain.NewNotFoundError(fmt.Sprintf("github resource not found: %s", url))
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return domain.NewPermanentError(fmt.Sprintf("github rejected credentials (status %d)", status))
	case status == http.StatusTooManyRequests || status >= 500:
		return domain.NewTransientError(fmt.Sprintf("github unavailable (status %d)", status))
	default:
		return domain.NewPermanentError(fmt.Sprintf("github request failed (status %d)", status))
	}
}
