package pg

import (
	"context"
	"database/sql"
	"errors"

	"github.com/oklog/ulid/v2"

	"reviewgate/internal/domain"
	"reviewgate/internal/domain/pullreq"
)

type PullRequestRepository struct {
	db *sql.DB
}

func NewPullRequestRepository(db *sql.DB) *PullRequestRepository {
	return &PullRequestRepository{db: db}
}

const prColumns = `pull_request_id, repo_id, number, title, description, author,
	source_branch, target_branch, head_sha, status,
	additions, deletions, changed_files, commits_count, created_at, updated_at`

func (r *PullRequestRepository) Upsert(ctx context.Context, p pullreq.PullRequest) (pullreq.PullRequest, error) {
	// The candidate ID is only used on first insert; a conflict keeps the
	// row's existing ID.
	candidate := ulid.Make().String()

	row := queryRow(ctx, r.db, `
		INSERT INTO pull_requests (
			pull_request_id, repo_id, number, title, description, author,
			source_branch, target_branch, head_sha, status,
			additions, deletions, changed_files, commits_count
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (repo_id, number) DO UPDATE SET
			title         = EXCLUDED.title,
			description   = EXCLUDED.description,
			author        = EXCLUDED.author,
			source_branch = EXCLUDED.source_branch,
			target_branch = EXCLUDED.target_branch,
			head_sha      = EXCLUDED.head_sha,
			status        = EXCLUDED.status,
			additions     = EXCLUDED.additions,
			deletions     = EXCLUDED.deletions,
			changed_files = EXCLUDED.changed_files,
			commits_count = EXCLUDED.commits_count,
			updated_at    = NOW()
		RETURNING `+prColumns,
		candidate, p.RepoID, p.Number, p.Title, p.Description, p.Author,
		p.SourceBranch, p.TargetBranch, p.HeadSHA, string(p.Status),
		p.Additions, p.Deletions, p.ChangedFiles, p.CommitsCount,
	)
	return scanPullRequest(row)
}

func (r *PullRequestRepository) GetByID(ctx context.Context, id string) (pullreq.PullRequest, error) {
	row := queryRow(ctx, r.db,
		`SELECT `+prColumns+` FROM pull_requests WHERE pull_request_id = $1`, id)

	p, err := scanPullRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return pullreq.PullRequest{}, domain.NewNotFoundError("pull request not found")
	}
	return p, err
}

func (r *PullRequestRepository) GetByRepoAndNumber(ctx context.Context, repoID string, number int) (pullreq.PullRequest, bool, error) {
	row := queryRow(ctx, r.db,
		`SELECT `+prColumns+` FROM pull_requests WHERE repo_id = $1 AND number = $2`,
		repoID, number)

	p, err := scanPullRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return pullreq.PullRequest{}, false, nil
	}
	if err != nil {
		return pullreq.PullRequest{}, false, err
	}
	return p, true, nil
}

func (r *PullRequestRepository) List(ctx context.Context, repoID string) ([]pullreq.PullRequest, error) {
	rows, err := query(ctx, r.db, `
		SELECT `+prColumns+`
		  FROM pull_requests
		 WHERE ($1::text = '' OR repo_id = $1::text)
		 ORDER BY repo_id, number`,
		repoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []pullreq.PullRequest
	for rows.Next() {
		p, err := scanPullRequest(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, p)
	}
	return res, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPullRequest(row rowScanner) (pullreq.PullRequest, error) {
	var p pullreq.PullRequest
	var status string
	var createdAt, updatedAt sql.NullTime

	err := row.Scan(
		&p.ID, &p.RepoID, &p.Number, &p.Title, &p.Description, &p.Author,
		&p.SourceBranch, &p.TargetBranch, &p.HeadSHA, &status,
		&p.Additions, &p.Deletions, &p.ChangedFiles, &p.CommitsCount,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return pullreq.PullRequest{}, err
	}

	p.Status = pullreq.Status(status)
	if createdAt.Valid {
		t := createdAt.Time
		p.CreatedAt = &t
	}
	if updatedAt.Valid {
		t := updatedAt.Time
		p.UpdatedAt = &t
	}
	return p, nil
}
