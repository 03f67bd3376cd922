package pg

import (
	"context"
	"database/sql"
	"errors"

	"reviewgate/internal/domain"
	"reviewgate/internal/domain/repo"
)

type RepoStore struct {
	db *sql.DB
}

func NewRepoStore(db *sql.DB) *RepoStore {
	return &RepoStore{db: db}
}

const repoColumns = `repo_id, owner, name, default_branch, webhook_secret, active, created_at`

func (s *RepoStore) Create(ctx context.Context, r repo.Repository) (repo.Repository, error) {
	row := queryRow(ctx, s.db, `
		INSERT INTO repositories (repo_id, owner, name, default_branch, webhook_secret, active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+repoColumns,
		r.ID, r.Owner, r.Name, r.DefaultBranch, r.WebhookSecret, r.Active,
	)

	created, err := scanRepo(row)
	if err != nil && isUniqueViolation(err) {
		return repo.Repository{}, &domain.DomainError{
			Code:       domain.ErrorCodeAlreadyExists,
			Message:    "repository already registered",
			HTTPStatus: 409,
		}
	}
	return created, err
}

func (s *RepoStore) GetByID(ctx context.Context, id string) (repo.Repository, error) {
	row := queryRow(ctx, s.db,
		`SELECT `+repoColumns+` FROM repositories WHERE repo_id = $1`, id)
	return s.one(row)
}

func (s *RepoStore) GetByFullName(ctx context.Context, owner, name string) (repo.Repository, error) {
	row := queryRow(ctx, s.db,
		`SELECT `+repoColumns+` FROM repositories WHERE owner = $1 AND name = $2`, owner, name)
	return s.one(row)
}

func (s *RepoStore) one(row rowScanner) (repo.Repository, error) {
	r, err := scanRepo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return repo.Repository{}, domain.NewNotFoundError("repository not found")
	}
	return r, err
}

func (s *RepoStore) List(ctx context.Context) ([]repo.Repository, error) {
	rows, err := query(ctx, s.db,
		`SELECT `+repoColumns+` FROM repositories ORDER BY owner, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []repo.Repository
	for rows.Next() {
		r, err := scanRepo(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, r)
	}
	return res, rows.Err()
}

func scanRepo(row rowScanner) (repo.Repository, error) {
	var r repo.Repository
	var secret sql.NullString
	var createdAt sql.NullTime

	err := row.Scan(&r.ID, &r.Owner, &r.Name, &r.DefaultBranch, &secret, &r.Active, &createdAt)
	if err != nil {
		return repo.Repository{}, err
	}

	r.WebhookSecret = secret.String
	if createdAt.Valid {
		t := createdAt.Time
		r.CreatedAt = &t
	}
	return r, nil
}
