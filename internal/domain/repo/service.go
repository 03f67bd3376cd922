package repo

import (
	"context"
	"strings"

	"github.com/oklog/ulid/v2"

	"reviewgate/internal/domain"
)

type Service interface {
	Register(ctx context.Context, r Repository) (Repository, error)
	Get(ctx context.Context, id string) (Repository, error)
	GetByFullName(ctx context.Context, fullName string) (Repository, error)
	List(ctx context.Context) ([]Repository, error)
}

type service struct {
	store Store
}

func NewService(store Store) Service {
	return &service{store: store}
}

func (s *service) Register(ctx context.Context, r Repository) (Repository, error) {
	if r.Owner == "" || r.Name == "" {
		return Repository{}, domain.NewValidationError("owner and name are required")
	}
	if r.DefaultBranch == "" {
		r.DefaultBranch = "main"
	}
	r.ID = ulid.Make().String()
	r.Active = true
	return s.store.Create(ctx, r)
}

func (s *service) Get(ctx context.Context, id string) (Repository, error) {
	return s.store.GetByID(ctx, id)
}

func (s *service) GetByFullName(ctx context.Context, fullName string) (Repository, error) {
	owner, name, ok := strings.Cut(fullName, "/")
	if !ok || owner == "" || name == "" {
		return Repository{}, domain.NewValidationError("repository full name must be owner/name")
	}
	return s.store.GetByFullName(ctx, owner, name)
}

func (s *service) List(ctx context.Context) ([]Repository, error) {
	return s.store.List(ctx)
}
