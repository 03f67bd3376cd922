package repo

import "context"

type Store interface {
	Create(ctx context.Context, r Repository) (Repository, error)
	GetByID(ctx context.Context, id string) (Repository, error)
	GetByFullName(ctx context.Context, owner, name string) (Repository, error)
	List(ctx context.Context) ([]Repository, error)
}
