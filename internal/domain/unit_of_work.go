package domain

import "context"

// UnitOfWork runs fn inside a single database transaction; repositories
// called with the derived ctx join that transaction.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
