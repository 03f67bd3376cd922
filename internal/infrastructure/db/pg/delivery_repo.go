package pg

import (
	"context"
	"database/sql"

	"reviewgate/internal/domain/delivery"
)

type DeliveryStore struct {
	db *sql.DB
}

func NewDeliveryStore(db *sql.DB) *DeliveryStore {
	return &DeliveryStore{db: db}
}

// Record inserts the delivery; a GUID conflict means GitHub redelivered and
// the event must not be processed again.
func (s *DeliveryStore) Record(ctx context.Context, d delivery.Delivery) (bool, error) {
	res, err := exec(ctx, s.db, `
		INSERT INTO webhook_deliveries (delivery_guid, event, action, repo_full_name)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (delivery_guid) DO NOTHING`,
		d.GUID, d.Event, d.Action, d.RepoFull,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
