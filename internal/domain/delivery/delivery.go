package delivery

import (
	"context"
	"time"
)

// Delivery is one received webhook, keyed by GitHub's delivery GUID.
// It exists so redelivered webhooks can be acknowledged without being
// reprocessed.
type Delivery struct {
	GUID       string
	Event      string
	Action     string
	RepoFull   string
	ReceivedAt *time.Time
}

type Store interface {
	// Record persists the delivery and reports whether the GUID was seen
	// for the first time.
	Record(ctx context.Context, d Delivery) (bool, error)
}
