package repo

import "time"

// Repository is a registered GitHub repository. It owns the webhook secret
// used to verify inbound deliveries.
type Repository struct {
	ID            string
	Owner         string
	Name          string
	DefaultBranch string
	WebhookSecret string
	Active        bool
	CreatedAt     *time.Time
}

func (r Repository) FullName() string {
	return r.Owner + "/" + r.Name
}
