package domain

import (
	"time"

	"github.com/perseusdefend/perseus/pkg/idx"
)

// WatchedInfo is a monitored data point (an email address, a card
// number fragment, a domain) registered by a user under a product.
type WatchedInfo struct {
	ID        idx.ID
	Type      string
	Value     string
	AccountID idx.ID
	ProductID idx.ID
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
