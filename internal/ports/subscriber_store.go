package ports

import (
	"context"

	"github.com/bft-labs/skyship/internal/domain"
)

// SubscriberStore is the external source of truth for subscriptions.
// It is consumed only by registry reloads.
type SubscriberStore interface {
	// FetchAll returns the complete current subscriber set.
	// A partial result must be reported as an error, never returned as success.
	FetchAll(ctx context.Context) ([]domain.Subscriber, error)
}
