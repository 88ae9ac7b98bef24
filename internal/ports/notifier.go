package ports

import (
	"context"

	"github.com/bft-labs/skyship/internal/domain"
)

// Notifier delivers one post to one destination.
type Notifier interface {
	// Notify returns an error when delivery failed. The context carries the
	// per-delivery timeout.
	Notify(ctx context.Context, destination string, post domain.Post) error
}
