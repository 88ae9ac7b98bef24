package ports

import "context"

// HandleResolver turns a human-readable handle into a stable author DID.
type HandleResolver interface {
	// Resolve returns domain.ErrHandleNotFound when the handle does not exist.
	Resolve(ctx context.Context, handle string) (string, error)
}
