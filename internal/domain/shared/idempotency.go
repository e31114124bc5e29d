package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers request keys so a retried request is not applied
// twice. A key is claimed with MarkProcessed while the request runs and turned
// into a completed entry with Complete once the work has committed.
type IdempotencyStore interface {
	// MarkProcessed claims a key with a TTL.
	// Returns true if the key was newly claimed, false if it is already known.
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Complete records that the work guarded by the key has been applied
	Complete(ctx context.Context, key string, ttl time.Duration) error

	// IsProcessed checks if a key is known, claimed or completed
	IsProcessed(ctx context.Context, key string) (bool, error)

	// IsCompleted checks if the work guarded by the key was applied
	IsCompleted(ctx context.Context, key string) (bool, error)

	// Forget removes a key, used when the guarded operation failed
	Forget(ctx context.Context, key string) error

	// Close closes the store and releases resources
	Close() error
}
