package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers processed keys (webhook event IDs, callback keys)
// so redelivered messages are acknowledged without being handled twice.
type IdempotencyStore interface {
	// MarkProcessed marks a key as processed with a TTL.
	// Returns true if the key was newly marked, false if it was already present.
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// IsProcessed checks if a key has already been processed
	IsProcessed(ctx context.Context, key string) (bool, error)

	// Forget removes a key so a failed delivery can be retried
	Forget(ctx context.Context, key string) error

	// Close releases any resources held by the store
	Close() error
}
