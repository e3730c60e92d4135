// Package cache provides the expiring key-value store that backs sessions.
package cache

import (
	"context"
	"time"
)

// Cache is a string key-value store with per-key expiry. Get of a missing
// or expired key returns common.ErrorNotFound.
type Cache interface {
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
	// Ping reports whether the store is usable.
	Ping(ctx context.Context) error
	Close() error
}
