package port

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned by Get when the key is absent or expired.
var ErrCacheMiss = errors.New("cache miss")

type CacheRepository interface {
	// Get returns the value stored under key, or ErrCacheMiss.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key with the given TTL, overwriting any
	// previous value.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// SetIdempotency reserves a key for idempotency check, returns false if already taken
	SetIdempotency(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// ReleaseIdempotency frees a reservation so the attempt can be retried
	ReleaseIdempotency(ctx context.Context, key string) error
}
