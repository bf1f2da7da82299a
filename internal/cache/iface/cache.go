package cache

import (
	"context"
	"time"
)

// Cache defines the interface for cache operations (Redis)
type Cache interface {
	// Basic operations
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error

	// SetNX sets the key only if it does not already exist and reports
	// whether this caller won. Used for the single-in-flight run lock.
	SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error)

	// Close connection
	Close() error
}
