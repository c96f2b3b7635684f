package repository

import (
	"context"
	"time"
)

// CacheRepository stores serialized computation results. A zero ttl keeps
// the value until it is evicted.
type CacheRepository interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
}
