package ports

import (
	"context"
	"time"
)

// Cache is the fast layer in front of the metadata store. Get returns
// ("", nil) on a miss.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	SetEx(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}
