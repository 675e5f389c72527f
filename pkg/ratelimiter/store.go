package ratelimiter

import (
	"context"
	"time"
)

// Store counts tokens per key. ConsumeTokens takes n tokens only when that
// many are available; otherwise nothing is taken and remaining is negative.
type Store interface {
	ConsumeTokens(ctx context.Context, key string, n int, cfg Config) (remaining int, resetAt time.Time, err error)
	Reset(ctx context.Context, key string) error
}
