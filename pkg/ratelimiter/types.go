package ratelimiter

import (
	"fmt"
	"time"
)

// Result describes the bucket after a request was counted.
type Result struct {
	Limit     int       // Bucket capacity
	Remaining int       // Tokens left; negative when the request was refused
	ResetAt   time.Time // Next refill
}

func (r Result) Allowed() bool {
	return r.Remaining >= 0
}

// RetryAfter is zero for allowed requests.
func (r Result) RetryAfter(now time.Time) time.Duration {
	if r.Allowed() {
		return 0
	}
	return max(r.ResetAt.Sub(now), 0)
}

// Config is a token bucket: Capacity is the burst, RefillRate tokens return
// every RefillInterval.
type Config struct {
	Capacity       int           `env:"CAPACITY" envDefault:"20"`
	RefillRate     int           `env:"REFILL_RATE" envDefault:"5"`
	RefillInterval time.Duration `env:"REFILL_INTERVAL" envDefault:"1m"`
}

func (c Config) validate() error {
	if c.Capacity <= 0 {
		return fmt.Errorf("%w: capacity must be positive, got %d", ErrInvalidConfig, c.Capacity)
	}
	if c.RefillRate <= 0 {
		return fmt.Errorf("%w: refill rate must be positive, got %d", ErrInvalidConfig, c.RefillRate)
	}
	if c.RefillInterval <= 0 {
		return fmt.Errorf("%w: refill interval must be positive, got %v", ErrInvalidConfig, c.RefillInterval)
	}
	return nil
}

// refill returns the token count after whole intervals elapsed since last,
// and the new refill reference time.
func (c Config) refill(tokens int, last, now time.Time) (int, time.Time) {
	if now.Before(last) {
		return tokens, last
	}
	intervals := int64(now.Sub(last) / c.RefillInterval)
	if intervals <= 0 {
		return tokens, last
	}
	// Cap before multiplying so long idle periods cannot overflow
	maxIntervals := int64(c.Capacity/c.RefillRate + 1)
	intervals = min(intervals, maxIntervals)
	tokens = min(tokens+int(intervals)*c.RefillRate, c.Capacity)
	return tokens, last.Add(time.Duration(intervals) * c.RefillInterval)
}
