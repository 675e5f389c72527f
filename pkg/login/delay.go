package login

import (
	"context"
	"math/rand/v2"
	"time"
)

// Delay is applied after every failed attempt. It returns ctx.Err() when the
// request goes away first.
type Delay func(ctx context.Context) error

// RandomDelay sleeps a uniformly random duration in [lo, hi].
func RandomDelay(lo, hi time.Duration) Delay {
	if hi < lo {
		lo, hi = hi, lo
	}
	return func(ctx context.Context) error {
		d := lo
		if span := hi - lo; span > 0 {
			d += rand.N(span + 1)
		}
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-t.C:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// NoDelay returns immediately.
func NoDelay(context.Context) error { return nil }
