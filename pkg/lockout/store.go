package lockout

import "context"

// Store persists State per account key.
//
// Update must run load, fn and save as one atomic step for the key so that
// concurrent login attempts for the same account cannot lose increments.
// A missing record is presented to fn as the zero State. If fn returns an
// error nothing is written and the error is returned unchanged.
type Store interface {
	Get(ctx context.Context, key string) (State, error)
	Update(ctx context.Context, key string, fn func(*State) error) (State, error)
	Delete(ctx context.Context, key string) error
}
