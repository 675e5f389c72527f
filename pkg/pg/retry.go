package pg

import "context"

// RetrySerialization runs fn up to attempts times while it fails with a
// serialization failure or deadlock. Any other error, or ctx ending, stops
// the loop. The last error is returned as is.
func RetrySerialization(ctx context.Context, attempts int, fn func() error) error {
	attempts = max(attempts, 1)

	var err error
	for range attempts {
		if err = fn(); !IsSerializationError(err) {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return err
		}
	}
	return err
}
