package backupcode

import (
	"context"
	"time"
)

// Store keeps at most one outstanding code per account.
type Store interface {
	// Save replaces any existing record for account.
	Save(ctx context.Context, account string, rec Record, ttl time.Duration) error
	// Get returns the record and whether one exists.
	Get(ctx context.Context, account string) (Record, bool, error)
	// Consume loads the record and deletes it when fn returns true, atomically
	// with respect to other Consume calls for the same account.
	Consume(ctx context.Context, account string, fn func(Record) bool) (found bool, err error)
	Delete(ctx context.Context, account string) error
}
