package lockout

import "errors"

var (
	// ErrInvalidConfig indicates that the provided configuration is invalid.
	ErrInvalidConfig = errors.New("invalid lockout configuration")

	// ErrEmptyKey is returned when an account key is blank.
	ErrEmptyKey = errors.New("empty account key")

	// ErrLocked is returned by Allow while the account is locked out.
	ErrLocked = errors.New("too many failed attempts")

	// ErrStoreUnavailable indicates that the store backend is unavailable.
	ErrStoreUnavailable = errors.New("lockout store unavailable")

	// ErrConflict is returned when a concurrent writer kept winning the
	// optimistic update and the retry budget ran out.
	ErrConflict = errors.New("concurrent lockout update")
)
