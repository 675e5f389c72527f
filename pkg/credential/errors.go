package credential

import "errors"

var (
	// ErrUnsupportedFormat is returned by Parse for values that are neither a
	// bcrypt hash nor a 64 character hex digest.
	ErrUnsupportedFormat = errors.New("unsupported credential format")

	ErrEmptyPassword    = errors.New("password is required")
	ErrPasswordTooLong  = errors.New("password exceeds 72 bytes")
	ErrFailedToHash     = errors.New("failed to hash password")
	ErrNotFound         = errors.New("credential not found")
	ErrStoreUnavailable = errors.New("credential store unavailable")
)
