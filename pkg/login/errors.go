package login

import (
	"errors"

	"github.com/dmitrymomot/authguard/pkg/lockout"
)

var (
	// ErrInvalidCredentials is the single error for any password failure,
	// including unknown accounts.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidCode covers wrong, expired and reused second-factor codes.
	ErrInvalidCode = errors.New("invalid verification code")

	ErrInvalidPendingToken = errors.New("invalid or expired sign-in attempt")
	ErrTwoFactorDisabled   = errors.New("two-factor authentication is not enabled")

	// ErrLocked is returned while the account or its second factor is locked out.
	ErrLocked = lockout.ErrLocked
)
