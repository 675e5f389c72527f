package login

import (
	"context"
	"time"

	"github.com/dmitrymomot/authguard/pkg/twofactor"
)

// Outcome of the password step.
type Outcome struct {
	Success                 bool      `json:"success"`
	Locked                  bool      `json:"locked,omitempty"`
	RemainingLockoutSeconds int       `json:"remaining_lockout_seconds,omitempty"`
	RemainingAttempts       int       `json:"remaining_attempts"`
	TwoFactorRequired       bool      `json:"two_factor_required,omitempty"`
	PendingToken            string    `json:"pending_token,omitempty"`
	SessionToken            string    `json:"session_token,omitempty"`
	ExpiresAt               time.Time `json:"expires_at,omitzero"`
}

// TwoFactorOutcome of the second-factor step.
type TwoFactorOutcome struct {
	Valid                   bool             `json:"valid"`
	Method                  twofactor.Method `json:"method,omitempty"`
	Locked                  bool             `json:"locked,omitempty"`
	RemainingLockoutSeconds int              `json:"remaining_lockout_seconds,omitempty"`
	RemainingAttempts       int              `json:"remaining_attempts"`
	SessionToken            string           `json:"session_token,omitempty"`
	ExpiresAt               time.Time        `json:"expires_at,omitzero"`
}

// BackupCodeDelivery describes where a backup code went.
type BackupCodeDelivery struct {
	MaskedEmail             string    `json:"masked_email"`
	ExpiresAt               time.Time `json:"expires_at"`
	RemainingLockoutSeconds int       `json:"remaining_lockout_seconds,omitempty"` // Set with ErrLocked
}

// TwoFactor is the part of twofactor.Service the login flow needs.
type TwoFactor interface {
	Enabled(ctx context.Context, account string) (bool, error)
	Verify(ctx context.Context, account, code string) (twofactor.Result, error)
	SendBackupCode(ctx context.Context, account string) (string, time.Time, error)
}
