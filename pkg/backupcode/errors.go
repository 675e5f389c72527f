package backupcode

import "errors"

var (
	ErrEmptyAccount          = errors.New("empty account")
	ErrFailedToGenerateCode  = errors.New("failed to generate backup code")
	ErrStoreUnavailable      = errors.New("backup code store unavailable")
	ErrSenderNotConfigured   = errors.New("email sender not configured")
	ErrInvalidRecipient      = errors.New("invalid backup email address")
	ErrFailedToRenderMessage = errors.New("failed to render backup code email")

	// ErrDeliveryFailed means the code could not be sent. The code has been
	// discarded, so this is distinct from a wrong code.
	ErrDeliveryFailed = errors.New("failed to deliver backup code")
)
