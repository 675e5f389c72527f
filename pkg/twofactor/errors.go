package twofactor

import "errors"

var (
	ErrEmptyAccount             = errors.New("empty account")
	ErrInvalidCode              = errors.New("invalid verification code")
	ErrInvalidBackupEmail       = errors.New("invalid backup email")
	ErrNotConfigured            = errors.New("two-factor authentication is not configured")
	ErrEmailBackupNotConfigured = errors.New("email backup is not configured")
	ErrStoreUnavailable         = errors.New("two-factor store unavailable")
	ErrFailedToCreateEnrollment = errors.New("failed to create enrollment")
)
