package session

import "errors"

var (
	ErrMissingSigningKey = errors.New("session: missing signing key")
	ErrWeakSigningKey    = errors.New("session: signing key must be at least 32 bytes")
	ErrEmptySubject      = errors.New("session: empty subject")
	ErrInvalidToken      = errors.New("session: invalid token")
	ErrExpiredToken      = errors.New("session: token is expired")
	ErrWrongPurpose      = errors.New("session: token issued for another purpose")
	ErrFailedToSign      = errors.New("session: failed to sign token")
)
