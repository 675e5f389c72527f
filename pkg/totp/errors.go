package totp

import "errors"

var (
	ErrInvalidEncoding               = errors.New("invalid base32 encoding")
	ErrFailedToEncryptSecret         = errors.New("failed to encrypt TOTP secret")
	ErrFailedToDecryptSecret         = errors.New("failed to decrypt TOTP secret")
	ErrInvalidCipherTooShort         = errors.New("cipher text too short")
	ErrFailedToGenerateEncryptionKey = errors.New("failed to generate encryption key")
	ErrFailedToLoadEncryptionKey     = errors.New("failed to load encryption key")
	ErrInvalidEncryptionKeyLength    = errors.New("invalid encryption key length")
	ErrFailedToGenerateSecretKey     = errors.New("failed to generate TOTP secret key")
	ErrMissingSecret                 = errors.New("missing secret")
	ErrInvalidSecret                 = errors.New("invalid secret")
	ErrMissingAccountName            = errors.New("missing account name")
	ErrMissingIssuer                 = errors.New("missing issuer")
	ErrEncryptionKeyNotSet           = errors.New("TOTP encryption key not set")
	ErrInvalidDigits                 = errors.New("digits must be between 1 and 9")
	ErrInvalidPeriod                 = errors.New("period must be positive")
)
