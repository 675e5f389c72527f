// Package totp implements RFC 6238 time-based one-time passwords together with
// the RFC 4648 Base32 codec used to exchange secrets with authenticator apps.
//
// The package is stateless: every call takes the Base32 secret and the point
// in time explicitly, so callers control the clock. Codes are HMAC-SHA1, six
// digits, thirty second steps by default, which is what Google Authenticator,
// Microsoft Authenticator and 1Password expect. Changing those defaults through
// WithDigits or WithPeriod breaks compatibility with those apps.
//
// # Usage
//
//	secret, _ := totp.GenerateSecretKey()
//
//	uri, _ := totp.GetTOTPURI(totp.TOTPParams{
//	    Secret:      secret,
//	    AccountName: "admin",
//	    Issuer:      "Acme",
//	})
//
//	ok, err := totp.VerifyCode(secret, "123456", time.Now())
//
// Secrets should never be stored in plain text. Sealer wraps AES-256-GCM with
// a key loaded from TOTP_ENCRYPTION_KEY; cmd/totpkey prints a fresh key.
//
// # Errors
//
// DecodeBase32 returns ErrInvalidEncoding for characters outside the
// alphabet. Generation and verification wrap it into ErrInvalidSecret so a
// malformed secret is reported as a configuration problem. A malformed code is
// not an error: VerifyCode just returns false.
//
// # See Also
//
//   - RFC 4226 – HMAC-Based One-Time Password (HOTP) Algorithm
//   - RFC 6238 – Time-Based One-Time Password (TOTP) Algorithm
//   - RFC 4648 – The Base16, Base32, and Base64 Data Encodings
package totp
