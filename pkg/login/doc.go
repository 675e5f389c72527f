// Package login implements the sign-in flow.
//
// AttemptLogin checks the lockout guard before touching the stored
// credential, verifies the password, records the outcome and, on success,
// either issues a session token or a short-lived pending token when two-factor
// is enabled. VerifyTwoFactor redeems the pending token with an authenticator
// or backup code under a separate guard.
//
// Every failure is followed by a random delay (1-3s by default) and reports
// the same ErrInvalidCredentials whether the account exists or not.
// Legacy SHA-256 credentials are rehashed with bcrypt after a successful
// sign-in.
package login
