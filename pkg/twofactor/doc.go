// Package twofactor stores per-account TOTP settings and verifies second
// factor codes.
//
// Enrollment is two-step: BeginSetup returns a new secret with its otpauth URI
// and QR image, and ConfirmSetup persists it only after a code generated from
// that secret verifies. Secrets are sealed with AES-256-GCM before they reach
// the Store.
//
// Verify accepts either the current authenticator code or an outstanding
// backup code from the backupcode.Channel, reporting which one matched.
package twofactor
