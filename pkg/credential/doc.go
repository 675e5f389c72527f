// Package credential parses and verifies stored password verifiers.
//
// Two formats are recognized. Bcrypt hashes are the current format and the
// only one Hash produces. Bare 64 character SHA-256 hex digests are legacy
// values that verify in constant time and report NeedsUpgrade so the login
// flow can replace them after a successful sign-in. Anything else is rejected
// by Parse with ErrUnsupportedFormat.
package credential
