// Package clientip resolves the caller's address for audit logging of
// sign-in attempts. Proxy headers are trusted only when configured.
package clientip
