package credential

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Kind tags the scheme behind a StoredCredential.
type Kind string

const (
	KindLegacyDigest Kind = "legacy_sha256"
	KindAdaptiveHash Kind = "bcrypt"
)

// StoredCredential is a parsed password verifier.
type StoredCredential interface {
	Kind() Kind
	// Verify reports whether password matches. It never panics on bad input.
	Verify(password string) bool
	// String returns the encoded form suitable for storage.
	String() string
}

// LegacyDigest is an unsalted SHA-256 hex digest. Accepted for login only and
// replaced by an AdaptiveHash after the first successful sign-in.
type LegacyDigest struct {
	digest string
}

// NewLegacyDigest computes the legacy digest of password.
func NewLegacyDigest(password string) LegacyDigest {
	sum := sha256.Sum256([]byte(password))
	return LegacyDigest{digest: hex.EncodeToString(sum[:])}
}

func (d LegacyDigest) Kind() Kind     { return KindLegacyDigest }
func (d LegacyDigest) String() string { return d.digest }

func (d LegacyDigest) Verify(password string) bool {
	computed := NewLegacyDigest(password).digest
	return subtle.ConstantTimeCompare([]byte(computed), []byte(d.digest)) == 1
}

// AdaptiveHash is a bcrypt hash.
type AdaptiveHash struct {
	hash []byte
}

func (h AdaptiveHash) Kind() Kind     { return KindAdaptiveHash }
func (h AdaptiveHash) String() string { return string(h.hash) }

func (h AdaptiveHash) Verify(password string) bool {
	return bcrypt.CompareHashAndPassword(h.hash, []byte(password)) == nil
}

// Cost returns the bcrypt work factor, or 0 for a malformed hash.
func (h AdaptiveHash) Cost() int {
	cost, err := bcrypt.Cost(h.hash)
	if err != nil {
		return 0
	}
	return cost
}

// Parse recognizes bcrypt ($2a$, $2b$, $2y$) and legacy 64 hex digit digests.
func Parse(stored string) (StoredCredential, error) {
	stored = strings.TrimSpace(stored)

	switch {
	case isBcrypt(stored):
		if _, err := bcrypt.Cost([]byte(stored)); err != nil {
			return nil, errors.Join(ErrUnsupportedFormat, err)
		}
		return AdaptiveHash{hash: []byte(stored)}, nil
	case isHexDigest(stored):
		return LegacyDigest{digest: strings.ToLower(stored)}, nil
	default:
		return nil, ErrUnsupportedFormat
	}
}

// Hash always produces an AdaptiveHash. A cost of zero uses bcrypt.DefaultCost.
func Hash(password string, cost int) (StoredCredential, error) {
	if password == "" {
		return nil, ErrEmptyPassword
	}
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, ErrPasswordTooLong
	}
	if err != nil {
		return nil, errors.Join(ErrFailedToHash, err)
	}
	return AdaptiveHash{hash: hash}, nil
}

// NeedsUpgrade reports whether cred should be rehashed after a successful
// verification: always for legacy digests, and for bcrypt hashes weaker than
// minCost.
func NeedsUpgrade(cred StoredCredential, minCost int) bool {
	switch c := cred.(type) {
	case LegacyDigest:
		return true
	case AdaptiveHash:
		return minCost > 0 && c.Cost() < minCost
	default:
		return false
	}
}

func isBcrypt(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}

func isHexDigest(s string) bool {
	if len(s) != sha256.Size*2 {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}
