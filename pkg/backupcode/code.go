package backupcode

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"math/big"
	"strconv"
	"time"
)

const (
	codeMin   = 100000
	codeRange = 900000
)

// Code is a freshly issued backup code. Value is never persisted.
type Code struct {
	Value     string
	ExpiresAt time.Time
}

// Record is what a Store keeps for an outstanding code.
type Record struct {
	Hash      string    `json:"hash"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the record is past its expiry at now.
func (r Record) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

// newCodeValue draws a uniform six digit value in [100000, 999999].
func newCodeValue() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeRange))
	if err != nil {
		return "", errors.Join(ErrFailedToGenerateCode, err)
	}
	return strconv.FormatInt(n.Int64()+codeMin, 10), nil
}

// HashCode returns the hex SHA-256 digest stored in place of the code.
func HashCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

// MatchHash compares code against a stored digest in constant time.
func MatchHash(code, hash string) bool {
	return subtle.ConstantTimeCompare([]byte(HashCode(code)), []byte(hash)) == 1
}
