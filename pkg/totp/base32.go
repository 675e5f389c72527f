package totp

import (
	"fmt"
	"strings"
	"unicode"
)

// base32Alphabet is the RFC 4648 alphabet used by authenticator apps.
const base32Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ234567"

// EncodeBase32 packs b into RFC 4648 Base32 symbols without padding.
// Leftover bits at the end are shifted left to fill the final symbol.
func EncodeBase32(b []byte) string {
	if len(b) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.Grow((len(b)*8 + 4) / 5)

	var buffer uint32
	bits := 0
	for _, c := range b {
		buffer = buffer<<8 | uint32(c)
		bits += 8
		for bits >= 5 {
			sb.WriteByte(base32Alphabet[(buffer>>(bits-5))&0x1f])
			bits -= 5
		}
		// Keep only the bits that have not been emitted yet
		buffer &= 1<<bits - 1
	}
	if bits > 0 {
		sb.WriteByte(base32Alphabet[(buffer<<(5-bits))&0x1f])
	}

	return sb.String()
}

// DecodeBase32 is lenient about formatting: whitespace is stripped, input is
// upper-cased and '=' padding is skipped wherever it appears. Trailing bits
// that do not complete a byte are discarded. Any other character outside the
// alphabet fails the whole decode with ErrInvalidEncoding.
func DecodeBase32(s string) ([]byte, error) {
	out := make([]byte, 0, len(s)*5/8)

	var buffer uint32
	bits := 0
	for _, r := range s {
		if unicode.IsSpace(r) || r == '=' {
			continue
		}
		idx := -1
		if r < unicode.MaxASCII {
			idx = strings.IndexByte(base32Alphabet, byte(unicode.ToUpper(r)))
		}
		if idx < 0 {
			return nil, fmt.Errorf("%w: unexpected character %q", ErrInvalidEncoding, r)
		}
		buffer = buffer<<5 | uint32(idx)
		bits += 5
		if bits >= 8 {
			out = append(out, byte(buffer>>(bits-8)))
			bits -= 8
			buffer &= 1<<bits - 1
		}
	}

	return out, nil
}
