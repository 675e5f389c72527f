package qrcode

import (
	"encoding/base64"
	"errors"
	"strings"

	skipqrcode "github.com/skip2/go-qrcode"
)

var (
	ErrEmptyContent     = errors.New("content cannot be empty")
	ErrFailedToGenerate = errors.New("failed to generate QR code")
	ErrNotOTPAuthURI    = errors.New("content is not an otpauth URI")
)

// DefaultSize is the image edge in pixels when none is given.
const DefaultSize = 256

const dataURLPrefix = "data:image/png;base64,"

// Generate encodes content as a square PNG of size pixels.
// Medium recovery keeps the code scannable on small phone screens.
func Generate(content string, size int) ([]byte, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}
	if size <= 0 {
		size = DefaultSize
	}
	png, err := skipqrcode.Encode(content, skipqrcode.Medium, size)
	if err != nil {
		return nil, errors.Join(ErrFailedToGenerate, err)
	}
	return png, nil
}

// DataURL returns Generate's PNG as a base64 data URL.
func DataURL(content string, size int) (string, error) {
	png, err := Generate(content, size)
	if err != nil {
		return "", err
	}
	return dataURLPrefix + base64.StdEncoding.EncodeToString(png), nil
}

// EnrollmentDataURL is DataURL restricted to otpauth:// URIs, so a secret is
// never rendered from an arbitrary string by mistake.
func EnrollmentDataURL(uri string, size int) (string, error) {
	if !strings.HasPrefix(uri, "otpauth://") {
		return "", ErrNotOTPAuthURI
	}
	return DataURL(uri, size)
}
