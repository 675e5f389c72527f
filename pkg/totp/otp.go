package totp

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/binary"
	"errors"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode"
)

const (
	DefaultDigits    = 6      // Standard 6-digit TOTP codes
	DefaultPeriod    = 30     // 30-second validity window (RFC 6238 standard)
	DefaultWindow    = 1      // Accept one step of clock drift in either direction
	DefaultAlgorithm = "SHA1" // HMAC-SHA1 algorithm (RFC 6238 standard)

	// SecretSize is the number of random bytes behind a generated secret (160 bits).
	SecretSize = 20

	// Code length bounds. 10^9 still fits the 31-bit truncated value.
	MinDigits = 1
	MaxDigits = 9
)

// TOTPParams contains the parameters for TOTP URI generation
type TOTPParams struct {
	Secret      string // Base32-encoded TOTP secret key (required)
	AccountName string // User identifier like email (required)
	Issuer      string // Service name displayed in authenticator apps (required)
	Algorithm   string // HMAC algorithm (optional, defaults to SHA1)
	Digits      int    // Number of digits in generated codes (optional, defaults to 6)
	Period      int    // Code validity period in seconds (optional, defaults to 30)
}

// Validate ensures all required TOTP parameters are present and valid
func (p TOTPParams) Validate() error {
	if p.Secret == "" {
		return ErrMissingSecret
	}
	if _, err := DecodeBase32(p.Secret); err != nil {
		return errors.Join(ErrInvalidSecret, err)
	}
	if p.AccountName == "" {
		return ErrMissingAccountName
	}
	if p.Issuer == "" {
		return ErrMissingIssuer
	}
	return nil
}

// GetDefaults returns a copy with RFC 6238 standard defaults applied to zero-valued fields
func (p TOTPParams) GetDefaults() TOTPParams {
	if p.Algorithm == "" {
		p.Algorithm = DefaultAlgorithm
	}
	if p.Digits == 0 {
		p.Digits = DefaultDigits
	}
	if p.Period == 0 {
		p.Period = DefaultPeriod
	}
	return p
}

// options control code generation and verification.
type options struct {
	period int
	digits int
	window int
}

// Option tweaks period, digits or drift window. The defaults match what
// authenticator apps expect and should only be changed for testing or
// interoperability with non-standard tokens.
type Option func(*options)

// WithPeriod sets the time step in seconds.
func WithPeriod(seconds int) Option {
	return func(o *options) { o.period = seconds }
}

// WithDigits sets the code length.
func WithDigits(digits int) Option {
	return func(o *options) { o.digits = digits }
}

// WithWindow sets how many time steps on each side of now are accepted.
func WithWindow(steps int) Option {
	return func(o *options) {
		if steps >= 0 {
			o.window = steps
		}
	}
}

func newOptions(opts []Option) (options, error) {
	o := options{
		period: DefaultPeriod,
		digits: DefaultDigits,
		window: DefaultWindow,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.period <= 0 {
		return o, ErrInvalidPeriod
	}
	if o.digits < MinDigits || o.digits > MaxDigits {
		return o, ErrInvalidDigits
	}
	return o, nil
}

// GenerateSecretKey generates a new Base32-encoded secret key for TOTP.
func GenerateSecretKey() (string, error) {
	secret := make([]byte, SecretSize)
	if _, err := rand.Read(secret); err != nil {
		return "", errors.Join(ErrFailedToGenerateSecretKey, err)
	}
	return EncodeBase32(secret), nil
}

// GetTOTPURI builds the otpauth:// URI consumed by authenticator apps.
// Query parameters keep the conventional order: secret, issuer, algorithm, digits, period.
// https://github.com/google/google-authenticator/wiki/Key-Uri-Format
func GetTOTPURI(params TOTPParams) (string, error) {
	if err := params.Validate(); err != nil {
		return "", err
	}

	params = params.GetDefaults()

	var sb strings.Builder
	sb.WriteString("otpauth://totp/")
	sb.WriteString(url.PathEscape(params.Issuer))
	sb.WriteByte(':')
	sb.WriteString(url.PathEscape(params.AccountName))
	sb.WriteString("?secret=")
	sb.WriteString(strings.ToUpper(params.Secret))
	sb.WriteString("&issuer=")
	sb.WriteString(url.QueryEscape(params.Issuer))
	sb.WriteString("&algorithm=")
	sb.WriteString(params.Algorithm)
	sb.WriteString("&digits=")
	sb.WriteString(strconv.Itoa(params.Digits))
	sb.WriteString("&period=")
	sb.WriteString(strconv.Itoa(params.Period))

	return sb.String(), nil
}

// GenerateHOTP implements the RFC 4226 HMAC-based One-Time Password algorithm
// and returns the code zero-padded to digits. digits outside 1-9 fail with
// ErrInvalidDigits.
func GenerateHOTP(key []byte, counter uint64, digits int) (string, error) {
	if digits < MinDigits || digits > MaxDigits {
		return "", ErrInvalidDigits
	}
	return hotp(key, counter, digits), nil
}

// hotp expects digits already validated.
func hotp(key []byte, counter uint64, digits int) string {
	var msg [8]byte
	binary.BigEndian.PutUint64(msg[:], counter)

	mac := hmac.New(sha1.New, key)
	mac.Write(msg[:])
	sum := mac.Sum(nil)

	// Dynamic truncation: the low nibble of the last byte picks a 4-byte window
	offset := sum[len(sum)-1] & 0x0f
	binCode := uint32(sum[offset]&0x7f)<<24 |
		uint32(sum[offset+1])<<16 |
		uint32(sum[offset+2])<<8 |
		uint32(sum[offset+3])

	mod := uint32(1)
	for range digits {
		mod *= 10
	}

	code := strconv.FormatUint(uint64(binCode%mod), 10)
	if pad := digits - len(code); pad > 0 {
		code = strings.Repeat("0", pad) + code
	}
	return code
}

// GenerateCode returns the TOTP code for the time step containing t.
func GenerateCode(secret string, t time.Time, opts ...Option) (string, error) {
	o, err := newOptions(opts)
	if err != nil {
		return "", err
	}

	key, err := decodeSecret(secret)
	if err != nil {
		return "", err
	}

	return hotp(key, counterAt(t, o.period), o.digits), nil
}

// GenerateTOTP generates a code for the current time step.
func GenerateTOTP(secret string) (string, error) {
	return GenerateCode(secret, time.Now())
}

// VerifyCode reports whether code matches any time step within the configured
// window around t. Every candidate in the window is compared in constant time.
// A code with the wrong length or non-digit characters is simply invalid.
func VerifyCode(secret, code string, t time.Time, opts ...Option) (bool, error) {
	o, err := newOptions(opts)
	if err != nil {
		return false, err
	}

	key, err := decodeSecret(secret)
	if err != nil {
		return false, err
	}

	code = stripSpaces(code)
	if !isNumeric(code, o.digits) {
		return false, nil
	}

	counter := counterAt(t, o.period)
	matched := 0
	for i := -o.window; i <= o.window; i++ {
		step := int64(counter) + int64(i)
		if step < 0 {
			continue
		}
		expected := hotp(key, uint64(step), o.digits)
		matched |= subtle.ConstantTimeCompare([]byte(expected), []byte(code))
	}

	return matched == 1, nil
}

// ValidateTOTP validates the code against the current time with the default
// drift window of one step.
func ValidateTOTP(secret, code string) (bool, error) {
	return VerifyCode(secret, code, time.Now())
}

// RemainingSeconds returns how long the code for t stays current.
// Informational only, intended for UI countdowns.
func RemainingSeconds(t time.Time, opts ...Option) int {
	o, err := newOptions(opts)
	if err != nil {
		o.period = DefaultPeriod
	}
	period := int64(o.period)
	return int(period - t.Unix()%period)
}

func counterAt(t time.Time, period int) uint64 {
	ms := t.UnixMilli()
	if ms < 0 {
		return 0
	}
	return uint64(ms / 1000 / int64(period))
}

func decodeSecret(secret string) ([]byte, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, ErrMissingSecret
	}
	key, err := DecodeBase32(secret)
	if err != nil {
		return nil, errors.Join(ErrInvalidSecret, err)
	}
	if len(key) == 0 {
		return nil, ErrInvalidSecret
	}
	return key, nil
}

func stripSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

func isNumeric(s string, length int) bool {
	if len(s) != length {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
