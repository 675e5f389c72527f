package totp_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authguard/pkg/totp"
)

// rfcSecret is the ASCII seed "12345678901234567890" from RFC 4226/6238 in Base32.
const rfcSecret = "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ"

func TestGenerateSecretKey(t *testing.T) {
	t.Parallel()
	secret, err := totp.GenerateSecretKey()
	require.NoError(t, err)
	assert.Regexp(t, "^[A-Z2-7]{32}$", secret)

	key, err := totp.DecodeBase32(secret)
	require.NoError(t, err)
	assert.Len(t, key, totp.SecretSize)

	other, err := totp.GenerateSecretKey()
	require.NoError(t, err)
	assert.NotEqual(t, secret, other)
}

func TestGetTOTPURI(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		params  totp.TOTPParams
		want    string
		wantErr error
	}{
		{
			name: "Basic URI",
			params: totp.TOTPParams{
				Secret:      "ABCDEFGHIJKLMNOP",
				AccountName: "admin",
				Issuer:      "TestApp",
			},
			want: "otpauth://totp/TestApp:admin?secret=ABCDEFGHIJKLMNOP&issuer=TestApp&algorithm=SHA1&digits=6&period=30",
		},
		{
			name: "URI with special characters",
			params: totp.TOTPParams{
				Secret:      "ABCDEFGHIJKLMNOP",
				AccountName: "test+user@example.com",
				Issuer:      "Test & App",
			},
			want: "otpauth://totp/Test%20&%20App:test+user@example.com?secret=ABCDEFGHIJKLMNOP&issuer=Test+%26+App&algorithm=SHA1&digits=6&period=30",
		},
		{
			name:    "Missing secret",
			params:  totp.TOTPParams{AccountName: "admin", Issuer: "TestApp"},
			wantErr: totp.ErrMissingSecret,
		},
		{
			name:    "Invalid secret",
			params:  totp.TOTPParams{Secret: "not-base32!", AccountName: "admin", Issuer: "TestApp"},
			wantErr: totp.ErrInvalidSecret,
		},
		{
			name:    "Missing account",
			params:  totp.TOTPParams{Secret: "ABCDEFGHIJKLMNOP", Issuer: "TestApp"},
			wantErr: totp.ErrMissingAccountName,
		},
		{
			name:    "Missing issuer",
			params:  totp.TOTPParams{Secret: "ABCDEFGHIJKLMNOP", AccountName: "admin"},
			wantErr: totp.ErrMissingIssuer,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := totp.GetTOTPURI(tt.params)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGenerateHOTP_RFC4226Vectors(t *testing.T) {
	t.Parallel()
	key := []byte("12345678901234567890")
	want := []string{
		"755224", "287082", "359152", "969429", "338314",
		"254676", "287922", "162583", "399871", "520489",
	}

	for counter, code := range want {
		got, err := totp.GenerateHOTP(key, uint64(counter), 6)
		require.NoError(t, err)
		assert.Equal(t, code, got, "counter %d", counter)
	}
}

func TestGenerateHOTP_DigitsBounds(t *testing.T) {
	t.Parallel()
	key := []byte("12345678901234567890")

	tests := []struct {
		digits  int
		want    string
		wantErr error
	}{
		{digits: 0, wantErr: totp.ErrInvalidDigits},
		{digits: -1, wantErr: totp.ErrInvalidDigits},
		{digits: 10, wantErr: totp.ErrInvalidDigits},
		{digits: 12, wantErr: totp.ErrInvalidDigits},
		{digits: 1, want: "4"},
		{digits: 9, want: "284755224"},
	}

	for _, tt := range tests {
		got, err := totp.GenerateHOTP(key, 0, tt.digits)
		if tt.wantErr != nil {
			assert.ErrorIs(t, err, tt.wantErr, "digits %d", tt.digits)
			assert.Empty(t, got)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "digits %d", tt.digits)
	}
}

func TestGenerateCode_RFC6238Vectors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		unix int64
		want string
	}{
		{59, "94287082"},
		{1111111109, "07081804"},
		{1111111111, "14050471"},
		{1234567890, "89005924"},
		{2000000000, "69279037"},
		{20000000000, "65353130"},
	}

	for _, tt := range tests {
		code, err := totp.GenerateCode(rfcSecret, time.Unix(tt.unix, 0), totp.WithDigits(8))
		require.NoError(t, err)
		assert.Equal(t, tt.want, code, "T=%d", tt.unix)

		// Six digit codes are the low six digits of the same truncated value
		short, err := totp.GenerateCode(rfcSecret, time.Unix(tt.unix, 0))
		require.NoError(t, err)
		assert.Equal(t, tt.want[2:], short, "T=%d", tt.unix)
	}
}

func TestGenerateCode_SameStepIsDeterministic(t *testing.T) {
	t.Parallel()
	secret, err := totp.GenerateSecretKey()
	require.NoError(t, err)

	start := time.Unix(1_700_000_010, 0) // step boundary at ...010
	first, err := totp.GenerateCode(secret, start)
	require.NoError(t, err)
	last, err := totp.GenerateCode(secret, start.Add(29*time.Second+999*time.Millisecond))
	require.NoError(t, err)
	next, err := totp.GenerateCode(secret, start.Add(30*time.Second))
	require.NoError(t, err)

	assert.Equal(t, first, last)
	assert.Len(t, first, 6)
	assert.Len(t, next, 6)
}

func TestGenerateCode_Errors(t *testing.T) {
	t.Parallel()
	now := time.Now()

	_, err := totp.GenerateCode("", now)
	assert.ErrorIs(t, err, totp.ErrMissingSecret)

	_, err = totp.GenerateCode("invalid-base32!@#$", now)
	assert.ErrorIs(t, err, totp.ErrInvalidSecret)
	assert.ErrorIs(t, err, totp.ErrInvalidEncoding)

	_, err = totp.GenerateCode(rfcSecret, now, totp.WithDigits(0))
	assert.ErrorIs(t, err, totp.ErrInvalidDigits)

	_, err = totp.GenerateCode(rfcSecret, now, totp.WithPeriod(0))
	assert.ErrorIs(t, err, totp.ErrInvalidPeriod)
}

func TestVerifyCode(t *testing.T) {
	t.Parallel()
	secret, err := totp.GenerateSecretKey()
	require.NoError(t, err)

	now := time.UnixMilli(1_700_000_012_345)
	codeAt := func(d time.Duration) string {
		c, err := totp.GenerateCode(secret, now.Add(d))
		require.NoError(t, err)
		return c
	}

	tests := []struct {
		name   string
		code   string
		opts   []totp.Option
		result bool
	}{
		{name: "current step", code: codeAt(0), result: true},
		{name: "25 seconds ago", code: codeAt(-25 * time.Second), result: true},
		{name: "previous step", code: codeAt(-30 * time.Second), result: true},
		{name: "next step", code: codeAt(30 * time.Second), result: true},
		{name: "65 seconds ago is outside the window", code: codeAt(-65 * time.Second), result: false},
		{name: "two steps ahead is outside the window", code: codeAt(60 * time.Second), result: false},
		{name: "zero window rejects previous step", code: codeAt(-30 * time.Second), opts: []totp.Option{totp.WithWindow(0)}, result: false},
		{name: "wide window accepts 65 seconds ago", code: codeAt(-65 * time.Second), opts: []totp.Option{totp.WithWindow(3)}, result: true},
		{name: "spaces are ignored", code: codeAt(0)[:3] + " " + codeAt(0)[3:], result: true},
		{name: "too short", code: "12345", result: false},
		{name: "letters", code: "12345a", result: false},
		{name: "empty", code: "", result: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ok, err := totp.VerifyCode(secret, tt.code, now, tt.opts...)
			require.NoError(t, err)
			assert.Equal(t, tt.result, ok)
		})
	}
}

func TestVerifyCode_InvalidSecret(t *testing.T) {
	t.Parallel()

	ok, err := totp.VerifyCode("", "123456", time.Now())
	assert.False(t, ok)
	assert.ErrorIs(t, err, totp.ErrMissingSecret)

	ok, err = totp.VerifyCode("invalid-base32!@#$", "123456", time.Now())
	assert.False(t, ok)
	assert.ErrorIs(t, err, totp.ErrInvalidSecret)
}

func TestValidateTOTP(t *testing.T) {
	t.Parallel()
	secret, err := totp.GenerateSecretKey()
	require.NoError(t, err)

	code, err := totp.GenerateTOTP(secret)
	require.NoError(t, err)

	ok, err := totp.ValidateTOTP(strings.ToLower(secret), code)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRemainingSeconds(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 30, totp.RemainingSeconds(time.Unix(60, 0)))
	assert.Equal(t, 1, totp.RemainingSeconds(time.Unix(89, 500)))
	assert.Equal(t, 15, totp.RemainingSeconds(time.Unix(75, 0)))
	assert.Equal(t, 45, totp.RemainingSeconds(time.Unix(75, 0), totp.WithPeriod(60)))
}
