package twofactor_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authguard/pkg/backupcode"
	"github.com/dmitrymomot/authguard/pkg/email"
	"github.com/dmitrymomot/authguard/pkg/totp"
	"github.com/dmitrymomot/authguard/pkg/twofactor"
)

type MockEmailSender struct {
	mock.Mock
}

func (m *MockEmailSender) SendEmail(ctx context.Context, params email.SendEmailParams) error {
	args := m.Called(ctx, params)
	return args.Error(0)
}

type MockStore struct {
	mock.Mock
}

func (m *MockStore) Get(ctx context.Context, account string) (twofactor.Record, error) {
	args := m.Called(ctx, account)
	return args.Get(0).(twofactor.Record), args.Error(1)
}

func (m *MockStore) Save(ctx context.Context, rec twofactor.Record) error {
	return m.Called(ctx, rec).Error(0)
}

func (m *MockStore) Delete(ctx context.Context, account string) error {
	return m.Called(ctx, account).Error(0)
}

var fixedNow = time.Date(2024, 6, 1, 10, 0, 15, 0, time.UTC)

type fixture struct {
	svc    *twofactor.Service
	store  *twofactor.MemoryStore
	sealer *totp.Sealer
	sender *MockEmailSender
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	sealer, err := totp.NewSealer(make([]byte, 32))
	require.NoError(t, err)

	sender := new(MockEmailSender)
	clock := func() time.Time { return fixedNow }
	channel := backupcode.NewChannel(backupcode.NewMemoryStore(),
		backupcode.WithSender(sender),
		backupcode.WithClock(clock),
	)
	store := twofactor.NewMemoryStore()
	svc := twofactor.NewService(store, sealer, channel,
		twofactor.WithIssuer("Site Admin"),
		twofactor.WithClock(clock),
		twofactor.WithQRSize(128),
	)
	return fixture{svc: svc, store: store, sealer: sealer, sender: sender}
}

func codeAt(t *testing.T, secret string, at time.Time) string {
	t.Helper()
	code, err := totp.GenerateCode(secret, at)
	require.NoError(t, err)
	return code
}

func enroll(t *testing.T, f fixture, account, backupEmail string) string {
	t.Helper()
	ctx := context.Background()
	enrollment, err := f.svc.BeginSetup(ctx, account)
	require.NoError(t, err)
	require.NoError(t, f.svc.ConfirmSetup(ctx, account, enrollment.Secret, codeAt(t, enrollment.Secret, fixedNow), backupEmail))
	return enrollment.Secret
}

func TestService_BeginSetup(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	enrollment, err := f.svc.BeginSetup(context.Background(), "owner")
	require.NoError(t, err)
	assert.Regexp(t, "^[A-Z2-7]{32}$", enrollment.Secret)
	assert.Equal(t,
		"otpauth://totp/Site%20Admin:owner?secret="+enrollment.Secret+"&issuer=Site+Admin&algorithm=SHA1&digits=6&period=30",
		enrollment.URI)
	assert.True(t, strings.HasPrefix(enrollment.QRCode, "data:image/png;base64,"))

	settings, err := f.svc.Settings(context.Background(), "owner")
	require.NoError(t, err)
	assert.False(t, settings.Enabled, "setup is not persisted before confirmation")

	_, err = f.svc.BeginSetup(context.Background(), "")
	assert.ErrorIs(t, err, twofactor.ErrEmptyAccount)
}

func TestService_ConfirmSetup(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("valid code enables and seals the secret", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		secret := enroll(t, f, "owner", "owner@example.com")

		settings, err := f.svc.Settings(ctx, "owner")
		require.NoError(t, err)
		assert.True(t, settings.Enabled)
		assert.True(t, settings.EmailBackupConfigured())
		assert.Equal(t, "o****@example.com", settings.MaskedBackupEmail())

		rec, err := f.store.Get(ctx, "owner")
		require.NoError(t, err)
		assert.NotContains(t, rec.SealedSecret, secret)
		opened, err := f.sealer.Open(rec.SealedSecret)
		require.NoError(t, err)
		assert.Equal(t, secret, opened)
	})

	t.Run("wrong code", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		enrollment, err := f.svc.BeginSetup(ctx, "owner")
		require.NoError(t, err)

		stale := codeAt(t, enrollment.Secret, fixedNow.Add(-2*time.Minute))
		err = f.svc.ConfirmSetup(ctx, "owner", enrollment.Secret, stale, "")
		assert.ErrorIs(t, err, twofactor.ErrInvalidCode)

		enabled, err := f.svc.Enabled(ctx, "owner")
		require.NoError(t, err)
		assert.False(t, enabled)
	})

	t.Run("bad backup email", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		enrollment, err := f.svc.BeginSetup(ctx, "owner")
		require.NoError(t, err)

		err = f.svc.ConfirmSetup(ctx, "owner", enrollment.Secret, codeAt(t, enrollment.Secret, fixedNow), "nope")
		assert.ErrorIs(t, err, twofactor.ErrInvalidBackupEmail)
	})

	t.Run("store failure is returned", func(t *testing.T) {
		t.Parallel()
		sealer, err := totp.NewSealer(make([]byte, 32))
		require.NoError(t, err)
		store := new(MockStore)
		boom := errors.New("db down")
		store.On("Save", mock.Anything, mock.MatchedBy(func(r twofactor.Record) bool {
			return r.AccountID == "owner" && r.Enabled
		})).Return(boom).Once()

		svc := twofactor.NewService(store, sealer, nil, twofactor.WithClock(func() time.Time { return fixedNow }))
		secret, err := totp.GenerateSecretKey()
		require.NoError(t, err)

		err = svc.ConfirmSetup(ctx, "owner", secret, codeAt(t, secret, fixedNow), "")
		assert.ErrorIs(t, err, boom)
		store.AssertExpectations(t)
	})
}

func TestService_Verify(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("authenticator code", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		secret := enroll(t, f, "owner", "")

		res, err := f.svc.Verify(ctx, "owner", codeAt(t, secret, fixedNow.Add(-30*time.Second)))
		require.NoError(t, err)
		assert.Equal(t, twofactor.Result{Valid: true, Method: twofactor.MethodTOTP}, res)

		res, err = f.svc.Verify(ctx, "owner", codeAt(t, secret, fixedNow.Add(-90*time.Second)))
		require.NoError(t, err)
		assert.False(t, res.Valid)
		assert.Equal(t, twofactor.MethodNone, res.Method)
	})

	t.Run("backup code is accepted once", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		enroll(t, f, "owner", "owner@example.com")

		var body string
		f.sender.On("SendEmail", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) { body = args.Get(1).(email.SendEmailParams).BodyHTML }).
			Return(nil).Once()

		masked, expiresAt, err := f.svc.SendBackupCode(ctx, "owner")
		require.NoError(t, err)
		assert.Equal(t, "o****@example.com", masked)
		assert.Equal(t, fixedNow.Add(backupcode.DefaultTTL), expiresAt)

		remaining, err := f.svc.BackupCodeRemaining(ctx, "owner")
		require.NoError(t, err)
		assert.Equal(t, backupcode.DefaultTTL, remaining)

		code := extractCode(t, body)
		res, err := f.svc.Verify(ctx, "owner", code)
		require.NoError(t, err)
		// A random backup code could collide with the live TOTP code
		if res.Method != twofactor.MethodTOTP {
			assert.Equal(t, twofactor.Result{Valid: true, Method: twofactor.MethodBackup}, res)
		}
	})

	t.Run("not configured", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		res, err := f.svc.Verify(ctx, "stranger", "123456")
		require.NoError(t, err)
		assert.False(t, res.Valid)
	})

	t.Run("store failure is returned", func(t *testing.T) {
		t.Parallel()
		sealer, err := totp.NewSealer(make([]byte, 32))
		require.NoError(t, err)
		store := new(MockStore)
		boom := errors.New("db down")
		store.On("Get", mock.Anything, "owner").Return(twofactor.Record{}, boom).Once()

		svc := twofactor.NewService(store, sealer, nil)
		_, err = svc.Verify(ctx, "owner", "123456")
		assert.ErrorIs(t, err, boom)
	})
}

func TestService_SendBackupCode(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("without backup email", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		enroll(t, f, "owner", "")
		_, _, err := f.svc.SendBackupCode(ctx, "owner")
		assert.ErrorIs(t, err, twofactor.ErrEmailBackupNotConfigured)
	})

	t.Run("delivery failure", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		enroll(t, f, "owner", "owner@example.com")
		f.sender.On("SendEmail", mock.Anything, mock.Anything).Return(errors.New("smtp down")).Once()

		_, _, err := f.svc.SendBackupCode(ctx, "owner")
		assert.ErrorIs(t, err, backupcode.ErrDeliveryFailed)

		remaining, err := f.svc.BackupCodeRemaining(ctx, "owner")
		require.NoError(t, err)
		assert.Zero(t, remaining)
	})
}

func TestService_Disable(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	secret := enroll(t, f, "owner", "")

	require.NoError(t, f.svc.Disable(ctx, "owner"))

	enabled, err := f.svc.Enabled(ctx, "owner")
	require.NoError(t, err)
	assert.False(t, enabled)

	res, err := f.svc.Verify(ctx, "owner", codeAt(t, secret, fixedNow))
	require.NoError(t, err)
	assert.False(t, res.Valid)
}

func TestMaskEmail(t *testing.T) {
	t.Parallel()
	tests := map[string]string{
		"jane@example.com":           "j***@example.com",
		"jo@example.com":             "j***@example.com",
		"j@example.com":              "j***@example.com",
		"jonathan.smith@example.com": "j*****@example.com",
		"abc@x.io":                   "a**@x.io",
		"@example.com":               "***@example.com",
		"no-at-sign":                 "***@",
	}
	for in, want := range tests {
		assert.Equal(t, want, twofactor.MaskEmail(in), in)
	}
}

// extractCode pulls the six digit code out of the rendered email.
func extractCode(t *testing.T, html string) string {
	t.Helper()
	const marker = `font-weight:bold;margin:0 0 16px">`
	i := strings.Index(html, marker)
	require.GreaterOrEqual(t, i, 0)
	return html[i+len(marker) : i+len(marker)+6]
}
