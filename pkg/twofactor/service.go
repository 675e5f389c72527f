package twofactor

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/dmitrymomot/authguard/pkg/audit"
	"github.com/dmitrymomot/authguard/pkg/backupcode"
	"github.com/dmitrymomot/authguard/pkg/email"
	"github.com/dmitrymomot/authguard/pkg/logger"
	"github.com/dmitrymomot/authguard/pkg/qrcode"
	"github.com/dmitrymomot/authguard/pkg/totp"
)

// Method names the factor that accepted a code.
type Method string

const (
	MethodNone   Method = ""
	MethodTOTP   Method = "totp"
	MethodBackup Method = "backup"
)

// Result of Verify.
type Result struct {
	Valid  bool   `json:"valid"`
	Method Method `json:"method,omitempty"`
}

// Enrollment is what the user needs to add the account to an authenticator.
type Enrollment struct {
	Secret string `json:"secret"`
	URI    string `json:"uri"`
	QRCode string `json:"qr_code"` // PNG data URL
}

// Service manages two-factor settings and verifies second-factor codes.
type Service struct {
	store  Store
	sealer *totp.Sealer
	backup *backupcode.Channel
	issuer string
	qrSize int
	window int
	now    func() time.Time
	log    *slog.Logger
	audit  *audit.Logger
}

type Option func(*Service)

// WithIssuer sets the name shown in authenticator apps.
func WithIssuer(issuer string) Option {
	return func(s *Service) {
		if issuer != "" {
			s.issuer = issuer
		}
	}
}

// WithQRSize sets the enrollment image edge in pixels.
func WithQRSize(px int) Option {
	return func(s *Service) { s.qrSize = px }
}

// WithWindow sets the accepted clock drift in time steps.
func WithWindow(steps int) Option {
	return func(s *Service) {
		if steps >= 0 {
			s.window = steps
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func WithLogger(log *slog.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithAudit records enable and disable events.
func WithAudit(l *audit.Logger) Option {
	return func(s *Service) { s.audit = l }
}

// NewService wires settings storage, secret sealing and the backup channel.
// backup may be nil, in which case only authenticator codes are accepted.
func NewService(store Store, sealer *totp.Sealer, backup *backupcode.Channel, opts ...Option) *Service {
	s := &Service{
		store:  store,
		sealer: sealer,
		backup: backup,
		issuer: "Admin",
		qrSize: qrcode.DefaultSize,
		window: totp.DefaultWindow,
		now:    time.Now,
		log:    logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// BeginSetup creates a fresh secret for account. Nothing is persisted until
// ConfirmSetup proves the authenticator holds the same secret.
func (s *Service) BeginSetup(ctx context.Context, account string) (Enrollment, error) {
	if strings.TrimSpace(account) == "" {
		return Enrollment{}, ErrEmptyAccount
	}

	secret, err := totp.GenerateSecretKey()
	if err != nil {
		return Enrollment{}, errors.Join(ErrFailedToCreateEnrollment, err)
	}

	uri, err := totp.GetTOTPURI(totp.TOTPParams{
		Secret:      secret,
		AccountName: account,
		Issuer:      s.issuer,
	})
	if err != nil {
		return Enrollment{}, errors.Join(ErrFailedToCreateEnrollment, err)
	}

	qr, err := qrcode.EnrollmentDataURL(uri, s.qrSize)
	if err != nil {
		return Enrollment{}, errors.Join(ErrFailedToCreateEnrollment, err)
	}

	return Enrollment{Secret: secret, URI: uri, QRCode: qr}, nil
}

// ConfirmSetup enables two-factor for account once code verifies against
// secret. backupEmail is optional; when set it must be a valid address.
func (s *Service) ConfirmSetup(ctx context.Context, account, secret, code, backupEmail string) error {
	if strings.TrimSpace(account) == "" {
		return ErrEmptyAccount
	}
	backupEmail = strings.TrimSpace(backupEmail)
	if backupEmail != "" && !email.IsValidAddress(backupEmail) {
		return ErrInvalidBackupEmail
	}

	ok, err := totp.VerifyCode(secret, code, s.now(), totp.WithWindow(s.window))
	if err != nil {
		return errors.Join(ErrInvalidCode, err)
	}
	if !ok {
		return ErrInvalidCode
	}

	sealed, err := s.sealer.Seal(strings.ToUpper(strings.TrimSpace(secret)))
	if err != nil {
		return err
	}

	if err := s.store.Save(ctx, Record{
		AccountID:    account,
		Enabled:      true,
		SealedSecret: sealed,
		BackupEmail:  backupEmail,
		UpdatedAt:    s.now(),
	}); err != nil {
		return err
	}

	s.log.InfoContext(ctx, "two-factor enabled",
		logger.AccountID(account),
		slog.Bool("email_backup", backupEmail != ""),
	)
	s.record(ctx, audit.ActionTwoFactorEnabled, account, audit.WithMetadata("email_backup", backupEmail != ""))
	return nil
}

// Disable removes the account's two-factor configuration.
func (s *Service) Disable(ctx context.Context, account string) error {
	if strings.TrimSpace(account) == "" {
		return ErrEmptyAccount
	}
	if err := s.store.Delete(ctx, account); err != nil {
		return err
	}
	s.log.InfoContext(ctx, "two-factor disabled", logger.AccountID(account))
	s.record(ctx, audit.ActionTwoFactorDisabled, account)
	return nil
}

func (s *Service) record(ctx context.Context, action audit.Action, account string, opts ...audit.EventOption) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Log(ctx, action, account, opts...); err != nil {
		s.log.ErrorContext(ctx, "failed to record audit event",
			logger.Event(string(action)),
			logger.AccountID(account),
			logger.Error(err),
		)
	}
}

// Settings returns the current configuration. An account that never enrolled
// yields a disabled Settings and no error.
func (s *Service) Settings(ctx context.Context, account string) (Settings, error) {
	rec, err := s.store.Get(ctx, account)
	if errors.Is(err, ErrNotConfigured) {
		return Settings{AccountID: account}, nil
	}
	if err != nil {
		return Settings{}, err
	}
	return rec.settings(), nil
}

// Enabled reports whether account must pass a second factor.
func (s *Service) Enabled(ctx context.Context, account string) (bool, error) {
	settings, err := s.Settings(ctx, account)
	if err != nil {
		return false, err
	}
	return settings.Enabled, nil
}

// Verify tries the authenticator code first and the emailed backup code
// second. A missing or broken configuration is logged and reported as an
// invalid code, never as a distinct error.
func (s *Service) Verify(ctx context.Context, account, code string) (Result, error) {
	rec, err := s.store.Get(ctx, account)
	switch {
	case errors.Is(err, ErrNotConfigured):
		s.log.ErrorContext(ctx, "two-factor verification without configuration", logger.AccountID(account))
		return Result{}, nil
	case err != nil:
		return Result{}, err
	}
	if !rec.Enabled || rec.SealedSecret == "" {
		s.log.ErrorContext(ctx, "two-factor verification without secret", logger.AccountID(account))
		return Result{}, nil
	}

	secret, err := s.sealer.Open(rec.SealedSecret)
	if err != nil {
		return Result{}, err
	}

	ok, err := totp.VerifyCode(secret, code, s.now(), totp.WithWindow(s.window))
	if err != nil {
		s.log.ErrorContext(ctx, "stored two-factor secret is invalid",
			logger.AccountID(account),
			logger.Error(err),
		)
		return Result{}, nil
	}
	if ok {
		return Result{Valid: true, Method: MethodTOTP}, nil
	}

	if s.backup != nil {
		ok, err := s.backup.Verify(ctx, account, code)
		if err != nil {
			return Result{}, err
		}
		if ok {
			return Result{Valid: true, Method: MethodBackup}, nil
		}
	}

	return Result{}, nil
}

// SendBackupCode emails a fresh backup code to the configured address and
// returns the masked address it went to.
func (s *Service) SendBackupCode(ctx context.Context, account string) (string, time.Time, error) {
	settings, err := s.Settings(ctx, account)
	if err != nil {
		return "", time.Time{}, err
	}
	if !settings.EmailBackupConfigured() || s.backup == nil {
		return "", time.Time{}, ErrEmailBackupNotConfigured
	}

	code, err := s.backup.Send(ctx, account, settings.BackupEmail)
	if err != nil {
		return "", time.Time{}, err
	}
	return settings.MaskedBackupEmail(), code.ExpiresAt, nil
}

// BackupCodeRemaining returns how long the outstanding backup code is valid.
func (s *Service) BackupCodeRemaining(ctx context.Context, account string) (time.Duration, error) {
	if s.backup == nil {
		return 0, nil
	}
	return s.backup.Remaining(ctx, account)
}
