package login

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrymomot/authguard/pkg/audit"
	"github.com/dmitrymomot/authguard/pkg/credential"
	"github.com/dmitrymomot/authguard/pkg/lockout"
	"github.com/dmitrymomot/authguard/pkg/logger"
	"github.com/dmitrymomot/authguard/pkg/session"
	"github.com/dmitrymomot/authguard/pkg/twofactor"
)

// Service runs the two-step sign-in: password guarded by one lockout.Guard,
// then an optional second factor guarded by another.
type Service struct {
	creds      credential.Store
	guard      *lockout.Guard
	tokens     *session.Issuer
	twoFactor  TwoFactor
	twoFAGuard *lockout.Guard
	delay      Delay
	bcryptCost int
	log        *slog.Logger
	audit      *audit.Logger

	dummyOnce sync.Once
	dummyHash credential.StoredCredential
}

type Option func(*Service)

// WithTwoFactor enables the second step. guard limits code guesses
// independently of the password counter.
func WithTwoFactor(tf TwoFactor, guard *lockout.Guard) Option {
	return func(s *Service) {
		s.twoFactor = tf
		s.twoFAGuard = guard
	}
}

// WithDelay replaces the default 1-3s failure delay.
func WithDelay(d Delay) Option {
	return func(s *Service) {
		if d != nil {
			s.delay = d
		}
	}
}

// WithBcryptCost sets the cost used when legacy credentials are upgraded.
func WithBcryptCost(cost int) Option {
	return func(s *Service) {
		if cost > 0 {
			s.bcryptCost = cost
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

// WithAudit records sign-in, lockout and backup code events.
func WithAudit(l *audit.Logger) Option {
	return func(s *Service) { s.audit = l }
}

func NewService(creds credential.Store, guard *lockout.Guard, tokens *session.Issuer, opts ...Option) *Service {
	s := &Service{
		creds:      creds,
		guard:      guard,
		tokens:     tokens,
		delay:      RandomDelay(time.Second, 3*time.Second),
		bcryptCost: bcrypt.DefaultCost,
		log:        logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AttemptLogin checks the password for account. The attempt is reserved on
// the guard before the credential is loaded, so a burst of concurrent
// requests cannot get more than MaxAttempts comparisons per lockout window.
// While the account is locked the credential is not even loaded. Failures
// return ErrInvalidCredentials, or ErrLocked when this failure imposed a
// lockout.
func (s *Service) AttemptLogin(ctx context.Context, account, password string) (Outcome, error) {
	account = strings.TrimSpace(account)
	if account == "" {
		return Outcome{}, ErrInvalidCredentials
	}

	status, err := s.guard.Reserve(ctx, account)
	if errors.Is(err, ErrLocked) {
		return lockedOutcome(status), ErrLocked
	}
	if err != nil {
		return Outcome{}, err
	}

	cred, ok, err := s.verifyPassword(ctx, account, password)
	if err != nil {
		return Outcome{}, err
	}

	if !ok {
		s.logFailure(ctx, "failed sign-in", account, status)
		s.recordFailure(ctx, audit.ActionLoginFailed, audit.ActionLoginLocked, account, status)
		if err := s.delay(ctx); err != nil {
			return Outcome{}, err
		}
		if status.Locked {
			return lockedOutcome(status), ErrLocked
		}
		return Outcome{RemainingAttempts: status.AttemptsLeft}, ErrInvalidCredentials
	}

	if _, err := s.guard.RecordSuccess(ctx, account); err != nil {
		return Outcome{}, err
	}
	s.upgradeCredential(ctx, account, cred, password)

	if s.twoFactor != nil {
		enabled, err := s.twoFactor.Enabled(ctx, account)
		if err != nil {
			return Outcome{}, err
		}
		if enabled {
			pending, exp, err := s.tokens.Issue(account, session.PurposeTwoFactor)
			if err != nil {
				return Outcome{}, err
			}
			s.record(ctx, audit.ActionChallengeIssued, account)
			return Outcome{
				Success:           true,
				RemainingAttempts: s.guard.Config().MaxAttempts,
				TwoFactorRequired: true,
				PendingToken:      pending,
				ExpiresAt:         exp,
			}, nil
		}
	}

	token, exp, err := s.tokens.Issue(account, session.PurposeSession)
	if err != nil {
		return Outcome{}, err
	}
	s.log.InfoContext(ctx, "signed in", logger.AccountID(account))
	s.record(ctx, audit.ActionLoginSucceeded, account)
	return Outcome{
		Success:           true,
		RemainingAttempts: s.guard.Config().MaxAttempts,
		SessionToken:      token,
		ExpiresAt:         exp,
	}, nil
}

// VerifyTwoFactor completes sign-in with an authenticator or backup code.
func (s *Service) VerifyTwoFactor(ctx context.Context, pendingToken, code string) (TwoFactorOutcome, error) {
	account, err := s.pendingAccount(pendingToken)
	if err != nil {
		return TwoFactorOutcome{}, err
	}

	status, err := s.twoFAGuard.Reserve(ctx, account)
	if errors.Is(err, ErrLocked) {
		return lockedTwoFactorOutcome(status), ErrLocked
	}
	if err != nil {
		return TwoFactorOutcome{}, err
	}

	res, err := s.twoFactor.Verify(ctx, account, code)
	if err != nil {
		return TwoFactorOutcome{}, err
	}

	if !res.Valid {
		s.logFailure(ctx, "failed second factor", account, status)
		s.recordFailure(ctx, audit.ActionTwoFactorFailed, audit.ActionTwoFactorLocked, account, status)
		if err := s.delay(ctx); err != nil {
			return TwoFactorOutcome{}, err
		}
		if status.Locked {
			return lockedTwoFactorOutcome(status), ErrLocked
		}
		return TwoFactorOutcome{RemainingAttempts: status.AttemptsLeft}, ErrInvalidCode
	}

	if _, err := s.twoFAGuard.RecordSuccess(ctx, account); err != nil {
		return TwoFactorOutcome{}, err
	}

	token, exp, err := s.tokens.Issue(account, session.PurposeSession)
	if err != nil {
		return TwoFactorOutcome{}, err
	}
	s.log.InfoContext(ctx, "signed in",
		logger.AccountID(account),
		logger.Method(string(res.Method)),
	)
	s.record(ctx, audit.ActionTwoFactorSucceeded, account, audit.WithMetadata("method", string(res.Method)))
	return TwoFactorOutcome{
		Valid:             true,
		Method:            res.Method,
		RemainingAttempts: s.twoFAGuard.Config().MaxAttempts,
		SessionToken:      token,
		ExpiresAt:         exp,
	}, nil
}

// SendBackupCode emails a backup code for the account behind pendingToken.
// It is refused with ErrLocked while the second factor is locked out.
func (s *Service) SendBackupCode(ctx context.Context, pendingToken string) (BackupCodeDelivery, error) {
	account, err := s.pendingAccount(pendingToken)
	if err != nil {
		return BackupCodeDelivery{}, err
	}

	if status, err := s.twoFAGuard.Allow(ctx, account); err != nil {
		if errors.Is(err, ErrLocked) {
			return BackupCodeDelivery{RemainingLockoutSeconds: status.RemainingSeconds()}, err
		}
		return BackupCodeDelivery{}, err
	}

	masked, exp, err := s.twoFactor.SendBackupCode(ctx, account)
	if err != nil {
		if !errors.Is(err, twofactor.ErrEmailBackupNotConfigured) {
			s.record(ctx, audit.ActionBackupCodeSent, account, audit.WithError(err))
		}
		return BackupCodeDelivery{}, err
	}
	s.record(ctx, audit.ActionBackupCodeSent, account, audit.WithMetadata("to", masked))
	return BackupCodeDelivery{MaskedEmail: masked, ExpiresAt: exp}, nil
}

// RefreshSession extends a valid session token.
func (s *Service) RefreshSession(ctx context.Context, token string) (string, time.Time, error) {
	return s.tokens.Refresh(token)
}

func (s *Service) pendingAccount(pendingToken string) (string, error) {
	if s.twoFactor == nil || s.twoFAGuard == nil {
		return "", ErrTwoFactorDisabled
	}
	claims, err := s.tokens.Parse(pendingToken, session.PurposeTwoFactor)
	if err != nil {
		return "", errors.Join(ErrInvalidPendingToken, err)
	}
	return claims.Subject, nil
}

// verifyPassword compares against a throwaway hash for unknown accounts so
// response time does not reveal which accounts exist.
func (s *Service) verifyPassword(ctx context.Context, account, password string) (credential.StoredCredential, bool, error) {
	cred, err := s.creds.GetCredential(ctx, account)
	switch {
	case errors.Is(err, credential.ErrNotFound), errors.Is(err, credential.ErrUnsupportedFormat):
		if errors.Is(err, credential.ErrUnsupportedFormat) {
			s.log.ErrorContext(ctx, "stored credential has unsupported format", logger.AccountID(account))
		}
		s.dummy().Verify(password)
		return nil, false, nil
	case err != nil:
		return nil, false, err
	}
	return cred, cred.Verify(password), nil
}

func (s *Service) dummy() credential.StoredCredential {
	s.dummyOnce.Do(func() {
		cred, err := credential.Hash("authguard-dummy-password", s.bcryptCost)
		if err != nil {
			cred = credential.NewLegacyDigest("authguard-dummy-password")
		}
		s.dummyHash = cred
	})
	return s.dummyHash
}

// upgradeCredential replaces legacy or weak hashes after a successful
// sign-in. Failures are logged; the sign-in itself already succeeded.
func (s *Service) upgradeCredential(ctx context.Context, account string, cred credential.StoredCredential, password string) {
	if !credential.NeedsUpgrade(cred, s.bcryptCost) {
		return
	}
	upgraded, err := credential.Hash(password, s.bcryptCost)
	if err != nil {
		s.log.ErrorContext(ctx, "failed to rehash credential", logger.AccountID(account), logger.Error(err))
		return
	}
	if err := s.creds.SaveCredential(ctx, account, upgraded); err != nil {
		s.log.ErrorContext(ctx, "failed to save upgraded credential", logger.AccountID(account), logger.Error(err))
		return
	}
	s.log.InfoContext(ctx, "credential upgraded",
		logger.AccountID(account),
		slog.String("from", string(cred.Kind())),
	)
	s.record(ctx, audit.ActionCredentialUpgraded, account, audit.WithMetadata("from", string(cred.Kind())))
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

func (s *Service) logFailure(ctx context.Context, msg, account string, st lockout.Status) {
	if st.Locked {
		s.log.WarnContext(ctx, msg+", account locked out",
			logger.AccountID(account),
			logger.LockedFor(st.Remaining),
		)
		return
	}
	s.log.WarnContext(ctx, msg,
		logger.AccountID(account),
		slog.Int("attempts_left", st.AttemptsLeft),
	)
}

// recordFailure audits the failed attempt, or the lockout it triggered.
func (s *Service) recordFailure(ctx context.Context, failed, locked audit.Action, account string, st lockout.Status) {
	if st.Locked {
		s.record(ctx, locked, account,
			audit.WithResult(audit.ResultFailure),
			audit.WithMetadata("locked_seconds", st.RemainingSeconds()),
		)
		return
	}
	s.record(ctx, failed, account,
		audit.WithResult(audit.ResultFailure),
		audit.WithMetadata("attempts_left", st.AttemptsLeft),
	)
}

func lockedOutcome(st lockout.Status) Outcome {
	return Outcome{Locked: true, RemainingLockoutSeconds: st.RemainingSeconds()}
}

func lockedTwoFactorOutcome(st lockout.Status) TwoFactorOutcome {
	return TwoFactorOutcome{Locked: true, RemainingLockoutSeconds: st.RemainingSeconds()}
}
