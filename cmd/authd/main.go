// Command authd serves password sign-in with lockout and optional
// TOTP or emailed backup code second factor over a JSON API.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrymomot/authguard/pkg/audit"
	"github.com/dmitrymomot/authguard/pkg/backupcode"
	"github.com/dmitrymomot/authguard/pkg/clientip"
	"github.com/dmitrymomot/authguard/pkg/email"
	"github.com/dmitrymomot/authguard/pkg/httpapi"
	"github.com/dmitrymomot/authguard/pkg/httpserver"
	"github.com/dmitrymomot/authguard/pkg/lockout"
	"github.com/dmitrymomot/authguard/pkg/logger"
	"github.com/dmitrymomot/authguard/pkg/login"
	"github.com/dmitrymomot/authguard/pkg/ratelimiter"
	"github.com/dmitrymomot/authguard/pkg/requestid"
	"github.com/dmitrymomot/authguard/pkg/session"
	"github.com/dmitrymomot/authguard/pkg/totp"
	"github.com/dmitrymomot/authguard/pkg/twofactor"
)

func main() {
	envFiles := flag.String("env-file", "", "comma-separated .env files read before the environment is parsed; variables already set win")
	flag.Parse()

	if err := run(envFileList(*envFiles)); err != nil {
		fmt.Fprintf(os.Stderr, "authd: %v\n", err)
		os.Exit(1)
	}
}

func run(envFiles []string) error {
	cfg, err := loadConfig(envFiles)
	if err != nil {
		return err
	}

	log := logger.New(
		logger.WithEnvironment(cfg.AppEnv, cfg.ServiceName),
		logger.WithContextExtractors(requestid.LoggerExtractor(), clientip.LoggerExtractor()),
	)
	logger.SetAsDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := seedAdmin(ctx, cfg, st.credentials, log); err != nil {
		return err
	}

	loginGuard, err := lockout.NewGuard(st.loginAttempts, cfg.Login,
		lockout.WithLogger(log.With(logger.Component("login_guard"))))
	if err != nil {
		return fmt.Errorf("login guard: %w", err)
	}
	twoFAGuard, err := lockout.NewGuard(st.twoFAAttempts, cfg.TwoFactor,
		lockout.WithLogger(log.With(logger.Component("twofa_guard"))))
	if err != nil {
		return fmt.Errorf("two-factor guard: %w", err)
	}

	tokens, err := session.NewIssuer(cfg.Session)
	if err != nil {
		return err
	}
	sealer, err := totp.NewSealerFromConfig(cfg.TOTP)
	if err != nil {
		return err
	}

	sender, err := email.NewSender(cfg.Email)
	if err != nil {
		return err
	}
	if _, dev := sender.(*email.DevSender); dev {
		log.WarnContext(ctx, "no email provider configured, backup code emails are written to disk",
			slog.String("dir", cfg.Email.DevOutputDir))
	}

	var auditLog *audit.Logger
	if st.audit != nil {
		var closeAudit func()
		auditLog, closeAudit = newAuditLogger(st.audit, cfg.Audit, log)
		defer closeAudit()
	}

	channel := backupcode.NewChannel(st.backupCodes,
		backupcode.WithConfig(cfg.BackupCode),
		backupcode.WithSender(sender),
		backupcode.WithIssuer(cfg.TOTP.Issuer),
		backupcode.WithLogger(log.With(logger.Component("backupcode"))),
	)
	twoFactor := twofactor.NewService(st.settings, sealer, channel,
		twofactor.WithIssuer(cfg.TOTP.Issuer),
		twofactor.WithLogger(log.With(logger.Component("twofactor"))),
		twofactor.WithAudit(auditLog),
	)
	loginSvc := login.NewService(st.credentials, loginGuard, tokens,
		login.WithTwoFactor(twoFactor, twoFAGuard),
		login.WithBcryptCost(cfg.Credential.BcryptCost),
		login.WithLogger(log.With(logger.Component("login"))),
		login.WithAudit(auditLog),
	)

	apiOpts := []httpapi.Option{
		httpapi.WithLogger(log.With(logger.Component("httpapi"))),
		httpapi.WithTrustProxy(cfg.TrustProxy),
		httpapi.WithRequestTimeout(cfg.RequestTimeout),
	}
	if st.rateLimit != nil {
		bucket, err := ratelimiter.NewBucket(st.rateLimit, cfg.RateLimit)
		if err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}
		apiOpts = append(apiOpts, httpapi.WithRateLimiter(bucket))
	}
	for name, check := range st.checks {
		apiOpts = append(apiOpts, httpapi.WithHealthCheck(name, check))
	}
	router := httpapi.NewRouter(loginSvc, twoFactor, tokens, apiOpts...)

	log.InfoContext(ctx, "starting authd",
		slog.String("store_driver", cfg.StoreDriver),
		slog.String("backup_code_store", cfg.BackupCodeStore),
		slog.String("account_store", cfg.AccountStore),
		slog.String("rate_limit_store", cfg.RateLimitStore),
		slog.String("audit_store", cfg.AuditStore),
	)
	return httpserver.New(cfg.HTTP, httpserver.WithLogger(log)).Run(ctx, router)
}

// newAuditLogger batches events off the request path. The returned func
// flushes what is queued on shutdown.
func newAuditLogger(storage audit.Storage, opts audit.AsyncOptions, log *slog.Logger) (*audit.Logger, func()) {
	auditLog := log.With(logger.Component("audit"))
	writer := audit.NewAsyncWriter(storage, opts, func(err error) {
		auditLog.Error("failed to store audit events", logger.Error(err))
	})
	l := audit.NewLogger(writer,
		audit.WithRequestIDExtractor(requestid.FromContext),
		audit.WithIPExtractor(clientip.FromContext),
	)
	return l, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := writer.Close(ctx); err != nil {
			auditLog.Error("audit events lost on shutdown", logger.Error(err))
		}
	}
}
