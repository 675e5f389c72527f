package main

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/authguard/pkg/audit"
	"github.com/dmitrymomot/authguard/pkg/backupcode"
	"github.com/dmitrymomot/authguard/pkg/config"
	"github.com/dmitrymomot/authguard/pkg/credential"
	"github.com/dmitrymomot/authguard/pkg/httpapi"
	"github.com/dmitrymomot/authguard/pkg/lockout"
	"github.com/dmitrymomot/authguard/pkg/logger"
	"github.com/dmitrymomot/authguard/pkg/pg"
	"github.com/dmitrymomot/authguard/pkg/ratelimiter"
	"github.com/dmitrymomot/authguard/pkg/redis"
	"github.com/dmitrymomot/authguard/pkg/twofactor"
)

type stores struct {
	loginAttempts lockout.Store
	twoFAAttempts lockout.Store
	backupCodes   backupcode.Store
	settings      twofactor.Store
	credentials   credential.Store
	rateLimit     ratelimiter.Store // nil when disabled
	audit         audit.Storage     // nil when disabled

	checks  map[string]httpapi.HealthCheck
	closers []func()
}

func (s *stores) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// openStores connects only the backends the configuration asks for.
func openStores(ctx context.Context, cfg appConfig, log *slog.Logger) (*stores, error) {
	s := &stores{checks: map[string]httpapi.HealthCheck{}}

	var (
		redisClient *goredis.Client
		redisCfg    redis.Config
		pool        *pgxpool.Pool
	)

	if cfg.needsRedis() {
		if err := config.Load(&redisCfg); err != nil {
			return nil, err
		}
		client, err := redis.Connect(ctx, redisCfg)
		if err != nil {
			return nil, err
		}
		redisClient = client
		s.closers = append(s.closers, func() { _ = client.Close() })
		s.checks["redis"] = redis.Healthcheck(client)
		log.InfoContext(ctx, "connected to redis", logger.Component("redis"))
	}

	if cfg.needsPostgres() {
		var pgCfg pg.Config
		if err := config.Load(&pgCfg); err != nil {
			s.Close()
			return nil, err
		}
		p, err := pg.Connect(ctx, pgCfg)
		if err != nil {
			s.Close()
			return nil, err
		}
		pool = p
		s.closers = append(s.closers, p.Close)
		if err := pg.Migrate(ctx, p, pgCfg, log.With(logger.Component("migrations"))); err != nil {
			s.Close()
			return nil, err
		}
		s.checks["postgres"] = pg.Healthcheck(p)
		log.InfoContext(ctx, "connected to postgres", logger.Component("postgres"))
	}

	switch cfg.StoreDriver {
	case driverRedis:
		s.loginAttempts = lockout.NewRedisStore(redisClient,
			lockout.WithRedisPrefix(redisCfg.Key("lockout:login:")),
			lockout.WithRedisTTL(cfg.StateRetention),
		)
		s.twoFAAttempts = lockout.NewRedisStore(redisClient,
			lockout.WithRedisPrefix(redisCfg.Key("lockout:2fa:")),
			lockout.WithRedisTTL(cfg.StateRetention),
		)
	case driverPostgres:
		s.loginAttempts = lockout.NewPostgresStore(pool, "login_attempts")
		s.twoFAAttempts = lockout.NewPostgresStore(pool, "twofa_attempts")
	default:
		loginMem := lockout.NewMemoryStore(lockout.WithRetention(cfg.StateRetention))
		twoFAMem := lockout.NewMemoryStore(lockout.WithRetention(cfg.StateRetention))
		s.closers = append(s.closers, loginMem.Close, twoFAMem.Close)
		s.loginAttempts, s.twoFAAttempts = loginMem, twoFAMem
	}

	if cfg.BackupCodeStore == driverRedis {
		s.backupCodes = backupcode.NewRedisStore(redisClient, redisCfg.Key("backupcode:"))
	} else {
		s.backupCodes = backupcode.NewMemoryStore()
	}

	switch cfg.RateLimitStore {
	case driverRedis:
		s.rateLimit = ratelimiter.NewRedisStore(redisClient, redisCfg.Key("ratelimit:"))
	case driverMemory:
		mem := ratelimiter.NewMemoryStore()
		s.closers = append(s.closers, mem.Close)
		s.rateLimit = mem
	}

	switch cfg.AuditStore {
	case driverPostgres:
		s.audit = audit.NewPostgresStorage(pool)
	case driverLog:
		s.audit = audit.NewSlogStorage(log.With(logger.Component("audit")))
	}

	if cfg.AccountStore == driverPostgres {
		s.settings = twofactor.NewPostgresStore(pool)
		s.credentials = credential.NewPostgresStore(pool)
	} else {
		s.settings = twofactor.NewMemoryStore()
		s.credentials = credential.NewMemoryStore()
	}

	return s, nil
}

// seedAdmin stores the bootstrap credential unless the account already has
// one, so a rotated or upgraded hash is never overwritten on restart.
func seedAdmin(ctx context.Context, cfg appConfig, creds credential.Store, log *slog.Logger) error {
	if cfg.AdminAccount == "" {
		return nil
	}

	_, err := creds.GetCredential(ctx, cfg.AdminAccount)
	switch {
	case err == nil:
		return nil
	case !errors.Is(err, credential.ErrNotFound):
		return err
	}

	cred, err := credential.Parse(cfg.AdminPasswordHash)
	if err != nil {
		return err
	}
	if err := creds.SaveCredential(ctx, cfg.AdminAccount, cred); err != nil {
		return err
	}
	log.InfoContext(ctx, "seeded admin credential",
		logger.AccountID(cfg.AdminAccount),
		slog.String("kind", string(cred.Kind())),
	)
	return nil
}
