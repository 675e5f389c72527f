package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/dmitrymomot/authguard/pkg/audit"
	"github.com/dmitrymomot/authguard/pkg/backupcode"
	"github.com/dmitrymomot/authguard/pkg/config"
	"github.com/dmitrymomot/authguard/pkg/credential"
	"github.com/dmitrymomot/authguard/pkg/email"
	"github.com/dmitrymomot/authguard/pkg/httpserver"
	"github.com/dmitrymomot/authguard/pkg/lockout"
	"github.com/dmitrymomot/authguard/pkg/logger"
	"github.com/dmitrymomot/authguard/pkg/ratelimiter"
	"github.com/dmitrymomot/authguard/pkg/session"
	"github.com/dmitrymomot/authguard/pkg/totp"
)

const (
	driverMemory   = "memory"
	driverRedis    = "redis"
	driverPostgres = "postgres"
	driverOff      = "off"
	driverLog      = "log"
)

type appConfig struct {
	AppEnv      string `env:"APP_ENV" envDefault:"development"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"authd"`

	// StoreDriver holds lockout counters: memory, redis or postgres.
	// The memory defaults below are for development only; state is lost on
	// restart and production refuses to start with them.
	StoreDriver string `env:"STORE_DRIVER" envDefault:"memory"`
	// BackupCodeStore holds outstanding backup codes: memory or redis.
	BackupCodeStore string `env:"BACKUP_CODE_STORE" envDefault:"memory"`
	// AccountStore holds credentials and two-factor settings: memory or postgres.
	AccountStore string `env:"ACCOUNT_STORE" envDefault:"memory"`
	// RateLimitStore holds per-IP request buckets: memory, redis or off.
	RateLimitStore string `env:"RATE_LIMIT_STORE" envDefault:"memory"`
	// AuditStore receives security events: log, postgres or off.
	AuditStore string `env:"AUDIT_STORE" envDefault:"log"`
	// StateRetention drops idle, unlocked lockout records. Zero keeps them
	// until the next successful sign-in.
	StateRetention time.Duration `env:"LOCKOUT_STATE_RETENTION" envDefault:"0"`

	TrustProxy     bool          `env:"HTTP_TRUST_PROXY" envDefault:"false"`
	RequestTimeout time.Duration `env:"HTTP_REQUEST_TIMEOUT" envDefault:"30s"`

	// Seeds a credential for the bootstrap account. Accepts a bcrypt hash or
	// a 64-character SHA-256 hex digest.
	AdminAccount      string `env:"ADMIN_ACCOUNT"`
	AdminPasswordHash string `env:"ADMIN_PASSWORD_HASH"`

	Login      lockout.Config     `envPrefix:"LOGIN_"`
	TwoFactor  lockout.Config     `envPrefix:"TWOFA_"`
	RateLimit  ratelimiter.Config `envPrefix:"RATE_LIMIT_"`
	Audit      audit.AsyncOptions `envPrefix:"AUDIT_"`
	HTTP       httpserver.Config
	Session    session.Config
	TOTP       totp.Config
	Email      email.Config
	BackupCode backupcode.Config
	Credential credential.Config
}

func (c appConfig) validate() error {
	switch c.StoreDriver {
	case driverMemory, driverRedis, driverPostgres:
	default:
		return fmt.Errorf("unsupported STORE_DRIVER %q", c.StoreDriver)
	}
	switch c.BackupCodeStore {
	case driverMemory, driverRedis:
	default:
		return fmt.Errorf("unsupported BACKUP_CODE_STORE %q", c.BackupCodeStore)
	}
	switch c.RateLimitStore {
	case driverMemory, driverRedis, driverOff:
	default:
		return fmt.Errorf("unsupported RATE_LIMIT_STORE %q", c.RateLimitStore)
	}
	switch c.AuditStore {
	case driverLog, driverPostgres, driverOff:
	default:
		return fmt.Errorf("unsupported AUDIT_STORE %q", c.AuditStore)
	}
	switch c.AccountStore {
	case driverMemory, driverPostgres:
	default:
		return fmt.Errorf("unsupported ACCOUNT_STORE %q", c.AccountStore)
	}
	if (c.AdminAccount == "") != (c.AdminPasswordHash == "") {
		return fmt.Errorf("ADMIN_ACCOUNT and ADMIN_PASSWORD_HASH must be set together")
	}
	if c.AppEnv == logger.EnvProduction {
		for _, s := range []struct{ name, driver string }{
			{"STORE_DRIVER", c.StoreDriver},
			{"BACKUP_CODE_STORE", c.BackupCodeStore},
			{"ACCOUNT_STORE", c.AccountStore},
		} {
			if s.driver == driverMemory {
				return fmt.Errorf("%s=memory loses state on restart, use redis or postgres in production", s.name)
			}
		}
	}
	return nil
}

// loadConfig reads envFiles into the environment, then parses and validates
// the daemon configuration.
func loadConfig(envFiles []string) (appConfig, error) {
	if err := config.LoadEnv(envFiles...); err != nil {
		return appConfig{}, err
	}
	var cfg appConfig
	if err := config.Load(&cfg); err != nil {
		return appConfig{}, err
	}
	if err := cfg.validate(); err != nil {
		return appConfig{}, err
	}
	return cfg, nil
}

func envFileList(s string) []string {
	var files []string
	for f := range strings.SplitSeq(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			files = append(files, f)
		}
	}
	return files
}

func (c appConfig) needsRedis() bool {
	return c.StoreDriver == driverRedis || c.BackupCodeStore == driverRedis || c.RateLimitStore == driverRedis
}

func (c appConfig) needsPostgres() bool {
	return c.StoreDriver == driverPostgres || c.AccountStore == driverPostgres || c.AuditStore == driverPostgres
}
