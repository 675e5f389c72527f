package config

import (
	"errors"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// cache keeps one parsed copy per configuration type.
type cache struct {
	mu     sync.Mutex
	values map[reflect.Type]any
}

var (
	globalCache = &cache{values: make(map[reflect.Type]any)}

	defaultEnvLoaded sync.Once
)

// Load parses environment variables into v. The default .env file is read on
// first use if present. Each configuration type is parsed once per process and
// later calls are served from the cache, so services may call Load freely from
// their constructors.
//
// Example:
//
//	type GuardConfig struct {
//		MaxAttempts int           `env:"LOGIN_MAX_ATTEMPTS" envDefault:"5"`
//		Lockout     time.Duration `env:"LOGIN_LOCKOUT_DURATION" envDefault:"15m"`
//	}
//
//	var cfg GuardConfig
//	if err := config.Load(&cfg); err != nil {
//		// handle error
//	}
func Load[T any](v *T) error {
	defaultEnvLoaded.Do(func() {
		// The file is optional
		_ = godotenv.Load()
	})
	if v == nil {
		return ErrNilPointer
	}

	key := reflect.TypeFor[T]()

	globalCache.mu.Lock()
	defer globalCache.mu.Unlock()

	if cached, ok := globalCache.values[key]; ok {
		*v = cached.(T)
		return nil
	}

	var parsed T
	if err := env.Parse(&parsed); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}
	globalCache.values[key] = parsed
	*v = parsed

	return nil
}

// LoadEnv reads the given .env files into the process environment without
// overriding variables that are already set. Earlier files win.
func LoadEnv(paths ...string) error {
	if len(paths) == 0 {
		return nil
	}
	if err := godotenv.Load(paths...); err != nil {
		return errors.Join(ErrLoadingEnvFile, err)
	}
	return nil
}

// ResetCache drops every cached configuration. Intended for tests.
func ResetCache() {
	globalCache.mu.Lock()
	defer globalCache.mu.Unlock()
	clear(globalCache.values)
}
