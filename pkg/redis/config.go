package redis

import "time"

// Config describes the Redis connection shared by the lockout and backup
// code stores.
type Config struct {
	ConnectionURL  string        `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"` // redis://:password@host:6379/0
	KeyPrefix      string        `env:"REDIS_KEY_PREFIX" envDefault:"authguard:"`        // Prepended to every key written by the stores
	RetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"5s"`
	ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"30s"`
}

// Key joins the configured prefix with name.
func (c Config) Key(name string) string {
	return c.KeyPrefix + name
}
