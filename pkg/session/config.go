package session

import "time"

type Config struct {
	SigningKey string        `env:"SESSION_SIGNING_KEY,required"`
	TTL        time.Duration `env:"SESSION_TTL" envDefault:"4h"`
	PendingTTL time.Duration `env:"SESSION_PENDING_TTL" envDefault:"5m"`
	Issuer     string        `env:"SESSION_ISSUER" envDefault:"authguard"`
}
