package totp

import (
	"github.com/dmitrymomot/authguard/pkg/config"
)

// Config holds TOTP settings loaded from the environment.
type Config struct {
	EncryptionKey string `env:"TOTP_ENCRYPTION_KEY,required"`                 // Base64 encoded 32-byte key sealing stored secrets
	Issuer        string `env:"TOTP_ISSUER" envDefault:"JevanGoldsmith Admin"` // Issuer shown in authenticator apps
}

// LoadConfig reads Config from the environment once per process.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := config.Load(&cfg); err != nil {
		return Config{}, err
	}
	if cfg.EncryptionKey == "" {
		return Config{}, ErrEncryptionKeyNotSet
	}
	return cfg, nil
}
