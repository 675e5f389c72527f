// Package config loads typed configuration from environment variables.
//
// It wraps github.com/joho/godotenv and github.com/caarlos0/env/v11: an
// optional .env file is read once, then any struct annotated with env tags is
// parsed and cached by type. Every authguard package exposes its own Config
// struct (lockout.Config, totp.Config, redis.Config and so on) and the daemon
// loads each of them through Load.
//
//	if err := config.LoadEnv(".env.local"); err != nil {
//		return err
//	}
//	var cfg lockout.Config
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
//
// Use ResetCache in tests that change the environment between loads.
package config
