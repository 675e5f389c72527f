package lockout

import (
	"fmt"
	"time"
)

// Defaults used when a Config field is zero.
const (
	DefaultMaxAttempts   = 5
	DefaultBaseDuration  = 15 * time.Minute
	DefaultMaxMultiplier = 64
)

// State is the persisted per-account record.
// The zero value is an account with no failures on record.
type State struct {
	Attempts    int       `json:"attempts"`
	LockedUntil time.Time `json:"locked_until,omitzero"`
	Multiplier  int       `json:"multiplier"`
}

// IsLocked reports whether the lockout is still in force at now.
func (s State) IsLocked(now time.Time) bool {
	return !s.LockedUntil.IsZero() && now.Before(s.LockedUntil)
}

// multiplier treats the zero value as the initial factor of one.
func (s State) multiplier() int {
	if s.Multiplier < 1 {
		return 1
	}
	return s.Multiplier
}

// Status describes an account from the caller's point of view.
type Status struct {
	Locked       bool          // A lockout is in force
	Remaining    time.Duration // Time until the lockout ends, zero when not locked
	Attempts     int           // Failures counted toward the next lockout
	AttemptsLeft int           // Failures allowed before the next lockout
	Multiplier   int           // Factor applied to the next lockout
}

// RemainingSeconds rounds Remaining up to whole seconds.
func (s Status) RemainingSeconds() int {
	if s.Remaining <= 0 {
		return 0
	}
	return int((s.Remaining + time.Second - 1) / time.Second)
}

// Config defines thresholds and lockout lengths. Field tags are unprefixed
// so the same struct can be embedded with envPrefix for the password and the
// second-factor stage.
type Config struct {
	MaxAttempts   int           `env:"MAX_ATTEMPTS" envDefault:"5"`        // Failures that trigger a lockout
	BaseDuration  time.Duration `env:"LOCKOUT_DURATION" envDefault:"15m"` // First lockout length
	MaxMultiplier int           `env:"MAX_MULTIPLIER" envDefault:"64"`    // Cap for the doubling factor
}

// DefaultConfig returns five attempts, fifteen minutes, doubling up to 64x.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:   DefaultMaxAttempts,
		BaseDuration:  DefaultBaseDuration,
		MaxMultiplier: DefaultMaxMultiplier,
	}
}

func (c Config) validate() error {
	if c.MaxAttempts <= 0 {
		return fmt.Errorf("%w: max attempts must be positive, got %d", ErrInvalidConfig, c.MaxAttempts)
	}
	if c.BaseDuration <= 0 {
		return fmt.Errorf("%w: lockout duration must be positive, got %v", ErrInvalidConfig, c.BaseDuration)
	}
	if c.MaxMultiplier < 1 {
		return fmt.Errorf("%w: max multiplier must be at least 1, got %d", ErrInvalidConfig, c.MaxMultiplier)
	}
	return nil
}
