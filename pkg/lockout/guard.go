package lockout

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/dmitrymomot/authguard/pkg/logger"
)

// Guard counts failed attempts per account and imposes exponentially
// growing lockouts. The first lockout lasts BaseDuration; each one after it
// doubles until MaxMultiplier is reached. Only a success clears the record.
type Guard struct {
	store  Store
	config Config
	now    func() time.Time
	log    *slog.Logger
}

// Option configures a Guard.
type Option func(*Guard)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(g *Guard) {
		if now != nil {
			g.now = now
		}
	}
}

// WithLogger sets the logger used for lockout events.
func WithLogger(log *slog.Logger) Option {
	return func(g *Guard) {
		if log != nil {
			g.log = log
		}
	}
}

// NewGuard creates a guard over store.
func NewGuard(store Store, config Config, opts ...Option) (*Guard, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}

	g := &Guard{
		store:  store,
		config: config,
		now:    time.Now,
		log:    logger.Discard(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Config returns the thresholds the guard was built with.
func (g *Guard) Config() Config {
	return g.config
}

// Check reports the account's status without changing it.
func (g *Guard) Check(ctx context.Context, key string) (Status, error) {
	key, err := normalizeKey(key)
	if err != nil {
		return Status{}, err
	}

	st, err := g.store.Get(ctx, key)
	if err != nil {
		return Status{}, err
	}
	return g.status(st, g.now()), nil
}

// Allow returns ErrLocked together with the status while a lockout is in force.
func (g *Guard) Allow(ctx context.Context, key string) (Status, error) {
	status, err := g.Check(ctx, key)
	if err != nil {
		return Status{}, err
	}
	if status.Locked {
		return status, ErrLocked
	}
	return status, nil
}

// Record registers the outcome of an attempt. A success deletes the record
// and resets the multiplier. A failure while locked changes nothing.
func (g *Guard) Record(ctx context.Context, key string, success bool) (Status, error) {
	if success {
		return g.RecordSuccess(ctx, key)
	}
	return g.RecordFailure(ctx, key)
}

// RecordSuccess clears all state for key.
func (g *Guard) RecordSuccess(ctx context.Context, key string) (Status, error) {
	key, err := normalizeKey(key)
	if err != nil {
		return Status{}, err
	}
	if err := g.store.Delete(ctx, key); err != nil {
		return Status{}, err
	}
	return g.status(State{}, g.now()), nil
}

// RecordFailure counts one failure and imposes a lockout once MaxAttempts is
// reached. The counter restarts from zero after each lockout.
func (g *Guard) RecordFailure(ctx context.Context, key string) (Status, error) {
	key, err := normalizeKey(key)
	if err != nil {
		return Status{}, err
	}

	now := g.now()
	var imposed time.Duration
	st, err := g.store.Update(ctx, key, func(st *State) error {
		imposed = 0
		if st.IsLocked(now) {
			return nil
		}
		imposed = g.countFailure(st, now)
		return nil
	})
	if err != nil {
		return Status{}, err
	}

	g.logImposed(ctx, key, imposed, st)
	return g.status(st, now), nil
}

// Reserve admits one attempt for key and counts it as a failure before the
// caller verifies anything, in the same atomic step as the lock check. While
// locked it returns ErrLocked and writes nothing. Otherwise the returned
// Status is the account's state should this attempt fail: Locked is set when
// it was the last attempt allowed. A verified attempt must be followed by
// RecordSuccess, a failed one needs no further call. Logging the lockout is
// left to the caller since only it knows whether the attempt failed.
//
// Concurrent callers therefore get at most MaxAttempts admissions per
// lockout window no matter how their verifications interleave.
func (g *Guard) Reserve(ctx context.Context, key string) (Status, error) {
	key, err := normalizeKey(key)
	if err != nil {
		return Status{}, err
	}

	now := g.now()
	var (
		imposed time.Duration
		current State
	)
	st, err := g.store.Update(ctx, key, func(st *State) error {
		imposed = 0
		if st.IsLocked(now) {
			current = *st
			return ErrLocked
		}
		imposed = g.countFailure(st, now)
		return nil
	})
	if errors.Is(err, ErrLocked) {
		return g.status(current, now), ErrLocked
	}
	if err != nil {
		return Status{}, err
	}

	if imposed > 0 {
		g.log.DebugContext(ctx, "last attempt admitted, lockout armed",
			logger.AccountID(key),
			logger.LockedFor(imposed),
		)
	}
	return g.status(st, now), nil
}

// countFailure increments the counter on an unlocked record and returns the
// lockout it imposed, if any.
func (g *Guard) countFailure(st *State, now time.Time) time.Duration {
	mult := st.multiplier()
	st.Attempts++
	if st.Attempts >= g.config.MaxAttempts {
		imposed := g.config.BaseDuration * time.Duration(mult)
		st.LockedUntil = now.Add(imposed)
		st.Multiplier = min(mult*2, g.config.MaxMultiplier)
		st.Attempts = 0
		return imposed
	}
	st.Multiplier = mult
	return 0
}

func (g *Guard) logImposed(ctx context.Context, key string, imposed time.Duration, st State) {
	if imposed <= 0 {
		return
	}
	g.log.WarnContext(ctx, "account locked out",
		logger.AccountID(key),
		logger.LockedFor(imposed),
		slog.Int("next_multiplier", st.Multiplier),
	)
}

// Reset removes the record for key. Same as RecordSuccess, named for
// administrative unlocks.
func (g *Guard) Reset(ctx context.Context, key string) error {
	_, err := g.RecordSuccess(ctx, key)
	return err
}

func (g *Guard) status(st State, now time.Time) Status {
	s := Status{
		Attempts:   st.Attempts,
		Multiplier: st.multiplier(),
	}
	if st.IsLocked(now) {
		s.Locked = true
		s.Remaining = st.LockedUntil.Sub(now)
		return s
	}
	s.AttemptsLeft = max(g.config.MaxAttempts-st.Attempts, 0)
	return s
}

func normalizeKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", ErrEmptyKey
	}
	return key, nil
}
