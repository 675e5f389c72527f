package lockout_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authguard/pkg/lockout"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newGuard(t *testing.T, cfg lockout.Config) (*lockout.Guard, *fakeClock) {
	t.Helper()
	store := lockout.NewMemoryStore()
	t.Cleanup(store.Close)

	clock := newFakeClock()
	guard, err := lockout.NewGuard(store, cfg, lockout.WithClock(clock.Now))
	require.NoError(t, err)
	return guard, clock
}

func failN(t *testing.T, guard *lockout.Guard, key string, n int) lockout.Status {
	t.Helper()
	var (
		status lockout.Status
		err    error
	)
	for range n {
		status, err = guard.RecordFailure(context.Background(), key)
		require.NoError(t, err)
	}
	return status
}

func TestNewGuard_InvalidConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		config lockout.Config
	}{
		{"zero attempts", lockout.Config{MaxAttempts: 0, BaseDuration: time.Minute, MaxMultiplier: 1}},
		{"zero duration", lockout.Config{MaxAttempts: 5, BaseDuration: 0, MaxMultiplier: 1}},
		{"zero multiplier", lockout.Config{MaxAttempts: 5, BaseDuration: time.Minute, MaxMultiplier: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := lockout.NewGuard(lockout.NewMemoryStore(), tt.config)
			assert.ErrorIs(t, err, lockout.ErrInvalidConfig)
		})
	}
}

func TestGuard_LocksAfterMaxAttempts(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	guard, _ := newGuard(t, lockout.DefaultConfig())
	key := "alice@example.com"

	status := failN(t, guard, key, 4)
	assert.False(t, status.Locked)
	assert.Equal(t, 4, status.Attempts)
	assert.Equal(t, 1, status.AttemptsLeft)

	status, err := guard.RecordFailure(ctx, key)
	require.NoError(t, err)
	assert.True(t, status.Locked)
	assert.Equal(t, 15*time.Minute, status.Remaining)
	assert.Equal(t, 900, status.RemainingSeconds())
	assert.Equal(t, 0, status.Attempts)
	assert.Equal(t, 2, status.Multiplier)

	status, err = guard.Allow(ctx, key)
	assert.ErrorIs(t, err, lockout.ErrLocked)
	assert.True(t, status.Locked)
	assert.Equal(t, 900, status.RemainingSeconds())
}

func TestGuard_FailureWhileLockedIsIgnored(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	guard, clock := newGuard(t, lockout.DefaultConfig())
	key := "bob@example.com"

	failN(t, guard, key, 5)
	clock.Advance(5 * time.Minute)

	status, err := guard.RecordFailure(ctx, key)
	require.NoError(t, err)
	assert.True(t, status.Locked)
	assert.Equal(t, 10*time.Minute, status.Remaining)
	assert.Equal(t, 2, status.Multiplier)
	assert.Equal(t, 0, status.Attempts)
}

func TestGuard_EscalatesLockoutDuration(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	guard, clock := newGuard(t, lockout.DefaultConfig())
	key := "carol@example.com"

	status := failN(t, guard, key, 5)
	require.True(t, status.Locked)
	assert.Equal(t, 15*time.Minute, status.Remaining)

	clock.Advance(15*time.Minute + time.Second)

	status, err := guard.Check(ctx, key)
	require.NoError(t, err)
	assert.False(t, status.Locked)
	assert.Equal(t, 0, status.Attempts)
	assert.Equal(t, 5, status.AttemptsLeft)
	assert.Equal(t, 2, status.Multiplier, "multiplier survives lockout expiry")

	status = failN(t, guard, key, 5)
	assert.True(t, status.Locked)
	assert.Equal(t, 30*time.Minute, status.Remaining)
	assert.Equal(t, 1800, status.RemainingSeconds())
	assert.Equal(t, 4, status.Multiplier)
}

func TestGuard_MultiplierIsCapped(t *testing.T) {
	t.Parallel()
	cfg := lockout.Config{MaxAttempts: 1, BaseDuration: time.Minute, MaxMultiplier: 4}
	guard, clock := newGuard(t, cfg)
	key := "dave@example.com"

	want := []time.Duration{time.Minute, 2 * time.Minute, 4 * time.Minute, 4 * time.Minute, 4 * time.Minute}
	for i, d := range want {
		status := failN(t, guard, key, 1)
		require.True(t, status.Locked, "lockout %d", i)
		assert.Equal(t, d, status.Remaining, "lockout %d", i)
		assert.LessOrEqual(t, status.Multiplier, 4)
		clock.Advance(d)
	}
}

func TestGuard_SuccessResetsEverything(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	guard, clock := newGuard(t, lockout.DefaultConfig())
	key := "erin@example.com"

	failN(t, guard, key, 5)
	clock.Advance(16 * time.Minute)
	failN(t, guard, key, 2)

	status, err := guard.Record(ctx, key, true)
	require.NoError(t, err)
	assert.False(t, status.Locked)
	assert.Equal(t, 0, status.Attempts)
	assert.Equal(t, 5, status.AttemptsLeft)
	assert.Equal(t, 1, status.Multiplier)

	// Back to the base duration
	status = failN(t, guard, key, 5)
	assert.Equal(t, 15*time.Minute, status.Remaining)
}

func TestGuard_KeysAreIndependent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	guard, _ := newGuard(t, lockout.DefaultConfig())

	failN(t, guard, "locked@example.com", 5)

	status, err := guard.Allow(ctx, "other@example.com")
	require.NoError(t, err)
	assert.False(t, status.Locked)
	assert.Equal(t, 5, status.AttemptsLeft)
}

func TestGuard_EmptyKey(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	guard, _ := newGuard(t, lockout.DefaultConfig())

	_, err := guard.Check(ctx, "  ")
	assert.ErrorIs(t, err, lockout.ErrEmptyKey)
	_, err = guard.RecordFailure(ctx, "")
	assert.ErrorIs(t, err, lockout.ErrEmptyKey)
	_, err = guard.Reserve(ctx, "")
	assert.ErrorIs(t, err, lockout.ErrEmptyKey)
	assert.ErrorIs(t, guard.Reset(ctx, ""), lockout.ErrEmptyKey)
}

func TestGuard_ConcurrentFailuresAreAllCounted(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	guard, _ := newGuard(t, lockout.Config{MaxAttempts: 1000, BaseDuration: time.Minute, MaxMultiplier: 2})
	key := "race@example.com"

	var wg sync.WaitGroup
	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := guard.RecordFailure(ctx, key)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	status, err := guard.Check(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, 100, status.Attempts)
	assert.Equal(t, 900, status.AttemptsLeft)
}

func TestGuard_Reserve(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	guard, clock := newGuard(t, lockout.DefaultConfig())
	key := "owner@example.com"

	for i := range 4 {
		status, err := guard.Reserve(ctx, key)
		require.NoError(t, err)
		assert.False(t, status.Locked)
		assert.Equal(t, 4-i, status.AttemptsLeft)
	}

	// The fifth admission is the last one and arms the lockout up front
	status, err := guard.Reserve(ctx, key)
	require.NoError(t, err)
	assert.True(t, status.Locked)
	assert.Equal(t, 900, status.RemainingSeconds())

	status, err = guard.Reserve(ctx, key)
	assert.ErrorIs(t, err, lockout.ErrLocked)
	assert.True(t, status.Locked)
	assert.Equal(t, 900, status.RemainingSeconds())

	clock.Advance(10 * time.Minute)
	status, err = guard.Reserve(ctx, key)
	assert.ErrorIs(t, err, lockout.ErrLocked)
	assert.Equal(t, 300, status.RemainingSeconds())

	clock.Advance(5 * time.Minute)
	status, err = guard.Reserve(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, 4, status.AttemptsLeft)
	assert.Equal(t, 2, status.Multiplier)
}

func TestGuard_ReserveThenSuccessClearsLockout(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	guard, _ := newGuard(t, lockout.DefaultConfig())
	key := "owner@example.com"

	failN(t, guard, key, 4)
	status, err := guard.Reserve(ctx, key)
	require.NoError(t, err)
	require.True(t, status.Locked)

	_, err = guard.RecordSuccess(ctx, key)
	require.NoError(t, err)

	status, err = guard.Allow(ctx, key)
	require.NoError(t, err)
	assert.False(t, status.Locked)
	assert.Equal(t, 5, status.AttemptsLeft)
	assert.Equal(t, 1, status.Multiplier)
}

func TestGuard_ConcurrentReserveAdmitsAtMostMaxAttempts(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		maxAttempts int
		callers     int
	}{
		{name: "burst larger than limit", maxAttempts: 5, callers: 50},
		{name: "burst equal to limit", maxAttempts: 5, callers: 5},
		{name: "single attempt limit", maxAttempts: 1, callers: 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			guard, _ := newGuard(t, lockout.Config{
				MaxAttempts:   tt.maxAttempts,
				BaseDuration:  time.Minute,
				MaxMultiplier: 64,
			})

			var (
				wg       sync.WaitGroup
				mu       sync.Mutex
				admitted int
				rejected int
			)
			start := make(chan struct{})
			for range tt.callers {
				wg.Add(1)
				go func() {
					defer wg.Done()
					<-start
					_, err := guard.Reserve(ctx, "race@example.com")
					mu.Lock()
					defer mu.Unlock()
					if err == nil {
						admitted++
						return
					}
					assert.ErrorIs(t, err, lockout.ErrLocked)
					rejected++
				}()
			}
			close(start)
			wg.Wait()

			assert.Equal(t, tt.maxAttempts, admitted)
			assert.Equal(t, tt.callers-tt.maxAttempts, rejected)

			status, err := guard.Check(ctx, "race@example.com")
			require.NoError(t, err)
			assert.True(t, status.Locked)
		})
	}
}

func TestStatus_RemainingSeconds(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 0, lockout.Status{}.RemainingSeconds())
	assert.Equal(t, 1, lockout.Status{Remaining: time.Millisecond}.RemainingSeconds())
	assert.Equal(t, 60, lockout.Status{Remaining: time.Minute}.RemainingSeconds())
	assert.Equal(t, 61, lockout.Status{Remaining: time.Minute + 10*time.Millisecond}.RemainingSeconds())
}
