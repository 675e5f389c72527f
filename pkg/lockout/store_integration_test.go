package lockout_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authguard/pkg/lockout"
)

// testStoreContract runs the behaviour every Store must share.
func testStoreContract(t *testing.T, store lockout.Store, key string) {
	t.Helper()
	ctx := context.Background()
	t.Cleanup(func() { _ = store.Delete(ctx, key) })

	st, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.Zero(t, st.Attempts)

	lockedUntil := time.Now().Add(time.Hour).UTC().Truncate(time.Millisecond)
	st, err = store.Update(ctx, key, func(s *lockout.State) error {
		s.Attempts = 0
		s.LockedUntil = lockedUntil
		s.Multiplier = 4
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 4, st.Multiplier)

	st, err = store.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, 4, st.Multiplier)
	assert.WithinDuration(t, lockedUntil, st.LockedUntil, time.Millisecond)

	require.NoError(t, store.Delete(ctx, key))

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Update(ctx, key, func(s *lockout.State) error {
				s.Attempts++
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	st, err = store.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, 20, st.Attempts)

	require.NoError(t, store.Delete(ctx, key))
	guard, err := lockout.NewGuard(store, lockout.Config{MaxAttempts: 5, BaseDuration: time.Minute, MaxMultiplier: 64})
	require.NoError(t, err)

	var (
		mu       sync.Mutex
		admitted int
	)
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := guard.Reserve(ctx, key)
			if err != nil {
				assert.ErrorIs(t, err, lockout.ErrLocked)
				return
			}
			mu.Lock()
			admitted++
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, 5, admitted)
}

func TestRedisStore(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}
	opts, err := goredis.ParseURL(url)
	require.NoError(t, err)
	client := goredis.NewClient(opts)
	t.Cleanup(func() { _ = client.Close() })

	store := lockout.NewRedisStore(client, lockout.WithRedisPrefix("test:lockout:"), lockout.WithRedisMaxRetries(100))
	testStoreContract(t, store, "redis-contract")
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("TEST_PG_CONN_URL")
	if dsn == "" {
		t.Skip("TEST_PG_CONN_URL not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS lockout_contract_test (
		account_key TEXT PRIMARY KEY,
		attempts INTEGER NOT NULL DEFAULT 0,
		locked_until TIMESTAMPTZ,
		multiplier INTEGER NOT NULL DEFAULT 1,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`)
	require.NoError(t, err)
	t.Cleanup(func() { _, _ = pool.Exec(ctx, `DROP TABLE IF EXISTS lockout_contract_test`) })

	testStoreContract(t, lockout.NewPostgresStore(pool, "lockout_contract_test"), "pg-contract")
}
