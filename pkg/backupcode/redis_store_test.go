package backupcode_test

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authguard/pkg/backupcode"
)

func TestRedisStore(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}
	opts, err := goredis.ParseURL(url)
	require.NoError(t, err)
	client := goredis.NewClient(opts)
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	store := backupcode.NewRedisStore(client, "test:backupcode:")
	ch := backupcode.NewChannel(store)
	t.Cleanup(func() { _ = store.Delete(ctx, "redis-owner") })

	code, err := ch.Generate(ctx, "redis-owner")
	require.NoError(t, err)

	ttl, err := client.PTTL(ctx, "test:backupcode:redis-owner").Result()
	require.NoError(t, err)
	assert.Positive(t, ttl)

	var accepted atomic.Int32
	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := ch.Verify(ctx, "redis-owner", code.Value)
			assert.NoError(t, err)
			if ok {
				accepted.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), accepted.Load())
}
