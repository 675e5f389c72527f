package ratelimiter

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// consumeScript refills and consumes atomically inside Redis.
// KEYS[1] bucket hash; ARGV: capacity, refill rate, interval ms, now ms, n, ttl ms.
// Returns {remaining, reset_at_ms}.
var consumeScript = redis.NewScript(`
local capacity = tonumber(ARGV[1])
local rate = tonumber(ARGV[2])
local interval = tonumber(ARGV[3])
local now = tonumber(ARGV[4])
local n = tonumber(ARGV[5])
local ttl = tonumber(ARGV[6])

local state = redis.call("HMGET", KEYS[1], "tokens", "last")
local tokens = tonumber(state[1])
local last = tonumber(state[2])
if tokens == nil or last == nil then
	tokens = capacity
	last = now
end

if now > last then
	local intervals = math.floor((now - last) / interval)
	if intervals > 0 then
		intervals = math.min(intervals, math.floor(capacity / rate) + 1)
		tokens = math.min(tokens + intervals * rate, capacity)
		last = last + intervals * interval
	end
end

local remaining
if tokens < n then
	remaining = tokens - n
else
	tokens = tokens - n
	remaining = tokens
end

redis.call("HSET", KEYS[1], "tokens", tokens, "last", last)
redis.call("PEXPIRE", KEYS[1], ttl)
return {remaining, last + interval}
`)

// RedisStore shares buckets between instances.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

// NewRedisStore namespaces keys with prefix, "ratelimit:" when empty.
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "ratelimit:"
	}
	return &RedisStore{client: client, prefix: prefix, now: time.Now}
}

func (s *RedisStore) ConsumeTokens(ctx context.Context, key string, n int, cfg Config) (int, time.Time, error) {
	// Keep idle buckets around until they would be full again
	ttl := time.Duration(cfg.Capacity/cfg.RefillRate+1) * cfg.RefillInterval

	res, err := consumeScript.Run(ctx, s.client, []string{s.prefix + key},
		cfg.Capacity,
		cfg.RefillRate,
		cfg.RefillInterval.Milliseconds(),
		s.now().UnixMilli(),
		n,
		ttl.Milliseconds(),
	).Int64Slice()
	if err != nil {
		return 0, time.Time{}, errors.Join(ErrStoreUnavailable, err)
	}
	if len(res) != 2 {
		return 0, time.Time{}, ErrStoreUnavailable
	}
	return int(res[0]), time.UnixMilli(res[1]), nil
}

func (s *RedisStore) Reset(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}
