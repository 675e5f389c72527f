package lockout

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultRedisPrefix     = "lockout:"
	defaultRedisMaxRetries = 10
)

// RedisStore keeps state as JSON under prefix+key. Updates use
// WATCH/MULTI so concurrent instances never lose a failure.
type RedisStore struct {
	client     redis.UniversalClient
	prefix     string
	ttl        time.Duration
	maxRetries int
}

// RedisStoreOption configures a RedisStore.
type RedisStoreOption func(*RedisStore)

// WithRedisPrefix overrides the "lockout:" key prefix.
func WithRedisPrefix(prefix string) RedisStoreOption {
	return func(s *RedisStore) {
		s.prefix = prefix
	}
}

// WithRedisTTL expires idle records after ttl. Zero disables expiry.
func WithRedisTTL(ttl time.Duration) RedisStoreOption {
	return func(s *RedisStore) {
		s.ttl = ttl
	}
}

// WithRedisMaxRetries bounds optimistic transaction retries.
func WithRedisMaxRetries(n int) RedisStoreOption {
	return func(s *RedisStore) {
		if n > 0 {
			s.maxRetries = n
		}
	}
}

// getter is satisfied by both the client and a watched transaction.
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

// NewRedisStore creates a store backed by client.
func NewRedisStore(client redis.UniversalClient, opts ...RedisStoreOption) *RedisStore {
	s := &RedisStore{
		client:     client,
		prefix:     defaultRedisPrefix,
		maxRetries: defaultRedisMaxRetries,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) Get(ctx context.Context, key string) (State, error) {
	return s.load(ctx, s.client, s.prefix+key)
}

func (s *RedisStore) Update(ctx context.Context, key string, fn func(*State) error) (State, error) {
	k := s.prefix + key

	var (
		result State
		fnErr  error
	)
	txf := func(tx *redis.Tx) error {
		st, err := s.load(ctx, tx, k)
		if err != nil {
			return err
		}
		if err := fn(&st); err != nil {
			fnErr = err
			return err
		}
		data, err := json.Marshal(st)
		if err != nil {
			return err
		}
		// A lock must outlive the idle TTL
		ttl := s.ttl
		if ttl > 0 && !st.LockedUntil.IsZero() {
			ttl = max(ttl, time.Until(st.LockedUntil)+s.ttl)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, k, data, ttl)
			return nil
		})
		if err == nil {
			result = st
		}
		return err
	}

	for range s.maxRetries {
		err := s.client.Watch(ctx, txf, k)
		switch {
		case err == nil:
			return result, nil
		case fnErr != nil:
			return State{}, fnErr
		case errors.Is(err, redis.TxFailedErr):
			continue
		default:
			return State{}, errors.Join(ErrStoreUnavailable, err)
		}
	}

	return State{}, ErrConflict
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}

func (s *RedisStore) load(ctx context.Context, c getter, key string) (State, error) {
	data, err := c.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return State{}, nil
	}
	if err != nil {
		return State{}, errors.Join(ErrStoreUnavailable, err)
	}

	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return State{}, errors.Join(ErrStoreUnavailable, err)
	}
	return st, nil
}
