package backupcode

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultRedisPrefix = "backupcode:"
	redisMaxRetries    = 10
)

// RedisStore keeps one JSON record per account with a PX expiry matching the
// code lifetime. Consume runs inside WATCH/MULTI so a code is accepted once.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore creates a store; an empty prefix means "backupcode:".
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) Save(ctx context.Context, account string, rec Record, ttl time.Duration) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	if err := s.client.Set(ctx, s.prefix+account, data, ttl).Err(); err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, account string) (Record, bool, error) {
	return load(ctx, s.client, s.prefix+account)
}

func (s *RedisStore) Consume(ctx context.Context, account string, fn func(Record) bool) (bool, error) {
	key := s.prefix + account
	var found bool

	txf := func(tx *redis.Tx) error {
		rec, ok, err := load(ctx, tx, key)
		if err != nil {
			return err
		}
		found = ok
		if !ok || !fn(rec) {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			return nil
		})
		return err
	}

	for range redisMaxRetries {
		err := s.client.Watch(ctx, txf, key)
		if err == nil {
			return found, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return false, errors.Join(ErrStoreUnavailable, err)
	}
	return false, errors.Join(ErrStoreUnavailable, redis.TxFailedErr)
}

func (s *RedisStore) Delete(ctx context.Context, account string) error {
	if err := s.client.Del(ctx, s.prefix+account).Err(); err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func load(ctx context.Context, c getter, key string) (Record, bool, error) {
	data, err := c.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, errors.Join(ErrStoreUnavailable, err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, false, errors.Join(ErrStoreUnavailable, err)
	}
	return rec, true, nil
}
