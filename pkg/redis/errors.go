package redis

import "errors"

var (
	ErrEmptyConnectionURL = errors.New("redis: REDIS_URL is empty")
	ErrInvalidURL         = errors.New("redis: invalid connection URL")
	ErrNotReady           = errors.New("redis: server did not answer in time")
	ErrPingFailed         = errors.New("redis: ping failed")
)
