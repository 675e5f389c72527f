// Package redis connects to the Redis server backing the lockout and
// backup code stores.
//
// Connect retries the initial ping according to Config, and Healthcheck
// returns a probe suitable for the /healthz endpoint:
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	guardStore := lockout.NewRedisStore(client, lockout.WithRedisPrefix(cfg.Key("lockout:login:")))
//	probe := redis.Healthcheck(client)
//
// Config is populated from the environment with github.com/caarlos0/env
// (REDIS_URL, REDIS_KEY_PREFIX and the retry knobs).
package redis
