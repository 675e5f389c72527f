// Package ratelimiter implements token bucket rate limiting with in-memory
// and Redis backed stores, plus HTTP middleware.
//
// Each key owns a bucket holding up to Capacity tokens. Every request takes
// one token and RefillRate tokens come back every RefillInterval. Requests
// that find the bucket empty are refused without consuming anything.
//
//	bucket, err := ratelimiter.NewBucket(ratelimiter.NewMemoryStore(), ratelimiter.Config{
//		Capacity:       10,
//		RefillRate:     1,
//		RefillInterval: time.Minute,
//	})
//	r.With(ratelimiter.Middleware(bucket, byIP, nil)).Post("/login", login)
//
// Middleware sets X-RateLimit-Limit, X-RateLimit-Remaining and X-RateLimit-Reset
// on every limited route and Retry-After on refused requests.
package ratelimiter
