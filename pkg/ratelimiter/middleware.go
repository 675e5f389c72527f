package ratelimiter

import (
	"net/http"
	"strconv"
	"time"
)

// KeyFunc picks the bucket for a request. An empty key skips limiting.
type KeyFunc func(r *http.Request) string

// Middleware refuses requests over the limit with onLimited, or a bare 429
// when onLimited is nil. Store errors let the request through.
func Middleware(bucket *Bucket, keyFunc KeyFunc, onLimited http.HandlerFunc) func(http.Handler) http.Handler {
	if onLimited == nil {
		onLimited = func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := keyFunc(r)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			res, err := bucket.Allow(r.Context(), key)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(max(res.Remaining, 0)))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))

			if !res.Allowed() {
				retry := int((res.RetryAfter(time.Now()) + time.Second - 1) / time.Second)
				h.Set("Retry-After", strconv.Itoa(max(retry, 1)))
				onLimited(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
