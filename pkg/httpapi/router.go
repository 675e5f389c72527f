package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/authguard/pkg/audit"
	"github.com/dmitrymomot/authguard/pkg/clientip"
	"github.com/dmitrymomot/authguard/pkg/logger"
	"github.com/dmitrymomot/authguard/pkg/login"
	"github.com/dmitrymomot/authguard/pkg/ratelimiter"
	"github.com/dmitrymomot/authguard/pkg/requestid"
	"github.com/dmitrymomot/authguard/pkg/session"
	"github.com/dmitrymomot/authguard/pkg/twofactor"
)

// HealthCheck reports whether a dependency is usable.
type HealthCheck func(context.Context) error

type handler struct {
	login     *login.Service
	twoFactor *twofactor.Service
	tokens    *session.Issuer

	log        *slog.Logger
	checks     map[string]HealthCheck
	trustProxy bool
	timeout    time.Duration
	now        func() time.Time
	limiter    *ratelimiter.Bucket
}

type Option func(*handler)

func WithLogger(log *slog.Logger) Option {
	return func(h *handler) {
		if log != nil {
			h.log = log
		}
	}
}

// WithHealthCheck registers a named probe for GET /healthz.
func WithHealthCheck(name string, check HealthCheck) Option {
	return func(h *handler) {
		if check != nil {
			h.checks[name] = check
		}
	}
}

// WithTrustProxy honors X-Forwarded-For and friends when resolving client IPs.
func WithTrustProxy(trust bool) Option {
	return func(h *handler) { h.trustProxy = trust }
}

// WithRequestTimeout bounds each request; zero disables the limit. The
// failure delay counts against it.
func WithRequestTimeout(d time.Duration) Option {
	return func(h *handler) { h.timeout = d }
}

// WithRateLimiter throttles the unauthenticated sign-in routes per client IP.
func WithRateLimiter(bucket *ratelimiter.Bucket) Option {
	return func(h *handler) { h.limiter = bucket }
}

func WithClock(now func() time.Time) Option {
	return func(h *handler) {
		if now != nil {
			h.now = now
		}
	}
}

// NewRouter mounts the sign-in and two-factor endpoints.
func NewRouter(loginSvc *login.Service, twoFactor *twofactor.Service, tokens *session.Issuer, opts ...Option) http.Handler {
	h := &handler{
		login:     loginSvc,
		twoFactor: twoFactor,
		tokens:    tokens,
		log:       logger.Discard(),
		checks:    map[string]HealthCheck{},
		timeout:   30 * time.Second,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}

	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Use(clientip.Middleware(h.trustProxy))
	r.Use(audit.Middleware)
	r.Use(h.logRequests)
	r.Use(chimw.Recoverer)
	if h.timeout > 0 {
		r.Use(chimw.Timeout(h.timeout))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		h.respondError(w, r, ErrNotFound, nil)
	})

	r.Get("/healthz", h.health)

	r.Group(func(r chi.Router) {
		if h.limiter != nil {
			r.Use(ratelimiter.Middleware(h.limiter, clientKey, func(w http.ResponseWriter, r *http.Request) {
				h.respondError(w, r, ErrRateLimited, nil)
			}))
		}
		r.Post("/login", h.attemptLogin)
		r.Post("/login/2fa", h.verifyTwoFactor)
		r.Post("/2fa/backup", h.sendBackupCode)
	})
	r.Get("/2fa/remaining", h.remaining)

	r.Group(func(r chi.Router) {
		r.Use(session.Middleware(tokens, func(w http.ResponseWriter, r *http.Request, err error) {
			h.respondError(w, r, ErrUnauthorized, nil)
		}))
		r.Post("/session/refresh", h.refreshSession)
		r.Get("/2fa", h.settings)
		r.Post("/2fa/setup", h.beginSetup)
		r.Post("/2fa/confirm", h.confirmSetup)
		r.Delete("/2fa", h.disable)
	})

	return r
}

func clientKey(r *http.Request) string {
	return clientip.FromContext(r.Context())
}

// logRequests writes one record per request after the response is sent.
func (h *handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		h.log.InfoContext(r.Context(), "request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Duration("duration", time.Since(start)),
		)
	})
}
