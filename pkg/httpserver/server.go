package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrymomot/authguard/pkg/logger"
)

// Server runs an http.Server until the context is canceled or the process
// receives SIGINT/SIGTERM, then drains in-flight requests.
type Server struct {
	cfg      Config
	log      *slog.Logger
	listener net.Listener

	mu   sync.Mutex
	srv  *http.Server
	once sync.Once
}

type Option func(*Server)

func WithLogger(log *slog.Logger) Option {
	return func(s *Server) {
		if log != nil {
			s.log = log
		}
	}
}

// WithListener serves on an already bound listener; Config.Addr is ignored.
func WithListener(l net.Listener) Option {
	return func(s *Server) { s.listener = l }
}

// New applies defaults to zero fields of cfg.
func New(cfg Config, opts ...Option) *Server {
	def := DefaultConfig()
	if cfg.Addr == "" {
		cfg.Addr = def.Addr
	}
	if cfg.ReadHeaderTimeout <= 0 {
		cfg.ReadHeaderTimeout = def.ReadHeaderTimeout
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = def.ShutdownTimeout
	}

	s := &Server{cfg: cfg, log: logger.Discard()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run serves handler and blocks until shutdown. Listen failures are wrapped
// with ErrStart.
func (s *Server) Run(ctx context.Context, handler http.Handler) error {
	if handler == nil {
		handler = http.NotFoundHandler()
	}

	s.mu.Lock()
	if s.srv != nil {
		s.mu.Unlock()
		return errors.Join(ErrStart, ErrAlreadyRunning)
	}
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: s.cfg.ReadHeaderTimeout,
		ReadTimeout:       s.cfg.ReadTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
		IdleTimeout:       s.cfg.IdleTimeout,
		ErrorLog:          slog.NewLogLogger(s.log.Handler(), slog.LevelWarn),
	}
	s.srv = srv
	s.mu.Unlock()

	ln := s.listener
	if ln == nil {
		var err error
		if ln, err = net.Listen("tcp", s.cfg.Addr); err != nil {
			return errors.Join(ErrStart, err)
		}
	}

	s.log.InfoContext(ctx, "http server listening",
		logger.Component("httpserver"),
		slog.String("addr", ln.Addr().String()),
	)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)

	var runErr error
	select {
	case <-ctx.Done():
		runErr = s.shutdownAndWait(errCh)
	case sig := <-stop:
		s.log.InfoContext(ctx, "shutdown signal received", slog.String("signal", sig.String()))
		runErr = s.shutdownAndWait(errCh)
	case runErr = <-errCh:
	}

	if runErr != nil && !errors.Is(runErr, http.ErrServerClosed) {
		return errors.Join(ErrStart, runErr)
	}
	s.log.InfoContext(ctx, "http server stopped", logger.Component("httpserver"))
	return nil
}

func (s *Server) shutdownAndWait(errCh <-chan error) error {
	if err := s.Shutdown(context.Background()); err != nil {
		s.log.Error("graceful shutdown failed", logger.Error(err))
	}
	return <-errCh
}

// Shutdown drains the server within Config.ShutdownTimeout. Repeated calls
// are no-ops; errors are wrapped with ErrShutdown.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.once.Do(func() {
		s.mu.Lock()
		srv := s.srv
		s.mu.Unlock()
		if srv == nil {
			return
		}

		ctx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
		defer cancel()
		if shutdownErr := srv.Shutdown(ctx); shutdownErr != nil {
			err = errors.Join(ErrShutdown, shutdownErr)
		}
	})
	return err
}

// ShutdownTimeout reports the configured drain deadline.
func (s *Server) ShutdownTimeout() time.Duration {
	return s.cfg.ShutdownTimeout
}
