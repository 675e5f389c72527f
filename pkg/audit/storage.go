package audit

import (
	"context"
	"log/slog"
	"slices"
	"sync"
)

// SlogStorage writes each event as a log record. Used when no database is
// configured.
type SlogStorage struct {
	log *slog.Logger
}

func NewSlogStorage(log *slog.Logger) *SlogStorage {
	return &SlogStorage{log: log}
}

func (s *SlogStorage) StoreBatch(ctx context.Context, events []Event) error {
	for _, e := range events {
		attrs := []slog.Attr{
			slog.String("event_id", e.ID),
			slog.String("action", string(e.Action)),
			slog.String("result", string(e.Result)),
			slog.String("account_id", e.AccountID),
			slog.Time("created_at", e.CreatedAt),
		}
		if e.RequestID != "" {
			attrs = append(attrs, slog.String("request_id", e.RequestID))
		}
		if e.IP != "" {
			attrs = append(attrs, slog.String("remote_ip", e.IP))
		}
		if e.UserAgent != "" {
			attrs = append(attrs, slog.String("user_agent", e.UserAgent))
		}
		if e.Error != "" {
			attrs = append(attrs, slog.String("error", e.Error))
		}
		if len(e.Metadata) > 0 {
			meta := make([]any, 0, len(e.Metadata))
			for k, v := range e.Metadata {
				meta = append(meta, slog.Any(k, v))
			}
			attrs = append(attrs, slog.Group("metadata", meta...))
		}
		s.log.LogAttrs(ctx, slog.LevelInfo, "audit", attrs...)
	}
	return nil
}

// MemoryStorage keeps events in process, mostly for tests.
type MemoryStorage struct {
	mu     sync.Mutex
	events []Event
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

func (s *MemoryStorage) StoreBatch(_ context.Context, events []Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, events...)
	return nil
}

// Events returns a copy of everything stored so far.
func (s *MemoryStorage) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.events)
}

// Actions lists stored actions for account in order.
func (s *MemoryStorage) Actions(account string) []Action {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Action
	for _, e := range s.events {
		if e.AccountID == account {
			out = append(out, e.Action)
		}
	}
	return out
}
