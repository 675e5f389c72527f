package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Storage persists audit events. Implementations must store the whole batch
// or nothing.
type Storage interface {
	StoreBatch(ctx context.Context, events []Event) error
}

// Logger stamps events with an ID, the time and request metadata before
// handing them to storage.
type Logger struct {
	storage   Storage
	requestID Extractor
	ip        Extractor
	userAgent Extractor
	now       func() time.Time
}

type Option func(*Logger)

func WithRequestIDExtractor(fn Extractor) Option {
	return func(l *Logger) { l.requestID = fn }
}

func WithIPExtractor(fn Extractor) Option {
	return func(l *Logger) { l.ip = fn }
}

// WithUserAgentExtractor overrides UserAgentFromContext.
func WithUserAgentExtractor(fn Extractor) Option {
	return func(l *Logger) { l.userAgent = fn }
}

func WithClock(now func() time.Time) Option {
	return func(l *Logger) {
		if now != nil {
			l.now = now
		}
	}
}

func NewLogger(storage Storage, opts ...Option) *Logger {
	if storage == nil {
		panic("audit: storage cannot be nil")
	}
	l := &Logger{
		storage:   storage,
		userAgent: UserAgentFromContext,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Log records a successful action for account unless an option says otherwise.
func (l *Logger) Log(ctx context.Context, action Action, account string, opts ...EventOption) error {
	event := Event{
		ID:        uuid.NewString(),
		AccountID: account,
		Action:    action,
		Result:    ResultSuccess,
		CreatedAt: l.now().UTC(),
	}
	if l.requestID != nil {
		event.RequestID = l.requestID(ctx)
	}
	if l.ip != nil {
		event.IP = l.ip(ctx)
	}
	if l.userAgent != nil {
		event.UserAgent = l.userAgent(ctx)
	}
	for _, opt := range opts {
		opt(&event)
	}
	if err := event.Validate(); err != nil {
		return err
	}
	return l.storage.StoreBatch(ctx, []Event{event})
}

// Failure records a rejected action.
func (l *Logger) Failure(ctx context.Context, action Action, account string, opts ...EventOption) error {
	return l.Log(ctx, action, account, append([]EventOption{WithResult(ResultFailure)}, opts...)...)
}
