package backupcode

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/dmitrymomot/authguard/pkg/email"
	"github.com/dmitrymomot/authguard/pkg/email/templates"
	"github.com/dmitrymomot/authguard/pkg/logger"
)

// Channel issues and verifies out-of-band backup codes. Each account has at
// most one outstanding code; issuing a new one replaces the previous.
type Channel struct {
	store   Store
	sender  email.EmailSender
	ttl     time.Duration
	subject string
	issuer  string
	now     func() time.Time
	log     *slog.Logger
}

// Option configures a Channel.
type Option func(*Channel)

// WithConfig applies TTL and subject from cfg. Zero fields keep the defaults.
func WithConfig(cfg Config) Option {
	return func(c *Channel) {
		if cfg.TTL > 0 {
			c.ttl = cfg.TTL
		}
		if cfg.Subject != "" {
			c.subject = cfg.Subject
		}
	}
}

// WithSender enables Send.
func WithSender(sender email.EmailSender) Option {
	return func(c *Channel) { c.sender = sender }
}

// WithIssuer sets the name shown in the email.
func WithIssuer(issuer string) Option {
	return func(c *Channel) { c.issuer = issuer }
}

func WithClock(now func() time.Time) Option {
	return func(c *Channel) {
		if now != nil {
			c.now = now
		}
	}
}

func WithLogger(log *slog.Logger) Option {
	return func(c *Channel) {
		if log != nil {
			c.log = log
		}
	}
}

func NewChannel(store Store, opts ...Option) *Channel {
	c := &Channel{
		store:   store,
		ttl:     DefaultTTL,
		subject: "Your sign-in code",
		issuer:  "Admin",
		now:     time.Now,
		log:     logger.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TTL returns the lifetime of issued codes.
func (c *Channel) TTL() time.Duration {
	return c.ttl
}

// Generate issues a new code for account, replacing any outstanding one.
func (c *Channel) Generate(ctx context.Context, account string) (Code, error) {
	if strings.TrimSpace(account) == "" {
		return Code{}, ErrEmptyAccount
	}

	value, err := newCodeValue()
	if err != nil {
		return Code{}, err
	}

	code := Code{Value: value, ExpiresAt: c.now().Add(c.ttl)}
	if err := c.store.Save(ctx, account, Record{Hash: HashCode(value), ExpiresAt: code.ExpiresAt}, c.ttl); err != nil {
		return Code{}, err
	}
	return code, nil
}

// Verify checks code against the outstanding one. A match consumes it. An
// expired code is discarded. A mismatch leaves the code in place.
func (c *Channel) Verify(ctx context.Context, account, code string) (bool, error) {
	if strings.TrimSpace(account) == "" {
		return false, ErrEmptyAccount
	}

	code = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, code)

	now := c.now()
	var valid bool
	_, err := c.store.Consume(ctx, account, func(rec Record) bool {
		valid = false
		if rec.Expired(now) {
			return true
		}
		valid = MatchHash(code, rec.Hash)
		return valid
	})
	if err != nil {
		return false, err
	}
	return valid, nil
}

// Remaining returns how long the outstanding code stays valid, zero if none.
func (c *Channel) Remaining(ctx context.Context, account string) (time.Duration, error) {
	rec, ok, err := c.store.Get(ctx, account)
	if err != nil || !ok {
		return 0, err
	}
	return max(rec.ExpiresAt.Sub(c.now()), 0), nil
}

// Send issues a code and emails it to recipient. When delivery fails the code
// is discarded and ErrDeliveryFailed is returned.
func (c *Channel) Send(ctx context.Context, account, recipient string) (Code, error) {
	if c.sender == nil {
		return Code{}, ErrSenderNotConfigured
	}
	if !email.IsValidAddress(recipient) {
		return Code{}, ErrInvalidRecipient
	}

	code, err := c.Generate(ctx, account)
	if err != nil {
		return Code{}, err
	}

	body, err := templates.Render(ctx, templates.BackupCode(templates.BackupCodeData{
		Issuer:        c.issuer,
		Code:          code.Value,
		ExpiryMinutes: int(c.ttl / time.Minute),
	}))
	if err != nil {
		c.discard(ctx, account)
		return Code{}, errors.Join(ErrFailedToRenderMessage, err)
	}

	if err := c.sender.SendEmail(ctx, email.SendEmailParams{
		SendTo:   recipient,
		Subject:  c.subject,
		BodyHTML: body,
		Tag:      "backup-code",
	}); err != nil {
		c.log.ErrorContext(ctx, "backup code delivery failed",
			logger.AccountID(account),
			logger.Error(err),
		)
		c.discard(ctx, account)
		return Code{}, errors.Join(ErrDeliveryFailed, err)
	}

	c.log.InfoContext(ctx, "backup code sent", logger.AccountID(account))
	return code, nil
}

func (c *Channel) discard(ctx context.Context, account string) {
	if err := c.store.Delete(ctx, account); err != nil {
		c.log.ErrorContext(ctx, "failed to discard backup code",
			logger.AccountID(account),
			logger.Error(err),
		)
	}
}
