package email

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// EmailSender delivers a single transactional email.
type EmailSender interface {
	SendEmail(ctx context.Context, params SendEmailParams) error
}

type SendEmailParams struct {
	SendTo   string `json:"send_to"`       // Email address of the recipient
	Subject  string `json:"subject"`       // Subject of the email
	BodyHTML string `json:"body_html"`     // HTML body of the email
	Tag      string `json:"tag,omitempty"` // Optional
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// IsValidAddress reports whether s looks like a deliverable address.
func IsValidAddress(s string) bool {
	return emailRegex.MatchString(strings.TrimSpace(s))
}

// Validate checks required fields before anything reaches a provider.
func (p SendEmailParams) Validate() error {
	if strings.TrimSpace(p.SendTo) == "" {
		return fmt.Errorf("%w: SendTo is required", ErrInvalidParams)
	}
	if !IsValidAddress(p.SendTo) {
		return fmt.Errorf("%w: SendTo must be a valid email address", ErrInvalidParams)
	}
	if strings.TrimSpace(p.Subject) == "" {
		return fmt.Errorf("%w: Subject is required", ErrInvalidParams)
	}
	if strings.TrimSpace(p.BodyHTML) == "" {
		return fmt.Errorf("%w: BodyHTML is required", ErrInvalidParams)
	}
	return nil
}

// NewSender picks Postmark, then SMTP, then DevSender, depending on which
// credentials are configured.
func NewSender(cfg Config) (EmailSender, error) {
	switch {
	case cfg.PostmarkServerToken != "":
		return NewPostmarkClient(cfg)
	case cfg.SMTPHost != "":
		return NewSMTPSender(cfg)
	default:
		return NewDevSender(cfg.DevOutputDir), nil
	}
}
