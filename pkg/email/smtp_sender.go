package email

import (
	"context"
	"errors"
	"fmt"

	"gopkg.in/gomail.v2"
)

// SMTPSender delivers through any SMTP relay. STARTTLS is used when the
// server offers it.
type SMTPSender struct {
	dialer  *gomail.Dialer
	from    string
	replyTo string
}

func NewSMTPSender(cfg Config) (*SMTPSender, error) {
	if cfg.SMTPHost == "" {
		return nil, fmt.Errorf("%w: SMTPHost is required", ErrInvalidConfig)
	}
	if cfg.SMTPPort <= 0 {
		return nil, fmt.Errorf("%w: SMTPPort must be positive", ErrInvalidConfig)
	}
	if !IsValidAddress(cfg.SenderEmail) {
		return nil, fmt.Errorf("%w: SenderEmail must be a valid email address", ErrInvalidConfig)
	}
	return &SMTPSender{
		dialer:  gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword),
		from:    cfg.SenderEmail,
		replyTo: cfg.SupportEmail,
	}, nil
}

// SendEmail opens one connection per message. gomail has no context support,
// so ctx is only checked before dialing.
func (s *SMTPSender) SendEmail(ctx context.Context, params SendEmailParams) error {
	if err := params.Validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return errors.Join(ErrFailedToSendEmail, err)
	}

	if err := s.dialer.DialAndSend(s.message(params)); err != nil {
		return errors.Join(ErrFailedToSendEmail, err)
	}
	return nil
}

func (s *SMTPSender) message(params SendEmailParams) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", params.SendTo)
	m.SetHeader("Subject", params.Subject)
	if s.replyTo != "" {
		m.SetHeader("Reply-To", s.replyTo)
	}
	if params.Tag != "" {
		m.SetHeader("X-Tag", params.Tag)
	}
	m.SetBody("text/html", params.BodyHTML)
	return m
}
