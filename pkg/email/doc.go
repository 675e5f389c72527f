// Package email delivers transactional mail through a provider-agnostic
// EmailSender.
//
// Two senders are available: a Postmark client for production and DevSender,
// which writes each message to disk as HTML plus JSON metadata. NewSender
// picks Postmark when POSTMARK_SERVER_TOKEN is set and DevSender otherwise.
//
//	sender, err := email.NewSender(cfg)
//	if err != nil {
//		return err
//	}
//
//	html, err := templates.Render(ctx, templates.BackupCode(templates.BackupCodeData{
//		Issuer:        "Admin",
//		Code:          "123456",
//		ExpiryMinutes: 5,
//	}))
//	if err != nil {
//		return err
//	}
//
//	err = sender.SendEmail(ctx, email.SendEmailParams{
//		SendTo:   "owner@example.com",
//		Subject:  "Your sign-in code",
//		BodyHTML: html,
//		Tag:      "backup-code",
//	})
//
// Parameters are validated before any provider call; failures wrap
// ErrInvalidParams. Provider failures wrap ErrFailedToSendEmail and invalid
// configuration wraps ErrInvalidConfig.
package email
