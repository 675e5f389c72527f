package email

// Config selects and configures the sender. A Postmark server token wins over
// SMTP; with neither NewSender falls back to DevSender writing into DevOutputDir.
type Config struct {
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	SenderEmail          string `env:"SENDER_EMAIL" envDefault:"noreply@localhost.dev"`
	SupportEmail         string `env:"SUPPORT_EMAIL"`
	DevOutputDir         string `env:"EMAIL_DEV_DIR" envDefault:"tmp/emails"`

	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUsername string `env:"SMTP_USERNAME"`
	SMTPPassword string `env:"SMTP_PASSWORD"`
}
