package backupcode

import "time"

// DefaultTTL is how long an issued code stays valid.
const DefaultTTL = 5 * time.Minute

type Config struct {
	TTL     time.Duration `env:"BACKUP_CODE_TTL" envDefault:"5m"`
	Subject string        `env:"BACKUP_CODE_SUBJECT" envDefault:"Your sign-in code"`
}
