package twofactor

import (
	"strings"
	"time"
)

// Record is the persisted form. SealedSecret holds the AES-GCM sealed Base32
// secret and is never returned to callers.
type Record struct {
	AccountID    string
	Enabled      bool
	SealedSecret string
	BackupEmail  string
	UpdatedAt    time.Time
}

// Settings is the caller-facing view of an account's two-factor setup.
type Settings struct {
	AccountID   string    `json:"account_id"`
	Enabled     bool      `json:"enabled"`
	BackupEmail string    `json:"-"`
	UpdatedAt   time.Time `json:"updated_at,omitzero"`
}

// EmailBackupConfigured reports whether backup codes can be emailed.
func (s Settings) EmailBackupConfigured() bool {
	return s.Enabled && s.BackupEmail != ""
}

// MaskedBackupEmail returns the backup address in display form.
func (s Settings) MaskedBackupEmail() string {
	if s.BackupEmail == "" {
		return ""
	}
	return MaskEmail(s.BackupEmail)
}

func (r Record) settings() Settings {
	return Settings{
		AccountID:   r.AccountID,
		Enabled:     r.Enabled,
		BackupEmail: r.BackupEmail,
		UpdatedAt:   r.UpdatedAt,
	}
}

// MaskEmail keeps the first character of the local part and the domain:
// "jane@example.com" becomes "j***@example.com". At most five stars are used.
func MaskEmail(email string) string {
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" {
		return "***@" + domain
	}

	first := string([]rune(local)[0])
	n := len([]rune(local))
	if n <= 2 {
		return first + "***@" + domain
	}
	return first + strings.Repeat("*", min(n-1, 5)) + "@" + domain
}
