package audit

import "time"

// Action names a security-relevant event.
type Action string

const (
	ActionLoginSucceeded     Action = "login.succeeded"
	ActionLoginFailed        Action = "login.failed"
	ActionLoginLocked        Action = "login.locked"
	ActionChallengeIssued    Action = "twofactor.challenge_issued"
	ActionTwoFactorSucceeded Action = "twofactor.succeeded"
	ActionTwoFactorFailed    Action = "twofactor.failed"
	ActionTwoFactorLocked    Action = "twofactor.locked"
	ActionBackupCodeSent     Action = "backup_code.sent"
	ActionTwoFactorEnabled   Action = "twofactor.enabled"
	ActionTwoFactorDisabled  Action = "twofactor.disabled"
	ActionCredentialUpgraded Action = "credential.upgraded"
)

// Result represents the outcome of an audited action
type Result string

const (
	ResultSuccess Result = "success"
	ResultFailure Result = "failure"
	ResultError   Result = "error"
)

// Event is a single audit log entry.
type Event struct {
	ID        string         `json:"id"`
	AccountID string         `json:"account_id"`
	Action    Action         `json:"action"`
	Result    Result         `json:"result"`
	Error     string         `json:"error,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
	IP        string         `json:"ip,omitempty"`
	UserAgent string         `json:"user_agent,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// Validate checks if the event has all required fields
func (e Event) Validate() error {
	if e.Action == "" {
		return ErrMissingAction
	}
	if e.AccountID == "" {
		return ErrMissingAccount
	}
	return nil
}

// EventOption adjusts an event before it is stored.
type EventOption func(*Event)

// WithMetadata adds metadata to the event
func WithMetadata(key string, value any) EventOption {
	return func(e *Event) {
		if e.Metadata == nil {
			e.Metadata = make(map[string]any)
		}
		e.Metadata[key] = value
	}
}

// WithResult sets the event result
func WithResult(result Result) EventOption {
	return func(e *Event) { e.Result = result }
}

// WithError marks the event as errored.
func WithError(err error) EventOption {
	return func(e *Event) {
		if err != nil {
			e.Result = ResultError
			e.Error = err.Error()
		}
	}
}
