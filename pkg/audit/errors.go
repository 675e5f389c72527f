package audit

import "errors"

var (
	ErrMissingAction      = errors.New("audit event action is required")
	ErrMissingAccount     = errors.New("audit event account is required")
	ErrStorageUnavailable = errors.New("audit storage is unavailable")
	ErrWriterClosed       = errors.New("audit writer is closed")
)
