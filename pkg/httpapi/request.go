package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dmitrymomot/authguard/pkg/validator"
)

const maxBodyBytes = 64 << 10

// decodeJSON reads a single JSON object, rejecting unknown fields and
// oversized bodies, then validates it.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{ validate() error }) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Join(ErrBadRequest, err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return ErrBadRequest
	}
	return v.validate()
}

type loginRequest struct {
	Account  string `json:"account"`
	Password string `json:"password"`
}

func (r *loginRequest) validate() error {
	return validator.Apply(
		validator.Required("account", r.Account),
		validator.MaxLen("account", r.Account, 254),
		validator.Required("password", r.Password),
		validator.MaxLen("password", r.Password, 1024),
	)
}

type verifyRequest struct {
	PendingToken string `json:"pending_token"`
	Code         string `json:"code"`
}

func (r *verifyRequest) validate() error {
	return validator.Apply(
		validator.Required("pending_token", r.PendingToken),
		validator.Required("code", r.Code),
		validator.MaxLen("code", r.Code, 16),
	)
}

type pendingRequest struct {
	PendingToken string `json:"pending_token"`
}

func (r *pendingRequest) validate() error {
	return validator.Apply(validator.Required("pending_token", r.PendingToken))
}

type confirmRequest struct {
	Secret      string `json:"secret"`
	Code        string `json:"code"`
	BackupEmail string `json:"backup_email"`
}

func (r *confirmRequest) validate() error {
	return validator.Apply(
		validator.Required("secret", r.Secret),
		validator.NumericCode("code", r.Code, 6, 6),
		validator.ValidEmail("backup_email", r.BackupEmail),
		validator.MaxLen("backup_email", r.BackupEmail, 254),
	)
}
