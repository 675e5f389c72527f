package httpapi

import (
	"net/http"
	"time"

	"github.com/dmitrymomot/authguard/pkg/session"
	"github.com/dmitrymomot/authguard/pkg/totp"
)

type settingsResponse struct {
	Enabled     bool      `json:"enabled"`
	BackupEmail string    `json:"backup_email,omitempty"` // masked
	UpdatedAt   time.Time `json:"updated_at,omitzero"`
}

type remainingResponse struct {
	TOTPSeconds       int `json:"totp_seconds"`
	BackupCodeSeconds int `json:"backup_code_seconds"`
}

func (h *handler) settings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.twoFactor.Settings(r.Context(), session.Subject(r.Context()))
	if err != nil {
		h.respondError(w, r, err, nil)
		return
	}
	respond(w, http.StatusOK, settingsResponse{
		Enabled:     settings.Enabled,
		BackupEmail: settings.MaskedBackupEmail(),
		UpdatedAt:   settings.UpdatedAt,
	})
}

func (h *handler) beginSetup(w http.ResponseWriter, r *http.Request) {
	enrollment, err := h.twoFactor.BeginSetup(r.Context(), session.Subject(r.Context()))
	if err != nil {
		h.respondError(w, r, err, nil)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	respond(w, http.StatusOK, enrollment)
}

func (h *handler) confirmSetup(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.respondError(w, r, err, nil)
		return
	}

	account := session.Subject(r.Context())
	if err := h.twoFactor.ConfirmSetup(r.Context(), account, req.Secret, req.Code, req.BackupEmail); err != nil {
		h.respondError(w, r, err, nil)
		return
	}
	h.settings(w, r)
}

func (h *handler) disable(w http.ResponseWriter, r *http.Request) {
	if err := h.twoFactor.Disable(r.Context(), session.Subject(r.Context())); err != nil {
		h.respondError(w, r, err, nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// remaining serves countdowns for the sign-in page, so it accepts either a
// pending sign-in token or a session token.
func (h *handler) remaining(w http.ResponseWriter, r *http.Request) {
	token, err := session.BearerToken(r)
	if err != nil {
		h.respondError(w, r, ErrUnauthorized, nil)
		return
	}
	claims, err := h.tokens.Parse(token, session.PurposeTwoFactor)
	if err != nil {
		if claims, err = h.tokens.Parse(token, session.PurposeSession); err != nil {
			h.respondError(w, r, ErrUnauthorized, nil)
			return
		}
	}

	left, err := h.twoFactor.BackupCodeRemaining(r.Context(), claims.Subject)
	if err != nil {
		h.respondError(w, r, err, nil)
		return
	}
	respond(w, http.StatusOK, remainingResponse{
		TOTPSeconds:       totp.RemainingSeconds(h.now()),
		BackupCodeSeconds: int((left + time.Second - 1) / time.Second),
	})
}
