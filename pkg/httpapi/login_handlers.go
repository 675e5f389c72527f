package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/dmitrymomot/authguard/pkg/login"
	"github.com/dmitrymomot/authguard/pkg/session"
	"github.com/dmitrymomot/authguard/pkg/twofactor"
)

type loginResponse struct {
	TwoFactorRequired bool      `json:"two_factor_required"`
	PendingToken      string    `json:"pending_token,omitempty"`
	SessionToken      string    `json:"session_token,omitempty"`
	ExpiresAt         time.Time `json:"expires_at"`
}

type sessionResponse struct {
	SessionToken string           `json:"session_token"`
	ExpiresAt    time.Time        `json:"expires_at"`
	Method       twofactor.Method `json:"method,omitempty"`
}

type backupCodeResponse struct {
	MaskedEmail string    `json:"masked_email"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func (h *handler) attemptLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.respondError(w, r, err, nil)
		return
	}

	out, err := h.login.AttemptLogin(r.Context(), req.Account, req.Password)
	switch {
	case errors.Is(err, login.ErrLocked):
		h.respondLocked(w, r, err, out.RemainingLockoutSeconds)
		return
	case errors.Is(err, login.ErrInvalidCredentials):
		h.respondError(w, r, err, map[string]any{"remaining_attempts": out.RemainingAttempts})
		return
	case err != nil:
		h.respondError(w, r, err, nil)
		return
	}

	respond(w, http.StatusOK, loginResponse{
		TwoFactorRequired: out.TwoFactorRequired,
		PendingToken:      out.PendingToken,
		SessionToken:      out.SessionToken,
		ExpiresAt:         out.ExpiresAt,
	})
}

func (h *handler) verifyTwoFactor(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.respondError(w, r, err, nil)
		return
	}

	out, err := h.login.VerifyTwoFactor(r.Context(), req.PendingToken, req.Code)
	switch {
	case errors.Is(err, login.ErrLocked):
		h.respondLocked(w, r, err, out.RemainingLockoutSeconds)
		return
	case errors.Is(err, login.ErrInvalidCode):
		h.respondError(w, r, err, map[string]any{"remaining_attempts": out.RemainingAttempts})
		return
	case err != nil:
		h.respondError(w, r, err, nil)
		return
	}

	respond(w, http.StatusOK, sessionResponse{
		SessionToken: out.SessionToken,
		ExpiresAt:    out.ExpiresAt,
		Method:       out.Method,
	})
}

func (h *handler) sendBackupCode(w http.ResponseWriter, r *http.Request) {
	var req pendingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.respondError(w, r, err, nil)
		return
	}

	delivery, err := h.login.SendBackupCode(r.Context(), req.PendingToken)
	switch {
	case errors.Is(err, login.ErrLocked):
		h.respondLocked(w, r, err, delivery.RemainingLockoutSeconds)
		return
	case err != nil:
		h.respondError(w, r, err, nil)
		return
	}
	respond(w, http.StatusAccepted, backupCodeResponse{
		MaskedEmail: delivery.MaskedEmail,
		ExpiresAt:   delivery.ExpiresAt,
	})
}

func (h *handler) refreshSession(w http.ResponseWriter, r *http.Request) {
	token, err := session.BearerToken(r)
	if err != nil {
		h.respondError(w, r, ErrUnauthorized, nil)
		return
	}
	refreshed, exp, err := h.login.RefreshSession(r.Context(), token)
	if err != nil {
		h.respondError(w, r, err, nil)
		return
	}
	respond(w, http.StatusOK, sessionResponse{SessionToken: refreshed, ExpiresAt: exp})
}
