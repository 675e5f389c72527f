package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dmitrymomot/authguard/pkg/logger"
	"github.com/dmitrymomot/authguard/pkg/validator"
)

// Envelope is the body of every JSON response.
type Envelope struct {
	Data  any            `json:"data,omitempty"`
	Meta  map[string]any `json:"meta,omitempty"`
	Error *ErrorDetail   `json:"error,omitempty"`
}

type ErrorDetail struct {
	Code    string              `json:"code"`
	Message string              `json:"message"`
	Details map[string][]string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body Envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respond(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, Envelope{Data: data})
}

// respondError writes the classified error. meta carries counters such as
// remaining_attempts that the client needs even on failure.
func (h *handler) respondError(w http.ResponseWriter, r *http.Request, err error, meta map[string]any) {
	e := classify(err)
	detail := &ErrorDetail{Code: e.code, Message: e.message}
	if ve := validator.ExtractValidationErrors(err); len(ve) > 0 {
		detail.Details = ve.Fields()
	}

	if e.status >= http.StatusInternalServerError {
		h.log.ErrorContext(r.Context(), "request failed",
			logger.Component("httpapi"),
			slog.String("path", r.URL.Path),
			logger.Error(err),
		)
	}

	writeJSON(w, e.status, Envelope{Meta: meta, Error: detail})
}

// respondLocked adds Retry-After so clients can back off without parsing the body.
func (h *handler) respondLocked(w http.ResponseWriter, r *http.Request, err error, seconds int) {
	w.Header().Set("Retry-After", strconv.Itoa(seconds))
	h.respondError(w, r, err, map[string]any{"remaining_lockout_seconds": seconds})
}
