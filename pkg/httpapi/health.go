package httpapi

import (
	"maps"
	"net/http"
	"slices"

	"github.com/dmitrymomot/authguard/pkg/logger"
)

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Checks: make(map[string]string, len(h.checks))}
	status := http.StatusOK

	for _, name := range slices.Sorted(maps.Keys(h.checks)) {
		if err := h.checks[name](r.Context()); err != nil {
			h.log.ErrorContext(r.Context(), "health check failed",
				logger.Component(name),
				logger.Error(err),
			)
			resp.Checks[name] = "unavailable"
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}

	respond(w, status, resp)
}
