package handlers

import (
	"net/http"

	"github.com/seumatch/seumatch/internal/cache"
	"github.com/seumatch/seumatch/internal/http/helpers"
)

// HealthHandler expone readiness/liveness.
type HealthHandler struct {
	Cache cache.Client
}

// Healthz maneja GET /healthz.
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	helpers.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readyz maneja GET /readyz: verifica los colaboradores.
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	if h.Cache != nil {
		if err := h.Cache.Ping(r.Context()); err != nil {
			helpers.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "degraded",
				"cache":  err.Error(),
			})
			return
		}
	}
	helpers.WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
