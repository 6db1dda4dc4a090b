package handlers

import (
	"net/http"

	"clipforge/internal/startup"
)

// HealthCheck answers liveness probes.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// LivenessCheck is the kubernetes-style livez endpoint.
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// ReadinessCheck verifies the database answers before reporting ready.
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	if _, err := h.db.ListProjects(); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"reason": "database unavailable",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// GetVersion returns build information.
func (h *Handlers) GetVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, startup.GetBuildInfo())
}
