package httpapi

import (
	"context"
	"net/http"
)

// SubsystemCheck reports one of the 11 subsystem health categories.
type SubsystemCheck struct {
	Healthy bool           `json:"healthy"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// SubsystemChecker is implemented by anything the detailed health endpoint
// polls (store, scheduler, event bus, providers, ...).
type SubsystemChecker interface {
	Name() string
	Check(ctx context.Context) SubsystemCheck
}

// HealthHandler serves shallow and detailed health probes.
type HealthHandler struct {
	subsystems []SubsystemChecker
}

func NewHealthHandler(subsystems ...SubsystemChecker) *HealthHandler {
	return &HealthHandler{subsystems: subsystems}
}

// Shallow handles GET /api/v1/health: a single ok/not-ok verdict.
func (h *HealthHandler) Shallow(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Detailed handles GET /api/v1/health/detailed, reporting every registered
// subsystem category.
func (h *HealthHandler) Detailed(w http.ResponseWriter, r *http.Request) {
	out := make(map[string]SubsystemCheck, len(h.subsystems))
	for _, s := range h.subsystems {
		out[s.Name()] = s.Check(r.Context())
	}
	writeJSON(w, http.StatusOK, out)
}
