package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"carmarket/internal/pipeline"
	"carmarket/internal/query"
)

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	facade  *query.Facade
	started time.Time
}

// NewHealthHandler creates a health handler.
func NewHealthHandler(facade *query.Facade) *HealthHandler {
	return &HealthHandler{facade: facade, started: time.Now()}
}

// Routes returns the health routes.
func (h *HealthHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))
	r.Get("/", h.GetHealth)
	r.Get("/ready", h.GetReadiness)
	return r
}

// GetHealth reports process liveness.
func (h *HealthHandler) GetHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]any{
		"status": "healthy",
		"uptime": time.Since(h.started).String(),
	})
}

// GetReadiness reports whether a snapshot has been published. The service
// is alive but not ready between startup and the first successful run.
func (h *HealthHandler) GetReadiness(w http.ResponseWriter, r *http.Request) {
	state := h.facade.State()
	if state == pipeline.StateEmpty {
		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, map[string]any{"status": "not_ready", "state": string(state)})
		return
	}
	render.JSON(w, r, map[string]any{"status": "ready", "state": string(state)})
}
