// Package http serves the read-only summary surface consumed by the
// dashboard collaborator: filtered model views, named summary tables,
// coverage and snapshot state. All computation happens in the pipeline;
// handlers only project the published snapshot.
package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	apierrors "carmarket/internal/errors"
	"carmarket/internal/query"
	"carmarket/pkg/contracts/domain"
)

// MarketHandler serves market analytics reads.
type MarketHandler struct {
	facade *query.Facade
	logger *slog.Logger
}

// NewMarketHandler creates a market handler over the query facade.
func NewMarketHandler(facade *query.Facade, logger *slog.Logger) *MarketHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &MarketHandler{
		facade: facade,
		logger: logger.With(slog.String("component", "market_handler")),
	}
}

// Routes returns the market routes.
func (h *MarketHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/models", h.GetModels)
	r.Get("/summary/{kind}", h.GetSummary)
	r.Get("/coverage", h.GetCoverage)
	r.Get("/state", h.GetState)

	return r
}

// GetModels serves the filtered enriched catalog. Filters come from
// comma-separated query parameters; an empty filter selects everything.
func (h *MarketHandler) GetModels(w http.ResponseWriter, r *http.Request) {
	filter := query.Filter{
		Automakers: splitParam(r.URL.Query().Get("automaker")),
		Genmodels:  splitParam(r.URL.Query().Get("genmodel")),
	}
	for _, s := range splitParam(r.URL.Query().Get("segment")) {
		filter.Segments = append(filter.Segments, domain.MarketSegment(s))
	}

	models, err := h.facade.Models(filter)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]any{
		"success": true,
		"count":   len(models),
		"models":  models,
	})
}

// GetSummary serves one named summary table.
func (h *MarketHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	summary, err := h.facade.Summary(kind)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]any{
		"success": true,
		"kind":    kind,
		"data":    summary,
	})
}

// GetCoverage serves the price and sales data coverage counts.
func (h *MarketHandler) GetCoverage(w http.ResponseWriter, r *http.Request) {
	price, sales, err := h.facade.Coverage()
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]any{
		"success": true,
		"price":   price,
		"sales":   sales,
	})
}

// GetState serves snapshot freshness and run identity.
func (h *MarketHandler) GetState(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"success": true,
		"state":   string(h.facade.State()),
	}
	if snap, err := h.facade.Snapshot(); err == nil {
		resp["run_id"] = snap.RunID
		resp["version"] = snap.Version
		resp["generated_at"] = snap.GeneratedAt
	}
	render.JSON(w, r, resp)
}

func (h *MarketHandler) renderError(w http.ResponseWriter, r *http.Request, err error) {
	reqID := middleware.GetReqID(r.Context())

	var apiErr *apierrors.APIError
	switch {
	case errors.Is(err, query.ErrNoSnapshot):
		apiErr = apierrors.ErrNoSnapshot
	case errors.Is(err, query.ErrUnknownSummary):
		apiErr = apierrors.APIErrorWithDetails(apierrors.ErrUnknownSummary, err.Error())
	default:
		h.logger.ErrorContext(r.Context(), "request failed",
			slog.String("request_id", reqID),
			slog.String("error", err.Error()),
		)
		apiErr = apierrors.ErrInternalServer
	}

	if renderErr := render.Render(w, r, apierrors.NewErrorResponse(apiErr)); renderErr != nil {
		http.Error(w, apiErr.Message, apiErr.StatusCode)
	}
}

func splitParam(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
