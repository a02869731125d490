package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"carmarket/internal/config"
	"carmarket/internal/query"
)

// NewRouter assembles the read-only API surface.
func NewRouter(facade *query.Facade, logger *slog.Logger) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Route("/api", func(r chi.Router) {
		r.Mount("/health", NewHealthHandler(facade).Routes())
		r.Mount("/market", NewMarketHandler(facade, logger).Routes())
	})

	return r
}

// NewServer builds the HTTP server from configuration.
func NewServer(cfg config.ServerConfig, facade *query.Facade, logger *slog.Logger) *http.Server {
	return &http.Server{
		Addr:         cfg.Addr(),
		Handler:      NewRouter(facade, logger),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
}
