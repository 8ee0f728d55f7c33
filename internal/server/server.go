// Package server exposes a read-only HTTP status surface over the registry
// and the pre-flight runner. It never mutates state; lifecycle transitions
// stay on the CLI where an operator can see them.
package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/gridiron-data/warehouse-cli/internal/config"
	"github.com/gridiron-data/warehouse-cli/internal/model"
	"github.com/gridiron-data/warehouse-cli/internal/preflight"
	"github.com/gridiron-data/warehouse-cli/internal/store"
)

// Server serves registry and pre-flight state as JSON.
type Server struct {
	store   store.Store
	runner  *preflight.Runner
	catalog *config.Catalog
}

// New creates a server over an open store.
func New(st store.Store, runner *preflight.Runner, catalog *config.Catalog) *Server {
	return &Server{store: st, runner: runner, catalog: catalog}
}

// Router builds the HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet},
	}))

	r.Get("/health", s.handleHealth)
	r.Get("/registry", s.handleRegistry)
	r.Get("/preflight", s.handlePreflight)
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleRegistry lists registry entries, filterable by source, dataset, and
// status query parameters.
func (s *Server) handleRegistry(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	entries, err := s.store.List(r.Context(), store.Filter{
		Source:  q.Get("source"),
		Dataset: q.Get("dataset"),
		Status:  model.Status(q.Get("status")),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// handlePreflight runs a fresh sweep on demand. The sweep is read-only and
// bounded by the catalog size, so it is cheap enough to run per request.
func (s *Server) handlePreflight(w http.ResponseWriter, r *http.Request) {
	report, err := s.runner.Run(r.Context(), s.catalog.Datasets)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("server: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, err error) {
	zap.L().Error("server: request failed", zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
}
