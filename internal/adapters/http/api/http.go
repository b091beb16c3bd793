// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/dingerzone/internal/adapters/http/middleware"
	"github.com/okian/dingerzone/internal/domain/share"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// SharedVideo resolves the raw path segment of a share link.
	SharedVideo(ctx context.Context, rawID string) (share.Details, error)
}

// Server wires HTTP routes for the JSON API and operational endpoints.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	sharedHandler  *SharedVideoHandler
	metricsHandler http.Handler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(statsProvider),
		sharedHandler:  NewSharedVideoHandler(deps),
		metricsHandler: MetricsHandler(),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}

	mux.HandleFunc("GET /healthz", middleware.Metrics(s.healthHandler.HandleHealth, "healthz"))
	mux.Handle("GET /metrics", s.metricsHandler)
	mux.HandleFunc("GET /stats", middleware.Metrics(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("GET /api/shared-videos/{shareId}", middleware.Metrics(s.sharedHandler.HandleGetSharedVideo, "api_shared_video"))
	mux.HandleFunc("/api/", middleware.Metrics(handleAPINotFound, "api_not_found"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeJSON encodes v before writing the header, so a value that cannot be
// encoded becomes a 500 instead of an empty 200.
func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		body, _ = json.Marshal(errorResponse{Code: "internal", Message: http.StatusText(status)})
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

func handleAPINotFound(w http.ResponseWriter, r *http.Request) {
	const op = "api.route"
	writeError(w, http.StatusNotFound, "not_found", NewKind(op, ErrNotFound))
}
