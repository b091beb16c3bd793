package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okian/dingerzone/pkg/metrics"
)

// HealthHandler handles health check requests.
type HealthHandler struct {
	started time.Time
	metrics http.Handler
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{started: time.Now(), metrics: MetricsHandler()}
}

type healthResponse struct {
	Status        string `json:"status"`
	UptimeSeconds int64  `json:"uptimeSeconds"`
}

// HandleHealth handles GET /healthz requests.
// Scrapers that ask for "application/openmetrics-text" get the Prometheus
// exposition; everyone else gets a JSON status.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if strings.Contains(r.Header.Get("Accept"), "application/openmetrics-text") {
		h.metrics.ServeHTTP(w, r)
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(h.started).Seconds()),
	})
}

// MetricsHandler serves the custom metrics registry.
func MetricsHandler() http.Handler {
	reg := metrics.GetRegistry()
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{
		Registry:          reg,
		EnableOpenMetrics: true,
	})
}
