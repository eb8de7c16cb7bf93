package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"niis/internal/platform/metrics"
)

// NewRouter wires all public endpoints.
func NewRouter(h *Handler, m *metrics.Metrics) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestMetrics(m))

	r.Get("/health", h.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/national/overview", h.handleNationalOverview)
		r.Get("/national/trends", h.handleNationalTrends)
		r.Get("/states", h.handleStates)
		r.Get("/states/{state}/districts", h.handleStateDistricts)
		r.Get("/states/{state}/overview", h.handleStateOverview)
		r.Get("/districts/{state}/{district}", h.handleDistrict)
		r.Get("/risk/rankings", h.handleRiskRankings)
		r.Get("/risk/heatmap", h.handleRiskHeatmap)
		r.Get("/risk/distribution", h.handleRiskDistribution)
		r.Get("/insights/policy", h.handlePolicyInsights)
		r.Get("/insights/state/{state}", h.handleStateInsights)
	})

	return r
}

// requestMetrics records per-route latency using the chi route pattern so
// path parameters do not explode label cardinality.
func requestMetrics(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			route := chi.RouteContext(r.Context()).RoutePattern()
			if route == "" {
				route = "unmatched"
			}
			m.ObserveRequest(route, time.Since(start))
		})
	}
}
