// Package httpapi is the thin HTTP layer over the computed analytics
// snapshot. Handlers translate lookups and serialize results; all business
// logic lives in the analytics packages.
package httpapi

import (
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"niis/internal/aggregate"
	"niis/internal/enrollment"
	"niis/internal/insights"
	"niis/internal/snapshot"
	pkgerrors "niis/pkg/errors"
)

// Handler serves the analytics API from the latest snapshot.
type Handler struct {
	store       snapshot.Store
	logger      *slog.Logger
	defaultTopN int
}

// NewHandler builds a handler. defaultTopN bounds ranking responses when the
// client does not pass a limit.
func NewHandler(store snapshot.Store, logger *slog.Logger, defaultTopN int) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if defaultTopN <= 0 {
		defaultTopN = 50
	}
	return &Handler{store: store, logger: logger, defaultTopN: defaultTopN}
}

func (h *Handler) snapshot(w http.ResponseWriter, r *http.Request) (*snapshot.Snapshot, bool) {
	snap, err := h.store.Latest(r.Context())
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error":             "not_ready",
			"error_description": "no batch has completed yet",
		})
		return nil, false
	}
	return snap, true
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	_, err := h.store.Latest(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "healthy",
		"data_loaded": err == nil,
	})
}

func (h *Handler) handleNationalOverview(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, struct {
		aggregate.NationalOverview
		LatestDate string `json:"latest_date,omitempty"`
	}{
		NationalOverview: snap.Batch.Overview,
		LatestDate:       latestTrendDate(snap.Batch.Trends),
	})
}

func (h *Handler) handleNationalTrends(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"trends": snap.Batch.Trends})
}

func (h *Handler) handleStates(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	states := make([]string, 0, len(snap.Batch.States))
	for _, s := range snap.Batch.States {
		states = append(states, s.State)
	}
	writeJSON(w, http.StatusOK, map[string]any{"states": states})
}

func (h *Handler) handleStateDistricts(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	state := pathParam(r, "state")

	districts := make([]string, 0)
	for _, res := range snap.Batch.Results {
		if res.Analytics.State == state {
			districts = append(districts, res.Analytics.District)
		}
	}
	if len(districts) == 0 {
		writeError(w, pkgerrors.Newf(pkgerrors.CodeNotFound, "state %s not found", state))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"state": state, "districts": districts})
}

func (h *Handler) handleStateOverview(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	state := pathParam(r, "state")
	agg, ok := findState(snap.Batch.States, state)
	if !ok {
		writeError(w, pkgerrors.Newf(pkgerrors.CodeNotFound, "state %s not found", state))
		return
	}
	writeJSON(w, http.StatusOK, agg)
}

func (h *Handler) handleDistrict(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	state := pathParam(r, "state")
	district := pathParam(r, "district")

	result, ok := findDistrict(snap.Batch.Results, state, district)
	if !ok {
		writeError(w, pkgerrors.Newf(pkgerrors.CodeNotFound,
			"district %s/%s not found", state, district))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"analytics": result.Analytics,
		"risk":      result.Risk,
		"recommendations": map[string]any{
			"recommendations":       result.Recommendations,
			"total_recommendations": len(result.Recommendations),
		},
	})
}

func (h *Handler) handleRiskRankings(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	limit := h.defaultTopN
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, pkgerrors.New(pkgerrors.CodeBadRequest, "limit must be a positive integer"))
			return
		}
		limit = n
	}

	ranked := snap.Batch.Rankings
	if limit < len(ranked) {
		ranked = ranked[:limit]
	}
	writeJSON(w, http.StatusOK, map[string]any{"high_risk_districts": ranked})
}

func (h *Handler) handleRiskHeatmap(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"heatmap_data": snap.Batch.Heatmap})
}

func (h *Handler) handleRiskDistribution(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	batch := snap.Batch
	writeJSON(w, http.StatusOK, map[string]any{
		"overall_distribution": batch.Distribution,
		"state_risk_summary":   batch.States,
		"total_districts":      len(batch.Results),
		"skipped_districts":    len(batch.Skipped),
		"avg_national_risk":    avgRisk(batch.Results),
	})
}

func (h *Handler) handlePolicyInsights(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	found := insights.Policy(snap.Batch.Overview, snap.Batch.Distribution, snap.Batch.States)
	writeJSON(w, http.StatusOK, map[string]any{
		"insights":        found,
		"total_insights":  len(found),
		"critical_issues": countCritical(found),
		"generated_at":    time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) handleStateInsights(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	state := pathParam(r, "state")
	agg, ok := findState(snap.Batch.States, state)
	if !ok {
		writeError(w, pkgerrors.Newf(pkgerrors.CodeNotFound, "state %s not found", state))
		return
	}

	var stateResults []enrollment.DistrictResult
	for _, res := range snap.Batch.Results {
		if res.Analytics.State == state {
			stateResults = append(stateResults, res)
		}
	}

	found := insights.State(agg, stateResults)
	writeJSON(w, http.StatusOK, map[string]any{
		"state":          state,
		"insights":       found,
		"total_insights": len(found),
		"generated_at":   time.Now().UTC().Format(time.RFC3339),
	})
}

func pathParam(r *http.Request, name string) string {
	raw := chi.URLParam(r, name)
	if decoded, err := url.PathUnescape(raw); err == nil {
		return decoded
	}
	return raw
}

func findState(states []aggregate.StateAggregate, name string) (aggregate.StateAggregate, bool) {
	for _, s := range states {
		if s.State == name {
			return s, true
		}
	}
	return aggregate.StateAggregate{}, false
}

func findDistrict(results []enrollment.DistrictResult, state, district string) (enrollment.DistrictResult, bool) {
	for _, r := range results {
		if r.Analytics.State == state && r.Analytics.District == district {
			return r, true
		}
	}
	return enrollment.DistrictResult{}, false
}

func avgRisk(results []enrollment.DistrictResult) float64 {
	if len(results) == 0 {
		return 0
	}
	var sum float64
	for _, r := range results {
		sum += r.Risk.CompositeRiskScore
	}
	return sum / float64(len(results))
}

func countCritical(found []insights.Insight) int {
	n := 0
	for _, i := range found {
		if i.Severity == insights.SeverityCritical {
			n++
		}
	}
	return n
}

func latestTrendDate(trends []aggregate.TrendPoint) string {
	if len(trends) == 0 {
		return ""
	}
	return trends[len(trends)-1].Date.Format("2006-01-02")
}
