// Package pipeline orchestrates the per-district analytics run: validate,
// fan out trend analysis, risk scoring, and recommendations across a worker
// pool, then roll the results up through the aggregation layer.
package pipeline

import (
	"context"
	"log/slog"
	"runtime"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"niis/internal/aggregate"
	"niis/internal/enrollment"
	"niis/internal/platform/metrics"
	"niis/internal/recommend"
	"niis/internal/risk"
	"niis/internal/series"
	"niis/internal/trend"
	pkgerrors "niis/pkg/errors"
)

// SkippedDistrict records a district excluded from the batch and why.
type SkippedDistrict struct {
	State    string `json:"state"`
	District string `json:"district"`
	Reason   string `json:"reason"`
}

// BatchResult is the complete output of one run. Identical input produces an
// identical BatchResult regardless of worker interleaving.
type BatchResult struct {
	Results      []enrollment.DistrictResult `json:"results"`
	Skipped      []SkippedDistrict           `json:"skipped"`
	Overview     aggregate.NationalOverview  `json:"overview"`
	States       []aggregate.StateAggregate  `json:"states"`
	Distribution aggregate.Distribution      `json:"distribution"`
	Rankings     []aggregate.RankedDistrict  `json:"rankings"`
	Heatmap      []aggregate.HeatmapRow      `json:"heatmap"`
	Trends       []aggregate.TrendPoint      `json:"trends"`
}

// Engine runs batches. Districts are independent, so the engine shares no
// mutable state between them; the aggregation step is the only barrier.
type Engine struct {
	analyzer    *trend.Analyzer
	scorer      *risk.Scorer
	recommender *recommend.Engine
	logger      *slog.Logger
	metrics     *metrics.Metrics
	workers     int
}

// Option overrides engine dependencies.
type Option func(*Engine)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

func WithWorkers(n int) Option {
	return func(e *Engine) { e.workers = n }
}

func WithAnalyzer(a *trend.Analyzer) Option {
	return func(e *Engine) { e.analyzer = a }
}

func WithScorer(s *risk.Scorer) Option {
	return func(e *Engine) { e.scorer = s }
}

// New builds an engine with default analyzer, scorer, and rule table.
func New(opts ...Option) (*Engine, error) {
	scorer, err := risk.NewScorer(risk.DefaultConfig())
	if err != nil {
		return nil, err
	}

	e := &Engine{
		analyzer:    trend.NewAnalyzer(),
		scorer:      scorer,
		recommender: recommend.NewEngine(),
		logger:      slog.Default(),
		workers:     runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.workers <= 0 {
		e.workers = 1
	}
	return e, nil
}

type slot struct {
	result *enrollment.DistrictResult
	skip   *SkippedDistrict
}

// Run executes the batch. Malformed input (non-ascending dates, negative
// counts) fails the whole run up front with the offending district identity.
// Numeric failures on pathological but well-formed input skip only the
// affected district; the batch completes and reports the skip count.
func (e *Engine) Run(ctx context.Context, allSeries []enrollment.DistrictTimeSeries) (*BatchResult, error) {
	start := time.Now()

	for _, s := range allSeries {
		if err := series.Validate(s); err != nil {
			return nil, err
		}
	}

	slots := make([]slot, len(allSeries))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, s := range allSeries {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			result, err := e.computeDistrict(s)
			if err != nil {
				slots[i].skip = &SkippedDistrict{
					State:    s.State,
					District: s.District,
					Reason:   pkgerrors.MessageOf(err),
				}
				e.metrics.IncrementSkipped(string(pkgerrors.CodeOf(err)))
				e.logger.WarnContext(ctx, "district excluded from batch",
					"state", s.State, "district", s.District, "error", err)
				return nil
			}
			slots[i].result = &result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Barrier passed: assemble in input-independent deterministic order.
	results := make([]enrollment.DistrictResult, 0, len(slots))
	skipped := make([]SkippedDistrict, 0)
	for _, sl := range slots {
		switch {
		case sl.result != nil:
			results = append(results, *sl.result)
		case sl.skip != nil:
			skipped = append(skipped, *sl.skip)
		}
	}
	sortResults(results)
	sortSkipped(skipped)

	recCount := 0
	for _, r := range results {
		recCount += len(r.Recommendations)
	}
	e.metrics.AddRecommendations(recCount)
	for range results {
		e.metrics.IncrementScored()
	}
	e.metrics.ObserveBatchDuration(time.Since(start))

	e.logger.InfoContext(ctx, "batch complete",
		"districts", len(results),
		"skipped", len(skipped),
		"recommendations", recCount,
		"duration", time.Since(start))

	return &BatchResult{
		Results:      results,
		Skipped:      skipped,
		Overview:     aggregate.Overview(results),
		States:       aggregate.ByState(results),
		Distribution: aggregate.RiskDistribution(results),
		Rankings:     aggregate.Rankings(results, 0),
		Heatmap:      aggregate.Heatmap(results),
		Trends:       aggregate.NationalTrends(allSeries),
	}, nil
}

func sortResults(results []enrollment.DistrictResult) {
	sort.Slice(results, func(i, j int) bool {
		a, b := results[i].Analytics, results[j].Analytics
		if a.State != b.State {
			return a.State < b.State
		}
		return a.District < b.District
	})
}

func sortSkipped(skipped []SkippedDistrict) {
	sort.Slice(skipped, func(i, j int) bool {
		if skipped[i].State != skipped[j].State {
			return skipped[i].State < skipped[j].State
		}
		return skipped[i].District < skipped[j].District
	})
}
