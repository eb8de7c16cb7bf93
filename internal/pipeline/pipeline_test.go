package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"niis/internal/enrollment"
	pkgerrors "niis/pkg/errors"
)

func makeSeries(state, district string, population int64, enrollments ...int64) enrollment.DistrictTimeSeries {
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	periods := make([]enrollment.Period, 0, len(enrollments))
	for i, e := range enrollments {
		rate := 0.0
		if population > 0 {
			rate = float64(e) / float64(population)
			if rate > 1 {
				rate = 1
			}
		}
		periods = append(periods, enrollment.Period{
			Date:             start.AddDate(0, i, 0),
			TotalPopulation:  population,
			TotalEnrollments: e,
			YouthEnrolled:    e / 3,
			AdultEnrolled:    e - e/3,
			YouthPopulation:  population / 3,
			AdultPopulation:  population - population/3,
			PenetrationRate:  rate,
		})
	}
	return enrollment.DistrictTimeSeries{State: state, District: district, Periods: periods}
}

func newEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	e, err := New(opts...)
	require.NoError(t, err)
	return e
}

func fixtureBatch() []enrollment.DistrictTimeSeries {
	return []enrollment.DistrictTimeSeries{
		makeSeries("Bihar", "Patna", 100000, 50000, 52000, 55000, 58000),
		makeSeries("Bihar", "Gaya", 80000, 32000, 30400, 28000, 24000),
		makeSeries("Assam", "Kamrup", 50000, 42000, 42100, 42200, 42500),
	}
}

func TestRunProducesResultsInDeterministicOrder(t *testing.T) {
	e := newEngine(t)
	batch, err := e.Run(context.Background(), fixtureBatch())
	require.NoError(t, err)

	require.Len(t, batch.Results, 3)
	assert.Equal(t, "Kamrup", batch.Results[0].Analytics.District)
	assert.Equal(t, "Gaya", batch.Results[1].Analytics.District)
	assert.Equal(t, "Patna", batch.Results[2].Analytics.District)
	assert.Empty(t, batch.Skipped)
}

func TestRunIsIdempotent(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	first, err := e.Run(ctx, fixtureBatch())
	require.NoError(t, err)
	second, err := e.Run(ctx, fixtureBatch())
	require.NoError(t, err)

	assert.Equal(t, first, second, "identical input must yield identical output")
}

func TestRunDeterministicAcrossWorkerCounts(t *testing.T) {
	ctx := context.Background()

	serial, err := newEngine(t, WithWorkers(1)).Run(ctx, fixtureBatch())
	require.NoError(t, err)
	parallel, err := newEngine(t, WithWorkers(8)).Run(ctx, fixtureBatch())
	require.NoError(t, err)

	assert.Equal(t, serial, parallel)
}

func TestGrowingDistrictScenario(t *testing.T) {
	e := newEngine(t)
	batch, err := e.Run(context.Background(), []enrollment.DistrictTimeSeries{
		makeSeries("Bihar", "Patna", 100000, 50000, 52000, 55000, 58000),
	})
	require.NoError(t, err)
	require.Len(t, batch.Results, 1)

	r := batch.Results[0]
	assert.Greater(t, r.Analytics.GrowthSlope, 0.0)
	assert.Equal(t, 0, r.Analytics.StagnationPeriods)
	assert.Less(t, r.Risk.Components.Growth, 0.5)
}

func TestDecliningDistrictScenario(t *testing.T) {
	e := newEngine(t)
	batch, err := e.Run(context.Background(), []enrollment.DistrictTimeSeries{
		makeSeries("Bihar", "Gaya", 100000, 40000, 38000, 35000, 30000),
	})
	require.NoError(t, err)
	require.Len(t, batch.Results, 1)

	r := batch.Results[0]
	assert.Less(t, r.Analytics.GrowthSlope, 0.0)

	var found bool
	for _, rec := range r.Recommendations {
		if rec.Intervention == "Emergency Enrollment Recovery" {
			found = true
			assert.Equal(t, enrollment.PriorityCritical, rec.Priority)
		}
	}
	assert.True(t, found, "declining district must trigger emergency recovery")
}

func TestPathologicalDistrictSkippedNotFatal(t *testing.T) {
	e := newEngine(t)
	input := append(fixtureBatch(),
		makeSeries("Unknown", "Ghost", 0, 0, 0, 0))

	batch, err := e.Run(context.Background(), input)
	require.NoError(t, err, "one bad district must not abort the batch")

	assert.Len(t, batch.Results, 3)
	require.Len(t, batch.Skipped, 1)
	assert.Equal(t, "Ghost", batch.Skipped[0].District)
	assert.Contains(t, batch.Skipped[0].Reason, "positive population")
}

func TestInvalidInputFailsFast(t *testing.T) {
	e := newEngine(t)
	bad := makeSeries("Bihar", "Patna", 1000, 100, 200)
	bad.Periods[1].Date = bad.Periods[0].Date.AddDate(0, -2, 0)

	_, err := e.Run(context.Background(), []enrollment.DistrictTimeSeries{bad})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeInvalidInput))
	assert.Contains(t, err.Error(), "Patna")
}

func TestRunBuildsAggregates(t *testing.T) {
	e := newEngine(t)
	batch, err := e.Run(context.Background(), fixtureBatch())
	require.NoError(t, err)

	assert.Equal(t, 2, batch.Overview.NumStates)
	assert.Equal(t, 3, batch.Overview.NumDistricts)
	assert.Len(t, batch.States, 2)
	assert.Len(t, batch.Rankings, 3)
	assert.Len(t, batch.Heatmap, 3)
	assert.Len(t, batch.Trends, 4)

	total := 0
	for _, n := range batch.Distribution {
		total += n
	}
	assert.Equal(t, 3, total)

	// State populations reproduce the national total exactly.
	var statePop int64
	for _, s := range batch.States {
		statePop += s.TotalPopulation
	}
	assert.Equal(t, batch.Overview.TotalPopulation, statePop)
}

func TestComponentRangesAcrossBatch(t *testing.T) {
	e := newEngine(t)
	batch, err := e.Run(context.Background(), fixtureBatch())
	require.NoError(t, err)

	for _, r := range batch.Results {
		for _, v := range []float64{
			r.Risk.CompositeRiskScore,
			r.Risk.Components.Penetration,
			r.Risk.Components.Growth,
			r.Risk.Components.Youth,
			r.Risk.Components.Volatility,
			r.Risk.Components.Stagnation,
		} {
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 1.0)
		}
	}
}
