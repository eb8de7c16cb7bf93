package trend

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"niis/internal/enrollment"
)

func seriesWithRates(rates ...float64) enrollment.DistrictTimeSeries {
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	periods := make([]enrollment.Period, 0, len(rates))
	for i, r := range rates {
		periods = append(periods, enrollment.Period{
			Date:            start.AddDate(0, i, 0),
			TotalPopulation: 100000,
			PenetrationRate: r,
		})
	}
	return enrollment.DistrictTimeSeries{State: "Bihar", District: "Patna", Periods: periods}
}

func TestAnalyzeRisingSeries(t *testing.T) {
	a := NewAnalyzer()
	f := a.Analyze(seriesWithRates(0.50, 0.52, 0.55, 0.58))

	require.True(t, f.Valid)
	assert.Greater(t, f.GrowthSlope, 0.0)
	assert.InDelta(t, 0.027, f.GrowthSlope, 1e-9)
	assert.Equal(t, 0, f.StagnationPeriods)
}

func TestAnalyzeDecliningSeries(t *testing.T) {
	a := NewAnalyzer()
	f := a.Analyze(seriesWithRates(0.40, 0.38, 0.35, 0.30))

	require.True(t, f.Valid)
	assert.Less(t, f.GrowthSlope, 0.0)
	// Every period-over-period change is negative, hence stagnant.
	assert.Equal(t, 3, f.StagnationPeriods)
}

func TestAnalyzeFlatSeries(t *testing.T) {
	a := NewAnalyzer()
	f := a.Analyze(seriesWithRates(0.5, 0.5, 0.5))

	require.True(t, f.Valid)
	assert.InDelta(t, 0.0, f.GrowthSlope, 1e-12)
	assert.InDelta(t, 0.0, f.GrowthVolatility, 1e-12)
	assert.Equal(t, 2, f.StagnationPeriods)
}

func TestVolatilityIsPopulationStdDev(t *testing.T) {
	a := NewAnalyzer()
	// Diffs are +0.1 and -0.1: mean 0, population std dev 0.1.
	f := a.Analyze(seriesWithRates(0.1, 0.2, 0.1))

	require.True(t, f.Valid)
	assert.InDelta(t, 0.1, f.GrowthVolatility, 1e-9)
}

func TestDegenerateSeriesYieldsFallbacks(t *testing.T) {
	a := NewAnalyzer()

	for name, s := range map[string]enrollment.DistrictTimeSeries{
		"single period": seriesWithRates(0.4),
		"empty":         {State: "Bihar", District: "Patna"},
	} {
		t.Run(name, func(t *testing.T) {
			f := a.Analyze(s)
			assert.False(t, f.Valid)
			assert.Zero(t, f.GrowthSlope)
			assert.Zero(t, f.GrowthVolatility)
			assert.Zero(t, f.StagnationPeriods)
		})
	}
}

func TestZeroPopulationPeriodsExcluded(t *testing.T) {
	a := NewAnalyzer()
	s := seriesWithRates(0.5, 0.6, 0.7)
	s.Periods[1].TotalPopulation = 0

	f := a.Analyze(s)
	require.True(t, f.Valid)
	// Only the first and last periods remain: slope across ordinal steps 0,1.
	assert.InDelta(t, 0.2, f.GrowthSlope, 1e-9)
}

func TestStagnationThresholdOverride(t *testing.T) {
	a := NewAnalyzer(WithStagnationThreshold(0.05))
	f := a.Analyze(seriesWithRates(0.50, 0.52, 0.55, 0.58))

	require.True(t, f.Valid)
	// All diffs (0.02, 0.03, 0.03) now fall at or below the raised cutoff.
	assert.Equal(t, 3, f.StagnationPeriods)
}
