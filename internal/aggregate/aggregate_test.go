package aggregate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"niis/internal/enrollment"
)

func result(state, district string, population, enrollments int64, score float64, category enrollment.RiskCategory) enrollment.DistrictResult {
	return enrollment.DistrictResult{
		Analytics: enrollment.DistrictAnalytics{
			State:                 state,
			District:              district,
			TotalPopulation:       population,
			TotalEnrollments:      enrollments,
			LatestPenetrationRate: float64(enrollments) / float64(population),
		},
		Risk: enrollment.RiskScore{
			State:              state,
			District:           district,
			CompositeRiskScore: score,
			RiskCategory:       category,
		},
	}
}

func fixtureResults() []enrollment.DistrictResult {
	return []enrollment.DistrictResult{
		result("Assam", "Kamrup", 1000, 400, 0.7, enrollment.RiskHigh),
		result("Assam", "Cachar", 9000, 7200, 0.2, enrollment.RiskLow),
		result("Bihar", "Patna", 5000, 2000, 0.5, enrollment.RiskMedium),
	}
}

func TestOverviewSumsLatestFigures(t *testing.T) {
	o := Overview(fixtureResults())

	assert.Equal(t, int64(15000), o.TotalPopulation)
	assert.Equal(t, int64(9600), o.TotalEnrollments)
	assert.InDelta(t, 0.64, o.OverallPenetrationRate, 1e-9)
	assert.InDelta(t, 0.36, o.CoverageGap, 1e-9)
	assert.Equal(t, 2, o.NumStates)
	assert.Equal(t, 3, o.NumDistricts)
}

func TestStateTotalsReproduceNationalTotals(t *testing.T) {
	results := fixtureResults()
	national := Overview(results)
	states := ByState(results)

	var population, enrollments int64
	districts := 0
	for _, s := range states {
		population += s.TotalPopulation
		enrollments += s.TotalEnrollments
		districts += s.NumDistricts
	}
	assert.Equal(t, national.TotalPopulation, population)
	assert.Equal(t, national.TotalEnrollments, enrollments)
	assert.Equal(t, national.NumDistricts, districts)
}

func TestByStateUsesPopulationWeightedRate(t *testing.T) {
	states := ByState(fixtureResults())
	require.Len(t, states, 2)

	assam := states[0]
	require.Equal(t, "Assam", assam.State)
	// 7600 of 10000, not the naive mean of 0.40 and 0.80.
	assert.InDelta(t, 0.76, assam.AvgPenetrationRate, 1e-9)
	assert.Equal(t, 2, assam.NumDistricts)
	assert.InDelta(t, 0.45, assam.AvgRiskScore, 1e-9)
	assert.InDelta(t, 0.7, assam.MaxRiskScore, 1e-9)
}

func TestRiskDistributionCountsEveryCategory(t *testing.T) {
	dist := RiskDistribution(fixtureResults()[:2])

	assert.Equal(t, 1, dist[enrollment.RiskHigh])
	assert.Equal(t, 1, dist[enrollment.RiskLow])
	assert.Equal(t, 0, dist[enrollment.RiskMedium], "zero counts stay present")
}

func TestRankingsOrderAndTieBreak(t *testing.T) {
	results := []enrollment.DistrictResult{
		result("Bihar", "Patna", 1000, 500, 0.5, enrollment.RiskMedium),
		result("Assam", "Kamrup", 1000, 500, 0.5, enrollment.RiskMedium),
		result("Assam", "Cachar", 1000, 500, 0.9, enrollment.RiskHigh),
	}

	ranked := Rankings(results, 0)
	require.Len(t, ranked, 3)
	assert.Equal(t, "Cachar", ranked[0].District)
	// Equal scores fall back to (state, district) ordering.
	assert.Equal(t, "Kamrup", ranked[1].District)
	assert.Equal(t, "Patna", ranked[2].District)

	top := Rankings(results, 2)
	assert.Len(t, top, 2)
}

func TestNationalTrendsAggregatesByDate(t *testing.T) {
	jan := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	feb := jan.AddDate(0, 1, 0)
	allSeries := []enrollment.DistrictTimeSeries{
		{State: "Assam", District: "Kamrup", Periods: []enrollment.Period{
			{Date: jan, TotalPopulation: 1000, TotalEnrollments: 400},
			{Date: feb, TotalPopulation: 1000, TotalEnrollments: 450},
		}},
		{State: "Bihar", District: "Patna", Periods: []enrollment.Period{
			{Date: jan, TotalPopulation: 3000, TotalEnrollments: 600},
			{Date: feb, TotalPopulation: 3000, TotalEnrollments: 750},
		}},
	}

	trends := NationalTrends(allSeries)
	require.Len(t, trends, 2)
	assert.Equal(t, jan, trends[0].Date)
	assert.Equal(t, int64(1000), trends[0].Enrollments)
	assert.Equal(t, int64(4000), trends[0].Population)
	// Rate derives from aggregated totals, not a mean of district rates.
	assert.InDelta(t, 0.25, trends[0].PenetrationRate, 1e-9)
	assert.InDelta(t, 0.3, trends[1].PenetrationRate, 1e-9)
}

func TestHeatmapOneRowPerDistrict(t *testing.T) {
	rows := Heatmap(fixtureResults())
	require.Len(t, rows, 3)
	assert.Equal(t, "Kamrup", rows[0].District)
	assert.Equal(t, int64(1000), rows[0].TotalPopulation)
}
