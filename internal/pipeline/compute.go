package pipeline

import (
	"math"

	"niis/internal/enrollment"
	pkgerrors "niis/pkg/errors"
)

// computeDistrict derives analytics, risk, and recommendations for one
// validated series. Pure: reads nothing outside its input.
func (e *Engine) computeDistrict(s enrollment.DistrictTimeSeries) (enrollment.DistrictResult, error) {
	analytics, err := e.buildAnalytics(s)
	if err != nil {
		return enrollment.DistrictResult{}, err
	}

	riskScore := e.scorer.Score(analytics)
	recs := e.recommender.Evaluate(analytics, riskScore)

	return enrollment.DistrictResult{
		Analytics:       analytics,
		Risk:            riskScore,
		Recommendations: recs,
	}, nil
}

// buildAnalytics combines the latest-period snapshot features with the trend
// features. Totals come from the latest period because enrollment counts are
// cumulative, not per-period increments.
func (e *Engine) buildAnalytics(s enrollment.DistrictTimeSeries) (enrollment.DistrictAnalytics, error) {
	if !hasPositivePopulation(s.Periods) {
		return enrollment.DistrictAnalytics{}, pkgerrors.Newf(pkgerrors.CodeComputation,
			"district %s/%s has no periods with positive population", s.State, s.District)
	}

	latest := s.Periods[len(s.Periods)-1]
	features := e.analyzer.Analyze(s)

	a := enrollment.DistrictAnalytics{
		State:                 s.State,
		District:              s.District,
		TotalEnrollments:      latest.TotalEnrollments,
		TotalPopulation:       latest.TotalPopulation,
		AvgPenetrationRate:    avgRate(s.Periods),
		LatestPenetrationRate: latest.PenetrationRate,
		YouthInclusionRate:    cappedRatio(latest.YouthEnrolled, latest.YouthPopulation),
		AdultInclusionRate:    cappedRatio(latest.AdultEnrolled, latest.AdultPopulation),
		GrowthSlope:           features.GrowthSlope,
		GrowthVolatility:      features.GrowthVolatility,
		StagnationPeriods:     features.StagnationPeriods,
		DataPoints:            len(s.Periods),
		TrendValid:            features.Valid,
		YouthEnrolled:         latest.YouthEnrolled,
		YouthPopulation:       latest.YouthPopulation,
		AdultEnrolled:         latest.AdultEnrolled,
		AdultPopulation:       latest.AdultPopulation,
	}
	a.YouthAdultGap = a.YouthInclusionRate - a.AdultInclusionRate

	if err := checkFinite(a); err != nil {
		return enrollment.DistrictAnalytics{}, err
	}
	return a, nil
}

func hasPositivePopulation(periods []enrollment.Period) bool {
	for _, p := range periods {
		if p.TotalPopulation > 0 {
			return true
		}
	}
	return false
}

// avgRate averages penetration over periods with positive population only;
// zero-population periods are excluded from rate statistics, not from counts.
func avgRate(periods []enrollment.Period) float64 {
	var sum float64
	n := 0
	for _, p := range periods {
		if p.TotalPopulation > 0 {
			sum += p.PenetrationRate
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func cappedRatio(numerator, denominator int64) float64 {
	if denominator <= 0 {
		return 0
	}
	r := float64(numerator) / float64(denominator)
	if r > 1 {
		return 1
	}
	return r
}

// checkFinite guards the scorer against NaN/Inf leaking out of degenerate
// arithmetic. A hit skips the district, never the batch.
func checkFinite(a enrollment.DistrictAnalytics) error {
	for _, v := range []float64{
		a.AvgPenetrationRate, a.LatestPenetrationRate,
		a.YouthInclusionRate, a.AdultInclusionRate, a.YouthAdultGap,
		a.GrowthSlope, a.GrowthVolatility,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return pkgerrors.Newf(pkgerrors.CodeComputation,
				"district %s/%s produced a non-finite feature", a.State, a.District)
		}
	}
	return nil
}
