// Package aggregate rolls district-level results up to state and national
// summaries: totals, weighted rates, risk distributions, rankings, and
// heatmap rows. Pure grouping and summary statistics over scored districts.
package aggregate

import (
	"sort"
	"time"

	"niis/internal/enrollment"
)

// NationalOverview is the top-level rollup across every scored district,
// computed from each district's latest period.
type NationalOverview struct {
	TotalEnrollments       int64   `json:"total_enrollments"`
	TotalPopulation        int64   `json:"total_population"`
	OverallPenetrationRate float64 `json:"overall_penetration_rate"`
	YouthPenetrationRate   float64 `json:"youth_penetration_rate"`
	AdultPenetrationRate   float64 `json:"adult_penetration_rate"`
	CoverageGap            float64 `json:"coverage_gap"`
	NumStates              int     `json:"num_states"`
	NumDistricts           int     `json:"num_districts"`
}

// StateAggregate is the per-state rollup.
type StateAggregate struct {
	State            string  `json:"state"`
	TotalEnrollments int64   `json:"total_enrollments"`
	TotalPopulation  int64   `json:"total_population"`

	// AvgPenetrationRate is population-weighted (state enrollments over state
	// population), not a naive mean of district rates, so small districts do
	// not skew the figure.
	AvgPenetrationRate float64 `json:"avg_penetration_rate"`
	NumDistricts       int     `json:"num_districts"`
	AvgRiskScore       float64 `json:"avg_risk_score"`
	MaxRiskScore       float64 `json:"max_risk_score"`
}

// RankedDistrict is one row of the top-risk ranking.
type RankedDistrict struct {
	State              string                  `json:"state"`
	District           string                  `json:"district"`
	RiskScore          float64                 `json:"risk_score"`
	RiskCategory       enrollment.RiskCategory `json:"risk_category"`
	PenetrationRate    float64                 `json:"penetration_rate"`
	YouthInclusionRate float64                 `json:"youth_inclusion_rate"`
}

// HeatmapRow is one district's entry for map rendering.
type HeatmapRow struct {
	State           string                  `json:"state"`
	District        string                  `json:"district"`
	RiskScore       float64                 `json:"risk_score"`
	RiskCategory    enrollment.RiskCategory `json:"risk_category"`
	PenetrationRate float64                 `json:"penetration_rate"`
	TotalPopulation int64                   `json:"total_population"`
}

// TrendPoint is one step of the national time series.
type TrendPoint struct {
	Date            time.Time `json:"date"`
	Enrollments     int64     `json:"enrollments"`
	Population      int64     `json:"population"`
	PenetrationRate float64   `json:"penetration_rate"`
}

// Distribution counts districts per risk category.
type Distribution map[enrollment.RiskCategory]int

// Overview sums the latest-period figures of every district. The sum of
// per-state populations reproduces this total exactly; districts are counted
// once each.
func Overview(results []enrollment.DistrictResult) NationalOverview {
	var o NationalOverview
	var youthEnrolled, youthPop, adultEnrolled, adultPop int64
	states := make(map[string]struct{})

	for _, r := range results {
		a := r.Analytics
		o.TotalEnrollments += a.TotalEnrollments
		o.TotalPopulation += a.TotalPopulation
		youthEnrolled += a.YouthEnrolled
		youthPop += a.YouthPopulation
		adultEnrolled += a.AdultEnrolled
		adultPop += a.AdultPopulation
		states[a.State] = struct{}{}
	}

	o.OverallPenetrationRate = cappedRate(o.TotalEnrollments, o.TotalPopulation)
	o.YouthPenetrationRate = cappedRate(youthEnrolled, youthPop)
	o.AdultPenetrationRate = cappedRate(adultEnrolled, adultPop)
	o.CoverageGap = 1 - o.OverallPenetrationRate
	o.NumStates = len(states)
	o.NumDistricts = len(results)
	return o
}

// ByState groups results into per-state aggregates, sorted by state name.
func ByState(results []enrollment.DistrictResult) []StateAggregate {
	grouped := make(map[string][]enrollment.DistrictResult)
	for _, r := range results {
		grouped[r.Analytics.State] = append(grouped[r.Analytics.State], r)
	}

	out := make([]StateAggregate, 0, len(grouped))
	for state, rs := range grouped {
		agg := StateAggregate{State: state, NumDistricts: len(rs)}
		var riskSum float64
		for _, r := range rs {
			agg.TotalEnrollments += r.Analytics.TotalEnrollments
			agg.TotalPopulation += r.Analytics.TotalPopulation
			riskSum += r.Risk.CompositeRiskScore
			if r.Risk.CompositeRiskScore > agg.MaxRiskScore {
				agg.MaxRiskScore = r.Risk.CompositeRiskScore
			}
		}
		agg.AvgPenetrationRate = cappedRate(agg.TotalEnrollments, agg.TotalPopulation)
		agg.AvgRiskScore = riskSum / float64(len(rs))
		out = append(out, agg)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].State < out[j].State })
	return out
}

// RiskDistribution counts districts per category. Every category is present
// in the result, including zero counts.
func RiskDistribution(results []enrollment.DistrictResult) Distribution {
	dist := Distribution{
		enrollment.RiskLow:    0,
		enrollment.RiskMedium: 0,
		enrollment.RiskHigh:   0,
	}
	for _, r := range results {
		dist[r.Risk.RiskCategory]++
	}
	return dist
}

// Rankings returns the top-N highest-risk districts: stable descending sort
// on composite score with (state, district) as the deterministic tie-break.
// limit <= 0 or beyond the result count returns all districts.
func Rankings(results []enrollment.DistrictResult, limit int) []RankedDistrict {
	ranked := make([]RankedDistrict, 0, len(results))
	for _, r := range results {
		ranked = append(ranked, RankedDistrict{
			State:              r.Analytics.State,
			District:           r.Analytics.District,
			RiskScore:          r.Risk.CompositeRiskScore,
			RiskCategory:       r.Risk.RiskCategory,
			PenetrationRate:    r.Analytics.LatestPenetrationRate,
			YouthInclusionRate: r.Analytics.YouthInclusionRate,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].RiskScore != ranked[j].RiskScore {
			return ranked[i].RiskScore > ranked[j].RiskScore
		}
		if ranked[i].State != ranked[j].State {
			return ranked[i].State < ranked[j].State
		}
		return ranked[i].District < ranked[j].District
	})

	if limit > 0 && limit < len(ranked) {
		ranked = ranked[:limit]
	}
	return ranked
}

// Heatmap returns one row per district in (state, district) order.
func Heatmap(results []enrollment.DistrictResult) []HeatmapRow {
	rows := make([]HeatmapRow, 0, len(results))
	for _, r := range results {
		rows = append(rows, HeatmapRow{
			State:           r.Analytics.State,
			District:        r.Analytics.District,
			RiskScore:       r.Risk.CompositeRiskScore,
			RiskCategory:    r.Risk.RiskCategory,
			PenetrationRate: r.Analytics.LatestPenetrationRate,
			TotalPopulation: r.Analytics.TotalPopulation,
		})
	}
	return rows
}

// NationalTrends sums enrollments and population per period date across all
// series and derives the national penetration rate from the aggregated
// totals, not from a mean of district rates.
func NationalTrends(allSeries []enrollment.DistrictTimeSeries) []TrendPoint {
	byDate := make(map[time.Time]*TrendPoint)
	for _, s := range allSeries {
		for _, p := range s.Periods {
			point, ok := byDate[p.Date]
			if !ok {
				point = &TrendPoint{Date: p.Date}
				byDate[p.Date] = point
			}
			point.Enrollments += p.TotalEnrollments
			point.Population += p.TotalPopulation
		}
	}

	out := make([]TrendPoint, 0, len(byDate))
	for _, point := range byDate {
		point.PenetrationRate = cappedRate(point.Enrollments, point.Population)
		out = append(out, *point)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

func cappedRate(numerator, denominator int64) float64 {
	if denominator <= 0 {
		return 0
	}
	rate := float64(numerator) / float64(denominator)
	if rate > 1 {
		return 1
	}
	return rate
}
