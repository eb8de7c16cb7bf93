// Package enrollment holds the domain model shared by the analytics pipeline:
// district time series in, analytics + risk scores + recommendations out.
package enrollment

import "time"

// Period is one observation in a district's monthly series. Enrollment counts
// are cumulative as of the period date; population figures come from the
// matching demographic snapshot.
type Period struct {
	Date             time.Time `json:"date"`
	TotalPopulation  int64     `json:"population"`
	TotalEnrollments int64     `json:"enrollments"`
	ChildEnrolled    int64     `json:"age_0_5,omitempty"`
	YouthEnrolled    int64     `json:"age_5_17"`
	AdultEnrolled    int64     `json:"age_18_greater"`
	YouthPopulation  int64     `json:"demo_age_5_17"`
	AdultPopulation  int64     `json:"demo_age_18_greater"`

	// PenetrationRate is enrollments over population for this period, clamped
	// to [0,1]. Zero when the period has no positive population.
	PenetrationRate float64 `json:"penetration_rate"`
}

// DistrictKey identifies a district. State plus district name is unique in the
// source datasets once names are normalized.
type DistrictKey struct {
	State    string
	District string
}

// DistrictTimeSeries is the ordered per-district input to the pipeline.
// Periods are ascending by date with no duplicates.
type DistrictTimeSeries struct {
	State    string
	District string
	Periods  []Period
}

// Key returns the district identity.
func (s DistrictTimeSeries) Key() DistrictKey {
	return DistrictKey{State: s.State, District: s.District}
}

// DistrictAnalytics is the derived feature set for one district. Computed once
// per run and never mutated afterwards.
type DistrictAnalytics struct {
	State                 string  `json:"state"`
	District              string  `json:"district"`
	TotalEnrollments      int64   `json:"total_enrollments"`
	TotalPopulation       int64   `json:"total_population"`
	AvgPenetrationRate    float64 `json:"avg_penetration_rate"`
	LatestPenetrationRate float64 `json:"latest_penetration_rate"`
	YouthInclusionRate    float64 `json:"youth_inclusion_rate"`
	AdultInclusionRate    float64 `json:"adult_inclusion_rate"`

	// YouthAdultGap is signed: positive when youth inclusion leads adult
	// inclusion. Rules that care about magnitude take the absolute value.
	YouthAdultGap     float64 `json:"youth_adult_gap"`
	GrowthSlope       float64 `json:"growth_slope"`
	GrowthVolatility  float64 `json:"growth_volatility"`
	StagnationPeriods int     `json:"stagnation_periods"`
	DataPoints        int     `json:"data_points"`

	// TrendValid is false when the series had fewer than two periods with
	// positive population, in which case the trend fields hold fallback zeros.
	TrendValid bool `json:"trend_valid"`

	// Latest age-band totals carried for state and national rollups only.
	YouthEnrolled   int64 `json:"-"`
	YouthPopulation int64 `json:"-"`
	AdultEnrolled   int64 `json:"-"`
	AdultPopulation int64 `json:"-"`
}

// RiskCategory buckets a composite score.
type RiskCategory string

const (
	RiskLow    RiskCategory = "Low Risk"
	RiskMedium RiskCategory = "Medium Risk"
	RiskHigh   RiskCategory = "High Risk"
)

// RiskComponents are the five normalized risk factors, each in [0,1].
type RiskComponents struct {
	Penetration float64 `json:"penetration_risk"`
	Growth      float64 `json:"growth_risk"`
	Youth       float64 `json:"youth_risk"`
	Volatility  float64 `json:"volatility_risk"`
	Stagnation  float64 `json:"stagnation_risk"`
}

// RiskScore is the scored output for one district. The composite is a pure
// function of the components; the category is a pure function of the
// composite. Never persisted by the core, recomputed per run.
type RiskScore struct {
	State              string         `json:"state"`
	District           string         `json:"district"`
	CompositeRiskScore float64        `json:"composite_risk_score"`
	RiskCategory       RiskCategory   `json:"risk_category"`
	Components         RiskComponents `json:"risk_components"`
}

// Priority orders interventions. Critical outranks High outranks Medium
// outranks Low.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

// Rank returns the sort rank for a priority; lower sorts first.
func (p Priority) Rank() int {
	switch p {
	case PriorityCritical:
		return 0
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 3
	default:
		return 4
	}
}

// Recommendation is one rule-derived intervention for a district.
type Recommendation struct {
	Intervention   string   `json:"intervention"`
	Priority       Priority `json:"priority"`
	Description    string   `json:"description"`
	ExpectedImpact string   `json:"expected_impact"`
}

// DistrictResult bundles everything the pipeline produces for one district.
type DistrictResult struct {
	Analytics       DistrictAnalytics `json:"analytics"`
	Risk            RiskScore         `json:"risk"`
	Recommendations []Recommendation  `json:"recommendations"`
}
