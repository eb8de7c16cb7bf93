// Package recommend evaluates a fixed table of threshold rules against a
// district's analytics and risk output to produce prioritized interventions.
package recommend

import (
	"sort"

	"niis/internal/enrollment"
)

// Rule is one row of the intervention table: a pure predicate over the
// district's analytics and risk, plus the intervention it triggers. Rules are
// independent; every applicable rule fires.
type Rule struct {
	Name           string
	Applies        func(enrollment.DistrictAnalytics, enrollment.RiskScore) bool
	Intervention   string
	Priority       enrollment.Priority
	Description    string
	ExpectedImpact string
}

// Thresholds used by the rule table.
const (
	minYouthInclusion    = 0.50
	maxStagnationPeriods = 3
	minPenetration       = 0.40
	maxVolatility        = 0.30
	minAdultInclusion    = 0.60
	maxYouthAdultGap     = 0.25
)

// ruleTable is static configuration data, never mutated at runtime. Order
// matters only as the stable tie-break within a priority level.
var ruleTable = []Rule{
	{
		Name: "low_youth_enrollment",
		Applies: func(a enrollment.DistrictAnalytics, _ enrollment.RiskScore) bool {
			return a.YouthInclusionRate < minYouthInclusion
		},
		Intervention:   "School-Based Enrollment Drives",
		Priority:       enrollment.PriorityHigh,
		Description:    "Youth inclusion rate is below 50%. Deploy mobile enrollment units to schools and educational institutions.",
		ExpectedImpact: "Increase youth enrollment by 15-25% within 6 months",
	},
	{
		Name: "stagnation_detected",
		Applies: func(a enrollment.DistrictAnalytics, _ enrollment.RiskScore) bool {
			return a.StagnationPeriods > maxStagnationPeriods
		},
		Intervention:   "Community Outreach Campaign",
		Priority:       enrollment.PriorityHigh,
		Description:    "Enrollment growth has stagnated over multiple periods. Launch targeted awareness campaigns.",
		ExpectedImpact: "Revitalize enrollment growth momentum",
	},
	{
		Name: "low_penetration",
		Applies: func(a enrollment.DistrictAnalytics, _ enrollment.RiskScore) bool {
			return a.LatestPenetrationRate < minPenetration
		},
		Intervention:   "Intensive Enrollment Push",
		Priority:       enrollment.PriorityCritical,
		Description:    "Overall penetration is below 40%. Immediate large-scale intervention required.",
		ExpectedImpact: "Achieve 60% penetration within 12 months",
	},
	{
		Name: "high_volatility",
		Applies: func(a enrollment.DistrictAnalytics, _ enrollment.RiskScore) bool {
			return a.GrowthVolatility > maxVolatility
		},
		Intervention:   "Infrastructure Review",
		Priority:       enrollment.PriorityMedium,
		Description:    "High enrollment volatility detected. Review and stabilize enrollment infrastructure.",
		ExpectedImpact: "Stabilize enrollment patterns and improve predictability",
	},
	{
		Name: "low_adult_enrollment",
		Applies: func(a enrollment.DistrictAnalytics, _ enrollment.RiskScore) bool {
			return a.AdultInclusionRate < minAdultInclusion
		},
		Intervention:   "Mobile Enrollment Camps",
		Priority:       enrollment.PriorityMedium,
		Description:    "Adult inclusion rate is low. Deploy mobile camps to workplaces and community centers.",
		ExpectedImpact: "Increase adult enrollment by 10-20% within 6 months",
	},
	{
		Name: "youth_adult_gap",
		Applies: func(a enrollment.DistrictAnalytics, _ enrollment.RiskScore) bool {
			gap := a.YouthAdultGap
			if gap < 0 {
				gap = -gap
			}
			return gap > maxYouthAdultGap
		},
		Intervention:   "Targeted Age-Group Campaigns",
		Priority:       enrollment.PriorityMedium,
		Description:    "Significant gap between youth and adult enrollment rates. Design age-specific interventions.",
		ExpectedImpact: "Reduce enrollment disparity between age groups",
	},
	{
		Name: "negative_growth",
		Applies: func(a enrollment.DistrictAnalytics, _ enrollment.RiskScore) bool {
			return a.GrowthSlope < 0
		},
		Intervention:   "Emergency Enrollment Recovery",
		Priority:       enrollment.PriorityCritical,
		Description:    "Enrollment is declining. Immediate investigation and corrective action required.",
		ExpectedImpact: "Reverse negative growth trend within 3 months",
	},
}

// Engine evaluates the rule table. Stateless and safe for concurrent use.
type Engine struct {
	rules []Rule
}

// NewEngine returns an engine over the standard rule table.
func NewEngine() *Engine {
	return &Engine{rules: ruleTable}
}

// Evaluate runs every rule against the district and returns the applicable
// interventions sorted by descending priority. Ties keep table order. An
// empty result means the district is performing adequately, not an error.
func (e *Engine) Evaluate(a enrollment.DistrictAnalytics, r enrollment.RiskScore) []enrollment.Recommendation {
	recs := make([]enrollment.Recommendation, 0, len(e.rules))
	for _, rule := range e.rules {
		if !rule.Applies(a, r) {
			continue
		}
		recs = append(recs, enrollment.Recommendation{
			Intervention:   rule.Intervention,
			Priority:       rule.Priority,
			Description:    rule.Description,
			ExpectedImpact: rule.ExpectedImpact,
		})
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Priority.Rank() < recs[j].Priority.Rank()
	})
	return recs
}

// PriorityBreakdown counts recommendations per priority level.
func PriorityBreakdown(recs []enrollment.Recommendation) map[enrollment.Priority]int {
	counts := map[enrollment.Priority]int{
		enrollment.PriorityCritical: 0,
		enrollment.PriorityHigh:     0,
		enrollment.PriorityMedium:   0,
		enrollment.PriorityLow:      0,
	}
	for _, r := range recs {
		counts[r.Priority]++
	}
	return counts
}
