// Package insights derives narrative policy findings from the aggregated
// batch output for national and state audiences.
package insights

import (
	"fmt"
	"sort"
	"strings"

	"niis/internal/aggregate"
	"niis/internal/enrollment"
)

// Severity grades an insight.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
)

// Insight is one policy finding with its suggested follow-up.
type Insight struct {
	Category       string   `json:"category"`
	Severity       Severity `json:"severity"`
	Insight        string   `json:"insight"`
	Recommendation string   `json:"recommendation"`
}

// Thresholds for national findings.
const (
	coverageGapAlert       = 0.3
	penetrationImbalance   = 0.2
	highRiskShareAlert     = 0.2
	stateAvgRiskAlert      = 0.6
	statePenetrationFloor  = 0.5
	districtHighRiskFloor  = 0.6
)

// Policy produces national-level findings from the overview, the category
// distribution, and the per-state summaries.
func Policy(overview aggregate.NationalOverview, dist aggregate.Distribution, states []aggregate.StateAggregate) []Insight {
	var out []Insight

	if overview.CoverageGap > coverageGapAlert {
		unenrolled := int64(float64(overview.TotalPopulation) * overview.CoverageGap)
		out = append(out, Insight{
			Category: "National Coverage",
			Severity: SeverityHigh,
			Insight: fmt.Sprintf("National coverage gap is %.1f%%. Approximately %d individuals remain unenrolled.",
				overview.CoverageGap*100, unenrolled),
			Recommendation: "Launch nationwide enrollment acceleration program targeting uncovered populations.",
		})
	}

	youth, adult := overview.YouthPenetrationRate, overview.AdultPenetrationRate
	if diff := youth - adult; diff < -penetrationImbalance || diff > penetrationImbalance {
		if youth < adult {
			out = append(out, Insight{
				Category: "Youth Inclusion",
				Severity: SeverityHigh,
				Insight: fmt.Sprintf("Youth penetration (%.1f%%) lags behind adult penetration (%.1f%%) by %.1f percentage points.",
					youth*100, adult*100, (adult-youth)*100),
				Recommendation: "Prioritize school-based enrollment drives and partnerships with educational institutions.",
			})
		} else {
			out = append(out, Insight{
				Category: "Adult Inclusion",
				Severity: SeverityMedium,
				Insight: fmt.Sprintf("Adult penetration (%.1f%%) lags behind youth penetration (%.1f%%) by %.1f percentage points.",
					adult*100, youth*100, (youth-adult)*100),
				Recommendation: "Deploy workplace and community-based enrollment campaigns for adults.",
			})
		}
	}

	totalDistricts := 0
	for _, n := range dist {
		totalDistricts += n
	}
	highRisk := dist[enrollment.RiskHigh]
	if totalDistricts > 0 && float64(highRisk) > float64(totalDistricts)*highRiskShareAlert {
		out = append(out, Insight{
			Category: "Risk Concentration",
			Severity: SeverityCritical,
			Insight: fmt.Sprintf("%d districts (%.1f%%) are classified as high-risk, indicating systemic challenges.",
				highRisk, float64(highRisk)/float64(totalDistricts)*100),
			Recommendation: "Establish dedicated task force for high-risk districts with enhanced resources and monitoring.",
		})
	}

	var elevated []string
	for _, s := range states {
		if s.AvgRiskScore > stateAvgRiskAlert {
			elevated = append(elevated, s.State)
		}
	}
	if len(elevated) > 0 {
		top := elevated
		if len(top) > 5 {
			top = top[:5]
		}
		out = append(out, Insight{
			Category: "State-Level Challenges",
			Severity: SeverityHigh,
			Insight: fmt.Sprintf("%d states show elevated average risk scores. Top concerns: %s.",
				len(elevated), strings.Join(top, ", ")),
			Recommendation: "Provide state-specific technical assistance and additional funding allocation.",
		})
	}

	return out
}

// State produces findings for a single state from its aggregate and its
// districts' scored results.
func State(agg aggregate.StateAggregate, results []enrollment.DistrictResult) []Insight {
	var out []Insight

	if agg.AvgPenetrationRate < statePenetrationFloor {
		out = append(out, Insight{
			Category: "State Penetration",
			Severity: SeverityHigh,
			Insight: fmt.Sprintf("%s has an average penetration rate of %.1f%%, below the recommended threshold.",
				agg.State, agg.AvgPenetrationRate*100),
			Recommendation: "Implement state-wide enrollment acceleration program.",
		})
	}

	var highRisk []enrollment.DistrictResult
	for _, r := range results {
		if r.Risk.CompositeRiskScore > districtHighRiskFloor {
			highRisk = append(highRisk, r)
		}
	}
	if len(highRisk) > 0 {
		sort.SliceStable(highRisk, func(i, j int) bool {
			return highRisk[i].Risk.CompositeRiskScore > highRisk[j].Risk.CompositeRiskScore
		})
		names := make([]string, 0, 3)
		for _, r := range highRisk {
			names = append(names, r.Analytics.District)
			if len(names) == 3 {
				break
			}
		}
		out = append(out, Insight{
			Category: "High-Risk Districts",
			Severity: SeverityCritical,
			Insight: fmt.Sprintf("%d districts in %s are high-risk. Priority districts: %s.",
				len(highRisk), agg.State, strings.Join(names, ", ")),
			Recommendation: "Deploy rapid response teams to high-risk districts for immediate intervention.",
		})
	}

	severity := SeverityMedium
	if agg.AvgRiskScore >= 0.5 {
		severity = SeverityHigh
	}
	out = append(out, Insight{
		Category:       "Overall State Risk",
		Severity:       severity,
		Insight:        fmt.Sprintf("%s has an average risk score of %.2f.", agg.State, agg.AvgRiskScore),
		Recommendation: "Continue monitoring and adjust intervention strategies based on district-level performance.",
	})

	return out
}
