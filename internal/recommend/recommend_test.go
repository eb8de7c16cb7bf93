package recommend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"niis/internal/enrollment"
)

// healthyDistrict clears every rule threshold comfortably.
func healthyDistrict() enrollment.DistrictAnalytics {
	return enrollment.DistrictAnalytics{
		State:                 "Kerala",
		District:              "Ernakulam",
		LatestPenetrationRate: 0.85,
		YouthInclusionRate:    0.80,
		AdultInclusionRate:    0.82,
		YouthAdultGap:         -0.02,
		GrowthSlope:           0.02,
		GrowthVolatility:      0.05,
		StagnationPeriods:     1,
		DataPoints:            12,
	}
}

func interventions(recs []enrollment.Recommendation) []string {
	names := make([]string, 0, len(recs))
	for _, r := range recs {
		names = append(names, r.Intervention)
	}
	return names
}

func TestHealthyDistrictGetsNoRecommendations(t *testing.T) {
	e := NewEngine()
	recs := e.Evaluate(healthyDistrict(), enrollment.RiskScore{})
	assert.Empty(t, recs)
}

func TestLowPenetrationFiresCriticalPush(t *testing.T) {
	e := NewEngine()
	a := healthyDistrict()
	a.LatestPenetrationRate = 0.35

	recs := e.Evaluate(a, enrollment.RiskScore{})
	require.Len(t, recs, 1)
	assert.Equal(t, "Intensive Enrollment Push", recs[0].Intervention)
	assert.Equal(t, enrollment.PriorityCritical, recs[0].Priority)
}

func TestNegativeGrowthFiresEmergencyRecovery(t *testing.T) {
	e := NewEngine()
	a := healthyDistrict()
	a.GrowthSlope = -0.01

	recs := e.Evaluate(a, enrollment.RiskScore{})
	require.Len(t, recs, 1)
	assert.Equal(t, "Emergency Enrollment Recovery", recs[0].Intervention)
	assert.Equal(t, enrollment.PriorityCritical, recs[0].Priority)
}

func TestAllRulesFireIndependently(t *testing.T) {
	e := NewEngine()
	a := enrollment.DistrictAnalytics{
		LatestPenetrationRate: 0.30,
		YouthInclusionRate:    0.40,
		AdultInclusionRate:    0.50,
		YouthAdultGap:         -0.30,
		GrowthSlope:           -0.02,
		GrowthVolatility:      0.40,
		StagnationPeriods:     5,
		DataPoints:            8,
	}

	recs := e.Evaluate(a, enrollment.RiskScore{})
	assert.Len(t, recs, 7, "every rule should fire, no short-circuiting")
}

func TestRecommendationsSortedByPriorityWithStableTieBreak(t *testing.T) {
	e := NewEngine()
	a := healthyDistrict()
	a.LatestPenetrationRate = 0.35 // critical
	a.GrowthSlope = -0.01          // critical
	a.YouthInclusionRate = 0.45    // high
	a.AdultInclusionRate = 0.55    // medium

	recs := e.Evaluate(a, enrollment.RiskScore{})
	require.Len(t, recs, 4)
	assert.Equal(t, []string{
		// Criticals first, in table order; then high, then medium.
		"Intensive Enrollment Push",
		"Emergency Enrollment Recovery",
		"School-Based Enrollment Drives",
		"Mobile Enrollment Camps",
	}, interventions(recs))
}

func TestYouthAdultGapUsesMagnitude(t *testing.T) {
	e := NewEngine()

	a := healthyDistrict()
	a.YouthAdultGap = -0.30
	recs := e.Evaluate(a, enrollment.RiskScore{})
	assert.Contains(t, interventions(recs), "Targeted Age-Group Campaigns")

	a.YouthAdultGap = 0.30
	recs = e.Evaluate(a, enrollment.RiskScore{})
	assert.Contains(t, interventions(recs), "Targeted Age-Group Campaigns")
}

func TestStagnationBoundary(t *testing.T) {
	e := NewEngine()
	a := healthyDistrict()

	a.StagnationPeriods = 3
	assert.NotContains(t, interventions(e.Evaluate(a, enrollment.RiskScore{})),
		"Community Outreach Campaign", "threshold is strictly greater than 3")

	a.StagnationPeriods = 4
	assert.Contains(t, interventions(e.Evaluate(a, enrollment.RiskScore{})),
		"Community Outreach Campaign")
}

func TestPriorityBreakdown(t *testing.T) {
	recs := []enrollment.Recommendation{
		{Priority: enrollment.PriorityCritical},
		{Priority: enrollment.PriorityCritical},
		{Priority: enrollment.PriorityMedium},
	}

	counts := PriorityBreakdown(recs)
	assert.Equal(t, 2, counts[enrollment.PriorityCritical])
	assert.Equal(t, 0, counts[enrollment.PriorityHigh])
	assert.Equal(t, 1, counts[enrollment.PriorityMedium])
	assert.Equal(t, 0, counts[enrollment.PriorityLow])
}
