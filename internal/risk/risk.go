// Package risk turns district analytics into a weighted composite risk score
// with explainable sub-components and a category.
package risk

import (
	"fmt"
	"math"

	"niis/internal/enrollment"
)

// Config holds the scoring constants. It is an immutable value passed into the
// scorer so tests can override thresholds without cross-test interference.
type Config struct {
	// Component weights. Must sum to exactly 1.0.
	PenetrationWeight float64
	GrowthWeight      float64
	YouthWeight       float64
	VolatilityWeight  float64
	StagnationWeight  float64

	// GrowthSlopeScale maps slope to growth risk via 0.5 - scale*slope.
	// Scale 10 means slopes of ±0.05 rate per period saturate the range.
	GrowthSlopeScale float64

	// VolatilityReference normalizes volatility to [0,1].
	VolatilityReference float64

	// Category boundaries: [0, LowMax) Low, [LowMax, MediumMax) Medium,
	// [MediumMax, 1] High.
	LowMax    float64
	MediumMax float64
}

// DefaultConfig returns the production scoring constants.
func DefaultConfig() Config {
	return Config{
		PenetrationWeight:   0.35,
		GrowthWeight:        0.25,
		YouthWeight:         0.20,
		VolatilityWeight:    0.10,
		StagnationWeight:    0.10,
		GrowthSlopeScale:    10.0,
		VolatilityReference: 0.05,
		LowMax:              0.3,
		MediumMax:           0.6,
	}
}

// Validate rejects configs whose weights do not sum to 1 or whose category
// boundaries are not an ordered partition of [0,1].
func (c Config) Validate() error {
	sum := c.PenetrationWeight + c.GrowthWeight + c.YouthWeight + c.VolatilityWeight + c.StagnationWeight
	if math.Abs(sum-1.0) > 1e-9 {
		return fmt.Errorf("risk weights must sum to 1.0, got %v", sum)
	}
	if c.GrowthSlopeScale <= 0 {
		return fmt.Errorf("growth slope scale must be positive")
	}
	if c.VolatilityReference <= 0 {
		return fmt.Errorf("volatility reference must be positive")
	}
	if !(0 < c.LowMax && c.LowMax < c.MediumMax && c.MediumMax <= 1) {
		return fmt.Errorf("category boundaries must satisfy 0 < low < medium <= 1")
	}
	return nil
}

// Scorer computes risk scores. Pure and safe for concurrent use.
type Scorer struct {
	cfg Config
}

// NewScorer builds a Scorer after validating the config.
func NewScorer(cfg Config) (*Scorer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Scorer{cfg: cfg}, nil
}

// Score derives the five risk components and the weighted composite for one
// district. Out-of-range rates are clamped defensively rather than rejected;
// every output lands in [0,1].
func (s *Scorer) Score(a enrollment.DistrictAnalytics) enrollment.RiskScore {
	cfg := s.cfg

	components := enrollment.RiskComponents{
		Penetration: clamp01(1 - clamp01(a.LatestPenetrationRate)),
		Growth:      clamp01(0.5 - cfg.GrowthSlopeScale*a.GrowthSlope),
		Youth:       clamp01(1 - clamp01(a.YouthInclusionRate)),
		Volatility:  clamp01(a.GrowthVolatility / cfg.VolatilityReference),
		Stagnation:  stagnationRisk(a.StagnationPeriods, a.DataPoints),
	}

	composite := clamp01(
		cfg.PenetrationWeight*components.Penetration +
			cfg.GrowthWeight*components.Growth +
			cfg.YouthWeight*components.Youth +
			cfg.VolatilityWeight*components.Volatility +
			cfg.StagnationWeight*components.Stagnation,
	)

	return enrollment.RiskScore{
		State:              a.State,
		District:           a.District,
		CompositeRiskScore: composite,
		RiskCategory:       s.Categorize(composite),
		Components:         components,
	}
}

// Categorize maps a composite score to its category. The intervals are
// half-open with inclusive lower bounds, so every score in [0,1] maps to
// exactly one category.
func (s *Scorer) Categorize(score float64) enrollment.RiskCategory {
	switch {
	case score < s.cfg.LowMax:
		return enrollment.RiskLow
	case score < s.cfg.MediumMax:
		return enrollment.RiskMedium
	default:
		return enrollment.RiskHigh
	}
}

func stagnationRisk(stagnant, totalPeriods int) float64 {
	if totalPeriods <= 0 {
		return 0
	}
	return clamp01(float64(stagnant) / float64(totalPeriods))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
