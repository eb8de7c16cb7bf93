// Package trend extracts growth features from a district's penetration-rate
// series: least-squares slope, first-difference volatility, and stagnation
// period count.
package trend

import (
	"math"

	"niis/internal/enrollment"
)

// DefaultStagnationThreshold is the period-over-period rate change at or below
// which a period counts as stagnant. Near zero: flat or declining periods are
// stagnant, any meaningful growth is not.
const DefaultStagnationThreshold = 0.001

// Features are the trend outputs for one district.
//
// Volatility is the population standard deviation of raw first differences of
// the rate series, and period spacing is treated as uniform regardless of
// calendar gaps. Both choices are fixed so repeated runs over the same input
// reproduce identical results.
type Features struct {
	GrowthSlope       float64
	GrowthVolatility  float64
	StagnationPeriods int

	// Valid is false when fewer than two periods had positive population. The
	// remaining fields then hold defined fallbacks (all zero), not garbage.
	Valid bool
}

// Analyzer fits trends over district series. Safe for concurrent use; it holds
// only configuration.
type Analyzer struct {
	stagnationThreshold float64
}

// Option overrides analyzer configuration.
type Option func(*Analyzer)

// WithStagnationThreshold overrides the stagnation cutoff, mainly for tests.
func WithStagnationThreshold(threshold float64) Option {
	return func(a *Analyzer) {
		a.stagnationThreshold = threshold
	}
}

// NewAnalyzer builds an Analyzer with default thresholds.
func NewAnalyzer(opts ...Option) *Analyzer {
	a := &Analyzer{stagnationThreshold: DefaultStagnationThreshold}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze derives trend features from a series whose periods are already
// sorted ascending by date. Periods without positive population are excluded
// from rate statistics. Degenerate series (fewer than two usable periods)
// yield zero features with Valid=false, never an error.
func (a *Analyzer) Analyze(series enrollment.DistrictTimeSeries) Features {
	rates := usableRates(series.Periods)
	if len(rates) < 2 {
		return Features{}
	}

	diffs := make([]float64, 0, len(rates)-1)
	stagnant := 0
	for i := 1; i < len(rates); i++ {
		d := rates[i] - rates[i-1]
		diffs = append(diffs, d)
		if d <= a.stagnationThreshold {
			stagnant++
		}
	}

	return Features{
		GrowthSlope:       slope(rates),
		GrowthVolatility:  populationStdDev(diffs),
		StagnationPeriods: stagnant,
		Valid:             true,
	}
}

func usableRates(periods []enrollment.Period) []float64 {
	rates := make([]float64, 0, len(periods))
	for _, p := range periods {
		if p.TotalPopulation > 0 {
			rates = append(rates, p.PenetrationRate)
		}
	}
	return rates
}

// slope is the ordinary least squares slope of rate against ordinal index
// t = 0, 1, 2, ... (equal spacing assumed).
func slope(rates []float64) float64 {
	n := float64(len(rates))

	var sumT, sumY, sumTY, sumTT float64
	for i, y := range rates {
		t := float64(i)
		sumT += t
		sumY += y
		sumTY += t * y
		sumTT += t * t
	}

	denom := n*sumTT - sumT*sumT
	if denom == 0 {
		return 0
	}
	return (n*sumTY - sumT*sumY) / denom
}

// populationStdDev divides by n, not n-1. The diffs are the full population of
// observed changes, not a sample.
func populationStdDev(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	mean := sum / float64(len(xs))

	var sq float64
	for _, x := range xs {
		d := x - mean
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(xs)))
}
