// Package series collapses raw per-record observations into one ordered
// monthly series per district and validates the result before analysis.
package series

import (
	"sort"

	"niis/internal/enrollment"
	pkgerrors "niis/pkg/errors"
)

// Row is one merged observation for a district and period, as produced by the
// ingest layer.
type Row struct {
	State    string
	District string
	Period   enrollment.Period
}

// Build groups observations by district, orders each group ascending by date,
// and derives per-period penetration rates. Duplicate (district, date) rows
// have their counts summed, matching the merge semantics of the source
// datasets. Output order is deterministic: sorted by (state, district).
func Build(observations []Row) []enrollment.DistrictTimeSeries {
	grouped := make(map[enrollment.DistrictKey][]enrollment.Period)
	for _, obs := range observations {
		key := enrollment.DistrictKey{State: obs.State, District: obs.District}
		grouped[key] = append(grouped[key], obs.Period)
	}

	out := make([]enrollment.DistrictTimeSeries, 0, len(grouped))
	for key, periods := range grouped {
		out = append(out, enrollment.DistrictTimeSeries{
			State:    key.State,
			District: key.District,
			Periods:  collapse(periods),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].State != out[j].State {
			return out[i].State < out[j].State
		}
		return out[i].District < out[j].District
	})
	return out
}

// collapse sorts periods ascending, sums duplicates sharing a date, and
// recomputes penetration rates.
func collapse(periods []enrollment.Period) []enrollment.Period {
	sort.Slice(periods, func(i, j int) bool {
		return periods[i].Date.Before(periods[j].Date)
	})

	out := make([]enrollment.Period, 0, len(periods))
	for _, p := range periods {
		if n := len(out); n > 0 && out[n-1].Date.Equal(p.Date) {
			out[n-1] = sum(out[n-1], p)
			continue
		}
		out = append(out, p)
	}

	for i := range out {
		out[i].PenetrationRate = penetrationRate(out[i])
	}
	return out
}

func sum(a, b enrollment.Period) enrollment.Period {
	a.TotalPopulation += b.TotalPopulation
	a.TotalEnrollments += b.TotalEnrollments
	a.ChildEnrolled += b.ChildEnrolled
	a.YouthEnrolled += b.YouthEnrolled
	a.AdultEnrolled += b.AdultEnrolled
	a.YouthPopulation += b.YouthPopulation
	a.AdultPopulation += b.AdultPopulation
	return a
}

// penetrationRate caps at 1.0: enrollment counts occasionally exceed the
// demographic snapshot in the source data.
func penetrationRate(p enrollment.Period) float64 {
	if p.TotalPopulation <= 0 {
		return 0
	}
	rate := float64(p.TotalEnrollments) / float64(p.TotalPopulation)
	if rate > 1 {
		return 1
	}
	return rate
}

// Validate rejects malformed series before they reach the trend analyzer:
// empty series, non-ascending or duplicate dates, and negative counts. The
// returned error carries the offending district identity.
func Validate(s enrollment.DistrictTimeSeries) error {
	if len(s.Periods) == 0 {
		return pkgerrors.Newf(pkgerrors.CodeInvalidInput,
			"district %s/%s has no periods", s.State, s.District)
	}

	for i, p := range s.Periods {
		if p.TotalPopulation < 0 || p.TotalEnrollments < 0 ||
			p.ChildEnrolled < 0 || p.YouthEnrolled < 0 || p.AdultEnrolled < 0 ||
			p.YouthPopulation < 0 || p.AdultPopulation < 0 {
			return pkgerrors.Newf(pkgerrors.CodeInvalidInput,
				"district %s/%s has negative counts at period %s",
				s.State, s.District, p.Date.Format("2006-01-02"))
		}
		if i > 0 && !s.Periods[i-1].Date.Before(p.Date) {
			return pkgerrors.Newf(pkgerrors.CodeInvalidInput,
				"district %s/%s periods not strictly ascending at %s",
				s.State, s.District, p.Date.Format("2006-01-02"))
		}
	}
	return nil
}
