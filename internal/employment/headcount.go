package employment

import (
	"sort"

	"finpipe/internal/key"
	"finpipe/internal/period"
)

// Headcount is the distinct number of participants an employer had at any
// point in a month. An employer with no employed days in a month simply does
// not appear for that month.
type Headcount struct {
	Employer int64
	Month    period.Period
	Workers  int
}

// Headcounts rolls the daily employment records up to (employer, month) and
// counts distinct participants. This is a plain distinct-count, not a
// streaming reduction: by this point the data is already one row per
// participant-day.
func Headcounts(days []DayRecord) []Headcount {
	seen := make(map[key.EntityPeriod]map[int64]struct{})
	for _, d := range days {
		k := key.EntityPeriod{Entity: d.Employer, Period: d.Day.MonthOf()}
		workers := seen[k]
		if workers == nil {
			workers = make(map[int64]struct{})
			seen[k] = workers
		}
		workers[d.Entity] = struct{}{}
	}

	out := make([]Headcount, 0, len(seen))
	for k, workers := range seen {
		out = append(out, Headcount{Employer: k.Entity, Month: k.Period, Workers: len(workers)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Employer != out[j].Employer {
			return out[i].Employer < out[j].Employer
		}
		return out[i].Month.Before(out[j].Month)
	})
	return out
}
