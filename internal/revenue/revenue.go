// Package revenue estimates weekly venue-level revenue and foot traffic for
// pubs and restaurants.
//
// The journal does not link spending to venues directly, so revenue is
// estimated: weekly venue-category spending (absolute amounts over the Food
// and Recreation categories) is distributed across venues in proportion to
// each venue's share of that week's check-ins. Weeks begin Monday.
package revenue

import (
	"context"
	"fmt"
	"math"
	"sort"

	"finpipe/internal/datasource/file"
	"finpipe/internal/key"
	"finpipe/internal/parser/csv"
	"finpipe/internal/period"
	"finpipe/pkg/records"
)

// venueTypes are the venue categories the estimate covers.
var venueTypes = map[string]struct{}{"Pub": {}, "Restaurant": {}}

// spendingCategories are the journal categories counted as venue spending.
var spendingCategories = map[string]struct{}{"Food": {}, "Recreation": {}}

// VenueWeek is one venue's estimated week.
type VenueWeek struct {
	Week             period.Period
	Venue            int64
	VenueType        string
	CheckIns         int
	Revenue          float64
	AvgSpendPerVisit float64
}

// TypeWeek is the weekly rollup per venue type, used by the dual-axis trend
// view.
type TypeWeek struct {
	Week               period.Period
	VenueType          string
	CheckIns           int
	Revenue            float64
	VenueCount         int
	AvgRevenuePerVenue float64
}

// Sources names the three inputs.
type Sources struct {
	Venues    *file.Local
	Checkins  *file.Local
	Financial *file.Local
}

// Build produces the per-venue weekly estimates (sorted by week, then venue)
// and the per-type weekly rollup (sorted by week, then type). All three
// inputs are required; this pipeline has no meaningful degraded mode without
// a venue table or check-ins to apportion by.
func Build(ctx context.Context, srcs Sources) ([]VenueWeek, []TypeWeek, error) {
	venues, err := loadVenues(ctx, srcs.Venues)
	if err != nil {
		return nil, nil, err
	}

	traffic, err := loadCheckins(ctx, srcs.Checkins, venues)
	if err != nil {
		return nil, nil, err
	}

	spending, err := loadSpending(ctx, srcs.Financial)
	if err != nil {
		return nil, nil, err
	}

	// Weekly check-in totals over the covered venues.
	weekTotals := make(map[period.Period]int)
	for k, n := range traffic {
		weekTotals[k.Period] += n
	}

	rows := make([]VenueWeek, 0, len(traffic))
	for k, n := range traffic {
		total := weekTotals[k.Period]
		if total == 0 {
			total = 1
		}
		rev := spending[k.Period] * float64(n) / float64(total)
		avg := 0.0
		if n > 0 {
			avg = rev / float64(n)
		}
		rows = append(rows, VenueWeek{
			Week:             k.Period,
			Venue:            k.Entity,
			VenueType:        venues[k.Entity],
			CheckIns:         n,
			Revenue:          rev,
			AvgSpendPerVisit: avg,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Week != rows[j].Week {
			return rows[i].Week.Before(rows[j].Week)
		}
		return rows[i].Venue < rows[j].Venue
	})

	return rows, rollup(rows), nil
}

// loadVenues reads the venue attribute table and returns venueId → type for
// the covered venue types.
func loadVenues(ctx context.Context, src *file.Local) (map[int64]string, error) {
	r, err := src.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	p := csv.NewParser(csv.Options{HasHeader: true, TrimSpace: true})
	out := make(map[int64]string)
	_, err = p.ParseFunc(r, func(rec records.Record) error {
		id, ok := rec.Int64("venueId")
		if !ok {
			return nil
		}
		t := rec.String("type")
		if _, ok := venueTypes[t]; ok {
			out[id] = t
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("venues %s: %w", src.Path(), err)
	}
	return out, nil
}

// loadCheckins counts weekly check-ins per covered venue.
func loadCheckins(ctx context.Context, src *file.Local, venues map[int64]string) (map[key.EntityPeriod]int, error) {
	r, err := src.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	p := csv.NewParser(csv.Options{
		HasHeader: true,
		TrimSpace: true,
		Fields:    []string{"timestamp", "venueId"},
	})
	out := make(map[key.EntityPeriod]int)
	_, err = p.ParseFunc(r, func(rec records.Record) error {
		ts, ok := rec.Time("timestamp")
		if !ok {
			return nil
		}
		venue, ok := rec.Int64("venueId")
		if !ok {
			return nil
		}
		if _, covered := venues[venue]; !covered {
			return nil
		}
		out[key.EntityPeriod{Entity: venue, Period: period.Week.Truncate(ts)}]++
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("checkins %s: %w", src.Path(), err)
	}
	return out, nil
}

// loadSpending sums absolute venue-category spending per week.
func loadSpending(ctx context.Context, src *file.Local) (map[period.Period]float64, error) {
	r, err := src.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	p := csv.NewParser(csv.Options{
		HasHeader: true,
		TrimSpace: true,
		Fields:    []string{"timestamp", "category", "amount"},
	})
	out := make(map[period.Period]float64)
	_, err = p.ParseFunc(r, func(rec records.Record) error {
		if _, ok := spendingCategories[rec.String("category")]; !ok {
			return nil
		}
		ts, ok := rec.Time("timestamp")
		if !ok {
			return nil
		}
		amount, ok := rec.Float("amount")
		if !ok {
			return nil
		}
		out[period.Week.Truncate(ts)] += math.Abs(amount)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("financial %s: %w", src.Path(), err)
	}
	return out, nil
}

// rollup aggregates per-venue rows by (week, venue type).
func rollup(rows []VenueWeek) []TypeWeek {
	type tk struct {
		week  period.Period
		vtype string
	}
	agg := make(map[tk]*TypeWeek)
	for _, r := range rows {
		k := tk{r.Week, r.VenueType}
		g := agg[k]
		if g == nil {
			g = &TypeWeek{Week: r.Week, VenueType: r.VenueType}
			agg[k] = g
		}
		g.CheckIns += r.CheckIns
		g.Revenue += r.Revenue
		g.VenueCount++
	}

	out := make([]TypeWeek, 0, len(agg))
	for _, g := range agg {
		n := g.VenueCount
		if n == 0 {
			n = 1
		}
		g.AvgRevenuePerVenue = g.Revenue / float64(n)
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Week != out[j].Week {
			return out[i].Week.Before(out[j].Week)
		}
		return out[i].VenueType < out[j].VenueType
	})
	return out
}
