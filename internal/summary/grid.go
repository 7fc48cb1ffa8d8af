// Package summary reconciles the financial sources onto one canonical
// (participant, period) grid and finalizes the output schema.
//
// Grid semantics: the first non-empty source in priority order [balance
// aggregates, expense pivot, income aggregates] defines the initial grid.
// Income and expenses are then outer-joined on the full key, so the grid can
// grow: a transaction in a period with no balance reading introduces a new
// row. Demographics are left-joined on the participant alone and broadcast
// across that participant's periods. After the joins, absent financial values
// are zero (no activity is a real zero, not missing data) and absent
// demographic values are "Unknown".
package summary

import (
	"errors"
	"sort"

	"finpipe/internal/balance"
	"finpipe/internal/demographics"
	"finpipe/internal/journal"
	"finpipe/internal/key"
)

// ErrNoData is returned when every financial source is empty; the pipeline
// fails without writing output.
var ErrNoData = errors.New("no financial source data available to merge")

// Row is one merged participant-period before finalization.
type Row struct {
	Key key.EntityPeriod

	HasBalance       bool
	Start, End, Mean float64

	IncomeTotal float64
	IncomeCount int

	Pivot   *journal.PivotRow     // nil when the row has no expenses
	Profile *demographics.Profile // nil when the participant has no attribute row
}

// Grid is the merged table plus the discovered expense category set.
type Grid struct {
	Rows       []Row // sorted by key
	Categories []string

	// HasProfiles records whether the attribute source contributed at all.
	// When it did not, the finalizer synthesizes the demographic columns with
	// their declared defaults instead of the per-row missing-join fills.
	HasProfiles bool
}

// Build merges the sources. Any source may be empty (a missing input file is
// substituted upstream with its empty table); only all three financial
// sources empty is an error.
func Build(
	balances []balance.Final,
	incomes []journal.Income,
	pivot *journal.Pivot,
	profiles map[int64]demographics.Profile,
) (*Grid, error) {
	if len(balances) == 0 && pivot.Empty() && len(incomes) == 0 {
		return nil, ErrNoData
	}

	rows := make(map[key.EntityPeriod]*Row)
	at := func(k key.EntityPeriod) *Row {
		r := rows[k]
		if r == nil {
			r = &Row{Key: k}
			rows[k] = r
		}
		return r
	}

	// Base grid: balances when present; otherwise the pivot or income keys
	// seed it through the outer joins below.
	for _, b := range balances {
		r := at(b.Key)
		r.HasBalance = true
		r.Start, r.End, r.Mean = b.Start, b.End, b.MeanApprox
	}

	// Outer joins: these may introduce keys absent from the base grid.
	for _, in := range incomes {
		r := at(in.Key)
		r.IncomeTotal = in.Total
		r.IncomeCount = in.Count
	}
	if !pivot.Empty() {
		for i := range pivot.Rows {
			at(pivot.Rows[i].Key).Pivot = &pivot.Rows[i]
		}
	}

	// Demographics broadcast by participant.
	for _, r := range rows {
		if p, ok := profiles[r.Key.Entity]; ok {
			pc := p
			r.Profile = &pc
		}
	}

	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key.Less(out[j].Key) })

	var cats []string
	if !pivot.Empty() {
		cats = pivot.Categories
	}
	return &Grid{Rows: out, Categories: cats, HasProfiles: len(profiles) > 0}, nil
}
