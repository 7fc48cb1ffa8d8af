package summary

import (
	"strings"

	"finpipe/internal/demographics"
	"finpipe/internal/journal"
)

// Table is the finalized output: a fixed column order and typed cells
// (int64, float64, or string) ready for the storage sinks. Count-typed
// columns carry int64, amount/balance columns float64.
type Table struct {
	Columns []string
	Rows    [][]any
}

// fixedColumns is the declared schema ahead of the dynamic expense columns:
// identity, demographics, balances, financial totals.
var fixedColumns = []string{
	"participantId", "Month",
	"age", "age_group", "educationLevel", "householdSize", "household_size_group",
	"haveKids", "haveKids_group", "interestGroup", "joviality", "joviality_group",
	"start_balance", "end_balance", "mean_balance",
	"logged_income_total", "logged_income_count",
	"logged_expense_total", "logged_expense_count",
	"net_logged_change",
}

// Finalize enforces the output schema on a merged grid: fixed column order,
// then one amount column per discovered expense category in sorted order.
// The per-category transaction counts feed logged_expense_count but are not
// emitted as columns.
//
// Columns whose source was entirely absent still appear, holding the
// type-appropriate default (0 for numeric-named columns, "Unknown"
// otherwise), so the output shape is stable regardless of which upstream
// sources were available. mean_balance aliases the mean-of-chunk-means
// approximation; net_logged_change is income minus expense totals, both with
// their natural signs.
func Finalize(g *Grid) *Table {
	cols := make([]string, 0, len(fixedColumns)+len(g.Categories))
	cols = append(cols, fixedColumns...)
	for _, c := range g.Categories {
		cols = append(cols, journal.AmountColumn(c))
	}

	t := &Table{Columns: cols, Rows: make([][]any, 0, len(g.Rows))}
	for i := range g.Rows {
		t.Rows = append(t.Rows, finalizeRow(g, &g.Rows[i]))
	}
	return t
}

// demographicColumns is the slice of fixedColumns the attribute source owns.
var demographicColumns = fixedColumns[2:12]

func finalizeRow(g *Grid, r *Row) []any {
	out := make([]any, 0, len(fixedColumns)+len(g.Categories))
	out = append(out, r.Key.Entity, r.Key.Period.String())

	// Demographics. Three cases: a joined profile passes raw values through
	// verbatim with derived buckets; a participant absent from a present
	// attribute table gets empty raw cells and Unknown buckets; an entirely
	// absent attribute source synthesizes every demographic column with its
	// declared default.
	switch p := r.Profile; {
	case p != nil:
		out = append(out,
			p.Age, p.AgeGroup, p.EducationLevel,
			p.HouseholdSize, p.HouseholdSizeGroup,
			normalizeBool(p.HaveKids), p.HaveKidsGroup.String(),
			p.InterestGroup, p.Joviality, p.JovialityGroup,
		)
	case g.HasProfiles:
		out = append(out,
			"", demographics.Unknown, demographics.Unknown,
			"", demographics.Unknown,
			"", demographics.Unknown,
			demographics.Unknown, "", demographics.Unknown,
		)
	default:
		for _, col := range demographicColumns {
			out = append(out, DefaultFor(col))
		}
	}

	out = append(out, r.Start, r.End, r.Mean)
	out = append(out, r.IncomeTotal, int64(r.IncomeCount))

	var expenseTotal float64
	var expenseCount int64
	if r.Pivot != nil {
		expenseTotal = r.Pivot.ExpenseTotal
		expenseCount = int64(r.Pivot.ExpenseCount)
	}
	out = append(out, expenseTotal, expenseCount)
	out = append(out, r.IncomeTotal-expenseTotal)

	for _, c := range g.Categories {
		if r.Pivot != nil {
			out = append(out, r.Pivot.Cell(c).Amount)
		} else {
			out = append(out, 0.0)
		}
	}
	return out
}

// DefaultFor returns the synthesized value for a declared column that never
// appeared in any source: zero for columns named like numbers, Unknown for
// the categorical rest.
func DefaultFor(column string) any {
	for _, tok := range []string{"total", "balance", "change", "count"} {
		if strings.Contains(column, tok) {
			return 0.0
		}
	}
	return demographics.Unknown
}

// normalizeBool canonicalizes raw boolean spellings (TRUE/true/1) to
// "True"/"False", the form the published files use; anything unrecognized
// passes through verbatim.
func normalizeBool(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "t", "1", "yes":
		return "True"
	case "false", "f", "0", "no":
		return "False"
	}
	return s
}
