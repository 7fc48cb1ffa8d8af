package journal

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"finpipe/internal/key"
)

// catAgg accumulates one category's amount and transaction count.
type catAgg struct {
	total float64
	count int
}

// CategoryAgg is the public per-category cell of a pivot row.
type CategoryAgg struct {
	Amount float64
	Count  int
}

// PivotRow is one participant-period of the expense pivot. ByCategory only
// holds categories the row actually has transactions in; Cell fills the
// structural zeros when the wide table is emitted (absence means no
// transactions, a real zero, not missing data).
type PivotRow struct {
	Key          key.EntityPeriod
	ByCategory   map[string]CategoryAgg
	ExpenseTotal float64 // sum of per-category amounts, natural sign
	ExpenseCount int     // sum of per-category transaction counts
}

// Cell returns the aggregate for category, zero when absent.
func (r PivotRow) Cell(category string) CategoryAgg {
	return r.ByCategory[category]
}

// Pivot is the wide expense table. The category set is discovered from the
// data, never fixed at compile time; Categories is sorted lexicographically so
// the emitted column order is stable across runs with the same data.
type Pivot struct {
	Categories []string
	Rows       []PivotRow // sorted by key
}

// newPivot builds the pivot from the grouped expense aggregates.
func newPivot(expenses map[key.EntityPeriod]map[string]*catAgg, catSet map[string]struct{}) *Pivot {
	cats := make([]string, 0, len(catSet))
	for c := range catSet {
		cats = append(cats, c)
	}
	sort.Strings(cats)

	rows := make([]PivotRow, 0, len(expenses))
	for k, byCat := range expenses {
		row := PivotRow{Key: k, ByCategory: make(map[string]CategoryAgg, len(byCat))}
		for c, g := range byCat {
			row.ByCategory[c] = CategoryAgg{Amount: g.total, Count: g.count}
			row.ExpenseTotal += g.total
			row.ExpenseCount += g.count
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Key.Less(rows[j].Key) })

	return &Pivot{Categories: cats, Rows: rows}
}

// Empty reports whether the pivot holds no rows. The merge stage substitutes
// an all-zero contribution for an empty pivot rather than failing.
func (p *Pivot) Empty() bool { return p == nil || len(p.Rows) == 0 }

// AmountColumn names the wide amount column for a category.
func AmountColumn(category string) string {
	return "logged_expense_" + columnToken(category)
}

// CountColumn names the wide transaction-count column for a category.
func CountColumn(category string) string {
	return "logged_count_" + columnToken(category)
}

// columnToken turns a discovered category value into a stable column token:
// accents folded to ASCII and whitespace collapsed to underscores. Category
// casing is preserved, matching the published column names.
func columnToken(category string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, category)
	if err != nil {
		folded = category
	}
	return strings.Join(strings.Fields(folded), "_")
}
