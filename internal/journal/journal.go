// Package journal classifies and aggregates the financial journal: the
// transaction log of every participant's income and spending. Transactions
// are split into exactly two streams by category (the reserved wage category
// is income, everything else expense), aggregated per participant-period, and
// the expense categories are pivoted into wide per-period columns.
//
// Amounts keep their natural sign throughout: income positive, expenses
// negative. Consumers that need magnitudes take absolute values themselves.
package journal

import (
	"context"
	"fmt"
	"sort"

	"finpipe/internal/datasource/file"
	"finpipe/internal/key"
	"finpipe/internal/parser/csv"
	"finpipe/internal/period"
	"finpipe/pkg/records"
)

// IncomeCategory is the reserved category whose transactions count as income.
const IncomeCategory = "Wage"

// Income is the per-(participant, period) wage aggregate.
type Income struct {
	Key   key.EntityPeriod
	Total float64
	Count int
}

// Stats reports journal row accounting.
type Stats struct {
	Rows      int
	Malformed int
	Skipped   int
	Income    int
	Expense   int
}

// Options configures the journal loader.
type Options struct {
	// Kind selects the period granularity.
	Kind period.Kind

	// Column names in the journal file.
	TimestampField string
	EntityField    string
	CategoryField  string
	AmountField    string
}

func (o Options) withDefaults() Options {
	if o.TimestampField == "" {
		o.TimestampField = "timestamp"
	}
	if o.EntityField == "" {
		o.EntityField = "participantId"
	}
	if o.CategoryField == "" {
		o.CategoryField = "category"
	}
	if o.AmountField == "" {
		o.AmountField = "amount"
	}
	return o
}

// Load reads the journal file and returns the income aggregates (sorted by
// key) and the expense pivot. Rows with an unparseable timestamp, entity, or
// amount are dropped and counted. A missing or unreadable journal is a
// file-level error; the caller substitutes empty tables and lets the merge
// stage zero-fill.
func Load(ctx context.Context, src *file.Local, opt Options) ([]Income, *Pivot, Stats, error) {
	opt = opt.withDefaults()

	r, err := src.Open(ctx)
	if err != nil {
		return nil, nil, Stats{}, err
	}
	defer r.Close()

	p := csv.NewParser(csv.Options{
		HasHeader: true,
		TrimSpace: true,
		Fields:    []string{opt.TimestampField, opt.EntityField, opt.CategoryField, opt.AmountField},
	})

	var stats Stats
	incomes := make(map[key.EntityPeriod]*catAgg)
	expenses := make(map[key.EntityPeriod]map[string]*catAgg)
	catSet := make(map[string]struct{})

	skipped, err := p.ParseFunc(r, func(rec records.Record) error {
		stats.Rows++
		ts, ok := rec.Time(opt.TimestampField)
		if !ok {
			stats.Malformed++
			return nil
		}
		entity, ok := rec.Int64(opt.EntityField)
		if !ok {
			stats.Malformed++
			return nil
		}
		amount, ok := rec.Float(opt.AmountField)
		if !ok {
			stats.Malformed++
			return nil
		}
		category := rec.String(opt.CategoryField)

		k := key.EntityPeriod{Entity: entity, Period: opt.Kind.Truncate(ts)}
		if category == IncomeCategory {
			stats.Income++
			g := incomes[k]
			if g == nil {
				g = &catAgg{}
				incomes[k] = g
			}
			g.total += amount
			g.count++
			return nil
		}

		stats.Expense++
		byCat := expenses[k]
		if byCat == nil {
			byCat = make(map[string]*catAgg)
			expenses[k] = byCat
		}
		g := byCat[category]
		if g == nil {
			g = &catAgg{}
			byCat[category] = g
		}
		g.total += amount
		g.count++
		catSet[category] = struct{}{}
		return nil
	})
	if err != nil {
		return nil, nil, stats, fmt.Errorf("journal %s: %w", src.Path(), err)
	}
	stats.Skipped = skipped

	incomeRows := make([]Income, 0, len(incomes))
	for k, g := range incomes {
		incomeRows = append(incomeRows, Income{Key: k, Total: g.total, Count: g.count})
	}
	sort.Slice(incomeRows, func(i, j int) bool { return incomeRows[i].Key.Less(incomeRows[j].Key) })

	return incomeRows, newPivot(expenses, catSet), stats, nil
}
