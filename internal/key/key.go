// Package key defines the compound grouping key shared by every intermediate
// and final table in the pipelines.
package key

import (
	"sort"

	"finpipe/internal/period"
)

// EntityPeriod identifies one aggregate row: an entity (participant, employer,
// venue) within one calendar bucket. Each table holds at most one row per
// EntityPeriod.
type EntityPeriod struct {
	Entity int64
	Period period.Period
}

// Less orders keys by entity, then period. Every table is emitted in this
// order so output files are stable across runs.
func (k EntityPeriod) Less(o EntityPeriod) bool {
	if k.Entity != o.Entity {
		return k.Entity < o.Entity
	}
	return k.Period.Before(o.Period)
}

// Sort orders a key slice by Less.
func Sort(ks []EntityPeriod) {
	sort.Slice(ks, func(i, j int) bool { return ks[i].Less(ks[j]) })
}
