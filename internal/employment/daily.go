// Package employment derives daily employment records and employer headcounts
// from the participant status logs.
//
// A participant's employment on a calendar day is the employer value of the
// chronologically latest log reading that day. A day whose latest reading has
// no employer yields no record at all: absence is expressed by dropping the
// day, never by a zero-employer row.
package employment

import (
	"context"
	"encoding/binary"
	"fmt"
	"sort"
	"time"

	"github.com/zeebo/xxh3"

	"finpipe/internal/datasource/file"
	"finpipe/internal/parser/csv"
	"finpipe/internal/period"
	"finpipe/pkg/records"
)

// DayState is one chunk's latest reading for a (participant, day). Employed
// is false when that reading had an empty employer cell; such states still
// participate in the cross-chunk merge (a later null reading overrides an
// earlier employer) and are dropped only at the end.
type DayState struct {
	Entity   int64
	Day      period.Period
	LastTS   time.Time
	Employer int64
	Employed bool
}

// DayRecord is a merged, employed participant-day.
type DayRecord struct {
	Entity   int64
	Day      period.Period
	Employer int64
}

// ChunkStats mirrors the balance aggregator's per-file accounting.
type ChunkStats struct {
	Rows      int
	Malformed int
	Skipped   int
}

// Aggregator reduces one log file to its per-(participant, day) latest
// readings. Stateless across files.
type Aggregator struct {
	TimestampField string
	EntityField    string
	EmployerField  string
}

// dayHash packs a (participant, day) into a 64-bit map key via xxh3. The log
// volume makes these maps the dominant memory cost of the turnover run, and a
// 12-byte hashed key is considerably cheaper than a composite struct key.
func dayHash(entity int64, day period.Period) uint64 {
	var b [12]byte
	binary.LittleEndian.PutUint64(b[:8], uint64(entity))
	binary.LittleEndian.PutUint32(b[8:], uint32(day.Year*10000+int(day.Month)*100+day.Day))
	return xxh3.Hash(b[:])
}

// AggregateChunk streams one file and keeps, per participant-day, the reading
// with the latest timestamp. Later rows win timestamp ties, matching a stable
// sort by timestamp. Rows with an unparseable timestamp or participant are
// dropped; an unparseable employer cell counts as not employed (the cell is
// empty for unemployed participants, so any residue is treated the same way).
func (a Aggregator) AggregateChunk(ctx context.Context, src *file.Local) ([]DayState, ChunkStats, error) {
	r, err := src.Open(ctx)
	if err != nil {
		return nil, ChunkStats{}, err
	}
	defer r.Close()

	p := csv.NewParser(csv.Options{
		HasHeader: true,
		TrimSpace: true,
		Fields:    []string{a.TimestampField, a.EntityField, a.EmployerField},
	})

	var stats ChunkStats
	states := make(map[uint64]*DayState)

	skipped, err := p.ParseFunc(r, func(rec records.Record) error {
		stats.Rows++
		ts, ok := rec.Time(a.TimestampField)
		if !ok {
			stats.Malformed++
			return nil
		}
		entity, ok := rec.Int64(a.EntityField)
		if !ok {
			stats.Malformed++
			return nil
		}
		employer, employed := rec.Int64(a.EmployerField)

		day := period.Date(ts)
		h := dayHash(entity, day)
		st := states[h]
		if st == nil {
			states[h] = &DayState{Entity: entity, Day: day, LastTS: ts, Employer: employer, Employed: employed}
			return nil
		}
		if !ts.Before(st.LastTS) {
			st.LastTS = ts
			st.Employer = employer
			st.Employed = employed
		}
		return nil
	})
	if err != nil {
		return nil, stats, fmt.Errorf("employment %s: %w", src.Path(), err)
	}
	stats.Skipped = skipped

	out := make([]DayState, 0, len(states))
	for _, st := range states {
		out = append(out, *st)
	}
	sortStates(out)
	return out, stats, nil
}

// MergeDaily collapses the per-chunk states into final day records: for each
// participant-day the state with the latest timestamp wins, with later chunks
// in discovery order winning ties. Days whose winning state has no employer
// are dropped. The result is sorted by (participant, day).
func MergeDaily(chunks [][]DayState) []DayRecord {
	winners := make(map[uint64]DayState)
	for _, c := range chunks {
		for _, st := range c {
			h := dayHash(st.Entity, st.Day)
			if prev, ok := winners[h]; ok && st.LastTS.Before(prev.LastTS) {
				continue
			}
			winners[h] = st
		}
	}

	out := make([]DayRecord, 0, len(winners))
	for _, st := range winners {
		if !st.Employed {
			continue
		}
		out = append(out, DayRecord{Entity: st.Entity, Day: st.Day, Employer: st.Employer})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Entity != out[j].Entity {
			return out[i].Entity < out[j].Entity
		}
		return out[i].Day.Before(out[j].Day)
	})
	return out
}

func sortStates(sts []DayState) {
	sort.Slice(sts, func(i, j int) bool {
		if sts[i].Entity != sts[j].Entity {
			return sts[i].Entity < sts[j].Entity
		}
		return sts[i].Day.Before(sts[j].Day)
	})
}
