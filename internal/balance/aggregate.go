// Package balance reduces the participant status logs into per-(participant,
// period) balance aggregates. The logs are far too large to hold in memory, so
// aggregation is chunked: each input file is reduced independently to a small
// partial-aggregate table (one row per participant-period seen in that file),
// and the partials are recombined by Merge once every chunk has been read.
package balance

import (
	"context"
	"fmt"
	"time"

	"finpipe/internal/datasource/file"
	"finpipe/internal/key"
	"finpipe/internal/parser/csv"
	"finpipe/internal/period"
	"finpipe/pkg/records"
)

// Partial is one chunk's aggregate for a Key. First and Last are the readings
// at the earliest and latest timestamp observed within the chunk; Mean is the
// arithmetic mean over all of the chunk's readings for the key. Partials are
// ephemeral: they exist only between chunk reduction and Merge.
type Partial struct {
	Key         key.EntityPeriod
	First       float64
	Last        float64
	Mean        float64
	SampleCount int
}

// Final is the merged aggregate for a Key across all chunks.
//
// MeanApprox is a mean of the per-chunk means, not a row-weighted mean; the
// downstream consumers were built against that exact value, so it is kept
// as-is rather than corrected.
type Final struct {
	Key        key.EntityPeriod
	Start      float64
	End        float64
	MeanApprox float64
}

// ChunkStats reports per-chunk row accounting for operator logs and metrics.
type ChunkStats struct {
	Rows      int // rows parsed from the file
	Malformed int // rows dropped for unparseable timestamp/entity/value
	Skipped   int // rows the CSV reader could not parse at all
}

// Aggregator reduces one log file at a time. It holds no state across files;
// the same value may be used concurrently from multiple chunk workers.
type Aggregator struct {
	// Kind selects the period granularity (month for the financial summary).
	Kind period.Kind

	// Column names in the source files.
	TimestampField string
	EntityField    string
	ValueField     string
}

// running accumulates one Key's readings without retaining the rows. Tracking
// the min/max timestamp alongside its value is equivalent to sorting the
// chunk by timestamp and taking first/last, with O(keys) memory.
type running struct {
	minTS, maxTS time.Time
	first, last  float64
	sum          float64
	n            int
}

// AggregateChunk reduces a single file into its partial aggregates, sorted by
// (entity, period). Rows with an unparseable timestamp, entity, or value are
// dropped and counted; a file-level open or header failure is returned to the
// caller, which skips the file.
func (a Aggregator) AggregateChunk(ctx context.Context, src *file.Local) ([]Partial, ChunkStats, error) {
	r, err := src.Open(ctx)
	if err != nil {
		return nil, ChunkStats{}, err
	}
	defer r.Close()

	p := csv.NewParser(csv.Options{
		HasHeader: true,
		TrimSpace: true,
		Fields:    []string{a.TimestampField, a.EntityField, a.ValueField},
	})

	var stats ChunkStats
	groups := make(map[key.EntityPeriod]*running)

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
		val, ok := rec.Float(a.ValueField)
		if !ok {
			stats.Malformed++
			return nil
		}

		k := key.EntityPeriod{Entity: entity, Period: a.Kind.Truncate(ts)}
		g := groups[k]
		if g == nil {
			groups[k] = &running{minTS: ts, maxTS: ts, first: val, last: val, sum: val, n: 1}
			return nil
		}
		if ts.Before(g.minTS) {
			g.minTS, g.first = ts, val
		}
		// Ties keep the earlier reading for first and the later one for last,
		// matching a stable sort of the chunk by timestamp.
		if !ts.Before(g.maxTS) {
			g.maxTS, g.last = ts, val
		}
		g.sum += val
		g.n++
		return nil
	})
	if err != nil {
		return nil, stats, fmt.Errorf("aggregate %s: %w", src.Path(), err)
	}
	stats.Skipped = skipped

	out := make([]Partial, 0, len(groups))
	for k, g := range groups {
		out = append(out, Partial{
			Key:         k,
			First:       g.first,
			Last:        g.last,
			Mean:        g.sum / float64(g.n),
			SampleCount: g.n,
		})
	}
	sortByKey(out)
	return out, stats, nil
}
