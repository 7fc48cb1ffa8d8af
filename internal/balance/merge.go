package balance

import (
	"sort"

	"finpipe/internal/key"
)

// Merge recombines the per-chunk partial tables, given in file-discovery
// order, into one Final per Key.
//
// Files are not guaranteed to be globally time-ordered relative to each
// other, so collapsing first/last in raw discovery order would be wrong
// whenever discovery order disagrees with chronology. Partials are therefore
// stable-sorted by Period before collapsing: for each Key, Start is the First
// of the earliest-sorted partial and End is the Last of the latest-sorted
// one. When a single Key's data is split across files, the partials tie on
// Period and the stable sort falls back to discovery order; the result is
// exact only when each Key's rows are confined to one chunk. The source data
// satisfies that (each log file covers a disjoint time range), and the
// stricter alternative of carrying raw timestamped readings through the merge
// would change the published numbers, so the behavior is documented here
// instead of corrected.
//
// MeanApprox is the unweighted mean of the chunk means.
func Merge(chunks [][]Partial) []Final {
	var flat []Partial
	for _, c := range chunks {
		flat = append(flat, c...)
	}
	if len(flat) == 0 {
		return nil
	}

	sort.SliceStable(flat, func(i, j int) bool {
		return flat[i].Key.Period.Before(flat[j].Key.Period)
	})

	type acc struct {
		start, end float64
		meanSum    float64
		chunkCount int
	}
	groups := make(map[key.EntityPeriod]*acc)
	for _, p := range flat {
		g := groups[p.Key]
		if g == nil {
			groups[p.Key] = &acc{start: p.First, end: p.Last, meanSum: p.Mean, chunkCount: 1}
			continue
		}
		g.end = p.Last
		g.meanSum += p.Mean
		g.chunkCount++
	}

	out := make([]Final, 0, len(groups))
	for k, g := range groups {
		out = append(out, Final{
			Key:        k,
			Start:      g.start,
			End:        g.end,
			MeanApprox: g.meanSum / float64(g.chunkCount),
		})
	}
	sortFinals(out)
	return out
}

// sortByKey orders partials by (entity, period) for deterministic chunk
// output.
func sortByKey(ps []Partial) {
	sort.Slice(ps, func(i, j int) bool { return ps[i].Key.Less(ps[j].Key) })
}

func sortFinals(fs []Final) {
	sort.Slice(fs, func(i, j int) bool { return fs[i].Key.Less(fs[j].Key) })
}
