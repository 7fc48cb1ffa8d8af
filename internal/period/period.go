// Package period implements calendar bucketing for aggregation keys.
//
// A Period is the start of a calendar bucket (month or ISO-style week
// beginning Monday) stored as plain date components so it is directly usable
// as a map key and free of timezone/monotonic-clock surprises. Periods are
// always derived by truncating a UTC timestamp; they never round-trip through
// free text inside the pipelines.
package period

import "time"

// Kind selects the truncation granularity.
type Kind int

const (
	// Month truncates to the first day of the calendar month.
	Month Kind = iota
	// Week truncates to the Monday of the calendar week.
	Week
)

// ParseKind maps a config string to a Kind. Unknown values default to Month.
func ParseKind(s string) Kind {
	if s == "week" {
		return Week
	}
	return Month
}

// Period is a calendar bucket start date. The zero value is not a valid
// period; it sorts before all real ones, which Before relies on.
type Period struct {
	Year  int
	Month time.Month
	Day   int
}

// Truncate buckets t (interpreted in UTC) according to k.
func (k Kind) Truncate(t time.Time) Period {
	t = t.UTC()
	y, m, d := t.Date()
	if k == Month {
		return Period{Year: y, Month: m, Day: 1}
	}
	// Back up to Monday. Go's Sunday=0 puts Monday at offset 1.
	off := (int(t.Weekday()) + 6) % 7
	y, m, d = t.AddDate(0, 0, -off).Date()
	return Period{Year: y, Month: m, Day: d}
}

// Date buckets t to its calendar day. Used by the employment pipeline, which
// aggregates at day grain before rolling up to months.
func Date(t time.Time) Period {
	y, m, d := t.UTC().Date()
	return Period{Year: y, Month: m, Day: d}
}

// Start returns the bucket start as a UTC midnight time.
func (p Period) Start() time.Time {
	return time.Date(p.Year, p.Month, p.Day, 0, 0, 0, 0, time.UTC)
}

// Before reports whether p starts before q.
func (p Period) Before(q Period) bool {
	if p.Year != q.Year {
		return p.Year < q.Year
	}
	if p.Month != q.Month {
		return p.Month < q.Month
	}
	return p.Day < q.Day
}

// String formats the bucket start as YYYY-MM-DD, the form written to output
// files.
func (p Period) String() string {
	return p.Start().Format("2006-01-02")
}

// MonthLabel formats the containing month as YYYY-MM, the label used by the
// employment headcount output.
func (p Period) MonthLabel() string {
	return p.Start().Format("2006-01")
}

// MonthOf returns the month-grain period containing p.
func (p Period) MonthOf() Period {
	return Period{Year: p.Year, Month: p.Month, Day: 1}
}
