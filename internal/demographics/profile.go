// Package demographics loads the static per-participant attribute table and
// derives the categorical buckets used to slice the financial summaries.
//
// Every bucket function is total: for any input, valid, malformed, or
// missing, it returns a defined category, with "Unknown" as the first-class
// fallback. Nothing in this package ever rejects a participant row.
package demographics

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"finpipe/internal/datasource/file"
	"finpipe/internal/parser/csv"
	"finpipe/pkg/records"
)

// Unknown is the shared fallback category.
const Unknown = "Unknown"

// Age generation bands, bucketed on estimated birth year.
const (
	ageBoomer     = "Boomer+ (<1965)"
	ageGenX       = "Gen X (1965-80)"
	ageMillennial = "Millennial (1981-96)"
	ageGenZ       = "Gen Z (1997+)"
)

// Joviality (sentiment) bands. Bins are half-open on the left, so 0.33 is
// Medium and 0.66 is High.
const (
	jovialityLow    = "Low (0-0.33)"
	jovialityMedium = "Medium (0.33-0.66)"
	jovialityHigh   = "High (0.66+)"
)

// KidsStatus is the three-valued dependents bucket. It is an explicit
// category type rather than a nullable boolean so that Unknown stays
// symmetric with the other demographic buckets.
type KidsStatus int

const (
	KidsUnknown KidsStatus = iota
	HasKids
	NoKids
)

func (s KidsStatus) String() string {
	switch s {
	case HasKids:
		return "Has Kids"
	case NoKids:
		return "No Kids"
	}
	return Unknown
}

// Profile is one participant's attributes: the raw values as read from the
// source (passed through verbatim to the output) plus the derived buckets.
type Profile struct {
	Entity int64

	// Raw pass-through values; empty string when the source cell was empty.
	Age            string
	EducationLevel string
	HouseholdSize  string
	HaveKids       string
	InterestGroup  string
	Joviality      string

	AgeGroup           string
	JovialityGroup     string
	HouseholdSizeGroup string
	HaveKidsGroup      KidsStatus
}

// Options configures the attribute loader.
type Options struct {
	// EntityField names the participant id column. Defaults to "participantId".
	EntityField string

	// CurrentYear anchors the birth-year estimate. Zero means the wall-clock
	// year; tests pin it for stable bands.
	CurrentYear int
}

// Load reads the attribute file into a profile per participant. Rows without
// a parseable participant id are dropped (they cannot be joined to anything);
// every other malformation degrades to Unknown buckets. A missing or
// unreadable file is a file-level error; the caller substitutes an empty
// table and the merge stage fills Unknown.
func Load(ctx context.Context, src *file.Local, opt Options) (map[int64]Profile, error) {
	if opt.EntityField == "" {
		opt.EntityField = "participantId"
	}
	if opt.CurrentYear == 0 {
		opt.CurrentYear = time.Now().UTC().Year()
	}

	r, err := src.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	p := csv.NewParser(csv.Options{HasHeader: true, TrimSpace: true})

	out := make(map[int64]Profile)
	_, err = p.ParseFunc(r, func(rec records.Record) error {
		entity, ok := rec.Int64(opt.EntityField)
		if !ok {
			return nil
		}
		out[entity] = build(entity, rec, opt.CurrentYear)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("attributes %s: %w", src.Path(), err)
	}
	return out, nil
}

// build derives one profile from a raw record.
func build(entity int64, rec records.Record, currentYear int) Profile {
	pr := Profile{
		Entity:         entity,
		Age:            rec.String("age"),
		EducationLevel: passThrough(rec.String("educationLevel")),
		HouseholdSize:  rec.String("householdSize"),
		HaveKids:       rec.String("haveKids"),
		InterestGroup:  passThrough(rec.String("interestGroup")),
		Joviality:      rec.String("joviality"),
	}
	pr.AgeGroup = AgeGroup(rec, "age", currentYear)
	pr.JovialityGroup = JovialityGroup(rec, "joviality")
	pr.HouseholdSizeGroup = HouseholdSizeGroup(rec, "householdSize")
	pr.HaveKidsGroup = HaveKidsGroup(rec, "haveKids")
	return pr
}

// passThrough keeps a categorical value verbatim, substituting Unknown for an
// empty cell.
func passThrough(s string) string {
	if s == "" {
		return Unknown
	}
	return s
}

// AgeGroup estimates a birth year (current year minus age) and buckets it
// into four generation bands with fixed boundary years. Non-numeric or
// missing age, or an estimate outside [1900, currentYear], is Unknown.
func AgeGroup(rec records.Record, field string, currentYear int) string {
	age, ok := rec.Float(field)
	if !ok {
		return Unknown
	}
	birthYear := currentYear - int(age)
	switch {
	case birthYear < 1900 || birthYear > currentYear:
		return Unknown
	case birthYear < 1965:
		return ageBoomer
	case birthYear < 1981:
		return ageGenX
	case birthYear < 1997:
		return ageMillennial
	default:
		return ageGenZ
	}
}

// JovialityGroup buckets a 0–1 sentiment score into three bands at 0.33 and
// 0.66. Missing, non-numeric, or out-of-range scores are Unknown.
func JovialityGroup(rec records.Record, field string) string {
	v, ok := rec.Float(field)
	if !ok || v < 0 || v > 1 {
		return Unknown
	}
	switch {
	case v < 0.33:
		return jovialityLow
	case v < 0.66:
		return jovialityMedium
	default:
		return jovialityHigh
	}
}

// HouseholdSizeGroup buckets the integer household size into "1".."4" and
// "5+". Non-integer or missing sizes are Unknown.
func HouseholdSizeGroup(rec records.Record, field string) string {
	n, ok := rec.Int64(field)
	if !ok {
		return Unknown
	}
	if n >= 5 {
		return "5+"
	}
	return strconv.FormatInt(n, 10)
}

// HaveKidsGroup buckets the dependents flag into the three-valued status.
func HaveKidsGroup(rec records.Record, field string) KidsStatus {
	b, ok := rec.Bool(field)
	if !ok {
		return KidsUnknown
	}
	if b {
		return HasKids
	}
	return NoKids
}
