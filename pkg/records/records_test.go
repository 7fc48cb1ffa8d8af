package records_test

import (
	"testing"
	"time"

	"finpipe/pkg/records"
)

func TestString(t *testing.T) {
	rec := records.Record{"a": "x", "b": nil}
	if got := rec.String("a"); got != "x" {
		t.Fatalf("String(a)=%q want x", got)
	}
	if got := rec.String("b"); got != "" {
		t.Fatalf("String(nil)=%q want empty", got)
	}
	if got := rec.String("missing"); got != "" {
		t.Fatalf("String(missing)=%q want empty", got)
	}
}

func TestFloat(t *testing.T) {
	rec := records.Record{"v": " -42.5 ", "bad": "abc", "empty": nil}
	if got, ok := rec.Float("v"); !ok || got != -42.5 {
		t.Fatalf("Float=%v,%v want -42.5,true", got, ok)
	}
	if _, ok := rec.Float("bad"); ok {
		t.Fatalf("Float should fail on non-numeric")
	}
	if _, ok := rec.Float("empty"); ok {
		t.Fatalf("Float should fail on nil")
	}
}

func TestInt64AcceptsZeroFractionFloats(t *testing.T) {
	rec := records.Record{"id": "7.0", "plain": "12", "frac": "7.5"}
	if got, ok := rec.Int64("id"); !ok || got != 7 {
		t.Fatalf("Int64(7.0)=%v,%v want 7,true", got, ok)
	}
	if got, ok := rec.Int64("plain"); !ok || got != 12 {
		t.Fatalf("Int64(12)=%v,%v want 12,true", got, ok)
	}
	if _, ok := rec.Int64("frac"); ok {
		t.Fatalf("Int64 should reject 7.5")
	}
}

func TestBool(t *testing.T) {
	for _, s := range []string{"true", "TRUE", "t", "1", "yes"} {
		if got, ok := (records.Record{"b": s}).Bool("b"); !ok || !got {
			t.Fatalf("Bool(%q)=%v,%v want true,true", s, got, ok)
		}
	}
	for _, s := range []string{"false", "FALSE", "f", "0", "no"} {
		if got, ok := (records.Record{"b": s}).Bool("b"); !ok || got {
			t.Fatalf("Bool(%q)=%v,%v want false,true", s, got, ok)
		}
	}
	if _, ok := (records.Record{"b": "maybe"}).Bool("b"); ok {
		t.Fatalf("Bool should fail on unrecognized spelling")
	}
}

func TestTimeLayouts(t *testing.T) {
	want := time.Date(2022, 3, 1, 8, 30, 0, 0, time.UTC)
	for _, s := range []string{
		"2022-03-01T08:30:00Z",
		"2022-03-01T08:30:00",
		"2022-03-01 08:30:00",
	} {
		got, ok := records.Record{"ts": s}.Time("ts")
		if !ok || !got.Equal(want) {
			t.Fatalf("Time(%q)=%v,%v want %v,true", s, got, ok, want)
		}
	}
	if got, ok := (records.Record{"ts": "2022-03-01"}).Time("ts"); !ok || !got.Equal(time.Date(2022, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("Time(date-only)=%v,%v", got, ok)
	}
	if _, ok := (records.Record{"ts": "03/01/2022"}).Time("ts"); ok {
		t.Fatalf("Time should fail on unknown layout")
	}
}
