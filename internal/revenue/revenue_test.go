package revenue_test

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"finpipe/internal/datasource/file"
	"finpipe/internal/revenue"
)

func writeFile(t *testing.T, dir, name, content string) *file.Local {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return file.NewLocal(path)
}

func almostEqual(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestBuildDistributesSpendingByCheckinShare(t *testing.T) {
	dir := t.TempDir()
	srcs := revenue.Sources{
		Venues: writeFile(t, dir, "venues.csv", ""+
			"venueId,type\n"+
			"10,Pub\n"+
			"20,Restaurant\n"+
			"30,School\n"), // not a covered type
		Checkins: writeFile(t, dir, "checkins.csv", ""+
			"participantId,timestamp,venueId\n"+
			// Week of Monday 2022-03-07: 3 check-ins at the pub, 1 at the
			// restaurant, plus one at the uncovered school.
			"1,2022-03-07T19:00:00Z,10\n"+
			"2,2022-03-08T19:00:00Z,10\n"+
			"3,2022-03-09T19:00:00Z,10\n"+
			"1,2022-03-10T19:00:00Z,20\n"+
			"1,2022-03-10T09:00:00Z,30\n"),
		Financial: writeFile(t, dir, "journal.csv", ""+
			"participantId,timestamp,category,amount\n"+
			"1,2022-03-07T19:30:00Z,Food,-60\n"+
			"2,2022-03-08T19:30:00Z,Recreation,-40\n"+
			"1,2022-03-09T10:00:00Z,Shelter,-700\n"), // not venue spending
	}

	venueWeeks, typeWeeks, err := revenue.Build(context.Background(), srcs)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(venueWeeks) != 2 {
		t.Fatalf("venue weeks=%d want 2", len(venueWeeks))
	}

	pub := venueWeeks[0]
	if pub.Venue != 10 || pub.VenueType != "Pub" || pub.CheckIns != 3 {
		t.Fatalf("pub=%+v", pub)
	}
	// Weekly spending |−60|+|−40| = 100, pub share 3/4.
	if !almostEqual(pub.Revenue, 75) {
		t.Fatalf("pub revenue=%v want 75", pub.Revenue)
	}
	if !almostEqual(pub.AvgSpendPerVisit, 25) {
		t.Fatalf("pub avg=%v want 25", pub.AvgSpendPerVisit)
	}

	restaurant := venueWeeks[1]
	if !almostEqual(restaurant.Revenue, 25) {
		t.Fatalf("restaurant revenue=%v want 25", restaurant.Revenue)
	}
	if restaurant.Week.String() != "2022-03-07" {
		t.Fatalf("week=%v want Monday 2022-03-07", restaurant.Week)
	}

	if len(typeWeeks) != 2 {
		t.Fatalf("type weeks=%d want 2", len(typeWeeks))
	}
	// Sorted by week then type: Pub before Restaurant.
	if typeWeeks[0].VenueType != "Pub" || typeWeeks[0].CheckIns != 3 {
		t.Fatalf("rollup[0]=%+v", typeWeeks[0])
	}
	if !almostEqual(typeWeeks[0].AvgRevenuePerVenue, 75) || typeWeeks[0].VenueCount != 1 {
		t.Fatalf("rollup[0]=%+v", typeWeeks[0])
	}
}

func TestBuildSpendingWithoutCheckins(t *testing.T) {
	// Spending in a week with no covered check-ins has nowhere to land; no
	// venue rows are produced for that week and nothing divides by zero.
	dir := t.TempDir()
	srcs := revenue.Sources{
		Venues:   writeFile(t, dir, "venues.csv", "venueId,type\n10,Pub\n"),
		Checkins: writeFile(t, dir, "checkins.csv", "participantId,timestamp,venueId\n"),
		Financial: writeFile(t, dir, "journal.csv", ""+
			"participantId,timestamp,category,amount\n"+
			"1,2022-03-07T19:30:00Z,Food,-60\n"),
	}

	venueWeeks, typeWeeks, err := revenue.Build(context.Background(), srcs)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(venueWeeks) != 0 || len(typeWeeks) != 0 {
		t.Fatalf("want no rows, got %d/%d", len(venueWeeks), len(typeWeeks))
	}
}

func TestBuildMissingInputIsFatal(t *testing.T) {
	dir := t.TempDir()
	srcs := revenue.Sources{
		Venues:    file.NewLocal(filepath.Join(dir, "absent.csv")),
		Checkins:  writeFile(t, dir, "checkins.csv", "participantId,timestamp,venueId\n"),
		Financial: writeFile(t, dir, "journal.csv", "participantId,timestamp,category,amount\n"),
	}
	if _, _, err := revenue.Build(context.Background(), srcs); err == nil {
		t.Fatalf("expected error for a missing venues file")
	}
}
