package demographics_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"finpipe/internal/datasource/file"
	"finpipe/internal/demographics"
	"finpipe/pkg/records"
)

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "participants.csv")
	content := "" +
		"participantId,householdSize,haveKids,age,educationLevel,interestGroup,joviality\n" +
		"0,3,TRUE,36,HighSchoolOrCollege,H,0.001627\n" +
		"1,5,FALSE,60,Bachelors,B,0.7\n" +
		"not-an-id,1,FALSE,40,Low,A,0.5\n" +
		"2,,,,,,\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	profiles, err := demographics.Load(context.Background(), file.NewLocal(path), demographics.Options{CurrentYear: 2022})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(profiles) != 3 {
		t.Fatalf("len=%d want 3 (row without an id dropped)", len(profiles))
	}

	p0 := profiles[0]
	if p0.Age != "36" || p0.AgeGroup != "Millennial (1981-96)" {
		t.Fatalf("p0 age=%q group=%q", p0.Age, p0.AgeGroup)
	}
	if p0.JovialityGroup != "Low (0-0.33)" {
		t.Fatalf("p0 joviality group=%q", p0.JovialityGroup)
	}
	if p0.HouseholdSizeGroup != "3" {
		t.Fatalf("p0 household group=%q", p0.HouseholdSizeGroup)
	}
	if p0.HaveKidsGroup != demographics.HasKids {
		t.Fatalf("p0 kids=%v want HasKids", p0.HaveKidsGroup)
	}

	p1 := profiles[1]
	if p1.AgeGroup != "Boomer+ (<1965)" {
		t.Fatalf("p1 age group=%q", p1.AgeGroup)
	}
	if p1.JovialityGroup != "High (0.66+)" {
		t.Fatalf("p1 joviality group=%q", p1.JovialityGroup)
	}
	if p1.HouseholdSizeGroup != "5+" {
		t.Fatalf("p1 household group=%q", p1.HouseholdSizeGroup)
	}
	if p1.HaveKidsGroup != demographics.NoKids {
		t.Fatalf("p1 kids=%v want NoKids", p1.HaveKidsGroup)
	}

	// Participant 2 has an id but nothing else; every bucket degrades.
	p2 := profiles[2]
	if p2.AgeGroup != demographics.Unknown ||
		p2.JovialityGroup != demographics.Unknown ||
		p2.HouseholdSizeGroup != demographics.Unknown ||
		p2.HaveKidsGroup != demographics.KidsUnknown {
		t.Fatalf("p2 buckets should all be Unknown: %+v", p2)
	}
	if p2.EducationLevel != demographics.Unknown || p2.InterestGroup != demographics.Unknown {
		t.Fatalf("empty categoricals should pass through as Unknown: %+v", p2)
	}
}

func TestAgeGroupBands(t *testing.T) {
	cases := []struct {
		age  string
		want string
	}{
		{"60", "Boomer+ (<1965)"},      // born 1962
		{"45", "Gen X (1965-80)"},      // born 1977
		{"30", "Millennial (1981-96)"}, // born 1992
		{"20", "Gen Z (1997+)"},        // born 2002
		{"58", "Boomer+ (<1965)"},      // born 1964, band edge
		{"57", "Gen X (1965-80)"},      // born 1965
		{"150", "Unknown"},             // birth year before 1900
		{"-5", "Unknown"},              // birth year in the future
		{"abc", "Unknown"},
	}
	for _, c := range cases {
		rec := records.Record{"age": c.age}
		if got := demographics.AgeGroup(rec, "age", 2022); got != c.want {
			t.Fatalf("AgeGroup(%q)=%q want %q", c.age, got, c.want)
		}
	}
	if got := demographics.AgeGroup(records.Record{}, "age", 2022); got != demographics.Unknown {
		t.Fatalf("missing age should be Unknown, got %q", got)
	}
}

func TestJovialityGroupBinEdges(t *testing.T) {
	cases := []struct {
		v    string
		want string
	}{
		{"0", "Low (0-0.33)"},
		{"0.32", "Low (0-0.33)"},
		{"0.33", "Medium (0.33-0.66)"}, // left-closed bin
		{"0.65", "Medium (0.33-0.66)"},
		{"0.66", "High (0.66+)"},
		{"1", "High (0.66+)"},
		{"1.2", "Unknown"},
		{"-0.1", "Unknown"},
	}
	for _, c := range cases {
		rec := records.Record{"joviality": c.v}
		if got := demographics.JovialityGroup(rec, "joviality"); got != c.want {
			t.Fatalf("JovialityGroup(%q)=%q want %q", c.v, got, c.want)
		}
	}
}

func TestHouseholdSizeGroup(t *testing.T) {
	cases := map[string]string{
		"1":   "1",
		"4":   "4",
		"5":   "5+",
		"9":   "5+",
		"2.0": "2", // float-formatted export
		"x":   "Unknown",
	}
	for in, want := range cases {
		rec := records.Record{"householdSize": in}
		if got := demographics.HouseholdSizeGroup(rec, "householdSize"); got != want {
			t.Fatalf("HouseholdSizeGroup(%q)=%q want %q", in, got, want)
		}
	}
}

func TestKidsStatusString(t *testing.T) {
	if demographics.HasKids.String() != "Has Kids" ||
		demographics.NoKids.String() != "No Kids" ||
		demographics.KidsUnknown.String() != "Unknown" {
		t.Fatalf("KidsStatus strings wrong")
	}
}
