package pipeline_test

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"finpipe/internal/config"
	"finpipe/internal/pipeline"
)

func writeInput(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return rows
}

func TestRunFinancialEndToEnd(t *testing.T) {
	dir := t.TempDir()
	writeInput(t, dir, "StatusLogs1.csv", ""+
		"timestamp,participantId,currentEmployer,availableBalance\n"+
		"2022-03-01T08:00:00Z,1,100,1000\n"+
		"2022-03-10T08:00:00Z,1,100,1100\n")
	writeInput(t, dir, "StatusLogs2.csv", ""+
		"timestamp,participantId,currentEmployer,availableBalance\n"+
		"2022-03-20T08:00:00Z,1,100,1200\n"+
		"2022-03-25T08:00:00Z,2,200,500\n")
	journal := writeInput(t, dir, "FinancialJournal.csv", ""+
		"participantId,timestamp,category,amount\n"+
		"1,2022-03-01T09:00:00Z,Wage,2000\n"+
		"1,2022-03-05T12:00:00Z,Food,-100\n"+
		"2,2022-03-26T12:00:00Z,Shelter,-400\n")
	attrs := writeInput(t, dir, "Participants.csv", ""+
		"participantId,householdSize,haveKids,age,educationLevel,interestGroup,joviality\n"+
		"1,3,TRUE,36,HighSchoolOrCollege,H,0.2\n")

	outPath := filepath.Join(dir, "summary.csv")
	cfg := config.Pipeline{
		Job: "financial_test",
		Sources: config.Sources{
			LogsGlob:   filepath.Join(dir, "StatusLogs*.csv"),
			Journal:    journal,
			Attributes: attrs,
		},
		Runtime: config.Runtime{ChunkWorkers: 2},
		Output:  config.Output{Path: outPath},
	}

	if err := pipeline.RunFinancial(context.Background(), cfg); err != nil {
		t.Fatalf("run: %v", err)
	}

	rows := readCSV(t, outPath)
	if len(rows) != 3 {
		t.Fatalf("lines=%d want header + 2 rows", len(rows))
	}

	header := rows[0]
	if header[0] != "participantId" || header[1] != "Month" {
		t.Fatalf("header=%v", header)
	}
	// Dynamic expense columns discovered from the journal, sorted.
	last2 := header[len(header)-2:]
	if last2[0] != "logged_expense_Food" || last2[1] != "logged_expense_Shelter" {
		t.Fatalf("expense columns=%v", last2)
	}

	col := func(name string) int {
		for i, h := range header {
			if h == name {
				return i
			}
		}
		t.Fatalf("column %q missing from %v", name, header)
		return -1
	}

	p1 := rows[1]
	if p1[0] != "1" || p1[1] != "2022-03-01" {
		t.Fatalf("row=%v", p1)
	}
	if p1[col("start_balance")] != "1000" || p1[col("end_balance")] != "1200" {
		t.Fatalf("balances=%v", p1)
	}
	if p1[col("logged_income_total")] != "2000" || p1[col("logged_income_count")] != "1" {
		t.Fatalf("income=%v", p1)
	}
	if p1[col("logged_expense_Food")] != "-100" {
		t.Fatalf("food=%v", p1)
	}
	if p1[col("haveKids")] != "True" || p1[col("joviality_group")] != "Low (0-0.33)" {
		t.Fatalf("demographics=%v", p1)
	}

	// Participant 2 has no attribute row: raw age empty, bucket Unknown.
	p2 := rows[2]
	if p2[col("age")] != "" || p2[col("age_group")] != "Unknown" {
		t.Fatalf("p2 demographics=%v", p2)
	}
	if p2[col("logged_expense_Food")] != "0" {
		t.Fatalf("p2 food=%v want structural zero", p2)
	}
}

func TestRunFinancialNoSources(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Pipeline{
		Sources: config.Sources{LogsGlob: filepath.Join(dir, "none*.csv")},
		Output:  config.Output{Path: filepath.Join(dir, "out.csv")},
	}
	if err := pipeline.RunFinancial(context.Background(), cfg); err == nil {
		t.Fatalf("expected error when every source is empty")
	}
	if _, err := os.Stat(cfg.Output.Path); !os.IsNotExist(err) {
		t.Fatalf("failed run must not write output")
	}
}

func TestRunTurnoverEndToEnd(t *testing.T) {
	dir := t.TempDir()
	writeInput(t, dir, "StatusLogs1.csv", ""+
		"timestamp,participantId,currentEmployer,availableBalance\n"+
		"2022-03-01T08:00:00Z,1,100,1000\n"+
		"2022-03-01T17:00:00Z,1,101,1000\n"+ // later reading wins the day
		"2022-04-02T08:00:00Z,1,,900\n"+ // unemployed day, dropped
		"2022-03-01T08:00:00Z,2,100,500\n")

	workPath := filepath.Join(dir, "work.csv")
	headPath := filepath.Join(dir, "heads.csv")
	cfg := config.Pipeline{
		Sources: config.Sources{LogsGlob: filepath.Join(dir, "StatusLogs*.csv")},
		Output:  config.Output{WorkPath: workPath, HeadcountPath: headPath},
	}

	if err := pipeline.RunTurnover(context.Background(), cfg); err != nil {
		t.Fatalf("run: %v", err)
	}

	work := readCSV(t, workPath)
	if len(work) != 3 {
		t.Fatalf("work lines=%d want header + 2", len(work))
	}
	if work[0][0] != "participantId" || work[0][1] != "date" || work[0][2] != "employerId" {
		t.Fatalf("work header=%v", work[0])
	}
	if work[1][0] != "1" || work[1][1] != "2022-03-01" || work[1][2] != "101" {
		t.Fatalf("work row=%v", work[1])
	}

	heads := readCSV(t, headPath)
	if heads[0][1] != "month" {
		t.Fatalf("head header=%v", heads[0])
	}
	// March: employer 100 has participant 2, employer 101 has participant 1.
	if len(heads) != 3 {
		t.Fatalf("head lines=%d want header + 2", len(heads))
	}
	if heads[1][0] != "100" || heads[1][1] != "2022-03" || heads[1][2] != "1" {
		t.Fatalf("head row=%v", heads[1])
	}
}

func TestRunRevenueEndToEnd(t *testing.T) {
	dir := t.TempDir()
	venues := writeInput(t, dir, "venues.csv", "venueId,type\n10,Pub\n20,Restaurant\n")
	checkins := writeInput(t, dir, "checkins.csv", ""+
		"participantId,timestamp,venueId\n"+
		"1,2022-03-07T19:00:00Z,10\n"+
		"2,2022-03-08T19:00:00Z,10\n"+
		"3,2022-03-09T19:00:00Z,20\n")
	journal := writeInput(t, dir, "journal.csv", ""+
		"participantId,timestamp,category,amount\n"+
		"1,2022-03-07T19:30:00Z,Food,-90\n")

	outPath := filepath.Join(dir, "revenue.csv")
	byTypePath := filepath.Join(dir, "revenue_by_type.csv")
	cfg := config.Pipeline{
		Sources: config.Sources{Venues: venues, Checkins: checkins, Journal: journal},
		Output:  config.Output{Path: outPath, ByTypePath: byTypePath},
	}

	if err := pipeline.RunRevenue(context.Background(), cfg); err != nil {
		t.Fatalf("run: %v", err)
	}

	rows := readCSV(t, outPath)
	if len(rows) != 3 {
		t.Fatalf("lines=%d want header + 2", len(rows))
	}
	if rows[0][0] != "week" || rows[0][4] != "total_revenue" {
		t.Fatalf("header=%v", rows[0])
	}
	// Pub took 2 of 3 check-ins: 90 * 2/3 = 60.
	if rows[1][1] != "10" || rows[1][4] != "60" {
		t.Fatalf("pub row=%v", rows[1])
	}

	byType := readCSV(t, byTypePath)
	if len(byType) != 3 {
		t.Fatalf("by-type lines=%d want header + 2", len(byType))
	}
	if byType[1][1] != "Pub" || byType[1][2] != "2" {
		t.Fatalf("by-type row=%v", byType[1])
	}
}
