package sqlite_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"finpipe/internal/storage"
	"finpipe/internal/storage/sqlite"
)

func TestRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "summary.db")

	repo, err := sqlite.New(ctx, storage.Config{Kind: "sqlite", DSN: dsn, Table: "monthly_summary"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer repo.Close()

	cols := storage.ColumnsFor([]string{"participantId", "Month", "start_balance"})
	if err := repo.CreateTable(ctx, "monthly_summary", cols); err != nil {
		t.Fatalf("create table: %v", err)
	}
	// Idempotent: a second run against the same database must not fail.
	if err := repo.CreateTable(ctx, "monthly_summary", cols); err != nil {
		t.Fatalf("create table again: %v", err)
	}

	n, err := repo.InsertRows(ctx, "monthly_summary",
		[]string{"participantId", "Month", "start_balance"},
		[][]any{
			{int64(1), "2022-03-01", 100.5},
			{int64(2), "2022-03-01", 0.0},
		})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if n != 2 {
		t.Fatalf("inserted=%d want 2", n)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("open for verify: %v", err)
	}
	defer db.Close()
	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM "monthly_summary"`).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Fatalf("count=%d want 2", count)
	}
}

func TestInsertRowsWidthMismatch(t *testing.T) {
	ctx := context.Background()
	repo, err := sqlite.New(ctx, storage.Config{Kind: "sqlite", DSN: filepath.Join(t.TempDir(), "x.db")})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer repo.Close()

	if err := repo.CreateTable(ctx, "t", storage.ColumnsFor([]string{"a", "b"})); err != nil {
		t.Fatalf("create table: %v", err)
	}
	if _, err := repo.InsertRows(ctx, "t", []string{"a", "b"}, [][]any{{int64(1)}}); err == nil {
		t.Fatalf("expected width mismatch error")
	}
}
