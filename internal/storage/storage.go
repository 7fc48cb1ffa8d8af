// Package storage contains storage-agnostic contracts for the optional
// database mirror of the pipeline outputs. The primary sink is always the
// CSV file (csvfile subpackage); a Repository additionally lands the same
// table in SQLite or Postgres for ad hoc querying.
package storage

import (
	"context"
	"fmt"
	"strings"
)

// Column describes one destination column for table creation.
type Column struct {
	Name    string
	SQLType string // portable: BIGINT, DOUBLE PRECISION, TEXT
}

// Repository is the minimal interface of a database sink.
type Repository interface {
	// CreateTable creates the destination table if it does not exist.
	CreateTable(ctx context.Context, table string, cols []Column) error

	// InsertRows bulk-inserts rows aligned to the columns order, returning
	// the number of rows inserted.
	InsertRows(ctx context.Context, table string, columns []string, rows [][]any) (int64, error)

	Close() error
}

// Config selects and configures a backend.
type Config struct {
	// Kind selects the backend: "sqlite" or "postgres".
	Kind string `json:"kind"`

	// DSN is the backend connection string (a file path or file: URI for
	// SQLite, a postgresql:// URL for Postgres).
	DSN string `json:"dsn"`

	// Table is the destination table name.
	Table string `json:"table"`
}

// openers is populated by the backend packages' init via Register, keeping
// this package free of driver imports.
var openers = map[string]func(ctx context.Context, cfg Config) (Repository, error){}

// Register installs a backend constructor under kind. Called from backend
// package init functions.
func Register(kind string, open func(ctx context.Context, cfg Config) (Repository, error)) {
	openers[kind] = open
}

// New opens the repository selected by cfg.Kind. The caller must import the
// backend packages it wants available (the cmd mains import both).
func New(ctx context.Context, cfg Config) (Repository, error) {
	open, ok := openers[cfg.Kind]
	if !ok {
		return nil, fmt.Errorf("storage: unknown kind %q", cfg.Kind)
	}
	return open(ctx, cfg)
}

// ColumnsFor infers portable SQL types from the output column names: count
// and id columns are integers, total/balance/change columns are doubles,
// everything else text. The heuristic matches the finalizer's typing rules,
// so the inferred DDL always agrees with the cell values it receives.
func ColumnsFor(names []string) []Column {
	out := make([]Column, len(names))
	for i, n := range names {
		sqlType := "TEXT"
		switch {
		case strings.Contains(n, "count") || strings.Contains(n, "Id") || strings.Contains(n, "check_ins"):
			sqlType = "BIGINT"
		case strings.Contains(n, "total") || strings.Contains(n, "balance") ||
			strings.Contains(n, "change") || strings.Contains(n, "expense") ||
			strings.Contains(n, "revenue") || strings.Contains(n, "spend"):
			sqlType = "DOUBLE PRECISION"
		}
		out[i] = Column{Name: n, SQLType: sqlType}
	}
	return out
}
