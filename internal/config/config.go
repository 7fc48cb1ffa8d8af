// Package config defines the canonical, JSON-serializable configuration model
// for the batch pipelines. It is intentionally small, explicit, and
// dependency-free so that pipeline files can be loaded from disk and passed
// through the program without additional glue code.
//
// Design goals:
//
//  1. Stability: changes to this package should be additive and backwards-
//     compatible whenever possible.
//  2. Clarity: field names in Go mirror the JSON structure used in pipeline
//     files under configs/*.json.
//  3. Minimalism: no third-party config libraries; decoding is performed by
//     the standard library.
//
// Example (financial summary pipeline):
//
//	{
//	  "job":    "financial_summary",
//	  "period": "month",
//	  "sources": {
//	    "logs_glob":  "data/Activity Logs/ParticipantStatusLogs*.csv",
//	    "journal":    "data/Journals/FinancialJournal.csv",
//	    "attributes": "data/Attributes/Participants.csv"
//	  },
//	  "runtime": { "chunk_workers": 4 },
//	  "output":  {
//	    "path": "data/monthly_participant_logged_spending_demographics.csv",
//	    "db":   { "kind": "sqlite", "dsn": "data/summary.db", "table": "monthly_summary" }
//	  }
//	}
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Pipeline is the top-level object decoded from a pipeline file.
type Pipeline struct {
	// Job names the run; it labels metrics and log lines.
	Job string `json:"job"`

	// Period selects the bucket granularity: "month" (default) or "week".
	Period string `json:"period"`

	// Sources locates the raw inputs. Which fields are required depends on
	// the pipeline; see the Validate functions.
	Sources Sources `json:"sources"`

	// Runtime controls concurrency.
	Runtime Runtime `json:"runtime"`

	// Output locates the written results.
	Output Output `json:"output"`
}

// Sources identifies the raw input files.
type Sources struct {
	// LogsGlob matches the chunked status log files.
	LogsGlob string `json:"logs_glob"`

	// Journal is the financial journal file.
	Journal string `json:"journal"`

	// Attributes is the per-participant attribute file.
	Attributes string `json:"attributes"`

	// Venues and Checkins are the revenue pipeline inputs.
	Venues   string `json:"venues"`
	Checkins string `json:"checkins"`
}

// Runtime controls concurrency. Zero values resolve to defaults at run time
// (workers default to the CPU count, overridable via FINPIPE_CHUNK_WORKERS).
type Runtime struct {
	ChunkWorkers int `json:"chunk_workers"`
}

// Output locates the written result files and the optional database mirror.
type Output struct {
	// Path is the primary CSV output.
	Path string `json:"path"`

	// WorkPath and HeadcountPath are the turnover pipeline outputs.
	WorkPath      string `json:"work_path"`
	HeadcountPath string `json:"headcount_path"`

	// ByTypePath is the revenue pipeline's per-venue-type rollup output.
	ByTypePath string `json:"by_type_path"`

	// DB, when present, mirrors the primary table into a database.
	DB *DB `json:"db,omitempty"`
}

// DB configures the optional database sink.
type DB struct {
	// Kind selects the backend: "sqlite" or "postgres".
	Kind string `json:"kind"`

	// DSN is the backend connection string.
	DSN string `json:"dsn"`

	// Table is the destination table name.
	Table string `json:"table"`
}

// LoadFile decodes a pipeline file from disk.
func LoadFile(path string) (Pipeline, error) {
	var p Pipeline
	f, err := os.Open(path)
	if err != nil {
		return p, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(&p); err != nil {
		return p, fmt.Errorf("decode config %s: %w", path, err)
	}
	return p, nil
}
