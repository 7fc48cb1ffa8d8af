package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"finpipe/internal/balance"
	"finpipe/internal/config"
	"finpipe/internal/datasource/file"
	"finpipe/internal/demographics"
	"finpipe/internal/journal"
	"finpipe/internal/metrics"
	"finpipe/internal/period"
	"finpipe/internal/storage/csvfile"
	"finpipe/internal/summary"
)

// Status log column names.
const (
	logTimestampField = "timestamp"
	logEntityField    = "participantId"
	logBalanceField   = "availableBalance"
	logEmployerField  = "currentEmployer"
)

// RunFinancial executes the financial summary job: chunked balance
// aggregation over the status logs, journal classification, the demographic
// join, and the finalized wide table.
//
// Degraded modes: an unreadable chunk file is skipped with a warning; a
// missing journal or attribute file substitutes its empty table (the merge
// zero-fills financial columns and Unknown-fills demographic ones). Only all
// financial sources empty is fatal.
func RunFinancial(ctx context.Context, cfg config.Pipeline) error {
	job := jobName(cfg.Job, "financial_summary")
	kind := period.ParseKind(cfg.Period)
	nWorkers := workers(cfg.Runtime)

	start := time.Now()
	paths, err := file.Discover(cfg.Sources.LogsGlob)
	metrics.RecordStep(job, "discover", err, time.Since(start))
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		log.Printf("discover: glob=%q matched no files; continuing on journal data alone", cfg.Sources.LogsGlob)
	} else {
		log.Printf("discover: glob=%q files=%d workers=%d", cfg.Sources.LogsGlob, len(paths), nWorkers)
	}

	agg := balance.Aggregator{
		Kind:           kind,
		TimestampField: logTimestampField,
		EntityField:    logEntityField,
		ValueField:     logBalanceField,
	}

	type chunkOut struct {
		partials []balance.Partial
		stats    balance.ChunkStats
	}
	start = time.Now()
	outs, skipped, err := mapChunks(ctx, job, paths, nWorkers, func(ctx context.Context, src *file.Local) (chunkOut, error) {
		partials, stats, err := agg.AggregateChunk(ctx, src)
		return chunkOut{partials, stats}, err
	})
	metrics.RecordStep(job, "chunks", err, time.Since(start))
	if err != nil {
		return err
	}

	chunks := make([][]balance.Partial, len(outs))
	var rows, malformed, csvSkipped int
	for i, o := range outs {
		chunks[i] = o.partials
		rows += o.stats.Rows
		malformed += o.stats.Malformed
		csvSkipped += o.stats.Skipped
	}
	metrics.RecordRows(job, "rows", int64(rows))
	metrics.RecordRows(job, "malformed", int64(malformed))
	metrics.RecordRows(job, "csv_skipped", int64(csvSkipped))
	log.Printf("chunks: processed=%d skipped_files=%d rows=%d malformed=%d csv_skipped=%d",
		len(outs), skipped, rows, malformed, csvSkipped)

	start = time.Now()
	balances := balance.Merge(chunks)
	metrics.RecordStep(job, "merge_balances", nil, time.Since(start))
	metrics.RecordRows(job, "aggregates", int64(len(balances)))
	log.Printf("merge: balance aggregates=%d", len(balances))

	var (
		incomes []journal.Income
		pivot   *journal.Pivot
	)
	if cfg.Sources.Journal != "" {
		start = time.Now()
		var jstats journal.Stats
		incomes, pivot, jstats, err = journal.Load(ctx, file.NewLocal(cfg.Sources.Journal), journal.Options{Kind: kind})
		metrics.RecordStep(job, "journal", err, time.Since(start))
		if err != nil {
			log.Printf("journal: file=%s unavailable, financial columns zero-fill: err=%v", cfg.Sources.Journal, err)
			incomes, pivot = nil, nil
		} else {
			log.Printf("journal: rows=%d income=%d expense=%d malformed=%d",
				jstats.Rows, jstats.Income, jstats.Expense, jstats.Malformed)
		}
	}

	var profiles map[int64]demographics.Profile
	if cfg.Sources.Attributes != "" {
		start = time.Now()
		profiles, err = demographics.Load(ctx, file.NewLocal(cfg.Sources.Attributes), demographics.Options{})
		metrics.RecordStep(job, "attributes", err, time.Since(start))
		if err != nil {
			log.Printf("attributes: file=%s unavailable, demographic columns fill Unknown: err=%v", cfg.Sources.Attributes, err)
			profiles = nil
		} else {
			log.Printf("attributes: participants=%d", len(profiles))
		}
	}

	start = time.Now()
	grid, err := summary.Build(balances, incomes, pivot, profiles)
	metrics.RecordStep(job, "merge", err, time.Since(start))
	if err != nil {
		return fmt.Errorf("merge: %w", err)
	}
	table := summary.Finalize(grid)

	start = time.Now()
	err = csvfile.Write(cfg.Output.Path, table.Columns, table.Rows)
	metrics.RecordStep(job, "write", err, time.Since(start))
	if err != nil {
		return err
	}
	metrics.RecordRows(job, "written", int64(len(table.Rows)))
	log.Printf("write: path=%s rows=%d columns=%d", cfg.Output.Path, len(table.Rows), len(table.Columns))

	if cfg.Output.DB != nil {
		start = time.Now()
		err = mirror(ctx, cfg.Output.DB, table.Columns, table.Rows)
		metrics.RecordStep(job, "mirror", err, time.Since(start))
		if err != nil {
			return err
		}
	}
	return nil
}
