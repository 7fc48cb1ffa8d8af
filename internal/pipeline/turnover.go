package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"finpipe/internal/config"
	"finpipe/internal/datasource/file"
	"finpipe/internal/employment"
	"finpipe/internal/metrics"
	"finpipe/internal/storage/csvfile"
)

// RunTurnover executes the employment turnover job: the per-day employment
// extract plus the per-employer monthly headcount rollup. Unlike the
// financial summary this job has no degraded mode; with no log files there is
// nothing to extract, so an empty glob is fatal.
func RunTurnover(ctx context.Context, cfg config.Pipeline) error {
	job := jobName(cfg.Job, "employment_turnover")
	nWorkers := workers(cfg.Runtime)

	start := time.Now()
	paths, err := file.Discover(cfg.Sources.LogsGlob)
	metrics.RecordStep(job, "discover", err, time.Since(start))
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("discover: glob %q matched no files", cfg.Sources.LogsGlob)
	}
	log.Printf("discover: glob=%q files=%d workers=%d", cfg.Sources.LogsGlob, len(paths), nWorkers)

	agg := employment.Aggregator{
		TimestampField: logTimestampField,
		EntityField:    logEntityField,
		EmployerField:  logEmployerField,
	}

	type chunkOut struct {
		states []employment.DayState
		stats  employment.ChunkStats
	}
	start = time.Now()
	outs, skipped, err := mapChunks(ctx, job, paths, nWorkers, func(ctx context.Context, src *file.Local) (chunkOut, error) {
		states, stats, err := agg.AggregateChunk(ctx, src)
		return chunkOut{states, stats}, err
	})
	metrics.RecordStep(job, "chunks", err, time.Since(start))
	if err != nil {
		return err
	}

	chunks := make([][]employment.DayState, len(outs))
	var rows, malformed, csvSkipped int
	for i, o := range outs {
		chunks[i] = o.states
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
	days := employment.MergeDaily(chunks)
	headcounts := employment.Headcounts(days)
	metrics.RecordStep(job, "merge", nil, time.Since(start))
	metrics.RecordRows(job, "employment_days", int64(len(days)))
	log.Printf("merge: employment days=%d headcount rows=%d", len(days), len(headcounts))

	workCols := []string{"participantId", "date", "employerId"}
	workRows := make([][]any, 0, len(days))
	for _, d := range days {
		workRows = append(workRows, []any{d.Entity, d.Day.String(), d.Employer})
	}
	start = time.Now()
	err = csvfile.Write(cfg.Output.WorkPath, workCols, workRows)
	metrics.RecordStep(job, "write_work", err, time.Since(start))
	if err != nil {
		return err
	}
	log.Printf("write: path=%s rows=%d", cfg.Output.WorkPath, len(workRows))

	headCols := []string{"employerId", "month", "worker_count"}
	headRows := make([][]any, 0, len(headcounts))
	for _, h := range headcounts {
		headRows = append(headRows, []any{h.Employer, h.Month.MonthLabel(), int64(h.Workers)})
	}
	start = time.Now()
	err = csvfile.Write(cfg.Output.HeadcountPath, headCols, headRows)
	metrics.RecordStep(job, "write_headcounts", err, time.Since(start))
	if err != nil {
		return err
	}
	metrics.RecordRows(job, "written", int64(len(workRows)+len(headRows)))
	log.Printf("write: path=%s rows=%d", cfg.Output.HeadcountPath, len(headRows))

	// The headcount rollup is the queryable table; the flat extract stays
	// file-only.
	if cfg.Output.DB != nil {
		start = time.Now()
		err = mirror(ctx, cfg.Output.DB, headCols, headRows)
		metrics.RecordStep(job, "mirror", err, time.Since(start))
		if err != nil {
			return err
		}
	}
	return nil
}
