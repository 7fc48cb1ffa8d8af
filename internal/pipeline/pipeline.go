// Package pipeline wires the processing stages into the three runnable jobs:
// the financial summary, the employment turnover extract, and the venue
// revenue estimate. Each Run function owns one job end to end: discover
// inputs, fan chunk files out over a bounded worker pool, merge, finalize,
// and write, recording step metrics and operator logs along the way.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"os"
	"runtime"
	"strconv"

	"golang.org/x/sync/errgroup"

	"finpipe/internal/config"
	"finpipe/internal/datasource/file"
	"finpipe/internal/metrics"
	"finpipe/internal/storage"
)

// chunkWorkersEnv overrides the configured worker count, 12-factor style.
const chunkWorkersEnv = "FINPIPE_CHUNK_WORKERS"

// workers resolves the chunk worker count: env override first, then the
// config value, then the CPU count.
func workers(rt config.Runtime) int {
	n := rt.ChunkWorkers
	if s := os.Getenv(chunkWorkersEnv); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			n = v
		}
	}
	if n <= 0 {
		n = runtime.NumCPU()
	}
	return n
}

func jobName(configured, fallback string) string {
	if configured != "" {
		return configured
	}
	return fallback
}

// mapChunks reduces each discovered chunk file with fn, running up to
// nWorkers files concurrently. Results come back in discovery order, which
// the merge stages rely on for deterministic tie-breaking. A file that fails
// to open or parse is logged, counted, and skipped; only context cancellation
// aborts the whole fan-out.
func mapChunks[T any](ctx context.Context, job string, paths []string, nWorkers int, fn func(context.Context, *file.Local) (T, error)) ([]T, int, error) {
	type slot struct {
		val T
		ok  bool
	}
	slots := make([]slot, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(nWorkers)
	for i, p := range paths {
		i, p := i, p
		g.Go(func() error {
			v, err := fn(ctx, file.NewLocal(p))
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				log.Printf("chunks: skipping file=%s err=%v", p, err)
				metrics.RecordChunk(job, "skipped")
				return nil
			}
			metrics.RecordChunk(job, "processed")
			slots[i] = slot{val: v, ok: true}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	out := make([]T, 0, len(paths))
	skipped := 0
	for _, s := range slots {
		if !s.ok {
			skipped++
			continue
		}
		out = append(out, s.val)
	}
	return out, skipped, nil
}

// mirror lands the finalized table in the configured database sink. The CSV
// file is the primary output; a mirror failure is the caller's to decide on.
func mirror(ctx context.Context, db *config.DB, columns []string, rows [][]any) error {
	repo, err := storage.New(ctx, storage.Config{Kind: db.Kind, DSN: db.DSN, Table: db.Table})
	if err != nil {
		return fmt.Errorf("mirror: open %s: %w", db.Kind, err)
	}
	defer repo.Close()

	if err := repo.CreateTable(ctx, db.Table, storage.ColumnsFor(columns)); err != nil {
		return fmt.Errorf("mirror: %w", err)
	}
	n, err := repo.InsertRows(ctx, db.Table, columns, rows)
	if err != nil {
		return fmt.Errorf("mirror: %w", err)
	}
	log.Printf("mirror: kind=%s table=%s rows=%d", db.Kind, db.Table, n)
	return nil
}
