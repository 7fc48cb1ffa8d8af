package pipeline

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"finpipe/internal/config"
	"finpipe/internal/datasource/file"
)

func TestWorkersResolution(t *testing.T) {
	if got := workers(config.Runtime{ChunkWorkers: 3}); got != 3 {
		t.Fatalf("workers=%d want 3", got)
	}
	if got := workers(config.Runtime{}); got < 1 {
		t.Fatalf("workers=%d want >= 1 for zero config", got)
	}

	t.Setenv(chunkWorkersEnv, "7")
	if got := workers(config.Runtime{ChunkWorkers: 3}); got != 7 {
		t.Fatalf("workers=%d want env override 7", got)
	}

	t.Setenv(chunkWorkersEnv, "not-a-number")
	if got := workers(config.Runtime{ChunkWorkers: 3}); got != 3 {
		t.Fatalf("workers=%d want 3 (bad env ignored)", got)
	}
}

func TestMapChunksKeepsDiscoveryOrder(t *testing.T) {
	paths := []string{"a.csv", "b.csv", "c.csv", "d.csv"}
	got, skipped, err := mapChunks(context.Background(), "test", paths, 4,
		func(ctx context.Context, src *file.Local) (string, error) {
			return src.Path(), nil
		})
	if err != nil {
		t.Fatalf("mapChunks: %v", err)
	}
	if skipped != 0 {
		t.Fatalf("skipped=%d want 0", skipped)
	}
	if strings.Join(got, ",") != "a.csv,b.csv,c.csv,d.csv" {
		t.Fatalf("order=%v", got)
	}
}

func TestMapChunksSkipsFailedFiles(t *testing.T) {
	paths := []string{"a.csv", "bad.csv", "c.csv"}
	got, skipped, err := mapChunks(context.Background(), "test", paths, 2,
		func(ctx context.Context, src *file.Local) (string, error) {
			if src.Path() == "bad.csv" {
				return "", fmt.Errorf("unreadable")
			}
			return src.Path(), nil
		})
	if err != nil {
		t.Fatalf("mapChunks: %v", err)
	}
	if skipped != 1 {
		t.Fatalf("skipped=%d want 1", skipped)
	}
	if strings.Join(got, ",") != "a.csv,c.csv" {
		t.Fatalf("got=%v", got)
	}
}

func TestMapChunksCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := mapChunks(ctx, "test", []string{"a.csv"}, 1,
		func(ctx context.Context, src *file.Local) (string, error) {
			// Open fails with the context error on a dead context, which
			// mapChunks must surface instead of counting a skip.
			if _, err := src.Open(ctx); err != nil {
				return "", err
			}
			return src.Path(), nil
		})
	if err == nil {
		t.Fatalf("expected context error")
	}
}
