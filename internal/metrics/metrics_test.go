package metrics_test

import (
	"errors"
	"testing"
	"time"

	"finpipe/internal/metrics"
)

type capture struct {
	counters   map[string]float64
	lastLabels metrics.Labels
	observed   []float64
	flushed    int
}

func newCapture() *capture {
	return &capture{counters: make(map[string]float64)}
}

func (c *capture) IncCounter(name string, delta float64, labels metrics.Labels) {
	c.counters[name] += delta
	c.lastLabels = labels
}

func (c *capture) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	c.observed = append(c.observed, value)
	c.lastLabels = labels
}

func (c *capture) Flush() error {
	c.flushed++
	return nil
}

func TestRecordStep(t *testing.T) {
	c := newCapture()
	metrics.SetBackend(c)

	metrics.RecordStep("job1", "chunks", nil, 250*time.Millisecond)
	if c.counters["finpipe_step_total"] != 1 {
		t.Fatalf("step_total=%v want 1", c.counters["finpipe_step_total"])
	}
	if c.lastLabels["status"] != "success" {
		t.Fatalf("status=%q want success", c.lastLabels["status"])
	}
	if len(c.observed) != 1 || c.observed[0] != 0.25 {
		t.Fatalf("observed=%v want [0.25]", c.observed)
	}

	metrics.RecordStep("job1", "chunks", errors.New("boom"), time.Second)
	if c.lastLabels["status"] != "failure" {
		t.Fatalf("status=%q want failure", c.lastLabels["status"])
	}
}

func TestRecordRowsIgnoresNonPositiveDeltas(t *testing.T) {
	c := newCapture()
	metrics.SetBackend(c)

	metrics.RecordRows("job1", "rows", 10)
	metrics.RecordRows("job1", "rows", 0)
	metrics.RecordRows("job1", "rows", -5)
	if c.counters["finpipe_records_total"] != 10 {
		t.Fatalf("records_total=%v want 10", c.counters["finpipe_records_total"])
	}
}

func TestRecordChunkAndFlush(t *testing.T) {
	c := newCapture()
	metrics.SetBackend(c)

	metrics.RecordChunk("job1", "processed")
	metrics.RecordChunk("job1", "skipped")
	if c.counters["finpipe_chunks_total"] != 2 {
		t.Fatalf("chunks_total=%v want 2", c.counters["finpipe_chunks_total"])
	}
	if err := metrics.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if c.flushed != 1 {
		t.Fatalf("flushed=%d want 1", c.flushed)
	}
}

func TestSetBackendNilKeepsCurrent(t *testing.T) {
	c := newCapture()
	metrics.SetBackend(c)
	metrics.SetBackend(nil)
	metrics.RecordChunk("job1", "processed")
	if c.counters["finpipe_chunks_total"] != 1 {
		t.Fatalf("nil SetBackend must keep the installed backend")
	}
}
