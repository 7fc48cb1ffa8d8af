package storage_test

import (
	"context"
	"testing"

	"finpipe/internal/storage"
)

func TestColumnsFor(t *testing.T) {
	cases := map[string]string{
		"participantId":       "BIGINT",
		"employerId":          "BIGINT",
		"logged_income_count": "BIGINT",
		"worker_count":        "BIGINT",
		"check_ins":           "BIGINT",
		"start_balance":       "DOUBLE PRECISION",
		"logged_income_total": "DOUBLE PRECISION",
		"net_logged_change":   "DOUBLE PRECISION",
		"logged_expense_Food": "DOUBLE PRECISION",
		"total_revenue":       "DOUBLE PRECISION",
		"avg_spend_per_visit": "DOUBLE PRECISION",
		"Month":               "TEXT",
		"age_group":           "TEXT",
		"venue_type":          "TEXT",
	}
	for name, want := range cases {
		cols := storage.ColumnsFor([]string{name})
		if cols[0].SQLType != want {
			t.Fatalf("ColumnsFor(%q)=%q want %q", name, cols[0].SQLType, want)
		}
	}
}

func TestNewUnknownKind(t *testing.T) {
	if _, err := storage.New(context.Background(), storage.Config{Kind: "oracle"}); err == nil {
		t.Fatalf("expected error for unregistered backend")
	}
}
