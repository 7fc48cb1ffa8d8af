package pipeline

import (
	"context"
	"log"
	"time"

	"finpipe/internal/config"
	"finpipe/internal/datasource/file"
	"finpipe/internal/metrics"
	"finpipe/internal/revenue"
	"finpipe/internal/storage/csvfile"
)

// RunRevenue executes the venue revenue job: weekly revenue estimates per pub
// and restaurant, plus the per-type rollup when a path for it is configured.
// All three inputs are required; there is nothing to apportion without them.
func RunRevenue(ctx context.Context, cfg config.Pipeline) error {
	job := jobName(cfg.Job, "venue_revenue")

	start := time.Now()
	venueWeeks, typeWeeks, err := revenue.Build(ctx, revenue.Sources{
		Venues:    file.NewLocal(cfg.Sources.Venues),
		Checkins:  file.NewLocal(cfg.Sources.Checkins),
		Financial: file.NewLocal(cfg.Sources.Journal),
	})
	metrics.RecordStep(job, "build", err, time.Since(start))
	if err != nil {
		return err
	}
	metrics.RecordRows(job, "venue_weeks", int64(len(venueWeeks)))
	log.Printf("build: venue weeks=%d type weeks=%d", len(venueWeeks), len(typeWeeks))

	venueCols := []string{"week", "venueId", "venue_type", "check_ins", "total_revenue", "avg_spend_per_visit"}
	venueRows := make([][]any, 0, len(venueWeeks))
	for _, v := range venueWeeks {
		venueRows = append(venueRows, []any{
			v.Week.String(), v.Venue, v.VenueType, int64(v.CheckIns), v.Revenue, v.AvgSpendPerVisit,
		})
	}
	start = time.Now()
	err = csvfile.Write(cfg.Output.Path, venueCols, venueRows)
	metrics.RecordStep(job, "write", err, time.Since(start))
	if err != nil {
		return err
	}
	metrics.RecordRows(job, "written", int64(len(venueRows)))
	log.Printf("write: path=%s rows=%d", cfg.Output.Path, len(venueRows))

	if cfg.Output.ByTypePath != "" {
		typeCols := []string{"week", "venue_type", "total_check_ins", "total_revenue", "venue_count", "avg_revenue_per_venue"}
		typeRows := make([][]any, 0, len(typeWeeks))
		for _, t := range typeWeeks {
			typeRows = append(typeRows, []any{
				t.Week.String(), t.VenueType, int64(t.CheckIns), t.Revenue, int64(t.VenueCount), t.AvgRevenuePerVenue,
			})
		}
		start = time.Now()
		err = csvfile.Write(cfg.Output.ByTypePath, typeCols, typeRows)
		metrics.RecordStep(job, "write_by_type", err, time.Since(start))
		if err != nil {
			return err
		}
		log.Printf("write: path=%s rows=%d", cfg.Output.ByTypePath, len(typeRows))
	}

	if cfg.Output.DB != nil {
		start = time.Now()
		err = mirror(ctx, cfg.Output.DB, venueCols, venueRows)
		metrics.RecordStep(job, "mirror", err, time.Since(start))
		if err != nil {
			return err
		}
	}
	return nil
}
