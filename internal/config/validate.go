// This file adds a lightweight linter/validator for Pipeline values. It
// performs static checks over a decoded Pipeline and returns a list of issues
// (errors and warnings) that callers can surface in a CLI or tests.
package config

import (
	"fmt"
	"strings"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a configuration warning that should be
	// surfaced to users but may not necessarily block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding. Path is a dotted path into the
// config (e.g. "sources.logs_glob"); Message is human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect one.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasError reports whether any issue is severity error.
func HasError(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

func common(p Pipeline) []Issue {
	var issues []Issue
	if strings.TrimSpace(p.Job) == "" {
		issues = append(issues, Issue{SeverityWarning, "job", "job name is empty; metrics and logs will use a generic label"})
	}
	switch p.Period {
	case "", "month", "week":
	default:
		issues = append(issues, Issue{SeverityError, "period", fmt.Sprintf("unknown period %q (want month or week)", p.Period)})
	}
	if p.Runtime.ChunkWorkers < 0 {
		issues = append(issues, Issue{SeverityError, "runtime.chunk_workers", "must be >= 0"})
	}
	if db := p.Output.DB; db != nil {
		if db.Kind != "sqlite" && db.Kind != "postgres" {
			issues = append(issues, Issue{SeverityError, "output.db.kind", fmt.Sprintf("unknown kind %q (want sqlite or postgres)", db.Kind)})
		}
		if strings.TrimSpace(db.DSN) == "" {
			issues = append(issues, Issue{SeverityError, "output.db.dsn", "dsn is required when a db sink is configured"})
		}
		if strings.TrimSpace(db.Table) == "" {
			issues = append(issues, Issue{SeverityError, "output.db.table", "table is required when a db sink is configured"})
		}
	}
	return issues
}

// ValidateFinancial checks a financial-summary pipeline config.
func ValidateFinancial(p Pipeline) []Issue {
	issues := common(p)
	if strings.TrimSpace(p.Sources.LogsGlob) == "" {
		issues = append(issues, Issue{SeverityError, "sources.logs_glob", "logs glob is required"})
	}
	if strings.TrimSpace(p.Sources.Journal) == "" {
		issues = append(issues, Issue{SeverityWarning, "sources.journal", "no journal configured; income and expense columns will be zero"})
	}
	if strings.TrimSpace(p.Sources.Attributes) == "" {
		issues = append(issues, Issue{SeverityWarning, "sources.attributes", "no attribute file configured; demographic columns will be Unknown"})
	}
	if strings.TrimSpace(p.Output.Path) == "" {
		issues = append(issues, Issue{SeverityError, "output.path", "output path is required"})
	}
	return issues
}

// ValidateTurnover checks an employment-turnover pipeline config.
func ValidateTurnover(p Pipeline) []Issue {
	issues := common(p)
	if strings.TrimSpace(p.Sources.LogsGlob) == "" {
		issues = append(issues, Issue{SeverityError, "sources.logs_glob", "logs glob is required"})
	}
	if strings.TrimSpace(p.Output.WorkPath) == "" {
		issues = append(issues, Issue{SeverityError, "output.work_path", "work output path is required"})
	}
	if strings.TrimSpace(p.Output.HeadcountPath) == "" {
		issues = append(issues, Issue{SeverityError, "output.headcount_path", "headcount output path is required"})
	}
	return issues
}

// ValidateRevenue checks a venue-revenue pipeline config.
func ValidateRevenue(p Pipeline) []Issue {
	issues := common(p)
	for path, v := range map[string]string{
		"sources.venues":   p.Sources.Venues,
		"sources.checkins": p.Sources.Checkins,
		"sources.journal":  p.Sources.Journal,
		"output.path":      p.Output.Path,
	} {
		if strings.TrimSpace(v) == "" {
			issues = append(issues, Issue{SeverityError, path, "required"})
		}
	}
	if strings.TrimSpace(p.Output.ByTypePath) == "" {
		issues = append(issues, Issue{SeverityWarning, "output.by_type_path", "no by-type rollup path; rollup output is skipped"})
	}
	return issues
}
