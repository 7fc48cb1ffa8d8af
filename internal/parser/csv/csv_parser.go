// Package csv implements a streaming CSV parser for the pipeline inputs. It
// never buffers a whole file: rows are delivered one at a time to a caller
// callback, which keeps peak memory bounded by a single row while a chunk
// worker accumulates only its own aggregates.
package csv

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"strings"

	"finpipe/pkg/records"
)

// Options configures the CSV parser behavior. All fields are optional;
// sensible defaults are applied when a field is zero.
type Options struct {
	// HasHeader indicates whether the first row contains column headers.
	// Defaults to true for all pipeline inputs.
	HasHeader bool

	// Comma specifies the field delimiter. When zero, ',' is used.
	Comma rune

	// TrimSpace trims leading/trailing spaces from each field value.
	TrimSpace bool

	// Fields, when non-empty, restricts emitted records to the named columns
	// (the usecols discipline): other cells are dropped at parse time so a
	// wide log file costs only the columns a pipeline actually reads.
	Fields []string

	// HeaderMap maps source header names to canonical keys. Only applies when
	// HasHeader is true.
	HeaderMap map[string]string
}

// Parser parses CSV input according to Options. It is safe to reuse across
// inputs, but Parser itself is not concurrency-safe.
type Parser struct{ opt Options }

// NewParser constructs a Parser with the provided Options.
func NewParser(opt Options) *Parser { return &Parser{opt: opt} }

// utf8BOM is stripped from the first header cell if present.
const utf8BOM = "\ufeff"

// skipLogLimit caps per-file soft-failure log lines so a badly damaged file
// cannot flood the operator log. Skips beyond the limit are still counted.
const skipLogLimit = 25

// ParseFunc consumes CSV records from r and invokes fn once per parsed row.
// It returns the number of rows skipped due to parse errors or field-count
// mismatches (soft failures), and a non-nil error only for failures at file
// granularity: an unreadable header, or an error returned by fn, which aborts
// the scan.
func (p *Parser) ParseFunc(r io.Reader, fn func(rec records.Record) error) (int, error) {
	cr := csv.NewReader(r)
	if p.opt.Comma != 0 {
		cr.Comma = p.opt.Comma
	}
	cr.ReuseRecord = true
	cr.FieldsPerRecord = -1 // width enforced against the header below

	var headers []string
	if p.opt.HasHeader {
		h, err := cr.Read()
		if err != nil {
			return 0, fmt.Errorf("read csv header: %w", err)
		}
		headers = normalizeHeaders(h, p.opt)
	}

	// Column filter: nil means keep everything.
	var keep map[string]struct{}
	if len(p.opt.Fields) > 0 {
		keep = make(map[string]struct{}, len(p.opt.Fields))
		for _, f := range p.opt.Fields {
			keep[f] = struct{}{}
		}
	}

	var skipped int
	for line := 1; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			if skipped < skipLogLimit {
				log.Printf("csv: skipping row %d: %v", line, err)
			}
			skipped++
			continue
		}
		if len(headers) > 0 && len(row) != len(headers) {
			if skipped < skipLogLimit {
				log.Printf("csv: skipping row %d: field count %d, want %d", line, len(row), len(headers))
			}
			skipped++
			continue
		}

		rec := make(records.Record, len(row))
		for i, val := range row {
			key := keyFor(i, headers)
			if keep != nil {
				if _, ok := keep[key]; !ok {
					continue
				}
			}
			if p.opt.TrimSpace {
				val = strings.TrimSpace(val)
			}
			rec[key] = emptyToNil(val)
		}
		if err := fn(rec); err != nil {
			return skipped, err
		}
	}
	return skipped, nil
}

// Parse consumes CSV records from r and returns all parsed rows plus the
// skipped-row count. Intended for the smaller inputs (journals, attribute
// tables); the chunked log readers use ParseFunc.
func (p *Parser) Parse(r io.Reader) ([]records.Record, int, error) {
	var out []records.Record
	skipped, err := p.ParseFunc(r, func(rec records.Record) error {
		out = append(out, rec)
		return nil
	})
	if err != nil {
		return nil, skipped, err
	}
	return out, skipped, nil
}

// keyFor returns the column key for index idx, using headers when available,
// otherwise synthesizing a "col_N" name.
func keyFor(idx int, headers []string) string {
	if idx < len(headers) && headers[idx] != "" {
		return headers[idx]
	}
	return fmt.Sprintf("col_%d", idx)
}

// emptyToNil converts an empty string to nil; all other values are returned as-is.
func emptyToNil(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// normalizeHeaders produces canonical header keys: BOM stripped from the
// first cell, whitespace trimmed, then HeaderMap applied when provided.
func normalizeHeaders(h []string, opt Options) []string {
	res := make([]string, len(h))
	for i, col := range h {
		col = strings.TrimSpace(col)
		if i == 0 {
			col = strings.TrimPrefix(col, utf8BOM)
		}
		if opt.HeaderMap != nil {
			if mapped, ok := opt.HeaderMap[col]; ok && mapped != "" {
				col = mapped
			}
		}
		res[i] = col
	}
	return res
}
