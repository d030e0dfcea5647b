// Package report renders batch validation results as JSON, CSV, XLSX and
// terminal output.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"finguard/internal/csvexport"
	"finguard/internal/domain"
	"finguard/internal/validator"
)

// Format is an output encoding for a batch report.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat accepts a case-insensitive format name. An empty name is JSON.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatCSV:
		return FormatCSV, nil
	case FormatXLSX, "excel":
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, s)
}

// ContentType is the MIME type served for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/json"
	}
}

// Extension is the file extension for the format, without a dot.
func (f Format) Extension() string {
	return string(f)
}

// Write renders summary to w in the given format.
func Write(w io.Writer, f Format, summary *validator.BatchSummary) error {
	switch f {
	case FormatJSON:
		return WriteJSON(w, summary)
	case FormatCSV:
		return WriteCSV(w, summary.Results)
	case FormatXLSX:
		return WriteXLSX(w, summary)
	}
	return fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, f)
}

// WriteJSON writes the summary as indented JSON.
func WriteJSON(w io.Writer, summary *validator.BatchSummary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(summary)
}

// WriteCSV writes one row per check, prefixed with a UTF-8 BOM so Excel
// opens the rupee sign correctly.
func WriteCSV(w io.Writer, results []*domain.ValidationResult) error {
	if _, err := w.Write(csvexport.BOM); err != nil {
		return fmt.Errorf("writing BOM: %w", err)
	}
	cw := csvexport.NewWriter(w)
	if err := cw.WriteHeader(); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	if err := cw.WriteResults(results); err != nil {
		return fmt.Errorf("writing CSV rows: %w", err)
	}
	cw.Flush()
	return cw.Error()
}
