package csvexport

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"finguard/internal/domain"
)

// UTF-8 BOM bytes for Excel compatibility on Windows.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// columns defines the CSV header row (15 columns).
var columns = []string{
	"Run ID",
	"Invoice ID",
	"Overall Status",
	"Escalated",
	"Category",
	"Category Name",
	"Check ID",
	"Check Name",
	"Status",
	"Severity",
	"Confidence",
	"Requires Review",
	"Reasoning",
	"Total Amount",
	"Validated At",
}

// Writer wraps csv.Writer for exporting validation results as CSV.
type Writer struct {
	csv *csv.Writer
}

// NewWriter creates a Writer that writes CSV to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{csv: csv.NewWriter(w)}
}

// WriteHeader writes the header row.
func (w *Writer) WriteHeader() error {
	return w.csv.Write(columns)
}

// WriteResults writes one row per check. A rejected invoice has no checks
// and gets a single row carrying its intake errors.
func (w *Writer) WriteResults(results []*domain.ValidationResult) error {
	for _, r := range results {
		if r == nil {
			continue
		}
		for _, row := range resultToRows(r) {
			if err := w.csv.Write(row); err != nil {
				return err
			}
		}
	}
	return nil
}

// Flush flushes the underlying csv.Writer buffer.
func (w *Writer) Flush() {
	w.csv.Flush()
}

// Error returns any error from the underlying csv.Writer.
func (w *Writer) Error() error {
	return w.csv.Error()
}

func resultToRows(r *domain.ValidationResult) [][]string {
	base := func() []string {
		row := make([]string, len(columns))
		row[0] = r.RunID
		row[1] = r.InvoiceID
		row[2] = string(r.OverallStatus)
		row[3] = formatBool(r.Escalated)
		row[13] = formatMoney(r.TotalAmount)
		row[14] = formatTime(r.Timestamp)
		return row
	}

	if r.OverallStatus == domain.OverallRejected || len(r.CategoryResults) == 0 {
		row := base()
		row[8] = string(r.OverallStatus)
		row[11] = formatBool(r.RequiresReview)
		row[12] = strings.Join(r.IntakeErrors, "; ")
		return [][]string{row}
	}

	var rows [][]string
	for _, cr := range r.Categories() {
		for i := range cr.Checks {
			c := &cr.Checks[i]
			row := base()
			row[4] = cr.Category
			row[5] = cr.CategoryName
			row[6] = c.CheckID
			row[7] = c.CheckName
			row[8] = string(c.Status)
			row[9] = string(c.Severity)
			row[10] = strconv.FormatFloat(c.Confidence, 'f', 2, 64)
			row[11] = formatBool(c.RequiresReview)
			row[12] = c.Reasoning
			rows = append(rows, row)
		}
	}
	return rows
}

func formatMoney(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func formatBool(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// nonAlphanumeric matches characters that are not alphanumeric, hyphen, or underscore.
var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// multiUnderscore matches consecutive underscores.
var multiUnderscore = regexp.MustCompile(`_{2,}`)

// SanitizeFilename cleans a batch name for use in Content-Disposition.
// Replaces non-alphanumeric chars (except - _) with _, collapses consecutive
// underscores, and truncates to 100 chars.
func SanitizeFilename(name string) string {
	s := nonAlphanumeric.ReplaceAllString(name, "_")
	s = multiUnderscore.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > 100 {
		s = s[:100]
	}
	if s == "" {
		s = "validation"
	}
	return s
}

// BuildFilename returns a sanitized filename for Content-Disposition header.
// Format: {sanitized_name}_{YYYY-MM-DD}.{ext}
func BuildFilename(name, ext string, now time.Time) string {
	return fmt.Sprintf("%s_%s.%s", SanitizeFilename(name), now.Format("2006-01-02"), ext)
}
