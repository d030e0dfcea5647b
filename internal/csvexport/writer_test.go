package csvexport_test

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finguard/internal/csvexport"
	"finguard/internal/domain"
)

func readAll(t *testing.T, buf *bytes.Buffer) [][]string {
	t.Helper()
	rows, err := csv.NewReader(buf).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestWriteHeader(t *testing.T) {
	var buf bytes.Buffer
	w := csvexport.NewWriter(&buf)
	require.NoError(t, w.WriteHeader())
	w.Flush()
	require.NoError(t, w.Error())

	rows := readAll(t, &buf)
	require.Len(t, rows, 1)
	assert.Len(t, rows[0], 15)
	assert.Equal(t, "Run ID", rows[0][0])
	assert.Equal(t, "Validated At", rows[0][14])
}

func TestWriteResults_OneRowPerCheck(t *testing.T) {
	ts := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	res := &domain.ValidationResult{
		RunID: "run-1", InvoiceID: "INV-1", Timestamp: ts, TotalAmount: 118000,
		OverallStatus: domain.OverallPassWithWarnings, Escalated: true,
		CategoryResults: map[string]*domain.CategoryResult{
			domain.CategoryVendor: domain.NewCategoryResult(domain.CategoryVendor, []domain.CheckResult{
				{CheckID: "F1", CheckName: "Seller in Vendor Registry", Status: domain.CheckPass, Severity: domain.SeverityHigh, Confidence: 0.95},
			}),
			domain.CategoryDocument: domain.NewCategoryResult(domain.CategoryDocument, []domain.CheckResult{
				{CheckID: "A1", CheckName: "Invoice Number Format", Status: domain.CheckPass, Severity: domain.SeverityLow, Confidence: 0.9},
				{CheckID: "A2", CheckName: "Duplicate Invoice Detection", Status: domain.CheckFail, Severity: domain.SeverityCritical, Confidence: 0.95, RequiresReview: true, Reasoning: "Exact duplicate, seen before"},
			}),
		},
	}

	var buf bytes.Buffer
	w := csvexport.NewWriter(&buf)
	require.NoError(t, w.WriteResults([]*domain.ValidationResult{res, nil}))
	w.Flush()

	rows := readAll(t, &buf)
	require.Len(t, rows, 3)
	assert.Equal(t, "A1", rows[0][6], "document category comes first")
	assert.Equal(t, "A2", rows[1][6])
	assert.Equal(t, "F1", rows[2][6])
	assert.Equal(t, []string{
		"run-1", "INV-1", "PASS_WITH_WARNINGS", "Yes", "A", domain.CategoryNames[domain.CategoryDocument],
		"A2", "Duplicate Invoice Detection", "FAIL", "CRITICAL", "0.95", "Yes",
		"Exact duplicate, seen before", "118000.00", "2025-06-15T10:00:00Z",
	}, rows[1])
}

func TestWriteResults_Rejected(t *testing.T) {
	res := &domain.ValidationResult{
		InvoiceID: "INV-BAD", OverallStatus: domain.OverallRejected, RequiresReview: true,
		IntakeErrors: []string{"Missing required field: vendor", "Invoice must have at least one line item"},
	}

	var buf bytes.Buffer
	w := csvexport.NewWriter(&buf)
	require.NoError(t, w.WriteResults([]*domain.ValidationResult{res}))
	w.Flush()

	rows := readAll(t, &buf)
	require.Len(t, rows, 1)
	assert.Equal(t, "REJECTED", rows[0][8])
	assert.Equal(t, "Missing required field: vendor; Invoice must have at least one line item", rows[0][12])
	assert.Equal(t, "", rows[0][14])
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "June_batch_Mumbai", csvexport.SanitizeFilename("June batch / Mumbai"))
	assert.Equal(t, "validation", csvexport.SanitizeFilename("///"))
	assert.Len(t, csvexport.SanitizeFilename(string(bytes.Repeat([]byte("a"), 150))), 100)
}

func TestBuildFilename(t *testing.T) {
	now := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "batch_7_2025-06-15.csv", csvexport.BuildFilename("batch 7", "csv", now))
}
