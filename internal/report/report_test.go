package report_test

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"finguard/internal/csvexport"
	"finguard/internal/domain"
	"finguard/internal/report"
	"finguard/internal/validator"
)

func sampleSummary() *validator.BatchSummary {
	ok := &domain.ValidationResult{
		RunID: "run-1", InvoiceID: "INV-001", Timestamp: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		TotalAmount: 118000, OverallStatus: domain.OverallPass, TotalChecks: 2, PassedChecks: 1, Warnings: 1,
		AverageConfidence: 0.9,
		CategoryResults: map[string]*domain.CategoryResult{
			domain.CategoryArithmetic: domain.NewCategoryResult(domain.CategoryArithmetic, []domain.CheckResult{
				{CheckID: "C1", CheckName: "Line Item Totals", Status: domain.CheckPass, Severity: domain.SeverityHigh, Confidence: 1},
				{CheckID: "C2", CheckName: "Subtotal", Status: domain.CheckWarning, Severity: domain.SeverityMedium, Confidence: 0.8, Reasoning: "Subtotal off by ₹0.50"},
			}),
		},
	}
	rejected := &domain.ValidationResult{
		InvoiceID: "INV-002", OverallStatus: domain.OverallRejected, Escalated: true, RequiresReview: true,
		IntakeErrors:      []string{"Missing required field: vendor"},
		EscalationReasons: []string{"Input rejected: 1 error(s)"},
	}
	return validator.Summarize([]*domain.ValidationResult{ok, rejected})
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]report.Format{
		"":      report.FormatJSON,
		"JSON":  report.FormatJSON,
		" csv ": report.FormatCSV,
		"xlsx":  report.FormatXLSX,
		"excel": report.FormatXLSX,
	} {
		got, err := report.ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := report.ParseFormat("pdf")
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
}

func TestFormat_ContentType(t *testing.T) {
	assert.Equal(t, "application/json", report.FormatJSON.ContentType())
	assert.Equal(t, "text/csv; charset=utf-8", report.FormatCSV.ContentType())
	assert.Contains(t, report.FormatXLSX.ContentType(), "spreadsheetml")
	assert.Equal(t, "xlsx", report.FormatXLSX.Extension())
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, report.Write(&buf, report.FormatJSON, sampleSummary()))

	var decoded struct {
		TotalInvoices int `json:"total_invoices"`
		Rejected      int `json:"rejected"`
		Results       []struct {
			InvoiceID       string `json:"invoice_id"`
			CategoryResults map[string]struct {
				Passed int `json:"passed"`
			} `json:"category_results"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, 2, decoded.TotalInvoices)
	assert.Equal(t, 1, decoded.Rejected)
	require.Len(t, decoded.Results, 2)
	assert.Equal(t, 1, decoded.Results[0].CategoryResults["C"].Passed)
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, report.Write(&buf, report.FormatCSV, sampleSummary()))

	raw := buf.Bytes()
	require.True(t, bytes.HasPrefix(raw, csvexport.BOM))

	rows, err := csv.NewReader(bytes.NewReader(raw[len(csvexport.BOM):])).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4, "header, two checks, one rejected row")
	assert.Equal(t, "C2", rows[2][6])
	assert.Equal(t, "INV-002", rows[3][1])
	assert.Equal(t, "REJECTED", rows[3][2])
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, report.Write(&buf, report.FormatXLSX, sampleSummary()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t, []string{"Summary", "Invoices", "Checks"}, f.GetSheetList())

	total, err := f.GetCellValue("Summary", "B1")
	require.NoError(t, err)
	assert.Equal(t, "2", total)

	invoices, err := f.GetRows("Invoices")
	require.NoError(t, err)
	require.Len(t, invoices, 3)
	assert.Equal(t, "INV-002", invoices[2][1])
	assert.Equal(t, "Missing required field: vendor; Input rejected: 1 error(s)", invoices[2][11])

	checks, err := f.GetRows("Checks")
	require.NoError(t, err)
	require.Len(t, checks, 3)
	assert.Equal(t, "C1", checks[1][2])
	assert.Equal(t, domain.CategoryNames[domain.CategoryArithmetic], checks[1][1])
}

func TestRenderConsole(t *testing.T) {
	out := report.RenderConsole(sampleSummary(), true)
	assert.Contains(t, out, "Validation summary")
	assert.Contains(t, out, "INV-001")
	assert.Contains(t, out, "₹118,000")
	assert.Contains(t, out, "Subtotal off by ₹0.50")
	assert.Contains(t, out, "Missing required field: vendor")

	brief := report.RenderConsole(sampleSummary(), false)
	assert.NotContains(t, brief, "Subtotal off by")
}
