package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"finguard/internal/domain"
	"finguard/internal/validator"
)

const (
	summarySheet = "Summary"
	invoiceSheet = "Invoices"
	checksSheet  = "Checks"
)

var invoiceHeader = []any{
	"Run ID", "Invoice ID", "Overall Status", "Escalated", "Total Amount",
	"Checks", "Passed", "Failed", "Warnings", "Average Confidence",
	"Processing Time (ms)", "Escalation Reasons",
}

var checkHeader = []any{
	"Invoice ID", "Category", "Check ID", "Check Name", "Status",
	"Severity", "Confidence", "Requires Review", "Reasoning",
}

// WriteXLSX writes a workbook with a batch summary sheet, one row per
// invoice and one row per check.
func WriteXLSX(w io.Writer, summary *validator.BatchSummary) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return fmt.Errorf("naming summary sheet: %w", err)
	}
	for _, name := range []string{invoiceSheet, checksSheet} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("creating %s sheet: %w", name, err)
		}
	}

	summaryRows := [][]any{
		{"Total invoices", summary.TotalInvoices},
		{"Successful", summary.Successful},
		{"Rejected", summary.Rejected},
		{"Escalated", summary.Escalated},
		{"Total checks", summary.TotalChecks},
		{"Passed checks", summary.PassedChecks},
		{"Average confidence", summary.AverageConfidence},
		{"Average processing time (ms)", summary.AverageProcessingTime},
	}
	for _, status := range []domain.OverallStatus{
		domain.OverallPass, domain.OverallPassWithWarnings, domain.OverallFail, domain.OverallRejected,
	} {
		summaryRows = append(summaryRows, []any{"Status " + string(status), summary.StatusCounts[status]})
	}
	if err := writeRows(f, summarySheet, summaryRows); err != nil {
		return err
	}

	invoices := [][]any{invoiceHeader}
	checks := [][]any{checkHeader}
	for _, r := range summary.Results {
		if r == nil {
			continue
		}
		invoices = append(invoices, []any{
			r.RunID, r.InvoiceID, string(r.OverallStatus), r.Escalated, r.TotalAmount,
			r.TotalChecks, r.PassedChecks, r.FailedChecks, r.Warnings, r.AverageConfidence,
			r.ProcessingTimeMS, strings.Join(append(append([]string{}, r.IntakeErrors...), r.EscalationReasons...), "; "),
		})
		for _, cr := range r.Categories() {
			for _, c := range cr.Checks {
				checks = append(checks, []any{
					r.InvoiceID, cr.CategoryName, c.CheckID, c.CheckName, string(c.Status),
					string(c.Severity), c.Confidence, c.RequiresReview, c.Reasoning,
				})
			}
		}
	}
	if err := writeRows(f, invoiceSheet, invoices); err != nil {
		return err
	}
	if err := writeRows(f, checksSheet, checks); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("writing %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
