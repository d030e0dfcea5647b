package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"finguard/internal/domain"
	"finguard/internal/money"
	"finguard/internal/validator"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	faintStyle  = lipgloss.NewStyle().Faint(true)
	passStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	panelStyle  = lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("63")).Padding(0, 1)
	tableBorder = lipgloss.NewStyle().BorderStyle(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color("240"))
)

// RenderConsole formats a batch summary for a terminal. With verbose set,
// every non-passing check is listed under its invoice.
func RenderConsole(summary *validator.BatchSummary, verbose bool) string {
	stats := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Validation summary"),
		fmt.Sprintf("Invoices:   %d (%d validated, %d rejected)", summary.TotalInvoices, summary.Successful, summary.Rejected),
		fmt.Sprintf("Escalated:  %d", summary.Escalated),
		fmt.Sprintf("Checks:     %d/%d passed", summary.PassedChecks, summary.TotalChecks),
		fmt.Sprintf("Confidence: %.0f%% average", summary.AverageConfidence*100),
		faintStyle.Render(fmt.Sprintf("%.0f ms per invoice", summary.AverageProcessingTime)),
	)

	var lines []string
	for _, r := range summary.Results {
		if r == nil {
			continue
		}
		lines = append(lines, invoiceLine(r))
		if verbose {
			lines = append(lines, checkLines(r)...)
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		panelStyle.Render(stats),
		tableBorder.Render(strings.Join(lines, "\n")),
	)
}

func invoiceLine(r *domain.ValidationResult) string {
	id := r.InvoiceID
	if id == "" {
		id = "(no invoice number)"
	}
	line := fmt.Sprintf("%-24s %s  %s  %d/%d",
		id, statusStyle(string(r.OverallStatus)).Render(fmt.Sprintf("%-18s", r.OverallStatus)),
		money.FormatGrouped(r.TotalAmount), r.PassedChecks, r.TotalChecks)
	if r.Escalated {
		line += "  " + warnStyle.Render("escalated")
	}
	return line
}

func checkLines(r *domain.ValidationResult) []string {
	var out []string
	for _, e := range r.IntakeErrors {
		out = append(out, "    "+failStyle.Render("intake")+" "+e)
	}
	for _, c := range r.AllChecks() {
		if c.Status == domain.CheckPass {
			continue
		}
		out = append(out, fmt.Sprintf("    %s %-6s %s", statusStyle(string(c.Status)).Render(fmt.Sprintf("%-7s", c.Status)), c.CheckID, c.Reasoning))
	}
	for _, reason := range r.EscalationReasons {
		out = append(out, faintStyle.Render("    > "+reason))
	}
	return out
}

func statusStyle(status string) lipgloss.Style {
	switch status {
	case string(domain.CheckPass):
		return passStyle
	case string(domain.CheckWarning), string(domain.OverallPassWithWarnings):
		return warnStyle
	case string(domain.CheckSkipped):
		return faintStyle
	default:
		return failStyle
	}
}
