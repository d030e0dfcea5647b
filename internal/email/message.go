// Package email renders escalation notices. Delivery lives in the ses and
// noop subpackages.
package email

import (
	"fmt"
	"html"
	"net/url"
	"strings"

	"finguard/internal/domain"
	"finguard/internal/money"
)

// maxListedIssues caps the critical issues listed in one notice.
const maxListedIssues = 10

// Message is a rendered escalation notice.
type Message struct {
	Subject string
	HTML    string
	Text    string
}

// EscalationMessage renders the notice for an escalated result. consoleURL,
// when set, links to the stored run.
func EscalationMessage(result *domain.ValidationResult, consoleURL string) Message {
	subject := fmt.Sprintf("[Finguard] Invoice %s escalated for review (%s)", result.InvoiceID, result.OverallStatus)

	var link string
	if consoleURL != "" && result.RunID != "" {
		link = fmt.Sprintf("%s/validations/%s", strings.TrimRight(consoleURL, "/"), url.PathEscape(result.RunID))
	}

	issues := result.CriticalIssues()
	if len(issues) > maxListedIssues {
		issues = issues[:maxListedIssues]
	}

	var text strings.Builder
	fmt.Fprintf(&text, "Invoice %s needs human review.\n\n", result.InvoiceID)
	fmt.Fprintf(&text, "Status: %s\nAmount: %s\nAverage confidence: %.0f%%\n", result.OverallStatus,
		money.FormatGrouped(result.TotalAmount), result.AverageConfidence*100)
	fmt.Fprintf(&text, "Checks: %d passed, %d failed, %d warnings\n\n", result.PassedChecks, result.FailedChecks, result.Warnings)
	text.WriteString("Escalation reasons:\n")
	for _, r := range result.EscalationReasons {
		fmt.Fprintf(&text, "  - %s\n", r)
	}
	for _, e := range result.IntakeErrors {
		fmt.Fprintf(&text, "  - intake: %s\n", e)
	}
	if len(issues) > 0 {
		text.WriteString("\nCritical issues:\n")
		for _, c := range issues {
			fmt.Fprintf(&text, "  - [%s] %s: %s\n", c.CheckID, c.CheckName, c.Reasoning)
		}
	}
	if link != "" {
		fmt.Fprintf(&text, "\nDetails: %s\n", link)
	}

	var body strings.Builder
	body.WriteString(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; max-width: 640px; margin: 0 auto; padding: 20px;">
`)
	fmt.Fprintf(&body, "  <h2 style=\"color: #B91C1C;\">Invoice %s escalated</h2>\n", html.EscapeString(result.InvoiceID))
	fmt.Fprintf(&body, "  <p>Status <strong>%s</strong>, amount %s, average confidence %.0f%%.</p>\n",
		html.EscapeString(string(result.OverallStatus)), html.EscapeString(money.FormatGrouped(result.TotalAmount)), result.AverageConfidence*100)
	body.WriteString("  <h3>Escalation reasons</h3>\n  <ul>\n")
	for _, r := range result.EscalationReasons {
		fmt.Fprintf(&body, "    <li>%s</li>\n", html.EscapeString(r))
	}
	for _, e := range result.IntakeErrors {
		fmt.Fprintf(&body, "    <li>intake: %s</li>\n", html.EscapeString(e))
	}
	body.WriteString("  </ul>\n")
	if len(issues) > 0 {
		body.WriteString("  <h3>Critical issues</h3>\n  <ul>\n")
		for _, c := range issues {
			fmt.Fprintf(&body, "    <li><code>%s</code> %s: %s</li>\n",
				html.EscapeString(c.CheckID), html.EscapeString(c.CheckName), html.EscapeString(c.Reasoning))
		}
		body.WriteString("  </ul>\n")
	}
	if link != "" {
		fmt.Fprintf(&body, "  <p><a href=\"%s\">Open the validation run</a></p>\n", html.EscapeString(link))
	}
	body.WriteString(`  <hr style="border: none; border-top: 1px solid #eee; margin: 20px 0;">
  <p style="color: #999; font-size: 12px;">Finguard - Invoice Validation</p>
</body>
</html>`)

	return Message{Subject: subject, HTML: body.String(), Text: text.String()}
}
