package email_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"finguard/internal/domain"
	"finguard/internal/email"
)

func escalated() *domain.ValidationResult {
	return &domain.ValidationResult{
		RunID:             "run-42",
		InvoiceID:         "INV-<7>",
		TotalAmount:       2500000,
		OverallStatus:     domain.OverallFail,
		AverageConfidence: 0.65,
		FailedChecks:      1,
		EscalationReasons: []string{"Low confidence: 65% < 70%", "1 critical failure(s)"},
		CategoryResults: map[string]*domain.CategoryResult{
			domain.CategoryDocument: domain.NewCategoryResult(domain.CategoryDocument, []domain.CheckResult{{
				CheckID: "A2", CheckName: "Duplicate Invoice Detection", Status: domain.CheckFail,
				Severity: domain.SeverityCritical, Reasoning: "Exact duplicate",
			}}),
		},
	}
}

func TestEscalationMessage(t *testing.T) {
	msg := email.EscalationMessage(escalated(), "https://finguard.example.com/")

	assert.Equal(t, "[Finguard] Invoice INV-<7> escalated for review (FAIL)", msg.Subject)
	assert.Contains(t, msg.Text, "Amount: ₹2,500,000")
	assert.Contains(t, msg.Text, "Average confidence: 65%")
	assert.Contains(t, msg.Text, "  - Low confidence: 65% < 70%")
	assert.Contains(t, msg.Text, "[A2] Duplicate Invoice Detection: Exact duplicate")
	assert.Contains(t, msg.Text, "Details: https://finguard.example.com/validations/run-42")

	assert.Contains(t, msg.HTML, "INV-&lt;7&gt;")
	assert.NotContains(t, msg.HTML, "INV-<7>")
	assert.Contains(t, msg.HTML, "Low confidence: 65% &lt; 70%")
}

func TestEscalationMessage_RejectedWithoutConsole(t *testing.T) {
	res := &domain.ValidationResult{
		InvoiceID:         "INV-BAD",
		OverallStatus:     domain.OverallRejected,
		EscalationReasons: []string{"intake validation failed"},
		IntakeErrors:      []string{"Invoice must have at least one line item"},
	}
	msg := email.EscalationMessage(res, "")

	assert.Contains(t, msg.Text, "intake: Invoice must have at least one line item")
	assert.False(t, strings.Contains(msg.Text, "Details:"))
	assert.NotContains(t, msg.Text, "Critical issues")
}
