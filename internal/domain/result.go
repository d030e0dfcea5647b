package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// CheckResult is the outcome of one discrete rule. Immutable once created.
type CheckResult struct {
	CheckID        string         `json:"check_id"`
	CheckName      string         `json:"check_name"`
	Status         CheckStatus    `json:"status"`
	Confidence     float64        `json:"confidence"`
	Reasoning      string         `json:"reasoning"`
	Severity       Severity       `json:"severity"`
	RequiresReview bool           `json:"requires_review"`
	Timestamp      time.Time      `json:"timestamp"`
	Details        map[string]any `json:"details,omitempty"`
}

// IsCriticalFailure reports a FAIL at CRITICAL severity.
func (c *CheckResult) IsCriticalFailure() bool {
	return c.Status == CheckFail && c.Severity == SeverityCritical
}

// CategoryErrorSuffix marks the check recorded for a category that did not
// complete, as in "B.ERR".
const CategoryErrorSuffix = ".ERR"

// IsCategoryError reports whether the check stands in for a whole category
// that failed to run.
func (c *CheckResult) IsCategoryError() bool {
	return strings.HasSuffix(c.CheckID, CategoryErrorSuffix)
}

// CategoryResult groups the checks produced by one category validator.
// Counts and average confidence are always derived from Checks.
type CategoryResult struct {
	Category     string        `json:"category"`
	CategoryName string        `json:"category_name"`
	Checks       []CheckResult `json:"checks"`
}

// NewCategoryResult builds a category result for the given id.
func NewCategoryResult(category string, checks []CheckResult) *CategoryResult {
	name := CategoryNames[category]
	if name == "" {
		name = category
	}
	return &CategoryResult{Category: category, CategoryName: name, Checks: checks}
}

func (r *CategoryResult) count(status CheckStatus) int {
	n := 0
	for i := range r.Checks {
		if r.Checks[i].Status == status {
			n++
		}
	}
	return n
}

// Passed counts PASS checks.
func (r *CategoryResult) Passed() int { return r.count(CheckPass) }

// Failed counts FAIL checks.
func (r *CategoryResult) Failed() int { return r.count(CheckFail) }

// Warnings counts WARNING checks.
func (r *CategoryResult) Warnings() int { return r.count(CheckWarning) }

// AverageConfidence is the mean confidence of the checks, or 0 when empty.
func (r *CategoryResult) AverageConfidence() float64 {
	if len(r.Checks) == 0 {
		return 0
	}
	var sum float64
	for i := range r.Checks {
		sum += r.Checks[i].Confidence
	}
	return sum / float64(len(r.Checks))
}

type categoryResultJSON struct {
	Category          string        `json:"category"`
	CategoryName      string        `json:"category_name"`
	Checks            []CheckResult `json:"checks"`
	Passed            int           `json:"passed"`
	Failed            int           `json:"failed"`
	Warnings          int           `json:"warnings"`
	AverageConfidence float64       `json:"average_confidence"`
}

// MarshalJSON emits the derived counts alongside the checks.
func (r *CategoryResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(categoryResultJSON{
		Category:          r.Category,
		CategoryName:      r.CategoryName,
		Checks:            r.Checks,
		Passed:            r.Passed(),
		Failed:            r.Failed(),
		Warnings:          r.Warnings(),
		AverageConfidence: r.AverageConfidence(),
	})
}

// UnmarshalJSON reads a category result. Derived fields are ignored and recomputed.
func (r *CategoryResult) UnmarshalJSON(data []byte) error {
	var raw categoryResultJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.Category = raw.Category
	r.CategoryName = raw.CategoryName
	r.Checks = raw.Checks
	return nil
}

// ValidationResult is the aggregate outcome for one invoice.
type ValidationResult struct {
	RunID             string                     `json:"run_id,omitempty"`
	InvoiceID         string                     `json:"invoice_id"`
	Timestamp         time.Time                  `json:"timestamp"`
	TotalAmount       float64                    `json:"total_amount"`
	CategoryResults   map[string]*CategoryResult `json:"category_results"`
	TotalChecks       int                        `json:"total_checks"`
	PassedChecks      int                        `json:"passed_checks"`
	FailedChecks      int                        `json:"failed_checks"`
	Warnings          int                        `json:"warnings"`
	AverageConfidence float64                    `json:"average_confidence"`
	RequiresReview    bool                       `json:"requires_review"`
	OverallStatus     OverallStatus              `json:"overall_status"`
	Escalated         bool                       `json:"escalated"`
	EscalationReasons []string                   `json:"escalation_reasons"`
	IntakeErrors      []string                   `json:"intake_errors,omitempty"`
	ProcessingTimeMS  int64                      `json:"processing_time_ms"`
}

// Categories returns category results in display order, unknown ids last.
func (v *ValidationResult) Categories() []*CategoryResult {
	out := make([]*CategoryResult, 0, len(v.CategoryResults))
	seen := make(map[string]bool, len(v.CategoryResults))
	for _, id := range CategoryOrder {
		if cr, ok := v.CategoryResults[id]; ok {
			out = append(out, cr)
			seen[id] = true
		}
	}
	for id, cr := range v.CategoryResults {
		if !seen[id] {
			out = append(out, cr)
		}
	}
	return out
}

// AllChecks flattens checks in category display order.
func (v *ValidationResult) AllChecks() []CheckResult {
	var out []CheckResult
	for _, cr := range v.Categories() {
		out = append(out, cr.Checks...)
	}
	return out
}

// CriticalIssues returns every CRITICAL failure across categories.
func (v *ValidationResult) CriticalIssues() []CheckResult {
	var out []CheckResult
	for _, c := range v.AllChecks() {
		if c.IsCriticalFailure() {
			out = append(out, c)
		}
	}
	return out
}

// HasConflicts reports whether both passing and failing checks exist.
func (v *ValidationResult) HasConflicts() bool {
	return v.PassedChecks > 0 && v.FailedChecks > 0
}

// Review returns a copy flagged for human review.
func (c CheckResult) Review() CheckResult {
	c.RequiresReview = true
	return c
}

// WithDetails returns a copy carrying supporting details.
func (c CheckResult) WithDetails(details map[string]any) CheckResult {
	c.Details = details
	return c
}
