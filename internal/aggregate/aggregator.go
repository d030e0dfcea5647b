// Package aggregate merges category results into the overall decision and
// decides whether an invoice goes to human review.
package aggregate

import (
	"fmt"
	"math"
	"time"

	"finguard/internal/domain"
	"finguard/internal/money"
)

// Thresholds tune the overall status and escalation rules.
type Thresholds struct {
	ConfidenceThreshold           float64
	HighValueThreshold            float64
	PassWithWarningsMaxFailures   int
	PassWithWarningsMinConfidence float64
	MultipleFailuresThreshold     int
}

// DefaultThresholds returns the standard tuning.
func DefaultThresholds() Thresholds {
	return Thresholds{
		ConfidenceThreshold:           0.70,
		HighValueThreshold:            1_000_000,
		PassWithWarningsMaxFailures:   2,
		PassWithWarningsMinConfidence: 0.80,
		MultipleFailuresThreshold:     3,
	}
}

// Aggregator is a pure reducer over category results.
type Aggregator struct {
	t Thresholds
}

// New returns an Aggregator with the given thresholds.
func New(t Thresholds) *Aggregator {
	return &Aggregator{t: t}
}

// Thresholds returns the configured thresholds.
func (a *Aggregator) Thresholds() Thresholds { return a.t }

// Aggregate computes totals, overall status and escalation for one invoice.
func (a *Aggregator) Aggregate(invoiceID string, totalAmount float64, categories map[string]*domain.CategoryResult) *domain.ValidationResult {
	res := &domain.ValidationResult{
		InvoiceID:       invoiceID,
		Timestamp:       time.Now().UTC(),
		TotalAmount:     totalAmount,
		CategoryResults: categories,
	}
	if res.CategoryResults == nil {
		res.CategoryResults = map[string]*domain.CategoryResult{}
	}

	checks := res.AllChecks()
	var confidenceSum float64
	reviewCount := 0
	criticalCount := 0
	crashed := 0
	for i := range checks {
		c := &checks[i]
		switch c.Status {
		case domain.CheckPass:
			res.PassedChecks++
		case domain.CheckFail:
			res.FailedChecks++
		case domain.CheckWarning:
			res.Warnings++
		}
		confidenceSum += c.Confidence
		if c.RequiresReview {
			reviewCount++
		}
		if c.IsCriticalFailure() {
			criticalCount++
		}
		if c.IsCategoryError() {
			crashed++
		}
	}
	res.TotalChecks = len(checks)
	if len(checks) > 0 {
		res.AverageConfidence = confidenceSum / float64(len(checks))
	}
	res.RequiresReview = reviewCount > 0
	res.OverallStatus = a.status(res.FailedChecks, res.AverageConfidence)
	if crashed > 0 {
		res.OverallStatus = domain.OverallFail
	}

	reasons := a.escalationReasons(res, totalAmount, criticalCount, reviewCount)
	if crashed > 0 {
		reasons = append(reasons, fmt.Sprintf("%d category validator(s) did not complete", crashed))
	}
	res.Escalated = len(reasons) > 0
	res.EscalationReasons = reasons
	return res
}

// Rejected builds the result for an invoice that failed intake validation.
// No category runs, so the result carries only the intake errors.
func (a *Aggregator) Rejected(invoiceID string, totalAmount float64, intakeErrors []string) *domain.ValidationResult {
	return &domain.ValidationResult{
		InvoiceID:         invoiceID,
		Timestamp:         time.Now().UTC(),
		TotalAmount:       totalAmount,
		CategoryResults:   map[string]*domain.CategoryResult{},
		RequiresReview:    true,
		OverallStatus:     domain.OverallRejected,
		Escalated:         true,
		EscalationReasons: []string{"intake validation failed"},
		IntakeErrors:      intakeErrors,
	}
}

func (a *Aggregator) status(failed int, avgConfidence float64) domain.OverallStatus {
	switch {
	case failed == 0:
		return domain.OverallPass
	case failed <= a.t.PassWithWarningsMaxFailures && avgConfidence > a.t.PassWithWarningsMinConfidence:
		return domain.OverallPassWithWarnings
	default:
		return domain.OverallFail
	}
}

func (a *Aggregator) escalationReasons(res *domain.ValidationResult, totalAmount float64, critical, review int) []string {
	reasons := []string{}
	if res.AverageConfidence < a.t.ConfidenceThreshold {
		reasons = append(reasons, fmt.Sprintf("Low confidence: %s < %s",
			percent(res.AverageConfidence), percent(a.t.ConfidenceThreshold)))
	}
	if totalAmount > a.t.HighValueThreshold {
		reasons = append(reasons, fmt.Sprintf("High value: %s > %s",
			money.FormatGrouped(totalAmount), money.FormatGrouped(a.t.HighValueThreshold)))
	}
	if critical > 0 {
		reasons = append(reasons, fmt.Sprintf("%d critical failure(s)", critical))
	}
	if review > 0 {
		reasons = append(reasons, fmt.Sprintf("%d check(s) flagged for review", review))
	}
	if res.FailedChecks >= a.t.MultipleFailuresThreshold {
		reasons = append(reasons, fmt.Sprintf("Multiple failures: %d checks failed", res.FailedChecks))
	}
	return reasons
}

func percent(v float64) string {
	return fmt.Sprintf("%.0f%%", math.Round(v*100))
}
