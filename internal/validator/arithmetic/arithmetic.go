// Package arithmetic implements category C: the invoice's own numbers must
// add up.
package arithmetic

import (
	"context"
	"fmt"
	"strings"

	"finguard/internal/domain"
	"finguard/internal/money"
	"finguard/internal/validator"
)

// tolerance absorbs rounding on printed invoices. Intake is stricter (₹0.01).
const tolerance = 1.00

// rule is one arithmetic relationship between invoice fields.
type rule struct {
	id       string
	name     string
	passSev  domain.Severity
	failSev  domain.Severity
	evaluate func(*domain.Invoice) (ok bool, reasoning string)
}

// Validator runs the arithmetic checks.
type Validator struct {
	rules []rule
}

// New returns the arithmetic validator.
func New() *Validator {
	return &Validator{rules: rules()}
}

func (v *Validator) Category() string { return domain.CategoryArithmetic }
func (v *Validator) Name() string     { return domain.CategoryNames[domain.CategoryArithmetic] }

// Validate evaluates every rule. Failures are always flagged for review.
func (v *Validator) Validate(_ context.Context, inv *domain.Invoice) []domain.CheckResult {
	out := make([]domain.CheckResult, 0, len(v.rules))
	for _, r := range v.rules {
		ok, reasoning := r.evaluate(inv)
		if ok {
			out = append(out, validator.Pass(r.id, r.name, r.passSev, 1.0, reasoning))
			continue
		}
		out = append(out, validator.Fail(r.id, r.name, r.failSev, 1.0, reasoning).Review())
	}
	return out
}

func rules() []rule {
	return []rule{
		{
			id: "C1", name: "Line Item Amount Calculation",
			passSev: domain.SeverityMedium, failSev: domain.SeverityHigh,
			evaluate: func(inv *domain.Invoice) (bool, string) {
				var errs []string
				for i := range inv.LineItems {
					item := &inv.LineItems[i]
					expected := money.Mul(item.Quantity, item.Rate)
					if !money.Within(item.Amount, expected, tolerance) {
						errs = append(errs, fmt.Sprintf("Line %d: Expected %s, got %s",
							i+1, money.Format(expected), money.Format(item.Amount)))
					}
				}
				if len(errs) > 0 {
					return false, strings.Join(errs, "; ")
				}
				return true, "All line item amounts calculated correctly"
			},
		},
		{
			id: "C2", name: "Subtotal Matches Line Items",
			passSev: domain.SeverityMedium, failSev: domain.SeverityHigh,
			evaluate: func(inv *domain.Invoice) (bool, string) {
				expected := inv.LineItemsTotal()
				if money.Within(expected, inv.Subtotal, tolerance) {
					return true, fmt.Sprintf("Subtotal %s matches sum of line items", money.Format(inv.Subtotal))
				}
				return false, fmt.Sprintf("Subtotal mismatch: Expected %s, got %s",
					money.Format(expected), money.Format(inv.Subtotal))
			},
		},
		{
			id: "C3", name: "Tax Calculation Accuracy",
			passSev: domain.SeverityHigh, failSev: domain.SeverityCritical,
			evaluate: func(inv *domain.Invoice) (bool, string) {
				expected := money.Sum(inv.CGSTAmount, inv.SGSTAmount, inv.IGSTAmount, inv.Cess)
				if money.Within(expected, inv.TotalTax, tolerance) {
					return true, fmt.Sprintf("Total tax %s calculated correctly", money.Format(inv.TotalTax))
				}
				return false, fmt.Sprintf("Tax mismatch: Expected %s, got %s",
					money.Format(expected), money.Format(inv.TotalTax))
			},
		},
		{
			id: "C10", name: "Total Amount Calculation",
			passSev: domain.SeverityCritical, failSev: domain.SeverityCritical,
			evaluate: func(inv *domain.Invoice) (bool, string) {
				expected := money.Sum(inv.Subtotal, inv.TotalTax)
				if money.Within(expected, inv.TotalAmount, tolerance) {
					return true, fmt.Sprintf("Total amount %s calculated correctly", money.Format(inv.TotalAmount))
				}
				return false, fmt.Sprintf("Total mismatch: Expected %s, got %s",
					money.Format(expected), money.Format(inv.TotalAmount))
			},
		},
	}
}
