// Package policy implements category E: company policy and approval rules.
package policy

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"finguard/internal/domain"
	"finguard/internal/gstin"
	"finguard/internal/history"
	"finguard/internal/money"
	"finguard/internal/port"
	"finguard/internal/validator"
)

const (
	retrospectiveDays = 60
	msmePaymentDays   = 45
	reviewLevel       = 4
)

var firstNumber = regexp.MustCompile(`\d+`)

// Validator runs the policy checks. E5 only reads the duplicate history that
// the document validator writes.
type Validator struct {
	policy     port.CompanyPolicy
	vendors    port.VendorLookup
	duplicates *history.DuplicateHistory
	prior      port.DuplicateInvoiceFinder
	now        validator.Clock
	logger     *zap.Logger
}

// Option configures a Validator.
type Option func(*Validator)

// WithClock overrides time.Now.
func WithClock(c validator.Clock) Option {
	return func(v *Validator) { v.now = c }
}

// WithPriorRuns also looks for duplicates among persisted validation runs.
func WithPriorRuns(f port.DuplicateInvoiceFinder) Option {
	return func(v *Validator) { v.prior = f }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(v *Validator) { v.logger = l }
}

// New creates a policy validator.
func New(policy port.CompanyPolicy, vendors port.VendorLookup, duplicates *history.DuplicateHistory, opts ...Option) *Validator {
	if duplicates == nil {
		duplicates = history.NewDuplicateHistory()
	}
	v := &Validator{policy: policy, vendors: vendors, duplicates: duplicates, now: time.Now, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

func (v *Validator) Category() string { return domain.CategoryPolicy }
func (v *Validator) Name() string     { return domain.CategoryNames[domain.CategoryPolicy] }

// Validate runs E1 through E6.
func (v *Validator) Validate(ctx context.Context, inv *domain.Invoice) []domain.CheckResult {
	today := validator.DateOnly(v.now())
	vendor, _ := v.vendor(inv)
	return []domain.CheckResult{
		v.approvalLevel(inv, today),
		v.dateValidity(inv, today),
		poReference(inv),
		paymentTerms(inv, vendor),
		v.duplicate(ctx, inv),
		v.fiscalYear(inv, today),
	}
}

func (v *Validator) vendor(inv *domain.Invoice) (domain.Vendor, bool) {
	if v.vendors == nil || !v.vendors.Loaded() {
		return domain.Vendor{}, false
	}
	return v.vendors.ByGSTIN(inv.Seller.GSTIN)
}

// Flags derives the approval risk flags for an invoice.
func (v *Validator) Flags(inv *domain.Invoice, today time.Time) domain.RiskFlags {
	vendor, known := v.vendor(inv)
	pan := vendor.PAN
	if pan == "" {
		pan = gstin.PAN(inv.Seller.GSTIN)
	}
	return domain.RiskFlags{
		FirstTimeVendor: v.vendors != nil && v.vendors.Loaded() && !known,
		Retrospective:   validator.DaysBetween(inv.InvoiceDate, today) > retrospectiveDays,
		RelatedParty:    v.vendors != nil && v.vendors.IsRelatedParty(pan),
	}
}

func (v *Validator) approvalLevel(inv *domain.Invoice, today time.Time) domain.CheckResult {
	const id, name = "E1", "Approval Level Determination"
	flags := v.Flags(inv, today)
	level := v.policy.ApprovalLevel(inv.TotalAmount, flags)

	var reasons []string
	if flags.FirstTimeVendor {
		reasons = append(reasons, "First-time vendor")
	}
	if flags.Retrospective {
		reasons = append(reasons, "Retrospective invoice")
	}
	if flags.RelatedParty {
		reasons = append(reasons, "Related party transaction")
	}
	var note string
	if len(reasons) > 0 {
		note = " (" + strings.Join(reasons, "; ") + ")"
	}

	c := validator.Pass(id, name, domain.SeverityMedium, 0.95,
		fmt.Sprintf("Requires Level %d: %s%s. Amount: %s", level.Level, level.Name, note, money.Format(inv.TotalAmount))).
		WithDetails(map[string]any{"approval_level": level.Level, "approvers": level.Approvers})
	if level.Level >= reviewLevel {
		return c.Review()
	}
	return c
}

func (v *Validator) dateValidity(inv *domain.Invoice, today time.Time) domain.CheckResult {
	const id, name = "E2", "Invoice Date Validity"
	date := validator.DateOnly(inv.InvoiceDate)
	if date.After(today) {
		return validator.Fail(id, name, domain.SeverityCritical, 1.0,
			fmt.Sprintf("Future-dated invoice: %s is after today (%s)",
				date.Format(time.DateOnly), today.Format(time.DateOnly))).Review()
	}
	age := validator.DaysBetween(date, today)
	maxAge := v.policy.MaxInvoiceAgeDays()
	switch {
	case age > maxAge:
		return validator.Fail(id, name, domain.SeverityHigh, 1.0,
			fmt.Sprintf("Invoice too old: %d days (max: %d days)", age, maxAge)).Review()
	case age > retrospectiveDays:
		return validator.Warn(id, name, domain.SeverityMedium, 0.9,
			fmt.Sprintf("Retrospective invoice: %d days old. Requires higher approval.", age)).Review()
	}
	return validator.Pass(id, name, domain.SeverityMedium, 1.0,
		fmt.Sprintf("Invoice date valid: %s (%d days old)", date.Format(time.DateOnly), age))
}

func poReference(inv *domain.Invoice) domain.CheckResult {
	const id, name = "E3", "PO Reference Validation"
	if inv.POReference == "" {
		return validator.Warn(id, name, domain.SeverityMedium, 0.8,
			"No PO reference on invoice. May require additional justification.").Review()
	}
	return validator.Pass(id, name, domain.SeverityMedium, 0.9, "PO reference present: "+inv.POReference)
}

// PaymentDays extracts the first number in free-text payment terms.
func PaymentDays(terms string) (int, bool) {
	m := firstNumber.FindString(terms)
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(m)
	return n, err == nil
}

func paymentTerms(inv *domain.Invoice, vendor domain.Vendor) domain.CheckResult {
	const id, name = "E4", "Payment Terms Validation"
	if inv.PaymentTerms == "" {
		return validator.Warn(id, name, domain.SeverityLow, 0.7, "Payment terms not specified on invoice")
	}
	if vendor.MSMERegistered {
		if days, ok := PaymentDays(inv.PaymentTerms); ok && days > msmePaymentDays {
			return validator.Fail(id, name, domain.SeverityHigh, 0.9,
				fmt.Sprintf("MSME vendor: Payment terms %d days exceed %d-day limit", days, msmePaymentDays)).Review()
		}
	}
	return validator.Pass(id, name, domain.SeverityLow, 0.85, "Payment terms acceptable: "+inv.PaymentTerms)
}

func (v *Validator) duplicate(ctx context.Context, inv *domain.Invoice) domain.CheckResult {
	const id, name = "E5", "Duplicate Invoice Check"
	runID := validator.RunIDFrom(ctx)
	if prev, ok := v.duplicates.SeenBefore(inv.Seller.GSTIN, inv.InvoiceNumber, runID); ok {
		return validator.Fail(id, name, domain.SeverityCritical, 0.95,
			fmt.Sprintf("Invoice %s from %s already submitted in this batch", inv.InvoiceNumber, inv.Seller.GSTIN)).
			WithDetails(map[string]any{"previous_run_id": prev.Owner}).Review()
	}

	if v.prior != nil {
		matches, err := v.prior.FindPrior(ctx, inv.Seller.GSTIN, inv.InvoiceNumber)
		if err != nil {
			v.logger.Warn("policy.Validator: prior run lookup failed",
				zap.String("invoice_number", inv.InvoiceNumber), zap.Error(err))
		}
		for _, m := range matches {
			if m.RunID == runID {
				continue
			}
			return validator.Fail(id, name, domain.SeverityCritical, 0.95,
				fmt.Sprintf("Invoice %s from %s was already validated on %s",
					inv.InvoiceNumber, inv.Seller.GSTIN, m.ValidatedAt.Format(time.DateOnly))).
				WithDetails(map[string]any{"previous_run_id": m.RunID}).Review()
		}
	}
	return validator.Pass(id, name, domain.SeverityMedium, 0.9,
		fmt.Sprintf("No duplicate detected for %s", inv.InvoiceNumber))
}

func (v *Validator) fiscalYear(inv *domain.Invoice, today time.Time) domain.CheckResult {
	const id, name = "E6", "FY Boundary Validation"
	start, end := v.policy.FiscalYear(today)
	date := validator.DateOnly(inv.InvoiceDate)
	span := fmt.Sprintf("%s to %s", start.Format(time.DateOnly), end.Format(time.DateOnly))
	if !date.Before(start) && !date.After(end) {
		return validator.Pass(id, name, domain.SeverityMedium, 1.0, "Invoice within current FY: "+span)
	}
	if cutoff, ok := v.policy.MarchCutoff(); ok && date.Month() == time.March && !today.After(cutoff) {
		return validator.Pass(id, name, domain.SeverityMedium, 0.9,
			fmt.Sprintf("March invoice accepted within grace period (until %s)", cutoff.Format(time.DateOnly)))
	}
	if date.Before(start) {
		return validator.Warn(id, name, domain.SeverityHigh, 0.85,
			fmt.Sprintf("Invoice from previous FY (%s). Requires justification.", date.Format(time.DateOnly))).Review()
	}
	return validator.Warn(id, name, domain.SeverityMedium, 0.8,
		fmt.Sprintf("Invoice date %s outside current FY boundaries", date.Format(time.DateOnly))).Review()
}
