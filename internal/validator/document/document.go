// Package document implements category A: whether the invoice document
// itself looks genuine.
package document

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"finguard/internal/domain"
	"finguard/internal/history"
	"finguard/internal/money"
	"finguard/internal/port"
	"finguard/internal/validator"
)

const (
	minNumberLength = 3
	maxNumberLength = 50
	// eInvoiceMandate is ₹5 crore.
	eInvoiceMandate = 50_000_000
	maxSequenceGap  = 10
	maxAgeDays      = 365
	irnDateSlack    = 2
)

var (
	numberPattern = regexp.MustCompile(`^[A-Za-z0-9\-/_]+$`)
	digitGroups   = regexp.MustCompile(`\d+`)
)

// Validator runs the document authenticity checks. A2 and A3 write to the
// shared duplicate history, so every validator in a batch must share it.
type Validator struct {
	vendors      port.VendorLookup
	duplicates   *history.DuplicateHistory
	companyGSTIN string
	now          validator.Clock
}

// Option configures a Validator.
type Option func(*Validator)

// WithClock overrides time.Now.
func WithClock(c validator.Clock) Option {
	return func(v *Validator) { v.now = c }
}

// New creates a document validator. companyGSTIN is the buyer GSTIN the
// company invoices are expected to carry.
func New(vendors port.VendorLookup, duplicates *history.DuplicateHistory, companyGSTIN string, opts ...Option) *Validator {
	if duplicates == nil {
		duplicates = history.NewDuplicateHistory()
	}
	v := &Validator{vendors: vendors, duplicates: duplicates, companyGSTIN: companyGSTIN, now: time.Now}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

func (v *Validator) Category() string { return domain.CategoryDocument }
func (v *Validator) Name() string     { return domain.CategoryNames[domain.CategoryDocument] }

// Validate runs A1 through A8.
func (v *Validator) Validate(ctx context.Context, inv *domain.Invoice) []domain.CheckResult {
	today := validator.DateOnly(v.now())
	return []domain.CheckResult{
		checkNumberFormat(inv),
		v.checkDuplicate(ctx, inv, today),
		v.checkSequence(inv),
		checkDigitalSignature(inv),
		checkDateConsistency(inv, today),
		v.checkSeller(inv),
		v.checkBuyerGSTIN(inv),
		checkTampering(inv),
	}
}

func checkNumberFormat(inv *domain.Invoice) domain.CheckResult {
	const id, name = "A1", "Invoice Number Format"
	num := inv.InvoiceNumber
	switch {
	case len(num) < minNumberLength:
		return validator.Fail(id, name, domain.SeverityCritical, 1.0,
			fmt.Sprintf("Invoice number too short: %q", num)).Review()
	case len(num) > maxNumberLength:
		return validator.Fail(id, name, domain.SeverityHigh, 1.0,
			fmt.Sprintf("Invoice number too long: %d characters", len(num))).Review()
	case !numberPattern.MatchString(num):
		return validator.Warn(id, name, domain.SeverityMedium, 0.9,
			fmt.Sprintf("Invoice number contains unusual characters: %q", num)).Review()
	}
	if hasYear(num, inv.InvoiceDate.Year()) {
		return validator.Pass(id, name, domain.SeverityLow, 1.0,
			fmt.Sprintf("Invoice number format valid: %q (contains year identifier)", num))
	}
	return validator.Pass(id, name, domain.SeverityLow, 0.85,
		fmt.Sprintf("Invoice number format acceptable: %q (no year identifier)", num))
}

// hasYear looks for the invoice year or the one before, in four or two digits.
func hasYear(num string, year int) bool {
	for _, y := range []int{year, year - 1} {
		full := strconv.Itoa(y)
		if strings.Contains(num, full) || strings.Contains(num, full[len(full)-2:]) {
			return true
		}
	}
	return false
}

func (v *Validator) checkDuplicate(ctx context.Context, inv *domain.Invoice, today time.Time) domain.CheckResult {
	const id, name = "A2", "Duplicate Invoice Detection"
	obs := v.duplicates.Observe(history.Record{
		Owner:         validator.RunIDFrom(ctx),
		SellerGSTIN:   inv.Seller.GSTIN,
		InvoiceNumber: inv.InvoiceNumber,
		Amount:        inv.TotalAmount,
		InvoiceDate:   inv.InvoiceDate,
		RecordedAt:    today,
	})
	switch {
	case obs.Exact != nil:
		return validator.Fail(id, name, domain.SeverityCritical, 0.95,
			fmt.Sprintf("Duplicate invoice detected: %s from %s (previously processed on %s)",
				inv.InvoiceNumber, inv.Seller.GSTIN, obs.Exact.RecordedAt.Format(time.DateOnly))).
			WithDetails(map[string]any{"previous_run_id": obs.Exact.Owner}).Review()
	case obs.Near != nil:
		return validator.Warn(id, name, domain.SeverityHigh, 0.75,
			fmt.Sprintf("Potential duplicate: Similar amount (%s) and date to invoice %s",
				money.Format(inv.TotalAmount), obs.Near.InvoiceNumber)).Review()
	}
	return validator.Pass(id, name, domain.SeverityCritical, 0.90,
		fmt.Sprintf("No duplicate detected for invoice %s", inv.InvoiceNumber))
}

func (v *Validator) checkSequence(inv *domain.Invoice) domain.CheckResult {
	const id, name = "A3", "Sequential Invoice Number Analysis"
	groups := digitGroups.FindAllString(inv.InvoiceNumber, -1)
	if len(groups) == 0 {
		return validator.Warn(id, name, domain.SeverityLow, 0.7,
			fmt.Sprintf("Invoice number contains no numeric sequence: %q", inv.InvoiceNumber))
	}
	seq, err := strconv.Atoi(groups[len(groups)-1])
	if err != nil {
		return validator.Warn(id, name, domain.SeverityLow, 0.7,
			fmt.Sprintf("Invoice sequence %s is not a usable number", groups[len(groups)-1]))
	}

	prev, seen := v.duplicates.ObserveSequence(inv.Seller.GSTIN, seq)
	if !seen {
		return validator.Pass(id, name, domain.SeverityLow, 0.8,
			fmt.Sprintf("First invoice from vendor, sequence: %d", seq))
	}
	gap := seq - prev
	switch {
	case gap < 0:
		return validator.Warn(id, name, domain.SeverityMedium, 0.85,
			fmt.Sprintf("Invoice sequence out of order: %d (previous max: %d)", seq, prev)).Review()
	case gap == 1:
		return validator.Pass(id, name, domain.SeverityLow, 1.0,
			fmt.Sprintf("Invoice sequence normal: %d (previous: %d)", seq, prev))
	case gap <= maxSequenceGap:
		return validator.Pass(id, name, domain.SeverityLow, 0.9,
			fmt.Sprintf("Invoice sequence acceptable: %d (gap of %d from previous %d)", seq, gap, prev))
	default:
		return validator.Warn(id, name, domain.SeverityMedium, 0.8,
			fmt.Sprintf("Large sequence gap detected: %d invoices between %d and %d", gap, prev, seq)).Review()
	}
}

func checkDigitalSignature(inv *domain.Invoice) domain.CheckResult {
	const id, name = "A4", "Digital Signature Verification"
	hasIRN := inv.IRN != ""
	if inv.TotalAmount >= eInvoiceMandate {
		switch {
		case hasIRN && inv.QRCodePresent:
			return validator.Pass(id, name, domain.SeverityMedium, 0.95,
				fmt.Sprintf("E-invoice compliant: IRN present (%s...), QR code present", prefix(inv.IRN, 20)))
		case hasIRN:
			return validator.Warn(id, name, domain.SeverityMedium, 0.85,
				fmt.Sprintf("E-invoice has IRN but QR code missing for high-value invoice (%s)",
					money.FormatGrouped(inv.TotalAmount))).Review()
		default:
			return validator.Fail(id, name, domain.SeverityHigh, 0.95,
				fmt.Sprintf("E-invoice mandatory for %s but IRN missing", money.FormatGrouped(inv.TotalAmount))).Review()
		}
	}

	var present []string
	if hasIRN {
		present = append(present, "IRN")
	}
	if inv.QRCodePresent {
		present = append(present, "QR code")
	}
	if len(present) > 0 {
		return validator.Pass(id, name, domain.SeverityLow, 0.90,
			"Digital authentication present: "+strings.Join(present, ", "))
	}
	return validator.Pass(id, name, domain.SeverityLow, 0.80,
		"No digital signature required for this invoice value")
}

func checkDateConsistency(inv *domain.Invoice, today time.Time) domain.CheckResult {
	const id, name = "A5", "Invoice Date Consistency"
	date := validator.DateOnly(inv.InvoiceDate)
	shown := date.Format(time.DateOnly)
	if date.After(today) {
		return validator.Fail(id, name, domain.SeverityCritical, 1.0,
			fmt.Sprintf("Future-dated invoice: %s is after today (%s)", shown, today.Format(time.DateOnly))).Review()
	}

	if inv.IRN != "" && inv.IRNDate != nil {
		diff := validator.DaysBetween(date, *inv.IRNDate)
		if diff < 0 {
			diff = -diff
		}
		switch {
		case diff == 0:
			return validator.Pass(id, name, domain.SeverityMedium, 1.0,
				"Invoice date matches IRN date: "+shown)
		case diff <= irnDateSlack:
			return validator.Pass(id, name, domain.SeverityMedium, 0.95,
				fmt.Sprintf("Invoice date close to IRN date: %d day(s) difference", diff))
		default:
			return validator.Warn(id, name, domain.SeverityMedium, 0.85,
				fmt.Sprintf("Invoice date (%s) differs from IRN date (%s) by %d days",
					shown, inv.IRNDate.Format(time.DateOnly), diff)).Review()
		}
	}

	age := validator.DaysBetween(date, today)
	if age > maxAgeDays {
		return validator.Warn(id, name, domain.SeverityHigh, 0.9,
			fmt.Sprintf("Very old invoice: %d days old (dated %s). Possible backdating.", age, shown)).Review()
	}
	return validator.Pass(id, name, domain.SeverityMedium, 0.95,
		fmt.Sprintf("Invoice date consistent: %s (%d days old)", shown, age))
}

func checkTampering(inv *domain.Invoice) domain.CheckResult {
	const id, name = "A8", "Tampering Detection"
	conf := inv.ExtractionConfidence
	pct := fmt.Sprintf("%.0f%%", conf*100)
	switch {
	case conf < 0.70:
		return validator.Warn(id, name, domain.SeverityHigh, 0.80,
			fmt.Sprintf("Low extraction confidence (%s). Document quality issues or potential tampering.", pct)).Review()
	case conf < 0.85:
		return validator.Pass(id, name, domain.SeverityMedium, 0.85,
			fmt.Sprintf("Moderate extraction confidence (%s). Document appears authentic.", pct))
	}
	switch inv.FormatType {
	case "image", "pdf":
		return validator.Pass(id, name, domain.SeverityMedium, 0.90,
			fmt.Sprintf("Document format: %s with high confidence (%s). No tampering indicators.", inv.FormatType, pct))
	}
	return validator.Pass(id, name, domain.SeverityMedium, 0.95,
		fmt.Sprintf("Structured data format (%s). No tampering concerns.", inv.FormatType))
}

func prefix(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
