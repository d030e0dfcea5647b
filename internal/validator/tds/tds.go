// Package tds implements category D: Income Tax withholding on the invoice.
package tds

import (
	"context"
	"fmt"
	"strings"
	"time"

	"finguard/internal/domain"
	"finguard/internal/gstin"
	"finguard/internal/history"
	"finguard/internal/money"
	"finguard/internal/port"
	"finguard/internal/refdata"
	"finguard/internal/validator"
)

const (
	applicabilityThreshold = 30000.0
	rateTolerance          = 0.1
	baseTolerance          = 1.00
	higherRateFactor       = 1.8
)

var (
	serviceKeywords = []string{"service", "professional", "consulting", "contract", "commission", "rent", "technical", "legal", "audit"}
	deducteeTypes   = map[string]bool{"CONTRACTOR": true, "PROFESSIONAL": true, "CONSULTANT": true}
)

// Validator runs the TDS checks. Aggregates accumulate across every invoice
// the validator sees, so a batch shares one tracker.
type Validator struct {
	table      port.TDSTable
	vendors    port.VendorLookup
	aggregates *history.AggregateTracker
}

// New returns the TDS validator. A nil tracker starts a private one.
func New(table port.TDSTable, vendors port.VendorLookup, aggregates *history.AggregateTracker) *Validator {
	if aggregates == nil {
		aggregates = history.NewAggregateTracker()
	}
	return &Validator{table: table, vendors: vendors, aggregates: aggregates}
}

func (v *Validator) Category() string { return domain.CategoryTDS }
func (v *Validator) Name() string     { return domain.CategoryNames[domain.CategoryTDS] }

// Validate runs D1 through D12 in order.
func (v *Validator) Validate(_ context.Context, inv *domain.Invoice) []domain.CheckResult {
	vendor, known := v.vendor(inv)
	section := v.section(inv)
	return []domain.CheckResult{
		v.applicability(inv, vendor, known),
		v.sectionDetermination(inv),
		v.panRate(inv, section),
		v.lowerDeduction(inv, section),
		v.thresholdLimit(inv, section),
		v.aggregateThreshold(inv, section),
		v.gstComponent(inv, section),
		v.nonResident(inv, vendor, known),
		tanAdvisory(inv),
		v.higherRate(inv, section),
		certificate(inv),
		quarterlyReconciliation(inv),
	}
}

func (v *Validator) vendor(inv *domain.Invoice) (domain.Vendor, bool) {
	if v.vendors == nil || !v.vendors.Loaded() {
		return domain.Vendor{}, false
	}
	return v.vendors.ByGSTIN(inv.Seller.GSTIN)
}

// section is the declared section, or the inferred one when none is declared.
func (v *Validator) section(inv *domain.Invoice) string {
	if inv.TDSSection != "" {
		return inv.TDSSection
	}
	expected, _ := DetermineSection(inv)
	return expected
}

// DeducteePAN picks the vendor PAN from the registry, then the invoice, then
// the PAN embedded in the seller GSTIN.
func (v *Validator) DeducteePAN(inv *domain.Invoice) string {
	if vendor, ok := v.vendor(inv); ok && vendor.PAN != "" {
		return vendor.PAN
	}
	if inv.Seller.PAN != "" {
		return inv.Seller.PAN
	}
	if gstin.HasPAN(inv.Seller.GSTIN) {
		return gstin.PAN(inv.Seller.GSTIN)
	}
	return ""
}

func notApplicable(id, name string, conf float64, reasoning string) domain.CheckResult {
	return validator.Pass(id, name, domain.SeverityLow, conf, reasoning)
}

func (v *Validator) applicability(inv *domain.Invoice, vendor domain.Vendor, known bool) domain.CheckResult {
	const id, name = "D1", "TDS Applicability"
	var reasons []string
	if inv.TotalAmount > applicabilityThreshold {
		reasons = append(reasons, fmt.Sprintf("Amount %s exceeds basic threshold", money.Format(inv.TotalAmount)))
	}
	if known && deducteeTypes[strings.ToUpper(vendor.VendorType)] {
		reasons = append(reasons, "Vendor type: "+strings.ToUpper(vendor.VendorType))
	}
	if known && !hasPAN(v.DeducteePAN(inv)) {
		reasons = append(reasons, "No PAN - higher TDS rate applies")
	}
	if desc, ok := serviceLine(inv); ok {
		reasons = append(reasons, "Service detected: "+truncate(desc, 30))
	}
	if len(reasons) > 2 {
		reasons = reasons[:2]
	}

	expected := len(reasons) > 0
	switch {
	case expected && inv.TDSApplicable:
		return validator.Pass(id, name, domain.SeverityHigh, 0.90,
			"TDS correctly marked. Reasons: "+strings.Join(reasons, "; "))
	case expected:
		return validator.Fail(id, name, domain.SeverityCritical, 0.85,
			"TDS should apply but not marked. Reasons: "+strings.Join(reasons, "; ")).Review()
	case inv.TDSApplicable:
		return validator.Warn(id, name, domain.SeverityMedium, 0.75,
			"TDS marked but may not be applicable. Verify service type.").Review()
	default:
		return validator.Pass(id, name, domain.SeverityMedium, 0.90,
			"TDS not applicable for this transaction type/amount")
	}
}

func serviceLine(inv *domain.Invoice) (string, bool) {
	for i := range inv.LineItems {
		desc := strings.ToLower(inv.LineItems[i].Description)
		for _, kw := range serviceKeywords {
			if strings.Contains(desc, kw) {
				return inv.LineItems[i].Description, true
			}
		}
	}
	return "", false
}

func (v *Validator) sectionDetermination(inv *domain.Invoice) domain.CheckResult {
	const id, name = "D2", "TDS Section Determination"
	if !inv.TDSApplicable {
		return notApplicable(id, name, 0.90, "TDS not applicable - section determination not required")
	}
	expected, candidates := DetermineSection(inv)
	declared := inv.TDSSection
	switch {
	case declared == "":
		return validator.Fail(id, name, domain.SeverityHigh, 0.85,
			"TDS section not specified. Should be "+expected).Review()
	case declared == expected:
		desc := ""
		if s, ok := v.table.Section(declared); ok {
			desc = s.Description
		}
		return validator.Pass(id, name, domain.SeverityHigh, 0.90,
			fmt.Sprintf("Correct section %s: %s", declared, desc))
	case contains(candidates, declared):
		return validator.Pass(id, name, domain.SeverityHigh, 0.85,
			fmt.Sprintf("Section %s is acceptable (also considered: %s)", declared, expected))
	default:
		return validator.Warn(id, name, domain.SeverityHigh, 0.75,
			fmt.Sprintf("Section mismatch: Invoice shows %s, expected %s", declared, expected)).Review()
	}
}

func (v *Validator) panRate(inv *domain.Invoice, section string) domain.CheckResult {
	const id, name = "D3", "TDS Rate (PAN-based)"
	if !inv.TDSApplicable {
		return notApplicable(id, name, 0.90, "TDS not applicable - rate validation not required")
	}
	pan := v.DeducteePAN(inv)
	panNote := "With PAN"
	if !hasPAN(pan) {
		panNote = "Without PAN"
	}
	expected := ExpectedRate(v.table, section, pan)
	rate := declaredRate(inv)
	details := map[string]any{"section": section, "expected_rate": expected, "declared_rate": rate}
	if money.RateWithin(rate, expected, rateTolerance) {
		return validator.Pass(id, name, domain.SeverityHigh, 0.95,
			fmt.Sprintf("Correct TDS rate: %s (%s)", money.FormatRate(rate), panNote)).WithDetails(details)
	}
	return validator.Fail(id, name, domain.SeverityHigh, 0.90,
		fmt.Sprintf("TDS rate mismatch: Invoice %s vs Expected %s (%s)",
			money.FormatRate(rate), money.FormatRate(expected), panNote)).WithDetails(details).Review()
}

func (v *Validator) lowerDeduction(inv *domain.Invoice, section string) domain.CheckResult {
	const id, name = "D4", "Lower Deduction Certificate"
	if !inv.TDSApplicable {
		return notApplicable(id, name, 0.90, "TDS not applicable - certificate not required")
	}
	rate := declaredRate(inv)
	standard := StandardRate(v.table, section)
	if rate < standard-rateTolerance {
		return validator.Warn(id, name, domain.SeverityMedium, 0.80,
			fmt.Sprintf("Lower TDS rate (%s vs standard %s). Verify Form 13 certificate.",
				money.FormatRate(rate), money.FormatRate(standard))).Review()
	}
	return notApplicable(id, name, 0.90,
		fmt.Sprintf("Standard TDS rate applied (%s) - certificate not required", money.FormatRate(rate)))
}

func (v *Validator) thresholdLimit(inv *domain.Invoice, section string) domain.CheckResult {
	const id, name = "D5", "TDS Threshold Limit"
	threshold := v.table.Threshold(section)
	amount, limit := money.FormatGrouped(inv.TotalAmount), money.FormatGrouped(threshold)
	below := inv.TotalAmount < threshold
	switch {
	case below && inv.TDSApplicable:
		return validator.Warn(id, name, domain.SeverityMedium, 0.85,
			fmt.Sprintf("Invoice %s below %s threshold (%s). TDS may not be required.", amount, section, limit)).Review()
	case below:
		return validator.Pass(id, name, domain.SeverityMedium, 0.95,
			fmt.Sprintf("Below threshold: %s < %s", amount, limit))
	case inv.TDSApplicable:
		return validator.Pass(id, name, domain.SeverityHigh, 0.95,
			fmt.Sprintf("Above threshold: %s > %s - TDS applicable", amount, limit))
	default:
		return validator.Fail(id, name, domain.SeverityHigh, 0.90,
			fmt.Sprintf("Above threshold: %s > %s - TDS should apply", amount, limit)).Review()
	}
}

func (v *Validator) aggregateThreshold(inv *domain.Invoice, section string) domain.CheckResult {
	const id, name = "D6", "Aggregate Threshold Tracking"
	if !inv.TDSApplicable {
		return notApplicable(id, name, 0.80, "TDS not applicable - aggregate tracking not required")
	}
	total := v.aggregates.Add(inv.Seller.GSTIN, inv.TotalAmount)
	threshold := v.table.Threshold(section + refdata.AggregateSuffix)
	details := map[string]any{"aggregate_total": total, "aggregate_threshold": threshold}
	if total >= threshold {
		return validator.Warn(id, name, domain.SeverityHigh, 0.85,
			fmt.Sprintf("Aggregate payments to vendor: %s (threshold: %s). Ensure TDS applied on all payments.",
				money.FormatGrouped(total), money.FormatGrouped(threshold))).WithDetails(details).Review()
	}
	return validator.Pass(id, name, domain.SeverityMedium, 0.85,
		fmt.Sprintf("Aggregate tracking: %s / %s", money.FormatGrouped(total), money.FormatGrouped(threshold))).WithDetails(details)
}

func (v *Validator) gstComponent(inv *domain.Invoice, section string) domain.CheckResult {
	const id, name = "D7", "TDS on GST Component"
	if !inv.TDSApplicable {
		return notApplicable(id, name, 0.90, "TDS not applicable - GST treatment not relevant")
	}
	amount := declaredAmount(inv)
	if amount == 0 {
		return notApplicable(id, name, 0.75, "No TDS deducted - GST treatment validation not applicable")
	}
	rate := declaredRate(inv)
	exclusive := money.Percent(inv.Subtotal, rate)
	inclusive := money.Percent(inv.TotalAmount, rate)
	switch {
	case money.Within(amount, exclusive, baseTolerance):
		return validator.Pass(id, name, domain.SeverityMedium, 0.90,
			fmt.Sprintf("TDS correctly calculated on amount excluding GST: %s", money.Format(amount)))
	case money.Within(amount, inclusive, baseTolerance) && section == defaultSection:
		return validator.Pass(id, name, domain.SeverityMedium, 0.85,
			fmt.Sprintf("TDS calculated on amount including GST: %s (acceptable for 194C)", money.Format(amount)))
	case money.Within(amount, inclusive, baseTolerance):
		return validator.Warn(id, name, domain.SeverityMedium, 0.80,
			fmt.Sprintf("TDS includes GST component. Verify if correct for %s.", section)).Review()
	default:
		return validator.Warn(id, name, domain.SeverityMedium, 0.75,
			fmt.Sprintf("TDS calculation unclear: %s (Expected: %s excl. or %s incl. GST)",
				money.Format(amount), money.Format(exclusive), money.Format(inclusive))).Review()
	}
}

func (v *Validator) nonResident(inv *domain.Invoice, vendor domain.Vendor, known bool) domain.CheckResult {
	const id, name = "D8", "Non-Resident TDS Rules"
	if !known || vendor.ResidentStatus != domain.NonResident {
		return notApplicable(id, name, 0.90, "Resident Indian vendor - non-resident rules not applicable")
	}
	switch {
	case !inv.TDSApplicable:
		return validator.Fail(id, name, domain.SeverityCritical, 0.90,
			"Non-resident vendor but TDS not marked. Section 195 may apply.").Review()
	case nonResidentSections[inv.TDSSection]:
		return validator.Pass(id, name, domain.SeverityHigh, 0.90,
			fmt.Sprintf("Non-resident TDS section %s correctly applied", inv.TDSSection))
	default:
		return validator.Warn(id, name, domain.SeverityHigh, 0.80,
			fmt.Sprintf("Non-resident vendor with section %s. Verify if Section 195 applies.", inv.TDSSection)).Review()
	}
}

// tanAdvisory cannot verify the deductor TAN from the invoice alone.
func tanAdvisory(inv *domain.Invoice) domain.CheckResult {
	const id, name = "D9", "TAN Validation"
	if !inv.TDSApplicable {
		return notApplicable(id, name, 0.90, "TDS not applicable - TAN not required")
	}
	return validator.Pass(id, name, domain.SeverityMedium, 0.80,
		"TAN validation requires deductor details. Ensure valid TAN for TDS filing.")
}

func (v *Validator) higherRate(inv *domain.Invoice, section string) domain.CheckResult {
	const id, name = "D10", "Section 206AB Higher Rate"
	if !inv.TDSApplicable {
		return notApplicable(id, name, 0.90, "TDS not applicable - Section 206AB not relevant")
	}
	rate := declaredRate(inv)
	standard := StandardRate(v.table, section)
	if rate >= standard*higherRateFactor {
		return validator.Warn(id, name, domain.SeverityMedium, 0.80,
			fmt.Sprintf("Higher TDS rate detected (%s vs standard %s). Verify Section 206AB applicability (non-filer).",
				money.FormatRate(rate), money.FormatRate(standard))).Review()
	}
	return validator.Pass(id, name, domain.SeverityMedium, 0.75,
		fmt.Sprintf("Standard rate applied (%s). Section 206AB not applicable.", money.FormatRate(rate)))
}

func certificate(inv *domain.Invoice) domain.CheckResult {
	const id, name = "D11", "TDS Certificate Availability"
	if !inv.TDSApplicable {
		return notApplicable(id, name, 0.90, "TDS not applicable - certificate not required")
	}
	if amount := declaredAmount(inv); amount > 0 {
		return validator.Warn(id, name, domain.SeverityMedium, 0.70,
			fmt.Sprintf("TDS deducted: %s. Ensure Form 16A certificate issued to vendor within prescribed time.",
				money.Format(amount))).Review()
	}
	return notApplicable(id, name, 0.85, "No TDS deducted - certificate not required")
}

func quarterlyReconciliation(inv *domain.Invoice) domain.CheckResult {
	const id, name = "D12", "Quarterly Reconciliation"
	if !inv.TDSApplicable {
		return notApplicable(id, name, 0.90, "TDS not applicable - reconciliation not required")
	}
	quarter, due := FilingQuarter(inv.InvoiceDate)
	if declaredAmount(inv) > 0 {
		return validator.Warn(id, name, domain.SeverityMedium, 0.75,
			fmt.Sprintf("Invoice from %s FY%d. Ensure TDS filed in Form 26Q by %s.",
				quarter, inv.InvoiceDate.Year(), due.Format(time.DateOnly))).Review()
	}
	return notApplicable(id, name, 0.85, fmt.Sprintf("Invoice from %s - no TDS to reconcile", quarter))
}

// FilingQuarter maps an invoice date to its TDS quarter and Form 26Q due date.
func FilingQuarter(d time.Time) (string, time.Time) {
	y := d.Year()
	due := func(year int, month time.Month, day int) time.Time {
		return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	}
	switch m := d.Month(); {
	case m <= time.March:
		return "Q4", due(y, time.May, 31)
	case m <= time.June:
		return "Q1", due(y, time.July, 31)
	case m <= time.September:
		return "Q2", due(y, time.October, 31)
	default:
		return "Q3", due(y+1, time.January, 31)
	}
}

func declaredRate(inv *domain.Invoice) float64 {
	if inv.TDSRate == nil {
		return 0
	}
	return *inv.TDSRate
}

func declaredAmount(inv *domain.Invoice) float64 {
	if inv.TDSAmount == nil {
		return 0
	}
	return *inv.TDSAmount
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
