// Package gst implements category B, GST compliance: GSTIN and HSN/SAC
// checks, expected-tax calculation, e-invoice rules and the reasoner check
// for ambiguous invoices.
package gst

import (
	"context"

	"go.uber.org/zap"

	"finguard/internal/domain"
	"finguard/internal/port"
)

// Validator runs the GST compliance checks. Rates, HSN master and vendor
// registry are read-only; the reasoner and retriever are optional.
type Validator struct {
	rates     port.RateLookup
	hsn       port.HSNLookup
	vendors   port.VendorLookup
	reasoner  port.Reasoner
	retriever port.RegulationRetriever
	logger    *zap.Logger
}

// Option configures optional collaborators.
type Option func(*Validator)

// WithReasoner enables the ambiguous-case check.
func WithReasoner(r port.Reasoner) Option {
	return func(v *Validator) { v.reasoner = r }
}

// WithRetriever supplies regulation text for the reasoner and the last-resort
// rate lookup.
func WithRetriever(r port.RegulationRetriever) Option {
	return func(v *Validator) { v.retriever = r }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(v *Validator) { v.logger = l }
}

// New creates a GST validator.
func New(rates port.RateLookup, hsn port.HSNLookup, vendors port.VendorLookup, opts ...Option) *Validator {
	v := &Validator{rates: rates, hsn: hsn, vendors: vendors, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

func (v *Validator) Category() string { return domain.CategoryGST }
func (v *Validator) Name() string     { return domain.CategoryNames[domain.CategoryGST] }

// Validate runs B1-B18, the tax calculation checks and, when warranted, B19.
func (v *Validator) Validate(ctx context.Context, inv *domain.Invoice) []domain.CheckResult {
	checks := []domain.CheckResult{
		checkGSTINFormat(inv),
		v.checkGSTINActive(inv),
		checkStateCode(inv),
		checkHSNFormat(inv),
		v.checkHSNDescription(inv),
		v.checkRateMatch(inv),
		checkTaxRateEquation(inv),
	}
	checks = append(checks, v.TaxCalculationChecks(ctx, inv)...)
	checks = append(checks,
		checkSupplyType(inv),
		checkPlaceOfSupply(inv),
		v.checkReverseCharge(inv),
		v.checkComposition(inv),
		checkEInvoiceMandate(inv),
		checkQRCode(inv),
		checkIRNFormat(inv),
		checkValueThreshold(inv),
		checkExport(inv),
		checkSEZ(inv),
		checkITC(inv),
	)
	if NeedsReasoning(inv) {
		checks = append(checks, v.checkWithReasoner(ctx, inv))
	}
	return checks
}

func (v *Validator) registryLoaded() bool {
	return v.vendors != nil && v.vendors.Loaded()
}

// vendorActive treats a registry entry without a status as active.
func vendorActive(vendor domain.Vendor) bool {
	return vendor.Status == "" || vendor.IsActive()
}

// chargedGST is CGST + SGST + IGST without cess.
func chargedGST(inv *domain.Invoice) float64 {
	return inv.CGSTAmount + inv.SGSTAmount + inv.IGSTAmount
}
