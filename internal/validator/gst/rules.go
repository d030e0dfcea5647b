package gst

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"finguard/internal/domain"
	"finguard/internal/gstin"
	"finguard/internal/money"
	"finguard/internal/validator"
)

var (
	hsnPattern = regexp.MustCompile(`^\d{4}(\d{2})?(\d{2})?$`)
	irnPattern = regexp.MustCompile(`^[A-Za-z0-9+/=]+$`)
	posPattern = regexp.MustCompile(`^(\d{2})`)
)

const (
	rateTolerance      = 0.5
	eInvoiceHighValue  = 5_000_000
	eInvoiceMandatory  = 10_000_000
	qrRecommendedAbove = 500
	irnLength          = 64
)

var blockedCreditKeywords = []string{"motor vehicle", "car", "food", "beverage", "alcohol"}

func checkGSTINFormat(inv *domain.Invoice) domain.CheckResult {
	const id, name = "B1", "GSTIN Format Validation"
	sellerOK := gstin.Valid(inv.Seller.GSTIN)
	buyerOK := gstin.Valid(inv.Buyer.GSTIN)
	if sellerOK && buyerOK {
		return validator.Pass(id, name, domain.SeverityCritical, 1.0,
			fmt.Sprintf("Both GSTINs valid: Seller %s, Buyer %s", inv.Seller.GSTIN, inv.Buyer.GSTIN))
	}
	var invalid []string
	if !sellerOK {
		invalid = append(invalid, fmt.Sprintf("Invalid seller GSTIN format: %s", inv.Seller.GSTIN))
	}
	if !buyerOK {
		invalid = append(invalid, fmt.Sprintf("Invalid buyer GSTIN format: %s", inv.Buyer.GSTIN))
	}
	return validator.Fail(id, name, domain.SeverityCritical, 1.0, strings.Join(invalid, "; ")).Review()
}

func (v *Validator) checkGSTINActive(inv *domain.Invoice) domain.CheckResult {
	const id, name = "B2", "GSTIN Active Status"
	if !v.registryLoaded() {
		return validator.Warn(id, name, domain.SeverityHigh, 0.6,
			"Cannot verify GSTIN status - vendor registry not available").Review()
	}
	vendor, ok := v.vendors.ByGSTIN(inv.Seller.GSTIN)
	if !ok {
		return validator.Warn(id, name, domain.SeverityHigh, 0.7,
			fmt.Sprintf("Seller GSTIN %s not found in registry", inv.Seller.GSTIN)).Review()
	}
	if vendorActive(vendor) {
		return validator.Pass(id, name, domain.SeverityHigh, 0.9,
			fmt.Sprintf("Seller GSTIN %s is active in vendor registry", inv.Seller.GSTIN))
	}
	return validator.Fail(id, name, domain.SeverityCritical, 0.9,
		fmt.Sprintf("Seller GSTIN %s is %s", inv.Seller.GSTIN, strings.ToLower(string(vendor.Status)))).Review()
}

func checkStateCode(inv *domain.Invoice) domain.CheckResult {
	const id, name = "B3", "State Code Match"
	code := inv.Seller.StateCode()
	state := inv.Seller.State
	if state == "" {
		return validator.Warn(id, name, domain.SeverityMedium, 0.7,
			"Seller state not provided, cannot verify state code").Review()
	}
	if gstin.StateMatches(code, state) {
		return validator.Pass(id, name, domain.SeverityMedium, 0.95,
			fmt.Sprintf("State code %s matches seller state %s", code, state))
	}
	return validator.Fail(id, name, domain.SeverityHigh, 0.9,
		fmt.Sprintf("State code mismatch: GSTIN shows %s, address shows %s", code, state)).Review()
}

func checkHSNFormat(inv *domain.Invoice) domain.CheckResult {
	const id, name = "B4", "HSN/SAC Code Validity"
	var invalid []string
	for i := range inv.LineItems {
		if !hsnPattern.MatchString(inv.LineItems[i].HSNSAC) {
			invalid = append(invalid, inv.LineItems[i].HSNSAC)
		}
	}
	if len(invalid) == 0 {
		return validator.Pass(id, name, domain.SeverityMedium, 0.95,
			fmt.Sprintf("All %d HSN/SAC codes are valid", len(inv.LineItems)))
	}
	return validator.Fail(id, name, domain.SeverityHigh, 0.9,
		fmt.Sprintf("Invalid HSN/SAC codes found: %s", strings.Join(invalid, ", "))).Review()
}

// checkHSNDescription compares the leading words of the master description
// with each line description. Codes missing from the master are skipped.
func (v *Validator) checkHSNDescription(inv *domain.Invoice) domain.CheckResult {
	const id, name = "B5", "HSN-Description Match"
	var mismatches []string
	for i := range inv.LineItems {
		item := &inv.LineItems[i]
		if v.hsn == nil {
			break
		}
		entry, ok := v.hsn.Lookup(item.HSNSAC)
		if !ok {
			continue
		}
		expected := strings.ToLower(entry.Description)
		actual := strings.ToLower(item.Description)
		keywords := strings.Fields(expected)
		if len(keywords) > 3 {
			keywords = keywords[:3]
		}
		matched := false
		for _, kw := range keywords {
			if strings.Contains(actual, kw) {
				matched = true
				break
			}
		}
		if !matched {
			mismatches = append(mismatches, fmt.Sprintf("%s: '%s' vs expected '%s'", item.HSNSAC, item.Description, expected))
		}
	}
	switch {
	case len(mismatches) == 0:
		return validator.Pass(id, name, domain.SeverityMedium, 0.85,
			"All product descriptions align with HSN/SAC codes")
	case float64(len(mismatches)) <= float64(len(inv.LineItems))/2:
		return validator.Warn(id, name, domain.SeverityMedium, 0.75,
			fmt.Sprintf("Possible HSN misclassification: %s", mismatches[0])).Review()
	default:
		return validator.Fail(id, name, domain.SeverityHigh, 0.80,
			fmt.Sprintf("Multiple HSN misclassifications detected (%d items)", len(mismatches))).Review()
	}
}

// checkRateMatch compares each line's declared rate with the schedule, or
// the HSN master when the schedule has no entry. Codes found in neither
// cannot be verified and turn the check into a warning.
func (v *Validator) checkRateMatch(inv *domain.Invoice) domain.CheckResult {
	const id, name = "B6", "GST Rate Match"
	var mismatches, unverified []string
	for i := range inv.LineItems {
		item := &inv.LineItems[i]
		expected, ok := v.referenceRate(item.HSNSAC, inv.InvoiceDate)
		if !ok {
			unverified = append(unverified, item.HSNSAC)
			continue
		}
		actual := defaultRate
		if item.TaxRate != nil && *item.TaxRate > 0 {
			actual = *item.TaxRate
		}
		if !money.RateWithin(expected, actual, rateTolerance) {
			mismatches = append(mismatches, fmt.Sprintf("%s: Expected %s, Got %s",
				item.HSNSAC, money.FormatRate(expected), money.FormatRate(actual)))
		}
	}
	switch {
	case len(mismatches) > 0:
		return validator.Fail(id, name, domain.SeverityHigh, 0.9,
			fmt.Sprintf("GST rate mismatch: %s", mismatches[0])).Review()
	case len(unverified) > 0:
		return validator.Warn(id, name, domain.SeverityHigh, 0.7,
			fmt.Sprintf("GST rate not in reference data for: %s", strings.Join(unverified, ", "))).
			Review().WithDetails(map[string]any{"unresolved_codes": unverified})
	default:
		return validator.Pass(id, name, domain.SeverityHigh, 0.9, "All GST rates match HSN/SAC schedules")
	}
}

// referenceRate is the rate from the schedule or the HSN master.
func (v *Validator) referenceRate(code string, on time.Time) (float64, bool) {
	if v.rates != nil {
		if entry, ok := v.rates.Lookup(code, on); ok {
			return entry.TotalRate(), true
		}
	}
	if v.hsn != nil {
		if entry, ok := v.hsn.Lookup(code); ok {
			return entry.GSTRate, true
		}
	}
	return 0, false
}

func checkTaxRateEquation(inv *domain.Invoice) domain.CheckResult {
	const id, name = "B7", "Tax Rate Equation"
	cgst, sgst, igst := inv.CGSTAmount, inv.SGSTAmount, inv.IGSTAmount
	if inv.IsInterstate() {
		if igst > 0 && cgst == 0 && sgst == 0 {
			return validator.Pass(id, name, domain.SeverityMedium, 1.0, "Interstate: Only IGST applied correctly")
		}
		return validator.Fail(id, name, domain.SeverityHigh, 0.95,
			fmt.Sprintf("Interstate should have only IGST, found: CGST=%s, SGST=%s, IGST=%s",
				money.Format(cgst), money.Format(sgst), money.Format(igst))).Review()
	}
	balanced := money.Diff(cgst, sgst) < taxTolerance
	switch {
	case balanced && igst == 0:
		return validator.Pass(id, name, domain.SeverityMedium, 1.0,
			fmt.Sprintf("Intrastate: CGST (%s) = SGST (%s)", money.Format(cgst), money.Format(sgst)))
	case !balanced:
		return validator.Fail(id, name, domain.SeverityHigh, 0.95,
			fmt.Sprintf("Intrastate: CGST (%s) ≠ SGST (%s)", money.Format(cgst), money.Format(sgst))).Review()
	default:
		return validator.Fail(id, name, domain.SeverityHigh, 0.95,
			fmt.Sprintf("Intrastate should not have IGST, found: %s", money.Format(igst))).Review()
	}
}

func checkSupplyType(inv *domain.Invoice) domain.CheckResult {
	const id, name = "B8", "Interstate vs Intrastate"
	seller, buyer := inv.Seller.StateCode(), inv.Buyer.StateCode()
	interstate := inv.IsInterstate()
	hasIGST := inv.IGSTAmount > 0
	hasCGSTSGST := inv.CGSTAmount > 0 || inv.SGSTAmount > 0
	switch {
	case interstate && hasIGST && !hasCGSTSGST:
		return validator.Pass(id, name, domain.SeverityHigh, 1.0,
			fmt.Sprintf("Interstate supply (%s→%s): IGST correctly applied", seller, buyer))
	case !interstate && hasCGSTSGST && !hasIGST:
		return validator.Pass(id, name, domain.SeverityHigh, 1.0,
			fmt.Sprintf("Intrastate supply (%s): CGST+SGST correctly applied", seller))
	}
	kind := "Intrastate"
	if interstate {
		kind = "Interstate"
	}
	return validator.Fail(id, name, domain.SeverityCritical, 0.95,
		fmt.Sprintf("Tax type mismatch: %s but wrong tax applied", kind)).Review()
}

func checkPlaceOfSupply(inv *domain.Invoice) domain.CheckResult {
	const id, name = "B9", "Place of Supply"
	pos := strings.TrimSpace(inv.PlaceOfSupply)
	buyer := inv.Buyer.StateCode()
	if pos == "" {
		return validator.Warn(id, name, domain.SeverityMedium, 0.75, "Place of supply not specified on invoice").Review()
	}
	if m := posPattern.FindStringSubmatch(pos); m != nil {
		if m[1] == buyer {
			return validator.Pass(id, name, domain.SeverityMedium, 0.95,
				fmt.Sprintf("Place of supply (%s) matches buyer state (%s)", pos, buyer))
		}
		return validator.Warn(id, name, domain.SeverityMedium, 0.85,
			fmt.Sprintf("Place of supply (%s) differs from buyer state (%s)", m[1], buyer)).Review()
	}
	return validator.Pass(id, name, domain.SeverityMedium, 0.80, fmt.Sprintf("Place of supply specified: %s", pos))
}

func (v *Validator) checkReverseCharge(inv *domain.Invoice) domain.CheckResult {
	const id, name = "B10", "Reverse Charge Mechanism"
	if !v.registryLoaded() {
		return validator.Warn(id, name, domain.SeverityMedium, 0.6,
			"Cannot verify RCM applicability without vendor registry").Review()
	}
	vendor, ok := v.vendors.ByGSTIN(inv.Seller.GSTIN)
	if !ok {
		return validator.Pass(id, name, domain.SeverityMedium, 0.70,
			fmt.Sprintf("RCM marked as: %t", inv.ReverseCharge))
	}
	registered := vendorActive(vendor)
	switch {
	case inv.ReverseCharge && registered:
		return validator.Warn(id, name, domain.SeverityMedium, 0.80,
			"RCM marked but supplier is registered. Verify if applicable service.").Review()
	case !inv.ReverseCharge && !registered:
		return validator.Fail(id, name, domain.SeverityHigh, 0.85,
			"Unregistered supplier but RCM not marked. Should apply RCM.").Review()
	case inv.ReverseCharge:
		return validator.Pass(id, name, domain.SeverityMedium, 0.85, "RCM status appropriate: Applied")
	default:
		return validator.Pass(id, name, domain.SeverityMedium, 0.85, "RCM status appropriate: Not required")
	}
}

func (v *Validator) checkComposition(inv *domain.Invoice) domain.CheckResult {
	const id, name = "B11", "Composition Scheme"
	if !v.registryLoaded() {
		return validator.Pass(id, name, domain.SeverityLow, 0.7, "Cannot verify composition scheme status")
	}
	vendor, ok := v.vendors.ByGSTIN(inv.Seller.GSTIN)
	switch {
	case !ok:
		return validator.Pass(id, name, domain.SeverityLow, 0.70, "Vendor not in registry - assuming regular dealer")
	case !vendor.CompositionScheme:
		return validator.Pass(id, name, domain.SeverityLow, 0.95, "Regular GST dealer - normal taxation applies")
	case chargedGST(inv) > 0:
		return validator.Fail(id, name, domain.SeverityHigh, 0.90,
			"Composition dealer cannot charge GST separately on invoice").Review()
	default:
		return validator.Pass(id, name, domain.SeverityMedium, 0.90, "Composition dealer - no GST charged (correct)")
	}
}

func checkEInvoiceMandate(inv *domain.Invoice) domain.CheckResult {
	const id, name = "B12", "E-Invoice Mandate"
	hasIRN := inv.IRN != ""
	if inv.TotalAmount >= eInvoiceHighValue {
		if hasIRN {
			return validator.Pass(id, name, domain.SeverityHigh, 0.90,
				fmt.Sprintf("High-value invoice (%s): IRN present", money.FormatGrouped(inv.TotalAmount)))
		}
		return validator.Warn(id, name, domain.SeverityMedium, 0.80,
			fmt.Sprintf("High-value invoice (%s): IRN missing. Verify if supplier is below ₹5Cr turnover.",
				money.FormatGrouped(inv.TotalAmount))).Review()
	}
	if hasIRN {
		return validator.Pass(id, name, domain.SeverityLow, 0.95, "E-invoice present (good practice)")
	}
	return validator.Pass(id, name, domain.SeverityLow, 0.85, "E-invoice not mandatory for this invoice value")
}

func checkQRCode(inv *domain.Invoice) domain.CheckResult {
	const id, name = "B13", "QR Code Verification"
	switch {
	case inv.QRCodePresent:
		return validator.Pass(id, name, domain.SeverityLow, 0.90, "QR code present for verification")
	case inv.TotalAmount > qrRecommendedAbove:
		return validator.Warn(id, name, domain.SeverityLow, 0.75,
			fmt.Sprintf("QR code recommended for invoice value %s", money.FormatGrouped(inv.TotalAmount)))
	default:
		return validator.Pass(id, name, domain.SeverityLow, 0.85, "QR code not mandatory for low-value invoice")
	}
}

func checkIRNFormat(inv *domain.Invoice) domain.CheckResult {
	const id, name = "B14", "IRN Hash Verification"
	irn := inv.IRN
	if irn == "" {
		return validator.Pass(id, name, domain.SeverityLow, 0.80, "No IRN present - verification not applicable")
	}
	if len(irn) != irnLength || !irnPattern.MatchString(irn) {
		return validator.Fail(id, name, domain.SeverityHigh, 0.95,
			fmt.Sprintf("Invalid IRN format: %d characters (expected %d)", len(irn), irnLength)).Review()
	}
	return validator.Pass(id, name, domain.SeverityMedium, 0.85, fmt.Sprintf("IRN format valid: %s...", irn[:20]))
}

func checkValueThreshold(inv *domain.Invoice) domain.CheckResult {
	const id, name = "B15", "E-Invoice Value Threshold"
	if inv.TotalAmount >= eInvoiceMandatory && inv.IRN == "" {
		return validator.Fail(id, name, domain.SeverityHigh, 0.85,
			fmt.Sprintf("Very high value invoice (%s) likely requires e-invoice", money.FormatGrouped(inv.TotalAmount))).Review()
	}
	return validator.Pass(id, name, domain.SeverityMedium, 0.80,
		fmt.Sprintf("Invoice value %s: E-invoice status appropriate", money.FormatGrouped(inv.TotalAmount)))
}

func checkExport(inv *domain.Invoice) domain.CheckResult {
	const id, name = "B16", "Export Compliance"
	if !strings.Contains(strings.ToUpper(inv.InvoiceNumber), "EXP") {
		return validator.Pass(id, name, domain.SeverityLow, 0.90, "Not an export invoice - export compliance not applicable")
	}
	if tax := chargedGST(inv); tax > 0 {
		return validator.Warn(id, name, domain.SeverityMedium, 0.75,
			fmt.Sprintf("Possible export invoice but GST charged: %s", money.Format(tax))).Review()
	}
	return validator.Pass(id, name, domain.SeverityMedium, 0.80, "Export invoice: Zero-rated supply (no GST)")
}

func checkSEZ(inv *domain.Invoice) domain.CheckResult {
	const id, name = "B17", "SEZ Supply Validation"
	if !strings.Contains(strings.ToUpper(inv.InvoiceNumber), "SEZ") {
		return validator.Pass(id, name, domain.SeverityLow, 0.90, "Not a SEZ supply - SEZ rules not applicable")
	}
	if tax := chargedGST(inv); tax > 0 {
		return validator.Warn(id, name, domain.SeverityMedium, 0.80,
			fmt.Sprintf("Possible SEZ supply but GST charged: %s", money.Format(tax))).Review()
	}
	return validator.Pass(id, name, domain.SeverityMedium, 0.85, "SEZ supply: Zero-rated correctly")
}

func checkITC(inv *domain.Invoice) domain.CheckResult {
	const id, name = "B18", "ITC Eligibility"
	tax := chargedGST(inv)
	if tax <= 0 {
		return validator.Pass(id, name, domain.SeverityLow, 0.90, "No GST charged - ITC not applicable")
	}
	for i := range inv.LineItems {
		desc := strings.ToLower(inv.LineItems[i].Description)
		for _, kw := range blockedCreditKeywords {
			if strings.Contains(desc, kw) {
				return validator.Warn(id, name, domain.SeverityMedium, 0.75,
					fmt.Sprintf("Possible blocked credit item: %s. Verify ITC eligibility.", inv.LineItems[i].Description)).Review()
			}
		}
	}
	return validator.Pass(id, name, domain.SeverityMedium, 0.85,
		fmt.Sprintf("Invoice eligible for ITC: %s (subject to supplier compliance)", money.Format(tax)))
}
