package document

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"finguard/internal/domain"
	"finguard/internal/gstin"
	"finguard/internal/validator"
)

const nameOverlapThreshold = 0.7

var folder = cases.Fold()

// NormalizeName folds case, strips combining marks and collapses whitespace
// so vendor names from different sources compare equal.
func NormalizeName(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.Join(strings.Fields(folder.String(out)), " ")
}

// NameOverlap is the share of characters of a found anywhere in b, over the
// longer of the two normalized names.
func NameOverlap(a, b string) float64 {
	a, b = NormalizeName(a), NormalizeName(b)
	ra, rb := []rune(a), []rune(b)
	longest := max(len(ra), len(rb))
	if len(ra) == 0 || len(rb) == 0 {
		return 0
	}
	matches := 0
	for _, r := range ra {
		if strings.ContainsRune(b, r) {
			matches++
		}
	}
	return float64(matches) / float64(longest)
}

// NamesMatch accepts containment either way or a high character overlap.
func NamesMatch(registered, invoiced string) bool {
	r, i := NormalizeName(registered), NormalizeName(invoiced)
	if r == "" || i == "" {
		return false
	}
	return strings.Contains(r, i) || strings.Contains(i, r) || NameOverlap(r, i) > nameOverlapThreshold
}

func (v *Validator) checkSeller(inv *domain.Invoice) domain.CheckResult {
	const id, name = "A6", "Seller Verification"
	if v.vendors == nil || !v.vendors.Loaded() {
		return validator.Warn(id, name, domain.SeverityMedium, 0.6,
			"Vendor registry not available for verification").Review()
	}
	vendor, ok := v.vendors.ByGSTIN(inv.Seller.GSTIN)
	if !ok {
		return validator.Warn(id, name, domain.SeverityHigh, 0.85,
			fmt.Sprintf("Seller GSTIN %s not found in vendor registry. First-time vendor?", inv.Seller.GSTIN)).Review()
	}

	nameOK := NamesMatch(vendor.LegalName, inv.Seller.Name)
	stateOK := true
	var stateNote string
	if inv.Seller.State != "" && vendor.State != "" && NormalizeName(inv.Seller.State) != NormalizeName(vendor.State) {
		stateOK = false
		stateNote = fmt.Sprintf(" (State mismatch: %s vs %s)", vendor.State, inv.Seller.State)
	}

	switch {
	case nameOK && stateOK:
		return validator.Pass(id, name, domain.SeverityMedium, 0.95,
			fmt.Sprintf("Seller verified: %s matches vendor registry", vendor.LegalName))
	case nameOK:
		return validator.Pass(id, name, domain.SeverityMedium, 0.85,
			"Seller verified with minor discrepancies"+stateNote)
	default:
		return validator.Warn(id, name, domain.SeverityHigh, 0.75,
			fmt.Sprintf("GSTIN matches but name mismatch: Invoice %q vs Registry %q", inv.Seller.Name, vendor.LegalName)).Review()
	}
}

func (v *Validator) checkBuyerGSTIN(inv *domain.Invoice) domain.CheckResult {
	const id, name = "A7", "Buyer GSTIN Verification"
	buyer := inv.Buyer.GSTIN
	if buyer == v.companyGSTIN {
		return validator.Pass(id, name, domain.SeverityCritical, 1.0,
			"Buyer GSTIN matches company records: "+buyer)
	}
	if pan := gstin.PAN(buyer); pan != "" && pan == gstin.PAN(v.companyGSTIN) {
		return validator.Warn(id, name, domain.SeverityHigh, 0.85,
			fmt.Sprintf("Buyer GSTIN %s has same PAN as company but different state code (branch/unit?)", buyer)).Review()
	}
	return validator.Fail(id, name, domain.SeverityCritical, 0.95,
		fmt.Sprintf("Buyer GSTIN mismatch: Invoice shows %s, company GSTIN is %s", buyer, v.companyGSTIN)).Review()
}
