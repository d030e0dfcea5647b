package tds

import (
	"strings"

	"finguard/internal/domain"
	"finguard/internal/gstin"
	"finguard/internal/port"
	"finguard/internal/refdata"
)

const (
	defaultSection = "194C"
	goodsSection   = "194Q"
	noPANRate      = 20.0
)

// sectionKeywords is checked in order; the first section whose keywords match
// a line wins for that line.
var sectionKeywords = []struct {
	section  string
	keywords []string
}{
	{"194C", []string{"contract", "works", "construction", "fabrication", "labour"}},
	{"194J", []string{"professional", "technical", "consulting", "legal", "audit", "accounting", "design", "engineering"}},
	{"194H", []string{"commission", "brokerage", "agent", "referral"}},
	{"194I", []string{"rent", "lease", "hire"}},
}

var nonResidentSections = map[string]bool{"195": true, "194LC": true, "194LD": true}

// DetermineSection infers the TDS section from line descriptions. It returns
// the expected section and every candidate found, in line order.
func DetermineSection(inv *domain.Invoice) (string, []string) {
	var candidates []string
	goodsThreshold := refdata.DefaultThresholds[refdata.Threshold194Q]
	for i := range inv.LineItems {
		desc := strings.ToLower(inv.LineItems[i].Description)
		if s := keywordSection(desc); s != "" {
			candidates = append(candidates, s)
		} else if inv.TotalAmount >= goodsThreshold {
			candidates = append(candidates, goodsSection)
		}
	}
	if len(candidates) == 0 {
		return defaultSection, []string{defaultSection}
	}
	return candidates[0], candidates
}

func keywordSection(desc string) string {
	for _, sk := range sectionKeywords {
		for _, kw := range sk.keywords {
			if strings.Contains(desc, kw) {
				return sk.section
			}
		}
	}
	return ""
}

// ExpectedRate is the deduction rate for a section given the deductee PAN.
// Without a PAN the penalty rate applies. For 194C the PAN holder type picks
// the individual or company rate. Unknown sections use the 194C rules.
func ExpectedRate(table port.TDSTable, section, pan string) float64 {
	if !hasPAN(pan) {
		return noPANRate
	}
	s, ok := table.Section(section)
	if !ok {
		s, ok = table.Section(defaultSection)
		if !ok {
			return 0
		}
	}
	if s.RateIndividual > 0 && gstin.PANHolderIsIndividual(pan) {
		return s.RateIndividual
	}
	if s.RateCompany > 0 {
		return s.RateCompany
	}
	return s.Rate
}

// StandardRate is the company rate with a valid PAN, the baseline for lower
// and higher deduction checks.
func StandardRate(table port.TDSTable, section string) float64 {
	s, ok := table.Section(section)
	if !ok {
		s, ok = table.Section(defaultSection)
		if !ok {
			return 0
		}
	}
	if s.RateCompany > 0 {
		return s.RateCompany
	}
	return s.Rate
}

func hasPAN(pan string) bool {
	return pan != "" && pan != "0000000000"
}
