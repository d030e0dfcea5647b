package gst

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"finguard/internal/domain"
	"finguard/internal/money"
	"finguard/internal/validator"
)

const (
	defaultRate  = 18.0
	taxTolerance = 0.50
	// unverifiedConfidence applies to B7.1 when a line rate is not from reference data.
	unverifiedConfidence = 0.7
	// structuralTolerance is the amount above which a tax component counts as charged.
	structuralTolerance = 0.01
)

var percentPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*%`)

// Rate sources, in resolution order.
const (
	SourceSchedule    = "rate_schedule"
	SourceHSNMaster   = "hsn_master"
	SourceRegulations = "regulations"
	SourceDefault     = "default"
)

// LineCalculation is the expected tax for one line item.
type LineCalculation struct {
	Item          string  `json:"item"`
	Code          string  `json:"hsn_sac"`
	TaxableAmount float64 `json:"taxable_amount"`
	GSTRate       float64 `json:"gst_rate"`
	RateSource    string  `json:"rate_source"`
	IGST          float64 `json:"igst,omitempty"`
	CGST          float64 `json:"cgst,omitempty"`
	SGST          float64 `json:"sgst,omitempty"`
}

// ExpectedTax is the tax an invoice should carry given its lines and rates.
type ExpectedTax struct {
	Interstate bool
	IGST       float64
	CGST       float64
	SGST       float64
	Lines      []LineCalculation
}

// Unverified lists the codes whose rate came from neither the schedule nor
// the HSN master.
func (e ExpectedTax) Unverified() []string {
	var codes []string
	for _, l := range e.Lines {
		if l.RateSource == SourceDefault || l.RateSource == SourceRegulations {
			codes = append(codes, l.Code)
		}
	}
	return codes
}

// Total is the expected GST excluding cess.
func (e ExpectedTax) Total() float64 {
	if e.Interstate {
		return e.IGST
	}
	return money.Sum(e.CGST, e.SGST)
}

// ResolveRate finds the GST rate for a code on a date: the rate schedule,
// then the HSN master, then percentages quoted in retrieved regulations,
// then 18%.
func (v *Validator) ResolveRate(ctx context.Context, code, description string, on time.Time) (float64, string) {
	if v.rates != nil {
		if entry, ok := v.rates.Lookup(code, on); ok {
			return entry.TotalRate(), SourceSchedule
		}
	}
	if v.hsn != nil {
		if entry, ok := v.hsn.Lookup(code); ok {
			return entry.GSTRate, SourceHSNMaster
		}
	}
	if v.retriever != nil {
		text, err := v.retriever.Retrieve(ctx, strings.TrimSpace(fmt.Sprintf("GST rate for HSN %s %s", code, description)))
		if err != nil {
			v.logger.Warn("gst.Validator: regulation lookup failed", zap.String("hsn_sac", code), zap.Error(err))
		} else if rate, ok := MostQuotedRate(text); ok {
			return rate, SourceRegulations
		}
	}
	v.logger.Debug("gst.Validator: rate not found, using default", zap.String("hsn_sac", code))
	return defaultRate, SourceDefault
}

// MostQuotedRate returns the percentage mentioned most often in text. Ties
// go to the value seen first.
func MostQuotedRate(text string) (float64, bool) {
	matches := percentPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return 0, false
	}
	counts := make(map[float64]int, len(matches))
	var order []float64
	for _, m := range matches {
		f, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		if counts[f] == 0 {
			order = append(order, f)
		}
		counts[f]++
	}
	if len(order) == 0 {
		return 0, false
	}
	best := order[0]
	for _, f := range order[1:] {
		if counts[f] > counts[best] {
			best = f
		}
	}
	return best, true
}

// CalculateExpectedTax computes expected IGST, or CGST and SGST, per line.
func (v *Validator) CalculateExpectedTax(ctx context.Context, inv *domain.Invoice) ExpectedTax {
	exp := ExpectedTax{Interstate: inv.IsInterstate()}
	var igst, cgst, sgst []float64
	for i := range inv.LineItems {
		item := &inv.LineItems[i]
		rate, source := v.ResolveRate(ctx, item.HSNSAC, item.Description, inv.InvoiceDate)
		taxable := item.TaxableAmount()
		label := item.Description
		if label == "" {
			label = item.HSNSAC
		}
		line := LineCalculation{Item: label, Code: item.HSNSAC, TaxableAmount: taxable, GSTRate: rate, RateSource: source}
		if exp.Interstate {
			line.IGST = money.Percent(taxable, rate)
			igst = append(igst, line.IGST)
		} else {
			line.CGST = money.Percent(taxable, rate/2)
			line.SGST = line.CGST
			cgst = append(cgst, line.CGST)
			sgst = append(sgst, line.SGST)
		}
		exp.Lines = append(exp.Lines, line)
	}
	exp.IGST = money.Sum(igst...)
	exp.CGST = money.Sum(cgst...)
	exp.SGST = money.Sum(sgst...)
	return exp
}

// TaxCalculationChecks compares declared tax with the expected calculation
// (B7.1), checks structural rules (B7.2, B7.3) and the declared total (B7.4).
// Exactly one of the interstate or intrastate branches runs.
func (v *Validator) TaxCalculationChecks(ctx context.Context, inv *domain.Invoice) []domain.CheckResult {
	exp := v.CalculateExpectedTax(ctx, inv)
	details := map[string]any{"calculation_details": exp.Lines}
	confidence := 1.0
	if unverified := exp.Unverified(); len(unverified) > 0 {
		confidence = unverifiedConfidence
		details["unverified_rates"] = unverified
	}
	var checks []domain.CheckResult

	if exp.Interstate {
		const name = "IGST Calculation (Interstate)"
		diff := money.Diff(inv.IGSTAmount, exp.IGST)
		if diff <= taxTolerance {
			checks = append(checks, validator.Pass("B7.1", name, domain.SeverityCritical, confidence,
				fmt.Sprintf("IGST correct: Invoice %s vs Expected %s", money.Format(inv.IGSTAmount), money.Format(exp.IGST))).
				WithDetails(details))
		} else {
			checks = append(checks, validator.Fail("B7.1", name, domain.SeverityCritical, confidence,
				fmt.Sprintf("IGST mismatch: Invoice %s vs Expected %s (Difference: %s)",
					money.Format(inv.IGSTAmount), money.Format(exp.IGST), money.Format(diff))).
				Review().WithDetails(details))
		}

		const structural = "Invalid CGST/SGST in Interstate"
		if inv.CGSTAmount > structuralTolerance || inv.SGSTAmount > structuralTolerance {
			checks = append(checks, validator.Fail("B7.2", structural, domain.SeverityCritical, 1.0,
				fmt.Sprintf("Interstate supply should not have CGST/SGST. Found CGST: %s, SGST: %s",
					money.Format(inv.CGSTAmount), money.Format(inv.SGSTAmount))).Review())
		} else {
			checks = append(checks, validator.Pass("B7.2", structural, domain.SeverityCritical, 1.0,
				"No CGST/SGST charged on interstate supply"))
		}
	} else {
		const name = "CGST/SGST Calculation (Intrastate)"
		cgstDiff := money.Diff(inv.CGSTAmount, exp.CGST)
		sgstDiff := money.Diff(inv.SGSTAmount, exp.SGST)
		if cgstDiff <= taxTolerance && sgstDiff <= taxTolerance {
			checks = append(checks, validator.Pass("B7.1", name, domain.SeverityCritical, confidence,
				fmt.Sprintf("Tax correct: CGST %s vs %s, SGST %s vs %s",
					money.Format(inv.CGSTAmount), money.Format(exp.CGST),
					money.Format(inv.SGSTAmount), money.Format(exp.SGST))).
				WithDetails(details))
		} else {
			var issues []string
			if cgstDiff > taxTolerance {
				issues = append(issues, fmt.Sprintf("CGST: %s vs Expected %s", money.Format(inv.CGSTAmount), money.Format(exp.CGST)))
			}
			if sgstDiff > taxTolerance {
				issues = append(issues, fmt.Sprintf("SGST: %s vs Expected %s", money.Format(inv.SGSTAmount), money.Format(exp.SGST)))
			}
			checks = append(checks, validator.Fail("B7.1", name, domain.SeverityCritical, confidence,
				"Tax mismatch: "+strings.Join(issues, ", ")).Review().WithDetails(details))
		}

		const structural = "Invalid IGST in Intrastate"
		if inv.IGSTAmount > structuralTolerance {
			checks = append(checks, validator.Fail("B7.2", structural, domain.SeverityCritical, 1.0,
				fmt.Sprintf("Intrastate supply should not have IGST. Found: %s", money.Format(inv.IGSTAmount))).Review())
		} else {
			checks = append(checks, validator.Pass("B7.2", structural, domain.SeverityCritical, 1.0,
				"No IGST charged on intrastate supply"))
		}

		const equal = "CGST = SGST Check"
		if money.Diff(inv.CGSTAmount, inv.SGSTAmount) > taxTolerance {
			checks = append(checks, validator.Fail("B7.3", equal, domain.SeverityHigh, 1.0,
				fmt.Sprintf("CGST and SGST must be equal. CGST: %s, SGST: %s",
					money.Format(inv.CGSTAmount), money.Format(inv.SGSTAmount))).Review())
		} else {
			checks = append(checks, validator.Pass("B7.3", equal, domain.SeverityHigh, 1.0,
				fmt.Sprintf("CGST %s equals SGST %s", money.Format(inv.CGSTAmount), money.Format(inv.SGSTAmount))))
		}
	}

	const totalName = "Total Tax Validation"
	expectedTotal := money.Sum(exp.Total(), inv.Cess)
	if money.Diff(inv.TotalTax, expectedTotal) > taxTolerance {
		checks = append(checks, validator.Fail("B7.4", totalName, domain.SeverityCritical, 1.0,
			fmt.Sprintf("Total tax mismatch: Invoice %s vs Expected %s",
				money.Format(inv.TotalTax), money.Format(expectedTotal))).Review())
	} else {
		checks = append(checks, validator.Pass("B7.4", totalName, domain.SeverityCritical, 1.0,
			fmt.Sprintf("Total tax %s matches expected %s", money.Format(inv.TotalTax), money.Format(expectedTotal))))
	}
	return checks
}
