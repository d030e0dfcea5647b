// Package intake rejects malformed invoice records and normalizes accepted
// ones into domain.Invoice before any tax rule runs.
package intake

import (
	"fmt"
	"strings"
	"time"

	"finguard/internal/gstin"
	"finguard/internal/money"
)

const (
	// amountTolerance is the strict ingestion tolerance. Semantic checks in
	// the arithmetic category use a looser one.
	amountTolerance = 0.01
	maxTotalAmount  = 1_000_000_000
	maxInvoiceAge   = 3650 * 24 * time.Hour
)

var requiredFields = []string{
	"invoice_number",
	"invoice_date",
	"vendor",
	"buyer",
	"line_items",
	"subtotal",
	"total_tax",
	"total_amount",
}

var lineItemRequired = []string{"description", "quantity", "rate", "amount"}

// Validator performs structural and sanity checks on raw invoice records.
// It is stateless and safe for concurrent use.
type Validator struct {
	now func() time.Time
}

// NewValidator returns a Validator. A nil clock uses time.Now.
func NewValidator(clock func() time.Time) *Validator {
	if clock == nil {
		clock = time.Now
	}
	return &Validator{now: clock}
}

// Validate reports whether raw is acceptable and lists every problem found.
// It never panics, whatever the input.
func (v *Validator) Validate(raw any) (valid bool, errs []string) {
	defer func() {
		if r := recover(); r != nil {
			valid = false
			errs = []string{fmt.Sprintf("Validation error: %v", r)}
		}
	}()

	data, ok := raw.(map[string]any)
	if !ok || data == nil {
		return false, []string{"Invoice must be an object"}
	}

	var c collector
	for _, f := range requiredFields {
		if _, ok := lookup(data, invoiceAliases, f); !ok {
			c.add("Missing required field: %s", f)
		}
	}
	if len(c.errs) > 0 {
		return false, c.errs
	}

	v.checkStructure(data, &c)
	v.checkTypes(data, &c)
	v.checkBusinessRules(data, &c)
	v.checkGSTINs(data, &c)
	v.checkLineItems(data, &c)
	v.checkAmounts(data, &c)

	return len(c.errs) == 0, c.errs
}

type collector struct {
	errs []string
}

func (c *collector) add(format string, args ...any) {
	c.errs = append(c.errs, fmt.Sprintf(format, args...))
}

func (v *Validator) checkStructure(data map[string]any, c *collector) {
	for _, p := range []struct{ key, label string }{{"vendor", "Vendor"}, {"buyer", "Buyer"}} {
		raw, _ := lookup(data, invoiceAliases, p.key)
		party, ok := raw.(map[string]any)
		if !ok {
			c.add("%s must be a dictionary", p.label)
			continue
		}
		_, hasName := lookup(party, partyAliases, "name")
		_, hasGSTIN := lookup(party, partyAliases, "gstin")
		if !hasName || !hasGSTIN {
			c.add("%s missing required fields (name, gstin)", p.label)
		}
	}

	raw, _ := lookup(data, invoiceAliases, "line_items")
	items, ok := raw.([]any)
	switch {
	case !ok:
		c.add("Line items must be a list")
	case len(items) == 0:
		c.add("Invoice must have at least one line item")
	}
}

func (v *Validator) checkTypes(data map[string]any, c *collector) {
	for _, f := range []string{"invoice_number", "invoice_date"} {
		if val, ok := lookup(data, invoiceAliases, f); ok {
			if _, isStr := val.(string); !isStr {
				c.add("%s must be a string", f)
			}
		}
	}
	for _, f := range []string{"subtotal", "total_tax", "total_amount", "cgst_amount", "sgst_amount", "igst_amount", "cess"} {
		if val, ok := lookup(data, invoiceAliases, f); ok {
			n, isNum := toFloat(val)
			if !isNum {
				c.add("%s must be numeric", f)
				continue
			}
			if f != "total_amount" && n < 0 {
				c.add("%s cannot be negative: %v", f, n)
			}
		}
	}
}

func (v *Validator) checkBusinessRules(data map[string]any, c *collector) {
	if val, ok := lookup(data, invoiceAliases, "invoice_date"); ok {
		if s, isStr := val.(string); isStr {
			d, err := parseISODate(s)
			if err != nil {
				c.add("Invalid invoice date format: %s - %v", s, err)
			} else {
				today := dateOnly(v.now())
				if d.After(today) {
					c.add("Invoice date cannot be in future: %s", d.Format("2006-01-02"))
				}
				if today.Sub(d) > maxInvoiceAge {
					c.add("Invoice date too old: %s", d.Format("2006-01-02"))
				}
			}
		}
	}

	if val, ok := lookup(data, invoiceAliases, "total_amount"); ok {
		if total, isNum := toFloat(val); isNum {
			if total <= 0 {
				c.add("Total amount must be positive: %v", total)
			}
			if total > maxTotalAmount {
				c.add("Total amount unreasonably high: %v", total)
			}
		}
	}
}

func (v *Validator) checkGSTINs(data map[string]any, c *collector) {
	for _, p := range []struct{ key, label string }{{"vendor", "seller"}, {"buyer", "buyer"}} {
		raw, _ := lookup(data, invoiceAliases, p.key)
		party, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		val, _ := lookup(party, partyAliases, "gstin")
		s, isStr := val.(string)
		if !isStr {
			if val != nil {
				c.add("Invalid %s GSTIN format: %v", p.label, val)
			}
			continue
		}
		if s != "" && !gstin.Valid(s) {
			c.add("Invalid %s GSTIN format: %s", p.label, s)
		}
	}
}

func (v *Validator) checkLineItems(data map[string]any, c *collector) {
	raw, _ := lookup(data, invoiceAliases, "line_items")
	items, ok := raw.([]any)
	if !ok {
		return
	}
	for i, it := range items {
		n := i + 1
		item, ok := it.(map[string]any)
		if !ok {
			c.add("Line item %d must be a dictionary", n)
			continue
		}
		for _, f := range lineItemRequired {
			if _, ok := lookup(item, lineItemAliases, f); !ok {
				c.add("Line item %d missing field: %s", n, f)
			}
		}

		qty, qtyOK := numericField(item, "quantity", n, c)
		if qtyOK && qty <= 0 {
			c.add("Line item %d quantity must be positive", n)
		}
		rate, rateOK := numericField(item, "rate", n, c)
		if rateOK && rate < 0 {
			c.add("Line item %d rate cannot be negative", n)
		}
		amount, amountOK := numericField(item, "amount", n, c)
		if amountOK && amount < 0 {
			c.add("Line item %d amount cannot be negative", n)
		}

		if qtyOK && rateOK && amountOK && !money.Within(qty*rate, amount, amountTolerance) {
			c.add("Line item %d calculation error: %v × %v ≠ %v", n, qty, rate, amount)
		}
	}
}

func numericField(item map[string]any, key string, n int, c *collector) (float64, bool) {
	val, ok := lookup(item, lineItemAliases, key)
	if !ok {
		return 0, false
	}
	f, isNum := toFloat(val)
	if !isNum {
		c.add("Line item %d %s must be numeric", n, key)
		return 0, false
	}
	return f, true
}

func (v *Validator) checkAmounts(data map[string]any, c *collector) {
	num := func(key string) (float64, bool) {
		val, ok := lookup(data, invoiceAliases, key)
		if !ok {
			return 0, true
		}
		return toFloat(val)
	}
	subtotal, ok1 := num("subtotal")
	totalTax, ok2 := num("total_tax")
	total, ok3 := num("total_amount")
	if !ok1 || !ok2 || !ok3 {
		return
	}
	if !money.Within(subtotal+totalTax, total, amountTolerance) {
		c.add("Amount mismatch: subtotal (%v) + tax (%v) ≠ total (%v)", subtotal, totalTax, total)
	}

	cgst, ok1 := num("cgst_amount")
	sgst, ok2 := num("sgst_amount")
	igst, ok3 := num("igst_amount")
	cess, ok4 := num("cess")
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return
	}
	components := money.Sum(cgst, sgst, igst, cess)
	if !money.Within(components, totalTax, amountTolerance) {
		c.add("Tax mismatch: CGST + SGST + IGST + Cess (%v) ≠ Total Tax (%v)", components, totalTax)
	}
}

// parseISODate accepts YYYY-MM-DD and RFC 3339 timestamps.
func parseISODate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("expected YYYY-MM-DD")
	}
	return dateOnly(t), nil
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
