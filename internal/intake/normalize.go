package intake

import (
	"fmt"
	"strings"

	"finguard/internal/domain"
	"finguard/internal/gstin"
)

// Normalize maps an accepted raw record onto the canonical Invoice. Every
// alternate key spelling is resolved here so validators only see typed fields.
//
// Derived values:
//   - party state comes from the record when given, otherwise from the GSTIN
//     state code; a foreign country replaces the state
//   - total_tax defaults to the sum of the tax components
//   - a line tax_rate defaults to the invoice igst_rate, else cgst_rate+sgst_rate
func Normalize(raw map[string]any) (*domain.Invoice, error) {
	if raw == nil {
		return nil, fmt.Errorf("%w: empty record", domain.ErrInvalidInvoice)
	}

	str := func(key string) string {
		v, _ := lookup(raw, invoiceAliases, key)
		return toString(v)
	}
	num := func(key string) float64 {
		v, _ := lookup(raw, invoiceAliases, key)
		f, _ := toFloat(v)
		return f
	}
	optNum := func(key string) *float64 {
		v, ok := lookup(raw, invoiceAliases, key)
		if !ok {
			return nil
		}
		f, isNum := toFloat(v)
		if !isNum {
			return nil
		}
		return &f
	}
	flag := func(key string) bool {
		v, _ := lookup(raw, invoiceAliases, key)
		return toBool(v)
	}

	invDate, err := parseISODate(str("invoice_date"))
	if err != nil {
		return nil, fmt.Errorf("%w: invoice_date: %v", domain.ErrInvalidInvoice, err)
	}

	inv := &domain.Invoice{
		InvoiceNumber: str("invoice_number"),
		InvoiceDate:   invDate,
		DocumentType:  domain.DocumentType(strings.ToUpper(str("document_type"))),
		Seller:        normalizeParty(raw, "vendor"),
		Buyer:         normalizeParty(raw, "buyer"),
		Subtotal:      num("subtotal"),
		Discount:      num("discount"),
		TaxableValue:  optNum("taxable_value"),
		CGSTAmount:    num("cgst_amount"),
		SGSTAmount:    num("sgst_amount"),
		IGSTAmount:    num("igst_amount"),
		Cess:          num("cess"),
		TotalAmount:   num("total_amount"),
		PlaceOfSupply: str("place_of_supply"),
		IRN:           str("irn"),
		QRCodePresent: flag("qr_code_present"),
		ReverseCharge: flag("reverse_charge"),
		TDSApplicable: flag("tds_applicable"),
		TDSSection:    strings.ToUpper(str("tds_section")),
		TDSRate:       optNum("tds_rate"),
		TDSAmount:     optNum("tds_amount"),
		POReference:   str("po_reference"),
		PaymentTerms:  str("payment_terms"),
		Notes:         str("notes"),
		FormatType:    strings.ToLower(str("format_type")),
	}
	if !domain.ValidDocumentTypes[inv.DocumentType] {
		inv.DocumentType = domain.DocumentTaxInvoice
	}
	if inv.FormatType == "" {
		inv.FormatType = "json"
	}
	if c := optNum("extraction_confidence"); c != nil {
		inv.ExtractionConfidence = *c
	} else {
		inv.ExtractionConfidence = 1.0
	}
	if s := str("irn_date"); s != "" {
		if d, err := parseISODate(s); err == nil {
			inv.IRNDate = &d
		}
	}
	if tt := optNum("total_tax"); tt != nil {
		inv.TotalTax = *tt
	} else {
		inv.TotalTax = inv.TaxComponentsTotal()
	}

	var defaultRate *float64
	if r := num("igst_rate"); r > 0 {
		defaultRate = &r
	} else if r := num("cgst_rate") + num("sgst_rate"); r > 0 {
		defaultRate = &r
	}

	rawItems, _ := lookup(raw, invoiceAliases, "line_items")
	items, _ := rawItems.([]any)
	inv.LineItems = make([]domain.LineItem, 0, len(items))
	for _, it := range items {
		m, ok := it.(map[string]any)
		if !ok {
			continue
		}
		inv.LineItems = append(inv.LineItems, normalizeLineItem(m, defaultRate))
	}
	return inv, nil
}

func normalizeParty(raw map[string]any, key string) domain.Party {
	v, _ := lookup(raw, invoiceAliases, key)
	m, _ := v.(map[string]any)
	get := func(k string) string {
		val, _ := lookup(m, partyAliases, k)
		return toString(val)
	}
	p := domain.Party{
		Name:    get("name"),
		GSTIN:   strings.ToUpper(get("gstin")),
		State:   get("state"),
		PAN:     strings.ToUpper(get("pan")),
		Address: get("address"),
		Country: get("country"),
	}
	if p.State == "" && len(p.GSTIN) >= 2 {
		p.State = gstin.StateName(p.GSTIN[:2])
	}
	if p.Country != "" && !strings.EqualFold(p.Country, "india") {
		p.State = p.Country
	}
	if p.PAN == "" && gstin.HasPAN(p.GSTIN) {
		p.PAN = gstin.PAN(p.GSTIN)
	}
	return p
}

func normalizeLineItem(m map[string]any, defaultRate *float64) domain.LineItem {
	get := func(k string) (any, bool) { return lookup(m, lineItemAliases, k) }
	num := func(k string) float64 {
		v, _ := get(k)
		f, _ := toFloat(v)
		return f
	}
	opt := func(k string) *float64 {
		v, ok := get(k)
		if !ok {
			return nil
		}
		f, isNum := toFloat(v)
		if !isNum {
			return nil
		}
		return &f
	}
	desc, _ := get("description")
	code, _ := get("hsn_sac")
	unit, _ := get("unit")

	li := domain.LineItem{
		Description:  toString(desc),
		HSNSAC:       toString(code),
		Quantity:     num("quantity"),
		Unit:         toString(unit),
		Rate:         num("rate"),
		Amount:       num("amount"),
		Discount:     num("discount"),
		TaxableValue: opt("taxable_value"),
		TaxRate:      opt("tax_rate"),
		CGST:         num("cgst"),
		SGST:         num("sgst"),
		IGST:         num("igst"),
	}
	if li.Unit == "" {
		li.Unit = "NOS"
	}
	if li.TaxRate == nil && defaultRate != nil {
		r := *defaultRate
		li.TaxRate = &r
	}
	return li
}
