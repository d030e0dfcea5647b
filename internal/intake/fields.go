package intake

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Accepted spellings for each canonical key, in lookup order. This table is
// the only place alternate input keys are recognized.
var invoiceAliases = map[string][]string{
	"invoice_number":        {"invoice_number", "invoice_no", "invoice_id"},
	"invoice_date":          {"invoice_date", "date"},
	"document_type":         {"document_type", "doc_type"},
	"vendor":                {"vendor", "seller", "supplier"},
	"buyer":                 {"buyer", "customer", "recipient"},
	"line_items":            {"line_items", "items"},
	"subtotal":              {"subtotal", "sub_total"},
	"discount":              {"discount"},
	"taxable_value":         {"taxable_value"},
	"cgst_amount":           {"cgst_amount", "cgst"},
	"sgst_amount":           {"sgst_amount", "sgst"},
	"igst_amount":           {"igst_amount", "igst"},
	"cess":                  {"cess", "cess_amount"},
	"cgst_rate":             {"cgst_rate"},
	"sgst_rate":             {"sgst_rate"},
	"igst_rate":             {"igst_rate"},
	"total_tax":             {"total_tax", "tax_amount"},
	"total_amount":          {"total_amount", "grand_total", "total"},
	"place_of_supply":       {"place_of_supply", "pos"},
	"irn":                   {"irn"},
	"irn_date":              {"irn_date", "ack_date"},
	"qr_code_present":       {"qr_code_present", "qr_code"},
	"reverse_charge":        {"reverse_charge", "rcm"},
	"tds_applicable":        {"tds_applicable"},
	"tds_section":           {"tds_section"},
	"tds_rate":              {"tds_rate"},
	"tds_amount":            {"tds_amount"},
	"po_reference":          {"po_reference", "po_number"},
	"payment_terms":         {"payment_terms"},
	"notes":                 {"notes"},
	"extraction_confidence": {"extraction_confidence"},
	"format_type":           {"format_type"},
}

var partyAliases = map[string][]string{
	"name":    {"name", "legal_name"},
	"gstin":   {"gstin"},
	"state":   {"state"},
	"pan":     {"pan"},
	"address": {"address"},
	"country": {"country"},
}

var lineItemAliases = map[string][]string{
	"description":   {"description", "desc"},
	"hsn_sac":       {"hsn_sac", "hsn_code", "sac_code", "hsn"},
	"quantity":      {"quantity", "qty"},
	"unit":          {"unit", "uom"},
	"rate":          {"rate", "unit_price", "price"},
	"amount":        {"amount", "taxable_amount"},
	"discount":      {"discount"},
	"taxable_value": {"taxable_value"},
	"tax_rate":      {"tax_rate", "gst_rate"},
	"cgst":          {"cgst", "cgst_amount"},
	"sgst":          {"sgst", "sgst_amount"},
	"igst":          {"igst", "igst_amount"},
}

// lookup returns the first present, non-nil value for the canonical key.
func lookup(m map[string]any, aliases map[string][]string, key string) (any, bool) {
	names, ok := aliases[key]
	if !ok {
		names = []string{key}
	}
	for _, n := range names {
		if v, ok := m[n]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// toFloat converts JSON-decoded numbers and numeric strings. Booleans are not
// numbers, and neither are NaN or infinities.
func toFloat(v any) (float64, bool) {
	f, ok := asFloat(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(strings.ReplaceAll(n, ",", "")), 64)
		return f, err == nil
	}
	return 0, false
}

func toBool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "true", "yes", "y", "1":
			return true
		}
	case float64:
		return b != 0
	case int:
		return b != 0
	}
	return false
}

func toString(v any) string {
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case json.Number:
		return s.String()
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int:
		return strconv.Itoa(s)
	}
	return ""
}

// InvoiceID extracts the invoice number from a raw record for reporting,
// even when the record is rejected.
func InvoiceID(raw any) string {
	m, ok := raw.(map[string]any)
	if !ok {
		return ""
	}
	v, _ := lookup(m, invoiceAliases, "invoice_number")
	return toString(v)
}

// TotalAmount extracts the declared total from a raw record, or 0.
func TotalAmount(raw any) float64 {
	m, ok := raw.(map[string]any)
	if !ok {
		return 0
	}
	v, _ := lookup(m, invoiceAliases, "total_amount")
	f, _ := toFloat(v)
	return f
}
