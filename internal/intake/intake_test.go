package intake_test

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finguard/internal/domain"
	"finguard/internal/intake"
)

var fixedNow = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

// validRecord returns a well-formed intrastate invoice record as decoded from JSON.
func validRecord() map[string]any {
	const doc = `{
		"invoice_number": "INV-2025-001",
		"invoice_date": "2025-05-20",
		"vendor": {"name": "Acme Supplies Pvt Ltd", "gstin": "27AABCA1234B1Z5", "pan": "AABCA1234B"},
		"buyer": {"name": "Buyer Industries Ltd", "gstin": "27AABCU9603R1ZM"},
		"line_items": [
			{"description": "Office chairs", "hsn_code": "9401", "quantity": 10, "rate": 5000, "amount": 50000},
			{"description": "Office desks", "hsn_sac": "9403", "quantity": 5, "rate": 10000, "amount": 50000}
		],
		"subtotal": 100000,
		"cgst_amount": 9000,
		"sgst_amount": 9000,
		"igst_amount": 0,
		"total_tax": 18000,
		"total_amount": 118000
	}`
	var m map[string]any
	if err := json.Unmarshal([]byte(doc), &m); err != nil {
		panic(err)
	}
	return m
}

func hasErrorContaining(errs []string, sub string) bool {
	for _, e := range errs {
		if strings.Contains(e, sub) {
			return true
		}
	}
	return false
}

func TestValidator_ValidRecord(t *testing.T) {
	v := intake.NewValidator(clock)
	ok, errs := v.Validate(validRecord())
	assert.True(t, ok)
	assert.Empty(t, errs)
}

func TestValidator_NeverPanics(t *testing.T) {
	v := intake.NewValidator(clock)
	inputs := []any{
		nil,
		map[string]any{},
		"not an invoice",
		42,
		[]any{1, 2, 3},
		map[string]any{"invoice_number": nil},
		map[string]any{
			"invoice_number": 12, "invoice_date": []any{"x"}, "vendor": "acme", "buyer": 7,
			"line_items": map[string]any{"a": 1}, "subtotal": "abc", "total_tax": true, "total_amount": map[string]any{},
		},
		map[string]any{
			"invoice_number": "X", "invoice_date": "2025-01-01",
			"vendor": map[string]any{"name": nil, "gstin": 99}, "buyer": map[string]any{},
			"line_items": []any{nil, "x", map[string]any{"quantity": "many", "rate": []any{}, "amount": nil}},
			"subtotal":   1, "total_tax": 0, "total_amount": 1,
		},
	}
	for _, in := range inputs {
		assert.NotPanics(t, func() {
			ok, errs := v.Validate(in)
			assert.False(t, ok)
			assert.NotEmpty(t, errs)
		})
	}
}

func TestValidator_MissingFieldsShortCircuit(t *testing.T) {
	v := intake.NewValidator(clock)
	ok, errs := v.Validate(map[string]any{"invoice_number": "INV-1"})
	assert.False(t, ok)
	assert.Len(t, errs, 7)
	for _, e := range errs {
		assert.True(t, strings.HasPrefix(e, "Missing required field: "), e)
	}
}

func TestValidator_FutureDate(t *testing.T) {
	v := intake.NewValidator(clock)
	rec := validRecord()
	rec["invoice_date"] = "2099-12-31"
	ok, errs := v.Validate(rec)
	assert.False(t, ok)
	assert.True(t, hasErrorContaining(errs, "future"))
}

func TestValidator_DateRules(t *testing.T) {
	v := intake.NewValidator(clock)

	t.Run("too old", func(t *testing.T) {
		rec := validRecord()
		rec["invoice_date"] = "2010-01-01"
		_, errs := v.Validate(rec)
		assert.True(t, hasErrorContaining(errs, "Invoice date too old"))
	})

	t.Run("unparsable", func(t *testing.T) {
		rec := validRecord()
		rec["invoice_date"] = "20/05/2025"
		_, errs := v.Validate(rec)
		assert.True(t, hasErrorContaining(errs, "Invalid invoice date format"))
	})
}

func TestValidator_EmptyLineItems(t *testing.T) {
	v := intake.NewValidator(clock)
	rec := validRecord()
	rec["line_items"] = []any{}
	ok, errs := v.Validate(rec)
	assert.False(t, ok)
	assert.True(t, hasErrorContaining(errs, "line item"))
}

func TestValidator_AccumulatesErrors(t *testing.T) {
	v := intake.NewValidator(clock)
	rec := validRecord()
	rec["vendor"].(map[string]any)["gstin"] = "BAD-GSTIN"
	rec["total_amount"] = 0.0
	items := rec["line_items"].([]any)
	items[0].(map[string]any)["amount"] = 49000.0

	ok, errs := v.Validate(rec)
	assert.False(t, ok)
	assert.True(t, hasErrorContaining(errs, "Invalid seller GSTIN format: BAD-GSTIN"))
	assert.True(t, hasErrorContaining(errs, "Total amount must be positive"))
	assert.True(t, hasErrorContaining(errs, "Line item 1 calculation error"))
	assert.True(t, hasErrorContaining(errs, "Amount mismatch"))
}

func TestValidator_TaxMismatch(t *testing.T) {
	v := intake.NewValidator(clock)
	rec := validRecord()
	rec["sgst_amount"] = 8000.0
	_, errs := v.Validate(rec)
	assert.True(t, hasErrorContaining(errs, "Tax mismatch"))
}

func TestValidator_StrictLineTolerance(t *testing.T) {
	v := intake.NewValidator(clock)
	rec := validRecord()
	items := rec["line_items"].([]any)
	items[0].(map[string]any)["amount"] = 50000.5
	_, errs := v.Validate(rec)
	assert.True(t, hasErrorContaining(errs, "Line item 1 calculation error"), "50 paise exceeds the intake tolerance")
}

func TestNormalize(t *testing.T) {
	inv, err := intake.Normalize(validRecord())
	require.NoError(t, err)

	assert.Equal(t, "INV-2025-001", inv.InvoiceNumber)
	assert.Equal(t, time.Date(2025, 5, 20, 0, 0, 0, 0, time.UTC), inv.InvoiceDate)
	assert.Equal(t, domain.DocumentTaxInvoice, inv.DocumentType)
	assert.Equal(t, "Maharashtra", inv.Seller.State)
	assert.Equal(t, "AABCU9603R", inv.Buyer.PAN)
	require.Len(t, inv.LineItems, 2)
	assert.Equal(t, "9401", inv.LineItems[0].HSNSAC, "hsn_code alias")
	assert.Equal(t, "NOS", inv.LineItems[0].Unit)
	assert.Nil(t, inv.LineItems[0].TaxRate)
	assert.Equal(t, 1.0, inv.ExtractionConfidence)
	assert.Equal(t, "json", inv.FormatType)
	assert.False(t, inv.IsInterstate())
}

func TestNormalize_Derivations(t *testing.T) {
	rec := validRecord()
	delete(rec, "total_tax")
	rec["cgst_rate"] = 9.0
	rec["sgst_rate"] = 9.0
	rec["seller"] = rec["vendor"]
	delete(rec, "vendor")
	rec["seller"].(map[string]any)["country"] = "Singapore"

	inv, err := intake.Normalize(rec)
	require.NoError(t, err)
	assert.Equal(t, 18000.0, inv.TotalTax)
	require.NotNil(t, inv.LineItems[0].TaxRate)
	assert.Equal(t, 18.0, *inv.LineItems[0].TaxRate)
	assert.Equal(t, "Singapore", inv.Seller.State)
	assert.Equal(t, "Acme Supplies Pvt Ltd", inv.Seller.Name)
}

func TestNormalize_BadDate(t *testing.T) {
	rec := validRecord()
	rec["invoice_date"] = "yesterday"
	_, err := intake.Normalize(rec)
	assert.ErrorIs(t, err, domain.ErrInvalidInvoice)
}

func TestNonFiniteNumbers(t *testing.T) {
	v := intake.NewValidator(clock)

	t.Run("required amount", func(t *testing.T) {
		rec := validRecord()
		rec["subtotal"] = "Inf"
		ok, errs := v.Validate(rec)
		assert.False(t, ok)
		assert.True(t, hasErrorContaining(errs, "subtotal must be numeric"))
	})

	t.Run("optional rate is dropped", func(t *testing.T) {
		rec := validRecord()
		rec["tds_rate"] = "NaN"
		ok, _ := v.Validate(rec)
		assert.True(t, ok)

		inv, err := intake.Normalize(rec)
		require.NoError(t, err)
		assert.Nil(t, inv.TDSRate)
	})
}
