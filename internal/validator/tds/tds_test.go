package tds_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finguard/internal/domain"
	"finguard/internal/domain/domaintest"
	"finguard/internal/history"
	"finguard/internal/refdata"
	"finguard/internal/validator/tds"
)

func contractInvoice() *domain.Invoice {
	inv := domaintest.Invoice()
	inv.LineItems = []domain.LineItem{{
		Description: "Civil contract works", HSNSAC: "9954",
		Quantity: 1, Rate: 35000, Amount: 35000, TaxRate: domaintest.Float(18),
	}}
	inv.Subtotal = 35000
	inv.CGSTAmount, inv.SGSTAmount = 3150, 3150
	inv.TotalTax = 6300
	inv.TotalAmount = 41300
	inv.TDSApplicable = true
	inv.TDSSection = "194C"
	inv.TDSRate = domaintest.Float(2)
	inv.TDSAmount = domaintest.Float(700)
	return inv
}

func newValidator(vendors []domain.Vendor) *tds.Validator {
	return tds.New(refdata.NewTDSSections(refdata.DefaultTDSSections), refdata.NewVendorRegistry(vendors), history.NewAggregateTracker())
}

func TestValidate_ContractInvoice(t *testing.T) {
	v := newValidator(nil)
	checks := v.Validate(context.Background(), contractInvoice())
	require.Len(t, checks, 12)

	for _, id := range []string{"D1", "D2", "D3", "D4", "D5", "D6", "D7", "D8", "D9", "D10"} {
		c := domaintest.Find(checks, id)
		require.NotNil(t, c, id)
		assert.Equal(t, domain.CheckPass, c.Status, "%s: %s", id, c.Reasoning)
	}
	assert.Equal(t, "Correct section 194C: Payment to contractors", domaintest.Find(checks, "D2").Reasoning)
	assert.Equal(t, "Correct TDS rate: 2% (With PAN)", domaintest.Find(checks, "D3").Reasoning)

	d11 := domaintest.Find(checks, "D11")
	assert.Equal(t, domain.CheckWarning, d11.Status)
	assert.True(t, d11.RequiresReview)

	d12 := domaintest.Find(checks, "D12")
	assert.Equal(t, domain.CheckWarning, d12.Status)
	assert.Equal(t, "Invoice from Q1 FY2025. Ensure TDS filed in Form 26Q by 2025-07-31.", d12.Reasoning)
}

func TestValidate_PANRate(t *testing.T) {
	t.Run("individual PAN gets the lower contractor rate", func(t *testing.T) {
		inv := contractInvoice()
		inv.Seller.PAN = "ABCPK1234L"
		inv.TDSRate = domaintest.Float(1)
		inv.TDSAmount = domaintest.Float(350)

		checks := newValidator(nil).Validate(context.Background(), inv)
		assert.Equal(t, domain.CheckPass, domaintest.Find(checks, "D3").Status)
		assert.Equal(t, domain.CheckWarning, domaintest.Find(checks, "D4").Status, "1% is below the 2% company rate")
	})

	t.Run("company rate on an individual PAN fails", func(t *testing.T) {
		inv := contractInvoice()
		inv.Seller.PAN = "ABCPK1234L"

		d3 := domaintest.Find(newValidator(nil).Validate(context.Background(), inv), "D3")
		assert.Equal(t, domain.CheckFail, d3.Status)
		assert.Equal(t, domain.SeverityHigh, d3.Severity)
		assert.True(t, d3.RequiresReview)
		assert.Equal(t, "TDS rate mismatch: Invoice 2% vs Expected 1% (With PAN)", d3.Reasoning)
	})

	t.Run("registry PAN wins over the invoice", func(t *testing.T) {
		inv := contractInvoice()
		v := newValidator([]domain.Vendor{{GSTIN: inv.Seller.GSTIN, PAN: "ABCPK1234L"}})
		assert.Equal(t, "ABCPK1234L", v.DeducteePAN(inv))
	})

	t.Run("GSTIN PAN is the last resort", func(t *testing.T) {
		inv := contractInvoice()
		inv.Seller.PAN = ""
		assert.Equal(t, "AABCA1234B", newValidator(nil).DeducteePAN(inv))
	})

	t.Run("no PAN means 20 percent", func(t *testing.T) {
		inv := contractInvoice()
		inv.Seller.PAN = ""
		inv.Seller.GSTIN = "2700000000001Z5"
		inv.TDSRate = domaintest.Float(20)
		inv.TDSAmount = domaintest.Float(7000)

		checks := newValidator(nil).Validate(context.Background(), inv)
		d3 := domaintest.Find(checks, "D3")
		assert.Equal(t, domain.CheckPass, d3.Status)
		assert.Contains(t, d3.Reasoning, "Without PAN")
		assert.Equal(t, domain.CheckWarning, domaintest.Find(checks, "D10").Status)
	})
}

func TestValidate_PANSourceAgreement(t *testing.T) {
	t.Run("registry entry without PAN falls back to the invoice", func(t *testing.T) {
		inv := contractInvoice()
		v := newValidator([]domain.Vendor{{GSTIN: inv.Seller.GSTIN}})
		checks := v.Validate(context.Background(), inv)

		assert.NotContains(t, domaintest.Find(checks, "D1").Reasoning, "No PAN")
		assert.Contains(t, domaintest.Find(checks, "D3").Reasoning, "With PAN")
	})

	t.Run("registered vendor with no PAN anywhere", func(t *testing.T) {
		inv := contractInvoice()
		inv.Seller.PAN = ""
		inv.Seller.GSTIN = "2700000000001Z5"
		v := newValidator([]domain.Vendor{{GSTIN: inv.Seller.GSTIN}})
		checks := v.Validate(context.Background(), inv)

		assert.Contains(t, domaintest.Find(checks, "D1").Reasoning, "No PAN - higher TDS rate applies")
		assert.Contains(t, domaintest.Find(checks, "D3").Reasoning, "Without PAN")
	})
}

func TestValidate_Applicability(t *testing.T) {
	t.Run("large goods invoice not marked", func(t *testing.T) {
		d1 := domaintest.Find(newValidator(nil).Validate(context.Background(), domaintest.Invoice()), "D1")
		assert.Equal(t, domain.CheckFail, d1.Status)
		assert.Equal(t, domain.SeverityCritical, d1.Severity)
		assert.Contains(t, d1.Reasoning, "exceeds basic threshold")
	})

	t.Run("small goods invoice marked", func(t *testing.T) {
		inv := domaintest.Invoice()
		inv.LineItems = inv.LineItems[:1]
		inv.LineItems[0].Quantity, inv.LineItems[0].Amount = 1, 5000
		inv.TotalAmount = 5900
		inv.TDSApplicable = true

		checks := newValidator(nil).Validate(context.Background(), inv)
		assert.Equal(t, domain.CheckWarning, domaintest.Find(checks, "D1").Status)
		assert.Equal(t, domain.CheckFail, domaintest.Find(checks, "D2").Status, "section missing")
		assert.Equal(t, domain.CheckWarning, domaintest.Find(checks, "D5").Status)
	})

	t.Run("contractor vendor type", func(t *testing.T) {
		inv := domaintest.Invoice()
		inv.TotalAmount = 1000
		v := newValidator([]domain.Vendor{{GSTIN: inv.Seller.GSTIN, PAN: "AABCA1234B", VendorType: "CONTRACTOR"}})
		d1 := domaintest.Find(v.Validate(context.Background(), inv), "D1")
		assert.Equal(t, domain.CheckFail, d1.Status)
		assert.Contains(t, d1.Reasoning, "Vendor type: CONTRACTOR")
	})

	t.Run("nothing applies", func(t *testing.T) {
		inv := domaintest.Invoice()
		inv.TotalAmount = 1000
		checks := newValidator(nil).Validate(context.Background(), inv)
		assert.Equal(t, domain.CheckPass, domaintest.Find(checks, "D1").Status)
		assert.Equal(t, domain.SeverityLow, domaintest.Find(checks, "D2").Severity)
	})
}

func TestValidate_SectionMismatch(t *testing.T) {
	inv := contractInvoice()
	inv.TDSSection = "194H"
	inv.TDSRate = domaintest.Float(5)

	d2 := domaintest.Find(newValidator(nil).Validate(context.Background(), inv), "D2")
	assert.Equal(t, domain.CheckWarning, d2.Status)
	assert.Equal(t, "Section mismatch: Invoice shows 194H, expected 194C", d2.Reasoning)

	inv.LineItems = append(inv.LineItems, domain.LineItem{Description: "Agent commission", Amount: 1000})
	d2 = domaintest.Find(newValidator(nil).Validate(context.Background(), inv), "D2")
	assert.Equal(t, domain.CheckPass, d2.Status)
	assert.InDelta(t, 0.85, d2.Confidence, 1e-9)
}

func TestValidate_AggregateAcrossInvoices(t *testing.T) {
	v := newValidator(nil)
	ctx := context.Background()

	assert.Equal(t, domain.CheckPass, domaintest.Find(v.Validate(ctx, contractInvoice()), "D6").Status)
	assert.Equal(t, domain.CheckPass, domaintest.Find(v.Validate(ctx, contractInvoice()), "D6").Status)

	d6 := domaintest.Find(v.Validate(ctx, contractInvoice()), "D6")
	assert.Equal(t, domain.CheckWarning, d6.Status)
	assert.Equal(t, domain.SeverityHigh, d6.Severity)
	assert.InDelta(t, 123900.0, d6.Details["aggregate_total"], 0.001)
}

func TestValidate_GSTComponent(t *testing.T) {
	t.Run("inclusive base accepted for contractors", func(t *testing.T) {
		inv := contractInvoice()
		inv.TDSAmount = domaintest.Float(826)
		d7 := domaintest.Find(newValidator(nil).Validate(context.Background(), inv), "D7")
		assert.Equal(t, domain.CheckPass, d7.Status)
		assert.InDelta(t, 0.85, d7.Confidence, 1e-9)
	})

	t.Run("unclear base", func(t *testing.T) {
		inv := contractInvoice()
		inv.TDSAmount = domaintest.Float(500)
		d7 := domaintest.Find(newValidator(nil).Validate(context.Background(), inv), "D7")
		assert.Equal(t, domain.CheckWarning, d7.Status)
		assert.Equal(t, "TDS calculation unclear: ₹500.00 (Expected: ₹700.00 excl. or ₹826.00 incl. GST)", d7.Reasoning)
	})
}

func TestValidate_NonResident(t *testing.T) {
	inv := domaintest.Invoice()
	vendor := domain.Vendor{GSTIN: inv.Seller.GSTIN, PAN: "AABCA1234B", ResidentStatus: domain.NonResident}

	d8 := domaintest.Find(newValidator([]domain.Vendor{vendor}).Validate(context.Background(), inv), "D8")
	assert.Equal(t, domain.CheckFail, d8.Status)
	assert.Equal(t, domain.SeverityCritical, d8.Severity)

	inv.TDSApplicable = true
	inv.TDSSection = "195"
	d8 = domaintest.Find(newValidator([]domain.Vendor{vendor}).Validate(context.Background(), inv), "D8")
	assert.Equal(t, domain.CheckPass, d8.Status)
}

func TestDetermineSection(t *testing.T) {
	tests := []struct {
		name      string
		lines     []string
		total     float64
		expected  string
		candidate []string
	}{
		{"contract first", []string{"Labour and fabrication"}, 50000, "194C", []string{"194C"}},
		{"professional", []string{"Legal consulting retainer"}, 50000, "194J", []string{"194J"}},
		{"commission", []string{"Brokerage on sale"}, 50000, "194H", []string{"194H"}},
		{"rent", []string{"Warehouse lease"}, 50000, "194I", []string{"194I"}},
		{"large goods purchase", []string{"Steel coils"}, 6000000, "194Q", []string{"194Q"}},
		{"default", []string{"Steel coils"}, 50000, "194C", []string{"194C"}},
		{"mixed lines", []string{"Audit fee", "Referral fee"}, 50000, "194J", []string{"194J", "194H"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := &domain.Invoice{TotalAmount: tt.total}
			for _, d := range tt.lines {
				inv.LineItems = append(inv.LineItems, domain.LineItem{Description: d})
			}
			expected, candidates := tds.DetermineSection(inv)
			assert.Equal(t, tt.expected, expected)
			assert.Equal(t, tt.candidate, candidates)
		})
	}
}

func TestExpectedRate(t *testing.T) {
	table := refdata.NewTDSSections(refdata.DefaultTDSSections)
	assert.Equal(t, 2.0, tds.ExpectedRate(table, "194C", "AABCA1234B"))
	assert.Equal(t, 1.0, tds.ExpectedRate(table, "194C", "ABCHK1234L"))
	assert.Equal(t, 10.0, tds.ExpectedRate(table, "194J", "ABCPK1234L"))
	assert.Equal(t, 20.0, tds.ExpectedRate(table, "194J", ""))
	assert.Equal(t, 2.0, tds.ExpectedRate(table, "194ZZ", "AABCA1234B"), "unknown sections use contractor rules")
}

func TestFilingQuarter(t *testing.T) {
	tests := []struct {
		month   time.Month
		year    int
		quarter string
		due     string
	}{
		{time.February, 2025, "Q4", "2025-05-31"},
		{time.May, 2025, "Q1", "2025-07-31"},
		{time.August, 2025, "Q2", "2025-10-31"},
		{time.November, 2024, "Q3", "2025-01-31"},
	}
	for _, tt := range tests {
		q, due := tds.FilingQuarter(time.Date(tt.year, tt.month, 10, 0, 0, 0, 0, time.UTC))
		assert.Equal(t, tt.quarter, q)
		assert.Equal(t, tt.due, due.Format(time.DateOnly))
	}
}
