// Package domaintest provides invoice fixtures shared by validator tests.
package domaintest

import (
	"time"

	"finguard/internal/domain"
)

// CompanyGSTIN is the buyer GSTIN used by the fixtures.
const CompanyGSTIN = "27AABCU9603R1ZM"

// SellerGSTIN is a Maharashtra seller GSTIN (same state as the buyer).
const SellerGSTIN = "27AABCA1234B1Z5"

// InterstateSellerGSTIN is a Karnataka seller GSTIN.
const InterstateSellerGSTIN = "29AABCT1332L1ZZ"

// Today is the fixed clock used by date-sensitive validator tests.
var Today = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

// Clock returns Today.
func Clock() time.Time { return Today }

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

// Invoice returns a consistent intrastate tax invoice: subtotal 100000 at 18%
// with CGST 9000 and SGST 9000.
func Invoice() *domain.Invoice {
	return &domain.Invoice{
		InvoiceNumber: "INV-2025-001",
		InvoiceDate:   time.Date(2025, 5, 20, 0, 0, 0, 0, time.UTC),
		DocumentType:  domain.DocumentTaxInvoice,
		Seller: domain.Party{
			Name:    "Acme Supplies Pvt Ltd",
			GSTIN:   SellerGSTIN,
			State:   "Maharashtra",
			PAN:     "AABCA1234B",
			Country: "India",
		},
		Buyer: domain.Party{
			Name:    "Buyer Industries Ltd",
			GSTIN:   CompanyGSTIN,
			State:   "Maharashtra",
			PAN:     "AABCU9603R",
			Country: "India",
		},
		LineItems: []domain.LineItem{
			{Description: "Office chairs", HSNSAC: "9401", Quantity: 10, Unit: "NOS", Rate: 5000, Amount: 50000, TaxRate: Float(18)},
			{Description: "Office desks", HSNSAC: "9403", Quantity: 5, Unit: "NOS", Rate: 10000, Amount: 50000, TaxRate: Float(18)},
		},
		Subtotal:             100000,
		CGSTAmount:           9000,
		SGSTAmount:           9000,
		TotalTax:             18000,
		TotalAmount:          118000,
		PlaceOfSupply:        "27-Maharashtra",
		QRCodePresent:        true,
		POReference:          "PO-7781",
		PaymentTerms:         "Net 30",
		ExtractionConfidence: 1.0,
		FormatType:           "json",
	}
}

// InterstateInvoice returns Invoice moved to a Karnataka seller with IGST 18000.
func InterstateInvoice() *domain.Invoice {
	inv := Invoice()
	inv.Seller.GSTIN = InterstateSellerGSTIN
	inv.Seller.State = "Karnataka"
	inv.Seller.PAN = "AABCT1332L"
	inv.CGSTAmount = 0
	inv.SGSTAmount = 0
	inv.IGSTAmount = 18000
	return inv
}

// Find returns the first check with the given id, or nil.
func Find(checks []domain.CheckResult, id string) *domain.CheckResult {
	for i := range checks {
		if checks[i].CheckID == id {
			return &checks[i]
		}
	}
	return nil
}
