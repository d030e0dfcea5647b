package port

import (
	"time"

	"finguard/internal/domain"
)

// RateLookup resolves the GST rate schedule entry for a code on a date.
type RateLookup interface {
	Lookup(code string, on time.Time) (domain.RateEntry, bool)
}

// HSNLookup resolves the static HSN/SAC master.
type HSNLookup interface {
	Lookup(code string) (domain.HSNEntry, bool)
}

// TDSTable resolves TDS section parameters.
type TDSTable interface {
	Section(code string) (domain.TDSSection, bool)
	Threshold(key string) float64
}

// VendorLookup resolves vendor registry records.
type VendorLookup interface {
	Loaded() bool
	ByGSTIN(gstin string) (domain.Vendor, bool)
	IsRelatedParty(pan string) bool
}

// CompanyPolicy exposes the approval matrix and invoice acceptance rules.
type CompanyPolicy interface {
	Levels() []domain.ApprovalLevel
	ApprovalLevel(amount float64, flags domain.RiskFlags) domain.ApprovalLevel
	FiscalYear(now time.Time) (start, end time.Time)
	MarchCutoff() (time.Time, bool)
	MaxInvoiceAgeDays() int
}
