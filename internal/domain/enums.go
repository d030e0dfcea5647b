package domain

// CheckStatus is the outcome of a single discrete rule.
type CheckStatus string

const (
	CheckPass    CheckStatus = "PASS"
	CheckFail    CheckStatus = "FAIL"
	CheckWarning CheckStatus = "WARNING"
	CheckSkipped CheckStatus = "SKIPPED"
)

// Severity ranks how serious a failing check is.
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// OverallStatus is the aggregate decision for one invoice.
type OverallStatus string

const (
	OverallPass             OverallStatus = "PASS"
	OverallPassWithWarnings OverallStatus = "PASS_WITH_WARNINGS"
	OverallFail             OverallStatus = "FAIL"
	OverallRejected         OverallStatus = "REJECTED"
)

// DocumentType is the GST document kind.
type DocumentType string

const (
	DocumentTaxInvoice   DocumentType = "TAX_INVOICE"
	DocumentBillOfSupply DocumentType = "BILL_OF_SUPPLY"
	DocumentCreditNote   DocumentType = "CREDIT_NOTE"
	DocumentDebitNote    DocumentType = "DEBIT_NOTE"
)

// ValidDocumentTypes lists accepted document types.
var ValidDocumentTypes = map[DocumentType]bool{
	DocumentTaxInvoice:   true,
	DocumentBillOfSupply: true,
	DocumentCreditNote:   true,
	DocumentDebitNote:    true,
}

// VendorStatus is the registration state recorded in the vendor registry.
type VendorStatus string

const (
	VendorActive    VendorStatus = "ACTIVE"
	VendorSuspended VendorStatus = "SUSPENDED"
	VendorCancelled VendorStatus = "CANCELLED"
)

// ResidentStatus marks whether a vendor is an Indian tax resident.
type ResidentStatus string

const (
	Resident    ResidentStatus = "RESIDENT"
	NonResident ResidentStatus = "NON_RESIDENT"
)

// Category ids. Keys in ValidationResult.CategoryResults are unique.
const (
	CategoryDocument   = "A"
	CategoryGST        = "B"
	CategoryArithmetic = "C"
	CategoryTDS        = "D"
	CategoryPolicy     = "E"
	CategoryVendor     = "F"
)

// CategoryNames maps a category id to its display name.
var CategoryNames = map[string]string{
	CategoryDocument:   "Document Authenticity",
	CategoryGST:        "GST Compliance",
	CategoryArithmetic: "Arithmetic & Calculation",
	CategoryTDS:        "TDS Compliance",
	CategoryPolicy:     "Policy & Business Rules",
	CategoryVendor:     "Vendor Validation",
}

// CategoryOrder is the display order used by reports.
var CategoryOrder = []string{
	CategoryDocument,
	CategoryGST,
	CategoryArithmetic,
	CategoryTDS,
	CategoryPolicy,
	CategoryVendor,
}
