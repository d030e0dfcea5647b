package domain

import (
	"time"
)

// Party identifies the seller or the buyer on an invoice.
type Party struct {
	Name    string `json:"name"`
	GSTIN   string `json:"gstin"`
	State   string `json:"state,omitempty"`
	PAN     string `json:"pan,omitempty"`
	Address string `json:"address,omitempty"`
	Country string `json:"country,omitempty"`
}

// StateCode returns the two-digit state prefix of the party GSTIN.
func (p Party) StateCode() string {
	if len(p.GSTIN) < 2 {
		return ""
	}
	return p.GSTIN[:2]
}

// LineItem is one invoice line.
type LineItem struct {
	Description  string   `json:"description"`
	HSNSAC       string   `json:"hsn_sac"`
	Quantity     float64  `json:"quantity"`
	Unit         string   `json:"unit"`
	Rate         float64  `json:"rate"`
	Amount       float64  `json:"amount"`
	Discount     float64  `json:"discount,omitempty"`
	TaxableValue *float64 `json:"taxable_value,omitempty"`
	TaxRate      *float64 `json:"tax_rate,omitempty"`
	CGST         float64  `json:"cgst,omitempty"`
	SGST         float64  `json:"sgst,omitempty"`
	IGST         float64  `json:"igst,omitempty"`
}

// TaxableAmount is the base on which GST is levied for the line.
func (li *LineItem) TaxableAmount() float64 {
	if li.TaxableValue != nil {
		return *li.TaxableValue
	}
	return li.Amount
}

// Invoice is the canonical typed invoice. It is built once by the intake
// normalizer and is read-only for every validator.
type Invoice struct {
	InvoiceNumber string       `json:"invoice_number"`
	InvoiceDate   time.Time    `json:"invoice_date"`
	DocumentType  DocumentType `json:"document_type"`

	Seller Party `json:"seller"`
	Buyer  Party `json:"buyer"`

	LineItems []LineItem `json:"line_items"`

	Subtotal     float64  `json:"subtotal"`
	Discount     float64  `json:"discount,omitempty"`
	TaxableValue *float64 `json:"taxable_value,omitempty"`
	CGSTAmount   float64  `json:"cgst_amount"`
	SGSTAmount   float64  `json:"sgst_amount"`
	IGSTAmount   float64  `json:"igst_amount"`
	Cess         float64  `json:"cess"`
	TotalTax     float64  `json:"total_tax"`
	TotalAmount  float64  `json:"total_amount"`

	PlaceOfSupply string     `json:"place_of_supply,omitempty"`
	IRN           string     `json:"irn,omitempty"`
	IRNDate       *time.Time `json:"irn_date,omitempty"`
	QRCodePresent bool       `json:"qr_code_present"`
	ReverseCharge bool       `json:"reverse_charge"`

	TDSApplicable bool     `json:"tds_applicable"`
	TDSSection    string   `json:"tds_section,omitempty"`
	TDSRate       *float64 `json:"tds_rate,omitempty"`
	TDSAmount     *float64 `json:"tds_amount,omitempty"`

	POReference          string  `json:"po_reference,omitempty"`
	PaymentTerms         string  `json:"payment_terms,omitempty"`
	Notes                string  `json:"notes,omitempty"`
	ExtractionConfidence float64 `json:"extraction_confidence"`
	FormatType           string  `json:"format_type"`
}

// IsInterstate reports whether seller and buyer GSTINs carry different state codes.
func (inv *Invoice) IsInterstate() bool {
	return inv.Seller.StateCode() != inv.Buyer.StateCode()
}

// TaxComponentsTotal is CGST + SGST + IGST + cess.
func (inv *Invoice) TaxComponentsTotal() float64 {
	return inv.CGSTAmount + inv.SGSTAmount + inv.IGSTAmount + inv.Cess
}

// LineItemsTotal sums the declared line amounts.
func (inv *Invoice) LineItemsTotal() float64 {
	var sum float64
	for i := range inv.LineItems {
		sum += inv.LineItems[i].Amount
	}
	return sum
}

// DuplicateKey identifies an invoice for duplicate tracking.
func (inv *Invoice) DuplicateKey() string {
	return inv.Seller.GSTIN + ":" + inv.InvoiceNumber
}

// RateEntry is one row of the date-scoped GST rate schedule.
type RateEntry struct {
	Code          string     `db:"hsn_sac_code" json:"hsn_sac_code"`
	Description   string     `db:"description" json:"description"`
	CGST          float64    `db:"rate_cgst" json:"rate_cgst"`
	SGST          float64    `db:"rate_sgst" json:"rate_sgst"`
	IGST          float64    `db:"rate_igst" json:"rate_igst"`
	EffectiveFrom time.Time  `db:"effective_from" json:"effective_from"`
	EffectiveTo   *time.Time `db:"effective_to" json:"effective_to,omitempty"`
}

// TotalRate is the combined GST rate of the entry.
func (e RateEntry) TotalRate() float64 {
	if e.IGST > 0 {
		return e.IGST
	}
	return e.CGST + e.SGST
}

// Covers reports whether the entry's validity window contains t.
func (e RateEntry) Covers(t time.Time) bool {
	if t.Before(e.EffectiveFrom) {
		return false
	}
	return e.EffectiveTo == nil || !t.After(*e.EffectiveTo)
}

// HSNEntry is one record of the static HSN/SAC master.
type HSNEntry struct {
	Code        string  `db:"code" json:"code"`
	Description string  `db:"description" json:"description"`
	GSTRate     float64 `db:"gst_rate" json:"gst_rate"`
	IsService   bool    `db:"is_service" json:"is_service"`
}

// TDSSection describes one Income Tax Act withholding section.
type TDSSection struct {
	Section            string  `json:"section"`
	Description        string  `json:"description"`
	Rate               float64 `json:"rate"`
	RateCompany        float64 `json:"rate_company,omitempty"`
	RateIndividual     float64 `json:"rate_individual,omitempty"`
	RateTechnical      float64 `json:"rate_technical,omitempty"`
	RateNoPAN          float64 `json:"rate_no_pan,omitempty"`
	Threshold          float64 `json:"threshold,omitempty"`
	AggregateThreshold float64 `json:"aggregate_threshold,omitempty"`
}

// Vendor is one vendor registry record.
type Vendor struct {
	VendorID          string         `db:"vendor_id" json:"vendor_id"`
	GSTIN             string         `db:"gstin" json:"gstin"`
	LegalName         string         `db:"legal_name" json:"legal_name"`
	PAN               string         `db:"pan" json:"pan"`
	State             string         `db:"state" json:"state"`
	Status            VendorStatus   `db:"status" json:"status"`
	CompositionScheme bool           `db:"composition_scheme" json:"composition_scheme"`
	MSMERegistered    bool           `db:"msme_registered" json:"msme_registered"`
	ResidentStatus    ResidentStatus `db:"resident_status" json:"resident_status"`
	VendorType        string         `db:"vendor_type" json:"vendor_type"`
	SuspensionDate    string         `db:"suspension_date" json:"suspension_date,omitempty"`
	SuspensionReason  string         `db:"suspension_reason" json:"suspension_reason,omitempty"`
}

// IsActive reports whether the vendor registration is active.
func (v Vendor) IsActive() bool {
	return v.Status == VendorActive
}

// ApprovalLevel is one row of the approval matrix. A nil MaxAmount is unbounded.
type ApprovalLevel struct {
	Level     int      `yaml:"level" json:"level"`
	Name      string   `yaml:"name" json:"name"`
	MaxAmount *float64 `yaml:"max_amount" json:"max_amount"`
	Approvers []string `yaml:"approvers" json:"approvers"`
}

// RiskFlags raise the approval level above the amount-based baseline.
type RiskFlags struct {
	FirstTimeVendor bool
	Retrospective   bool
	RelatedParty    bool
}

// Any reports whether at least one flag is set.
func (f RiskFlags) Any() bool {
	return f.FirstTimeVendor || f.Retrospective || f.RelatedParty
}

// Reasons lists the human-readable names of the set flags.
func (f RiskFlags) Reasons() []string {
	var out []string
	if f.FirstTimeVendor {
		out = append(out, "First-time vendor")
	}
	if f.Retrospective {
		out = append(out, "Retrospective invoice")
	}
	if f.RelatedParty {
		out = append(out, "Related party transaction")
	}
	return out
}

// HistoricalDecision is a past reviewer decision. Loaded for reporting only.
type HistoricalDecision struct {
	InvoiceID string `json:"invoice_id"`
	Decision  string `json:"decision"`
	Reviewer  string `json:"reviewer,omitempty"`
	Notes     string `json:"notes,omitempty"`
}
