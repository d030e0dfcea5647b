package refdata

import (
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"finguard/internal/domain"
)

// Policy is the company policy document.
type Policy struct {
	ApprovalMatrix struct {
		Levels []domain.ApprovalLevel `yaml:"levels"`
	} `yaml:"approval_matrix"`
	InvoiceAcceptance struct {
		MaxInvoiceAgeDays int      `yaml:"max_invoice_age_days"`
		DuplicateFields   []string `yaml:"duplicate_fields"`
		FYCutoff          struct {
			MarchInvoicesUntil string `yaml:"march_invoices_until"`
		} `yaml:"fy_cutoff_rules"`
	} `yaml:"invoice_acceptance_rules"`
	Company struct {
		Name    string `yaml:"name"`
		GSTIN   string `yaml:"gstin"`
		FYStart string `yaml:"fy_start"`
		FYEnd   string `yaml:"fy_end"`
	} `yaml:"company_details"`
}

func amount(v float64) *float64 { return &v }

// DefaultPolicy is a four-level matrix used when no policy file is configured.
func DefaultPolicy() *Policy {
	p := &Policy{}
	p.ApprovalMatrix.Levels = []domain.ApprovalLevel{
		{Level: 1, Name: "Auto-approve", MaxAmount: amount(50000), Approvers: []string{"AP Clerk"}},
		{Level: 2, Name: "Manager", MaxAmount: amount(500000), Approvers: []string{"Finance Manager"}},
		{Level: 3, Name: "Controller", MaxAmount: amount(2500000), Approvers: []string{"Financial Controller"}},
		{Level: 4, Name: "CFO", Approvers: []string{"CFO"}},
	}
	p.InvoiceAcceptance.MaxInvoiceAgeDays = 180
	p.InvoiceAcceptance.DuplicateFields = []string{"seller_gstin", "invoice_number"}
	return p
}

// ParsePolicy decodes a YAML policy document.
func ParsePolicy(r io.Reader) (*Policy, error) {
	p := &Policy{}
	if err := yaml.NewDecoder(r).Decode(p); err != nil {
		return nil, fmt.Errorf("decoding policy yaml: %w", err)
	}
	if len(p.ApprovalMatrix.Levels) == 0 {
		return nil, fmt.Errorf("policy has no approval levels")
	}
	return p, nil
}

// Levels returns the approval matrix in configured order.
func (p *Policy) Levels() []domain.ApprovalLevel {
	return p.ApprovalMatrix.Levels
}

// ApprovalLevel picks the first level whose ceiling covers amount, then
// raises it by one (capped at the number of levels) for a first-time vendor
// or a retrospective invoice.
func (p *Policy) ApprovalLevel(amt float64, flags domain.RiskFlags) domain.ApprovalLevel {
	levels := p.ApprovalMatrix.Levels
	if len(levels) == 0 {
		return domain.ApprovalLevel{}
	}
	base := levels[len(levels)-1]
	for _, l := range levels {
		if l.MaxAmount == nil || amt <= *l.MaxAmount {
			base = l
			break
		}
	}
	if !flags.FirstTimeVendor && !flags.Retrospective {
		return base
	}
	target := base.Level + 1
	if target > len(levels) {
		target = len(levels)
	}
	for _, l := range levels {
		if l.Level == target {
			return l
		}
	}
	return base
}

// FiscalYear returns the configured fiscal year bounds. When none are
// configured, the April-March year containing now is used.
func (p *Policy) FiscalYear(now time.Time) (start, end time.Time) {
	if s, err := time.Parse("2006-01-02", p.Company.FYStart); err == nil {
		if e, err := time.Parse("2006-01-02", p.Company.FYEnd); err == nil {
			return s, e
		}
	}
	year := now.Year()
	if now.Month() < time.April {
		year--
	}
	start = time.Date(year, time.April, 1, 0, 0, 0, 0, time.UTC)
	end = time.Date(year+1, time.March, 31, 0, 0, 0, 0, time.UTC)
	return start, end
}

// MarchCutoff returns the date until which March invoices of the previous
// fiscal year are still accepted.
func (p *Policy) MarchCutoff() (time.Time, bool) {
	t, err := time.Parse("2006-01-02", p.InvoiceAcceptance.FYCutoff.MarchInvoicesUntil)
	return t, err == nil
}

// MaxInvoiceAgeDays returns the configured limit, defaulting to 180.
func (p *Policy) MaxInvoiceAgeDays() int {
	if p.InvoiceAcceptance.MaxInvoiceAgeDays <= 0 {
		return 180
	}
	return p.InvoiceAcceptance.MaxInvoiceAgeDays
}

// Overrides replaces policy document values with deployment settings. Empty
// fields leave the document value in place.
type Overrides struct {
	GSTIN             string
	FYStart           string
	FYEnd             string
	MarchGraceUntil   string
	MaxInvoiceAgeDays int
}

// Apply validates and applies o to the policy.
func (p *Policy) Apply(o Overrides) error {
	for _, d := range []string{o.FYStart, o.FYEnd, o.MarchGraceUntil} {
		if d == "" {
			continue
		}
		if _, err := time.Parse("2006-01-02", d); err != nil {
			return fmt.Errorf("policy override %q: expected YYYY-MM-DD", d)
		}
	}
	if (o.FYStart == "") != (o.FYEnd == "") {
		return fmt.Errorf("policy override: fiscal year start and end must be set together")
	}
	if o.GSTIN != "" {
		p.Company.GSTIN = o.GSTIN
	}
	if o.FYStart != "" {
		p.Company.FYStart = o.FYStart
		p.Company.FYEnd = o.FYEnd
	}
	if o.MarchGraceUntil != "" {
		p.InvoiceAcceptance.FYCutoff.MarchInvoicesUntil = o.MarchGraceUntil
	}
	if o.MaxInvoiceAgeDays > 0 {
		p.InvoiceAcceptance.MaxInvoiceAgeDays = o.MaxInvoiceAgeDays
	}
	return nil
}
