package refdata

import (
	"finguard/internal/domain"
)

// VendorRegistry indexes vendor records by GSTIN and PAN.
// It is immutable after construction and safe for concurrent access.
type VendorRegistry struct {
	byGSTIN  map[string]domain.Vendor
	panCount map[string]int
}

// NewVendorRegistry builds the registry. A nil slice yields an unloaded registry.
func NewVendorRegistry(vendors []domain.Vendor) *VendorRegistry {
	if vendors == nil {
		return &VendorRegistry{}
	}
	r := &VendorRegistry{
		byGSTIN:  make(map[string]domain.Vendor, len(vendors)),
		panCount: make(map[string]int),
	}
	for i := range vendors {
		v := vendors[i]
		if v.GSTIN != "" {
			r.byGSTIN[v.GSTIN] = v
		}
		if v.PAN != "" {
			r.panCount[v.PAN]++
		}
	}
	return r
}

// Loaded reports whether registry data is available at all.
func (r *VendorRegistry) Loaded() bool {
	return r != nil && r.byGSTIN != nil
}

// Len returns the number of vendors indexed by GSTIN.
func (r *VendorRegistry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.byGSTIN)
}

// ByGSTIN returns the vendor for a GSTIN.
func (r *VendorRegistry) ByGSTIN(gstin string) (domain.Vendor, bool) {
	if !r.Loaded() {
		return domain.Vendor{}, false
	}
	v, ok := r.byGSTIN[gstin]
	return v, ok
}

// IsRelatedParty reports whether more than one registered vendor shares the PAN.
func (r *VendorRegistry) IsRelatedParty(pan string) bool {
	if !r.Loaded() || pan == "" {
		return false
	}
	return r.panCount[pan] > 1
}
