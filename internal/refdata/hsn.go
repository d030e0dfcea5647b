package refdata

import (
	"finguard/internal/domain"
)

// HSNMaster provides in-memory lookups over the HSN/SAC master list.
// It is immutable after construction and safe for concurrent access.
type HSNMaster struct {
	byCode map[string]domain.HSNEntry
}

// NewHSNMaster builds the master from entries; later duplicates win.
func NewHSNMaster(entries []domain.HSNEntry) *HSNMaster {
	m := make(map[string]domain.HSNEntry, len(entries))
	for i := range entries {
		m[entries[i].Code] = entries[i]
	}
	return &HSNMaster{byCode: m}
}

// Len returns the number of codes.
func (h *HSNMaster) Len() int {
	if h == nil {
		return 0
	}
	return len(h.byCode)
}

// Lookup returns the entry for code, falling back from 8 to 6 to 4 digit prefixes.
func (h *HSNMaster) Lookup(code string) (domain.HSNEntry, bool) {
	if h == nil || len(h.byCode) == 0 || code == "" {
		return domain.HSNEntry{}, false
	}
	if e, ok := h.byCode[code]; ok {
		return e, true
	}
	for _, prefixLen := range []int{6, 4} {
		if len(code) > prefixLen {
			if e, ok := h.byCode[code[:prefixLen]]; ok {
				return e, true
			}
		}
	}
	return domain.HSNEntry{}, false
}
