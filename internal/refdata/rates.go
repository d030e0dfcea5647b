package refdata

import (
	"sort"
	"time"

	"finguard/internal/domain"
)

// RateSchedule is the date-scoped GST rate schedule. It is immutable after
// construction and safe for concurrent access.
type RateSchedule struct {
	byCode map[string][]domain.RateEntry
}

// NewRateSchedule indexes entries by code, newest effective date first.
func NewRateSchedule(entries []domain.RateEntry) *RateSchedule {
	m := make(map[string][]domain.RateEntry, len(entries))
	for i := range entries {
		e := entries[i]
		m[e.Code] = append(m[e.Code], e)
	}
	for code := range m {
		list := m[code]
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].EffectiveFrom.After(list[j].EffectiveFrom)
		})
	}
	return &RateSchedule{byCode: m}
}

// Len returns the number of distinct codes.
func (s *RateSchedule) Len() int {
	if s == nil {
		return 0
	}
	return len(s.byCode)
}

// Lookup returns the most recent entry whose validity window covers on. If no
// window covers it, the most recent entry that started on or before on is used.
func (s *RateSchedule) Lookup(code string, on time.Time) (domain.RateEntry, bool) {
	if s == nil || code == "" {
		return domain.RateEntry{}, false
	}
	list, ok := s.byCode[code]
	if !ok {
		return domain.RateEntry{}, false
	}
	for i := range list {
		if list[i].Covers(on) {
			return list[i], true
		}
	}
	for i := range list {
		if !list[i].EffectiveFrom.After(on) {
			return list[i], true
		}
	}
	return domain.RateEntry{}, false
}
