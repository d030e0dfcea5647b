package history

import (
	"sync"

	"finguard/internal/money"
)

// AggregateTracker accumulates payments per vendor for aggregate TDS thresholds.
type AggregateTracker struct {
	keys *KeyedMutex

	mu     sync.RWMutex
	totals map[string]float64
}

// NewAggregateTracker returns an empty tracker.
func NewAggregateTracker() *AggregateTracker {
	return &AggregateTracker{
		keys:   NewKeyedMutex(),
		totals: make(map[string]float64),
	}
}

// Add records amount for vendor and returns the new running total.
func (a *AggregateTracker) Add(vendor string, amount float64) float64 {
	unlock := a.keys.Lock(vendor)
	defer unlock()

	a.mu.Lock()
	defer a.mu.Unlock()
	total := money.Sum(a.totals[vendor], amount)
	a.totals[vendor] = total
	return total
}

// Total returns the running total for vendor.
func (a *AggregateTracker) Total(vendor string) float64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.totals[vendor]
}
