package history

import (
	"math"
	"sync"
	"time"
)

const (
	nearDuplicateAmountTolerance = 1.0
	nearDuplicateWindow          = 7 * 24 * time.Hour
)

// Record is one invoice seen during the run.
type Record struct {
	Owner         string
	SellerGSTIN   string
	InvoiceNumber string
	Amount        float64
	InvoiceDate   time.Time
	RecordedAt    time.Time
}

// Observation is the outcome of checking an invoice against the history.
type Observation struct {
	Exact    *Record
	Near     *Record
	Recorded bool
}

// DuplicateHistory is an append-only record of invoices keyed by
// seller GSTIN and invoice number.
type DuplicateHistory struct {
	keys *KeyedMutex

	mu        sync.RWMutex
	byKey     map[string]Record
	byVendor  map[string][]Record
	sequences map[string]int
}

// NewDuplicateHistory returns an empty history.
func NewDuplicateHistory() *DuplicateHistory {
	return &DuplicateHistory{
		keys:      NewKeyedMutex(),
		byKey:     make(map[string]Record),
		byVendor:  make(map[string][]Record),
		sequences: make(map[string]int),
	}
}

// Key builds the duplicate key.
func Key(sellerGSTIN, invoiceNumber string) string {
	return sellerGSTIN + ":" + invoiceNumber
}

// Observe checks rec for an exact or near duplicate and records it unless an
// exact duplicate exists. The check and the write are atomic per vendor.
// A near duplicate is an invoice from the same vendor whose amount is within
// one rupee and whose date is within seven days.
func (h *DuplicateHistory) Observe(rec Record) Observation {
	unlock := h.keys.Lock(rec.SellerGSTIN)
	defer unlock()

	key := Key(rec.SellerGSTIN, rec.InvoiceNumber)

	h.mu.RLock()
	prev, exact := h.byKey[key]
	var near *Record
	if !exact {
		for _, r := range h.byVendor[rec.SellerGSTIN] {
			if math.Abs(r.Amount-rec.Amount) < nearDuplicateAmountTolerance &&
				absDuration(r.InvoiceDate.Sub(rec.InvoiceDate)) <= nearDuplicateWindow {
				r := r
				near = &r
				break
			}
		}
	}
	h.mu.RUnlock()

	if exact {
		return Observation{Exact: &prev}
	}

	if rec.RecordedAt.IsZero() {
		rec.RecordedAt = time.Now().UTC()
	}
	h.mu.Lock()
	h.byKey[key] = rec
	h.byVendor[rec.SellerGSTIN] = append(h.byVendor[rec.SellerGSTIN], rec)
	h.mu.Unlock()

	return Observation{Near: near, Recorded: true}
}

// SeenBefore reports a record for key that was written by a different owner.
// It never writes.
func (h *DuplicateHistory) SeenBefore(sellerGSTIN, invoiceNumber, owner string) (Record, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	r, ok := h.byKey[Key(sellerGSTIN, invoiceNumber)]
	if !ok || r.Owner == owner {
		return Record{}, false
	}
	return r, true
}

// ObserveSequence returns the highest invoice sequence number previously seen
// for the vendor and raises it to n if n is higher.
func (h *DuplicateHistory) ObserveSequence(sellerGSTIN string, n int) (prev int, seen bool) {
	unlock := h.keys.Lock("seq:" + sellerGSTIN)
	defer unlock()

	h.mu.Lock()
	defer h.mu.Unlock()
	prev, seen = h.sequences[sellerGSTIN]
	if !seen || n > prev {
		h.sequences[sellerGSTIN] = n
	}
	return prev, seen
}

// Len returns the number of recorded invoices.
func (h *DuplicateHistory) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.byKey)
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
