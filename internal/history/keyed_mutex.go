// Package history holds the cross-invoice state of one batch run: the
// duplicate-invoice history and the per-vendor TDS aggregate. Writes that
// touch the same vendor key are serialized; different vendors never contend.
package history

import "sync"

// KeyedMutex hands out one mutex per key.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewKeyedMutex returns an empty KeyedMutex.
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for key and returns its unlock function.
func (k *KeyedMutex) Lock(key string) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &sync.Mutex{}
		k.locks[key] = l
	}
	k.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// RunState is the mutable state shared by every invoice of one batch run.
type RunState struct {
	Duplicates *DuplicateHistory
	Aggregates *AggregateTracker
}

// NewRunState returns empty trackers for a new batch run.
func NewRunState() *RunState {
	return &RunState{
		Duplicates: NewDuplicateHistory(),
		Aggregates: NewAggregateTracker(),
	}
}
