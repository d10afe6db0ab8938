package services

import "sync"

// roundLocks serializes turn handling per round id. Turns for different
// rounds proceed in parallel; two turns for the same round must not both
// read the same price or both pass the payout precondition.
type roundLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newRoundLocks() *roundLocks {
	return &roundLocks{locks: make(map[string]*sync.Mutex)}
}

// lock acquires the mutex for the given round, creating it on first use,
// and returns the release func. Locks are never evicted: rounds number in
// the tens and each entry is one mutex.
func (r *roundLocks) lock(roundID string) func() {
	r.mu.Lock()
	m, ok := r.locks[roundID]
	if !ok {
		m = &sync.Mutex{}
		r.locks[roundID] = m
	}
	r.mu.Unlock()

	m.Lock()
	return m.Unlock
}
