package anomaly

import (
	"sync"

	"github.com/google/uuid"
)

// ring is a fixed-capacity, insertion-ordered buffer of anomalies. Once
// full, adding one more evicts the oldest. Capacity is small (the default
// is 100) so a slice shifted on every eviction costs nothing measurable;
// container/ring's circular-list would save the shift but can't express
// MarkBenign's "remove this one entry by UUID, wherever it sits" without
// the same O(n) walk, so there is nothing to be gained by it here.
type ring struct {
	mu       sync.Mutex
	cap      int
	entries  []Anomaly
}

func newRing(capacity int) *ring {
	if capacity <= 0 {
		capacity = 1
	}
	return &ring{cap: capacity}
}

// Push appends a, evicting the oldest entry first if the ring is full.
func (r *ring) Push(a Anomaly) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.entries) >= r.cap {
		r.entries = append(r.entries[:0], r.entries[1:]...)
	}
	r.entries = append(r.entries, a)
}

// Snapshot returns a copy of every anomaly currently held, oldest first.
func (r *ring) Snapshot() []Anomaly {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Anomaly, len(r.entries))
	copy(out, r.entries)
	return out
}

// Remove deletes the entry with the given UUID, if present, and reports
// whether it found one.
func (r *ring) Remove(id uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, a := range r.entries {
		if a.UUID == id {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Clear empties the ring entirely.
func (r *ring) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = nil
}

// Len reports how many anomalies the ring currently holds.
func (r *ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
