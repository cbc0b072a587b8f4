package capture

import (
	"sync"
	"sync/atomic"

	"github.com/sifis-home/aud-sensor/flowtypes"
)

// Queue is the bounded, single-producer/single-consumer hand-off between
// the packet reader and the Controller's drain loop (SPEC_FULL.md §4.2).
// It never blocks the producer: once full, pushing a packet drops the
// oldest queued one to make room, rather than applying backpressure to
// the capture goroutine.
type Queue struct {
	mu      sync.Mutex
	items   []flowtypes.Packet
	cap     int
	dropped uint64
}

// NewQueue constructs an empty Queue with the given capacity.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = 1
	}
	return &Queue{cap: capacity}
}

// Push enqueues pkt, dropping the oldest queued packet first if the
// queue is already at capacity.
func (q *Queue) Push(pkt flowtypes.Packet) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) >= q.cap {
		q.items = append(q.items[:0], q.items[1:]...)
		atomic.AddUint64(&q.dropped, 1)
	}
	q.items = append(q.items, pkt)
}

// Drain removes and returns up to max queued packets, oldest first. A
// max <= 0 drains everything currently queued.
func (q *Queue) Drain(max int) []flowtypes.Packet {
	q.mu.Lock()
	defer q.mu.Unlock()

	if max <= 0 || max > len(q.items) {
		max = len(q.items)
	}
	out := make([]flowtypes.Packet, max)
	copy(out, q.items[:max])
	q.items = append(q.items[:0], q.items[max:]...)
	return out
}

// Len reports how many packets are currently queued.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Dropped reports the total number of packets ever dropped for being
// pushed onto a full queue.
func (q *Queue) Dropped() uint64 {
	return atomic.LoadUint64(&q.dropped)
}
