package queue

import (
	"container/heap"
	"errors"
	"sort"
	"sync"

	"github.com/mindloop-ai/mindloop/core"
)

// ErrClosed is returned by Enqueue after Close.
var ErrClosed = errors.New("queue: closed")

// Queue is a thread-safe priority queue of events. Ordering key is
// (-priority, created_at, arrival sequence). The arrival sequence breaks
// created_at ties so replayed events with identical timestamps still drain
// deterministically.
type Queue struct {
	mu     sync.Mutex
	items  eventHeap
	seq    uint64
	closed bool
}

// New constructs an empty queue.
func New() *Queue {
	return &Queue{}
}

// Enqueue appends an event. It never blocks on processing and returns
// immediately; ErrClosed after Close.
func (q *Queue) Enqueue(ev core.Event) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrClosed
	}
	q.seq++
	heap.Push(&q.items, item{ev: ev, seq: q.seq})
	return nil
}

// Pop removes and returns the highest-ordered event, or false when empty.
func (q *Queue) Pop() (core.Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.items.Len() == 0 {
		return core.Event{}, false
	}
	it := heap.Pop(&q.items).(item)
	return it.ev, true
}

// Drain removes up to max events in priority order. max <= 0 drains
// everything.
func (q *Queue) Drain(max int) []core.Event {
	q.mu.Lock()
	defer q.mu.Unlock()
	if max <= 0 || max > q.items.Len() {
		max = q.items.Len()
	}
	events := make([]core.Event, 0, max)
	for i := 0; i < max; i++ {
		it := heap.Pop(&q.items).(item)
		events = append(events, it.ev)
	}
	return events
}

// Len returns the number of queued events.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Len()
}

// Pending returns a copy of all queued events in drain order without
// consuming them. Used for snapshot persistence so undispatched events
// survive a restart.
func (q *Queue) Pending() []core.Event {
	q.mu.Lock()
	defer q.mu.Unlock()
	cp := make([]item, len(q.items))
	copy(cp, q.items)
	sort.Slice(cp, func(i, j int) bool { return cp[i].less(cp[j]) })
	events := make([]core.Event, len(cp))
	for i, it := range cp {
		events[i] = it.ev
	}
	return events
}

// Close marks the queue closed. Subsequent Enqueue calls fail; queued events
// remain drainable.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
}

type item struct {
	ev  core.Event
	seq uint64
}

func (a item) less(b item) bool {
	if a.ev.Priority != b.ev.Priority {
		return a.ev.Priority > b.ev.Priority
	}
	if !a.ev.CreatedAt.Equal(b.ev.CreatedAt) {
		return a.ev.CreatedAt.Before(b.ev.CreatedAt)
	}
	return a.seq < b.seq
}

type eventHeap []item

func (h eventHeap) Len() int            { return len(h) }
func (h eventHeap) Less(i, j int) bool  { return h[i].less(h[j]) }
func (h eventHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *eventHeap) Push(x interface{}) { *h = append(*h, x.(item)) }
func (h *eventHeap) Pop() interface{} {
	old := *h
	n := len(old)
	it := old[n-1]
	*h = old[:n-1]
	return it
}
