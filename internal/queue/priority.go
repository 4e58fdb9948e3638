// Package queue implements the pipeline's priority-ordered message
// passing: a min-priority heap keyed on (priority, insertion_sequence),
// the Stage/Runner abstraction that drives one worker per stage, and the
// QueueManager that wires stages into a pipeline and runs its
// start/cancel lifecycle.
package queue

import (
	"container/heap"
	"math"
	"sync"

	"wenum/internal/fuzzdata"
)

// entry is one slot in the priority heap. A nil Item is the poison value
// that terminates a stage; poison always carries math.MaxInt64 so it
// drains after every real item already queued at the time it was pushed.
type entry struct {
	item     fuzzdata.Item
	priority int64
	seq      uint64
	poison   bool
}

type heapSlice []entry

func (h heapSlice) Len() int { return len(h) }

func (h heapSlice) Less(i, j int) bool {
	if h[i].priority != h[j].priority {
		return h[i].priority < h[j].priority
	}
	return h[i].seq < h[j].seq
}

func (h heapSlice) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *heapSlice) Push(x any) { *h = append(*h, x.(entry)) }

func (h *heapSlice) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// PriorityQueue is a blocking min-priority queue keyed on
// (priority, insertion sequence). Pop blocks until an item is available
// or Close is called.
type PriorityQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	h      heapSlice
	seq    uint64
	closed bool
}

func NewPriorityQueue() *PriorityQueue {
	pq := &PriorityQueue{}
	pq.cond = sync.NewCond(&pq.mu)
	return pq
}

func (q *PriorityQueue) pushLocked(e entry) {
	q.seq++
	e.seq = q.seq
	heap.Push(&q.h, e)
	q.cond.Signal()
}

// Push inserts item at its own priority (nil means poison).
func (q *PriorityQueue) Push(item fuzzdata.Item) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if item == nil {
		q.pushLocked(entry{poison: true, priority: math.MaxInt64})
		return
	}
	q.pushLocked(entry{item: item, priority: int64(item.Priority())})
}

// PushFirst bypasses normal ordering: the item is popped before anything
// else currently queued, regardless of its own Priority() value.
func (q *PriorityQueue) PushFirst(item fuzzdata.Item) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pushLocked(entry{item: item, priority: math.MinInt64})
}

// Pop blocks until an item is available, returning (item, true); a
// poisoned entry is returned as (nil, true) exactly once. Once Close has
// been called and the queue has drained, Pop returns (nil, false).
func (q *PriorityQueue) Pop() (fuzzdata.Item, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.h) == 0 && !q.closed {
		q.cond.Wait()
	}
	if len(q.h) == 0 {
		return nil, false
	}
	e := heap.Pop(&q.h).(entry)
	if e.poison {
		return nil, true
	}
	return e.item, true
}

// Len reports the number of items currently queued; used by the seed and
// routing stages' RAM-bounded backpressure check (spec §4.3).
func (q *PriorityQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.h)
}

// Close wakes any blocked Pop once the queue will receive no more items.
func (q *PriorityQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.cond.Broadcast()
}
