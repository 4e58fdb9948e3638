package queue

import (
	"testing"

	"wenum/internal/fuzzdata"
)

func TestPriorityQueueOrdersByPriorityThenFIFO(t *testing.T) {
	q := NewPriorityQueue()

	low := fuzzdata.NewSeed("http://h/low", 10, 0, 0, 0, false)
	highA := fuzzdata.NewSeed("http://h/highA", 0, 0, 0, 0, false)
	highB := fuzzdata.NewSeed("http://h/highB", 0, 0, 0, 0, false)

	q.Push(low)
	q.Push(highA)
	q.Push(highB)

	first, _ := q.Pop()
	second, _ := q.Pop()
	third, _ := q.Pop()

	if first != fuzzdata.Item(highA) || second != fuzzdata.Item(highB) {
		t.Fatalf("expected priority-0 items highA,highB to drain before priority-10 item")
	}
	if third != fuzzdata.Item(low) {
		t.Fatalf("expected low-priority item last")
	}
}

func TestPriorityQueuePushFirstBypassesOrdering(t *testing.T) {
	q := NewPriorityQueue()

	normal := fuzzdata.NewSeed("http://h/normal", 0, 0, 0, 0, false)
	urgent := fuzzdata.NewSeed("http://h/urgent", 100, 0, 0, 0, false)

	q.Push(normal)
	q.PushFirst(urgent)

	first, _ := q.Pop()
	if first != fuzzdata.Item(urgent) {
		t.Fatalf("expected PushFirst item to pop before a lower-priority-value item already queued")
	}
}

func TestPriorityQueuePoisonReturnsNilTrue(t *testing.T) {
	q := NewPriorityQueue()
	q.Push(nil)

	item, ok := q.Pop()
	if item != nil || !ok {
		t.Fatalf("expected poison to pop as (nil, true), got (%v, %v)", item, ok)
	}
}
