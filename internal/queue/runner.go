package queue

import "wenum/internal/fuzzdata"

// Runner drives one Stage: it owns the stage's input queue, forwards to
// an output queue, optionally routes discarded items to a discard queue,
// and (for the routing stage only) fans items out to named, non-adjacent
// inputs resolved by the Manager at Bind time.
type Runner struct {
	stage   Stage
	in      *PriorityQueue
	out     *PriorityQueue
	discard *PriorityQueue
	fanouts map[string]*PriorityQueue

	// propagatePoison is false for ListRunner sub-workers: the list
	// owner propagates exactly one poison downstream once every
	// sub-worker has finished, rather than each of the P workers
	// racing to push its own.
	propagatePoison bool

	done chan struct{}
}

func newRunner(stage Stage) *Runner {
	return &Runner{
		stage:           stage,
		in:              NewPriorityQueue(),
		propagatePoison: true,
		done:            make(chan struct{}),
	}
}

// In exposes the stage's input queue so upstream stages (or the Manager,
// for fan-out targets) can push into it.
func (r *Runner) In() *PriorityQueue { return r.in }

// Underlying returns the wrapped Stage, used by Manager.Bind to detect
// an AsyncStage and hand it the output queue directly.
func (r *Runner) Underlying() Stage { return r.stage }

func (r *Runner) setOut(out, discard *PriorityQueue, fanouts map[string]*PriorityQueue) {
	r.out = out
	r.discard = discard
	r.fanouts = fanouts
}

// Run pulls from In until poisoned, dispatching through the Stage.
func (r *Runner) Run() {
	defer close(r.done)

	for {
		item, ok := r.in.Pop()
		if !ok {
			return
		}
		if item == nil {
			r.stage.Cleanup()
			if r.propagatePoison && r.out != nil {
				r.out.Push(nil)
			}
			return
		}

		if !r.stage.Handles(item.Type()) {
			r.forward(item)
			continue
		}

		for _, d := range r.stage.Process(item) {
			r.apply(d)
		}
	}
}

func (r *Runner) apply(d Disposition) {
	switch d.Kind {
	case Forward, SendLast:
		r.forward(d.Item)
	case SendFirst:
		if r.out != nil {
			r.out.PushFirst(d.Item)
		}
	case Discard:
		if r.discard != nil {
			r.discard.Push(d.Item)
		}
	case Absorbed:
		// nothing to do: the item was consumed entirely by the stage.
	case Fanout:
		if q, ok := r.fanouts[d.Target]; ok {
			q.Push(d.Item)
		}
	}
}

// forward applies the discard-routing rule from spec §4.1: a discarded
// item goes to the discard channel unless the stage opted in to seeing
// discarded items itself.
func (r *Runner) forward(item fuzzdata.Item) {
	if item.Discarded() && !r.stage.AcceptsDiscarded() {
		if r.discard != nil {
			r.discard.Push(item)
		}
		return
	}
	if r.out != nil {
		r.out.Push(item)
	}
}

// Wait blocks until this runner's Run has returned (its input was
// poisoned and cleanup ran).
func (r *Runner) Wait() { <-r.done }

// ListRunner owns N parallel Runner sub-stages sharing one conceptual
// input, dispatching each incoming item to whichever sub-runner's queue
// is currently shortest (spec §4.1 FuzzListQueue / send_to_any).
type ListRunner struct {
	in      *PriorityQueue
	workers []*Runner
	done    chan struct{}
}

func newListRunner(stages []Stage) *ListRunner {
	lr := &ListRunner{
		in:   NewPriorityQueue(),
		done: make(chan struct{}),
	}
	for _, s := range stages {
		w := newRunner(s)
		w.propagatePoison = false
		lr.workers = append(lr.workers, w)
	}
	return lr
}

func (lr *ListRunner) In() *PriorityQueue { return lr.in }

// Underlying has no single wrapped Stage for a list runner (its N
// sub-stages each have their own); the plugin stage is never async.
func (lr *ListRunner) Underlying() Stage { return nil }

func (lr *ListRunner) setOut(out, discard *PriorityQueue, fanouts map[string]*PriorityQueue) {
	for _, w := range lr.workers {
		w.out = out
		w.discard = discard
		w.fanouts = fanouts
	}
}

func (lr *ListRunner) sendToAny(item fuzzdata.Item) {
	best := lr.workers[0]
	bestLen := best.in.Len()
	for _, w := range lr.workers[1:] {
		if l := w.in.Len(); l < bestLen {
			best, bestLen = w, l
		}
	}
	best.in.Push(item)
}

// Run fans incoming items out to sub-runners until poisoned, then
// poisons every sub-runner and waits for them all to finish.
func (lr *ListRunner) Run() {
	defer close(lr.done)

	for _, w := range lr.workers {
		go w.Run()
	}

	for {
		item, ok := lr.in.Pop()
		if !ok {
			break
		}
		if item == nil {
			break
		}
		lr.sendToAny(item)
	}

	for _, w := range lr.workers {
		w.in.Push(nil)
	}
	for _, w := range lr.workers {
		w.Wait()
	}
	// Propagate a single poison downstream once every sub-runner is done.
	if len(lr.workers) > 0 && lr.workers[0].out != nil {
		lr.workers[0].out.Push(nil)
	}
}

func (lr *ListRunner) Wait() { <-lr.done }
