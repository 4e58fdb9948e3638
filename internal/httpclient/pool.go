package httpclient

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"wenum/internal/fuzzdata"
)

// PoolID identifies one job registered against a Pool. The transport
// stage registers once at startup and deregisters on shutdown, mirroring
// the teacher's register()/deregister() pair.
type PoolID int64

// PoolJob bundles the fuzzdata.Item being sent with the request that was
// built for it, so the result can be reattached to the originating item's
// bookkeeping (RLevel, PluginRLevel, BackfeedLevel, PayloadMan, ...).
type PoolJob struct {
	Priority      int64
	URL           string
	Method        string
	Headers       []fuzzdata.Header
	Body          []byte
	RLevel        int
	PluginRLevel  int
	BackfeedLevel int
	FromPlugin    bool
	PayloadMan    *fuzzdata.PayloadManager
	ResultNumber  int64
	attempt       int
}

// PoolResult is what IterResults yields: a completed ResultItem and a
// Requeue flag, matching the original's
// `next(iter_results) -> (fuzz_result, requeue)` shape. This Pool never
// sets Requeue: it re-enqueues a failed request itself, up to
// maxRequeueAttempts, unless scanMode is set.
type PoolResult struct {
	Result  *fuzzdata.ResultItem
	Requeue bool
}

const maxRequeueAttempts = 3

// Pool is the HTTP worker pool (spec §4.2): a bounded number of
// concurrent in-flight requests, rate-limited and pausable/cancelable as
// a unit, fanning results back out per registered PoolID.
type Pool struct {
	client    *Client
	limiter   *RateLimiter
	semaphore chan struct{}

	mu       sync.Mutex
	jobs     map[PoolID]*poolState
	nextID   int64
	queued   int64
	scanMode bool

	paused    atomic.Bool
	cancelled atomic.Bool
}

type poolState struct {
	results chan PoolResult
	stats   jobStats
	wg      sync.WaitGroup
}

type jobStats struct {
	mu        sync.Mutex
	sent      int64
	completed int64
	errors    int64
}

// NewPool builds a Pool issuing up to concurrent requests at once.
func NewPool(client *Client, limiter *RateLimiter, concurrent int, scanMode bool) *Pool {
	if concurrent <= 0 {
		concurrent = 1
	}
	p := &Pool{
		client:    client,
		limiter:   limiter,
		semaphore: make(chan struct{}, concurrent),
		jobs:      make(map[PoolID]*poolState),
		scanMode:  scanMode,
	}
	p.paused.Store(false)
	return p
}

// Register allocates a new PoolID with its own result channel.
func (p *Pool) Register() PoolID {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.nextID++
	id := PoolID(p.nextID)
	p.jobs[id] = &poolState{results: make(chan PoolResult, 64)}
	return id
}

// Deregister closes id's result channel once all in-flight work for it
// has drained.
func (p *Pool) Deregister(id PoolID) {
	p.mu.Lock()
	state, ok := p.jobs[id]
	delete(p.jobs, id)
	p.mu.Unlock()

	if !ok {
		return
	}
	go func() {
		state.wg.Wait()
		close(state.results)
	}()
}

// ProbeClient exposes the pool's underlying client for one-off
// out-of-band requests that must bypass the concurrency/rate-limit
// queueing entirely — the recursion stage's false-positive nonce probe
// (spec §4.5), grounded in the original's RecursiveQ issuing a bare
// requests.get() rather than going through its own HttpQueue.
func (p *Pool) ProbeClient() *Client { return p.client }

// Pause gates the dequeue loop; in-flight requests already started are
// not interrupted.
func (p *Pool) Pause()  { p.paused.Store(true) }
func (p *Pool) Resume() { p.paused.Store(false) }

// Cancel stops accepting new work; Enqueue becomes a no-op after Cancel.
func (p *Pool) Cancel() { p.cancelled.Store(true) }

// QueuedRequests reports how many jobs are currently in flight or
// waiting on the pause gate, across every registered PoolID.
func (p *Pool) QueuedRequests() int64 { return atomic.LoadInt64(&p.queued) }

// JobStats returns sent/completed/error counters for every registered
// PoolID, keyed by id for the console/stats table.
func (p *Pool) JobStats() map[PoolID]map[string]int64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make(map[PoolID]map[string]int64, len(p.jobs))
	for id, state := range p.jobs {
		state.stats.mu.Lock()
		out[id] = map[string]int64{
			"sent":      state.stats.sent,
			"completed": state.stats.completed,
			"errors":    state.stats.errors,
		}
		state.stats.mu.Unlock()
	}
	return out
}

// Enqueue submits job for id, spawning a worker goroutine bounded by the
// pool's concurrency semaphore. Results arrive on the channel returned by
// IterResults; a failed request is retried inside the pool and only its
// final outcome is delivered.
func (p *Pool) Enqueue(ctx context.Context, job PoolJob, id PoolID) {
	if p.cancelled.Load() {
		return
	}

	p.mu.Lock()
	state, ok := p.jobs[id]
	p.mu.Unlock()
	if !ok {
		return
	}

	atomic.AddInt64(&p.queued, 1)
	state.wg.Add(1)
	state.stats.mu.Lock()
	state.stats.sent++
	state.stats.mu.Unlock()

	go p.run(ctx, job, id, state)
}

func (p *Pool) run(ctx context.Context, job PoolJob, id PoolID, state *poolState) {
	defer atomic.AddInt64(&p.queued, -1)
	defer state.wg.Done()

	for p.paused.Load() && !p.cancelled.Load() {
		time.Sleep(25 * time.Millisecond)
	}
	if p.cancelled.Load() {
		return
	}

	p.semaphore <- struct{}{}
	defer func() { <-p.semaphore }()

	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			state.deliver(p.buildErrorResult(job, err))
			return
		}
	}

	req := &fuzzdata.Request{Method: job.Method, URL: job.URL, Headers: job.Headers, Body: job.Body}
	resp, elapsed, err := p.client.Do(ctx, req)

	if err != nil {
		job.attempt++
		requeue := job.attempt < maxRequeueAttempts && !p.scanMode
		if requeue {
			state.stats.mu.Lock()
			state.stats.errors++
			state.stats.mu.Unlock()
			p.Enqueue(ctx, job, id)
			return
		}
		state.stats.mu.Lock()
		state.stats.errors++
		state.stats.mu.Unlock()
		state.deliver(p.buildErrorResult(job, err))
		return
	}

	result := fuzzdata.NewResult(job.URL, int(job.Priority))
	result.ResultNumber = job.ResultNumber
	result.Method = job.Method
	result.RLevel = job.RLevel
	result.PluginRLevel = job.PluginRLevel
	result.BackfeedLevel = job.BackfeedLevel
	result.FromPlugin = job.FromPlugin
	result.PayloadMan = job.PayloadMan
	result.Timer = elapsed
	result.Code = resp.Status
	result.Lines, result.Words, result.Chars = countBody(resp.Body)
	result.History = &fuzzdata.HTTPHistory{Request: req, Response: resp}

	state.stats.mu.Lock()
	state.stats.completed++
	state.stats.mu.Unlock()

	state.deliver(PoolResult{Result: result})
}

func (p *Pool) buildErrorResult(job PoolJob, err error) PoolResult {
	result := fuzzdata.NewResult(job.URL, int(job.Priority))
	result.ResultNumber = job.ResultNumber
	result.Method = job.Method
	result.RLevel = job.RLevel
	result.PluginRLevel = job.PluginRLevel
	result.BackfeedLevel = job.BackfeedLevel
	result.FromPlugin = job.FromPlugin
	result.PayloadMan = job.PayloadMan
	result.Exception = err
	result.Code = fuzzdata.ErrorCode
	return PoolResult{Result: result}
}

func (s *poolState) deliver(r PoolResult) {
	s.results <- r
}

// IterResults returns id's result channel. Deregister closes it once all
// enqueued work for id has completed.
func (p *Pool) IterResults(id PoolID) <-chan PoolResult {
	p.mu.Lock()
	defer p.mu.Unlock()
	if state, ok := p.jobs[id]; ok {
		return state.results
	}
	ch := make(chan PoolResult)
	close(ch)
	return ch
}
