package stages

import (
	"context"

	"wenum/internal/engine/options"
	"wenum/internal/fuzzdata"
	"wenum/internal/httpclient"
	"wenum/internal/queue"
)

// TransportStage is the HTTP worker pool wrapper (spec §4.2), ported
// from original_source's HttpQueue — the one asynchronous stage in the
// pipeline (spec §5): Process only enqueues, a background goroutine
// started at BindOutput drains completed results and pushes them
// directly onto the live output queue.
type TransportStage struct {
	queue.BaseStage

	ctx  context.Context
	pool *httpclient.Pool
	opts *options.Options

	poolID httpclient.PoolID
	out    *queue.PriorityQueue
	nextNo *int64
}

func NewTransportStage(ctx context.Context, pool *httpclient.Pool, opts *options.Options, resultCounter *int64) *TransportStage {
	return &TransportStage{
		BaseStage: queue.BaseStage{
			StageName:    "transport_queue",
			HandledTypes: map[fuzzdata.ItemType]bool{fuzzdata.Result: true, fuzzdata.Backfeed: true},
		},
		ctx:    ctx,
		pool:   pool,
		opts:   opts,
		poolID: pool.Register(),
		nextNo: resultCounter,
	}
}

func (t *TransportStage) BindOutput(out *queue.PriorityQueue) {
	t.out = out
	go t.drain()
}

func (t *TransportStage) Process(item fuzzdata.Item) []queue.Disposition {
	job := t.jobFor(item)
	*t.nextNo++
	job.ResultNumber = *t.nextNo

	// --dry-run (original_source's DryRunQ): build the dictionary and
	// let every downstream stage see the request, but never actually
	// send it.
	if t.opts.DryRun {
		if r, ok := item.(*fuzzdata.ResultItem); ok {
			r.ResultNumber = job.ResultNumber
			return []queue.Disposition{queue.ForwardTo(r)}
		}
		return []queue.Disposition{queue.AbsorbedD()}
	}

	t.pool.Enqueue(t.ctx, job, t.poolID)
	return []queue.Disposition{queue.AbsorbedD()}
}

func (t *TransportStage) jobFor(item fuzzdata.Item) httpclient.PoolJob {
	switch v := item.(type) {
	case *fuzzdata.ResultItem:
		return httpclient.PoolJob{
			Priority:      int64(v.Priority()),
			URL:           v.URL,
			Method:        firstNonEmpty(v.Method, t.opts.Method),
			Headers:       t.opts.Headers,
			Body:          t.opts.Body,
			RLevel:        v.RLevel,
			PluginRLevel:  v.PluginRLevel,
			BackfeedLevel: v.BackfeedLevel,
			FromPlugin:    v.FromPlugin,
			PayloadMan:    v.PayloadMan,
		}
	case *fuzzdata.BackfeedItem:
		body := t.opts.Body
		if v.Body != nil {
			body = v.Body
		}
		return httpclient.PoolJob{
			Priority:      int64(v.Priority()),
			URL:           v.URL,
			Method:        firstNonEmpty(v.Method, t.opts.Method),
			Headers:       t.opts.Headers,
			Body:          body,
			RLevel:        v.RLevel,
			PluginRLevel:  v.PluginRLevel,
			BackfeedLevel: v.BackfeedLevel,
			FromPlugin:    true,
		}
	default:
		return httpclient.PoolJob{}
	}
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

// drain reads completed jobs off the pool (re-enqueueing any marked
// Requeue, which httpclient.Pool itself never sets) until it is
// deregistered, mirroring the original's __read_http_results thread.
func (t *TransportStage) drain() {
	for pr := range t.pool.IterResults(t.poolID) {
		if pr.Requeue {
			job := httpclient.PoolJob{
				Priority: int64(pr.Result.Priority()),
				URL:      pr.Result.URL,
				Method:   pr.Result.Method,
				Headers:  t.opts.Headers,
				Body:     t.opts.Body,
			}
			t.pool.Enqueue(t.ctx, job, t.poolID)
			continue
		}
		if t.out != nil {
			t.out.Push(pr.Result)
		}
	}
}

func (t *TransportStage) Cleanup() {
	t.pool.Deregister(t.poolID)
}
