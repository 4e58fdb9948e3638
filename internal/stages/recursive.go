package stages

import (
	"context"
	"net/url"
	"strings"

	"wenum/internal/analyzer"
	"wenum/internal/engine/options"
	"wenum/internal/fuzzdata"
	"wenum/internal/httpclient"
	"wenum/internal/queue"
)

const falsePositiveNonce1 = "thisdoesnotexist123"
const falsePositiveNonce2 = "thisalsodoesnotexist123"

// RecursiveStage implements spec §4.5, ported from original_source's
// RecursiveQ: for a RESULT that looks like a directory, synthesize a
// recursion SEED guarded by cache/limit/depth checks and the
// false-positive probe.
type RecursiveStage struct {
	queue.BaseStage

	opts  *options.Options
	cache *fuzzdata.Cache
	pool  *httpclient.Pool
	probe func(ctx context.Context, checkURL string) (*fuzzdata.Response, error)
}

func NewRecursiveStage(opts *options.Options, cache *fuzzdata.Cache, pool *httpclient.Pool) *RecursiveStage {
	rs := &RecursiveStage{
		BaseStage: queue.BaseStage{
			StageName:    "recursive_queue",
			HandledTypes: map[fuzzdata.ItemType]bool{fuzzdata.Result: true},
		},
		opts:  opts,
		cache: cache,
		pool:  pool,
	}
	rs.probe = rs.probeOnce
	return rs
}

func (rs *RecursiveStage) Process(item fuzzdata.Item) []queue.Disposition {
	r, ok := item.(*fuzzdata.ResultItem)
	if !ok {
		return []queue.Disposition{queue.ForwardTo(item)}
	}

	if !isDirectoryHit(r) {
		return []queue.Disposition{queue.ForwardTo(r)}
	}

	recursionURL := recursionTarget(r)
	seed := fuzzdata.NewSeed(recursionURL, r.Priority(), r.RLevel+1, pluginRLevelFor(r), r.BackfeedLevel, r.FromPlugin)

	if rs.cache.CheckCache(recursionURL, fuzzdata.CategoryRecursion, false) {
		return []queue.Disposition{queue.ForwardTo(r)}
	}
	if condition := maxRecursionCondition(rs.opts, r); condition != "" {
		r.AddFinding("recursive_queue", "Skipped recursion - "+condition+" for "+recursionURL, "info")
		return []queue.Disposition{queue.ForwardTo(r)}
	}
	if rs.opts.LimitRequests && rs.pool.QueuedRequests() > limitRequestsThreshold {
		r.AddFinding("recursive_queue", "Skipped recursion - limiting requests as per argument for "+recursionURL, "info")
		return []queue.Disposition{queue.ForwardTo(r)}
	}
	if rs.falsePositiveHit(recursionURL, r) {
		r.AddFinding("recursive_queue", "Permanent redirect detected for "+recursionURL+" - skipped recursion", "info")
		return []queue.Disposition{queue.ForwardTo(r)}
	}
	if rs.cache.CheckCache(recursionURL, fuzzdata.CategoryRecursion, true) {
		return []queue.Disposition{queue.ForwardTo(r)}
	}

	r.AddFinding("recursive_queue", "Enqueued path "+recursionURL+" for recursion", "info")
	return []queue.Disposition{queue.ForwardTo(seed), queue.ForwardTo(r)}
}

// isDirectoryHit mirrors request_found_directory: URL path ends with
// "/", or a 3xx pointing at the same path plus a trailing slash.
func isDirectoryHit(r *fuzzdata.ResultItem) bool {
	if strings.HasSuffix(r.URL, "/") {
		return true
	}
	if r.Code < 300 || r.Code >= 400 || r.History == nil || r.History.Response == nil {
		return false
	}
	loc := r.History.Response.Header("Location")
	if loc == "" {
		return false
	}
	target, err := url.Parse(loc)
	if err != nil {
		return false
	}
	return strings.HasSuffix(target.Path, "/") &&
		strings.TrimSuffix(target.Path, "/") == strings.TrimSuffix(pathOf(r.URL), "/")
}

func pathOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Path
}

func recursionTarget(r *fuzzdata.ResultItem) string {
	return strings.TrimSuffix(r.URL, "/") + "/FUZZ"
}

func pluginRLevelFor(r *fuzzdata.ResultItem) int {
	if r.FromPlugin {
		return r.PluginRLevel + 1
	}
	return r.PluginRLevel
}

func maxRecursionCondition(opts *options.Options, r *fuzzdata.ResultItem) string {
	if r.FromPlugin && r.PluginRLevel >= opts.PluginRLevel {
		return "max plugin recursion depth reached"
	}
	if !r.FromPlugin && r.RLevel >= opts.RLevel {
		return "max recursion depth reached"
	}
	return ""
}

// falsePositiveHit runs the nonce probe (spec §4.5) via the shared
// FalsePositiveProbe helper, also used by the plugin stage for
// plugin-originated SEED outputs (spec §4.7 step 4).
func (rs *RecursiveStage) falsePositiveHit(recursionURL string, r *fuzzdata.ResultItem) bool {
	return FalsePositiveProbe(rs.probe, recursionURL, candidateResponse(r))
}

func candidateResponse(r *fuzzdata.ResultItem) *fuzzdata.Response {
	if r.History != nil && r.History.Response != nil {
		return r.History.Response
	}
	return &fuzzdata.Response{Status: r.Code}
}

// probeOnce issues the out-of-band GET described in spec §4.5, using
// the pool's client directly rather than going through the pipeline's
// queues (the probe must not itself produce pending_fuzz/transport
// bookkeeping).
func (rs *RecursiveStage) probeOnce(ctx context.Context, checkURL string) (*fuzzdata.Response, error) {
	resp, _, err := rs.pool.ProbeClient().Do(ctx, &fuzzdata.Request{Method: "GET", URL: checkURL})
	return resp, err
}

// ProbeFunc issues one out-of-band GET against checkURL, returning the
// decoded response. Both RecursiveStage and the plugin stage's
// SEED-output gating share this shape so they share one probe
// implementation (probeOnce) and one pass/fail rule (FalsePositiveProbe).
type ProbeFunc func(ctx context.Context, checkURL string) (*fuzzdata.Response, error)

// FalsePositiveProbe is the nonce-based distinctness check of spec §4.5:
// same status and word count as candidate ⇒ false positive; different
// status ⇒ real hit; same status, different word count ⇒ a second nonce
// probe decides.
func FalsePositiveProbe(probe ProbeFunc, recursionURL string, candidate *fuzzdata.Response) bool {
	resp1, err := probe(context.Background(), strings.ReplaceAll(recursionURL, "FUZZ", falsePositiveNonce1))
	if err != nil {
		return false
	}
	cmp1 := analyzer.Compare(resp1, candidate)
	if cmp1.StatusMatch && cmp1.WordCountMatch {
		return true
	}
	if !cmp1.StatusMatch {
		return false
	}

	resp2, err := probe(context.Background(), strings.ReplaceAll(recursionURL, "FUZZ", falsePositiveNonce2))
	if err != nil {
		return false
	}
	cmp2 := analyzer.Compare(resp1, resp2)
	if cmp2.StatusMatch && cmp2.WordCountMatch {
		return false
	}
	return true
}

// NewProbeFunc builds a ProbeFunc bound to pool's out-of-band client,
// for callers (the plugin stage) that need the probe without a full
// RecursiveStage.
func NewProbeFunc(pool *httpclient.Pool) ProbeFunc {
	return func(ctx context.Context, checkURL string) (*fuzzdata.Response, error) {
		resp, _, err := pool.ProbeClient().Do(ctx, &fuzzdata.Request{Method: "GET", URL: checkURL})
		return resp, err
	}
}
