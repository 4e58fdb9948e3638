// Package stages holds the pipeline worker implementations that plug
// into internal/queue.Manager, grounded stage-for-stage in
// original_source's fuzzqueues.py (SeedQueue, RoutingQ, HttpQueue,
// RedirectQ, RecursiveQ, PluginExecutor, FilterQ/AutofilterQ/SliceQ,
// CLIPrinterQ/FilePrinterQ), written in the teacher's small-struct,
// explicit-constructor style.
package stages

import (
	"strconv"
	"strings"
	"time"

	"wenum/internal/engine/options"
	"wenum/internal/fuzzdata"
	"wenum/internal/httpclient"
	"wenum/internal/payload"
	"wenum/internal/queue"
)

// backpressureRetry is how long the seed stage sleeps before
// re-checking the transport queue's depth (spec §4.3 "RAM
// backpressure").
const backpressureRetry = 50 * time.Millisecond

// limitRequestsThreshold is the queued-request count above which
// --limit-requests skips sending a new seed's dictionary or a
// recursion seed, rather than letting the run grow unbounded.
const limitRequestsThreshold = 100000

// SeedStage handles STARTSEED and SEED (spec §4.3): on STARTSEED it
// records the initial recursion URL and emits the root dictionary; on
// SEED it rebinds the dictionary to the new seed's URL and does the
// same. It implements queue.AsyncStage rather than returning a batch of
// Dispositions, because the RAM-bounded backpressure check (sleep while
// the live output queue is deeper than concurrent*5) must observe the
// real queue depth as items drain, not a depth frozen at the start of
// one Process call.
type SeedStage struct {
	queue.BaseStage

	opts  *options.Options
	cache *fuzzdata.Cache
	stats *fuzzdata.Stats
	pool  *httpclient.Pool

	dict    *payload.Dictionary
	markers []string // "FUZZ", "FUZ2Z", ... — one per Source in dict

	out *queue.PriorityQueue
}

func NewSeedStage(opts *options.Options, cache *fuzzdata.Cache, stats *fuzzdata.Stats,
	pool *httpclient.Pool, sources []payload.Source) *SeedStage {

	markers := make([]string, len(sources))
	for i := range sources {
		markers[i] = markerToken(i + 1)
	}

	return &SeedStage{
		BaseStage: queue.BaseStage{
			StageName:    "seed_queue",
			HandledTypes: map[fuzzdata.ItemType]bool{fuzzdata.StartSeed: true, fuzzdata.Seed: true},
		},
		opts:    opts,
		cache:   cache,
		stats:   stats,
		pool:    pool,
		dict:    payload.NewDictionary(sources),
		markers: markers,
	}
}

func markerToken(i int) string {
	if i == 1 {
		return "FUZZ"
	}
	return "FUZ" + strconv.Itoa(i) + "Z"
}

func (s *SeedStage) BindOutput(out *queue.PriorityQueue) { s.out = out }

func (s *SeedStage) Process(item fuzzdata.Item) []queue.Disposition {
	var seedURL string
	var priority int

	switch v := item.(type) {
	case *fuzzdata.Marker:
		s.addInitialRecursionToCache()
		s.stats.IncPendingSeeds()
		s.sendBaseline()
		seedURL = s.opts.TargetURL
		priority = v.Priority()
	case *fuzzdata.SeedItem:
		s.dict.Rebind()
		seedURL = v.URL
		priority = v.Priority()
	default:
		return nil
	}

	if s.opts.LimitRequests && s.pool != nil && s.pool.QueuedRequests() > limitRequestsThreshold {
		if s.out != nil {
			s.out.Push(fuzzdata.NewEndSeed(priority))
		}
		return []queue.Disposition{queue.AbsorbedD()}
	}

	s.sendDictionary(seedURL, priority)
	return []queue.Disposition{queue.AbsorbedD()}
}

// sendBaseline implements spec §4.3 "Baseline": only fires on the
// initial STARTSEED (pending_seeds == 1 right after the increment
// above), bypasses normal ordering, and busy-waits for it to be
// processed before any other request is emitted.
func (s *SeedStage) sendBaseline() {
	if s.opts.Baseline == nil || s.stats.PendingSeeds() != 1 {
		return
	}
	s.stats.IncPendingFuzz(1)
	if s.out != nil {
		s.out.PushFirst(s.opts.Baseline)
	}
	for s.stats.Processed() == 0 && !s.stats.Cancelled() {
		time.Sleep(100 * time.Microsecond)
	}
}

func (s *SeedStage) addInitialRecursionToCache() {
	key := strings.ReplaceAll(s.opts.TargetURL, "FUZZ", "")
	s.cache.CheckCache(key, fuzzdata.CategoryRecursion, true)
}

// sendDictionary implements spec §4.3 steps 1-5.
func (s *SeedStage) sendDictionary(seedURL string, priority int) {
	rootURL := strings.ReplaceAll(seedURL, "FUZZ", "")
	if !s.cache.CheckCache(rootURL, fuzzdata.CategoryProcessed, true) {
		s.stats.IncPendingFuzz(1)
		s.emit(s.buildResult(rootURL, nil, priority))
	}

	for {
		if s.stats.Cancelled() {
			break
		}
		tuple, ok := s.dict.Next()
		if !ok {
			break
		}
		if s.opts.Delay > 0 {
			time.Sleep(s.opts.Delay)
		}

		url := substituteMarkers(seedURL, s.markers, tuple)
		if !s.cache.CheckCache(url, fuzzdata.CategoryProcessed, true) {
			s.stats.IncPendingFuzz(1)
			s.emit(s.buildResult(url, tuple, priority))
		}
	}

	if s.out != nil {
		s.out.Push(fuzzdata.NewEndSeed(priority))
	}
}

func (s *SeedStage) buildResult(url string, tuple []fuzzdata.FuzzWord, priority int) *fuzzdata.ResultItem {
	r := fuzzdata.NewResult(url, priority)
	r.Method = s.opts.Method
	if tuple != nil {
		r.PayloadMan = fuzzdata.NewPayloadManager(tuple)
	}
	return r
}

// emit applies the RAM-bounded backpressure rule before pushing r onto
// the live output queue directly.
func (s *SeedStage) emit(r *fuzzdata.ResultItem) {
	for s.out != nil && s.out.Len() > s.opts.Concurrent*5 {
		time.Sleep(backpressureRetry)
		if s.stats.Cancelled() {
			break
		}
	}
	if s.out != nil {
		s.out.Push(r)
	}
}

func substituteMarkers(url string, markers []string, tuple []fuzzdata.FuzzWord) string {
	for i, m := range markers {
		url = strings.ReplaceAll(url, m, tuple[i].Content)
	}
	return url
}
