package stages

import (
	"container/list"
	"fmt"
	"sync/atomic"

	"wenum/internal/filterlang"
	"wenum/internal/fuzzdata"
	"wenum/internal/queue"
)

// FilterStage wraps a compiled filterlang.Matcher (spec §4.8
// FuzzResFilter), ported from original_source's FilterQ: discards
// results the matcher hides, always lets the baseline through and
// records it as the matcher's baseline reference.
type FilterStage struct {
	queue.BaseStage

	name    string
	matcher *filterlang.Matcher
	stats   *fuzzdata.Stats
}

func NewFilterStage(name string, matcher *filterlang.Matcher, stats *fuzzdata.Stats) *FilterStage {
	return &FilterStage{
		BaseStage: queue.BaseStage{
			StageName:    name,
			HandledTypes: map[fuzzdata.ItemType]bool{fuzzdata.Result: true},
		},
		name:    name,
		matcher: matcher,
		stats:   stats,
	}
}

func (f *FilterStage) Process(item fuzzdata.Item) []queue.Disposition {
	r, ok := item.(*fuzzdata.ResultItem)
	if !ok {
		return []queue.Disposition{queue.ForwardTo(item)}
	}

	if r.IsBaseline {
		f.matcher.SetBaseline(r)
		return []queue.Disposition{queue.ForwardTo(r)}
	}

	visible, err := f.matcher.IsVisible(r)
	if err != nil || visible {
		return []queue.Disposition{queue.ForwardTo(r)}
	}
	f.stats.IncFiltered()
	return []queue.Disposition{queue.DiscardTo(r)}
}

// SliceQ is the pre-filter stage (spec §4.8): evaluated against the
// pending item before it reaches transport, ported from
// original_source's SliceQ.
type SliceQ struct {
	queue.BaseStage

	matcher *filterlang.Matcher
}

func NewSliceQ(name string, matcher *filterlang.Matcher) *SliceQ {
	return &SliceQ{
		BaseStage: queue.BaseStage{
			StageName:    name,
			HandledTypes: map[fuzzdata.ItemType]bool{fuzzdata.Result: true},
		},
		matcher: matcher,
	}
}

func (s *SliceQ) Process(item fuzzdata.Item) []queue.Disposition {
	r, ok := item.(*fuzzdata.ResultItem)
	if !ok {
		return []queue.Disposition{queue.ForwardTo(item)}
	}
	if r.IsBaseline {
		return []queue.Disposition{queue.ForwardTo(r)}
	}
	visible, err := s.matcher.IsVisible(r)
	if err != nil || visible {
		return []queue.Disposition{queue.ForwardTo(r)}
	}
	return []queue.Disposition{queue.DiscardTo(r)}
}

// autoFilterTrackerSize is spec §4.8's AutoFilter tracker capacity.
const autoFilterTrackerSize = 15

// autoFilterThreshold is how many repeats of an identifier trigger
// filtering it out.
const autoFilterThreshold = 10

// AutoFilterStage maintains a bounded, insertion-ordered identifier
// tracker and live-compiles a discard expression once an identifier
// repeats often enough (spec §4.8 "AutoFilter"), ported from
// original_source's AutofilterQ / FixSizeOrderedDict.
type AutoFilterStage struct {
	queue.BaseStage

	stats *fuzzdata.Stats

	mu       chan struct{} // binary mutex; a single stage worker touches this, kept for clarity not correctness
	order    *list.List
	elements map[string]*list.Element
	counts   map[string]int

	filterExpr string
	live       atomic.Pointer[filterlang.Matcher]
}

func NewAutoFilterStage(stats *fuzzdata.Stats) *AutoFilterStage {
	return &AutoFilterStage{
		BaseStage: queue.BaseStage{
			StageName:    "autofilter_queue",
			HandledTypes: map[fuzzdata.ItemType]bool{fuzzdata.Result: true},
		},
		stats:    stats,
		order:    list.New(),
		elements: make(map[string]*list.Element),
		counts:   make(map[string]int),
	}
}

func (a *AutoFilterStage) Process(item fuzzdata.Item) []queue.Disposition {
	r, ok := item.(*fuzzdata.ResultItem)
	if !ok {
		return []queue.Disposition{queue.ForwardTo(item)}
	}

	// HEAD/200 and error responses are exempt from tracking and filtering
	// (spec §4.8); now that the HTTP pool attaches fuzzdata.ErrorCode to
	// every transport-error result, this checks the sentinel directly
	// rather than inferring an error from a nil History.
	if (r.Method == "HEAD" && r.Code == 200) || r.Code == fuzzdata.ErrorCode {
		return []queue.Disposition{queue.ForwardTo(r)}
	}

	m := a.live.Load()
	if m != nil {
		visible, err := m.IsVisible(r)
		if err == nil && !visible {
			a.stats.IncFiltered()
			return []queue.Disposition{queue.DiscardTo(r)}
		}
	}

	if a.track(r) {
		a.stats.IncFiltered()
		return []queue.Disposition{queue.DiscardTo(r)}
	}
	return []queue.Disposition{queue.ForwardTo(r)}
}

// track records r's identifier and reports whether this occurrence
// reached the threshold and was added to the live filter.
func (a *AutoFilterStage) track(r *fuzzdata.ResultItem) bool {
	identifier := fmt.Sprintf("c=%d and l=%d and w=%d", r.Code, r.Lines, r.Words)

	if el, ok := a.elements[identifier]; ok {
		a.counts[identifier]++
		if a.counts[identifier] >= autoFilterThreshold {
			a.addToFilter(r, identifier)
			a.order.Remove(el)
			delete(a.elements, identifier)
			delete(a.counts, identifier)
			return true
		}
		a.order.MoveToFront(el)
		return false
	}

	a.counts[identifier] = 1
	el := a.order.PushFront(identifier)
	a.elements[identifier] = el
	if a.order.Len() > autoFilterTrackerSize {
		oldest := a.order.Back()
		if oldest != nil {
			key := oldest.Value.(string)
			a.order.Remove(oldest)
			delete(a.elements, key)
			delete(a.counts, key)
		}
	}
	return false
}

func (a *AutoFilterStage) addToFilter(r *fuzzdata.ResultItem, identifier string) {
	clause := "not (" + identifier + ")"
	if a.filterExpr == "" {
		a.filterExpr = clause
	} else {
		a.filterExpr = a.filterExpr + " and " + clause
	}

	m, err := filterlang.Compile(a.filterExpr)
	if err != nil {
		return
	}
	a.live.Store(m)

	note := "Recurring response detected. Filtering out '" + identifier + "'"
	if r.Code >= 300 && r.Code < 400 {
		note += ". Redirects will still be followed in the background."
	}
	r.AddFinding("autofilter_queue", note, "info")
}
