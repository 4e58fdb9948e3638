// Package options is the dependency-free leaf holding the run-wide
// configuration struct shared by internal/engine (which assembles the
// pipeline) and internal/stages (which implements it): splitting it out
// here keeps the import graph acyclic (engine -> stages -> options)
// instead of engine <-> stages.
package options

import (
	"time"

	"wenum/internal/fuzzdata"
)

// Options is the run-wide configuration threaded through every stage
// constructor, mirroring the teacher's pattern of passing one session
// struct into every component rather than a dozen positional args.
type Options struct {
	TargetURL string // contains FUZZ / FUZ2Z / ... markers
	Method    string
	Headers   []fuzzdata.Header // values may themselves contain markers
	Body      []byte

	Concurrent int
	Delay      time.Duration

	RLevel       int // max user-originated recursion depth
	PluginRLevel int // max plugin-originated recursion depth

	// LimitRequests mirrors spec.md §6.1 `--limit-requests`: a seed's
	// dictionary (and a recursion-synthesized seed) is skipped once the
	// pool's queued-request count exceeds a fixed threshold, rather than
	// growing the job unbounded (original_source's "limitrequests" +
	// "LIMITREQUESTS_THRESHOLD" behavior).
	LimitRequests bool

	DomainScope     bool
	FollowRedirects bool

	HardFilter bool
	AutoFilter bool
	DryRun     bool

	// Baseline, when non-nil, is sent first via send_first semantics and
	// the seed stage busy-waits for it to complete before emitting the
	// rest of the dictionary (spec §4.3 "Baseline").
	Baseline *fuzzdata.ResultItem

	ConcurrentPlugins    int
	CancelOnPluginExcept bool

	// FilterExpr/PreFilterExpr are the compiled-on-demand filter
	// language expressions for the post-transport filter stage and the
	// pre-transport slice stage (spec §4.8); empty means the stage is
	// not wired in at all.
	FilterExpr    string
	PreFilterExpr string

	// ScriptNames names the builtin plugins to run (spec §6.1 --script);
	// empty disables the plugin stage entirely, matching the original's
	// "only active when a script was given".
	ScriptNames []string

	OutputFile  string // spec §6.2; empty disables the file-printer stage
	ProgressBar bool
	CacheFile   string
}

// PriorityStep is spec §4.4's per-seed priority increment: a seed's
// children are assigned strictly higher priority than their parent, in
// steps of this size. Shared between internal/engine (its routing-stage
// constructor closure) and internal/stages (its own copy would
// otherwise drift).
const PriorityStep = 10
