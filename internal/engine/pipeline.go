package engine

import (
	"context"
	"fmt"

	"wenum/internal/console"
	"wenum/internal/engine/options"
	"wenum/internal/ferr"
	"wenum/internal/filterlang"
	"wenum/internal/fuzzdata"
	"wenum/internal/httpclient"
	"wenum/internal/payload"
	"wenum/internal/plugin"
	"wenum/internal/plugin/builtin"
	"wenum/internal/queue"
	"wenum/internal/reporter"
	"wenum/internal/scope"
	"wenum/internal/stages"
)

// Options is re-exported from internal/engine/options so cmd/fuzz.go
// can keep writing engine.Options, matching the teacher's pattern of
// building one session struct in cmd/ and handing it to a single
// constructor. The canonical definition lives in internal/engine/options
// — a dependency-free leaf — so internal/stages can depend on it too
// without importing internal/engine itself, which would otherwise cycle
// back through this package's own import of internal/stages.
type Options = options.Options

// Engine owns one run's shared state (cache, stats, scope, pool,
// reporter) and assembles the queue.Manager pipeline, grounded in
// original_source's Fuzzer class (core.py Fuzzer.__init__ builds and
// wires exactly this set of queues under the same conditions).
type Engine struct {
	Opts   *Options
	Pool   *httpclient.Pool
	Cache  *fuzzdata.Cache
	Stats  *fuzzdata.Stats
	Scope  *scope.Scope
	Out    *console.Printer
	Report *reporter.Reporter

	manager *queue.Manager
	counter int64
}

// New wires up the shared run state. sources is one payload.Source per
// marker in opts.TargetURL, in FUZZ/FUZ2Z/... order.
func New(opts *Options, pool *httpclient.Pool, out *console.Printer, sources []payload.Source) (*Engine, error) {
	sc, err := scope.New(opts.TargetURL, opts.DomainScope)
	if err != nil {
		return nil, ferr.Wrap(ferr.BadOptions, "parsing target URL for scope", err)
	}

	e := &Engine{
		Opts:   opts,
		Pool:   pool,
		Cache:  fuzzdata.NewCache(),
		Stats:  fuzzdata.NewStats(),
		Scope:  sc,
		Out:    out,
		Report: reporter.New(),
	}

	if opts.CacheFile != "" {
		_ = e.Cache.LoadFromFile(opts.CacheFile)
	}

	e.manager = queue.NewManager(e.Stats)
	if err := e.build(sources); err != nil {
		return nil, err
	}
	return e, nil
}

// build wires the pipeline stage order (spec §2 diagram / §4.1-§4.9),
// ported from Fuzzer.__init__: seed -> [slice prefilters] -> transport
// -> [redirects] -> [autofilter] -> [plugins] -> [recursive] ->
// [routing] -> [filter] -> (hard_filter reorder) ->
// [file printer] -> cli printer.
func (e *Engine) build(sources []payload.Source) error {
	opts := e.Opts

	e.manager.Add("seed_queue", stages.NewSeedStage(opts, e.Cache, e.Stats, e.Pool, sources))

	if opts.PreFilterExpr != "" {
		m, err := filterlang.Compile(opts.PreFilterExpr)
		if err != nil {
			return ferr.Wrap(ferr.IncorrectFilter, "compiling pre-filter expression", err)
		}
		e.manager.Add("slice_queue", stages.NewSliceQ("slice_queue", m))
	}

	ctx := context.Background()
	e.manager.Add("transport_queue", stages.NewTransportStage(ctx, e.Pool, opts, &e.counter))

	if opts.FollowRedirects {
		e.manager.Add("redirects_queue", stages.NewRedirectStage(e.Cache, e.Scope))
	}

	if opts.AutoFilter {
		e.manager.Add("autofilter_queue", stages.NewAutoFilterStage(e.Stats))
	}

	plugins := e.loadPlugins()
	hasPlugins := len(plugins) > 0
	probe := stages.NewProbeFunc(e.Pool)

	if hasPlugins {
		n := opts.ConcurrentPlugins
		if n <= 0 {
			n = 1
		}
		saved := opts.ConcurrentPlugins
		opts.ConcurrentPlugins = n
		e.manager.AddList("plugins_queue", stages.NewPluginExecutors(opts, e.Cache, e.Scope, probe, plugins))
		opts.ConcurrentPlugins = saved
	}

	if opts.RLevel > 0 {
		e.manager.Add("recursive_queue", stages.NewRecursiveStage(opts, e.Cache, e.Pool))
	}

	routingActive := (hasPlugins || opts.RLevel > 0)
	if routingActive {
		level := int64(0)
		nextLevel := func() int {
			level += options.PriorityStep
			return int(level)
		}
		e.manager.Add("routing_queue", stages.NewRoutingStage(e.Stats, nextLevel))
	}

	if opts.FilterExpr != "" {
		m, err := filterlang.Compile(opts.FilterExpr)
		if err != nil {
			return ferr.Wrap(ferr.IncorrectFilter, "compiling filter expression", err)
		}
		e.manager.Add("filter_queue", stages.NewFilterStage("filter_queue", m, e.Stats))
	}

	if opts.HardFilter {
		for _, name := range []string{"plugins_queue", "recursive_queue", "routing_queue"} {
			e.manager.MoveToEnd(name)
		}
	}

	if opts.OutputFile != "" {
		e.manager.Add("file_printer_queue", stages.NewFilePrinterStage(e.Report, opts.OutputFile))
	}

	e.manager.Add("cli_printer_queue", stages.NewCLIPrinterStage(e.Out, e.Stats))

	fanouts := map[string]map[string]string{}
	if routingActive {
		fanouts["routing_queue"] = map[string]string{
			"seed_queue":      "seed_queue",
			"transport_queue": "transport_queue",
		}
	}
	e.manager.Bind(fanouts)
	return nil
}

func (e *Engine) loadPlugins() []plugin.Plugin {
	var plugins []plugin.Plugin
	for _, name := range e.Opts.ScriptNames {
		switch name {
		case "headers":
			plugins = append(plugins, builtin.NewHeaders())
		case "mass_assignment":
			plugins = append(plugins, builtin.NewMassAssignment())
		}
	}
	return plugins
}

// Run starts the pipeline and blocks until every stage has drained,
// saving the cache file on the way out if one was configured.
func (e *Engine) Run(ctx context.Context) {
	e.manager.Start(e.Opts.TargetURL)

	done := make(chan struct{})
	go func() {
		e.drainResults()
		close(done)
	}()

	select {
	case <-ctx.Done():
		e.manager.Cancel()
		<-done
	case <-done:
	}

	e.manager.Wait()
	if e.Opts.CacheFile != "" {
		_ = e.Cache.SaveToFile(e.Opts.CacheFile)
	}
	if e.Opts.OutputFile != "" {
		_ = e.Report.WriteFile(e.Opts.OutputFile)
	}
}

// drainResults pulls from the terminal results queue until poisoned; the
// cli/file printer stages already did the per-item work. It also decides
// when the run has naturally finished: every seed_queue dictionary has
// been fully emitted (ENDSEED seen for each STARTSEED/SEED, i.e.
// pending_seeds back to zero) and every emitted request has completed
// (pending_fuzz == processed). Nothing else would ever poison the head
// of the pipeline, so this loop is the one that calls Cancel to let the
// run end without -R/--script recursion still in flight.
func (e *Engine) drainResults() {
	results := e.manager.Results()
	for {
		item, ok := results.Pop()
		if !ok || item == nil {
			return
		}

		if r, ok := item.(*fuzzdata.ResultItem); ok {
			e.Stats.IncTotalReq()
			_ = r
		}

		if m, ok := item.(*fuzzdata.Marker); ok && m.Type() == fuzzdata.EndSeed {
			e.Stats.DecPendingSeeds()
		}

		if e.Stats.PendingSeeds() <= 0 && e.Stats.PendingFuzz() == e.Stats.Processed() && e.Stats.Processed() > 0 {
			e.manager.Cancel()
		}
	}
}

// Summary renders the final stats line, matching the teacher's
// end-of-run output.
func (e *Engine) Summary() string {
	return fmt.Sprintf("%s | reported: %d", e.Stats.Summary(), e.Report.Len())
}
