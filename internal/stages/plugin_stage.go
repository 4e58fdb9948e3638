package stages

import (
	"context"
	"fmt"
	"sync"

	"wenum/internal/engine/options"
	"wenum/internal/fuzzdata"
	"wenum/internal/plugin"
	"wenum/internal/queue"
	"wenum/internal/scope"
)

// backfeedRequeueLimit is spec §4.7 step 4's "enforce backfeed_level ≤
// 15" cap.
const backfeedRequeueLimit = 15

// PluginExecutor runs every enabled, validating plugin against a RESULT
// and gates the outputs it emits (spec §4.7), ported from
// original_source's PluginExecutor.process/process_results. N of these
// are run in parallel by a queue.ListRunner (spec's FuzzListQueue),
// added via Manager.AddList.
type PluginExecutor struct {
	queue.BaseStage

	opts    *options.Options
	cache   *fuzzdata.Cache
	scope   *scope.Scope
	probe   ProbeFunc
	plugins []plugin.Plugin
}

func NewPluginExecutor(opts *options.Options, cache *fuzzdata.Cache, sc *scope.Scope, probe ProbeFunc, plugins []plugin.Plugin) *PluginExecutor {
	return &PluginExecutor{
		BaseStage: queue.BaseStage{
			StageName:    "plugin_executor",
			HandledTypes: map[fuzzdata.ItemType]bool{fuzzdata.Result: true},
		},
		opts:    opts,
		cache:   cache,
		scope:   sc,
		probe:   probe,
		plugins: plugins,
	}
}

type queuedCount struct {
	requests int
	seeds    int
}

// taggedOutput pairs a plugin.Output with the name of the plugin that
// emitted it, since the ABI itself (spec §6.4) doesn't carry that —
// PluginExecutor needs it to build the per-plugin summary findings
// (spec §4.7 step 5).
type taggedOutput struct {
	name string
	out  plugin.Output
}

func (pe *PluginExecutor) Process(item fuzzdata.Item) []queue.Disposition {
	r, ok := item.(*fuzzdata.ResultItem)
	if !ok {
		return []queue.Disposition{queue.ForwardTo(item)}
	}
	if r.Exception != nil {
		return []queue.Disposition{queue.ForwardTo(r)}
	}

	outputs := make(chan taggedOutput, 64)
	queued := make(map[string]*queuedCount)

	var wg sync.WaitGroup
	for _, p := range pe.plugins {
		if p.Disabled() || !p.Validate(r) {
			continue
		}
		if p.RunOnce() {
			p.SetDisabled(true)
		}
		queued[p.Name()] = &queuedCount{}

		wg.Add(1)
		go func(p plugin.Plugin) {
			defer wg.Done()
			raw := make(chan plugin.Output, 16)
			done := make(chan struct{})
			go func() {
				for o := range raw {
					outputs <- taggedOutput{name: p.Name(), out: o}
				}
				close(done)
			}()
			p.Run(context.Background(), r, raw)
			close(raw)
			<-done
		}(p)
	}

	go func() {
		wg.Wait()
		close(outputs)
	}()

	extra := pe.processOutputs(r, outputs, queued)

	for name, count := range queued {
		if count.requests > 0 {
			plural := ""
			if count.requests > 1 {
				plural = "s"
			}
			r.AddFinding(name, fmt.Sprintf("Plugin %s: Enqueued %d request%s", name, count.requests, plural), "info")
		}
		if count.seeds > 0 {
			plural := ""
			if count.seeds > 1 {
				plural = "s"
			}
			r.AddFinding(name, fmt.Sprintf("Plugin %s: Enqueued %d seed%s", name, count.seeds, plural), "info")
		}
	}

	dispositions := []queue.Disposition{queue.ForwardTo(r)}
	return append(dispositions, extra...)
}

// processOutputs drains outputs, classifying each by kind (spec §4.7
// step 4), and returns Dispositions for any synthesized SEED/BACKFEED
// items that survive gating.
func (pe *PluginExecutor) processOutputs(r *fuzzdata.ResultItem, outputs <-chan taggedOutput, queued map[string]*queuedCount) []queue.Disposition {
	var extra []queue.Disposition

	for t := range outputs {
		name, out := t.name, t.out
		switch out.Kind {
		case plugin.KindMessage:
			if out.Message != "" {
				r.AddFinding(name, out.Message, "info")
			}
		case plugin.KindFinding:
			severity := out.Severity
			if severity == "" {
				severity = "info"
			}
			r.AddFinding(name, out.Message, severity)
		case plugin.KindSeed:
			if out.Exception != nil {
				if pe.opts.CancelOnPluginExcept {
					r.Exception = out.Exception
				}
				r.AddFinding(name, "plugin error: "+out.Exception.Error(), "warning")
				continue
			}
			if d, kind := pe.gateSeedOutput(r, out); d != nil {
				extra = append(extra, queue.ForwardTo(d))
				count := queued[name]
				if count == nil {
					count = &queuedCount{}
					queued[name] = count
				}
				if kind == fuzzdata.Backfeed {
					count.requests++
				} else {
					count.seeds++
				}
			}
		}
	}

	return extra
}

func (pe *PluginExecutor) gateSeedOutput(r *fuzzdata.ResultItem, out plugin.Output) (fuzzdata.Item, fuzzdata.ItemType) {
	if out.Backfeed != nil {
		bf := out.Backfeed
		if !pe.scope.InScopeString(bf.URL) {
			return nil, 0
		}
		if pe.cache.CheckCache(bf.URL, fuzzdata.CategoryProcessed, false) {
			return nil, 0
		}
		if bf.BackfeedLevel > backfeedRequeueLimit {
			r.AddFinding("plugin", fmt.Sprintf("This request has been requeued %d times. Will not enqueue an additional request to %s", backfeedRequeueLimit, bf.URL), "info")
			return nil, 0
		}
		if pe.cache.CheckCache(bf.URL, fuzzdata.CategoryProcessed, true) {
			return nil, 0
		}
		return bf, fuzzdata.Backfeed
	}
	if out.Seed != nil {
		sd := out.Seed
		if !pe.scope.InScopeString(sd.URL) {
			return nil, 0
		}
		if pe.cache.CheckCache(sd.URL, fuzzdata.CategoryRecursion, false) {
			return nil, 0
		}
		if r.PluginRLevel >= pe.opts.PluginRLevel {
			return nil, 0
		}
		if FalsePositiveProbe(pe.probe, sd.URL, candidateResponse(r)) {
			return nil, 0
		}
		if pe.cache.CheckCache(sd.URL, fuzzdata.CategoryRecursion, true) {
			return nil, 0
		}
		return sd, fuzzdata.Seed
	}
	return nil, 0
}

// NewPluginExecutors builds the N parallel sub-stages the plugin stage
// runs (spec §4.7 "parallelism factor P"), for Manager.AddList.
func NewPluginExecutors(opts *options.Options, cache *fuzzdata.Cache, sc *scope.Scope, probe ProbeFunc, plugins []plugin.Plugin) []queue.Stage {
	stages := make([]queue.Stage, opts.ConcurrentPlugins)
	for i := range stages {
		stages[i] = NewPluginExecutor(opts, cache, sc, probe, plugins)
	}
	return stages
}
