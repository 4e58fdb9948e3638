package stages

import (
	"wenum/internal/console"
	"wenum/internal/fuzzdata"
	"wenum/internal/queue"
	"wenum/internal/reporter"
)

// CLIPrinterStage is the pipeline's terminal "always present" stage
// (spec §4.9's results surface), ported from original_source's
// CLIPrinterQ: prints each RESULT/MESSAGE to the console as it arrives
// and counts it toward run stats, then forwards it on to the results
// queue the caller drains.
type CLIPrinterStage struct {
	queue.BaseStage

	out   *console.Printer
	stats *fuzzdata.Stats
}

func NewCLIPrinterStage(out *console.Printer, stats *fuzzdata.Stats) *CLIPrinterStage {
	return &CLIPrinterStage{
		BaseStage: queue.BaseStage{
			StageName:    "cli_printer_queue",
			HandledTypes: map[fuzzdata.ItemType]bool{fuzzdata.Result: true, fuzzdata.Message: true},
			KeepDiscards: true,
		},
		out:   out,
		stats: stats,
	}
}

func (c *CLIPrinterStage) Process(item fuzzdata.Item) []queue.Disposition {
	switch v := item.(type) {
	case *fuzzdata.MessageItem:
		c.out.Info("%s", v.Text)
	case *fuzzdata.ResultItem:
		c.stats.IncProcessed()
		if !v.Discarded() {
			method := v.Method
			if method == "" {
				method = "GET"
			}
			console.Hit(method, v.URL, v.Code, v.Lines, v.Words, v.Chars)
			for _, f := range v.PluginsRes {
				c.out.Info("  [%s] %s: %s", f.Severity, f.Plugin, f.Message)
			}
		}
	}
	return []queue.Disposition{queue.ForwardTo(item)}
}

// FilePrinterStage writes every non-discarded RESULT to a reporter as
// the pipeline runs, flushing the accumulated report on Cleanup (spec
// §6.2's persisted output, ported from original_source's FilePrinterQ).
// flushEvery throttles how often the file is rewritten while results are
// still arriving.
type FilePrinterStage struct {
	queue.BaseStage

	rep       *reporter.Reporter
	path      string
	flushEvery int
	pending   int
}

func NewFilePrinterStage(rep *reporter.Reporter, path string) *FilePrinterStage {
	return &FilePrinterStage{
		BaseStage: queue.BaseStage{
			StageName:    "file_printer_queue",
			HandledTypes: map[fuzzdata.ItemType]bool{fuzzdata.Result: true},
			KeepDiscards: true,
		},
		rep:        rep,
		path:       path,
		flushEvery: 100,
	}
}

func (f *FilePrinterStage) Process(item fuzzdata.Item) []queue.Disposition {
	r, ok := item.(*fuzzdata.ResultItem)
	if !ok {
		return []queue.Disposition{queue.ForwardTo(item)}
	}
	if !r.Discarded() {
		f.rep.Add(r)
		f.pending++
		if f.pending >= f.flushEvery {
			f.pending = 0
			_ = f.rep.WriteFile(f.path)
		}
	}
	return []queue.Disposition{queue.ForwardTo(r)}
}

func (f *FilePrinterStage) Cleanup() {
	_ = f.rep.WriteFile(f.path)
}
