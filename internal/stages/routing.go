package stages

import (
	"wenum/internal/fuzzdata"
	"wenum/internal/queue"
)

// RoutingStage receives SEED and BACKFEED items and fans them out to
// non-adjacent stage inputs — the only stage permitted to do so (spec
// §4.4), ported from original_source's RoutingQ.process.
type RoutingStage struct {
	queue.BaseStage

	stats      *fuzzdata.Stats
	nextLevel  func() int
}

// NewRoutingStage builds the stage. nextLevel hands out the next
// monotonically increasing priority level (assign_next_priority_level
// in the original), kept outside the stage so the Manager can share one
// counter across reconfiguration.
func NewRoutingStage(stats *fuzzdata.Stats, nextLevel func() int) *RoutingStage {
	return &RoutingStage{
		BaseStage: queue.BaseStage{
			StageName:    "routing_queue",
			HandledTypes: map[fuzzdata.ItemType]bool{fuzzdata.Seed: true, fuzzdata.Backfeed: true},
		},
		stats:     stats,
		nextLevel: nextLevel,
	}
}

func (r *RoutingStage) Process(item fuzzdata.Item) []queue.Disposition {
	switch v := item.(type) {
	case *fuzzdata.SeedItem:
		v.SetPriority(r.nextLevel())
		r.stats.IncPendingSeeds()
		r.stats.AppendSeed(v.URL)
		return []queue.Disposition{queue.FanoutTo("seed_queue", v)}
	case *fuzzdata.BackfeedItem:
		r.stats.IncBackfeed()
		return []queue.Disposition{queue.FanoutTo("transport_queue", v)}
	default:
		return []queue.Disposition{queue.ForwardTo(item)}
	}
}
