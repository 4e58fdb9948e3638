package fuzzdata

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/pterm/pterm"
)

// Stats tracks run-wide monotonic counters, shared by every stage.
// Mirrors the teacher's fuzzer.Stats (pterm-rendered table), generalized
// from IDOR-scan counters to the pipeline counters spec §3 names.
type Stats struct {
	pendingSeeds int64
	pendingFuzz  int64
	processed    int64
	filtered     int64
	backfeed     int64
	totalReq     int64
	cancelled    atomic.Bool
	startTime    time.Time
	seedList     []string
}

func NewStats() *Stats {
	return &Stats{startTime: time.Now()}
}

func (s *Stats) IncPendingSeeds()        { atomic.AddInt64(&s.pendingSeeds, 1) }
func (s *Stats) DecPendingSeeds()        { atomic.AddInt64(&s.pendingSeeds, -1) }
func (s *Stats) IncPendingFuzz(n int64)  { atomic.AddInt64(&s.pendingFuzz, n) }
func (s *Stats) IncProcessed()           { atomic.AddInt64(&s.processed, 1) }
func (s *Stats) IncFiltered()            { atomic.AddInt64(&s.filtered, 1) }
func (s *Stats) IncBackfeed()            { atomic.AddInt64(&s.backfeed, 1) }
func (s *Stats) IncTotalReq()            { atomic.AddInt64(&s.totalReq, 1) }

func (s *Stats) PendingSeeds() int64 { return atomic.LoadInt64(&s.pendingSeeds) }
func (s *Stats) PendingFuzz() int64  { return atomic.LoadInt64(&s.pendingFuzz) }
func (s *Stats) Processed() int64    { return atomic.LoadInt64(&s.processed) }
func (s *Stats) Filtered() int64     { return atomic.LoadInt64(&s.filtered) }
func (s *Stats) Backfeed() int64     { return atomic.LoadInt64(&s.backfeed) }
func (s *Stats) TotalReq() int64     { return atomic.LoadInt64(&s.totalReq) }

// Cancel sets the sticky cancellation flag. Cancelled is monotonic: once
// true, it never returns to false for the life of this Stats.
func (s *Stats) Cancel()          { s.cancelled.Store(true) }
func (s *Stats) Cancelled() bool  { return s.cancelled.Load() }

// AppendSeed records a seed URL; routing is the sole writer (spec §4.4).
func (s *Stats) AppendSeed(url string) {
	s.seedList = append(s.seedList, url)
}

func (s *Stats) SeedList() []string {
	out := make([]string, len(s.seedList))
	copy(out, s.seedList)
	return out
}

func (s *Stats) Elapsed() time.Duration { return time.Since(s.startTime) }

func (s *Stats) RPS() float64 {
	elapsed := s.Elapsed().Seconds()
	if elapsed == 0 {
		return 0
	}
	return float64(atomic.LoadInt64(&s.totalReq)) / elapsed
}

// Print renders a stats table via pterm, matching the teacher's
// fuzzer.Stats.Print layout.
func (s *Stats) Print() {
	pterm.DefaultSection.Println("Scan Statistics")

	tableData := pterm.TableData{
		{"Metric", "Value"},
		{"Total Requests", fmt.Sprintf("%d", s.TotalReq())},
		{"Processed", fmt.Sprintf("%d", s.Processed())},
		{"Filtered", fmt.Sprintf("%d", s.Filtered())},
		{"Backfeed", fmt.Sprintf("%d", s.Backfeed())},
		{"Pending Seeds", fmt.Sprintf("%d", s.PendingSeeds())},
		{"RPS", fmt.Sprintf("%.2f", s.RPS())},
		{"Elapsed", s.Elapsed().Round(time.Second).String()},
	}
	pterm.DefaultTable.WithHasHeader().WithData(tableData).Render()
}

func (s *Stats) Summary() string {
	return fmt.Sprintf("Requests: %d | Processed: %d | Filtered: %d | RPS: %.1f | Time: %s",
		s.TotalReq(), s.Processed(), s.Filtered(), s.RPS(), s.Elapsed().Round(time.Second))
}
