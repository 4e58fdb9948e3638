package stages

import (
	"testing"

	"wenum/internal/engine/options"
	"wenum/internal/fuzzdata"
	"wenum/internal/payload"
	"wenum/internal/queue"
)

func newTestSeedStage(t *testing.T, opts *options.Options, words []string) (*SeedStage, *queue.PriorityQueue) {
	t.Helper()
	src := payload.NewWordlistSource(words)
	s := NewSeedStage(opts, fuzzdata.NewCache(), fuzzdata.NewStats(), nil, []payload.Source{src})
	out := queue.NewPriorityQueue()
	s.BindOutput(out)
	return s, out
}

func drainUntilEndSeed(t *testing.T, out *queue.PriorityQueue) []fuzzdata.Item {
	t.Helper()
	var items []fuzzdata.Item
	for {
		item, ok := out.Pop()
		if !ok {
			t.Fatalf("queue closed before ENDSEED")
		}
		items = append(items, item)
		if m, ok := item.(*fuzzdata.Marker); ok && m.Type() == fuzzdata.EndSeed {
			return items
		}
	}
}

func TestSeedStageEmitsRootPlusDictionary(t *testing.T) {
	opts := &options.Options{TargetURL: "http://target/FUZZ", Concurrent: 10}
	s, out := newTestSeedStage(t, opts, []string{"admin", "login"})

	disp := s.Process(fuzzdata.NewStartSeed(opts.TargetURL, 0))
	if len(disp) != 1 || disp[0].Kind != queue.Absorbed {
		t.Fatalf("expected a single Absorbed disposition, got %+v", disp)
	}

	items := drainUntilEndSeed(t, out)
	// root (bare "http://target/") + 2 dictionary entries + ENDSEED.
	if len(items) != 4 {
		t.Fatalf("expected 4 items (root + 2 words + ENDSEED), got %d: %+v", len(items), items)
	}
	root := items[0].(*fuzzdata.ResultItem)
	if root.URL != "http://target/" {
		t.Fatalf("expected bare root URL, got %q", root.URL)
	}
	first := items[1].(*fuzzdata.ResultItem)
	if first.URL != "http://target/admin" {
		t.Fatalf("expected first dictionary entry to substitute FUZZ, got %q", first.URL)
	}
}

func TestSeedStageSkipsCachedRoot(t *testing.T) {
	opts := &options.Options{TargetURL: "http://target/FUZZ", Concurrent: 10}
	s, out := newTestSeedStage(t, opts, []string{"admin"})

	// Pre-seed the cache so the bare root URL is already marked processed.
	s.cache.CheckCache("http://target/", fuzzdata.CategoryProcessed, true)

	s.Process(fuzzdata.NewStartSeed(opts.TargetURL, 0))
	items := drainUntilEndSeed(t, out)
	if len(items) != 2 {
		t.Fatalf("expected only the one dictionary entry plus ENDSEED, got %d: %+v", len(items), items)
	}
	r := items[0].(*fuzzdata.ResultItem)
	if r.URL != "http://target/admin" {
		t.Fatalf("unexpected first item: %+v", r)
	}
}

func TestSeedStageLimitRequestsGatesOnNilPool(t *testing.T) {
	// With LimitRequests set but no pool wired, the nil-pool guard means
	// the dictionary is still emitted rather than silently dropped.
	opts := &options.Options{TargetURL: "http://target/FUZZ", Concurrent: 10, LimitRequests: true}
	s, out := newTestSeedStage(t, opts, []string{"admin"})

	s.Process(fuzzdata.NewStartSeed(opts.TargetURL, 0))
	items := drainUntilEndSeed(t, out)
	if len(items) != 3 {
		t.Fatalf("expected root + 1 dictionary entry + ENDSEED to still be emitted, got %d: %+v", len(items), items)
	}
}

func TestSeedStageRebindsDictionaryForSubsequentSeed(t *testing.T) {
	// A recursion-synthesized SEED reuses the same Source set against a
	// new seed URL; the dictionary must restart from the beginning
	// rather than staying exhausted from the first seed (spec §4.3).
	opts := &options.Options{TargetURL: "http://target/FUZZ", Concurrent: 10}
	s, out := newTestSeedStage(t, opts, []string{"admin", "login"})

	s.Process(fuzzdata.NewStartSeed(opts.TargetURL, 0))
	drainUntilEndSeed(t, out)

	s.Process(fuzzdata.NewSeed("http://target/admin/FUZZ", 10, 1, 0, 0, false))
	items := drainUntilEndSeed(t, out)
	if len(items) != 4 {
		t.Fatalf("expected root + 2 dictionary entries + ENDSEED on the second seed, got %d: %+v", len(items), items)
	}
	first := items[1].(*fuzzdata.ResultItem)
	if first.URL != "http://target/admin/admin" {
		t.Fatalf("expected second seed's dictionary to restart from the first word, got %q", first.URL)
	}
}

func TestSeedStageIgnoresUnhandledItem(t *testing.T) {
	opts := &options.Options{TargetURL: "http://target/FUZZ", Concurrent: 10}
	s, _ := newTestSeedStage(t, opts, []string{"admin"})

	if disp := s.Process(fuzzdata.NewMessage("note", 0)); disp != nil {
		t.Fatalf("expected nil dispositions for an unhandled item type, got %+v", disp)
	}
}
