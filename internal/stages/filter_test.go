package stages

import (
	"testing"

	"wenum/internal/filterlang"
	"wenum/internal/fuzzdata"
	"wenum/internal/queue"
)

func newResultWithHistory(code, lines, words int) *fuzzdata.ResultItem {
	r := fuzzdata.NewResult("http://target/x", 0)
	r.Code = code
	r.Lines = lines
	r.Words = words
	r.History = &fuzzdata.HTTPHistory{}
	return r
}

func TestFilterStageDiscardsHidden(t *testing.T) {
	m, err := filterlang.Compile("code==200")
	if err != nil {
		t.Fatal(err)
	}
	stats := fuzzdata.NewStats()
	f := NewFilterStage("filter_queue", m, stats)

	r := newResultWithHistory(200, 1, 1)
	d := f.Process(r)
	if len(d) != 1 || d[0].Kind != queue.Discard {
		t.Fatalf("expected a discard disposition, got %+v", d)
	}
	if stats.Filtered() != 1 {
		t.Errorf("expected Filtered()==1, got %d", stats.Filtered())
	}
}

func TestFilterStageForwardsVisible(t *testing.T) {
	m, err := filterlang.Compile("code==200")
	if err != nil {
		t.Fatal(err)
	}
	f := NewFilterStage("filter_queue", m, fuzzdata.NewStats())

	r := newResultWithHistory(200, 1, 1)
	d := f.Process(r)
	if len(d) != 1 || d[0].Kind != queue.Forward {
		t.Fatalf("expected a forward disposition, got %+v", d)
	}
}

func TestFilterStageBaselineAlwaysForwarded(t *testing.T) {
	m, err := filterlang.Compile("code==200")
	if err != nil {
		t.Fatal(err)
	}
	f := NewFilterStage("filter_queue", m, fuzzdata.NewStats())

	r := newResultWithHistory(200, 1, 1)
	r.IsBaseline = true
	d := f.Process(r)
	if len(d) != 1 || d[0].Kind != queue.Forward {
		t.Fatalf("baseline must always be forwarded, got %+v", d)
	}
}

func TestSliceQDiscardsWithoutTouchingStats(t *testing.T) {
	m, err := filterlang.Compile("code==200")
	if err != nil {
		t.Fatal(err)
	}
	s := NewSliceQ("slice_queue", m)

	r := newResultWithHistory(404, 1, 1)
	d := s.Process(r)
	if len(d) != 1 || d[0].Kind != queue.Discard {
		t.Fatalf("expected a discard disposition, got %+v", d)
	}
}

func TestAutoFilterStageLearnsAfterThreshold(t *testing.T) {
	a := NewAutoFilterStage(fuzzdata.NewStats())

	var last []queue.Disposition
	for i := 0; i < autoFilterThreshold; i++ {
		last = a.Process(newResultWithHistory(404, 10, 5))
	}
	if len(last) != 1 || last[0].Kind != queue.Discard {
		t.Fatalf("expected the threshold-th repeat to trigger a discard, got %+v", last)
	}

	// The next occurrence of the same fingerprint should be discarded by
	// the now-live compiled expression, without needing to re-track it.
	d := a.Process(newResultWithHistory(404, 10, 5))
	if len(d) != 1 || d[0].Kind != queue.Discard {
		t.Fatalf("expected live filter to discard repeats, got %+v", d)
	}
}

func TestAutoFilterStageIgnoresHeadProbes(t *testing.T) {
	a := NewAutoFilterStage(fuzzdata.NewStats())
	r := fuzzdata.NewResult("http://target/x", 0)
	r.Method = "HEAD"
	r.Code = 200

	d := a.Process(r)
	if len(d) != 1 || d[0].Kind != queue.Forward {
		t.Fatalf("HEAD 200 probes should always be forwarded unlearned, got %+v", d)
	}
}
