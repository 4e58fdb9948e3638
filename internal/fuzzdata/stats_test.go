package fuzzdata

import "testing"

func TestStatsProcessedNeverExceedsPendingFuzz(t *testing.T) {
	s := NewStats()
	s.IncPendingFuzz(3)
	s.IncProcessed()
	s.IncProcessed()

	if s.Processed() > s.PendingFuzz() {
		t.Fatalf("processed (%d) must not exceed pending_fuzz (%d)", s.Processed(), s.PendingFuzz())
	}
}

func TestStatsCancelledIsSticky(t *testing.T) {
	s := NewStats()
	if s.Cancelled() {
		t.Fatalf("expected fresh Stats to be uncancelled")
	}

	s.Cancel()
	s.Cancel()

	if !s.Cancelled() {
		t.Fatalf("expected Cancelled to stay true after Cancel")
	}
}

func TestStatsSeedListAppendOnly(t *testing.T) {
	s := NewStats()
	s.AppendSeed("http://h/FUZZ")
	s.AppendSeed("http://h/admin/FUZZ")

	list := s.SeedList()
	if len(list) != 2 || list[0] != "http://h/FUZZ" || list[1] != "http://h/admin/FUZZ" {
		t.Fatalf("unexpected seed list: %v", list)
	}
}
