package queue

import (
	"testing"

	"wenum/internal/fuzzdata"
)

// echoStage rewrites each STARTSEED item into a RESULT carrying the
// seed URL so the test can observe it come out the far end.
type echoStage struct {
	BaseStage
}

func newEchoStage() *echoStage {
	return &echoStage{BaseStage{StageName: "echo", HandledTypes: map[fuzzdata.ItemType]bool{fuzzdata.StartSeed: true}}}
}

func (e *echoStage) Process(item fuzzdata.Item) []Disposition {
	marker := item.(*fuzzdata.Marker)
	result := fuzzdata.NewResult(marker.SeedURL, 0)
	return []Disposition{ForwardTo(result)}
}

func TestManagerStartFlowsThroughToResults(t *testing.T) {
	stats := fuzzdata.NewStats()
	m := NewManager(stats)
	m.Add("echo", newEchoStage())
	m.Bind(nil)

	m.Start("http://h/FUZZ")

	item, ok := m.Results().Pop()
	if !ok || item == nil {
		t.Fatalf("expected a result item, got ok=%v item=%v", ok, item)
	}
	result, isResult := item.(*fuzzdata.ResultItem)
	if !isResult {
		t.Fatalf("expected *fuzzdata.ResultItem, got %T", item)
	}
	if result.URL != "http://h/FUZZ" {
		t.Fatalf("expected echoed URL, got %q", result.URL)
	}
}

func TestManagerMoveToEndReorders(t *testing.T) {
	stats := fuzzdata.NewStats()
	m := NewManager(stats)
	m.Add("a", newEchoStage())
	m.Add("b", newEchoStage())
	m.Add("c", newEchoStage())

	m.MoveToEnd("a")

	order := make([]string, len(m.nodes))
	for i, n := range m.nodes {
		order[i] = n.name
	}
	if order[0] != "b" || order[1] != "c" || order[2] != "a" {
		t.Fatalf("unexpected order after MoveToEnd: %v", order)
	}
}

func TestManagerMoveToEndMissingNameIsNoop(t *testing.T) {
	stats := fuzzdata.NewStats()
	m := NewManager(stats)
	m.Add("a", newEchoStage())

	m.MoveToEnd("does-not-exist")

	if len(m.nodes) != 1 || m.nodes[0].name != "a" {
		t.Fatalf("expected no change, got %v", m.nodes)
	}
}
