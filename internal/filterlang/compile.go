package filterlang

import (
	"sync"

	"wenum/internal/fuzzdata"
)

// Matcher is a compiled filter expression (spec.md's FuzzResFilter):
// reusable across results, holding only the unique() dedup cache and an
// optional baseline as mutable state.
type Matcher struct {
	root   node
	source string

	mu       sync.Mutex
	uniqueAt map[int]map[string]bool

	baselineMu sync.RWMutex
	baseline   *fuzzdata.ResultItem
}

// Compile parses expr into a reusable Matcher. A syntax error surfaces
// immediately (spec.md's IncorrectFilter); an unknown field name is only
// reported when IsVisible first evaluates it.
func Compile(expr string) (*Matcher, error) {
	root, err := parseExpr(expr)
	if err != nil {
		return nil, err
	}
	return &Matcher{root: root, source: expr, uniqueAt: make(map[int]map[string]bool)}, nil
}

// SetBaseline stores the metrics BBB-prefixed fields reference.
func (m *Matcher) SetBaseline(r *fuzzdata.ResultItem) {
	m.baselineMu.Lock()
	m.baseline = r
	m.baselineMu.Unlock()
}

// IsVisible evaluates the compiled expression against r: true means the
// result should remain visible (spec.md: "is_visible(result) returns a
// boolean").
func (m *Matcher) IsVisible(r *fuzzdata.ResultItem) (bool, error) {
	m.baselineMu.RLock()
	baseline := m.baseline
	m.baselineMu.RUnlock()

	v, err := m.root.eval(&Context{Result: r, Baseline: baseline}, m)
	if err != nil {
		return false, err
	}
	return v.AsBool(), nil
}

// Source returns the original expression text this Matcher was
// compiled from.
func (m *Matcher) Source() string { return m.source }

func (m *Matcher) checkUnique(offset int, value string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	seen, ok := m.uniqueAt[offset]
	if !ok {
		seen = make(map[string]bool)
		m.uniqueAt[offset] = seen
	}
	if seen[value] {
		return false
	}
	seen[value] = true
	return true
}
