package queue

import (
	"wenum/internal/fuzzdata"
)

// node is the common surface Runner and ListRunner both satisfy, letting
// Manager treat a single-worker stage and an N-worker list stage
// identically.
type node interface {
	In() *PriorityQueue
	Run()
	Wait()
	setOut(out, discard *PriorityQueue, fanouts map[string]*PriorityQueue)
	Underlying() Stage
}

type namedNode struct {
	name string
	node node
}

// Manager is the QueueManager: an ordered mapping of stage name to stage,
// wired into a pipeline at Bind time.
type Manager struct {
	nodes   []namedNode
	index   map[string]int
	results *PriorityQueue
	stats   *fuzzdata.Stats
	started bool
}

func NewManager(stats *fuzzdata.Stats) *Manager {
	return &Manager{
		index:   make(map[string]int),
		results: NewPriorityQueue(),
		stats:   stats,
	}
}

// Add appends a single-worker stage under name.
func (m *Manager) Add(name string, stage Stage) {
	m.index[name] = len(m.nodes)
	m.nodes = append(m.nodes, namedNode{name: name, node: newRunner(stage)})
}

// AddList appends an N-worker list stage (spec's FuzzListQueue), used for
// the plugin stage.
func (m *Manager) AddList(name string, stages []Stage) {
	m.index[name] = len(m.nodes)
	m.nodes = append(m.nodes, namedNode{name: name, node: newListRunner(stages)})
}

// Has reports whether a stage with this name was added.
func (m *Manager) Has(name string) bool {
	_, ok := m.index[name]
	return ok
}

// In returns the named stage's input queue, e.g. for fan-out wiring set
// up by the caller before Bind.
func (m *Manager) In(name string) *PriorityQueue {
	if idx, ok := m.index[name]; ok {
		return m.nodes[idx].node.In()
	}
	return nil
}

// MoveToEnd relocates a stage to the end of the pipeline order (used to
// place the plugin/recursion/routing stages after the filter stage when
// hard_filter is configured). A missing name is a silent no-op, matching
// the original's "queue might be inactive" tolerance.
func (m *Manager) MoveToEnd(name string) {
	idx, ok := m.index[name]
	if !ok {
		return
	}
	nn := m.nodes[idx]
	m.nodes = append(m.nodes[:idx], m.nodes[idx+1:]...)
	m.nodes = append(m.nodes, nn)
	for i, n := range m.nodes {
		m.index[n.name] = i
	}
}

// Bind wires each stage's output to the next stage's input, terminating
// at results. fanouts maps a stage name to the set of named inputs it is
// allowed to fan out to directly (only the routing stage uses this;
// spec §4.4's "routing is the only stage permitted to write to
// non-adjacent stage inputs").
func (m *Manager) Bind(fanouts map[string]map[string]string) {
	n := len(m.nodes)
	for i, nn := range m.nodes {
		var out *PriorityQueue
		if i == n-1 {
			out = m.results
		} else {
			out = m.nodes[i+1].node.In()
		}

		var fanoutTargets map[string]*PriorityQueue
		if spec, ok := fanouts[nn.name]; ok {
			fanoutTargets = make(map[string]*PriorityQueue, len(spec))
			for alias, target := range spec {
				fanoutTargets[alias] = m.In(target)
			}
		}

		nn.node.setOut(out, nil, fanoutTargets)
		if as, ok := nn.node.Underlying().(AsyncStage); ok {
			as.BindOutput(out)
		}
		go nn.node.Run()
	}
}

// Start seeds the pipeline by pushing one STARTSEED item into the head
// stage's input.
func (m *Manager) Start(targetURL string) {
	if len(m.nodes) == 0 {
		return
	}
	m.started = true
	m.nodes[0].node.In().Push(fuzzdata.NewStartSeed(targetURL, 0))
}

// Cancel marks the run cancelled and forces poison through the head of
// the pipeline so every stage drains promptly.
func (m *Manager) Cancel() {
	m.stats.Cancel()
	if len(m.nodes) > 0 {
		m.nodes[0].node.In().Push(nil)
	}
}

// Results returns the terminal queue the caller drains for RESULT items.
func (m *Manager) Results() *PriorityQueue { return m.results }

// Wait blocks until every stage has finished (its input was poisoned).
func (m *Manager) Wait() {
	for _, nn := range m.nodes {
		nn.node.Wait()
	}
}
