package queue

import (
	"wenum/internal/fuzzdata"
)

// DispositionKind is what a Stage decided to do with an item it processed.
type DispositionKind int

const (
	// Forward sends the item to this stage's normal output.
	Forward DispositionKind = iota
	// Discard routes the item to the discard channel instead of the
	// normal output (unless the stage opts into discarded items).
	Discard
	// SendFirst bypasses ordering and is placed at the front of the
	// output queue (priority ordering is defeated deliberately).
	SendFirst
	// SendLast guarantees the item lands at the tail of the output
	// queue; used to place ENDSEED after every item of its seed.
	SendLast
	// Absorbed means the stage produced no output for this item (it was
	// consumed entirely, e.g. routed to a non-adjacent stage directly).
	Absorbed
	// Fanout is emitted by the routing stage, which is the only stage
	// permitted to write to non-adjacent stage inputs (spec §4.4).
	Fanout
)

// Disposition is the result of Stage.Process for one input item.
type Disposition struct {
	Kind   DispositionKind
	Item   fuzzdata.Item
	Target string // only meaningful when Kind == Fanout: the named input to route to
}

func ForwardTo(item fuzzdata.Item) Disposition   { return Disposition{Kind: Forward, Item: item} }
func DiscardTo(item fuzzdata.Item) Disposition   { return Disposition{Kind: Discard, Item: item} }
func SendFirstD(item fuzzdata.Item) Disposition  { return Disposition{Kind: SendFirst, Item: item} }
func SendLastD(item fuzzdata.Item) Disposition   { return Disposition{Kind: SendLast, Item: item} }
func AbsorbedD() Disposition                     { return Disposition{Kind: Absorbed} }
func FanoutTo(target string, item fuzzdata.Item) Disposition {
	return Disposition{Kind: Fanout, Item: item, Target: target}
}

// Stage is a typed message processor. Handles reports which ItemTypes
// this stage has logic for; items of any other type are forwarded
// unchanged (spec §4.1).
type Stage interface {
	Name() string
	Handles(t fuzzdata.ItemType) bool
	// Process runs stage-specific logic for one item, returning zero or
	// more dispositions (usually exactly one; a fan-out may return more
	// than one, e.g. the recursion stage emitting a new seed alongside the
	// result that triggered it).
	Process(item fuzzdata.Item) []Disposition
	// Cleanup runs once, when this stage's input is poisoned.
	Cleanup()
	// AcceptsDiscarded reports whether discarded items should still flow
	// to this stage's normal output rather than the discard channel.
	AcceptsDiscarded() bool
}

// AsyncStage may be implemented by a Stage whose work completes off the
// Process call path — the HTTP transport stage (spec §5: "one
// asynchronous HTTP stage that breaks the pure producer-consumer
// model"). BindOutput hands it the live output queue once Bind() wires
// the pipeline, so it can push completed items there directly instead
// of returning them as Dispositions.
type AsyncStage interface {
	Stage
	BindOutput(out *PriorityQueue)
}

// BaseStage provides the common no-op implementations so concrete
// stages only need to implement Process and the handled-types predicate.
type BaseStage struct {
	StageName    string
	HandledTypes map[fuzzdata.ItemType]bool
	KeepDiscards bool
}

func (b *BaseStage) Name() string { return b.StageName }

func (b *BaseStage) Handles(t fuzzdata.ItemType) bool {
	return b.HandledTypes[t]
}

func (b *BaseStage) Cleanup() {}

func (b *BaseStage) AcceptsDiscarded() bool { return b.KeepDiscards }
