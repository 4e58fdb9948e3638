// Package plugin defines the plugin ABI (spec §6.4): the capabilities
// the core expects of a plugin, and the Output sum type a plugin uses
// to report messages, findings, and synthesized seeds back to the
// pipeline. Individual plugin bodies are out of scope per spec §1 save
// for the two reference plugins in ./builtin.
package plugin

import (
	"context"

	"wenum/internal/fuzzdata"
)

// OutputKind tags which variant of Output a value carries.
type OutputKind int

const (
	KindMessage OutputKind = iota
	KindFinding
	KindSeed
)

// Output is one value a plugin emits while processing a single Result.
// A plugin may emit any number of these from one Run call.
type Output struct {
	Kind      OutputKind
	Message   string
	Severity  string // "info" | "warning" | "vulnerability", for KindFinding
	Seed      *fuzzdata.SeedItem
	Backfeed  *fuzzdata.BackfeedItem
	Exception error
}

// Plugin is the ABI every plugin implements (spec §6.4).
type Plugin interface {
	Name() string
	RunOnce() bool
	Disabled() bool
	SetDisabled(bool)
	Validate(r *fuzzdata.ResultItem) bool
	// Run executes the plugin against r, emitting zero or more Outputs
	// on out before returning. Run must return promptly when ctx is
	// cancelled (spec §5 "cancellation cascades through a context").
	Run(ctx context.Context, r *fuzzdata.ResultItem, out chan<- Output)
}

// Base provides the disabled-flag bookkeeping shared by every plugin,
// matching the teacher's small-embeddable-struct style.
type Base struct {
	disabled bool
}

func (b *Base) Disabled() bool     { return b.disabled }
func (b *Base) SetDisabled(d bool) { b.disabled = d }
