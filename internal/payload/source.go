// Package payload supplies the per-marker value streams the seed stage
// combines into a cartesian-product dictionary, grounded in the
// teacher's pkg/generator (numeric and UUID candidate generation) and
// IdorPlus/pkg/generator/numeric.go, generalized from IDOR candidate-ID
// guessing to general wordlist-driven content discovery.
package payload

import "wenum/internal/fuzzdata"

// Source streams the payload values for one marker position. Next
// returns false once exhausted; a Source must be safe to re-read from
// the start via Reset for seeds that reuse the same dictionary (user
// recursion rebinds the iterator but keeps the same Source set).
type Source interface {
	Next() (fuzzdata.FuzzWord, bool)
	Reset()
	Len() int
}

// Dictionary is the compiled cartesian-product iterator over N marker
// Sources for the current seed (spec's "Dictionary").
type Dictionary struct {
	sources []Source
	done    bool
	first   bool
	cur     []fuzzdata.FuzzWord
}

func NewDictionary(sources []Source) *Dictionary {
	for _, s := range sources {
		s.Reset()
	}
	return &Dictionary{sources: sources, first: true}
}

// Len reports the total number of tuples the dictionary will emit (the
// product of each source's length), used for RAM-bounded emission
// warnings and progress estimates.
func (d *Dictionary) Len() int {
	if len(d.sources) == 0 {
		return 0
	}
	total := 1
	for _, s := range d.sources {
		total *= s.Len()
	}
	return total
}

// Next returns the next payload tuple (one FuzzWord per marker) in
// odometer order: the last marker varies fastest, matching the
// original's itertools.product semantics.
func (d *Dictionary) Next() ([]fuzzdata.FuzzWord, bool) {
	if d.done || len(d.sources) == 0 {
		return nil, false
	}

	if d.first {
		d.first = false
		tuple, ok := d.pull()
		if !ok {
			d.done = true
			return nil, false
		}
		return tuple, true
	}

	if !d.advance(len(d.sources) - 1) {
		d.done = true
		return nil, false
	}
	return d.current(), true
}

func (d *Dictionary) pull() ([]fuzzdata.FuzzWord, bool) {
	tuple := make([]fuzzdata.FuzzWord, len(d.sources))
	for i, s := range d.sources {
		w, ok := s.Next()
		if !ok {
			return nil, false
		}
		tuple[i] = w
	}
	d.cur = tuple
	return tuple, true
}

// advance steps the odometer at position idx, carrying into lower
// indices (toward 0) when a source rolls over, mirroring the trailing
// marker varying fastest.
func (d *Dictionary) advance(idx int) bool {
	if idx < 0 {
		return false
	}
	if w, ok := d.sources[idx].Next(); ok {
		d.cur[idx] = w
		return true
	}
	d.sources[idx].Reset()
	w, ok := d.sources[idx].Next()
	if !ok {
		return false
	}
	d.cur[idx] = w
	return d.advance(idx - 1)
}

func (d *Dictionary) current() []fuzzdata.FuzzWord {
	out := make([]fuzzdata.FuzzWord, len(d.cur))
	copy(out, d.cur)
	return out
}

// Rebind resets the iterator to the start of the cartesian product,
// used by the seed stage when a new SEED reuses the same Source set
// against a different seed URL (spec §4.3: "On SEED, rebinds the
// payload iterator to the new seed").
func (d *Dictionary) Rebind() {
	for _, s := range d.sources {
		s.Reset()
	}
	d.done = false
	d.first = true
	d.cur = nil
}
