package payload

import "wenum/internal/fuzzdata"

// WordlistSource replays a fixed, pre-loaded slice of words (spec §6.1
// `-w FILE` or `-` for stdin). File/stdin reading is a CLI-layer
// concern; this Source only owns iteration order.
type WordlistSource struct {
	words []string
	idx   int
}

func NewWordlistSource(words []string) *WordlistSource {
	return &WordlistSource{words: words}
}

func (w *WordlistSource) Next() (fuzzdata.FuzzWord, bool) {
	if w.idx >= len(w.words) {
		return fuzzdata.FuzzWord{}, false
	}
	word := w.words[w.idx]
	w.idx++
	return fuzzdata.FuzzWord{Content: word, Type: fuzzdata.WordType}, true
}

func (w *WordlistSource) Reset() { w.idx = 0 }

func (w *WordlistSource) Len() int { return len(w.words) }

// PreBuiltSource replays a stream of fully-formed requests (spec §6.1
// `-R`-free "payload" mode, FUZZRES items whose content is consumed
// whole by the transport stage rather than substituted into a marker).
type PreBuiltSource struct {
	items []fuzzdata.FuzzWord
	idx   int
}

func NewPreBuiltSource(requests []string) *PreBuiltSource {
	items := make([]fuzzdata.FuzzWord, len(requests))
	for i, r := range requests {
		items[i] = fuzzdata.FuzzWord{Content: r, Type: fuzzdata.FuzzResType}
	}
	return &PreBuiltSource{items: items}
}

func (p *PreBuiltSource) Next() (fuzzdata.FuzzWord, bool) {
	if p.idx >= len(p.items) {
		return fuzzdata.FuzzWord{}, false
	}
	item := p.items[p.idx]
	p.idx++
	return item, true
}

func (p *PreBuiltSource) Reset() { p.idx = 0 }

func (p *PreBuiltSource) Len() int { return len(p.items) }
