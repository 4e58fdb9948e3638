package fuzzdata

// FuzzWordType tags what kind of value a FuzzWord carries.
type FuzzWordType int

const (
	WordType FuzzWordType = iota
	FuzzResType
)

// FuzzWord is one atomic payload value bound to a marker position, plus
// the tag that tells the transport stage whether it is a plain string to
// substitute or a pre-built request to replay verbatim.
type FuzzWord struct {
	Content string
	Type    FuzzWordType
}

// PayloadManager maps a 1-based payload index (one per marker in the
// target) to the value bound for the current seed's in-flight request.
// It is created once per emitted request by the seed stage and never
// mutated afterward (spec §3 "Lifecycle").
type PayloadManager struct {
	words []FuzzWord
}

func NewPayloadManager(words []FuzzWord) *PayloadManager {
	return &PayloadManager{words: words}
}

// GetPayloadContent returns the substituted value for marker index i
// (1-based, matching FUZZ/FUZ2Z/FUZ3Z numbering).
func (pm *PayloadManager) GetPayloadContent(i int) string {
	if pm == nil || i < 1 || i > len(pm.words) {
		return ""
	}
	return pm.words[i-1].Content
}

func (pm *PayloadManager) GetPayloadType(i int) FuzzWordType {
	if pm == nil || i < 1 || i > len(pm.words) {
		return WordType
	}
	return pm.words[i-1].Type
}

func (pm *PayloadManager) Count() int {
	if pm == nil {
		return 0
	}
	return len(pm.words)
}

func (pm *PayloadManager) All() []FuzzWord {
	if pm == nil {
		return nil
	}
	return pm.words
}
