package payload

import (
	"fmt"

	"wenum/internal/fuzzdata"
)

// NumericSource generates a bounded sequential numeric range plus a
// fixed set of boundary values, grounded on the teacher's
// IdorPlus/pkg/generator/numeric.go (there used to guess IDOR candidate
// IDs; here the same sequence doubles as a numeric content-discovery
// payload set, e.g. `/api/v1/FUZZ` over resource indices).
type NumericSource struct {
	values []string
	idx    int
}

var numericBoundaries = []string{
	"0", "1", "-1",
	"999", "1000", "1001",
	"9999", "10000",
	"2147483647",
	"-2147483648",
}

// NewNumericSource builds a source covering [start, start+count).
func NewNumericSource(start, count int, includeBoundaries bool) *NumericSource {
	values := make([]string, 0, count+len(numericBoundaries))
	for i := 0; i < count; i++ {
		values = append(values, fmt.Sprintf("%d", start+i))
	}
	if includeBoundaries {
		values = append(values, numericBoundaries...)
	}
	return &NumericSource{values: values}
}

func (n *NumericSource) Next() (fuzzdata.FuzzWord, bool) {
	if n.idx >= len(n.values) {
		return fuzzdata.FuzzWord{}, false
	}
	v := n.values[n.idx]
	n.idx++
	return fuzzdata.FuzzWord{Content: v, Type: fuzzdata.WordType}, true
}

func (n *NumericSource) Reset() { n.idx = 0 }

func (n *NumericSource) Len() int { return len(n.values) }
