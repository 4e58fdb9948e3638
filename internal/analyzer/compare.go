// Package analyzer compares two HTTP responses, used by the false-
// positive probe (spec §4.5) to decide whether a candidate response is
// distinct from a control response; the recursion and plugin stages
// both run that probe.
package analyzer

import (
	"math"

	"wenum/internal/fuzzdata"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Comparison holds the evidence gathered comparing a probe/baseline
// response against a candidate, generalized from the teacher's
// IdorPlus/pkg/analyzer/response.go ResponseComparator (there comparing
// an authenticated baseline against an IDOR candidate; here comparing a
// nonce probe against the page under test).
type Comparison struct {
	StatusMatch    bool
	WordCountMatch bool
	LengthDiff     int
	BodySimilarity float64
}

// Compare reports how baseline and candidate differ. The pass/fail rule
// used by the false-positive probe is exactly StatusMatch &&
// WordCountMatch (spec §4.5); BodySimilarity is computed as extra
// evidence, is not part of that rule, and is not attached to findings.
func Compare(baseline, candidate *fuzzdata.Response) *Comparison {
	c := &Comparison{
		StatusMatch: baseline.Status == candidate.Status,
	}

	baseWords := countWords(baseline.Body)
	candWords := countWords(candidate.Body)
	c.WordCountMatch = baseWords == candWords

	c.LengthDiff = int(math.Abs(float64(len(baseline.Body) - len(candidate.Body))))
	c.BodySimilarity = CalculateSimilarity(string(baseline.Body), string(candidate.Body))

	return c
}

func countWords(body []byte) int {
	count := 0
	inWord := false
	for _, b := range body {
		isSpace := b == ' ' || b == '\t' || b == '\n' || b == '\r'
		if isSpace {
			inWord = false
			continue
		}
		if !inWord {
			count++
			inWord = true
		}
	}
	return count
}

// CalculateSimilarity returns a Levenshtein-based similarity ratio in
// [0,1], kept from the teacher's helper of the same name.
func CalculateSimilarity(s1, s2 string) float64 {
	if len(s1) > 8192 {
		s1 = s1[:8192]
	}
	if len(s2) > 8192 {
		s2 = s2[:8192]
	}

	dist := fuzzy.LevenshteinDistance(s1, s2)
	maxLen := math.Max(float64(len(s1)), float64(len(s2)))
	if maxLen == 0 {
		return 1.0
	}
	return 1.0 - (float64(dist) / maxLen)
}
