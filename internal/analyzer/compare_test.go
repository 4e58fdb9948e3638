package analyzer

import (
	"testing"

	"wenum/internal/fuzzdata"
)

func TestCompareStatusAndWordCountMatch(t *testing.T) {
	baseline := &fuzzdata.Response{Status: 200, Body: []byte("not found nonce abc123")}
	candidate := &fuzzdata.Response{Status: 200, Body: []byte("not found nonce xyz789")}

	c := Compare(baseline, candidate)
	if !c.StatusMatch {
		t.Error("expected StatusMatch true for identical status codes")
	}
	if !c.WordCountMatch {
		t.Error("expected WordCountMatch true for identical word counts")
	}
}

func TestCompareStatusMismatch(t *testing.T) {
	baseline := &fuzzdata.Response{Status: 200, Body: []byte("ok")}
	candidate := &fuzzdata.Response{Status: 404, Body: []byte("ok")}

	c := Compare(baseline, candidate)
	if c.StatusMatch {
		t.Error("expected StatusMatch false for differing status codes")
	}
}

func TestCompareWordCountMismatch(t *testing.T) {
	baseline := &fuzzdata.Response{Status: 200, Body: []byte("one two three")}
	candidate := &fuzzdata.Response{Status: 200, Body: []byte("one two")}

	c := Compare(baseline, candidate)
	if c.WordCountMatch {
		t.Error("expected WordCountMatch false for differing word counts")
	}
}

func TestCalculateSimilarityIdentical(t *testing.T) {
	if sim := CalculateSimilarity("hello world", "hello world"); sim != 1.0 {
		t.Errorf("expected similarity 1.0 for identical strings, got %f", sim)
	}
}

func TestCalculateSimilarityEmpty(t *testing.T) {
	if sim := CalculateSimilarity("", ""); sim != 1.0 {
		t.Errorf("expected similarity 1.0 for two empty strings, got %f", sim)
	}
}

func TestCalculateSimilarityDifferent(t *testing.T) {
	sim := CalculateSimilarity("abcdef", "zzzzzz")
	if sim != 0.0 {
		t.Errorf("expected similarity 0.0 for fully-disjoint strings of equal length, got %f", sim)
	}
}
