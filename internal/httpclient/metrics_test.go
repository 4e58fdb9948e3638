package httpclient

import "testing"

func TestCountBodyEmpty(t *testing.T) {
	lines, words, chars := countBody(nil)
	if lines != 0 || words != 0 || chars != 0 {
		t.Fatalf("expected all zero for empty body, got %d/%d/%d", lines, words, chars)
	}
}

func TestCountBodySingleLine(t *testing.T) {
	lines, words, chars := countBody([]byte("hello world"))
	if lines != 1 {
		t.Errorf("expected 1 line, got %d", lines)
	}
	if words != 2 {
		t.Errorf("expected 2 words, got %d", words)
	}
	if chars != 11 {
		t.Errorf("expected 11 chars, got %d", chars)
	}
}

func TestCountBodyMultiLine(t *testing.T) {
	lines, words, chars := countBody([]byte("one two\nthree\n\nfour"))
	if lines != 4 {
		t.Errorf("expected 4 lines, got %d", lines)
	}
	if words != 4 {
		t.Errorf("expected 4 words, got %d", words)
	}
	if chars != len("one two\nthree\n\nfour") {
		t.Errorf("expected %d chars, got %d", len("one two\nthree\n\nfour"), chars)
	}
}
