package payload

import "testing"

func words(s *WordlistSource) []string {
	var out []string
	for {
		w, ok := s.Next()
		if !ok {
			break
		}
		out = append(out, w.Content)
	}
	return out
}

func TestWordlistSourceIteratesInOrder(t *testing.T) {
	s := NewWordlistSource([]string{"admin", "api", "backup"})
	got := words(s)
	want := []string{"admin", "api", "backup"}
	if len(got) != len(want) {
		t.Fatalf("expected %d words, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("index %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestWordlistSourceResetRestartsIteration(t *testing.T) {
	s := NewWordlistSource([]string{"a", "b"})
	s.Next()
	s.Reset()
	w, ok := s.Next()
	if !ok || w.Content != "a" {
		t.Fatalf("expected reset to restart at 'a', got %q ok=%v", w.Content, ok)
	}
}

func TestDictionarySingleMarkerYieldsEachWordOnce(t *testing.T) {
	s := NewWordlistSource([]string{"x", "y", "z"})
	d := NewDictionary([]Source{s})

	var got []string
	for {
		tuple, ok := d.Next()
		if !ok {
			break
		}
		got = append(got, tuple[0].Content)
	}

	if len(got) != 3 {
		t.Fatalf("expected 3 tuples, got %d", len(got))
	}
}

func TestDictionaryTwoMarkersProducesCartesianProduct(t *testing.T) {
	first := NewWordlistSource([]string{"a", "b"})
	second := NewWordlistSource([]string{"1", "2", "3"})
	d := NewDictionary([]Source{first, second})

	if d.Len() != 6 {
		t.Fatalf("expected dictionary length 6, got %d", d.Len())
	}

	count := 0
	seen := make(map[string]bool)
	for {
		tuple, ok := d.Next()
		if !ok {
			break
		}
		if len(tuple) != 2 {
			t.Fatalf("expected 2-tuple, got %d entries", len(tuple))
		}
		seen[tuple[0].Content+"|"+tuple[1].Content] = true
		count++
	}

	if count != 6 {
		t.Fatalf("expected 6 total tuples, got %d", count)
	}
	if len(seen) != 6 {
		t.Fatalf("expected 6 distinct tuples, got %d", len(seen))
	}
}

func TestDictionaryEmptySourceYieldsNothing(t *testing.T) {
	d := NewDictionary([]Source{NewWordlistSource(nil)})
	if _, ok := d.Next(); ok {
		t.Fatal("expected empty source to yield no tuples")
	}
}

func TestNumericSourceIncludesBoundaries(t *testing.T) {
	s := NewNumericSource(1, 3, true)
	var seenBoundary bool
	for {
		w, ok := s.Next()
		if !ok {
			break
		}
		if w.Content == "2147483647" {
			seenBoundary = true
		}
	}
	if !seenBoundary {
		t.Fatal("expected boundary value 2147483647 to be present")
	}
}

func TestEncodedSourceAppliesEncoding(t *testing.T) {
	inner := NewWordlistSource([]string{"hello world"})
	enc := NewEncodedSource(inner, EncodingURL)

	w, ok := enc.Next()
	if !ok {
		t.Fatal("expected a value")
	}
	if w.Content != "hello+world" {
		t.Fatalf("expected url-encoded content, got %q", w.Content)
	}
}

func TestEncodeUnrecognizedMethodPassesThrough(t *testing.T) {
	if got := Encode("abc", Encoding("bogus")); got != "abc" {
		t.Fatalf("expected passthrough, got %q", got)
	}
}
