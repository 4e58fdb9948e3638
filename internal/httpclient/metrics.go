package httpclient

import "bytes"

// countBody computes the line/word/char counts the reporter and filter
// language expose as lines/words/chars (spec §4.9 Field
// schema), mirroring wuzz/ffuf-style response metrics.
func countBody(body []byte) (lines, words, chars int) {
	chars = len(body)
	if len(body) == 0 {
		return 0, 0, 0
	}

	lines = bytes.Count(body, []byte("\n")) + 1

	inWord := false
	for _, b := range body {
		isSpace := b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\v' || b == '\f'
		if isSpace {
			inWord = false
			continue
		}
		if !inWord {
			words++
			inWord = true
		}
	}
	return lines, words, chars
}
