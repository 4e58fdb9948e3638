package payload

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"net/url"

	"wenum/internal/fuzzdata"
)

// Encoding names a transform EncodedSource applies to every value drawn
// from its inner Source, kept from the teacher's
// pkg/generator/encoding.go EncodingEngine, generalized from an
// ID-obfuscation helper to a general payload-encoding wrapper.
type Encoding string

const (
	EncodingNone      Encoding = ""
	EncodingURL       Encoding = "url"
	EncodingDoubleURL Encoding = "double_url"
	EncodingBase64    Encoding = "base64"
	EncodingHex       Encoding = "hex"
	EncodingUnicode   Encoding = "unicode"
)

// EncodedSource wraps an inner Source, applying encoding to each value
// it yields (spec §6.1 `--encoder` repeatable per marker).
type EncodedSource struct {
	inner   Source
	encoder Encoding
}

func NewEncodedSource(inner Source, encoder Encoding) *EncodedSource {
	return &EncodedSource{inner: inner, encoder: encoder}
}

func (e *EncodedSource) Next() (fuzzdata.FuzzWord, bool) {
	w, ok := e.inner.Next()
	if !ok {
		return fuzzdata.FuzzWord{}, false
	}
	w.Content = Encode(w.Content, e.encoder)
	return w, true
}

func (e *EncodedSource) Reset() { e.inner.Reset() }

func (e *EncodedSource) Len() int { return e.inner.Len() }

// Encode applies method to payload, returning it unchanged for an
// unrecognized or empty method.
func Encode(payload string, method Encoding) string {
	switch method {
	case EncodingURL:
		return url.QueryEscape(payload)
	case EncodingDoubleURL:
		return url.QueryEscape(url.QueryEscape(payload))
	case EncodingBase64:
		return base64.StdEncoding.EncodeToString([]byte(payload))
	case EncodingHex:
		return hex.EncodeToString([]byte(payload))
	case EncodingUnicode:
		return unicodeEncode(payload)
	default:
		return payload
	}
}

func unicodeEncode(s string) string {
	out := make([]byte, 0, len(s)*6)
	for _, r := range s {
		out = append(out, []byte(fmt.Sprintf("\\u%04x", r))...)
	}
	return string(out)
}
