package filterlang

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"wenum/internal/payload"
)

// applyOp implements the opCall operator table (spec §4.9), grounded
// directly in spec.md's EBNF — there is no single teacher precedent for
// a filter DSL, so each operator is a small, independent function in
// the teacher's preferred style (one switch arm per case, no generic
// dispatch table).
func applyOp(op string, args []string, v Value, offset int, m *Matcher) (Value, error) {
	switch op {
	case "un", "unquote":
		decoded, err := url.QueryUnescape(v.AsString())
		if err != nil {
			return Value{}, fmt.Errorf("unquote: %w", err)
		}
		return String(decoded), nil

	case "e", "encode":
		if len(args) < 1 {
			return Value{}, fmt.Errorf("encode requires a codec name")
		}
		return String(payload.Encode(v.AsString(), payload.Encoding(args[0]))), nil

	case "d", "decode":
		if len(args) < 1 {
			return Value{}, fmt.Errorf("decode requires a codec name")
		}
		return decodeValue(v.AsString(), args[0])

	case "r", "replace":
		if len(args) < 2 {
			return Value{}, fmt.Errorf("replace requires two arguments")
		}
		return String(strings.ReplaceAll(v.AsString(), args[0], args[1])), nil

	case "upper":
		return String(strings.ToUpper(v.AsString())), nil

	case "lower", "l":
		return String(strings.ToLower(v.AsString())), nil

	case "gre", "gregex":
		if len(args) < 1 {
			return Value{}, fmt.Errorf("gregex requires a pattern argument")
		}
		re, err := regexp.Compile(args[0])
		if err != nil {
			return Value{}, fmt.Errorf("invalid regex in gregex: %w", err)
		}
		matches := re.FindStringSubmatch(v.AsString())
		if len(matches) < 2 {
			return String(""), nil
		}
		return String(matches[1]), nil

	case "sw", "startswith":
		if len(args) < 1 {
			return Value{}, fmt.Errorf("startswith requires an argument")
		}
		return Bool(strings.HasPrefix(strings.TrimSpace(v.AsString()), args[0])), nil

	case "u", "unique":
		return Bool(m.checkUnique(offset, v.AsString())), nil
	}

	return Value{}, fmt.Errorf("unsupported operator %q", op)
}

func decodeValue(s string, codec string) (Value, error) {
	switch payload.Encoding(codec) {
	case payload.EncodingURL:
		decoded, err := url.QueryUnescape(s)
		if err != nil {
			return Value{}, err
		}
		return String(decoded), nil
	case payload.EncodingBase64:
		// Decoding is the inverse of payload.Encode's base64 encoder.
		decoded, err := decodeBase64(s)
		if err != nil {
			return Value{}, err
		}
		return String(decoded), nil
	case payload.EncodingHex:
		decoded, err := decodeHex(s)
		if err != nil {
			return Value{}, err
		}
		return String(decoded), nil
	default:
		return Value{}, fmt.Errorf("unknown decode codec %q", codec)
	}
}
