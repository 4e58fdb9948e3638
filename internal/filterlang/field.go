package filterlang

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strconv"

	"wenum/internal/fuzzdata"
)

// Context binds the live result (and optional baseline) a compiled
// expression evaluates against — the "implicit context" spec.md
// describes results being bound into at evaluation time.
type Context struct {
	Result   *fuzzdata.ResultItem
	Baseline *fuzzdata.ResultItem
}

// resolveField implements the Field abstraction spec.md's Open
// Questions section calls for in place of Python's rgetattr/rsetattr:
// a static dispatch over the declared resSym schema, rather than
// reflection over fuzzdata.ResultItem.
func resolveField(r *fuzzdata.ResultItem, path string) (Value, error) {
	if r == nil {
		return Value{}, fmt.Errorf("no result bound to filter context")
	}

	switch path {
	case "description":
		if r.Annotation != "" {
			return String(r.Annotation), nil
		}
		return String(fmt.Sprintf("%s %s", r.Method, r.URL)), nil
	case "nres":
		return Int(r.ResultNumber), nil
	case "code", "c":
		return Int(int64(r.Code)), nil
	case "chars":
		return Int(int64(r.Chars)), nil
	case "lines", "l":
		return Int(int64(r.Lines)), nil
	case "words", "w":
		return Int(int64(r.Words)), nil
	case "md5":
		return String(bodyMD5(r)), nil
	case "content":
		if r.History != nil && r.History.Response != nil {
			return String(string(r.History.Response.Body)), nil
		}
		return String(""), nil
	case "timer":
		return Int(r.Timer.Milliseconds()), nil
	case "url":
		return String(r.URL), nil
	case "h":
		return Map(headerMap(r)), nil
	}

	return resolveDotted(r, path)
}

func bodyMD5(r *fuzzdata.ResultItem) string {
	if r.History == nil || r.History.Response == nil {
		return ""
	}
	sum := md5.Sum(r.History.Response.Body)
	return hex.EncodeToString(sum[:])
}

func headerMap(r *fuzzdata.ResultItem) map[string]string {
	m := make(map[string]string)
	if r.History == nil || r.History.Response == nil {
		return m
	}
	for _, h := range r.History.Response.Headers {
		m[h.Name] = h.Value
	}
	return m
}

// resolveDotted resolves the `(r|history|plugins).field` family: "r."
// and "history." both alias the result's own namespace (the teacher's
// single FuzzResult carries both request/response and metadata), while
// "plugins." exposes aggregate plugin-finding data.
func resolveDotted(r *fuzzdata.ResultItem, path string) (Value, error) {
	prefix, rest := splitFirst(path)

	switch prefix {
	case "r", "history":
		switch rest {
		case "request.method":
			if r.History != nil && r.History.Request != nil {
				return String(r.History.Request.Method), nil
			}
			return String(""), nil
		case "request.url":
			if r.History != nil && r.History.Request != nil {
				return String(r.History.Request.URL), nil
			}
			return String(""), nil
		case "response.status":
			return Int(int64(r.Code)), nil
		case "response.body":
			if r.History != nil && r.History.Response != nil {
				return String(string(r.History.Response.Body)), nil
			}
			return String(""), nil
		case "is_baseline":
			return Bool(r.IsBaseline), nil
		case "rlevel":
			return Int(int64(r.RLevel)), nil
		case "backfeed_level":
			return Int(int64(r.BackfeedLevel)), nil
		}
	case "plugins":
		switch rest {
		case "count":
			return Int(int64(len(r.PluginsRes))), nil
		case "names":
			names := make([]string, len(r.PluginsRes))
			for i, f := range r.PluginsRes {
				names[i] = f.Plugin
			}
			return List(names), nil
		case "severity":
			sev := make([]string, len(r.PluginsRes))
			for i, f := range r.PluginsRes {
				sev[i] = f.Severity
			}
			return List(sev), nil
		}
	}

	return Value{}, fmt.Errorf("unknown field %q", path)
}

func splitFirst(path string) (string, string) {
	for i := 0; i < len(path); i++ {
		if path[i] == '.' {
			return path[:i], path[i+1:]
		}
	}
	return path, ""
}

// resolveFuzzSymbol implements fuzzSym: FUZZ/FUZ2Z/... bound to the
// payload manager, with an optional [field] suffix to pick a sub-field
// instead of the raw payload content (the only field currently exposed
// is "type", returning "word" or "fuzzres").
func resolveFuzzSymbol(r *fuzzdata.ResultItem, index int, field string) (Value, error) {
	if r.PayloadMan == nil {
		return Value{}, fmt.Errorf("no payload bound to result")
	}
	if index < 1 || index > r.PayloadMan.Count() {
		return Value{}, fmt.Errorf("non-existent FUZZ payload index %d", index)
	}

	if field == "type" {
		if r.PayloadMan.GetPayloadType(index) == fuzzdata.FuzzResType {
			return String("fuzzres"), nil
		}
		return String("word"), nil
	}

	return String(r.PayloadMan.GetPayloadContent(index)), nil
}

// xxxSentinel is the literal yielded by the `XXX` grammar token,
// matching fuzzdata.ErrorCode.
const xxxSentinel int64 = fuzzdata.ErrorCode

func parseIntLiteral(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}

// setField implements `:=`: only the "description" field is settable
// (the rest of the schema is derived from the transport result and
// has no natural assignment target).
func setField(r *fuzzdata.ResultItem, path string, v Value) error {
	if path != "description" {
		return fmt.Errorf("field %q is not settable", path)
	}
	r.Annotation = v.AsString()
	return nil
}

// mutateField implements `=+`/`=-`. `=+` appends v to the current value;
// `=-` is kept literal to upstream's quirk (documented Open Question:
// it evaluates as `y + x`, prepending v, not `x - y` subtraction).
func mutateField(r *fuzzdata.ResultItem, path string, v Value, add bool) error {
	if path != "description" {
		return fmt.Errorf("field %q is not settable", path)
	}
	current, err := resolveField(r, "description")
	if err != nil {
		return err
	}
	if add {
		r.Annotation = current.AsString() + v.AsString()
		return nil
	}
	r.Annotation = v.AsString() + current.AsString()
	return nil
}
