// Package filterlang implements the filter expression mini-language
// (spec §4.9): a small boolean grammar of field comparisons and
// pipeline operator calls compiled once into a reusable Matcher and
// evaluated per result. There is no teacher precedent for this
// language (spec §1 calls it out as included only because recursion and
// auto-filter depend on it); it is grounded directly in spec.md's EBNF
// and written in the small-type, small-function style the teacher uses
// for its own parsers and comparators.
package filterlang

import (
	"fmt"
	"strconv"
)

// Kind tags the dynamic type a Value carries.
type Kind int

const (
	KindBool Kind = iota
	KindInt
	KindString
	KindList
	KindMap
)

// Value is the dynamically-typed result of evaluating any term or
// expression node.
type Value struct {
	Kind Kind
	B    bool
	I    int64
	S    string
	L    []string
	M    map[string]string
}

func Bool(b bool) Value      { return Value{Kind: KindBool, B: b} }
func Int(i int64) Value      { return Value{Kind: KindInt, I: i} }
func String(s string) Value  { return Value{Kind: KindString, S: s} }
func List(l []string) Value  { return Value{Kind: KindList, L: l} }
func Map(m map[string]string) Value { return Value{Kind: KindMap, M: m} }

// AsString stringifies any Value for use in string-equality and regex
// comparisons.
func (v Value) AsString() string {
	switch v.Kind {
	case KindBool:
		if v.B {
			return "true"
		}
		return "false"
	case KindInt:
		return strconv.FormatInt(v.I, 10)
	case KindString:
		return v.S
	case KindList:
		return fmt.Sprintf("%v", v.L)
	case KindMap:
		return fmt.Sprintf("%v", v.M)
	}
	return ""
}

// AsInt coerces a Value to an integer, as required by <, >, <=, >=.
func (v Value) AsInt() (int64, error) {
	switch v.Kind {
	case KindInt:
		return v.I, nil
	case KindString:
		n, err := strconv.ParseInt(v.S, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("cannot coerce %q to int: %w", v.S, err)
		}
		return n, nil
	case KindBool:
		if v.B {
			return 1, nil
		}
		return 0, nil
	}
	return 0, fmt.Errorf("cannot coerce value to int")
}

// AsBool reports Go-style truthiness: non-zero int, non-empty string,
// non-empty list/map, or literal bool.
func (v Value) AsBool() bool {
	switch v.Kind {
	case KindBool:
		return v.B
	case KindInt:
		return v.I != 0
	case KindString:
		return v.S != ""
	case KindList:
		return len(v.L) > 0
	case KindMap:
		return len(v.M) > 0
	}
	return false
}
