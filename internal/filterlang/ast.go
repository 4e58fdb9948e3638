package filterlang

import (
	"fmt"
	"regexp"
	"strings"
)

// node is any evaluable term or boolean subexpression in a compiled
// filter. Evaluation carries the live Context plus the Matcher that
// owns the unique() dedup cache, since that cache's keys are the
// static source-offset of each opCall (spec §4.9 "the location key is
// the byte offset of the opCall in the source expression").
type node interface {
	eval(ctx *Context, m *Matcher) (Value, error)
}

type intLit struct{ v int64 }

func (n intLit) eval(*Context, *Matcher) (Value, error) { return Int(n.v), nil }

type strLit struct{ v string }

func (n strLit) eval(*Context, *Matcher) (Value, error) { return String(n.v), nil }

type xxxLit struct{}

func (xxxLit) eval(*Context, *Matcher) (Value, error) { return Int(xxxSentinel), nil }

type fieldRef struct{ path string }

func (n fieldRef) eval(ctx *Context, m *Matcher) (Value, error) {
	return resolveField(ctx.Result, n.path)
}

type bbbRef struct{ path string }

func (n bbbRef) eval(ctx *Context, m *Matcher) (Value, error) {
	if ctx.Baseline == nil {
		return Value{}, fmt.Errorf("BBB referenced but no baseline is set")
	}
	return resolveField(ctx.Baseline, n.path)
}

type fuzzRef struct {
	index int
	field string
}

func (n fuzzRef) eval(ctx *Context, m *Matcher) (Value, error) {
	return resolveFuzzSymbol(ctx.Result, n.index, n.field)
}

// opCall applies a pipe operator (spec opCall grammar) to base's value.
type opCall struct {
	base   node
	op     string
	args   []string
	offset int
}

func (n opCall) eval(ctx *Context, m *Matcher) (Value, error) {
	v, err := n.base.eval(ctx, m)
	if err != nil {
		return Value{}, err
	}
	return applyOp(n.op, n.args, v, n.offset, m)
}

type diffCall struct {
	base  node
	other node
}

func (n diffCall) eval(ctx *Context, m *Matcher) (Value, error) {
	a, err := n.base.eval(ctx, m)
	if err != nil {
		return Value{}, err
	}
	b, err := n.other.eval(ctx, m)
	if err != nil {
		return Value{}, err
	}
	if a.AsString() == b.AsString() {
		return String(""), nil
	}
	return String(fmt.Sprintf("- %s\n+ %s", a.AsString(), b.AsString())), nil
}

// cmpNode is a CMP_OP comparison, or (when op is an assignment op) a
// field mutation that always evaluates true on success.
type cmpNode struct {
	left    node
	op      string
	right   node
	setPath string // non-empty only when op is an assignment op
}

func (n cmpNode) eval(ctx *Context, m *Matcher) (Value, error) {
	lv, err := n.left.eval(ctx, m)
	if err != nil {
		return Value{}, err
	}
	rv, err := n.right.eval(ctx, m)
	if err != nil {
		return Value{}, err
	}

	switch n.op {
	case "=", "==":
		return Bool(lv.AsString() == rv.AsString()), nil
	case "!=":
		return Bool(lv.AsString() != rv.AsString()), nil
	case "<", ">", "<=", ">=":
		li, err := lv.AsInt()
		if err != nil {
			return Value{}, err
		}
		ri, err := rv.AsInt()
		if err != nil {
			return Value{}, err
		}
		switch n.op {
		case "<":
			return Bool(li < ri), nil
		case ">":
			return Bool(li > ri), nil
		case "<=":
			return Bool(li <= ri), nil
		default:
			return Bool(li >= ri), nil
		}
	case "=~":
		re, err := regexp.Compile("(?ms)" + rv.AsString())
		if err != nil {
			return Value{}, fmt.Errorf("invalid regex in filter: %w", err)
		}
		return Bool(re.MatchString(lv.AsString())), nil
	case "!~", "~":
		contains := containsValue(lv, rv.AsString())
		if n.op == "~" {
			return Bool(contains), nil
		}
		return Bool(!contains), nil
	case ":=":
		if err := setField(ctx.Result, n.setPath, rv); err != nil {
			return Value{}, err
		}
		return Bool(true), nil
	case "=+":
		return Bool(true), mutateField(ctx.Result, n.setPath, rv, true)
	case "=-":
		return Bool(true), mutateField(ctx.Result, n.setPath, rv, false)
	}
	return Value{}, fmt.Errorf("unsupported operator %q", n.op)
}

func containsValue(haystack Value, needle string) bool {
	needle = strings.ToLower(needle)
	switch haystack.Kind {
	case KindList:
		for _, item := range haystack.L {
			if strings.Contains(strings.ToLower(item), needle) {
				return true
			}
		}
		return false
	case KindMap:
		return strings.Contains(strings.ToLower(haystack.AsString()), needle)
	default:
		return strings.Contains(strings.ToLower(haystack.AsString()), needle)
	}
}

type notNode struct{ e node }

func (n notNode) eval(ctx *Context, m *Matcher) (Value, error) {
	v, err := n.e.eval(ctx, m)
	if err != nil {
		return Value{}, err
	}
	return Bool(!v.AsBool()), nil
}

type boolNode struct {
	op    string // "and" | "or"
	left  node
	right node
}

func (n boolNode) eval(ctx *Context, m *Matcher) (Value, error) {
	lv, err := n.left.eval(ctx, m)
	if err != nil {
		return Value{}, err
	}
	if n.op == "and" && !lv.AsBool() {
		return Bool(false), nil
	}
	if n.op == "or" && lv.AsBool() {
		return Bool(true), nil
	}
	rv, err := n.right.eval(ctx, m)
	if err != nil {
		return Value{}, err
	}
	return Bool(rv.AsBool()), nil
}

