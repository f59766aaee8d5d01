package expr

import (
	"math"
	"strconv"
	"strings"

	"cogentcore.org/core/base/randx"
)

// DefaultMaxDepth bounds variable indirection when the environment does not
// specify a limit.
const DefaultMaxDepth = 100

// Env supplies variables and randomness to the evaluator.
type Env interface {
	// Var returns the raw text value of a variable.
	Var(name string) (string, bool)
	// Rand returns the random source used by random functions.
	Rand() randx.Rand
	// MaxDepth bounds nested variable evaluation.
	MaxDepth() int
}

type evaluator struct {
	env   Env
	depth int
}

// Eval parses and evaluates an expression.
func Eval(s string, env Env) (Value, error) {
	ev := &evaluator{env: env}
	return ev.evalText(s)
}

func (ev *evaluator) evalText(s string) (Value, error) {
	n, err := Parse(s)
	if err != nil {
		return Value{}, err
	}
	v, err := n.eval(ev)
	if err != nil {
		return Value{}, withExpr(err, s)
	}
	return v, nil
}

func (n numberNode) eval(*evaluator) (Value, error) { return Number(n.v), nil }
func (n stringNode) eval(*evaluator) (Value, error) { return String(n.s), nil }

// eval resolves one level of indirection: the variable's text is itself
// evaluated, falling back to a plain string when it is not an expression.
func (n varNode) eval(ev *evaluator) (Value, error) {
	raw, ok := ev.env.Var(n.name)
	if !ok {
		return Value{}, newError(ErrUnknownVariable, "$%s is not defined", n.name)
	}
	limit := ev.env.MaxDepth()
	if limit <= 0 {
		limit = DefaultMaxDepth
	}
	if ev.depth >= limit {
		return Value{}, newError(ErrRecursion, "$%s nested deeper than %d", n.name, limit)
	}
	text := strings.TrimSpace(raw)
	if f, err := strconv.ParseFloat(text, 64); err == nil {
		return Number(f), nil
	}
	if text == "" {
		return String(raw), nil
	}
	node, err := Parse(text)
	if err != nil {
		return String(raw), nil
	}
	ev.depth++
	defer func() { ev.depth-- }()
	return node.eval(ev)
}

func (n unaryNode) eval(ev *evaluator) (Value, error) {
	x, err := n.x.eval(ev)
	if err != nil {
		return Value{}, err
	}
	return mapNumbers(x, func(f float64) (float64, error) { return -f, nil })
}

func (n listNode) eval(ev *evaluator) (Value, error) {
	items := make([]Value, 0, len(n.items))
	for _, it := range n.items {
		v, err := it.eval(ev)
		if err != nil {
			return Value{}, err
		}
		items = append(items, v)
	}
	return List(items...), nil
}

func (n callNode) eval(ev *evaluator) (Value, error) {
	fn, ok := functions[n.name]
	if !ok {
		return Value{}, newError(ErrUnknownFunction, "%s()", n.name)
	}
	args := make([]Value, 0, len(n.args))
	for _, a := range n.args {
		v, err := a.eval(ev)
		if err != nil {
			return Value{}, err
		}
		args = append(args, v)
	}
	if fn.flatten {
		args = List(args...).Items()
	}
	if len(args) < fn.min || (fn.max >= 0 && len(args) > fn.max) {
		return Value{}, arityError(n.name, fn, len(args))
	}
	return fn.call(ev, args)
}

func (n binaryNode) eval(ev *evaluator) (Value, error) {
	l, err := n.l.eval(ev)
	if err != nil {
		return Value{}, err
	}
	r, err := n.r.eval(ev)
	if err != nil {
		return Value{}, err
	}
	switch n.op {
	case "and":
		return Bool(l.Truthy() && r.Truthy()), nil
	case "or":
		return Bool(l.Truthy() || r.Truthy()), nil
	case "xor":
		return Bool(l.Truthy() != r.Truthy()), nil
	case "eq":
		return Bool(l.equal(r)), nil
	case "ne":
		return Bool(!l.equal(r)), nil
	case "lt", "le", "gt", "ge":
		return compare(n.op, l, r)
	case "+":
		if l.kind != KindList && r.kind != KindList {
			if _, ok := l.Number(); !ok {
				if _, ok := r.Number(); !ok {
					return String(l.String() + r.String()), nil
				}
			}
		}
	}
	return arith(n.op, l, r)
}

func compare(op string, l, r Value) (Value, error) {
	a, aok := l.Number()
	b, bok := r.Number()
	if !aok || !bok {
		if l.kind == KindList || r.kind == KindList {
			return Value{}, newError(ErrType, "cannot compare %s with %s", l.kind, r.kind)
		}
		c := strings.Compare(l.String(), r.String())
		a, b = float64(c), 0
	}
	switch op {
	case "lt":
		return Bool(a < b), nil
	case "le":
		return Bool(a <= b), nil
	case "gt":
		return Bool(a > b), nil
	default:
		return Bool(a >= b), nil
	}
}

func applyOp(op string, a, b float64) (float64, error) {
	switch op {
	case "+":
		return a + b, nil
	case "-":
		return a - b, nil
	case "*":
		return a * b, nil
	case "/":
		if b == 0 {
			return 0, newError(ErrDomain, "division by zero")
		}
		return a / b, nil
	case "//":
		if b == 0 {
			return 0, newError(ErrDomain, "division by zero")
		}
		return math.Floor(a / b), nil
	case "%":
		if b == 0 {
			return 0, newError(ErrDomain, "modulo by zero")
		}
		return floorMod(a, b), nil
	}
	return 0, newError(ErrParse, "unknown operator %q", op)
}

func floorMod(a, b float64) float64 {
	return a - b*math.Floor(a/b)
}

// arith applies an arithmetic operator, broadcasting over lists.
func arith(op string, l, r Value) (Value, error) {
	if l.kind != KindList && r.kind != KindList {
		a, ok := l.Number()
		if !ok {
			return Value{}, newError(ErrType, "%q is not a number", l.String())
		}
		b, ok := r.Number()
		if !ok {
			return Value{}, newError(ErrType, "%q is not a number", r.String())
		}
		v, err := applyOp(op, a, b)
		return Number(v), err
	}
	li, ri := l.Items(), r.Items()
	switch {
	case l.kind != KindList:
		li = repeat(l, len(ri))
	case r.kind != KindList:
		ri = repeat(r, len(li))
	case len(li) != len(ri):
		return Value{}, newError(ErrType, "list length mismatch (%d vs %d)", len(li), len(ri))
	}
	out := make([]Value, len(li))
	for i := range li {
		v, err := arith(op, li[i], ri[i])
		if err != nil {
			return Value{}, err
		}
		out[i] = v
	}
	return Value{kind: KindList, list: out}, nil
}

func repeat(v Value, n int) []Value {
	out := make([]Value, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// mapNumbers applies fn to a number, or to every item of a list.
func mapNumbers(v Value, fn func(float64) (float64, error)) (Value, error) {
	if v.kind == KindList {
		out := make([]Value, len(v.list))
		for i, it := range v.list {
			r, err := mapNumbers(it, fn)
			if err != nil {
				return Value{}, err
			}
			out[i] = r
		}
		return Value{kind: KindList, list: out}, nil
	}
	f, ok := v.Number()
	if !ok {
		return Value{}, newError(ErrType, "%q is not a number", v.String())
	}
	r, err := fn(f)
	if err != nil {
		return Value{}, err
	}
	return Number(r), nil
}
