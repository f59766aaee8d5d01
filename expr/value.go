package expr

import (
	"strconv"
	"strings"

	"svgdx/geom"
)

// Kind is the tag of a Value.
type Kind int

const (
	KindNumber Kind = iota
	KindList
	KindString
	KindText
)

func (k Kind) String() string {
	return [...]string{"number", "list", "string", "text"}[k]
}

// Value is the result of evaluating an expression. Lists are flat: items
// are never lists themselves.
type Value struct {
	kind Kind
	num  float64
	str  string
	list []Value
}

func Number(v float64) Value { return Value{kind: KindNumber, num: v} }
func String(s string) Value  { return Value{kind: KindString, str: s} }
func Text(s string) Value    { return Value{kind: KindText, str: s} }

// List builds a flat list, splicing any list items into it.
func List(items ...Value) Value {
	out := make([]Value, 0, len(items))
	for _, it := range items {
		if it.kind == KindList {
			out = append(out, it.list...)
		} else {
			out = append(out, it)
		}
	}
	return Value{kind: KindList, list: out}
}

// Numbers builds a list of numbers.
func Numbers(vs ...float64) Value {
	out := make([]Value, len(vs))
	for i, v := range vs {
		out[i] = Number(v)
	}
	return Value{kind: KindList, list: out}
}

func Bool(b bool) Value {
	if b {
		return Number(1)
	}
	return Number(0)
}

func (v Value) Kind() Kind { return v.kind }

// Items returns the items of a list, or the value itself as a one item
// slice.
func (v Value) Items() []Value {
	if v.kind == KindList {
		return v.list
	}
	return []Value{v}
}

// Number returns the numeric value. Strings holding a number are accepted.
func (v Value) Number() (float64, bool) {
	switch v.kind {
	case KindNumber:
		return v.num, true
	case KindString, KindText:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.str), 64)
		return f, err == nil
	case KindList:
		if len(v.list) == 1 {
			return v.list[0].Number()
		}
	}
	return 0, false
}

// Truthy reports non-zero numbers and non-empty strings and lists.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindNumber:
		return v.num != 0
	case KindList:
		return len(v.list) > 0
	default:
		return v.str != ""
	}
}

// String renders the value for use in an attribute.
func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return geom.Fstr(v.num)
	case KindList:
		parts := make([]string, len(v.list))
		for i, it := range v.list {
			parts[i] = it.String()
		}
		return strings.Join(parts, ", ")
	default:
		return v.str
	}
}

func (v Value) equal(o Value) bool {
	if a, ok := v.Number(); ok {
		if b, ok := o.Number(); ok {
			return a == b
		}
	}
	if v.kind == KindList || o.kind == KindList {
		vi, oi := v.Items(), o.Items()
		if len(vi) != len(oi) {
			return false
		}
		for i := range vi {
			if !vi[i].equal(oi[i]) {
				return false
			}
		}
		return true
	}
	return v.String() == o.String()
}
