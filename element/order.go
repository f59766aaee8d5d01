package element

import (
	"slices"
	"strconv"
	"strings"
)

// OrderIndex is a hierarchical sort key placing generated output in
// document order. Sibling i of a parent has index parent.Sub(i); loop
// iteration k nests its body under loop.Sub(k).
type OrderIndex []int

func (o OrderIndex) Sub(i int) OrderIndex {
	out := make(OrderIndex, len(o), len(o)+1)
	copy(out, o)
	return append(out, i)
}

// Compare orders indices lexicographically, a prefix sorting first.
func (o OrderIndex) Compare(other OrderIndex) int {
	return slices.Compare(o, other)
}

func (o OrderIndex) Equal(other OrderIndex) bool {
	return slices.Equal(o, other)
}

// Key returns a string usable as a map key.
func (o OrderIndex) Key() string {
	return o.String()
}

func (o OrderIndex) String() string {
	parts := make([]string, len(o))
	for i, v := range o {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ".")
}
