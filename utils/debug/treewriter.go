// Package debug renders intermediate documents as indented text for the
// debug report.
package debug

import (
	"fmt"
	"strconv"
	"strings"

	"svgdx/element"
)

type TreeWriter struct {
	w *strings.Builder
}

func NewTreeWriter() *TreeWriter {
	return &TreeWriter{
		w: &strings.Builder{},
	}
}

func (tw TreeWriter) String() string {
	return tw.w.String()
}

func (tw TreeWriter) Line(depth int, format string, args ...any) {
	tw.indent(depth)
	fmt.Fprintf(tw.w, format, args...)
	tw.w.WriteByte('\n')
}

func (tw TreeWriter) TextBlock(depth int, label, value string) {
	tw.indent(depth)
	tw.w.WriteString(label)
	tw.w.WriteString(": ")
	tw.w.WriteString(encodeText(value))
	tw.w.WriteByte('\n')
}

func (tw TreeWriter) indent(depth int) {
	for range depth {
		tw.w.WriteString("  ")
	}
}

// Nodes writes an element tree one node per line, attributes in document
// order. Whitespace-only text is skipped.
func (tw TreeWriter) Nodes(depth int, nodes []*element.Node) {
	for _, n := range nodes {
		switch {
		case n.IsElement():
			tw.Line(depth, "%s", n.Element.Name)
			for _, a := range n.Element.OutputAttrs() {
				tw.TextBlock(depth+1, "@"+a.Name, a.Value)
			}
			tw.Nodes(depth+1, n.Children)
		case n.IsBlank():
		default:
			tw.TextBlock(depth, n.Kind.String(), n.Text)
		}
	}
}

// Events dumps an event stream as a tree. Unbalanced streams are reported
// as a single line instead.
func Events(events []element.Event) string {
	tw := NewTreeWriter()
	nodes, err := element.BuildTree(events)
	if err != nil {
		tw.Line(0, "unbalanced stream: %v", err)
		return tw.String()
	}
	tw.Nodes(0, nodes)
	return tw.String()
}

func encodeText(raw string) string {
	if raw == "" {
		return raw
	}
	return strconv.Quote(raw)
}
