package element

import (
	"errors"
	"fmt"
	"strings"
)

// EventKind identifies a markup event.
type EventKind int

const (
	EventStart EventKind = iota
	EventEmpty
	EventEnd
	EventText
	EventCData
	EventComment
	EventProcInst
)

func (k EventKind) String() string {
	return [...]string{"start", "empty", "end", "text", "cdata", "comment", "procinst"}[k]
}

// Event is one item of the ordered markup stream. Element is set for
// start, empty and end events; Text holds character data, comments and
// processing instruction bodies (Target names the instruction).
type Event struct {
	Kind    EventKind
	Element *Element
	Text    string
	Target  string
}

func Start(el *Element) Event { return Event{Kind: EventStart, Element: el} }
func Empty(el *Element) Event { return Event{Kind: EventEmpty, Element: el} }
func End(el *Element) Event   { return Event{Kind: EventEnd, Element: el} }
func Text(s string) Event     { return Event{Kind: EventText, Text: s} }
func CData(s string) Event    { return Event{Kind: EventCData, Text: s} }
func Comment(s string) Event  { return Event{Kind: EventComment, Text: s} }

// Node is an element with its content, or a character data, comment or
// processing instruction leaf.
type Node struct {
	Kind     EventKind
	Element  *Element
	Text     string
	Target   string
	Children []*Node
	// Empty records whether the element was written as <x/>.
	Empty bool
}

// IsElement reports whether the node wraps an element.
func (n *Node) IsElement() bool { return n.Element != nil }

// IsBlank reports whether the node is whitespace-only text.
func (n *Node) IsBlank() bool {
	return n.Kind == EventText && strings.TrimSpace(n.Text) == ""
}

// Clone deep copies the node and its subtree.
func (n *Node) Clone() *Node {
	c := &Node{Kind: n.Kind, Text: n.Text, Target: n.Target, Empty: n.Empty}
	if n.Element != nil {
		c.Element = n.Element.Clone()
	}
	if len(n.Children) > 0 {
		c.Children = make([]*Node, len(n.Children))
		for i, ch := range n.Children {
			c.Children[i] = ch.Clone()
		}
	}
	return c
}

// Walk visits the node and its descendants depth first until fn returns
// false.
func (n *Node) Walk(fn func(*Node) bool) bool {
	if !fn(n) {
		return false
	}
	for _, ch := range n.Children {
		if !ch.Walk(fn) {
			return false
		}
	}
	return true
}

// ErrMismatchedTag is returned by BuildTree for unbalanced streams.
var ErrMismatchedTag = errors.New("mismatched tag")

// BuildTree nests a flat event stream.
func BuildTree(events []Event) ([]*Node, error) {
	var (
		roots []*Node
		stack []*Node
	)
	add := func(n *Node) {
		if len(stack) == 0 {
			roots = append(roots, n)
			return
		}
		top := stack[len(stack)-1]
		top.Children = append(top.Children, n)
	}
	for _, ev := range events {
		switch ev.Kind {
		case EventStart:
			n := &Node{Kind: EventStart, Element: ev.Element}
			add(n)
			stack = append(stack, n)
		case EventEmpty:
			add(&Node{Kind: EventStart, Element: ev.Element, Empty: true})
		case EventEnd:
			if len(stack) == 0 {
				return nil, fmt.Errorf("%w: unexpected </%s>", ErrMismatchedTag, ev.Element.Name)
			}
			top := stack[len(stack)-1]
			if top.Element.Name != ev.Element.Name {
				return nil, fmt.Errorf("%w: </%s> closes <%s>", ErrMismatchedTag, ev.Element.Name, top.Element.Name)
			}
			stack = stack[:len(stack)-1]
		default:
			add(&Node{Kind: ev.Kind, Text: ev.Text, Target: ev.Target})
		}
	}
	if len(stack) > 0 {
		return nil, fmt.Errorf("%w: <%s> is never closed", ErrMismatchedTag, stack[len(stack)-1].Element.Name)
	}
	return roots, nil
}

// Events flattens nodes back into a stream. Elements without children are
// written as empty elements.
func Events(nodes ...*Node) []Event {
	var out []Event
	for _, n := range nodes {
		out = n.appendEvents(out)
	}
	return out
}

func (n *Node) appendEvents(out []Event) []Event {
	if n.Element == nil {
		return append(out, Event{Kind: n.Kind, Text: n.Text, Target: n.Target})
	}
	if len(n.Children) == 0 {
		return append(out, Empty(n.Element))
	}
	out = append(out, Start(n.Element))
	for _, ch := range n.Children {
		out = ch.appendEvents(out)
	}
	return append(out, End(n.Element))
}
