// Package element holds the document data model shared by the reader, the
// transform pipeline and the writer: elements with ordered attributes,
// markup events, the node tree built from them and native shape geometry.
package element

import (
	"fmt"
	"slices"
	"strings"
)

// Element is a single markup element. Classes are kept apart from the
// attribute map and merged back into "class" on output.
type Element struct {
	Name    string
	Attrs   *Attrs
	Classes []string
	Order   OrderIndex
}

// New creates an element, splitting any "class" attribute into Classes.
func New(name string, attrs ...Attr) *Element {
	el := &Element{Name: name, Attrs: NewAttrs()}
	for _, a := range attrs {
		if a.Name == "class" {
			el.AddClass(strings.Fields(a.Value)...)
			continue
		}
		el.Attrs.Set(a.Name, a.Value)
	}
	return el
}

func (el *Element) Clone() *Element {
	return &Element{
		Name:    el.Name,
		Attrs:   el.Attrs.Clone(),
		Classes: slices.Clone(el.Classes),
		Order:   slices.Clone(el.Order),
	}
}

func (el *Element) Get(name string) (string, bool) { return el.Attrs.Get(name) }
func (el *Element) Set(name, value string)         { el.Attrs.Set(name, value) }
func (el *Element) Has(name string) bool           { return el.Attrs.Has(name) }

func (el *Element) ID() string { return el.Attrs.Value("id") }

func (el *Element) HasClass(c string) bool { return slices.Contains(el.Classes, c) }

// AddClass appends classes not present yet.
func (el *Element) AddClass(classes ...string) {
	for _, c := range classes {
		if c != "" && !el.HasClass(c) {
			el.Classes = append(el.Classes, c)
		}
	}
}

// OutputAttrs returns the attributes to write, with classes merged into a
// "class" attribute placed after "id" when there is one.
func (el *Element) OutputAttrs() []Attr {
	attrs := el.Attrs.List()
	if len(el.Classes) == 0 {
		return attrs
	}
	class := Attr{Name: "class", Value: strings.Join(el.Classes, " ")}
	pos := 0
	if len(attrs) > 0 && attrs[0].Name == "id" {
		pos = 1
	}
	return slices.Insert(attrs, pos, class)
}

// Describe renders the element as an opening tag for messages.
func (el *Element) Describe() string {
	var sb strings.Builder
	sb.WriteByte('<')
	sb.WriteString(el.Name)
	for _, a := range el.OutputAttrs() {
		fmt.Fprintf(&sb, " %s=%q", a.Name, a.Value)
	}
	sb.WriteByte('>')
	return sb.String()
}

func (el *Element) String() string { return el.Describe() }
