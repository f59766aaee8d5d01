// Package markup converts between XML bytes and element event streams.
package markup

import (
	"fmt"
	"io"
	"strings"

	"github.com/beevik/etree"
	"golang.org/x/net/html/charset"

	"svgdx/element"
)

// Read parses an XML document into events. The XML declaration and any
// directives are dropped.
func Read(r io.Reader) ([]element.Event, error) {
	doc := etree.NewDocument()
	doc.ReadSettings = etree.ReadSettings{
		CharsetReader: charset.NewReaderLabel,
		PreserveCData: true,
	}
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("unable to parse document: %w", err)
	}
	var out []element.Event
	for _, t := range doc.Child {
		out = appendToken(out, t)
	}
	return out, nil
}

// ReadString is Read for in-memory sources.
func ReadString(s string) ([]element.Event, error) {
	return Read(strings.NewReader(s))
}

func appendToken(out []element.Event, t etree.Token) []element.Event {
	switch t := t.(type) {
	case *etree.Element:
		attrs := make([]element.Attr, 0, len(t.Attr))
		for _, a := range t.Attr {
			attrs = append(attrs, element.Attr{Name: a.FullKey(), Value: a.Value})
		}
		el := element.New(t.FullTag(), attrs...)
		if len(t.Child) == 0 {
			return append(out, element.Empty(el))
		}
		out = append(out, element.Start(el))
		for _, c := range t.Child {
			out = appendToken(out, c)
		}
		return append(out, element.End(el))
	case *etree.CharData:
		if t.IsCData() {
			return append(out, element.CData(t.Data))
		}
		return append(out, element.Text(t.Data))
	case *etree.Comment:
		return append(out, element.Comment(t.Data))
	case *etree.ProcInst:
		if t.Target == "xml" {
			return out
		}
		return append(out, element.Event{Kind: element.EventProcInst, Target: t.Target, Text: t.Inst})
	}
	return out
}

// Write serializes events as an XML document.
func Write(w io.Writer, events []element.Event) error {
	doc, err := build(events)
	if err != nil {
		return err
	}
	if _, err := doc.WriteTo(w); err != nil {
		return fmt.Errorf("unable to write document: %w", err)
	}
	return nil
}

// WriteString is Write into a string.
func WriteString(events []element.Event) (string, error) {
	var sb strings.Builder
	if err := Write(&sb, events); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func build(events []element.Event) (*etree.Document, error) {
	doc := etree.NewDocument()
	doc.WriteSettings = etree.WriteSettings{
		CanonicalText:    true,
		CanonicalAttrVal: true,
	}
	stack := []*etree.Element{&doc.Element}
	top := func() *etree.Element { return stack[len(stack)-1] }
	open := func(el *element.Element) *etree.Element {
		e := top().CreateElement(el.Name)
		for _, a := range el.OutputAttrs() {
			e.CreateAttr(a.Name, a.Value)
		}
		return e
	}
	for _, ev := range events {
		switch ev.Kind {
		case element.EventStart:
			stack = append(stack, open(ev.Element))
		case element.EventEmpty:
			open(ev.Element)
		case element.EventEnd:
			if len(stack) == 1 || top().FullTag() != ev.Element.Name {
				return nil, fmt.Errorf("%w: unexpected </%s>", element.ErrMismatchedTag, ev.Element.Name)
			}
			stack = stack[:len(stack)-1]
		case element.EventText:
			top().CreateText(ev.Text)
		case element.EventCData:
			top().CreateCData(ev.Text)
		case element.EventComment:
			top().CreateComment(ev.Text)
		case element.EventProcInst:
			top().CreateProcInst(ev.Target, ev.Text)
		}
	}
	if len(stack) > 1 {
		return nil, fmt.Errorf("%w: <%s> is never closed", element.ErrMismatchedTag, top().FullTag())
	}
	return doc, nil
}
