// Package transform compiles diagram markup into plain SVG. Elements are
// resolved in passes until every forward reference is settled, and output
// is written back in source order.
package transform

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"svgdx/doc"
	"svgdx/element"
	"svgdx/expr"
	"svgdx/geom"
	"svgdx/markup"
	"svgdx/theme"
)

const (
	svgNS   = "http://www.w3.org/2000/svg"
	xlinkNS = "http://www.w3.org/1999/xlink"
)

// Transformer holds the options for a series of independent transforms.
type Transformer struct {
	opts doc.Options
	log  *zap.Logger
}

// New returns a transformer. Options are validated on every run since
// documents may change them.
func New(opts doc.Options, log *zap.Logger) *Transformer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Transformer{opts: opts, log: log.Named("transform")}
}

// run is the state of a single transform invocation.
type run struct {
	ctx *doc.Context
	log *zap.Logger
}

// Events transforms an input event stream. Either the whole document is
// transformed or an error is returned and no output is produced.
func (t *Transformer) Events(in []element.Event) ([]element.Event, error) {
	if err := t.opts.Validate(); err != nil {
		return nil, err
	}
	nodes, err := element.BuildTree(in)
	if err != nil {
		return nil, doc.NewError(doc.KindDocument, nil, "", err)
	}
	r := &run{ctx: doc.New(t.opts, t.log), log: t.log}
	return r.document(nodes)
}

// Transform reads markup from src and writes the SVG document to dst.
func (t *Transformer) Transform(src io.Reader, dst io.Writer) error {
	in, err := markup.Read(src)
	if err != nil {
		return doc.NewError(doc.KindIO, nil, "", err)
	}
	out, err := t.Events(in)
	if err != nil {
		return err
	}
	if err := markup.Write(dst, out); err != nil {
		return doc.NewError(doc.KindIO, nil, "", err)
	}
	return nil
}

// String transforms an in-memory document.
func (t *Transformer) String(src string) (string, error) {
	var sb strings.Builder
	if err := t.Transform(strings.NewReader(src), &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// document transforms the root element, keeping comments and processing
// instructions around it. Several top level elements are wrapped into a
// single svg root.
func (r *run) document(nodes []*element.Node) ([]element.Event, error) {
	var (
		root   *element.Node
		before []*element.Node
		after  []*element.Node
		roots  int
	)
	for _, n := range nodes {
		if n.IsElement() {
			roots++
		}
	}
	switch {
	case roots == 0:
		return nil, doc.Errorf(doc.KindDocument, nil, "document has no root element")
	case roots == 1:
		for _, n := range nodes {
			switch {
			case n.IsElement():
				root = n
			case n.IsBlank():
			case root == nil:
				before = append(before, n)
			default:
				after = append(after, n)
			}
		}
	default:
		root = &element.Node{Kind: element.EventStart, Element: element.New("svg"), Children: nodes}
	}
	if root.Element.Name != "svg" {
		root = &element.Node{Kind: element.EventStart, Element: element.New("svg"), Children: []*element.Node{root}}
	}

	out, err := r.root(root)
	if err != nil {
		return nil, err
	}
	events := element.Events(before...)
	events = append(events, out...)
	return append(events, element.Events(after...)...), nil
}

func (r *run) root(n *element.Node) ([]element.Event, error) {
	el := n.Element.Clone()
	el.Order = element.OrderIndex{0}
	r.ctx.SetCurrent(el)
	if err := r.expand(el); err != nil {
		return nil, err
	}

	res, stalled, err := r.processList(n.Children, el.Order)
	if err != nil {
		return nil, err
	}
	if len(stalled) > 0 {
		return nil, r.ctx.Unresolved(stalled)
	}

	opts := r.ctx.Options()
	r.size(el, res, opts)
	r.ctx.Observe(el)

	names, classes := r.ctx.Observed()
	styles, err := theme.Build(opts, names, classes, r.log)
	if err != nil {
		return nil, doc.NewError(doc.KindParse, nil, "user-stylesheet", err)
	}
	styles.Apply(el)
	for _, ev := range res.events {
		if ev.Kind == element.EventStart || ev.Kind == element.EventEmpty {
			styles.Apply(ev.Element)
		}
	}

	content := append(styles.Events(), res.events...)
	if needsXlink(content) && !el.Has("xmlns:xlink") {
		el.Set("xmlns:xlink", xlinkNS)
	}
	return wrap(el, content), nil
}

// size fills in the root geometry from the union of everything drawn.
func (r *run) size(el *element.Element, res result, opts doc.Options) {
	attrs := element.NewAttrs()
	if !el.Has("xmlns") {
		attrs.Set("xmlns", svgNS)
	}
	for _, a := range el.Attrs.List() {
		attrs.Set(a.Name, a.Value)
	}
	el.Attrs = attrs

	if res.hasBBox {
		b := res.bbox.Normalized().Expand(opts.Border, opts.Border)
		if !el.Has("width") {
			el.Set("width", geom.Fstr(b.Width()*opts.Scale))
		}
		if !el.Has("height") {
			el.Set("height", geom.Fstr(b.Height()*opts.Scale))
		}
		if !el.Has("viewBox") {
			el.Set("viewBox", fmt.Sprintf("%s %s %s %s",
				geom.Fstr(b.X1), geom.Fstr(b.Y1), geom.Fstr(b.Width()), geom.Fstr(b.Height())))
		}
		r.log.Debug("Document size", zap.Stringer("bbox", b), zap.Float64("scale", opts.Scale))
	}
	if opts.SvgStyle != "" {
		if old := strings.TrimSpace(el.Attrs.Value("style")); old != "" {
			el.Set("style", opts.SvgStyle+"; "+old)
		} else {
			el.Set("style", opts.SvgStyle)
		}
	}
}

func needsXlink(events []element.Event) bool {
	for _, ev := range events {
		if ev.Element == nil || ev.Kind == element.EventEnd {
			continue
		}
		for _, a := range ev.Element.Attrs.List() {
			if strings.HasPrefix(a.Name, "xlink:") {
				return true
			}
		}
	}
	return false
}

// expand substitutes variables and expressions in every attribute and
// class of el, in place.
func (r *run) expand(el *element.Element) error {
	for _, a := range el.Attrs.List() {
		v, err := r.ctx.Expand(a.Value)
		if err != nil {
			return exprError(el, a.Name, err)
		}
		if v != a.Value {
			el.Set(a.Name, v)
		}
	}
	var classes []string
	for _, c := range el.Classes {
		v, err := r.ctx.Expand(c)
		if err != nil {
			return exprError(el, "class", err)
		}
		classes = append(classes, strings.Fields(v)...)
	}
	el.Classes = nil
	el.AddClass(classes...)
	return nil
}

// exprError classifies expression failures: malformed expressions are
// parse errors, the rest evaluation errors.
func exprError(el *element.Element, attr string, err error) error {
	kind := doc.KindEvaluation
	var e *expr.Error
	if errors.As(err, &e) && (e.Kind == expr.ErrTokenize || e.Kind == expr.ErrParse) {
		kind = doc.KindParse
	}
	return doc.NewError(kind, el, attr, err)
}
