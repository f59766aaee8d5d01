package transform

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"svgdx/doc"
	"svgdx/element"
	"svgdx/geom"
	"svgdx/position"
)

// tboxPadding separates the text of a tbox from its outline.
const tboxPadding = 2

// tboxBehavior draws a rectangle sized to fit its text.
type tboxBehavior struct{}

func (tboxBehavior) graphic() bool { return true }

func (tboxBehavior) generate(r *run, n *element.Node, order element.OrderIndex) (result, error) {
	el, err := r.prepare(n, order)
	if err != nil {
		return result{}, err
	}
	el.Name = "rect"
	text, ok := el.Get("text")
	if !ok {
		lines := textOf(element.Events(n.Children...))
		text = strings.Join(lines, "\n")
		el.Set("text", text)
	}
	if !el.Has("wh") && !el.Has("width") && !el.Has("height") {
		w, h := textSize(splitLines(text), r.fontSize(el))
		el.Set("width", geom.Fstr(w+2*tboxPadding))
		el.Set("height", geom.Fstr(h+2*tboxPadding))
	}
	return r.shape(el, nil)
}

// box resolves the position of a custom shape as if it were a rectangle
// of the given default size.
func (r *run) box(el *element.Element, w, h float64) (geom.BBox, error) {
	rect := el.Clone()
	rect.Name = "rect"
	if !rect.Has("wh") {
		rect.Attrs.SetDefault("width", geom.Fstr(w))
		rect.Attrs.SetDefault("height", geom.Fstr(h))
	}
	if err := position.Resolve(rect, r.ctx); err != nil {
		return geom.BBox{}, err
	}
	b, ok, err := rect.BBox()
	if err != nil {
		return geom.BBox{}, doc.NewError(doc.KindParse, el, "", err)
	}
	if !ok {
		return geom.BBox{}, doc.Errorf(doc.KindParse, el, "size could not be determined")
	}
	return b.Normalized(), nil
}

// geometry lists the attributes a custom shape consumes.
var geometry = []string{
	"x", "y", "width", "height", "xy", "cxy", "xy-loc", "wh", "xy1", "xy2",
	"surround", "inside", "margin", "dx", "dy", "dw", "dh",
}

// personBehavior draws a stick figure filling its box.
type personBehavior struct{}

func (personBehavior) graphic() bool { return true }

func (personBehavior) generate(r *run, n *element.Node, order element.OrderIndex) (result, error) {
	el, err := r.prepare(n, order)
	if err != nil {
		return result{}, err
	}
	b, err := r.box(el, 10, 20)
	if err != nil {
		return result{}, err
	}
	g := el.Clone()
	g.Name = "g"
	g.Attrs.Delete(geometry...)
	g.AddClass("d-person")

	w, h := b.Width(), b.Height()
	cx := b.X1 + w/2
	head := math.Min(h/8, w/4)
	neck := b.Y1 + 2*head
	hip := b.Y1 + h*0.6
	arms := b.Y1 + h*0.35
	parts := []*element.Element{
		element.New("circle", num("cx", cx), num("cy", b.Y1+head), num("r", head)),
		element.New("line", num("x1", cx), num("y1", neck), num("x2", cx), num("y2", hip)),
		element.New("line", num("x1", b.X1), num("y1", arms), num("x2", b.X2), num("y2", arms)),
		element.New("polyline", element.Attr{Name: "points", Value: element.FormatPoints([][2]float64{
			{b.X1, b.Y2}, {cx, hip}, {b.X2, b.Y2},
		})}),
	}
	var content []element.Event
	for _, p := range parts {
		r.ctx.Observe(p)
		content = append(content, element.Empty(p))
	}
	if err := rotate(g, b, true); err != nil {
		return result{}, err
	}
	r.ctx.Register(g, b, true)
	r.ctx.Observe(g)
	return result{events: wrap(g, content), bbox: b, hasBBox: true}, nil
}

func num(name string, v float64) element.Attr {
	return element.Attr{Name: name, Value: geom.Fstr(v)}
}

// pipelineBehavior draws a cylinder lying along the longer side of its
// box, its visible end facing right or up.
type pipelineBehavior struct{}

func (pipelineBehavior) graphic() bool { return true }

func (pipelineBehavior) generate(r *run, n *element.Node, order element.OrderIndex) (result, error) {
	el, err := r.prepare(n, order)
	if err != nil {
		return result{}, err
	}
	b, err := r.box(el, 20, 10)
	if err != nil {
		return result{}, err
	}
	path := el.Clone()
	path.Name = "path"
	path.Attrs.Delete(geometry...)
	path.AddClass("d-pipeline")
	path.Set("d", pipelinePath(b))
	return r.shape(path, n.Children)
}

func pipelinePath(b geom.BBox) string {
	f := geom.Fstr
	x, y, w, h := b.X1, b.Y1, b.Width(), b.Height()
	if w >= h {
		rx, ry := math.Min(h/4, w/4), h/2
		return fmt.Sprintf("M %s %s A %s %s 0 0 0 %s %s L %s %s A %s %s 0 0 0 %s %s Z M %s %s A %s %s 0 0 0 %s %s",
			f(x+rx), f(y), f(rx), f(ry), f(x+rx), f(y+h),
			f(x+w-rx), f(y+h), f(rx), f(ry), f(x+w-rx), f(y),
			f(x+w-rx), f(y), f(rx), f(ry), f(x+w-rx), f(y+h))
	}
	rx, ry := w/2, math.Min(w/4, h/4)
	return fmt.Sprintf("M %s %s A %s %s 0 0 1 %s %s L %s %s A %s %s 0 0 1 %s %s Z M %s %s A %s %s 0 0 0 %s %s",
		f(x), f(y+ry), f(rx), f(ry), f(x+w), f(y+ry),
		f(x+w), f(y+h-ry), f(rx), f(ry), f(x), f(y+h-ry),
		f(x), f(y+ry), f(rx), f(ry), f(x+w), f(y+ry))
}

// gradientBehavior expands the stops, dir and length shorthand of
// gradient definitions.
type gradientBehavior struct{}

func (gradientBehavior) graphic() bool { return false }

func (gradientBehavior) generate(r *run, n *element.Node, order element.OrderIndex) (result, error) {
	el, err := r.prepare(n, order)
	if err != nil {
		return result{}, err
	}
	stops, _ := el.Attrs.Take("stops")
	dir, hasDir := el.Attrs.Take("dir")
	length, hasLength := el.Attrs.Take("length")

	l := 1.0
	if hasLength {
		v, err := position.ParseDelta(length)
		if err != nil {
			return result{}, position.Fail(el, "length", err)
		}
		l = v.Of(1)
	}
	if el.Name == "linearGradient" && (hasDir || hasLength) {
		deg := 0.0
		if hasDir {
			if deg, err = strconv.ParseFloat(strings.TrimSpace(dir), 64); err != nil {
				return result{}, doc.NewError(doc.KindParse, el, "dir", err)
			}
		}
		dx, dy := math.Cos(deg*math.Pi/180)*l/2, math.Sin(deg*math.Pi/180)*l/2
		el.SetNumber("x1", 0.5-dx)
		el.SetNumber("y1", 0.5-dy)
		el.SetNumber("x2", 0.5+dx)
		el.SetNumber("y2", 0.5+dy)
	}
	if el.Name == "radialGradient" && hasLength {
		el.SetNumber("r", l/2)
	}

	var content []element.Event
	parsed, err := parseStops(stops)
	if err != nil {
		return result{}, doc.NewError(doc.KindParse, el, "stops", err)
	}
	for _, s := range parsed {
		stop := element.New("stop",
			element.Attr{Name: "offset", Value: s.offset},
			element.Attr{Name: "stop-color", Value: s.color},
		)
		r.ctx.Observe(stop)
		content = append(content, element.Empty(stop))
	}
	inner, stalled, err := r.processList(n.Children, order)
	if err != nil {
		return result{}, err
	}
	if len(stalled) > 0 {
		return result{}, &doc.DeferredError{Element: el.Describe(), Causes: stalled}
	}
	content = append(content, inner.events...)
	r.ctx.Register(el, geom.BBox{}, false)
	r.ctx.Observe(el)
	return result{events: wrap(el, content)}, nil
}

type stop struct {
	color, offset string
}

// parseStops reads "red; blue 50%; green". Stops without an offset are
// spread evenly.
func parseStops(s string) ([]stop, error) {
	var parts []string
	for _, p := range strings.Split(s, ";") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	out := make([]stop, len(parts))
	for i, p := range parts {
		color, offset := p, ""
		if k := strings.LastIndexAny(p, " \t"); k > 0 && !strings.HasSuffix(strings.TrimSpace(p[:k]), ",") {
			tail := p[k+1:]
			if isOffset(tail) {
				color, offset = strings.TrimSpace(p[:k]), tail
			}
		}
		if offset == "" {
			frac := 0.0
			if len(parts) > 1 {
				frac = float64(i) / float64(len(parts)-1)
			}
			offset = geom.Fstr(frac*100) + "%"
		}
		if color == "" {
			return nil, fmt.Errorf("stop %q has no color", p)
		}
		out[i] = stop{color: color, offset: offset}
	}
	return out, nil
}

func isOffset(s string) bool {
	_, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
	return err == nil
}
