package position

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"

	"svgdx/doc"
	"svgdx/element"
	"svgdx/geom"
)

var positional = []string{
	"xy", "cxy", "xy-loc", "wh", "xy1", "xy2",
	"surround", "inside", "margin", "dx", "dy", "dw", "dh",
}

// Has reports whether el carries any positional attribute.
func Has(el *element.Element) bool {
	return slices.ContainsFunc(positional, el.Has)
}

// Fail wraps err as a parse error on attr unless it is a deferral or
// already a document error.
func Fail(el *element.Element, attr string, err error) error {
	if err == nil || errors.Is(err, doc.ErrDeferred) {
		return err
	}
	return doc.NewError(doc.KindParse, el, attr, err)
}

type resolver struct {
	el    *element.Element
	refs  Referrer
	shape element.Shape
}

// Resolve replaces the positional attributes of el with native geometry.
// Sizes (surround, inside, wh, dw, dh) are settled before locations (xy,
// cxy, xy1, xy2, dx, dy), since placing anything but the top-left corner
// needs the final size. el is left untouched when an error, including a
// deferral, is returned.
func Resolve(el *element.Element, refs Referrer) error {
	shape := element.ShapeOf(el.Name)
	if shape == element.ShapeNone || !Has(el) {
		return nil
	}
	r := &resolver{el: el.Clone(), refs: refs, shape: shape}
	if err := r.sizes(); err != nil {
		return err
	}
	if err := r.locate(); err != nil {
		return err
	}
	*el = *r.el
	return nil
}

func (r *resolver) fail(attr string, err error) error { return Fail(r.el, attr, err) }

func (r *resolver) sized() bool {
	switch r.shape {
	case element.ShapeBox, element.ShapeCircle, element.ShapeEllipse:
		return true
	}
	return false
}

// size returns the current native size; ok reports each dimension.
func (r *resolver) size() (w, h float64, okw, okh bool, err error) {
	switch r.shape {
	case element.ShapeBox:
		if w, okw, err = r.el.Number("width"); err != nil {
			return
		}
		h, okh, err = r.el.Number("height")
		return
	case element.ShapeCircle:
		var rad float64
		rad, okw, err = r.el.Number("r")
		return 2 * rad, 2 * rad, okw, okw, err
	case element.ShapeEllipse:
		var rx, ry float64
		if rx, okw, err = r.el.Number("rx"); err != nil {
			return
		}
		ry, okh, err = r.el.Number("ry")
		return 2 * rx, 2 * ry, okw, okh, err
	}
	b, ok, err := r.el.BBox()
	if err != nil || !ok {
		return 0, 0, false, false, err
	}
	return math.Abs(b.Width()), math.Abs(b.Height()), true, true, nil
}

func (r *resolver) setSize(w, h float64) {
	switch r.shape {
	case element.ShapeBox:
		r.el.SetNumber("width", w)
		r.el.SetNumber("height", h)
	case element.ShapeCircle:
		r.el.SetNumber("r", min(w, h)/2)
	case element.ShapeEllipse:
		r.el.SetNumber("rx", w/2)
		r.el.SetNumber("ry", h/2)
	}
}

func (r *resolver) sizes() error {
	for _, attr := range []string{"surround", "inside"} {
		if v, ok := r.el.Attrs.Take(attr); ok {
			if err := r.enclose(attr, v); err != nil {
				return err
			}
		}
	}
	if v, ok := r.el.Attrs.Take("wh"); ok {
		if !r.sized() {
			return r.fail("wh", fmt.Errorf("not supported on <%s>", r.el.Name))
		}
		w, h, err := r.parseSize(v)
		if err != nil {
			return r.fail("wh", err)
		}
		r.setSize(w, h)
	}
	dw, hasDW := r.el.Attrs.Take("dw")
	dh, hasDH := r.el.Attrs.Take("dh")
	if !hasDW && !hasDH {
		return nil
	}
	if !r.sized() {
		return r.fail("dw", fmt.Errorf("not supported on <%s>", r.el.Name))
	}
	w, h, _, _, err := r.size()
	if err != nil {
		return r.fail("dw", err)
	}
	if hasDW {
		l, err := ParseDelta(dw)
		if err != nil {
			return r.fail("dw", err)
		}
		w += l.Of(w)
	}
	if hasDH {
		l, err := ParseDelta(dh)
		if err != nil {
			return r.fail("dh", err)
		}
		h += l.Of(h)
	}
	r.setSize(w, h)
	return nil
}

// parseSize reads "w [h]" or "(#id|^) [dw[%]] [dh[%]]".
func (r *resolver) parseSize(v string) (float64, float64, error) {
	if !IsRef(v) {
		return geom.ParsePair(v)
	}
	ref, err := ParseRef(v)
	if err != nil {
		return 0, 0, err
	}
	if ref.Dir != 0 || ref.HasAnchor {
		return 0, 0, fmt.Errorf("size reference %q cannot carry a location", v)
	}
	b, err := r.refs.RefBBox(ref.Target)
	if err != nil {
		return 0, 0, err
	}
	w, h := math.Abs(b.Width()), math.Abs(b.Height())
	switch len(ref.Args) {
	case 0:
		return w, h, nil
	case 1, 2:
		dw, err := ParseDelta(ref.Args[0])
		if err != nil {
			return 0, 0, err
		}
		dh := dw
		if len(ref.Args) == 2 {
			if dh, err = ParseDelta(ref.Args[1]); err != nil {
				return 0, 0, err
			}
		}
		return dw.Adjust(w), dh.Adjust(h), nil
	}
	return 0, 0, fmt.Errorf("too many size adjustments in %q", v)
}

// enclose sizes the shape around (surround) or within (inside) the
// referenced boxes, adjusted by margin.
func (r *resolver) enclose(attr, v string) error {
	if !r.sized() {
		return r.fail(attr, fmt.Errorf("not supported on <%s>", r.el.Name))
	}
	targets := strings.Fields(v)
	if len(targets) == 0 {
		return r.fail(attr, errors.New("no references given"))
	}
	boxes := make([]geom.BBox, 0, len(targets))
	for _, t := range targets {
		if !IsRef(t) {
			return r.fail(attr, fmt.Errorf("%q is not an element reference", t))
		}
		b, err := r.refs.RefBBox(t)
		if err != nil {
			return err
		}
		boxes = append(boxes, b)
	}
	var (
		b  geom.BBox
		ok bool
	)
	if attr == "surround" {
		b, ok = geom.UnionAll(boxes)
	} else if b, ok = geom.IntersectAll(boxes); !ok {
		return doc.Errorf(doc.KindDocument, r.el, "inside: %s do not overlap", v)
	}
	if m, has := r.el.Attrs.Take("margin"); has {
		t, rt, bt, l, err := parseMargin(m, b)
		if err != nil {
			return r.fail("margin", err)
		}
		if attr == "inside" {
			t, rt, bt, l = -t, -rt, -bt, -l
		}
		b = b.ExpandTRBL(t, rt, bt, l)
	}
	if attr == "surround" {
		w, h := b.Width(), b.Height()
		cx, cy := b.Center()
		switch r.shape {
		case element.ShapeCircle:
			rad := math.Hypot(w, h) / 2
			b = geom.NewBBox(cx-rad, cy-rad, cx+rad, cy+rad)
		case element.ShapeEllipse:
			b = geom.NewBBox(cx-w/math.Sqrt2, cy-h/math.Sqrt2, cx+w/math.Sqrt2, cy+h/math.Sqrt2)
		}
	}
	r.el.SetBBox(b)
	return nil
}

// parseMargin reads "m", "mx my" or "t r b l". Percentages are relative to
// the box width (horizontal) or height (vertical).
func parseMargin(s string, b geom.BBox) (t, r, bt, l float64, err error) {
	parts := geom.SplitNumbers(s)
	ls := make([]geom.Length, len(parts))
	for i, p := range parts {
		if ls[i], err = ParseDelta(p); err != nil {
			return
		}
	}
	w, h := math.Abs(b.Width()), math.Abs(b.Height())
	switch len(ls) {
	case 1:
		return ls[0].Of(h), ls[0].Of(w), ls[0].Of(h), ls[0].Of(w), nil
	case 2:
		return ls[1].Of(h), ls[0].Of(w), ls[1].Of(h), ls[0].Of(w), nil
	case 4:
		return ls[0].Of(h), ls[1].Of(w), ls[2].Of(h), ls[3].Of(w), nil
	}
	err = fmt.Errorf("expected 1, 2 or 4 values, got %q", s)
	return
}

// target works out the anchor of this element to place and where.
func (r *resolver) target(attr, v string, loc geom.Loc) (geom.Loc, float64, float64, error) {
	ref, err := ParseRef(v)
	if err != nil {
		return 0, 0, 0, r.fail(attr, err)
	}
	if ref.Dir == 0 {
		x, y, err := ref.Point(r.refs, loc)
		return loc, x, y, r.fail(attr, err)
	}
	b, err := r.refs.RefBBox(ref.Target)
	if err != nil {
		return 0, 0, 0, err
	}
	var gap float64
	if len(ref.Args) == 1 {
		if gap, _, err = ref.Offset(); err != nil {
			return 0, 0, 0, r.fail(attr, err)
		}
	}
	switch ref.Dir {
	case 'h':
		x, y := b.Locspec(geom.LocRight)
		return geom.LocLeft, x + gap, y, nil
	case 'H':
		x, y := b.Locspec(geom.LocLeft)
		return geom.LocRight, x - gap, y, nil
	case 'v':
		x, y := b.Locspec(geom.LocBottom)
		return geom.LocTop, x, y + gap, nil
	default:
		x, y := b.Locspec(geom.LocTop)
		return geom.LocBottom, x, y - gap, nil
	}
}

func (r *resolver) locate() error {
	el := r.el
	if r.shape == element.ShapeLine {
		for i, attr := range []string{"xy1", "xy2"} {
			v, ok := el.Attrs.Take(attr)
			if !ok {
				continue
			}
			ref, err := ParseRef(v)
			if err != nil {
				return r.fail(attr, err)
			}
			x, y, err := ref.Point(r.refs, geom.LocCenter)
			if err != nil {
				return r.fail(attr, err)
			}
			n := fmt.Sprint(i + 1)
			el.SetNumber("x"+n, x)
			el.SetNumber("y"+n, y)
		}
	}

	loc := geom.LocTopLeft
	if v, ok := el.Attrs.Take("xy-loc"); ok {
		l, err := geom.ParseLoc(strings.TrimSpace(v))
		if err != nil {
			return r.fail("xy-loc", err)
		}
		loc = l
	}
	attr, v, ok := "cxy", "", false
	if v, ok = el.Attrs.Take("cxy"); ok {
		loc = geom.LocCenter
	}
	if xy, has := el.Attrs.Take("xy"); has {
		if ok {
			return r.fail("xy", errors.New("xy and cxy are exclusive"))
		}
		attr, v, ok = "xy", xy, true
	}
	if ok {
		l, x, y, err := r.target(attr, v, loc)
		if err != nil {
			return err
		}
		if err := r.place(attr, l, x, y); err != nil {
			return err
		}
	}

	dx, err := r.delta("dx")
	if err != nil {
		return err
	}
	dy, err := r.delta("dy")
	if err != nil {
		return err
	}
	return r.fail("dx", el.Translate(dx, dy))
}

func (r *resolver) delta(attr string) (float64, error) {
	v, ok := r.el.Attrs.Take(attr)
	if !ok {
		return 0, nil
	}
	nums, err := geom.ParseNumbers(v)
	if err == nil && len(nums) != 1 {
		err = fmt.Errorf("expected a single number, got %q", v)
	}
	if err != nil {
		return 0, r.fail(attr, err)
	}
	return nums[0], nil
}

// place puts anchor l of the element at (x, y). Boxes without a complete
// size get whatever coordinates the known dimensions allow.
func (r *resolver) place(attr string, l geom.Loc, x, y float64) error {
	el := r.el
	switch r.shape {
	case element.ShapePoint:
		el.SetNumber("x", x)
		el.SetNumber("y", y)
		return nil
	case element.ShapeLine, element.ShapePoints, element.ShapePath:
		b, ok, err := el.BBox()
		if err != nil {
			return r.fail(attr, err)
		}
		if !ok {
			return r.fail(attr, fmt.Errorf("<%s> has no geometry to place", el.Name))
		}
		b = b.Normalized()
		var p geom.Position
		p.SetWidth(b.Width())
		p.SetHeight(b.Height())
		p.SetLoc(l, x, y)
		nb, _ := p.BBox()
		return r.fail(attr, el.Translate(nb.X1-b.X1, nb.Y1-b.Y1))
	}

	w, h, okw, okh, err := r.size()
	if err != nil {
		return r.fail(attr, err)
	}
	var p geom.Position
	if okw {
		p.SetWidth(w)
	}
	if okh {
		p.SetHeight(h)
	}
	p.SetLoc(l, x, y)
	if b, ok := p.BBox(); ok {
		el.SetBBox(b)
		return nil
	}
	x1, x2, okx := p.XRange()
	y1, y2, oky := p.YRange()
	switch r.shape {
	case element.ShapeBox:
		if okx {
			el.SetNumber("x", x1)
		} else if p.XMin != nil {
			el.SetNumber("x", *p.XMin)
		}
		if oky {
			el.SetNumber("y", y1)
		} else if p.YMin != nil {
			el.SetNumber("y", *p.YMin)
		}
	default:
		if okx {
			el.SetNumber("cx", (x1+x2)/2)
		} else if p.CX != nil {
			el.SetNumber("cx", *p.CX)
		}
		if oky {
			el.SetNumber("cy", (y1+y2)/2)
		} else if p.CY != nil {
			el.SetNumber("cy", *p.CY)
		}
	}
	return nil
}

// Endpoint is one end of a connector: either a fixed point or a referenced
// box, optionally with an anchor on it.
type Endpoint struct {
	X, Y   float64
	Fixed  bool
	BBox   geom.BBox
	HasBox bool
	Dir    geom.Dir
	HasDir bool
}

// ResolveEndpoint parses a connector start/end value.
func ResolveEndpoint(el *element.Element, attr, v string, refs Referrer) (Endpoint, error) {
	ref, err := ParseRef(v)
	if err != nil {
		return Endpoint{}, Fail(el, attr, err)
	}
	if ref.Dir != 0 {
		return Endpoint{}, Fail(el, attr, fmt.Errorf("relative direction not allowed in %q", v))
	}
	if ref.Target == "" {
		x, y, err := pair(ref.Args)
		if err != nil {
			return Endpoint{}, Fail(el, attr, err)
		}
		return Endpoint{X: x, Y: y, Fixed: true}, nil
	}
	b, err := refs.RefBBox(ref.Target)
	if err != nil {
		return Endpoint{}, err
	}
	ep := Endpoint{BBox: b.Normalized(), HasBox: true}
	if !ref.HasAnchor {
		return ep, nil
	}
	dx, dy, err := ref.Offset()
	if err != nil {
		return Endpoint{}, Fail(el, attr, err)
	}
	x, y := ref.Anchor.Point(ep.BBox)
	ep.X, ep.Y, ep.Fixed = x+dx, y+dy, true
	ep.Dir, ep.HasDir = ref.Anchor.Dir()
	return ep, nil
}
