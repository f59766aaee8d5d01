package transform

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"svgdx/doc"
	"svgdx/element"
	"svgdx/geom"
	"svgdx/position"
)

const (
	// lineSpacing is the distance between text lines in em.
	lineSpacing = 1.05
	// charWidth estimates the advance of one character in em.
	charWidth = 0.6
	// textInset keeps text placed at an edge off the outline.
	textInset = 1
)

// shapeBehavior transforms drawing elements and anything not handled by
// a more specific behavior.
type shapeBehavior struct{}

func (shapeBehavior) graphic() bool { return true }

func (shapeBehavior) generate(r *run, n *element.Node, order element.OrderIndex) (result, error) {
	el, err := r.prepare(n, order)
	if err != nil {
		return result{}, err
	}
	return r.shape(el, n.Children)
}

// textSpec is the text a shape carries in its attributes.
type textSpec struct {
	lines  []string
	loc    geom.Loc
	dx, dy float64
	style  string
}

// shape resolves the geometry of el, draws its content and any attached
// text, and registers the result.
func (r *run) shape(el *element.Element, children []*element.Node) (result, error) {
	if el.Name == "path" {
		if err := r.expandPath(el); err != nil {
			return result{}, err
		}
	}
	if err := r.connect(el); err != nil {
		return result{}, err
	}
	if err := position.Resolve(el, r.ctx); err != nil {
		return result{}, err
	}
	spec, hasText, err := takeText(el)
	if err != nil {
		return result{}, err
	}

	inner, stalled, err := r.processList(children, el.Order)
	if err != nil {
		return result{}, err
	}
	if len(stalled) > 0 {
		return result{}, &doc.DeferredError{Element: el.Describe(), Causes: stalled}
	}

	var (
		b       geom.BBox
		ok      bool
		content = inner.events
	)
	if el.Name == "text" {
		lines := spec.lines
		if hasText {
			content = append(r.textLines(el, lines), content...)
		}
		lines = append(lines, textOf(inner.events)...)
		b, ok, err = r.textBBox(el, lines)
	} else {
		b, ok, err = el.BBox()
		if err == nil {
			err = rotate(el, b, ok)
		}
	}
	if err != nil {
		return result{}, doc.NewError(doc.KindParse, el, "", err)
	}

	r.ctx.Register(el, b, ok)
	r.ctx.Observe(el)
	res := result{events: wrap(el, content), bbox: b, hasBBox: ok}
	if hasText && el.Name != "text" && ok {
		res.events = append(res.events, r.attachedText(el, spec, b)...)
	}
	return res, nil
}

func (r *run) expandPath(el *element.Element) error {
	d, ok := el.Get("d")
	if !ok {
		return nil
	}
	limit := r.ctx.Options().PathRepeatLimit
	x, err := element.ExpandRepeats(d, limit)
	if err != nil {
		var rl *element.RepeatLimitError
		if errors.As(err, &rl) {
			return doc.LimitError(el, "path repeats", rl.Count, rl.Limit)
		}
		return doc.NewError(doc.KindParse, el, "d", err)
	}
	el.Set("d", x)
	return nil
}

// rotate turns a "rotate" attribute into a rotation about the centre of
// the box.
func rotate(el *element.Element, b geom.BBox, ok bool) error {
	v, has := el.Attrs.Take("rotate")
	if !has {
		return nil
	}
	a, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return doc.NewError(doc.KindParse, el, "rotate", err)
	}
	if a == 0 {
		return nil
	}
	if !ok {
		el.PrependTransform(fmt.Sprintf("rotate(%s)", geom.Fstr(a)))
		return nil
	}
	cx, cy := b.Center()
	el.PrependTransform(fmt.Sprintf("rotate(%s, %s, %s)", geom.Fstr(a), geom.Fstr(cx), geom.Fstr(cy)))
	return nil
}

// takeText removes the text attributes from el.
func takeText(el *element.Element) (textSpec, bool, error) {
	spec := textSpec{loc: geom.LocCenter}
	text, ok := el.Attrs.Take("text")
	if el.Name == "text" {
		if ok {
			spec.lines = splitLines(text)
		}
		return spec, ok, nil
	}
	loc, hasLoc := el.Attrs.Take("text-loc")
	dx, _ := el.Attrs.Take("text-dx")
	dy, _ := el.Attrs.Take("text-dy")
	spec.style, _ = el.Attrs.Take("text-style")
	if !ok {
		return spec, false, nil
	}
	spec.lines = splitLines(text)
	if hasLoc {
		l, err := geom.ParseLoc(strings.TrimSpace(loc))
		if err != nil {
			return spec, false, doc.NewError(doc.KindParse, el, "text-loc", err)
		}
		spec.loc = l
	}
	for _, v := range []struct {
		attr, s string
		dst     *float64
	}{{"text-dx", dx, &spec.dx}, {"text-dy", dy, &spec.dy}} {
		if strings.TrimSpace(v.s) == "" {
			continue
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(v.s), 64)
		if err != nil {
			return spec, false, doc.NewError(doc.KindParse, el, v.attr, err)
		}
		*v.dst = f
	}
	return spec, true, nil
}

// splitLines splits on newlines, written literally as \n or not.
func splitLines(s string) []string {
	return strings.Split(strings.ReplaceAll(s, `\n`, "\n"), "\n")
}

// textOf collects the non blank lines of character data in events.
func textOf(events []element.Event) []string {
	var out []string
	for _, ev := range events {
		if ev.Kind != element.EventText && ev.Kind != element.EventCData {
			continue
		}
		for _, l := range strings.Split(ev.Text, "\n") {
			if l = strings.TrimSpace(l); l != "" {
				out = append(out, l)
			}
		}
	}
	return out
}

// attachedText places the text of a shape at an anchor of its box.
func (r *run) attachedText(el *element.Element, spec textSpec, b geom.BBox) []element.Event {
	b = b.Normalized()
	x, y := b.Locspec(spec.loc)
	txt := element.New("text")
	txt.AddClass("d-text")
	switch spec.loc {
	case geom.LocTopLeft, geom.LocTop, geom.LocTopRight:
		y += textInset
		txt.AddClass("d-text-top")
	case geom.LocBottomLeft, geom.LocBottom, geom.LocBottomRight:
		y -= textInset
		txt.AddClass("d-text-bottom")
	}
	switch spec.loc {
	case geom.LocTopLeft, geom.LocLeft, geom.LocBottomLeft:
		x += textInset
		txt.AddClass("d-text-left")
	case geom.LocTopRight, geom.LocRight, geom.LocBottomRight:
		x -= textInset
		txt.AddClass("d-text-right")
	}
	txt.SetNumber("x", x+spec.dx)
	txt.SetNumber("y", y+spec.dy)
	for _, c := range el.Classes {
		if strings.HasPrefix(c, "d-text-") {
			txt.AddClass(c)
		}
	}
	if spec.style != "" {
		txt.Set("style", spec.style)
	}
	r.ctx.Observe(txt)
	return wrap(txt, r.textLines(txt, spec.lines))
}

// textLines renders the content of a text element, one tspan per line
// when there are several.
func (r *run) textLines(txt *element.Element, lines []string) []element.Event {
	if len(lines) == 1 {
		return []element.Event{element.Text(lines[0])}
	}
	first := 0.0
	switch {
	case txt.HasClass("d-text-top"):
	case txt.HasClass("d-text-bottom"):
		first = -float64(len(lines)-1) * lineSpacing
	case txt.HasClass("d-text"):
		first = -float64(len(lines)-1) * lineSpacing / 2
	}
	x := txt.Attrs.Value("x")
	if x == "" {
		x = "0"
	}
	var out []element.Event
	for i, line := range lines {
		dy := lineSpacing
		if i == 0 {
			dy = first
		}
		ts := element.New("tspan",
			element.Attr{Name: "x", Value: x},
			element.Attr{Name: "dy", Value: geom.Fstr(dy) + "em"},
		)
		r.ctx.Observe(ts)
		out = append(out, wrap(ts, []element.Event{element.Text(line)})...)
	}
	return out
}

// fontSize returns the size text of el is drawn at.
func (r *run) fontSize(el *element.Element) float64 {
	fs := r.ctx.Options().FontSize
	if v, ok, err := el.Number("font-size"); err == nil && ok {
		fs = v
	}
	switch {
	case el.HasClass("d-text-small"):
		fs = fs * 2 / 3
	case el.HasClass("d-text-large"):
		fs *= 1.5
	}
	return fs
}

// textBBox estimates the box of text lines drawn by el.
func (r *run) textBBox(el *element.Element, lines []string) (geom.BBox, bool, error) {
	if len(lines) == 0 {
		return geom.BBox{}, false, nil
	}
	x, _, err := el.Number("x")
	if err != nil {
		return geom.BBox{}, false, err
	}
	y, _, err := el.Number("y")
	if err != nil {
		return geom.BBox{}, false, err
	}
	fs := r.fontSize(el)
	w, h := textSize(lines, fs)

	anchor := el.Attrs.Value("text-anchor")
	centred := el.HasClass("d-text")
	switch {
	case anchor == "end" || el.HasClass("d-text-right"):
		x -= w
	case anchor == "middle" || (centred && anchor == "" && !el.HasClass("d-text-left")):
		x -= w / 2
	}
	switch {
	case el.HasClass("d-text-top"):
	case el.HasClass("d-text-bottom"):
		y -= h
	case centred:
		y -= h / 2
	default:
		y -= fs
	}
	return geom.FromXYWH(x, y, w, h), true, nil
}

// textSize estimates the extent of lines at font size fs.
func textSize(lines []string, fs float64) (w, h float64) {
	chars := 0
	for _, l := range lines {
		chars = max(chars, utf8.RuneCountInString(l))
	}
	return float64(chars) * fs * charWidth, float64(len(lines)) * fs * lineSpacing
}
