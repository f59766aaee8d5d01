package transform

import (
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"svgdx/doc"
	"svgdx/element"
	"svgdx/expr"
	"svgdx/geom"
)

// reuseBehavior instantiates a template: an element of <specs> or any
// element with an id. The instance attributes form a variable frame for
// the template body, and those the body does not use as variables are
// copied onto the instantiated element.
type reuseBehavior struct{}

func (reuseBehavior) graphic() bool { return true }

func (reuseBehavior) generate(r *run, n *element.Node, order element.OrderIndex) (result, error) {
	inst, err := r.prepare(n, order)
	if err != nil {
		return result{}, err
	}
	href, ok := inst.Attrs.Take("href")
	if !ok {
		href, ok = inst.Attrs.Take("xlink:href")
	}
	href = strings.TrimSpace(href)
	if !ok || len(href) < 2 || href[0] != '#' {
		return result{}, doc.Errorf(doc.KindParse, inst, "reuse needs href=\"#id\"")
	}
	tmpl, found := r.ctx.Template(href[1:])
	if !found {
		return result{}, doc.Defer(inst, href)
	}
	if err := r.ctx.EnterDepth(inst); err != nil {
		return result{}, err
	}
	defer r.ctx.LeaveDepth()

	body := tmpl.Clone()
	if err := r.ctx.PushFrame(frameVars(inst)); err != nil {
		return result{}, err
	}
	defer r.ctx.PopFrame()
	r.log.Debug("Instantiating template",
		zap.String("template", href), zap.Stringer("order", order), zap.Int("depth", r.ctx.FrameDepth()))

	used := varsUsed(body)
	switch body.Element.Name {
	case "g", "symbol":
		body.Element.Name = "g"
		return r.reuseGroup(inst, body, order, used)
	}
	p, err := r.merge(inst, body.Element, used)
	if err != nil {
		return result{}, err
	}
	if err := p.applyShape(body.Element); err != nil {
		return result{}, err
	}
	return behaviorFor(body.Element.Name).generate(r, body, order)
}

// reuseGroup instantiates a group template. Position, rotation and the
// instance transform wrap the group content.
func (r *run) reuseGroup(inst *element.Element, body *element.Node, order element.OrderIndex, used map[string]bool) (result, error) {
	p, err := r.merge(inst, body.Element, used)
	if err != nil {
		return result{}, err
	}
	g, err := r.prepare(body, order)
	if err != nil {
		return result{}, err
	}
	res, err := containerBehavior{bbox: true}.content(r, g, body.Children)
	if err != nil {
		return result{}, err
	}

	var steps []string
	if p.transform != "" {
		steps = append(steps, p.transform)
	}
	if p.x != 0 || p.y != 0 {
		steps = append(steps, fmt.Sprintf("translate(%s, %s)", geom.Fstr(p.x), geom.Fstr(p.y)))
	}
	if p.rotate != 0 {
		if res.hasBBox {
			cx, cy := res.bbox.Center()
			steps = append(steps, fmt.Sprintf("rotate(%s, %s, %s)", geom.Fstr(p.rotate), geom.Fstr(cx), geom.Fstr(cy)))
		} else {
			steps = append(steps, fmt.Sprintf("rotate(%s)", geom.Fstr(p.rotate)))
		}
	}
	if len(steps) > 0 {
		g.PrependTransform(strings.Join(steps, " "))
	}
	if res.hasBBox && (p.x != 0 || p.y != 0) {
		res.bbox = res.bbox.Translate(p.x, p.y)
		r.ctx.Register(g, res.bbox, true)
	}
	return res, nil
}

// placement collects the instance attributes that compose with the
// template rather than replace its values.
type placement struct {
	x, y       float64
	hasX, hasY bool
	rotate     float64
	transform  string
}

// merge copies instance attributes onto the template element t. The
// instance id replaces the template id, classes and styles add up.
func (r *run) merge(inst, t *element.Element, used map[string]bool) (placement, error) {
	var p placement
	attrs := element.NewAttrs()
	if id := inst.ID(); id != "" {
		attrs.Set("id", id)
	}
	for _, a := range t.Attrs.List() {
		if a.Name != "id" {
			attrs.Set(a.Name, a.Value)
		}
	}
	t.Attrs = attrs

	if v, ok := t.Attrs.Take("rotate"); ok {
		a, err := r.number(t, "rotate", v)
		if err != nil {
			return p, err
		}
		p.rotate += a
	}
	for _, a := range inst.Attrs.List() {
		switch a.Name {
		case "id":
		case "transform":
			p.transform = a.Value
		case "rotate":
			v, err := r.number(inst, a.Name, a.Value)
			if err != nil {
				return p, err
			}
			p.rotate += v
		case "style":
			if old := strings.TrimSpace(t.Attrs.Value("style")); old != "" {
				t.Set("style", old+"; "+a.Value)
			} else {
				t.Set("style", a.Value)
			}
		case "x", "y":
			v, err := r.number(inst, a.Name, a.Value)
			if err != nil {
				return p, err
			}
			if a.Name == "x" {
				p.x, p.hasX = v, true
			} else {
				p.y, p.hasY = v, true
			}
		default:
			if !used[a.Name] {
				t.Set(a.Name, a.Value)
			}
		}
	}
	t.AddClass(inst.Classes...)
	return p, nil
}

// applyShape places a shape template: x and y replace the position of
// elements placed by them, centre circles and ellipses, and move anything
// else.
func (p placement) applyShape(t *element.Element) error {
	if p.transform != "" {
		t.PrependTransform(p.transform)
	}
	if p.rotate != 0 {
		t.Set("rotate", geom.Fstr(p.rotate))
	}
	set := func(attr string, v float64, ok bool) {
		if ok {
			t.SetNumber(attr, v)
		}
	}
	move := func(attr string, v float64, ok bool) error {
		if !ok {
			return nil
		}
		if old, has := t.Get(attr); has {
			f, err := strconv.ParseFloat(strings.TrimSpace(old), 64)
			if err != nil {
				return doc.NewError(doc.KindParse, t, attr, err)
			}
			v += f
		}
		t.SetNumber(attr, v)
		return nil
	}
	switch {
	case placedByXY(t.Name):
		set("x", p.x, p.hasX)
		set("y", p.y, p.hasY)
	case t.Name == "circle" || t.Name == "ellipse":
		set("cx", p.x, p.hasX)
		set("cy", p.y, p.hasY)
	default:
		if err := move("dx", p.x, p.hasX); err != nil {
			return err
		}
		return move("dy", p.y, p.hasY)
	}
	return nil
}

func placedByXY(name string) bool {
	switch element.ShapeOf(name) {
	case element.ShapeBox, element.ShapePoint:
		return true
	}
	switch name {
	case "tbox", "person", "pipeline":
		return true
	}
	return false
}

// number expands and parses a numeric attribute value.
func (r *run) number(el *element.Element, attr, v string) (float64, error) {
	s, err := r.ctx.Expand(v)
	if err != nil {
		return 0, exprError(el, attr, err)
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, doc.NewError(doc.KindParse, el, attr, err)
	}
	return f, nil
}

// varsUsed lists the variables referenced anywhere in a template.
func varsUsed(n *element.Node) map[string]bool {
	used := make(map[string]bool)
	n.Walk(func(c *element.Node) bool {
		if c.IsElement() {
			for _, a := range c.Element.Attrs.List() {
				for _, name := range expr.VarRefs(a.Value) {
					used[name] = true
				}
			}
			for _, cl := range c.Element.Classes {
				for _, name := range expr.VarRefs(cl) {
					used[name] = true
				}
			}
			return true
		}
		for _, name := range expr.VarRefs(c.Text) {
			used[name] = true
		}
		return true
	})
	return used
}
