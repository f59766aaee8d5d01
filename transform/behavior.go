package transform

import (
	"go.uber.org/zap"

	"svgdx/doc"
	"svgdx/element"
)

// behavior is how one kind of element is transformed.
type behavior interface {
	generate(r *run, n *element.Node, order element.OrderIndex) (result, error)
	// graphic reports whether the element becomes the target of "^" for
	// the elements that follow it.
	graphic() bool
}

var behaviors = map[string]behavior{
	"loop":           loopBehavior{},
	"for":            forBehavior{},
	"if":             ifBehavior{},
	"var":            varBehavior{},
	"config":         configBehavior{},
	"defaults":       defaultsBehavior{},
	"specs":          specsBehavior{},
	"reuse":          reuseBehavior{},
	"linearGradient": gradientBehavior{},
	"radialGradient": gradientBehavior{},
	"tbox":           tboxBehavior{},
	"person":         personBehavior{},
	"pipeline":       pipelineBehavior{},
	"style":          rawBehavior{},
	"script":         rawBehavior{},
	"title":          rawBehavior{},
	"desc":           rawBehavior{},
	"metadata":       rawBehavior{},
	"g":              containerBehavior{bbox: true},
	"a":              containerBehavior{bbox: true},
	"switch":         containerBehavior{bbox: true},
	"defs":           containerBehavior{},
	"symbol":         containerBehavior{},
	"marker":         containerBehavior{},
	"mask":           containerBehavior{},
	"clipPath":       containerBehavior{},
	"pattern":        containerBehavior{},
	"filter":         containerBehavior{},
}

// behaviorFor maps every element name to a behavior, plain shapes being
// the fallback.
func behaviorFor(name string) behavior {
	if b, ok := behaviors[name]; ok {
		return b
	}
	return shapeBehavior{}
}

// containerBehavior transforms elements holding other elements. Their
// attributes become a variable frame for the content. Only some containers
// draw their content where it is, the others contribute no box.
type containerBehavior struct {
	bbox bool
}

func (c containerBehavior) graphic() bool { return c.bbox }

func (c containerBehavior) generate(r *run, n *element.Node, order element.OrderIndex) (result, error) {
	el, err := r.prepare(n, order)
	if err != nil {
		return result{}, err
	}
	return c.content(r, el, n.Children)
}

func (c containerBehavior) content(r *run, el *element.Element, children []*element.Node) (result, error) {
	if err := r.ctx.EnterDepth(el); err != nil {
		return result{}, err
	}
	defer r.ctx.LeaveDepth()
	if err := r.ctx.PushFrame(frameVars(el)); err != nil {
		return result{}, err
	}
	inner, stalled, err := r.processList(children, el.Order)
	r.ctx.PopFrame()
	if err != nil {
		return result{}, err
	}
	if len(stalled) > 0 {
		return result{}, &doc.DeferredError{Element: el.Describe(), Causes: stalled}
	}

	if err := rotate(el, inner.bbox, inner.hasBBox); err != nil {
		return result{}, err
	}
	r.ctx.Register(el, inner.bbox, inner.hasBBox)
	r.ctx.Observe(el)

	res := result{events: wrap(el, inner.events)}
	if c.bbox {
		res.bbox, res.hasBBox = inner.bbox, inner.hasBBox
	}
	return res, nil
}

// rawBehavior copies content verbatim: style sheets, scripts and
// descriptive text are not expanded.
type rawBehavior struct{}

func (rawBehavior) graphic() bool { return false }

func (rawBehavior) generate(r *run, n *element.Node, order element.OrderIndex) (result, error) {
	el, err := r.prepare(n, order)
	if err != nil {
		return result{}, err
	}
	r.ctx.Observe(el)
	return result{events: wrap(el, element.Events(n.Children...))}, nil
}

// varBehavior assigns variables. Each attribute sees the ones before it.
type varBehavior struct{}

func (varBehavior) graphic() bool { return false }

func (varBehavior) generate(r *run, n *element.Node, order element.OrderIndex) (result, error) {
	el := n.Element.Clone()
	el.Order = order
	r.ctx.SetCurrent(el)
	for _, a := range el.Attrs.List() {
		v, err := r.ctx.Expand(a.Value)
		if err != nil {
			return result{}, exprError(el, a.Name, err)
		}
		if err := r.ctx.SetVar(a.Name, v); err != nil {
			return result{}, err
		}
	}
	return result{}, nil
}

// configBehavior changes transform options from inside the document.
type configBehavior struct{}

func (configBehavior) graphic() bool { return false }

func (configBehavior) generate(r *run, n *element.Node, order element.OrderIndex) (result, error) {
	el, err := r.prepare(n, order)
	if err != nil {
		return result{}, err
	}
	for _, a := range el.Attrs.List() {
		if err := r.ctx.SetOption(a.Name, a.Value); err != nil {
			return result{}, doc.NewError(doc.KindParse, el, a.Name, err)
		}
		r.log.Debug("Option changed", zap.String("name", a.Name), zap.String("value", a.Value))
	}
	return result{}, nil
}

// defaultsBehavior registers attribute defaults for the elements that
// follow.
type defaultsBehavior struct{}

func (defaultsBehavior) graphic() bool { return false }

func (defaultsBehavior) generate(r *run, n *element.Node, order element.OrderIndex) (result, error) {
	for i, ch := range n.Children {
		if !ch.IsElement() {
			continue
		}
		d := ch.Element.Clone()
		d.Order = order.Sub(i)
		r.ctx.SetCurrent(d)
		if err := r.expand(d); err != nil {
			return result{}, err
		}
		r.ctx.AddDefault(d)
	}
	return result{}, nil
}

// specsBehavior records templates for reuse. Nothing inside is drawn.
type specsBehavior struct{}

func (specsBehavior) graphic() bool { return false }

func (specsBehavior) generate(r *run, n *element.Node, order element.OrderIndex) (result, error) {
	var err error
	n.Walk(func(c *element.Node) bool {
		if c != n && c.IsElement() && c.Element.Name == "specs" {
			err = doc.Errorf(doc.KindReference, c.Element, "specs may not be nested")
			return false
		}
		return true
	})
	if err != nil {
		return result{}, err
	}
	for _, ch := range n.Children {
		if !ch.IsElement() {
			continue
		}
		id := ch.Element.ID()
		if id == "" {
			return result{}, doc.Errorf(doc.KindParse, ch.Element, "template needs an id")
		}
		r.ctx.AddTemplate(id, ch)
		r.ctx.MarkSeen(id)
	}
	return result{}, nil
}
