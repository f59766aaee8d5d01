package transform

import (
	"errors"
	"slices"
	"strings"

	"go.uber.org/zap"

	"svgdx/doc"
	"svgdx/element"
	"svgdx/geom"
)

// result is the output of one element: its events and the box it adds to
// the enclosing container, if any.
type result struct {
	events  []element.Event
	bbox    geom.BBox
	hasBBox bool
}

func (r *result) add(o result) {
	r.events = append(r.events, o.events...)
	r.addBBox(o.bbox, o.hasBBox)
}

func (r *result) addBBox(b geom.BBox, ok bool) {
	if !ok {
		return
	}
	if r.hasBBox {
		r.bbox = r.bbox.Union(b)
		return
	}
	r.bbox, r.hasBBox = b.Normalized(), true
}

// chunk is the output of one child, placed by its order index.
type chunk struct {
	order element.OrderIndex
	res   result
}

// pending is a child waiting for a reference, with the scope it was first
// seen in.
type pending struct {
	node  *element.Node
	order element.OrderIndex
	scope doc.Scope
	prev  element.OrderIndex
	err   *doc.DeferredError
}

// processList transforms sibling nodes. Children that defer are retried
// against the scope they were first met in until every child resolves or a
// pass makes no progress; the deferrals left then are returned as stalled.
// Output is assembled in source order whichever pass produced it.
func (r *run) processList(nodes []*element.Node, base element.OrderIndex) (result, []*doc.DeferredError, error) {
	var (
		chunks []chunk
		queue  []*pending
	)
	for i, n := range nodes {
		order := base.Sub(i)
		scope, prev := r.ctx.Snapshot(), r.ctx.Prev()
		res, err := r.processNode(n, order)
		if n.IsElement() && behaviorFor(n.Element.Name).graphic() {
			r.ctx.SetPrev(order)
		}
		if err != nil {
			var d *doc.DeferredError
			if !errors.As(err, &d) {
				return result{}, nil, err
			}
			queue = append(queue, &pending{node: n, order: order, scope: scope, prev: prev, err: d})
			continue
		}
		chunks = append(chunks, chunk{order: order, res: res})
	}

	for pass := 1; len(queue) > 0; pass++ {
		r.log.Debug("Retrying deferred elements",
			zap.Stringer("container", base), zap.Int("pass", pass), zap.Int("remaining", len(queue)))
		var next []*pending
		for _, p := range queue {
			live, livePrev := r.ctx.Restore(p.scope.Clone()), r.ctx.Prev()
			r.ctx.SetPrev(p.prev)
			res, err := r.processNode(p.node, p.order)
			r.ctx.Restore(live)
			r.ctx.SetPrev(livePrev)
			if err != nil {
				var d *doc.DeferredError
				if !errors.As(err, &d) {
					return result{}, nil, err
				}
				p.err = d
				next = append(next, p)
				continue
			}
			chunks = append(chunks, chunk{order: p.order, res: res})
		}
		if len(next) == len(queue) {
			stalled := make([]*doc.DeferredError, len(next))
			for i, p := range next {
				stalled[i] = p.err
				r.log.Debug("Unresolved element", zap.String("element", p.err.Error()))
			}
			return r.assemble(chunks), stalled, nil
		}
		queue = next
	}
	return r.assemble(chunks), nil, nil
}

func (r *run) assemble(chunks []chunk) result {
	slices.SortStableFunc(chunks, func(a, b chunk) int { return a.order.Compare(b.order) })
	var out result
	for i, c := range chunks {
		// whitespace before an element that produced nothing
		if i+1 < len(chunks) && isBlankText(c.res.events) && len(chunks[i+1].res.events) == 0 {
			continue
		}
		out.add(c.res)
	}
	return out
}

func isBlankText(events []element.Event) bool {
	return len(events) == 1 && events[0].Kind == element.EventText && strings.TrimSpace(events[0].Text) == ""
}

// processNode transforms a single node. Elements are cloned first, the
// source tree is never changed.
func (r *run) processNode(n *element.Node, order element.OrderIndex) (result, error) {
	if !n.IsElement() {
		return r.leaf(n)
	}
	if id := n.Element.ID(); id != "" && !strings.Contains(id, "$") && !strings.Contains(id, "{{") {
		r.ctx.RegisterOriginal(id, n)
	}
	old := r.ctx.SetCurrent(n.Element)
	defer r.ctx.SetCurrent(old)

	res, err := behaviorFor(n.Element.Name).generate(r, n, order)
	if err != nil {
		return result{}, err
	}
	if r.ctx.Options().Debug && len(res.events) > 0 {
		note := element.Comment(" " + commentSafe(n.Element.Describe()) + " ")
		res.events = append([]element.Event{note}, res.events...)
	}
	return res, nil
}

func (r *run) leaf(n *element.Node) (result, error) {
	if n.Kind != element.EventText {
		return result{events: []element.Event{{Kind: n.Kind, Text: n.Text, Target: n.Target}}}, nil
	}
	s, err := r.ctx.Expand(n.Text)
	if err != nil {
		return result{}, exprError(r.ctx.Current(), "text", err)
	}
	return result{events: []element.Event{element.Text(s)}}, nil
}

// commentSafe removes "--", which may not appear inside a comment.
func commentSafe(s string) string {
	for strings.Contains(s, "--") {
		s = strings.ReplaceAll(s, "--", "- -")
	}
	return s
}

// prepare clones and expands an element for output: attributes and classes
// are expanded, defaults applied and the id recorded.
func (r *run) prepare(n *element.Node, order element.OrderIndex) (*element.Element, error) {
	el := n.Element.Clone()
	el.Order = order
	r.ctx.SetCurrent(el)
	if err := r.expand(el); err != nil {
		return nil, err
	}
	r.ctx.ApplyDefaults(el)
	r.ctx.MarkSeen(el.ID())
	return el, nil
}

// frameVars turns the attributes of a container into variables for its
// content.
func frameVars(el *element.Element) map[string]string {
	vars := make(map[string]string, el.Attrs.Len())
	for _, a := range el.Attrs.List() {
		vars[a.Name] = a.Value
	}
	return vars
}

// wrap encloses content in el, writing it as an empty element when there
// is none.
func wrap(el *element.Element, content []element.Event) []element.Event {
	if len(content) == 0 {
		return []element.Event{element.Empty(el)}
	}
	out := make([]element.Event, 0, len(content)+2)
	out = append(out, element.Start(el))
	out = append(out, content...)
	return append(out, element.End(el))
}
