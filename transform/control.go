package transform

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"svgdx/doc"
	"svgdx/element"
	"svgdx/expr"
	"svgdx/geom"
)

// body runs the content of a control element once with its own frame. The
// output of iteration k is ordered under order.Sub(k).
func (r *run) body(el *element.Element, children []*element.Node, order element.OrderIndex, vars map[string]string) (result, error) {
	if err := r.ctx.PushFrame(vars); err != nil {
		return result{}, err
	}
	res, stalled, err := r.processList(children, order)
	r.ctx.PopFrame()
	if err != nil {
		return result{}, err
	}
	if len(stalled) > 0 {
		return result{}, &doc.DeferredError{Element: el.Describe(), Causes: stalled}
	}
	return res, nil
}

// condition evaluates a raw test expression against the current scope.
func (r *run) condition(el *element.Element, attr, test string) (bool, error) {
	v, err := r.ctx.Eval(test)
	if err != nil {
		return false, exprError(el, attr, err)
	}
	return v.Truthy(), nil
}

// loopBehavior repeats its content a number of times, or while or until a
// condition holds. Conditions are evaluated afresh each iteration, so they
// stay unexpanded until then.
type loopBehavior struct{}

func (loopBehavior) graphic() bool { return false }

func (loopBehavior) generate(r *run, n *element.Node, order element.OrderIndex) (result, error) {
	el := n.Element.Clone()
	el.Order = order
	while, hasWhile := el.Attrs.Take("while")
	until, hasUntil := el.Attrs.Take("until")
	r.ctx.SetCurrent(el)
	if err := r.expand(el); err != nil {
		return result{}, err
	}

	count := -1
	if v, ok := el.Get("count"); ok {
		c, err := r.ctx.Eval(v)
		if err != nil {
			return result{}, exprError(el, "count", err)
		}
		f, ok := c.Number()
		if !ok || f < 0 || f != math.Trunc(f) {
			return result{}, doc.Errorf(doc.KindParse, el, "count %q is not a whole number", v)
		}
		count = int(f)
		if err := r.ctx.CheckLoop(el, count); err != nil {
			return result{}, err
		}
	} else if !hasWhile && !hasUntil {
		return result{}, doc.Errorf(doc.KindParse, el, "loop needs count, while or until")
	}

	name := el.Attrs.Value("var")
	start, step := 0.0, 1.0
	for _, v := range []struct {
		attr string
		dst  *float64
	}{{"start", &start}, {"step", &step}} {
		s, ok := el.Get(v.attr)
		if !ok {
			continue
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return result{}, doc.NewError(doc.KindParse, el, v.attr, err)
		}
		*v.dst = f
	}

	var out result
	for k := 0; count < 0 || k < count; k++ {
		if hasWhile {
			ok, err := r.condition(el, "while", while)
			if err != nil {
				return result{}, err
			}
			if !ok {
				break
			}
		}
		if err := r.ctx.CheckLoop(el, k+1); err != nil {
			return result{}, err
		}
		vars := frameVars(el)
		if name != "" {
			vars[name] = geom.Fstr(start + float64(k)*step)
		}
		res, err := r.body(el, n.Children, order.Sub(k), vars)
		if err != nil {
			return result{}, err
		}
		out.add(res)
		if hasUntil {
			ok, err := r.condition(el, "until", until)
			if err != nil {
				return result{}, err
			}
			if ok {
				break
			}
		}
	}
	r.log.Debug("Loop expanded", zap.String("element", el.Describe()), zap.Int("events", len(out.events)))
	return out, nil
}

// forBehavior repeats its content for every item of a list.
type forBehavior struct{}

func (forBehavior) graphic() bool { return false }

func (forBehavior) generate(r *run, n *element.Node, order element.OrderIndex) (result, error) {
	el := n.Element.Clone()
	el.Order = order
	r.ctx.SetCurrent(el)
	if err := r.expand(el); err != nil {
		return result{}, err
	}
	data, ok := el.Get("data")
	if !ok {
		return result{}, doc.Errorf(doc.KindParse, el, "for needs data")
	}
	items, err := r.items(el, data)
	if err != nil {
		return result{}, err
	}
	if err := r.ctx.CheckLoop(el, len(items)); err != nil {
		return result{}, err
	}

	name := el.Attrs.Value("var")
	if name == "" {
		name = "item"
	}
	index := el.Attrs.Value("idx-var")
	var out result
	for k, item := range items {
		vars := frameVars(el)
		vars[name] = item
		if index != "" {
			vars[index] = strconv.Itoa(k)
		}
		res, err := r.body(el, n.Children, order.Sub(k), vars)
		if err != nil {
			return result{}, err
		}
		out.add(res)
	}
	return out, nil
}

// items evaluates the data of a for loop. Text that is not an expression
// is split on commas, or on whitespace without any.
func (r *run) items(el *element.Element, data string) ([]string, error) {
	if strings.TrimSpace(data) == "" {
		return nil, nil
	}
	v, err := r.ctx.Eval(data)
	if err != nil {
		var e *expr.Error
		if !errors.As(err, &e) || (e.Kind != expr.ErrTokenize && e.Kind != expr.ErrParse) {
			return nil, exprError(el, "data", err)
		}
		sep := strings.Fields
		if strings.Contains(data, ",") {
			sep = func(s string) []string {
				parts := strings.Split(s, ",")
				for i := range parts {
					parts[i] = strings.TrimSpace(parts[i])
				}
				return parts
			}
		}
		return sep(data), nil
	}
	var out []string
	for _, item := range v.Items() {
		out = append(out, item.String())
	}
	return out, nil
}

// ifBehavior draws its content when the test holds.
type ifBehavior struct{}

func (ifBehavior) graphic() bool { return false }

func (ifBehavior) generate(r *run, n *element.Node, order element.OrderIndex) (result, error) {
	el := n.Element.Clone()
	el.Order = order
	test, ok := el.Attrs.Take("test")
	r.ctx.SetCurrent(el)
	if !ok {
		return result{}, doc.Errorf(doc.KindParse, el, "if needs a test")
	}
	if err := r.expand(el); err != nil {
		return result{}, err
	}
	pass, err := r.condition(el, "test", test)
	if err != nil || !pass {
		return result{}, err
	}
	return r.body(el, n.Children, order, frameVars(el))
}
