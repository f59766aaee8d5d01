// Package doc holds the per-transform document context: variable scopes,
// element registries, the seeded random source, resource limits and the
// transform error taxonomy.
package doc

import (
	"maps"
	"slices"
	"strings"

	"cogentcore.org/core/base/randx"
	"go.uber.org/zap"

	"svgdx/element"
	"svgdx/expr"
	"svgdx/geom"
)

// Entry is a resolved element with its bounding box, if it has one.
type Entry struct {
	Element *element.Element
	BBox    geom.BBox
	HasBBox bool
}

// Context is owned by a single transform invocation and must not be shared
// between goroutines.
type Context struct {
	opts Options
	log  *zap.Logger
	rnd  *randx.SysRand

	scope Scope

	byID      map[string]*Entry
	byOrder   map[string]*Entry
	originals map[string]*element.Node
	templates map[string]*element.Node
	seenIDs   map[string]bool

	current *element.Element
	prev    element.OrderIndex
	depth   int

	names   map[string]bool
	classes map[string]bool
}

func New(opts Options, log *zap.Logger) *Context {
	if log == nil {
		log = zap.NewNop()
	}
	return &Context{
		opts:      opts,
		log:       log,
		rnd:       randx.NewSysRand(opts.Seed),
		scope:     Scope{frames: []frame{{vars: map[string]string{}}}},
		byID:      make(map[string]*Entry),
		byOrder:   make(map[string]*Entry),
		originals: make(map[string]*element.Node),
		templates: make(map[string]*element.Node),
		seenIDs:   make(map[string]bool),
		names:     make(map[string]bool),
		classes:   make(map[string]bool),
	}
}

func (c *Context) Log() *zap.Logger { return c.log }
func (c *Context) Options() Options { return c.opts }

// SetOption changes a transform option mid-document. Changing the seed
// restarts the random sequence.
func (c *Context) SetOption(name, value string) error {
	o := c.opts
	if err := o.Set(name, value); err != nil {
		return err
	}
	if o.Seed != c.opts.Seed {
		c.rnd.NewRand(o.Seed)
	}
	c.opts = o
	return nil
}

// Rand implements expr.Env.
func (c *Context) Rand() randx.Rand { return c.rnd }

// MaxDepth implements expr.Env.
func (c *Context) MaxDepth() int { return c.opts.DepthLimit }

// Expand evaluates {{ }} regions and substitutes variables in s.
func (c *Context) Expand(s string) (string, error) {
	return expr.Expand(s, c)
}

// Eval evaluates s as an expression after expanding any {{ }} regions.
func (c *Context) Eval(s string) (expr.Value, error) {
	if strings.Contains(s, "{{") {
		t, err := c.Expand(s)
		if err != nil {
			return expr.Value{}, err
		}
		s = t
	}
	return expr.Eval(s, c)
}

// SetCurrent records the element being processed for error context and
// returns the previous one.
func (c *Context) SetCurrent(el *element.Element) *element.Element {
	old := c.current
	c.current = el
	return old
}

func (c *Context) Current() *element.Element { return c.current }

// Prev returns the order index of the element "^" refers to.
func (c *Context) Prev() element.OrderIndex { return c.prev }

func (c *Context) SetPrev(o element.OrderIndex) { c.prev = o }

// Register records a resolved element.
func (c *Context) Register(el *element.Element, b geom.BBox, ok bool) {
	e := &Entry{Element: el, BBox: b, HasBBox: ok}
	c.byOrder[el.Order.Key()] = e
	if id := el.ID(); id != "" {
		c.byID[id] = e
	}
}

// MarkSeen records an id encountered in the document, resolved or not.
func (c *Context) MarkSeen(id string) {
	if id != "" {
		c.seenIDs[id] = true
	}
}

func (c *Context) Seen(id string) bool { return c.seenIDs[id] }

// Lookup returns a resolved element by "#id" or "^".
func (c *Context) Lookup(ref string) (*Entry, error) {
	switch {
	case ref == "^":
		if c.prev == nil {
			return nil, Errorf(KindReference, c.current, "no previous element for ^")
		}
		e, ok := c.byOrder[c.prev.Key()]
		if !ok {
			return nil, Defer(c.current, ref)
		}
		return e, nil
	case strings.HasPrefix(ref, "#") && len(ref) > 1:
		e, ok := c.byID[ref[1:]]
		if !ok {
			return nil, Defer(c.current, ref)
		}
		return e, nil
	}
	return nil, Errorf(KindParse, c.current, "invalid element reference %q", ref)
}

// RefBBox returns the bounding box of a referenced element.
func (c *Context) RefBBox(ref string) (geom.BBox, error) {
	e, err := c.Lookup(ref)
	if err != nil {
		return geom.BBox{}, err
	}
	if !e.HasBBox {
		return geom.BBox{}, Errorf(KindReference, c.current, "%s has no bounding box", ref)
	}
	return e.BBox, nil
}

// RegisterOriginal records an element as written in the source, before any
// processing, so it can be instantiated by reuse.
func (c *Context) RegisterOriginal(id string, n *element.Node) {
	if _, ok := c.originals[id]; !ok {
		c.originals[id] = n
	}
}

// AddTemplate records a template defined inside <specs>.
func (c *Context) AddTemplate(id string, n *element.Node) {
	c.templates[id] = n
}

// Template finds a reuse template by id, preferring <specs> definitions.
func (c *Context) Template(id string) (*element.Node, bool) {
	if n, ok := c.templates[id]; ok {
		return n, true
	}
	n, ok := c.originals[id]
	return n, ok
}

// EnterDepth increments nesting depth, failing past the depth limit.
func (c *Context) EnterDepth(el *element.Element) error {
	c.depth++
	if c.depth > c.opts.DepthLimit {
		depth := c.depth
		c.depth--
		return LimitError(el, "nesting depth", depth, c.opts.DepthLimit)
	}
	return nil
}

func (c *Context) LeaveDepth() {
	if c.depth > 0 {
		c.depth--
	}
}

// CheckLoop fails when an iteration count passes the loop limit.
func (c *Context) CheckLoop(el *element.Element, n int) error {
	if n > c.opts.LoopLimit {
		return LimitError(el, "loop iterations", n, c.opts.LoopLimit)
	}
	return nil
}

// Observe records element and class names for style generation.
func (c *Context) Observe(el *element.Element) {
	c.names[el.Name] = true
	for _, cl := range el.Classes {
		c.classes[cl] = true
	}
}

// Observed returns the sorted element and class names seen in the output.
func (c *Context) Observed() (names, classes []string) {
	return slices.Sorted(maps.Keys(c.names)), slices.Sorted(maps.Keys(c.classes))
}
