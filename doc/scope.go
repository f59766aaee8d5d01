package doc

import (
	"maps"
	"slices"

	"svgdx/element"
)

type frame struct {
	vars map[string]string
}

// Scope is the variable frame stack plus the element defaults in effect.
// frames[0] is the transform-global frame.
type Scope struct {
	frames   []frame
	defaults []*element.Element
}

// Snapshot deep copies the current scope.
func (c *Context) Snapshot() Scope { return c.scope.Clone() }

func (s Scope) Clone() Scope {
	out := Scope{
		frames:   make([]frame, len(s.frames)),
		defaults: slices.Clone(s.defaults),
	}
	for i, f := range s.frames {
		out.frames[i] = frame{vars: maps.Clone(f.vars)}
	}
	return out
}

// Restore installs s and returns the scope it replaced.
func (c *Context) Restore(s Scope) Scope {
	old := c.scope
	c.scope = s
	return old
}

// PushFrame opens a variable frame for a container element. Every value is
// checked against the variable length limit.
func (c *Context) PushFrame(vars map[string]string) error {
	for name, v := range vars {
		if len(v) > c.opts.VarLimit {
			return LimitError(c.current, "variable $"+name+" length", len(v), c.opts.VarLimit)
		}
	}
	if vars == nil {
		vars = map[string]string{}
	}
	c.scope.frames = append(c.scope.frames, frame{vars: vars})
	return nil
}

// PopFrame closes the innermost frame. The global frame is never popped.
func (c *Context) PopFrame() {
	if len(c.scope.frames) > 1 {
		c.scope.frames = c.scope.frames[:len(c.scope.frames)-1]
	}
}

// FrameDepth returns the number of open frames above the global one.
func (c *Context) FrameDepth() int { return len(c.scope.frames) - 1 }

// Var implements expr.Env, searching frames innermost first.
func (c *Context) Var(name string) (string, bool) {
	for i := len(c.scope.frames) - 1; i >= 0; i-- {
		if v, ok := c.scope.frames[i].vars[name]; ok {
			return v, true
		}
	}
	return "", false
}

// SetVar assigns to the innermost frame already defining name, or to the
// innermost frame otherwise.
func (c *Context) SetVar(name, value string) error {
	if len(value) > c.opts.VarLimit {
		return LimitError(c.current, "variable $"+name+" length", len(value), c.opts.VarLimit)
	}
	for i := len(c.scope.frames) - 1; i >= 0; i-- {
		if _, ok := c.scope.frames[i].vars[name]; ok {
			c.scope.frames[i].vars[name] = value
			return nil
		}
	}
	c.scope.frames[len(c.scope.frames)-1].vars[name] = value
	return nil
}

// SetGlobal assigns a variable in the transform-global frame.
func (c *Context) SetGlobal(name, value string) error {
	if len(value) > c.opts.VarLimit {
		return LimitError(c.current, "variable $"+name+" length", len(value), c.opts.VarLimit)
	}
	c.scope.frames[0].vars[name] = value
	return nil
}

// AddDefault registers attribute defaults for elements named like d, or
// for any element when d is named "_".
func (c *Context) AddDefault(d *element.Element) {
	c.scope.defaults = append(c.scope.defaults, d)
}

// ApplyDefaults fills attributes el does not set from matching defaults.
// Later definitions win.
func (c *Context) ApplyDefaults(el *element.Element) {
	for i := len(c.scope.defaults) - 1; i >= 0; i-- {
		d := c.scope.defaults[i]
		if d.Name != el.Name && d.Name != "_" {
			continue
		}
		for _, a := range d.Attrs.List() {
			el.Attrs.SetDefault(a.Name, a.Value)
		}
		el.AddClass(d.Classes...)
	}
}
