package element

import (
	"strings"

	"cogentcore.org/core/base/ordmap"
)

// Attr is a single attribute in document order.
type Attr struct {
	Name  string
	Value string
}

// Attrs is an insertion ordered attribute map. Replacing a value keeps the
// attribute at its original position.
type Attrs struct {
	m *ordmap.Map[string, string]
}

func NewAttrs(pairs ...Attr) *Attrs {
	a := &Attrs{m: ordmap.New[string, string]()}
	for _, p := range pairs {
		a.Set(p.Name, p.Value)
	}
	return a
}

func (a *Attrs) Len() int {
	if a == nil || a.m == nil {
		return 0
	}
	return a.m.Len()
}

func (a *Attrs) Get(name string) (string, bool) {
	if a == nil || a.m == nil {
		return "", false
	}
	return a.m.ValueByKeyTry(name)
}

// Value returns the attribute value or an empty string.
func (a *Attrs) Value(name string) string {
	v, _ := a.Get(name)
	return v
}

func (a *Attrs) Has(name string) bool {
	_, ok := a.Get(name)
	return ok
}

func (a *Attrs) Set(name, value string) {
	if a.m == nil {
		a.m = ordmap.New[string, string]()
	}
	a.m.Add(name, value)
}

// SetDefault sets the attribute only when it is not present yet.
func (a *Attrs) SetDefault(name, value string) {
	if !a.Has(name) {
		a.Set(name, value)
	}
}

func (a *Attrs) Delete(names ...string) {
	if a.m == nil {
		return
	}
	for _, n := range names {
		a.m.DeleteKey(n)
	}
}

// Take returns the attribute value and removes it.
func (a *Attrs) Take(name string) (string, bool) {
	v, ok := a.Get(name)
	if ok {
		a.m.DeleteKey(name)
	}
	return v, ok
}

func (a *Attrs) Names() []string {
	if a.Len() == 0 {
		return nil
	}
	return a.m.Keys()
}

// List returns a copy of the attributes in order.
func (a *Attrs) List() []Attr {
	if a.Len() == 0 {
		return nil
	}
	out := make([]Attr, 0, a.m.Len())
	for _, kv := range a.m.Order {
		out = append(out, Attr{Name: kv.Key, Value: kv.Value})
	}
	return out
}

func (a *Attrs) Clone() *Attrs {
	c := NewAttrs()
	if a.Len() > 0 {
		c.m.Copy(a.m)
	}
	return c
}

func (a *Attrs) String() string {
	var sb strings.Builder
	for i, p := range a.List() {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(p.Name)
		sb.WriteString(`="`)
		sb.WriteString(p.Value)
		sb.WriteByte('"')
	}
	return sb.String()
}
