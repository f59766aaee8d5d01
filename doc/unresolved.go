package doc

import (
	"errors"
	"strings"

	"go.uber.org/multierr"
)

// Unresolved turns the deferrals left when a pass makes no progress into a
// single error naming every element still waiting. References to ids never
// seen anywhere in the document are reference errors, the rest (cycles and
// forward references that never resolve) are document errors.
func (c *Context) Unresolved(deferred []*DeferredError) error {
	var err error
	for _, d := range deferred {
		for _, leaf := range d.Leaves() {
			e := &Error{Kind: KindDocument, Element: leaf.Element, Attr: leaf.Ref}
			switch {
			case leaf.Ref == "":
				e.Err = errors.New("content could not be resolved")
			case strings.HasPrefix(leaf.Ref, "#") && !c.Seen(leaf.Ref[1:]):
				e.Kind = KindReference
				e.Err = errors.New("no element with id " + leaf.Ref[1:])
			default:
				e.Err = errors.New("unresolved reference, possibly a cycle")
			}
			err = multierr.Append(err, e)
		}
	}
	return err
}
