package doc

import (
	"errors"
	"fmt"
	"strings"

	"svgdx/element"
)

// Kind classifies transform errors.
type Kind int

const (
	KindParse Kind = iota
	KindReference
	KindLimit
	KindEvaluation
	KindDocument
	KindIO
)

func (k Kind) String() string {
	switch k {
	case KindParse:
		return "parse error"
	case KindReference:
		return "reference error"
	case KindLimit:
		return "limit exceeded"
	case KindEvaluation:
		return "evaluation error"
	case KindDocument:
		return "document error"
	case KindIO:
		return "i/o error"
	}
	return "error"
}

// Error is a transform failure with enough context to point at the
// offending markup.
type Error struct {
	Kind    Kind
	Element string // element description, e.g. <rect id="a">
	Attr    string // attribute name or expression text
	Value   int    // observed value for limit errors
	Limit   int    // configured ceiling for limit errors
	Err     error
}

func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Kind.String())
	if e.Element != "" {
		sb.WriteString(" in ")
		sb.WriteString(e.Element)
	}
	if e.Attr != "" {
		fmt.Fprintf(&sb, " (%s)", e.Attr)
	}
	if e.Kind == KindLimit {
		fmt.Fprintf(&sb, ": %d exceeds limit %d", e.Value, e.Limit)
	}
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether any error in err's tree is an *Error of kind k.
func IsKind(err error, k Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	if e.Kind == k {
		return true
	}
	// multierr and joined errors carry several kinds
	if u, ok := err.(interface{ Unwrap() []error }); ok {
		for _, inner := range u.Unwrap() {
			if IsKind(inner, k) {
				return true
			}
		}
	}
	return IsKind(e.Err, k)
}

func describe(el *element.Element) string {
	if el == nil {
		return ""
	}
	return el.Describe()
}

// NewError builds an *Error for el. An err that already is an *Error is
// returned unchanged.
func NewError(kind Kind, el *element.Element, attr string, err error) error {
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{Kind: kind, Element: describe(el), Attr: attr, Err: err}
}

// Errorf builds an *Error from a message.
func Errorf(kind Kind, el *element.Element, format string, args ...any) error {
	return &Error{Kind: kind, Element: describe(el), Err: fmt.Errorf(format, args...)}
}

// LimitError reports a configured ceiling being exceeded.
func LimitError(el *element.Element, what string, value, limit int) error {
	return &Error{Kind: KindLimit, Element: describe(el), Attr: what, Value: value, Limit: limit}
}

// ErrDeferred marks an element that depends on something not resolved yet.
// It is retried on a later pass and never surfaces to callers.
var ErrDeferred = errors.New("deferred")

// DeferredError describes why an element could not be resolved yet. A
// container whose content stalls carries the deferrals of its children.
type DeferredError struct {
	Element string
	Ref     string
	Causes  []*DeferredError
}

func (e *DeferredError) Error() string {
	if e.Ref != "" {
		return fmt.Sprintf("%s waits for %s", e.Element, e.Ref)
	}
	return fmt.Sprintf("%s has unresolved content", e.Element)
}

func (e *DeferredError) Is(target error) bool { return target == ErrDeferred }

// Defer returns a deferral of el waiting for ref.
func Defer(el *element.Element, ref string) error {
	return &DeferredError{Element: describe(el), Ref: ref}
}

// Leaves returns the innermost deferrals.
func (e *DeferredError) Leaves() []*DeferredError {
	if len(e.Causes) == 0 {
		return []*DeferredError{e}
	}
	var out []*DeferredError
	for _, c := range e.Causes {
		out = append(out, c.Leaves()...)
	}
	return out
}
