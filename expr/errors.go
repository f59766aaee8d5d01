package expr

import "fmt"

// ErrKind classifies expression failures.
type ErrKind int

const (
	ErrTokenize ErrKind = iota
	ErrParse
	ErrArity
	ErrDomain
	ErrType
	ErrIndex
	ErrEmptyList
	ErrRecursion
	ErrUnknownFunction
	ErrUnknownVariable
)

var errKindNames = [...]string{
	"tokenize error",
	"parse error",
	"wrong number of arguments",
	"domain error",
	"type mismatch",
	"index out of range",
	"empty list",
	"recursion limit exceeded",
	"unknown function",
	"unknown variable",
}

func (k ErrKind) String() string {
	if int(k) < len(errKindNames) {
		return errKindNames[k]
	}
	return "expression error"
}

// Error is returned by tokenizing, parsing and evaluation. Expr holds the
// expression text being evaluated when the failure happened.
type Error struct {
	Kind ErrKind
	Expr string
	Msg  string
}

func (e *Error) Error() string {
	if e.Expr == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	}
	return fmt.Sprintf("%s in %q: %s", e.Kind, e.Expr, e.Msg)
}

func newError(kind ErrKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// withExpr fills in the expression text if the error does not carry one yet.
func withExpr(err error, text string) error {
	if e, ok := err.(*Error); ok && e.Expr == "" {
		e.Expr = text
	}
	return err
}
