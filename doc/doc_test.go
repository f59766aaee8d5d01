package doc

import (
	"errors"
	"strings"
	"testing"

	"go.uber.org/multierr"
	"go.uber.org/zap/zaptest"

	"svgdx/element"
	"svgdx/geom"
)

func newTestContext(t *testing.T) *Context {
	t.Helper()
	return New(DefaultOptions(), zaptest.NewLogger(t))
}

func TestScopeShadowing(t *testing.T) {
	c := newTestContext(t)
	lookup := func() string {
		s, err := c.Expand("$level")
		if err != nil {
			t.Fatalf("Expand() error = %v", err)
		}
		return s
	}

	for _, lvl := range []string{"1", "2", "3"} {
		if err := c.PushFrame(map[string]string{"level": lvl}); err != nil {
			t.Fatalf("PushFrame() error = %v", err)
		}
	}
	if got := lookup(); got != "3" {
		t.Errorf("innermost level = %q, want 3", got)
	}
	c.PopFrame()
	if got := lookup(); got != "2" {
		t.Errorf("after one pop level = %q, want 2", got)
	}
	c.PopFrame()
	if got := lookup(); got != "1" {
		t.Errorf("after two pops level = %q, want 1", got)
	}
	c.PopFrame()
	if got := lookup(); got != "$level" {
		t.Errorf("outside all frames level = %q, want literal $level", got)
	}
}

func TestSetVarTargetsDefiningFrame(t *testing.T) {
	c := newTestContext(t)
	if err := c.SetVar("n", "0"); err != nil {
		t.Fatalf("SetVar() error = %v", err)
	}
	if err := c.PushFrame(nil); err != nil {
		t.Fatalf("PushFrame() error = %v", err)
	}
	if err := c.SetVar("n", "5"); err != nil {
		t.Fatalf("SetVar() error = %v", err)
	}
	if err := c.SetVar("local", "x"); err != nil {
		t.Fatalf("SetVar() error = %v", err)
	}
	c.PopFrame()
	if v, _ := c.Var("n"); v != "5" {
		t.Errorf("global n = %q, want 5", v)
	}
	if _, ok := c.Var("local"); ok {
		t.Error("frame-local variable leaked into global scope")
	}
}

func TestVarLimit(t *testing.T) {
	opts := DefaultOptions()
	opts.VarLimit = 8
	c := New(opts, zaptest.NewLogger(t))
	err := c.SetVar("s", strings.Repeat("x", 9))
	if !IsKind(err, KindLimit) {
		t.Fatalf("SetVar() over limit error = %v, want limit error", err)
	}
	var e *Error
	if !errors.As(err, &e) || e.Value != 9 || e.Limit != 8 {
		t.Errorf("limit error = %+v, want value 9 limit 8", e)
	}
	if err := c.SetVar("s", strings.Repeat("x", 8)); err != nil {
		t.Errorf("SetVar() at limit error = %v", err)
	}
}

func TestSnapshotRestore(t *testing.T) {
	c := newTestContext(t)
	_ = c.SetVar("a", "1")
	snap := c.Snapshot()
	_ = c.SetVar("a", "2")
	_ = c.PushFrame(map[string]string{"b": "3"})

	live := c.Restore(snap)
	if v, _ := c.Var("a"); v != "1" {
		t.Errorf("restored a = %q, want 1", v)
	}
	if _, ok := c.Var("b"); ok {
		t.Error("restored scope sees frame pushed after snapshot")
	}
	c.Restore(live)
	if v, _ := c.Var("b"); v != "3" {
		t.Errorf("live b = %q, want 3", v)
	}
}

func TestLookupDefersUnknown(t *testing.T) {
	c := newTestContext(t)
	el := element.New("rect", element.Attr{Name: "xy", Value: "#b"})
	c.SetCurrent(el)

	_, err := c.RefBBox("#b")
	if !errors.Is(err, ErrDeferred) {
		t.Fatalf("RefBBox(#b) error = %v, want deferral", err)
	}

	b := element.New("rect", element.Attr{Name: "id", Value: "b"})
	b.Order = element.OrderIndex{1}
	c.Register(b, geom.NewBBox(1, 2, 3, 4), true)
	got, err := c.RefBBox("#b")
	if err != nil {
		t.Fatalf("RefBBox(#b) error = %v", err)
	}
	if got != geom.NewBBox(1, 2, 3, 4) {
		t.Errorf("RefBBox(#b) = %v", got)
	}

	if _, err := c.RefBBox("^"); !IsKind(err, KindReference) {
		t.Errorf("RefBBox(^) without previous error = %v", err)
	}
	c.SetPrev(b.Order)
	if got, err := c.RefBBox("^"); err != nil || got.X1 != 1 {
		t.Errorf("RefBBox(^) = %v, %v", got, err)
	}
}

func TestLimits(t *testing.T) {
	opts := DefaultOptions()
	opts.LoopLimit = 3
	opts.DepthLimit = 2
	c := New(opts, zaptest.NewLogger(t))

	if err := c.CheckLoop(nil, 3); err != nil {
		t.Errorf("CheckLoop(3) error = %v", err)
	}
	if err := c.CheckLoop(nil, 4); !IsKind(err, KindLimit) {
		t.Errorf("CheckLoop(4) error = %v, want limit error", err)
	}
	if err := c.EnterDepth(nil); err != nil {
		t.Fatalf("EnterDepth() error = %v", err)
	}
	if err := c.EnterDepth(nil); err != nil {
		t.Fatalf("EnterDepth() error = %v", err)
	}
	if err := c.EnterDepth(nil); !IsKind(err, KindLimit) {
		t.Errorf("EnterDepth() past limit error = %v", err)
	}
	c.LeaveDepth()
	if err := c.EnterDepth(nil); err != nil {
		t.Errorf("EnterDepth() after leave error = %v", err)
	}
}

func TestUnresolved(t *testing.T) {
	c := newTestContext(t)
	c.MarkSeen("a")
	c.MarkSeen("b")
	deferred := []*DeferredError{
		{Element: `<rect id="a">`, Ref: "#b"},
		{Element: `<g>`, Causes: []*DeferredError{{Element: `<rect>`, Ref: "#nowhere"}}},
	}
	err := c.Unresolved(deferred)
	errs := multierr.Errors(err)
	if len(errs) != 2 {
		t.Fatalf("Unresolved() = %d errors, want 2: %v", len(errs), err)
	}
	if !IsKind(errs[0], KindDocument) {
		t.Errorf("cycle error kind: %v", errs[0])
	}
	if !IsKind(errs[1], KindReference) {
		t.Errorf("unknown id error kind: %v", errs[1])
	}
	if !IsKind(err, KindReference) || !IsKind(err, KindDocument) {
		t.Errorf("IsKind() on combined error misses a kind: %v", err)
	}
}

func TestDefaults(t *testing.T) {
	c := newTestContext(t)
	c.AddDefault(element.New("_", element.Attr{Name: "stroke", Value: "red"}))
	c.AddDefault(element.New("rect", element.Attr{Name: "stroke", Value: "blue"}, element.Attr{Name: "class", Value: "d-thin"}))

	r := element.New("rect", element.Attr{Name: "fill", Value: "none"})
	c.ApplyDefaults(r)
	if got := r.Attrs.Value("stroke"); got != "blue" {
		t.Errorf("rect stroke = %q, want blue", got)
	}
	if !r.HasClass("d-thin") {
		t.Error("rect default class missing")
	}
	ci := element.New("circle", element.Attr{Name: "stroke", Value: "green"})
	c.ApplyDefaults(ci)
	if got := ci.Attrs.Value("stroke"); got != "green" {
		t.Errorf("explicit stroke overridden: %q", got)
	}
}
