package geom

import (
	"fmt"
	"strconv"
	"strings"
)

// Loc is one of the 9 named anchor points on a box.
type Loc int

const (
	LocTopLeft Loc = iota
	LocTop
	LocTopRight
	LocRight
	LocBottomRight
	LocBottom
	LocBottomLeft
	LocLeft
	LocCenter
)

// AllLocs lists every anchor in declaration order.
var AllLocs = []Loc{
	LocTopLeft, LocTop, LocTopRight, LocRight, LocBottomRight,
	LocBottom, LocBottomLeft, LocLeft, LocCenter,
}

var locNames = map[string]Loc{
	"tl": LocTopLeft, "t": LocTop, "tr": LocTopRight,
	"r": LocRight, "br": LocBottomRight, "b": LocBottom,
	"bl": LocBottomLeft, "l": LocLeft, "c": LocCenter,
	"top": LocTop, "right": LocRight, "bottom": LocBottom, "left": LocLeft,
	"center": LocCenter, "centre": LocCenter,
}

var locShort = [...]string{"tl", "t", "tr", "r", "br", "b", "bl", "l", "c"}

// ParseLoc parses a location name.
func ParseLoc(s string) (Loc, error) {
	if l, ok := locNames[s]; ok {
		return l, nil
	}
	return 0, fmt.Errorf("unknown location %q", s)
}

func (l Loc) String() string {
	if l < 0 || int(l) >= len(locShort) {
		return "?"
	}
	return locShort[l]
}

// Edge returns the edge an edge-midpoint location sits on.
func (l Loc) Edge() (Edge, bool) {
	switch l {
	case LocTop:
		return EdgeTop, true
	case LocRight:
		return EdgeRight, true
	case LocBottom:
		return EdgeBottom, true
	case LocLeft:
		return EdgeLeft, true
	}
	return 0, false
}

// Edge is one side of a box.
type Edge int

const (
	EdgeTop Edge = iota
	EdgeRight
	EdgeBottom
	EdgeLeft
)

func (e Edge) String() string {
	return [...]string{"t", "r", "b", "l"}[e]
}

// Dir returns the outward exit direction of the edge.
func (e Edge) Dir() Dir {
	return [...]Dir{DirUp, DirRight, DirDown, DirLeft}[e]
}

// Dir is an axis-aligned direction.
type Dir int

const (
	DirUp Dir = iota
	DirRight
	DirDown
	DirLeft
)

func (d Dir) String() string {
	return [...]string{"up", "right", "down", "left"}[d]
}

// Horizontal reports whether the direction runs along the x axis.
func (d Dir) Horizontal() bool { return d == DirLeft || d == DirRight }

// Unit returns the unit vector of the direction (y grows downward).
func (d Dir) Unit() (float64, float64) {
	switch d {
	case DirUp:
		return 0, -1
	case DirDown:
		return 0, 1
	case DirLeft:
		return -1, 0
	default:
		return 1, 0
	}
}

// Length is either an absolute user-unit offset or a ratio.
type Length struct {
	Value float64
	Ratio bool
}

func Abs(v float64) Length   { return Length{Value: v} }
func Ratio(v float64) Length { return Length{Value: v, Ratio: true} }

// ParseLength parses "12.5" as absolute and "25%" as the ratio 0.25.
func ParseLength(s string) (Length, error) {
	s = strings.TrimSpace(s)
	if v, ok := strings.CutSuffix(s, "%"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return Length{}, fmt.Errorf("invalid length %q: %w", s, err)
		}
		return Ratio(f / 100), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Length{}, fmt.Errorf("invalid length %q: %w", s, err)
	}
	return Abs(f), nil
}

// Between maps the length onto the segment start..end. Absolute values
// count from start, negative ones from end.
func (l Length) Between(start, end float64) float64 {
	if l.Ratio {
		return start + (end-start)*l.Value
	}
	if l.Value < 0 {
		return end + l.Value
	}
	return start + l.Value
}

// Adjust applies the length as a delta to v: absolute lengths add, ratios
// scale.
func (l Length) Adjust(v float64) float64 {
	if l.Ratio {
		return v * l.Value
	}
	return v + l.Value
}

// Of returns the length relative to a reference size; absolute lengths are
// returned as is.
func (l Length) Of(size float64) float64 {
	if l.Ratio {
		return size * l.Value
	}
	return l.Value
}

func (l Length) String() string {
	if l.Ratio {
		return Fstr(l.Value*100) + "%"
	}
	return Fstr(l.Value)
}

// EdgeSpec is a point on an edge given by an offset along it.
type EdgeSpec struct {
	Edge   Edge
	Offset Length
}

// AnchorSpec is a parsed "@loc" or "@edge:length" suffix.
type AnchorSpec struct {
	Loc     Loc
	Edge    *EdgeSpec
	HasEdge bool
}

// ParseAnchor parses "br", "t:25%" or "l:-3".
func ParseAnchor(s string) (AnchorSpec, error) {
	name, length, found := strings.Cut(s, ":")
	l, err := ParseLoc(name)
	if err != nil {
		return AnchorSpec{}, err
	}
	if !found {
		return AnchorSpec{Loc: l}, nil
	}
	e, ok := l.Edge()
	if !ok {
		return AnchorSpec{}, fmt.Errorf("location %q is not an edge", name)
	}
	ln, err := ParseLength(length)
	if err != nil {
		return AnchorSpec{}, err
	}
	return AnchorSpec{Loc: l, Edge: &EdgeSpec{Edge: e, Offset: ln}, HasEdge: true}, nil
}

// Point returns the anchor's coordinates on b.
func (a AnchorSpec) Point(b BBox) (float64, float64) {
	if a.HasEdge {
		return b.Edgespec(a.Edge.Edge, a.Edge.Offset)
	}
	return b.Locspec(a.Loc)
}

// Dir returns the exit direction of the anchor, if it lies on an edge.
func (a AnchorSpec) Dir() (Dir, bool) {
	if a.HasEdge {
		return a.Edge.Edge.Dir(), true
	}
	if e, ok := a.Loc.Edge(); ok {
		return e.Dir(), true
	}
	return 0, false
}
