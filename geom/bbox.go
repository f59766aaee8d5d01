// Package geom holds the geometry kernel: bounding boxes, named anchor
// locations and edges, lengths and partially specified positions.
//
// Everything here is a pure value type. Boxes are not required to be
// normalized: lines keep their direction, so Width and Height are signed.
package geom

import (
	"fmt"
	"math"
)

// BBox is an axis-aligned rectangle in user-space units.
type BBox struct {
	X1, Y1, X2, Y2 float64
}

// NewBBox returns a box with the given corners, as given.
func NewBBox(x1, y1, x2, y2 float64) BBox {
	return BBox{X1: x1, Y1: y1, X2: x2, Y2: y2}
}

// FromXYWH builds a box from a top-left corner and a size.
func FromXYWH(x, y, w, h float64) BBox {
	return BBox{X1: x, Y1: y, X2: x + w, Y2: y + h}
}

// Point returns a zero-size box at (x, y).
func Point(x, y float64) BBox {
	return BBox{X1: x, Y1: y, X2: x, Y2: y}
}

func (b BBox) Width() float64  { return b.X2 - b.X1 }
func (b BBox) Height() float64 { return b.Y2 - b.Y1 }

// Center returns the mid point of the box.
func (b BBox) Center() (float64, float64) {
	return (b.X1 + b.X2) / 2, (b.Y1 + b.Y2) / 2
}

// Normalized returns the box with X1<=X2 and Y1<=Y2.
func (b BBox) Normalized() BBox {
	return BBox{
		X1: math.Min(b.X1, b.X2),
		Y1: math.Min(b.Y1, b.Y2),
		X2: math.Max(b.X1, b.X2),
		Y2: math.Max(b.Y1, b.Y2),
	}
}

// Union returns the smallest normalized box containing both boxes.
func (b BBox) Union(o BBox) BBox {
	n, m := b.Normalized(), o.Normalized()
	return BBox{
		X1: math.Min(n.X1, m.X1),
		Y1: math.Min(n.Y1, m.Y1),
		X2: math.Max(n.X2, m.X2),
		Y2: math.Max(n.Y2, m.Y2),
	}
}

// Intersect returns the overlap of two boxes. ok is false when the
// resulting extent is negative in either axis.
func (b BBox) Intersect(o BBox) (BBox, bool) {
	n, m := b.Normalized(), o.Normalized()
	r := BBox{
		X1: math.Max(n.X1, m.X1),
		Y1: math.Max(n.Y1, m.Y1),
		X2: math.Min(n.X2, m.X2),
		Y2: math.Min(n.Y2, m.Y2),
	}
	if r.Width() < 0 || r.Height() < 0 {
		return BBox{}, false
	}
	return r, true
}

// Expand grows the box by dx on left and right and dy on top and bottom.
func (b BBox) Expand(dx, dy float64) BBox {
	return b.ExpandTRBL(dy, dx, dy, dx)
}

// ExpandTRBL grows each edge of the normalized box outward by the given
// amount. Negative amounts shrink.
func (b BBox) ExpandTRBL(top, right, bottom, left float64) BBox {
	n := b.Normalized()
	return BBox{X1: n.X1 - left, Y1: n.Y1 - top, X2: n.X2 + right, Y2: n.Y2 + bottom}
}

// Translate moves the box by (dx, dy).
func (b BBox) Translate(dx, dy float64) BBox {
	return BBox{X1: b.X1 + dx, Y1: b.Y1 + dy, X2: b.X2 + dx, Y2: b.Y2 + dy}
}

// Scale multiplies all coordinates by s.
func (b BBox) Scale(s float64) BBox {
	return BBox{X1: b.X1 * s, Y1: b.Y1 * s, X2: b.X2 * s, Y2: b.Y2 * s}
}

// Contains reports whether (x, y) lies strictly inside the normalized box.
func (b BBox) Contains(x, y float64) bool {
	n := b.Normalized()
	return x > n.X1 && x < n.X2 && y > n.Y1 && y < n.Y2
}

// Locspec returns the coordinates of a named anchor location.
func (b BBox) Locspec(l Loc) (float64, float64) {
	cx, cy := b.Center()
	switch l {
	case LocTopLeft:
		return b.X1, b.Y1
	case LocTop:
		return cx, b.Y1
	case LocTopRight:
		return b.X2, b.Y1
	case LocRight:
		return b.X2, cy
	case LocBottomRight:
		return b.X2, b.Y2
	case LocBottom:
		return cx, b.Y2
	case LocBottomLeft:
		return b.X1, b.Y2
	case LocLeft:
		return b.X1, cy
	default:
		return cx, cy
	}
}

// Edgespec returns a point along one edge of the box. Top and bottom edges
// run left to right, left and right edges run top to bottom. Absolute
// lengths are measured from the start of the edge, or from its end when
// negative; ratios interpolate between the two ends without clamping.
func (b BBox) Edgespec(e Edge, l Length) (float64, float64) {
	switch e {
	case EdgeTop:
		return l.Between(b.X1, b.X2), b.Y1
	case EdgeBottom:
		return l.Between(b.X1, b.X2), b.Y2
	case EdgeLeft:
		return b.X1, l.Between(b.Y1, b.Y2)
	default:
		return b.X2, l.Between(b.Y1, b.Y2)
	}
}

func (b BBox) String() string {
	return fmt.Sprintf("(%s, %s, %s, %s)", Fstr(b.X1), Fstr(b.Y1), Fstr(b.X2), Fstr(b.Y2))
}

// UnionAll returns the union of all boxes, ok is false for an empty list.
func UnionAll(boxes []BBox) (BBox, bool) {
	if len(boxes) == 0 {
		return BBox{}, false
	}
	r := boxes[0].Normalized()
	for _, b := range boxes[1:] {
		r = r.Union(b)
	}
	return r, true
}

// IntersectAll returns the common area of all boxes.
func IntersectAll(boxes []BBox) (BBox, bool) {
	if len(boxes) == 0 {
		return BBox{}, false
	}
	r := boxes[0].Normalized()
	for _, b := range boxes[1:] {
		var ok bool
		if r, ok = r.Intersect(b); !ok {
			return BBox{}, false
		}
	}
	return r, true
}
