package element

import (
	"fmt"
	"strconv"
	"strings"

	"svgdx/geom"
)

// Shape classifies how an element's geometry is stored in its attributes.
type Shape int

const (
	ShapeNone Shape = iota
	ShapeBox        // x y width height
	ShapeCircle     // cx cy r
	ShapeEllipse    // cx cy rx ry
	ShapeLine       // x1 y1 x2 y2
	ShapePoints     // points
	ShapePath       // d
	ShapePoint      // x y only
)

var shapes = map[string]Shape{
	"rect":          ShapeBox,
	"image":         ShapeBox,
	"use":           ShapeBox,
	"svg":           ShapeBox,
	"foreignObject": ShapeBox,
	"circle":        ShapeCircle,
	"ellipse":       ShapeEllipse,
	"line":          ShapeLine,
	"polyline":      ShapePoints,
	"polygon":       ShapePoints,
	"path":          ShapePath,
	"text":          ShapePoint,
}

// ShapeOf returns the geometry kind for an element name.
func ShapeOf(name string) Shape {
	return shapes[name]
}

// Number parses a numeric attribute. Missing attributes report ok=false.
func (el *Element) Number(name string) (float64, bool, error) {
	s, ok := el.Get(name)
	if !ok {
		return 0, false, nil
	}
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "px"))
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, fmt.Errorf("attribute %s: invalid number %q", name, s)
	}
	return v, true, nil
}

func (el *Element) numbers(names ...string) ([]float64, []bool, error) {
	vals := make([]float64, len(names))
	have := make([]bool, len(names))
	for i, n := range names {
		v, ok, err := el.Number(n)
		if err != nil {
			return nil, nil, err
		}
		vals[i], have[i] = v, ok
	}
	return vals, have, nil
}

// SetNumber stores a number formatted for output.
func (el *Element) SetNumber(name string, v float64) {
	el.Set(name, geom.Fstr(v))
}

// BBox derives the bounding box from native geometry attributes. Elements
// whose attributes do not determine a box report ok=false.
func (el *Element) BBox() (geom.BBox, bool, error) {
	switch ShapeOf(el.Name) {
	case ShapeBox:
		v, have, err := el.numbers("x", "y", "width", "height")
		if err != nil {
			return geom.BBox{}, false, err
		}
		if !have[2] || !have[3] {
			return geom.BBox{}, false, nil
		}
		return geom.FromXYWH(v[0], v[1], v[2], v[3]), true, nil
	case ShapeCircle:
		v, have, err := el.numbers("cx", "cy", "r")
		if err != nil {
			return geom.BBox{}, false, err
		}
		if !have[2] {
			return geom.BBox{}, false, nil
		}
		return geom.NewBBox(v[0]-v[2], v[1]-v[2], v[0]+v[2], v[1]+v[2]), true, nil
	case ShapeEllipse:
		v, have, err := el.numbers("cx", "cy", "rx", "ry")
		if err != nil {
			return geom.BBox{}, false, err
		}
		if !have[2] || !have[3] {
			return geom.BBox{}, false, nil
		}
		return geom.NewBBox(v[0]-v[2], v[1]-v[3], v[0]+v[2], v[1]+v[3]), true, nil
	case ShapeLine:
		v, _, err := el.numbers("x1", "y1", "x2", "y2")
		if err != nil {
			return geom.BBox{}, false, err
		}
		return geom.NewBBox(v[0], v[1], v[2], v[3]), true, nil
	case ShapePoints:
		pts, err := ParsePoints(el.Attrs.Value("points"))
		if err != nil || len(pts) == 0 {
			return geom.BBox{}, false, err
		}
		return pointsBBox(pts), true, nil
	case ShapePath:
		d, ok := el.Get("d")
		if !ok {
			return geom.BBox{}, false, nil
		}
		b, ok, err := PathBBox(d)
		return b, ok, err
	}
	return geom.BBox{}, false, nil
}

// SetBBox writes native geometry so that the element occupies b. Lines
// keep the direction of b.
func (el *Element) SetBBox(b geom.BBox) {
	switch ShapeOf(el.Name) {
	case ShapeBox:
		n := b.Normalized()
		el.SetNumber("x", n.X1)
		el.SetNumber("y", n.Y1)
		el.SetNumber("width", n.Width())
		el.SetNumber("height", n.Height())
	case ShapeCircle:
		cx, cy := b.Center()
		el.SetNumber("cx", cx)
		el.SetNumber("cy", cy)
		n := b.Normalized()
		el.SetNumber("r", min(n.Width(), n.Height())/2)
	case ShapeEllipse:
		cx, cy := b.Center()
		n := b.Normalized()
		el.SetNumber("cx", cx)
		el.SetNumber("cy", cy)
		el.SetNumber("rx", n.Width()/2)
		el.SetNumber("ry", n.Height()/2)
	case ShapeLine:
		el.SetNumber("x1", b.X1)
		el.SetNumber("y1", b.Y1)
		el.SetNumber("x2", b.X2)
		el.SetNumber("y2", b.Y2)
	case ShapePoint:
		el.SetNumber("x", b.X1)
		el.SetNumber("y", b.Y1)
	}
}

// Translate moves native geometry. Paths get a translate() prepended to
// their transform.
func (el *Element) Translate(dx, dy float64) error {
	if dx == 0 && dy == 0 {
		return nil
	}
	shift := func(names ...string) error {
		for i, n := range names {
			v, ok, err := el.Number(n)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			if i%2 == 0 {
				el.SetNumber(n, v+dx)
			} else {
				el.SetNumber(n, v+dy)
			}
		}
		return nil
	}
	switch ShapeOf(el.Name) {
	case ShapeBox, ShapePoint:
		if err := shift("x", "y"); err != nil {
			return err
		}
		if !el.Has("x") {
			el.SetNumber("x", dx)
		}
		if !el.Has("y") {
			el.SetNumber("y", dy)
		}
		return nil
	case ShapeCircle, ShapeEllipse:
		return shift("cx", "cy")
	case ShapeLine:
		return shift("x1", "y1", "x2", "y2")
	case ShapePoints:
		pts, err := ParsePoints(el.Attrs.Value("points"))
		if err != nil {
			return err
		}
		for i := range pts {
			pts[i][0] += dx
			pts[i][1] += dy
		}
		el.Set("points", FormatPoints(pts))
		return nil
	}
	el.PrependTransform(fmt.Sprintf("translate(%s, %s)", geom.Fstr(dx), geom.Fstr(dy)))
	return nil
}

// PrependTransform adds an outer transform step.
func (el *Element) PrependTransform(t string) {
	if cur, ok := el.Get("transform"); ok && strings.TrimSpace(cur) != "" {
		el.Set("transform", t+" "+cur)
		return
	}
	el.Set("transform", t)
}

// ParsePoints parses a polyline "points" list.
func ParsePoints(s string) ([][2]float64, error) {
	nums, err := geom.ParseNumbers(s)
	if err != nil {
		return nil, err
	}
	if len(nums)%2 != 0 {
		return nil, fmt.Errorf("odd number of coordinates in points %q", s)
	}
	pts := make([][2]float64, 0, len(nums)/2)
	for i := 0; i < len(nums); i += 2 {
		pts = append(pts, [2]float64{nums[i], nums[i+1]})
	}
	return pts, nil
}

// FormatPoints renders points as "x1 y1, x2 y2".
func FormatPoints(pts [][2]float64) string {
	parts := make([]string, len(pts))
	for i, p := range pts {
		parts[i] = geom.Fstr(p[0]) + " " + geom.Fstr(p[1])
	}
	return strings.Join(parts, ", ")
}

func pointsBBox(pts [][2]float64) geom.BBox {
	b := geom.Point(pts[0][0], pts[0][1])
	for _, p := range pts[1:] {
		b = b.Union(geom.Point(p[0], p[1]))
	}
	return b
}
