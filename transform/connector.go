package transform

import (
	"math"

	"svgdx/doc"
	"svgdx/element"
	"svgdx/geom"
	"svgdx/position"
	"svgdx/route"
)

// connectorClearance keeps routed segments away from the connected boxes.
const connectorClearance = 3

// connect turns start and end references of a line or polyline into native
// geometry. Lines are straight, polylines are routed around the boxes.
func (r *run) connect(el *element.Element) error {
	if el.Name != "line" && el.Name != "polyline" {
		return nil
	}
	sv, okS := el.Get("start")
	ev, okE := el.Get("end")
	if !okS && !okE {
		return nil
	}
	if okS != okE {
		return doc.Errorf(doc.KindParse, el, "a connector needs both start and end")
	}
	s, err := position.ResolveEndpoint(el, "start", sv, r.ctx)
	if err != nil {
		return err
	}
	e, err := position.ResolveEndpoint(el, "end", ev, r.ctx)
	if err != nil {
		return err
	}
	var offset *geom.Length
	if v, ok := el.Get("corner-offset"); ok {
		l, err := position.ParseDelta(v)
		if err != nil {
			return position.Fail(el, "corner-offset", err)
		}
		offset = &l
	}
	el.Attrs.Delete("start", "end", "corner-offset")

	start, end := settle(s, e), settle(e, s)
	if el.Name == "polyline" {
		pts := route.Route(start, end, route.Options{Clearance: connectorClearance, CornerOffset: offset})
		el.Set("points", element.FormatPoints(pts))
		return nil
	}
	el.SetNumber("x1", start.X)
	el.SetNumber("y1", start.Y)
	el.SetNumber("x2", end.X)
	el.SetNumber("y2", end.Y)
	return nil
}

// settle fixes the point of an endpoint given without an anchor: the
// middle of the edge of its box nearest to the other end.
func settle(ep, other position.Endpoint) route.End {
	end := route.End{X: ep.X, Y: ep.Y, Dir: ep.Dir, HasDir: ep.HasDir, Box: ep.BBox, HasBox: ep.HasBox}
	if ep.Fixed {
		return end
	}
	tx, ty := other.X, other.Y
	if !other.Fixed {
		tx, ty = other.BBox.Center()
	}
	loc := nearestEdge(ep.BBox, tx, ty)
	end.X, end.Y = ep.BBox.Locspec(loc)
	if edge, ok := loc.Edge(); ok {
		end.Dir, end.HasDir = edge.Dir(), true
	}
	return end
}

// nearestEdge returns the edge midpoint of b closest to (x, y). Ties go to
// the first of top, right, bottom, left.
func nearestEdge(b geom.BBox, x, y float64) geom.Loc {
	best, bestD := geom.LocTop, math.Inf(1)
	for _, l := range []geom.Loc{geom.LocTop, geom.LocRight, geom.LocBottom, geom.LocLeft} {
		px, py := b.Locspec(l)
		if d := math.Hypot(px-x, py-y); d < bestD {
			best, bestD = l, d
		}
	}
	return best
}
