// Package route finds orthogonal connector paths between two boxes.
package route

import (
	"math"
	"slices"

	"svgdx/geom"
)

// End is one end of a connector. Without a direction the router falls back
// to a straight line. Ends without a box behave as zero sized boxes.
type End struct {
	X, Y   float64
	Dir    geom.Dir
	HasDir bool
	Box    geom.BBox
	HasBox bool
}

func (e End) box() geom.BBox {
	if e.HasBox {
		return e.Box.Normalized()
	}
	return geom.Point(e.X, e.Y)
}

func (e End) point() [2]float64 { return [2]float64{e.X, e.Y} }

// Options tune the router.
type Options struct {
	// Clearance keeps routed segments this far from the boxes.
	Clearance float64
	// CornerOffset places the midline inside the gap between the boxes,
	// measured from the start box. Nil centres it.
	CornerOffset *geom.Length
}

type edge struct {
	to   int
	cost float64
}

type graph struct {
	pts   [][2]float64
	out   [][]edge
	midX  float64
	midY  float64
	hasMX bool
	hasMY bool
	// penalty is charged per segment and exceeds any detour on the grid,
	// so fewer corners always win.
	penalty float64
}

func (g *graph) add(x, y float64) int {
	g.pts = append(g.pts, [2]float64{x, y})
	g.out = append(g.out, nil)
	return len(g.pts) - 1
}

func (g *graph) cost(u, v int) float64 {
	p, q := g.pts[u], g.pts[v]
	l := math.Abs(q[0]-p[0]) + math.Abs(q[1]-p[1])
	if (g.hasMX && p[0] == q[0] && p[0] == g.midX) || (g.hasMY && p[1] == q[1] && p[1] == g.midY) {
		l /= 2
	}
	return l + g.penalty
}

func (g *graph) link(u, v int) {
	g.out[u] = append(g.out[u], edge{to: v, cost: g.cost(u, v)})
}

// Route returns the corner points of an axis-aligned path from start to end
// leaving and entering along the ends' directions.
func Route(start, end End, opts Options) [][2]float64 {
	direct := [][2]float64{start.point(), end.point()}
	if !start.HasDir || !end.HasDir {
		return direct
	}
	a, b := start.box(), end.box()
	c := opts.Clearance

	g := &graph{}
	xs := []float64{a.X1 - c, a.X2 + c, b.X1 - c, b.X2 + c}
	ys := []float64{a.Y1 - c, a.Y2 + c, b.Y1 - c, b.Y2 + c}
	if g.midX, g.hasMX = midline(a.X1, a.X2, b.X1, b.X2, opts.CornerOffset); g.hasMX {
		xs = append(xs, g.midX)
	}
	if g.midY, g.hasMY = midline(a.Y1, a.Y2, b.Y1, b.Y2, opts.CornerOffset); g.hasMY {
		ys = append(ys, g.midY)
	}
	for _, e := range []End{start, end} {
		if e.Dir.Horizontal() {
			ys = append(ys, e.Y)
		} else {
			xs = append(xs, e.X)
		}
	}
	slices.Sort(xs)
	slices.Sort(ys)
	xs, ys = slices.Compact(xs), slices.Compact(ys)
	g.penalty = 2*(xs[len(xs)-1]-xs[0]+ys[len(ys)-1]-ys[0]) + 1

	for _, y := range ys {
		for _, x := range xs {
			g.add(x, y)
		}
	}
	n := len(g.pts)
	for u := range n {
		for v := u + 1; v < n; v++ {
			p, q := g.pts[u], g.pts[v]
			if (p[0] == q[0] || p[1] == q[1]) && !blocked(p, q, a) && !blocked(p, q, b) {
				g.link(u, v)
				g.link(v, u)
			}
		}
	}

	s := g.add(start.X, start.Y)
	t := g.add(end.X, end.Y)
	for u := range n {
		if leaves(start, g.pts[u]) && !blocked(start.point(), g.pts[u], b) {
			g.link(s, u)
		}
		if leaves(end, g.pts[u]) && !blocked(end.point(), g.pts[u], a) {
			g.link(u, t)
		}
	}
	if leaves(start, end.point()) && leaves(end, start.point()) {
		g.link(s, t)
	}

	path := g.shortest(s, t)
	if path == nil {
		return direct
	}
	return simplify(path)
}

// midline returns a coordinate in the gap between [aLo, aHi] and [bLo, bHi]
// when they do not overlap.
func midline(aLo, aHi, bLo, bHi float64, off *geom.Length) (float64, bool) {
	var lo, hi float64
	switch {
	case aHi < bLo:
		lo, hi = aHi, bLo
	case bHi < aLo:
		lo, hi = aLo, bHi
	default:
		return 0, false
	}
	if off == nil {
		return (lo + hi) / 2, true
	}
	sign := 1.0
	if hi < lo {
		sign = -1
	}
	switch {
	case off.Ratio:
		return lo + (hi-lo)*off.Value, true
	case off.Value < 0:
		return hi + sign*off.Value, true
	}
	return lo + sign*off.Value, true
}

// leaves reports whether q lies strictly ahead of the end along its
// direction.
func leaves(e End, q [2]float64) bool {
	dx, dy := q[0]-e.X, q[1]-e.Y
	switch e.Dir {
	case geom.DirUp:
		return dx == 0 && dy < 0
	case geom.DirDown:
		return dx == 0 && dy > 0
	case geom.DirLeft:
		return dy == 0 && dx < 0
	default:
		return dy == 0 && dx > 0
	}
}

// blocked reports whether the axis-aligned segment p-q crosses the interior
// of b.
func blocked(p, q [2]float64, b geom.BBox) bool {
	if b.Width() <= 0 || b.Height() <= 0 {
		return false
	}
	if p[1] == q[1] {
		y := p[1]
		lo, hi := min(p[0], q[0]), max(p[0], q[0])
		return b.Y1 < y && y < b.Y2 && max(lo, b.X1) < min(hi, b.X2)
	}
	x := p[0]
	lo, hi := min(p[1], q[1]), max(p[1], q[1])
	return b.X1 < x && x < b.X2 && max(lo, b.Y1) < min(hi, b.Y2)
}

const eps = 1e-9

// shortest runs Dijkstra from s and walks back from t along edges that are
// tight (dist[u] + cost == dist[v]), preferring the lowest node index.
func (g *graph) shortest(s, t int) [][2]float64 {
	n := len(g.pts)
	dist := make([]float64, n)
	done := make([]bool, n)
	for i := range dist {
		dist[i] = math.Inf(1)
	}
	dist[s] = 0
	for {
		u := -1
		for i := range n {
			if !done[i] && !math.IsInf(dist[i], 1) && (u < 0 || dist[i] < dist[u]) {
				u = i
			}
		}
		if u < 0 || u == t {
			break
		}
		done[u] = true
		for _, e := range g.out[u] {
			if d := dist[u] + e.cost; d < dist[e.to] {
				dist[e.to] = d
			}
		}
	}
	if math.IsInf(dist[t], 1) {
		return nil
	}

	path := [][2]float64{g.pts[t]}
	for v := t; v != s; {
		prev := -1
		for u := range n {
			if math.IsInf(dist[u], 1) {
				continue
			}
			for _, e := range g.out[u] {
				if e.to == v && math.Abs(dist[u]+e.cost-dist[v]) < eps {
					prev = u
					break
				}
			}
			if prev >= 0 {
				break
			}
		}
		if prev < 0 {
			return nil
		}
		path = append(path, g.pts[prev])
		v = prev
	}
	slices.Reverse(path)
	return path
}

// simplify drops repeated points and interior points of straight runs.
func simplify(pts [][2]float64) [][2]float64 {
	out := make([][2]float64, 0, len(pts))
	for _, p := range pts {
		if len(out) > 0 && out[len(out)-1] == p {
			continue
		}
		if k := len(out); k >= 2 {
			a, b := out[k-2], out[k-1]
			if (a[0] == b[0] && b[0] == p[0]) || (a[1] == b[1] && b[1] == p[1]) {
				out[k-1] = p
				continue
			}
		}
		out = append(out, p)
	}
	return out
}
