package element

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"svgdx/geom"
)

// ErrRepeatLimit is returned when repeat groups expand to more segments
// than allowed.
var ErrRepeatLimit = errors.New("path repeat limit exceeded")

// RepeatLimitError carries the observed segment count and the ceiling.
type RepeatLimitError struct {
	Count int
	Limit int
}

func (e *RepeatLimitError) Error() string {
	return fmt.Sprintf("%s: %d repeated segments, limit %d", ErrRepeatLimit, e.Count, e.Limit)
}

func (e *RepeatLimitError) Unwrap() error { return ErrRepeatLimit }

type pathToken struct {
	cmd byte // 0 for numbers
	num float64
}

func tokenizePath(d string) ([]pathToken, error) {
	var toks []pathToken
	i := 0
	for i < len(d) {
		c := d[i]
		switch {
		case c == ' ' || c == ',' || c == '\t' || c == '\n' || c == '\r':
			i++
		case strings.IndexByte("MmLlHhVvCcSsQqTtAaZzr[]", c) >= 0:
			toks = append(toks, pathToken{cmd: c})
			i++
		case c == '-' || c == '+' || c == '.' || (c >= '0' && c <= '9'):
			j := scanPathNumber(d, i)
			if j == i {
				return nil, fmt.Errorf("invalid path data at offset %d in %q", i, d)
			}
			v, err := strconv.ParseFloat(d[i:j], 64)
			if err != nil {
				return nil, fmt.Errorf("invalid number %q in path data", d[i:j])
			}
			toks = append(toks, pathToken{num: v})
			i = j
		default:
			return nil, fmt.Errorf("unexpected %q at offset %d in path data", c, i)
		}
	}
	return toks, nil
}

// scanPathNumber returns the end of the number starting at i. Numbers may
// run together as in "1.5.5" or "3-2".
func scanPathNumber(d string, i int) int {
	j := i
	if j < len(d) && (d[j] == '-' || d[j] == '+') {
		j++
	}
	digits, dot := false, false
scan:
	for j < len(d) {
		c := d[j]
		switch {
		case c >= '0' && c <= '9':
			digits = true
		case c == '.' && !dot:
			dot = true
		default:
			break scan
		}
		j++
	}
	if !digits {
		return i
	}
	if j < len(d) && (d[j] == 'e' || d[j] == 'E') {
		k := j + 1
		if k < len(d) && (d[k] == '-' || d[k] == '+') {
			k++
		}
		if k < len(d) && d[k] >= '0' && d[k] <= '9' {
			for k < len(d) && d[k] >= '0' && d[k] <= '9' {
				k++
			}
			j = k
		}
	}
	return j
}

// ExpandRepeats expands "r N [ ... ]" groups in path data. Every command
// emitted by a repeat group counts against limit.
func ExpandRepeats(d string, limit int) (string, error) {
	if !strings.ContainsAny(d, "r[]") {
		return d, nil
	}
	toks, err := tokenizePath(d)
	if err != nil {
		return "", err
	}
	count := 0
	out, rest, err := expandTokens(toks, limit, &count, false)
	if err != nil {
		return "", err
	}
	if len(rest) != 0 {
		return "", fmt.Errorf("unbalanced ']' in path data %q", d)
	}
	return formatPath(out), nil
}

func expandTokens(toks []pathToken, limit int, count *int, nested bool) ([]pathToken, []pathToken, error) {
	var out []pathToken
	for len(toks) > 0 {
		t := toks[0]
		switch t.cmd {
		case ']':
			if !nested {
				return out, toks, nil
			}
			return out, toks[1:], nil
		case 'r':
			if len(toks) < 3 || toks[1].cmd != 0 || toks[2].cmd != '[' {
				return nil, nil, errors.New("repeat must be written as r N [ ... ]")
			}
			n := int(toks[1].num)
			if n < 0 || float64(n) != toks[1].num {
				return nil, nil, fmt.Errorf("invalid repeat count %v", toks[1].num)
			}
			body, rest, err := expandTokens(toks[3:], limit, count, true)
			if err != nil {
				return nil, nil, err
			}
			cmds := 0
			for _, b := range body {
				if b.cmd != 0 {
					cmds++
				}
			}
			for i := 0; i < n; i++ {
				*count += cmds
				if limit > 0 && *count > limit {
					return nil, nil, &RepeatLimitError{Count: *count, Limit: limit}
				}
				out = append(out, body...)
			}
			toks = rest
			continue
		case '[':
			return nil, nil, errors.New("'[' without repeat count")
		}
		out = append(out, t)
		toks = toks[1:]
	}
	if nested {
		return nil, nil, errors.New("unterminated repeat group")
	}
	return out, nil, nil
}

func formatPath(toks []pathToken) string {
	var sb strings.Builder
	for i, t := range toks {
		if i > 0 {
			sb.WriteByte(' ')
		}
		if t.cmd != 0 {
			sb.WriteByte(t.cmd)
		} else {
			sb.WriteString(geom.Fstr(t.num))
		}
	}
	return sb.String()
}

var pathArgs = map[byte]int{
	'M': 2, 'L': 2, 'H': 1, 'V': 1, 'C': 6, 'S': 4, 'Q': 4, 'T': 2, 'A': 7, 'Z': 0,
}

type pathBounds struct {
	b     geom.BBox
	valid bool
}

func (p *pathBounds) add(x, y float64) {
	pt := geom.Point(x, y)
	if !p.valid {
		p.b, p.valid = pt, true
		return
	}
	p.b = p.b.Union(pt)
}

// PathBBox computes the bounding box of path data. Curve control points
// are included, arcs are sampled.
func PathBBox(d string) (geom.BBox, bool, error) {
	toks, err := tokenizePath(d)
	if err != nil {
		return geom.BBox{}, false, err
	}
	var (
		bounds         pathBounds
		cx, cy, sx, sy float64
		cmd            byte
	)
	i := 0
	for i < len(toks) {
		if toks[i].cmd != 0 {
			cmd = toks[i].cmd
			i++
			if cmd == 'r' || cmd == '[' || cmd == ']' {
				return geom.BBox{}, false, errors.New("path data has unexpanded repeat groups")
			}
			if cmd == 'Z' || cmd == 'z' {
				cx, cy = sx, sy
				continue
			}
		} else if cmd == 0 {
			return geom.BBox{}, false, fmt.Errorf("path data %q must start with a command", d)
		}
		upper := cmd &^ 0x20
		n := pathArgs[upper]
		if n == 0 {
			// implicit repetition after Z is invalid
			return geom.BBox{}, false, fmt.Errorf("unexpected number after %c", cmd)
		}
		if i+n > len(toks) {
			return geom.BBox{}, false, fmt.Errorf("truncated %c segment in path data", cmd)
		}
		args := make([]float64, n)
		for k := range n {
			if toks[i+k].cmd != 0 {
				return geom.BBox{}, false, fmt.Errorf("truncated %c segment in path data", cmd)
			}
			args[k] = toks[i+k].num
		}
		i += n
		rel := cmd != upper
		ox, oy := 0.0, 0.0
		if rel {
			ox, oy = cx, cy
		}
		switch upper {
		case 'M':
			cx, cy = ox+args[0], oy+args[1]
			sx, sy = cx, cy
			bounds.add(cx, cy)
			// subsequent pairs are implicit lineto
			if rel {
				cmd = 'l'
			} else {
				cmd = 'L'
			}
		case 'L', 'T':
			cx, cy = ox+args[0], oy+args[1]
			bounds.add(cx, cy)
		case 'H':
			if rel {
				cx += args[0]
			} else {
				cx = args[0]
			}
			bounds.add(cx, cy)
		case 'V':
			if rel {
				cy += args[0]
			} else {
				cy = args[0]
			}
			bounds.add(cx, cy)
		case 'C', 'S', 'Q':
			for k := 0; k < n; k += 2 {
				bounds.add(ox+args[k], oy+args[k+1])
			}
			cx, cy = ox+args[n-2], oy+args[n-1]
		case 'A':
			ex, ey := ox+args[5], oy+args[6]
			for _, pt := range sampleArc(cx, cy, args[0], args[1], args[2], args[3] != 0, args[4] != 0, ex, ey) {
				bounds.add(pt[0], pt[1])
			}
			cx, cy = ex, ey
			bounds.add(cx, cy)
		}
	}
	return bounds.b, bounds.valid, nil
}

// sampleArc returns points along an elliptical arc using the endpoint to
// centre conversion from the SVG implementation notes.
func sampleArc(x1, y1, rx, ry, phiDeg float64, large, sweep bool, x2, y2 float64) [][2]float64 {
	rx, ry = math.Abs(rx), math.Abs(ry)
	if rx == 0 || ry == 0 || (x1 == x2 && y1 == y2) {
		return [][2]float64{{x2, y2}}
	}
	phi := phiDeg * math.Pi / 180
	cosPhi, sinPhi := math.Cos(phi), math.Sin(phi)
	dx, dy := (x1-x2)/2, (y1-y2)/2
	x1p := cosPhi*dx + sinPhi*dy
	y1p := -sinPhi*dx + cosPhi*dy
	lambda := x1p*x1p/(rx*rx) + y1p*y1p/(ry*ry)
	if lambda > 1 {
		s := math.Sqrt(lambda)
		rx, ry = rx*s, ry*s
	}
	num := rx*rx*ry*ry - rx*rx*y1p*y1p - ry*ry*x1p*x1p
	den := rx*rx*y1p*y1p + ry*ry*x1p*x1p
	coef := 0.0
	if den != 0 && num > 0 {
		coef = math.Sqrt(num / den)
	}
	if large == sweep {
		coef = -coef
	}
	cxp := coef * rx * y1p / ry
	cyp := -coef * ry * x1p / rx
	ccx := cosPhi*cxp - sinPhi*cyp + (x1+x2)/2
	ccy := sinPhi*cxp + cosPhi*cyp + (y1+y2)/2

	angle := func(ux, uy, vx, vy float64) float64 {
		return math.Atan2(ux*vy-uy*vx, ux*vx+uy*vy)
	}
	theta := angle(1, 0, (x1p-cxp)/rx, (y1p-cyp)/ry)
	delta := angle((x1p-cxp)/rx, (y1p-cyp)/ry, (-x1p-cxp)/rx, (-y1p-cyp)/ry)
	if !sweep && delta > 0 {
		delta -= 2 * math.Pi
	} else if sweep && delta < 0 {
		delta += 2 * math.Pi
	}
	const steps = 32
	pts := make([][2]float64, 0, steps+1)
	for k := 0; k <= steps; k++ {
		t := theta + delta*float64(k)/steps
		x := rx * math.Cos(t)
		y := ry * math.Sin(t)
		pts = append(pts, [2]float64{cosPhi*x - sinPhi*y + ccx, sinPhi*x + cosPhi*y + ccy})
	}
	return pts
}
