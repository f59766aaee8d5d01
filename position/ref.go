// Package position resolves the relative positioning attributes of an
// element (xy, cxy, wh, xy1/xy2, surround, inside, dx/dy/dw/dh) into
// native geometry.
package position

import (
	"fmt"
	"strconv"
	"strings"

	"svgdx/geom"
)

// Referrer resolves "#id" and "^" references to bounding boxes. References
// that are not known yet return an error matching doc.ErrDeferred.
type Referrer interface {
	RefBBox(ref string) (geom.BBox, error)
}

// Ref is a parsed position value:
//
//	[#id|^][@loc[:length]] [dx] [dy]
//	(#id|^)(|:)(h|H|v|V) [gap]
type Ref struct {
	Target    string
	Anchor    geom.AnchorSpec
	HasAnchor bool
	Dir       byte
	Args      []string
}

func isIDChar(c byte) bool {
	return c == '_' || c == '-' || c == '.' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// ParseRef parses a position attribute value.
func ParseRef(s string) (Ref, error) {
	s = strings.TrimSpace(s)
	var r Ref
	i := 0
	switch {
	case strings.HasPrefix(s, "^"):
		r.Target, i = "^", 1
	case strings.HasPrefix(s, "#"):
		i = 1
		for i < len(s) && isIDChar(s[i]) {
			i++
		}
		if i == 1 {
			return Ref{}, fmt.Errorf("missing id after # in %q", s)
		}
		r.Target = s[:i]
	}
	if r.Target != "" && i < len(s) {
		switch s[i] {
		case '@':
			end := strings.IndexFunc(s[i:], isSpace)
			if end < 0 {
				end = len(s) - i
			}
			a, err := geom.ParseAnchor(s[i+1 : i+end])
			if err != nil {
				return Ref{}, fmt.Errorf("%q: %w", s, err)
			}
			r.Anchor, r.HasAnchor = a, true
			i += end
		case '|', ':':
			if i+1 >= len(s) || strings.IndexByte("hHvV", s[i+1]) < 0 ||
				(i+2 < len(s) && !isSpace(rune(s[i+2]))) {
				return Ref{}, fmt.Errorf("invalid relative direction in %q", s)
			}
			r.Dir = s[i+1]
			i += 2
		default:
			if !isSpace(rune(s[i])) {
				return Ref{}, fmt.Errorf("unexpected %q after reference in %q", s[i], s)
			}
		}
	}
	r.Args = geom.SplitNumbers(s[i:])
	if r.Dir != 0 && len(r.Args) > 1 {
		return Ref{}, fmt.Errorf("relative direction takes a single gap in %q", s)
	}
	return r, nil
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

// IsRef reports whether s starts with an element reference.
func IsRef(s string) bool {
	s = strings.TrimSpace(s)
	return strings.HasPrefix(s, "#") || strings.HasPrefix(s, "^")
}

// Numbers parses the trailing arguments as plain numbers.
func (r Ref) Numbers() ([]float64, error) {
	out := make([]float64, len(r.Args))
	for i, a := range r.Args {
		v, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", a)
		}
		out[i] = v
	}
	return out, nil
}

// Offset returns the trailing dx dy pair, missing values being zero.
func (r Ref) Offset() (float64, float64, error) {
	nums, err := r.Numbers()
	if err != nil {
		return 0, 0, err
	}
	switch len(nums) {
	case 0:
		return 0, 0, nil
	case 1:
		return nums[0], 0, nil
	case 2:
		return nums[0], nums[1], nil
	}
	return 0, 0, fmt.Errorf("expected at most two offsets, got %d", len(nums))
}

// Point resolves the reference to a point: the anchor of the target (def
// when none is given) shifted by the trailing offsets. Values without a
// target are read as "x y".
func (r Ref) Point(refs Referrer, def geom.Loc) (float64, float64, error) {
	if r.Target == "" {
		return pair(r.Args)
	}
	b, err := refs.RefBBox(r.Target)
	if err != nil {
		return 0, 0, err
	}
	var x, y float64
	if r.HasAnchor {
		x, y = r.Anchor.Point(b)
	} else {
		x, y = b.Locspec(def)
	}
	dx, dy, err := r.Offset()
	if err != nil {
		return 0, 0, err
	}
	return x + dx, y + dy, nil
}

func pair(args []string) (float64, float64, error) {
	return geom.ParsePair(strings.Join(args, " "))
}

// ParseDelta parses "5" as an absolute delta and "25%" as a ratio.
func ParseDelta(s string) (geom.Length, error) {
	return geom.ParseLength(strings.TrimSpace(s))
}
