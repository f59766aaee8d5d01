package geom

// Position is a partially specified coordinate and size record. Only set
// fields participate in resolution.
type Position struct {
	XMin, XMax, CX, Width *float64
	YMin, YMax, CY, Height *float64
	DX, DY                 *float64
}

func ptr(v float64) *float64 { return &v }

func (p *Position) SetXMin(v float64)   { p.XMin = ptr(v) }
func (p *Position) SetXMax(v float64)   { p.XMax = ptr(v) }
func (p *Position) SetCX(v float64)     { p.CX = ptr(v) }
func (p *Position) SetWidth(v float64)  { p.Width = ptr(v) }
func (p *Position) SetYMin(v float64)   { p.YMin = ptr(v) }
func (p *Position) SetYMax(v float64)   { p.YMax = ptr(v) }
func (p *Position) SetCY(v float64)     { p.CY = ptr(v) }
func (p *Position) SetHeight(v float64) { p.Height = ptr(v) }
func (p *Position) SetDX(v float64)     { p.DX = ptr(v) }
func (p *Position) SetDY(v float64)     { p.DY = ptr(v) }

// SetLoc places the given anchor of the (sized) box at (x, y). The anchor
// decides which of min/center/max is fixed in each axis.
func (p *Position) SetLoc(l Loc, x, y float64) {
	switch l {
	case LocTopLeft, LocLeft, LocBottomLeft:
		p.SetXMin(x)
	case LocTop, LocCenter, LocBottom:
		p.SetCX(x)
	default:
		p.SetXMax(x)
	}
	switch l {
	case LocTopLeft, LocTop, LocTopRight:
		p.SetYMin(y)
	case LocLeft, LocCenter, LocRight:
		p.SetCY(y)
	default:
		p.SetYMax(y)
	}
}

// resolve derives (min, max) from any sufficient combination of min, max,
// center and size.
func resolve(lo, hi, c, size *float64) (float64, float64, bool) {
	switch {
	case lo != nil && hi != nil:
		return *lo, *hi, true
	case lo != nil && size != nil:
		return *lo, *lo + *size, true
	case hi != nil && size != nil:
		return *hi - *size, *hi, true
	case c != nil && size != nil:
		return *c - *size/2, *c + *size/2, true
	case lo != nil && c != nil:
		return *lo, 2**c - *lo, true
	case hi != nil && c != nil:
		return 2**c - *hi, *hi, true
	}
	return 0, 0, false
}

// XRange returns the horizontal extent if it is determined.
func (p Position) XRange() (float64, float64, bool) {
	return resolve(p.XMin, p.XMax, p.CX, p.Width)
}

// YRange returns the vertical extent if it is determined.
func (p Position) YRange() (float64, float64, bool) {
	return resolve(p.YMin, p.YMax, p.CY, p.Height)
}

// BBox derives a box from the position, applying dx/dy. ok is false when
// the set fields are insufficient in either dimension.
func (p Position) BBox() (BBox, bool) {
	x1, x2, okx := p.XRange()
	y1, y2, oky := p.YRange()
	if !okx || !oky {
		return BBox{}, false
	}
	b := BBox{X1: x1, Y1: y1, X2: x2, Y2: y2}
	var dx, dy float64
	if p.DX != nil {
		dx = *p.DX
	}
	if p.DY != nil {
		dy = *p.DY
	}
	return b.Translate(dx, dy), true
}
