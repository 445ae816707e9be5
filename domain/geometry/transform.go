package geometry

import "fmt"

// ToDisplay converts a normalized rect to display pixels.
func ToDisplay(r Rect, vt ViewTransform) (DisplayRect, error) {
	if err := vt.Validate(); err != nil {
		return DisplayRect{}, err
	}
	if err := r.Validate(); err != nil {
		return DisplayRect{}, err
	}
	sx, sy := vt.Scale()
	x0, y0, _, _ := r.Bounds()
	return DisplayRect{
		X: x0*sx + vt.Origin.X,
		Y: y0*sy + vt.Origin.Y,
		W: r.W * sx,
		H: r.H * sy,
	}, nil
}

// ToNormalized is the inverse of ToDisplay. Negative sizes are rejected;
// callers spanning a drag should build the rect with DisplayRectFromPoints.
func ToNormalized(d DisplayRect, vt ViewTransform) (Rect, error) {
	if err := vt.Validate(); err != nil {
		return Rect{}, err
	}
	if !finite(d.X, d.Y, d.W, d.H) || d.W < 0 || d.H < 0 {
		return Rect{}, fmt.Errorf("%w: display rect %+v", ErrInvalidGeometry, d)
	}
	sx, sy := vt.Scale()
	w := d.W / sx
	h := d.H / sy
	return Rect{
		CX: (d.X-vt.Origin.X)/sx + w/2,
		CY: (d.Y-vt.Origin.Y)/sy + h/2,
		W:  w,
		H:  h,
	}, nil
}

// PointInRect reports whether p lies inside d grown by tolerancePx on every
// side. The tolerance is in display pixels so hit testing feels the same at
// every zoom level.
func PointInRect(p Point, d DisplayRect, tolerancePx float64) bool {
	if tolerancePx < 0 || !finite(tolerancePx) {
		tolerancePx = 0
	}
	return p.X >= d.X-tolerancePx && p.X <= d.X+d.W+tolerancePx &&
		p.Y >= d.Y-tolerancePx && p.Y <= d.Y+d.H+tolerancePx
}

// CornerHandleRects returns square handles centered on the NW, NE, SW and SE
// corners of d, in that order.
func CornerHandleRects(d DisplayRect, handleSizePx float64) [4]DisplayRect {
	if handleSizePx < 0 {
		handleSizePx = 0
	}
	half := handleSizePx / 2
	at := func(x, y float64) DisplayRect {
		return DisplayRect{X: x - half, Y: y - half, W: handleSizePx, H: handleSizePx}
	}
	x1, y1 := d.X+d.W, d.Y+d.H
	return [4]DisplayRect{
		at(d.X, d.Y),
		at(x1, d.Y),
		at(d.X, y1),
		at(x1, y1),
	}
}
