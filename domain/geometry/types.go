package geometry

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidGeometry reports malformed rectangle or transform input
// (NaN, infinite values, negative sizes, unsupported zoom).
var ErrInvalidGeometry = errors.New("invalid geometry")

// Point is a position in display pixels.
type Point struct {
	X, Y float64
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point { return Point{X: x, Y: y} }

// Rect is a box in normalized image space, stored as center and size.
// All four values are fractions of the raw image width/height.
type Rect struct {
	CX, CY, W, H float64
}

// DisplayRect is an axis-aligned rectangle in display pixels anchored at its
// top-left corner.
type DisplayRect struct {
	X, Y, W, H float64
}

// ZoomLevel enumerates the supported display magnifications.
type ZoomLevel int

const (
	Zoom1x ZoomLevel = 1
	Zoom2x ZoomLevel = 2
)

func (z ZoomLevel) String() string {
	switch z {
	case Zoom1x:
		return "1x"
	case Zoom2x:
		return "2x"
	default:
		return "unknown"
	}
}

// Valid reports whether z belongs to the supported zoom set.
func (z ZoomLevel) Valid() bool { return z == Zoom1x || z == Zoom2x }

// Factor returns the pixel multiplier of z.
func (z ZoomLevel) Factor() float64 { return float64(z) }

// Next cycles through the zoom set (1x -> 2x -> 1x).
func (z ZoomLevel) Next() ZoomLevel {
	if z == Zoom1x {
		return Zoom2x
	}
	return Zoom1x
}

// ViewTransform maps normalized space onto the display surface:
// display = normalized * natural size * zoom + origin.
type ViewTransform struct {
	Zoom     ZoomLevel
	NaturalW float64
	NaturalH float64
	Origin   Point
}

// NewViewTransform builds a transform for an image of the given pixel size.
func NewViewTransform(width, height int, zoom ZoomLevel) ViewTransform {
	return ViewTransform{Zoom: zoom, NaturalW: float64(width), NaturalH: float64(height)}
}

// Validate checks the transform is usable for conversions.
func (vt ViewTransform) Validate() error {
	if !vt.Zoom.Valid() {
		return fmt.Errorf("%w: unsupported zoom %d", ErrInvalidGeometry, int(vt.Zoom))
	}
	if !finite(vt.NaturalW, vt.NaturalH, vt.Origin.X, vt.Origin.Y) || vt.NaturalW <= 0 || vt.NaturalH <= 0 {
		return fmt.Errorf("%w: natural size %gx%g", ErrInvalidGeometry, vt.NaturalW, vt.NaturalH)
	}
	return nil
}

// Scale returns display pixels per normalized unit along each axis.
func (vt ViewTransform) Scale() (sx, sy float64) {
	f := vt.Zoom.Factor()
	return vt.NaturalW * f, vt.NaturalH * f
}

// DisplaySize is the pixel size of the rendered (zoomed) image.
func (vt ViewTransform) DisplaySize() (w, h int) {
	sx, sy := vt.Scale()
	return int(math.Round(sx)), int(math.Round(sy))
}

// WithZoom returns a copy of vt using zoom z.
func (vt ViewTransform) WithZoom(z ZoomLevel) ViewTransform {
	vt.Zoom = z
	return vt
}

// PointToNormalized converts a display point to normalized coordinates.
// The result is not clamped.
func (vt ViewTransform) PointToNormalized(p Point) (x, y float64, err error) {
	if err := vt.Validate(); err != nil {
		return 0, 0, err
	}
	if !finite(p.X, p.Y) {
		return 0, 0, fmt.Errorf("%w: point %v", ErrInvalidGeometry, p)
	}
	sx, sy := vt.Scale()
	return (p.X - vt.Origin.X) / sx, (p.Y - vt.Origin.Y) / sy, nil
}

// Validate checks r for NaN/Inf values and negative sizes.
func (r Rect) Validate() error {
	if !finite(r.CX, r.CY, r.W, r.H) || r.W < 0 || r.H < 0 {
		return fmt.Errorf("%w: rect %+v", ErrInvalidGeometry, r)
	}
	return nil
}

// Bounds returns the corner coordinates (x0,y0) top-left and (x1,y1) bottom-right.
func (r Rect) Bounds() (x0, y0, x1, y1 float64) {
	return r.CX - r.W/2, r.CY - r.H/2, r.CX + r.W/2, r.CY + r.H/2
}

// RectFromBounds builds a normalized rect from two opposite corners in any order.
func RectFromBounds(x0, y0, x1, y1 float64) Rect {
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	if y1 < y0 {
		y0, y1 = y1, y0
	}
	return Rect{CX: (x0 + x1) / 2, CY: (y0 + y1) / 2, W: x1 - x0, H: y1 - y0}
}

// Clamped limits the size to 1 and shifts the center so that center ± size/2
// stays inside [0,1]. Size is preserved whenever it fits.
func (r Rect) Clamped() Rect {
	r.W = Clamp(r.W, 0, 1)
	r.H = Clamp(r.H, 0, 1)
	r.CX = Clamp(r.CX, r.W/2, 1-r.W/2)
	r.CY = Clamp(r.CY, r.H/2, 1-r.H/2)
	return r
}

// Cropped intersects r with the unit square. Portions outside the image are
// cut off rather than shifted back in.
func (r Rect) Cropped() Rect {
	x0, y0, x1, y1 := r.Bounds()
	if x0 >= 0 && y0 >= 0 && x1 <= 1 && y1 <= 1 {
		return r
	}
	return RectFromBounds(Clamp(x0, 0, 1), Clamp(y0, 0, 1), Clamp(x1, 0, 1), Clamp(y1, 0, 1))
}

// Min returns the top-left corner.
func (d DisplayRect) Min() Point { return Point{X: d.X, Y: d.Y} }

// Max returns the bottom-right corner.
func (d DisplayRect) Max() Point { return Point{X: d.X + d.W, Y: d.Y + d.H} }

// Center returns the midpoint of d.
func (d DisplayRect) Center() Point { return Point{X: d.X + d.W/2, Y: d.Y + d.H/2} }

// DisplayRectFromPoints spans the rectangle between two drag points.
func DisplayRectFromPoints(a, b Point) DisplayRect {
	x0, x1 := math.Min(a.X, b.X), math.Max(a.X, b.X)
	y0, y1 := math.Min(a.Y, b.Y), math.Max(a.Y, b.Y)
	return DisplayRect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// Clamp limits v to [lo, hi]. When lo > hi the midpoint is returned.
func Clamp(v, lo, hi float64) float64 {
	if lo > hi {
		return (lo + hi) / 2
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
