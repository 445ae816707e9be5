package images

import (
	"errors"
	"image"
	"math"

	"github.com/disintegration/imaging"

	"github.com/soocke/annotator-go/domain/geometry"
)

// CropBox cuts the region of a normalized box out of src, grown by pad
// pixels on every side. The rectangle is clamped to the image bounds and is
// at least 1x1. It returns the crop and its rectangle relative to src.
func CropBox(src image.Image, r geometry.Rect, pad int) (*image.NRGBA, image.Rectangle, error) {
	if src == nil {
		return nil, image.Rectangle{}, errors.New("nil image")
	}
	if err := r.Validate(); err != nil {
		return nil, image.Rectangle{}, err
	}
	b := src.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())
	nx0, ny0, nx1, ny1 := r.Bounds()
	x0 := int(math.Floor(nx0*w)) - pad
	y0 := int(math.Floor(ny0*h)) - pad
	x1 := int(math.Ceil(nx1*w)) + pad
	y1 := int(math.Ceil(ny1*h)) + pad
	if x0 < 0 {
		x0 = 0
	}
	if y0 < 0 {
		y0 = 0
	}
	if x1 > b.Dx() {
		x1 = b.Dx()
	}
	if y1 > b.Dy() {
		y1 = b.Dy()
	}
	if x0 > b.Dx()-1 {
		x0 = b.Dx() - 1
	}
	if y0 > b.Dy()-1 {
		y0 = b.Dy() - 1
	}
	if x1 <= x0 {
		x1 = x0 + 1
	}
	if y1 <= y0 {
		y1 = y0 + 1
	}
	roi := image.Rect(x0, y0, x1, y1)
	return imaging.Crop(src, roi.Add(b.Min)), roi, nil
}
