package images

import (
	"bytes"
	"image"

	"github.com/disintegration/imaging"

	"github.com/soocke/annotator-go/domain/geometry"
)

// EncodePNG encodes an image to PNG bytes. Errors are ignored and may return an empty slice.
func EncodePNG(img image.Image) []byte {
	if img == nil {
		return nil
	}
	var buf bytes.Buffer
	_ = imaging.Encode(&buf, img, imaging.PNG)
	return buf.Bytes()
}

// ScaleToFit scales src so that it fits within maxW x maxH preserving aspect
// ratio. If the source already fits, the original is returned.
func ScaleToFit(src image.Image, maxW, maxH int) image.Image {
	if src == nil {
		return nil
	}
	b := src.Bounds()
	if b.Dx() <= maxW && b.Dy() <= maxH {
		return src
	}
	if maxW < 1 {
		maxW = 1
	}
	if maxH < 1 {
		maxH = 1
	}
	return imaging.Fit(src, maxW, maxH, imaging.Lanczos)
}

// Zoom returns src enlarged by the zoom factor using nearest-neighbour
// sampling, so every source pixel maps onto an exact block.
func Zoom(src image.Image, z geometry.ZoomLevel) image.Image {
	if src == nil || z == geometry.Zoom1x || !z.Valid() {
		return src
	}
	b := src.Bounds()
	f := int(z)
	return imaging.Resize(src, b.Dx()*f, b.Dy()*f, imaging.NearestNeighbor)
}
