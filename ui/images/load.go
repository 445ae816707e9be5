package images

import (
	"fmt"
	"image"
	"os"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Loaded is a decoded dataset image.
type Loaded struct {
	Path   string
	Image  image.Image
	Width  int
	Height int
	Bytes  int64
}

// Load decodes the image at path, applying its EXIF orientation so that the
// pixel grid matches what annotators see.
func Load(path string) (Loaded, error) {
	st, err := os.Stat(path)
	if err != nil {
		return Loaded{}, err
	}
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return Loaded{}, fmt.Errorf("decode %s: %w", path, err)
	}
	b := img.Bounds()
	if b.Empty() {
		return Loaded{}, fmt.Errorf("decode %s: empty image", path)
	}
	return Loaded{Path: path, Image: img, Width: b.Dx(), Height: b.Dy(), Bytes: st.Size()}, nil
}
