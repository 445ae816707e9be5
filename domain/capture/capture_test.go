package capture

import (
	"errors"
	"image"
	"image/color"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
)

func solid(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 10, G: 120, B: 200, A: 255})
		}
	}
	return img
}

func TestImporter_WritesPNG(t *testing.T) {
	var gotRect *image.Rectangle
	imp := NewImporter(func(r *image.Rectangle) (*image.RGBA, error) {
		gotRect = r
		return solid(8, 6), nil
	}, nil)
	dir := filepath.Join(t.TempDir(), "train", "images")
	area := image.Rect(0, 0, 8, 6)
	path, err := imp.Import(dir, &area)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if gotRect == nil || *gotRect != area {
		t.Fatalf("grab should receive the area, got %v", gotRect)
	}
	if filepath.Dir(path) != dir || !strings.HasPrefix(filepath.Base(path), "capture-") || filepath.Ext(path) != ".png" {
		t.Fatalf("unexpected capture path %s", path)
	}
	img, err := imaging.Open(path)
	if err != nil {
		t.Fatalf("open capture: %v", err)
	}
	if img.Bounds().Dx() != 8 || img.Bounds().Dy() != 6 {
		t.Fatalf("unexpected size %v", img.Bounds())
	}
	st := imp.Stats()
	if st.Imports != 1 || st.Failures != 0 || st.LastPath != path {
		t.Fatalf("unexpected stats %+v", st)
	}
}

func TestImporter_Failures(t *testing.T) {
	boom := errors.New("no display")
	imp := NewImporter(func(*image.Rectangle) (*image.RGBA, error) { return nil, boom }, nil)
	if _, err := imp.Import(t.TempDir(), nil); !errors.Is(err, boom) {
		t.Fatalf("expected grab error, got %v", err)
	}
	empty := NewImporter(func(*image.Rectangle) (*image.RGBA, error) { return image.NewRGBA(image.Rectangle{}), nil }, nil)
	if _, err := empty.Import(t.TempDir(), nil); !errors.Is(err, ErrEmptyCapture) {
		t.Fatalf("expected ErrEmptyCapture, got %v", err)
	}
	if imp.Stats().Failures != 1 || imp.Stats().Imports != 0 {
		t.Fatalf("unexpected stats %+v", imp.Stats())
	}
}
