package dataset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var (
	// ErrDatasetRoot is the only blocking dataset error: the split folders
	// could not be read or written.
	ErrDatasetRoot = errors.New("dataset root unavailable")
	// ErrMissingLabelFile marks an image without a label file yet.
	ErrMissingLabelFile = errors.New("label file missing")
	// ErrUnknownSplit is returned by ParseSplit.
	ErrUnknownSplit = errors.New("unknown split")
)

// Split names a dataset partition.
type Split string

const (
	SplitTrain Split = "train"
	SplitValid Split = "valid"
	SplitTest  Split = "test"
)

// Splits returns the known splits in display order.
func Splits() []Split { return []Split{SplitTrain, SplitValid, SplitTest} }

// ParseSplit validates a split name (case-insensitive).
func ParseSplit(s string) (Split, error) {
	switch Split(strings.ToLower(strings.TrimSpace(s))) {
	case SplitTrain:
		return SplitTrain, nil
	case SplitValid:
		return SplitValid, nil
	case SplitTest:
		return SplitTest, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSplit, s)
}

// imageExts is the accepted set of raster extensions.
var imageExts = map[string]struct{}{
	".jpg": {}, ".jpeg": {}, ".png": {}, ".bmp": {}, ".tif": {}, ".tiff": {}, ".webp": {},
}

// IsImageFile reports whether name has an accepted extension. AppleDouble
// companions ("._name") are never images.
func IsImageFile(name string) bool {
	base := filepath.Base(name)
	if strings.HasPrefix(base, "._") {
		return false
	}
	_, ok := imageExts[strings.ToLower(filepath.Ext(base))]
	return ok
}

// Layout locates one split inside a dataset root:
// <root>/<split>/images and <root>/<split>/labels.
type Layout struct {
	Root  string
	Split Split
}

func (l Layout) ImagesDir() string { return filepath.Join(l.Root, string(l.Split), "images") }
func (l Layout) LabelsDir() string { return filepath.Join(l.Root, string(l.Split), "labels") }

// ListImages returns the sorted image paths of the split.
func (l Layout) ListImages() ([]string, error) {
	dir := l.ImagesDir()
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatasetRoot, err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !IsImageFile(e.Name()) {
			continue
		}
		out = append(out, filepath.Join(dir, e.Name()))
	}
	sort.Strings(out)
	return out, nil
}

// LabelPath derives the label file of an image: the nearest "images" folder
// becomes "labels" and the extension becomes ".txt". Images outside an
// "images" folder keep their label next to them.
func LabelPath(imagePath string) string {
	dir := filepath.Dir(imagePath)
	base := strings.TrimSuffix(filepath.Base(imagePath), filepath.Ext(imagePath)) + ".txt"
	if filepath.Base(dir) == "images" {
		return filepath.Join(filepath.Dir(dir), "labels", base)
	}
	return filepath.Join(dir, base)
}
