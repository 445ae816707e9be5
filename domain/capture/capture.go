package capture

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/vova616/screenshot"
)

// ErrEmptyCapture is returned when the grab produced no pixels.
var ErrEmptyCapture = errors.New("empty capture")

// GrabFunc returns a screenshot of rect, or of the primary screen when rect is nil.
type GrabFunc func(rect *image.Rectangle) (*image.RGBA, error)

// Grab returns a screen capture of the primary monitor.
func Grab() (*image.RGBA, error) {
	return screenshot.CaptureScreen()
}

// GrabRect returns a capture of the given screen area.
func GrabRect(area image.Rectangle) (*image.RGBA, error) {
	return screenshot.CaptureRect(area)
}

// ScreenGrab is the default GrabFunc.
func ScreenGrab(rect *image.Rectangle) (*image.RGBA, error) {
	if rect != nil && !rect.Empty() {
		return GrabRect(*rect)
	}
	return Grab()
}

// Stats summarises importer activity.
type Stats struct {
	Imports    uint64
	Failures   uint64
	AvgCapture time.Duration
	LastPath   string
}

// Importer saves screen grabs as new dataset images.
type Importer struct {
	grab     GrabFunc
	logger   *slog.Logger
	imports  atomic.Uint64
	failures atomic.Uint64
	nanos    atomic.Uint64
	last     atomic.Pointer[string]
}

// NewImporter returns an importer using grab, or ScreenGrab when nil.
func NewImporter(grab GrabFunc, logger *slog.Logger) *Importer {
	if grab == nil {
		grab = ScreenGrab
	}
	return &Importer{grab: grab, logger: logger}
}

// Import captures rect (nil for full screen) and writes it to dir as
// capture-<uuid>.png. It returns the new image path.
func (i *Importer) Import(dir string, rect *image.Rectangle) (string, error) {
	start := time.Now()
	img, err := i.grab(rect)
	if err != nil {
		i.failures.Add(1)
		return "", fmt.Errorf("grab screen: %w", err)
	}
	if img == nil || img.Bounds().Empty() {
		i.failures.Add(1)
		return "", ErrEmptyCapture
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		i.failures.Add(1)
		return "", err
	}
	path := filepath.Join(dir, "capture-"+uuid.NewString()+".png")
	if err := imaging.Save(img, path); err != nil {
		i.failures.Add(1)
		return "", fmt.Errorf("save capture: %w", err)
	}
	elapsed := time.Since(start)
	i.nanos.Add(uint64(elapsed.Nanoseconds()))
	i.imports.Add(1)
	i.last.Store(&path)
	if i.logger != nil {
		b := img.Bounds()
		i.logger.Info("capture imported", "path", path, "width", b.Dx(), "height", b.Dy(), "took", elapsed)
	}
	return path, nil
}

// Stats returns a snapshot of the import counters.
func (i *Importer) Stats() Stats {
	n := i.imports.Load()
	s := Stats{Imports: n, Failures: i.failures.Load()}
	if n > 0 {
		s.AvgCapture = time.Duration(i.nanos.Load() / n)
	}
	if p := i.last.Load(); p != nil {
		s.LastPath = *p
	}
	return s
}
