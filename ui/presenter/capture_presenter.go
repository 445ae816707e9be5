package presenter

import (
	"fmt"
	"image"
	"log/slog"
	"path/filepath"
)

// CaptureImporter saves a screen grab into a folder.
type CaptureImporter interface {
	Import(dir string, rect *image.Rectangle) (string, error)
}

// RegionProvider returns the saved capture region, if any.
type RegionProvider interface {
	ActiveRect() *image.Rectangle
}

// CaptureTarget receives imported images.
type CaptureTarget interface {
	ImagesDir() string
	AddImage(path string) error
}

// CaptureView shows the outcome of an import.
type CaptureView interface {
	SetStatus(text string)
	ShowError(title, message string)
}

// CapturePresenter owns presentation logic for importing screen grabs as
// new dataset images.
type CapturePresenter struct {
	importer CaptureImporter
	region   RegionProvider
	target   CaptureTarget
	view     CaptureView
	logger   *slog.Logger
}

func NewCapturePresenter(importer CaptureImporter, region RegionProvider, target CaptureTarget, view CaptureView, logger *slog.Logger) *CapturePresenter {
	return &CapturePresenter{importer: importer, region: region, target: target, view: view, logger: logger}
}

// ImportScreen grabs the whole primary screen.
func (c *CapturePresenter) ImportScreen() error {
	if c == nil || c.importer == nil || c.target == nil || c.view == nil {
		return nil
	}
	return c.importRect(nil)
}

// ImportRegion grabs the saved capture region. Without a region it only
// reports that one must be chosen first.
func (c *CapturePresenter) ImportRegion() error {
	if c == nil || c.importer == nil || c.target == nil || c.view == nil {
		return nil
	}
	var rect *image.Rectangle
	if c.region != nil {
		rect = c.region.ActiveRect()
	}
	if rect == nil {
		c.view.SetStatus("No capture region selected")
		return nil
	}
	return c.importRect(rect)
}

func (c *CapturePresenter) importRect(rect *image.Rectangle) error {
	dir := c.target.ImagesDir()
	if dir == "" {
		c.view.ShowError("Capture", "Open a dataset before importing screen captures.")
		return ErrNoImage
	}
	path, err := c.importer.Import(dir, rect)
	if err != nil {
		if c.logger != nil {
			c.logger.Error("capture import", "dir", dir, "error", err)
		}
		c.view.ShowError("Capture", err.Error())
		return err
	}
	if err := c.target.AddImage(path); err != nil {
		return err
	}
	c.view.SetStatus(fmt.Sprintf("Imported %s", filepath.Base(path)))
	return nil
}
