package model

import (
	"github.com/soocke/annotator-go/domain/geometry"
	"github.com/soocke/annotator-go/ui/images"
)

// ImageModel holds the decoded image currently on the canvas. The zero
// value means no image is loaded and is usable.
// No synchronization needed: updates occur on the UI thread.
type ImageModel struct {
	loaded images.Loaded
	ok     bool
}

func NewImageModel() *ImageModel { return &ImageModel{} }

// Set replaces the current image.
func (m *ImageModel) Set(l images.Loaded) {
	if m == nil {
		return
	}
	if l.Image == nil || l.Width <= 0 || l.Height <= 0 {
		m.Clear()
		return
	}
	m.loaded = l
	m.ok = true
}

// Clear drops the current image.
func (m *ImageModel) Clear() {
	if m == nil {
		return
	}
	m.loaded = images.Loaded{}
	m.ok = false
}

// Current returns the loaded image, if any.
func (m *ImageModel) Current() (images.Loaded, bool) {
	if m == nil {
		return images.Loaded{}, false
	}
	return m.loaded, m.ok
}

// Transform returns a view transform for the image at zoom z.
func (m *ImageModel) Transform(z geometry.ZoomLevel) (geometry.ViewTransform, bool) {
	if m == nil || !m.ok {
		return geometry.ViewTransform{}, false
	}
	return geometry.NewViewTransform(m.loaded.Width, m.loaded.Height, z), true
}
