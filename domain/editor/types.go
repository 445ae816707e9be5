package editor

import (
	"errors"

	"github.com/soocke/annotator-go/domain/annotation"
	"github.com/soocke/annotator-go/domain/geometry"
)

var (
	// ErrNoHoveredBox is reported by key actions that target the hovered box.
	ErrNoHoveredBox = errors.New("no hovered box")
	// ErrBusy is reported when an action is not allowed in the current mode,
	// or no image is attached yet.
	ErrBusy = errors.New("editor busy")
)

// Mode enumerates how pointer events are interpreted.
type Mode int

const (
	ModeIdle Mode = iota
	ModeDrawing
	ModeMovingBox
	ModeResizingCorner
)

func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "idle"
	case ModeDrawing:
		return "drawing"
	case ModeMovingBox:
		return "moving"
	case ModeResizingCorner:
		return "resizing"
	default:
		return "unknown"
	}
}

// Corner identifies a resize handle. The order matches geometry.CornerHandleRects.
type Corner int

const (
	CornerNW Corner = iota
	CornerNE
	CornerSW
	CornerSE
)

func (c Corner) String() string {
	switch c {
	case CornerNW:
		return "nw"
	case CornerNE:
		return "ne"
	case CornerSW:
		return "sw"
	case CornerSE:
		return "se"
	default:
		return "unknown"
	}
}

// Opposite returns the diagonally opposite corner.
func (c Corner) Opposite() Corner { return 3 - c }

// Options tune hit testing and the minimum box size, all in display pixels
// at 1x zoom. HandleSizePx is multiplied by the zoom factor.
type Options struct {
	HandleSizePx   float64
	HitTolerancePx float64
	MinBoxPx       float64
}

// DefaultOptions returns a 10px handle, 3px hover tolerance and 2px floor.
func DefaultOptions() Options {
	return Options{HandleSizePx: 10, HitTolerancePx: 3, MinBoxPx: 2}
}

// ModeListener is called on every mode transition.
type ModeListener func(prev, next Mode)

// ChangeListener is called after anything visible changed (boxes, hover,
// rubber band, zoom, attached image).
type ChangeListener func()

// Interface slices for consumers (presenters).
type ModeSource interface{ Mode() Mode }
type PointerHandler interface {
	PointerDown(p geometry.Point) error
	PointerMove(p geometry.Point) error
	PointerUp(p geometry.Point) error
	Cancel()
}
type KeyActions interface {
	DeleteHovered() (string, error)
	ToggleClassHovered() error
	ToggleResizeHandles() bool
	ToggleZoom() (geometry.ZoomLevel, error)
}
type Attacher interface {
	Attach(set *annotation.AnnotationSet, vt geometry.ViewTransform)
	Detach()
	Set() *annotation.AnnotationSet
	Transform() geometry.ViewTransform
}

// EngineContract aggregate for DI.
type EngineContract interface {
	ModeSource
	PointerHandler
	KeyActions
	Attacher
	AddModeListener(ModeListener)
	AddChangeListener(ChangeListener)
}
