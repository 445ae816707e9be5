package presenter

import (
	"errors"
	"fmt"
	"image"
	"log/slog"

	"github.com/soocke/annotator-go/domain/annotation"
	"github.com/soocke/annotator-go/domain/editor"
	"github.com/soocke/annotator-go/domain/geometry"
	"github.com/soocke/annotator-go/ui/images"
)

// CanvasEngine is the editor surface used by the canvas.
type CanvasEngine interface {
	editor.EngineContract
	ClearAll() error
	Zoom() geometry.ZoomLevel
	HandleSize() float64
	DrawingRect() (geometry.DisplayRect, bool)
	ResizeHandlesEnabled() bool
	NewBoxClass() annotation.ClassLabel
	SetNewBoxClass(annotation.ClassLabel)
}

// ImageSource provides the decoded image on the canvas.
type ImageSource interface {
	Current() (images.Loaded, bool)
}

// CanvasView displays the rendered canvas and the hovered-box preview.
type CanvasView interface {
	ShowCanvas(img image.Image)
	ShowCrop(img image.Image)
	SetStatus(text string)
	Confirm(title, message string) bool
}

const (
	cropPreviewPx  = 220
	cropPaddingPx  = 4
	statusNoHover  = "No box under the cursor"
	statusNotReady = "Waiting for the image"
)

type zoomKey struct {
	src  image.Image
	zoom geometry.ZoomLevel
}

type cropKey struct {
	id   string
	rect geometry.Rect
	src  image.Image
}

// CanvasPresenter maps pointer and key input onto the editor engine and
// renders the annotated image whenever the engine reports a change.
type CanvasPresenter struct {
	engine  CanvasEngine
	images  ImageSource
	view    CanvasView
	table   annotation.ClassTable
	palette images.Palette
	logger  *slog.Logger

	ConfirmDelete bool

	dirty   bool
	zoomed  image.Image
	zkey    zoomKey
	crop    cropKey
	hasCrop bool
}

// NewCanvasPresenter wires the canvas and subscribes to engine changes.
func NewCanvasPresenter(engine CanvasEngine, src ImageSource, view CanvasView, table annotation.ClassTable, logger *slog.Logger) *CanvasPresenter {
	p := &CanvasPresenter{
		engine:  engine,
		images:  src,
		view:    view,
		table:   table,
		palette: images.DefaultPalette(),
		logger:  logger,
		dirty:   true,
	}
	if engine != nil {
		engine.AddChangeListener(func() { p.dirty = true })
	}
	return p
}

// PointerDown forwards a button press at display coordinates (x, y).
func (p *CanvasPresenter) PointerDown(x, y float64) {
	p.report("pointer down", p.engine.PointerDown(geometry.Pt(x, y)))
}

// PointerMove forwards pointer motion.
func (p *CanvasPresenter) PointerMove(x, y float64) {
	p.report("pointer move", p.engine.PointerMove(geometry.Pt(x, y)))
}

// PointerUp forwards a button release.
func (p *CanvasPresenter) PointerUp(x, y float64) {
	p.report("pointer up", p.engine.PointerUp(geometry.Pt(x, y)))
}

// Cancel aborts the active gesture.
func (p *CanvasPresenter) Cancel() { p.engine.Cancel() }

// DeleteHovered removes the box under the cursor, asking first when
// ConfirmDelete is set.
func (p *CanvasPresenter) DeleteHovered() {
	set := p.engine.Set()
	if set == nil {
		p.view.SetStatus(statusNotReady)
		return
	}
	b, ok := set.Hovered()
	if !ok {
		p.view.SetStatus(statusNoHover)
		return
	}
	if p.ConfirmDelete && !p.view.Confirm("Delete box", fmt.Sprintf("Delete this %s box?", p.table.Name(b.Class))) {
		return
	}
	if _, err := p.engine.DeleteHovered(); err != nil {
		p.report("delete", err)
		return
	}
	p.view.SetStatus("Deleted " + p.table.Name(b.Class) + " box")
}

// ToggleClass flips the class of the box under the cursor.
func (p *CanvasPresenter) ToggleClass() {
	if err := p.engine.ToggleClassHovered(); err != nil {
		p.report("toggle class", err)
		return
	}
	if b, ok := p.engine.Set().Hovered(); ok {
		p.view.SetStatus("Class: " + p.table.Name(b.Class))
	}
}

// ToggleResize flips whether corner handles can be dragged.
func (p *CanvasPresenter) ToggleResize() {
	if p.engine.ToggleResizeHandles() {
		p.view.SetStatus("Resize handles on")
		return
	}
	p.view.SetStatus("Resize handles off")
}

// ToggleZoom cycles the zoom level.
func (p *CanvasPresenter) ToggleZoom() {
	z, err := p.engine.ToggleZoom()
	if err != nil {
		p.report("zoom", err)
		return
	}
	p.view.SetStatus("Zoom " + z.String())
}

// ClearAll removes every box of the current image after confirmation.
func (p *CanvasPresenter) ClearAll() {
	set := p.engine.Set()
	if set == nil {
		p.view.SetStatus(statusNotReady)
		return
	}
	n := set.Len()
	if n == 0 {
		return
	}
	if !p.view.Confirm("Clear annotations", fmt.Sprintf("Remove all %d box(es) from this image?", n)) {
		return
	}
	if err := p.engine.ClearAll(); err != nil {
		p.report("clear", err)
		return
	}
	p.view.SetStatus(fmt.Sprintf("Removed %d box(es)", n))
}

// SetNewBoxClass selects the class of boxes drawn from now on.
func (p *CanvasPresenter) SetNewBoxClass(c annotation.ClassLabel) {
	p.engine.SetNewBoxClass(c)
	p.view.SetStatus("New boxes: " + p.table.Name(c))
}

// Invalidate forces a redraw on the next Tick.
func (p *CanvasPresenter) Invalidate() { p.dirty = true }

// SetPalette changes the overlay colours and redraws.
func (p *CanvasPresenter) SetPalette(pal images.Palette) {
	p.palette = pal
	p.dirty = true
}

// Tick redraws the canvas if anything changed since the last frame.
func (p *CanvasPresenter) Tick() {
	if p == nil || !p.dirty {
		return
	}
	p.dirty = false
	p.Render()
}

// Render draws the current image, its boxes, handles and rubber band.
func (p *CanvasPresenter) Render() {
	l, ok := p.images.Current()
	if !ok {
		p.zoomed, p.zkey = nil, zoomKey{}
		p.view.ShowCanvas(nil)
		p.clearCrop()
		return
	}
	zoom := p.engine.Zoom()
	key := zoomKey{src: l.Image, zoom: zoom}
	if p.zoomed == nil || p.zkey != key {
		p.zoomed = images.Zoom(l.Image, zoom)
		p.zkey = key
	}
	vt := geometry.NewViewTransform(l.Width, l.Height, zoom)
	scene := images.Scene{Zoom: geometry.Zoom1x, Palette: p.palette}

	var hovered *annotation.Box
	if set := p.engine.Set(); set != nil {
		handles := p.engine.ResizeHandlesEnabled()
		for _, b := range set.Boxes() {
			d, err := b.Display(vt)
			if err != nil {
				continue
			}
			scene.Boxes = append(scene.Boxes, images.OverlayBox{
				Rect:    d,
				Label:   p.table.Name(b.Class),
				Good:    b.Class == annotation.ClassGood,
				Hovered: b.Hovered,
			})
			if handles {
				hs := geometry.CornerHandleRects(d, p.engine.HandleSize())
				scene.Handles = append(scene.Handles, hs[:]...)
			}
			if b.Hovered {
				bb := b
				hovered = &bb
			}
		}
	}
	if band, ok := p.engine.DrawingRect(); ok {
		scene.Band = &band
	}
	p.view.ShowCanvas(images.RenderOverlay(p.zoomed, scene))

	if hovered == nil {
		p.clearCrop()
		return
	}
	ck := cropKey{id: hovered.ID, rect: hovered.Rect, src: l.Image}
	if p.hasCrop && p.crop == ck {
		return
	}
	crop, _, err := images.CropBox(l.Image, hovered.Rect, cropPaddingPx)
	if err != nil {
		p.clearCrop()
		return
	}
	p.crop, p.hasCrop = ck, true
	p.view.ShowCrop(images.ScaleToFit(crop, cropPreviewPx, cropPreviewPx))
}

func (p *CanvasPresenter) clearCrop() {
	if !p.hasCrop {
		return
	}
	p.hasCrop = false
	p.crop = cropKey{}
	p.view.ShowCrop(nil)
}

// report turns engine errors into status text. Degenerate drawings and
// input while busy are expected and stay silent.
func (p *CanvasPresenter) report(op string, err error) {
	switch {
	case err == nil:
		return
	case errors.Is(err, annotation.ErrDegenerateBox), errors.Is(err, editor.ErrBusy):
		if p.logger != nil {
			p.logger.Debug("canvas input ignored", "op", op, "error", err)
		}
	case errors.Is(err, editor.ErrNoHoveredBox):
		p.view.SetStatus(statusNoHover)
	default:
		if p.logger != nil {
			p.logger.Warn("canvas input failed", "op", op, "error", err)
		}
		p.view.SetStatus(fmt.Sprintf("%s: %v", op, err))
	}
}
