package editor

import (
	"errors"
	"log/slog"
	"math"

	"github.com/soocke/annotator-go/domain/annotation"
	"github.com/soocke/annotator-go/domain/geometry"
)

// Engine interprets pointer and key events against the AnnotationSet of the
// active image. It is not safe for concurrent use; the UI goroutine owns it.
// With no set attached the engine is inert: pointer-down reports ErrBusy and
// moves are ignored.
type Engine struct {
	mode          Mode
	set           *annotation.AnnotationSet
	vt            geometry.ViewTransform
	opts          Options
	logger        *slog.Logger
	resizeEnabled bool
	newClass      annotation.ClassLabel

	// gesture bookkeeping
	anchor         geometry.Point
	current        geometry.Point
	activeID       string
	original       geometry.Rect
	grabDX, grabDY float64
	pinX, pinY     float64
	corner         Corner

	modeListeners   []ModeListener
	changeListeners []ChangeListener
}

var _ EngineContract = (*Engine)(nil)

// NewEngine returns an idle engine with no image attached.
func NewEngine(logger *slog.Logger, opts Options) *Engine {
	e := &Engine{logger: logger, vt: geometry.ViewTransform{Zoom: geometry.Zoom1x}}
	e.SetOptions(opts)
	return e
}

// SetOptions replaces the tuning options; non-positive values fall back to defaults.
func (e *Engine) SetOptions(opts Options) {
	def := DefaultOptions()
	if opts.HandleSizePx <= 0 {
		opts.HandleSizePx = def.HandleSizePx
	}
	if opts.HitTolerancePx < 0 {
		opts.HitTolerancePx = def.HitTolerancePx
	}
	if opts.MinBoxPx <= 0 {
		opts.MinBoxPx = def.MinBoxPx
	}
	e.opts = opts
}

// Options returns the active options.
func (e *Engine) Options() Options { return e.opts }

// AddModeListener registers a listener for mode transitions.
func (e *Engine) AddModeListener(l ModeListener) {
	if l != nil {
		e.modeListeners = append(e.modeListeners, l)
	}
}

// AddChangeListener registers a listener for visible changes.
func (e *Engine) AddChangeListener(l ChangeListener) {
	if l != nil {
		e.changeListeners = append(e.changeListeners, l)
	}
}

// Attach makes set the active AnnotationSet. The current zoom is kept when
// vt carries an unsupported zoom value.
func (e *Engine) Attach(set *annotation.AnnotationSet, vt geometry.ViewTransform) {
	if !vt.Zoom.Valid() {
		vt.Zoom = e.vt.Zoom
	}
	e.set = set
	e.vt = vt
	e.resetGesture()
	e.transition(ModeIdle)
	e.changed()
}

// Detach drops the active set; the engine becomes inert until the next Attach.
func (e *Engine) Detach() {
	e.set = nil
	e.resetGesture()
	e.transition(ModeIdle)
	e.changed()
}

func (e *Engine) Set() *annotation.AnnotationSet     { return e.set }
func (e *Engine) Transform() geometry.ViewTransform { return e.vt }
func (e *Engine) Mode() Mode                        { return e.mode }
func (e *Engine) Zoom() geometry.ZoomLevel          { return e.vt.Zoom }
func (e *Engine) ResizeHandlesEnabled() bool        { return e.resizeEnabled }
func (e *Engine) NewBoxClass() annotation.ClassLabel {
	return e.newClass
}

// SetNewBoxClass selects the class assigned to boxes drawn from now on.
func (e *Engine) SetNewBoxClass(c annotation.ClassLabel) { e.newClass = c }

// HandleSize is the corner handle side in display pixels at the current zoom.
func (e *Engine) HandleSize() float64 { return e.opts.HandleSizePx * e.vt.Zoom.Factor() }

// DrawingRect returns the rubber band while a new box is being dragged out.
func (e *Engine) DrawingRect() (geometry.DisplayRect, bool) {
	if e.mode != ModeDrawing {
		return geometry.DisplayRect{}, false
	}
	return geometry.DisplayRectFromPoints(e.anchor, e.current), true
}

// ActiveCorner returns the corner being dragged while resizing.
func (e *Engine) ActiveCorner() (Corner, bool) {
	return e.corner, e.mode == ModeResizingCorner
}

// PointerDown starts a resize, a move or a new drawing, in that priority.
func (e *Engine) PointerDown(p geometry.Point) error {
	if e.set == nil {
		return ErrBusy
	}
	if e.mode != ModeIdle {
		// a release was lost; keep whatever the previous gesture produced
		e.resetGesture()
		e.transition(ModeIdle)
	}
	e.anchor, e.current = p, p

	if e.resizeEnabled {
		if id, corner, ok := e.handleAt(p); ok {
			b, _ := e.set.Get(id)
			x0, y0, x1, y1 := b.Rect.Bounds()
			px, py := cornerXY(corner.Opposite(), x0, y0, x1, y1)
			// label files may hold boxes that reach past the image edge
			e.pinX, e.pinY = geometry.Clamp(px, 0, 1), geometry.Clamp(py, 0, 1)
			e.activeID, e.original, e.corner = id, b.Rect, corner
			e.set.SetHover(id)
			e.set.SetSelected(id)
			e.transition(ModeResizingCorner)
			e.changed()
			return nil
		}
	}

	if id := e.set.BoxAt(p, e.vt, e.opts.HitTolerancePx); id != "" {
		b, _ := e.set.Get(id)
		nx, ny, err := e.vt.PointToNormalized(p)
		if err != nil {
			return e.fail(err)
		}
		e.activeID, e.original = id, b.Rect
		e.grabDX, e.grabDY = nx-b.Rect.CX, ny-b.Rect.CY
		e.set.SetHover(id)
		e.set.SetSelected(id)
		e.transition(ModeMovingBox)
		e.changed()
		return nil
	}

	e.set.SetSelected("")
	e.transition(ModeDrawing)
	e.changed()
	return nil
}

// PointerMove updates hover in Idle and drives the active gesture otherwise.
func (e *Engine) PointerMove(p geometry.Point) error {
	if e.set == nil {
		return nil
	}
	e.current = p
	switch e.mode {
	case ModeIdle:
		if e.resizeEnabled {
			if _, _, ok := e.handleAt(p); ok {
				// the outer half of a handle lies outside the hover tolerance
				return nil
			}
		}
		if _, changed := e.set.HoverAt(p, e.vt, e.opts.HitTolerancePx); changed {
			e.changed()
		}
	case ModeDrawing:
		e.changed()
	case ModeMovingBox:
		r, err := e.movedRect(p)
		if err != nil {
			return e.fail(err)
		}
		if err := e.set.SetRect(e.activeID, r); err != nil {
			return e.fail(err)
		}
		e.changed()
	case ModeResizingCorner:
		r, err := e.resizedRect(p)
		if err != nil {
			return e.fail(err)
		}
		if err := e.set.SetRect(e.activeID, r); err != nil {
			return e.fail(err)
		}
		e.changed()
	}
	return nil
}

// PointerUp finishes the active gesture and always returns to Idle. A drawn
// box below the minimum size is discarded and ErrDegenerateBox is returned
// for the caller to ignore or report.
func (e *Engine) PointerUp(p geometry.Point) error {
	if e.set == nil {
		e.transition(ModeIdle)
		return nil
	}
	var err error
	switch e.mode {
	case ModeDrawing:
		d := geometry.DisplayRectFromPoints(e.anchor, p)
		var id string
		id, err = e.set.AddBox(d, e.newClass, e.vt, e.opts.MinBoxPx)
		if err == nil {
			if e.logger != nil {
				e.logger.Debug("box added", "id", id, "class", e.newClass.String())
			}
		} else if e.logger != nil {
			e.logger.Debug("box rejected", "error", err)
		}
	case ModeMovingBox, ModeResizingCorner:
		err = e.PointerMove(p)
	}
	e.resetGesture()
	e.transition(ModeIdle)
	e.set.HoverAt(p, e.vt, e.opts.HitTolerancePx)
	e.changed()
	return err
}

// Cancel aborts the active gesture, restoring a moved or resized box.
func (e *Engine) Cancel() {
	if e.set != nil && (e.mode == ModeMovingBox || e.mode == ModeResizingCorner) {
		_ = e.set.SetRect(e.activeID, e.original)
	}
	e.resetGesture()
	e.transition(ModeIdle)
	e.changed()
}

// DeleteHovered removes the hovered box and returns its id.
func (e *Engine) DeleteHovered() (string, error) {
	if e.set == nil || e.mode != ModeIdle {
		return "", ErrBusy
	}
	b, ok := e.set.Hovered()
	if !ok {
		return "", ErrNoHoveredBox
	}
	if err := e.set.RemoveBox(b.ID); err != nil {
		return "", err
	}
	e.changed()
	return b.ID, nil
}

// ToggleClassHovered flips the class of the hovered box.
func (e *Engine) ToggleClassHovered() error {
	if e.set == nil || e.mode != ModeIdle {
		return ErrBusy
	}
	b, ok := e.set.Hovered()
	if !ok {
		return ErrNoHoveredBox
	}
	if err := e.set.ToggleClass(b.ID); err != nil {
		return err
	}
	e.changed()
	return nil
}

// ClearAll removes every box of the active image.
func (e *Engine) ClearAll() error {
	if e.set == nil || e.mode != ModeIdle {
		return ErrBusy
	}
	e.set.Clear()
	e.changed()
	return nil
}

// ToggleResizeHandles flips whether corner handles are hit-testable.
func (e *Engine) ToggleResizeHandles() bool {
	e.resizeEnabled = !e.resizeEnabled
	e.changed()
	return e.resizeEnabled
}

// ToggleZoom cycles the zoom level. Normalized box data is untouched.
func (e *Engine) ToggleZoom() (geometry.ZoomLevel, error) {
	if e.mode != ModeIdle {
		return e.vt.Zoom, ErrBusy
	}
	e.vt = e.vt.WithZoom(e.vt.Zoom.Next())
	e.changed()
	return e.vt.Zoom, nil
}

// handleAt hit-tests the corner handles of the hovered box only, so a box
// underneath never takes a gesture from the one on top.
func (e *Engine) handleAt(p geometry.Point) (string, Corner, bool) {
	size := e.HandleSize()
	hit := func(b annotation.Box) (Corner, bool) {
		d, err := b.Display(e.vt)
		if err != nil {
			return 0, false
		}
		for i, h := range geometry.CornerHandleRects(d, size) {
			if geometry.PointInRect(p, h, 0) {
				return Corner(i), true
			}
		}
		return 0, false
	}
	hb, ok := e.set.Hovered()
	if !ok {
		return "", 0, false
	}
	if c, ok := hit(hb); ok {
		return hb.ID, c, true
	}
	return "", 0, false
}

func (e *Engine) movedRect(p geometry.Point) (geometry.Rect, error) {
	nx, ny, err := e.vt.PointToNormalized(p)
	if err != nil {
		return geometry.Rect{}, err
	}
	r := e.original
	r.CX = nx - e.grabDX
	r.CY = ny - e.grabDY
	return r.Clamped(), nil
}

func (e *Engine) resizedRect(p geometry.Point) (geometry.Rect, error) {
	nx, ny, err := e.vt.PointToNormalized(p)
	if err != nil {
		return geometry.Rect{}, err
	}
	nx, ny = geometry.Clamp(nx, 0, 1), geometry.Clamp(ny, 0, 1)
	sx, sy := e.vt.Scale()
	x0, x1 := span(e.pinX, nx, e.opts.MinBoxPx/sx)
	y0, y1 := span(e.pinY, ny, e.opts.MinBoxPx/sy)
	e.corner = cornerFor(nx >= e.pinX, ny >= e.pinY)
	return geometry.RectFromBounds(x0, y0, x1, y1).Cropped(), nil
}

// span returns the interval between the pinned edge and the pointer, at
// least minSize wide. Crossing the pin flips the side; a floor that would
// leave the unit interval flips to the other side of the pin.
func span(pin, v, minSize float64) (lo, hi float64) {
	if v >= pin {
		lo, hi = pin, math.Max(v, pin+minSize)
		if hi > 1 {
			lo, hi = pin-minSize, pin
		}
		return lo, hi
	}
	lo, hi = math.Min(v, pin-minSize), pin
	if lo < 0 {
		lo, hi = pin, pin+minSize
	}
	return lo, hi
}

func cornerXY(c Corner, x0, y0, x1, y1 float64) (float64, float64) {
	switch c {
	case CornerNW:
		return x0, y0
	case CornerNE:
		return x1, y0
	case CornerSW:
		return x0, y1
	default:
		return x1, y1
	}
}

func cornerFor(east, south bool) Corner {
	switch {
	case !east && !south:
		return CornerNW
	case east && !south:
		return CornerNE
	case !east && south:
		return CornerSW
	default:
		return CornerSE
	}
}

func (e *Engine) fail(err error) error {
	if e.set != nil && e.activeID != "" && (e.mode == ModeMovingBox || e.mode == ModeResizingCorner) {
		_ = e.set.SetRect(e.activeID, e.original)
	}
	if e.logger != nil && !errors.Is(err, annotation.ErrDegenerateBox) {
		e.logger.Debug("gesture aborted", "mode", e.mode.String(), "error", err)
	}
	e.resetGesture()
	e.transition(ModeIdle)
	e.changed()
	return err
}

func (e *Engine) resetGesture() {
	e.activeID = ""
	e.original = geometry.Rect{}
	e.grabDX, e.grabDY = 0, 0
	e.pinX, e.pinY = 0, 0
	e.corner = CornerNW
}

func (e *Engine) transition(next Mode) {
	if e.mode == next {
		return
	}
	prev := e.mode
	e.mode = next
	if e.logger != nil {
		e.logger.Debug("editor mode", "from", prev.String(), "to", next.String())
	}
	for _, l := range e.modeListeners {
		l(prev, next)
	}
}

func (e *Engine) changed() {
	for _, l := range e.changeListeners {
		l()
	}
}
