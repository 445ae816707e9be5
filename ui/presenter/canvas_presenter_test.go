package presenter

import (
	"image/color"
	"strings"
	"testing"

	"github.com/soocke/annotator-go/domain/annotation"
	"github.com/soocke/annotator-go/domain/editor"
	"github.com/soocke/annotator-go/domain/geometry"
	"github.com/soocke/annotator-go/ui/images"
)

// newCanvasFixture attaches a 100x50 image with one good box spanning
// display x 40..60, y 20..30.
func newCanvasFixture(t *testing.T) (*CanvasPresenter, *editor.Engine, *mockView) {
	t.Helper()
	l, _ := fakeLoader("img.png")
	img := newImageModel()
	img.Set(l)

	table := annotation.DefaultClassTable()
	set, warns := annotation.Deserialize("1 0.500000 0.500000 0.200000 0.200000\n", table)
	if len(warns) != 0 {
		t.Fatalf("unexpected warnings %v", warns)
	}
	eng := newEngine()
	vt, _ := img.Transform(geometry.Zoom1x)
	eng.Attach(set, vt)

	view := &mockView{}
	p := NewCanvasPresenter(eng, img, view, table, discardLogger)
	return p, eng, view
}

func TestCanvasPresenter_TickRendersOnlyWhenDirty(t *testing.T) {
	p, _, view := newCanvasFixture(t)
	p.Tick()
	if view.canvases != 1 || view.canvas == nil {
		t.Fatalf("expected one render, got %d", view.canvases)
	}
	if b := view.canvas.Bounds(); b.Dx() != 100 || b.Dy() != 50 {
		t.Fatalf("unexpected canvas size %v", b)
	}
	p.Tick()
	if view.canvases != 1 {
		t.Fatalf("expected no render without changes, got %d", view.canvases)
	}
	p.Invalidate()
	p.Tick()
	if view.canvases != 2 {
		t.Fatalf("expected render after Invalidate, got %d", view.canvases)
	}
}

func TestCanvasPresenter_SetPaletteRedraws(t *testing.T) {
	p, _, view := newCanvasFixture(t)
	p.Tick()
	pal := images.DefaultPalette()
	pal.Good = color.NRGBA{B: 0xff, A: 0xff}
	p.SetPalette(pal)
	p.Tick()
	if view.canvases != 2 {
		t.Fatalf("expected redraw after SetPalette, got %d", view.canvases)
	}
	// right edge of the box outline
	got := color.NRGBAModel.Convert(view.canvas.At(59, 25))
	if got != pal.Good {
		t.Fatalf("expected outline in new colour, got %v", got)
	}
}

func TestCanvasPresenter_HoverShowsCropPreview(t *testing.T) {
	p, _, view := newCanvasFixture(t)
	p.PointerMove(50, 25)
	p.Tick()
	if view.crops != 1 || view.crop == nil {
		t.Fatalf("expected crop preview, got %d", view.crops)
	}

	// same hovered box, no new crop
	p.Invalidate()
	p.Tick()
	if view.crops != 1 {
		t.Fatalf("expected cached crop, got %d", view.crops)
	}

	p.PointerMove(5, 5)
	p.Tick()
	if view.crops != 2 || view.crop != nil {
		t.Fatalf("expected crop cleared, got %d %v", view.crops, view.crop)
	}
}

func TestCanvasPresenter_ZoomDoublesCanvas(t *testing.T) {
	p, eng, view := newCanvasFixture(t)
	p.ToggleZoom()
	p.Tick()
	if eng.Zoom() != geometry.Zoom2x {
		t.Fatalf("expected 2x zoom, got %v", eng.Zoom())
	}
	if b := view.canvas.Bounds(); b.Dx() != 200 || b.Dy() != 100 {
		t.Fatalf("unexpected canvas size %v", b)
	}
	if !strings.Contains(view.lastStatus(), "2x") {
		t.Fatalf("unexpected status %q", view.lastStatus())
	}
}

func TestCanvasPresenter_DrawAddsBox(t *testing.T) {
	p, eng, view := newCanvasFixture(t)
	p.SetNewBoxClass(annotation.ClassBad)
	p.PointerDown(5, 5)
	p.PointerMove(25, 15)
	p.PointerUp(25, 15)

	if eng.Set().Len() != 2 {
		t.Fatalf("expected 2 boxes, got %d", eng.Set().Len())
	}
	if _, bad := eng.Set().Counts(); bad != 1 {
		t.Fatalf("expected new bad box, got %d", bad)
	}
	if !eng.Set().Dirty() {
		t.Fatalf("expected set marked dirty")
	}
	before := len(view.status)
	p.PointerDown(70, 5)
	p.PointerUp(71, 6)
	if eng.Set().Len() != 2 {
		t.Fatalf("degenerate drag must not add a box")
	}
	if len(view.status) != before {
		t.Fatalf("degenerate drag should stay silent, got %v", view.status[before:])
	}
}

func TestCanvasPresenter_DeleteAsksWhenConfigured(t *testing.T) {
	p, eng, view := newCanvasFixture(t)
	p.ConfirmDelete = true
	p.PointerMove(50, 25)

	view.confirm = false
	p.DeleteHovered()
	if view.confirms != 1 || eng.Set().Len() != 1 {
		t.Fatalf("expected declined delete to keep the box")
	}

	view.confirm = true
	p.DeleteHovered()
	if eng.Set().Len() != 0 {
		t.Fatalf("expected box deleted")
	}
}

func TestCanvasPresenter_DeleteWithoutHover(t *testing.T) {
	p, eng, view := newCanvasFixture(t)
	p.DeleteHovered()
	if eng.Set().Len() != 1 {
		t.Fatalf("nothing should be deleted")
	}
	if view.lastStatus() != statusNoHover {
		t.Fatalf("unexpected status %q", view.lastStatus())
	}
	if view.confirms != 0 {
		t.Fatalf("no confirmation expected")
	}
}

func TestCanvasPresenter_ToggleClass(t *testing.T) {
	p, eng, view := newCanvasFixture(t)
	p.PointerMove(50, 25)
	p.ToggleClass()
	if good, bad := eng.Set().Counts(); good != 0 || bad != 1 {
		t.Fatalf("expected class flipped, got good=%d bad=%d", good, bad)
	}
	if !strings.Contains(view.lastStatus(), "bad_fin") {
		t.Fatalf("unexpected status %q", view.lastStatus())
	}
}

func TestCanvasPresenter_ClearAllNeedsConfirmation(t *testing.T) {
	p, eng, view := newCanvasFixture(t)
	view.confirm = false
	p.ClearAll()
	if eng.Set().Len() != 1 {
		t.Fatalf("declined clear must keep boxes")
	}
	view.confirm = true
	p.ClearAll()
	if eng.Set().Len() != 0 {
		t.Fatalf("expected all boxes removed")
	}
	p.ClearAll()
	if view.confirms != 2 {
		t.Fatalf("empty set should not ask again, confirms=%d", view.confirms)
	}
}

func TestCanvasPresenter_DetachedEngine(t *testing.T) {
	p, eng, view := newCanvasFixture(t)
	eng.Detach()
	p.PointerDown(5, 5)
	p.DeleteHovered()
	if view.lastStatus() != statusNotReady {
		t.Fatalf("unexpected status %q", view.lastStatus())
	}
	p.Tick()
	if view.canvas == nil {
		t.Fatalf("image should still be shown while the set is pending")
	}
}
