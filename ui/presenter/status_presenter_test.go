package presenter

import (
	"strings"
	"testing"
	"time"

	"github.com/soocke/annotator-go/domain/annotation"
	"github.com/soocke/annotator-go/domain/editor"
	"github.com/soocke/annotator-go/domain/geometry"
	"github.com/soocke/annotator-go/ui/model"
)

func TestStatusPresenter_ReflectsLatestMode(t *testing.T) {
	eng := newEngine()
	view := &mockView{}
	p := NewStatusPresenter(eng, annotation.DefaultClassTable(), view)
	eng.AddModeListener(p.OnMode)

	eng.Attach(annotation.NewAnnotationSet(), geometry.NewViewTransform(100, 50, geometry.Zoom1x))
	if err := eng.PointerDown(geometry.Pt(5, 5)); err != nil {
		t.Fatalf("pointer down: %v", err)
	}
	p.Tick(time.Now())
	if !strings.Contains(view.modeLabel, "Mode: "+editor.ModeDrawing.String()) {
		t.Fatalf("unexpected label %q", view.modeLabel)
	}
	if !strings.Contains(view.modeLabel, "Resize: off") || !strings.Contains(view.modeLabel, "New: good_fin") {
		t.Fatalf("unexpected label %q", view.modeLabel)
	}

	_ = eng.PointerUp(geometry.Pt(30, 30))
	eng.ToggleResizeHandles()
	p.Tick(time.Now())
	if !strings.Contains(view.modeLabel, "Mode: "+editor.ModeIdle.String()) || !strings.Contains(view.modeLabel, "Resize: on") {
		t.Fatalf("unexpected label %q", view.modeLabel)
	}
}

func TestStatusPresenter_SkipsUnchangedLabel(t *testing.T) {
	eng := newEngine()
	view := &countingModeView{}
	p := NewStatusPresenter(eng, annotation.DefaultClassTable(), view)
	p.Tick(time.Now())
	p.Tick(time.Now())
	if view.calls != 1 {
		t.Fatalf("expected one label update, got %d", view.calls)
	}
}

func TestStatusPresenter_NilSafe(t *testing.T) {
	var p *StatusPresenter
	p.OnMode(editor.ModeIdle, editor.ModeDrawing)
	p.Tick(time.Now())
}

type countingModeView struct{ calls int }

func (v *countingModeView) SetModeLabel(string) { v.calls++ }

type fixedPath struct{ path string }

func (f *fixedPath) CurrentPath() string { return f.path }

func TestActivityPresenter_RestartsPerImage(t *testing.T) {
	src := &fixedPath{path: "a.png"}
	view := &mockView{}
	p := NewActivityPresenter(model.NewActivityModel(), src, view)

	start := time.Now()
	p.Tick(start)
	p.Tick(start.Add(5 * time.Second))
	if view.onImage != 5*time.Second || view.total != 5*time.Second {
		t.Fatalf("unexpected values %v %v", view.onImage, view.total)
	}

	src.path = "b.png"
	p.Tick(start.Add(8 * time.Second))
	if view.onImage != 0 || view.total != 8*time.Second {
		t.Fatalf("expected restart on new image, got %v %v", view.onImage, view.total)
	}

	src.path = ""
	p.Tick(start.Add(10 * time.Second))
	p.Tick(start.Add(30 * time.Second))
	if view.total != 10*time.Second {
		t.Fatalf("time must not accrue without an image, got %v", view.total)
	}
}
