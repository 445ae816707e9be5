package model

import (
	"errors"
	"image"
	"testing"
	"time"

	"github.com/soocke/annotator-go/domain/dataset"
	"github.com/soocke/annotator-go/domain/geometry"
	"github.com/soocke/annotator-go/ui/images"
)

func TestSessionModel_StepWraps(t *testing.T) {
	m := NewSessionModel("/data", dataset.SplitTrain, ModePredict, 0.4)
	if _, ok := m.Step(1); ok {
		t.Fatalf("step on empty session should fail")
	}
	if m.Progress() != "No images" {
		t.Fatalf("unexpected empty progress %q", m.Progress())
	}
	m.SetImages([]string{"a", "b", "c"})
	if i, _ := m.Step(-1); i != 2 {
		t.Fatalf("previous from first should wrap to last, got %d", i)
	}
	if i, _ := m.Step(1); i != 0 {
		t.Fatalf("next from last should wrap to first, got %d", i)
	}
	if i, _ := m.Peek(4); i != 1 || m.Index() != 0 {
		t.Fatalf("peek must not move the cursor: peek=%d index=%d", i, m.Index())
	}
	if m.Progress() != "Image 1 of 3" {
		t.Fatalf("unexpected progress %q", m.Progress())
	}
}

func TestSessionModel_Goto(t *testing.T) {
	m := NewSessionModel("", dataset.SplitValid, ModeDataset, 0.4)
	m.SetImages([]string{"a", "b", "c"})
	if err := m.Goto(3); err != nil {
		t.Fatalf("goto 3: %v", err)
	}
	if cur, _ := m.Current(); cur != "c" {
		t.Fatalf("expected c, got %s", cur)
	}
	for _, bad := range []int{0, 4, -1} {
		if err := m.Goto(bad); !errors.Is(err, ErrIndexOutOfRange) {
			t.Fatalf("goto %d: expected ErrIndexOutOfRange, got %v", bad, err)
		}
	}
	if m.Index() != 2 {
		t.Fatalf("failed goto must not move the cursor")
	}
	if i := m.Append("d"); i != 3 || m.Len() != 4 {
		t.Fatalf("append: index=%d len=%d", i, m.Len())
	}
}

func TestSessionModel_ThresholdAndMode(t *testing.T) {
	m := NewSessionModel("", dataset.SplitTrain, ModePredict, 2)
	if m.Threshold() != 1 {
		t.Fatalf("threshold should clamp to 1, got %v", m.Threshold())
	}
	if v := m.SetThreshold(-0.5); v != 0 {
		t.Fatalf("threshold should clamp to 0, got %v", v)
	}
	if m.Mode().Toggle() != ModeDataset || ModeDataset.Toggle() != ModePredict {
		t.Fatalf("toggle should alternate modes")
	}
	if ParseLoadMode("dataset") != ModeDataset || ParseLoadMode("anything") != ModePredict {
		t.Fatalf("unexpected ParseLoadMode result")
	}
	if m.Layout().Split != dataset.SplitTrain {
		t.Fatalf("layout should carry the split")
	}
}

func TestImageModel_Transform(t *testing.T) {
	m := NewImageModel()
	if _, ok := m.Transform(geometry.Zoom1x); ok {
		t.Fatalf("empty model should have no transform")
	}
	m.Set(images.Loaded{Image: image.NewRGBA(image.Rect(0, 0, 4, 3)), Width: 4, Height: 3})
	vt, ok := m.Transform(geometry.Zoom2x)
	if !ok || vt.NaturalW != 4 || vt.NaturalH != 3 || vt.Zoom != geometry.Zoom2x {
		t.Fatalf("unexpected transform %+v", vt)
	}
	m.Set(images.Loaded{})
	if _, ok := m.Current(); ok {
		t.Fatalf("setting an empty image should clear the model")
	}
}

func TestActivityModel_Lifecycle(t *testing.T) {
	m := NewActivityModel()
	base := time.Unix(0, 0)

	m.OnTick(true, base)
	m.OnTick(true, base.Add(5*time.Second))
	onImage, total := m.Values()
	if onImage != 5*time.Second || total != 5*time.Second {
		t.Fatalf("expected 5s on image and total; got %v %v", onImage, total)
	}

	m.NextImage(base.Add(6 * time.Second))
	m.OnTick(true, base.Add(9*time.Second))
	onImage, total = m.Values()
	if onImage != 3*time.Second || total != 9*time.Second {
		t.Fatalf("after next image expected 3s/9s; got %v %v", onImage, total)
	}

	m.OnTick(false, base.Add(10*time.Second))
	m.OnTick(false, base.Add(20*time.Second))
	onImage, total = m.Values()
	if onImage != 4*time.Second || total != 10*time.Second {
		t.Fatalf("idle ticks must not accrue; got %v %v", onImage, total)
	}
}
