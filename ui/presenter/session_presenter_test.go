package presenter

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/soocke/annotator-go/domain/annotation"
	"github.com/soocke/annotator-go/domain/dataset"
	"github.com/soocke/annotator-go/domain/detect"
	"github.com/soocke/annotator-go/domain/editor"
	"github.com/soocke/annotator-go/domain/geometry"
	"github.com/soocke/annotator-go/ui/model"
)

type sessionFixture struct {
	p      *SessionPresenter
	eng    *editor.Engine
	store  *memStore
	view   *mockView
	paths  []string
	model  *model.SessionModel
	images *model.ImageModel
}

func newSessionFixture(t *testing.T, mode model.LoadMode, det detect.Detector, names ...string) *sessionFixture {
	t.Helper()
	root, paths := makeDataset(t, names...)
	f := &sessionFixture{
		eng:    newEngine(),
		store:  newMemStore(),
		view:   &mockView{},
		paths:  paths,
		model:  model.NewSessionModel(root, dataset.SplitTrain, mode, 0.4),
		images: newImageModel(),
	}
	f.p = NewSessionPresenter(f.model, f.images, f.eng, f.store, fakeLoader, det, annotation.DefaultClassTable(), f.view, discardLogger)
	t.Cleanup(func() { f.p.worker.Close() })
	return f
}

func addBox(t *testing.T, eng *editor.Engine) {
	t.Helper()
	if _, err := eng.Set().AddBox(geometry.DisplayRect{X: 10, Y: 10, W: 20, H: 20}, annotation.ClassGood, eng.Transform(), 2); err != nil {
		t.Fatalf("add box: %v", err)
	}
}

func TestSessionPresenter_DatasetModeLoadsLabels(t *testing.T) {
	f := newSessionFixture(t, model.ModeDataset, nil, "a.png", "b.png")
	f.store.files[f.paths[0]] = "1 0.500000 0.500000 0.200000 0.200000\n0 0.200000 0.200000 0.100000 0.100000\n"

	if err := f.p.Open(); err != nil {
		t.Fatalf("open: %v", err)
	}
	set := f.eng.Set()
	if set == nil || set.Len() != 2 {
		t.Fatalf("expected 2 boxes attached, got %v", set)
	}
	if good, bad := set.Counts(); good != 1 || bad != 1 {
		t.Fatalf("unexpected counts good=%d bad=%d", good, bad)
	}
	if !strings.Contains(f.view.progress, "Image 1 of 2") {
		t.Fatalf("unexpected progress %q", f.view.progress)
	}
	if f.p.CurrentPath() != f.paths[0] {
		t.Fatalf("unexpected current path %q", f.p.CurrentPath())
	}
	if !strings.Contains(f.view.info, "a.png") || !strings.Contains(f.view.info, "100x50") {
		t.Fatalf("unexpected image info %q", f.view.info)
	}
}

func TestSessionPresenter_NavigationFlushesOnlyDirtySets(t *testing.T) {
	f := newSessionFixture(t, model.ModeDataset, nil, "a.png", "b.png")
	if err := f.p.Open(); err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := f.p.Next(); err != nil {
		t.Fatalf("next: %v", err)
	}
	if n := totalSaves(f.store); n != 0 {
		t.Fatalf("expected no save for unchanged set, got %d", n)
	}

	addBox(t, f.eng)
	if err := f.p.Next(); err != nil {
		t.Fatalf("next: %v", err)
	}
	if f.store.saves[f.paths[1]] != 1 {
		t.Fatalf("expected b.png flushed once, saves=%v", f.store.saves)
	}
	if f.p.CurrentPath() != f.paths[0] {
		t.Fatalf("expected wrap to first image, got %q", f.p.CurrentPath())
	}

	// back on b.png the saved box is read again
	if err := f.p.Prev(); err != nil {
		t.Fatalf("prev: %v", err)
	}
	if f.eng.Set().Len() != 1 {
		t.Fatalf("expected saved box reloaded, got %d", f.eng.Set().Len())
	}
}

func TestSessionPresenter_SaveFailureBlocksNavigation(t *testing.T) {
	f := newSessionFixture(t, model.ModeDataset, nil, "a.png", "b.png")
	if err := f.p.Open(); err != nil {
		t.Fatalf("open: %v", err)
	}
	addBox(t, f.eng)
	f.store.saveErr = errors.New("disk full")
	before := f.eng.Set()

	if err := f.p.Next(); err == nil {
		t.Fatalf("expected navigation error")
	}
	if f.model.Index() != 0 {
		t.Fatalf("cursor moved to %d", f.model.Index())
	}
	if f.eng.Set() != before || !before.Dirty() {
		t.Fatalf("expected edited set to stay attached and dirty")
	}
	if len(f.view.errors) != 1 {
		t.Fatalf("expected one blocking error, got %v", f.view.errors)
	}
}

func TestSessionPresenter_SaveWritesCleanSet(t *testing.T) {
	f := newSessionFixture(t, model.ModeDataset, nil, "a.png")
	if err := f.p.Open(); err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := f.p.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}
	if f.store.saves[f.paths[0]] != 1 {
		t.Fatalf("expected explicit save of empty set, saves=%v", f.store.saves)
	}
}

func TestSessionPresenter_SaveWithoutImage(t *testing.T) {
	f := newSessionFixture(t, model.ModeDataset, nil)
	if err := f.p.Open(); err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := f.p.Save(); !errors.Is(err, ErrNoImage) {
		t.Fatalf("expected ErrNoImage, got %v", err)
	}
	if f.view.progress == "" || !strings.Contains(f.view.progress, "No images") {
		t.Fatalf("unexpected progress %q", f.view.progress)
	}
}

func TestSessionPresenter_OpenMissingRoot(t *testing.T) {
	f := newSessionFixture(t, model.ModeDataset, nil)
	f.model.SetRoot(f.model.Root() + "/missing")

	err := f.p.Open()
	if !errors.Is(err, dataset.ErrDatasetRoot) {
		t.Fatalf("expected ErrDatasetRoot, got %v", err)
	}
	if len(f.view.errors) != 1 {
		t.Fatalf("expected error dialog, got %v", f.view.errors)
	}
	if f.eng.Set() != nil {
		t.Fatalf("expected engine detached")
	}
}

func TestSessionPresenter_GotoOutOfRange(t *testing.T) {
	f := newSessionFixture(t, model.ModeDataset, nil, "a.png", "b.png", "c.png")
	if err := f.p.Open(); err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := f.p.Goto(4); !errors.Is(err, model.ErrIndexOutOfRange) {
		t.Fatalf("expected ErrIndexOutOfRange, got %v", err)
	}
	if f.model.Index() != 0 {
		t.Fatalf("cursor moved to %d", f.model.Index())
	}
	if err := f.p.Goto(3); err != nil {
		t.Fatalf("goto: %v", err)
	}
	if f.p.CurrentPath() != f.paths[2] {
		t.Fatalf("unexpected current path %q", f.p.CurrentPath())
	}
}

func TestSessionPresenter_RefreshDiscardsEdits(t *testing.T) {
	f := newSessionFixture(t, model.ModeDataset, nil, "a.png")
	f.store.files[f.paths[0]] = "1 0.500000 0.500000 0.200000 0.200000\n"
	if err := f.p.Open(); err != nil {
		t.Fatalf("open: %v", err)
	}
	addBox(t, f.eng)
	f.view.answer = SaveNo
	f.p.Refresh()

	if f.view.asks != 1 {
		t.Fatalf("expected one save prompt, got %d", f.view.asks)
	}
	if n := totalSaves(f.store); n != 0 {
		t.Fatalf("refresh must not save, got %d", n)
	}
	if f.eng.Set().Len() != 1 || f.eng.Set().Dirty() {
		t.Fatalf("expected clean reload with 1 box, got %d dirty=%v", f.eng.Set().Len(), f.eng.Set().Dirty())
	}
}

func TestSessionPresenter_AutoSave(t *testing.T) {
	f := newSessionFixture(t, model.ModeDataset, nil, "a.png")
	if err := f.p.Open(); err != nil {
		t.Fatalf("open: %v", err)
	}
	f.p.SetAutoSave(time.Second)
	addBox(t, f.eng)

	f.p.Tick(time.Now())
	if n := totalSaves(f.store); n != 0 {
		t.Fatalf("auto-save fired early: %d", n)
	}
	f.p.Tick(time.Now().Add(2 * time.Second))
	if n := totalSaves(f.store); n != 1 {
		t.Fatalf("expected one auto-save, got %d", n)
	}
	if len(f.view.errors) != 0 {
		t.Fatalf("unexpected error dialogs %v", f.view.errors)
	}
}

func TestSessionPresenter_AutoSaveFailureIsNonBlocking(t *testing.T) {
	f := newSessionFixture(t, model.ModeDataset, nil, "a.png")
	if err := f.p.Open(); err != nil {
		t.Fatalf("open: %v", err)
	}
	f.p.SetAutoSave(time.Second)
	addBox(t, f.eng)
	f.store.saveErr = errors.New("read-only")

	f.p.Tick(time.Now().Add(2 * time.Second))
	if len(f.view.errors) != 0 {
		t.Fatalf("auto-save should not open dialogs, got %v", f.view.errors)
	}
	if !strings.Contains(f.view.lastStatus(), "Auto-save failed") {
		t.Fatalf("unexpected status %q", f.view.lastStatus())
	}
}

func TestSessionPresenter_PredictModeAppliesLatestResultOnly(t *testing.T) {
	release := make(chan struct{})
	det := detect.Func(func(ctx context.Context, path string, threshold float64) ([]detect.Prediction, error) {
		if strings.HasSuffix(path, "a.png") {
			<-ctx.Done()
			return []detect.Prediction{{ClassID: 0, CX: .5, CY: .5, W: .5, H: .5, Confidence: 1}}, nil
		}
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		return []detect.Prediction{
			{ClassID: 1, CX: .5, CY: .5, W: .2, H: .2, Confidence: .9},
			{ClassID: 0, CX: .2, CY: .2, W: .1, H: .1, Confidence: .1},
		}, nil
	})
	f := newSessionFixture(t, model.ModePredict, det, "a.png", "b.png")

	if err := f.p.Open(); err != nil {
		t.Fatalf("open: %v", err)
	}
	if f.eng.Set() != nil || !f.p.Awaiting() || !f.view.busy {
		t.Fatalf("expected inert engine while predicting")
	}
	if err := f.p.Next(); err != nil {
		t.Fatalf("next: %v", err)
	}
	close(release)

	waitFor(t, func() { f.p.Tick(time.Now()) }, func() bool { return f.eng.Set() != nil })

	set := f.eng.Set()
	if set.Len() != 1 {
		t.Fatalf("expected 1 box above threshold, got %d", set.Len())
	}
	if b := set.Boxes()[0]; b.Class != annotation.ClassGood {
		t.Fatalf("expected good box from b.png, got %v", b.Class)
	}
	if f.p.CurrentPath() != f.paths[1] || f.p.Awaiting() || f.view.busy {
		t.Fatalf("unexpected state after result: path=%q awaiting=%v busy=%v", f.p.CurrentPath(), f.p.Awaiting(), f.view.busy)
	}
	if set.Dirty() {
		t.Fatalf("predicted set should start clean")
	}
	if n := totalSaves(f.store); n != 0 {
		t.Fatalf("predictions must not be saved automatically, got %d", n)
	}
}

func TestSessionPresenter_InferenceFailureAttachesEmptySet(t *testing.T) {
	det := detect.Func(func(context.Context, string, float64) ([]detect.Prediction, error) {
		return nil, fmt.Errorf("%w: backend down", detect.ErrInferenceFailure)
	})
	f := newSessionFixture(t, model.ModePredict, det, "a.png")
	if err := f.p.Open(); err != nil {
		t.Fatalf("open: %v", err)
	}
	waitFor(t, func() { f.p.Tick(time.Now()) }, func() bool { return f.eng.Set() != nil })

	if f.eng.Set().Len() != 0 {
		t.Fatalf("expected empty set, got %d", f.eng.Set().Len())
	}
	if !strings.Contains(strings.Join(f.view.status, "\n"), "Inference failed") {
		t.Fatalf("expected failure status, got %v", f.view.status)
	}
	if len(f.view.errors) != 0 {
		t.Fatalf("inference failure must not block, got %v", f.view.errors)
	}
}

func TestSessionPresenter_ToggleModeReloadsFromLabels(t *testing.T) {
	det := detect.Func(func(context.Context, string, float64) ([]detect.Prediction, error) {
		return []detect.Prediction{{ClassID: 1, CX: .5, CY: .5, W: .2, H: .2, Confidence: .9}}, nil
	})
	f := newSessionFixture(t, model.ModePredict, det, "a.png")
	f.store.files[f.paths[0]] = "0 0.500000 0.500000 0.200000 0.200000\n0 0.250000 0.250000 0.100000 0.100000\n"
	if err := f.p.Open(); err != nil {
		t.Fatalf("open: %v", err)
	}
	waitFor(t, func() { f.p.Tick(time.Now()) }, func() bool { return f.eng.Set() != nil })
	if f.eng.Set().Len() != 1 {
		t.Fatalf("expected predicted box, got %d", f.eng.Set().Len())
	}

	if err := f.p.ToggleMode(); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if f.model.Mode() != model.ModeDataset {
		t.Fatalf("expected dataset mode, got %v", f.model.Mode())
	}
	if _, bad := f.eng.Set().Counts(); bad != 2 {
		t.Fatalf("expected labels from file, got %d bad", bad)
	}
}

func TestSessionPresenter_SetThresholdClamps(t *testing.T) {
	f := newSessionFixture(t, model.ModeDataset, nil, "a.png")
	got, err := f.p.SetThreshold(1.7)
	if err != nil || got != 1 {
		t.Fatalf("expected clamp to 1, got %v (%v)", got, err)
	}
}

func TestSessionPresenter_AddImageOpensIt(t *testing.T) {
	f := newSessionFixture(t, model.ModeDataset, nil, "a.png")
	if err := f.p.Open(); err != nil {
		t.Fatalf("open: %v", err)
	}
	added := f.p.ImagesDir() + "/capture-1.png"
	if err := f.p.AddImage(added); err != nil {
		t.Fatalf("add: %v", err)
	}
	if f.p.CurrentPath() != added || f.model.Len() != 2 {
		t.Fatalf("expected added image open, got %q (len %d)", f.p.CurrentPath(), f.model.Len())
	}
}

func TestSessionPresenter_CloseFlushes(t *testing.T) {
	f := newSessionFixture(t, model.ModeDataset, nil, "a.png")
	if err := f.p.Open(); err != nil {
		t.Fatalf("open: %v", err)
	}
	addBox(t, f.eng)
	if err := f.p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if f.store.saves[f.paths[0]] != 1 {
		t.Fatalf("expected flush on close, saves=%v", f.store.saves)
	}
}

func TestSessionPresenter_RefreshSavesWhenAsked(t *testing.T) {
	f := newSessionFixture(t, model.ModeDataset, nil, "a.png")
	if err := f.p.Open(); err != nil {
		t.Fatalf("open: %v", err)
	}
	f.p.Refresh()
	if f.view.asks != 0 {
		t.Fatalf("clean set must not prompt, got %d", f.view.asks)
	}

	addBox(t, f.eng)
	f.view.answer = SaveYes
	f.p.Refresh()
	if n := totalSaves(f.store); n != 1 {
		t.Fatalf("expected one save, got %d", n)
	}
	if f.eng.Set().Len() != 1 || f.eng.Set().Dirty() {
		t.Fatalf("expected saved box reloaded, got %d dirty=%v", f.eng.Set().Len(), f.eng.Set().Dirty())
	}
}

func TestSessionPresenter_RefreshCancelKeepsEdits(t *testing.T) {
	f := newSessionFixture(t, model.ModeDataset, nil, "a.png")
	if err := f.p.Open(); err != nil {
		t.Fatalf("open: %v", err)
	}
	addBox(t, f.eng)
	before := f.eng.Set()
	f.view.answer = SaveCancel
	f.p.Refresh()

	if f.eng.Set() != before || !before.Dirty() || before.Len() != 1 {
		t.Fatalf("cancel must keep the edited set attached")
	}
	if n := totalSaves(f.store); n != 0 {
		t.Fatalf("cancel must not save, got %d", n)
	}
}

func TestSessionPresenter_ToggleModeAsksAboutEdits(t *testing.T) {
	f := newSessionFixture(t, model.ModeDataset, nil, "a.png")
	if err := f.p.Open(); err != nil {
		t.Fatalf("open: %v", err)
	}
	addBox(t, f.eng)

	f.view.answer = SaveCancel
	if err := f.p.ToggleMode(); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if f.model.Mode() != model.ModeDataset || !f.eng.Set().Dirty() {
		t.Fatalf("cancel must keep mode and edits, mode=%v", f.model.Mode())
	}

	f.store.saveErr = errors.New("disk full")
	f.view.answer = SaveYes
	if err := f.p.ToggleMode(); err == nil {
		t.Fatalf("expected save error")
	}
	if f.model.Mode() != model.ModeDataset {
		t.Fatalf("failed save must block the mode switch")
	}

	f.store.saveErr = nil
	f.view.answer = SaveNo
	if err := f.p.ToggleMode(); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if f.model.Mode() != model.ModePredict || totalSaves(f.store) != 0 {
		t.Fatalf("expected switch without saving, mode=%v saves=%d", f.model.Mode(), totalSaves(f.store))
	}
	if f.view.asks != 3 {
		t.Fatalf("expected three prompts, got %d", f.view.asks)
	}
}

func TestSessionPresenter_UnreadableLabelsAreReadOnly(t *testing.T) {
	f := newSessionFixture(t, model.ModeDataset, nil, "a.png", "b.png")
	f.store.loadErr = errors.New("permission denied")
	if err := f.p.Open(); err != nil {
		t.Fatalf("open: %v", err)
	}
	addBox(t, f.eng)
	if err := f.p.Next(); err != nil {
		t.Fatalf("next: %v", err)
	}
	if err := f.p.Save(); !errors.Is(err, ErrNoImage) {
		t.Fatalf("expected save refused, got %v", err)
	}
	if n := totalSaves(f.store); n != 0 {
		t.Fatalf("unreadable label file must not be overwritten, got %d saves", n)
	}
}

func TestSessionPresenter_PredictWithoutDetectorWarns(t *testing.T) {
	f := newSessionFixture(t, model.ModePredict, nil, "a.png")
	if err := f.p.Open(); err != nil {
		t.Fatalf("open: %v", err)
	}
	if f.p.Awaiting() || f.view.busy {
		t.Fatalf("no prediction should be in flight")
	}
	if f.eng.Set() == nil || f.eng.Set().Len() != 0 {
		t.Fatalf("expected an empty editable set")
	}
	if !strings.Contains(f.view.lastStatus(), "No detector configured") {
		t.Fatalf("unexpected status %q", f.view.lastStatus())
	}
}

func TestSessionPresenter_SetDetectorPredictsAgain(t *testing.T) {
	f := newSessionFixture(t, model.ModePredict, detect.None{}, "a.png")
	if err := f.p.Open(); err != nil {
		t.Fatalf("open: %v", err)
	}
	det := detect.Func(func(context.Context, string, float64) ([]detect.Prediction, error) {
		return []detect.Prediction{{ClassID: 1, CX: .5, CY: .5, W: .2, H: .2, Confidence: .9}}, nil
	})
	if err := f.p.SetDetector(det); err != nil {
		t.Fatalf("set detector: %v", err)
	}
	if !f.p.Awaiting() {
		t.Fatalf("expected a prediction in flight")
	}
	waitFor(t, func() { f.p.Tick(time.Now()) }, func() bool { return f.eng.Set() != nil })
	if f.eng.Set().Len() != 1 {
		t.Fatalf("expected predicted box, got %d", f.eng.Set().Len())
	}
}
