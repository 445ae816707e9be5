package presenter

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/soocke/annotator-go/domain/annotation"
	"github.com/soocke/annotator-go/domain/dataset"
	"github.com/soocke/annotator-go/domain/detect"
	"github.com/soocke/annotator-go/domain/editor"
	"github.com/soocke/annotator-go/domain/geometry"
	"github.com/soocke/annotator-go/ui/images"
	"github.com/soocke/annotator-go/ui/model"
)

// ErrNoImage is returned by operations that need an open image.
var ErrNoImage = errors.New("no image open")

// LabelStore persists AnnotationSets next to their images.
type LabelStore interface {
	Load(imagePath string) (*annotation.AnnotationSet, []error, error)
	Save(imagePath string, set *annotation.AnnotationSet) error
}

// ImageLoader decodes an image file.
type ImageLoader func(path string) (images.Loaded, error)

// SessionEngine is the part of the editor engine the session controls.
type SessionEngine interface {
	editor.Attacher
	Zoom() geometry.ZoomLevel
}

// SessionView receives navigation state and messages.
type SessionView interface {
	SetProgress(text string)
	SetImageInfo(text string)
	SetStatus(text string)
	SetBusy(busy bool)
	ShowError(title, message string)
	AskSave(title, message string) SaveChoice
}

// SaveChoice answers an unsaved-changes prompt. The zero value cancels.
type SaveChoice int

const (
	SaveCancel SaveChoice = iota
	SaveYes
	SaveNo
)

// SessionPresenter drives the annotation session: it opens the dataset,
// loads each image with its boxes (from the detector or the label file),
// and flushes edits before any AnnotationSet is replaced.
type SessionPresenter struct {
	model    *model.SessionModel
	image    *model.ImageModel
	engine   SessionEngine
	store    LabelStore
	loader   ImageLoader
	worker   *PredictWorker
	detector detect.Detector
	purger   detect.Purger
	table    annotation.ClassTable
	view     SessionView
	logger   *slog.Logger

	setPath      string // image the attached set belongs to
	pending      uint64 // awaited prediction, 0 when none
	autoSave     time.Duration
	lastSave     time.Time
	lastProgress string
}

// NewSessionPresenter wires the session. A nil loader uses images.Load and
// a nil detector means none is configured.
func NewSessionPresenter(m *model.SessionModel, img *model.ImageModel, engine SessionEngine, store LabelStore, loader ImageLoader, detector detect.Detector, table annotation.ClassTable, view SessionView, logger *slog.Logger) *SessionPresenter {
	if loader == nil {
		loader = images.Load
	}
	if detector == nil {
		detector = detect.None{}
	}
	p := &SessionPresenter{
		model:    m,
		image:    img,
		engine:   engine,
		store:    store,
		loader:   loader,
		worker:   NewPredictWorker(detector, logger),
		detector: detector,
		table:    table,
		view:     view,
		logger:   logger,
		lastSave: time.Now(),
	}
	if pg, ok := detector.(detect.Purger); ok {
		p.purger = pg
	}
	return p
}

// SetAutoSave enables periodic flushing of modified sets; zero disables it.
func (p *SessionPresenter) SetAutoSave(every time.Duration) {
	if every < 0 {
		every = 0
	}
	p.autoSave = every
	p.lastSave = time.Now()
}

// Model exposes the navigation state.
func (p *SessionPresenter) Model() *model.SessionModel { return p.model }

// CurrentPath is the path of the open image, or "".
func (p *SessionPresenter) CurrentPath() string {
	if _, ok := p.image.Current(); !ok {
		return ""
	}
	cur, _ := p.model.Current()
	return cur
}

// ImagesDir is the images folder of the active split, or "" without a root.
func (p *SessionPresenter) ImagesDir() string {
	if p.model.Root() == "" {
		return ""
	}
	return p.model.Layout().ImagesDir()
}

// HasImage reports whether an image is open.
func (p *SessionPresenter) HasImage() bool { return p.CurrentPath() != "" }

// Awaiting reports whether a prediction for the current image is in flight.
func (p *SessionPresenter) Awaiting() bool { return p.pending != 0 }

// Open lists the active split and loads its first image. A missing or
// unreadable dataset root is reported as a blocking error.
func (p *SessionPresenter) Open() error {
	if err := p.Flush(); err != nil {
		return err
	}
	layout := p.model.Layout()
	paths, err := layout.ListImages()
	if err != nil {
		p.model.SetImages(nil)
		p.unload()
		p.refreshProgress()
		if p.logger != nil {
			p.logger.Error("open dataset", "root", layout.Root, "split", layout.Split, "error", err)
		}
		p.view.ShowError("Dataset", err.Error())
		return err
	}
	p.model.SetImages(paths)
	if p.logger != nil {
		p.logger.Info("dataset opened", "root", layout.Root, "split", layout.Split, "images", len(paths))
	}
	if len(paths) == 0 {
		p.unload()
		p.view.SetStatus("No images in " + layout.ImagesDir())
		p.refreshProgress()
		return nil
	}
	p.load()
	return nil
}

// Next moves to the following image, wrapping to the first.
func (p *SessionPresenter) Next() error {
	i, ok := p.model.Peek(1)
	if !ok {
		return ErrNoImage
	}
	return p.navigate(i)
}

// Prev moves to the previous image, wrapping to the last.
func (p *SessionPresenter) Prev() error {
	i, ok := p.model.Peek(-1)
	if !ok {
		return ErrNoImage
	}
	return p.navigate(i)
}

// Goto jumps to the 1-based position pos.
func (p *SessionPresenter) Goto(pos int) error {
	i, err := p.model.Resolve(pos)
	if err != nil {
		p.view.SetStatus(err.Error())
		return err
	}
	return p.navigate(i)
}

// Save writes the current set even when it has no changes, so that an
// image can be marked as reviewed with zero boxes.
func (p *SessionPresenter) Save() error {
	set := p.engine.Set()
	if set == nil || p.setPath == "" {
		p.view.SetStatus("Nothing to save")
		return ErrNoImage
	}
	return p.save(set)
}

// Flush saves the current set if it was modified.
func (p *SessionPresenter) Flush() error {
	set := p.engine.Set()
	if set == nil || p.setPath == "" || !set.Dirty() {
		return nil
	}
	return p.save(set)
}

// Refresh reloads the current image from its source: a fresh prediction or
// the label file. Unsaved edits are saved or discarded as the user answers;
// a cancel keeps them and skips the reload.
func (p *SessionPresenter) Refresh() {
	cur, ok := p.model.Current()
	if !ok {
		return
	}
	if proceed, _ := p.resolveDirty("refreshing"); !proceed {
		return
	}
	if p.purger != nil {
		p.purger.Purge(cur)
	}
	if p.logger != nil {
		p.logger.Info("refresh", "image", cur, "mode", p.model.Mode())
	}
	p.load()
}

// ToggleMode switches between predict and dataset mode and reloads, asking
// first what to do with unsaved edits.
func (p *SessionPresenter) ToggleMode() error {
	proceed, err := p.resolveDirty("switching modes")
	if err != nil || !proceed {
		return err
	}
	p.model.SetMode(p.model.Mode().Toggle())
	p.view.SetStatus("Mode: " + p.model.Mode().String())
	if _, ok := p.model.Current(); ok {
		p.load()
	} else {
		p.refreshProgress()
	}
	return nil
}

// resolveDirty asks whether to save a modified set before it is replaced.
// It reports whether the caller may go on; a failed save stops it.
func (p *SessionPresenter) resolveDirty(action string) (bool, error) {
	set := p.engine.Set()
	if set == nil || p.setPath == "" || !set.Dirty() {
		return true, nil
	}
	switch p.view.AskSave("Unsaved changes", fmt.Sprintf("Save changes to %s before %s?", filepath.Base(p.setPath), action)) {
	case SaveYes:
		if err := p.save(set); err != nil {
			return false, err
		}
		return true, nil
	case SaveNo:
		if p.logger != nil {
			p.logger.Info("edits discarded", "image", p.setPath, "before", action)
		}
		return true, nil
	default:
		p.view.SetStatus("Canceled")
		return false, nil
	}
}

// SetThreshold stores the confidence threshold and re-runs prediction for
// the current image in predict mode. It returns the stored value.
func (p *SessionPresenter) SetThreshold(v float64) (float64, error) {
	prev := p.model.Threshold()
	stored := p.model.SetThreshold(v)
	if stored == prev || p.model.Mode() != model.ModePredict {
		return stored, nil
	}
	if _, ok := p.model.Current(); !ok {
		return stored, nil
	}
	if err := p.Flush(); err != nil {
		return stored, err
	}
	p.load()
	return stored, nil
}

// SetSplit switches to another split and reopens the dataset.
func (p *SessionPresenter) SetSplit(s dataset.Split) error {
	if err := p.Flush(); err != nil {
		return err
	}
	p.model.SetSplit(s)
	return p.Open()
}

// SetRoot switches to another dataset root and reopens it.
func (p *SessionPresenter) SetRoot(root string) error {
	if err := p.Flush(); err != nil {
		return err
	}
	p.model.SetRoot(root)
	return p.Open()
}

// AddImage appends a new image file to the session and opens it.
func (p *SessionPresenter) AddImage(path string) error {
	if err := p.Flush(); err != nil {
		return err
	}
	return p.navigate(p.model.Append(path))
}

// Tick applies finished predictions and runs the auto-save timer.
func (p *SessionPresenter) Tick(now time.Time) {
	if p == nil {
		return
	}
	for {
		res, ok := p.worker.Poll()
		if !ok {
			break
		}
		p.handleResult(res)
	}
	if p.autoSave > 0 && now.Sub(p.lastSave) >= p.autoSave {
		p.lastSave = now
		p.autoFlush()
	}
	p.refreshProgress()
}

// SetDetector replaces the prediction backend. The current set is flushed
// first; in predict mode the open image is then predicted again.
func (p *SessionPresenter) SetDetector(d detect.Detector) error {
	if d == nil {
		d = detect.None{}
	}
	if err := p.Flush(); err != nil {
		return err
	}
	old := p.worker
	p.worker = NewPredictWorker(d, p.logger)
	p.worker.seq = old.Latest()
	old.Close()
	p.detector = d
	p.purger = nil
	if pg, ok := d.(detect.Purger); ok {
		p.purger = pg
	}
	if p.model.Mode() == model.ModePredict && p.HasImage() {
		p.load()
	}
	return nil
}

func (p *SessionPresenter) hasDetector() bool {
	_, none := p.detector.(detect.None)
	return p.detector != nil && !none
}

// Close flushes pending edits and stops the prediction worker.
func (p *SessionPresenter) Close() error {
	err := p.Flush()
	p.worker.Close()
	return err
}

func (p *SessionPresenter) navigate(i int) error {
	if err := p.Flush(); err != nil {
		return err
	}
	if err := p.model.SetIndex(i); err != nil {
		return err
	}
	p.load()
	return nil
}

// load shows the image under the cursor and attaches its boxes. In predict
// mode the engine stays detached until the prediction arrives.
func (p *SessionPresenter) load() {
	p.worker.CancelPending()
	p.pending = 0
	p.setPath = ""
	p.view.SetBusy(false)
	p.engine.Detach()

	path, ok := p.model.Current()
	if !ok {
		p.unload()
		p.refreshProgress()
		return
	}
	l, err := p.loader(path)
	if err != nil {
		p.image.Clear()
		p.view.SetImageInfo(filepath.Base(path))
		p.view.SetStatus(fmt.Sprintf("Cannot open %s: %v", filepath.Base(path), err))
		if p.logger != nil {
			p.logger.Warn("image load failed", "image", path, "error", err)
		}
		p.refreshProgress()
		return
	}
	p.image.Set(l)
	p.view.SetImageInfo(fmt.Sprintf("%s  %dx%d  %s", filepath.Base(path), l.Width, l.Height, humanize.Bytes(uint64(l.Bytes))))

	switch p.model.Mode() {
	case model.ModeDataset:
		set, warnings, err := p.store.Load(path)
		switch {
		case err != nil:
			p.view.SetStatus(fmt.Sprintf("Cannot read labels, edits will not be saved: %v", err))
		case len(warnings) > 0:
			p.view.SetStatus(fmt.Sprintf("Skipped %d malformed label line(s)", len(warnings)))
		default:
			p.view.SetStatus(fmt.Sprintf("Loaded %d box(es) from labels", set.Len()))
		}
		p.attach(path, set)
		if err != nil {
			// an unreadable label file is never overwritten
			p.setPath = ""
		}
	default:
		if !p.hasDetector() {
			p.view.SetStatus("No detector configured: pick one in Settings or press Tab for dataset mode")
			p.attach(path, annotation.NewAnnotationSet())
			break
		}
		p.pending = p.worker.Dispatch(path, p.model.Threshold())
		p.view.SetBusy(true)
		p.view.SetStatus("Predicting...")
	}
	p.refreshProgress()
}

func (p *SessionPresenter) unload() {
	p.worker.CancelPending()
	p.pending = 0
	p.setPath = ""
	p.engine.Detach()
	p.image.Clear()
	p.view.SetBusy(false)
	p.view.SetImageInfo("")
}

func (p *SessionPresenter) attach(path string, set *annotation.AnnotationSet) {
	if set == nil {
		set = annotation.NewAnnotationSet()
	}
	vt, ok := p.image.Transform(p.engine.Zoom())
	if !ok {
		return
	}
	p.engine.Attach(set, vt)
	p.setPath = path
}

func (p *SessionPresenter) handleResult(res predictResult) {
	if p.pending == 0 || res.seq != p.pending || res.seq != p.worker.Latest() {
		if p.logger != nil {
			p.logger.Debug("stale prediction discarded", "seq", res.seq, "image", res.path)
		}
		return
	}
	cur, ok := p.model.Current()
	if !ok || cur != res.path {
		return
	}
	p.pending = 0
	p.view.SetBusy(false)
	var set *annotation.AnnotationSet
	if res.err != nil {
		if p.logger != nil {
			p.logger.Warn("inference failed", "image", res.path, "error", res.err)
		}
		p.view.SetStatus(fmt.Sprintf("Inference failed: %v", res.err))
		set = annotation.NewAnnotationSet()
	} else {
		set = annotation.FromPredictions(res.preds, p.model.Threshold(), p.table)
		p.view.SetStatus(fmt.Sprintf("%d prediction(s) at threshold %.2f in %s", set.Len(), p.model.Threshold(), res.duration.Round(time.Millisecond)))
	}
	p.attach(res.path, set)
}

func (p *SessionPresenter) save(set *annotation.AnnotationSet) error {
	if err := p.store.Save(p.setPath, set); err != nil {
		if p.logger != nil {
			p.logger.Error("save labels", "image", p.setPath, "error", err)
		}
		p.view.ShowError("Save failed", err.Error())
		return err
	}
	p.lastSave = time.Now()
	p.view.SetStatus(fmt.Sprintf("Saved %d box(es) for %s", set.Len(), filepath.Base(p.setPath)))
	return nil
}

// autoFlush saves like Flush but reports errors in the status bar only.
func (p *SessionPresenter) autoFlush() {
	set := p.engine.Set()
	if set == nil || p.setPath == "" || !set.Dirty() {
		return
	}
	if err := p.store.Save(p.setPath, set); err != nil {
		if p.logger != nil {
			p.logger.Warn("auto-save failed", "image", p.setPath, "error", err)
		}
		p.view.SetStatus(fmt.Sprintf("Auto-save failed: %v", err))
		return
	}
	p.view.SetStatus("Auto-saved " + filepath.Base(p.setPath))
}

func (p *SessionPresenter) refreshProgress() {
	text := p.model.Progress() + "  |  " + p.model.Mode().String()
	if set := p.engine.Set(); set != nil {
		good, bad := set.Counts()
		text += fmt.Sprintf("  |  %s %d  %s %d", p.table.Name(annotation.ClassGood), good, p.table.Name(annotation.ClassBad), bad)
		if set.Dirty() {
			text += "  *"
		}
	} else if p.pending != 0 {
		text += "  |  predicting"
	}
	if text == p.lastProgress {
		return
	}
	p.lastProgress = text
	p.view.SetProgress(text)
}
