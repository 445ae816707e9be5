package app

import (
	"fmt"
	"time"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"

	"github.com/soocke/annotator-go/debug"
	"github.com/soocke/annotator-go/domain/annotation"
	"github.com/soocke/annotator-go/domain/dataset"
	"github.com/soocke/annotator-go/ui/theme"
	"github.com/soocke/annotator-go/ui/view"
)

const (
	tick = 50 * time.Millisecond
)

type app struct {
	title   string
	c       *AppContainer
	afterID string
	stop    chan struct{}
}

func NewApp(title string, c *AppContainer) *app {
	a := &app{title: title, c: c, stop: make(chan struct{})}
	App.WmTitle(title)
	WmProtocol(App, "WM_DELETE_WINDOW", a.exitHandler)
	WmGeometry(App, fmt.Sprintf("%dx%d+100+100", c.Config.WindowWidth, c.Config.WindowHeight))
	return a
}

// Start builds the UI, opens the configured dataset and runs the Tk loop.
func (a *app) Start() {
	c := a.c
	theme.SetDark(c.Config.DarkMode)
	c.CanvasPresenter.SetPalette(theme.Overlay())
	c.RootView.Build(a.handlers(), c.SettingsPresenter)

	if c.Config.Debug {
		debug.StartGoroutineLogger(10*time.Second, c.Logger, a.stop)
		debug.StartMemLogger(10*time.Second, c.Logger, a.stop)
	}
	if c.Config.DatasetRoot != "" {
		a.report("open", c.SessionPresenter.Open())
	}

	c.Loop.Schedule = a.scheduleUpdate
	a.scheduleUpdate()
	App.Wait()
}

func (a *app) handlers() view.Handlers {
	c := a.c
	sess := c.SessionPresenter
	canvas := c.CanvasPresenter
	return view.Handlers{
		OpenDataset: func(root string) {
			if err := sess.SetRoot(root); err != nil {
				a.report("open dataset", err)
				return
			}
			c.Config.DatasetRoot = root
			a.saveConfig()
		},
		SelectSplit: func(s dataset.Split) {
			if err := sess.SetSplit(s); err != nil {
				a.report("select split", err)
				return
			}
			c.Config.Split = string(s)
			a.saveConfig()
		},
		ToggleMode: func() {
			if err := sess.ToggleMode(); err != nil {
				a.report("toggle mode", err)
				return
			}
			c.Config.Mode = sess.Model().Mode().String()
			a.saveConfig()
		},
		SetThreshold: func(v float64) {
			stored, err := sess.SetThreshold(v)
			c.RootView.SetThresholdText(stored)
			c.Config.ConfidenceThreshold = stored
			a.report("threshold", err)
		},
		Goto:    func(pos int) { a.report("goto", sess.Goto(pos)) },
		Prev:    func() { a.report("prev", sess.Prev()) },
		Next:    func() { a.report("next", sess.Next()) },
		Save:    func() { a.report("save", sess.Save()) },
		Refresh: sess.Refresh,
		NewBoxGood: func(good bool) {
			if good {
				canvas.SetNewBoxClass(annotation.ClassGood)
			} else {
				canvas.SetNewBoxClass(annotation.ClassBad)
			}
		},
		ImportScreen: func() { a.report("capture", c.CapturePresenter.ImportScreen()) },
		ImportRegion: func() { a.report("capture region", c.CapturePresenter.ImportRegion()) },
		SelectRegion: c.RootView.Region.OpenOrFocus,
		ToggleDark: func() {
			c.Config.DarkMode = theme.ToggleDark()
			canvas.SetPalette(theme.Overlay())
			a.saveConfig()
		},
		Exit: a.exitHandler,

		PointerDown:  canvas.PointerDown,
		PointerMove:  canvas.PointerMove,
		PointerUp:    canvas.PointerUp,
		Delete:       canvas.DeleteHovered,
		ToggleClass:  canvas.ToggleClass,
		ToggleResize: canvas.ToggleResize,
		ToggleZoom:   canvas.ToggleZoom,
		ClearAll:     canvas.ClearAll,
		Cancel:       canvas.Cancel,
	}
}

// report logs errors that the presenters already surfaced in the view.
func (a *app) report(op string, err error) {
	if err != nil {
		a.c.Logger.Debug("action failed", "op", op, "error", err)
	}
}

func (a *app) saveConfig() {
	if a.c.ConfigPath == "" {
		return
	}
	if err := a.c.Config.Save(a.c.ConfigPath); err != nil {
		a.c.Logger.Error("config save failed", "error", err)
	}
}

func (a *app) update() {
	a.c.Loop.Tick()
}

// exitHandler flushes pending edits before closing. A failed flush asks
// whether to quit anyway.
func (a *app) exitHandler() {
	if err := a.c.SessionPresenter.Close(); err != nil {
		if !a.c.RootView.Confirm("Quit", "Saving the current image failed. Quit without saving?") {
			return
		}
	}
	if a.afterID != "" {
		TclAfterCancel(a.afterID)
	}
	close(a.stop)
	a.c.Logger.Info("exit")
	Destroy(App)
}

func (a *app) scheduleUpdate() {
	// TclAfter keeps every update on Tk's event loop thread.
	a.afterID = TclAfter(tick, a.update)
}
