package view

import (
	"image"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/soocke/annotator-go/config"
	"github.com/soocke/annotator-go/domain/dataset"
	"github.com/soocke/annotator-go/ui/presenter"
	"github.com/soocke/annotator-go/ui/theme"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

// Handlers are the callbacks the root view invokes on user actions.
// Nil handlers are skipped.
type Handlers struct {
	OpenDataset  func(root string)
	SelectSplit  func(split dataset.Split)
	ToggleMode   func()
	SetThreshold func(v float64)
	Goto         func(pos int)
	Prev         func()
	Next         func()
	Save         func()
	Refresh      func()
	NewBoxGood   func(good bool)
	ImportScreen func()
	ImportRegion func()
	SelectRegion func()
	ToggleDark   func()
	Exit         func()

	PointerDown  func(x, y float64)
	PointerMove  func(x, y float64)
	PointerUp    func(x, y float64)
	Delete       func()
	ToggleClass  func()
	ToggleResize func()
	ToggleZoom   func()
	ClearAll     func()
	Cancel       func()
}

// RootView composes the top-level layout: toolbar, canvas with crop
// preview, settings panel and status bar. It implements the view contracts
// of the session, canvas, status, activity and capture presenters.
type RootView struct {
	cfg    *config.Config
	logger *slog.Logger
	h      Handlers

	// Subviews
	Canvas   CanvasView
	Settings SettingsPanel
	Activity ActivityStats
	Region   CaptureRegion

	// Widgets
	rootEntry      *TextWidget
	splitSelect    *TComboboxWidget
	thresholdEntry *TextWidget
	gotoEntry      *TextWidget
	classSelect    *TComboboxWidget
	progressLabel  *TLabelWidget
	infoLabel      *TLabelWidget
	statusLabel    *TLabelWidget
	modeLabel      *TLabelWidget
	busyLabel      *TLabelWidget
}

func NewRootView(cfg *config.Config, cfgPath string, logger *slog.Logger) *RootView {
	return &RootView{cfg: cfg, logger: logger, Region: NewCaptureRegion(cfg, cfgPath, logger)}
}

// Build constructs the layout and binds keyboard shortcuts to the canvas.
func (rv *RootView) Build(h Handlers, settings SettingsApplier) {
	if rv == nil {
		return
	}
	rv.h = h
	GridColumnConfigure(App, 0, Weight(1))
	GridRowConfigure(App, 1, Weight(1))

	// Row 0: toolbar
	bar := Frame()
	Grid(bar, Row(0), Column(0), Columnspan(2), Sticky("we"), Padx("0.4m"), Pady("0.3m"))

	rv.rootEntry = Text(Height(1), Width(36))
	Grid(TLabel(Txt("Dataset")), In(bar), Row(0), Column(0), Sticky("w"), Padx("0.2m"))
	Grid(rv.rootEntry, In(bar), Row(0), Column(1), Sticky("we"), Padx("0.2m"))
	if rv.cfg != nil {
		setText(rv.rootEntry, rv.cfg.DatasetRoot)
	}
	Bind(rv.rootEntry, "<Return>", Command(rv.openDataset))
	open := TButton(Txt("Open"), Style(theme.StylePrimaryButton), Command(rv.openDataset))
	Grid(open, In(bar), Row(0), Column(2), Padx("0.2m"))

	splits := dataset.Splits()
	names := make([]string, len(splits))
	current := 0
	for i, s := range splits {
		names[i] = string(s)
		if rv.cfg != nil && string(s) == rv.cfg.Split {
			current = i
		}
	}
	rv.splitSelect = TCombobox(Values(names), Width(7))
	Grid(rv.splitSelect, In(bar), Row(0), Column(3), Padx("0.2m"))
	rv.splitSelect.Current(current)
	Bind(rv.splitSelect, "<<ComboboxSelected>>", Command(func() {
		idx, err := strconv.Atoi(rv.splitSelect.Current(nil))
		if err != nil || idx < 0 || idx >= len(splits) {
			if rv.logger != nil {
				rv.logger.Error("split selection parse error", "error", err)
			}
			return
		}
		if h.SelectSplit != nil {
			h.SelectSplit(splits[idx])
		}
	}))

	Grid(TButton(Txt("Mode [Tab]"), Command(call(h.ToggleMode))), In(bar), Row(0), Column(4), Padx("0.2m"))

	Grid(TLabel(Txt("Threshold")), In(bar), Row(0), Column(5), Padx("0.2m"))
	rv.thresholdEntry = Text(Height(1), Width(5))
	Grid(rv.thresholdEntry, In(bar), Row(0), Column(6), Padx("0.2m"))
	if rv.cfg != nil {
		setText(rv.thresholdEntry, strconv.FormatFloat(rv.cfg.ConfidenceThreshold, 'f', 2, 64))
	}
	Bind(rv.thresholdEntry, "<Return>", Command(rv.applyThreshold))

	Grid(TButton(Txt("<"), Width(2), Command(call(h.Prev))), In(bar), Row(0), Column(7), Padx("0.2m"))
	rv.gotoEntry = Text(Height(1), Width(6))
	Grid(rv.gotoEntry, In(bar), Row(0), Column(8), Padx("0.2m"))
	Bind(rv.gotoEntry, "<Return>", Command(rv.gotoImage))
	Grid(TButton(Txt(">"), Width(2), Command(call(h.Next))), In(bar), Row(0), Column(9), Padx("0.2m"))

	rv.classSelect = TCombobox(Values([]string{rv.className(true), rv.className(false)}), Width(10))
	Grid(rv.classSelect, In(bar), Row(0), Column(10), Padx("0.2m"))
	rv.classSelect.Current(0)
	Bind(rv.classSelect, "<<ComboboxSelected>>", Command(func() {
		if h.NewBoxGood != nil {
			h.NewBoxGood(rv.classSelect.Current(nil) == "0")
		}
	}))

	Grid(TButton(Txt("Save [Ctrl+S]"), Style(theme.StylePrimaryButton), Command(call(h.Save))), In(bar), Row(0), Column(11), Padx("0.2m"))
	Grid(TButton(Txt("Capture"), Command(call(h.ImportScreen))), In(bar), Row(0), Column(12), Padx("0.2m"))
	Grid(TButton(Txt("Capture Region"), Command(call(h.ImportRegion))), In(bar), Row(0), Column(13), Padx("0.2m"))
	Grid(TButton(Txt("Region..."), Command(call(h.SelectRegion))), In(bar), Row(0), Column(14), Padx("0.2m"))
	Grid(TButton(Txt("Theme"), Command(call(h.ToggleDark))), In(bar), Row(0), Column(15), Padx("0.2m"))
	Grid(TButton(Txt("Exit"), Style(theme.StyleDangerButton), Command(call(h.Exit))), In(bar), Row(0), Column(16), Padx("0.2m"))
	GridColumnConfigure(bar, 1, Weight(1))

	// Row 1: canvas (column 0) and side panel (column 1)
	rv.Canvas = NewCanvasView(1, 0)
	side := Frame()
	Grid(side, Row(1), Column(1), Sticky("nsew"), Padx("0.4m"), Pady("0.3m"))
	rv.Canvas.BuildPreview(side, 0)
	rv.Settings = NewSettingsPanel(rv.cfg, settings, rv.logger)
	rv.Settings.Build(side, 1)

	// Row 2: status bar
	status := Frame(Borderwidth(1), Relief("sunken"))
	Grid(status, Row(2), Column(0), Columnspan(2), Sticky("we"))
	rv.progressLabel = TLabel(Txt("No images"), Style(theme.StyleModeLabel))
	Grid(rv.progressLabel, In(status), Row(0), Column(0), Sticky("w"), Padx("0.4m"))
	rv.infoLabel = TLabel(Txt(""), Style(theme.StyleMutedLabel))
	Grid(rv.infoLabel, In(status), Row(0), Column(1), Sticky("w"), Padx("0.4m"))
	rv.busyLabel = TLabel(Txt(""), Style(theme.StyleBadLabel))
	Grid(rv.busyLabel, In(status), Row(0), Column(2), Sticky("w"), Padx("0.4m"))
	rv.Activity = NewActivityStats(status, 0, 3)
	rv.modeLabel = TLabel(Txt(""), Style(theme.StyleMutedLabel))
	Grid(rv.modeLabel, In(status), Row(1), Column(0), Columnspan(2), Sticky("w"), Padx("0.4m"))
	rv.statusLabel = TLabel(Txt("Open a dataset to start"))
	Grid(rv.statusLabel, In(status), Row(1), Column(2), Columnspan(3), Sticky("w"), Padx("0.4m"))
	GridColumnConfigure(status, 1, Weight(1))

	rv.bindCanvas()
}

func (rv *RootView) bindCanvas() {
	h := rv.h
	rv.Canvas.BindPointer(h.PointerDown, h.PointerMove, h.PointerUp)
	keys := map[string]func(){
		"<KeyPress-d>":      h.Delete,
		"<KeyPress-w>":      h.ToggleClass,
		"<KeyPress-r>":      h.ToggleResize,
		"<KeyPress-z>":      h.ToggleZoom,
		"<KeyPress-q>":      h.Refresh,
		"<Tab>":             h.ToggleMode,
		"<Left>":            h.Prev,
		"<Right>":           h.Next,
		"<Control-s>":       h.Save,
		"<KeyPress-Delete>": h.ClearAll,
		"<Escape>":          h.Cancel,
	}
	for seq, fn := range keys {
		rv.Canvas.BindKey(seq, call(fn))
	}
}

func (rv *RootView) openDataset() {
	if rv.h.OpenDataset != nil {
		rv.h.OpenDataset(textOf(rv.rootEntry))
	}
}

func (rv *RootView) applyThreshold() {
	v, err := strconv.ParseFloat(textOf(rv.thresholdEntry), 64)
	if err != nil {
		rv.SetStatus("Threshold must be a number between 0 and 1")
		return
	}
	if rv.h.SetThreshold != nil {
		rv.h.SetThreshold(v)
	}
}

func (rv *RootView) gotoImage() {
	pos, err := strconv.Atoi(textOf(rv.gotoEntry))
	if err != nil {
		rv.SetStatus("Go to expects an image number")
		return
	}
	if rv.h.Goto != nil {
		rv.h.Goto(pos)
	}
}

func (rv *RootView) className(good bool) string {
	if rv.cfg == nil {
		if good {
			return "good"
		}
		return "bad"
	}
	if good {
		return rv.cfg.GoodLabel
	}
	return rv.cfg.BadLabel
}

// SetThresholdText shows the stored threshold after clamping.
func (rv *RootView) SetThresholdText(v float64) {
	if rv != nil && rv.thresholdEntry != nil {
		setText(rv.thresholdEntry, strconv.FormatFloat(v, 'f', 2, 64))
	}
}

// SetProgress updates the "Image N of M" label.
func (rv *RootView) SetProgress(text string) { rv.setLabel(rv.progressLabel, text) }

// SetImageInfo shows name, size and file size of the open image.
func (rv *RootView) SetImageInfo(text string) { rv.setLabel(rv.infoLabel, text) }

// SetStatus shows a transient message in the status bar.
func (rv *RootView) SetStatus(text string) { rv.setLabel(rv.statusLabel, text) }

// SetModeLabel shows the interaction state.
func (rv *RootView) SetModeLabel(text string) { rv.setLabel(rv.modeLabel, text) }

// SetBusy marks the canvas as waiting for a prediction.
func (rv *RootView) SetBusy(busy bool) {
	text := ""
	if busy {
		text = "predicting..."
	}
	rv.setLabel(rv.busyLabel, text)
}

// ShowError opens a blocking error dialog.
func (rv *RootView) ShowError(title, message string) { showError(title, message) }

// Confirm asks a yes/no question.
func (rv *RootView) Confirm(title, message string) bool { return askYesNo(title, message) }

// AskSave asks whether to save, discard or keep unsaved edits.
func (rv *RootView) AskSave(title, message string) presenter.SaveChoice {
	return askSave(title, message)
}

// ShowCanvas proxies to the canvas view.
func (rv *RootView) ShowCanvas(img image.Image) {
	if rv != nil && rv.Canvas != nil {
		rv.Canvas.ShowCanvas(img)
	}
}

// ShowCrop proxies to the crop preview.
func (rv *RootView) ShowCrop(img image.Image) {
	if rv != nil && rv.Canvas != nil {
		rv.Canvas.ShowCrop(img)
	}
}

// SetActivity proxies to the activity labels.
func (rv *RootView) SetActivity(onImage, total time.Duration) {
	if rv != nil && rv.Activity != nil {
		rv.Activity.SetActivity(onImage, total)
	}
}

func (rv *RootView) setLabel(l *TLabelWidget, text string) {
	if rv != nil && l != nil {
		l.Configure(Txt(text))
	}
}

func call(fn func()) func() {
	return func() {
		if fn != nil {
			fn()
		}
	}
}

func textOf(w *TextWidget) string {
	if w == nil {
		return ""
	}
	return strings.TrimSpace(strings.Join(w.Get("1.0", END), ""))
}

func setText(w *TextWidget, s string) {
	if w == nil {
		return
	}
	w.Delete("1.0", END)
	w.Insert("1.0", s)
}
