package view

import (
	"fmt"
	"image"
	"log/slog"

	"github.com/soocke/annotator-go/config"
	"github.com/soocke/annotator-go/domain/capture"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders
	. "modernc.org/tk9.0"
)

// CaptureRegion manages the transparent window used to choose the screen
// rectangle imported by "Capture Region".
type CaptureRegion interface {
	OpenOrFocus()
	Clear()
	ActiveRect() *image.Rectangle
}

type captureRegion struct {
	logger  *slog.Logger
	cfg     *config.Config
	cfgPath string
	win     *ToplevelWidget
}

// NewCaptureRegion restores the saved region from cfg.
func NewCaptureRegion(cfg *config.Config, cfgPath string, logger *slog.Logger) CaptureRegion {
	return &captureRegion{logger: logger, cfg: cfg, cfgPath: cfgPath}
}

// assumed screen size for the first placement of the window
const (
	screenW = 1920
	screenH = 1080
)

func (v *captureRegion) OpenOrFocus() {
	if v.win != nil {
		WmGeometry(v.win.Window)
		return
	}
	win := App.Toplevel(Borderwidth(2), Background("#008080"))
	win.WmTitle("Capture Region")
	v.win = win
	geom := defaultGeometry()
	if r := v.ActiveRect(); r != nil {
		geom = capture.FormatGeometry(*r)
	}
	WmGeometry(win.Window, geom)
	WmAttributes(win.Window, "-topmost", 1)
	WmAttributes(win.Window, "-alpha", 0.4)
	GridRowConfigure(win.Window, 0, Weight(1))
	GridColumnConfigure(win.Window, 0, Weight(1))
	Grid(win.Frame(Background("#008080")), Row(0), Column(0), Columnspan(3), Sticky("nsew"))
	controls := win.Frame()
	Grid(controls, Row(1), Column(0), Columnspan(3), Sticky("we"))
	confirm := win.Button(Txt("Confirm [Enter]"), Command(v.confirm))
	Grid(confirm, In(controls), Row(0), Column(0), Sticky("we"), Padx("0.2m"), Pady("0.2m"))
	cancel := win.Button(Txt("Cancel [Esc]"), Command(v.cancel))
	Grid(cancel, In(controls), Row(0), Column(1), Sticky("we"), Padx("0.2m"), Pady("0.2m"))
	clear := win.Button(Txt("Clear"), Command(func() { v.Clear(); v.destroy() }))
	Grid(clear, In(controls), Row(0), Column(2), Sticky("we"), Padx("0.2m"), Pady("0.2m"))
	Bind(win, "<Return>", Command(v.confirm))
	Bind(win, "<Escape>", Command(v.cancel))
	WmProtocol(win.Window, "WM_DELETE_WINDOW", v.cancel)
}

// defaultGeometry centers a window of two thirds the assumed screen.
func defaultGeometry() string {
	w, h := screenW*2/3, screenH*5/9
	return fmt.Sprintf("%dx%d+%d+%d", w, h, (screenW-w)/2, (screenH-h)/2)
}

func (v *captureRegion) Clear() {
	if v.cfg == nil {
		return
	}
	v.cfg.SetCaptureRect(nil)
	v.save()
}

func (v *captureRegion) confirm() {
	if v.win == nil {
		return
	}
	rect, ok := capture.ParseGeometry(WmGeometry(v.win.Window))
	if ok && v.cfg != nil {
		v.cfg.SetCaptureRect(&rect)
		v.save()
		if v.logger != nil {
			v.logger.Info("capture region set", "rect", rect.String())
		}
	}
	v.destroy()
}

func (v *captureRegion) cancel() { v.destroy() }

func (v *captureRegion) destroy() {
	if v.win != nil {
		Destroy(v.win)
		v.win = nil
	}
}

func (v *captureRegion) save() {
	if v.cfgPath == "" {
		return
	}
	if err := v.cfg.Save(v.cfgPath); err != nil && v.logger != nil {
		v.logger.Error("config save failed", "error", err)
	}
}

func (v *captureRegion) ActiveRect() *image.Rectangle {
	if v.cfg == nil {
		return nil
	}
	return v.cfg.CaptureRect()
}
