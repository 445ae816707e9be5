package view

import (
	"log/slog"
	"strings"

	"github.com/soocke/annotator-go/config"
	"github.com/soocke/annotator-go/ui/presenter"
	"github.com/soocke/annotator-go/ui/theme"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

// SettingsApplier receives the raw form text on Apply.
type SettingsApplier interface {
	ApplyForm(fields map[string]string) (invalid []string, err error)
}

// SettingsPanel is the editable settings form in the side panel.
type SettingsPanel interface {
	Build(parent *FrameWidget, startRow int) (endRow int)
	SetEditable(enabled bool)
	ApplyChanges()
}

type settingsPanel struct {
	cfg      *config.Config
	applier  SettingsApplier
	logger   *slog.Logger
	applyBtn *TButtonWidget
	note     *LabelWidget
	widgets  map[string]*TextWidget // keyed by form field id
}

func NewSettingsPanel(cfg *config.Config, applier SettingsApplier, logger *slog.Logger) SettingsPanel {
	return &settingsPanel{cfg: cfg, applier: applier, logger: logger, widgets: make(map[string]*TextWidget)}
}

func (v *settingsPanel) Build(parent *FrameWidget, startRow int) (row int) {
	row = startRow
	values := map[string]string{}
	if v.cfg != nil {
		values = presenter.FormValues(*v.cfg)
	}
	makeRow := func(id, label string) {
		lbl := Label(Txt(label), Anchor("w"))
		Grid(lbl, In(parent), Row(row), Column(0), Sticky("w"), Padx("0.4m"), Pady("0.15m"))
		w := Text(Height(1), Width(18))
		Grid(w, In(parent), Row(row), Column(1), Sticky("we"), Padx("0.4m"), Pady("0.15m"))
		setText(w, values[id])
		v.widgets[id] = w
		row++
	}
	makeRow(presenter.FieldThreshold, "Confidence Threshold")
	makeRow(presenter.FieldHandleSize, "Handle Size Px")
	makeRow(presenter.FieldHitTolerance, "Hover Tolerance Px")
	makeRow(presenter.FieldMinBox, "Min Box Px")
	makeRow(presenter.FieldAutoSave, "Auto-save Seconds (0 = off)")
	makeRow(presenter.FieldConfirmDelete, "Confirm Delete (true/false)")
	makeRow(presenter.FieldDetector, "Detector (none/http/ollama)")
	makeRow(presenter.FieldDetectorURL, "Detector URL")
	makeRow(presenter.FieldDetectorModel, "Detector Model")
	makeRow(presenter.FieldDetectorTimeout, "Detector Timeout Seconds")
	v.applyBtn = TButton(Txt("Apply Changes"), Style(theme.StylePrimaryButton), Command(v.ApplyChanges))
	Grid(v.applyBtn, In(parent), Row(row), Column(0), Columnspan(2), Sticky("we"), Padx("0.4m"), Pady("0.3m"))
	row++
	v.note = Label(Txt(""), Anchor("w"))
	Grid(v.note, In(parent), Row(row), Column(0), Columnspan(2), Sticky("we"), Padx("0.4m"))
	row++
	return row
}

func (v *settingsPanel) SetEditable(enabled bool) {
	state := "disabled"
	if enabled {
		state = "normal"
	}
	for _, w := range v.widgets {
		if w != nil {
			w.Configure(State(state))
		}
	}
	if v.applyBtn != nil {
		v.applyBtn.Configure(State(state))
	}
}

func (v *settingsPanel) ApplyChanges() {
	if v.applier == nil {
		return
	}
	fields := make(map[string]string, len(v.widgets))
	for id, w := range v.widgets {
		fields[id] = textOf(w)
	}
	invalid, err := v.applier.ApplyForm(fields)
	switch {
	case err != nil:
		v.setNote("Save failed: " + err.Error())
	case len(invalid) > 0:
		v.setNote("Ignored: " + strings.Join(invalid, ", "))
	default:
		v.setNote("Saved")
	}
	// show the validated values
	if v.cfg != nil {
		for id, s := range presenter.FormValues(*v.cfg) {
			setText(v.widgets[id], s)
		}
	}
}

func (v *settingsPanel) setNote(s string) {
	if v.note != nil {
		v.note.Configure(Txt(s))
	}
}
