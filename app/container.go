package app

import (
	"log/slog"

	"github.com/soocke/annotator-go/assets"
	"github.com/soocke/annotator-go/config"
	"github.com/soocke/annotator-go/domain/annotation"
	"github.com/soocke/annotator-go/domain/capture"
	"github.com/soocke/annotator-go/domain/dataset"
	"github.com/soocke/annotator-go/domain/detect"
	"github.com/soocke/annotator-go/domain/editor"
	"github.com/soocke/annotator-go/ui/model"
	"github.com/soocke/annotator-go/ui/presenter"
	"github.com/soocke/annotator-go/ui/theme"
	"github.com/soocke/annotator-go/ui/view"
)

// AppContainer assembles models, services, presenters and the root view.
type AppContainer struct {
	Config     *config.Config
	ConfigPath string
	Logger     *slog.Logger
	Table      annotation.ClassTable

	Engine   *editor.Engine
	Session  *model.SessionModel
	Image    *model.ImageModel
	Activity *model.ActivityModel
	Store    *dataset.LabelStore
	Detector detect.Detector
	Importer *capture.Importer
	RootView *view.RootView

	// Presenters
	SessionPresenter  *presenter.SessionPresenter
	CanvasPresenter   *presenter.CanvasPresenter
	StatusPresenter   *presenter.StatusPresenter
	ActivityPresenter *presenter.ActivityPresenter
	CapturePresenter  *presenter.CapturePresenter
	SettingsPresenter *presenter.SettingsPresenter
	Loop              *presenter.Loop
}

// ClassTable derives the class mapping from cfg.
func ClassTable(cfg *config.Config) annotation.ClassTable {
	return annotation.ClassTable{
		GoodID:      cfg.GoodClassID,
		BadID:       cfg.BadClassID,
		ModelGoodID: cfg.ModelGoodClassID,
		GoodName:    cfg.GoodLabel,
		BadName:     cfg.BadLabel,
	}
}

// NewDetector builds the prediction backend selected by cfg.
func NewDetector(cfg config.Config, logger *slog.Logger) (detect.Detector, error) {
	return detect.New(detect.Settings{
		Backend:   cfg.Detector,
		URL:       cfg.DetectorURL,
		Model:     cfg.DetectorModel,
		Prompt:    assets.Prompt(cfg.DetectorPrompt),
		Timeout:   cfg.DetectorTimeout(),
		CacheSize: cfg.PredictionCacheSize,
	}, logger)
}

// BuildContainer constructs all components. No widgets are created here;
// the root view is built by the app once Tk is running.
func BuildContainer(cfg *config.Config, cfgPath string, logger *slog.Logger) *AppContainer {
	c := &AppContainer{Config: cfg, ConfigPath: cfgPath, Logger: logger, Table: ClassTable(cfg)}

	det, err := NewDetector(*cfg, logger)
	if err != nil {
		logger.Warn("detector unavailable, predictions disabled", "backend", cfg.Detector, "error", err)
		det = detect.None{}
	}
	c.Detector = det

	split, err := dataset.ParseSplit(cfg.Split)
	if err != nil {
		split = dataset.SplitTrain
	}
	c.Session = model.NewSessionModel(cfg.DatasetRoot, split, model.ParseLoadMode(cfg.Mode), cfg.ConfidenceThreshold)
	c.Image = model.NewImageModel()
	c.Activity = model.NewActivityModel()
	c.Store = dataset.NewLabelStore(c.Table, logger)
	c.Engine = editor.NewEngine(logger, presenter.EditorOptions(cfg))
	c.Importer = capture.NewImporter(capture.ScreenGrab, logger)

	// View
	c.RootView = view.NewRootView(cfg, cfgPath, logger)

	// Presenters
	c.SessionPresenter = presenter.NewSessionPresenter(c.Session, c.Image, c.Engine, c.Store, nil, c.Detector, c.Table, c.RootView, logger)
	c.SessionPresenter.SetAutoSave(cfg.AutoSaveInterval())
	c.CanvasPresenter = presenter.NewCanvasPresenter(c.Engine, c.Image, c.RootView, c.Table, logger)
	c.CanvasPresenter.ConfirmDelete = cfg.ConfirmDelete
	c.StatusPresenter = presenter.NewStatusPresenter(c.Engine, c.Table, c.RootView)
	c.Engine.AddModeListener(c.StatusPresenter.OnMode)
	c.ActivityPresenter = presenter.NewActivityPresenter(c.Activity, c.SessionPresenter, c.RootView)
	c.CapturePresenter = presenter.NewCapturePresenter(c.Importer, c.RootView.Region, c.SessionPresenter, c.RootView, logger)
	c.SettingsPresenter = presenter.NewSettingsPresenter(cfg, cfgPath, c.SessionPresenter, c.Engine, c.CanvasPresenter, func(dark bool) {
		theme.SetDark(dark)
		c.CanvasPresenter.SetPalette(theme.Overlay())
	}, logger)
	c.SettingsPresenter.BuildDetector = func(next config.Config) (detect.Detector, error) {
		d, err := NewDetector(next, logger)
		if err == nil {
			c.Detector = d
		}
		return d, err
	}
	c.Loop = presenter.NewLoop(c.SessionPresenter, c.CanvasPresenter, c.StatusPresenter, c.ActivityPresenter, nil)
	return c
}
