package presenter

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/soocke/annotator-go/config"
	"github.com/soocke/annotator-go/domain/detect"
	"github.com/soocke/annotator-go/domain/editor"
)

// SessionSettings is the part of the session tuned from the settings panel.
type SessionSettings interface {
	SetThreshold(v float64) (float64, error)
	SetAutoSave(every time.Duration)
}

// OptionsSetter accepts new editor tuning options.
type OptionsSetter interface{ SetOptions(editor.Options) }

// SettingsPresenter applies edits from the settings panel to the running
// components and persists the config file.
type SettingsPresenter struct {
	// BuildDetector constructs a backend from the config; nil keeps the
	// running detector whatever the settings say.
	BuildDetector func(config.Config) (detect.Detector, error)

	cfg     *config.Config
	path    string
	session SessionSettings
	engine  OptionsSetter
	canvas  *CanvasPresenter
	onDark  func(bool)
	logger  *slog.Logger
}

func NewSettingsPresenter(cfg *config.Config, path string, session SessionSettings, engine OptionsSetter, canvas *CanvasPresenter, onDark func(bool), logger *slog.Logger) *SettingsPresenter {
	return &SettingsPresenter{cfg: cfg, path: path, session: session, engine: engine, canvas: canvas, onDark: onDark, logger: logger}
}

// Config returns a copy of the active configuration.
func (p *SettingsPresenter) Config() config.Config {
	if p == nil || p.cfg == nil {
		return *config.DefaultConfig()
	}
	return *p.cfg
}

// EditorOptions derives engine options from cfg.
func EditorOptions(cfg *config.Config) editor.Options {
	return editor.Options{
		HandleSizePx:   cfg.HandleSizePx,
		HitTolerancePx: cfg.HitTolerancePx,
		MinBoxPx:       cfg.MinBoxPx,
	}
}

// DetectorSwitcher accepts a rebuilt prediction backend.
type DetectorSwitcher interface {
	SetDetector(d detect.Detector) error
}

// DetectorChanged reports whether a and b select different backends.
func DetectorChanged(a, b config.Config) bool {
	return a.Detector != b.Detector || a.DetectorURL != b.DetectorURL ||
		a.DetectorModel != b.DetectorModel || a.DetectorPrompt != b.DetectorPrompt ||
		a.DetectorTimeoutSeconds != b.DetectorTimeoutSeconds
}

// Apply validates next, pushes the changed values to the running
// components and saves the config. The config is left untouched when the
// session rejects the new threshold. A changed detector is rebuilt with
// BuildDetector and swapped into the session.
func (p *SettingsPresenter) Apply(next config.Config) error {
	if p == nil || p.cfg == nil {
		return nil
	}
	_ = next.Validate()
	prev := *p.cfg

	if p.session != nil {
		if next.ConfidenceThreshold != prev.ConfidenceThreshold {
			if _, err := p.session.SetThreshold(next.ConfidenceThreshold); err != nil {
				return err
			}
		}
		if next.AutoSaveSeconds != prev.AutoSaveSeconds {
			p.session.SetAutoSave(next.AutoSaveInterval())
		}
	}
	*p.cfg = next

	if p.engine != nil {
		p.engine.SetOptions(EditorOptions(&next))
	}
	if p.canvas != nil {
		p.canvas.ConfirmDelete = next.ConfirmDelete
		p.canvas.Invalidate()
	}
	if p.onDark != nil && next.DarkMode != prev.DarkMode {
		p.onDark(next.DarkMode)
	}
	var detErr error
	if DetectorChanged(prev, next) {
		detErr = p.switchDetector(next)
	}
	if err := p.save(); err != nil {
		return err
	}
	return detErr
}

func (p *SettingsPresenter) switchDetector(cfg config.Config) error {
	sw, ok := p.session.(DetectorSwitcher)
	if !ok || p.BuildDetector == nil {
		return nil
	}
	d, err := p.BuildDetector(cfg)
	if err != nil {
		if p.logger != nil {
			p.logger.Warn("detector rebuild failed, keeping the previous one", "backend", cfg.Detector, "error", err)
		}
		return fmt.Errorf("detector %s: %w", cfg.Detector, err)
	}
	if p.logger != nil {
		p.logger.Info("detector switched", "backend", cfg.Detector, "model", cfg.DetectorModel)
	}
	return sw.SetDetector(d)
}

func (p *SettingsPresenter) save() error {
	if p.path == "" {
		return nil
	}
	if err := p.cfg.Save(p.path); err != nil {
		if p.logger != nil {
			p.logger.Error("config save failed", "error", err)
		}
		return err
	}
	if p.logger != nil {
		p.logger.Info("config saved", "path", p.path)
	}
	return nil
}

// Settings form field ids.
const (
	FieldThreshold       = "threshold"
	FieldHandleSize      = "handle_size"
	FieldHitTolerance    = "hit_tolerance"
	FieldMinBox          = "min_box"
	FieldAutoSave        = "auto_save"
	FieldConfirmDelete   = "confirm_delete"
	FieldDetector        = "detector"
	FieldDetectorURL     = "detector_url"
	FieldDetectorModel   = "detector_model"
	FieldDetectorTimeout = "detector_timeout"
)

// FormValues renders cfg as text for the settings form.
func FormValues(cfg config.Config) map[string]string {
	return map[string]string{
		FieldThreshold:       strconv.FormatFloat(cfg.ConfidenceThreshold, 'f', 2, 64),
		FieldHandleSize:      strconv.FormatFloat(cfg.HandleSizePx, 'f', -1, 64),
		FieldHitTolerance:    strconv.FormatFloat(cfg.HitTolerancePx, 'f', -1, 64),
		FieldMinBox:          strconv.FormatFloat(cfg.MinBoxPx, 'f', -1, 64),
		FieldAutoSave:        strconv.Itoa(cfg.AutoSaveSeconds),
		FieldConfirmDelete:   strconv.FormatBool(cfg.ConfirmDelete),
		FieldDetector:        cfg.Detector,
		FieldDetectorURL:     cfg.DetectorURL,
		FieldDetectorModel:   cfg.DetectorModel,
		FieldDetectorTimeout: strconv.Itoa(cfg.DetectorTimeoutSeconds),
	}
}

// ParseForm applies the form text onto base. Fields that do not parse keep
// their base value and are returned in invalid.
func ParseForm(base config.Config, fields map[string]string) (cfg config.Config, invalid []string) {
	cfg = base
	float := func(id string, dst *float64) {
		s, ok := fields[id]
		if !ok {
			return
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			invalid = append(invalid, id)
			return
		}
		*dst = f
	}
	integer := func(id string, dst *int) {
		s, ok := fields[id]
		if !ok {
			return
		}
		i, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			invalid = append(invalid, id)
			return
		}
		*dst = i
	}
	float(FieldThreshold, &cfg.ConfidenceThreshold)
	float(FieldHandleSize, &cfg.HandleSizePx)
	float(FieldHitTolerance, &cfg.HitTolerancePx)
	float(FieldMinBox, &cfg.MinBoxPx)
	integer(FieldAutoSave, &cfg.AutoSaveSeconds)
	integer(FieldDetectorTimeout, &cfg.DetectorTimeoutSeconds)
	if s, ok := fields[FieldConfirmDelete]; ok {
		if b, ok := parseBoolLoose(s); ok {
			cfg.ConfirmDelete = b
		} else {
			invalid = append(invalid, FieldConfirmDelete)
		}
	}
	if s, ok := fields[FieldDetector]; ok {
		cfg.Detector = strings.TrimSpace(s)
	}
	if s, ok := fields[FieldDetectorURL]; ok {
		cfg.DetectorURL = strings.TrimSpace(s)
	}
	if s, ok := fields[FieldDetectorModel]; ok {
		cfg.DetectorModel = strings.TrimSpace(s)
	}
	return cfg, invalid
}

// ApplyForm parses the settings form and applies it.
func (p *SettingsPresenter) ApplyForm(fields map[string]string) ([]string, error) {
	next, invalid := ParseForm(p.Config(), fields)
	return invalid, p.Apply(next)
}

func parseBoolLoose(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "y", "on", "t":
		return true, true
	case "false", "0", "no", "n", "off", "f":
		return false, true
	default:
		return false, false
	}
}
