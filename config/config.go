package config

import (
	"encoding/json"
	"image"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
)

// Load modes.
const (
	ModePredict = "predict"
	ModeDataset = "dataset"
)

// Config holds runtime configuration for the annotator.
// Fields may be loaded from a JSON file and overridden by command-line flags.
type Config struct {
	Debug       bool   `json:"debug"`
	DatasetRoot string `json:"dataset_root"`
	Split       string `json:"split"`
	Mode        string `json:"mode"`

	// Classes
	ConfidenceThreshold float64 `json:"confidence_threshold"`
	GoodClassID         int     `json:"good_class_id"`
	BadClassID          int     `json:"bad_class_id"`
	ModelGoodClassID    int     `json:"model_good_class_id"`
	GoodLabel           string  `json:"good_label"`
	BadLabel            string  `json:"bad_label"`

	// Editing
	HandleSizePx    float64 `json:"handle_size_px"`
	HitTolerancePx  float64 `json:"hit_tolerance_px"`
	MinBoxPx        float64 `json:"min_box_px"`
	ConfirmDelete   bool    `json:"confirm_delete"`
	AutoSaveSeconds int     `json:"auto_save_seconds"`

	// Detection backend
	Detector               string `json:"detector"`
	DetectorURL            string `json:"detector_url"`
	DetectorModel          string `json:"detector_model"`
	DetectorPrompt         string `json:"detector_prompt"` // empty uses the built-in prompt
	DetectorTimeoutSeconds int    `json:"detector_timeout_seconds"`
	PredictionCacheSize    int    `json:"prediction_cache_size"`

	// Window
	WindowWidth  int  `json:"window_width"`
	WindowHeight int  `json:"window_height"`
	DarkMode     bool `json:"dark_mode"`

	// Screen capture region in screen pixels; zero width disables it.
	CaptureX int `json:"capture_x"`
	CaptureY int `json:"capture_y"`
	CaptureW int `json:"capture_w"`
	CaptureH int `json:"capture_h"`
}

// DefaultConfig returns a Config populated with standard defaults.
func DefaultConfig() *Config {
	return &Config{
		Split:                  "train",
		Mode:                   ModePredict,
		ConfidenceThreshold:    0.4,
		GoodClassID:            1,
		BadClassID:             0,
		ModelGoodClassID:       1,
		GoodLabel:              "good_fin",
		BadLabel:               "bad_fin",
		HandleSizePx:           10,
		HitTolerancePx:         3,
		MinBoxPx:               2,
		Detector:               "none",
		DetectorTimeoutSeconds: 60,
		PredictionCacheSize:    64,
		WindowWidth:            1280,
		WindowHeight:           860,
	}
}

// Validate clamps/normalizes values to safe ranges.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Split) {
	case "train", "valid", "test":
		c.Split = strings.ToLower(c.Split)
	default:
		c.Split = "train"
	}
	if c.Mode != ModePredict && c.Mode != ModeDataset {
		c.Mode = ModePredict
	}
	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1 {
		c.ConfidenceThreshold = 0.4
	}
	if c.GoodClassID < 0 || c.BadClassID < 0 || c.GoodClassID == c.BadClassID {
		c.GoodClassID, c.BadClassID = 1, 0
	}
	if c.ModelGoodClassID < 0 {
		c.ModelGoodClassID = 1
	}
	if strings.TrimSpace(c.GoodLabel) == "" {
		c.GoodLabel = "good_fin"
	}
	if strings.TrimSpace(c.BadLabel) == "" {
		c.BadLabel = "bad_fin"
	}
	if c.HandleSizePx <= 0 {
		c.HandleSizePx = 10
	}
	if c.HitTolerancePx < 0 {
		c.HitTolerancePx = 3
	}
	if c.MinBoxPx <= 0 {
		c.MinBoxPx = 2
	}
	if c.AutoSaveSeconds < 0 {
		c.AutoSaveSeconds = 0
	}
	switch strings.ToLower(c.Detector) {
	case "none", "http", "ollama":
		c.Detector = strings.ToLower(c.Detector)
	default:
		c.Detector = "none"
	}
	if c.Detector == "ollama" && c.DetectorURL == "" {
		c.DetectorURL = "http://localhost:11434"
	}
	if c.DetectorTimeoutSeconds <= 0 {
		c.DetectorTimeoutSeconds = 60
	}
	if c.PredictionCacheSize <= 0 {
		c.PredictionCacheSize = 64
	}
	if c.WindowWidth < 640 {
		c.WindowWidth = 1280
	}
	if c.WindowHeight < 480 {
		c.WindowHeight = 860
	}
	if c.CaptureW <= 0 || c.CaptureH <= 0 {
		c.CaptureX, c.CaptureY, c.CaptureW, c.CaptureH = 0, 0, 0, 0
	}
	return nil
}

// CaptureRect returns the saved capture region, or nil when none is set.
func (c *Config) CaptureRect() *image.Rectangle {
	if c.CaptureW <= 0 || c.CaptureH <= 0 {
		return nil
	}
	r := image.Rect(c.CaptureX, c.CaptureY, c.CaptureX+c.CaptureW, c.CaptureY+c.CaptureH)
	return &r
}

// SetCaptureRect stores r as the capture region; nil clears it.
func (c *Config) SetCaptureRect(r *image.Rectangle) {
	if r == nil || r.Empty() {
		c.CaptureX, c.CaptureY, c.CaptureW, c.CaptureH = 0, 0, 0, 0
		return
	}
	c.CaptureX, c.CaptureY = r.Min.X, r.Min.Y
	c.CaptureW, c.CaptureH = r.Dx(), r.Dy()
}

// DetectorTimeout returns the per-request inference timeout.
func (c *Config) DetectorTimeout() time.Duration {
	return time.Duration(c.DetectorTimeoutSeconds) * time.Second
}

// AutoSaveInterval returns zero when auto-save is off.
func (c *Config) AutoSaveInterval() time.Duration {
	return time.Duration(c.AutoSaveSeconds) * time.Second
}

// DefaultPath returns the per-user config file location.
func DefaultPath() (string, error) {
	return xdg.ConfigFile(filepath.Join("annotator-go", "config.json"))
}

// Load attempts to read configuration from the given JSON file path. If the file does not
// exist it returns DefaultConfig(). On JSON error it returns defaults with the error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(cfg); err != nil {
		return DefaultConfig(), err
	}
	_ = cfg.Validate()
	return cfg, nil
}

// Save writes the configuration to the given path in JSON format.
func (c *Config) Save(path string) error {
	_ = c.Validate()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(c)
}
