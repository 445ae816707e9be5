package detect

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Backend names accepted by New.
const (
	BackendNone   = "none"
	BackendHTTP   = "http"
	BackendOllama = "ollama"
)

// Settings selects and configures a backend.
type Settings struct {
	Backend   string
	URL       string
	Model     string
	Prompt    string
	Timeout   time.Duration
	CacheSize int
}

// New builds the configured detector. HTTP and Ollama backends are wrapped
// in a CachedDetector so revisiting an image does not rerun inference.
func New(s Settings, logger *slog.Logger) (Detector, error) {
	var inner Detector
	switch strings.ToLower(strings.TrimSpace(s.Backend)) {
	case "", BackendNone:
		return None{}, nil
	case BackendHTTP:
		if s.URL == "" {
			return nil, fmt.Errorf("http detector requires a url")
		}
		inner = NewHTTPDetector(s.URL, s.Timeout, logger)
	case BackendOllama:
		if s.Model == "" {
			return nil, fmt.Errorf("ollama detector requires a model")
		}
		d, err := NewOllamaDetector(s.URL, s.Model, s.Prompt, s.Timeout, logger)
		if err != nil {
			return nil, err
		}
		inner = d
	default:
		return nil, fmt.Errorf("unknown detector backend %q", s.Backend)
	}
	cached, err := NewCachedDetector(inner, s.CacheSize)
	if err != nil {
		return nil, err
	}
	if logger != nil {
		logger.Info("detector ready", "backend", s.Backend, "url", s.URL, "model", s.Model, "cache", s.CacheSize)
	}
	return cached, nil
}
