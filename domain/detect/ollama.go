package detect

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
)

// OllamaDetector asks a vision model served by Ollama to locate objects and
// answer with JSON boxes. It is slower and less precise than a dedicated
// detector but needs no trained weights.
type OllamaDetector struct {
	client  *api.Client
	model   string
	prompt  string
	timeout time.Duration
	logger  *slog.Logger
}

type ollamaObject struct {
	ClassID    int       `json:"class_id"`
	Box        []float64 `json:"box"`
	Confidence float64   `json:"confidence"`
}

type ollamaAnswer struct {
	Objects []ollamaObject `json:"objects"`
}

// NewOllamaDetector connects to the Ollama server at rawURL.
func NewOllamaDetector(rawURL, model, prompt string, timeout time.Duration, logger *slog.Logger) (*OllamaDetector, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return nil, fmt.Errorf("invalid ollama url %q", rawURL)
	}
	base := &url.URL{Scheme: parsed.Scheme, Host: parsed.Host}
	return &OllamaDetector{
		client:  api.NewClient(base, http.DefaultClient),
		model:   model,
		prompt:  prompt,
		timeout: timeout,
		logger:  logger,
	}, nil
}

func (d *OllamaDetector) Predict(ctx context.Context, imagePath string, threshold float64) ([]Prediction, error) {
	if _, ok := ctx.Deadline(); !ok && d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}
	img, err := os.ReadFile(imagePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInferenceFailure, err)
	}
	stream := false
	req := &api.ChatRequest{
		Model: d.model,
		Messages: []api.Message{{
			Role:    "user",
			Content: d.prompt,
			Images:  []api.ImageData{api.ImageData(img)},
		}},
		Stream:  &stream,
		Options: map[string]any{"temperature": 0},
	}
	var content strings.Builder
	start := time.Now()
	err = d.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		content.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: ollama chat: %v", ErrInferenceFailure, err)
	}
	preds, err := parseOllamaAnswer(content.String())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInferenceFailure, err)
	}
	if d.logger != nil {
		d.logger.Debug("ollama predict", "image", imagePath, "model", d.model, "predictions", len(preds), "took", time.Since(start))
	}
	return filter(preds, threshold), nil
}

var fenceRe = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*(.*?)\\s*```$")

// parseOllamaAnswer extracts predictions from the model reply. Boxes arrive
// as normalized [x_min, y_min, x_max, y_max] corners.
func parseOllamaAnswer(raw string) ([]Prediction, error) {
	raw = strings.TrimSpace(raw)
	if m := fenceRe.FindStringSubmatch(raw); m != nil {
		raw = m[1]
	}
	start, end := strings.Index(raw, "{"), strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no json object in model reply")
	}
	var ans ollamaAnswer
	if err := json.Unmarshal([]byte(raw[start:end+1]), &ans); err != nil {
		return nil, fmt.Errorf("decode model reply: %w", err)
	}
	out := make([]Prediction, 0, len(ans.Objects))
	for _, o := range ans.Objects {
		if len(o.Box) != 4 {
			continue
		}
		x0, y0, x1, y1 := o.Box[0], o.Box[1], o.Box[2], o.Box[3]
		if x1 < x0 {
			x0, x1 = x1, x0
		}
		if y1 < y0 {
			y0, y1 = y1, y0
		}
		if x1-x0 <= 0 || y1-y0 <= 0 {
			continue
		}
		out = append(out, Prediction{
			ClassID:    o.ClassID,
			CX:         (x0 + x1) / 2,
			CY:         (y0 + y1) / 2,
			W:          x1 - x0,
			H:          y1 - y0,
			Confidence: o.Confidence,
		})
	}
	return out, nil
}

var _ Detector = (*OllamaDetector)(nil)
