package detect

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
)

// HTTPDetector posts the image to a YOLO inference server as multipart
// form data ("image" file field, "conf" threshold) and expects
//
//	{"predictions":[{"class_id":1,"cx":0.5,"cy":0.5,"w":0.2,"h":0.2,"confidence":0.9}]}
type HTTPDetector struct {
	client *resty.Client
	url    string
	logger *slog.Logger
}

type httpPredictResponse struct {
	Predictions []Prediction `json:"predictions"`
	Error       string       `json:"error"`
}

// NewHTTPDetector returns a detector posting to url.
func NewHTTPDetector(url string, timeout time.Duration, logger *slog.Logger) *HTTPDetector {
	client := resty.New()
	if timeout > 0 {
		client.SetTimeout(timeout)
	}
	return &HTTPDetector{client: client, url: url, logger: logger}
}

func (d *HTTPDetector) Predict(ctx context.Context, imagePath string, threshold float64) ([]Prediction, error) {
	var res httpPredictResponse
	start := time.Now()
	resp, err := d.client.R().
		SetContext(ctx).
		SetFile("image", imagePath).
		SetFormData(map[string]string{
			"conf": strconv.FormatFloat(threshold, 'f', 4, 64),
		}).
		SetResult(&res).
		SetError(&res).
		Post(d.url)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInferenceFailure, err)
	}
	if resp.IsError() {
		msg := res.Error
		if msg == "" {
			msg = resp.Status()
		}
		return nil, fmt.Errorf("%w: server returned %d: %s", ErrInferenceFailure, resp.StatusCode(), msg)
	}
	if d.logger != nil {
		d.logger.Debug("http predict", "image", imagePath, "predictions", len(res.Predictions), "took", time.Since(start))
	}
	return filter(res.Predictions, threshold), nil
}

var _ Detector = (*HTTPDetector)(nil)
