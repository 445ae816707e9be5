package detect

import (
	"context"
	"errors"
)

// ErrInferenceFailure wraps any error returned by a detection backend.
var ErrInferenceFailure = errors.New("inference failure")

// Prediction is one candidate box in normalized coordinates.
type Prediction struct {
	ClassID    int     `json:"class_id"`
	CX         float64 `json:"cx"`
	CY         float64 `json:"cy"`
	W          float64 `json:"w"`
	H          float64 `json:"h"`
	Confidence float64 `json:"confidence"`
}

// Detector runs object detection on an image file. Implementations may
// return predictions below threshold; callers filter with >=.
type Detector interface {
	Predict(ctx context.Context, imagePath string, threshold float64) ([]Prediction, error)
}

// Purger is implemented by detectors that cache results per image.
type Purger interface {
	Purge(imagePath string)
}

// Func adapts a plain function to Detector.
type Func func(ctx context.Context, imagePath string, threshold float64) ([]Prediction, error)

func (f Func) Predict(ctx context.Context, imagePath string, threshold float64) ([]Prediction, error) {
	return f(ctx, imagePath, threshold)
}

// None is the detector used when no backend is configured. It never fails
// and never predicts anything.
type None struct{}

func (None) Predict(context.Context, string, float64) ([]Prediction, error) { return nil, nil }

var (
	_ Detector = None{}
	_ Detector = Func(nil)
)

// filter keeps predictions with Confidence >= threshold.
func filter(preds []Prediction, threshold float64) []Prediction {
	out := make([]Prediction, 0, len(preds))
	for _, p := range preds {
		if p.Confidence >= threshold {
			out = append(out, p)
		}
	}
	return out
}
