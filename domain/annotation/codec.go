package annotation

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/soocke/annotator-go/domain/detect"
	"github.com/soocke/annotator-go/domain/geometry"
)

// lineFormat writes six decimals, well below the minimum box size at any
// realistic image resolution.
const lineFormat = "%d %.6f %.6f %.6f %.6f"

// LineError describes a persisted line that was skipped. Err always wraps
// ErrMalformedAnnotationLine.
type LineError struct {
	Line int
	Text string
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %v: %q", e.Line, e.Err, e.Text)
}

func (e *LineError) Unwrap() error { return e.Err }

// Serialize renders the set as "class_id cx cy w h" lines in insertion order.
func Serialize(s *AnnotationSet, table ClassTable) string {
	if s.Len() == 0 {
		return ""
	}
	var sb strings.Builder
	for _, b := range s.boxes {
		fmt.Fprintf(&sb, lineFormat, table.ID(b.Class), b.Rect.CX, b.Rect.CY, b.Rect.W, b.Rect.H)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Deserialize parses label text. Malformed lines are skipped and reported as
// *LineError values; parsing always continues to the end of the input.
// The returned set is clean.
func Deserialize(text string, table ClassTable) (*AnnotationSet, []error) {
	set := NewAnnotationSet()
	var warnings []error
	for i, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		class, r, err := parseLine(line)
		if err != nil {
			warnings = append(warnings, &LineError{Line: i + 1, Text: line, Err: err})
			continue
		}
		set.insert(table.Label(class), r)
	}
	return set, warnings
}

func parseLine(line string) (int, geometry.Rect, error) {
	fail := func(format string, args ...any) (int, geometry.Rect, error) {
		return 0, geometry.Rect{}, fmt.Errorf("%w: "+format, append([]any{ErrMalformedAnnotationLine}, args...)...)
	}
	fields := strings.Fields(line)
	if len(fields) != 5 {
		return fail("expected 5 fields, got %d", len(fields))
	}
	class, err := strconv.Atoi(fields[0])
	if err != nil || class < 0 {
		return fail("class id %q is not a non-negative integer", fields[0])
	}
	var v [4]float64
	for i, f := range fields[1:] {
		x, err := strconv.ParseFloat(f, 64)
		if err != nil || math.IsNaN(x) || math.IsInf(x, 0) {
			return fail("field %d is not a number", i+2)
		}
		if x < 0 || x > 1 {
			return fail("field %d out of range [0,1]", i+2)
		}
		v[i] = x
	}
	if v[2] <= 0 || v[3] <= 0 {
		return fail("width and height must be positive")
	}
	return class, geometry.Rect{CX: v[0], CY: v[1], W: v[2], H: v[3]}, nil
}

// FromPredictions keeps predictions with Confidence >= threshold and maps
// detector class ids through table. Boxes are cropped to the image.
func FromPredictions(preds []detect.Prediction, threshold float64, table ClassTable) *AnnotationSet {
	set := NewAnnotationSet()
	for _, p := range preds {
		if p.Confidence < threshold {
			continue
		}
		r := geometry.Rect{CX: p.CX, CY: p.CY, W: p.W, H: p.H}
		if r.Validate() != nil {
			continue
		}
		r = r.Cropped()
		if r.W <= 0 || r.H <= 0 {
			continue
		}
		set.insert(table.FromModel(p.ClassID), r)
	}
	return set
}
