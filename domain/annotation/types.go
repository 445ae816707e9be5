package annotation

import (
	"errors"

	"github.com/soocke/annotator-go/domain/geometry"
)

var (
	// ErrDegenerateBox is returned when a new box is below the minimum display size.
	ErrDegenerateBox = errors.New("degenerate box")
	// ErrBoxNotFound is returned for operations on an id absent from the set.
	ErrBoxNotFound = errors.New("box not found")
	// ErrMalformedAnnotationLine marks a persisted line that could not be parsed.
	ErrMalformedAnnotationLine = errors.New("malformed annotation line")
)

// ClassLabel is the binary class of a box.
type ClassLabel int

const (
	ClassGood ClassLabel = iota
	ClassBad
)

func (c ClassLabel) String() string {
	switch c {
	case ClassGood:
		return "good"
	case ClassBad:
		return "bad"
	default:
		return "unknown"
	}
}

// Toggle flips between the two labels.
func (c ClassLabel) Toggle() ClassLabel {
	if c == ClassGood {
		return ClassBad
	}
	return ClassGood
}

// ClassTable maps labels to persisted ids, detector ids and display names.
// The detector mapping is an explicit two-entry table: ModelGoodID becomes
// ClassGood and every other detector id becomes ClassBad.
type ClassTable struct {
	GoodID      int
	BadID       int
	ModelGoodID int
	GoodName    string
	BadName     string
}

// DefaultClassTable returns the fin dataset convention (good=1, bad=0).
func DefaultClassTable() ClassTable {
	return ClassTable{GoodID: 1, BadID: 0, ModelGoodID: 1, GoodName: "good_fin", BadName: "bad_fin"}
}

// ID returns the persisted class id of c.
func (t ClassTable) ID(c ClassLabel) int {
	if c == ClassGood {
		return t.GoodID
	}
	return t.BadID
}

// Label resolves a persisted class id; anything but GoodID is bad.
func (t ClassTable) Label(id int) ClassLabel {
	if id == t.GoodID {
		return ClassGood
	}
	return ClassBad
}

// FromModel resolves a detector class id.
func (t ClassTable) FromModel(id int) ClassLabel {
	if id == t.ModelGoodID {
		return ClassGood
	}
	return ClassBad
}

// Name returns the display name of c, falling back to c.String().
func (t ClassTable) Name(c ClassLabel) string {
	name := t.BadName
	if c == ClassGood {
		name = t.GoodName
	}
	if name == "" {
		return c.String()
	}
	return name
}

// Box is a single annotation. Rect is the source of truth; display geometry
// is always derived from it. Hovered and Selected are never persisted.
type Box struct {
	ID       string
	Class    ClassLabel
	Rect     geometry.Rect
	Hovered  bool
	Selected bool
	seq      uint64
}

// Seq is the creation order of the box within its set.
func (b Box) Seq() uint64 { return b.seq }

// Display returns the box rectangle in display pixels.
func (b Box) Display(vt geometry.ViewTransform) (geometry.DisplayRect, error) {
	return geometry.ToDisplay(b.Rect, vt)
}
