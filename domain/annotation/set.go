package annotation

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/soocke/annotator-go/domain/geometry"
)

// AnnotationSet is the ordered collection of boxes for one image.
// It is not safe for concurrent use; a single goroutine owns it.
// Methods are nil-safe.
type AnnotationSet struct {
	boxes   []*Box
	nextSeq uint64
	dirty   bool
}

// NewAnnotationSet returns an empty set.
func NewAnnotationSet() *AnnotationSet { return &AnnotationSet{} }

// Len returns the number of boxes.
func (s *AnnotationSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.boxes)
}

// Boxes returns a copy of the boxes in insertion order.
func (s *AnnotationSet) Boxes() []Box {
	if s == nil {
		return nil
	}
	out := make([]Box, len(s.boxes))
	for i, b := range s.boxes {
		out[i] = *b
	}
	return out
}

// Get returns a copy of the box with the given id.
func (s *AnnotationSet) Get(id string) (Box, bool) {
	if b := s.find(id); b != nil {
		return *b, true
	}
	return Box{}, false
}

// Counts returns the number of good and bad boxes.
func (s *AnnotationSet) Counts() (good, bad int) {
	if s == nil {
		return 0, 0
	}
	for _, b := range s.boxes {
		if b.Class == ClassGood {
			good++
		} else {
			bad++
		}
	}
	return good, bad
}

// Dirty reports whether the set changed since it was loaded or last saved.
func (s *AnnotationSet) Dirty() bool { return s != nil && s.dirty }

// MarkClean clears the dirty flag after a successful save.
func (s *AnnotationSet) MarkClean() {
	if s != nil {
		s.dirty = false
	}
}

// AddBox converts a display rect to normalized space, crops it to the image
// and appends it. Boxes narrower or shorter than minPx display pixels after
// cropping are rejected with ErrDegenerateBox and the set is left unchanged.
func (s *AnnotationSet) AddBox(d geometry.DisplayRect, class ClassLabel, vt geometry.ViewTransform, minPx float64) (string, error) {
	if s == nil {
		return "", fmt.Errorf("add box: nil set")
	}
	r, err := geometry.ToNormalized(d, vt)
	if err != nil {
		return "", fmt.Errorf("add box: %w", err)
	}
	r = r.Cropped()
	sx, sy := vt.Scale()
	if r.W*sx < minPx || r.H*sy < minPx || r.W <= 0 || r.H <= 0 {
		return "", fmt.Errorf("add box %.1fx%.1fpx (min %.1f): %w", r.W*sx, r.H*sy, minPx, ErrDegenerateBox)
	}
	id := s.insert(class, r)
	s.dirty = true
	return id, nil
}

// insert appends without validation or dirty tracking; used by loaders.
func (s *AnnotationSet) insert(class ClassLabel, r geometry.Rect) string {
	s.nextSeq++
	b := &Box{ID: uuid.NewString(), Class: class, Rect: r, seq: s.nextSeq}
	s.boxes = append(s.boxes, b)
	return b.ID
}

// RemoveBox deletes the box with the given id.
func (s *AnnotationSet) RemoveBox(id string) error {
	if s == nil {
		return fmt.Errorf("remove %q: %w", id, ErrBoxNotFound)
	}
	for i, b := range s.boxes {
		if b.ID == id {
			s.boxes = append(s.boxes[:i], s.boxes[i+1:]...)
			s.dirty = true
			return nil
		}
	}
	return fmt.Errorf("remove %q: %w", id, ErrBoxNotFound)
}

// UpdateBoxRect re-derives the normalized rect of a box from display pixels.
func (s *AnnotationSet) UpdateBoxRect(id string, d geometry.DisplayRect, vt geometry.ViewTransform) error {
	r, err := geometry.ToNormalized(d, vt)
	if err != nil {
		return fmt.Errorf("update %q: %w", id, err)
	}
	return s.SetRect(id, r.Cropped())
}

// SetRect replaces the normalized rect of a box.
func (s *AnnotationSet) SetRect(id string, r geometry.Rect) error {
	if err := r.Validate(); err != nil {
		return fmt.Errorf("set rect %q: %w", id, err)
	}
	b := s.find(id)
	if b == nil {
		return fmt.Errorf("set rect %q: %w", id, ErrBoxNotFound)
	}
	if b.Rect != r {
		b.Rect = r
		s.dirty = true
	}
	return nil
}

// ToggleClass flips the class of a box.
func (s *AnnotationSet) ToggleClass(id string) error {
	b := s.find(id)
	if b == nil {
		return fmt.Errorf("toggle class %q: %w", id, ErrBoxNotFound)
	}
	b.Class = b.Class.Toggle()
	s.dirty = true
	return nil
}

// SetHover marks id as the only hovered box; an empty or unknown id clears
// hover. It reports whether the hover state changed.
func (s *AnnotationSet) SetHover(id string) bool {
	if s == nil {
		return false
	}
	changed := false
	for _, b := range s.boxes {
		h := id != "" && b.ID == id
		if b.Hovered != h {
			b.Hovered = h
			changed = true
		}
	}
	return changed
}

// SetSelected marks id as the only selected box; an empty id clears selection.
func (s *AnnotationSet) SetSelected(id string) bool {
	if s == nil {
		return false
	}
	changed := false
	for _, b := range s.boxes {
		sel := id != "" && b.ID == id
		if b.Selected != sel {
			b.Selected = sel
			changed = true
		}
	}
	return changed
}

// Hovered returns the hovered box, if any.
func (s *AnnotationSet) Hovered() (Box, bool) {
	if s == nil {
		return Box{}, false
	}
	for _, b := range s.boxes {
		if b.Hovered {
			return *b, true
		}
	}
	return Box{}, false
}

// Selected returns the selected box, if any.
func (s *AnnotationSet) Selected() (Box, bool) {
	if s == nil {
		return Box{}, false
	}
	for _, b := range s.boxes {
		if b.Selected {
			return *b, true
		}
	}
	return Box{}, false
}

// BoxAt returns the id of the box under p, or "" when none. Among
// overlapping boxes the most recently created one wins.
func (s *AnnotationSet) BoxAt(p geometry.Point, vt geometry.ViewTransform, tolerancePx float64) string {
	if s == nil {
		return ""
	}
	var best *Box
	for _, b := range s.boxes {
		d, err := geometry.ToDisplay(b.Rect, vt)
		if err != nil {
			continue
		}
		if geometry.PointInRect(p, d, tolerancePx) && (best == nil || b.seq > best.seq) {
			best = b
		}
	}
	if best == nil {
		return ""
	}
	return best.ID
}

// HoverAt recomputes hover from the pointer position and returns the hovered id.
func (s *AnnotationSet) HoverAt(p geometry.Point, vt geometry.ViewTransform, tolerancePx float64) (string, bool) {
	id := s.BoxAt(p, vt, tolerancePx)
	return id, s.SetHover(id)
}

// Clear removes every box.
func (s *AnnotationSet) Clear() {
	if s == nil || len(s.boxes) == 0 {
		return
	}
	s.boxes = nil
	s.dirty = true
}

func (s *AnnotationSet) find(id string) *Box {
	if s == nil || id == "" {
		return nil
	}
	for _, b := range s.boxes {
		if b.ID == id {
			return b
		}
	}
	return nil
}
