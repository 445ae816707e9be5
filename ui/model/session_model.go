package model

import (
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/soocke/annotator-go/domain/dataset"
)

// ErrIndexOutOfRange is returned by Goto for positions outside the image list.
var ErrIndexOutOfRange = errors.New("image index out of range")

// LoadMode selects where a freshly opened image gets its boxes from.
type LoadMode int

const (
	// ModePredict seeds boxes from the detector.
	ModePredict LoadMode = iota
	// ModeDataset reads the persisted label file.
	ModeDataset
)

func (m LoadMode) String() string {
	switch m {
	case ModePredict:
		return "predict"
	case ModeDataset:
		return "dataset"
	default:
		return "unknown"
	}
}

// Toggle returns the other mode.
func (m LoadMode) Toggle() LoadMode {
	if m == ModePredict {
		return ModeDataset
	}
	return ModePredict
}

// ParseLoadMode maps a config value onto a LoadMode, defaulting to predict.
func ParseLoadMode(s string) LoadMode {
	if s == "dataset" {
		return ModeDataset
	}
	return ModePredict
}

// SessionModel is the navigation state of an annotation session: the image
// list of the active split, the cursor into it and the load settings.
// The zero value is an empty session in predict mode.
type SessionModel struct {
	root      string
	split     dataset.Split
	images    []string
	index     int
	mode      LoadMode
	threshold float64
}

// NewSessionModel returns a session for root/split with the given threshold.
func NewSessionModel(root string, split dataset.Split, mode LoadMode, threshold float64) *SessionModel {
	m := &SessionModel{root: root, split: split, mode: mode}
	m.SetThreshold(threshold)
	return m
}

func (m *SessionModel) Root() string         { return m.root }
func (m *SessionModel) Split() dataset.Split { return m.split }
func (m *SessionModel) Mode() LoadMode       { return m.mode }
func (m *SessionModel) Threshold() float64   { return m.threshold }
func (m *SessionModel) Len() int             { return len(m.images) }
func (m *SessionModel) Index() int           { return m.index }

// Layout returns the dataset layout of the active split.
func (m *SessionModel) Layout() dataset.Layout {
	return dataset.Layout{Root: m.root, Split: m.split}
}

// SetRoot changes the dataset root. The image list is left untouched until
// SetImages is called.
func (m *SessionModel) SetRoot(root string) { m.root = root }

// SetSplit changes the active split.
func (m *SessionModel) SetSplit(s dataset.Split) { m.split = s }

// SetMode changes the load mode.
func (m *SessionModel) SetMode(mode LoadMode) { m.mode = mode }

// SetThreshold stores v clamped to [0,1] and returns the stored value.
func (m *SessionModel) SetThreshold(v float64) float64 {
	if v != v || v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	m.threshold = v
	return v
}

// SetImages replaces the image list and moves the cursor to the first image.
func (m *SessionModel) SetImages(paths []string) {
	m.images = append(m.images[:0:0], paths...)
	m.index = 0
}

// Images returns a copy of the image list.
func (m *SessionModel) Images() []string {
	return append([]string(nil), m.images...)
}

// Append adds path to the end of the list and returns its index.
func (m *SessionModel) Append(path string) int {
	m.images = append(m.images, path)
	return len(m.images) - 1
}

// Current returns the path under the cursor.
func (m *SessionModel) Current() (string, bool) {
	if m.index < 0 || m.index >= len(m.images) {
		return "", false
	}
	return m.images[m.index], true
}

// Peek returns the index the cursor would land on after Step(delta),
// wrapping around both ends.
func (m *SessionModel) Peek(delta int) (int, bool) {
	n := len(m.images)
	if n == 0 {
		return 0, false
	}
	return ((m.index+delta)%n + n) % n, true
}

// Step moves the cursor by delta with wraparound.
func (m *SessionModel) Step(delta int) (int, bool) {
	i, ok := m.Peek(delta)
	if ok {
		m.index = i
	}
	return i, ok
}

// Resolve converts a 1-based position into a list index.
func (m *SessionModel) Resolve(pos int) (int, error) {
	if pos < 1 || pos > len(m.images) {
		return 0, fmt.Errorf("%w: %d not in 1..%d", ErrIndexOutOfRange, pos, len(m.images))
	}
	return pos - 1, nil
}

// Goto moves the cursor to the 1-based position pos.
func (m *SessionModel) Goto(pos int) error {
	i, err := m.Resolve(pos)
	if err != nil {
		return err
	}
	m.index = i
	return nil
}

// SetIndex moves the cursor to a 0-based index.
func (m *SessionModel) SetIndex(i int) error {
	return m.Goto(i + 1)
}

// Progress is the "Image N of M" status text.
func (m *SessionModel) Progress() string {
	if len(m.images) == 0 {
		return "No images"
	}
	return fmt.Sprintf("Image %s of %s", humanize.Comma(int64(m.index+1)), humanize.Comma(int64(len(m.images))))
}
