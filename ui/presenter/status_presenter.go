package presenter

import (
	"fmt"
	"time"

	"github.com/soocke/annotator-go/domain/annotation"
	"github.com/soocke/annotator-go/domain/editor"
	"github.com/soocke/annotator-go/domain/geometry"
)

// EditorState provides the engine state shown in the mode label.
type EditorState interface {
	Mode() editor.Mode
	Zoom() geometry.ZoomLevel
	ResizeHandlesEnabled() bool
	NewBoxClass() annotation.ClassLabel
}

// ModeView sets the mode label in the view.
type ModeView interface{ SetModeLabel(string) }

// StatusPresenter receives engine mode transitions and reflects the
// interaction state (mode, zoom, resize handles, new-box class) in the view.
type StatusPresenter struct {
	eng     EditorState
	table   annotation.ClassTable
	view    ModeView
	latest  string // last reflected label
	pending []editor.Mode
}

func NewStatusPresenter(eng EditorState, table annotation.ClassTable, view ModeView) *StatusPresenter {
	return &StatusPresenter{eng: eng, table: table, view: view}
}

// OnMode queues a transition from the engine listener.
func (p *StatusPresenter) OnMode(prev, next editor.Mode) {
	if p == nil {
		return
	}
	p.pending = append(p.pending, next)
}

// Tick updates the view with the most recent state and clears the queue.
func (p *StatusPresenter) Tick(now time.Time) {
	if p == nil || p.eng == nil || p.view == nil {
		return
	}
	mode := p.eng.Mode()
	if len(p.pending) > 0 {
		mode = p.pending[len(p.pending)-1]
		p.pending = p.pending[:0]
	}
	resize := "off"
	if p.eng.ResizeHandlesEnabled() {
		resize = "on"
	}
	label := fmt.Sprintf("Mode: %s  |  Zoom: %s  |  Resize: %s  |  New: %s",
		mode, p.eng.Zoom(), resize, p.table.Name(p.eng.NewBoxClass()))
	if label != p.latest {
		p.latest = label
		p.view.SetModeLabel(label)
	}
}
