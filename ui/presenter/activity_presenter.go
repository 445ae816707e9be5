package presenter

import (
	"time"

	"github.com/soocke/annotator-go/ui/model"
)

// OpenImageSource reports the path of the open image ("" when none).
type OpenImageSource interface{ CurrentPath() string }

// ActivityView displays time spent on the current image and in total.
type ActivityView interface {
	SetActivity(onImage, total time.Duration)
}

// ActivityPresenter formats annotation time from the model to the view.
type ActivityPresenter struct {
	act  *model.ActivityModel
	src  OpenImageSource
	view ActivityView
	last string
}

// NewActivityPresenter returns a new ActivityPresenter.
func NewActivityPresenter(act *model.ActivityModel, src OpenImageSource, view ActivityView) *ActivityPresenter {
	return &ActivityPresenter{act: act, src: src, view: view}
}

// Tick advances the model, restarting the per-image timer when the open
// image changed, and pushes values to the view.
func (p *ActivityPresenter) Tick(now time.Time) {
	if p == nil || p.act == nil || p.src == nil || p.view == nil {
		return
	}
	cur := p.src.CurrentPath()
	if cur != "" && cur != p.last {
		p.act.NextImage(now)
	}
	p.last = cur
	p.act.OnTick(cur != "", now)
	onImage, total := p.act.Values()
	p.view.SetActivity(onImage, total)
}
