package model

import (
	"time"
)

// ActivityModel tracks how long the annotator has been working on the
// current image and in total. Time only accrues while an image is open.
// The zero value is ready to use.
type ActivityModel struct {
	active      bool
	imageStart  time.Time
	onImage     time.Duration
	accumulated time.Duration
}

// NewActivityModel returns a pointer to a ready-to-use ActivityModel.
func NewActivityModel() *ActivityModel { return &ActivityModel{} }

// OnTick updates the model with whether an image is open at now.
func (m *ActivityModel) OnTick(open bool, now time.Time) {
	if m == nil {
		return
	}
	if open {
		if !m.active {
			m.active = true
			m.imageStart = now
			m.onImage = 0
		}
		m.onImage = now.Sub(m.imageStart)
	} else if m.active {
		m.onImage = now.Sub(m.imageStart)
		m.accumulated += m.onImage
		m.active = false
	}
}

// NextImage closes the running image period at now and starts a new one.
func (m *ActivityModel) NextImage(now time.Time) {
	if m == nil {
		return
	}
	if m.active {
		m.OnTick(false, now)
	}
	m.OnTick(true, now)
}

// Values returns the time on the current image and the total, which
// includes the running period.
func (m *ActivityModel) Values() (onImage, total time.Duration) {
	if m == nil {
		return 0, 0
	}
	onImage = m.onImage
	total = m.accumulated
	if m.active {
		total += onImage
	}
	return
}
