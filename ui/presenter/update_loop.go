package presenter

import "time"

// Loop aggregates feature presenters and drives periodic updates.
//
// It calls Tick on the sub-presenters and invokes a scheduler callback.
// The zero value is usable (methods are nil-safe).
type Loop struct {
	Session  *SessionPresenter
	Canvas   *CanvasPresenter
	Status   *StatusPresenter
	Activity *ActivityPresenter
	Schedule func()
}

func NewLoop(sess *SessionPresenter, canvas *CanvasPresenter, status *StatusPresenter, activity *ActivityPresenter, schedule func()) *Loop {
	return &Loop{Session: sess, Canvas: canvas, Status: status, Activity: activity, Schedule: schedule}
}

func (l *Loop) Tick() {
	if l == nil {
		return
	}
	now := time.Now()
	// Session first so a prediction attached this tick is drawn this tick.
	if l.Session != nil {
		l.Session.Tick(now)
	}
	if l.Status != nil {
		l.Status.Tick(now)
	}
	if l.Activity != nil {
		l.Activity.Tick(now)
	}
	if l.Canvas != nil {
		l.Canvas.Tick()
	}
	if l.Schedule != nil {
		l.Schedule()
	}
}
