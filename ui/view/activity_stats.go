package view

import (
	"fmt"
	"time"

	//lint:ignore ST1001 Dot import for concise Tk widget DSL.
	. "modernc.org/tk9.0"
)

// ActivityStats shows time spent on the current image and in total.
type ActivityStats interface {
	SetActivity(onImage, total time.Duration)
}

type activityStats struct {
	imageLbl *LabelWidget
	totalLbl *LabelWidget
}

// NewActivityStats places the image and total labels at (row, startCol)
// and (row, startCol+1) inside parent.
func NewActivityStats(parent *FrameWidget, row, startCol int) ActivityStats {
	s := &activityStats{imageLbl: Label(Width(14)), totalLbl: Label(Width(16))}
	Grid(s.imageLbl, In(parent), Row(row), Column(startCol), Sticky("e"), Padx("0.2m"))
	Grid(s.totalLbl, In(parent), Row(row), Column(startCol+1), Sticky("e"), Padx("0.2m"))
	s.SetActivity(0, 0)
	return s
}

func (s *activityStats) SetActivity(onImage, total time.Duration) {
	if s == nil || s.imageLbl == nil || s.totalLbl == nil {
		return
	}
	s.imageLbl.Configure(Txt("Image: " + clock(onImage)))
	s.totalLbl.Configure(Txt("Total: " + clock(total)))
}

func clock(d time.Duration) string {
	seconds := int(d.Seconds())
	h, m, sec := seconds/3600, seconds/60%60, seconds%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, sec)
	}
	return fmt.Sprintf("%02d:%02d", m, sec)
}
