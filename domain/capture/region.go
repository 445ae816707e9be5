package capture

import (
	"fmt"
	"image"
	"regexp"
	"strconv"
	"strings"
)

// geometryRe matches window geometry strings of the form "WxH+X+Y".
var geometryRe = regexp.MustCompile(`^(\d+)x(\d+)([+-]-?\d+)([+-]-?\d+)$`)

// ParseGeometry converts a window geometry string into a screen rectangle.
func ParseGeometry(g string) (image.Rectangle, bool) {
	m := geometryRe.FindStringSubmatch(strings.TrimSpace(g))
	if len(m) != 5 {
		return image.Rectangle{}, false
	}
	w, _ := strconv.Atoi(m[1])
	h, _ := strconv.Atoi(m[2])
	x, okx := offset(m[3])
	y, oky := offset(m[4])
	if w <= 0 || h <= 0 || !okx || !oky {
		return image.Rectangle{}, false
	}
	return image.Rect(x, y, x+w, y+h), true
}

// FormatGeometry is the inverse of ParseGeometry.
func FormatGeometry(r image.Rectangle) string {
	return fmt.Sprintf("%dx%d+%d+%d", r.Dx(), r.Dy(), r.Min.X, r.Min.Y)
}

// offset parses "+N", "-N" or "+-N".
func offset(s string) (int, bool) {
	if strings.HasPrefix(s, "+") {
		s = s[1:]
	}
	v, err := strconv.Atoi(s)
	return v, err == nil
}
