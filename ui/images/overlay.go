package images

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/soocke/annotator-go/domain/geometry"
)

// Palette holds the overlay colours.
type Palette struct {
	Good   color.NRGBA
	Bad    color.NRGBA
	Hover  color.NRGBA
	Handle color.NRGBA
	Band   color.NRGBA
	Text   color.NRGBA
}

// DefaultPalette matches the annotator's green/red convention.
func DefaultPalette() Palette {
	return Palette{
		Good:   color.NRGBA{R: 0x2e, G: 0xcc, B: 0x40, A: 0xff},
		Bad:    color.NRGBA{R: 0xe7, G: 0x4c, B: 0x3c, A: 0xff},
		Hover:  color.NRGBA{R: 0xf1, G: 0xc4, B: 0x0f, A: 0xff},
		Handle: color.NRGBA{R: 0x34, G: 0x98, B: 0xdb, A: 0xff},
		Band:   color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff},
		Text:   color.NRGBA{R: 0x10, G: 0x10, B: 0x10, A: 0xff},
	}
}

// ParseHex parses a "#rrggbb" colour.
func ParseHex(s string) (color.NRGBA, error) {
	var r, g, b uint8
	if len(s) != 7 || s[0] != '#' {
		return color.NRGBA{}, fmt.Errorf("bad colour %q", s)
	}
	if _, err := fmt.Sscanf(s[1:], "%02x%02x%02x", &r, &g, &b); err != nil {
		return color.NRGBA{}, fmt.Errorf("bad colour %q: %w", s, err)
	}
	return color.NRGBA{R: r, G: g, B: b, A: 0xff}, nil
}

// OverlayBox is one annotation as drawn on the canvas.
type OverlayBox struct {
	Rect    geometry.DisplayRect
	Label   string
	Good    bool
	Hovered bool
}

// Scene is everything drawn on top of the image for one frame.
type Scene struct {
	Zoom    geometry.ZoomLevel
	Boxes   []OverlayBox
	Handles []geometry.DisplayRect
	Band    *geometry.DisplayRect
	Palette Palette
}

const labelHeight = 14

// RenderOverlay zooms src and draws the scene on a copy of it. Display
// coordinates are relative to the top-left of the zoomed image.
func RenderOverlay(src image.Image, sc Scene) *image.NRGBA {
	if src == nil {
		return nil
	}
	dst := imaging.Clone(Zoom(src, sc.Zoom))
	for _, b := range sc.Boxes {
		c := sc.Palette.Bad
		if b.Good {
			c = sc.Palette.Good
		}
		thick := 2
		if b.Hovered {
			thick = 3
		}
		r := pixelRect(b.Rect)
		strokeRect(dst, r, thick, c)
		if b.Hovered {
			strokeRect(dst, r.Inset(thick), 1, sc.Palette.Hover)
		}
		if b.Label != "" {
			drawLabel(dst, r, b.Label, c, sc.Palette.Text)
		}
	}
	for _, h := range sc.Handles {
		fillRect(dst, pixelRect(h), sc.Palette.Handle)
	}
	if sc.Band != nil {
		strokeRect(dst, pixelRect(*sc.Band), 1, sc.Palette.Band)
	}
	return dst
}

func pixelRect(d geometry.DisplayRect) image.Rectangle {
	return image.Rect(
		int(math.Round(d.X)), int(math.Round(d.Y)),
		int(math.Round(d.X+d.W)), int(math.Round(d.Y+d.H)),
	)
}

func fillRect(dst draw.Image, r image.Rectangle, c color.Color) {
	r = r.Intersect(dst.Bounds())
	if r.Empty() {
		return
	}
	draw.Draw(dst, r, image.NewUniform(c), image.Point{}, draw.Over)
}

func strokeRect(dst draw.Image, r image.Rectangle, thick int, c color.Color) {
	if r.Empty() {
		return
	}
	if thick*2 >= r.Dx() || thick*2 >= r.Dy() {
		fillRect(dst, r, c)
		return
	}
	fillRect(dst, image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+thick), c)
	fillRect(dst, image.Rect(r.Min.X, r.Max.Y-thick, r.Max.X, r.Max.Y), c)
	fillRect(dst, image.Rect(r.Min.X, r.Min.Y, r.Min.X+thick, r.Max.Y), c)
	fillRect(dst, image.Rect(r.Max.X-thick, r.Min.Y, r.Max.X, r.Max.Y), c)
}

// drawLabel places the class name above the box, or inside it when the box
// touches the top edge.
func drawLabel(dst *image.NRGBA, box image.Rectangle, text string, bg, fg color.Color) {
	face := basicfont.Face7x13
	w := font.MeasureString(face, text).Ceil() + 4
	top := box.Min.Y - labelHeight
	if top < dst.Bounds().Min.Y {
		top = box.Min.Y
	}
	fillRect(dst, image.Rect(box.Min.X, top, box.Min.X+w, top+labelHeight), bg)
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(fg),
		Face: face,
		Dot:  fixed.P(box.Min.X+2, top+labelHeight-3),
	}
	d.DrawString(text)
}
