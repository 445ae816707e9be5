// Package theme holds the annotator's light and dark palettes. Tk widget
// styles and the canvas overlay colours are both derived from the active
// palette.
package theme

import (
	"image/color"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"

	"github.com/soocke/annotator-go/ui/images"
)

// PaletteSnapshot is a resolved set of colours for one mode, as Tk colour strings.
type PaletteSnapshot struct {
	AppBg     string
	Surface   string
	Primary   string
	Danger    string
	Good      string
	Bad       string
	Hover     string
	Handle    string
	Band      string
	Text      string
	TextMuted string
}

var (
	light = PaletteSnapshot{
		AppBg:     "#f7f9fb",
		Surface:   "#ffffff",
		Primary:   "#2563eb",
		Danger:    "#dc2626",
		Good:      "#2ecc40",
		Bad:       "#e74c3c",
		Hover:     "#f1c40f",
		Handle:    "#3498db",
		Band:      "#ffffff",
		Text:      "#1e293b",
		TextMuted: "#64748b",
	}
	dark = PaletteSnapshot{
		AppBg:     "#0f172a",
		Surface:   "#1e293b",
		Primary:   "#3b82f6",
		Danger:    "#ef4444",
		Good:      "#2ecc40",
		Bad:       "#e74c3c",
		Hover:     "#facc15",
		Handle:    "#60a5fa",
		Band:      "#f1f5f9",
		Text:      "#f1f5f9",
		TextMuted: "#94a3b8",
	}
)

// Style names for Style(...).
const (
	StylePrimaryButton = "primary.TButton"
	StyleDangerButton  = "danger.TButton"
	StyleModeLabel     = "mode.TLabel"
	StyleGoodLabel     = "good.TLabel"
	StyleBadLabel      = "bad.TLabel"
	StyleMutedLabel    = "muted.TLabel"
)

var darkMode bool

// Current returns the palette of the active mode.
func Current() PaletteSnapshot {
	if darkMode {
		return dark
	}
	return light
}

// Overlay converts the active palette into canvas overlay colours. Label
// text stays dark on the class-coloured chip in both modes.
func Overlay() images.Palette {
	p := Current()
	out := images.DefaultPalette()
	for dst, src := range map[*color.NRGBA]string{
		&out.Good:   p.Good,
		&out.Bad:    p.Bad,
		&out.Hover:  p.Hover,
		&out.Handle: p.Handle,
		&out.Band:   p.Band,
	} {
		if c, err := images.ParseHex(src); err == nil {
			*dst = c
		}
	}
	return out
}

// SetDark switches the mode and reapplies widget styles.
func SetDark(on bool) bool {
	darkMode = on
	apply(Current(), on)
	return darkMode
}

// ToggleDark flips the mode.
func ToggleDark() bool { return SetDark(!darkMode) }

// IsDark reports the current mode.
func IsDark() bool { return darkMode }

func apply(p PaletteSnapshot, on bool) {
	name := "azure light"
	if on {
		name = "azure dark"
	}
	_ = ActivateTheme(name)
	App.Configure(Background(p.AppBg))

	StyleConfigure(StylePrimaryButton, Background(p.Primary), Foreground("white"), Padding("4p 3p"), Borderwidth(1), Relief("ridge"))
	StyleConfigure(StyleDangerButton, Background(p.Danger), Foreground("white"), Padding("4p 3p"), Borderwidth(1), Relief("ridge"))
	StyleConfigure(StyleModeLabel, Foreground("white"), Background(p.Primary), Padding("4p 2p"), Borderwidth(1), Relief("groove"))
	StyleConfigure(StyleGoodLabel, Foreground(p.Good), Background(p.Surface), Padding("2p 1p"))
	StyleConfigure(StyleBadLabel, Foreground(p.Bad), Background(p.Surface), Padding("2p 1p"))
	StyleConfigure(StyleMutedLabel, Foreground(p.TextMuted), Background(p.Surface))
}
