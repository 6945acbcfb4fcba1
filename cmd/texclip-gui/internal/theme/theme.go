package theme

import (
	"image/color"
	"runtime"

	"gioui.org/unit"
	"gioui.org/widget/material"

	"texclip/internal/pipeline"
)

// Palette defines the window colors.
type Palette struct {
	Background color.NRGBA
	Surface    color.NRGBA
	Primary    color.NRGBA
	Text       color.NRGBA
	TextMuted  color.NRGBA
	Border     color.NRGBA
	Success    color.NRGBA
	Error      color.NRGBA
	Warning    color.NRGBA
}

// Config defines the window metrics.
type Config struct {
	CornerRadius unit.Dp
	Spacing      unit.Dp
	Padding      unit.Dp
	FontTitle    unit.Sp
	FontBody     unit.Sp
	FontCaption  unit.Sp
}

// Theme wraps the material theme with platform styling.
type Theme struct {
	*material.Theme
	Palette Palette
	Config  Config
}

// NewTheme creates a theme for the current OS.
func NewTheme(mtheme *material.Theme) *Theme {
	t := &Theme{
		Theme: mtheme,
	}

	switch runtime.GOOS {
	case "windows":
		setupWindowsTheme(t)
	case "darwin":
		setupMacOSTheme(t)
	default:
		setupLinuxTheme(t)
	}

	if mtheme != nil {
		mtheme.Palette.Bg = t.Palette.Background
		mtheme.Palette.Fg = t.Palette.Text
		mtheme.Palette.ContrastBg = t.Palette.Primary
		mtheme.TextSize = t.Config.FontBody
	}
	return t
}

// StatusColor picks the label color for an invocation status.
// An empty status means nothing has run yet.
func (t *Theme) StatusColor(status string) color.NRGBA {
	switch {
	case status == "":
		return t.Palette.TextMuted
	case pipeline.IsSuccess(status):
		return t.Palette.Success
	case status == pipeline.StatusNoImage:
		return t.Palette.Warning
	default:
		return t.Palette.Error
	}
}

func setupWindowsTheme(t *Theme) {
	t.Palette = Palette{
		Background: color.NRGBA{R: 0xF3, G: 0xF3, B: 0xF3, A: 0xFF},
		Surface:    color.NRGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF},
		Primary:    color.NRGBA{R: 0x00, G: 0x67, B: 0xC0, A: 0xFF},
		Text:       color.NRGBA{R: 0x1A, G: 0x1A, B: 0x1A, A: 0xFF},
		TextMuted:  color.NRGBA{R: 0x5F, G: 0x5F, B: 0x5F, A: 0xFF},
		Border:     color.NRGBA{R: 0xE0, G: 0xE0, B: 0xE0, A: 0xFF},
		Success:    color.NRGBA{R: 0x0F, G: 0x7B, B: 0x0F, A: 0xFF},
		Error:      color.NRGBA{R: 0xC4, G: 0x2B, B: 0x1C, A: 0xFF},
		Warning:    color.NRGBA{R: 0x9D, G: 0x5D, B: 0x00, A: 0xFF},
	}

	t.Config = Config{
		CornerRadius: unit.Dp(4),
		Spacing:      unit.Dp(8),
		Padding:      unit.Dp(16),
		FontTitle:    unit.Sp(18),
		FontBody:     unit.Sp(14),
		FontCaption:  unit.Sp(12),
	}
}

func setupMacOSTheme(t *Theme) {
	t.Palette = Palette{
		Background: color.NRGBA{R: 0xEC, G: 0xEC, B: 0xEC, A: 0xFF},
		Surface:    color.NRGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF},
		Primary:    color.NRGBA{R: 0x00, G: 0x7A, B: 0xFF, A: 0xFF},
		Text:       color.NRGBA{R: 0x1D, G: 0x1D, B: 0x1F, A: 0xFF},
		TextMuted:  color.NRGBA{R: 0x6E, G: 0x6E, B: 0x73, A: 0xFF},
		Border:     color.NRGBA{R: 0xD2, G: 0xD2, B: 0xD7, A: 0xFF},
		Success:    color.NRGBA{R: 0x24, G: 0x8A, B: 0x3D, A: 0xFF},
		Error:      color.NRGBA{R: 0xD7, G: 0x00, B: 0x15, A: 0xFF},
		Warning:    color.NRGBA{R: 0xB2, G: 0x5E, B: 0x00, A: 0xFF},
	}

	t.Config = Config{
		CornerRadius: unit.Dp(8),
		Spacing:      unit.Dp(10),
		Padding:      unit.Dp(20),
		FontTitle:    unit.Sp(20),
		FontBody:     unit.Sp(13),
		FontCaption:  unit.Sp(11),
	}
}

func setupLinuxTheme(t *Theme) {
	// Adwaita-like light palette
	t.Palette = Palette{
		Background: color.NRGBA{R: 0xFA, G: 0xFA, B: 0xFA, A: 0xFF},
		Surface:    color.NRGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF},
		Primary:    color.NRGBA{R: 0x35, G: 0x84, B: 0xE4, A: 0xFF},
		Text:       color.NRGBA{R: 0x24, G: 0x1F, B: 0x31, A: 0xFF},
		TextMuted:  color.NRGBA{R: 0x5E, G: 0x5C, B: 0x64, A: 0xFF},
		Border:     color.NRGBA{R: 0xDE, G: 0xDD, B: 0xDA, A: 0xFF},
		Success:    color.NRGBA{R: 0x26, G: 0xA2, B: 0x69, A: 0xFF},
		Error:      color.NRGBA{R: 0xC0, G: 0x1C, B: 0x28, A: 0xFF},
		Warning:    color.NRGBA{R: 0xC6, G: 0x46, B: 0x00, A: 0xFF},
	}

	t.Config = Config{
		CornerRadius: unit.Dp(6),
		Spacing:      unit.Dp(8),
		Padding:      unit.Dp(16),
		FontTitle:    unit.Sp(18),
		FontBody:     unit.Sp(14),
		FontCaption:  unit.Sp(12),
	}
}
