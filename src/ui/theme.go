package ui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

// fontTheme scales text sizes to a pixel preference while leaving everything
// else to the wrapped theme.
type fontTheme struct {
	fyne.Theme
	px float32
}

func newFontTheme(base fyne.Theme, px int) fontTheme {
	if base == nil {
		base = theme.DefaultTheme()
	}
	return fontTheme{Theme: base, px: float32(px)}
}

func (t fontTheme) Size(n fyne.ThemeSizeName) float32 {
	switch n {
	case theme.SizeNameText:
		return t.px
	case theme.SizeNameCaptionText:
		return t.px * 11 / 14
	case theme.SizeNameSubHeadingText:
		return t.px * 18 / 14
	case theme.SizeNameHeadingText:
		return t.px * 24 / 14
	}
	return t.Theme.Size(n)
}
