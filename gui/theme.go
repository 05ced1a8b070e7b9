//go:build gui

package gui

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

// statusTheme is the dark default theme with a red primary color.
type statusTheme struct{}

func (d *statusTheme) Color(name fyne.ThemeColorName, variant fyne.ThemeVariant) color.Color {
	switch name {
	case theme.ColorNameBackground:
		return color.RGBA{24, 24, 24, 255}
	case theme.ColorNameForeground:
		return color.RGBA{210, 210, 210, 255}
	case theme.ColorNamePrimary:
		return color.RGBA{200, 40, 40, 255}
	}
	return theme.DefaultTheme().Color(name, theme.VariantDark)
}

func (d *statusTheme) Font(style fyne.TextStyle) fyne.Resource {
	return theme.DefaultTheme().Font(style)
}

func (d *statusTheme) Icon(name fyne.ThemeIconName) fyne.Resource {
	return theme.DefaultTheme().Icon(name)
}

func (d *statusTheme) Size(name fyne.ThemeSizeName) float32 {
	return theme.DefaultTheme().Size(name)
}
