package render

import "github.com/san-kum/partvid/internal/config"

// Theme defines the colour scheme of a video.
type Theme struct {
	Name       string
	Background string
	Boundary   string
	Particle   string
	Label      string
	Text       string
}

var (
	ThemeLight = Theme{
		Name:       config.ThemeLight,
		Background: "#ffffff",
		Boundary:   "#000000",
		Particle:   "#000000",
		Label:      "#ffffff",
		Text:       "#000000",
	}

	ThemeDark = Theme{
		Name:       config.ThemeDark,
		Background: "#0a0a0a",
		Boundary:   "#e0e0e0",
		Particle:   "#e0e0e0",
		Label:      "#ff8800",
		Text:       "#ffffff",
	}

	Themes = []Theme{
		ThemeLight,
		ThemeDark,
	}
)

// GetTheme returns a theme by name, falling back to the light theme.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return ThemeLight
}
