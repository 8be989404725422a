package plotpage

// Theme selects the page palette.
type Theme string

// Available themes.
const (
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

// ThemeConfig carries the palette values the page template consumes.
type ThemeConfig struct {
	Background   string
	Surface      string
	Text         string
	Muted        string
	Accent       string
	EChartsTheme string
}

// GetThemeConfig resolves a theme name to its palette. Unknown names fall
// back to dark.
func GetThemeConfig(theme Theme) ThemeConfig {
	if theme == ThemeLight {
		return ThemeConfig{
			Background: "#f6f8fa",
			Surface:    "#ffffff",
			Text:       "#1f2328",
			Muted:      "#57606a",
			Accent:     "#0969da",
		}
	}

	return ThemeConfig{
		Background:   "#0d1117",
		Surface:      "#161b22",
		Text:         "#e6edf3",
		Muted:        "#8b949e",
		Accent:       "#58a6ff",
		EChartsTheme: "dark",
	}
}
