package model

type DisplayTheme struct {
	Name       string
	Background string
	Title      string
	Text       string
	Border     string
	Bordered   bool // only the light theme draws an outline around the card
}

const (
	ThemeRadical = "radical"
	ThemeDark    = "dark"
	ThemeDefault = "default"
)

var themes = map[string]DisplayTheme{
	ThemeRadical: {
		Name:       ThemeRadical,
		Background: "#141321",
		Title:      "#fe428e",
		Text:       "#a9fef7",
		Border:     "#fe428e",
	},
	ThemeDark: {
		Name:       ThemeDark,
		Background: "#0d1117",
		Title:      "#58a6ff",
		Text:       "#c9d1d9",
		Border:     "#30363d",
	},
	ThemeDefault: {
		Name:       ThemeDefault,
		Background: "#fffefe",
		Title:      "#2f80ed",
		Text:       "#434d58",
		Border:     "#e4e2e2",
		Bordered:   true,
	},
}

// ThemeByName returns the named theme, or the radical theme with ok=false for unknown names
func ThemeByName(name string) (DisplayTheme, bool) {
	theme, ok := themes[name]
	if !ok {
		return themes[ThemeRadical], false
	}

	return theme, true
}

const DefaultLanguageColor = "#6e6e6e"

var languageColors = map[string]string{
	"TypeScript": "#3178C6",
	"JavaScript": "#F7DF1E",
	"PHP":        "#777BB4",
	"HTML":       "#E34F26",
	"CSS":        "#1572B6",
	"Python":     "#3776AB",
	"Java":       "#007396",
	"C++":        "#00599C",
	"Ruby":       "#CC342D",
	"Go":         "#00ADD8",
	"Rust":       "#000000",
	"Swift":      "#FA7343",
	"Kotlin":     "#7F52FF",
	"Dart":       "#0175C2",
}

func LanguageColor(language string) string {
	if color, ok := languageColors[language]; ok {
		return color
	}

	return DefaultLanguageColor
}
