package render

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Adaptive palette; readable on light and dark terminals. lipgloss drops
// colour automatically when NO_COLOR is set.
var (
	ColorSuccess = lipgloss.AdaptiveColor{Light: "#2e7d32", Dark: "#66bb6a"}
	ColorError   = lipgloss.AdaptiveColor{Light: "#c62828", Dark: "#ef5350"}
	ColorWarning = lipgloss.AdaptiveColor{Light: "#e65100", Dark: "#ffa726"}
	ColorInfo    = lipgloss.AdaptiveColor{Light: "#0277bd", Dark: "#4fc3f7"}
	ColorAccent  = lipgloss.AdaptiveColor{Light: "#6a1b9a", Dark: "#ce93d8"}
	ColorMuted   = lipgloss.AdaptiveColor{Light: "#757575", Dark: "#9e9e9e"}
)

var (
	textSuccess = lipgloss.NewStyle().Foreground(ColorSuccess).Bold(true)
	textError   = lipgloss.NewStyle().Foreground(ColorError).Bold(true)
	textWarning = lipgloss.NewStyle().Foreground(ColorWarning).Bold(true)
	textInfo    = lipgloss.NewStyle().Foreground(ColorInfo)
	textMuted   = lipgloss.NewStyle().Foreground(ColorMuted)
	title       = lipgloss.NewStyle().Foreground(ColorAccent).Bold(true)
)

// Symbols are the status glyphs used in styled output.
type Symbols struct {
	Success string
	Error   string
	Warning string
	Bullet  string
}

var (
	unicodeSymbols = Symbols{Success: "✓", Error: "✗", Warning: "⚠", Bullet: "•"}
	asciiSymbols   = Symbols{Success: "[OK]", Error: "[ERR]", Warning: "[!]", Bullet: "*"}
)

// DetectSymbols picks Unicode glyphs unless MINDPONICS_ASCII_SYMBOLS is set
// or the locale names a non UTF-8 encoding.
func DetectSymbols() Symbols {
	if v := os.Getenv("MINDPONICS_ASCII_SYMBOLS"); v == "1" || strings.EqualFold(v, "true") {
		return asciiSymbols
	}
	for _, key := range []string{"LC_ALL", "LC_CTYPE", "LANG"} {
		val := strings.ToLower(os.Getenv(key))
		if val == "" {
			continue
		}
		if strings.Contains(val, "utf-8") || strings.Contains(val, "utf8") {
			return unicodeSymbols
		}
		if val == "c" || val == "posix" {
			return asciiSymbols
		}
	}
	return unicodeSymbols
}
