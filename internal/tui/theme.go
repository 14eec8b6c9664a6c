package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vogtb/gridcalc/internal/store"
)

// colors maps the [TUI] color names onto the 16 ANSI colors
var colors = map[string]lipgloss.Color{
	"black":       lipgloss.Color("0"),
	"darkred":     lipgloss.Color("1"),
	"darkgreen":   lipgloss.Color("2"),
	"darkyellow":  lipgloss.Color("3"),
	"darkblue":    lipgloss.Color("4"),
	"darkmagenta": lipgloss.Color("5"),
	"darkcyan":    lipgloss.Color("6"),
	"grey":        lipgloss.Color("7"),
	"darkgrey":    lipgloss.Color("8"),
	"red":         lipgloss.Color("9"),
	"green":       lipgloss.Color("10"),
	"yellow":      lipgloss.Color("11"),
	"blue":        lipgloss.Color("12"),
	"magenta":     lipgloss.Color("13"),
	"cyan":        lipgloss.Color("14"),
	"white":       lipgloss.Color("15"),
}

const (
	fallbackColor     = "Green"
	fallbackAttribute = "Underlined"
)

// ParseColor looks up a color name case-insensitively. "Gray" spellings are
// accepted too.
func ParseColor(name string) (lipgloss.Color, bool) {
	key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "gray", "grey")
	c, ok := colors[key]
	return c, ok
}

// ApplyAttribute adds a [TUI] text attribute to style. the No* attributes
// and NormalIntensity leave the style plain. unknown names report false.
func ApplyAttribute(style lipgloss.Style, name string) (lipgloss.Style, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "bold":
		return style.Bold(true), true
	case "underlined", "underline":
		return style.Underline(true), true
	case "reverse":
		return style.Reverse(true), true
	case "italic":
		return style.Italic(true), true
	case "dim":
		return style.Faint(true), true
	case "slowblink", "rapidblink":
		return style.Blink(true), true
	case "crossedout":
		return style.Strikethrough(true), true
	case "hidden":
		return style.Foreground(lipgloss.NoColor{}).Faint(true), true
	case "nobold", "nounderline", "noreverse", "noitalic", "normalintensity",
		"noblink", "nohidden", "notcrossedout":
		return style, true
	}
	return style, false
}

// Styles are the lipgloss styles the view renders with
type Styles struct {
	Title     lipgloss.Style
	Header    lipgloss.Style
	Current   lipgloss.Style
	Normal    lipgloss.Style
	Zone      lipgloss.Style
	Error     lipgloss.Style
	Directive lipgloss.Style
	Cursor    lipgloss.Style
	Summary   lipgloss.Style
	Saved     lipgloss.Style
	Footer    lipgloss.Style
	Locked    lipgloss.Style
	Opened    lipgloss.Style
	Remark    lipgloss.Style
}

// NewStyles builds the styles for a theme. unknown names fall back to green
// and underlined.
func NewStyles(theme store.Theme) Styles {
	accent, ok := ParseColor(theme.Color)
	if !ok {
		accent, _ = ParseColor(fallbackColor)
	}
	current := lipgloss.NewStyle().Foreground(accent)
	current, ok = ApplyAttribute(current, theme.Attribute)
	if !ok {
		current, _ = ApplyAttribute(current, fallbackAttribute)
	}

	blue := colors["blue"]
	return Styles{
		Title:     lipgloss.NewStyle().Reverse(true),
		Header:    lipgloss.NewStyle().Bold(true).Foreground(blue),
		Current:   current,
		Normal:    lipgloss.NewStyle(),
		Zone:      lipgloss.NewStyle().Foreground(blue),
		Error:     lipgloss.NewStyle().Foreground(colors["darkred"]),
		Directive: lipgloss.NewStyle().Foreground(blue),
		Cursor:    lipgloss.NewStyle().Reverse(true),
		Summary:   lipgloss.NewStyle().Foreground(blue),
		Saved:     lipgloss.NewStyle().Foreground(colors["darkyellow"]),
		Footer:    lipgloss.NewStyle().Reverse(true),
		Locked:    lipgloss.NewStyle().Foreground(colors["red"]),
		Opened:    lipgloss.NewStyle().Foreground(colors["green"]),
		Remark:    lipgloss.NewStyle().Foreground(colors["darkgrey"]),
	}
}
