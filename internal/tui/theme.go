package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Danondso/miccheck/internal/config"
)

// Theme is the palette the mic check panel is drawn with.
type Theme struct {
	Name       string
	Recording  lipgloss.Color
	Frame      lipgloss.Color
	Detail     lipgloss.Color
	OK         lipgloss.Color
	Busy       lipgloss.Color
	Error      lipgloss.Color
	Background lipgloss.Color
	Text       lipgloss.Color
	Muted      lipgloss.Color
}

// builtinThemes are cycled in this order by the theme key.
var builtinThemes = []Theme{
	{
		Name: "Synthwave", Recording: "#FF6AC1", Frame: "#00E5FF", Detail: "#B388FF",
		OK: "#64FFDA", Busy: "#FFAB40", Error: "#FF8A80",
		Background: "#1A1A2E", Text: "#E0E0E0", Muted: "#666666",
	},
	{
		Name: "Everforest", Recording: "#E67E80", Frame: "#7FBBB3", Detail: "#D699B6",
		OK: "#A7C080", Busy: "#DBBC7F", Error: "#E67E80",
		Background: "#2D353B", Text: "#D3C6AA", Muted: "#859289",
	},
	{
		Name: "Gruvbox", Recording: "#FB4934", Frame: "#83A598", Detail: "#D3869B",
		OK: "#B8BB26", Busy: "#FABD2F", Error: "#FB4934",
		Background: "#282828", Text: "#EBDBB2", Muted: "#928374",
	},
	{
		Name: "Monochrome", Recording: "#FFFFFF", Frame: "#CCCCCC", Detail: "#AAAAAA",
		OK: "#FFFFFF", Busy: "#CCCCCC", Error: "#FF0000",
		Background: "#000000", Text: "#FFFFFF", Muted: "#888888",
	},
}

var (
	themes     = map[string]Theme{}
	themeOrder []string
)

func init() {
	for _, t := range builtinThemes {
		key := strings.ToLower(t.Name)
		themes[key] = t
		themeOrder = append(themeOrder, key)
	}
}

func isBuiltin(key string) bool {
	for _, t := range builtinThemes {
		if strings.ToLower(t.Name) == key {
			return true
		}
	}
	return false
}

// LoadTheme returns the theme with the given name (case-insensitive).
// Falls back to synthwave if the name is not recognized.
func LoadTheme(name string) Theme {
	if t, ok := themes[strings.ToLower(name)]; ok {
		return t
	}
	return builtinThemes[0]
}

// NextTheme returns the theme after the given one in the cycle order.
func NextTheme(current string) Theme {
	current = strings.ToLower(current)
	for i, name := range themeOrder {
		if name == current {
			return themes[themeOrder[(i+1)%len(themeOrder)]]
		}
	}
	return themes[themeOrder[0]]
}

// RegisterCustomThemes adds config themes to the cycle. Entries without a
// name, or named like a built-in or an already registered theme, are
// skipped. Missing colors come from synthwave.
func RegisterCustomThemes(custom []config.CustomTheme) {
	base := builtinThemes[0]
	pick := func(c string, fallback lipgloss.Color) lipgloss.Color {
		if c == "" {
			return fallback
		}
		return lipgloss.Color(c)
	}
	for _, ct := range custom {
		key := strings.ToLower(ct.Name)
		if key == "" || isBuiltin(key) {
			continue
		}
		if _, exists := themes[key]; exists {
			continue
		}
		themes[key] = Theme{
			Name:       ct.Name,
			Recording:  pick(ct.Recording, base.Recording),
			Frame:      pick(ct.Frame, base.Frame),
			Detail:     pick(ct.Detail, base.Detail),
			OK:         pick(ct.OK, base.OK),
			Busy:       pick(ct.Busy, base.Busy),
			Error:      pick(ct.Error, base.Error),
			Background: pick(ct.Background, base.Background),
			Text:       pick(ct.Text, base.Text),
			Muted:      pick(ct.Muted, base.Muted),
		}
		themeOrder = append(themeOrder, key)
	}
}

// styles holds every lipgloss style the view renders with.
type styles struct {
	title, panel, label, body, detail, help, muted lipgloss.Style

	// badges colors the status line per state.
	badges   map[State]lipgloss.Style
	progress lipgloss.Style
	micOK    lipgloss.Style
	micBad   lipgloss.Style
	warning  lipgloss.Style

	debugHeader, debugCategory lipgloss.Style
}

// st is the active style set; applyTheme replaces it.
var st = newStyles(builtinThemes[0])

func newStyles(t Theme) styles {
	fg := func(c lipgloss.Color) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(c).Background(t.Background)
	}
	bold := func(c lipgloss.Color) lipgloss.Style {
		return fg(c).Bold(true)
	}
	return styles{
		title: bold(t.Recording).MarginBottom(1),
		panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Frame).
			Padding(1, 2).
			Background(t.Background),
		label:  bold(t.Frame),
		body:   fg(t.Text),
		detail: fg(t.Detail).Italic(true),
		help:   fg(t.Frame),
		muted:  fg(t.Muted),
		badges: map[State]lipgloss.Style{
			StateIdle:      bold(t.OK),
			StatePreparing: bold(t.Busy),
			StateRecording: bold(t.Recording),
			StateReady:     bold(t.OK),
			StatePlaying:   bold(t.Busy),
			StateError:     bold(t.Error),
		},
		progress:      fg(t.Recording),
		micOK:         bold(t.OK),
		micBad:        bold(t.Error),
		warning:       bold(t.Error),
		debugHeader:   bold(t.Muted),
		debugCategory: fg(t.Busy),
	}
}

// applyTheme switches the view to t.
func applyTheme(t Theme) {
	st = newStyles(t)
}
