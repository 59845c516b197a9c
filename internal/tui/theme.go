package tui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
)

type ThemeName string

const (
	ThemePorcelain ThemeName = "porcelain"
	ThemeMidnight  ThemeName = "midnight"
)

type Theme struct {
	Name ThemeName

	// Colors
	TextPrimary lipgloss.AdaptiveColor
	TextMuted   lipgloss.AdaptiveColor
	TextFaint   lipgloss.AdaptiveColor

	AccentColor  lipgloss.AdaptiveColor
	SuccessColor lipgloss.AdaptiveColor
	WarnColor    lipgloss.AdaptiveColor
	ErrorColor   lipgloss.AdaptiveColor
	Border       lipgloss.AdaptiveColor
	BorderHi     lipgloss.AdaptiveColor

	// Styles
	TopBar      lipgloss.Style
	TopBarTitle lipgloss.Style
	TopBarBadge lipgloss.Style

	Title   lipgloss.Style
	Muted   lipgloss.Style
	Faint   lipgloss.Style
	Accent  lipgloss.Style
	Success lipgloss.Style
	Warn    lipgloss.Style
	Error   lipgloss.Style

	Pane        lipgloss.Style
	PaneFocused lipgloss.Style
	PaneTitle   lipgloss.Style
	Footer      lipgloss.Style
	InputBox    lipgloss.Style
	InputBoxF   lipgloss.Style
	Spinner     lipgloss.Style

	RoleYou lipgloss.Style
	RoleAI  lipgloss.Style

	NavItem lipgloss.Style
	NavSel  lipgloss.Style
}

func NewTheme(name string) Theme {
	if name == "" {
		name = os.Getenv("GDS_THEME")
	}
	if name == "" {
		name = string(ThemePorcelain)
	}

	if os.Getenv("GDS_NO_COLOR") == "1" {
		return NewNoColorTheme()
	}

	switch ThemeName(name) {
	case ThemeMidnight:
		return newMidnightTheme()
	default:
		return newPorcelainTheme()
	}
}

func (t *Theme) derive() {
	t.TopBar = lipgloss.NewStyle().Foreground(t.TextMuted)
	t.TopBarTitle = lipgloss.NewStyle().Bold(true).Foreground(t.TextPrimary)
	t.TopBarBadge = lipgloss.NewStyle().Bold(true).Foreground(t.AccentColor)

	t.Title = lipgloss.NewStyle().Bold(true).Foreground(t.TextPrimary)
	t.Muted = lipgloss.NewStyle().Foreground(t.TextMuted)
	t.Faint = lipgloss.NewStyle().Foreground(t.TextFaint)
	t.Accent = lipgloss.NewStyle().Bold(true).Foreground(t.AccentColor)
	t.Success = lipgloss.NewStyle().Foreground(t.SuccessColor)
	t.Warn = lipgloss.NewStyle().Foreground(t.WarnColor)
	t.Error = lipgloss.NewStyle().Bold(true).Foreground(t.ErrorColor)

	t.Pane = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(t.Border).Padding(0, 1)
	t.PaneFocused = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(t.BorderHi).Padding(0, 1)
	t.PaneTitle = lipgloss.NewStyle().Bold(true).Foreground(t.TextMuted)
	t.Footer = lipgloss.NewStyle().Foreground(t.TextMuted)
	t.InputBox = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(t.Border).Padding(0, 1)
	t.InputBoxF = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(t.BorderHi).Padding(0, 1)
	t.Spinner = lipgloss.NewStyle().Bold(true).Foreground(t.AccentColor)

	t.RoleYou = lipgloss.NewStyle().Bold(true).Foreground(t.AccentColor)
	t.RoleAI = lipgloss.NewStyle().Bold(true).Foreground(t.TextPrimary)

	t.NavItem = lipgloss.NewStyle().Foreground(t.TextMuted)
	t.NavSel = lipgloss.NewStyle().Bold(true).Foreground(t.AccentColor)
}

func NewNoColorTheme() Theme {
	t := Theme{
		Name:         "no-color",
		TextPrimary:  lipgloss.AdaptiveColor{Light: "#000000", Dark: "#ffffff"},
		TextMuted:    lipgloss.AdaptiveColor{Light: "#333333", Dark: "#dddddd"},
		TextFaint:    lipgloss.AdaptiveColor{Light: "#555555", Dark: "#bbbbbb"},
		AccentColor:  lipgloss.AdaptiveColor{Light: "#000000", Dark: "#ffffff"},
		SuccessColor: lipgloss.AdaptiveColor{Light: "#000000", Dark: "#ffffff"},
		WarnColor:    lipgloss.AdaptiveColor{Light: "#000000", Dark: "#ffffff"},
		ErrorColor:   lipgloss.AdaptiveColor{Light: "#000000", Dark: "#ffffff"},
		Border:       lipgloss.AdaptiveColor{Light: "#555555", Dark: "#777777"},
		BorderHi:     lipgloss.AdaptiveColor{Light: "#000000", Dark: "#ffffff"},
	}
	t.derive()
	return t
}

func newPorcelainTheme() Theme {
	t := Theme{
		Name:        ThemePorcelain,
		TextPrimary: lipgloss.AdaptiveColor{Light: "#1d2433", Dark: "#f2f2f2"},
		TextMuted:   lipgloss.AdaptiveColor{Light: "#4a5568", Dark: "#c7c7c7"},
		TextFaint:   lipgloss.AdaptiveColor{Light: "#718096", Dark: "#9aa0a6"},

		AccentColor:  lipgloss.AdaptiveColor{Light: "#1f6feb", Dark: "#7aa2ff"},
		SuccessColor: lipgloss.AdaptiveColor{Light: "#0f766e", Dark: "#46d1b7"},
		WarnColor:    lipgloss.AdaptiveColor{Light: "#b45309", Dark: "#f4b27d"},
		ErrorColor:   lipgloss.AdaptiveColor{Light: "#b42318", Dark: "#ff7a7a"},
		Border:       lipgloss.AdaptiveColor{Light: "#cbd5e0", Dark: "#3a3a3a"},
		BorderHi:     lipgloss.AdaptiveColor{Light: "#1f6feb", Dark: "#7aa2ff"},
	}
	t.derive()
	return t
}

func newMidnightTheme() Theme {
	t := Theme{
		Name:        ThemeMidnight,
		TextPrimary: lipgloss.AdaptiveColor{Light: "#111827", Dark: "#eaeaea"},
		TextMuted:   lipgloss.AdaptiveColor{Light: "#374151", Dark: "#b7b7b7"},
		TextFaint:   lipgloss.AdaptiveColor{Light: "#6b7280", Dark: "#8d8d8d"},

		AccentColor:  lipgloss.AdaptiveColor{Light: "#0ea5e9", Dark: "#5cc8ff"},
		SuccessColor: lipgloss.AdaptiveColor{Light: "#059669", Dark: "#46d1b7"},
		WarnColor:    lipgloss.AdaptiveColor{Light: "#d97706", Dark: "#f4b27d"},
		ErrorColor:   lipgloss.AdaptiveColor{Light: "#dc2626", Dark: "#ff7a7a"},
		Border:       lipgloss.AdaptiveColor{Light: "#9ca3af", Dark: "#2a2a2a"},
		BorderHi:     lipgloss.AdaptiveColor{Light: "#2563eb", Dark: "#7aa2ff"},
	}
	t.derive()
	return t
}
