package tui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
)

type Theme struct {
	TextPrimary lipgloss.AdaptiveColor
	TextMuted   lipgloss.AdaptiveColor
	Accent      lipgloss.AdaptiveColor
	Success     lipgloss.AdaptiveColor
	Error       lipgloss.AdaptiveColor
	Border      lipgloss.AdaptiveColor
	BorderHi    lipgloss.AdaptiveColor

	TopBar      lipgloss.Style
	TopBarTitle lipgloss.Style
	TopBarMeta  lipgloss.Style

	Pane        lipgloss.Style
	PaneFocused lipgloss.Style
	PaneTitle   lipgloss.Style
	Footer      lipgloss.Style
	InputBox    lipgloss.Style
	InputBoxF   lipgloss.Style
	Spinner     lipgloss.Style

	RoleYou lipgloss.Style
	RoleAI  lipgloss.Style
	RoleSys lipgloss.Style
	RoleErr lipgloss.Style

	HistOK  lipgloss.Style
	HistERR lipgloss.Style
	HistSel lipgloss.Style
}

func NewTheme() Theme {
	t := Theme{
		TextPrimary: lipgloss.AdaptiveColor{Light: "#1f2430", Dark: "#e6e6e6"},
		TextMuted:   lipgloss.AdaptiveColor{Light: "#6b7280", Dark: "#9aa0a6"},
		Accent:      lipgloss.AdaptiveColor{Light: "#2563eb", Dark: "#7aa2f7"},
		Success:     lipgloss.AdaptiveColor{Light: "#047857", Dark: "#34d399"},
		Error:       lipgloss.AdaptiveColor{Light: "#b91c1c", Dark: "#f87171"},
		Border:      lipgloss.AdaptiveColor{Light: "#d1d5db", Dark: "#3b4252"},
		BorderHi:    lipgloss.AdaptiveColor{Light: "#2563eb", Dark: "#7aa2f7"},
	}

	if os.Getenv("DATALENZ_NO_COLOR") == "1" {
		t.Accent = t.TextPrimary
		t.Success = t.TextPrimary
		t.Error = t.TextPrimary
		t.BorderHi = t.TextPrimary
	}

	t.TopBar = lipgloss.NewStyle().Foreground(t.TextPrimary)
	t.TopBarTitle = lipgloss.NewStyle().Bold(true).Foreground(t.Accent)
	t.TopBarMeta = lipgloss.NewStyle().Foreground(t.TextMuted)

	t.Pane = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(t.Border)
	t.PaneFocused = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(t.BorderHi)
	t.PaneTitle = lipgloss.NewStyle().Bold(true).Foreground(t.TextMuted)
	t.Footer = lipgloss.NewStyle().Foreground(t.TextMuted)
	t.InputBox = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(t.Border)
	t.InputBoxF = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(t.BorderHi)
	t.Spinner = lipgloss.NewStyle().Foreground(t.Accent)

	t.RoleYou = lipgloss.NewStyle().Bold(true).Foreground(t.Accent)
	t.RoleAI = lipgloss.NewStyle().Bold(true).Foreground(t.Success)
	t.RoleSys = lipgloss.NewStyle().Bold(true).Foreground(t.TextMuted)
	t.RoleErr = lipgloss.NewStyle().Bold(true).Foreground(t.Error)

	t.HistOK = lipgloss.NewStyle().Foreground(t.Success)
	t.HistERR = lipgloss.NewStyle().Foreground(t.Error)
	t.HistSel = lipgloss.NewStyle().Bold(true).Foreground(t.Accent)

	return t
}
