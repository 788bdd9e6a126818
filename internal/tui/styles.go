package tui

import "github.com/charmbracelet/lipgloss"

// Color palette
var (
	// Status colors
	Success = lipgloss.Color("#95E1A3") // Green
	Warning = lipgloss.Color("#FFE66D") // Yellow
	Danger  = lipgloss.Color("#FF6B6B") // Red

	// UI colors
	Primary   = lipgloss.Color("#4ECDC4")
	Secondary = lipgloss.Color("#6C757D")
	Surface   = lipgloss.Color("#16213e")
	Text      = lipgloss.Color("#FFFFFF")
	TextMuted = lipgloss.Color("#888888")
	Border    = lipgloss.Color("#333333")
	Highlight = lipgloss.Color("#4ECDC4")
)

// Styles
var (
	// Header
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Primary).
			Padding(0, 1)

	// Project list
	ListStyle = lipgloss.NewStyle().
			Padding(1, 2)

	ColumnHeaderStyle = lipgloss.NewStyle().
				Foreground(TextMuted).
				Bold(true)

	RowStyle = lipgloss.NewStyle().
			Padding(0, 1)

	RowSelectedStyle = lipgloss.NewStyle().
				Padding(0, 1).
				Background(Surface).
				Bold(true)

	PlatformStyle = lipgloss.NewStyle().Foreground(Primary)

	DetailStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(TextMuted).
			Italic(true)

	// Status bar
	StatusBarStyle = lipgloss.NewStyle().
			Foreground(TextMuted).
			Padding(0, 1).
			BorderStyle(lipgloss.NormalBorder()).
			BorderTop(true).
			BorderForeground(Border)

	ErrorStyle   = lipgloss.NewStyle().Foreground(Danger)
	SuccessStyle = lipgloss.NewStyle().Foreground(Success)

	// Input modal
	ModalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Primary).
			Padding(1, 2)

	DangerModalStyle = ModalStyle.
				BorderForeground(Danger)

	// Form labels
	LabelStyle = lipgloss.NewStyle().
			Width(22).
			Foreground(TextMuted)

	FocusedLabelStyle = LabelStyle.
				Foreground(Primary).
				Bold(true)

	// Help text
	HelpStyle = lipgloss.NewStyle().
			Foreground(TextMuted)
)
