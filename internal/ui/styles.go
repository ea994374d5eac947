package ui

import "github.com/charmbracelet/lipgloss"

// Colors used throughout the TUI.
var (
	ColorRed     = lipgloss.Color("#FF5555")
	ColorGreen   = lipgloss.Color("#50FA7B")
	ColorYellow  = lipgloss.Color("#F1FA8C")
	ColorCyan    = lipgloss.Color("#8BE9FD")
	ColorGray    = lipgloss.Color("#666666")
	ColorDimGray = lipgloss.Color("#444444")
	ColorWhite   = lipgloss.Color("#FFFFFF")
	ColorMagenta = lipgloss.Color("#FF79C6")
)

// Chrome.
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorCyan)

	DimStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	DividerStyle = lipgloss.NewStyle().
			Foreground(ColorDimGray)

	SelectedStyle = lipgloss.NewStyle().
			Foreground(ColorCyan).
			Bold(true)

	PanelTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorWhite)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorRed).
			Bold(true)

	ErrorTextStyle = lipgloss.NewStyle().
			Foreground(ColorRed)

	FooterKeyStyle = lipgloss.NewStyle().
			Foreground(ColorYellow).
			Bold(true)

	FooterDescStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	SpinnerStyle = lipgloss.NewStyle().
			Foreground(ColorMagenta)
)

// Player view.
var (
	CurrentCueStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorWhite)

	NeighborCueStyle = lipgloss.NewStyle().
				Foreground(ColorGray)

	ClockStyle = lipgloss.NewStyle().
			Foreground(ColorCyan)

	ProgressFullStyle = lipgloss.NewStyle().
				Foreground(ColorGreen)

	ProgressEmptyStyle = lipgloss.NewStyle().
				Foreground(ColorDimGray)

	PlayingStyle = lipgloss.NewStyle().
			Foreground(ColorGreen).
			Bold(true)

	PausedStyle = lipgloss.NewStyle().
			Foreground(ColorGray)
)

// Mode badges.
var (
	NormalBadgeStyle = lipgloss.NewStyle().
				Foreground(ColorCyan).
				Bold(true)

	LoopBadgeStyle = lipgloss.NewStyle().
			Foreground(ColorYellow).
			Bold(true)

	DictationBadgeStyle = lipgloss.NewStyle().
				Foreground(ColorMagenta).
				Bold(true)
)

// Dictation diff spans.
var (
	MatchStyle = lipgloss.NewStyle().
			Foreground(ColorGreen)

	WrongStyle = lipgloss.NewStyle().
			Foreground(ColorRed).
			Underline(true)

	MissingStyle = lipgloss.NewStyle().
			Foreground(ColorYellow).
			Strikethrough(true)

	InputStyle = lipgloss.NewStyle().
			Foreground(ColorWhite)

	CursorStyle = lipgloss.NewStyle().
			Foreground(ColorCyan)
)
