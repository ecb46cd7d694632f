package tui

import "github.com/charmbracelet/lipgloss"

// Color palette
var (
	accent    = lipgloss.Color("#E5A00D")
	dimGray   = lipgloss.Color("#6B7280")
	lightGray = lipgloss.Color("#9CA3AF")
	white     = lipgloss.Color("#F9FAFB")
	red       = lipgloss.Color("#EF4444")
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(white).
			Bold(true)

	authorStyle = lipgloss.NewStyle().
			Foreground(lightGray)

	badgeStyle = lipgloss.NewStyle().
			Foreground(accent)

	dimStyle = lipgloss.NewStyle().
			Foreground(dimGray)

	errorStyle = lipgloss.NewStyle().
			Foreground(red)

	countStyle = lipgloss.NewStyle().
			Foreground(lightGray).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(dimGray)
)
