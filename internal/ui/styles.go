// Package ui holds the lipgloss styles for terminal output.
package ui

import "github.com/charmbracelet/lipgloss"

var (
	primaryColor = lipgloss.Color("#0969DA") // blue
	accentColor  = lipgloss.Color("#2DA44E") // green
	errorColor   = lipgloss.Color("#CF222E") // red
	dimColor     = lipgloss.Color("#6E7681") // gray
	scoreColor   = lipgloss.Color("#F778BA") // pink
	dateColor    = lipgloss.Color("#A371F7") // light purple
	sourceColor  = lipgloss.Color("#FFA657") // light orange

	HeaderStyle = lipgloss.NewStyle().
			Foreground(primaryColor).
			Bold(true)

	FeedStyle = lipgloss.NewStyle().
			Foreground(sourceColor).
			Bold(true)

	HandleStyle = lipgloss.NewStyle().
			Foreground(accentColor)

	DateStyle = lipgloss.NewStyle().
			Foreground(dateColor)

	ScoreStyle = lipgloss.NewStyle().
			Foreground(scoreColor)

	DimStyle = lipgloss.NewStyle().
			Foreground(dimColor)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(errorColor).
			Bold(true)

	HighlightStyle = lipgloss.NewStyle().
			Foreground(accentColor).
			Bold(true)
)
