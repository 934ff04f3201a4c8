// Package theme holds the terminal colors and styles shared by rune's
// console output.
package theme

import "github.com/charmbracelet/lipgloss"

// ANSI palette indexes, so the terminal's own color scheme applies.
var (
	Primary = lipgloss.Color("12")
	Muted   = lipgloss.Color("8")
	Success = lipgloss.Color("10")
	Warning = lipgloss.Color("11")
	Danger  = lipgloss.Color("9")
)

var (
	Prompt  = lipgloss.NewStyle().Foreground(Primary).Bold(true)
	Title   = lipgloss.NewStyle().Foreground(Primary).Bold(true)
	Notice  = lipgloss.NewStyle().Foreground(Muted)
	Warn    = lipgloss.NewStyle().Foreground(Warning)
	Failure = lipgloss.NewStyle().Foreground(Danger)
	Passed  = lipgloss.NewStyle().Foreground(Success)
)
