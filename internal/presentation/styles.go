package presentation

import "github.com/charmbracelet/lipgloss"

var (
	textPrimaryColor   = lipgloss.AdaptiveColor{Light: "#1F2328", Dark: "#CCCCCC"}
	textMutedColor     = lipgloss.AdaptiveColor{Light: "#8C959F", Dark: "#696969"}
	headerColor        = lipgloss.AdaptiveColor{Light: "#1A5276", Dark: "#54A0FF"}
	statusSuccessColor = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	statusWarningColor = lipgloss.AdaptiveColor{Light: "#B7950B", Dark: "#FECA57"}
	statusErrorColor   = lipgloss.AdaptiveColor{Light: "#FF6B6B", Dark: "#FF8787"}

	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(textPrimaryColor)
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(headerColor)
	labelStyle   = lipgloss.NewStyle().Width(14).Foreground(textMutedColor)
	mutedStyle   = lipgloss.NewStyle().Foreground(textMutedColor)
	successStyle = lipgloss.NewStyle().Foreground(statusSuccessColor)
	warningStyle = lipgloss.NewStyle().Foreground(statusWarningColor)
	errorStyle   = lipgloss.NewStyle().Foreground(statusErrorColor)

	addedStyle   = lipgloss.NewStyle().Foreground(statusSuccessColor)
	deletedStyle = lipgloss.NewStyle().Foreground(statusErrorColor)
)
