package main

import (
	"errors"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"salesdesk/api"
	"salesdesk/pos"
	"salesdesk/sale"
)

var (
	successColor = lipgloss.Color("#8BC34A")
	errorColor   = lipgloss.Color("#e53935")
	warningColor = lipgloss.Color("#FFC107")
	mutedColor   = lipgloss.Color("#6b7280")

	titleStyle   = lipgloss.NewStyle().Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(successColor).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(errorColor).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(warningColor)
	mutedStyle   = lipgloss.NewStyle().Foreground(mutedColor)
	headerStyle  = lipgloss.NewStyle().Bold(true).Underline(true)
)

// renderTable pads each column to its widest cell.
func renderTable(headers []string, rows [][]string) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && lipgloss.Width(cell) > widths[i] {
				widths[i] = lipgloss.Width(cell)
			}
		}
	}

	var b strings.Builder
	cells := make([]string, len(headers))
	for i, h := range headers {
		cells[i] = headerStyle.Width(widths[i] + 2).Render(h)
	}
	b.WriteString(strings.TrimRight(lipgloss.JoinHorizontal(lipgloss.Top, cells...), " "))
	b.WriteString("\n")
	for _, row := range rows {
		cells = cells[:0]
		for i, cell := range row {
			if i >= len(widths) {
				break
			}
			cells = append(cells, lipgloss.NewStyle().Width(widths[i]+2).Render(cell))
		}
		b.WriteString(strings.TrimRight(lipgloss.JoinHorizontal(lipgloss.Top, cells...), " "))
		b.WriteString("\n")
	}
	return b.String()
}

// userMessage picks the text to show for err: a local rejection or submission
// failure verbatim, the server's own message for API errors.
func userMessage(err error) string {
	if se := sale.AsSubmitError(err); se != nil {
		return se.Message
	}
	if cmdErr := pos.AsCommandError(err); cmdErr != nil {
		return cmdErr.Message
	}
	var fieldErrs pos.FieldErrors
	if errors.As(err, &fieldErrs) {
		return fieldErrs.Error()
	}
	if clientErr := api.AsClientError(err); clientErr != nil {
		if clientErr.IsConnectionError() {
			return "Could not reach the server"
		}
		return api.UserMessage(err, err.Error())
	}
	return err.Error()
}
