package tui

import (
	"github.com/charmbracelet/lipgloss"

	"research-dash/internal/view"
)

// Palette
var (
	colorPrimary = lipgloss.Color("#2196F3")
	colorAccent  = lipgloss.Color("#8BC34A")
	colorMuted   = lipgloss.Color("#6B7280")
	colorBorder  = lipgloss.Color("#2a3850")
	colorError   = lipgloss.Color("#e53935")
	colorWarning = lipgloss.Color("#FFC107")
	colorInfo    = lipgloss.Color("#4db6ac")
)

// Styles holds the lipgloss styles used by the dashboard
type Styles struct {
	Header      lipgloss.Style
	Title       lipgloss.Style
	Muted       lipgloss.Style
	Panel       lipgloss.Style
	Tag         lipgloss.Style
	StepDone    lipgloss.Style
	StepActive  lipgloss.Style
	StepPending lipgloss.Style
	Bold        lipgloss.Style
	Italic      lipgloss.Style
	Code        lipgloss.Style
	Bar         lipgloss.Style
	Toast       map[view.ToastKind]lipgloss.Style
	Connection  map[view.ConnectionState]lipgloss.Style
	Level       map[string]lipgloss.Style
}

// DefaultStyles returns the dashboard styles
func DefaultStyles() Styles {
	toast := lipgloss.NewStyle().Padding(0, 1).Bold(true)
	return Styles{
		Header:      lipgloss.NewStyle().Bold(true).Foreground(colorPrimary),
		Title:       lipgloss.NewStyle().Bold(true).Underline(true),
		Muted:       lipgloss.NewStyle().Foreground(colorMuted),
		Panel:       lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorBorder).Padding(0, 1),
		Tag:         lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff")).Background(colorPrimary).Padding(0, 1),
		StepDone:    lipgloss.NewStyle().Foreground(colorAccent),
		StepActive:  lipgloss.NewStyle().Bold(true).Foreground(colorPrimary),
		StepPending: lipgloss.NewStyle().Foreground(colorMuted),
		Bold:        lipgloss.NewStyle().Bold(true),
		Italic:      lipgloss.NewStyle().Italic(true),
		Code:        lipgloss.NewStyle().Foreground(colorInfo).Background(lipgloss.Color("#1a2536")),
		Bar:         lipgloss.NewStyle().Foreground(colorInfo),
		Toast: map[view.ToastKind]lipgloss.Style{
			view.ToastSuccess: toast.Foreground(colorAccent),
			view.ToastError:   toast.Foreground(colorError),
			view.ToastWarning: toast.Foreground(colorWarning),
			view.ToastInfo:    toast.Foreground(colorInfo),
		},
		Connection: map[view.ConnectionState]lipgloss.Style{
			view.ConnectionChecking:  lipgloss.NewStyle().Foreground(colorMuted),
			view.ConnectionConnected: lipgloss.NewStyle().Foreground(colorAccent),
			view.ConnectionWarning:   lipgloss.NewStyle().Foreground(colorWarning),
			view.ConnectionError:     lipgloss.NewStyle().Foreground(colorError),
		},
		Level: map[string]lipgloss.Style{
			"ERROR":    lipgloss.NewStyle().Foreground(colorError),
			"CRITICAL": lipgloss.NewStyle().Foreground(colorError).Bold(true),
			"WARNING":  lipgloss.NewStyle().Foreground(colorWarning),
			"INFO":     lipgloss.NewStyle().Foreground(colorInfo),
			"DEBUG":    lipgloss.NewStyle().Foreground(colorMuted),
		},
	}
}
