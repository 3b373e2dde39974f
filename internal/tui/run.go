package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
)

// Run builds the dependencies against a fresh bridge and runs the dashboard
// until the user quits or ctx is cancelled.
func Run(ctx context.Context, build func(b *Bridge) Deps) error {
	bridge := NewBridge(nil)
	deps := build(bridge)

	p := tea.NewProgram(NewModel(ctx, deps), tea.WithAltScreen(), tea.WithContext(ctx))
	bridge.Attach(p.Send)

	_, err := p.Run()
	return err
}
