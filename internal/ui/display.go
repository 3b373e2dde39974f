package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"

	"research-dash/internal/progress"
	"research-dash/internal/terminal"
	"research-dash/internal/view"
)

// Color codes
const (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorDim    = "\033[2m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
)

const progressBarWidth = 20

// Display renders research output line by line for the CLI subcommands.
// It is safe for concurrent use.
type Display struct {
	out         io.Writer
	width       int
	interactive bool
	renderer    *glamour.TermRenderer
	spinner     *terminal.Spinner

	mu      sync.Mutex
	loading string
}

// NewDisplay creates a display writing to out. interactive enables the
// spinner and terminal-aware markdown styles.
func NewDisplay(out io.Writer, width int, interactive bool) *Display {
	if width <= 20 {
		width = 80
	}

	// Create markdown renderer
	style := glamour.WithStandardStyle("notty")
	if interactive {
		style = glamour.WithAutoStyle()
	}
	renderer, _ := glamour.NewTermRenderer(
		style,
		glamour.WithWordWrap(width-10),
	)

	return &Display{
		out:         out,
		width:       width,
		interactive: interactive,
		renderer:    renderer,
		spinner:     terminal.NewSpinner(out),
	}
}

// SetSubmitEnabled is a no-op: line mode has no submit control
func (d *Display) SetSubmitEnabled(bool) {}

// ShowLoading starts the spinner, or prints the title when not interactive
func (d *Display) ShowLoading(title, message string) {
	d.mu.Lock()
	d.loading = title
	d.mu.Unlock()

	if d.interactive {
		d.spinner.Start(fmt.Sprintf("%s %s", title, message))
		return
	}
	d.PrintInfo(fmt.Sprintf("%s %s", title, message))
}

// HideLoading stops the spinner
func (d *Display) HideLoading() {
	d.spinner.Stop()
}

// ShowProgress prints the session being tracked
func (d *Display) ShowProgress(sessionID string) {
	d.printf("%sSession: %s%s\n", colorGray, sessionID, colorReset)
}

// UpdateProgress redraws the spinner line with the estimate
func (d *Display) UpdateProgress(s progress.Snapshot) {
	if !d.interactive {
		return
	}
	d.spinner.Update(progressLine(s))
}

// HideProgress is handled by HideLoading in line mode
func (d *Display) HideProgress() {}

// progressLine renders e.g. "[████░░░░] 45% Gathering information... (Using tools)"
func progressLine(s progress.Snapshot) string {
	filled := int(s.Percent / 100 * progressBarWidth)
	if filled > progressBarWidth {
		filled = progressBarWidth
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", progressBarWidth-filled)

	line := fmt.Sprintf("[%s] %3.0f%% %s (%s)", bar, s.Percent, s.Status, view.StepMessage(s.Percent))
	if len(s.Tools) > 0 {
		line += " · " + strings.Join(view.FormatToolNames(s.Tools), ", ")
	}
	return line
}

// ShowResults prints the rendered answer with its metadata
func (d *Display) ShowResults(r view.ResultView) {
	answer := r.RawAnswer
	if d.renderer != nil {
		if rendered, err := d.renderer.Render(r.RawAnswer); err == nil {
			answer = rendered
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\n%s┌─ Answer · %s%s\n", colorGray, r.Timestamp, colorReset)
	for _, line := range strings.Split(strings.Trim(answer, "\n"), "\n") {
		fmt.Fprintf(&b, "%s│%s %s\n", colorGray, colorReset, line)
	}
	fmt.Fprintf(&b, "%s│%s\n", colorGray, colorReset)
	fmt.Fprintf(&b, "%s│ ⏱  %s · tokens %s%s\n", colorGray, r.ProcessingTime, r.TokenEstimate, colorReset)
	fmt.Fprintf(&b, "%s│ 🔧 Tools: %s%s\n", colorGray, r.ToolsSummary, colorReset)
	fmt.Fprintf(&b, "%s└%s\n", colorGray, colorReset)
	d.printf("%s", b.String())
}

// RenderHistory reports the history size after a submission
func (d *Display) RenderHistory(items []view.HistoryItem) {
	d.printf("%s%d item(s) in history%s\n", colorGray, len(items), colorReset)
}

// PrintHistory prints the history list in full
func (d *Display) PrintHistory(items []view.HistoryItem) {
	if len(items) == 0 {
		d.printf("%s%s%s\n", colorGray, view.EmptyHistoryMessage, colorReset)
		return
	}
	var b strings.Builder
	for i, item := range items {
		fmt.Fprintf(&b, "%s%2d.%s %s\n", colorBold, i+1, colorReset, item.Query)
		fmt.Fprintf(&b, "    %s%s · %d tool(s) · %s%s\n", colorGray, item.Time, item.ToolCount, item.ProcessingTime, colorReset)
	}
	d.printf("%s", b.String())
}

// ShowToast prints a notification coloured by kind
func (d *Display) ShowToast(message string, kind view.ToastKind) {
	color := colorCyan
	switch kind {
	case view.ToastSuccess:
		color = colorGreen
	case view.ToastError:
		color = colorRed
	case view.ToastWarning:
		color = colorYellow
	}
	d.printf("%s%s %s%s\n", color, kind.Icon(), message, colorReset)
}

// SetConnection prints the backend connection state
func (d *Display) SetConnection(c view.Connection) {
	color := colorYellow
	switch c.State {
	case view.ConnectionConnected:
		color = colorGreen
	case view.ConnectionError:
		color = colorRed
	}
	line := fmt.Sprintf("%s● %s%s", color, c.Label, colorReset)
	if c.Version != "" {
		line += fmt.Sprintf(" %sv%s%s", colorGray, c.Version, colorReset)
	}
	d.printf("%s\n", line)
}

// PrintInfo displays info message
func (d *Display) PrintInfo(msg string) {
	d.ShowToast(msg, view.ToastInfo)
}

// PrintWarning displays warning message
func (d *Display) PrintWarning(msg string) {
	d.ShowToast(msg, view.ToastWarning)
}

// PrintError displays error message
func (d *Display) PrintError(err error) {
	d.printf("%s✗ Error: %v%s\n", colorRed, err, colorReset)
}

// PrintSuccess displays success message
func (d *Display) PrintSuccess(msg string) {
	d.ShowToast(msg, view.ToastSuccess)
}

// Cleanup ensures the display is in a good state before exit
func (d *Display) Cleanup() {
	d.spinner.Stop()
}

// printf writes a block of output, clearing an active spinner line first
func (d *Display) printf(format string, args ...interface{}) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.spinner.Active() {
		fmt.Fprintf(d.out, "\r%s", terminal.ClearLine())
	}
	fmt.Fprintf(d.out, format, args...)
}
