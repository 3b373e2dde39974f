package ui

import (
	"fmt"
	"strings"

	"research-dash/internal/view"
)

const chartWidth = 30

// ShowAdminPanel prints the admin header when the panel opens
func (d *Display) ShowAdminPanel(visible bool) {
	if visible {
		d.printf("%s%s── Admin ──%s\n", colorBold, colorBlue, colorReset)
	}
}

// RenderAnalytics prints the analytics summary, tool chart and recent queries
func (d *Display) RenderAnalytics(v view.AnalyticsView) {
	var b strings.Builder

	fmt.Fprintf(&b, "\n%sAnalytics%s\n", colorBold, colorReset)
	fmt.Fprintf(&b, "  Total queries:    %s\n", v.TotalQueries)
	fmt.Fprintf(&b, "  Avg. processing:  %s\n", v.AverageTime)
	fmt.Fprintf(&b, "  Uptime:           %s\n", v.Uptime)
	fmt.Fprintf(&b, "  Log file size:    %s\n", v.LogFileSize)

	fmt.Fprintf(&b, "\n%sTool usage%s\n", colorBold, colorReset)
	if v.ToolsEmpty != "" {
		fmt.Fprintf(&b, "  %s%s%s\n", colorGray, v.ToolsEmpty, colorReset)
	}
	nameWidth := 0
	for _, bar := range v.Tools {
		nameWidth = max(nameWidth, len(bar.Name))
	}
	for _, bar := range v.Tools {
		n := int(bar.Width / 100 * chartWidth)
		if n == 0 && bar.Count > 0 {
			n = 1
		}
		fmt.Fprintf(&b, "  %-*s %s%s%s %d\n", nameWidth, bar.Name, colorCyan, strings.Repeat("█", n), colorReset, bar.Count)
	}

	fmt.Fprintf(&b, "\n%sRecent queries%s\n", colorBold, colorReset)
	if v.QueriesEmpty != "" {
		fmt.Fprintf(&b, "  %s%s%s\n", colorGray, v.QueriesEmpty, colorReset)
	}
	for _, q := range v.Queries {
		fmt.Fprintf(&b, "  %s\n", q.Query)
		fmt.Fprintf(&b, "    %s%s · %s · %s%s\n", colorGray, q.Time, q.Tools, q.ProcessingTime, colorReset)
	}

	d.printf("%s", b.String())
}

// RenderLogs prints the log view
func (d *Display) RenderLogs(v view.LogsView) {
	var b strings.Builder

	fmt.Fprintf(&b, "\n%sLogs%s", colorBold, colorReset)
	if v.Header != "" {
		fmt.Fprintf(&b, " %s(%s)%s", colorGray, v.Header, colorReset)
	}
	b.WriteString("\n")

	if v.Empty != "" {
		fmt.Fprintf(&b, "  %s%s%s\n", colorGray, v.Empty, colorReset)
	}
	for _, l := range v.Lines {
		fmt.Fprintf(&b, "  %s%s%s %s%-7s%s %s\n", colorGray, l.Time, colorReset, levelColor(l.Level), l.Level, colorReset, l.Message)
	}

	d.printf("%s", b.String())
}

func levelColor(level string) string {
	switch level {
	case "ERROR", "CRITICAL":
		return colorRed
	case "WARNING", "WARN":
		return colorYellow
	case "DEBUG":
		return colorDim
	default:
		return colorCyan
	}
}
