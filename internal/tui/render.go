package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"research-dash/internal/view"
)

const chartWidth = 30

// renderDocument styles a parsed answer and wraps it to width
func renderDocument(doc view.Document, s Styles, width int) string {
	wrap := lipgloss.NewStyle().Width(max(10, width))

	paragraphs := make([]string, 0, len(doc.Paragraphs))
	for _, p := range doc.Paragraphs {
		lines := make([]string, 0, len(p.Lines))
		for _, l := range p.Lines {
			var b strings.Builder
			for _, span := range l {
				switch span.Kind {
				case view.SpanBold:
					b.WriteString(s.Bold.Render(span.Text))
				case view.SpanItalic:
					b.WriteString(s.Italic.Render(span.Text))
				case view.SpanCode:
					b.WriteString(s.Code.Render(span.Text))
				default:
					b.WriteString(span.Text)
				}
			}
			lines = append(lines, wrap.Render(b.String()))
		}
		paragraphs = append(paragraphs, strings.Join(lines, "\n"))
	}
	return strings.Join(paragraphs, "\n\n")
}

// renderAdmin lays out analytics and logs; nil sections are still loading
func renderAdmin(a *view.AnalyticsView, l *view.LogsView, s Styles) string {
	var b strings.Builder

	b.WriteString(s.Title.Render("Analytics") + "\n")
	if a == nil {
		b.WriteString(s.Muted.Render("Loading analytics...") + "\n")
	} else {
		fmt.Fprintf(&b, "Total queries: %s   Avg. processing: %s   Uptime: %s   Log size: %s\n",
			a.TotalQueries, a.AverageTime, a.Uptime, a.LogFileSize)

		b.WriteString("\n" + s.Bold.Render("Tool usage") + "\n")
		if a.ToolsEmpty != "" {
			b.WriteString(s.Muted.Render(a.ToolsEmpty) + "\n")
		}
		nameWidth := 0
		for _, bar := range a.Tools {
			nameWidth = max(nameWidth, lipgloss.Width(bar.Name))
		}
		for _, bar := range a.Tools {
			n := int(bar.Width / 100 * chartWidth)
			if n == 0 && bar.Count > 0 {
				n = 1
			}
			fmt.Fprintf(&b, "%-*s %s %d\n", nameWidth, bar.Name, s.Bar.Render(strings.Repeat("█", n)), bar.Count)
		}

		b.WriteString("\n" + s.Bold.Render("Recent queries") + "\n")
		if a.QueriesEmpty != "" {
			b.WriteString(s.Muted.Render(a.QueriesEmpty) + "\n")
		}
		for _, q := range a.Queries {
			b.WriteString(q.Query + "\n")
			b.WriteString("  " + s.Muted.Render(fmt.Sprintf("%s · %s · %s", q.Time, q.Tools, q.ProcessingTime)) + "\n")
		}
	}

	b.WriteString("\n" + s.Title.Render("Logs"))
	if l != nil && l.Header != "" {
		b.WriteString("  " + s.Muted.Render(l.Header))
	}
	b.WriteString("\n")
	switch {
	case l == nil:
		b.WriteString(s.Muted.Render("Loading logs...") + "\n")
	case l.Empty != "":
		b.WriteString(s.Muted.Render(l.Empty) + "\n")
	default:
		for _, line := range l.Lines {
			level := line.Level
			if style, ok := s.Level[level]; ok {
				level = style.Render(fmt.Sprintf("%-8s", line.Level))
			}
			b.WriteString(s.Muted.Render(line.Time) + " " + level + " " + line.Message + "\n")
		}
	}
	return b.String()
}
