package ui

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"research-dash/internal/admin"
	"research-dash/internal/api"
	"research-dash/internal/app"
	"research-dash/internal/progress"
	"research-dash/internal/view"
)

var (
	_ app.View           = (*Display)(nil)
	_ app.ConnectionView = (*Display)(nil)
	_ admin.View         = (*Display)(nil)
)

func TestShowResults(t *testing.T) {
	var out bytes.Buffer
	d := NewDisplay(&out, 80, false)

	d.ShowResults(view.NewResultView(&api.ResearchResult{
		Answer:         "Quantum computing uses **qubits**.",
		ToolsUsed:      []string{"tavily_search"},
		ProcessingTime: 2.1,
		SessionID:      "s1",
	}))

	got := out.String()
	assert.Contains(t, got, "qubits")
	assert.Contains(t, got, "2.10s")
	assert.Contains(t, got, "tokens N/A")
	assert.Contains(t, got, "Tools: Tavily Search")
}

func TestNonInteractiveLoadingPrintsOnce(t *testing.T) {
	var out bytes.Buffer
	d := NewDisplay(&out, 80, false)

	d.ShowLoading("Researching...", "please wait")
	d.UpdateProgress(progress.SnapshotAt(50))
	d.HideLoading()

	assert.Contains(t, out.String(), "Researching... please wait")
	assert.NotContains(t, out.String(), "Gathering information")
}

func TestProgressLine(t *testing.T) {
	line := progressLine(progress.SnapshotAt(50))
	assert.Contains(t, line, " 50% Gathering information... (Using tools)")
	assert.Contains(t, line, "Wikipedia Search, Tavily Search")
	assert.Contains(t, line, "[██████████░░░░░░░░░░]")
}

func TestToastsAndErrors(t *testing.T) {
	var out bytes.Buffer
	d := NewDisplay(&out, 80, false)

	d.ShowToast("Please enter a research query", view.ToastError)
	d.PrintError(errors.New("boom"))
	d.SetConnection(view.Connection{State: view.ConnectionConnected, Label: "Connected", Version: "1.0.0"})

	got := out.String()
	assert.Contains(t, got, colorRed+"✗ Please enter a research query")
	assert.Contains(t, got, "✗ Error: boom")
	assert.Contains(t, got, "● Connected")
	assert.Contains(t, got, "v1.0.0")
}

func TestPrintHistory(t *testing.T) {
	var out bytes.Buffer
	d := NewDisplay(&out, 80, false)

	d.PrintHistory(nil)
	assert.Contains(t, out.String(), view.EmptyHistoryMessage)

	out.Reset()
	d.PrintHistory([]view.HistoryItem{{Query: "what is rust", Time: "2024-01-01 00:00:00", ToolCount: 2, ProcessingTime: "1.00s"}})
	assert.Contains(t, out.String(), " 1.")
	assert.Contains(t, out.String(), "what is rust")
	assert.Contains(t, out.String(), "2 tool(s) · 1.00s")
}

func TestRenderAnalyticsAndLogs(t *testing.T) {
	var out bytes.Buffer
	d := NewDisplay(&out, 80, false)

	d.RenderAnalytics(view.NewAnalyticsView(nil))
	assert.Contains(t, out.String(), view.EmptyToolsMessage)
	assert.Contains(t, out.String(), view.EmptyQueriesMessage)

	out.Reset()
	d.RenderAnalytics(view.NewAnalyticsView(&api.AnalyticsSnapshot{
		TotalQueries: 3,
		ToolsUsage:   map[string]int{"tavily_search": 2, "arxiv_search": 1},
	}))
	assert.Contains(t, out.String(), "Tavily Search")
	assert.Contains(t, out.String(), "Total queries:    3")

	out.Reset()
	d.RenderLogs(view.NewLogsView(nil))
	assert.Contains(t, out.String(), view.EmptyLogsMessage)

	out.Reset()
	d.RenderLogs(view.NewLogsView(&api.LogsResponse{
		Logs:       []api.LogEntry{{Timestamp: "10:00", Level: "error", Message: "tool failed"}},
		TotalLines: 12,
	}))
	assert.Contains(t, out.String(), "Showing 1 of 12 lines")
	assert.Contains(t, out.String(), "tool failed")
}
