package view

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"research-dash/internal/api"
)

const (
	EmptyToolsMessage   = "No tool usage data yet"
	EmptyQueriesMessage = "No queries yet"
	EmptyLogsMessage    = "No logs available"
)

// ToolBar is one row of the tool usage chart. Width is the bar length as a
// percentage of the most used tool.
type ToolBar struct {
	Tool  string
	Name  string
	Count int
	Width float64
}

// ToolsChart sorts usage by count descending (ties by name) and
// normalises bar widths to the maximum count.
func ToolsChart(usage map[string]int) []ToolBar {
	bars := make([]ToolBar, 0, len(usage))
	maxCount := 0
	for tool, count := range usage {
		bars = append(bars, ToolBar{Tool: tool, Name: FormatToolName(tool), Count: count})
		if count > maxCount {
			maxCount = count
		}
	}
	sort.Slice(bars, func(i, j int) bool {
		if bars[i].Count != bars[j].Count {
			return bars[i].Count > bars[j].Count
		}
		return bars[i].Tool < bars[j].Tool
	})
	if maxCount > 0 {
		for i := range bars {
			bars[i].Width = float64(bars[i].Count) / float64(maxCount) * 100
		}
	}
	return bars
}

// QueryRow is one row of the recent queries table
type QueryRow struct {
	Query          string
	Tools          string
	ProcessingTime string
	Time           string
	SessionID      string
}

// QueriesTable renders the backend's recent queries in the order given
func QueriesTable(recent []api.RecentQuery) []QueryRow {
	rows := make([]QueryRow, 0, len(recent))
	for _, q := range recent {
		tools := noTools
		if len(q.ToolsUsed) > 0 {
			tools = strings.Join(FormatToolNames(q.ToolsUsed), ", ")
		}
		rows = append(rows, QueryRow{
			Query:          Truncate(q.Query, DefaultTruncate),
			Tools:          tools,
			ProcessingTime: FormatProcessingTime(q.ProcessingTime),
			Time:           formatTimestamp(q.Timestamp),
			SessionID:      q.SessionID,
		})
	}
	return rows
}

// AnalyticsView is the display state of the analytics panel. The Empty
// fields are set when the matching list has nothing to show.
type AnalyticsView struct {
	TotalQueries string
	AverageTime  string
	Uptime       string
	LogFileSize  string
	Tools        []ToolBar
	ToolsEmpty   string
	Queries      []QueryRow
	QueriesEmpty string
}

// NewAnalyticsView builds the analytics panel; a nil snapshot renders as empty
func NewAnalyticsView(s *api.AnalyticsSnapshot) AnalyticsView {
	if s == nil {
		s = &api.AnalyticsSnapshot{}
	}
	v := AnalyticsView{
		TotalQueries: strconv.Itoa(s.TotalQueries),
		AverageTime:  FormatDuration(s.AverageProcessingTime),
		Uptime:       s.Uptime,
		LogFileSize:  FormatBytes(s.LogFileSize),
		Tools:        ToolsChart(s.ToolsUsage),
		Queries:      QueriesTable(s.RecentQueries),
	}
	if v.Uptime == "" {
		v.Uptime = notAvailable
	}
	if len(v.Tools) == 0 {
		v.ToolsEmpty = EmptyToolsMessage
	}
	if len(v.Queries) == 0 {
		v.QueriesEmpty = EmptyQueriesMessage
	}
	return v
}

// LogLine is one rendered log entry
type LogLine struct {
	Time      string
	Level     string
	Message   string
	SessionID string
}

// LogsView is the display state of the log panel
type LogsView struct {
	Header string
	Lines  []LogLine
	Empty  string
}

// NewLogsView builds the log panel; a nil response renders as empty
func NewLogsView(resp *api.LogsResponse) LogsView {
	if resp == nil || len(resp.Logs) == 0 {
		return LogsView{Empty: EmptyLogsMessage}
	}

	v := LogsView{Lines: make([]LogLine, 0, len(resp.Logs))}
	for _, e := range resp.Logs {
		v.Lines = append(v.Lines, LogLine{
			Time:      e.Timestamp,
			Level:     strings.ToUpper(strings.TrimSpace(e.Level)),
			Message:   e.Message,
			SessionID: e.SessionID,
		})
	}

	total := resp.TotalLines
	if total < len(v.Lines) {
		total = len(v.Lines)
	}
	v.Header = fmt.Sprintf("Showing %d of %d lines", len(v.Lines), total)
	return v
}
