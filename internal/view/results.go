package view

import (
	"strconv"
	"strings"
	"time"

	"research-dash/internal/api"
	"research-dash/internal/history"
)

const (
	// EmptyHistoryMessage is shown when no research has completed yet
	EmptyHistoryMessage = "No research history yet"

	notAvailable = "N/A"
	noTools      = "None"
)

// ResultView is the display state of a completed research result
type ResultView struct {
	Answer         Document
	RawAnswer      string
	ProcessingTime string
	TokenEstimate  string
	ToolTags       []string
	ToolsSummary   string
	SessionID      string
	Timestamp      string
}

// NewResultView builds the results panel for r
func NewResultView(r *api.ResearchResult) ResultView {
	if r == nil {
		return ResultView{TokenEstimate: notAvailable, ToolsSummary: noTools}
	}

	v := ResultView{
		Answer:         ParseMarkup(r.Answer),
		RawAnswer:      r.Answer,
		ProcessingTime: FormatProcessingTime(r.ProcessingTime),
		TokenEstimate:  notAvailable,
		ToolTags:       FormatToolNames(r.ToolsUsed),
		ToolsSummary:   noTools,
		SessionID:      r.SessionID,
		Timestamp:      formatTimestamp(r.Timestamp),
	}
	if r.TokenEstimate != nil {
		v.TokenEstimate = strconv.Itoa(*r.TokenEstimate)
	}
	if len(v.ToolTags) > 0 {
		v.ToolsSummary = strings.Join(v.ToolTags, ", ")
	}
	return v
}

// HistoryItem is one row of the history list
type HistoryItem struct {
	ID             int64
	Query          string
	FullQuery      string
	Time           string
	ToolCount      int
	ProcessingTime string
}

// HistoryItems maps persisted entries to list rows, keeping order.
// previewLen <= 0 uses HistoryPreview.
func HistoryItems(entries []history.Entry, previewLen int) []HistoryItem {
	if previewLen <= 0 {
		previewLen = HistoryPreview
	}
	items := make([]HistoryItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, HistoryItem{
			ID:             e.ID,
			Query:          Truncate(e.Query, previewLen),
			FullQuery:      e.Query,
			Time:           formatTimestamp(e.Timestamp),
			ToolCount:      len(e.ToolsUsed),
			ProcessingTime: FormatProcessingTime(e.ProcessingTime),
		})
	}
	return items
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05,000",
}

// formatTimestamp renders a backend or history timestamp in local time,
// falling back to the raw value when it does not parse.
func formatTimestamp(ts string) string {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, ts); err == nil {
			return t.Local().Format("2006-01-02 15:04:05")
		}
	}
	return ts
}
