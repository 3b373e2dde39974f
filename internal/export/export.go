// Package export writes downloadable artifacts (research results,
// analytics snapshots, raw logs) to the export directory.
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"research-dash/internal/api"
	"research-dash/internal/view"
)

// Exporter saves files under a single directory
type Exporter struct {
	dir    string
	logger *zap.Logger
	now    func() time.Time
}

// New creates an exporter writing into dir
func New(dir string, logger *zap.Logger) *Exporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Exporter{dir: dir, logger: logger.Named("export"), now: time.Now}
}

// Dir returns the export directory
func (e *Exporter) Dir() string {
	return e.dir
}

// resultsFile is the JSON layout of an exported research result
type resultsFile struct {
	Query          string   `json:"query"`
	Answer         string   `json:"answer"`
	SessionID      string   `json:"session_id"`
	ToolsUsed      []string `json:"tools_used"`
	ProcessingTime float64  `json:"processing_time"`
	Timestamp      string   `json:"timestamp"`
	TokenEstimate  *int     `json:"token_estimate,omitempty"`
	ExportedAt     string   `json:"exported_at"`
}

// Results saves query and result as research_results_<session>.json
func (e *Exporter) Results(query string, r *api.ResearchResult) (string, error) {
	if r == nil {
		return "", fmt.Errorf("no research result to export")
	}
	tools := r.ToolsUsed
	if tools == nil {
		tools = []string{}
	}
	data, err := json.MarshalIndent(resultsFile{
		Query:          query,
		Answer:         r.Answer,
		SessionID:      r.SessionID,
		ToolsUsed:      tools,
		ProcessingTime: r.ProcessingTime,
		Timestamp:      r.Timestamp,
		TokenEstimate:  r.TokenEstimate,
		ExportedAt:     e.now().UTC().Format(time.RFC3339),
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal results: %w", err)
	}
	return e.write(fmt.Sprintf("research_results_%s.json", r.SessionID), data)
}

// ResultsHTML saves the answer as a standalone HTML page next to the JSON export
func (e *Exporter) ResultsHTML(query string, r *api.ResearchResult) (string, error) {
	if r == nil {
		return "", fmt.Errorf("no research result to export")
	}
	v := view.NewResultView(r)
	body, err := view.RenderHTML(v.Answer)
	if err != nil {
		return "", fmt.Errorf("failed to render answer: %w", err)
	}

	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&b, "<title>%s</title>\n</head>\n<body>\n", html.EscapeString(view.Truncate(query, view.DefaultTruncate)))
	fmt.Fprintf(&b, "<h1>%s</h1>\n", html.EscapeString(query))
	b.WriteString(body)
	b.WriteString("<dl>\n")
	fmt.Fprintf(&b, "<dt>Processing time</dt><dd>%s</dd>\n", v.ProcessingTime)
	fmt.Fprintf(&b, "<dt>Token estimate</dt><dd>%s</dd>\n", html.EscapeString(v.TokenEstimate))
	fmt.Fprintf(&b, "<dt>Tools used</dt><dd>%s</dd>\n", html.EscapeString(v.ToolsSummary))
	fmt.Fprintf(&b, "<dt>Session</dt><dd>%s</dd>\n", html.EscapeString(r.SessionID))
	b.WriteString("</dl>\n</body>\n</html>\n")

	return e.write(fmt.Sprintf("research_results_%s.html", r.SessionID), []byte(b.String()))
}

// Analytics saves a snapshot as analytics_<YYYYMMDD_HHMMSS>.json
func (e *Exporter) Analytics(s *api.AnalyticsSnapshot) (string, error) {
	if s == nil {
		return "", fmt.Errorf("no analytics to export")
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal analytics: %w", err)
	}
	return e.write(fmt.Sprintf("analytics_%s.json", e.now().Format("20060102_150405")), data)
}

// Logs saves the raw log file under the name the backend suggested
func (e *Exporter) Logs(d *api.LogDownload) (string, error) {
	if d == nil {
		return "", fmt.Errorf("no log file to save")
	}
	return e.write(d.Filename, d.Body)
}

// write saves data atomically (temp file + rename)
func (e *Exporter) write(name string, data []byte) (string, error) {
	name = sanitize(name)
	if err := os.MkdirAll(e.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	path := filepath.Join(e.dir, name)
	tempFile := path + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export: %w", err)
	}
	if err := os.Rename(tempFile, path); err != nil {
		os.Remove(tempFile)
		return "", fmt.Errorf("failed to save export: %w", err)
	}

	e.logger.Info("exported file", zap.String("path", path), zap.Int("bytes", len(data)))
	return path, nil
}

// sanitize keeps a backend or session supplied name inside the export dir
func sanitize(name string) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', 0:
			return '_'
		}
		return r
	}, name)
	name = strings.TrimLeft(name, ".")
	if name == "" {
		name = "export"
	}
	return name
}
