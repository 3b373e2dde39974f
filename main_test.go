package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"research-dash/internal/admin"
	"research-dash/internal/api"
)

// testBackend fakes the research backend endpoints the CLI uses
func testBackend(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var clears atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, api.HealthStatus{Status: "healthy", AgentReady: true, Version: "1.0.0"})
	})
	mux.HandleFunc("/api/research", func(w http.ResponseWriter, r *http.Request) {
		var req api.ResearchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, api.ResearchResult{
			Success:        true,
			Answer:         "Quantum computers use qubits.",
			SessionID:      req.SessionID,
			ToolsUsed:      []string{"wikipedia_search", "arxiv_search"},
			ProcessingTime: 2.1,
			Timestamp:      "2024-01-15T10:30:00Z",
		})
	})
	mux.HandleFunc("/api/analytics", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, api.AnalyticsSnapshot{
			TotalQueries: 3,
			ToolsUsage:   map[string]int{"tavily_search": 3},
			Uptime:       "1:00:00",
		})
	})
	mux.HandleFunc("/api/logs", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, api.LogsResponse{
			Logs:       []api.LogEntry{{Timestamp: "2024-01-15 10:30:00", Level: "INFO", Message: "agent ready"}},
			TotalLines: 1,
		})
	})
	mux.HandleFunc("/api/clear-logs", func(w http.ResponseWriter, r *http.Request) {
		clears.Add(1)
		writeJSON(w, api.ClearLogsResult{Success: true, Message: "Logs cleared", BackupFile: "research_agent.log.bak"})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &clears
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// writeConfig points history, exports and logs at a temp dir
func writeConfig(t *testing.T, dir string) string {
	t.Helper()
	cfg := fmt.Sprintf(`history:
  driver: sqlite
  path: %q
export:
  dir: %q
logging:
  file: ""
progress:
  interval: 5ms
  settle_delay: 1ms
`, filepath.Join(dir, "history.db"), filepath.Join(dir, "exports"))

	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0644))
	return path
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestHealthCommand(t *testing.T) {
	srv, _ := testBackend(t)
	dir := t.TempDir()

	out, err := execute(t, "", "health", "--config", writeConfig(t, dir), "--backend", srv.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "Connected")
	assert.Contains(t, out, "v1.0.0")
}

func TestHealthCommandUnreachable(t *testing.T) {
	dir := t.TempDir()

	out, err := execute(t, "", "health", "--config", writeConfig(t, dir), "--backend", "http://127.0.0.1:1")
	require.Error(t, err)
	assert.Contains(t, out, "Disconnected")
	assert.Contains(t, out, "Cannot connect to the research backend")
}

func TestAskThenHistory(t *testing.T) {
	srv, _ := testBackend(t)
	dir := t.TempDir()
	cfg := writeConfig(t, dir)

	out, err := execute(t, "", "ask", "--config", cfg, "--backend", srv.URL,
		"--session", "session_test", "--html", "What is quantum computing?")
	require.NoError(t, err)
	assert.Contains(t, out, "qubits")
	assert.Contains(t, out, "Research completed in 2.10s using 2 tool(s)")
	assert.FileExists(t, filepath.Join(dir, "exports", "research_results_session_test.json"))
	assert.FileExists(t, filepath.Join(dir, "exports", "research_results_session_test.html"))

	out, err = execute(t, "", "history", "list", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "What is quantum computing?")

	_, err = execute(t, "", "history", "clear", "--config", cfg)
	require.NoError(t, err)

	out, err = execute(t, "", "history", "--config", cfg)
	require.NoError(t, err)
	assert.NotContains(t, out, "What is quantum computing?")
}

func TestAskRejectsShortQuery(t *testing.T) {
	srv, _ := testBackend(t)
	dir := t.TempDir()

	out, err := execute(t, "", "ask", "--config", writeConfig(t, dir), "--backend", srv.URL, "short")
	var verr *api.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, out, "at least 10 characters")
}

func TestAdminAnalyticsAndLogs(t *testing.T) {
	srv, _ := testBackend(t)
	dir := t.TempDir()
	cfg := writeConfig(t, dir)

	out, err := execute(t, "", "admin", "analytics", "--export", "--config", cfg, "--backend", srv.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "Tavily Search")
	matches, err := filepath.Glob(filepath.Join(dir, "exports", "analytics_*.json"))
	require.NoError(t, err)
	assert.Len(t, matches, 1)

	out, err = execute(t, "", "admin", "logs", "--lines", "50", "--config", cfg, "--backend", srv.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "agent ready")

	_, err = execute(t, "", "admin", "logs", "--lines", "7", "--config", cfg, "--backend", srv.URL)
	assert.ErrorIs(t, err, admin.ErrInvalidLineCount)
}

func TestAdminClearLogsConfirmation(t *testing.T) {
	srv, clears := testBackend(t)
	dir := t.TempDir()
	cfg := writeConfig(t, dir)

	out, err := execute(t, "n\n", "admin", "clear-logs", "--config", cfg, "--backend", srv.URL)
	assert.ErrorIs(t, err, admin.ErrNotConfirmed)
	assert.Contains(t, out, "[y/N]")
	assert.Zero(t, clears.Load())

	out, err = execute(t, "", "admin", "clear-logs", "--yes", "--config", cfg, "--backend", srv.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "research_agent.log.bak")
	assert.Equal(t, int32(1), clears.Load())
}

func TestInvalidBackendURL(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, "", "health", "--config", writeConfig(t, dir), "--backend", "not a url")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration error")
}

func TestReportError(t *testing.T) {
	var out bytes.Buffer
	reportError(&out, errors.New("backend unreachable"))
	assert.Contains(t, out.String(), "Error: backend unreachable")
}
