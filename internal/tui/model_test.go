package tui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"research-dash/internal/admin"
	"research-dash/internal/api"
	"research-dash/internal/app"
	"research-dash/internal/progress"
	"research-dash/internal/view"
)

var (
	_ app.View           = (*Bridge)(nil)
	_ app.ConnectionView = (*Bridge)(nil)
	_ admin.View         = (*Bridge)(nil)
	_ Controller         = (*app.Controller)(nil)
	_ Admin              = (*admin.Manager)(nil)
	_ Health             = (*app.HealthMonitor)(nil)
)

type fakeController struct {
	mu       sync.Mutex
	queries  []string
	exports  int
	cleared  int
	rendered int
	err      error
}

func (c *fakeController) Submit(ctx context.Context, query string) (*api.ResearchResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queries = append(c.queries, query)
	if c.err != nil {
		return nil, c.err
	}
	return &api.ResearchResult{Answer: "ok"}, nil
}

func (c *fakeController) ExportLast(withHTML bool) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.exports++
	return []string{"a.json"}, nil
}

func (c *fakeController) ClearHistory() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cleared++
	return nil
}

func (c *fakeController) RenderHistory() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rendered++
}

type fakeAdmin struct {
	mu        sync.Mutex
	toggles   int
	lines     int
	cleared   int
	confirmed bool
}

func (a *fakeAdmin) Toggle(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.toggles++
}

func (a *fakeAdmin) Refresh(ctx context.Context) error { return nil }

func (a *fakeAdmin) SetLineCount(ctx context.Context, lines int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lines = lines
	return nil
}

func (a *fakeAdmin) LineCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lines
}

func (a *fakeAdmin) ClearLogs(ctx context.Context, confirm func() bool) (*api.ClearLogsResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cleared++
	a.confirmed = confirm()
	return &api.ClearLogsResult{Message: "cleared"}, nil
}

func (a *fakeAdmin) DownloadLogs(ctx context.Context) (string, error)    { return "logs.log", nil }
func (a *fakeAdmin) ExportAnalytics(ctx context.Context) (string, error) { return "a.json", nil }

func newTestModel(ctrl Controller, adm Admin) Model {
	return NewModel(context.Background(), Deps{Controller: ctrl, Admin: adm})
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "ctrl+a":
		return tea.KeyMsg{Type: tea.KeyCtrlA}
	case "ctrl+k":
		return tea.KeyMsg{Type: tea.KeyCtrlK}
	case "ctrl+l":
		return tea.KeyMsg{Type: tea.KeyCtrlL}
	case "ctrl+t":
		return tea.KeyMsg{Type: tea.KeyCtrlT}
	case "ctrl+e":
		return tea.KeyMsg{Type: tea.KeyCtrlE}
	case "ctrl+x":
		return tea.KeyMsg{Type: tea.KeyCtrlX}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	model, ok := next.(Model)
	require.True(t, ok)
	return model, cmd
}

func typeText(t *testing.T, m Model, text string) Model {
	t.Helper()
	for _, r := range text {
		m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m
}

func TestBridgeDeliversAfterAttach(t *testing.T) {
	var got []tea.Msg
	b := NewBridge(nil)
	b.ShowToast("dropped", view.ToastInfo)

	b.Attach(func(msg tea.Msg) { got = append(got, msg) })
	b.SetSubmitEnabled(false)
	b.ShowLoading("Researching...", "working")
	b.HideProgress()
	b.ShowToast("hello", view.ToastSuccess)

	require.Len(t, got, 4)
	assert.Equal(t, submitEnabledMsg(false), got[0])
	assert.Equal(t, loadingMsg{visible: true, title: "Researching...", message: "working"}, got[1])
	assert.Equal(t, progressVisibleMsg{}, got[2])
	assert.Equal(t, toastMsg{message: "hello", kind: view.ToastSuccess}, got[3])
}

func TestEnterSubmitsQuery(t *testing.T) {
	ctrl := &fakeController{}
	m := typeText(t, newTestModel(ctrl, nil), "What is quantum computing?")

	m, cmd := update(t, m, key("enter"))
	require.NotNil(t, cmd)
	msg := cmd()
	assert.Equal(t, submitDoneMsg{}, msg)
	assert.Equal(t, []string{"What is quantum computing?"}, ctrl.queries)

	m, _ = update(t, m, msg)
	assert.Empty(t, m.input.Value())
}

func TestFailedSubmitKeepsQuery(t *testing.T) {
	ctrl := &fakeController{err: errors.New("boom")}
	m := typeText(t, newTestModel(ctrl, nil), "short")

	m, cmd := update(t, m, key("enter"))
	require.NotNil(t, cmd)
	m, _ = update(t, m, cmd())
	assert.Equal(t, "short", m.input.Value())
}

func TestEnterIgnoredWhileSubmitting(t *testing.T) {
	ctrl := &fakeController{}
	m := typeText(t, newTestModel(ctrl, nil), "What is quantum computing?")

	m, _ = update(t, m, submitEnabledMsg(false))
	_, cmd := update(t, m, key("enter"))
	assert.Nil(t, cmd)
	assert.Empty(t, ctrl.queries)
	assert.Contains(t, m.View(), "(working)")
}

func TestLoadingAndProgressView(t *testing.T) {
	m := newTestModel(&fakeController{}, nil)

	m, _ = update(t, m, loadingMsg{visible: true, title: "Researching...", message: "Analyzing your query"})
	m, _ = update(t, m, progressVisibleMsg{visible: true, sessionID: "session_1_abc"})
	m, _ = update(t, m, progressMsg(progress.SnapshotAt(45)))

	out := m.View()
	assert.Contains(t, out, "Researching...")
	assert.Contains(t, out, "Gathering information...")
	assert.Contains(t, out, "session_1_abc")
	assert.Contains(t, out, "Wikipedia Search")
	assert.Contains(t, out, "Using tools")

	m, _ = update(t, m, loadingMsg{})
	m, _ = update(t, m, progressVisibleMsg{})
	assert.NotContains(t, m.View(), "session_1_abc")
}

func TestResultsAndHistoryView(t *testing.T) {
	m := newTestModel(&fakeController{}, nil)
	assert.Contains(t, m.View(), view.EmptyHistoryMessage)

	r := view.NewResultView(&api.ResearchResult{
		Answer:         "Quantum computers use **qubits**.",
		ToolsUsed:      []string{"wikipedia_search"},
		ProcessingTime: 2.5,
		SessionID:      "s1",
	})
	m, _ = update(t, m, resultsMsg(r))
	m, _ = update(t, m, historyMsg{{ID: 1, Query: "What is quantum computing?", ToolCount: 1, ProcessingTime: "2.50s"}})

	out := m.View()
	assert.Contains(t, out, "qubits")
	assert.Contains(t, out, "2.50s")
	assert.Contains(t, out, "Wikipedia Search")
	assert.Contains(t, out, "What is quantum computing?")
	assert.NotContains(t, out, view.EmptyHistoryMessage)
}

func TestHistoryListIsCapped(t *testing.T) {
	m := newTestModel(&fakeController{}, nil)
	items := make([]view.HistoryItem, 8)
	for i := range items {
		items[i] = view.HistoryItem{ID: int64(i), Query: "query"}
	}
	m, _ = update(t, m, historyMsg(items))
	assert.Contains(t, m.View(), "... 3 more")
}

func TestToastExpires(t *testing.T) {
	m := newTestModel(&fakeController{}, nil)

	m, cmd := update(t, m, toastMsg{message: "Research completed", kind: view.ToastSuccess})
	require.NotNil(t, cmd)
	assert.Contains(t, m.View(), "Research completed")

	m, _ = update(t, m, toastExpiredMsg{id: 1})
	assert.NotContains(t, m.View(), "Research completed")
}

func TestDismissOldestToast(t *testing.T) {
	m := newTestModel(&fakeController{}, nil)
	m, _ = update(t, m, toastMsg{message: "first", kind: view.ToastInfo})
	m, _ = update(t, m, toastMsg{message: "second", kind: view.ToastError})

	m, _ = update(t, m, key("ctrl+x"))
	out := m.View()
	assert.NotContains(t, out, "first")
	assert.Contains(t, out, "second")
}

func TestConnectionIndicator(t *testing.T) {
	m := newTestModel(&fakeController{}, nil)
	assert.Contains(t, m.View(), "Checking...")

	m, _ = update(t, m, connectionMsg{State: view.ConnectionConnected, Label: "Connected", Version: "1.0.0"})
	out := m.View()
	assert.Contains(t, out, "Connected")
	assert.Contains(t, out, "v1.0.0")
}

func TestAdminToggleAndRender(t *testing.T) {
	adm := &fakeAdmin{lines: 100}
	m := newTestModel(&fakeController{}, adm)

	_, cmd := update(t, m, key("ctrl+a"))
	require.NotNil(t, cmd)
	cmd()
	assert.Equal(t, 1, adm.toggles)

	m, _ = update(t, m, adminVisibleMsg(true))
	assert.Contains(t, m.View(), "Loading analytics...")
	assert.Contains(t, m.View(), "Loading logs...")

	m, _ = update(t, m, analyticsMsg(view.NewAnalyticsView(&api.AnalyticsSnapshot{
		TotalQueries: 4,
		ToolsUsage:   map[string]int{"arxiv_search": 2},
	})))
	m, _ = update(t, m, logsMsg(view.NewLogsView(&api.LogsResponse{
		Logs:       []api.LogEntry{{Timestamp: "2024-01-01 10:00:00", Level: "info", Message: "started"}},
		TotalLines: 10,
	})))

	out := m.View()
	assert.Contains(t, out, "Arxiv Search")
	assert.Contains(t, out, "started")
	assert.Contains(t, out, "Showing 1 of 10 lines")
	assert.Contains(t, out, "log lines: 100")

	_, cmd = update(t, m, key("esc"))
	require.NotNil(t, cmd)
	cmd()
	assert.Equal(t, 2, adm.toggles)
}

func TestAdminLineCountCycles(t *testing.T) {
	adm := &fakeAdmin{lines: 500}
	m := newTestModel(&fakeController{}, adm)
	m, _ = update(t, m, adminVisibleMsg(true))

	_, cmd := update(t, m, key("ctrl+l"))
	require.NotNil(t, cmd)
	cmd()
	assert.Equal(t, 50, adm.LineCount())
}

func TestClearLogsNeedsConfirmation(t *testing.T) {
	adm := &fakeAdmin{lines: 100}
	m := newTestModel(&fakeController{}, adm)
	m, _ = update(t, m, adminVisibleMsg(true))

	m, _ = update(t, m, key("ctrl+k"))
	assert.Contains(t, m.View(), "Clear all backend logs?")

	m, cmd := update(t, m, key("n"))
	assert.Nil(t, cmd)
	assert.NotContains(t, m.View(), "Clear all backend logs?")
	assert.Zero(t, adm.cleared)

	m, _ = update(t, m, key("ctrl+k"))
	_, cmd = update(t, m, key("y"))
	require.NotNil(t, cmd)
	cmd()
	assert.Equal(t, 1, adm.cleared)
	assert.True(t, adm.confirmed)
}

func TestClearHistoryAndExportKeys(t *testing.T) {
	ctrl := &fakeController{}
	m := newTestModel(ctrl, nil)

	m, _ = update(t, m, key("ctrl+t"))
	assert.Contains(t, m.View(), "Clear research history?")
	m, cmd := update(t, m, key("y"))
	require.NotNil(t, cmd)
	cmd()
	assert.Equal(t, 1, ctrl.cleared)

	_, cmd = update(t, m, key("ctrl+e"))
	require.NotNil(t, cmd)
	cmd()
	assert.Equal(t, 1, ctrl.exports)
}

func TestStartRendersHistory(t *testing.T) {
	ctrl := &fakeController{}
	m := newTestModel(ctrl, nil)
	assert.Nil(t, m.start()())
	assert.Equal(t, 1, ctrl.rendered)
}

func TestRenderDocument(t *testing.T) {
	doc := view.ParseMarkup("First **bold** line\nsecond `code`\n\nNext paragraph")
	out := renderDocument(doc, DefaultStyles(), 60)

	paragraphs := strings.Split(out, "\n\n")
	require.Len(t, paragraphs, 2)
	assert.Contains(t, paragraphs[0], "bold")
	assert.Contains(t, paragraphs[0], "code")
	assert.Contains(t, paragraphs[1], "Next paragraph")
}

func TestRenderAdminEmptyStates(t *testing.T) {
	a := view.NewAnalyticsView(&api.AnalyticsSnapshot{})
	l := view.NewLogsView(&api.LogsResponse{})
	out := renderAdmin(&a, &l, DefaultStyles())

	assert.Contains(t, out, "No tool usage data yet")
	assert.Contains(t, out, "No queries yet")
	assert.Contains(t, out, "No logs available")
}
