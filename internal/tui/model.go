// Package tui is the interactive Bubble Tea dashboard. Controller and admin
// updates arrive as messages through a Bridge; user actions run as
// commands so the event loop never blocks on the backend.
package tui

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	progressbar "github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"research-dash/internal/api"
	"research-dash/internal/progress"
	"research-dash/internal/view"
)

// historyRows is how many history entries the research panel lists
const historyRows = 5

// Controller is the research side of the dashboard
type Controller interface {
	Submit(ctx context.Context, query string) (*api.ResearchResult, error)
	ExportLast(withHTML bool) ([]string, error)
	ClearHistory() error
	RenderHistory()
}

// Admin is the admin side of the dashboard
type Admin interface {
	Toggle(ctx context.Context)
	Refresh(ctx context.Context) error
	SetLineCount(ctx context.Context, lines int) error
	LineCount() int
	ClearLogs(ctx context.Context, confirm func() bool) (*api.ClearLogsResult, error)
	DownloadLogs(ctx context.Context) (string, error)
	ExportAnalytics(ctx context.Context) (string, error)
}

// Health starts backend health reporting
type Health interface {
	Start(ctx context.Context)
}

// Deps are the collaborators the model drives
type Deps struct {
	Controller    Controller
	Admin         Admin
	Health        Health
	ToastDuration time.Duration
	LineCounts    []int
}

type confirmAction int

const (
	confirmNone confirmAction = iota
	confirmClearLogs
	confirmClearHistory
)

// Model is the dashboard state
type Model struct {
	ctx    context.Context
	deps   Deps
	styles Styles

	input   textinput.Model
	spinner spinner.Model
	bar     progressbar.Model
	results viewport.Model
	adminVP viewport.Model

	width  int
	height int

	submitEnabled   bool
	loading         bool
	loadingTitle    string
	loadingMessage  string
	progressVisible bool
	sessionID       string
	snapshot        progress.Snapshot
	result          *view.ResultView
	history         []view.HistoryItem
	toasts          *view.Toasts
	conn            view.Connection

	adminVisible bool
	analytics    *view.AnalyticsView
	logs         *view.LogsView

	confirm confirmAction
}

// NewModel creates the dashboard
func NewModel(ctx context.Context, deps Deps) Model {
	input := textinput.New()
	input.Placeholder = "Ask a research question (at least 10 characters)..."
	input.CharLimit = 2000
	input.Width = 70
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	if len(deps.LineCounts) == 0 {
		deps.LineCounts = []int{50, 100, 200, 500}
	}

	return Model{
		ctx:           ctx,
		deps:          deps,
		styles:        DefaultStyles(),
		input:         input,
		spinner:       sp,
		bar:           progressbar.New(progressbar.WithDefaultGradient(), progressbar.WithWidth(40)),
		results:       viewport.New(76, 10),
		adminVP:       viewport.New(76, 16),
		width:         80,
		height:        24,
		submitEnabled: true,
		toasts:        &view.Toasts{},
		conn:          view.Connection{State: view.ConnectionChecking, Label: "Checking..."},
	}
}

// Init starts the cursor, spinner, history render and health checks
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, m.start())
}

func (m Model) start() tea.Cmd {
	ctx, deps := m.ctx, m.deps
	return func() tea.Msg {
		if deps.Controller != nil {
			deps.Controller.RenderHistory()
		}
		if deps.Health != nil {
			deps.Health.Start(ctx)
		}
		return nil
	}
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case submitEnabledMsg:
		m.submitEnabled = bool(msg)

	case loadingMsg:
		m.loading = msg.visible
		m.loadingTitle, m.loadingMessage = msg.title, msg.message

	case progressVisibleMsg:
		m.progressVisible = msg.visible
		if msg.visible {
			m.sessionID = msg.sessionID
			m.snapshot = progress.SnapshotAt(0)
		}

	case progressMsg:
		m.snapshot = progress.Snapshot(msg)

	case resultsMsg:
		r := view.ResultView(msg)
		m.result = &r
		m.refreshResults()
		m.results.GotoTop()

	case historyMsg:
		m.history = []view.HistoryItem(msg)

	case toastMsg:
		t := m.toasts.Push(msg.message, msg.kind, m.deps.ToastDuration)
		id := t.ID
		return m, tea.Tick(t.Duration, func(time.Time) tea.Msg { return toastExpiredMsg{id: id} })

	case toastExpiredMsg:
		m.toasts.Dismiss(msg.id)

	case connectionMsg:
		m.conn = view.Connection(msg)

	case adminVisibleMsg:
		m.adminVisible = bool(msg)
		m.confirm = confirmNone

	case analyticsMsg:
		a := view.AnalyticsView(msg)
		m.analytics = &a
		m.refreshAdmin()

	case logsMsg:
		l := view.LogsView(msg)
		m.logs = &l
		m.refreshAdmin()

	case submitDoneMsg:
		// Failures were already reported through the bridge.
		if msg.err == nil {
			m.input.Reset()
		}
	}
	return m, nil
}

func (m *Model) resize(width, height int) {
	m.width, m.height = width, height
	m.input.Width = max(20, width-6)
	m.bar.Width = max(10, min(60, width-20))
	m.results.Width = max(20, width-4)
	m.results.Height = max(3, height-20)
	m.adminVP.Width = max(20, width-4)
	m.adminVP.Height = max(5, height-10)
	m.refreshResults()
	m.refreshAdmin()
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.confirm != confirmNone {
		action := m.confirm
		m.confirm = confirmNone
		switch msg.String() {
		case "y", "Y":
			return m, m.runConfirmed(action)
		default:
			return m, nil
		}
	}

	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		if m.adminVisible {
			return m, m.toggleAdmin()
		}
		return m, tea.Quit
	case "ctrl+a":
		return m, m.toggleAdmin()
	case "ctrl+x":
		m.toasts.DismissOldest()
		return m, nil
	case "pgup", "pgdown":
		var cmd tea.Cmd
		if m.adminVisible {
			m.adminVP, cmd = m.adminVP.Update(msg)
		} else {
			m.results, cmd = m.results.Update(msg)
		}
		return m, cmd
	}

	if m.adminVisible {
		return m.handleAdminKey(msg)
	}

	switch msg.String() {
	case "ctrl+e":
		ctrl := m.deps.Controller
		if ctrl == nil {
			return m, nil
		}
		return m, m.action(func() error {
			_, err := ctrl.ExportLast(true)
			return err
		})
	case "ctrl+t":
		m.confirm = confirmClearHistory
		return m, nil
	case "enter":
		if !m.submitEnabled || m.deps.Controller == nil {
			return m, nil
		}
		ctx, ctrl, query := m.ctx, m.deps.Controller, m.input.Value()
		return m, func() tea.Msg {
			_, err := ctrl.Submit(ctx, query)
			return submitDoneMsg{err: err}
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleAdminKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	ctx, adm := m.ctx, m.deps.Admin
	if adm == nil {
		return m, nil
	}
	switch msg.String() {
	case "ctrl+r":
		return m, m.action(func() error { return adm.Refresh(ctx) })
	case "ctrl+l":
		next := nextLineCount(m.deps.LineCounts, adm.LineCount())
		return m, m.action(func() error { return adm.SetLineCount(ctx, next) })
	case "ctrl+d":
		return m, m.action(func() error {
			_, err := adm.DownloadLogs(ctx)
			return err
		})
	case "ctrl+s":
		return m, m.action(func() error {
			_, err := adm.ExportAnalytics(ctx)
			return err
		})
	case "ctrl+k":
		m.confirm = confirmClearLogs
	}
	return m, nil
}

func (m Model) runConfirmed(action confirmAction) tea.Cmd {
	ctx := m.ctx
	switch action {
	case confirmClearLogs:
		adm := m.deps.Admin
		if adm == nil {
			return nil
		}
		return m.action(func() error {
			// The user already answered the prompt.
			_, err := adm.ClearLogs(ctx, func() bool { return true })
			return err
		})
	case confirmClearHistory:
		if m.deps.Controller == nil {
			return nil
		}
		return m.action(m.deps.Controller.ClearHistory)
	}
	return nil
}

func (m Model) toggleAdmin() tea.Cmd {
	if m.deps.Admin == nil {
		return nil
	}
	ctx, adm := m.ctx, m.deps.Admin
	return m.action(func() error {
		adm.Toggle(ctx)
		return nil
	})
}

// action runs fn off the event loop; fn reports its own failures.
func (m Model) action(fn func() error) tea.Cmd {
	return func() tea.Msg {
		return actionDoneMsg{err: fn()}
	}
}

func nextLineCount(counts []int, current int) int {
	i := slices.Index(counts, current)
	return counts[(i+1)%len(counts)]
}

// View renders the dashboard
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.headerView())
	b.WriteString("\n\n")

	if m.adminVisible {
		b.WriteString(m.adminView())
	} else {
		b.WriteString(m.researchView())
	}

	if toasts := m.toastsView(); toasts != "" {
		b.WriteString("\n")
		b.WriteString(toasts)
	}

	switch m.confirm {
	case confirmClearLogs:
		b.WriteString("\n" + m.styles.Toast[view.ToastWarning].Render("Clear all backend logs? A backup is kept but this cannot be undone. (y/n)"))
	case confirmClearHistory:
		b.WriteString("\n" + m.styles.Toast[view.ToastWarning].Render("Clear research history? (y/n)"))
	}

	b.WriteString("\n")
	b.WriteString(m.helpView())
	return b.String()
}

func (m Model) headerView() string {
	title := m.styles.Header.Render("Research Agent Dashboard")
	conn := m.styles.Connection[m.conn.State].Render("● " + m.conn.Label)
	if m.conn.Version != "" {
		conn += " " + m.styles.Muted.Render("v"+m.conn.Version)
	}
	return title + "  " + conn
}

func (m Model) researchView() string {
	var b strings.Builder

	b.WriteString("> " + m.input.View())
	if !m.submitEnabled {
		b.WriteString(" " + m.styles.Muted.Render("(working)"))
	}
	b.WriteString("\n\n")

	switch {
	case m.loading || m.progressVisible:
		b.WriteString(m.loadingView())
	case m.result != nil:
		b.WriteString(m.resultView())
	}

	b.WriteString("\n" + m.styles.Title.Render("History") + "\n")
	if len(m.history) == 0 {
		b.WriteString(m.styles.Muted.Render(view.EmptyHistoryMessage) + "\n")
	}
	for i, item := range m.history {
		if i == historyRows {
			b.WriteString(m.styles.Muted.Render(fmt.Sprintf("  ... %d more", len(m.history)-historyRows)) + "\n")
			break
		}
		meta := fmt.Sprintf("%s · %d tool(s) · %s", item.Time, item.ToolCount, item.ProcessingTime)
		b.WriteString("• " + item.Query + "  " + m.styles.Muted.Render(meta) + "\n")
	}
	return b.String()
}

func (m Model) loadingView() string {
	var b strings.Builder

	if m.loading {
		b.WriteString(m.spinner.View() + " " + m.styles.Bold.Render(m.loadingTitle) + "\n")
		b.WriteString(m.styles.Muted.Render(m.loadingMessage) + "\n")

		steps := make([]string, 0, len(view.Steps))
		for i, name := range view.Steps {
			n := i + 1
			label := fmt.Sprintf("%d. %s", n, name)
			switch {
			case n < m.snapshot.Step:
				steps = append(steps, m.styles.StepDone.Render("✓ "+label))
			case n == m.snapshot.Step:
				steps = append(steps, m.styles.StepActive.Render(label))
			default:
				steps = append(steps, m.styles.StepPending.Render(label))
			}
		}
		b.WriteString(strings.Join(steps, "  →  ") + "\n\n")
	}

	if m.progressVisible {
		b.WriteString(m.bar.ViewAs(m.snapshot.Percent/100) + "\n")
		b.WriteString(m.snapshot.Status + "\n")
		if tags := m.tagsView(view.FormatToolNames(m.snapshot.Tools)); tags != "" {
			b.WriteString(tags + "\n")
		}
		b.WriteString(m.styles.Muted.Render("Session: "+m.sessionID) + "\n")
	}
	return b.String()
}

func (m Model) resultView() string {
	var b strings.Builder
	b.WriteString(m.styles.Title.Render("Results") + "\n")
	b.WriteString(m.results.View() + "\n")

	meta := fmt.Sprintf("⏱ %s · tokens %s · tools: %s", m.result.ProcessingTime, m.result.TokenEstimate, m.result.ToolsSummary)
	b.WriteString(m.styles.Muted.Render(meta) + "\n")
	if tags := m.tagsView(m.result.ToolTags); tags != "" {
		b.WriteString(tags + "\n")
	}
	return b.String()
}

func (m Model) tagsView(names []string) string {
	tags := make([]string, 0, len(names))
	for _, n := range names {
		tags = append(tags, m.styles.Tag.Render(n))
	}
	return strings.Join(tags, " ")
}

func (m *Model) refreshResults() {
	if m.result == nil {
		return
	}
	m.results.SetContent(renderDocument(m.result.Answer, m.styles, m.results.Width))
}

func (m *Model) refreshAdmin() {
	m.adminVP.SetContent(renderAdmin(m.analytics, m.logs, m.styles))
}

func (m Model) adminView() string {
	lines := 0
	if m.deps.Admin != nil {
		lines = m.deps.Admin.LineCount()
	}
	return m.styles.Title.Render("Admin") + "  " + m.styles.Muted.Render(fmt.Sprintf("log lines: %d", lines)) + "\n" + m.adminVP.View() + "\n"
}

func (m Model) toastsView() string {
	items := m.toasts.Items()
	lines := make([]string, 0, len(items))
	for _, t := range items {
		lines = append(lines, m.styles.Toast[t.Kind].Render(t.Kind.Icon()+" "+t.Message))
	}
	return strings.Join(lines, "\n")
}

func (m Model) helpView() string {
	if m.adminVisible {
		return m.styles.Muted.Render("ctrl+r refresh · ctrl+l lines · ctrl+d download logs · ctrl+s export analytics · ctrl+k clear logs · ctrl+x dismiss · esc back")
	}
	return m.styles.Muted.Render("enter submit · ctrl+a admin · ctrl+e export · ctrl+t clear history · ctrl+x dismiss · esc quit")
}
