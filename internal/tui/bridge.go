package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"research-dash/internal/progress"
	"research-dash/internal/view"
)

// Messages delivered to the model from controller goroutines

type submitEnabledMsg bool

type loadingMsg struct {
	visible bool
	title   string
	message string
}

type progressVisibleMsg struct {
	visible   bool
	sessionID string
}

type progressMsg progress.Snapshot

type resultsMsg view.ResultView

type historyMsg []view.HistoryItem

type toastMsg struct {
	message string
	kind    view.ToastKind
}

type toastExpiredMsg struct{ id int }

type connectionMsg view.Connection

type adminVisibleMsg bool

type analyticsMsg view.AnalyticsView

type logsMsg view.LogsView

type submitDoneMsg struct{ err error }

type actionDoneMsg struct{ err error }

// Bridge implements the controller and admin views by forwarding every
// call to the running program as a message. It is safe for concurrent use.
// Messages sent before Attach are dropped.
type Bridge struct {
	mu   sync.RWMutex
	send func(tea.Msg)
}

// NewBridge creates a bridge that delivers messages with send, normally
// (*tea.Program).Send. send may be nil and attached later.
func NewBridge(send func(tea.Msg)) *Bridge {
	return &Bridge{send: send}
}

// Attach sets the delivery function
func (b *Bridge) Attach(send func(tea.Msg)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.send = send
}

func (b *Bridge) deliver(msg tea.Msg) {
	b.mu.RLock()
	send := b.send
	b.mu.RUnlock()
	if send != nil {
		send(msg)
	}
}

func (b *Bridge) SetSubmitEnabled(enabled bool) { b.deliver(submitEnabledMsg(enabled)) }

func (b *Bridge) ShowLoading(title, message string) {
	b.deliver(loadingMsg{visible: true, title: title, message: message})
}

func (b *Bridge) HideLoading() { b.deliver(loadingMsg{}) }

func (b *Bridge) ShowProgress(sessionID string) {
	b.deliver(progressVisibleMsg{visible: true, sessionID: sessionID})
}

func (b *Bridge) UpdateProgress(s progress.Snapshot) { b.deliver(progressMsg(s)) }

func (b *Bridge) HideProgress() { b.deliver(progressVisibleMsg{}) }

func (b *Bridge) ShowResults(r view.ResultView) { b.deliver(resultsMsg(r)) }

func (b *Bridge) RenderHistory(items []view.HistoryItem) { b.deliver(historyMsg(items)) }

func (b *Bridge) ShowToast(message string, kind view.ToastKind) {
	b.deliver(toastMsg{message: message, kind: kind})
}

func (b *Bridge) SetConnection(c view.Connection) { b.deliver(connectionMsg(c)) }

func (b *Bridge) ShowAdminPanel(visible bool) { b.deliver(adminVisibleMsg(visible)) }

func (b *Bridge) RenderAnalytics(v view.AnalyticsView) { b.deliver(analyticsMsg(v)) }

func (b *Bridge) RenderLogs(v view.LogsView) { b.deliver(logsMsg(v)) }
