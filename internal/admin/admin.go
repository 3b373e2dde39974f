// Package admin drives the admin panel: analytics and log monitoring for
// the research backend, refreshed on an interval while the panel is visible.
package admin

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"research-dash/internal/api"
	"research-dash/internal/poll"
	"research-dash/internal/view"
)

// DefaultInterval is the admin refresh period
const DefaultInterval = 30 * time.Second

// LineCounts are the log line counts the panel offers
var LineCounts = []int{50, 100, 200, 500}

var (
	// ErrNotConfirmed is returned when a destructive action was declined
	ErrNotConfirmed = errors.New("action not confirmed")

	// ErrInvalidLineCount is returned for a line count outside LineCounts
	ErrInvalidLineCount = errors.New("invalid log line count")
)

// Backend is the subset of the API client the admin panel uses
type Backend interface {
	GetAnalytics(ctx context.Context) (*api.AnalyticsSnapshot, error)
	GetLogs(ctx context.Context, lines int) (*api.LogsResponse, error)
	DownloadLogs(ctx context.Context) (*api.LogDownload, error)
	ClearLogs(ctx context.Context) (*api.ClearLogsResult, error)
}

// Exporter saves admin downloads
type Exporter interface {
	Analytics(s *api.AnalyticsSnapshot) (string, error)
	Logs(d *api.LogDownload) (string, error)
}

// View renders the admin panel. RenderAnalytics and RenderLogs may be
// called concurrently.
type View interface {
	ShowAdminPanel(visible bool)
	RenderAnalytics(v view.AnalyticsView)
	RenderLogs(v view.LogsView)
	ShowToast(message string, kind view.ToastKind)
}

// Manager owns admin panel visibility and its refresh loop
type Manager struct {
	backend  Backend
	exporter Exporter
	view     View
	logger   *zap.Logger
	poller   *poll.Poller

	// transition serialises Show, Hide and Toggle including the poller
	// start and stop
	transition sync.Mutex

	mu            sync.Mutex
	visible       bool
	lines         int
	lastAnalytics *api.AnalyticsSnapshot
}

// NewManager creates a hidden admin panel. interval <= 0 uses
// DefaultInterval; an unsupported line count falls back to 100.
func NewManager(backend Backend, exporter Exporter, v View, interval time.Duration, lines int, logger *zap.Logger) *Manager {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if !slices.Contains(LineCounts, lines) {
		lines = 100
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Manager{
		backend:  backend,
		exporter: exporter,
		view:     v,
		logger:   logger.Named("admin"),
		lines:    lines,
	}
	m.poller = poll.New(interval, func(ctx context.Context) {
		_ = m.Refresh(ctx)
	})
	return m
}

// Show makes the panel visible and starts refreshing: once immediately,
// then every interval.
func (m *Manager) Show(ctx context.Context) {
	m.transition.Lock()
	defer m.transition.Unlock()
	m.showLocked(ctx)
}

// Hide stops refreshing and hides the panel. No backend call from the
// refresh loop happens after Hide returns.
func (m *Manager) Hide() {
	m.transition.Lock()
	defer m.transition.Unlock()
	m.hideLocked()
}

// Toggle flips visibility
func (m *Manager) Toggle(ctx context.Context) {
	m.transition.Lock()
	defer m.transition.Unlock()

	if m.Visible() {
		m.hideLocked()
		return
	}
	m.showLocked(ctx)
}

func (m *Manager) showLocked(ctx context.Context) {
	m.mu.Lock()
	m.visible = true
	m.mu.Unlock()

	m.view.ShowAdminPanel(true)
	m.poller.Start(ctx)
	m.logger.Debug("admin panel shown")
}

func (m *Manager) hideLocked() {
	m.poller.Stop()

	m.mu.Lock()
	m.visible = false
	m.mu.Unlock()

	m.view.ShowAdminPanel(false)
	m.logger.Debug("admin panel hidden")
}

// Visible reports whether the panel is showing
func (m *Manager) Visible() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.visible
}

// LineCount is the number of log lines requested
func (m *Manager) LineCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lines
}

// Refresh loads analytics and logs concurrently. Each half renders its own
// result or error; the first error is returned.
func (m *Manager) Refresh(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error { return m.LoadAnalytics(ctx) })
	g.Go(func() error { return m.LoadLogs(ctx) })
	return g.Wait()
}

// LoadAnalytics fetches and renders the analytics snapshot
func (m *Manager) LoadAnalytics(ctx context.Context) error {
	snap, err := m.backend.GetAnalytics(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return err
		}
		m.logger.Warn("failed to load analytics", zap.Error(err))
		m.view.ShowToast(fmt.Sprintf("Failed to load analytics: %v", err), view.ToastError)
		return err
	}

	m.mu.Lock()
	m.lastAnalytics = snap
	m.mu.Unlock()

	m.view.RenderAnalytics(view.NewAnalyticsView(snap))
	return nil
}

// LoadLogs fetches and renders the most recent log lines
func (m *Manager) LoadLogs(ctx context.Context) error {
	resp, err := m.backend.GetLogs(ctx, m.LineCount())
	if err != nil {
		if ctx.Err() != nil {
			return err
		}
		m.logger.Warn("failed to load logs", zap.Error(err))
		m.view.ShowToast(fmt.Sprintf("Failed to load logs: %v", err), view.ToastError)
		return err
	}
	m.view.RenderLogs(view.NewLogsView(resp))
	return nil
}

// SetLineCount changes the requested log line count and reloads the logs
func (m *Manager) SetLineCount(ctx context.Context, lines int) error {
	if !slices.Contains(LineCounts, lines) {
		return fmt.Errorf("%w: %d", ErrInvalidLineCount, lines)
	}

	m.mu.Lock()
	m.lines = lines
	m.mu.Unlock()

	return m.LoadLogs(ctx)
}

// ClearLogs asks confirm and, only if it returns true, clears the backend
// log file, reports the backup file and reloads the log view.
func (m *Manager) ClearLogs(ctx context.Context, confirm func() bool) (*api.ClearLogsResult, error) {
	if confirm == nil || !confirm() {
		return nil, ErrNotConfirmed
	}

	res, err := m.backend.ClearLogs(ctx)
	if err != nil {
		m.logger.Error("failed to clear logs", zap.Error(err))
		m.view.ShowToast(fmt.Sprintf("Failed to clear logs: %v", err), view.ToastError)
		return nil, err
	}

	if res.BackupFile != "" {
		m.view.ShowToast(fmt.Sprintf("Logs cleared. Backup saved as %s", res.BackupFile), view.ToastSuccess)
	} else {
		msg := res.Message
		if msg == "" {
			msg = "Logs cleared"
		}
		m.view.ShowToast(msg, view.ToastInfo)
	}
	m.logger.Info("backend logs cleared", zap.String("backup", res.BackupFile))

	_ = m.LoadLogs(ctx)
	return res, nil
}

// DownloadLogs saves the raw backend log file and returns its path
func (m *Manager) DownloadLogs(ctx context.Context) (string, error) {
	d, err := m.backend.DownloadLogs(ctx)
	if err != nil {
		m.view.ShowToast(fmt.Sprintf("Failed to download logs: %v", err), view.ToastError)
		return "", err
	}
	path, err := m.exporter.Logs(d)
	if err != nil {
		m.view.ShowToast(fmt.Sprintf("Failed to save logs: %v", err), view.ToastError)
		return "", err
	}
	m.view.ShowToast(fmt.Sprintf("Logs saved to %s", path), view.ToastSuccess)
	return path, nil
}

// ExportAnalytics saves the last loaded snapshot, fetching one first if
// the panel has not loaded any yet.
func (m *Manager) ExportAnalytics(ctx context.Context) (string, error) {
	m.mu.Lock()
	snap := m.lastAnalytics
	m.mu.Unlock()

	if snap == nil {
		var err error
		snap, err = m.backend.GetAnalytics(ctx)
		if err != nil {
			m.view.ShowToast(fmt.Sprintf("Failed to load analytics: %v", err), view.ToastError)
			return "", err
		}
	}

	path, err := m.exporter.Analytics(snap)
	if err != nil {
		m.view.ShowToast(fmt.Sprintf("Failed to export analytics: %v", err), view.ToastError)
		return "", err
	}
	m.view.ShowToast(fmt.Sprintf("Analytics exported to %s", path), view.ToastSuccess)
	return path, nil
}
