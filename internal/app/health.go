package app

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"research-dash/internal/api"
	"research-dash/internal/poll"
	"research-dash/internal/view"
)

// DefaultHealthInterval is how often the backend is checked
const DefaultHealthInterval = 30 * time.Second

// HealthChecker probes the backend
type HealthChecker interface {
	CheckHealth(ctx context.Context) (*api.HealthStatus, error)
}

// ConnectionView shows the connection indicator
type ConnectionView interface {
	SetConnection(c view.Connection)
}

// HealthMonitor checks the backend on start and on an interval and maps
// each outcome to the connection indicator.
type HealthMonitor struct {
	checker HealthChecker
	view    ConnectionView
	logger  *zap.Logger
	poller  *poll.Poller

	mu   sync.Mutex
	last view.Connection
}

// NewHealthMonitor creates a stopped monitor. interval <= 0 uses
// DefaultHealthInterval.
func NewHealthMonitor(checker HealthChecker, v ConnectionView, interval time.Duration, logger *zap.Logger) *HealthMonitor {
	if interval <= 0 {
		interval = DefaultHealthInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &HealthMonitor{
		checker: checker,
		view:    v,
		logger:  logger.Named("health"),
		last:    view.Connection{State: view.ConnectionChecking, Label: "Checking..."},
	}
	h.poller = poll.New(interval, func(ctx context.Context) {
		h.Check(ctx)
	})
	return h
}

// Start begins checking
func (h *HealthMonitor) Start(ctx context.Context) {
	h.view.SetConnection(h.Last())
	h.poller.Start(ctx)
}

// Stop ends checking and waits for an in-flight check to finish
func (h *HealthMonitor) Stop() {
	h.poller.Stop()
}

// Check probes the backend once and updates the indicator
func (h *HealthMonitor) Check(ctx context.Context) view.Connection {
	status, err := h.checker.CheckHealth(ctx)
	if err != nil && ctx.Err() != nil {
		return h.Last()
	}

	conn := view.ConnectionFor(status, err)
	if err != nil {
		h.logger.Warn("health check failed", zap.Error(err))
	} else {
		h.logger.Debug("health check",
			zap.String("status", status.Status),
			zap.Bool("agent_ready", status.AgentReady))
	}

	h.mu.Lock()
	changed := h.last != conn
	h.last = conn
	h.mu.Unlock()

	if changed {
		h.logger.Info("connection state changed", zap.String("state", string(conn.State)))
	}
	h.view.SetConnection(conn)
	return conn
}

// Last returns the most recent indicator state
func (h *HealthMonitor) Last() view.Connection {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.last
}
