// Package app wires research submission, progress, history and health
// reporting together behind a rendering-agnostic View.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"research-dash/internal/api"
	"research-dash/internal/history"
	"research-dash/internal/progress"
	"research-dash/internal/view"
)

// MinQueryLength is the shortest query accepted for submission, in characters
const MinQueryLength = 10

var (
	// ErrSubmitInProgress is returned when Submit is called while another
	// submission has not settled
	ErrSubmitInProgress = errors.New("a research request is already in progress")

	// ErrNoResult is returned by ExportLast before any research completed
	ErrNoResult = errors.New("no research results to export")
)

// State is the submission lifecycle stage
type State int

const (
	StateIdle State = iota
	StateValidating
	StateSubmitting
	StateSettled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateValidating:
		return "validating"
	case StateSubmitting:
		return "submitting"
	case StateSettled:
		return "settled"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// View renders the research panel
type View interface {
	SetSubmitEnabled(enabled bool)
	ShowLoading(title, message string)
	HideLoading()
	ShowProgress(sessionID string)
	UpdateProgress(s progress.Snapshot)
	HideProgress()
	ShowResults(r view.ResultView)
	RenderHistory(items []view.HistoryItem)
	ShowToast(message string, kind view.ToastKind)
}

// Researcher submits queries to the backend
type Researcher interface {
	SubmitResearch(ctx context.Context, query, sessionID string) (*api.ResearchResult, error)
}

// History persists completed research
type History interface {
	Add(query string, result *api.ResearchResult) (history.Entry, error)
	List() []history.Entry
	Clear() error
}

// ResultExporter saves research results
type ResultExporter interface {
	Results(query string, r *api.ResearchResult) (string, error)
	ResultsHTML(query string, r *api.ResearchResult) (string, error)
}

// Options tunes the controller
type Options struct {
	Progress       progress.Options
	SettleDelay    time.Duration // pause between 100% and showing results
	HistoryPreview int
	BackendPort    string // named in the connection error hint
	SessionID      string // reused for every submission when set
}

// Controller drives one research submission at a time:
// idle -> validating -> submitting -> settled -> idle.
type Controller struct {
	backend  Researcher
	history  History
	exporter ResultExporter
	view     View
	opts     Options
	logger   *zap.Logger

	estimator    *progress.Estimator
	newSessionID func() string

	mu         sync.Mutex
	state      State
	lastQuery  string
	lastResult *api.ResearchResult
}

// NewController creates an idle controller
func NewController(backend Researcher, hist History, exporter ResultExporter, v View, opts Options, logger *zap.Logger) *Controller {
	if opts.SettleDelay < 0 {
		opts.SettleDelay = 0
	}
	if opts.BackendPort == "" {
		opts.BackendPort = "8001"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Controller{
		backend:      backend,
		history:      hist,
		exporter:     exporter,
		view:         v,
		opts:         opts,
		logger:       logger.Named("app"),
		newSessionID: NewSessionID,
	}
	if opts.SessionID != "" {
		c.newSessionID = func() string { return opts.SessionID }
	}
	c.estimator = progress.New(opts.Progress, v.UpdateProgress)
	return c
}

// State returns the current lifecycle stage
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// Submit validates query, sends it to the backend and routes the outcome
// to the view. Validation failures return an *api.ValidationError without
// contacting the backend. Loading chrome is always removed and submission
// re-enabled before Submit returns.
func (c *Controller) Submit(ctx context.Context, query string) (*api.ResearchResult, error) {
	c.mu.Lock()
	if c.state != StateIdle {
		c.mu.Unlock()
		return nil, ErrSubmitInProgress
	}
	c.state = StateValidating
	c.mu.Unlock()

	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		c.setState(StateIdle)
		msg := "Please enter a research query"
		c.view.ShowToast(msg, view.ToastError)
		return nil, &api.ValidationError{Field: "query", Message: msg}
	}
	if utf8.RuneCountInString(trimmed) < MinQueryLength {
		c.setState(StateIdle)
		msg := fmt.Sprintf("Please enter a more detailed query (at least %d characters)", MinQueryLength)
		c.view.ShowToast(msg, view.ToastWarning)
		return nil, &api.ValidationError{Field: "query", Message: msg}
	}

	c.setState(StateSubmitting)
	sessionID := c.newSessionID()
	logger := c.logger.With(zap.String("session_id", sessionID))

	c.view.SetSubmitEnabled(false)
	c.view.ShowLoading("Researching...", "Analyzing your query and gathering information")
	c.view.ShowProgress(sessionID)
	defer func() {
		c.estimator.Stop()
		c.view.HideLoading()
		c.view.HideProgress()
		c.view.SetSubmitEnabled(true)
		c.setState(StateIdle)
	}()

	c.estimator.Start(ctx)
	logger.Info("submitting research", zap.Int("query_len", len(trimmed)))

	result, err := c.backend.SubmitResearch(ctx, trimmed, sessionID)
	c.estimator.Stop()
	c.setState(StateSettled)

	if err != nil {
		logger.Error("research failed", zap.Error(err))
		c.view.ShowToast(view.ErrorMessage(err, c.opts.BackendPort), view.ToastError)
		return nil, err
	}

	c.estimator.Complete()
	c.settle(ctx)

	c.mu.Lock()
	c.lastQuery = trimmed
	c.lastResult = result
	c.mu.Unlock()

	c.view.ShowResults(view.NewResultView(result))

	if _, err := c.history.Add(trimmed, result); err != nil {
		logger.Warn("failed to save history", zap.Error(err))
		c.view.ShowToast(fmt.Sprintf("Could not save to history: %v", err), view.ToastWarning)
	}
	c.RenderHistory()

	logger.Info("research completed",
		zap.Float64("processing_time", result.ProcessingTime),
		zap.Strings("tools_used", result.ToolsUsed))
	c.view.ShowToast(fmt.Sprintf("Research completed in %s using %d tool(s)",
		view.FormatProcessingTime(result.ProcessingTime), len(result.ToolsUsed)), view.ToastSuccess)

	return result, nil
}

// settle waits out the cosmetic delay after the bar reaches 100%
func (c *Controller) settle(ctx context.Context) {
	if c.opts.SettleDelay <= 0 {
		return
	}
	timer := time.NewTimer(c.opts.SettleDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// LastResult returns the most recent successful query and result
func (c *Controller) LastResult() (string, *api.ResearchResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastQuery, c.lastResult
}

// RenderHistory pushes the persisted history to the view
func (c *Controller) RenderHistory() {
	c.view.RenderHistory(view.HistoryItems(c.history.List(), c.opts.HistoryPreview))
}

// ClearHistory deletes the persisted history and re-renders it
func (c *Controller) ClearHistory() error {
	if err := c.history.Clear(); err != nil {
		c.view.ShowToast(fmt.Sprintf("Failed to clear history: %v", err), view.ToastError)
		return err
	}
	c.RenderHistory()
	c.view.ShowToast("History cleared", view.ToastInfo)
	return nil
}

// ExportLast saves the last successful result as JSON, and as HTML too
// when withHTML is set. It returns the written paths.
func (c *Controller) ExportLast(withHTML bool) ([]string, error) {
	query, result := c.LastResult()
	if result == nil {
		c.view.ShowToast("No results to export", view.ToastWarning)
		return nil, ErrNoResult
	}

	path, err := c.exporter.Results(query, result)
	if err != nil {
		c.view.ShowToast(fmt.Sprintf("Export failed: %v", err), view.ToastError)
		return nil, err
	}
	paths := []string{path}

	if withHTML {
		htmlPath, err := c.exporter.ResultsHTML(query, result)
		if err != nil {
			c.view.ShowToast(fmt.Sprintf("Export failed: %v", err), view.ToastError)
			return paths, err
		}
		paths = append(paths, htmlPath)
	}

	c.view.ShowToast(fmt.Sprintf("Results exported to %s", strings.Join(paths, ", ")), view.ToastSuccess)
	return paths, nil
}
