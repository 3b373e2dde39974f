package view

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"research-dash/internal/api"
)

// Steps are the loading overlay stages in order
var Steps = [3]string{"Analyzing query", "Using tools", "Generating answer"}

// StepFor maps a progress percentage to a 1-based step
func StepFor(percent float64) int {
	switch {
	case percent < 30:
		return 1
	case percent < 70:
		return 2
	default:
		return 3
	}
}

// StepMessage is the step label for a progress percentage
func StepMessage(percent float64) string {
	return Steps[StepFor(percent)-1]
}

// ConnectionState is the three-way backend indicator
type ConnectionState string

const (
	ConnectionChecking  ConnectionState = "checking"
	ConnectionConnected ConnectionState = "connected"
	ConnectionWarning   ConnectionState = "warning"
	ConnectionError     ConnectionState = "error"
)

// Connection is the indicator shown in the header
type Connection struct {
	State   ConnectionState
	Label   string
	Version string
}

// ConnectionFor maps a health check outcome to the indicator
func ConnectionFor(h *api.HealthStatus, err error) Connection {
	switch {
	case err != nil || h == nil:
		return Connection{State: ConnectionError, Label: "Disconnected"}
	case h.Status == "healthy" && h.AgentReady:
		return Connection{State: ConnectionConnected, Label: "Connected", Version: h.Version}
	default:
		return Connection{State: ConnectionWarning, Label: "Agent not ready", Version: h.Version}
	}
}

// ErrorMessage turns a failed submission into the text shown to the user.
// Typed API errors are matched first, then the message text. A backend
// detail is shown as sent unless it names a connection or timeout problem.
func ErrorMessage(err error, port string) string {
	if err == nil {
		return ""
	}
	connectHint := fmt.Sprintf("Cannot connect to the research backend. Please ensure the backend server is running on port %s.", port)
	const timeoutHint = "The research request timed out. The query may need more time; please try again."
	const serverHint = "The research backend encountered an internal error. Please try again later."

	var cerr *api.ConnectionError
	var herr *api.HTTPError
	switch {
	case errors.As(err, &cerr) && cerr.Timeout:
		return timeoutHint
	case errors.As(err, &cerr):
		return connectHint
	case errors.As(err, &herr) && herr.StatusCode == 500 && herr.Detail == "":
		return serverHint
	}

	msg := err.Error()
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "connect"):
		return connectHint
	case strings.Contains(lower, "timeout"), strings.Contains(lower, "timed out"):
		return timeoutHint
	case strings.Contains(msg, "500"):
		return serverHint
	default:
		return msg
	}
}

// ToastKind selects the toast colour and icon
type ToastKind string

const (
	ToastSuccess ToastKind = "success"
	ToastError   ToastKind = "error"
	ToastWarning ToastKind = "warning"
	ToastInfo    ToastKind = "info"
)

// DefaultToastDuration is how long a toast stays up
const DefaultToastDuration = 5 * time.Second

// Icon returns the glyph shown before a toast message
func (k ToastKind) Icon() string {
	switch k {
	case ToastSuccess:
		return "✓"
	case ToastError:
		return "✗"
	case ToastWarning:
		return "⚠"
	default:
		return "ℹ"
	}
}

// Toast is a transient notification
type Toast struct {
	ID       int
	Message  string
	Kind     ToastKind
	Duration time.Duration
}

// Toasts is the stack of visible toasts, oldest first
type Toasts struct {
	mu     sync.Mutex
	nextID int
	items  []Toast
}

// Push adds a toast and returns it with its assigned ID. A non-positive
// duration uses DefaultToastDuration.
func (s *Toasts) Push(message string, kind ToastKind, d time.Duration) Toast {
	if d <= 0 {
		d = DefaultToastDuration
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	t := Toast{ID: s.nextID, Message: message, Kind: kind, Duration: d}
	s.items = append(s.items, t)
	return t
}

// Dismiss removes the toast with id; unknown ids are ignored
func (s *Toasts) Dismiss(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, t := range s.items {
		if t.ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return
		}
	}
}

// DismissOldest removes the oldest toast, reporting whether one existed
func (s *Toasts) DismissOldest() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.items) == 0 {
		return false
	}
	s.items = s.items[1:]
	return true
}

// Items returns a copy of the visible toasts
func (s *Toasts) Items() []Toast {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Toast(nil), s.items...)
}
