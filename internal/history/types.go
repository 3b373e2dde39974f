package history

import "fmt"

// StorageKey is the fixed key the history list lives under
const StorageKey = "research_history"

// DefaultMaxEntries caps the persisted list
const DefaultMaxEntries = 10

// Entry records one successful research submission
type Entry struct {
	ID             int64    `json:"id"` // unix millis at creation, strictly increasing
	Query          string   `json:"query"`
	Timestamp      string   `json:"timestamp"`
	ToolsUsed      []string `json:"tools_used"`
	ProcessingTime float64  `json:"processing_time"`
	SessionID      string   `json:"session_id"`
}

// ParseError reports a persisted history value that could not be decoded
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("history: malformed persisted data: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
