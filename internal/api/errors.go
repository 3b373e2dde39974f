package api

import (
	"fmt"
)

// ValidationError is returned before any request is made when the input
// cannot be sent to the backend.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// HTTPError is a non-2xx response from the backend. Detail carries the
// backend's "detail" field when the body had one.
type HTTPError struct {
	StatusCode int
	Status     string
	Detail     string
}

func (e *HTTPError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Status)
}

// ConnectionError is a transport-level failure reaching the backend.
type ConnectionError struct {
	URL     string
	Timeout bool
	Err     error
}

func (e *ConnectionError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("request to research backend timed out (%s): %v", e.URL, e.Err)
	}
	return fmt.Sprintf("failed to connect to research backend at %s: %v", e.URL, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}
