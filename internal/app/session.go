package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewSessionID returns a time-based session identifier of the form
// session_<unix millis>_<9 hex chars>.
func NewSessionID() string {
	return newSessionIDAt(time.Now())
}

func newSessionIDAt(now time.Time) string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	// The first 12 hex digits of a v7 UUID are the timestamp; take the
	// random tail instead.
	hex := strings.ReplaceAll(id.String(), "-", "")
	return fmt.Sprintf("session_%d_%s", now.UnixMilli(), hex[len(hex)-9:])
}
