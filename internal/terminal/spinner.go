package terminal

import (
	"fmt"
	"io"
	"sync"
	"time"
)

var spinnerChars = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spinner animates a single status line until stopped. The message can be
// changed while it spins.
type Spinner struct {
	out      io.Writer
	interval time.Duration

	mu      sync.Mutex
	message string
	done    chan struct{}
	exited  chan struct{}
}

// NewSpinner creates a stopped spinner writing to out
func NewSpinner(out io.Writer) *Spinner {
	return &Spinner{out: out, interval: 80 * time.Millisecond}
}

// Start shows the spinner with msg, replacing a running one
func (s *Spinner) Start(msg string) {
	s.Stop()

	s.mu.Lock()
	s.message = msg
	s.done = make(chan struct{})
	s.exited = make(chan struct{})
	done, exited := s.done, s.exited
	s.mu.Unlock()

	go s.spin(done, exited)
}

// Update changes the message of a running spinner
func (s *Spinner) Update(msg string) {
	s.mu.Lock()
	s.message = msg
	s.mu.Unlock()
}

// Stop halts the spinner and clears its line. It returns once the line
// has been cleared.
func (s *Spinner) Stop() {
	s.mu.Lock()
	done, exited := s.done, s.exited
	s.done, s.exited = nil, nil
	s.mu.Unlock()

	if done == nil {
		return
	}
	close(done)
	<-exited
}

// Active reports whether the spinner is running
func (s *Spinner) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done != nil
}

func (s *Spinner) spin(done, exited chan struct{}) {
	defer close(exited)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	i := 0
	for {
		s.mu.Lock()
		msg := s.message
		s.mu.Unlock()
		fmt.Fprintf(s.out, "\r%s%s%s %s%s", ClearLine(), colorCyan, spinnerChars[i], msg, colorReset)
		i = (i + 1) % len(spinnerChars)

		select {
		case <-done:
			// Clear the spinner line
			fmt.Fprintf(s.out, "\r%s\r", ClearLine())
			return
		case <-ticker.C:
		}
	}
}
