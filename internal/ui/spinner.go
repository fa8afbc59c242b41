// spinner.go implements the CLI spinner shown on stderr while cwl waits for the log store.
package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

var spinnerFrames = []rune{'|', '/', '-', '\\'}

// SpinnerInterval is the delay between frames.
const SpinnerInterval = 120 * time.Millisecond

// Spinner animates a status message until stopped.
type Spinner struct {
	w       io.Writer
	message string
	done    chan struct{}
	exited  chan struct{}
	once    sync.Once
}

// StartSpinner draws an ASCII spinner next to message on w until the returned
// Spinner is stopped. When w is not a terminal nothing is drawn.
func StartSpinner(w io.Writer, message string) *Spinner {
	s := &Spinner{w: w, message: message, done: make(chan struct{}), exited: make(chan struct{})}
	if !IsTerminal(w) {
		close(s.exited)
		s.w = nil
		return s
	}
	go s.run()
	return s
}

func (s *Spinner) run() {
	defer close(s.exited)
	ticker := time.NewTicker(SpinnerInterval)
	defer ticker.Stop()
	idx := 0
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			fmt.Fprintf(s.w, "\r%s %c", s.message, spinnerFrames[idx])
			idx = (idx + 1) % len(spinnerFrames)
		}
	}
}

// Stop halts the animation. On success the spinner line is cleared; on
// failure it is left with a "[fail]" marker. Stop is idempotent.
func (s *Spinner) Stop(success bool) {
	s.once.Do(func() {
		close(s.done)
		<-s.exited
		if s.w == nil {
			return
		}
		if success {
			fmt.Fprintf(s.w, "\r%s\r", strings.Repeat(" ", len(s.message)+2))
			return
		}
		fmt.Fprintf(s.w, "\r%s [fail]\n", s.message)
	})
}
