package cli

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const spinnerInterval = 100 * time.Millisecond

// Spinner animates one status line while a slow step, such as fiat
// verification, runs.
type Spinner struct {
	label   string
	out     io.Writer
	animate bool

	once    sync.Once
	started bool
	stop    chan struct{}
	wg      sync.WaitGroup
}

// Spinner returns a spinner writing to the printer's output. It only animates
// when the printer colorizes.
func (p *Printer) Spinner(label string) *Spinner {
	return &Spinner{label: label, out: p.Out, animate: p.Colorize, stop: make(chan struct{})}
}

// Start begins animating. Without a terminal it prints "label..." once.
func (s *Spinner) Start() {
	if s.started {
		return
	}
	s.started = true
	if !s.animate {
		fmt.Fprintf(s.out, "%s...\n", s.label)
		return
	}
	s.wg.Add(1)
	go s.loop()
}

func (s *Spinner) loop() {
	defer s.wg.Done()
	ticker := time.NewTicker(spinnerInterval)
	defer ticker.Stop()
	for frame := 0; ; frame = (frame + 1) % len(spinnerFrames) {
		fmt.Fprintf(s.out, "\r%s%s%s %s", ColorCyan, spinnerFrames[frame], ColorReset, s.label)
		select {
		case <-s.stop:
			return
		case <-ticker.C:
		}
	}
}

// Stop halts the animation and clears the line. Calling it twice is harmless.
func (s *Spinner) Stop() {
	s.once.Do(func() {
		close(s.stop)
		s.wg.Wait()
		if s.animate && s.started {
			fmt.Fprint(s.out, "\r"+strings.Repeat(" ", len(s.label)+2)+"\r")
		}
	})
}
