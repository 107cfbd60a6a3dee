package main

import (
	"fmt"
	"io"
	"sync"
	"time"
)

const (
	progressUpdateInterval = 100 * time.Millisecond
	clearLineSequence      = "\r\033[K"
)

// ProgressPrinter redraws a single status line with the time left in a phase.
//
// Usage:
//
//	p := NewCountdownPrinter(os.Stderr, "Scanning for IMU devices", 5*time.Second)
//	p.Start()
//	defer p.Stop()
//
// A ProgressPrinter is single-use. Stop is safe to call more than once and
// before Start.
type ProgressPrinter struct {
	out      io.Writer
	prefix   string
	duration time.Duration

	mu      sync.Mutex
	started bool
	stopped bool
	stop    chan struct{}
	done    chan struct{}
}

// NewCountdownPrinter creates a printer counting down from duration
func NewCountdownPrinter(out io.Writer, prefix string, duration time.Duration) *ProgressPrinter {
	return &ProgressPrinter{
		out:      out,
		prefix:   prefix,
		duration: duration,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start begins redrawing in a background goroutine
func (p *ProgressPrinter) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started || p.stopped {
		return
	}
	p.started = true

	startTime := time.Now()
	p.print(p.duration)

	go func() {
		defer close(p.done)

		ticker := time.NewTicker(progressUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-p.stop:
				return
			case <-ticker.C:
				p.print(p.duration - time.Since(startTime))
			}
		}
	}()
}

// print shows the remaining time rounded to the nearest second
func (p *ProgressPrinter) print(remaining time.Duration) {
	seconds := 0
	if remaining > 0 {
		seconds = int(remaining.Seconds() + 0.5)
	}
	fmt.Fprintf(p.out, "\r%s (%ds)   ", p.prefix, seconds)
}

// Stop terminates the goroutine and clears the line
func (p *ProgressPrinter) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	started := p.started
	p.mu.Unlock()

	close(p.stop)
	if !started {
		return
	}
	<-p.done
	fmt.Fprint(p.out, clearLineSequence)
}
