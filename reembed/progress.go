package reembed

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// ProgressTracker writes a single updating progress line to a writer.
type ProgressTracker struct {
	mu sync.Mutex

	writer   io.Writer
	unit     string
	total    int
	current  int
	interval int
	reported int
	start    time.Time
	started  bool
}

// NewProgressTracker reports progress toward total every interval items.
// unit labels the rate ("chunks/s"); empty means "items".
func NewProgressTracker(writer io.Writer, unit string, total, interval int) *ProgressTracker {
	if unit == "" {
		unit = "items"
	}
	if interval < 1 {
		interval = 1
	}
	return &ProgressTracker{
		writer:   writer,
		unit:     unit,
		total:    total,
		interval: interval,
	}
}

// Start resets the counter and the clock.
func (p *ProgressTracker) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.start = time.Now()
	p.started = true
	p.current = 0
	p.reported = 0
}

// Update sets the absolute progress.
func (p *ProgressTracker) Update(current int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		p.advance(current)
	}
}

// Increment adds delta to the progress.
func (p *ProgressTracker) Increment(delta int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		p.advance(p.current + delta)
	}
}

// Finish reports the total and ends the line.
func (p *ProgressTracker) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.started {
		return
	}
	p.current = p.total
	p.report()
	fmt.Fprintln(p.writer)
}

// Elapsed is the time since Start, or zero before it.
func (p *ProgressTracker) Elapsed() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.started {
		return 0
	}
	return time.Since(p.start)
}

// must hold mu
func (p *ProgressTracker) advance(current int) {
	p.current = min(current, p.total)
	if p.current-p.reported >= p.interval {
		p.report()
		p.reported = p.current
	}
}

// must hold mu
func (p *ProgressTracker) report() {
	rate := 0.0
	if secs := time.Since(p.start).Seconds(); secs > 0 {
		rate = float64(p.current) / secs
	}
	percent := 0.0
	if p.total > 0 {
		percent = float64(p.current) / float64(p.total) * 100
	}
	fmt.Fprintf(p.writer, "\rProgress: %d/%d (%.1f%%) - %.1f %s/s", p.current, p.total, percent, rate, p.unit)
}
