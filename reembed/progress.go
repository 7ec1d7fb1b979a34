package reembed

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// ProgressTracker prints a single self-overwriting status line while a
// batch job walks the memory store.
type ProgressTracker struct {
	mu      sync.Mutex
	out     io.Writer
	total   int
	done    int
	every   int
	printed int
	began   time.Time
	running bool
}

// NewProgressTracker reports to out every `every` memories out of total.
// An interval below 1 reports on every update.
func NewProgressTracker(out io.Writer, total, every int) *ProgressTracker {
	return &ProgressTracker{out: out, total: total, every: max(every, 1)}
}

// Start resets the counters and the clock.
func (p *ProgressTracker) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.began = time.Now()
	p.running = true
	p.done, p.printed = 0, 0
}

// Update records that done memories have been handled.
func (p *ProgressTracker) Update(done int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.moveTo(done)
}

// Increment records n more handled memories.
func (p *ProgressTracker) Increment(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.moveTo(p.done + n)
}

// moveTo must be called with mu held. Counts past total are clamped.
func (p *ProgressTracker) moveTo(done int) {
	if !p.running {
		return
	}
	p.done = min(done, p.total)
	if p.done-p.printed < p.every {
		return
	}
	p.print()
	p.printed = p.done
}

// Finish prints the completed line and ends it with a newline.
func (p *ProgressTracker) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return
	}
	p.done = p.total
	p.print()
	fmt.Fprintln(p.out)
}

// Elapsed is the time since Start, or zero before it.
func (p *ProgressTracker) Elapsed() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return 0
	}
	return time.Since(p.began)
}

// print must be called with mu held.
func (p *ProgressTracker) print() {
	perSecond := float64(p.done) / time.Since(p.began).Seconds()

	var percent float64
	if p.total > 0 {
		percent = 100 * float64(p.done) / float64(p.total)
	}

	fmt.Fprintf(p.out, "\rProgress: %d/%d (%.1f%%) - %.1f memories/s", p.done, p.total, percent, perSecond)
	if left := p.total - p.done; left > 0 && perSecond > 0 {
		eta := time.Duration(float64(left) / perSecond * float64(time.Second))
		fmt.Fprintf(p.out, " - ETA %v", eta.Round(time.Second))
	}
}
