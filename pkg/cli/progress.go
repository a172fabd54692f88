package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// ProgressReporter follows a batch of records.
type ProgressReporter interface {
	Start(total int64)
	Update(current int64)
	Finish()
	Error(err error)
}

const barWidth = 40

// BarProgress redraws one status line in place: a bar, the percentage, the
// count, the throughput and, once known, the time remaining.
type BarProgress struct {
	mu      sync.Mutex
	w       io.Writer
	unit    string
	total   int64
	done    int64
	started time.Time
	now     func() time.Time
}

// NewProgressReporter writes to w, or standard error when w is nil. unit
// names what is counted ("records").
func NewProgressReporter(w io.Writer, unit string) ProgressReporter {
	if w == nil {
		w = os.Stderr
	}
	if unit == "" {
		unit = "items"
	}
	return &BarProgress{w: w, unit: unit, now: time.Now}
}

// NopProgress discards updates.
type NopProgress struct{}

func (NopProgress) Start(int64)  {}
func (NopProgress) Update(int64) {}
func (NopProgress) Finish()      {}
func (NopProgress) Error(error)  {}

func (p *BarProgress) Start(total int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.total, p.done, p.started = total, 0, p.now()
	p.draw()
}

func (p *BarProgress) Update(current int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done = min(current, p.total)
	p.draw()
}

func (p *BarProgress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done = p.total
	p.draw()
	fmt.Fprintln(p.w)
}

// Error ends the status line and prints err below it.
func (p *BarProgress) Error(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, "\nerror: %v\n", err)
}

func (p *BarProgress) draw() {
	if p.total <= 0 {
		return
	}
	frac := float64(p.done) / float64(p.total)
	filled := int(frac * barWidth)

	var rate float64
	elapsed := p.now().Sub(p.started)
	if elapsed > 0 {
		rate = float64(p.done) / elapsed.Seconds()
	}
	eta := ""
	if rate > 0 && p.done < p.total {
		left := time.Duration(float64(p.total-p.done) / rate * float64(time.Second))
		eta = " eta " + left.Round(time.Second).String()
	}

	fmt.Fprintf(p.w, "\r[%s%s] %.1f%% (%d/%d) %.1f %s/s%s",
		strings.Repeat("█", filled), strings.Repeat("░", barWidth-filled),
		frac*100, p.done, p.total, rate, p.unit, eta)
}
