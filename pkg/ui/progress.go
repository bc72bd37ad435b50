package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

const barWidth = 20

// CollectionProgress renders a single-line progress bar for a collection run
type CollectionProgress struct {
	mu        sync.Mutex
	out       io.Writer
	target    string
	total     int
	collected int
	failed    int
	startTime time.Time
	now       func() time.Time
}

// NewCollectionProgress creates a progress display writing to out. total <= 0
// means the expected count is unknown.
func NewCollectionProgress(out io.Writer, target string, total int) *CollectionProgress {
	return &CollectionProgress{
		out:       out,
		target:    target,
		total:     total,
		startTime: time.Now(),
		now:       time.Now,
	}
}

// Update records the collected count and redraws the line
func (p *CollectionProgress) Update(collected, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.collected = collected
	if total > 0 {
		p.total = total
	}
	if !IsQuietMode() {
		fmt.Fprintf(p.out, "\r%s\r%s", strings.Repeat(" ", 100), p.line())
	}
}

// Fail counts a skipped follower
func (p *CollectionProgress) Fail() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failed++
}

// line builds the current progress line
func (p *CollectionProgress) line() string {
	bar := strings.Repeat("─", barWidth)
	count := fmt.Sprintf("%d", p.collected)
	if p.total > 0 {
		filled := min(p.collected*barWidth/p.total, barWidth)
		bar = strings.Repeat("━", filled) + strings.Repeat("─", barWidth-filled)
		count = fmt.Sprintf("%d/%d", p.collected, p.total)
	}

	elapsed := p.now().Sub(p.startTime)
	line := fmt.Sprintf("%s [%s] %s • %.1f/min • %s",
		Cyan("@"+p.target), bar, count, p.rate(elapsed), p.eta(elapsed))
	if p.failed > 0 {
		line += " • " + Red(fmt.Sprintf("%d skipped", p.failed))
	}
	return line
}

func (p *CollectionProgress) rate(elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return 0
	}
	return float64(p.collected) / elapsed.Minutes()
}

// eta estimates the time remaining
func (p *CollectionProgress) eta(elapsed time.Duration) string {
	if p.collected == 0 || p.total <= 0 || elapsed <= 0 {
		return "calculating..."
	}
	remaining := max(p.total-p.collected, 0)
	perItem := elapsed / time.Duration(p.collected)
	return FormatDuration(perItem * time.Duration(remaining))
}

// Complete prints the closing summary line
func (p *CollectionProgress) Complete(partial bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if IsQuietMode() {
		return
	}

	mark, verb := Green("✓"), "Collected"
	if partial {
		mark, verb = Yellow("⚠"), "Partially collected"
	}
	fmt.Fprintf(p.out, "\n%s %s %d followers of @%s in %s\n",
		mark, verb, p.collected, p.target, FormatDuration(p.now().Sub(p.startTime)))
	if p.failed > 0 {
		fmt.Fprintf(p.out, "  %s %d followers skipped\n", Dim("•"), p.failed)
	}
}

// FormatDuration formats a duration in a human-readable way
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	default:
		return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
	}
}
