package services

import (
	"context"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/reposync/internal/logger"
)

// ProgressTracker is the set of project paths finished in a batch. Workers
// add to it concurrently; it only signals liveness.
type ProgressTracker struct {
	mu   sync.Mutex
	done map[string]struct{}
	last time.Time
	now  func() time.Time
}

// NewProgressTracker creates an empty tracker. The clock defaults to time.Now.
func NewProgressTracker(now func() time.Time) *ProgressTracker {
	if now == nil {
		now = time.Now
	}
	return &ProgressTracker{
		done: make(map[string]struct{}),
		last: now(),
		now:  now,
	}
}

// Add marks relpath finished. Re-adding a path is not progress.
func (t *ProgressTracker) Add(relpath string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.done[relpath]; ok {
		return
	}
	t.done[relpath] = struct{}{}
	t.last = t.now()
}

// Contains reports whether relpath has finished.
func (t *ProgressTracker) Contains(relpath string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.done[relpath]
	return ok
}

// Len returns the number of finished paths.
func (t *ProgressTracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.done)
}

// Paths returns the finished paths, sorted.
func (t *ProgressTracker) Paths() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, 0, len(t.done))
	for p := range t.done {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// LastProgress returns when the set last grew (or was created).
func (t *ProgressTracker) LastProgress() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.last
}

// StallMonitor watches a tracker and flags the batch as stalled when no new
// path appears for the interval. Warnings are rate limited to one per
// interval. It never interrupts workers.
type StallMonitor struct {
	tracker  *ProgressTracker
	interval time.Duration
	total    int
	batch    int
	now      func() time.Time

	stalled atomic.Bool
	warn    rate.Sometimes
}

// NewStallMonitor creates a monitor for one batch of total projects.
func NewStallMonitor(tracker *ProgressTracker, interval time.Duration, batch, total int, now func() time.Time) *StallMonitor {
	if now == nil {
		now = time.Now
	}
	return &StallMonitor{
		tracker:  tracker,
		interval: interval,
		total:    total,
		batch:    batch,
		now:      now,
		warn:     rate.Sometimes{Interval: interval},
	}
}

// Run blocks until ctx is cancelled. A non-positive interval disables it.
func (m *StallMonitor) Run(ctx context.Context) {
	if m.interval <= 0 {
		<-ctx.Done()
		return
	}

	ticker := time.NewTicker(max(m.interval/4, time.Millisecond))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.check()
		}
	}
}

func (m *StallMonitor) check() {
	idle := m.now().Sub(m.tracker.LastProgress())
	if idle < m.interval {
		return
	}
	m.stalled.Store(true)
	m.warn.Do(func() {
		logger.Warn("batch %d: no project finished in %s (%d/%d done)",
			m.batch, idle.Round(time.Second), m.tracker.Len(), m.total)
		logger.Debug("batch %d finished so far: %s", m.batch, strings.Join(m.tracker.Paths(), ", "))
	})
}

// Stalled reports whether a stall was observed.
func (m *StallMonitor) Stalled() bool {
	return m.stalled.Load()
}
