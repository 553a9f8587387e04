package ratelimit

import (
	"fmt"
	"sync"
	"time"
)

// Window is a fixed call ceiling over a period. A non-positive Limit disables
// the window.
type Window struct {
	Name   string
	Limit  int
	Period time.Duration
}

type Usage struct {
	Window   string        `json:"window"`
	Limit    int           `json:"limit"`
	Count    int           `json:"count"`
	Period   time.Duration `json:"period"`
	ResetsAt time.Time     `json:"resets_at"`
}

// LimitError is returned by Admit when a window is full.
type LimitError struct {
	Window     string
	Limit      int
	RetryAfter time.Duration
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded: %s window allows %d calls, retry after %s", e.Window, e.Limit, e.RetryAfter)
}

type window struct {
	Window
	start time.Time
	count int
}

func (w *window) roll(now time.Time) {
	if w.start.IsZero() || !now.Before(w.start.Add(w.Period)) {
		w.start = now
		w.count = 0
	}
}

func (w *window) full() bool {
	return w.Limit > 0 && w.count >= w.Limit
}

// Governor is a local estimate of the vendor's quotas. Every window must have
// room for a call to be admitted, and an admitted call counts against all of
// them.
type Governor struct {
	mu      sync.Mutex
	windows []*window
	now     func() time.Time
}

func New(now func() time.Time, windows ...Window) *Governor {
	if now == nil {
		now = time.Now
	}
	g := &Governor{now: now}
	for _, w := range windows {
		g.windows = append(g.windows, &window{Window: w})
	}
	return g
}

// Check reports whether Admit would succeed right now, without counting
// anything.
func (g *Governor) Check() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if denied := g.refusal(g.now()); denied != nil {
		return denied
	}
	return nil
}

// Admit counts one call or, when any window is full, returns a *LimitError
// carrying the longest wait among the full windows. Nothing is counted on
// refusal.
func (g *Governor) Admit() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if denied := g.refusal(g.now()); denied != nil {
		return denied
	}
	for _, w := range g.windows {
		w.count++
	}
	return nil
}

func (g *Governor) refusal(now time.Time) *LimitError {
	var denied *LimitError
	for _, w := range g.windows {
		w.roll(now)
		if !w.full() {
			continue
		}
		retry := w.start.Add(w.Period).Sub(now)
		if denied == nil || retry > denied.RetryAfter {
			denied = &LimitError{Window: w.Name, Limit: w.Limit, RetryAfter: retry}
		}
	}
	return denied
}

// Observe reconciles a window with usage reported by the vendor. The count
// only moves up, and limit replaces the configured ceiling when positive.
func (g *Governor) Observe(name string, count, limit int) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, w := range g.windows {
		if w.Name != name {
			continue
		}
		w.roll(g.now())
		if count > w.count {
			w.count = count
		}
		if limit > 0 {
			w.Limit = limit
		}
		return true
	}
	return false
}

func (g *Governor) Usage() []Usage {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	usage := make([]Usage, 0, len(g.windows))
	for _, w := range g.windows {
		w.roll(now)
		usage = append(usage, Usage{
			Window:   w.Name,
			Limit:    w.Limit,
			Count:    w.count,
			Period:   w.Period,
			ResetsAt: w.start.Add(w.Period),
		})
	}
	return usage
}
