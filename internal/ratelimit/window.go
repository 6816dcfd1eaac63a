// Package ratelimit provides the per-group sliding request window for
// provider calls.
package ratelimit

import (
	"sync"
	"time"
)

const (
	DefaultLimit = 10
	DefaultSpan  = time.Minute
)

// SlidingWindow tracks request timestamps per scope over a trailing span.
// Allow is the only entry point; counters are never exposed directly.
type SlidingWindow struct {
	mu     sync.Mutex
	limit  int
	span   time.Duration
	now    func() time.Time
	scopes map[string][]time.Time
}

func NewSlidingWindow(limit int, span time.Duration) *SlidingWindow {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if span <= 0 {
		span = DefaultSpan
	}
	return &SlidingWindow{
		limit:  limit,
		span:   span,
		now:    time.Now,
		scopes: make(map[string][]time.Time),
	}
}

// Allow records a request for the scope if it is within quota and reports
// whether it was admitted. A limit override of zero or less falls back to the
// window's default. Timestamps older than the trailing span are discarded
// before counting, so the window only ever holds live entries.
func (w *SlidingWindow) Allow(scope string, limit int) bool {
	if limit <= 0 {
		limit = w.limit
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	cutoff := now.Add(-w.span)

	stamps := w.scopes[scope]
	live := stamps[:0]
	for _, t := range stamps {
		if t.After(cutoff) {
			live = append(live, t)
		}
	}

	if len(live) >= limit {
		w.scopes[scope] = live
		return false
	}
	w.scopes[scope] = append(live, now)
	return true
}
