// Package quiesce tracks the last send or update-poll activity of a harness run
// and decides when the rendered client state is stable enough to inspect.
package quiesce

import (
	"context"
	"sync"
	"time"

	"github.com/umputun/chatcheck/pkg/browser"
)

// DefaultIdleWindow is the idle time after the last activity before state is considered settled.
const DefaultIdleWindow = 300 * time.Millisecond

// Tracker holds the timestamp of the most recent activity.
// one Tracker belongs to one harness run; it is safe for concurrent use because
// the response observer writes from its own goroutine.
type Tracker struct {
	mu   sync.Mutex
	now  func() time.Time
	last time.Time // zero until the first activity
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock replaces time.Now, used by tests.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// New creates a tracker with no recorded activity.
func New(opts ...Option) *Tracker {
	t := &Tracker{now: time.Now}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// MarkActivity records activity at the current time.
// the stored timestamp never moves backwards.
func (t *Tracker) MarkActivity() {
	t.markAt(time.Time{})
}

// markAt records activity at the given time, zero meaning now.
func (t *Tracker) markAt(at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if at.IsZero() {
		at = t.now()
	}
	if at.After(t.last) {
		t.last = at
	}
}

// Last returns the time of the most recent activity, zero if none.
func (t *Tracker) Last() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.last
}

// IsQuiescent reports whether more than window has passed since the last activity.
// a tracker that never saw activity is quiescent.
func (t *Tracker) IsQuiescent(window time.Duration) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.last.IsZero() {
		return true
	}
	return t.now().Sub(t.last) > window
}

// Observe marks activity for every event whose URL satisfies match, at the time
// the event was received by the backend. events without a time count as now.
// blocks until ctx is done or events is closed; run it in its own goroutine.
func (t *Tracker) Observe(ctx context.Context, events <-chan browser.ResponseEvent, match func(url string) bool) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			if match == nil || match(e.URL) {
				t.markAt(e.At)
			}
		}
	}
}
