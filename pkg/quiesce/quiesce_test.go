package quiesce

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/chatcheck/pkg/browser"
)

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

func TestTracker_NoActivityIsQuiescent(t *testing.T) {
	tr := New()
	assert.True(t, tr.IsQuiescent(DefaultIdleWindow))
	assert.True(t, tr.Last().IsZero())
}

func TestTracker_IsQuiescent(t *testing.T) {
	clk := newFakeClock()
	tr := New(WithClock(clk.Now))
	window := 300 * time.Millisecond

	tr.MarkActivity()
	assert.False(t, tr.IsQuiescent(window), "right after activity")

	clk.Advance(299 * time.Millisecond)
	assert.False(t, tr.IsQuiescent(window), "inside the window")

	clk.Advance(time.Millisecond)
	assert.False(t, tr.IsQuiescent(window), "exactly at the window is not more than the window")

	clk.Advance(time.Millisecond)
	assert.True(t, tr.IsQuiescent(window), "past the window")

	tr.MarkActivity()
	assert.False(t, tr.IsQuiescent(window), "new activity resets the window")
}

func TestTracker_MonotonicTimestamp(t *testing.T) {
	clk := newFakeClock()
	tr := New(WithClock(clk.Now))

	tr.MarkActivity()
	first := tr.Last()

	// clock going backwards must not move the timestamp back
	clk.Set(first.Add(-time.Hour))
	tr.MarkActivity()
	assert.Equal(t, first, tr.Last())

	clk.Set(first.Add(time.Second))
	tr.MarkActivity()
	assert.Equal(t, first.Add(time.Second), tr.Last())
}

func TestTracker_Observe(t *testing.T) {
	clk := newFakeClock()
	tr := New(WithClock(clk.Now))
	hub := browser.NewHub()
	ch := hub.Subscribe()

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan struct{})
	go func() {
		tr.Observe(ctx, ch, func(url string) bool { return strings.Contains(url, "/json/get_updates") })
		close(done)
	}()

	hub.Broadcast(browser.ResponseEvent{URL: "http://localhost/static/app.js", Status: 200})
	hub.Broadcast(browser.ResponseEvent{URL: "http://localhost/json/get_updates?pointer=5", Status: 200})

	require.Eventually(t, func() bool { return !tr.Last().IsZero() }, time.Second, 5*time.Millisecond)
	assert.Equal(t, clk.Now(), tr.Last())

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("observer did not stop on cancel")
	}
}

func TestTracker_ObserveUsesEventTime(t *testing.T) {
	clk := newFakeClock()
	tr := New(WithClock(clk.Now))
	received := clk.Now().Add(-200 * time.Millisecond)

	events := make(chan browser.ResponseEvent, 3)
	events <- browser.ResponseEvent{URL: "http://localhost/json/get_updates", At: received}
	events <- browser.ResponseEvent{URL: "http://localhost/json/get_updates", At: received.Add(-time.Second)}
	close(events)
	tr.Observe(t.Context(), events, nil)

	assert.Equal(t, received, tr.Last(), "stamped when received, not when consumed")
	assert.False(t, tr.IsQuiescent(DefaultIdleWindow))
	clk.Advance(101 * time.Millisecond)
	assert.True(t, tr.IsQuiescent(DefaultIdleWindow), "idle window counts from the response")
}

func TestTracker_ObserveIgnoresNonMatching(t *testing.T) {
	tr := New()
	events := make(chan browser.ResponseEvent, 2)
	events <- browser.ResponseEvent{URL: "http://localhost/json/send_message"}
	close(events)

	tr.Observe(t.Context(), events, func(url string) bool { return strings.Contains(url, "get_updates") })
	assert.True(t, tr.Last().IsZero())
}

func TestTracker_ObserveStopsOnClosedStream(t *testing.T) {
	tr := New()
	hub := browser.NewHub()
	ch := hub.Subscribe()

	done := make(chan struct{})
	go func() {
		tr.Observe(t.Context(), ch, nil)
		close(done)
	}()
	hub.Close()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("observer did not stop on closed stream")
	}
}
