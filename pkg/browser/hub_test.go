package browser

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pollEvent() ResponseEvent {
	return ResponseEvent{URL: "http://localhost:9981/json/get_updates", Status: 200, At: time.Now()}
}

func TestHub_SubscribeUnsubscribe(t *testing.T) {
	h := NewHub()
	ch1 := h.Subscribe()
	ch2 := h.Subscribe()

	h.Unsubscribe(ch1)
	_, open := <-ch1
	assert.False(t, open)

	// second unsubscribe is a no-op
	assert.NotPanics(t, func() { h.Unsubscribe(ch1) })

	h.Broadcast(pollEvent())
	assert.Len(t, ch2, 1, "remaining subscriber still served")
	h.Unsubscribe(ch2)
	assert.Empty(t, h.clients)
}

func TestHub_Broadcast(t *testing.T) {
	h := NewHub()
	ch1 := h.Subscribe()
	ch2 := h.Subscribe()

	h.Broadcast(pollEvent())

	for i, ch := range []chan ResponseEvent{ch1, ch2} {
		select {
		case e := <-ch:
			assert.Contains(t, e.URL, "/json/get_updates")
			assert.Equal(t, 200, e.Status)
		case <-time.After(time.Second):
			t.Fatalf("subscriber %d did not receive event", i)
		}
	}
}

func TestHub_Broadcast_FullClientKeepsNewest(t *testing.T) {
	h := NewHub()
	ch := h.Subscribe()
	start := time.Now()

	done := make(chan struct{})
	go func() {
		for i := range 300 {
			h.Broadcast(ResponseEvent{URL: "http://localhost:9981/json/get_updates", At: start.Add(time.Duration(i) * time.Millisecond)})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("broadcast blocked on a full subscriber")
	}
	require.Len(t, ch, 256)
	first := <-ch
	assert.Equal(t, start.Add(44*time.Millisecond), first.At, "oldest events dropped")
	var last ResponseEvent
	for len(ch) > 0 {
		last = <-ch
	}
	assert.Equal(t, start.Add(299*time.Millisecond), last.At, "newest event delivered")
}

func TestHub_Close(t *testing.T) {
	h := NewHub()
	ch1 := h.Subscribe()
	ch2 := h.Subscribe()

	h.Close()
	assert.Empty(t, h.clients)

	_, open1 := <-ch1
	_, open2 := <-ch2
	assert.False(t, open1)
	assert.False(t, open2)

	// late subscriber gets a closed channel instead of hanging forever
	late := h.Subscribe()
	_, open := <-late
	assert.False(t, open)
	assert.Empty(t, h.clients)
}

func TestHub_Concurrency(t *testing.T) {
	h := NewHub()
	var wg sync.WaitGroup

	channels := make([]chan ResponseEvent, 0, 20)
	var chMu sync.Mutex
	for range 20 {
		wg.Go(func() {
			ch := h.Subscribe()
			chMu.Lock()
			channels = append(channels, ch)
			chMu.Unlock()
		})
	}
	wg.Wait()
	require.Len(t, h.clients, 20)

	for range 10 {
		wg.Go(func() {
			for range 10 {
				h.Broadcast(pollEvent())
			}
		})
	}
	for i := range 10 {
		wg.Go(func() {
			chMu.Lock()
			ch := channels[i]
			chMu.Unlock()
			h.Unsubscribe(ch)
		})
	}
	wg.Wait()

	assert.Len(t, h.clients, 10)
}

func TestQuoteAndFieldSelector(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{in: `Verona`, want: `"Verona"`},
		{in: `Narrow to stream "Verona"`, want: `"Narrow to stream \"Verona\""`},
		{in: `back\slash`, want: `"back\\slash"`},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, Quote(tc.in))
	}

	assert.Equal(t, `form[action^="/json/send_message"] [name="subject"]`,
		FieldSelector(`form[action^="/json/send_message"]`, "subject"))
}

func TestTimeoutMs(t *testing.T) {
	assert.InDelta(t, 5000, TimeoutMs(t.Context(), 5*time.Second), 0.001)

	ctx, cancel := context.WithTimeout(t.Context(), 2*time.Second)
	defer cancel()
	got := TimeoutMs(ctx, 5*time.Second)
	assert.Greater(t, got, 1000.0)
	assert.LessOrEqual(t, got, 2000.0)

	expired, cancel2 := context.WithTimeout(t.Context(), -time.Second)
	defer cancel2()
	assert.InDelta(t, 1, TimeoutMs(expired, 5*time.Second), 0.001)
}
