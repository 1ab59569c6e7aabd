package cdp

import (
	"testing"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/chatcheck/pkg/browser"
)

func newTestPage() *Page {
	return &Page{hub: browser.NewHub(), pending: make(map[network.RequestID]browser.ResponseEvent)}
}

func TestOnEvent(t *testing.T) {
	p := newTestPage()
	ch := p.hub.Subscribe()

	p.onEvent(&network.EventResponseReceived{RequestID: "1",
		Response: &network.Response{URL: "http://localhost:9991/json/get_updates", Status: 200}})
	p.onEvent(&network.EventResponseReceived{RequestID: "2",
		Response: &network.Response{URL: "http://localhost:9991/json/send_message", Status: 500}})
	select {
	case ev := <-ch:
		t.Fatalf("event published before its body finished: %v", ev)
	default:
	}

	p.onEvent(&network.EventLoadingFailed{RequestID: "2"})
	p.onEvent(&network.EventLoadingFinished{RequestID: "2"})
	p.onEvent(&network.EventLoadingFinished{RequestID: "1"})
	p.onEvent(&network.EventLoadingFinished{RequestID: "unknown"})

	select {
	case ev := <-ch:
		assert.Equal(t, "http://localhost:9991/json/get_updates", ev.URL)
		assert.Equal(t, 200, ev.Status)
		assert.WithinDuration(t, time.Now(), ev.At, time.Second)
	case <-time.After(time.Second):
		t.Fatal("no event published")
	}
	select {
	case ev := <-ch:
		t.Fatalf("unexpected event: %v", ev)
	default:
	}
	assert.Empty(t, p.pending)
}

func TestOnEvent_Redirect(t *testing.T) {
	p := newTestPage()
	ch := p.hub.Subscribe()

	p.onEvent(&network.EventRequestWillBeSent{RequestID: "7"})
	p.onEvent(&network.EventRequestWillBeSent{RequestID: "7",
		RedirectResponse: &network.Response{URL: "http://localhost:9991/", Status: 302}})

	select {
	case ev := <-ch:
		assert.Equal(t, "http://localhost:9991/", ev.URL)
		assert.Equal(t, 302, ev.Status)
	case <-time.After(time.Second):
		t.Fatal("redirect hop not published")
	}
	assert.Empty(t, ch, "plain request start publishes nothing")
}

func TestCallExpr(t *testing.T) {
	expr, err := callExpr("(a) => a.table", map[string]string{"table": "zhome"})
	require.NoError(t, err)
	assert.Equal(t, `JSON.stringify(((a) => a.table)({"table":"zhome"})) ?? "null"`, expr)

	expr, err = callExpr("(s) => s", `#a "b"`)
	require.NoError(t, err)
	assert.Equal(t, `JSON.stringify(((s) => s)("#a \"b\"")) ?? "null"`, expr)

	_, err = callExpr("() => 1", make(chan int))
	require.Error(t, err)
}
