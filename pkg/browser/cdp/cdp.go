// Package cdp implements browser.Page on top of chromedp, driving a local
// Chrome over the DevTools protocol.
package cdp

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/umputun/chatcheck/pkg/browser"
)

// locationTimeout bounds URL lookups, which take no context.
const locationTimeout = 5 * time.Second

// Options configures the launched browser.
type Options struct {
	Headless bool
	ExecPath string // chrome binary, found on PATH when empty
}

// Page is a chrome tab driven over the DevTools protocol.
type Page struct {
	tab         context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
	hub         *browser.Hub

	mu      sync.Mutex
	pending map[network.RequestID]browser.ResponseEvent // responses waiting for their body
}

// Launch starts chrome and opens a tab with network events enabled.
// every response whose body finished loading is published on the page's response hub.
func Launch(ctx context.Context, opts Options) (*Page, error) {
	ao := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	ao = append(ao, chromedp.Flag("headless", opts.Headless))
	if opts.ExecPath != "" {
		ao = append(ao, chromedp.ExecPath(opts.ExecPath))
	}
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.WithoutCancel(ctx), ao...)
	tab, cancelTab := chromedp.NewContext(allocCtx)

	p := &Page{
		tab:         tab,
		cancelTab:   cancelTab,
		cancelAlloc: cancelAlloc,
		hub:         browser.NewHub(),
		pending:     make(map[network.RequestID]browser.ResponseEvent),
	}
	chromedp.ListenTarget(tab, p.onEvent)

	// the first run allocates the browser, a deadline here would stop chrome with it
	if err := chromedp.Run(tab, network.Enable()); err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("start chrome: %w", err)
	}
	return p, nil
}

func (p *Page) onEvent(ev any) {
	switch e := ev.(type) {
	case *network.EventRequestWillBeSent:
		// a redirect hop gets no loading events of its own, the next leg reuses the request id
		if r := e.RedirectResponse; r != nil {
			p.hub.Broadcast(browser.ResponseEvent{URL: r.URL, Status: int(r.Status), At: time.Now()})
		}
	case *network.EventResponseReceived:
		p.mu.Lock()
		p.pending[e.RequestID] = browser.ResponseEvent{URL: e.Response.URL, Status: int(e.Response.Status)}
		p.mu.Unlock()
	case *network.EventLoadingFinished:
		p.mu.Lock()
		re, ok := p.pending[e.RequestID]
		delete(p.pending, e.RequestID)
		p.mu.Unlock()
		if ok {
			re.At = time.Now()
			p.hub.Broadcast(re)
		}
	case *network.EventLoadingFailed:
		p.mu.Lock()
		delete(p.pending, e.RequestID)
		p.mu.Unlock()
	}
}

// run executes actions in the tab, stopping when ctx is done.
// chromedp needs the tab context, so ctx only lends its deadline and cancellation.
func (p *Page) run(ctx context.Context, actions ...chromedp.Action) error {
	rctx, cancel := context.WithCancel(p.tab)
	if dl, ok := ctx.Deadline(); ok {
		rctx, cancel = context.WithDeadline(p.tab, dl)
	}
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(rctx, actions...)
	if err != nil && ctx.Err() != nil {
		return fmt.Errorf("%w: %w", ctx.Err(), err)
	}
	return err
}

// Goto navigates the tab to url and waits for the load event.
func (p *Page) Goto(ctx context.Context, url string) error {
	if err := p.run(ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("goto %s: %w", url, err)
	}
	return nil
}

// URL returns the current address of the tab, empty if it cannot be read.
func (p *Page) URL() string {
	ctx, cancel := context.WithTimeout(context.Background(), locationTimeout)
	defer cancel()
	var res string
	if err := p.run(ctx, chromedp.Location(&res)); err != nil {
		return ""
	}
	return res
}

// Click clicks the first element matching selector once it is visible.
func (p *Page) Click(ctx context.Context, selector string) error {
	if err := p.run(ctx, chromedp.Click(selector, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("click %s: %w", selector, err)
	}
	return nil
}

// Fill replaces the values of the form inputs in the order given.
// keys are typed so the client sees input events.
func (p *Page) Fill(ctx context.Context, form string, fields []browser.Field) error {
	for _, f := range fields {
		sel := browser.FieldSelector(form, f.Name)
		err := p.run(ctx,
			chromedp.WaitVisible(sel, chromedp.ByQuery),
			chromedp.SetValue(sel, "", chromedp.ByQuery),
			chromedp.SendKeys(sel, f.Value, chromedp.ByQuery),
		)
		if err != nil {
			return fmt.Errorf("fill %s: %w", sel, err)
		}
	}
	return nil
}

// Submit submits form.
func (p *Page) Submit(ctx context.Context, form string) error {
	if err := p.run(ctx, chromedp.Submit(form, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("submit %s: %w", form, err)
	}
	return nil
}

// WaitVisible blocks until selector is visible or ctx expires.
func (p *Page) WaitVisible(ctx context.Context, selector string) error {
	if err := p.run(ctx, chromedp.WaitVisible(selector, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("wait for %s: %w", selector, err)
	}
	return nil
}

// visibleScript mirrors the check chromedp's WaitVisible polls with.
const visibleScript = `(sel) => {
	const el = document.querySelector(sel);
	return !!el && !!(el.offsetWidth || el.offsetHeight || el.getClientRects().length);
}`

// Visible reports whether selector matches a visible element right now.
func (p *Page) Visible(ctx context.Context, selector string) (bool, error) {
	var res bool
	if err := p.Evaluate(ctx, visibleScript, selector, &res); err != nil {
		return false, fmt.Errorf("visible %s: %w", selector, err)
	}
	return res, nil
}

// Evaluate calls fn with arg in the page and decodes the result into out.
// the result crosses the protocol as a JSON string, so null and undefined decode as zero values.
func (p *Page) Evaluate(ctx context.Context, fn string, arg, out any) error {
	expr, err := callExpr(fn, arg)
	if err != nil {
		return err
	}

	var res string
	if err := p.run(ctx, chromedp.Evaluate(expr, &res)); err != nil {
		return fmt.Errorf("evaluate: %w", err)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal([]byte(res), out); err != nil {
		return fmt.Errorf("decode evaluate result: %w", err)
	}
	return nil
}

// callExpr builds an expression calling fn with arg and returning the result as JSON text.
func callExpr(fn string, arg any) (string, error) {
	argJSON, err := json.Marshal(arg)
	if err != nil {
		return "", fmt.Errorf("encode evaluate argument: %w", err)
	}
	return fmt.Sprintf("JSON.stringify((%s)(%s)) ?? \"null\"", fn, argJSON), nil
}

// Responses returns the hub of finished network responses.
func (p *Page) Responses() *browser.Hub {
	return p.hub
}

// Close closes the tab and shuts chrome down.
func (p *Page) Close() error {
	p.cancelTab()
	p.cancelAlloc()
	p.hub.Close()
	return nil
}
