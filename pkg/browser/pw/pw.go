// Package pw implements browser.Page on top of playwright-go.
package pw

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/umputun/chatcheck/pkg/browser"
)

// defaultTimeout applies to calls whose ctx carries no deadline.
const defaultTimeout = 30 * time.Second

// Options configures the launched browser.
type Options struct {
	Browser  string // chromium, firefox or webkit, default chromium
	Headless bool
	SlowMo   time.Duration // delay between operations, for watching a headful run
	Install  bool          // download the driver and browser before launching
}

// Page is a playwright tab in its own browser context.
type Page struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
	page    playwright.Page
	hub     *browser.Hub
}

// Install downloads the playwright driver and the given browser.
func Install(name string) error {
	if name == "" {
		name = "chromium"
	}
	if err := playwright.Install(&playwright.RunOptions{Browsers: []string{name}}); err != nil {
		return fmt.Errorf("install playwright: %w", err)
	}
	return nil
}

// Launch starts playwright, launches the browser and opens a tab.
// every finished request of the tab is published on the page's response hub.
func Launch(opts Options) (*Page, error) {
	if opts.Install {
		if err := Install(opts.Browser); err != nil {
			return nil, err
		}
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("run playwright: %w", err)
	}
	res := &Page{pw: pw, hub: browser.NewHub()}

	bt, err := browserType(pw, opts.Browser)
	if err != nil {
		_ = res.Close()
		return nil, err
	}
	lo := playwright.BrowserTypeLaunchOptions{Headless: playwright.Bool(opts.Headless)}
	if opts.SlowMo > 0 {
		lo.SlowMo = playwright.Float(float64(opts.SlowMo / time.Millisecond))
	}
	if res.browser, err = bt.Launch(lo); err != nil {
		_ = res.Close()
		return nil, fmt.Errorf("launch %s: %w", bt.Name(), err)
	}
	if res.context, err = res.browser.NewContext(); err != nil {
		_ = res.Close()
		return nil, fmt.Errorf("create browser context: %w", err)
	}
	if res.page, err = res.context.NewPage(); err != nil {
		_ = res.Close()
		return nil, fmt.Errorf("create page: %w", err)
	}

	rec := newResponseRecorder(res.hub)
	res.page.OnResponse(rec.onResponse)
	res.page.OnRequestFinished(rec.onRequestFinished)
	res.page.OnRequestFailed(rec.onRequestFailed)
	return res, nil
}

// responseRecorder turns page network events into hub events. playwright calls
// the handlers on its connection goroutine, which also delivers the results of
// protocol calls, so a handler must only read fields the event already carries.
// Request.Response() and the like would wait for that goroutine and never return.
type responseRecorder struct {
	hub     *browser.Hub
	mu      sync.Mutex
	pending map[playwright.Request]int // status of responses whose body is still loading
}

func newResponseRecorder(hub *browser.Hub) *responseRecorder {
	return &responseRecorder{hub: hub, pending: make(map[playwright.Request]int)}
}

func (r *responseRecorder) onResponse(resp playwright.Response) {
	r.mu.Lock()
	r.pending[resp.Request()] = resp.Status()
	r.mu.Unlock()
}

func (r *responseRecorder) onRequestFinished(req playwright.Request) {
	at := time.Now()
	r.mu.Lock()
	status := r.pending[req]
	delete(r.pending, req)
	r.mu.Unlock()
	r.hub.Broadcast(browser.ResponseEvent{URL: req.URL(), Status: status, At: at})
}

func (r *responseRecorder) onRequestFailed(req playwright.Request) {
	r.mu.Lock()
	delete(r.pending, req)
	r.mu.Unlock()
}

func browserType(pw *playwright.Playwright, name string) (playwright.BrowserType, error) {
	switch name {
	case "", "chromium":
		return pw.Chromium, nil
	case "firefox":
		return pw.Firefox, nil
	case "webkit":
		return pw.WebKit, nil
	default:
		return nil, fmt.Errorf("unknown browser %q", name)
	}
}

// Goto navigates the tab to url.
func (p *Page) Goto(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := p.page.Goto(url, playwright.PageGotoOptions{Timeout: p.timeout(ctx)})
	return wrap(fmt.Sprintf("goto %s", url), err)
}

// URL returns the current address of the tab.
func (p *Page) URL() string {
	return p.page.URL()
}

// Click clicks the first element matching selector.
func (p *Page) Click(ctx context.Context, selector string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := p.page.Locator(selector).First().Click(playwright.LocatorClickOptions{Timeout: p.timeout(ctx)})
	return wrap("click "+selector, err)
}

// Fill replaces the values of the form inputs in the order given.
func (p *Page) Fill(ctx context.Context, form string, fields []browser.Field) error {
	for _, f := range fields {
		if err := ctx.Err(); err != nil {
			return err
		}
		sel := browser.FieldSelector(form, f.Name)
		if err := p.page.Locator(sel).First().Fill(f.Value, playwright.LocatorFillOptions{Timeout: p.timeout(ctx)}); err != nil {
			return wrap("fill "+sel, err)
		}
	}
	return nil
}

// Submit submits form the way pressing its submit button would.
func (p *Page) Submit(ctx context.Context, form string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := p.page.Locator(form).First().Evaluate("f => f.requestSubmit()", nil,
		playwright.LocatorEvaluateOptions{Timeout: p.timeout(ctx)})
	return wrap("submit "+form, err)
}

// WaitVisible blocks until selector is visible or ctx expires.
func (p *Page) WaitVisible(ctx context.Context, selector string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := p.page.Locator(selector).First().WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: p.timeout(ctx),
	})
	return wrap("wait for "+selector, err)
}

// Visible reports whether selector matches a visible element right now.
func (p *Page) Visible(ctx context.Context, selector string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	ok, err := p.page.Locator(selector).First().IsVisible()
	if err != nil {
		return false, wrap("visible "+selector, err)
	}
	return ok, nil
}

// Evaluate calls fn with arg in the page and decodes the result into out.
func (p *Page) Evaluate(ctx context.Context, fn string, arg, out any) error {
	res, err := p.evaluate(ctx, fn, arg)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	// results come back as generic maps and slices, re-encode to fill typed values
	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("encode evaluate result: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode evaluate result: %w", err)
	}
	return nil
}

// evaluate runs page.Evaluate, which takes no timeout, and gives up when ctx is done.
// an abandoned call finishes in the background and its result is dropped.
func (p *Page) evaluate(ctx context.Context, fn string, arg any) (any, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultTimeout)
		defer cancel()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	type result struct {
		val any
		err error
	}
	done := make(chan result, 1)
	go func() {
		val, err := p.page.Evaluate(fn, arg)
		done <- result{val: val, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return nil, wrap("evaluate", r.err)
		}
		return r.val, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("evaluate: %w", ctx.Err())
	}
}

// Responses returns the hub of finished network requests.
func (p *Page) Responses() *browser.Hub {
	return p.hub
}

// Close shuts down the tab, the browser and the playwright driver.
func (p *Page) Close() error {
	var errs []error
	if p.page != nil {
		errs = append(errs, p.page.Close())
	}
	if p.context != nil {
		errs = append(errs, p.context.Close())
	}
	if p.browser != nil {
		errs = append(errs, p.browser.Close())
	}
	if p.pw != nil {
		errs = append(errs, p.pw.Stop())
	}
	p.hub.Close()
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("close browser: %w", err)
	}
	return nil
}

func (p *Page) timeout(ctx context.Context) *float64 {
	return playwright.Float(browser.TimeoutMs(ctx, defaultTimeout))
}

// wrap annotates err and marks playwright timeouts as deadline errors.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, playwright.ErrTimeout) {
		return fmt.Errorf("%s: %w: %w", op, context.DeadlineExceeded, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
