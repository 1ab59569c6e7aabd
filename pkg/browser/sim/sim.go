// Package sim is an in-memory stand-in for the messaging web client. It
// implements browser.Page over the client's DOM contract, delivers sent messages
// asynchronously and publishes update-poll responses, so the whole harness can
// run without a server or a browser.
package sim

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/umputun/chatcheck/pkg/browser"
	"github.com/umputun/chatcheck/pkg/dom"
	"github.com/umputun/chatcheck/pkg/narrow"
)

// endpoints reported on the response stream.
const (
	SendPath    = "/json/send_message"
	UpdatesPath = "/json/get_updates"
)

// ErrNoElement is returned when a selector matches nothing the client renders.
var ErrNoElement = errors.New("no element matches selector")

// User is an account known to the client.
type User struct {
	Email string
	Name  string
}

// Message is a message already in the client's history.
type Message struct {
	Stream     string
	Subject    string
	Recipients []string // emails, private messages only
	Content    string
}

type delivered struct {
	target narrow.Target
	body   string
}

// Client is a simulated client in one browser tab.
type Client struct {
	mu       sync.Mutex
	base     string
	url      string
	self     User
	password string
	users    map[string]string // email to display name
	latency  time.Duration

	loggedIn bool
	compose  string            // open compose kind, empty when closed
	form     map[string]string // values filled into the current form
	sending  bool
	active   narrow.Spec
	messages []delivered

	sel    dom.Selectors
	hub    *browser.Hub
	timers []*time.Timer
	closed bool
}

// Option configures a Client.
type Option func(*Client)

// WithLatency sets the delay between clicking send and the message being rendered.
func WithLatency(d time.Duration) Option {
	return func(c *Client) { c.latency = d }
}

// WithUsers adds accounts that can receive private messages.
func WithUsers(users ...User) Option {
	return func(c *Client) {
		for _, u := range users {
			c.users[u.Email] = u.Name
		}
	}
}

// WithLogin sets the account of the harness user.
func WithLogin(self User, password string) Option {
	return func(c *Client) {
		c.self = self
		c.password = password
		c.users[self.Email] = self.Name
	}
}

// WithHistory preloads messages rendered before the session starts.
// private recipients must be known users.
func WithHistory(msgs ...Message) Option {
	return func(c *Client) {
		for _, m := range msgs {
			d, err := c.deliverable(m.Stream, m.Subject, m.Recipients, m.Content)
			if err != nil {
				panic(fmt.Sprintf("sim history: %v", err))
			}
			c.messages = append(c.messages, d)
		}
	}
}

// New makes a client served at baseURL. baseURL must end with a slash.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		base:    baseURL,
		users:   map[string]string{},
		latency: 20 * time.Millisecond,
		sel:     dom.DefaultSelectors(),
		hub:     browser.NewHub(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Goto navigates the tab. anonymous visitors land on the accounts page.
func (c *Client) Goto(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if !strings.HasPrefix(url, c.base) {
		return fmt.Errorf("navigate to %s: connection refused", url)
	}
	c.url = url
	if !c.loggedIn {
		c.hub.Broadcast(browser.ResponseEvent{URL: url, Status: http.StatusFound, At: time.Now()})
		c.url = c.base + "accounts/home/"
	}
	c.hub.Broadcast(browser.ResponseEvent{URL: c.url, Status: http.StatusOK, At: time.Now()})
	c.compose, c.form = "", nil
	return nil
}

// URL returns the current location.
func (c *Client) URL() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.url
}

// Click acts on the element matched by selector.
func (c *Client) Click(ctx context.Context, selector string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case selector == c.sel.LoginLink && c.onAccountsPage():
		c.url = c.base + "accounts/login/"
		return nil
	case !c.loggedIn:
		return fmt.Errorf("%w: %s", ErrNoElement, selector)
	case selector == c.sel.ComposeTrigger("stream"):
		c.compose, c.form = "stream", map[string]string{}
		return nil
	case selector == c.sel.ComposeTrigger("private"):
		c.compose, c.form = "private", map[string]string{}
		return nil
	case selector == c.sel.ComposeSend:
		return c.send()
	case selector == c.sel.Unnarrow:
		if c.active.State() == narrow.Home {
			return fmt.Errorf("%w: %s", ErrNoElement, selector)
		}
		c.active = narrow.Spec{}
		return nil
	}

	title, ok := titleOf(selector)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoElement, selector)
	}
	spec, err := narrow.ParseTitle(title)
	if err != nil || !c.hasMatch(spec) {
		return fmt.Errorf("%w: %s", ErrNoElement, selector)
	}
	c.active = spec
	return nil
}

// Fill puts values into the inputs of form.
func (c *Client) Fill(ctx context.Context, form string, fields []browser.Field) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case form == c.sel.LoginForm && c.onLoginPage():
		c.form = map[string]string{}
	case form == c.sel.ComposeForm && c.compose != "":
	default:
		return fmt.Errorf("%w: %s", ErrNoElement, form)
	}
	for _, f := range fields {
		c.form[f.Name] = f.Value
	}
	return nil
}

// Submit submits form. only the login form is submitted this way.
func (c *Client) Submit(ctx context.Context, form string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if form != c.sel.LoginForm || !c.onLoginPage() {
		return fmt.Errorf("%w: %s", ErrNoElement, form)
	}
	if c.form["username"] == c.self.Email && c.form["password"] == c.password && c.self.Email != "" {
		c.loggedIn = true
		c.url = c.base
	}
	c.form = nil
	return nil
}

// WaitVisible polls until selector is visible or ctx is done.
func (c *Client) WaitVisible(ctx context.Context, selector string) error {
	ticker := time.NewTicker(2 * time.Millisecond)
	defer ticker.Stop()
	for {
		if ok, _ := c.Visible(ctx, selector); ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("wait for %s: %w", selector, ctx.Err())
		case <-ticker.C:
		}
	}
}

// Visible reports whether selector matches a visible element.
func (c *Client) Visible(ctx context.Context, selector string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	switch selector {
	case c.sel.LoginLink:
		return c.onAccountsPage(), nil
	case c.sel.LoginForm:
		return c.onLoginPage(), nil
	}
	if !c.loggedIn {
		return false, nil
	}
	switch selector {
	case dom.Home.Selector():
		return c.active.State() == narrow.Home, nil
	case dom.Filtered.Selector():
		return c.active.State() != narrow.Home, nil
	case c.sel.ComposeSend, c.sel.ComposeTrigger("stream"), c.sel.ComposeTrigger("private"):
		return true, nil
	case c.sel.ComposeSendEnabled():
		return !c.sending, nil
	case c.sel.Unnarrow:
		return c.active.State() != narrow.Home, nil
	}
	if title, ok := titleOf(selector); ok {
		spec, err := narrow.ParseTitle(title)
		return err == nil && c.hasMatch(spec), nil
	}
	return false, nil
}

// Evaluate supports the table extraction only: arg must carry the table id.
// the tables are rendered with the default selectors regardless of arg.
func (c *Client) Evaluate(ctx context.Context, _ string, arg, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	args, ok := arg.(map[string]string)
	if !ok || args["table"] == "" {
		return errors.New("unsupported evaluation")
	}

	c.mu.Lock()
	var res *dom.Rendered
	if c.loggedIn {
		switch dom.Table(args["table"]) {
		case dom.Home:
			res = render(c.messages, narrow.Spec{})
		case dom.Filtered:
			res = &dom.Rendered{Headings: []string{}, Bodies: []string{}, Owners: []int{}}
			if c.active.State() != narrow.Home {
				res = render(c.messages, c.active)
			}
		}
	}
	c.mu.Unlock()

	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode result: %w", err)
	}
	return nil
}

// Responses returns the stream of completed network responses.
func (c *Client) Responses() *browser.Hub {
	return c.hub
}

// Close stops pending deliveries and closes the response stream.
func (c *Client) Close() error {
	c.mu.Lock()
	c.closed = true
	for _, t := range c.timers {
		t.Stop()
	}
	c.timers = nil
	c.mu.Unlock()
	c.hub.Close()
	return nil
}

// send submits the open compose form. the button stays disabled until the
// message is delivered. called with mu held.
func (c *Client) send() error {
	if c.compose == "" {
		return fmt.Errorf("%w: %s", ErrNoElement, c.sel.ComposeSend)
	}
	if c.sending {
		return errors.New("send button is disabled")
	}

	var recipients []string
	if c.compose == "private" {
		for r := range strings.SplitSeq(c.form["recipient"], ",") {
			if r = strings.TrimSpace(r); r != "" {
				recipients = append(recipients, r)
			}
		}
	}
	d, err := c.deliverable(c.form["stream"], c.form["subject"], recipients, c.form["content"])
	if err != nil {
		return err
	}

	c.sending = true
	c.compose, c.form = "", nil
	c.schedule(c.latency/2, func() {
		c.hub.Broadcast(browser.ResponseEvent{URL: c.base + strings.TrimPrefix(SendPath, "/"), Status: 200, At: time.Now()})
	})
	c.schedule(c.latency, func() {
		c.mu.Lock()
		c.messages = append(c.messages, d)
		c.sending = false
		c.mu.Unlock()
		c.hub.Broadcast(browser.ResponseEvent{URL: c.base + strings.TrimPrefix(UpdatesPath, "/"), Status: 200, At: time.Now()})
	})
	return nil
}

// schedule runs fn after d unless the client is closed. called with mu held.
func (c *Client) schedule(d time.Duration, fn func()) {
	if c.closed {
		return
	}
	c.timers = append(c.timers, time.AfterFunc(d, fn))
}

// deliverable validates a message and resolves private recipients to names.
func (c *Client) deliverable(stream, subject string, recipients []string, content string) (delivered, error) {
	if strings.TrimSpace(content) == "" {
		return delivered{}, errors.New("you have nothing to send")
	}
	body := "<p>" + html.EscapeString(content) + "</p>"
	if len(recipients) == 0 {
		if stream == "" {
			return delivered{}, errors.New("please specify a stream")
		}
		return delivered{target: narrow.Target{Stream: stream, Subject: subject}, body: body}, nil
	}

	names := make([]string, 0, len(recipients))
	for _, email := range recipients {
		name, ok := c.users[email]
		if !ok {
			return delivered{}, fmt.Errorf("the recipient %s is not valid", email)
		}
		names = append(names, name)
	}
	return delivered{target: narrow.Target{Names: names}, body: body}, nil
}

func (c *Client) hasMatch(spec narrow.Spec) bool {
	for _, m := range c.messages {
		if spec.Matches(m.target) {
			return true
		}
	}
	return false
}

func (c *Client) onAccountsPage() bool {
	return !c.loggedIn && c.url == c.base+"accounts/home/"
}

func (c *Client) onLoginPage() bool {
	return !c.loggedIn && c.url == c.base+"accounts/login/"
}

// render lays out the messages matching spec, starting a new recipient row
// whenever the conversation changes.
func render(msgs []delivered, spec narrow.Spec) *dom.Rendered {
	res := &dom.Rendered{Headings: []string{}, Bodies: []string{}, Owners: []int{}}
	prev := ""
	for _, m := range msgs {
		if !spec.Matches(m.target) {
			continue
		}
		h := heading(m.target)
		if len(res.Headings) == 0 || h != prev {
			res.Headings = append(res.Headings, h)
			prev = h
		}
		res.Bodies = append(res.Bodies, m.body)
		res.Owners = append(res.Owners, len(res.Headings)-1)
	}
	return res
}

// heading renders the recipient row text the way innerText reports it, with
// non-breaking spaces around the separator.
func heading(t narrow.Target) string {
	if t.Stream != "" {
		return t.Stream + "\u00a0|\u00a0" + t.Subject
	}
	return "You and\u00a0" + strings.Join(t.Names, ", ")
}

// titleOf extracts the title out of a *[title="..."] selector.
func titleOf(selector string) (string, bool) {
	inner, ok := strings.CutPrefix(selector, `*[title="`)
	if !ok {
		return "", false
	}
	inner, ok = strings.CutSuffix(inner, `"]`)
	if !ok {
		return "", false
	}
	return strings.NewReplacer(`\"`, `"`, `\\`, `\`).Replace(inner), true
}
