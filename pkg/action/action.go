// Package action performs user-like actions in the messaging client: login and
// composing messages. every send is reported to the quiescence tracker first.
package action

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/umputun/chatcheck/pkg/browser"
	"github.com/umputun/chatcheck/pkg/dom"
)

// Kind is the kind of a message, it selects the compose form variant.
type Kind string

// message kinds.
const (
	Stream  Kind = "stream"
	Private Kind = "private"
)

// ParseKind returns the Kind named s.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case Stream, Private:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("unknown message kind %q", s)
	}
}

// Message is a message to compose and send.
type Message struct {
	Kind       Kind
	Stream     string   // stream messages only
	Subject    string   // stream messages only, may be empty
	Recipients []string // private messages only, emails
	Content    string
}

// Validate checks that the message can be composed.
func (m Message) Validate() error {
	if strings.TrimSpace(m.Content) == "" {
		return errors.New("empty content")
	}
	switch m.Kind {
	case Stream:
		if m.Stream == "" {
			return errors.New("stream message without stream")
		}
	case Private:
		if len(m.Recipients) == 0 {
			return errors.New("private message without recipients")
		}
	default:
		return fmt.Errorf("unknown message kind %q", m.Kind)
	}
	return nil
}

// Fields returns the compose form inputs for the message in fill order.
func (m Message) Fields() []browser.Field {
	if m.Kind == Private {
		return []browser.Field{
			{Name: "recipient", Value: strings.Join(m.Recipients, ", ")},
			{Name: "content", Value: m.Content},
		}
	}
	return []browser.Field{
		{Name: "stream", Value: m.Stream},
		{Name: "subject", Value: m.Subject},
		{Name: "content", Value: m.Content},
	}
}

// String returns a short description for logs.
func (m Message) String() string {
	if m.Kind == Private {
		return fmt.Sprintf("private to %s: %q", strings.Join(m.Recipients, ", "), m.Content)
	}
	return fmt.Sprintf("stream %s/%s: %q", m.Stream, m.Subject, m.Content)
}

// Tracker receives activity notifications.
type Tracker interface {
	MarkActivity()
}

// Checker records non-fatal check outcomes.
type Checker interface {
	True(name string, ok bool, detail string) bool
}

// Creds are the login credentials of the harness user.
type Creds struct {
	Username string
	Password string
}

// responseGrace bounds how long Login looks for the response to its first request
// once navigation returned. backends may deliver network events after that.
const responseGrace = time.Second

var (
	accountsHomeRe = regexp.MustCompile(`^https?://[^/]+/accounts/home`)
	clientHomeRe   = regexp.MustCompile(`^https?://[^/]+/#?$`)
)

// Driver performs actions on a page.
type Driver struct {
	page    browser.Page
	tracker Tracker
	sel     dom.Selectors
	checks  Checker
}

// NewDriver makes a driver acting on page, reporting sends to tracker and login checks to checks.
func NewDriver(page browser.Page, tracker Tracker, sel dom.Selectors, checks Checker) *Driver {
	return &Driver{page: page, tracker: tracker, sel: sel, checks: checks}
}

// Send marks activity and then composes and submits msg.
// activity is marked at issuance so a quiescence wait started right after covers the send.
// it does not wait for the compose form to become available.
func (d *Driver) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return fmt.Errorf("invalid message: %w", err)
	}

	d.tracker.MarkActivity()

	if err := d.page.Click(ctx, d.sel.ComposeTrigger(string(msg.Kind))); err != nil {
		return fmt.Errorf("open %s compose: %w", msg.Kind, err)
	}
	if err := d.page.Fill(ctx, d.sel.ComposeForm, msg.Fields()); err != nil {
		return fmt.Errorf("fill compose form: %w", err)
	}
	if err := d.page.Click(ctx, d.sel.ComposeSend); err != nil {
		return fmt.Errorf("click send: %w", err)
	}
	return nil
}

// WaitAndSend waits for the send button to be enabled, so the previous send completed, then sends msg.
func (d *Driver) WaitAndSend(ctx context.Context, msg Message) error {
	if err := d.page.WaitVisible(ctx, d.sel.ComposeSendEnabled()); err != nil {
		return fmt.Errorf("wait for compose to be ready: %w", err)
	}
	return d.Send(ctx, msg)
}

// Open navigates to url of an already authenticated session and waits for the home view.
func (d *Driver) Open(ctx context.Context, url string) error {
	if err := d.page.Goto(ctx, url); err != nil {
		return fmt.Errorf("open %s: %w", url, err)
	}
	if err := d.page.WaitVisible(ctx, dom.Home.Selector()); err != nil {
		return fmt.Errorf("wait for home view: %w", err)
	}
	return nil
}

// Login opens baseURL, follows the login link and submits creds.
// the 302 answer to the anonymous visit, the redirect to the accounts page and the
// final landing on the client home page are recorded as checks.
func (d *Driver) Login(ctx context.Context, baseURL string, creds Creds) error {
	hub := d.page.Responses()
	events := hub.Subscribe()
	defer hub.Unsubscribe(events)

	if err := d.page.Goto(ctx, baseURL); err != nil {
		return fmt.Errorf("open %s: %w", baseURL, err)
	}
	status := responseStatus(ctx, events, baseURL)
	d.checks.True("anonymous visit answered with 302", status == http.StatusFound, fmt.Sprintf("status is %d", status))
	d.checks.True("redirected to /accounts/home", accountsHomeRe.MatchString(d.page.URL()),
		fmt.Sprintf("url is %s", d.page.URL()))

	if err := d.page.Click(ctx, d.sel.LoginLink); err != nil {
		return fmt.Errorf("click login link: %w", err)
	}
	if err := d.page.WaitVisible(ctx, d.sel.LoginForm); err != nil {
		return fmt.Errorf("wait for login form: %w", err)
	}
	fields := []browser.Field{{Name: "username", Value: creds.Username}, {Name: "password", Value: creds.Password}}
	if err := d.page.Fill(ctx, d.sel.LoginForm, fields); err != nil {
		return fmt.Errorf("fill login form: %w", err)
	}
	if err := d.page.Submit(ctx, d.sel.LoginForm); err != nil {
		return fmt.Errorf("submit login form: %w", err)
	}
	if err := d.page.WaitVisible(ctx, dom.Home.Selector()); err != nil {
		return fmt.Errorf("wait for home view: %w", err)
	}
	d.checks.True("on home page", clientHomeRe.MatchString(d.page.URL()), fmt.Sprintf("url is %s", d.page.URL()))
	return nil
}

// responseStatus returns the status of the first response for url, 0 if none arrives
// within responseGrace.
func responseStatus(ctx context.Context, events <-chan browser.ResponseEvent, url string) int {
	timer := time.NewTimer(responseGrace)
	defer timer.Stop()
	for {
		select {
		case e, ok := <-events:
			if !ok {
				return 0
			}
			if strings.TrimSuffix(e.URL, "/") == strings.TrimSuffix(url, "/") {
				return e.Status
			}
		case <-timer.C:
			return 0
		case <-ctx.Done():
			return 0
		}
	}
}
