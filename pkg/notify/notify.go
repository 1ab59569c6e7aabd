// Package notify sends the outcome of a harness run to configured channels.
package notify

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	ntfy "github.com/go-pkgz/notify"
)

const defaultTimeout = 10 * time.Second

// Params holds configuration for creating a notification Service.
// the config package fills it from the notify_* keys.
type Params struct {
	Channels      []string
	OnError       bool
	OnComplete    bool
	TimeoutMs     int
	TelegramToken string
	TelegramChat  string
	SlackToken    string
	SlackChannel  string
	SMTPHost      string
	SMTPPort      int
	SMTPUsername  string
	SMTPPassword  string
	SMTPStartTLS  bool
	EmailFrom     string
	EmailTo       []string
	WebhookURLs   []string
	CustomScript  string
}

// Result is the outcome of one run as it is reported.
type Result struct {
	Status   string   `json:"status"` // "success" or "failure"
	Scenario string   `json:"scenario"`
	BaseURL  string   `json:"base_url"`
	Driver   string   `json:"driver"`
	Duration string   `json:"duration"`
	Passed   int      `json:"passed"`
	Failed   int      `json:"failed"`
	Failures []string `json:"failures,omitempty"` // names of failed checks
	Error    string   `json:"error,omitempty"`    // harness-fatal error, if any
}

// OK reports whether the run passed.
func (r Result) OK() bool { return r.Status == "success" }

// Service delivers results to every configured target. a nil Service sends nothing.
type Service struct {
	targets    []target
	script     *customChannel
	onError    bool
	onComplete bool
	timeout    time.Duration
	host       string
	log        logger
}

// target is one destination of a go-pkgz/notify notifier.
type target struct {
	name     string
	notifier ntfy.Notifier
	dest     string
	format   func(msg string) string // adapts the plain message to the destination, nil keeps it
}

type logger interface {
	Print(format string, args ...any)
}

// New creates a Service for the channels named in p. no channels gives a nil Service and no error.
// a misconfigured channel is an error, a channel that cannot reach its API at startup is skipped with a warning.
func New(p Params, log logger) (*Service, error) {
	if len(p.Channels) == 0 {
		return nil, nil //nolint:nilnil // nil Service is a valid no-op sender
	}

	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}
	svc := &Service{
		onError:    p.OnError,
		onComplete: p.OnComplete,
		timeout:    defaultTimeout,
		host:       host,
		log:        log,
	}
	if p.TimeoutMs > 0 {
		svc.timeout = time.Duration(p.TimeoutMs) * time.Millisecond
	}

	for _, raw := range p.Channels {
		name := strings.ToLower(strings.TrimSpace(raw))
		if name == "custom" {
			if p.CustomScript == "" {
				return nil, errors.New("custom channel: notify_custom_script is required")
			}
			svc.script = newCustomChannel(p.CustomScript)
			continue
		}
		build, ok := builders[name]
		if !ok {
			return nil, fmt.Errorf("unknown notification channel: %q", raw)
		}
		ts, bErr := build(p, log)
		if bErr != nil {
			return nil, fmt.Errorf("%s channel: %w", name, bErr)
		}
		svc.targets = append(svc.targets, ts...)
	}

	if len(svc.targets) == 0 && svc.script == nil {
		log.Print("[WARN] all notification channels were disabled due to initialization errors")
	}
	return svc, nil
}

// Send delivers r unless its status is muted by the on_error/on_complete settings.
// delivery is best effort, failures are logged.
func (s *Service) Send(ctx context.Context, r Result) {
	if s == nil || !s.wants(r) {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	msg := s.message(r)
	for _, t := range s.targets {
		text := msg
		if t.format != nil {
			text = t.format(msg)
		}
		if err := t.notifier.Send(ctx, t.dest, text); err != nil {
			s.log.Print("[WARN] %s notification failed: %v", t.name, err)
		}
	}

	if s.script != nil {
		if err := s.script.send(ctx, r); err != nil {
			s.log.Print("[WARN] custom notification failed: %v", err)
		}
	}
}

func (s *Service) wants(r Result) bool {
	if r.OK() {
		return s.onComplete
	}
	return s.onError
}

// message renders r as plain text: a headline, aligned fields, then the failed checks.
func (s *Service) message(r Result) string {
	var b strings.Builder
	verdict := "failed"
	if r.OK() {
		verdict = "passed"
	}
	fmt.Fprintf(&b, "chatcheck %s on %s\n\n", verdict, s.host)

	tw := tabwriter.NewWriter(&b, 0, 0, 1, ' ', 0)
	for _, f := range []struct{ key, val string }{
		{"scenario:", r.Scenario},
		{"client:", r.BaseURL},
		{"driver:", r.Driver},
		{"duration:", r.Duration},
		{"checks:", fmt.Sprintf("%d passed, %d failed", r.Passed, r.Failed)},
		{"error:", r.Error},
	} {
		if f.val != "" {
			fmt.Fprintf(tw, "%s\t%s\n", f.key, f.val)
		}
	}
	_ = tw.Flush()

	if len(r.Failures) > 0 {
		b.WriteString("failed checks:\n")
		for _, f := range r.Failures {
			fmt.Fprintf(&b, "  - %s\n", f)
		}
	}
	return b.String()
}
