// Package check records pass/fail facts about the rendered client state and
// compares message tables against expectations.
package check

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/stretchr/testify/assert"
)

// Result is the outcome of a single check.
type Result struct {
	Name    string    `json:"name"`
	Passed  bool      `json:"passed"`
	Message string    `json:"message,omitempty"`
	At      time.Time `json:"at"`
}

// Summary aggregates recorded results.
type Summary struct {
	Passed  int      `json:"passed"`
	Failed  int      `json:"failed"`
	Results []Result `json:"results"`
}

// Logger receives every recorded result as it happens.
type Logger interface {
	Pass(format string, args ...any)
	Fail(format string, args ...any)
}

// Recorder collects check results. A failed check never stops the caller.
type Recorder struct {
	mu      sync.Mutex
	log     Logger
	results []Result
}

// NewRecorder creates a recorder reporting to log. log may be nil.
func NewRecorder(log Logger) *Recorder {
	return &Recorder{log: log}
}

// Equal records whether actual equals expected. the failure message carries a diff.
func (r *Recorder) Equal(name string, expected, actual any) bool {
	c := &collector{}
	return r.record(name, assert.Equal(c, expected, actual), c)
}

// Regexp records whether s matches re.
func (r *Recorder) Regexp(name string, re *regexp.Regexp, s string) bool {
	c := &collector{}
	return r.record(name, assert.Regexp(c, re, s), c)
}

// True records ok as the outcome of name, with detail explaining a failure.
func (r *Recorder) True(name string, ok bool, detail string) bool {
	c := &collector{}
	if !ok {
		c.Errorf("%s", detail)
	}
	return r.record(name, ok, c)
}

// Fail records a failed check.
func (r *Recorder) Fail(name, detail string) {
	r.True(name, false, detail)
}

func (r *Recorder) record(name string, ok bool, c *collector) bool {
	res := Result{Name: name, Passed: ok, Message: c.message(), At: time.Now()}

	r.mu.Lock()
	r.results = append(r.results, res)
	r.mu.Unlock()

	if r.log != nil {
		if ok {
			r.log.Pass("%s", name)
		} else {
			r.log.Fail("%s\n%s", name, res.Message)
		}
	}
	return ok
}

// Results returns a copy of all results in the order they were recorded.
func (r *Recorder) Results() []Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Result(nil), r.results...)
}

// Summary counts passed and failed checks.
func (r *Recorder) Summary() Summary {
	s := Summary{Results: r.Results()}
	for _, res := range s.Results {
		if res.Passed {
			s.Passed++
			continue
		}
		s.Failed++
	}
	return s
}

// Failed reports whether any check failed.
func (r *Recorder) Failed() bool {
	return r.Summary().Failed > 0
}

// JSON returns the summary as indented JSON.
func (s Summary) JSON() ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal summary: %w", err)
	}
	return data, nil
}

// collector is an assert.TestingT capturing failure output instead of failing a test.
type collector struct {
	msgs []string
}

func (c *collector) Errorf(format string, args ...any) {
	c.msgs = append(c.msgs, fmt.Sprintf(format, args...))
}

// message joins captured output, dropping testify's call-site trace.
func (c *collector) message() string {
	parts := make([]string, 0, len(c.msgs))
	for _, m := range c.msgs {
		if idx := strings.Index(m, "Error:"); idx >= 0 {
			m = m[idx:]
		}
		parts = append(parts, strings.TrimSpace(m))
	}
	return strings.Join(parts, "\n")
}
