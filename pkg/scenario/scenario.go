// Package scenario runs an ordered list of steps, resolving each step's wait
// condition before its action. waits are bounded; a timeout or an action error
// aborts the remaining steps.
package scenario

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrWaitTimeout is wrapped by errors of waits that did not resolve in time.
var ErrWaitTimeout = errors.New("wait timed out")

// default bounds of a Runner.
const (
	DefaultTimeout  = 10 * time.Second
	DefaultInterval = 50 * time.Millisecond
)

// Kind is the kind of wait a step declares.
type Kind string

// step kinds.
const (
	Do            Kind = "do"             // fire and continue
	WaitElement   Kind = "wait-element"   // wait for Selector to be visible
	WaitPredicate Kind = "wait-predicate" // poll Predicate until true
	Assert        Kind = "assert"         // record checks, no wait
)

// Action is the work of a step. a returned error is fatal to the run.
// ctx carries the per-step deadline.
type Action func(ctx context.Context) error

// Predicate is polled by wait-predicate steps.
type Predicate func() bool

// Step is one scenario step. the wait declared by Kind resolves before Action runs.
type Step struct {
	Name      string
	Kind      Kind
	Selector  string    // WaitElement
	Predicate Predicate // WaitPredicate
	Action    Action    // optional
}

// DoStep makes a step running action without waiting.
func DoStep(name string, action Action) Step {
	return Step{Name: name, Kind: Do, Action: action}
}

// WaitElementStep makes a step running action once selector is visible.
func WaitElementStep(name, selector string, action Action) Step {
	return Step{Name: name, Kind: WaitElement, Selector: selector, Action: action}
}

// WaitPredicateStep makes a step running action once pred returns true.
func WaitPredicateStep(name string, pred Predicate, action Action) Step {
	return Step{Name: name, Kind: WaitPredicate, Predicate: pred, Action: action}
}

// AssertStep makes a step running checks without waiting.
func AssertStep(name string, action Action) Step {
	return Step{Name: name, Kind: Assert, Action: action}
}

// FatalError reports the step that aborted a run.
type FatalError struct {
	Step int // zero-based index
	Name string
	Err  error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("step %d (%s): %v", e.Step+1, e.Name, e.Err)
}

func (e *FatalError) Unwrap() error { return e.Err }

// ElementWaiter blocks until an element is visible.
type ElementWaiter interface {
	WaitVisible(ctx context.Context, selector string) error
}

// Logger prints step progress.
type Logger interface {
	Print(format string, args ...any)
}

// Runner executes steps in order.
type Runner struct {
	page     ElementWaiter
	log      Logger
	timeout  time.Duration
	interval time.Duration
}

// NewRunner makes a runner waiting for elements on page. timeout bounds every wait,
// interval is the predicate poll period. non-positive values select the defaults.
func NewRunner(page ElementWaiter, log Logger, timeout, interval time.Duration) *Runner {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Runner{page: page, log: log, timeout: timeout, interval: interval}
}

// Run executes steps strictly in order. a step starts only after the previous one
// finished its wait and its action. returns *FatalError on the first wait or action failure.
func (r *Runner) Run(ctx context.Context, steps []Step) error {
	for i, s := range steps {
		fatal := func(err error) error { return &FatalError{Step: i, Name: s.Name, Err: err} }
		if err := ctx.Err(); err != nil {
			return fatal(err)
		}
		if s.Name != "" && r.log != nil {
			r.log.Print("%s", s.Name)
		}
		if err := r.wait(ctx, s); err != nil {
			return fatal(err)
		}
		if s.Action == nil {
			continue
		}
		if err := r.act(ctx, s.Action); err != nil {
			return fatal(err)
		}
	}
	return nil
}

// act runs an action bounded by the runner timeout, since actions wait on the page too.
func (r *Runner) act(ctx context.Context, action Action) error {
	actx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	err := action(actx)
	if err != nil && ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrWaitTimeout, err)
	}
	return err
}

func (r *Runner) wait(ctx context.Context, s Step) error {
	switch s.Kind {
	case Do, Assert, "":
		return nil
	case WaitElement:
		return r.waitElement(ctx, s.Selector)
	case WaitPredicate:
		return r.waitPredicate(ctx, s.Predicate)
	default:
		return fmt.Errorf("unknown step kind %q", s.Kind)
	}
}

func (r *Runner) waitElement(ctx context.Context, selector string) error {
	if selector == "" {
		return errors.New("wait-element step without selector")
	}
	wctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	err := r.page.WaitVisible(wctx, selector)
	switch {
	case err == nil:
		return nil
	case ctx.Err() != nil:
		return ctx.Err()
	case errors.Is(err, context.DeadlineExceeded) || wctx.Err() != nil:
		return fmt.Errorf("%w: %s not visible after %v: %w", ErrWaitTimeout, selector, r.timeout, err)
	default:
		return fmt.Errorf("wait for %s: %w", selector, err)
	}
}

// waitPredicate checks pred once immediately, then every interval until the timeout.
func (r *Runner) waitPredicate(ctx context.Context, pred Predicate) error {
	if pred == nil {
		return errors.New("wait-predicate step without predicate")
	}
	if pred() {
		return nil
	}

	wctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-wctx.Done():
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("%w: condition not met after %v", ErrWaitTimeout, r.timeout)
		case <-ticker.C:
			if pred() {
				return nil
			}
		}
	}
}
