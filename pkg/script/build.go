package script

import (
	"context"
	"fmt"
	"time"

	"github.com/umputun/chatcheck/pkg/action"
	"github.com/umputun/chatcheck/pkg/check"
	"github.com/umputun/chatcheck/pkg/dom"
	"github.com/umputun/chatcheck/pkg/narrow"
	"github.com/umputun/chatcheck/pkg/quiesce"
	"github.com/umputun/chatcheck/pkg/scenario"
)

// Env is the set of harness components the steps act through.
type Env struct {
	BaseURL    string
	Creds      action.Creds
	Driver     *action.Driver
	Engine     *check.Engine
	Narrow     *narrow.Controller
	Tracker    *quiesce.Tracker
	IdleWindow time.Duration
}

// Build turns def into sequencer steps. the first step logs in, or just opens the
// client if def does not ask for a login. narrow transitions are checked here so a
// scenario that narrows twice fails before anything runs.
func Build(def Definition, env Env) ([]scenario.Step, error) {
	steps := make([]scenario.Step, 0, len(def.Steps)+1)
	if def.Login {
		steps = append(steps, scenario.DoStep("Logging in", func(ctx context.Context) error {
			return env.Driver.Login(ctx, env.BaseURL, env.Creds)
		}))
	} else {
		steps = append(steps, scenario.DoStep("Opening "+env.BaseURL, func(ctx context.Context) error {
			return env.Driver.Open(ctx, env.BaseURL)
		}))
	}

	state := narrow.Home
	for _, sd := range def.Steps {
		switch sd.Op {
		case opInfo:
			steps = append(steps, scenario.DoStep(sd.Text, nil))

		case opSanity:
			table := sd.Table
			steps = append(steps, scenario.AssertStep("Sanity-checking existing messages in "+table.Name(),
				func(ctx context.Context) error { return env.Engine.SanityCheck(ctx, table) }))

		case opSend:
			msg, err := sd.Send.Message()
			if err != nil {
				return nil, fmt.Errorf("line %d: send: %w", sd.Line, err)
			}
			send := func(ctx context.Context) error { return env.Driver.Send(ctx, msg) }
			if sd.Send.Waits() {
				send = func(ctx context.Context) error { return env.Driver.WaitAndSend(ctx, msg) }
			}
			steps = append(steps, scenario.DoStep("Sending "+msg.String(), send))

		case opWaitReceive:
			steps = append(steps, scenario.WaitPredicateStep("Waiting for messages to settle",
				func() bool { return env.Tracker.IsQuiescent(env.IdleWindow) }, nil))

		case opExpect:
			table, err := dom.ParseTable(sd.Expect.Table)
			if err != nil {
				return nil, fmt.Errorf("line %d: expect: %w", sd.Line, err)
			}
			exp := *sd.Expect
			steps = append(steps, scenario.AssertStep("Checking "+table.Name()+" messages",
				func(ctx context.Context) error { return env.Engine.ExpectTail(ctx, table, exp.Headings, exp.Bodies) }))

		case opNarrow:
			spec := narrow.Spec{Stream: sd.Narrow.Stream, Subject: sd.Narrow.Subject, Names: sd.Narrow.Recipients}
			if err := spec.Validate(); err != nil {
				return nil, fmt.Errorf("line %d: narrow: %w", sd.Line, err)
			}
			if state != narrow.Home {
				return nil, fmt.Errorf("line %d: %w: narrow to %s while in %s", sd.Line, narrow.ErrInvalidTransition, spec, state)
			}
			state = spec.State()
			steps = append(steps,
				scenario.DoStep("Narrowing to "+spec.String(), func(ctx context.Context) error { return env.Narrow.Narrow(ctx, spec) }),
				scenario.WaitElementStep("", narrow.ReadySelectorFor(state), nil))

		case opUnnarrow:
			if !state.Narrowed() {
				return nil, fmt.Errorf("line %d: %w: un-narrow while in %s", sd.Line, narrow.ErrInvalidTransition, state)
			}
			state = narrow.Home
			steps = append(steps,
				scenario.DoStep("Un-narrowing", env.Narrow.Unnarrow),
				scenario.WaitElementStep("", narrow.ReadySelectorFor(state), nil))

		default:
			return nil, fmt.Errorf("line %d: unknown step %q", sd.Line, sd.Op)
		}
	}
	return steps, nil
}
