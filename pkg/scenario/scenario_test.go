package scenario

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/chatcheck/pkg/browser/mocks"
)

type lines struct {
	out []string
}

func (l *lines) Print(format string, args ...any) { l.out = append(l.out, fmt.Sprintf(format, args...)) }

func visibleAfter(d time.Duration) func(context.Context, string) error {
	return func(ctx context.Context, _ string) error {
		select {
		case <-time.After(d):
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func TestRunner_RunsInOrder(t *testing.T) {
	var trace []string
	record := func(s string) Action {
		return func(context.Context) error {
			trace = append(trace, s)
			return nil
		}
	}
	page := &mocks.PageMock{WaitVisibleFunc: func(_ context.Context, sel string) error {
		trace = append(trace, "visible "+sel)
		return nil
	}}
	calls := 0
	pred := func() bool {
		calls++
		trace = append(trace, "poll")
		return calls >= 3
	}
	log := &lines{}
	r := NewRunner(page, log, time.Second, time.Millisecond)

	err := r.Run(t.Context(), []Step{
		DoStep("send A", record("A")),
		WaitElementStep("send B", "#compose-send-button:enabled", record("B")),
		WaitPredicateStep("", pred, record("expect")),
		AssertStep("check", record("check")),
		DoStep("info only", nil),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "visible #compose-send-button:enabled", "B", "poll", "poll", "poll", "expect", "check"}, trace)
	assert.Equal(t, []string{"send A", "send B", "check", "info only"}, log.out)
}

func TestRunner_ElementWait(t *testing.T) {
	t.Run("resolves", func(t *testing.T) {
		r := NewRunner(&mocks.PageMock{WaitVisibleFunc: visibleAfter(10 * time.Millisecond)}, nil, time.Second, 0)
		done := false
		err := r.Run(t.Context(), []Step{WaitElementStep("w", "#zfilt", func(context.Context) error {
			done = true
			return nil
		})})
		require.NoError(t, err)
		assert.True(t, done)
	})

	t.Run("timeout is fatal", func(t *testing.T) {
		r := NewRunner(&mocks.PageMock{WaitVisibleFunc: visibleAfter(time.Hour)}, nil, 20*time.Millisecond, 0)
		ran := false
		err := r.Run(t.Context(), []Step{
			DoStep("first", nil),
			WaitElementStep("wait zfilt", "#zfilt", func(context.Context) error {
				ran = true
				return nil
			}),
			DoStep("never", func(context.Context) error {
				ran = true
				return nil
			}),
		})
		require.ErrorIs(t, err, ErrWaitTimeout)
		var fe *FatalError
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, 1, fe.Step)
		assert.Equal(t, "wait zfilt", fe.Name)
		assert.Contains(t, err.Error(), "step 2 (wait zfilt)")
		assert.False(t, ran, "nothing after a failed wait runs")
	})

	t.Run("backend error", func(t *testing.T) {
		boom := errors.New("page crashed")
		r := NewRunner(&mocks.PageMock{WaitVisibleFunc: func(context.Context, string) error { return boom }}, nil, time.Second, 0)
		err := r.Run(t.Context(), []Step{WaitElementStep("w", "#zhome", nil)})
		require.ErrorIs(t, err, boom)
		assert.NotErrorIs(t, err, ErrWaitTimeout)
	})

	t.Run("missing selector", func(t *testing.T) {
		r := NewRunner(&mocks.PageMock{}, nil, time.Second, 0)
		err := r.Run(t.Context(), []Step{{Name: "bad", Kind: WaitElement}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "without selector")
	})
}

func TestRunner_PredicateWait(t *testing.T) {
	t.Run("checks immediately", func(t *testing.T) {
		r := NewRunner(&mocks.PageMock{}, nil, time.Second, time.Hour)
		var calls atomic.Int32
		err := r.Run(t.Context(), []Step{WaitPredicateStep("q", func() bool {
			calls.Add(1)
			return true
		}, nil)})
		require.NoError(t, err)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("timeout", func(t *testing.T) {
		r := NewRunner(&mocks.PageMock{}, nil, 30*time.Millisecond, 5*time.Millisecond)
		start := time.Now()
		err := r.Run(t.Context(), []Step{WaitPredicateStep("quiet", func() bool { return false }, nil)})
		require.ErrorIs(t, err, ErrWaitTimeout)
		assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
	})

	t.Run("nil predicate", func(t *testing.T) {
		r := NewRunner(&mocks.PageMock{}, nil, time.Second, 0)
		err := r.Run(t.Context(), []Step{{Name: "bad", Kind: WaitPredicate}})
		require.Error(t, err)
	})

	t.Run("parent cancel is not a timeout", func(t *testing.T) {
		ctx, cancel := context.WithCancel(t.Context())
		r := NewRunner(&mocks.PageMock{}, nil, time.Hour, time.Millisecond)
		go func() {
			time.Sleep(10 * time.Millisecond)
			cancel()
		}()
		err := r.Run(ctx, []Step{WaitPredicateStep("q", func() bool { return false }, nil)})
		require.ErrorIs(t, err, context.Canceled)
		assert.NotErrorIs(t, err, ErrWaitTimeout)
	})
}

func TestRunner_ActionErrorIsFatal(t *testing.T) {
	boom := errors.New("compose not available")
	later := false
	r := NewRunner(&mocks.PageMock{}, nil, time.Second, 0)
	err := r.Run(t.Context(), []Step{
		DoStep("send", func(context.Context) error { return boom }),
		AssertStep("expect", func(context.Context) error {
			later = true
			return nil
		}),
	})
	require.ErrorIs(t, err, boom)
	var fe *FatalError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, 0, fe.Step)
	assert.False(t, later)
}

func TestRunner_Misc(t *testing.T) {
	t.Run("unknown kind", func(t *testing.T) {
		r := NewRunner(&mocks.PageMock{}, nil, time.Second, 0)
		err := r.Run(t.Context(), []Step{{Name: "x", Kind: "sleep"}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown step kind")
	})

	t.Run("cancelled before start", func(t *testing.T) {
		ctx, cancel := context.WithCancel(t.Context())
		cancel()
		ran := false
		r := NewRunner(&mocks.PageMock{}, nil, time.Second, 0)
		err := r.Run(ctx, []Step{DoStep("x", func(context.Context) error {
			ran = true
			return nil
		})})
		require.ErrorIs(t, err, context.Canceled)
		assert.False(t, ran)
	})

	t.Run("empty scenario", func(t *testing.T) {
		r := NewRunner(&mocks.PageMock{}, nil, 0, 0)
		require.NoError(t, r.Run(t.Context(), nil))
		assert.Equal(t, DefaultTimeout, r.timeout)
		assert.Equal(t, DefaultInterval, r.interval)
	})
}
