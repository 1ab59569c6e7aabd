package check

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/chatcheck/pkg/dom"
)

type fakeLog struct {
	passes, fails []string
}

func (f *fakeLog) Pass(format string, args ...any) { f.passes = append(f.passes, fmt.Sprintf(format, args...)) }
func (f *fakeLog) Fail(format string, args ...any) { f.fails = append(f.fails, fmt.Sprintf(format, args...)) }

type fakeExtractor struct {
	r   dom.Rendered
	err error
}

func (f *fakeExtractor) Extract(context.Context, dom.Table) (dom.Rendered, error) { return f.r, f.err }

type fakeVisibility struct {
	visible bool
	err     error
	asked   []string
}

func (f *fakeVisibility) Visible(_ context.Context, sel string) (bool, error) {
	f.asked = append(f.asked, sel)
	return f.visible, f.err
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name, in, want string
	}{
		{name: "nbsp", in: "Verona\u00a0|\u00a0frontend test", want: "Verona | frontend test"},
		{name: "runs", in: "a \t\n  b", want: "a b"},
		{name: "no trim", in: "  a  ", want: " a "},
		{name: "unicode separators", in: "a\u2028b\u2029c\ufeffd\u3000e", want: "a b c d e"},
		{name: "vertical tab", in: "a\vb", want: "a b"},
		{name: "empty", in: "", want: ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Normalize(tc.in))
		})
	}

	t.Run("idempotent", func(t *testing.T) {
		s := "x\u00a0\u00a0y \n z"
		assert.Equal(t, Normalize(s), Normalize(Normalize(s)))
	})
}

func TestTail(t *testing.T) {
	assert.Equal(t, []string{"c", "d"}, Tail([]string{"a", "b", "c", "d"}, 2))
	assert.Equal(t, []string{"a"}, Tail([]string{"a"}, 3))
	assert.Equal(t, []string{}, Tail(nil, 0))
	assert.Equal(t, []string{}, Tail([]string{"a"}, 0))
	assert.NotNil(t, Tail(nil, 2))

	src := []string{"a", "b"}
	got := Tail(src, 2)
	got[0] = "z"
	assert.Equal(t, "a", src[0], "tail is a copy")
}

func TestRecorder(t *testing.T) {
	log := &fakeLog{}
	rec := NewRecorder(log)

	assert.True(t, rec.Equal("equal", []string{"a"}, []string{"a"}))
	assert.False(t, rec.Equal("differs", []string{"a"}, []string{"b"}))
	assert.True(t, rec.Regexp("matches", regexp.MustCompile(`^<p>`), "<p>x</p>"))
	assert.False(t, rec.True("visible", false, "#zhome is not visible"))
	rec.Fail("explicit", "boom")

	s := rec.Summary()
	assert.Equal(t, 2, s.Passed)
	assert.Equal(t, 3, s.Failed)
	assert.True(t, rec.Failed())
	require.Len(t, s.Results, 5)

	assert.Equal(t, "differs", s.Results[1].Name)
	assert.Contains(t, s.Results[1].Message, "Not equal")
	assert.NotContains(t, s.Results[1].Message, "Error Trace")
	assert.Equal(t, "#zhome is not visible", s.Results[3].Message)
	assert.Empty(t, s.Results[0].Message)

	assert.Equal(t, []string{"equal", "matches"}, log.passes)
	require.Len(t, log.fails, 3)
	assert.Contains(t, log.fails[2], "explicit\nboom")
}

func TestRecorder_NoFailures(t *testing.T) {
	rec := NewRecorder(nil)
	rec.True("ok", true, "")
	assert.False(t, rec.Failed())

	data, err := rec.Summary().JSON()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"passed": 1`)
	assert.Contains(t, string(data), `"name": "ok"`)
}

func TestEngine_ExpectTail(t *testing.T) {
	rendered := dom.Rendered{
		Headings: []string{"Verona\u00a0|\u00a0frontend test", "Verona | other subject", "You and Cordelia Lear, King\u00a0Hamlet"},
		Bodies:   []string{"<p>test message A</p>", "<p>test message B</p>", "<p>test message C</p>", "<p>personal A</p>"},
		Owners:   []int{0, 0, 1, 2},
	}

	t.Run("matching tail", func(t *testing.T) {
		rec := NewRecorder(nil)
		vis := &fakeVisibility{visible: true}
		e := NewEngine(&fakeExtractor{r: rendered}, vis, rec)

		err := e.ExpectTail(t.Context(), dom.Home,
			[]string{"Verona | other subject", "You and Cordelia Lear, King Hamlet"},
			[]string{"<p>test message C</p>", "<p>personal A</p>"})
		require.NoError(t, err)
		assert.False(t, rec.Failed(), "%+v", rec.Results())
		assert.Equal(t, []string{"#zhome"}, vis.asked)
		assert.Len(t, rec.Results(), 3)
	})

	t.Run("bodies are not normalized", func(t *testing.T) {
		rec := NewRecorder(nil)
		e := NewEngine(&fakeExtractor{r: dom.Rendered{
			Headings: []string{"h | s"}, Bodies: []string{"<p>a\u00a0b</p>"}, Owners: []int{0},
		}}, &fakeVisibility{visible: true}, rec)

		require.NoError(t, e.ExpectTail(t.Context(), dom.Home, []string{"h | s"}, []string{"<p>a b</p>"}))
		s := rec.Summary()
		assert.Equal(t, 1, s.Failed)
		assert.Equal(t, "home: got expected message bodies", s.Results[2].Name)
	})

	t.Run("short table fails", func(t *testing.T) {
		rec := NewRecorder(nil)
		e := NewEngine(&fakeExtractor{r: dom.Rendered{
			Headings: []string{"h | s"}, Bodies: []string{"<p>a</p>"}, Owners: []int{0},
		}}, &fakeVisibility{visible: true}, rec)

		require.NoError(t, e.ExpectTail(t.Context(), dom.Filtered, []string{"g | s", "h | s"}, []string{"<p>a</p>"}))
		s := rec.Summary()
		assert.Equal(t, 1, s.Failed)
		assert.Equal(t, "filtered: got expected message headings", s.Results[1].Name)
	})

	t.Run("empty expectations pass", func(t *testing.T) {
		rec := NewRecorder(nil)
		e := NewEngine(&fakeExtractor{}, &fakeVisibility{visible: true}, rec)
		require.NoError(t, e.ExpectTail(t.Context(), dom.Home, nil, []string{}))
		assert.False(t, rec.Failed())
	})

	t.Run("hidden table fails but compares", func(t *testing.T) {
		rec := NewRecorder(nil)
		e := NewEngine(&fakeExtractor{r: rendered}, &fakeVisibility{visible: false}, rec)
		require.NoError(t, e.ExpectTail(t.Context(), dom.Filtered, nil, nil))
		s := rec.Summary()
		assert.Equal(t, 1, s.Failed)
		assert.Equal(t, 2, s.Passed)
	})

	t.Run("missing table records failures", func(t *testing.T) {
		rec := NewRecorder(nil)
		e := NewEngine(&fakeExtractor{err: fmt.Errorf("extract filtered: %w", dom.ErrTableMissing)},
			&fakeVisibility{visible: false}, rec)
		require.NoError(t, e.ExpectTail(t.Context(), dom.Filtered, []string{"x"}, []string{"y"}))
		assert.Equal(t, 3, rec.Summary().Failed)
	})

	t.Run("malformed is fatal", func(t *testing.T) {
		rec := NewRecorder(nil)
		e := NewEngine(&fakeExtractor{err: dom.ErrMalformed}, &fakeVisibility{visible: true}, rec)
		err := e.ExpectTail(t.Context(), dom.Home, nil, nil)
		require.ErrorIs(t, err, dom.ErrMalformed)
	})

	t.Run("visibility error is fatal", func(t *testing.T) {
		boom := errors.New("page crashed")
		e := NewEngine(&fakeExtractor{}, &fakeVisibility{err: boom}, NewRecorder(nil))
		err := e.ExpectTail(t.Context(), dom.Home, nil, nil)
		require.ErrorIs(t, err, boom)
	})
}

func TestEngine_SanityCheck(t *testing.T) {
	t.Run("well-formed", func(t *testing.T) {
		rec := NewRecorder(nil)
		e := NewEngine(&fakeExtractor{r: dom.Rendered{
			Headings: []string{"Verona\u00a0|\u00a0frontend test", "You and Cordelia Lear"},
			Bodies:   []string{"<p>a</p>", "<p>multi\nline</p>", ""},
			Owners:   []int{0, 1, 1},
		}}, &fakeVisibility{visible: true}, rec)

		require.NoError(t, e.SanityCheck(t.Context(), dom.Home))
		s := rec.Summary()
		assert.Equal(t, 5, s.Passed)
		assert.Zero(t, s.Failed)
	})

	t.Run("bad heading and body", func(t *testing.T) {
		rec := NewRecorder(nil)
		e := NewEngine(&fakeExtractor{r: dom.Rendered{
			Headings: []string{"Verona frontend test"},
			Bodies:   []string{"plain text"},
			Owners:   []int{0},
		}}, &fakeVisibility{visible: true}, rec)

		require.NoError(t, e.SanityCheck(t.Context(), dom.Home))
		assert.Equal(t, 2, rec.Summary().Failed)
	})

	t.Run("missing table", func(t *testing.T) {
		rec := NewRecorder(nil)
		e := NewEngine(&fakeExtractor{err: dom.ErrTableMissing}, &fakeVisibility{}, rec)
		require.NoError(t, e.SanityCheck(t.Context(), dom.Home))
		assert.Equal(t, 1, rec.Summary().Failed)
	})
}
