package check

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/umputun/chatcheck/pkg/dom"
)

// well-formed heading and body of a rendered message.
var (
	headingRe = regexp.MustCompile(`(^You and )|( \| )`)
	bodyRe    = regexp.MustCompile(`^(<p>(.|\n)*</p>)?$`)
)

type extractor interface {
	Extract(ctx context.Context, table dom.Table) (dom.Rendered, error)
}

type visibility interface {
	Visible(ctx context.Context, selector string) (bool, error)
}

// Engine compares rendered tables against expectations and records the outcome.
// returned errors are harness-fatal; content mismatches only go to the Recorder.
type Engine struct {
	ext  extractor
	page visibility
	rec  *Recorder
}

// NewEngine makes an Engine reading tables through ext and checking visibility on page.
func NewEngine(ext extractor, page visibility, rec *Recorder) *Engine {
	return &Engine{ext: ext, page: page, rec: rec}
}

// ExpectTail checks that table is visible and that its last headings and bodies
// equal the expected ones. headings are normalized before comparison, bodies are not.
func (e *Engine) ExpectTail(ctx context.Context, table dom.Table, headings, bodies []string) error {
	name := table.Name()
	headingsCheck := name + ": got expected message headings"
	bodiesCheck := name + ": got expected message bodies"

	visible, err := e.page.Visible(ctx, table.Selector())
	if err != nil {
		return fmt.Errorf("check %s visibility: %w", name, err)
	}
	e.rec.True(name+" is visible", visible, fmt.Sprintf("%s is not visible", table.Selector()))

	r, err := e.ext.Extract(ctx, table)
	if errors.Is(err, dom.ErrTableMissing) {
		e.rec.Fail(headingsCheck, err.Error())
		e.rec.Fail(bodiesCheck, err.Error())
		return nil
	}
	if err != nil {
		return err
	}

	e.rec.Equal(headingsCheck, Tail(headings, len(headings)), Tail(NormalizeAll(r.Headings), len(headings)))
	e.rec.Equal(bodiesCheck, Tail(bodies, len(bodies)), Tail(r.Bodies, len(bodies)))
	return nil
}

// SanityCheck records one check per heading and per body of table, verifying that
// headings name a stream/subject or a private conversation and bodies are paragraph markup.
func (e *Engine) SanityCheck(ctx context.Context, table dom.Table) error {
	r, err := e.ext.Extract(ctx, table)
	if errors.Is(err, dom.ErrTableMissing) {
		e.rec.Fail(table.Name()+": existing messages are readable", err.Error())
		return nil
	}
	if err != nil {
		return err
	}

	for _, h := range r.Headings {
		e.rec.Regexp("heading is well-formed", headingRe, Normalize(h))
	}
	for _, b := range r.Bodies {
		e.rec.Regexp("body is well-formed", bodyRe, b)
	}
	return nil
}
