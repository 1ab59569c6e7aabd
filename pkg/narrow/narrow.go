// Package narrow models client-side view filters (narrows) and drives the
// transitions between the home view and the narrowed views.
package narrow

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/umputun/chatcheck/pkg/browser"
	"github.com/umputun/chatcheck/pkg/dom"
)

// ErrInvalidTransition is returned for a narrow from a narrowed view or an un-narrow from home.
var ErrInvalidTransition = errors.New("invalid narrow transition")

// Spec describes a narrow. the zero value means no narrow.
type Spec struct {
	Stream  string
	Subject string   // only with Stream
	Names   []string // display names of the other conversation participants
}

// ByStreamSpec narrows to all messages of a stream.
func ByStreamSpec(stream string) Spec {
	return Spec{Stream: stream}
}

// BySubjectSpec narrows to one subject of a stream.
func BySubjectSpec(stream, subject string) Spec {
	return Spec{Stream: stream, Subject: subject}
}

// ByConversationSpec narrows to the private conversation with the named participants.
func ByConversationSpec(names ...string) Spec {
	return Spec{Names: names}
}

// State returns the state the view is in while the narrow is active.
func (s Spec) State() State {
	switch {
	case s.Stream != "" && s.Subject != "":
		return ByStreamSubject
	case s.Stream != "":
		return ByStream
	case len(s.Names) > 0:
		return ByConversation
	default:
		return Home
	}
}

// Validate checks the spec describes exactly one kind of narrow.
func (s Spec) Validate() error {
	switch {
	case s.Stream == "" && s.Subject != "":
		return errors.New("subject narrow without stream")
	case s.Stream != "" && len(s.Names) > 0:
		return errors.New("narrow to both stream and private conversation")
	case s.State() == Home:
		return errors.New("empty narrow")
	}
	return nil
}

// Title is the label of the element that activates the narrow.
func (s Spec) Title() string {
	switch s.State() {
	case ByStreamSubject:
		return `Narrow to stream "` + s.Stream + `", subject "` + s.Subject + `"`
	case ByStream:
		return `Narrow to stream "` + s.Stream + `"`
	case ByConversation:
		return conversationTitle + strings.Join(s.Names, ", ")
	default:
		return ""
	}
}

var (
	subjectTitleRe = regexp.MustCompile(`^Narrow to stream "(.+)", subject "(.+)"$`)
	streamTitleRe  = regexp.MustCompile(`^Narrow to stream "(.+)"$`)
)

const conversationTitle = "Narrow to your private messages with "

// ParseTitle is the inverse of Title.
func ParseTitle(title string) (Spec, error) {
	if m := subjectTitleRe.FindStringSubmatch(title); m != nil {
		return BySubjectSpec(m[1], m[2]), nil
	}
	if m := streamTitleRe.FindStringSubmatch(title); m != nil {
		return ByStreamSpec(m[1]), nil
	}
	if names, ok := strings.CutPrefix(title, conversationTitle); ok && names != "" {
		return ByConversationSpec(strings.Split(names, ", ")...), nil
	}
	return Spec{}, fmt.Errorf("not a narrow title: %q", title)
}

// Selector matches any element titled with the narrow's label.
func (s Spec) Selector() string {
	return "*[title=" + browser.Quote(s.Title()) + "]"
}

// String returns a short description for logs.
func (s Spec) String() string {
	switch s.State() {
	case ByStreamSubject:
		return "stream " + s.Stream + ", subject " + s.Subject
	case ByStream:
		return "stream " + s.Stream
	case ByConversation:
		return "private messages with " + strings.Join(s.Names, ", ")
	default:
		return "home"
	}
}

// Target is where a delivered message went, as seen by the narrowing user.
type Target struct {
	Stream  string
	Subject string
	Names   []string // other participants of a private message
}

// Matches reports whether a message sent to t belongs in the narrowed view.
// stream and subject names compare case-insensitively, participants as a set.
func (s Spec) Matches(t Target) bool {
	switch s.State() {
	case ByStreamSubject:
		return strings.EqualFold(s.Stream, t.Stream) && strings.EqualFold(s.Subject, t.Subject)
	case ByStream:
		return strings.EqualFold(s.Stream, t.Stream)
	case ByConversation:
		return t.Stream == "" && sameSet(s.Names, t.Names)
	default:
		return true
	}
}

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	sa, sb := slices.Clone(a), slices.Clone(b)
	slices.Sort(sa)
	slices.Sort(sb)
	return slices.Equal(sa, sb)
}

type clicker interface {
	Click(ctx context.Context, selector string) error
}

// Controller issues narrow and un-narrow actions and tracks the resulting state.
type Controller struct {
	page     clicker
	holder   *Holder
	unnarrow string
}

// NewController makes a controller clicking on page. unnarrowSel is the close control of the narrow bar.
func NewController(page clicker, holder *Holder, unnarrowSel string) *Controller {
	return &Controller{page: page, holder: holder, unnarrow: unnarrowSel}
}

// Narrow activates spec. valid only from the home view.
func (c *Controller) Narrow(ctx context.Context, spec Spec) error {
	if err := spec.Validate(); err != nil {
		return fmt.Errorf("narrow to %s: %w", spec, err)
	}
	if cur := c.holder.Get(); cur != Home {
		return fmt.Errorf("%w: narrow to %s while in %s", ErrInvalidTransition, spec, cur)
	}
	if err := c.page.Click(ctx, spec.Selector()); err != nil {
		return fmt.Errorf("narrow to %s: %w", spec, err)
	}
	c.holder.Set(spec.State())
	return nil
}

// Unnarrow returns to the home view. valid only from a narrowed view.
func (c *Controller) Unnarrow(ctx context.Context) error {
	if cur := c.holder.Get(); !cur.Narrowed() {
		return fmt.Errorf("%w: un-narrow while in %s", ErrInvalidTransition, cur)
	}
	if err := c.page.Click(ctx, c.unnarrow); err != nil {
		return fmt.Errorf("un-narrow: %w", err)
	}
	c.holder.Set(Home)
	return nil
}

// State returns the current narrow state.
func (c *Controller) State() State {
	return c.holder.Get()
}

// ReadySelector is the table that has to be visible before the current view can be asserted on.
func (c *Controller) ReadySelector() string {
	return ReadySelectorFor(c.holder.Get())
}

// ReadySelectorFor returns the table shown in state s.
func ReadySelectorFor(s State) string {
	if s.Narrowed() {
		return dom.Filtered.Selector()
	}
	return dom.Home.Selector()
}
