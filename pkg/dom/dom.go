// Package dom reads rendered message tables out of the client page.
package dom

import (
	"errors"
	"fmt"
)

// Table identifies a rendered message view by its element id.
type Table string

// message views of the client.
const (
	Home     Table = "zhome" // unfiltered, all messages
	Filtered Table = "zfilt" // view produced by the active narrow
)

// Selector returns the css selector of the table element.
func (t Table) Selector() string {
	return "#" + string(t)
}

// Name returns a human label for logs and check names.
func (t Table) Name() string {
	switch t {
	case Home:
		return "home"
	case Filtered:
		return "filtered"
	default:
		return string(t)
	}
}

// ParseTable maps "home"/"filtered" or a raw element id to a Table.
func ParseTable(s string) (Table, error) {
	switch s {
	case "home", string(Home):
		return Home, nil
	case "filtered", string(Filtered):
		return Filtered, nil
	case "":
		return "", errors.New("empty table name")
	default:
		return "", fmt.Errorf("unknown table %q", s)
	}
}

// Selectors is the DOM contract of the messaging client.
type Selectors struct {
	Heading     string // heading text inside a recipient row
	Body        string // rendered message content
	ComposeForm string // compose form, located by its action
	ComposeSend string // compose submit button
	ComposeOpen string // compose trigger, %s is the message kind
	Unnarrow    string // closes the active narrow
	LoginLink   string // link to the login page
	LoginForm   string // login form
}

// DefaultSelectors returns the selectors the client renders.
func DefaultSelectors() Selectors {
	return Selectors{
		Heading:     ".recipient_row .right_part",
		Body:        ".message_content",
		ComposeForm: `form[action^="/json/send_message"]`,
		ComposeSend: "#compose-send-button",
		ComposeOpen: "#left_bar_compose_%s_button_big",
		Unnarrow:    ".narrowed_to_bar .close",
		LoginLink:   `a[href^="/accounts/login"]`,
		LoginForm:   `form[action^="/accounts/login"]`,
	}
}

// Merge overrides non-empty fields of s with values from o.
func (s Selectors) Merge(o Selectors) Selectors {
	pick := func(dst *string, src string) {
		if src != "" {
			*dst = src
		}
	}
	pick(&s.Heading, o.Heading)
	pick(&s.Body, o.Body)
	pick(&s.ComposeForm, o.ComposeForm)
	pick(&s.ComposeSend, o.ComposeSend)
	pick(&s.ComposeOpen, o.ComposeOpen)
	pick(&s.Unnarrow, o.Unnarrow)
	pick(&s.LoginLink, o.LoginLink)
	pick(&s.LoginForm, o.LoginForm)
	return s
}

// ComposeTrigger returns the selector of the compose button for a message kind.
func (s Selectors) ComposeTrigger(kind string) string {
	return fmt.Sprintf(s.ComposeOpen, kind)
}

// ComposeSendEnabled returns the selector matching the submit button only while it is enabled.
func (s Selectors) ComposeSendEnabled() string {
	return s.ComposeSend + ":enabled"
}
