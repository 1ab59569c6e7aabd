// Package browser defines the automation surface the harness drives and the
// response event stream it observes. Concrete backends live in sub-packages.
package browser

import (
	"context"
	"fmt"
	"strings"
	"time"
)

//go:generate moq -out mocks/page.go -pkg mocks -skip-ensure -fmt goimports . Page

// Page is a single browser tab pointed at the messaging client.
// every blocking method honors ctx; backends translate its deadline into their own timeout.
type Page interface {
	Goto(ctx context.Context, url string) error
	URL() string
	Click(ctx context.Context, selector string) error
	Fill(ctx context.Context, form string, fields []Field) error
	Submit(ctx context.Context, form string) error
	WaitVisible(ctx context.Context, selector string) error
	Visible(ctx context.Context, selector string) (bool, error)
	// Evaluate runs fn (a javascript function expression) in the page with arg
	// and decodes its JSON-compatible result into out.
	Evaluate(ctx context.Context, fn string, arg, out any) error
	Responses() *Hub
	Close() error
}

// Field is a named form input and the value to put into it.
type Field struct {
	Name  string
	Value string
}

// ResponseEvent describes a network response the page finished receiving.
type ResponseEvent struct {
	URL    string    `json:"url"`
	Status int       `json:"status"`
	At     time.Time `json:"at"`
}

// FieldSelector returns the selector of the input called name inside form.
func FieldSelector(form, name string) string {
	return fmt.Sprintf("%s [name=%s]", form, Quote(name))
}

// Quote returns s as a double-quoted CSS string literal.
func Quote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return `"` + r.Replace(s) + `"`
}

// TimeoutMs converts the remaining time of ctx into milliseconds.
// returns fallback if ctx has no deadline, and at least 1 if the deadline already passed.
func TimeoutMs(ctx context.Context, fallback time.Duration) float64 {
	dl, ok := ctx.Deadline()
	if !ok {
		return float64(fallback / time.Millisecond)
	}
	left := time.Until(dl)
	if left < time.Millisecond {
		return 1
	}
	return float64(left / time.Millisecond)
}
