package dom

import (
	"context"
	"errors"
	"fmt"
)

// ErrTableMissing is returned when the table element is not in the page.
var ErrTableMissing = errors.New("table not found")

// ErrMalformed is returned when extracted headings and bodies do not line up.
// it means the page (or the harness) is broken, not that content differs.
var ErrMalformed = errors.New("malformed extraction")

// Rendered is the content of one message table in display order.
// Bodies and Owners are parallel: Owners[i] is the index into Headings of the
// recipient row that Bodies[i] is rendered under.
type Rendered struct {
	Headings []string `json:"headings"`
	Bodies   []string `json:"bodies"`
	Owners   []int    `json:"owners"`
}

// Entry is one message with the heading of its conversation.
type Entry struct {
	Heading string
	Body    string
}

// Entries pairs every body with its heading. Validate first.
func (r Rendered) Entries() []Entry {
	res := make([]Entry, len(r.Bodies))
	for i, body := range r.Bodies {
		res[i] = Entry{Heading: r.Headings[r.Owners[i]], Body: body}
	}
	return res
}

// Validate checks the structural invariants of an extraction.
func (r Rendered) Validate() error {
	if len(r.Owners) != len(r.Bodies) {
		return fmt.Errorf("%w: %d bodies but %d owners", ErrMalformed, len(r.Bodies), len(r.Owners))
	}
	prev := 0
	for i, o := range r.Owners {
		if o < 0 {
			return fmt.Errorf("%w: body %d rendered before any heading", ErrMalformed, i)
		}
		if o >= len(r.Headings) {
			return fmt.Errorf("%w: body %d points to heading %d of %d", ErrMalformed, i, o, len(r.Headings))
		}
		if o < prev {
			return fmt.Errorf("%w: body %d goes back to heading %d after %d", ErrMalformed, i, o, prev)
		}
		prev = o
	}
	return nil
}

// extractScript walks headings and bodies of one table in document order.
// returns null when the table is absent.
const extractScript = `(args) => {
	const table = document.getElementById(args.table);
	if (!table) {
		return null;
	}
	const headings = [], bodies = [], owners = [];
	for (const el of table.querySelectorAll(args.heading + ", " + args.body)) {
		if (el.matches(args.heading)) {
			headings.push(el.innerText);
			continue;
		}
		owners.push(headings.length - 1);
		bodies.push(el.innerHTML);
	}
	return {headings: headings, bodies: bodies, owners: owners};
}`

// evaluator runs a script in the page.
type evaluator interface {
	Evaluate(ctx context.Context, fn string, arg, out any) error
}

// PageExtractor extracts tables by evaluating a script in the page.
type PageExtractor struct {
	page evaluator
	sel  Selectors
}

// NewExtractor creates an extractor over page using the given selectors.
func NewExtractor(page evaluator, sel Selectors) *PageExtractor {
	return &PageExtractor{page: page, sel: sel}
}

// Extract returns the rendered content of table.
// returns ErrTableMissing if the table is absent and ErrMalformed if the result is inconsistent.
func (e *PageExtractor) Extract(ctx context.Context, table Table) (Rendered, error) {
	arg := map[string]string{
		"table":   string(table),
		"heading": e.sel.Heading,
		"body":    e.sel.Body,
	}

	var res *Rendered
	if err := e.page.Evaluate(ctx, extractScript, arg, &res); err != nil {
		return Rendered{}, fmt.Errorf("extract %s: %w", table.Name(), err)
	}
	if res == nil {
		return Rendered{}, fmt.Errorf("extract %s: %w", table.Name(), ErrTableMissing)
	}
	if err := res.Validate(); err != nil {
		return Rendered{}, fmt.Errorf("extract %s: %w", table.Name(), err)
	}
	return *res, nil
}
