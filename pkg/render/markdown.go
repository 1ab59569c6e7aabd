// Package render builds the end-of-run summary and renders markdown for the terminal.
package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/umputun/chatcheck/pkg/check"
)

// Run describes a finished harness run.
type Run struct {
	Scenario string
	BaseURL  string
	Driver   string
	Duration string
	Summary  check.Summary
	Fatal    error // set when the run was aborted
}

// Status returns "passed" when every check passed and the run was not aborted.
func (r Run) Status() string {
	if r.Fatal != nil || r.Summary.Failed > 0 {
		return "failed"
	}
	return "passed"
}

// Markdown returns the summary of r as a markdown document.
func Markdown(r Run) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# chatcheck %s\n\n", r.Status())
	fmt.Fprintf(&b, "- scenario: %s\n- client: %s\n- driver: %s\n", orDash(r.Scenario), orDash(r.BaseURL), orDash(r.Driver))
	if r.Duration != "" {
		fmt.Fprintf(&b, "- duration: %s\n", r.Duration)
	}
	fmt.Fprintf(&b, "\n**%d passed, %d failed**\n", r.Summary.Passed, r.Summary.Failed)

	if len(r.Summary.Results) > 0 {
		b.WriteString("\n| # | check | result |\n|---|-------|--------|\n")
		for i, res := range r.Summary.Results {
			result := "pass"
			if !res.Passed {
				result = "**FAIL**"
			}
			fmt.Fprintf(&b, "| %d | %s | %s |\n", i+1, cell(res.Name), result)
		}
	}

	var failed []check.Result
	for _, res := range r.Summary.Results {
		if !res.Passed {
			failed = append(failed, res)
		}
	}
	if len(failed) > 0 {
		b.WriteString("\n## Failures\n")
		for _, res := range failed {
			fmt.Fprintf(&b, "\n### %s\n", res.Name)
			if res.Message != "" {
				fmt.Fprintf(&b, "\n```\n%s\n```\n", res.Message)
			}
		}
	}

	if r.Fatal != nil {
		fmt.Fprintf(&b, "\n## Aborted\n\n```\n%s\n```\n", r.Fatal.Error())
	}
	return b.String()
}

func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// RenderMarkdown renders markdown content for terminal display.
// If noColor is true, returns the content unchanged.
// Otherwise, uses glamour to render with auto-detected style and word wrap.
func RenderMarkdown(content string, noColor bool) (string, error) {
	if noColor {
		return content, nil
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return "", fmt.Errorf("create renderer: %w", err)
	}

	result, err := renderer.Render(content)
	if err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}

	return result, nil
}
