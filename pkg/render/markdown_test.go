package render

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/chatcheck/pkg/check"
)

func TestMarkdown(t *testing.T) {
	t.Run("all passed", func(t *testing.T) {
		md := Markdown(Run{Scenario: "frontend", BaseURL: "http://localhost:9981/", Driver: "playwright",
			Duration: "12 seconds", Summary: check.Summary{Passed: 2, Results: []check.Result{
				{Name: "home is visible", Passed: true}, {Name: "stream tail", Passed: true},
			}}})
		assert.Contains(t, md, "# chatcheck passed\n")
		assert.Contains(t, md, "- scenario: frontend\n")
		assert.Contains(t, md, "- client: http://localhost:9981/\n")
		assert.Contains(t, md, "- duration: 12 seconds\n")
		assert.Contains(t, md, "**2 passed, 0 failed**")
		assert.Contains(t, md, "| 1 | home is visible | pass |\n")
		assert.Contains(t, md, "| 2 | stream tail | pass |\n")
		assert.NotContains(t, md, "## Failures")
		assert.NotContains(t, md, "## Aborted")
	})

	t.Run("failures listed with details", func(t *testing.T) {
		md := Markdown(Run{Summary: check.Summary{Passed: 1, Failed: 1, Results: []check.Result{
			{Name: "a | b", Passed: true},
			{Name: "home bodies", Passed: false, Message: "Error: Not equal"},
		}}})
		assert.Contains(t, md, "# chatcheck failed\n")
		assert.Contains(t, md, "- scenario: -\n")
		assert.NotContains(t, md, "duration")
		assert.Contains(t, md, `| 1 | a \| b | pass |`)
		assert.Contains(t, md, "| 2 | home bodies | **FAIL** |")
		assert.Contains(t, md, "### home bodies\n\n```\nError: Not equal\n```\n")
	})

	t.Run("aborted run", func(t *testing.T) {
		r := Run{Summary: check.Summary{}, Fatal: errors.New("step \"Logging in\": wait timed out")}
		assert.Equal(t, "failed", r.Status())
		md := Markdown(r)
		assert.Contains(t, md, "**0 passed, 0 failed**")
		assert.NotContains(t, md, "| # |")
		assert.Contains(t, md, "## Aborted\n\n```\nstep \"Logging in\": wait timed out\n```\n")
	})
}

func TestRenderMarkdown(t *testing.T) {
	t.Run("with color enabled renders markdown", func(t *testing.T) {
		content := "# Heading\n\nSome **bold** text."
		result, err := RenderMarkdown(content, false)
		require.NoError(t, err)
		// glamour transforms markdown - should not be identical to input
		assert.NotEqual(t, content, result)
		// should contain the text content
		assert.Contains(t, result, "Heading")
		assert.Contains(t, result, "bold")
	})

	t.Run("with noColor returns plain content", func(t *testing.T) {
		content := "# Heading\n\nSome **bold** text."
		result, err := RenderMarkdown(content, true)
		require.NoError(t, err)
		assert.Equal(t, content, result)
	})

	t.Run("handles empty content", func(t *testing.T) {
		result, err := RenderMarkdown("", false)
		require.NoError(t, err)
		// glamour may add trailing whitespace for empty content
		assert.Empty(t, strings.TrimSpace(result))
	})

	t.Run("handles empty content with noColor", func(t *testing.T) {
		result, err := RenderMarkdown("", true)
		require.NoError(t, err)
		assert.Empty(t, result)
	})

	t.Run("handles code blocks", func(t *testing.T) {
		content := "```go\nfunc main() {}\n```"
		result, err := RenderMarkdown(content, false)
		require.NoError(t, err)
		assert.Contains(t, result, "func")
		assert.Contains(t, result, "main")
	})

	t.Run("handles lists", func(t *testing.T) {
		content := "- item 1\n- item 2\n- item 3"
		result, err := RenderMarkdown(content, false)
		require.NoError(t, err)
		assert.Contains(t, result, "item 1")
		assert.Contains(t, result, "item 2")
		assert.Contains(t, result, "item 3")
	})
}

func TestRenderMarkdown_Summary(t *testing.T) {
	md := Markdown(Run{Scenario: "frontend", Summary: check.Summary{Passed: 1, Results: []check.Result{
		{Name: "home is visible", Passed: true},
	}}})
	result, err := RenderMarkdown(md, false)
	require.NoError(t, err)
	assert.Contains(t, result, "home is visible")
	assert.Contains(t, result, "passed")
}
