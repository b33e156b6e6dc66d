package pipeline

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func containsAll(s string, parts ...string) bool {
	for _, p := range parts {
		if !strings.Contains(s, p) {
			return false
		}
	}
	return true
}

func TestBuildPrompt(t *testing.T) {
	p := BuildPrompt("https://acme.com", map[string]any{
		"title":       "Acme Widgets",
		"description": "Hand-built widgets",
	}, "Hello world")

	assert.True(t, strings.HasPrefix(p, "Analyze this website for SEO optimization."))
	assert.Contains(t, p, "Website: https://acme.com\n")
	assert.Contains(t, p, "Title: Acme Widgets\n")
	assert.Contains(t, p, "Description: Hand-built widgets\n")
	// The ellipsis is appended even when nothing was cut.
	assert.Contains(t, p, "Content preview: Hello world...\n")
	assert.Contains(t, p, `"overallScore": number (0-100)`)
	assert.Contains(t, p, `"priorityActions": string[]`)
}

func TestBuildPrompt_Placeholders(t *testing.T) {
	p := BuildPrompt("https://acme.com", map[string]any{"title": "", "description": 42}, "")
	assert.Contains(t, p, "Title: No title found\n")
	assert.Contains(t, p, "Description: No description found\n")
	assert.Contains(t, p, "Content preview: ...\n")

	p = BuildPrompt("https://acme.com", nil, "x")
	assert.Contains(t, p, "Title: No title found\n")
}

func TestBuildPrompt_TruncatesContent(t *testing.T) {
	content := strings.Repeat("a", DefaultContentLimit) + "TAIL"
	p := BuildPrompt("https://acme.com", nil, content)
	assert.Contains(t, p, strings.Repeat("a", DefaultContentLimit)+"...")
	assert.NotContains(t, p, "TAIL")
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "héllo", truncateRunes("héllo wörld", 5))
	assert.Equal(t, "short", truncateRunes("short", 10))
	assert.Equal(t, "", truncateRunes("abc", 0))
	assert.Equal(t, "日本", truncateRunes("日本語", 2))
	assert.Equal(t, "abc", truncateRunes("abc", 3))
}
