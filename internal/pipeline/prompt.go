package pipeline

import (
	"fmt"

	"github.com/sells-group/seo-dashboard/internal/model"
	"github.com/sells-group/seo-dashboard/internal/schema"
)

// DefaultContentLimit is how many characters of page content the prompt
// carries.
const DefaultContentLimit = 2000

const promptTemplate = `Analyze this website for SEO optimization. Provide a comprehensive analysis including:

Website: %s
Title: %s
Description: %s
Content preview: %s...

Please provide analysis in JSON format with the following structure:
%s
`

// BuildPrompt returns the analysis instruction for a page. It embeds the
// first DefaultContentLimit characters of content followed by "...", whether
// or not anything was cut.
func BuildPrompt(url string, metadata map[string]any, content string) string {
	return buildPrompt(url, metadata, content, DefaultContentLimit, schema.SEOAnalysis())
}

func buildPrompt(url string, metadata map[string]any, content string, limit int, s *schema.Node) string {
	title := model.MetaString(metadata, "title")
	if title == "" {
		title = "No title found"
	}
	desc := model.MetaString(metadata, "description")
	if desc == "" {
		desc = "No description found"
	}
	return fmt.Sprintf(promptTemplate, url, title, desc, truncateRunes(content, limit), s.Outline())
}

// truncateRunes returns the first n characters of s.
func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
