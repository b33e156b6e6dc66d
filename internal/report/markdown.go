package report

import (
	"html/template"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/microcosm-cc/bluemonday"

	"github.com/sells-group/seo-dashboard/internal/model"
)

// previewLimit caps the scraped content shown in the content tab, in runes.
const previewLimit = 4000

var sanitizer = bluemonday.UGCPolicy()

// RenderMarkdown converts markdown to sanitized HTML. Scraped content is
// untrusted, so the output always passes through the UGC policy.
func RenderMarkdown(md string) template.HTML {
	if strings.TrimSpace(md) == "" {
		return ""
	}

	// Parsers keep state between calls and cannot be shared.
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	doc := p.Parse([]byte(md))

	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.HrefTargetBlank})
	out := sanitizer.SanitizeBytes(markdown.Render(doc, renderer))

	return template.HTML(out) // #nosec G203 -- sanitized above
}

func previewSource(r *model.ScrapeResult) string {
	content := r.Content()
	runes := []rune(content)
	if len(runes) <= previewLimit {
		return content
	}
	return string(runes[:previewLimit])
}
