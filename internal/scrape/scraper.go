// Package scrape turns a URL into page content and a metadata bag using one
// of several upstream scrapers tried in order.
package scrape

import (
	"context"

	"github.com/sells-group/seo-dashboard/internal/model"
)

// Source names reported in model.ScrapeResult.Source.
const (
	SourceFirecrawl = "firecrawl"
	SourceJina      = "jina"
	SourceLocal     = "local"
)

// Scraper fetches a single URL and returns its content.
type Scraper interface {
	Scrape(ctx context.Context, url string) (*model.ScrapeResult, error)
	Name() string
	// Supports reports whether the scraper should be tried right now.
	Supports(url string) bool
}
