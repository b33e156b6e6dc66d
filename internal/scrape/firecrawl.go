package scrape

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/seo-dashboard/internal/model"
	"github.com/sells-group/seo-dashboard/pkg/firecrawl"
)

// FirecrawlScraper wraps a Firecrawl client as a Scraper.
type FirecrawlScraper struct {
	client  firecrawl.Client
	timeout time.Duration
}

// NewFirecrawlScraper creates a FirecrawlScraper. timeout is passed to
// Firecrawl as its page timeout; zero leaves Firecrawl's default.
func NewFirecrawlScraper(client firecrawl.Client, timeout time.Duration) *FirecrawlScraper {
	return &FirecrawlScraper{client: client, timeout: timeout}
}

// Name implements Scraper.
func (f *FirecrawlScraper) Name() string { return SourceFirecrawl }

// Supports returns true; Firecrawl can attempt any URL.
func (f *FirecrawlScraper) Supports(_ string) bool { return true }

// Scrape fetches a single URL via Firecrawl's scrape API. Metadata is passed
// through untouched.
func (f *FirecrawlScraper) Scrape(ctx context.Context, targetURL string) (*model.ScrapeResult, error) {
	resp, err := f.client.Scrape(ctx, firecrawl.ScrapeRequest{
		URL:     targetURL,
		Formats: []string{"markdown"},
		Timeout: int(f.timeout / time.Millisecond),
	})
	if err != nil {
		return nil, err
	}
	if code := resp.Data.StatusCode(); code >= 400 {
		return nil, eris.Errorf("firecrawl: target returned status %d", code)
	}
	return &model.ScrapeResult{
		Markdown: resp.Data.Markdown,
		Metadata: resp.Data.Metadata,
		Source:   SourceFirecrawl,
	}, nil
}
