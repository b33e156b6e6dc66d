package scrape

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/seo-dashboard/internal/model"
	"github.com/sells-group/seo-dashboard/pkg/jina"
)

// JinaScraper wraps a Jina Reader client as a Scraper.
type JinaScraper struct {
	client jina.Client
}

// NewJinaScraper creates a JinaScraper from a Jina client.
func NewJinaScraper(client jina.Client) *JinaScraper {
	return &JinaScraper{client: client}
}

// Name implements Scraper.
func (j *JinaScraper) Name() string { return SourceJina }

// Supports implements Scraper.
func (j *JinaScraper) Supports(_ string) bool { return true }

// Scrape fetches a URL via Jina Reader. Interstitial pages are reported as
// errors so the chain moves on.
func (j *JinaScraper) Scrape(ctx context.Context, targetURL string) (*model.ScrapeResult, error) {
	resp, err := j.client.Read(ctx, targetURL)
	if err != nil {
		return nil, err
	}
	if resp.Code != 0 && resp.Code != 200 {
		return nil, eris.Errorf("jina: reader code %d", resp.Code)
	}
	content := strings.TrimSpace(resp.Data.Content)
	if looksLikeChallenge(content) {
		return nil, eris.New("jina: reader returned a challenge page")
	}

	meta := map[string]any{}
	if resp.Data.Title != "" {
		meta["title"] = resp.Data.Title
	}
	if resp.Data.Description != "" {
		meta["description"] = resp.Data.Description
	}
	if resp.Data.URL != "" {
		meta["sourceURL"] = resp.Data.URL
	}
	if resp.Data.PublishedTime != "" {
		meta["publishedTime"] = resp.Data.PublishedTime
	}

	return &model.ScrapeResult{
		Markdown: content,
		Metadata: meta,
		Source:   SourceJina,
	}, nil
}
