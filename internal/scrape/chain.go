package scrape

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/seo-dashboard/internal/model"
)

// Chain tries scrapers in priority order, returning the first success.
// A chain is itself a Scraper.
type Chain struct {
	scrapers []Scraper
}

// NewChain creates a Chain. Scrapers are tried in the order given.
func NewChain(scrapers ...Scraper) *Chain {
	return &Chain{scrapers: scrapers}
}

// Name implements Scraper.
func (c *Chain) Name() string { return "chain" }

// Supports reports whether any scraper in the chain is available.
func (c *Chain) Supports(url string) bool {
	for _, s := range c.scrapers {
		if s.Supports(url) {
			return true
		}
	}
	return false
}

// Names lists the scrapers in order.
func (c *Chain) Names() []string {
	names := make([]string, len(c.scrapers))
	for i, s := range c.scrapers {
		names[i] = s.Name()
	}
	return names
}

// Scrape tries each scraper in order for a single URL. Each scraper is called
// at most once; the chain fails as a unit when none succeeds.
func (c *Chain) Scrape(ctx context.Context, targetURL string) (*model.ScrapeResult, error) {
	var lastErr error
	for _, s := range c.scrapers {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "scrape: canceled")
		}
		if !s.Supports(targetURL) {
			zap.L().Debug("scrape: scraper unavailable, skipping",
				zap.String("scraper", s.Name()),
				zap.String("url", targetURL),
			)
			continue
		}
		result, err := s.Scrape(ctx, targetURL)
		if err == nil && result != nil {
			if result.Source == "" {
				result.Source = s.Name()
			}
			return result, nil
		}
		if err != nil {
			zap.L().Info("scrape: scraper failed, trying next",
				zap.String("scraper", s.Name()),
				zap.String("url", targetURL),
				zap.Error(err),
			)
			lastErr = err
		}
	}
	if lastErr != nil {
		return nil, eris.Wrap(lastErr, "scrape: all scrapers failed")
	}
	return nil, eris.Errorf("scrape: no available scraper for url: %s", targetURL)
}
