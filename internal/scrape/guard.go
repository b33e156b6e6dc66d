package scrape

import (
	"context"

	"github.com/sells-group/seo-dashboard/internal/model"
	"github.com/sells-group/seo-dashboard/internal/resilience"
)

// Guarded puts a circuit breaker in front of a Scraper. While the breaker is
// open the scraper reports itself unavailable and the chain moves on.
type Guarded struct {
	inner   Scraper
	breaker *resilience.Breaker
}

// Guard wraps s with the breaker registered under s.Name().
func Guard(s Scraper, breakers *resilience.Breakers) *Guarded {
	return &Guarded{inner: s, breaker: breakers.Get(s.Name())}
}

// Name implements Scraper.
func (g *Guarded) Name() string { return g.inner.Name() }

// Supports implements Scraper.
func (g *Guarded) Supports(url string) bool {
	return g.breaker.State() != resilience.Open && g.inner.Supports(url)
}

// Scrape implements Scraper.
func (g *Guarded) Scrape(ctx context.Context, url string) (*model.ScrapeResult, error) {
	return resilience.Call(ctx, g.breaker, func(ctx context.Context) (*model.ScrapeResult, error) {
		return g.inner.Scrape(ctx, url)
	})
}
