package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/seo-dashboard/internal/config"
	"github.com/sells-group/seo-dashboard/internal/generate"
	"github.com/sells-group/seo-dashboard/internal/pipeline"
	"github.com/sells-group/seo-dashboard/internal/resilience"
	"github.com/sells-group/seo-dashboard/internal/scrape"
	"github.com/sells-group/seo-dashboard/internal/store"
	anthropicpkg "github.com/sells-group/seo-dashboard/pkg/anthropic"
	"github.com/sells-group/seo-dashboard/pkg/firecrawl"
	"github.com/sells-group/seo-dashboard/pkg/jina"
)

// analysisEnv holds the store, breakers and pipeline needed by the serve and
// analyze commands.
type analysisEnv struct {
	Store    store.Store
	Breakers *resilience.Breakers
	Pipeline *pipeline.Pipeline
}

// Close releases resources held by the environment.
func (e *analysisEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initAnalysis validates the config for mode, opens and migrates the run
// log, and builds the pipeline. Callers should defer env.Close().
func initAnalysis(ctx context.Context, mode string) (*analysisEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	breakers := resilience.NewBreakers(resilience.NewConfig(cfg.Circuit.FailureThreshold, cfg.Circuit.ResetTimeoutSecs))

	scraper, err := buildScraper(cfg, breakers)
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	generator, err := buildGenerator(cfg, breakers)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	zap.L().Info("analysis pipeline ready",
		zap.Strings("scrapers", scraper.Names()),
		zap.String("generator", generator.Name()),
		zap.String("store", cfg.Store.Driver),
	)

	p := pipeline.New(scraper, generator, st,
		pipeline.WithContentLimit(cfg.Generate.ContentLimit),
		pipeline.WithGenerateTimeout(time.Duration(cfg.Generate.TimeoutSecs)*time.Second),
	)

	return &analysisEnv{Store: st, Breakers: breakers, Pipeline: p}, nil
}

// initStore opens the run log selected by store.driver.
func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "seo-dashboard.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	case "none":
		return store.NopStore{}, nil
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// buildScraper assembles the scrape chain in configured order. The hosted
// services sit behind circuit breakers; the local fetch does not.
func buildScraper(c *config.Config, breakers *resilience.Breakers) (*scrape.Chain, error) {
	timeout := time.Duration(c.Scrape.TimeoutSecs) * time.Second

	var scrapers []scrape.Scraper
	for _, name := range c.Scrape.Providers {
		switch name {
		case scrape.SourceFirecrawl:
			client := firecrawl.NewClient(c.Firecrawl.Key, firecrawl.WithBaseURL(c.Firecrawl.BaseURL))
			scrapers = append(scrapers, scrape.Guard(scrape.NewFirecrawlScraper(client, timeout), breakers))
		case scrape.SourceJina:
			client := jina.NewClient(c.Jina.Key, jina.WithBaseURL(c.Jina.BaseURL))
			scrapers = append(scrapers, scrape.Guard(scrape.NewJinaScraper(client), breakers))
		case scrape.SourceLocal:
			scrapers = append(scrapers, scrape.NewLocalScraper(c.Scrape.UserAgent, timeout))
		default:
			return nil, eris.Errorf("unknown scrape provider: %s", name)
		}
	}
	if len(scrapers) == 0 {
		return nil, eris.New("no scrape providers configured")
	}
	return scrape.NewChain(scrapers...), nil
}

// buildGenerator wraps the configured model behind a breaker and schema
// validation. Validation sits outside the breaker so a malformed answer does
// not count against the upstream.
func buildGenerator(c *config.Config, breakers *resilience.Breakers) (generate.Generator, error) {
	opts := generate.Options{
		MaxTokens:   int64(c.Generate.MaxTokens),
		Temperature: c.Generate.Temperature,
	}

	var g generate.Generator
	switch c.Generate.Provider {
	case generate.ProviderAnthropic:
		opts.Model = c.Anthropic.Model
		g = generate.NewAnthropic(anthropicpkg.NewClient(c.Anthropic.Key, anthropicpkg.WithBaseURL(c.Anthropic.BaseURL)), opts)
	case generate.ProviderOpenAI:
		opts.Model = c.OpenAI.Model
		g = generate.NewOpenAI(generate.NewOpenAIClient(c.OpenAI.Key, c.OpenAI.BaseURL), opts)
	default:
		return nil, eris.Errorf("unknown generate provider: %s", c.Generate.Provider)
	}

	return generate.Validate(generate.Guard(g, breakers)), nil
}
