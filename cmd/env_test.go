package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/seo-dashboard/internal/config"
	"github.com/sells-group/seo-dashboard/internal/resilience"
	"github.com/sells-group/seo-dashboard/internal/store"
)

func withConfig(t *testing.T, c *config.Config) {
	t.Helper()
	prev := cfg
	cfg = c
	t.Cleanup(func() { cfg = prev })
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Scrape: config.ScrapeConfig{
			Providers:   []string{"firecrawl", "jina", "local"},
			TimeoutSecs: 30,
			UserAgent:   "test-agent",
		},
		Firecrawl: config.FirecrawlConfig{Key: "fc-key", BaseURL: "http://firecrawl.local"},
		Jina:      config.JinaConfig{BaseURL: "http://jina.local"},
		Generate:  config.GenerateConfig{Provider: "anthropic", MaxTokens: 1024, ContentLimit: 2000},
		Anthropic: config.AnthropicConfig{Key: "sk-ant", Model: "claude-sonnet-4-5-20250929"},
		OpenAI:    config.OpenAIConfig{Key: "sk-oa", Model: "gpt-4o-mini"},
		Store:     config.StoreConfig{Driver: "sqlite", DatabaseURL: filepath.Join(t.TempDir(), "runs.db")},
		Circuit:   config.CircuitConfig{FailureThreshold: 3, ResetTimeoutSecs: 30},
	}
}

func TestInitStore_SQLite(t *testing.T) {
	withConfig(t, testConfig(t))

	st, err := initStore(context.Background())
	require.NoError(t, err)
	defer st.Close() //nolint:errcheck
	assert.IsType(t, &store.SQLiteStore{}, st)
}

func TestInitStore_None(t *testing.T) {
	c := testConfig(t)
	c.Store.Driver = "none"
	withConfig(t, c)

	st, err := initStore(context.Background())
	require.NoError(t, err)
	assert.IsType(t, store.NopStore{}, st)
}

func TestInitStore_UnknownDriver(t *testing.T) {
	c := testConfig(t)
	c.Store.Driver = "mongo"
	withConfig(t, c)

	_, err := initStore(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported store driver")
}

func TestBuildScraper_Order(t *testing.T) {
	c := testConfig(t)
	c.Scrape.Providers = []string{"local", "jina", "firecrawl"}

	chain, err := buildScraper(c, resilience.NewBreakers(resilience.Config{}))
	require.NoError(t, err)
	assert.Equal(t, []string{"local", "jina", "firecrawl"}, chain.Names())
}

func TestBuildScraper_Errors(t *testing.T) {
	c := testConfig(t)
	c.Scrape.Providers = []string{"colly"}
	_, err := buildScraper(c, resilience.NewBreakers(resilience.Config{}))
	assert.Error(t, err)

	c.Scrape.Providers = nil
	_, err = buildScraper(c, resilience.NewBreakers(resilience.Config{}))
	assert.Error(t, err)
}

func TestBuildGenerator(t *testing.T) {
	c := testConfig(t)
	breakers := resilience.NewBreakers(resilience.Config{})

	g, err := buildGenerator(c, breakers)
	require.NoError(t, err)
	assert.Equal(t, "anthropic", g.Name())

	c.Generate.Provider = "openai"
	g, err = buildGenerator(c, breakers)
	require.NoError(t, err)
	assert.Equal(t, "openai", g.Name())

	c.Generate.Provider = "llama"
	_, err = buildGenerator(c, breakers)
	assert.Error(t, err)
}

func TestInitAnalysis(t *testing.T) {
	withConfig(t, testConfig(t))

	env, err := initAnalysis(context.Background(), "analyze")
	require.NoError(t, err)
	defer env.Close()

	assert.NotNil(t, env.Pipeline)
	assert.NotNil(t, env.Breakers)
	assert.NotNil(t, env.Store)
}

func TestInitAnalysis_InvalidConfig(t *testing.T) {
	c := testConfig(t)
	c.Anthropic.Key = ""
	withConfig(t, c)

	_, err := initAnalysis(context.Background(), "analyze")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "anthropic.key is required")
}
