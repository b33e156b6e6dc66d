package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.Equal(t, 10, cfg.Server.RatePerMinute)
	assert.Equal(t, 3, cfg.Server.RateBurst)
	assert.Equal(t, 120, cfg.Server.SessionTTLMins)
	assert.Equal(t, "static", cfg.Identity.Provider)
	assert.Equal(t, "dev@localhost", cfg.Identity.Email)
	assert.Equal(t, []string{"firecrawl", "jina", "local"}, cfg.Scrape.Providers)
	assert.Equal(t, 30, cfg.Scrape.TimeoutSecs)
	assert.Equal(t, "https://api.firecrawl.dev/v2", cfg.Firecrawl.BaseURL)
	assert.Equal(t, "https://r.jina.ai", cfg.Jina.BaseURL)
	assert.Equal(t, "anthropic", cfg.Generate.Provider)
	assert.Equal(t, 4096, cfg.Generate.MaxTokens)
	assert.InDelta(t, 0.2, cfg.Generate.Temperature, 0.001)
	assert.Equal(t, 2000, cfg.Generate.ContentLimit)
	assert.Equal(t, "claude-sonnet-4-5-20250929", cfg.Anthropic.Model)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAI.Model)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "seo-dashboard.db", cfg.Store.DatabaseURL)
	assert.Equal(t, 5, cfg.Circuit.FailureThreshold)
	assert.Equal(t, 60, cfg.Circuit.ResetTimeoutSecs)
	assert.InDelta(t, 0.25, cfg.Monitoring.FailureRateThreshold, 0.001)
	assert.Equal(t, 300, cfg.Monitoring.CheckIntervalSecs)
	assert.Equal(t, 24, cfg.Monitoring.LookbackWindowHours)
	assert.False(t, cfg.Monitoring.Enabled())
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/seo
log:
  level: debug
  format: console
server:
  port: 9090
scrape:
  providers: [local]
generate:
  provider: openai
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/seo", cfg.Store.DatabaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, []string{"local"}, cfg.Scrape.Providers)
	assert.Equal(t, "openai", cfg.Generate.Provider)
	// Defaults still apply for unset values
	assert.Equal(t, 2000, cfg.Generate.ContentLimit)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: postgres
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("SEO_STORE_DRIVER", "none")
	t.Setenv("SEO_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "none", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chdirTemp(t)

	t.Setenv("SEO_SERVER_PORT", "3000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
}

func TestLoadEnvAPIKeys(t *testing.T) {
	chdirTemp(t)
	t.Setenv("SEO_ANTHROPIC_KEY", "sk-ant-env")
	t.Setenv("SEO_OPENAI_KEY", "sk-openai-env")
	t.Setenv("SEO_FIRECRAWL_KEY", "fc-env")
	t.Setenv("SEO_JINA_KEY", "jina-env")
	t.Setenv("SEO_MONITORING_WEBHOOK_URL", "https://hooks.example.com/seo")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sk-ant-env", cfg.Anthropic.Key)
	assert.Equal(t, "sk-openai-env", cfg.OpenAI.Key)
	assert.Equal(t, "fc-env", cfg.Firecrawl.Key)
	assert.Equal(t, "jina-env", cfg.Jina.Key)
	assert.True(t, cfg.Monitoring.Enabled())
	assert.NoError(t, cfg.Validate("analyze"))
}

func TestLoadDotEnvFiles(t *testing.T) {
	dir := chdirTemp(t)

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env.development"),
		[]byte("SEO_OPENAI_MODEL=from-development\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("SEO_OPENAI_MODEL=from-dotenv\nSEO_JINA_KEY=jina-from-dotenv\n"), 0644))
	t.Cleanup(func() {
		os.Unsetenv("SEO_OPENAI_MODEL")
		os.Unsetenv("SEO_JINA_KEY")
	})

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "from-development", cfg.OpenAI.Model)
	assert.Equal(t, "jina-from-dotenv", cfg.Jina.Key)
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("server: [unclosed"), 0644))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: read file")
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config that passes every mode.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Server.Port = 8080
	cfg.Server.RatePerMinute = 10
	cfg.Server.RateBurst = 3
	cfg.Server.SessionTTLMins = 120
	cfg.Identity.Provider = "static"
	cfg.Identity.ID = "local"
	cfg.Identity.Email = "dev@localhost"
	cfg.Scrape.Providers = []string{"jina", "local"}
	cfg.Generate.Provider = "anthropic"
	cfg.Generate.ContentLimit = 2000
	cfg.Anthropic.Key = "sk-ant-key"
	cfg.Store.Driver = "sqlite"
	cfg.Store.DatabaseURL = "seo.db"
	cfg.Circuit.FailureThreshold = 5
	return cfg
}

func TestValidate_AllModesPass(t *testing.T) {
	cfg := validDefaults()
	for _, mode := range []string{"serve", "analyze", "runs"} {
		assert.NoError(t, cfg.Validate(mode), mode)
	}
}

func TestValidateServe_InvalidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")
}

func TestValidateServe_MonitoringThreshold(t *testing.T) {
	cfg := validDefaults()
	cfg.Monitoring.FailureRateThreshold = 1.5

	err := cfg.Validate("serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "monitoring.failure_rate_threshold")

	// Only the server runs the checker.
	assert.NoError(t, cfg.Validate("analyze"))
}

func TestValidateServe_Identity(t *testing.T) {
	cfg := validDefaults()
	cfg.Identity.Provider = "http"
	err := cfg.Validate("serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "identity.url is required")

	cfg.Identity.URL = "https://auth.example.com/me"
	assert.NoError(t, cfg.Validate("serve"))

	cfg.Identity.Provider = "oauth"
	err = cfg.Validate("serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "identity.provider must be http or static")

	cfg.Identity.Provider = "static"
	cfg.Identity.Email = ""
	err = cfg.Validate("serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "identity.id and identity.email are required")
}

func TestValidateAnalyze_MissingKeys(t *testing.T) {
	cfg := validDefaults()
	cfg.Scrape.Providers = []string{"firecrawl", "carrier-pigeon"}
	cfg.Anthropic.Key = ""

	err := cfg.Validate("analyze")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "firecrawl.key is required")
	assert.Contains(t, err.Error(), "unknown scrape provider carrier-pigeon")
	assert.Contains(t, err.Error(), "anthropic.key is required")
}

func TestValidateAnalyze_OpenAI(t *testing.T) {
	cfg := validDefaults()
	cfg.Generate.Provider = "openai"

	err := cfg.Validate("analyze")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "openai.key is required")

	cfg.OpenAI.Key = "sk-openai"
	assert.NoError(t, cfg.Validate("analyze"))
}

func TestValidateAnalyze_Bounds(t *testing.T) {
	cfg := validDefaults()
	cfg.Scrape.Providers = nil
	cfg.Generate.Provider = ""
	cfg.Generate.ContentLimit = 0

	err := cfg.Validate("analyze")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scrape.providers must not be empty")
	assert.Contains(t, err.Error(), "generate.provider must be anthropic or openai")
	assert.Contains(t, err.Error(), "generate.content_limit must be > 0")
}

func TestValidateRuns_Store(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "none"
	cfg.Store.DatabaseURL = ""
	assert.NoError(t, cfg.Validate("runs"))

	cfg.Store.Driver = "postgres"
	err := cfg.Validate("runs")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.database_url is required")

	cfg.Store.Driver = "mysql"
	err = cfg.Validate("runs")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.driver must be sqlite, postgres or none")
}

func TestValidateUnknownMode(t *testing.T) {
	cfg := validDefaults()
	err := cfg.Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}
