package config

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Identity   IdentityConfig   `yaml:"identity" mapstructure:"identity"`
	Scrape     ScrapeConfig     `yaml:"scrape" mapstructure:"scrape"`
	Firecrawl  FirecrawlConfig  `yaml:"firecrawl" mapstructure:"firecrawl"`
	Jina       JinaConfig       `yaml:"jina" mapstructure:"jina"`
	Generate   GenerateConfig   `yaml:"generate" mapstructure:"generate"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	OpenAI     OpenAIConfig     `yaml:"openai" mapstructure:"openai"`
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Circuit    CircuitConfig    `yaml:"circuit" mapstructure:"circuit"`
	Monitoring MonitoringConfig `yaml:"monitoring" mapstructure:"monitoring"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// ServerConfig configures the dashboard HTTP server.
type ServerConfig struct {
	Port             int      `yaml:"port" mapstructure:"port"`
	ReadTimeoutSecs  int      `yaml:"read_timeout_secs" mapstructure:"read_timeout_secs"`
	WriteTimeoutSecs int      `yaml:"write_timeout_secs" mapstructure:"write_timeout_secs"`
	CORSOrigins      []string `yaml:"cors_origins" mapstructure:"cors_origins"`
	RatePerMinute    int      `yaml:"rate_per_minute" mapstructure:"rate_per_minute"`
	RateBurst        int      `yaml:"rate_burst" mapstructure:"rate_burst"`
	SessionTTLMins   int      `yaml:"session_ttl_mins" mapstructure:"session_ttl_mins"`
	SecureCookies    bool     `yaml:"secure_cookies" mapstructure:"secure_cookies"`
}

// IdentityConfig selects where the signed-in user comes from.
type IdentityConfig struct {
	Provider    string `yaml:"provider" mapstructure:"provider"` // "http" or "static"
	URL         string `yaml:"url" mapstructure:"url"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	ID          string `yaml:"id" mapstructure:"id"`
	Email       string `yaml:"email" mapstructure:"email"`
	DisplayName string `yaml:"display_name" mapstructure:"display_name"`
}

// ScrapeConfig configures the scrape stage.
type ScrapeConfig struct {
	Providers   []string `yaml:"providers" mapstructure:"providers"`
	TimeoutSecs int      `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	UserAgent   string   `yaml:"user_agent" mapstructure:"user_agent"`
}

// FirecrawlConfig holds Firecrawl API settings.
type FirecrawlConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// JinaConfig holds Jina AI Reader settings.
type JinaConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// GenerateConfig configures the structured generation stage.
type GenerateConfig struct {
	Provider     string  `yaml:"provider" mapstructure:"provider"` // "anthropic" or "openai"
	MaxTokens    int     `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature  float64 `yaml:"temperature" mapstructure:"temperature"`
	ContentLimit int     `yaml:"content_limit" mapstructure:"content_limit"`
	TimeoutSecs  int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	Model   string `yaml:"model" mapstructure:"model"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// OpenAIConfig holds OpenAI-compatible API settings.
type OpenAIConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	Model   string `yaml:"model" mapstructure:"model"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// StoreConfig configures the run log backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"` // "sqlite", "postgres" or "none"
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// CircuitConfig configures the per-upstream circuit breakers.
type CircuitConfig struct {
	FailureThreshold int `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	ResetTimeoutSecs int `yaml:"reset_timeout_secs" mapstructure:"reset_timeout_secs"`
}

// MonitoringConfig configures run log alerting.
type MonitoringConfig struct {
	WebhookURL           string  `yaml:"webhook_url" mapstructure:"webhook_url"`
	FailureRateThreshold float64 `yaml:"failure_rate_threshold" mapstructure:"failure_rate_threshold"`
	CheckIntervalSecs    int     `yaml:"check_interval_secs" mapstructure:"check_interval_secs"`
	LookbackWindowHours  int     `yaml:"lookback_window_hours" mapstructure:"lookback_window_hours"`
}

// Enabled reports whether alerts have somewhere to go.
func (m MonitoringConfig) Enabled() bool { return m.WebhookURL != "" }

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from .env files, config.yaml and the environment.
func Load() (*Config, error) {
	// .env.development wins over .env; neither overrides a variable that is
	// already set.
	_ = godotenv.Load(".env.development")
	_ = godotenv.Load(".env")

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("SEO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. Every key needs one, even if empty, or AutomaticEnv never
	// reaches it during Unmarshal.
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout_secs", 15)
	v.SetDefault("server.write_timeout_secs", 30)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.rate_per_minute", 10)
	v.SetDefault("server.rate_burst", 3)
	v.SetDefault("server.session_ttl_mins", 120)
	v.SetDefault("server.secure_cookies", false)
	v.SetDefault("identity.provider", "static")
	v.SetDefault("identity.timeout_secs", 10)
	v.SetDefault("identity.id", "local")
	v.SetDefault("identity.email", "dev@localhost")
	v.SetDefault("identity.url", "")
	v.SetDefault("identity.display_name", "")
	v.SetDefault("scrape.providers", []string{"firecrawl", "jina", "local"})
	v.SetDefault("scrape.timeout_secs", 30)
	v.SetDefault("scrape.user_agent", "Mozilla/5.0 (compatible; SEOAnalyzer/1.0)")
	v.SetDefault("firecrawl.key", "")
	v.SetDefault("firecrawl.base_url", "https://api.firecrawl.dev/v2")
	v.SetDefault("jina.key", "")
	v.SetDefault("jina.base_url", "https://r.jina.ai")
	v.SetDefault("generate.provider", "anthropic")
	v.SetDefault("generate.max_tokens", 4096)
	v.SetDefault("generate.temperature", 0.2)
	v.SetDefault("generate.content_limit", 2000)
	v.SetDefault("generate.timeout_secs", 120)
	v.SetDefault("anthropic.key", "")
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.base_url", "")
	v.SetDefault("openai.key", "")
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("openai.base_url", "")
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "seo-dashboard.db")
	v.SetDefault("circuit.failure_threshold", 5)
	v.SetDefault("circuit.reset_timeout_secs", 60)
	v.SetDefault("monitoring.webhook_url", "")
	v.SetDefault("monitoring.failure_rate_threshold", 0.25)
	v.SetDefault("monitoring.check_interval_secs", 300)
	v.SetDefault("monitoring.lookback_window_hours", 24)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command needs. Mode is one of "serve",
// "analyze" or "runs".
func (c *Config) Validate(mode string) error {
	var problems []string

	switch mode {
	case "serve":
		if c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
		if c.Server.RatePerMinute < 0 || c.Server.RateBurst < 0 {
			problems = append(problems, "server rate limit values must be >= 0")
		}
		if c.Server.SessionTTLMins <= 0 {
			problems = append(problems, "server.session_ttl_mins must be > 0")
		}
		switch c.Identity.Provider {
		case "http":
			if c.Identity.URL == "" {
				problems = append(problems, "identity.url is required for the http provider")
			}
		case "static":
			if c.Identity.ID == "" || c.Identity.Email == "" {
				problems = append(problems, "identity.id and identity.email are required for the static provider")
			}
		default:
			problems = append(problems, "identity.provider must be http or static")
		}
		if c.Monitoring.FailureRateThreshold < 0 || c.Monitoring.FailureRateThreshold > 1 {
			problems = append(problems, "monitoring.failure_rate_threshold must be between 0 and 1")
		}
		problems = append(problems, c.analysisProblems()...)
	case "analyze":
		problems = append(problems, c.analysisProblems()...)
	case "runs":
		problems = append(problems, c.storeProblems()...)
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}

func (c *Config) analysisProblems() []string {
	var problems []string

	if len(c.Scrape.Providers) == 0 {
		problems = append(problems, "scrape.providers must not be empty")
	}
	for _, p := range c.Scrape.Providers {
		switch p {
		case "firecrawl":
			if c.Firecrawl.Key == "" {
				problems = append(problems, "firecrawl.key is required")
			}
		case "jina", "local":
		default:
			problems = append(problems, "unknown scrape provider "+p)
		}
	}

	switch c.Generate.Provider {
	case "anthropic":
		if c.Anthropic.Key == "" {
			problems = append(problems, "anthropic.key is required")
		}
	case "openai":
		if c.OpenAI.Key == "" {
			problems = append(problems, "openai.key is required")
		}
	default:
		problems = append(problems, "generate.provider must be anthropic or openai")
	}
	if c.Generate.ContentLimit <= 0 {
		problems = append(problems, "generate.content_limit must be > 0")
	}
	if c.Circuit.FailureThreshold < 0 {
		problems = append(problems, "circuit.failure_threshold must be >= 0")
	}

	return append(problems, c.storeProblems()...)
}

func (c *Config) storeProblems() []string {
	switch c.Store.Driver {
	case "none":
		return nil
	case "sqlite", "postgres":
		if c.Store.DatabaseURL == "" {
			return []string{"store.database_url is required"}
		}
		return nil
	default:
		return []string{"store.driver must be sqlite, postgres or none"}
	}
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
