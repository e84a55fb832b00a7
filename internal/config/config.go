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
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	YouTube   YouTubeConfig   `yaml:"youtube" mapstructure:"youtube"`
	Serper    SerperConfig    `yaml:"serper" mapstructure:"serper"`
	Google    GoogleConfig    `yaml:"google" mapstructure:"google"`
	Rakuten   RakutenConfig   `yaml:"rakuten" mapstructure:"rakuten"`
	Jina      JinaConfig      `yaml:"jina" mapstructure:"jina"`
	Community CommunityConfig `yaml:"community" mapstructure:"community"`
	Aggregate AggregateConfig `yaml:"aggregate" mapstructure:"aggregate"`
	Retry     RetryConfig     `yaml:"retry" mapstructure:"retry"`
	Circuit   CircuitConfig   `yaml:"circuit" mapstructure:"circuit"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the persistence layer.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// AnthropicConfig configures the summarization model.
type AnthropicConfig struct {
	Key         string  `yaml:"key" mapstructure:"key"`
	Model       string  `yaml:"model" mapstructure:"model"`
	MaxTokens   int64   `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature float64 `yaml:"temperature" mapstructure:"temperature"`
}

// YouTubeConfig configures the YouTube Data API client.
type YouTubeConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// SerperConfig configures the Serper web search client.
type SerperConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// GoogleConfig configures the Google Custom Search client, the fallback
// web searcher.
type GoogleConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	CX      string `yaml:"cx" mapstructure:"cx"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// RakutenConfig configures the Rakuten Ichiba marketplace client.
type RakutenConfig struct {
	ApplicationID string `yaml:"application_id" mapstructure:"application_id"`
	AffiliateID   string `yaml:"affiliate_id" mapstructure:"affiliate_id"`
	BaseURL       string `yaml:"base_url" mapstructure:"base_url"`
}

// JinaConfig configures the Jina Reader fallback used when an article page
// cannot be scraped directly. Key is optional.
type JinaConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// CommunityConfig lists RSS/Atom feeds for community posts. FeedsFile, when
// set, is read in addition to the inline Feeds.
type CommunityConfig struct {
	FeedsFile string       `yaml:"feeds_file" mapstructure:"feeds_file"`
	Feeds     []FeedConfig `yaml:"feeds" mapstructure:"feeds"`
}

// FeedConfig is one inline community feed.
type FeedConfig struct {
	Name     string `yaml:"name" mapstructure:"name"`
	URL      string `yaml:"url" mapstructure:"url"`
	Platform string `yaml:"platform" mapstructure:"platform"`
}

// AggregateConfig tunes the provider fan-out.
type AggregateConfig struct {
	TimeoutSecs   int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxConcurrent int     `yaml:"max_concurrent" mapstructure:"max_concurrent"`
	MaxResults    int     `yaml:"max_results" mapstructure:"max_results"`
	RatePerSec    float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
}

// RetryConfig configures provider retries.
type RetryConfig struct {
	MaxAttempts      int `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
}

// CircuitConfig configures the per-kind circuit breakers.
type CircuitConfig struct {
	FailureThreshold int `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	ResetTimeoutSecs int `yaml:"reset_timeout_secs" mapstructure:"reset_timeout_secs"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from .env, file and environment.
func Load() (*Config, error) {
	// .env is optional; real environment variables win over it.
	_ = godotenv.Load()

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("CURATION")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("store.database_url", "")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 1)
	v.SetDefault("anthropic.key", "")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 1000)
	v.SetDefault("anthropic.temperature", 0.3)
	v.SetDefault("youtube.key", "")
	v.SetDefault("youtube.base_url", "https://www.googleapis.com/youtube/v3")
	v.SetDefault("serper.key", "")
	v.SetDefault("serper.base_url", "https://google.serper.dev")
	v.SetDefault("google.key", "")
	v.SetDefault("google.cx", "")
	v.SetDefault("google.base_url", "https://www.googleapis.com/customsearch/v1")
	v.SetDefault("rakuten.application_id", "")
	v.SetDefault("rakuten.affiliate_id", "")
	v.SetDefault("rakuten.base_url", "https://app.rakuten.co.jp/services/api")
	v.SetDefault("jina.enabled", false)
	v.SetDefault("jina.base_url", "https://r.jina.ai")
	v.SetDefault("community.feeds_file", "")
	v.SetDefault("aggregate.timeout_secs", 20)
	v.SetDefault("aggregate.max_concurrent", 6)
	v.SetDefault("aggregate.max_results", 30)
	v.SetDefault("aggregate.rate_per_sec", 0)
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.initial_backoff_ms", 500)
	v.SetDefault("circuit.failure_threshold", 5)
	v.SetDefault("circuit.reset_timeout_secs", 30)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"http://localhost:3000"})
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

// Validate checks that the keys a command mode needs are present. Modes are
// "serve", "refresh", "aggregate", "summarize" and "store".
func (c *Config) Validate(mode string) error {
	var errs []string

	needStore := func() {
		switch c.Store.Driver {
		case "postgres":
			if c.Store.DatabaseURL == "" {
				errs = append(errs, "store.database_url is required for the postgres driver")
			}
		case "sqlite":
			if c.Store.DatabaseURL == "" {
				errs = append(errs, "store.database_url is required (sqlite file path)")
			}
		default:
			errs = append(errs, "store.driver must be postgres or sqlite")
		}
	}
	needProvider := func() {
		if c.YouTube.Key == "" && c.Serper.Key == "" && c.Google.Key == "" &&
			c.Rakuten.ApplicationID == "" && c.Community.FeedsFile == "" && len(c.Community.Feeds) == 0 {
			errs = append(errs, "at least one provider (youtube, serper, google, rakuten, community) must be configured")
		}
		if c.Google.Key != "" && c.Google.CX == "" {
			errs = append(errs, "google.cx is required when google.key is set")
		}
	}
	checkAggregate := func() {
		if c.Aggregate.MaxConcurrent < 0 {
			errs = append(errs, "aggregate.max_concurrent must be >= 0")
		}
		if c.Aggregate.TimeoutSecs < 0 {
			errs = append(errs, "aggregate.timeout_secs must be >= 0")
		}
		if c.Aggregate.RatePerSec < 0 {
			errs = append(errs, "aggregate.rate_per_sec must be >= 0")
		}
	}

	switch mode {
	case "serve":
		needStore()
		needProvider()
		checkAggregate()
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, "server.port must be > 0 and <= 65535")
		}
	case "refresh":
		needStore()
		needProvider()
		checkAggregate()
	case "aggregate":
		needProvider()
		checkAggregate()
	case "summarize":
		needStore()
		if c.Anthropic.Key == "" {
			errs = append(errs, "anthropic.key is required")
		}
		if c.Anthropic.Temperature < 0 || c.Anthropic.Temperature > 1 {
			errs = append(errs, "anthropic.temperature must be between 0 and 1")
		}
	case "store":
		needStore()
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
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
