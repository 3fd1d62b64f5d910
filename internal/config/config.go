// Package config loads and validates the pulse service configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultServerAddress     = ":8080"
	defaultReadTimeoutSecs   = 10
	defaultWriteTimeoutSecs  = 30
	defaultSearchMaxRequests = 90
	defaultSearchWindowSecs  = 86400
	defaultFeedMaxRequests   = 100
	defaultFeedWindowSecs    = 3600
	defaultScrapeMaxRequests = 60
	defaultScrapeWindowSecs  = 3600
	defaultPosterMaxRequests = 50
	defaultPosterWindowSecs  = 3600
	defaultLLMMaxRequests    = 1000
	defaultLLMWindowSecs     = 3600
	defaultFetchLimit        = 5
	defaultTopN              = 5
	defaultHalfLifeHours     = 24
	defaultMaxAgeHours       = 168
	defaultFactConfidence    = 0.5
	defaultSummaryConfidence = 0.3
	defaultWorkers           = 2
	defaultPollIntervalSecs  = 5
	defaultStaleAfterSecs    = 1800
	defaultLLMMaxTokens      = 1024
)

type Config struct {
	Debug    bool           `yaml:"debug"`
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Sources  SourcesConfig  `yaml:"sources"`
	LLM      LLMConfig      `yaml:"llm"`
	Poster   PosterConfig   `yaml:"poster"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Jobs     JobsConfig     `yaml:"jobs"`
}

type ServerConfig struct {
	Address          string   `yaml:"address"`
	ReadTimeoutSecs  int      `yaml:"read_timeout_seconds"`
	WriteTimeoutSecs int      `yaml:"write_timeout_seconds"`
	CORSOrigins      []string `yaml:"cors_origins"`
}

func (c ServerConfig) ReadTimeout() time.Duration {
	return time.Duration(c.ReadTimeoutSecs) * time.Second
}

func (c ServerConfig) WriteTimeout() time.Duration {
	return time.Duration(c.WriteTimeoutSecs) * time.Second
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// RateConfig configures one sliding-window rate limit.
type RateConfig struct {
	MaxRequests int `yaml:"max_requests"`
	WindowSecs  int `yaml:"time_window_seconds"`
}

func (c RateConfig) Window() time.Duration {
	return time.Duration(c.WindowSecs) * time.Second
}

type SearchSourceConfig struct {
	APIKey   string     `yaml:"api_key"`
	EngineID string     `yaml:"engine_id"`
	BaseURL  string     `yaml:"base_url"`
	Rate     RateConfig `yaml:"rate"`
}

type FeedSourceConfig struct {
	APIKey  string     `yaml:"api_key"`
	BaseURL string     `yaml:"base_url"`
	Rate    RateConfig `yaml:"rate"`
}

type ScrapeSourceConfig struct {
	// Sites maps a niche to the page URLs scraped for it.
	Sites map[string][]string `yaml:"sites"`
	Rate  RateConfig          `yaml:"rate"`
}

type SourcesConfig struct {
	Search     SearchSourceConfig `yaml:"search"`
	Feed       FeedSourceConfig   `yaml:"feed"`
	Scrape     ScrapeSourceConfig `yaml:"scrape"`
	EnableMock bool               `yaml:"enable_mock"`
	Enrich     bool               `yaml:"enrich"`
}

type LLMConfig struct {
	APIKey    string     `yaml:"api_key"`
	Model     string     `yaml:"model"`
	MaxTokens int        `yaml:"max_tokens"`
	Mock      bool       `yaml:"mock"`
	Rate      RateConfig `yaml:"rate"`
}

type PosterConfig struct {
	BearerToken string     `yaml:"bearer_token"`
	BaseURL     string     `yaml:"base_url"`
	Platform    string     `yaml:"platform"`
	Mock        bool       `yaml:"mock"`
	Rate        RateConfig `yaml:"rate"`
}

type PipelineConfig struct {
	FetchLimit           int                `yaml:"fetch_limit"`
	TopN                 int                `yaml:"top_n"`
	Concurrency          int                `yaml:"concurrency"`
	HalfLifeHours        float64            `yaml:"half_life_hours"`
	MaxAgeHours          float64            `yaml:"max_age_hours"`
	MinFactConfidence    float64            `yaml:"min_fact_confidence"`
	MinSummaryConfidence float64            `yaml:"min_summary_confidence"`
	FailOnExhausted      bool               `yaml:"fail_on_exhausted"`
	Tones                map[string]string  `yaml:"tones"`
	SkipStages           []string           `yaml:"skip_stages"`
	Authority            map[string]float64 `yaml:"authority"`
}

// Tone returns the configured tone for a niche, professional by default.
func (c PipelineConfig) Tone(niche string) string {
	if tone, ok := c.Tones[strings.ToLower(niche)]; ok {
		return tone
	}
	return "professional"
}

type JobsConfig struct {
	Workers          int `yaml:"workers"`
	PollIntervalSecs int `yaml:"poll_interval_seconds"`
	StaleAfterSecs   int `yaml:"stale_after_seconds"`
}

func (c JobsConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSecs) * time.Second
}

func (c JobsConfig) StaleAfter() time.Duration {
	return time.Duration(c.StaleAfterSecs) * time.Second
}

// Load reads the YAML config at path, applies defaults and environment
// overrides, and validates the result. A .env file next to the process is
// honored when present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	setDefaults(&cfg)
	overrideWithEnvVars(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// Validate checks the configuration for required values.
func (c *Config) Validate() error {
	if c.Redis.Addr == "" {
		return errors.New("redis.addr is required")
	}
	if c.Database.Host == "" {
		return errors.New("database.host is required")
	}
	if c.Pipeline.TopN <= 0 {
		return fmt.Errorf("pipeline.top_n must be positive, got %d", c.Pipeline.TopN)
	}
	if c.Pipeline.MinSummaryConfidence < 0 || c.Pipeline.MinSummaryConfidence > 1 {
		return fmt.Errorf("pipeline.min_summary_confidence must be in [0,1], got %v", c.Pipeline.MinSummaryConfidence)
	}
	if !c.LLM.Mock && c.LLM.APIKey == "" {
		return errors.New("llm.api_key is required unless llm.mock is set")
	}
	if !c.Poster.Mock && c.Poster.BearerToken == "" {
		return errors.New("poster.bearer_token is required unless poster.mock is set")
	}
	return nil
}

func setDefaults(cfg *Config) {
	if cfg.Server.Address == "" {
		cfg.Server.Address = defaultServerAddress
	}
	if cfg.Server.ReadTimeoutSecs == 0 {
		cfg.Server.ReadTimeoutSecs = defaultReadTimeoutSecs
	}
	if cfg.Server.WriteTimeoutSecs == 0 {
		cfg.Server.WriteTimeoutSecs = defaultWriteTimeoutSecs
	}
	if len(cfg.Server.CORSOrigins) == 0 {
		// dashboard frontend
		cfg.Server.CORSOrigins = []string{"http://localhost:3000"}
	}
	if cfg.Database.Port == "" {
		cfg.Database.Port = "5432"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}

	applyRateDefaults(&cfg.Sources.Search.Rate, defaultSearchMaxRequests, defaultSearchWindowSecs)
	applyRateDefaults(&cfg.Sources.Feed.Rate, defaultFeedMaxRequests, defaultFeedWindowSecs)
	applyRateDefaults(&cfg.Sources.Scrape.Rate, defaultScrapeMaxRequests, defaultScrapeWindowSecs)
	applyRateDefaults(&cfg.Poster.Rate, defaultPosterMaxRequests, defaultPosterWindowSecs)
	applyRateDefaults(&cfg.LLM.Rate, defaultLLMMaxRequests, defaultLLMWindowSecs)

	if cfg.Sources.Search.BaseURL == "" {
		cfg.Sources.Search.BaseURL = "https://www.googleapis.com/customsearch/v1"
	}
	if cfg.Sources.Feed.BaseURL == "" {
		cfg.Sources.Feed.BaseURL = "https://newsapi.org/v2"
	}
	if cfg.Poster.BaseURL == "" {
		cfg.Poster.BaseURL = "https://api.twitter.com/2"
	}
	if cfg.Poster.Platform == "" {
		cfg.Poster.Platform = "x"
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "claude-3-5-haiku-latest"
	}
	if cfg.LLM.MaxTokens == 0 {
		cfg.LLM.MaxTokens = defaultLLMMaxTokens
	}

	if cfg.Pipeline.FetchLimit == 0 {
		cfg.Pipeline.FetchLimit = defaultFetchLimit
	}
	if cfg.Pipeline.TopN == 0 {
		cfg.Pipeline.TopN = defaultTopN
	}
	if cfg.Pipeline.Concurrency == 0 {
		cfg.Pipeline.Concurrency = cfg.Pipeline.TopN
	}
	if cfg.Pipeline.HalfLifeHours == 0 {
		cfg.Pipeline.HalfLifeHours = defaultHalfLifeHours
	}
	if cfg.Pipeline.MaxAgeHours == 0 {
		cfg.Pipeline.MaxAgeHours = defaultMaxAgeHours
	}
	if cfg.Pipeline.MinFactConfidence == 0 {
		cfg.Pipeline.MinFactConfidence = defaultFactConfidence
	}
	if cfg.Pipeline.MinSummaryConfidence == 0 {
		cfg.Pipeline.MinSummaryConfidence = defaultSummaryConfidence
	}

	if cfg.Jobs.Workers == 0 {
		cfg.Jobs.Workers = defaultWorkers
	}
	if cfg.Jobs.PollIntervalSecs == 0 {
		cfg.Jobs.PollIntervalSecs = defaultPollIntervalSecs
	}
	if cfg.Jobs.StaleAfterSecs == 0 {
		cfg.Jobs.StaleAfterSecs = defaultStaleAfterSecs
	}
}

func overrideWithEnvVars(cfg *Config) {
	if v := os.Getenv("APP_DEBUG"); v != "" {
		cfg.Debug = parseBool(v)
	}
	if v := os.Getenv("PULSE_PORT"); v != "" {
		cfg.Server.Address = ":" + v
	}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		origins := strings.Split(v, ",")
		for i, origin := range origins {
			origins[i] = strings.TrimSpace(origin)
		}
		cfg.Server.CORSOrigins = origins
	}
	if v := os.Getenv("POSTGRES_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("POSTGRES_PORT"); v != "" {
		cfg.Database.Port = v
	}
	if v := os.Getenv("POSTGRES_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("POSTGRES_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("POSTGRES_DB"); v != "" {
		cfg.Database.DBName = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("GOOGLE_API_KEY"); v != "" {
		cfg.Sources.Search.APIKey = v
	}
	if v := os.Getenv("GOOGLE_SEARCH_ENGINE_ID"); v != "" {
		cfg.Sources.Search.EngineID = v
	}
	if v := os.Getenv("NEWSAPI_KEY"); v != "" {
		cfg.Sources.Feed.APIKey = v
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("X_BEARER_TOKEN"); v != "" {
		cfg.Poster.BearerToken = v
	}
	if v := os.Getenv("MOCK_SOURCES"); v != "" {
		cfg.Sources.EnableMock = parseBool(v)
	}
	if v := os.Getenv("MOCK_LLM"); v != "" {
		cfg.LLM.Mock = parseBool(v)
	}
	if v := os.Getenv("MOCK_POSTS"); v != "" {
		cfg.Poster.Mock = parseBool(v)
	}
}

func applyRateDefaults(rate *RateConfig, maxRequests, windowSecs int) {
	if rate.MaxRequests == 0 {
		rate.MaxRequests = maxRequests
	}
	if rate.WindowSecs == 0 {
		rate.WindowSecs = windowSecs
	}
}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	return err == nil && b
}
