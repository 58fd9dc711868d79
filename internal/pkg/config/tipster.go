package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// TipsterConfig is the root configuration for the tip engine.
type TipsterConfig struct {
	Feeds    FeedsConfig    `yaml:"feeds"`
	Telegram TelegramConfig `yaml:"telegram"`
	Engine   EngineConfig   `yaml:"engine"`
	Postgres PostgresConfig `yaml:"postgres"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type FeedsConfig struct {
	LiveURL      string        `yaml:"live_url"`
	HistoryURL   string        `yaml:"history_url"`
	H2HURL       string        `yaml:"h2h_url"` // template with {player1} and {player2}
	AuthToken    string        `yaml:"auth_token"`
	Timeout      time.Duration `yaml:"timeout"`
	Retries      int           `yaml:"retries"`
	RetryBackoff time.Duration `yaml:"retry_backoff"`
	RatePerSec   float64       `yaml:"rate_per_sec"`
}

type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
	ChatID   int64  `yaml:"chat_id"`
}

// PostgresConfig configures the optional tip archive. An empty DSN disables
// persistence entirely.
type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

type EngineConfig struct {
	LiveInterval      time.Duration `yaml:"live_interval"`
	ReconcileInterval time.Duration `yaml:"reconcile_interval"`
	ReconcileDelay    time.Duration `yaml:"reconcile_delay"`

	PlayerCacheTTL  time.Duration `yaml:"player_cache_ttl"`
	HistoryCacheTTL time.Duration `yaml:"history_cache_ttl"`
	H2HCacheTTL     time.Duration `yaml:"h2h_cache_ttl"`

	MinConfidence float64       `yaml:"min_confidence"`
	WindowBefore  time.Duration `yaml:"window_before"`
	WindowAfter   time.Duration `yaml:"window_after"`
	PendingExpiry time.Duration `yaml:"pending_expiry"` // 0 = pending tips never expire

	HistoryPageSize int    `yaml:"history_page_size"`
	Timezone        string `yaml:"timezone"` // reporting timezone, e.g. "America/Manaus"
}

type MetricsConfig struct {
	Addr string `yaml:"addr"` // empty disables the metrics endpoint
}

type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"` // empty disables the JSON file handler
}

// LoadTipster reads the YAML config, applies environment overrides for
// secrets and fills defaults. Env vars win over file values so deployments
// can keep tokens out of the config file.
func LoadTipster(configPath string) (*TipsterConfig, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg TipsterConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_CHAT_ID: %w", err)
		}
		cfg.Telegram.ChatID = id
	}
	if v := os.Getenv("FEED_AUTH_TOKEN"); v != "" {
		cfg.Feeds.AuthToken = v
	}
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		cfg.Postgres.DSN = v
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *TipsterConfig) applyDefaults() {
	if c.Engine.LiveInterval <= 0 {
		c.Engine.LiveInterval = 10 * time.Second
	}
	if c.Engine.ReconcileInterval <= 0 {
		c.Engine.ReconcileInterval = 3 * time.Minute
	}
	if c.Engine.ReconcileDelay <= 0 {
		c.Engine.ReconcileDelay = 30 * time.Second
	}
	if c.Engine.PlayerCacheTTL <= 0 {
		c.Engine.PlayerCacheTTL = 5 * time.Minute
	}
	if c.Engine.HistoryCacheTTL <= 0 {
		c.Engine.HistoryCacheTTL = time.Minute
	}
	if c.Engine.H2HCacheTTL <= 0 {
		c.Engine.H2HCacheTTL = time.Minute
	}
	if c.Engine.MinConfidence <= 0 {
		c.Engine.MinConfidence = 80
	}
	if c.Engine.WindowBefore <= 0 {
		c.Engine.WindowBefore = 5 * time.Minute
	}
	if c.Engine.WindowAfter <= 0 {
		c.Engine.WindowAfter = 30 * time.Minute
	}
	if c.Engine.HistoryPageSize <= 0 {
		c.Engine.HistoryPageSize = 200
	}
	if c.Engine.Timezone == "" {
		c.Engine.Timezone = "America/Manaus"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

func (c *TipsterConfig) validate() error {
	if c.Feeds.LiveURL == "" {
		return fmt.Errorf("feeds.live_url is required")
	}
	if c.Feeds.HistoryURL == "" {
		return fmt.Errorf("feeds.history_url is required")
	}
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram bot token is required (telegram.bot_token or TELEGRAM_BOT_TOKEN)")
	}
	if c.Telegram.ChatID == 0 {
		return fmt.Errorf("telegram chat id is required (telegram.chat_id or TELEGRAM_CHAT_ID)")
	}
	if _, err := time.LoadLocation(c.Engine.Timezone); err != nil {
		return fmt.Errorf("invalid engine.timezone %q: %w", c.Engine.Timezone, err)
	}
	return nil
}
