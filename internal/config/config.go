package config

import (
	"time"

	"github.com/shab2022/Investing-Assistant/pkg/config"
)

// Quote holds the configuration for the daily quote provider.
type Quote struct {
	BaseURL             string        `mapstructure:"base_url"`
	Timeout             time.Duration `mapstructure:"timeout"`
	MaxRequestPerMinute int           `mapstructure:"max_request_per_minute"`
	MaxConcurrent       int           `mapstructure:"max_concurrent"`
	CacheTTL            time.Duration `mapstructure:"cache_ttl"`
}

// Sentiment holds the configuration for the sentiment classifier service.
type Sentiment struct {
	BaseURL       string        `mapstructure:"base_url"`
	Timeout       time.Duration `mapstructure:"timeout"`
	MaxConcurrent int           `mapstructure:"max_concurrent"`
	MaxTextLength int           `mapstructure:"max_text_length"`
}

// Feed is one general market feed scanned for mentions of held symbols.
type Feed struct {
	Name string `mapstructure:"name"`
	URL  string `mapstructure:"url"`
}

// News holds the configuration for the news fetcher.
type News struct {
	SymbolFeedURL    string        `mapstructure:"symbol_feed_url"`
	SymbolFeedSource string        `mapstructure:"symbol_feed_source"`
	GeneralFeeds     []Feed        `mapstructure:"general_feeds"`
	MaxItemsPerFeed  int           `mapstructure:"max_items_per_feed"`
	MaxConcurrent    int           `mapstructure:"max_concurrent"`
	FeedCacheTTL     time.Duration `mapstructure:"feed_cache_ttl"`
	MaxExcerptLength int           `mapstructure:"max_excerpt_length"`
}

// Digest holds the configuration for digest aggregation.
type Digest struct {
	NewsLimit int `mapstructure:"news_limit"`
	TopMovers int `mapstructure:"top_movers"`
}

// Sweep holds the configuration for the daily per-user pipeline sweep.
type Sweep struct {
	Enabled            bool   `mapstructure:"enabled"`
	CronExpression     string `mapstructure:"cron_expression"`
	MaxConcurrentUsers int    `mapstructure:"max_concurrent_users"`
}

// Telegram holds the configuration for digest delivery over Telegram.
type Telegram struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
}

// Config holds the full configuration for the digest service.
type Config struct {
	App       config.App      `mapstructure:"app"`
	Logger    config.Logger   `mapstructure:"logger"`
	Database  config.Database `mapstructure:"database"`
	Redis     config.Redis    `mapstructure:"redis"`
	API       config.API      `mapstructure:"api"`
	Quote     Quote           `mapstructure:"quote"`
	Sentiment Sentiment       `mapstructure:"sentiment"`
	News      News            `mapstructure:"news"`
	Digest    Digest          `mapstructure:"digest"`
	Sweep     Sweep           `mapstructure:"sweep"`
	Telegram  Telegram        `mapstructure:"telegram"`
}

// Load loads the service configuration from the given path.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := config.Load(path, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
