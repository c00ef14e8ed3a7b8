package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	DataSource struct {
		Provider     string `yaml:"provider"` // "yahoo", "alpaca" or "mock"
		HistoryStart string `yaml:"history_start"`
		Alpaca       struct {
			APIKey    string `yaml:"api_key"`
			APISecret string `yaml:"api_secret"`
			BaseURL   string `yaml:"base_url"`
			Feed      string `yaml:"feed"`
		} `yaml:"alpaca"`
	} `yaml:"data_source"`
	Tickers   []string `yaml:"tickers"`
	WatchList []string `yaml:"watch_list"`
	Cache     struct {
		Size int           `yaml:"size"`
		TTL  time.Duration `yaml:"ttl"`
	} `yaml:"cache"`
	Forecast struct {
		ChangepointPriorScale float64 `yaml:"changepoint_prior_scale"`
		SeasonalityPriorScale float64 `yaml:"seasonality_prior_scale"`
		IntervalWidth         float64 `yaml:"interval_width"`
		UncertaintySamples    int     `yaml:"uncertainty_samples"`
	} `yaml:"forecast"`
	Schedule struct {
		WarmCron   string `yaml:"warm_cron"`
		DigestCron string `yaml:"digest_cron"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies .env and environment
// variable overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// .env never overrides variables already set in the environment.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("STOCKSEER_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		c.Telegram.ChatID = v
	}
	if v := os.Getenv("DATA_PROVIDER"); v != "" {
		c.DataSource.Provider = v
	}
	if v := os.Getenv("HISTORY_START"); v != "" {
		c.DataSource.HistoryStart = v
	}
	if v := firstEnv("ALPACA_API_KEY", "APCA_API_KEY_ID"); v != "" {
		c.DataSource.Alpaca.APIKey = v
	}
	if v := firstEnv("ALPACA_API_SECRET", "APCA_API_SECRET_KEY"); v != "" {
		c.DataSource.Alpaca.APISecret = v
	}
	if v := os.Getenv("ALPACA_DATA_URL"); v != "" {
		c.DataSource.Alpaca.BaseURL = v
	}
	if v := os.Getenv("STOCKSEER_TICKERS"); v != "" {
		c.Tickers = splitList(v)
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		c.Proxy = v
	}
	if v := os.Getenv("CACHE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Cache.Size = n
		}
	}
	if v := os.Getenv("CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Cache.TTL = d
		}
	}
	if v := os.Getenv("CRON_WARM"); v != "" {
		c.Schedule.WarmCron = v
	}
	if v := os.Getenv("CRON_DIGEST"); v != "" {
		c.Schedule.DigestCron = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.Database.SQLitePath = v
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.DataSource.Provider == "" {
		c.DataSource.Provider = "yahoo"
		if c.DataSource.Alpaca.APIKey != "" {
			c.DataSource.Provider = "alpaca"
		}
	}
	c.DataSource.Provider = strings.ToLower(c.DataSource.Provider)
	if c.DataSource.HistoryStart == "" {
		c.DataSource.HistoryStart = "2015-01-01"
	}
	if len(c.Tickers) == 0 {
		c.Tickers = []string{"PEP", "BBWI", "MSFT", "TSLA"}
	}
	for i, t := range c.Tickers {
		c.Tickers[i] = strings.ToUpper(strings.TrimSpace(t))
	}
	if len(c.WatchList) == 0 {
		c.WatchList = c.Tickers
	}
	if c.Cache.Size == 0 {
		c.Cache.Size = 128
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = time.Hour
	}
	if c.Schedule.WarmCron == "" {
		c.Schedule.WarmCron = "0 30 6 * * 1-5"
	}
	if c.Schedule.DigestCron == "" {
		c.Schedule.DigestCron = "0 0 22 * * 1-5"
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "data/stockseer.db"
	}
}

// HistoryStartDate parses DataSource.HistoryStart.
func (c *Config) HistoryStartDate() (time.Time, error) {
	return time.Parse("2006-01-02", c.DataSource.HistoryStart)
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	start, err := c.HistoryStartDate()
	if err != nil {
		return fmt.Errorf("data_source.history_start must be YYYY-MM-DD: %w", err)
	}
	if start.After(time.Now()) {
		return fmt.Errorf("data_source.history_start is in the future")
	}
	switch c.DataSource.Provider {
	case "yahoo", "mock":
	case "alpaca":
		if c.DataSource.Alpaca.APIKey == "" || c.DataSource.Alpaca.APISecret == "" {
			return fmt.Errorf("data_source.alpaca api_key and api_secret are required")
		}
	default:
		return fmt.Errorf("unknown data_source.provider %q", c.DataSource.Provider)
	}
	if c.Cache.Size < 0 {
		return fmt.Errorf("cache.size must not be negative")
	}
	if c.Telegram.BotToken != "" && c.Telegram.ChatID == "" {
		return fmt.Errorf("telegram.chat_id is required when bot_token is set")
	}
	return nil
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
