// Package config provides configuration loading, defaults, and validation
// for the cryptowatch bot. Values come from config.yaml, BOT_* environment
// variables and built-in defaults, in increasing order of precedence.
package config

import (
	"errors"
	"strings"
	"time"
)

// ErrConfiguration is returned for any failure to load or validate configuration.
var ErrConfiguration = errors.New("configuration error")

// placeholderAPIKey is the value shipped in sample env files; it counts as unset.
const placeholderAPIKey = "TWÓJ_KLUCZ_API"

// Config defines the application configuration.
type Config struct {
	Log         LogConfig         `mapstructure:"log"`
	Telegram    TelegramConfig    `mapstructure:"telegram"`
	CoinGecko   CoinGeckoConfig   `mapstructure:"coingecko"`
	CryptoPanic CryptoPanicConfig `mapstructure:"cryptopanic"`
	Monitor     MonitorConfig     `mapstructure:"monitor"`
	Scheduler   SchedulerConfig   `mapstructure:"scheduler"`
	Store       StoreConfig       `mapstructure:"store"`
	HTTP        HTTPConfig        `mapstructure:"http"`
}

// LogConfig controls the slog handler.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// TelegramConfig holds the bot token and the single recipient.
// UserID is either a numeric chat ID or a username with or without "@".
type TelegramConfig struct {
	Token          string        `mapstructure:"token"           validate:"required"`
	UserID         string        `mapstructure:"user_id"         validate:"required"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" validate:"min=1s,max=2m"`
}

// CoinGeckoConfig configures the price provider. HistoryURL is a format
// string with one %s for the asset ID.
type CoinGeckoConfig struct {
	PriceURL          string        `mapstructure:"price_url"           validate:"required,url"`
	HistoryURL        string        `mapstructure:"history_url"         validate:"required,contains=%s"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute" validate:"min=1,max=600"`
	Timeout           time.Duration `mapstructure:"timeout"             validate:"min=1s,max=2m"`
}

// CryptoPanicConfig configures the news provider. An empty APIKey disables news.
type CryptoPanicConfig struct {
	APIKey     string        `mapstructure:"api_key"`
	URL        string        `mapstructure:"url"        validate:"required,url"`
	Currencies string        `mapstructure:"currencies"`
	Filter     string        `mapstructure:"filter"`
	Timeout    time.Duration `mapstructure:"timeout"    validate:"min=1s,max=2m"`
}

// Enabled reports whether a usable API key is configured.
func (c CryptoPanicConfig) Enabled() bool {
	key := strings.TrimSpace(c.APIKey)
	return key != "" && key != placeholderAPIKey
}

// Asset identifies a tracked coin by provider ID and display symbol.
type Asset struct {
	ID     string `mapstructure:"id"     validate:"required"`
	Symbol string `mapstructure:"symbol" validate:"required"`
}

// MonitorConfig holds the alerting and reporting policy.
type MonitorConfig struct {
	Assets                []Asset       `mapstructure:"assets"                  validate:"required,min=1,dive"`
	ReportAsset           string        `mapstructure:"report_asset"            validate:"required"`
	PriceChangeThreshold  float64       `mapstructure:"price_change_threshold"  validate:"gt=0,lte=100"`
	CheckInterval         time.Duration `mapstructure:"check_interval"          validate:"min=1s"`
	NewsInterval          time.Duration `mapstructure:"news_interval"           validate:"min=1s"`
	DailyReportHours      []int         `mapstructure:"daily_report_hours"      validate:"required,min=1,dive,min=0,max=23"`
	DailyReportMinute     int           `mapstructure:"daily_report_minute"     validate:"min=0,max=59"`
	DailyComparisonHour   int           `mapstructure:"daily_comparison_hour"   validate:"min=0,max=23"`
	DailyComparisonMinute int           `mapstructure:"daily_comparison_minute" validate:"min=0,max=59"`
	NewsCap               int           `mapstructure:"news_cap"                validate:"min=1,max=20"`
	NewsSendGap           time.Duration `mapstructure:"news_send_gap"           validate:"min=0"`
}

// AssetByID returns the configured asset with the given provider ID.
func (m MonitorConfig) AssetByID(id string) (Asset, bool) {
	for _, a := range m.Assets {
		if a.ID == id {
			return a, true
		}
	}
	return Asset{}, false
}

// SchedulerConfig controls the control loop.
type SchedulerConfig struct {
	Tick        time.Duration `mapstructure:"tick"         validate:"min=100ms,max=1m"`
	StopTimeout time.Duration `mapstructure:"stop_timeout" validate:"min=1s,max=1m"`
	Timezone    string        `mapstructure:"timezone"`
}

// StoreConfig selects the persistent state backend.
type StoreConfig struct {
	Driver string `mapstructure:"driver" validate:"required,oneof=file sqlite"`
	Path   string `mapstructure:"path"   validate:"required"`
}

// HTTPConfig controls the dashboard API.
type HTTPConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr" validate:"required_if=Enabled true"`
}
