package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// envAliases binds the environment variable names used by earlier
// deployments in addition to the BOT_* names derived from keys.
var envAliases = map[string][]string{
	"telegram.token":      {"BOT_TELEGRAM_TOKEN", "TELEGRAM_TOKEN"},
	"telegram.user_id":    {"BOT_TELEGRAM_USER_ID", "TELEGRAM_USER_ID"},
	"cryptopanic.api_key": {"BOT_CRYPTOPANIC_API_KEY", "CRYPTOPANIC_API_KEY"},
}

// Load loads and validates configuration from:
// 1. Default values
// 2. the YAML file at path (optional; a missing file is not an error)
// 3. BOT_* environment variables and the aliases above
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if err := loadConfigFile(v, path); err != nil {
		return nil, fmt.Errorf("%w: failed to load config file: %v", ErrConfiguration, err)
	}

	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrConfiguration, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	return cfg, nil
}

// loadConfigFile wires the file and environment sources into v.
func loadConfigFile(v *viper.Viper, path string) error {
	v.SetEnvPrefix("BOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, names := range envAliases {
		args := append([]string{key}, names...)
		if err := v.BindEnv(args...); err != nil {
			return fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		// Config file not found is okay, we'll use defaults and env
		return nil
	}

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// setDefaults registers every default so that environment overrides are
// visible to Unmarshal even when the config file omits the key.
func setDefaults(v *viper.Viper) {
	d := Default()

	// Log defaults
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.json", d.Log.JSON)

	// Telegram defaults
	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.user_id", "")
	v.SetDefault("telegram.request_timeout", d.Telegram.RequestTimeout)

	// Provider defaults
	v.SetDefault("coingecko.price_url", d.CoinGecko.PriceURL)
	v.SetDefault("coingecko.history_url", d.CoinGecko.HistoryURL)
	v.SetDefault("coingecko.requests_per_minute", d.CoinGecko.RequestsPerMinute)
	v.SetDefault("coingecko.timeout", d.CoinGecko.Timeout)
	v.SetDefault("cryptopanic.api_key", "")
	v.SetDefault("cryptopanic.url", d.CryptoPanic.URL)
	v.SetDefault("cryptopanic.currencies", d.CryptoPanic.Currencies)
	v.SetDefault("cryptopanic.filter", d.CryptoPanic.Filter)
	v.SetDefault("cryptopanic.timeout", d.CryptoPanic.Timeout)

	// Monitor defaults
	v.SetDefault("monitor.assets", d.Monitor.Assets)
	v.SetDefault("monitor.report_asset", d.Monitor.ReportAsset)
	v.SetDefault("monitor.price_change_threshold", d.Monitor.PriceChangeThreshold)
	v.SetDefault("monitor.check_interval", d.Monitor.CheckInterval)
	v.SetDefault("monitor.news_interval", d.Monitor.NewsInterval)
	v.SetDefault("monitor.daily_report_hours", d.Monitor.DailyReportHours)
	v.SetDefault("monitor.daily_report_minute", d.Monitor.DailyReportMinute)
	v.SetDefault("monitor.daily_comparison_hour", d.Monitor.DailyComparisonHour)
	v.SetDefault("monitor.daily_comparison_minute", d.Monitor.DailyComparisonMinute)
	v.SetDefault("monitor.news_cap", d.Monitor.NewsCap)
	v.SetDefault("monitor.news_send_gap", d.Monitor.NewsSendGap)

	// Scheduler defaults
	v.SetDefault("scheduler.tick", d.Scheduler.Tick)
	v.SetDefault("scheduler.stop_timeout", d.Scheduler.StopTimeout)
	v.SetDefault("scheduler.timezone", d.Scheduler.Timezone)

	// Store defaults
	v.SetDefault("store.driver", d.Store.Driver)
	v.SetDefault("store.path", d.Store.Path)

	// HTTP defaults
	v.SetDefault("http.enabled", d.HTTP.Enabled)
	v.SetDefault("http.addr", d.HTTP.Addr)
}
