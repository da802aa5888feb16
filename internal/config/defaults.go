package config

import "time"

// Default values for configuration
const (
	// Log defaults
	DefaultLogLevel = "info"
	DefaultLogJSON  = false

	// Telegram defaults
	DefaultTelegramRequestTimeout = 10 * time.Second

	// CoinGecko defaults
	DefaultCoinGeckoPriceURL          = "https://api.coingecko.com/api/v3/simple/price"
	DefaultCoinGeckoHistoryURL        = "https://api.coingecko.com/api/v3/coins/%s/market_chart"
	DefaultCoinGeckoRequestsPerMinute = 20
	DefaultCoinGeckoTimeout           = 10 * time.Second

	// CryptoPanic defaults
	DefaultCryptoPanicURL        = "https://cryptopanic.com/api/v1/posts/"
	DefaultCryptoPanicCurrencies = "ETH"
	DefaultCryptoPanicFilter     = "important"
	DefaultCryptoPanicTimeout    = 10 * time.Second

	// Monitor defaults
	DefaultReportAsset           = "ethereum"
	DefaultPriceChangeThreshold  = 3.0
	DefaultCheckInterval         = 30 * time.Second
	DefaultNewsInterval          = 5 * time.Minute
	DefaultDailyReportMinute     = 0
	DefaultDailyComparisonHour   = 8
	DefaultDailyComparisonMinute = 0
	DefaultNewsCap               = 3
	DefaultNewsSendGap           = 2 * time.Second

	// Scheduler defaults
	DefaultSchedulerTick        = time.Second
	DefaultSchedulerStopTimeout = 5 * time.Second

	// Store defaults
	DefaultStoreDriver = "file"
	DefaultStorePath   = "bot_data.json"

	// HTTP defaults
	DefaultHTTPEnabled = true
	DefaultHTTPAddr    = "0.0.0.0:5000"
)

// DefaultAssets are the coins tracked when none are configured.
var DefaultAssets = []Asset{
	{ID: "ethereum", Symbol: "ETH"},
	{ID: "chainlink", Symbol: "LINK"},
}

// DefaultDailyReportHours are the local hours at which daily reports are sent.
var DefaultDailyReportHours = []int{8, 12, 16, 20}

// Default returns a Config populated with every default value.
// Required secrets (telegram token and user) are left empty.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level: DefaultLogLevel,
			JSON:  DefaultLogJSON,
		},
		Telegram: TelegramConfig{
			RequestTimeout: DefaultTelegramRequestTimeout,
		},
		CoinGecko: CoinGeckoConfig{
			PriceURL:          DefaultCoinGeckoPriceURL,
			HistoryURL:        DefaultCoinGeckoHistoryURL,
			RequestsPerMinute: DefaultCoinGeckoRequestsPerMinute,
			Timeout:           DefaultCoinGeckoTimeout,
		},
		CryptoPanic: CryptoPanicConfig{
			URL:        DefaultCryptoPanicURL,
			Currencies: DefaultCryptoPanicCurrencies,
			Filter:     DefaultCryptoPanicFilter,
			Timeout:    DefaultCryptoPanicTimeout,
		},
		Monitor: MonitorConfig{
			Assets:                append([]Asset(nil), DefaultAssets...),
			ReportAsset:           DefaultReportAsset,
			PriceChangeThreshold:  DefaultPriceChangeThreshold,
			CheckInterval:         DefaultCheckInterval,
			NewsInterval:          DefaultNewsInterval,
			DailyReportHours:      append([]int(nil), DefaultDailyReportHours...),
			DailyReportMinute:     DefaultDailyReportMinute,
			DailyComparisonHour:   DefaultDailyComparisonHour,
			DailyComparisonMinute: DefaultDailyComparisonMinute,
			NewsCap:               DefaultNewsCap,
			NewsSendGap:           DefaultNewsSendGap,
		},
		Scheduler: SchedulerConfig{
			Tick:        DefaultSchedulerTick,
			StopTimeout: DefaultSchedulerStopTimeout,
		},
		Store: StoreConfig{
			Driver: DefaultStoreDriver,
			Path:   DefaultStorePath,
		},
		HTTP: HTTPConfig{
			Enabled: DefaultHTTPEnabled,
			Addr:    DefaultHTTPAddr,
		},
	}
}
