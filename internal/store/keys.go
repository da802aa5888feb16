package store

// Record keys shared by tasks, handlers and the dashboard.
const (
	KeyLastDailyReport     = "last_daily_report"
	KeyLastDailyComparison = "last_daily_comparison"
	KeyLastNewsTimestamp   = "last_news_timestamp"
	KeyTotalAlertsSent     = "total_alerts_sent"
	KeyTotalNewsSent       = "total_news_sent"
	KeyLastError           = "last_error"
	KeyBotStartTime        = "bot_start_time"
)

// LastPriceKey is the alert baseline for asset.
func LastPriceKey(asset string) string { return "last_" + asset + "_price" }

// CachedPriceKey holds the most recent successfully fetched price of asset.
func CachedPriceKey(asset string) string { return "cached_" + asset + "_price" }

// YesterdayPriceKey holds the price snapshot taken at the daily comparison.
func YesterdayPriceKey(asset string) string { return "yesterday_" + asset + "_price" }
