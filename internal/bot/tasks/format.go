package tasks

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/edgard/cryptowatch/internal/alert"
	"github.com/edgard/cryptowatch/internal/config"
)

var reportEmoji = map[int]string{8: "🌅", 12: "☀️", 16: "🌇", 20: "🌙"}

// timeEmoji picks the report header emoji for hour.
func timeEmoji(hour int) string {
	if e, ok := reportEmoji[hour]; ok {
		return e
	}
	return "⏰"
}

// change24h is the optional 24h line of a daily report.
type change24h struct {
	current, dayAgo float64
}

func dailyReportMessage(symbol string, price float64, change *change24h, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s <b>%s Daily Report</b>\n\n", timeEmoji(now.Hour()), symbol)
	fmt.Fprintf(&b, "💰 Current Price: <b>%s</b>", alert.USD(decimal.NewFromFloat(price)))
	if change != nil && change.dayAgo > 0 {
		cur, ago := decimal.NewFromFloat(change.current), decimal.NewFromFloat(change.dayAgo)
		diff := cur.Sub(ago)
		fmt.Fprintf(&b, "\n📊 24h Change: <b>%s</b> (%s) %s",
			alert.SignedPercent(alert.PercentChange(ago, cur)), alert.SignedUSD(diff), alert.Direction(diff))
	}
	fmt.Fprintf(&b, "\n⏰ Report Time: %s", now.Format(alert.TimestampLayout))
	return b.String()
}

// comparisonLine is one asset's block in the daily comparison.
type comparisonLine struct {
	symbol    string
	today     float64
	yesterday float64 // zero when unknown
}

func dailyComparisonMessage(lines []comparisonLine, now time.Time) string {
	parts := []string{"🌅 <b>Daily Price Comparison</b>\n"}
	for _, l := range lines {
		today := decimal.NewFromFloat(l.today)
		if l.yesterday <= 0 {
			parts = append(parts, fmt.Sprintf("\n💰 <b>%s</b>\nCurrent: %s\nYesterday: No data available",
				l.symbol, alert.USD(today)))
			continue
		}
		yesterday := decimal.NewFromFloat(l.yesterday)
		diff := today.Sub(yesterday)
		parts = append(parts, fmt.Sprintf("\n💰 <b>%s</b>\nToday: %s\nYesterday: %s\nChange: <b>%s</b> (%s) %s",
			l.symbol, alert.USD(today), alert.USD(yesterday),
			alert.SignedPercent(alert.PercentChange(yesterday, today)), alert.SignedUSD(diff), alert.Direction(diff)))
	}
	parts = append(parts, "\n⏰ "+now.Format(alert.TimestampLayout))
	return strings.Join(parts, "\n")
}

// StartupMessage announces that monitoring has started.
func StartupMessage(cfg *config.Config, newsEnabled bool, now time.Time) string {
	symbols := make([]string, 0, len(cfg.Monitor.Assets))
	for _, a := range cfg.Monitor.Assets {
		symbols = append(symbols, a.Symbol)
	}
	hours := make([]string, 0, len(cfg.Monitor.DailyReportHours))
	for _, h := range cfg.Monitor.DailyReportHours {
		hours = append(hours, strconv.Itoa(h))
	}
	news := "Disabled"
	if newsEnabled {
		news = "Enabled"
	}

	var b strings.Builder
	b.WriteString("✅ <b>Crypto Monitoring Bot Started</b>\n\n")
	fmt.Fprintf(&b, "👀 Tracking: %s\n", strings.Join(symbols, ", "))
	fmt.Fprintf(&b, "🎯 Price Alert Threshold: %s%%\n", strconv.FormatFloat(cfg.Monitor.PriceChangeThreshold, 'f', -1, 64))
	fmt.Fprintf(&b, "📊 Daily Reports: %s:%02d\n", strings.Join(hours, ", "), cfg.Monitor.DailyReportMinute)
	fmt.Fprintf(&b, "📰 News Updates: %s\n", news)
	fmt.Fprintf(&b, "⏰ Started: %s", now.Format(alert.TimestampLayout))
	return b.String()
}

// StopMessage announces that monitoring has stopped.
func StopMessage() string {
	return "🛑 <b>Crypto Monitoring Bot Stopped</b>"
}
