package handlers

import (
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/edgard/cryptowatch/internal/alert"
	"github.com/edgard/cryptowatch/internal/bot"
	"github.com/edgard/cryptowatch/internal/scheduler"
)

func welcomeMessage(threshold float64) string {
	return fmt.Sprintf("👋 <b>Crypto Monitoring Bot</b>\n\n"+
		"I send price alerts on moves of %s%% or more, daily reports and important news.\n\n%s",
		strconv.FormatFloat(threshold, 'f', -1, 64), commandList)
}

// counters are the persisted totals shown by /status.
type counters struct {
	alerts, news int64
	started      string
	lastError    string
}

func statusMessage(running bool, status scheduler.Status, c counters) string {
	state := "🔴 Stopped"
	if running {
		state = "🟢 Running"
	}

	var b strings.Builder
	b.WriteString("📊 <b>Bot Status</b>\n\n")
	fmt.Fprintf(&b, "Monitoring: %s\n", state)
	fmt.Fprintf(&b, "🚨 Alerts sent: %d\n", c.alerts)
	fmt.Fprintf(&b, "📰 News sent: %d\n", c.news)
	if c.started != "" {
		fmt.Fprintf(&b, "⏰ Started: %s\n", html.EscapeString(c.started))
	}
	if c.lastError != "" {
		fmt.Fprintf(&b, "⚠️ Last error: %s\n", html.EscapeString(c.lastError))
	}

	if len(status.Tasks) > 0 {
		b.WriteString("\n<b>Tasks</b>\n")
		for _, t := range status.Tasks {
			fmt.Fprintf(&b, "• %s: %s\n", t.Name, taskSummary(t))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func taskSummary(t scheduler.TaskStatus) string {
	switch t.Kind {
	case scheduler.KindPeriodic:
		last := "never"
		if t.LastRun != nil {
			last = t.LastRun.Format(alert.TimestampLayout)
		}
		return fmt.Sprintf("every %s, last run %s", t.Interval, last)
	case scheduler.KindDaily:
		return fmt.Sprintf("daily at %s, last run %s", t.Time, t.LastRunDate)
	case scheduler.KindHourly:
		hours := make([]string, 0, len(t.Hours))
		for _, h := range t.Hours {
			hours = append(hours, strconv.Itoa(h))
		}
		return fmt.Sprintf("at %s (:%02d), %d today", strings.Join(hours, ", "), t.Minute, t.RunsToday)
	default:
		return string(t.Kind)
	}
}

func priceMessage(prices []bot.AssetPrice) string {
	var b strings.Builder
	b.WriteString("💰 <b>Current Prices</b>\n")
	for _, p := range prices {
		switch {
		case !p.Available:
			fmt.Fprintf(&b, "\n%s: unavailable", p.Symbol)
		case p.Cached:
			fmt.Fprintf(&b, "\n%s: <b>%s</b> (cached)", p.Symbol, alert.USD(decimal.NewFromFloat(p.Price)))
		default:
			fmt.Fprintf(&b, "\n%s: <b>%s</b>", p.Symbol, alert.USD(decimal.NewFromFloat(p.Price)))
		}
	}
	return b.String()
}
