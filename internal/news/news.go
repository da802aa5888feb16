// Package news forwards fresh headlines while suppressing ones already seen.
//
// Seen-ness is tracked with a single watermark, last_news_timestamp: the
// greatest publish timestamp observed in any poll. Provider timestamps are
// ISO-8601 strings and are compared as strings.
package news

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"time"

	"github.com/edgard/cryptowatch/internal/notify"
	"github.com/edgard/cryptowatch/internal/store"
)

// Item is one headline from the news provider.
type Item struct {
	Title       string
	URL         string
	SourceName  string
	PublishedAt string
}

// Deduplicator filters polled items against the watermark and sends the new ones.
type Deduplicator struct {
	state    *store.Store
	notifier notify.Notifier
	cap      int
	sendGap  time.Duration
	log      *slog.Logger
}

// NewDeduplicator creates a Deduplicator that sends at most maxPerPoll items
// per poll, pausing sendGap after each successful send.
func NewDeduplicator(state *store.Store, notifier notify.Notifier, maxPerPoll int, sendGap time.Duration, log *slog.Logger) *Deduplicator {
	if log == nil {
		log = slog.Default()
	}
	if maxPerPoll <= 0 {
		maxPerPoll = 3
	}
	return &Deduplicator{
		state:    state,
		notifier: notifier,
		cap:      maxPerPoll,
		sendGap:  sendGap,
		log:      log.With("component", "news"),
	}
}

// Process handles one poll. The watermark advances to the newest timestamp in
// items before anything is sent, so items beyond the cap are never sent later.
// It returns how many items were delivered and the first send error, if any;
// sending stops at the first failure.
func (d *Deduplicator) Process(ctx context.Context, items []Item) (int, error) {
	watermark := d.state.String(store.KeyLastNewsTimestamp, "")

	latest := watermark
	fresh := make([]Item, 0, len(items))
	for _, it := range items {
		if it.PublishedAt > watermark {
			fresh = append(fresh, it)
			if it.PublishedAt > latest {
				latest = it.PublishedAt
			}
		}
	}

	if err := d.state.Set(ctx, store.KeyLastNewsTimestamp, latest); err != nil {
		d.log.WarnContext(ctx, "Failed to store news watermark", "error", err)
	}

	if len(fresh) == 0 {
		d.log.DebugContext(ctx, "No new news items", "polled", len(items))
		return 0, nil
	}
	if len(fresh) > d.cap {
		d.log.InfoContext(ctx, "Dropping news items over the per-poll cap", "new", len(fresh), "cap", d.cap)
		fresh = fresh[:d.cap]
	}

	sent := 0
	for i, it := range fresh {
		if err := d.notifier.Send(ctx, Message(it)); err != nil {
			return sent, fmt.Errorf("send news item: %w", err)
		}
		sent++
		if err := d.state.Increment(ctx, store.KeyTotalNewsSent, 1); err != nil {
			d.log.WarnContext(ctx, "Failed to count news item", "error", err)
		}
		d.log.InfoContext(ctx, "News sent", "title", truncate(it.Title, 50))

		if i < len(fresh)-1 && d.sendGap > 0 {
			if err := sleep(ctx, d.sendGap); err != nil {
				return sent, err
			}
		}
	}
	return sent, nil
}

// Message renders item as a Telegram HTML message.
func Message(it Item) string {
	title := it.Title
	if title == "" {
		title = "No title"
	}
	source := it.SourceName
	if source == "" {
		source = "Unknown"
	}
	return fmt.Sprintf("📰 <b>Crypto News</b>\n\n📄 <b>%s</b>\n🏢 Source: %s\n🔗 %s",
		html.EscapeString(title), html.EscapeString(source), html.EscapeString(it.URL))
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n])) + "..."
}
