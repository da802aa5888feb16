package news

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/edgard/cryptowatch/internal/config"
	"github.com/edgard/cryptowatch/internal/logger"
	"github.com/edgard/cryptowatch/internal/notify"
	"github.com/edgard/cryptowatch/internal/store"
)

type recorder struct {
	sent   []string
	failAt int // 1-based; 0 never fails
}

func (r *recorder) Send(_ context.Context, text string) error {
	if r.failAt > 0 && len(r.sent)+1 == r.failAt {
		return notify.ErrSend
	}
	r.sent = append(r.sent, text)
	return nil
}

func newDedup(t *testing.T, n notify.Notifier) (*Deduplicator, *store.Store) {
	t.Helper()
	st, err := store.Open(context.Background(), config.StoreConfig{Driver: "file", Path: filepath.Join(t.TempDir(), "s.json")}, logger.Discard())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return NewDeduplicator(st, n, 3, 0, logger.Discard()), st
}

var poll = []Item{
	{Title: "one", PublishedAt: "2024-05-01T10:01:00Z", SourceName: "CoinDesk", URL: "https://example.com/1"},
	{Title: "four", PublishedAt: "2024-05-01T10:04:00Z"},
	{Title: "two", PublishedAt: "2024-05-01T10:02:00Z"},
	{Title: "five", PublishedAt: "2024-05-01T10:03:30Z"},
	{Title: "three", PublishedAt: "2024-05-01T10:03:00Z"},
}

func TestProcessCapsAndAdvancesWatermark(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	d, st := newDedup(t, rec)
	ctx := context.Background()

	sent, err := d.Process(ctx, poll)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if sent != 3 || len(rec.sent) != 3 {
		t.Fatalf("sent = %d (%d recorded), want 3", sent, len(rec.sent))
	}
	for i, want := range []string{"one", "four", "two"} {
		if !strings.Contains(rec.sent[i], "<b>"+want+"</b>") {
			t.Errorf("message %d = %q, want item %q in list order", i, rec.sent[i], want)
		}
	}
	if got := st.String(store.KeyLastNewsTimestamp, ""); got != "2024-05-01T10:04:00Z" {
		t.Errorf("watermark = %q, want 2024-05-01T10:04:00Z", got)
	}
	if got := st.Int(store.KeyTotalNewsSent, 0); got != 3 {
		t.Errorf("total_news_sent = %d, want 3", got)
	}

	sent, err = d.Process(ctx, poll)
	if err != nil || sent != 0 {
		t.Errorf("second identical poll sent %d (err %v), want 0", sent, err)
	}
}

func TestProcessOnlyNewerThanWatermark(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	d, st := newDedup(t, rec)
	ctx := context.Background()
	if err := st.Set(ctx, store.KeyLastNewsTimestamp, "2024-05-01T10:02:00Z"); err != nil {
		t.Fatal(err)
	}

	sent, err := d.Process(ctx, poll)
	if err != nil {
		t.Fatal(err)
	}
	if sent != 3 {
		t.Fatalf("sent = %d, want 3 (four, five, three)", sent)
	}
	if strings.Contains(strings.Join(rec.sent, "\n"), "<b>two</b>") {
		t.Error("item at the watermark was resent")
	}
}

func TestProcessStopsOnSendFailure(t *testing.T) {
	t.Parallel()

	rec := &recorder{failAt: 2}
	d, st := newDedup(t, rec)

	sent, err := d.Process(context.Background(), poll)
	if !errors.Is(err, notify.ErrSend) {
		t.Fatalf("Process() error = %v, want ErrSend", err)
	}
	if sent != 1 {
		t.Errorf("sent = %d, want 1", sent)
	}
	if got := st.String(store.KeyLastNewsTimestamp, ""); got != "2024-05-01T10:04:00Z" {
		t.Errorf("watermark = %q, want advanced despite failure", got)
	}
}

func TestProcessEmptyPoll(t *testing.T) {
	t.Parallel()

	d, st := newDedup(t, &recorder{})
	sent, err := d.Process(context.Background(), nil)
	if err != nil || sent != 0 {
		t.Errorf("Process(nil) = %d, %v", sent, err)
	}
	if got := st.String(store.KeyLastNewsTimestamp, "x"); got != "" {
		t.Errorf("watermark = %q, want empty", got)
	}
}

func TestMessageEscapesHTML(t *testing.T) {
	t.Parallel()

	msg := Message(Item{Title: "ETH <3 & L2s", URL: "https://x.test/?a=1&b=2"})
	if !strings.Contains(msg, "ETH &lt;3 &amp; L2s") {
		t.Errorf("title not escaped: %s", msg)
	}
	if !strings.Contains(msg, "Source: Unknown") {
		t.Errorf("missing source fallback: %s", msg)
	}
}
