package tasks

import (
	"context"

	"github.com/edgard/cryptowatch/internal/scheduler"
	"github.com/edgard/cryptowatch/internal/store"
)

// newNewsTask polls the news provider and forwards unseen headlines.
// A failed poll is recorded and treated as handled; the next interval polls again.
func newNewsTask(deps TaskDeps) scheduler.RunFunc {
	log := deps.Logger.With("task", TaskNewsUpdates)

	return func(ctx context.Context) error {
		items, err := deps.News.FetchRecent(ctx)
		if err != nil {
			log.ErrorContext(ctx, "Failed to fetch news", "error", err)
			if serr := deps.Store.Set(ctx, store.KeyLastError, "News fetch error: "+err.Error()); serr != nil {
				log.WarnContext(ctx, "Failed to record news error", "error", serr)
			}
			return nil
		}

		sent, err := deps.Dedup.Process(ctx, items)
		if sent > 0 {
			log.InfoContext(ctx, "Forwarded news", "sent", sent, "polled", len(items))
		}
		return err
	}
}
