package market

import (
	"context"
	"errors"
	"log/slog"

	"github.com/edgard/cryptowatch/internal/store"
)

// PriceSource returns a spot USD price.
type PriceSource interface {
	Price(ctx context.Context, assetID string) (float64, error)
}

// Quote is a price with its provenance.
type Quote struct {
	Value  float64
	Cached bool
}

// Cached remembers the last good price per asset in the store and serves it
// when the source fails.
type Cached struct {
	source PriceSource
	state  *store.Store
	log    *slog.Logger
}

// NewCached wraps source.
func NewCached(source PriceSource, state *store.Store, log *slog.Logger) *Cached {
	if log == nil {
		log = slog.Default()
	}
	return &Cached{source: source, state: state, log: log.With("component", "price_cache")}
}

// Quote fetches a fresh price, falling back to the cached one. ok is false
// when neither is available. Failures other than rate limiting are recorded
// in last_error.
func (c *Cached) Quote(ctx context.Context, assetID string) (q Quote, ok bool) {
	price, err := c.source.Price(ctx, assetID)
	if err == nil {
		if serr := c.state.Set(ctx, store.CachedPriceKey(assetID), price); serr != nil {
			c.log.WarnContext(ctx, "Failed to cache price", "asset", assetID, "error", serr)
		}
		return Quote{Value: price}, true
	}

	if errors.Is(err, ErrRateLimited) {
		c.log.WarnContext(ctx, "Rate limited, using cached price", "asset", assetID)
	} else {
		c.log.ErrorContext(ctx, "Failed to fetch price", "asset", assetID, "error", err)
		if serr := c.state.Set(ctx, store.KeyLastError, "Price fetch error: "+err.Error()); serr != nil {
			c.log.WarnContext(ctx, "Failed to record price error", "error", serr)
		}
	}

	cached, found := c.state.Float(store.CachedPriceKey(assetID))
	if !found || cached <= 0 {
		return Quote{}, false
	}
	return Quote{Value: cached, Cached: true}, true
}
