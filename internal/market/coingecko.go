package market

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/edgard/cryptowatch/internal/config"
)

// coinGeckoBurst lets one check cycle fetch every asset without waiting.
const coinGeckoBurst = 5

// CoinGecko is a client for the public CoinGecko price API.
type CoinGecko struct {
	client     *http.Client
	limiter    *rate.Limiter
	priceURL   string
	historyURL string
	log        *slog.Logger
}

// NewCoinGecko creates a rate-limited CoinGecko client.
func NewCoinGecko(cfg config.CoinGeckoConfig, log *slog.Logger) *CoinGecko {
	if log == nil {
		log = slog.Default()
	}
	perMinute := cfg.RequestsPerMinute
	if perMinute <= 0 {
		perMinute = config.DefaultCoinGeckoRequestsPerMinute
	}
	return &CoinGecko{
		client:     &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), coinGeckoBurst),
		priceURL:   cfg.PriceURL,
		historyURL: cfg.HistoryURL,
		log:        log.With("component", "coingecko"),
	}
}

// Price returns the current USD price of assetID.
func (c *CoinGecko) Price(ctx context.Context, assetID string) (float64, error) {
	q := url.Values{}
	q.Set("ids", assetID)
	q.Set("vs_currencies", "usd")

	var body map[string]map[string]float64
	if err := getJSON(ctx, c.client, c.limiter, c.priceURL+"?"+q.Encode(), &body); err != nil {
		return 0, fmt.Errorf("price %s: %w", assetID, err)
	}

	price, ok := body[assetID]["usd"]
	if !ok {
		return 0, fmt.Errorf("price %s: %w: no usd price in response", assetID, ErrFetch)
	}
	c.log.DebugContext(ctx, "Fetched price", "asset", assetID, "price", price)
	return price, nil
}

// History24h returns the latest price and the price 24 hours earlier, taken
// from the first and last points of the one-day market chart.
func (c *CoinGecko) History24h(ctx context.Context, assetID string) (current, dayAgo float64, err error) {
	q := url.Values{}
	q.Set("vs_currency", "usd")
	q.Set("days", "1")

	var body struct {
		Prices [][2]float64 `json:"prices"`
	}
	endpoint := fmt.Sprintf(c.historyURL, url.PathEscape(assetID)) + "?" + q.Encode()
	if err := getJSON(ctx, c.client, c.limiter, endpoint, &body); err != nil {
		return 0, 0, fmt.Errorf("history %s: %w", assetID, err)
	}
	if len(body.Prices) < 2 {
		return 0, 0, fmt.Errorf("history %s: %w: %d price points", assetID, ErrFetch, len(body.Prices))
	}

	return body.Prices[len(body.Prices)-1][1], body.Prices[0][1], nil
}
