package market

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/edgard/cryptowatch/internal/config"
	"github.com/edgard/cryptowatch/internal/news"
)

// CryptoPanic is a client for the CryptoPanic posts API.
type CryptoPanic struct {
	client     *http.Client
	endpoint   string
	apiKey     string
	currencies string
	filter     string
	log        *slog.Logger
}

// NewCryptoPanic creates a CryptoPanic client.
func NewCryptoPanic(cfg config.CryptoPanicConfig, log *slog.Logger) *CryptoPanic {
	if log == nil {
		log = slog.Default()
	}
	return &CryptoPanic{
		client:     &http.Client{Timeout: cfg.Timeout},
		endpoint:   cfg.URL,
		apiKey:     cfg.APIKey,
		currencies: cfg.Currencies,
		filter:     cfg.Filter,
		log:        log.With("component", "cryptopanic"),
	}
}

type cryptoPanicPost struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	PublishedAt string `json:"published_at"`
	Source      struct {
		Title string `json:"title"`
	} `json:"source"`
}

// FetchRecent returns the latest posts in provider order.
func (c *CryptoPanic) FetchRecent(ctx context.Context) ([]news.Item, error) {
	q := url.Values{}
	q.Set("auth_token", c.apiKey)
	q.Set("public", "true")
	if c.currencies != "" {
		q.Set("currencies", c.currencies)
	}
	if c.filter != "" {
		q.Set("filter", c.filter)
	}

	var body struct {
		Results []cryptoPanicPost `json:"results"`
	}
	if err := getJSON(ctx, c.client, nil, c.endpoint+"?"+q.Encode(), &body); err != nil {
		return nil, fmt.Errorf("news: %w", err)
	}

	items := make([]news.Item, 0, len(body.Results))
	for _, p := range body.Results {
		items = append(items, news.Item{
			Title:       p.Title,
			URL:         p.URL,
			SourceName:  p.Source.Title,
			PublishedAt: p.PublishedAt,
		})
	}
	c.log.DebugContext(ctx, "Fetched news", "items", len(items))
	return items, nil
}
