// Package market fetches prices from CoinGecko and headlines from CryptoPanic.
package market

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/time/rate"
)

var (
	// ErrFetch wraps every provider failure.
	ErrFetch = errors.New("market data fetch failed")
	// ErrRateLimited marks an HTTP 429 from a provider. It also matches ErrFetch.
	ErrRateLimited = errors.New("rate limited by provider")
)

// maxBodyBytes caps how much of a provider response is read.
const maxBodyBytes = 4 << 20

// getJSON waits on limiter, performs a GET and decodes a 200 response into out.
func getJSON(ctx context.Context, client *http.Client, limiter *rate.Limiter, url string, out any) error {
	if limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%w: rate limiter: %w", ErrFetch, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("%w: build request: %w", ErrFetch, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFetch, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return fmt.Errorf("%w: %w", ErrRateLimited, ErrFetch)
	case resp.StatusCode != http.StatusOK:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("%w: unexpected status %d: %s", ErrFetch, resp.StatusCode, snippet)
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %w", ErrFetch, err)
	}
	return nil
}
