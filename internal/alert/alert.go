// Package alert detects significant price moves between consecutive checks.
//
// The baseline for an asset is always the price seen at the previous check,
// not the price at the previous alert. A slow drift in one direction made of
// sub-threshold steps therefore never fires.
package alert

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"

	"github.com/edgard/cryptowatch/internal/config"
	"github.com/edgard/cryptowatch/internal/notify"
	"github.com/edgard/cryptowatch/internal/store"
)

// Result describes one evaluation.
type Result struct {
	Asset       string
	Current     decimal.Decimal
	Previous    decimal.Decimal
	HasBaseline bool
	Change      decimal.Decimal
	ChangePct   decimal.Decimal
	Fired       bool
}

// Evaluator compares fresh prices against the stored baseline.
type Evaluator struct {
	state     *store.Store
	notifier  notify.Notifier
	threshold decimal.Decimal
	clock     clockwork.Clock
	log       *slog.Logger
}

// NewEvaluator creates an Evaluator that fires at |change| >= thresholdPct percent.
func NewEvaluator(state *store.Store, notifier notify.Notifier, thresholdPct float64, clock clockwork.Clock, log *slog.Logger) *Evaluator {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Evaluator{
		state:     state,
		notifier:  notifier,
		threshold: decimal.NewFromFloat(thresholdPct),
		clock:     clock,
		log:       log.With("component", "alert"),
	}
}

// Evaluate compares current with the stored price for asset and then makes
// current the new baseline. No baseline, or a non-positive one, never fires.
func (e *Evaluator) Evaluate(ctx context.Context, asset string, current float64) Result {
	key := store.LastPriceKey(asset)
	res := Result{Asset: asset, Current: decimal.NewFromFloat(current)}

	if last, ok := e.state.Float(key); ok && last > 0 {
		res.HasBaseline = true
		res.Previous = decimal.NewFromFloat(last)
		res.Change = res.Current.Sub(res.Previous)
		res.ChangePct = PercentChange(res.Previous, res.Current)
		res.Fired = res.ChangePct.Abs().GreaterThanOrEqual(e.threshold)
	}

	if err := e.state.Set(ctx, key, current); err != nil {
		e.log.WarnContext(ctx, "Failed to store price baseline", "asset", asset, "error", err)
	}
	return res
}

// Check evaluates current and, when the move crosses the threshold, sends an
// alert and bumps total_alerts_sent. The returned error is non-nil only when
// the alert could not be delivered.
func (e *Evaluator) Check(ctx context.Context, asset config.Asset, current float64) (Result, error) {
	res := e.Evaluate(ctx, asset.ID, current)
	e.log.DebugContext(ctx, "Price checked", "asset", asset.ID, "price", current, "change_pct", res.ChangePct.StringFixed(2))
	if !res.Fired {
		return res, nil
	}

	if err := e.notifier.Send(ctx, e.message(asset.Symbol, res)); err != nil {
		return res, fmt.Errorf("send %s alert: %w", asset.Symbol, err)
	}
	if err := e.state.Increment(ctx, store.KeyTotalAlertsSent, 1); err != nil {
		e.log.WarnContext(ctx, "Failed to count alert", "error", err)
	}
	e.log.InfoContext(ctx, "Price alert sent", "asset", asset.ID, "change_pct", res.ChangePct.StringFixed(2))
	return res, nil
}

func (e *Evaluator) message(symbol string, res Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s <b>%s Price Alert</b>\n\n", Direction(res.Change), symbol)
	fmt.Fprintf(&b, "💰 Current Price: <b>%s</b>\n", USD(res.Current))
	fmt.Fprintf(&b, "📊 Change: <b>%s</b> (%s)\n", SignedPercent(res.ChangePct), SignedUSD(res.Change))
	fmt.Fprintf(&b, "⏰ Time: %s", e.clock.Now().Format(TimestampLayout))
	return b.String()
}
