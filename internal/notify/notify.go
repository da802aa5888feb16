// Package notify defines the outbound message channel used by task bodies.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/edgard/cryptowatch/internal/store"
)

// ErrSend wraps any failure to deliver a notification.
var ErrSend = errors.New("notification send failed")

// Notifier delivers one formatted message to the configured recipient.
type Notifier interface {
	Send(ctx context.Context, text string) error
}

// Func adapts a plain function to Notifier.
type Func func(ctx context.Context, text string) error

// Send calls f.
func (f Func) Send(ctx context.Context, text string) error { return f(ctx, text) }

// Reporting wraps a Notifier so every failure is logged, recorded as
// last_error and returned wrapping ErrSend.
type Reporting struct {
	next  Notifier
	state *store.Store
	log   *slog.Logger
}

// NewReporting decorates next.
func NewReporting(next Notifier, state *store.Store, log *slog.Logger) *Reporting {
	if log == nil {
		log = slog.Default()
	}
	return &Reporting{next: next, state: state, log: log.With("component", "notifier")}
}

// Send delivers text through the wrapped notifier.
func (r *Reporting) Send(ctx context.Context, text string) error {
	if err := r.next.Send(ctx, text); err != nil {
		r.log.ErrorContext(ctx, "Failed to send notification", "error", err)
		if r.state != nil {
			if serr := r.state.Set(ctx, store.KeyLastError, "telegram: "+err.Error()); serr != nil {
				r.log.WarnContext(ctx, "Failed to record notification error", "error", serr)
			}
		}
		if errors.Is(err, ErrSend) {
			return err
		}
		return fmt.Errorf("%w: %w", ErrSend, err)
	}
	return nil
}
