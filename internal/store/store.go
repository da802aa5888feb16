// Package store persists the bot's flat key/value state record.
//
// The whole record lives in memory and is written through to the backend on
// every mutation, so the backend always holds the latest successful state.
// Readers tolerate missing keys (callers pass a default) and unknown keys are
// carried through every rewrite untouched. Numbers are held as int64 when
// integral and float64 otherwise, whether set in this process or loaded back
// from the backend.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/edgard/cryptowatch/internal/config"
)

// ErrPersistence wraps any failure to write the record to its backend.
var ErrPersistence = errors.New("persistence error")

// backend loads and saves the complete record. Load returns a nil map when
// nothing has been stored yet.
type backend interface {
	Load(ctx context.Context) (map[string]any, error)
	Save(ctx context.Context, record map[string]any) error
	Close() error
}

// Store is the in-memory record plus its write-through backend.
// It is safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	data    map[string]any
	backend backend
	log     *slog.Logger
}

// Open builds the configured backend and loads the existing record.
// A record that cannot be read or parsed is logged and replaced by defaults;
// only a backend that cannot be opened at all is an error.
func Open(ctx context.Context, cfg config.StoreConfig, log *slog.Logger) (*Store, error) {
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "store", "driver", cfg.Driver)

	var (
		b   backend
		err error
	)
	switch cfg.Driver {
	case "file":
		b = newFileBackend(cfg.Path)
	case "sqlite":
		b, err = newSQLiteBackend(cfg.Path, log)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}

	return open(ctx, b, log, time.Now()), nil
}

func open(ctx context.Context, b backend, log *slog.Logger, now time.Time) *Store {
	data, err := b.Load(ctx)
	switch {
	case err != nil:
		log.Warn("Failed to load state, starting from defaults", "error", err)
		data = defaultRecord(now)
	case data == nil:
		log.Info("No saved state found, starting from defaults")
		data = defaultRecord(now)
	default:
		log.Info("State loaded", "keys", len(data))
		for k, v := range data {
			data[k] = normalize(v)
		}
	}

	return &Store{data: data, backend: b, log: log}
}

// defaultRecord is the record used when no usable state exists.
func defaultRecord(now time.Time) map[string]any {
	return map[string]any{
		KeyLastNewsTimestamp: "",
		KeyLastDailyReport:   "",
		KeyTotalAlertsSent:   int64(0),
		KeyTotalNewsSent:     int64(0),
		KeyLastError:         "",
		KeyBotStartTime:      now.Format(time.RFC3339),
	}
}

// Close releases the backend.
func (s *Store) Close() error {
	return s.backend.Close()
}

// Get returns the raw value of key, or def when the key is absent.
func (s *Store) Get(key string, def any) any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	if !ok {
		return def
	}
	return v
}

// Has reports whether key holds a non-null value.
func (s *Store) Has(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	return ok && v != nil
}

// String returns key as a string, or def when absent or not a string.
func (s *Store) String(key, def string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.data[key].(string); ok {
		return v
	}
	return def
}

// Float returns key as a float64. The boolean is false when the key is
// absent, null or not numeric.
func (s *Store) Float(key string) (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return toFloat(s.data[key])
}

// Int returns key as an int64, or def when absent or not numeric.
func (s *Store) Int(key string, def int64) int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return toInt(s.data[key], def)
}

// Snapshot returns a copy of the whole record.
func (s *Store) Snapshot() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.data)
}

// Set stores value under key and writes the record through.
func (s *Store) Set(ctx context.Context, key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = normalize(value)
	return s.flushLocked(ctx)
}

// Update stores every entry of values and writes the record through once.
func (s *Store) Update(ctx context.Context, values map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range values {
		s.data[k] = normalize(v)
	}
	return s.flushLocked(ctx)
}

// Increment adds amount to the integer at key, treating a missing key as 0.
func (s *Store) Increment(ctx context.Context, key string, amount int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = toInt(s.data[key], 0) + amount
	return s.flushLocked(ctx)
}

// flushLocked writes the record. On failure the in-memory record keeps the
// new values and last_error describes the failure; the next successful
// write persists both.
func (s *Store) flushLocked(ctx context.Context) error {
	if err := s.backend.Save(ctx, maps.Clone(s.data)); err != nil {
		s.log.Error("Failed to persist state", "error", err)
		s.data[KeyLastError] = "persistence: " + err.Error()
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return nil
}

// normalize converts numbers to int64 when integral and float64 otherwise.
// Maps and slices are copied with their elements converted.
func normalize(v any) any {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i
		}
		if f, err := n.Float64(); err == nil {
			return normalize(f)
		}
		return n.String()
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case float32:
		return normalize(float64(n))
	case float64:
		if n == math.Trunc(n) && math.Abs(n) < 1<<53 {
			return int64(n)
		}
		return n
	case map[string]any:
		out := make(map[string]any, len(n))
		for k, e := range n {
			out[k] = normalize(e)
		}
		return out
	case []any:
		out := make([]any, len(n))
		for i, e := range n {
			out[i] = normalize(e)
		}
		return out
	default:
		return v
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func toInt(v any, def int64) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i
		}
		if f, err := n.Float64(); err == nil {
			return int64(f)
		}
		return def
	default:
		return def
	}
}
