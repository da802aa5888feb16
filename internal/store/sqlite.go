package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/edgard/cryptowatch/internal/database"
)

// sqliteBackend stores one row per key with the value JSON-encoded.
type sqliteBackend struct {
	db  *sqlx.DB
	log *slog.Logger
}

type stateRow struct {
	Key   string `db:"key"`
	Value string `db:"value"`
}

const upsertStateSQL = `
INSERT INTO state (key, value, updated_at) VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`

func newSQLiteBackend(path string, log *slog.Logger) (*sqliteBackend, error) {
	db, err := database.NewDB(path, log)
	if err != nil {
		return nil, err
	}
	return &sqliteBackend{db: db, log: log}, nil
}

func (s *sqliteBackend) Load(ctx context.Context) (map[string]any, error) {
	var rows []stateRow
	if err := s.db.SelectContext(ctx, &rows, "SELECT key, value FROM state"); err != nil {
		return nil, fmt.Errorf("select state: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	record := make(map[string]any, len(rows))
	for _, row := range rows {
		var v any
		dec := json.NewDecoder(bytes.NewReader([]byte(row.Value)))
		dec.UseNumber()
		if err := dec.Decode(&v); err != nil {
			return nil, fmt.Errorf("decode state key %q: %w", row.Key, err)
		}
		record[row.Key] = v
	}
	return record, nil
}

func (s *sqliteBackend) Save(ctx context.Context, record map[string]any) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stmt, err := tx.PreparexContext(ctx, upsertStateSQL)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for key, value := range record {
		encoded, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("encode state key %q: %w", key, err)
		}
		if _, err := stmt.ExecContext(ctx, key, string(encoded), now); err != nil {
			return fmt.Errorf("upsert state key %q: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit state: %w", err)
	}
	return nil
}

func (s *sqliteBackend) Close() error {
	database.CloseDB(s.db, s.log)
	return nil
}
