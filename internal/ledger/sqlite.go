// Soapbox - Story Rotation Bridge for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soapbox

package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tomtom215/soapbox/internal/models"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS story_ledger (
  story_id   TEXT PRIMARY KEY,
  cycle_key  TEXT NOT NULL,
  ref_type   TEXT,
  ref_id     TEXT,
  updated_at INTEGER NOT NULL
);`

// SQLiteLedger stores one row per story in story_ledger.
type SQLiteLedger struct {
	db *sql.DB

	mu     sync.RWMutex
	closed bool
}

// OpenSQLite opens (or creates) the database file at path.
func OpenSQLite(path string) (*SQLiteLedger, error) {
	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite ledger: %w", err)
	}
	// Writers are serialised through one connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create story_ledger: %w", err)
	}
	return &SQLiteLedger{db: db}, nil
}

func (s *SQLiteLedger) checkOpen() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return nil
}

func (s *SQLiteLedger) Get(ctx context.Context, storyID string) (*models.LedgerEntry, error) {
	if err := validID(storyID); err != nil {
		return nil, err
	}
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT cycle_key, ref_type, ref_id, updated_at FROM story_ledger WHERE story_id = ?`, storyID)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", storyID, err)
	}
	return e, nil
}

func (s *SQLiteLedger) Set(ctx context.Context, storyID string, entry models.LedgerEntry) error {
	if err := validID(storyID); err != nil {
		return err
	}
	if err := s.checkOpen(); err != nil {
		return err
	}

	var refType, refID sql.NullString
	if entry.Ref != nil {
		refType = sql.NullString{String: string(entry.Ref.Type), Valid: true}
		refID = sql.NullString{String: entry.Ref.ID, Valid: true}
	}
	updated := entry.UpdatedAt
	if updated.IsZero() {
		updated = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO story_ledger (story_id, cycle_key, ref_type, ref_id, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(story_id) DO UPDATE SET
		  cycle_key = excluded.cycle_key,
		  ref_type = excluded.ref_type,
		  ref_id = excluded.ref_id,
		  updated_at = excluded.updated_at`,
		storyID, entry.CycleKey, refType, refID, updated.UnixMilli())
	if err != nil {
		return fmt.Errorf("set %s: %w", storyID, err)
	}
	return nil
}

func (s *SQLiteLedger) Delete(ctx context.Context, storyID string) error {
	if err := validID(storyID); err != nil {
		return err
	}
	if err := s.checkOpen(); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM story_ledger WHERE story_id = ?`, storyID); err != nil {
		return fmt.Errorf("delete %s: %w", storyID, err)
	}
	return nil
}

func (s *SQLiteLedger) Clear(ctx context.Context) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM story_ledger`); err != nil {
		return fmt.Errorf("clear ledger: %w", err)
	}
	return nil
}

func (s *SQLiteLedger) All(ctx context.Context) (map[string]models.LedgerEntry, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT story_id, cycle_key, ref_type, ref_id, updated_at FROM story_ledger ORDER BY story_id`)
	if err != nil {
		return nil, fmt.Errorf("query ledger: %w", err)
	}
	defer rows.Close()

	out := make(map[string]models.LedgerEntry)
	for rows.Next() {
		var (
			storyID, cycleKey string
			refType, refID    sql.NullString
			updated           int64
		)
		if err := rows.Scan(&storyID, &cycleKey, &refType, &refID, &updated); err != nil {
			return nil, fmt.Errorf("scan ledger row: %w", err)
		}
		out[storyID] = buildEntry(cycleKey, refType, refID, updated)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ledger: %w", err)
	}
	return out, nil
}

func (s *SQLiteLedger) Backend() string { return "sqlite" }

func (s *SQLiteLedger) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func scanEntry(row *sql.Row) (*models.LedgerEntry, error) {
	var (
		cycleKey       string
		refType, refID sql.NullString
		updated        int64
	)
	if err := row.Scan(&cycleKey, &refType, &refID, &updated); err != nil {
		return nil, err
	}
	e := buildEntry(cycleKey, refType, refID, updated)
	return &e, nil
}

func buildEntry(cycleKey string, refType, refID sql.NullString, updated int64) models.LedgerEntry {
	e := models.LedgerEntry{
		CycleKey:  cycleKey,
		UpdatedAt: time.UnixMilli(updated).UTC(),
	}
	if refID.Valid && refID.String != "" {
		e.Ref = &models.PlatformRef{Type: models.RefType(refType.String), ID: refID.String}
	}
	return e
}
