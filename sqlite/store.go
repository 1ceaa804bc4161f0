// Package sqlite keeps a local SQLite copy of the records last fetched from the
// backend, so the console can browse and export them offline, along with the
// persisted activity feed.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/asaidimu/go-tabula/core"
	"github.com/asaidimu/go-tabula/core/activity"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"go.uber.org/zap"
)

// dbRunner abstracts the methods shared by *sql.DB and *sql.Tx so the same
// statements run inside or outside a transaction.
type dbRunner interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS snapshots (
	collection TEXT PRIMARY KEY,
	taken_at   TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS snapshot_records (
	collection TEXT    NOT NULL,
	position   INTEGER NOT NULL,
	data       TEXT    NOT NULL,
	PRIMARY KEY (collection, position)
);
CREATE TABLE IF NOT EXISTS activity (
	seq       INTEGER PRIMARY KEY AUTOINCREMENT,
	id        TEXT NOT NULL UNIQUE,
	timestamp TEXT NOT NULL,
	action    TEXT NOT NULL,
	details   TEXT NOT NULL
);`

// Snapshot is the record set saved for a collection.
type Snapshot struct {
	Collection string
	TakenAt    time.Time // zero when nothing was saved
	Records    []core.Record
}

// Empty reports whether nothing has been saved for the collection.
func (s Snapshot) Empty() bool {
	return s.TakenAt.IsZero()
}

// Store is the local snapshot database.
type Store struct {
	db            *sql.DB
	logger        *zap.Logger
	activityLimit int
	now           func() time.Time
}

var _ activity.Sink = (*Store)(nil)

// Open opens (creating if needed) the database file at path.
func Open(ctx context.Context, path string, logger *zap.Logger) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("could not create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	store, err := New(ctx, db, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// New wraps an open database and creates the tables it needs.
func New(ctx context.Context, db *sql.DB, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{
		db:            db,
		logger:        logger,
		activityLimit: activity.DefaultLimit,
		now:           func() time.Time { return time.Now().UTC() },
	}
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// withTx runs fn in a transaction, committing on success and rolling back on
// error.
func (s *Store) withTx(ctx context.Context, fn func(r dbRunner) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Error("Failed to roll back transaction", zap.Error(rbErr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// SaveSnapshot replaces everything saved for collection with records, in
// order.
func (s *Store) SaveSnapshot(ctx context.Context, collection string, records []core.Record) error {
	if collection == "" {
		return errors.New("collection name is required")
	}

	err := s.withTx(ctx, func(r dbRunner) error {
		if _, err := r.ExecContext(ctx, `DELETE FROM snapshot_records WHERE collection = ?`, collection); err != nil {
			return fmt.Errorf("failed to clear snapshot: %w", err)
		}
		for i, record := range records {
			data, err := json.Marshal(record)
			if err != nil {
				return fmt.Errorf("failed to encode record %d: %w", i, err)
			}
			if _, err := r.ExecContext(ctx,
				`INSERT INTO snapshot_records (collection, position, data) VALUES (?, ?, ?)`,
				collection, i, string(data)); err != nil {
				return fmt.Errorf("failed to insert record %d: %w", i, err)
			}
		}
		_, err := r.ExecContext(ctx,
			`INSERT INTO snapshots (collection, taken_at) VALUES (?, ?)
			 ON CONFLICT(collection) DO UPDATE SET taken_at = excluded.taken_at`,
			collection, s.now().Format(time.RFC3339Nano))
		if err != nil {
			return fmt.Errorf("failed to record snapshot time: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Debug("Snapshot saved", zap.String("collection", collection), zap.Int("records", len(records)))
	return nil
}

// LoadSnapshot returns the records saved for collection. A collection with no
// snapshot yields an empty Snapshot.
func (s *Store) LoadSnapshot(ctx context.Context, collection string) (Snapshot, error) {
	snap := Snapshot{Collection: collection, Records: []core.Record{}}

	var takenAt string
	err := s.db.QueryRowContext(ctx, `SELECT taken_at FROM snapshots WHERE collection = ?`, collection).Scan(&takenAt)
	if errors.Is(err, sql.ErrNoRows) {
		return snap, nil
	}
	if err != nil {
		return snap, fmt.Errorf("failed to read snapshot time: %w", err)
	}
	if snap.TakenAt, err = time.Parse(time.RFC3339Nano, takenAt); err != nil {
		return snap, fmt.Errorf("invalid snapshot time %q: %w", takenAt, err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT data FROM snapshot_records WHERE collection = ? ORDER BY position`, collection)
	if err != nil {
		return snap, fmt.Errorf("failed to read snapshot: %w", err)
	}
	defer rows.Close()

	snap.Records, err = readRecords(rows)
	return snap, err
}

func readRecords(rows *sql.Rows) ([]core.Record, error) {
	records := []core.Record{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		var record core.Record
		if err := json.Unmarshal([]byte(data), &record); err != nil {
			return nil, fmt.Errorf("failed to decode record: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error after scanning rows: %w", err)
	}
	return records, nil
}

// AppendActivity stores entry and drops all but the newest entries.
func (s *Store) AppendActivity(ctx context.Context, entry activity.Entry) error {
	return s.withTx(ctx, func(r dbRunner) error {
		if _, err := r.ExecContext(ctx,
			`INSERT OR IGNORE INTO activity (id, timestamp, action, details) VALUES (?, ?, ?, ?)`,
			entry.ID, entry.Timestamp.UTC().Format(time.RFC3339Nano), entry.Action, entry.Details); err != nil {
			return fmt.Errorf("failed to insert activity: %w", err)
		}
		if _, err := r.ExecContext(ctx,
			`DELETE FROM activity WHERE seq NOT IN (SELECT seq FROM activity ORDER BY seq DESC LIMIT ?)`,
			s.activityLimit); err != nil {
			return fmt.Errorf("failed to trim activity: %w", err)
		}
		return nil
	})
}

// RecentActivity returns up to limit of the newest entries, oldest first.
func (s *Store) RecentActivity(ctx context.Context, limit int) ([]activity.Entry, error) {
	if limit <= 0 {
		limit = s.activityLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, timestamp, action, details FROM
		   (SELECT seq, id, timestamp, action, details FROM activity ORDER BY seq DESC LIMIT ?)
		 ORDER BY seq`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to read activity: %w", err)
	}
	defer rows.Close()

	entries := []activity.Entry{}
	for rows.Next() {
		var (
			e  activity.Entry
			ts string
		)
		if err := rows.Scan(&e.ID, &ts, &e.Action, &e.Details); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		if e.Timestamp, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			s.logger.Warn("Invalid activity timestamp", zap.String("id", e.ID), zap.String("timestamp", ts))
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error after scanning rows: %w", err)
	}
	return entries, nil
}
