package journal

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Entry is one recorded connection state change.
type Entry struct {
	ID        uuid.UUID
	Display   string
	TaskID    uuid.UUID
	Address   string
	Direction string
	Kind      string
	Previous  string
	Current   string
	Retries   int
	Error     string
	At        time.Time
}

// Store is the SQLite connection journal.
type Store struct {
	db *sql.DB
}

// Open creates or opens the journal database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to journal: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply journal schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Append inserts e. A zero ID is replaced with a fresh one.
func (s *Store) Append(ctx context.Context, e Entry) (uuid.UUID, error) {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO connection_events
			(id, display, task_id, address, direction, kind, previous, current, retries, error, at_unix_ns)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID.String(), e.Display, e.TaskID.String(), e.Address, e.Direction, e.Kind,
		e.Previous, e.Current, e.Retries, e.Error, e.At.UnixNano(),
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("append journal entry: %w", err)
	}
	return e.ID, nil
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, display, task_id, address, direction, kind, previous, current, retries, error, at_unix_ns
		FROM connection_events
		ORDER BY at_unix_ns DESC, rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e          Entry
			id, taskID string
			at         int64
		)
		if err := rows.Scan(&id, &e.Display, &taskID, &e.Address, &e.Direction, &e.Kind,
			&e.Previous, &e.Current, &e.Retries, &e.Error, &at); err != nil {
			return nil, fmt.Errorf("scan journal entry: %w", err)
		}
		if e.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("journal entry id %q: %w", id, err)
		}
		if e.TaskID, err = uuid.Parse(taskID); err != nil {
			return nil, fmt.Errorf("journal task id %q: %w", taskID, err)
		}
		e.At = time.Unix(0, at)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Count returns the number of entries.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM connection_events`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count journal entries: %w", err)
	}
	return n, nil
}

// Prune deletes the oldest entries so that at most keep remain, and returns
// how many were deleted.
func (s *Store) Prune(ctx context.Context, keep int64) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM connection_events
		WHERE rowid NOT IN (
			SELECT rowid FROM connection_events
			ORDER BY at_unix_ns DESC, rowid DESC
			LIMIT ?
		)`, keep)
	if err != nil {
		return 0, fmt.Errorf("prune journal: %w", err)
	}
	return res.RowsAffected()
}
