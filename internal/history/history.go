// Package history persists the utterance log: every command the
// assistant handled, with the intent it resolved to and the response it
// gave.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Entry is one handled command.
type Entry struct {
	ID        uuid.UUID `json:"id"`
	Channel   string    `json:"channel"` // repl, http, ws, mqtt
	Command   string    `json:"command"`
	Intent    string    `json:"intent"`
	Response  string    `json:"response"`
	OK        bool      `json:"ok"`
	CreatedAt time.Time `json:"created_at"`
}

// Store manages history persistence.
type Store struct {
	db *sql.DB
}

// NewStore creates a history store using the given database path.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// NewStoreWithDB creates a history store using an existing connection.
func NewStoreWithDB(db *sql.DB) (*Store, error) {
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS history (
			id TEXT PRIMARY KEY,
			channel TEXT NOT NULL,
			command TEXT NOT NULL,
			intent TEXT NOT NULL,
			response TEXT NOT NULL,
			ok INTEGER NOT NULL,
			created_at TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_history_created ON history(created_at DESC);
		CREATE INDEX IF NOT EXISTS idx_history_intent ON history(intent);
	`)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record appends an entry, assigning its ID and timestamp.
func (s *Store) Record(ctx context.Context, e Entry) (Entry, error) {
	e.ID = uuid.New()
	e.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO history (id, channel, command, intent, response, ok, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, e.ID.String(), e.Channel, e.Command, e.Intent, e.Response, boolInt(e.OK), e.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return Entry{}, fmt.Errorf("record history: %w", err)
	}
	return e, nil
}

// Recent returns the latest n entries, newest first.
func (s *Store) Recent(ctx context.Context, n int) ([]Entry, error) {
	if n <= 0 {
		n = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, channel, command, intent, response, ok, created_at
		FROM history
		ORDER BY created_at DESC
		LIMIT ?
	`, n)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e      Entry
			id, ts string
			okInt  int
		)
		if err := rows.Scan(&id, &e.Channel, &e.Command, &e.Intent, &e.Response, &okInt, &ts); err != nil {
			return nil, err
		}
		e.ID, _ = uuid.Parse(id)
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, ts)
		e.OK = okInt != 0
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
