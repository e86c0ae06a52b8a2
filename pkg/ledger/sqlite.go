package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS player_totals (
	name         TEXT PRIMARY KEY,
	position     INTEGER NOT NULL,
	appearances  INTEGER NOT NULL CHECK (appearances >= 1),
	goals        INTEGER NOT NULL DEFAULT 0,
	assists      INTEGER NOT NULL DEFAULT 0,
	rating_total REAL    NOT NULL DEFAULT 0
);`

// SQLiteStore keeps the ledger in a local SQLite file.
type SQLiteStore struct {
	DB *sql.DB
}

// OpenSQLiteStore opens (and creates) the database file at path.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure data dir: %w", err)
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pragma journal_mode: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return &SQLiteStore{DB: db}, nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.DB.Close()
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	if _, err := s.DB.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("create player_totals: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Load(ctx context.Context) (*Ledger, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT name, appearances, goals, assists, rating_total
		FROM player_totals
		ORDER BY position, name
	`)
	if err != nil {
		return nil, fmt.Errorf("query player_totals: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Name, &e.Appearances, &e.Goals, &e.Assists, &e.RatingTotal); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptRow, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate player_totals: %w", err)
	}
	return FromEntries(entries), nil
}

// Save replaces the table contents inside one transaction.
func (s *SQLiteStore) Save(ctx context.Context, l *Ledger) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM player_totals`); err != nil {
		return fmt.Errorf("clear player_totals: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO player_totals (name, position, appearances, goals, assists, rating_total)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, e := range l.Entries() {
		if _, err := stmt.ExecContext(ctx, e.Name, i, e.Appearances, e.Goals, e.Assists, e.RatingTotal); err != nil {
			return fmt.Errorf("insert %q: %w", e.Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
