package item

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS items (
	position    INTEGER PRIMARY KEY,
	id          INTEGER NOT NULL UNIQUE,
	name        TEXT    NOT NULL,
	description TEXT
)`

// SQLiteStore keeps the collection in a single SQLite table. Row order is
// tracked explicitly so Load returns items in the order they were saved.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens (or creates) the database at dsn and ensures the schema.
func OpenSQLiteStore(ctx context.Context, dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dsn, err)
	}
	// One connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create items table: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Load returns every row in position order.
func (s *SQLiteStore) Load(ctx context.Context) ([]Item, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name, description FROM items ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	items := []Item{}
	for rows.Next() {
		var (
			it   Item
			desc sql.NullString
		)
		if err := rows.Scan(&it.ID, &it.Name, &desc); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		if desc.Valid {
			value := desc.String
			it.Description = &value
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items: %w", err)
	}
	return items, nil
}

// Save replaces the table contents inside one transaction.
func (s *SQLiteStore) Save(ctx context.Context, items []Item) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM items"); err != nil {
		return fmt.Errorf("clear items: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO items (position, id, name, description) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, it := range items {
		var desc sql.NullString
		if it.Description != nil {
			desc = sql.NullString{String: *it.Description, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, i, it.ID, it.Name, desc); err != nil {
			return fmt.Errorf("insert item %d: %w", it.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit items: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
