// SQLite-backed document store.
//
// DESIGN: One table keyed by (type, id). The body column holds the encoded
// document; rev is duplicated into its own column so conflict checks and
// deletes do not need to decode JSON.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync/atomic"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	type TEXT NOT NULL,
	id   TEXT NOT NULL,
	rev  TEXT NOT NULL,
	body TEXT NOT NULL,
	PRIMARY KEY (type, id)
);`

// SQLiteStore is a Store backed by a SQLite database file.
type SQLiteStore struct {
	db     *sql.DB
	closed atomic.Bool
}

// OpenSQLite opens (or creates) the database at path and applies the schema.
// Use ":memory:" for a private in-memory database.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// a single connection keeps ":memory:" databases shared and serializes writers
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Save writes a document inside a transaction.
func (s *SQLiteStore) Save(ctx context.Context, doc Document) (Document, error) {
	if s.closed.Load() {
		return Document{}, ErrClosed
	}
	if doc.ID == "" {
		doc.ID = NewID()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Document{}, fmt.Errorf("begin save: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var storedRev string
	err = tx.QueryRowContext(ctx, `SELECT rev FROM documents WHERE type = ? AND id = ?`, doc.Type, doc.ID).Scan(&storedRev)
	exists := true
	if errors.Is(err, sql.ErrNoRows) {
		exists = false
	} else if err != nil {
		return Document{}, fmt.Errorf("load rev %s/%s: %w", doc.Type, doc.ID, err)
	}

	doc, err = prepare(doc, storedRev, exists)
	if err != nil {
		return Document{}, err
	}
	body, err := Encode(doc)
	if err != nil {
		return Document{}, err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO documents (type, id, rev, body) VALUES (?, ?, ?, ?)
		 ON CONFLICT (type, id) DO UPDATE SET rev = excluded.rev, body = excluded.body`,
		doc.Type, doc.ID, doc.Rev, string(body))
	if err != nil {
		return Document{}, fmt.Errorf("write %s/%s: %w", doc.Type, doc.ID, err)
	}
	if err := tx.Commit(); err != nil {
		return Document{}, fmt.Errorf("commit save: %w", err)
	}

	return Decode(body)
}

// Get retrieves a document.
func (s *SQLiteStore) Get(ctx context.Context, docType, id string) (Document, error) {
	if s.closed.Load() {
		return Document{}, ErrClosed
	}
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM documents WHERE type = ? AND id = ?`, docType, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, fmt.Errorf("%w: %s/%s", ErrNotFound, docType, id)
	}
	if err != nil {
		return Document{}, fmt.Errorf("get %s/%s: %w", docType, id, err)
	}
	return Decode([]byte(body))
}

// Find returns every document of docType ordered by id.
func (s *SQLiteStore) Find(ctx context.Context, docType string) ([]Document, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	rows, err := s.db.QueryContext(ctx, `SELECT body FROM documents WHERE type = ? ORDER BY id`, docType)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", docType, err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scan %s: %w", docType, err)
		}
		doc, err := Decode([]byte(body))
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// Delete removes a document if rev matches.
func (s *SQLiteStore) Delete(ctx context.Context, docType, id, rev string) error {
	if s.closed.Load() {
		return ErrClosed
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var storedRev string
	err = tx.QueryRowContext(ctx, `SELECT rev FROM documents WHERE type = ? AND id = ?`, docType, id).Scan(&storedRev)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s/%s", ErrNotFound, docType, id)
	}
	if err != nil {
		return fmt.Errorf("load rev %s/%s: %w", docType, id, err)
	}
	if storedRev != rev {
		return fmt.Errorf("%w: %s/%s has rev %s, got %q", ErrConflict, docType, id, storedRev, rev)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE type = ? AND id = ?`, docType, id); err != nil {
		return fmt.Errorf("delete %s/%s: %w", docType, id, err)
	}
	return tx.Commit()
}

// Close closes the database. Later calls fail with ErrClosed.
func (s *SQLiteStore) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.db.Close()
}

var _ Store = (*SQLiteStore)(nil)
