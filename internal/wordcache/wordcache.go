// Package wordcache is a local sqlite cache of extracted vocabulary. Words
// are unique per book, so re-running extraction over overlapping topics
// never produces duplicate enrichment work.
package wordcache

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Cache stores extracted words keyed by (book, word).
type Cache struct {
	db *sql.DB
}

// Open opens (and initializes) the cache database at path.
func Open(path string) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS words (
		book_id    TEXT NOT NULL,
		word       TEXT NOT NULL,
		topic_id   TEXT,
		created_at TEXT NOT NULL,
		PRIMARY KEY (book_id, word)
	) WITHOUT ROWID;
	`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Cache{db: db}, nil
}

// Close closes the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Entry is one cached word.
type Entry struct {
	BookID    string
	Word      string
	TopicID   string
	CreatedAt string
}

// Put records a word for a book. The first topic to contribute a word wins;
// later puts of the same (book, word) are ignored.
func (c *Cache) Put(ctx context.Context, bookID, word, topicID string) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO words (book_id, word, topic_id, created_at) VALUES (?, ?, ?, ?)`,
		bookID, word, topicID, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("cache put %q: %w", word, err)
	}
	return nil
}

// Has reports whether the word is already cached for the book.
func (c *Cache) Has(ctx context.Context, bookID, word string) (bool, error) {
	var one int
	err := c.db.QueryRowContext(ctx,
		`SELECT 1 FROM words WHERE book_id = ? AND word = ?`, bookID, word).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache lookup %q: %w", word, err)
	}
	return true, nil
}

// Words lists all cached words for a book, ordered alphabetically.
func (c *Cache) Words(ctx context.Context, bookID string) ([]Entry, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT book_id, word, topic_id, created_at FROM words WHERE book_id = ? ORDER BY word`,
		bookID)
	if err != nil {
		return nil, fmt.Errorf("cache list: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var topicID sql.NullString
		if err := rows.Scan(&e.BookID, &e.Word, &topicID, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.TopicID = topicID.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Count returns the number of cached words for a book.
func (c *Cache) Count(ctx context.Context, bookID string) (int, error) {
	var n int
	err := c.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM words WHERE book_id = ?`, bookID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("cache count: %w", err)
	}
	return n, nil
}
