package datastore

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/xdearboy/bookkeeper/internal/catalog"
)

const booksSchema = `CREATE TABLE IF NOT EXISTS books (
	id TEXT PRIMARY KEY,
	catalog_id TEXT UNIQUE,
	title TEXT NOT NULL,
	author TEXT NOT NULL,
	description TEXT,
	genre TEXT,
	cover_image_url TEXT,
	publisher TEXT,
	published_at INTEGER,
	page_count INTEGER,
	isbn TEXT,
	language TEXT,
	source_is_remote INTEGER NOT NULL DEFAULT 0,
	query TEXT NOT NULL,
	saved_at INTEGER NOT NULL,
	UNIQUE (title, author)
)`

const insertBook = `INSERT OR REPLACE INTO books (
	id, catalog_id, title, author, description, genre, cover_image_url,
	publisher, published_at, page_count, isbn, language, source_is_remote,
	query, saved_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const selectBooks = `SELECT
	id, catalog_id, title, author, description, genre, cover_image_url,
	publisher, published_at, page_count, isbn, language, source_is_remote
FROM books`

// SQLiteStore implements the Store interface for local SQLite storage
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
	now    func() time.Time
}

// NewSQLiteStore creates a new SQLiteStore instance
func NewSQLiteStore(dbPath string) *SQLiteStore {
	return &SQLiteStore{
		dbPath: dbPath,
		now:    time.Now,
	}
}

// Connect opens the SQLite database and creates the books table.
func (s *SQLiteStore) Connect() error {
	db, err := sql.Open("sqlite", s.dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := db.Exec(booksSchema); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to create books table: %w", err)
	}
	s.db = db
	return nil
}

// SaveBooks writes all books in a single transaction.
func (s *SQLiteStore) SaveBooks(ctx context.Context, query string, books []catalog.Book) error {
	if len(books) == 0 {
		return nil
	}
	if s.db == nil {
		return fmt.Errorf("datastore is not connected")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		// no-op once committed
		_ = tx.Rollback()
	}()

	stmt, err := tx.PrepareContext(ctx, insertBook)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	savedAt := s.now().UnixMilli()
	for _, b := range books {
		var publishedAt sql.NullInt64
		if millis, ok := b.PublishDateMillis(); ok {
			publishedAt = sql.NullInt64{Int64: millis, Valid: true}
		}
		var pageCount sql.NullInt64
		if b.PageCount != nil {
			pageCount = sql.NullInt64{Int64: int64(*b.PageCount), Valid: true}
		}

		_, err := stmt.ExecContext(ctx,
			b.ID, nullString(b.CatalogID), b.Title, b.Author, b.Description, b.Genre,
			b.CoverImageURL, b.Publisher, publishedAt, pageCount, b.ISBN, b.Language,
			b.SourceIsRemote, query, savedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert book %q: %w", b.Title, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	slog.Debug("Saved books", "query", query, "count", len(books), "db", s.dbPath)
	return nil
}

// ListBooks returns saved books in save order.
func (s *SQLiteStore) ListBooks(ctx context.Context, query string) ([]catalog.Book, error) {
	if s.db == nil {
		return nil, fmt.Errorf("datastore is not connected")
	}

	stmt := selectBooks + " ORDER BY saved_at, rowid"
	args := []any{}
	if query != "" {
		stmt = selectBooks + " WHERE query = ? ORDER BY saved_at, rowid"
		args = append(args, query)
	}

	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query books: %w", err)
	}
	defer func() { _ = rows.Close() }()

	books := []catalog.Book{}
	for rows.Next() {
		var (
			b           catalog.Book
			catalogID   sql.NullString
			description sql.NullString
			genre       sql.NullString
			cover       sql.NullString
			publisher   sql.NullString
			publishedAt sql.NullInt64
			pageCount   sql.NullInt64
			isbn        sql.NullString
			language    sql.NullString
		)
		if err := rows.Scan(&b.ID, &catalogID, &b.Title, &b.Author, &description, &genre,
			&cover, &publisher, &publishedAt, &pageCount, &isbn, &language, &b.SourceIsRemote); err != nil {
			return nil, fmt.Errorf("failed to scan book: %w", err)
		}

		b.CatalogID = catalogID.String
		b.Description = description.String
		b.Genre = genre.String
		b.CoverImageURL = cover.String
		b.Publisher = publisher.String
		b.ISBN = isbn.String
		b.Language = language.String
		if publishedAt.Valid {
			t := time.UnixMilli(publishedAt.Int64).UTC()
			b.PublishedAt = &t
		}
		if pageCount.Valid {
			pages := int(pageCount.Int64)
			b.PageCount = &pages
		}
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read books: %w", err)
	}
	return books, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
