// Package datastore persists saved search results in a local SQLite file.
package datastore

import (
	"context"

	"github.com/xdearboy/bookkeeper/internal/catalog"
)

// Store defines the interface for local book storage
type Store interface {
	// Connect opens the store and makes sure its schema exists
	Connect() error

	// SaveBooks stores books found for query. A book already stored under
	// the same catalog id or title and author is replaced.
	SaveBooks(ctx context.Context, query string, books []catalog.Book) error

	// ListBooks returns saved books, oldest first. An empty query lists all.
	ListBooks(ctx context.Context, query string) ([]catalog.Book, error)

	// Close closes the connection to the data store
	Close() error
}
