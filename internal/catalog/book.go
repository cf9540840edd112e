// Package catalog defines the Book record shared by the search engine, its
// remote client and every export target.
package catalog

import (
	"fmt"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	// UnknownAuthor is used when the source lists no contributors.
	UnknownAuthor = "Unknown Author"
	// DefaultGenre is used when the source lists no categories.
	DefaultGenre = "General"

	idPrefix = "book"
)

// Book is a single catalog record.
// Optional fields use their zero value (or nil) for "not provided".
type Book struct {
	// ID is generated locally and is never the catalog's own identifier.
	ID string `json:"id"`
	// CatalogID is the identifier assigned by the remote catalog, if any.
	CatalogID string `json:"catalog_id,omitempty"`

	Title       string `json:"title"`
	Author      string `json:"author"`
	Description string `json:"description"`
	Genre       string `json:"genre"`

	CoverImageURL string     `json:"cover_image_url,omitempty"`
	Publisher     string     `json:"publisher,omitempty"`
	PublishedAt   *time.Time `json:"published_at,omitempty"`
	PageCount     *int       `json:"page_count,omitempty"`
	ISBN          string     `json:"isbn,omitempty"`
	Language      string     `json:"language,omitempty"`

	// SourceIsRemote separates catalog-sourced records from locally authored ones.
	SourceIsRemote bool `json:"source_is_remote"`
}

// PublishDateMillis returns the publish date as epoch milliseconds.
func (b Book) PublishDateMillis() (int64, bool) {
	if b.PublishedAt == nil {
		return 0, false
	}
	return b.PublishedAt.UnixMilli(), true
}

// SameAs reports whether two records describe the same book: either the
// catalog identifiers match, or both title and author match exactly.
func (b Book) SameAs(other Book) bool {
	if b.CatalogID != "" && b.CatalogID == other.CatalogID {
		return true
	}
	return b.Title == other.Title && b.Author == other.Author
}

// newID can be overridden in tests for deterministic identifiers.
var newID = func() (string, error) {
	return gonanoid.New()
}

// NewID returns a fresh local identifier such as "book-V1StGXR8_Z5jdHi6B-myT".
func NewID() (string, error) {
	id, err := newID()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return idPrefix + "-" + id, nil
}

// MustNewID is like NewID but panics when the system has no entropy left.
func MustNewID() string {
	id, err := NewID()
	if err != nil {
		panic(fmt.Sprintf("failed to generate book ID: %v", err))
	}
	return id
}
