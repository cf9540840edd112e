// Package fallback produces the network-free result set served when the
// remote catalog cannot produce usable data.
package fallback

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/cespare/xxhash/v2"
	"gopkg.in/yaml.v3"

	"github.com/xdearboy/bookkeeper/internal/catalog"
)

// Generator returns a deterministic book list for a query. It must never
// perform network I/O. An empty list is a valid, terminal answer.
type Generator interface {
	Generate(query string) []catalog.Book
}

// Empty is the reference generator: it has no synthetic data.
type Empty struct{}

// Generate always returns an empty list.
func (Empty) Generate(string) []catalog.Book {
	return []catalog.Book{}
}

// Entry is one block of the fallback file.
type Entry struct {
	Match []string    `yaml:"match"`
	Books []EntryBook `yaml:"books"`
}

// EntryBook is the subset of Book fields a fallback file can define.
type EntryBook struct {
	Title       string `yaml:"title"`
	Author      string `yaml:"author"`
	Description string `yaml:"description"`
	Genre       string `yaml:"genre"`
	Publisher   string `yaml:"publisher"`
	ISBN        string `yaml:"isbn"`
	Language    string `yaml:"language"`
	PageCount   int    `yaml:"page_count"`
}

type file struct {
	Entries []Entry `yaml:"entries"`
}

// Catalog serves books from a static list of keyword entries.
type Catalog struct {
	entries []Entry
}

// NewCatalog creates a Catalog from already parsed entries.
// Match keywords are compared case-insensitively.
func NewCatalog(entries []Entry) *Catalog {
	normalized := make([]Entry, 0, len(entries))
	for _, e := range entries {
		match := make([]string, 0, len(e.Match))
		for _, m := range e.Match {
			if m = strings.ToLower(strings.TrimSpace(m)); m != "" {
				match = append(match, m)
			}
		}
		normalized = append(normalized, Entry{Match: match, Books: e.Books})
	}
	return &Catalog{entries: normalized}
}

// Parse decodes a YAML fallback document.
func Parse(data []byte) (*Catalog, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse fallback catalog: %w", err)
	}
	return NewCatalog(f.Entries), nil
}

// Load reads a YAML fallback file from disk.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fallback catalog: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, err
	}
	slog.Debug("Loaded fallback catalog", "path", path, "entries", len(c.entries))
	return c, nil
}

// FromFile returns a Catalog for path, or Empty when path is blank.
func FromFile(path string) (Generator, error) {
	if strings.TrimSpace(path) == "" {
		return Empty{}, nil
	}
	return Load(path)
}

// Generate returns the books of every entry with a keyword contained in the
// query, in file order, without duplicates. Identifiers are derived from
// the query and the book so repeated calls yield identical output.
func (c *Catalog) Generate(query string) []catalog.Book {
	lower := strings.ToLower(strings.TrimSpace(query))
	out := []catalog.Book{}
	if lower == "" {
		return out
	}

	for _, entry := range c.entries {
		if !matches(entry.Match, lower) {
			continue
		}
		books := make([]catalog.Book, 0, len(entry.Books))
		for _, eb := range entry.Books {
			books = append(books, toBook(lower, eb))
		}
		out = catalog.Merge(out, books)
	}
	return out
}

func matches(keywords []string, query string) bool {
	for _, k := range keywords {
		if strings.Contains(query, k) {
			return true
		}
	}
	return false
}

func toBook(query string, eb EntryBook) catalog.Book {
	author := eb.Author
	if strings.TrimSpace(author) == "" {
		author = catalog.UnknownAuthor
	}
	genre := eb.Genre
	if strings.TrimSpace(genre) == "" {
		genre = catalog.DefaultGenre
	}

	book := catalog.Book{
		ID:          deterministicID(query, eb.Title, author),
		Title:       eb.Title,
		Author:      author,
		Description: eb.Description,
		Genre:       genre,
		Publisher:   eb.Publisher,
		ISBN:        eb.ISBN,
		Language:    eb.Language,
	}
	if eb.PageCount > 0 {
		pages := eb.PageCount
		book.PageCount = &pages
	}
	return book
}

func deterministicID(query, title, author string) string {
	sum := xxhash.Sum64String(query + "\x00" + title + "\x00" + author)
	return fmt.Sprintf("fallback-%016x", sum)
}
