package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/xdearboy/bookkeeper/internal/catalog"
	"github.com/xdearboy/bookkeeper/internal/search"
)

type resultJSON struct {
	SearchID string         `json:"search_id"`
	Query    string         `json:"query"`
	Origin   string         `json:"origin"`
	Variants []string       `json:"variants,omitempty"`
	Books    []catalog.Book `json:"books"`
}

func newResultJSON(res search.Result) resultJSON {
	books := res.Books
	if books == nil {
		books = []catalog.Book{}
	}
	return resultJSON{
		SearchID: res.SearchID,
		Query:    res.Query,
		Origin:   string(res.Origin),
		Variants: res.Variants,
		Books:    books,
	}
}

func writeJSON(w io.Writer, payload any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

func printResult(w io.Writer, res search.Result, asJSON bool) error {
	if asJSON {
		return writeJSON(w, newResultJSON(res))
	}

	if len(res.Books) == 0 {
		_, err := fmt.Fprintf(w, "No books found for %q (%s)\n", res.Query, res.Origin)
		return err
	}

	if _, err := fmt.Fprintf(w, "%d books for %q (%s)\n", len(res.Books), res.Query, res.Origin); err != nil {
		return err
	}
	for i, book := range res.Books {
		if _, err := fmt.Fprintf(w, "%2d. %s\n", i+1, formatBook(book)); err != nil {
			return err
		}
	}
	return nil
}

func formatBook(b catalog.Book) string {
	line := fmt.Sprintf("%s by %s", b.Title, b.Author)
	if b.PublishedAt != nil {
		line += fmt.Sprintf(" (%d)", b.PublishedAt.Year())
	}
	if b.Genre != "" {
		line += " [" + b.Genre + "]"
	}
	return line
}
