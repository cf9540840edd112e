package obsidian

import (
	"fmt"
	"strings"

	"github.com/xdearboy/bookkeeper/internal/catalog"
)

const defaultCoverWidth = 250

// BookNote builds the note for a book. coverRef is either an attachment
// filename, rendered as an embed, or a URL; it may be empty.
func BookNote(book catalog.Book, query, coverRef string) *Note {
	fm := NewFrontmatter()
	fm.Set("title", book.Title)
	fm.Set("type", "book")
	fm.Set("author", book.Author)
	fm.SetIf("book_id", book.ID)
	fm.SetIf("catalog_id", book.CatalogID)
	fm.SetIf("genre", book.Genre)
	fm.SetIf("publisher", book.Publisher)
	fm.SetIf("isbn", book.ISBN)
	fm.SetIf("language", book.Language)
	fm.SetIf("search_query", query)
	if book.PageCount != nil && *book.PageCount > 0 {
		fm.Set("pages", *book.PageCount)
	}
	if book.PublishedAt != nil {
		fm.Set("published", book.PublishedAt.Format("2006-01-02"))
	}
	fm.SetIf("cover", coverRef)

	tags := NewTagSet()
	tags.Add("bookkeeper/book")
	tags.AddIf(book.SourceIsRemote, "source/remote")
	tags.AddIf(!book.SourceIsRemote, "source/fallback")
	for _, g := range strings.Split(book.Genre, ",") {
		tags.AddIf(strings.TrimSpace(g) != "" && book.Genre != catalog.DefaultGenre, "genre/"+strings.TrimSpace(g))
	}
	if book.PublishedAt != nil {
		tags.Add(fmt.Sprintf("year/%ds", (book.PublishedAt.Year()/10)*10))
	}
	fm.Set("tags", tags.Sorted())

	var body strings.Builder
	switch {
	case coverRef == "":
	case strings.HasPrefix(coverRef, "http://"), strings.HasPrefix(coverRef, "https://"):
		fmt.Fprintf(&body, "![](%s)\n\n", coverRef)
	default:
		fmt.Fprintf(&body, "![[%s|%d]]\n\n", coverRef, defaultCoverWidth)
	}

	fmt.Fprintf(&body, ">[!info]- Book Details\n> **Author:** %s\n", book.Author)
	if book.Publisher != "" {
		fmt.Fprintf(&body, "> **Publisher:** %s\n", book.Publisher)
	}
	if book.ISBN != "" {
		fmt.Fprintf(&body, "> **ISBN:** %s\n", book.ISBN)
	}
	body.WriteString("\n")

	if desc := strings.TrimSpace(book.Description); desc != "" {
		body.WriteString("## Description\n\n")
		body.WriteString(desc)
		body.WriteString("\n")
	}

	return &Note{Frontmatter: fm, Body: body.String()}
}
