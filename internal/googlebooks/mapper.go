package googlebooks

import (
	"log/slog"
	"strings"
	"time"

	"github.com/xdearboy/bookkeeper/internal/catalog"
)

const publishedDateLayout = "2006-01-02"

// ToBooks maps every non-nil item of resp to a Book.
func ToBooks(resp *VolumesResponse) []catalog.Book {
	if resp == nil {
		return nil
	}

	books := make([]catalog.Book, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item == nil {
			continue
		}
		books = append(books, ToBook(item))
	}
	return books
}

// ToBook maps a single volume, applying the defaulting rules:
// missing authors become catalog.UnknownAuthor, missing categories become
// catalog.DefaultGenre, http cover links are upgraded to https and ISBN-13
// wins over ISBN-10. An unparseable date or a negative page count drops
// only that field; other malformed fields are already dropped while decoding.
func ToBook(item *Volume) catalog.Book {
	info := item.VolumeInfo

	book := catalog.Book{
		ID:             catalog.MustNewID(),
		CatalogID:      item.ID,
		Title:          info.Title,
		Author:         joinOr(info.Authors, catalog.UnknownAuthor),
		Description:    info.Description,
		Genre:          joinOr(info.Categories, catalog.DefaultGenre),
		CoverImageURL:  coverURL(info.ImageLinks),
		Publisher:      info.Publisher,
		ISBN:           preferredISBN(info.IndustryIdentifiers),
		Language:       info.Language,
		SourceIsRemote: true,
	}

	if info.PageCount != nil && *info.PageCount >= 0 {
		pages := *info.PageCount
		book.PageCount = &pages
	}

	if info.PublishedDate != "" {
		published, err := time.Parse(publishedDateLayout, info.PublishedDate)
		if err != nil {
			slog.Debug("Skipping unparseable publish date", "catalog_id", item.ID, "published_date", info.PublishedDate, "error", err)
		} else {
			book.PublishedAt = &published
		}
	}

	return book
}

func joinOr(values []string, fallback string) string {
	kept := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			kept = append(kept, v)
		}
	}
	if len(kept) == 0 {
		return fallback
	}
	return strings.Join(kept, ", ")
}

// coverURL prefers the larger thumbnail and forces https.
func coverURL(links *ImageLinks) string {
	if links == nil {
		return ""
	}
	link := links.Thumbnail
	if link == "" {
		link = links.SmallThumbnail
	}
	if strings.HasPrefix(link, "http://") {
		link = "https://" + strings.TrimPrefix(link, "http://")
	}
	return link
}

func preferredISBN(ids []IndustryIdentifier) string {
	var isbn10 string
	for _, id := range ids {
		switch id.Type {
		case "ISBN_13":
			return id.Identifier
		case "ISBN_10":
			if isbn10 == "" {
				isbn10 = id.Identifier
			}
		}
	}
	return isbn10
}
