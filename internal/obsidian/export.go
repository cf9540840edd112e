package obsidian

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xdearboy/bookkeeper/internal/catalog"
	"github.com/xdearboy/bookkeeper/internal/fileutil"
)

// Exporter writes books as notes into a directory.
type Exporter struct {
	Dir            string
	Overwrite      bool
	DownloadCovers bool
	UpdateCovers   bool
	Client         fileutil.HTTPDoer
}

// Export writes one note per book and returns how many were written.
// Notes that already exist are skipped unless Overwrite is set. A failed
// cover download falls back to linking the remote URL.
func (e Exporter) Export(ctx context.Context, query string, books []catalog.Book) (int, error) {
	written := 0
	for _, book := range books {
		path := fileutil.GetMarkdownFilePath(book.Title, e.Dir)
		if fileutil.FileExists(path) && !e.Overwrite {
			slog.Debug("Note already exists, skipping", "path", path)
			continue
		}

		note := BookNote(book, query, e.coverRef(ctx, book))
		data, err := note.Build()
		if err != nil {
			return written, fmt.Errorf("failed to build note for %q: %w", book.Title, err)
		}

		ok, err := fileutil.WriteFileWithOverwrite(path, data, 0o644, e.Overwrite)
		if err != nil {
			return written, fmt.Errorf("failed to write note for %q: %w", book.Title, err)
		}
		if ok {
			written++
			slog.Info("Wrote note", "path", path)
		}
	}
	return written, nil
}

func (e Exporter) coverRef(ctx context.Context, book catalog.Book) string {
	if book.CoverImageURL == "" || !e.DownloadCovers {
		return book.CoverImageURL
	}

	result, err := fileutil.DownloadCover(ctx, fileutil.CoverDownloadOptions{
		URL:          book.CoverImageURL,
		OutputDir:    e.Dir,
		Filename:     fileutil.BuildCoverFilename(book.Title),
		UpdateCovers: e.UpdateCovers,
		Client:       e.Client,
	})
	if err != nil {
		slog.Warn("Failed to download cover", "title", book.Title, "error", err)
		return book.CoverImageURL
	}
	return result.Filename
}
