package fileutil

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"
)

const (
	attachmentsDir       = "attachments"
	defaultCoverMaxWidth = 600
	coverJPEGQuality     = 85
)

// HTTPDoer is the subset of *http.Client used for cover downloads.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// CoverDownloadOptions holds options for downloading cover images.
type CoverDownloadOptions struct {
	URL       string
	OutputDir string // the note directory; covers go to its attachments/
	Filename  string
	// MaxWidth bounds the saved image width; wider images are scaled down.
	MaxWidth     int
	UpdateCovers bool
	Client       HTTPDoer
}

// CoverDownloadResult describes where a cover ended up.
type CoverDownloadResult struct {
	Downloaded   bool
	LocalPath    string
	RelativePath string // relative to the note directory
	Filename     string
}

// DownloadCover fetches a cover image, scales it down to MaxWidth and
// stores it as JPEG under OutputDir/attachments. An existing file is kept
// unless UpdateCovers is set. An empty URL yields (nil, nil).
func DownloadCover(ctx context.Context, opts CoverDownloadOptions) (*CoverDownloadResult, error) {
	if opts.URL == "" {
		return nil, nil
	}
	if opts.MaxWidth <= 0 {
		opts.MaxWidth = defaultCoverMaxWidth
	}
	if opts.Client == nil {
		opts.Client = &http.Client{Timeout: 30 * time.Second}
	}

	result := &CoverDownloadResult{
		LocalPath:    filepath.Join(opts.OutputDir, attachmentsDir, opts.Filename),
		RelativePath: filepath.Join(attachmentsDir, opts.Filename),
		Filename:     opts.Filename,
	}

	if FileExists(result.LocalPath) && !opts.UpdateCovers {
		slog.Debug("Cover already exists, skipping download", "path", result.LocalPath)
		return result, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, opts.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cover request: %w", err)
	}
	resp, err := opts.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download cover: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d downloading cover from %s", resp.StatusCode, opts.URL)
	}

	img, err := imaging.Decode(resp.Body, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode cover: %w", err)
	}
	if img.Bounds().Dx() > opts.MaxWidth {
		img = imaging.Resize(img, opts.MaxWidth, 0, imaging.Lanczos)
	}

	if err := os.MkdirAll(filepath.Dir(result.LocalPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create attachments directory: %w", err)
	}
	if err := imaging.Save(img, result.LocalPath, imaging.JPEGQuality(coverJPEGQuality)); err != nil {
		return nil, fmt.Errorf("failed to save cover: %w", err)
	}

	slog.Info("Downloaded cover", "path", result.LocalPath)
	result.Downloaded = true
	return result, nil
}

// BuildCoverFilename returns "Title - cover.jpg" for a title.
func BuildCoverFilename(title string) string {
	return SanitizeFilename(title) + " - cover.jpg"
}
