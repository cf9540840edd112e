// Package fileutil holds the file helpers used when exporting search
// results: note paths, overwrite-aware writes and JSON output.
package fileutil

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

var filenameReplacer = strings.NewReplacer(
	":", " -",
	"/", "-",
	"\\", "-",
	"?", "",
	"*", "",
	"\"", "'",
	"<", "",
	">", "",
	"|", "-",
)

// SanitizeFilename replaces characters that are not portable in file names.
func SanitizeFilename(name string) string {
	return strings.TrimSpace(filenameReplacer.Replace(name))
}

// GetMarkdownFilePath returns the note path for a title in directory.
func GetMarkdownFilePath(title, directory string) string {
	return filepath.Join(directory, SanitizeFilename(title)+".md")
}

// FileExists reports whether a regular file exists at path.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// WriteFileWithOverwrite writes data to path, creating parent directories.
// An existing file is left alone unless overwrite is set. It reports
// whether the file was written.
func WriteFileWithOverwrite(path string, data []byte, perm os.FileMode, overwrite bool) (bool, error) {
	if FileExists(path) && !overwrite {
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, data, perm); err != nil {
		return false, fmt.Errorf("failed to write file: %w", err)
	}
	return true, nil
}

// WriteJSONFile writes data as indented JSON, honouring overwrite like
// WriteFileWithOverwrite.
func WriteJSONFile(data any, path string, overwrite bool) (bool, error) {
	payload, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return false, fmt.Errorf("failed to marshal JSON: %w", err)
	}

	written, err := WriteFileWithOverwrite(path, payload, 0o644, overwrite)
	if err != nil {
		return false, err
	}
	if !written {
		slog.Info("JSON file already exists, skipping", "filename", path)
		return false, nil
	}
	slog.Info("Wrote JSON file", "filename", path)
	return true, nil
}
