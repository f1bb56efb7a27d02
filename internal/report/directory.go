package report

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// ErrInvalidDirectory is returned when a scan target is missing or not a directory.
var ErrInvalidDirectory = errors.New("invalid directory path")

// DefaultExtension selects the files a directory scan reports on.
const DefaultExtension = ".csv"

// ScanOptions controls ScanDirectory.
type ScanOptions struct {
	Extension  string // File extension to include, with the dot (default: .csv)
	SampleRows int    // Sample lines per file; negative means DefaultSampleRows
}

// ValidateDirectory checks that dir exists and is a directory.
func ValidateDirectory(dir string) error {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrInvalidDirectory, dir)
	}
	return nil
}

// ListFiles returns the regular files in dir whose extension matches ext
// (case-insensitive), and separately the regular files that were passed
// over. Both lists are in lexical order. Subdirectories are ignored.
func ListFiles(dir, ext string) (matched, skipped []string, err error) {
	if ext == "" {
		ext = DefaultExtension
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("reading directory %s: %w", dir, err)
	}

	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if strings.EqualFold(filepath.Ext(entry.Name()), ext) {
			matched = append(matched, path)
		} else {
			skipped = append(skipped, path)
		}
	}
	return matched, skipped, nil
}

// ScanDirectory collects FileMetadata for every matching file in dir.
// Files that fail are logged and left out; only an invalid or unreadable
// directory is an error.
func ScanDirectory(dir string, opts ScanOptions, logger *slog.Logger) ([]FileMetadata, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.SampleRows < 0 {
		opts.SampleRows = DefaultSampleRows
	}

	if err := ValidateDirectory(dir); err != nil {
		return nil, err
	}
	logger.Info("scanning directory", "dir", dir)

	matched, skipped, err := ListFiles(dir, opts.Extension)
	if err != nil {
		return nil, err
	}
	for _, path := range skipped {
		logger.Warn("skipping file with other extension", "file", filepath.Base(path))
	}

	summary := make([]FileMetadata, 0, len(matched))
	for _, path := range matched {
		logger.Info("processing file", "file", filepath.Base(path))

		meta, err := ExtractMetadata(path, opts.SampleRows)
		if err != nil {
			logger.Warn("failed to process file", "file", filepath.Base(path), "error", err)
			continue
		}
		summary = append(summary, *meta)
	}

	return summary, nil
}
