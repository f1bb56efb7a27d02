package tbe

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// ErrNoInput is returned when an extraction is started without any source.
var ErrNoInput = errors.New("no input files")

// FileResult describes the contribution of one file to a Batch.
type FileResult struct {
	Path    string      `json:"path"`
	Records int         `json:"records"`
	Tables  int         `json:"tables"`
	Global  []Attribute `json:"global,omitempty"`
	Err     error       `json:"-"`
}

// Batch is the outcome of extracting several files.
type Batch struct {
	Records ResultSet
	Files   []FileResult
}

// Failed returns the files that could not be read.
func (b *Batch) Failed() []FileResult {
	var out []FileResult
	for _, f := range b.Files {
		if f.Err != nil {
			out = append(out, f)
		}
	}
	return out
}

// ExtractFile parses the file at path with the default Parser.
func ExtractFile(path string) (*Document, error) {
	return Parser{}.ExtractFile(path)
}

// ExtractFile parses the file at path.
func (p Parser) ExtractFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	doc, err := p.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return doc, nil
}

// ExtractFiles runs the default Parser over paths.
func ExtractFiles(paths []string, logger *slog.Logger) *Batch {
	return Parser{}.ExtractFiles(paths, logger)
}

// ExtractFiles parses each path as an independent scan and concatenates the
// records in input order. Unreadable files are logged, recorded in the batch
// with their error and contribute no records.
func (p Parser) ExtractFiles(paths []string, logger *slog.Logger) *Batch {
	if logger == nil {
		logger = slog.Default()
	}

	batch := &Batch{
		Records: ResultSet{},
		Files:   make([]FileResult, 0, len(paths)),
	}

	for _, path := range paths {
		doc, err := p.ExtractFile(path)
		if err != nil {
			logger.Warn("skipping unreadable file", "file", path, "error", err)
			batch.Files = append(batch.Files, FileResult{Path: path, Err: err})
			continue
		}

		logger.Debug("file extracted",
			"file", path,
			"tables", doc.Stats.Tables,
			"records", len(doc.Records),
			"decoration_rows", doc.Stats.DecorationRows,
		)

		batch.Records = append(batch.Records, doc.Records...)
		batch.Files = append(batch.Files, FileResult{
			Path:    path,
			Records: len(doc.Records),
			Tables:  doc.Stats.Tables,
			Global:  doc.Global,
		})
	}

	return batch
}
