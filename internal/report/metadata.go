// Package report builds metadata summaries for exported files and extracted
// records, and renders them as JSON or console tables.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/JonMunkholm/tbe/internal/tbe"
)

// DefaultSampleRows is how many lines after the header are kept as samples.
const DefaultSampleRows = 5

// FileMetadata describes one plain CSV file. Field names follow the JSON
// summary format consumers of the directory report already read.
type FileMetadata struct {
	FileName         string   `json:"file_name"`
	FileSize         int64    `json:"file_size"`
	CreationTime     string   `json:"creation_time"`
	LastModifiedTime string   `json:"last_modified_time"`
	RowCount         int      `json:"row_count"`
	ColumnCount      int      `json:"column_count"`
	ColumnNames      []string `json:"column_names"`
	SampleData       []string `json:"sample_data"`
}

// ExtractMetadata stats the file at path and reads its header line and the
// first sampleRows data lines. The first line counts as the header.
func ExtractMetadata(path string, sampleRows int) (*FileMetadata, error) {
	if sampleRows < 0 {
		sampleRows = DefaultSampleRows
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	lines, err := tbe.ReadLines(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	meta := &FileMetadata{
		FileName:         filepath.Base(path),
		FileSize:         info.Size(),
		CreationTime:     changeTime(info).Format(time.RFC3339),
		LastModifiedTime: info.ModTime().Format(time.RFC3339),
		ColumnNames:      []string{},
		SampleData:       []string{},
	}

	if len(lines) == 0 {
		return meta, nil
	}

	meta.RowCount = len(lines) - 1
	meta.ColumnNames = strings.Split(strings.TrimSpace(lines[0]), ",")
	meta.ColumnCount = len(meta.ColumnNames)

	end := min(1+sampleRows, len(lines))
	meta.SampleData = append(meta.SampleData, lines[1:end]...)

	return meta, nil
}
