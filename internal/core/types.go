package core

import (
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/tbe/internal/tbe"
)

// Upload is one input file handed to Service.Extract.
type Upload struct {
	Name   string    // Original file name, for reporting only
	Size   int64     // Declared size in bytes (0 if unknown)
	Reader io.Reader // File contents
}

// FileResult reports what one upload contributed.
type FileResult struct {
	Name      string          `json:"name"`
	BytesRead int64           `json:"bytes_read"`
	Checksum  string          `json:"checksum,omitempty"` // xxhash64, hex
	Lines     int             `json:"lines"`
	Tables    int             `json:"tables"`
	Records   int             `json:"records"`
	Global    []tbe.Attribute `json:"global,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// Failed reports whether the upload could not be read.
func (f FileResult) Failed() bool {
	return f.Error != ""
}

// Extraction is the outcome of one Service.Extract call.
// Records is left nil by stores that load records separately.
type Extraction struct {
	ID          uuid.UUID     `json:"id"`
	CreatedAt   time.Time     `json:"created_at"`
	DurationMs  int64         `json:"duration_ms"`
	ClientIP    string        `json:"client_ip,omitempty"`
	UserAgent   string        `json:"user_agent,omitempty"`
	RecordCount int           `json:"record_count"`
	Files       []FileResult  `json:"files"`
	Records     tbe.ResultSet `json:"records,omitempty"`
}

// ExtractionSummary is the list view of an extraction.
type ExtractionSummary struct {
	ID          uuid.UUID `json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	DurationMs  int64     `json:"duration_ms"`
	FileCount   int       `json:"file_count"`
	FailedFiles int       `json:"failed_files"`
	RecordCount int       `json:"record_count"`
	FileNames   []string  `json:"file_names"`
}

// Summary returns the list view of e.
func (e *Extraction) Summary() ExtractionSummary {
	s := ExtractionSummary{
		ID:          e.ID,
		CreatedAt:   e.CreatedAt,
		DurationMs:  e.DurationMs,
		FileCount:   len(e.Files),
		RecordCount: e.RecordCount,
		FileNames:   make([]string, 0, len(e.Files)),
	}
	for _, f := range e.Files {
		if f.Failed() {
			s.FailedFiles++
		}
		s.FileNames = append(s.FileNames, f.Name)
	}
	return s
}

// withoutRecords returns a shallow copy of e with Records cleared.
func (e *Extraction) withoutRecords() *Extraction {
	c := *e
	c.Records = nil
	return &c
}
