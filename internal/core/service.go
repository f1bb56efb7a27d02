package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/tbe/internal/config"
	"github.com/JonMunkholm/tbe/internal/logging"
	"github.com/JonMunkholm/tbe/internal/tbe"
)

// ErrNoFiles is returned when Extract is called without uploads.
var ErrNoFiles = errors.New("no file provided")

// DefaultListLimit is the number of summaries List returns when asked for
// a non-positive number.
const DefaultListLimit = 50

// Service runs extractions and keeps their history.
type Service struct {
	store   ExtractionStore
	limiter *Limiter
	parser  tbe.Parser

	maxFileSize int64
	timeout     time.Duration
}

// NewService creates a Service over store using the extract settings in cfg.
func NewService(store ExtractionStore, cfg config.ExtractConfig) *Service {
	return &Service{
		store:       store,
		limiter:     NewLimiter(cfg.MaxConcurrent, cfg.MaxWaitTime),
		parser:      tbe.Parser{MaxLineSize: cfg.MaxLineSize},
		maxFileSize: cfg.MaxFileSize,
		timeout:     cfg.Timeout,
	}
}

// Extract parses every upload in order and saves the combined result.
// An upload that cannot be read is reported in its FileResult and adds no
// records; it does not fail the extraction.
func (s *Service) Extract(ctx context.Context, uploads []Upload) (*Extraction, error) {
	if len(uploads) == 0 {
		return nil, ErrNoFiles
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	ip, ua := ClientFromContext(ctx)
	e := &Extraction{
		ID:        uuid.New(),
		CreatedAt: start.UTC(),
		ClientIP:  ip,
		UserAgent: ua,
		Files:     make([]FileResult, 0, len(uploads)),
		Records:   tbe.ResultSet{},
	}

	logger := logging.WithFields(ctx, "extraction_id", e.ID.String())
	logger.Info("extraction started", "files", len(uploads))

	for _, up := range uploads {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("extraction %s: %w", e.ID, err)
		}

		result, records := s.extractOne(up)
		if result.Failed() {
			logger.Warn("skipping unreadable file", "file", up.Name, "error", result.Error)
		} else {
			logger.Debug("file extracted", "file", up.Name, "records", result.Records, "checksum", result.Checksum)
		}

		e.Files = append(e.Files, result)
		e.Records = append(e.Records, records...)
	}

	e.RecordCount = len(e.Records)
	e.DurationMs = time.Since(start).Milliseconds()

	if err := s.store.Save(ctx, e); err != nil {
		return nil, fmt.Errorf("save extraction: %w", err)
	}

	logger.Info("extraction completed",
		"records", e.RecordCount,
		"duration_ms", e.DurationMs,
	)
	return e, nil
}

// extractOne parses a single upload.
func (s *Service) extractOne(up Upload) (FileResult, tbe.ResultSet) {
	result := FileResult{Name: up.Name}

	if s.maxFileSize > 0 && up.Size > s.maxFileSize {
		result.Error = fmt.Sprintf("%v: %d bytes exceeds limit of %d", ErrFileTooLarge, up.Size, s.maxFileSize)
		return result, nil
	}
	if up.Reader == nil {
		result.Error = "no content"
		return result, nil
	}

	cr := newCountingReader(up.Reader, s.maxFileSize)
	doc, err := s.parser.Parse(cr)
	result.BytesRead = cr.BytesRead
	if err != nil {
		result.Error = err.Error()
		return result, nil
	}

	result.Checksum = cr.Checksum()
	result.Lines = doc.Stats.Lines
	result.Tables = doc.Stats.Tables
	result.Records = len(doc.Records)
	result.Global = doc.Global
	return result, doc.Records
}

// Get returns an extraction without its records.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Extraction, error) {
	return s.store.Get(ctx, id)
}

// List returns recent extractions, newest first.
func (s *Service) List(ctx context.Context, limit int) ([]ExtractionSummary, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	return s.store.List(ctx, limit)
}

// Records returns a page of an extraction's records.
func (s *Service) Records(ctx context.Context, id uuid.UUID, limit, offset int) (tbe.ResultSet, error) {
	return s.store.Records(ctx, id, limit, offset)
}

// LimiterStatus returns the current concurrency state.
func (s *Service) LimiterStatus() LimiterStatus {
	return s.limiter.Status()
}

// WaitForExtractions blocks until running extractions finish or ctx ends.
func (s *Service) WaitForExtractions(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}
