package web

import (
	"encoding/csv"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/JonMunkholm/tbe/internal/core"
	"github.com/JonMunkholm/tbe/internal/report"
	"github.com/JonMunkholm/tbe/internal/tbe"
	"github.com/JonMunkholm/tbe/internal/web/templates"
)

const (
	// formMemory is how much of a multipart body is buffered in memory
	// before parts spill to temporary files.
	formMemory = 32 << 20

	// pageRecords is how many records the HTML detail page shows.
	pageRecords = 100

	// formOverhead allows for multipart boundaries and headers on top of
	// the file contents.
	formOverhead = 1 << 20
)

var (
	errInvalidID = errors.New("invalid extraction id")
	errBadForm   = errors.New("invalid multipart upload")
)

// handleIndex renders the upload form and recent extractions.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	items, err := s.service.List(r.Context(), core.DefaultListLimit)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	page := templates.Layout("Extractions", templates.Join(
		templates.UploadForm(),
		templates.ExtractionList(items),
	))
	_ = page.Render(r.Context(), w)
}

// handleExtractForm runs an extraction from the HTML form and redirects to
// its page.
func (s *Server) handleExtractForm(w http.ResponseWriter, r *http.Request) {
	e, err := s.extractRequest(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	http.Redirect(w, r, "/extractions/"+e.ID.String(), http.StatusSeeOther)
}

// handleExtractionPage renders one extraction with the first page of its
// records.
func (s *Server) handleExtractionPage(w http.ResponseWriter, r *http.Request) {
	id, err := extractionID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	e, err := s.service.Get(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	records, err := s.service.Records(r.Context(), id, pageRecords, 0)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	columns := report.Summarize(records).ColumnNames()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	page := templates.Layout("Extraction "+id.String(), templates.ExtractionDetail(e, columns, records))
	_ = page.Render(r.Context(), w)
}

// handleHealth reports liveness and the extraction limiter state.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"extractions": s.service.LimiterStatus(),
	})
}

// handleExtract accepts one or more multipart "file" parts and returns the
// extraction with its records.
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	e, err := s.extractRequest(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

// handleListExtractions returns recent extraction summaries.
func (s *Server) handleListExtractions(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", core.DefaultListLimit)
	items, err := s.service.List(r.Context(), limit)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"extractions": items,
		"count":       len(items),
	})
}

// handleGetExtraction returns one extraction without its records.
func (s *Server) handleGetExtraction(w http.ResponseWriter, r *http.Request) {
	id, err := extractionID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	e, err := s.service.Get(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// handleRecords exports a page of records as JSON or CSV.
func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	id, err := extractionID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	limit := queryInt(r, "limit", 0)
	offset := queryInt(r, "offset", 0)
	records, err := s.service.Records(r.Context(), id, limit, offset)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if r.URL.Query().Get("format") == "csv" {
		writeRecordsCSV(w, id, records)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"id":      id,
		"offset":  offset,
		"count":   len(records),
		"records": records,
	})
}

// extractRequest parses the multipart body and runs the extraction.
func (s *Server) extractRequest(w http.ResponseWriter, r *http.Request) (*core.Extraction, error) {
	if max := s.cfg.Extract.MaxFileSize; max > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, max+formOverhead)
	}

	if err := r.ParseMultipartForm(formMemory); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return nil, fmt.Errorf("%w: %w", core.ErrFileTooLarge, err)
		}
		return nil, fmt.Errorf("%w: %w", errBadForm, err)
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["file"]
	if len(headers) == 0 {
		return nil, core.ErrNoFiles
	}

	uploads := make([]core.Upload, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("open upload %s: %w", fh.Filename, err)
		}
		defer func(f multipart.File) { _ = f.Close() }(f)

		uploads = append(uploads, core.Upload{
			Name:   fh.Filename,
			Size:   fh.Size,
			Reader: f,
		})
	}

	return s.service.Extract(withClient(r), uploads)
}

// writeRecordsCSV writes records under the union of their columns. Cells
// for columns a record lacks are left empty.
func writeRecordsCSV(w http.ResponseWriter, id uuid.UUID, records tbe.ResultSet) {
	columns := report.Summarize(records).ColumnNames()

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="extraction-%s.csv"`, id))

	cw := csv.NewWriter(w)
	_ = cw.Write(columns)
	row := make([]string, len(columns))
	for _, rec := range records {
		for i, c := range columns {
			row[i], _ = rec.Get(c)
		}
		_ = cw.Write(row)
	}
	cw.Flush()
}

func extractionID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %w", errInvalidID, err)
	}
	return id, nil
}

// queryInt reads a non-negative integer query parameter, falling back to
// def when it is missing or malformed.
func queryInt(r *http.Request, name string, def int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}
