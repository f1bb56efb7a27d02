package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/tbe/internal/tbe"
)

// DBTX is the interface for database operations.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Record payloads use json, not jsonb, so column order survives storage.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS tbe_extractions (
    id           uuid PRIMARY KEY,
    created_at   timestamptz NOT NULL,
    duration_ms  bigint NOT NULL,
    client_ip    text NOT NULL DEFAULT '',
    user_agent   text NOT NULL DEFAULT '',
    record_count integer NOT NULL,
    files        jsonb NOT NULL
);

CREATE TABLE IF NOT EXISTS tbe_records (
    extraction_id uuid NOT NULL REFERENCES tbe_extractions(id) ON DELETE CASCADE,
    position      integer NOT NULL,
    data          json NOT NULL,
    PRIMARY KEY (extraction_id, position)
);

CREATE INDEX IF NOT EXISTS tbe_extractions_created_at_idx ON tbe_extractions (created_at DESC);
`

// PostgresStore is an ExtractionStore backed by PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore wraps an open pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema creates the extraction tables if they are missing.
func (p *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// Save inserts the extraction row and COPYs its records in one transaction.
func (p *PostgresStore) Save(ctx context.Context, e *Extraction) error {
	files, err := json.Marshal(e.Files)
	if err != nil {
		return fmt.Errorf("encode files: %w", err)
	}

	rows, err := recordRows(e)
	if err != nil {
		return err
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := insertExtraction(ctx, tx, e, files); err != nil {
		return err
	}

	if len(rows) > 0 {
		n, err := tx.CopyFrom(ctx,
			pgx.Identifier{"tbe_records"},
			[]string{"extraction_id", "position", "data"},
			pgx.CopyFromRows(rows),
		)
		if err != nil {
			return fmt.Errorf("copy records: %w", err)
		}
		if int(n) != len(rows) {
			return fmt.Errorf("copy records: wrote %d of %d", n, len(rows))
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// recordRows builds the COPY rows for e's records, one per position.
func recordRows(e *Extraction) ([][]any, error) {
	rows := make([][]any, len(e.Records))
	for i, rec := range e.Records {
		data, err := json.Marshal(rec)
		if err != nil {
			return nil, fmt.Errorf("encode record %d: %w", i, err)
		}
		rows[i] = []any{e.ID, int32(i), string(data)}
	}
	return rows, nil
}

func insertExtraction(ctx context.Context, q DBTX, e *Extraction, files []byte) error {
	_, err := q.Exec(ctx, `
		INSERT INTO tbe_extractions (id, created_at, duration_ms, client_ip, user_agent, record_count, files)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.ID, e.CreatedAt, e.DurationMs, e.ClientIP, e.UserAgent, e.RecordCount, files)
	if err != nil {
		return fmt.Errorf("insert extraction: %w", err)
	}
	return nil
}

func extractionExists(ctx context.Context, q DBTX, id uuid.UUID) (bool, error) {
	var exists bool
	if err := q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM tbe_extractions WHERE id = $1)`, id,
	).Scan(&exists); err != nil {
		return false, fmt.Errorf("check extraction: %w", err)
	}
	return exists, nil
}

func (p *PostgresStore) Get(ctx context.Context, id uuid.UUID) (*Extraction, error) {
	e := &Extraction{ID: id}
	var files []byte

	err := p.pool.QueryRow(ctx, `
		SELECT created_at, duration_ms, client_ip, user_agent, record_count, files
		FROM tbe_extractions WHERE id = $1`, id,
	).Scan(&e.CreatedAt, &e.DurationMs, &e.ClientIP, &e.UserAgent, &e.RecordCount, &files)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrExtractionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get extraction: %w", err)
	}

	if err := json.Unmarshal(files, &e.Files); err != nil {
		return nil, fmt.Errorf("decode files: %w", err)
	}
	return e, nil
}

func (p *PostgresStore) List(ctx context.Context, limit int) ([]ExtractionSummary, error) {
	if limit <= 0 {
		limit = DefaultRetained
	}

	rows, err := p.pool.Query(ctx, `
		SELECT id, created_at, duration_ms, record_count, files
		FROM tbe_extractions ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list extractions: %w", err)
	}
	defer rows.Close()

	out := []ExtractionSummary{}
	for rows.Next() {
		var e Extraction
		var files []byte
		if err := rows.Scan(&e.ID, &e.CreatedAt, &e.DurationMs, &e.RecordCount, &files); err != nil {
			return nil, fmt.Errorf("scan extraction: %w", err)
		}
		if err := json.Unmarshal(files, &e.Files); err != nil {
			return nil, fmt.Errorf("decode files: %w", err)
		}
		out = append(out, e.Summary())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list extractions: %w", err)
	}
	return out, nil
}

func (p *PostgresStore) Records(ctx context.Context, id uuid.UUID, limit, offset int) (tbe.ResultSet, error) {
	exists, err := extractionExists(ctx, p.pool, id)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrExtractionNotFound
	}

	lim, off := pageArgs(limit, offset)
	rows, err := p.pool.Query(ctx, `
		SELECT data::text FROM tbe_records
		WHERE extraction_id = $1
		ORDER BY position
		LIMIT $2 OFFSET $3`, id, lim, off)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	out := tbe.ResultSet{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		var rec tbe.Record
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			return nil, fmt.Errorf("decode record: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	return out, nil
}

// pageArgs returns the LIMIT and OFFSET parameters for a records page.
// A nil limit binds as LIMIT NULL, which is no limit.
func pageArgs(limit, offset int) (*int64, int64) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		return nil, int64(offset)
	}
	lim := int64(limit)
	return &lim, int64(offset)
}

var (
	_ ExtractionStore = (*PostgresStore)(nil)
	_ DBTX            = (*pgxpool.Pool)(nil)
	_ DBTX            = (pgx.Tx)(nil)
)
