package core

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/JonMunkholm/tbe/internal/tbe"
)

// ErrExtractionNotFound is returned for an unknown or evicted extraction ID.
var ErrExtractionNotFound = errors.New("extraction not found")

// ExtractionStore keeps finished extractions.
type ExtractionStore interface {
	// Save stores e including its records.
	Save(ctx context.Context, e *Extraction) error

	// Get returns the extraction without its records.
	Get(ctx context.Context, id uuid.UUID) (*Extraction, error)

	// List returns up to limit summaries, newest first.
	List(ctx context.Context, limit int) ([]ExtractionSummary, error)

	// Records returns records [offset, offset+limit) of an extraction in
	// their original order. A non-positive limit means all remaining.
	Records(ctx context.Context, id uuid.UUID, limit, offset int) (tbe.ResultSet, error)
}

// DefaultRetained is how many extractions a MemoryStore keeps by default.
const DefaultRetained = 100

// MemoryStore is an in-process ExtractionStore that keeps the most recent
// extractions and evicts the oldest.
type MemoryStore struct {
	mu       sync.RWMutex
	retained int
	order    []uuid.UUID // oldest first
	byID     map[uuid.UUID]*Extraction
}

// NewMemoryStore returns a store holding at most retained extractions.
func NewMemoryStore(retained int) *MemoryStore {
	if retained <= 0 {
		retained = DefaultRetained
	}
	return &MemoryStore{
		retained: retained,
		byID:     make(map[uuid.UUID]*Extraction),
	}
}

func (m *MemoryStore) Save(_ context.Context, e *Extraction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byID[e.ID]; !exists {
		m.order = append(m.order, e.ID)
	}
	m.byID[e.ID] = e

	for len(m.order) > m.retained {
		delete(m.byID, m.order[0])
		m.order = m.order[1:]
	}
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id uuid.UUID) (*Extraction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.byID[id]
	if !ok {
		return nil, ErrExtractionNotFound
	}
	return e.withoutRecords(), nil
}

func (m *MemoryStore) List(_ context.Context, limit int) ([]ExtractionSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if limit <= 0 || limit > len(m.order) {
		limit = len(m.order)
	}

	out := make([]ExtractionSummary, 0, limit)
	for i := len(m.order) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.byID[m.order[i]].Summary())
	}
	return out, nil
}

func (m *MemoryStore) Records(_ context.Context, id uuid.UUID, limit, offset int) (tbe.ResultSet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.byID[id]
	if !ok {
		return nil, ErrExtractionNotFound
	}
	return page(e.Records, limit, offset), nil
}

// page slices rs the way ExtractionStore.Records describes.
func page(rs tbe.ResultSet, limit, offset int) tbe.ResultSet {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(rs) {
		return tbe.ResultSet{}
	}
	end := len(rs)
	if limit > 0 && limit < end-offset {
		end = offset + limit
	}
	out := make(tbe.ResultSet, end-offset)
	copy(out, rs[offset:end])
	return out
}

var _ ExtractionStore = (*MemoryStore)(nil)
