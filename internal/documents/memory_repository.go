package documents

import (
	"context"
	"fmt"
	"maps"
	"sync"
)

type memoryRepository struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewMemoryRepository builds an in-memory document store for testing.
func NewMemoryRepository() Repository {
	return &memoryRepository{records: make(map[string]Record)}
}

func (r *memoryRepository) Create(_ context.Context, rec Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.records[rec.ID]; exists {
		return fmt.Errorf("document upload %s exists", rec.ID)
	}
	r.records[rec.ID] = cloneRecord(rec)
	return nil
}

func (r *memoryRepository) Update(_ context.Context, rec Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.records[rec.ID]
	if !ok {
		return ErrNotFound
	}
	existing.ProcessingStatus = rec.ProcessingStatus
	existing.ProcessingMethod = rec.ProcessingMethod
	existing.ConfidenceScore = rec.ConfidenceScore
	existing.ExtractedData = maps.Clone(rec.ExtractedData)
	existing.ErrorMessage = rec.ErrorMessage
	existing.UpdatedAt = rec.UpdatedAt
	r.records[rec.ID] = existing
	return nil
}

func (r *memoryRepository) FindByID(_ context.Context, id string) (Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	return cloneRecord(rec), nil
}

func cloneRecord(rec Record) Record {
	rec.ExtractedData = maps.Clone(rec.ExtractedData)
	if rec.ConfidenceScore != nil {
		v := *rec.ConfidenceScore
		rec.ConfidenceScore = &v
	}
	return rec
}
