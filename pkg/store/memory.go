package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/matzehuels/flowlens/pkg/errors"
)

// MemoryStore keeps records in process. Records are stored encoded, so later
// changes to a record passed to Put do not leak into the store.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*Record, error) {
	s.mu.RLock()
	data, ok := s.data[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode record %s: %w", id, err)
	}
	if rec.IsExpired() {
		_ = s.Delete(ctx, id)
		return nil, ErrNotFound
	}
	return &rec, nil
}

func (s *MemoryStore) Put(ctx context.Context, rec *Record) error {
	if err := errors.ValidateDocumentID(rec.ID); err != nil {
		return err
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record %s: %w", rec.ID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[rec.ID] = data
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
	return nil
}

func (s *MemoryStore) Cleanup(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, data := range s.data {
		var rec Record
		if err := json.Unmarshal(data, &rec); err != nil || rec.IsExpired() {
			delete(s.data, id)
			removed++
		}
	}
	return removed, nil
}

func (s *MemoryStore) Close() error { return nil }
