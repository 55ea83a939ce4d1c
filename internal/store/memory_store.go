package store

import (
	"context"
	"sync"
)

// maxMemoryRecords bounds the in-memory audit trail.
const maxMemoryRecords = 10000

// MemoryStore is an in-memory audit store for demo/test use.
type MemoryStore struct {
	mu      sync.RWMutex
	records []*Transaction
}

// NewMemoryStore creates an in-memory transaction audit store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Record(ctx context.Context, tx *Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *tx
	s.records = append(s.records, &cp)
	if len(s.records) > maxMemoryRecords {
		s.records = s.records[len(s.records)-maxMemoryRecords:]
	}
	return nil
}

func (s *MemoryStore) ListRecent(ctx context.Context, limit int) ([]*Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || len(s.records) == 0 {
		return nil, nil
	}

	start := len(s.records) - limit
	if start < 0 {
		start = 0
	}

	// Most recent first
	result := make([]*Transaction, 0, len(s.records)-start)
	for i := len(s.records) - 1; i >= start; i-- {
		cp := *s.records[i]
		result = append(result, &cp)
	}
	return result, nil
}
