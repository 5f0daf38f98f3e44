package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/drills/pkg/domain"
)

// Store implements ports.RecordStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]domain.Records
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]domain.Records),
	}
}

// Save keeps a copy of the records.
func (s *Store) Save(ctx context.Context, key string, records domain.Records) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = records
	return nil
}

// Merge folds records into the saved ones under the store lock.
func (s *Store) Merge(ctx context.Context, key string, records domain.Records) (domain.Records, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	merged := records
	if saved, ok := s.data[key]; ok {
		merged = saved.Merge(records)
	}
	s.data[key] = merged
	return merged, nil
}

// Load retrieves the records saved under key.
func (s *Store) Load(ctx context.Context, key string) (domain.Records, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records, ok := s.data[key]
	if !ok {
		return domain.Records{}, domain.ErrSessionNotFound
	}
	return records, nil
}

// Delete removes the records.
func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

// List returns the stored keys in lexical order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}
