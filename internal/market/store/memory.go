package store

import (
	"context"
	"sync"

	"namemart/internal/market"
	id "namemart/pkg/domain"
	"namemart/pkg/platform/sentinel"
)

// InMemoryStore keeps sale records in a mutex-guarded map. Dev and test
// wiring only.
type InMemoryStore struct {
	mu    sync.RWMutex
	sales map[id.NameKey]market.Sale
}

func NewMemory() *InMemoryStore {
	return &InMemoryStore{sales: make(map[id.NameKey]market.Sale)}
}

func (s *InMemoryStore) Get(_ context.Context, key id.NameKey) (*market.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sale, ok := s.sales[key]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := sale
	return &copied, nil
}

func (s *InMemoryStore) Put(_ context.Context, sale *market.Sale) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sales[sale.Key] = *sale
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, key id.NameKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sales, key)
	return nil
}
