package store

import (
	"context"
	"sync"

	id "namemart/pkg/domain"
)

// InMemoryStore keeps pending balances in a mutex-guarded map. Dev and test
// wiring only.
type InMemoryStore struct {
	mu       sync.Mutex
	balances map[id.Address]id.Amount
}

func NewMemory() *InMemoryStore {
	return &InMemoryStore{balances: make(map[id.Address]id.Amount)}
}

func (s *InMemoryStore) Credit(_ context.Context, account id.Address, amount id.Amount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances[account] += amount
	return nil
}

func (s *InMemoryStore) Debit(_ context.Context, account id.Address) (id.Amount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	amount := s.balances[account]
	delete(s.balances, account)
	return amount, nil
}

func (s *InMemoryStore) Balance(_ context.Context, account id.Address) (id.Amount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balances[account], nil
}
