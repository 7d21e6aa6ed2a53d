package creditscore

import (
	"context"
	"strings"
	"sync"
)

// MemoryStore is an in-memory credit score store for demo/development mode.
type MemoryStore struct {
	mu     sync.RWMutex
	scores map[string]*CreditScore // lowercased wallet → score
}

// NewMemoryStore creates a new in-memory credit score store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		scores: make(map[string]*CreditScore),
	}
}

func (m *MemoryStore) Get(ctx context.Context, wallet string) (*CreditScore, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	score, ok := m.scores[strings.ToLower(wallet)]
	if !ok {
		return nil, ErrScoreNotFound
	}
	return score.Clone(), nil
}

func (m *MemoryStore) Put(ctx context.Context, wallet string, score *CreditScore) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.scores[strings.ToLower(wallet)] = score.Clone()
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, wallet string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.scores, strings.ToLower(wallet))
	return nil
}
