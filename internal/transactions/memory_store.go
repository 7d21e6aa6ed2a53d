package transactions

import (
	"context"
	"sync"

	"github.com/zkredit/vault/internal/pagination"
)

// MemoryStore is an in-memory transaction list for demo/development mode.
type MemoryStore struct {
	mu  sync.RWMutex
	txs []*Transaction // newest first
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an in-memory transaction store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Add(ctx context.Context, tx *Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *tx
	m.txs = append([]*Transaction{&cp}, m.txs...)
	return nil
}

func (m *MemoryStore) List(ctx context.Context, limit int) ([]*Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	txs := m.txs
	if limit > 0 && len(txs) > limit {
		txs = txs[:limit]
	}

	result := make([]*Transaction, len(txs))
	for i, tx := range txs {
		cp := *tx
		result[i] = &cp
	}
	return result, nil
}

func (m *MemoryStore) ListBefore(ctx context.Context, cur *pagination.Cursor, limit int) ([]*Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*Transaction
	for _, tx := range m.txs {
		if cur != nil && !beforeCursor(tx, cur) {
			continue
		}
		cp := *tx
		result = append(result, &cp)
		if limit > 0 && len(result) == limit {
			break
		}
	}
	return result, nil
}

// beforeCursor reports whether tx sorts strictly after the cursor
// position in (created_at, id) descending order.
func beforeCursor(tx *Transaction, cur *pagination.Cursor) bool {
	if tx.CreatedAt.Before(cur.CreatedAt) {
		return true
	}
	return tx.CreatedAt.Equal(cur.CreatedAt) && tx.ID < cur.ID
}

func (m *MemoryStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.txs = nil
	return nil
}
