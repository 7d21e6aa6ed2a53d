package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/zkredit/vault/internal/idgen"
)

// MemoryStore is an in-memory ledger store for demo/development mode.
type MemoryStore struct {
	mu       sync.RWMutex
	opening  float64
	balances map[string]*Balance
	entries  map[string][]*Entry // wallet → newest first
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an in-memory ledger store. Unknown wallets start
// at the opening balance.
func NewMemoryStore(opening float64) *MemoryStore {
	return &MemoryStore{
		opening:  opening,
		balances: make(map[string]*Balance),
		entries:  make(map[string][]*Entry),
	}
}

func (m *MemoryStore) GetBalance(ctx context.Context, wallet string) (*Balance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	bal := m.seed(wallet)
	cp := *bal
	return &cp, nil
}

func (m *MemoryStore) Apply(ctx context.Context, wallet string, delta float64, reference, description string) (*Balance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	bal := m.seed(wallet)
	bal.Amount = RoundCents(bal.Amount + delta)
	bal.UpdatedAt = time.Now()

	m.entries[wallet] = append([]*Entry{{
		ID:          idgen.WithPrefix("entry_"),
		Wallet:      wallet,
		Delta:       delta,
		Reference:   reference,
		Description: description,
		CreatedAt:   bal.UpdatedAt,
	}}, m.entries[wallet]...)

	cp := *bal
	return &cp, nil
}

func (m *MemoryStore) GetHistory(ctx context.Context, wallet string, limit int) ([]*Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entries := m.entries[wallet]
	if len(entries) > limit {
		entries = entries[:limit]
	}

	result := make([]*Entry, len(entries))
	for i, e := range entries {
		cp := *e
		result[i] = &cp
	}
	return result, nil
}

// seed returns the wallet's balance, creating it at the opening balance if
// missing. Caller holds the write lock.
func (m *MemoryStore) seed(wallet string) *Balance {
	if bal, ok := m.balances[wallet]; ok {
		return bal
	}
	bal := &Balance{
		Wallet:    wallet,
		Amount:    m.opening,
		UpdatedAt: time.Now(),
	}
	m.balances[wallet] = bal
	return bal
}
