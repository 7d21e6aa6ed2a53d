package alerts

import (
	"context"
	"strings"
	"sync"
	"time"
)

// MemoryStore is an in-memory alert store for demo/development mode.
type MemoryStore struct {
	mu     sync.RWMutex
	alerts map[string]*PriceAlert
	order  []string // creation order
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an in-memory alert store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{alerts: make(map[string]*PriceAlert)}
}

func (m *MemoryStore) Create(ctx context.Context, alert *PriceAlert) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *alert
	m.alerts[alert.ID] = &cp
	m.order = append(m.order, alert.ID)
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, id string) (*PriceAlert, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	alert, ok := m.alerts[id]
	if !ok {
		return nil, ErrAlertNotFound
	}
	cp := *alert
	return &cp, nil
}

func (m *MemoryStore) ListByEmail(ctx context.Context, email string) ([]*PriceAlert, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := []*PriceAlert{}
	for _, id := range m.order {
		if alert, ok := m.alerts[id]; ok && strings.EqualFold(alert.Email, email) {
			cp := *alert
			result = append(result, &cp)
		}
	}
	return result, nil
}

func (m *MemoryStore) ListActive(ctx context.Context) ([]*PriceAlert, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := []*PriceAlert{}
	for _, id := range m.order {
		if alert, ok := m.alerts[id]; ok && alert.Active {
			cp := *alert
			result = append(result, &cp)
		}
	}
	return result, nil
}

func (m *MemoryStore) SetActive(ctx context.Context, id string, active bool) (*PriceAlert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	alert, ok := m.alerts[id]
	if !ok {
		return nil, ErrAlertNotFound
	}
	alert.Active = active
	cp := *alert
	return &cp, nil
}

func (m *MemoryStore) MarkFired(ctx context.Context, id string, firedAt time.Time, stillActive bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	alert, ok := m.alerts[id]
	if !ok {
		return ErrAlertNotFound
	}
	fired := firedAt
	alert.LastFiredAt = &fired
	alert.Active = stillActive
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.alerts[id]; !ok {
		return ErrAlertNotFound
	}
	delete(m.alerts, id)
	for i, oid := range m.order {
		if oid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}
