// Package ledger tracks the USD balance of each wallet on the dashboard.
//
// Every processed transfer applies a signed USD delta to the wallet's
// balance: sends subtract the USD value, receives add it. Applies are
// serialized per wallet; reads may be slightly stale, which the
// dashboard prefers over blocking a transfer.
package ledger

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/zkredit/vault/internal/syncutil"
)

var (
	ErrWalletNotFound = errors.New("wallet not found")
	ErrInvalidAmount  = errors.New("invalid amount")
)

// Entry records a single balance mutation.
type Entry struct {
	ID          string    `json:"id"`
	Wallet      string    `json:"wallet"`
	Delta       float64   `json:"delta"` // signed USD
	Reference   string    `json:"reference,omitempty"` // transaction ID
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Balance is a wallet's current USD balance.
type Balance struct {
	Wallet    string    `json:"wallet"`
	Amount    float64   `json:"amount"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Store persists balances and their mutation history. Implementations
// seed unknown wallets with an opening balance on first touch.
type Store interface {
	GetBalance(ctx context.Context, wallet string) (*Balance, error)
	Apply(ctx context.Context, wallet string, delta float64, reference, description string) (*Balance, error)
	GetHistory(ctx context.Context, wallet string, limit int) ([]*Entry, error)
}

// Ledger manages wallet balances.
type Ledger struct {
	store Store

	// Per-wallet locks serialize Apply so concurrent transfers to the
	// same wallet commit one at a time. Context-aware so a cancelled
	// request does not queue behind a slow store.
	locks *syncutil.ContextShardedMutex
}

// New creates a new ledger.
func New(store Store) *Ledger {
	return &Ledger{
		store: store,
		locks: syncutil.NewContextShardedMutex(),
	}
}

// GetBalance returns a wallet's current balance, seeding the opening
// balance for wallets never seen before.
func (l *Ledger) GetBalance(ctx context.Context, wallet string) (*Balance, error) {
	defer observeOp("get_balance")()
	return l.store.GetBalance(ctx, strings.ToLower(wallet))
}

// Apply mutates a wallet's balance by a signed USD delta and records the
// entry. Deltas are rounded to cents. Balances may go negative; the
// dashboard surfaces that rather than rejecting the transfer.
func (l *Ledger) Apply(ctx context.Context, wallet string, delta float64, reference, description string) (*Balance, error) {
	if math.IsNaN(delta) || math.IsInf(delta, 0) {
		return nil, ErrInvalidAmount
	}
	defer observeOp("apply")()

	key := strings.ToLower(wallet)
	unlock, err := l.locks.LockContext(ctx, key)
	if err != nil {
		return nil, err
	}
	defer unlock()

	return l.store.Apply(ctx, key, RoundCents(delta), reference, description)
}

// GetHistory returns the most recent balance mutations, newest first.
func (l *Ledger) GetHistory(ctx context.Context, wallet string, limit int) ([]*Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	defer observeOp("get_history")()
	return l.store.GetHistory(ctx, strings.ToLower(wallet), limit)
}

// RoundCents rounds a USD amount to two decimals.
func RoundCents(amount float64) float64 {
	return math.Round(amount*100) / 100
}
