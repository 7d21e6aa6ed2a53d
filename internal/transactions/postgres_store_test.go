package transactions

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zkredit/vault/internal/pagination"
	"github.com/zkredit/vault/internal/risk"
	"github.com/zkredit/vault/internal/testutil"
)

func TestPostgresStore_AddListClear(t *testing.T) {
	db, cleanup := testutil.PGTest(t)
	defer cleanup()

	store := NewPostgresStore(db)
	ctx := context.Background()

	score := 85
	first := &Transaction{
		ID:          uuid.NewString(),
		Type:        TypeSend,
		Status:      StatusCompleted,
		Amount:      "7.51",
		Token:       "ETH",
		Value:       "$18,786.16",
		Address:     "0x45A...9f7C",
		Timestamp:   DisplayTimestamp(time.Now()),
		GasUsed:     "0.00483 ETH",
		Description: "Groceries",
		RiskLevel:   risk.LevelCritical,
		RiskScore:   &score,
		CreatedAt:   time.Now().Add(-time.Minute),
	}
	second := &Transaction{
		ID:        uuid.NewString(),
		Type:      TypeReceive,
		Status:    StatusCompleted,
		Amount:    "0.12",
		Token:     "BTC",
		Value:     "$8,756.60",
		Address:   "0x8f26D3b31C3F6022a91fC0D16BE8Cba6A5E24E3F",
		Timestamp: DisplayTimestamp(time.Now()),
		GasUsed:   "0.01583 ETH",
		CreatedAt: time.Now(),
	}

	require.NoError(t, store.Add(ctx, first))
	require.NoError(t, store.Add(ctx, second))

	txs, err := store.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, txs, 2)

	// newest first
	assert.Equal(t, second.ID, txs[0].ID)
	assert.Empty(t, txs[0].RiskLevel)
	assert.Nil(t, txs[0].RiskScore)

	assert.Equal(t, first.ID, txs[1].ID)
	assert.Equal(t, risk.LevelCritical, txs[1].RiskLevel)
	require.NotNil(t, txs[1].RiskScore)
	assert.Equal(t, 85, *txs[1].RiskScore)
	assert.Equal(t, "Groceries", txs[1].Description)

	require.NoError(t, store.Clear(ctx))
	txs, err = store.List(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestPostgresStore_ListBefore(t *testing.T) {
	db, cleanup := testutil.PGTest(t)
	defer cleanup()

	store := NewPostgresStore(db)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	var ids []string
	for i := 0; i < 4; i++ {
		tx := &Transaction{
			ID:        uuid.NewString(),
			Type:      TypeReceive,
			Status:    StatusCompleted,
			Amount:    "1.00",
			Token:     "ETH",
			Value:     "$2,490.78",
			Timestamp: DisplayTimestamp(base),
			GasUsed:   "0.00100 ETH",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, store.Add(ctx, tx))
		ids = append(ids, tx.ID)
	}

	first, err := store.ListBefore(ctx, nil, 2)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, ids[3], first[0].ID)

	cur := &pagination.Cursor{CreatedAt: first[1].CreatedAt, ID: first[1].ID}
	second, err := store.ListBefore(ctx, cur, 10)
	require.NoError(t, err)
	require.Len(t, second, 2)
	assert.Equal(t, ids[1], second[0].ID)
	assert.Equal(t, ids[0], second[1].ID)
}
