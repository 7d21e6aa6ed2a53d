package ledger

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zkredit/vault/internal/testutil"
)

func TestPostgresStore_SeedAndApply(t *testing.T) {
	db, cleanup := testutil.PGTest(t)
	defer cleanup()

	store := NewPostgresStore(db, 25000)
	ctx := context.Background()
	wallet := strings.ToLower(testWallet)

	bal, err := store.GetBalance(ctx, wallet)
	require.NoError(t, err)
	assert.InDelta(t, 25000, bal.Amount, 0.001)

	bal, err = store.Apply(ctx, wallet, -18786.16, "tx-1", "send 7.51 ETH")
	require.NoError(t, err)
	assert.InDelta(t, 6213.84, bal.Amount, 0.001)

	bal, err = store.Apply(ctx, wallet, 8756.60, "tx-2", "")
	require.NoError(t, err)
	assert.InDelta(t, 14970.44, bal.Amount, 0.001)

	entries, err := store.GetHistory(ctx, wallet, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "tx-2", entries[0].Reference)
	assert.Equal(t, "tx-1", entries[1].Reference)
}

func TestPostgresStore_ApplySeedsUnknownWallet(t *testing.T) {
	db, cleanup := testutil.PGTest(t)
	defer cleanup()

	store := NewPostgresStore(db, 1000)
	ctx := context.Background()

	bal, err := store.Apply(ctx, "0xfresh000000", -100, "tx-1", "")
	require.NoError(t, err)
	assert.InDelta(t, 900, bal.Amount, 0.001)
}
