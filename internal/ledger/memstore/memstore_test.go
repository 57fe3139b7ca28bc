package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radieske/cricwin-ledger/internal/ledger"
)

func TestInTx_DiscardsOnError(t *testing.T) {
	s := New()
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.InTx(ctx, func(tx ledger.Tx) error {
		require.NoError(t, tx.CreateWallet(ctx, &ledger.Wallet{UserID: "u1", Balance: decimal.NewFromInt(1000)}))
		require.NoError(t, tx.CreateMarket(ctx, &ledger.Market{ID: "m1", TeamA: "A", TeamB: "B"}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_ = s.InTx(ctx, func(tx ledger.Tx) error {
		_, err := tx.Wallet(ctx, "u1", ledger.LockNone)
		assert.ErrorIs(t, err, ledger.ErrWalletNotFound)
		_, err = tx.Market(ctx, "m1", ledger.LockNone)
		assert.ErrorIs(t, err, ledger.ErrMarketNotFound)
		return nil
	})
}

func TestInTx_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	err := New().InTx(ctx, func(ledger.Tx) error { called = true; return nil })
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestOrdering(t *testing.T) {
	s := New()
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.InTx(ctx, func(tx ledger.Tx) error {
		require.NoError(t, tx.CreateMarket(ctx, &ledger.Market{ID: "late", StartTime: base.Add(2 * time.Hour), Status: ledger.MarketUpcoming}))
		require.NoError(t, tx.CreateMarket(ctx, &ledger.Market{ID: "early", StartTime: base, Status: ledger.MarketLive}))
		for i, id := range []string{"w1", "w2", "w3"} {
			require.NoError(t, tx.CreateWager(ctx, &ledger.Wager{ID: id, UserID: "u1", MarketID: "late", Status: ledger.WagerPending, PlacedAt: base.Add(time.Duration(i) * time.Minute)}))
		}
		require.NoError(t, tx.CreateWallet(ctx, &ledger.Wallet{UserID: "b", Balance: decimal.NewFromInt(10)}))
		require.NoError(t, tx.CreateWallet(ctx, &ledger.Wallet{UserID: "a", Balance: decimal.NewFromInt(10)}))
		require.NoError(t, tx.CreateWallet(ctx, &ledger.Wallet{UserID: "c", Balance: decimal.NewFromInt(99)}))
		return nil
	}))

	_ = s.InTx(ctx, func(tx ledger.Tx) error {
		ms, _ := tx.Markets(ctx, ledger.MarketFilter{})
		require.Len(t, ms, 2)
		assert.Equal(t, "early", ms[0].ID)

		live, _ := tx.Markets(ctx, ledger.MarketFilter{Status: ledger.MarketLive})
		assert.Len(t, live, 1)

		ws, _ := tx.Wagers(ctx, ledger.WagerFilter{UserID: "u1", Limit: 2})
		require.Len(t, ws, 2)
		assert.Equal(t, "w3", ws[0].ID)

		top, _ := tx.TopWallets(ctx, 2)
		require.Len(t, top, 2)
		assert.Equal(t, "c", top[0].UserID)
		assert.Equal(t, "a", top[1].UserID)
		return nil
	})
}

func TestCreateWallet_KeepsExisting(t *testing.T) {
	s := New()
	ctx := context.Background()
	_ = s.InTx(ctx, func(tx ledger.Tx) error {
		require.NoError(t, tx.CreateWallet(ctx, &ledger.Wallet{UserID: "u1", Balance: decimal.NewFromInt(1000)}))
		require.NoError(t, tx.CreateWallet(ctx, &ledger.Wallet{UserID: "u1", Balance: decimal.NewFromInt(5)}))
		w, err := tx.Wallet(ctx, "u1", ledger.LockNone)
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(1000).Equal(w.Balance))
		return nil
	})
}
