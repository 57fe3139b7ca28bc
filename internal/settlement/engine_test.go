package settlement

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/radieske/cricwin-ledger/internal/ledger"
	"github.com/radieske/cricwin-ledger/internal/ledger/memstore"
	"github.com/radieske/cricwin-ledger/pkg/contracts/events"
	"github.com/radieske/cricwin-ledger/pkg/contracts/topics"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type fixture struct {
	t     *testing.T
	ctx   context.Context
	store *memstore.Store
	rec   *events.Recorder
	eng   *Engine
}

func newFixture(t *testing.T) *fixture {
	store := memstore.New()
	rec := &events.Recorder{}
	return &fixture{
		t:     t,
		ctx:   context.Background(),
		store: store,
		rec:   rec,
		eng:   NewEngine(store, rec, nil, zap.NewNop(), 2),
	}
}

func (f *fixture) market(id, a, b, oddsA, oddsB string, bonus bool) {
	now := time.Now().UTC()
	require.NoError(f.t, f.store.InTx(f.ctx, func(tx ledger.Tx) error {
		return tx.CreateMarket(f.ctx, &ledger.Market{
			ID: id, TeamA: a, TeamB: b, OddsA: d(oddsA), OddsB: d(oddsB),
			StartTime: now, Status: ledger.MarketLive, BonusFlag: bonus,
			CreatedAt: now, UpdatedAt: now,
		})
	}))
}

func (f *fixture) wallet(user, balance string) {
	require.NoError(f.t, f.store.InTx(f.ctx, func(tx ledger.Tx) error {
		return tx.CreateWallet(f.ctx, &ledger.Wallet{UserID: user, Balance: d(balance)})
	}))
}

// place debita a carteira e grava a aposta como o wager-service faria
func (f *fixture) place(id, user, marketID, selection, stake string) {
	require.NoError(f.t, f.store.InTx(f.ctx, func(tx ledger.Tx) error {
		m, err := tx.Market(f.ctx, marketID, ledger.LockShare)
		if err != nil {
			return err
		}
		odds, err := m.OddsFor(selection)
		if err != nil {
			return err
		}
		w, err := tx.Wallet(f.ctx, user, ledger.LockUpdate)
		if err != nil {
			return err
		}
		if _, err := ledger.Post(f.ctx, tx, w, ledger.EntryWagerStake, d(stake).Neg(), id, time.Now()); err != nil {
			return err
		}
		return tx.CreateWager(f.ctx, &ledger.Wager{
			ID: id, UserID: user, MarketID: marketID, TeamA: m.TeamA, TeamB: m.TeamB,
			Selection: selection, Odds: odds, Stake: d(stake), Status: ledger.WagerPending,
			Payout: decimal.Zero, PlacedAt: time.Now(),
		})
	}))
}

func (f *fixture) setBonus(marketID string, on bool) {
	require.NoError(f.t, f.store.InTx(f.ctx, func(tx ledger.Tx) error {
		m, err := tx.Market(f.ctx, marketID, ledger.LockUpdate)
		if err != nil {
			return err
		}
		m.BonusFlag = on
		return tx.SaveMarket(f.ctx, m)
	}))
}

func (f *fixture) balance(user string) decimal.Decimal {
	var out decimal.Decimal
	require.NoError(f.t, f.store.InTx(f.ctx, func(tx ledger.Tx) error {
		w, err := tx.Wallet(f.ctx, user, ledger.LockNone)
		if err != nil {
			return err
		}
		out = w.Balance
		return nil
	}))
	return out
}

func (f *fixture) wager(id string) ledger.Wager {
	var out ledger.Wager
	require.NoError(f.t, f.store.InTx(f.ctx, func(tx ledger.Tx) error {
		w, err := tx.Wager(f.ctx, id)
		if err != nil {
			return err
		}
		out = *w
		return nil
	}))
	return out
}

func (f *fixture) marketState(id string) ledger.Market {
	var out ledger.Market
	require.NoError(f.t, f.store.InTx(f.ctx, func(tx ledger.Tx) error {
		m, err := tx.Market(f.ctx, id, ledger.LockNone)
		if err != nil {
			return err
		}
		out = *m
		return nil
	}))
	return out
}

func (f *fixture) entriesSum(user string) decimal.Decimal {
	sum := decimal.Zero
	require.NoError(f.t, f.store.InTx(f.ctx, func(tx ledger.Tx) error {
		es, err := tx.Entries(f.ctx, user, 0)
		for _, e := range es {
			sum = sum.Add(e.Amount)
		}
		return err
	}))
	return sum
}

func TestDeclareWinner_PlainWin(t *testing.T) {
	f := newFixture(t)
	f.market("m1", "India", "Australia", "1.70", "2.15", false)
	f.wallet("u1", "1000")
	f.place("w1", "u1", "m1", "India", "500")
	require.True(t, d("500").Equal(f.balance("u1")))

	res, err := f.eng.DeclareWinner(f.ctx, "m1", "India")
	require.NoError(t, err)

	assert.Equal(t, 1, res.Processed)
	assert.Equal(t, 1, res.Won)
	assert.True(t, d("850").Equal(res.TotalPayout))

	w := f.wager("w1")
	assert.Equal(t, ledger.WagerWon, w.Status)
	assert.True(t, d("850").Equal(w.Payout))
	assert.False(t, w.BonusApplied)
	assert.NotNil(t, w.SettledAt)
	assert.True(t, d("1350").Equal(f.balance("u1")))

	m := f.marketState("m1")
	assert.Equal(t, ledger.MarketFinished, m.Status)
	assert.Equal(t, "India", m.Winner)
}

func TestDeclareWinner_BonusDoubles(t *testing.T) {
	f := newFixture(t)
	f.market("m1", "India", "Australia", "1.70", "2.15", true)
	f.wallet("u1", "1000")
	f.place("w1", "u1", "m1", "India", "500")

	res, err := f.eng.DeclareWinner(f.ctx, "m1", "India")
	require.NoError(t, err)
	assert.True(t, res.BonusApplied)

	w := f.wager("w1")
	assert.True(t, d("1700").Equal(w.Payout))
	assert.True(t, w.BonusApplied)
	assert.True(t, d("2200").Equal(f.balance("u1")))
}

func TestDeclareWinner_BonusReadAtSettlement(t *testing.T) {
	f := newFixture(t)
	f.market("m1", "India", "Australia", "1.70", "2.15", false)
	f.wallet("u1", "1000")
	f.place("w1", "u1", "m1", "India", "500")

	// flag ligada depois da aposta e antes da liquidação
	f.setBonus("m1", true)

	_, err := f.eng.DeclareWinner(f.ctx, "m1", "India")
	require.NoError(t, err)
	assert.True(t, d("1700").Equal(f.wager("w1").Payout))
}

func TestDeclareWinner_MixedSides(t *testing.T) {
	f := newFixture(t)
	f.market("m1", "India", "Australia", "1.8", "2.0", false)
	f.wallet("ua", "1000")
	f.wallet("ub", "1000")
	f.place("wa", "ua", "m1", "India", "200")
	f.place("wb", "ub", "m1", "Australia", "300")

	res, err := f.eng.DeclareWinner(f.ctx, "m1", "Australia")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Processed)
	assert.Equal(t, 1, res.Won)
	assert.Equal(t, 1, res.Lost)
	assert.True(t, d("500").Equal(res.TotalStake))

	wa, wb := f.wager("wa"), f.wager("wb")
	assert.Equal(t, ledger.WagerLost, wa.Status)
	assert.True(t, wa.Payout.IsZero())
	assert.Equal(t, ledger.WagerWon, wb.Status)
	assert.True(t, d("600").Equal(wb.Payout))

	assert.True(t, d("800").Equal(f.balance("ua")), "loser untouched after stake")
	assert.True(t, d("1300").Equal(f.balance("ub")), "700 + 600")
}

func TestDeclareWinner_Idempotent(t *testing.T) {
	f := newFixture(t)
	f.market("m1", "India", "Australia", "1.70", "2.15", false)
	f.wallet("u1", "1000")
	f.place("w1", "u1", "m1", "India", "500")

	_, err := f.eng.DeclareWinner(f.ctx, "m1", "India")
	require.NoError(t, err)

	res, err := f.eng.DeclareWinner(f.ctx, "m1", "India")
	require.NoError(t, err)
	assert.Equal(t, 0, res.Processed)
	assert.True(t, res.AlreadyFinished)
	assert.True(t, d("1350").Equal(f.balance("u1")))
	assert.Len(t, f.rec.Messages(topics.MarketSettled), 1)
}

func TestDeclareWinner_Rejections(t *testing.T) {
	f := newFixture(t)
	f.market("m1", "India", "Australia", "1.70", "2.15", false)

	_, err := f.eng.DeclareWinner(f.ctx, "nope", "India")
	assert.ErrorIs(t, err, ledger.ErrMarketNotFound)

	_, err = f.eng.DeclareWinner(f.ctx, "m1", "England")
	assert.ErrorIs(t, err, ledger.ErrInvalidWinner)
	assert.Equal(t, ledger.MarketLive, f.marketState("m1").Status)

	_, err = f.eng.DeclareWinner(f.ctx, "m1", "India")
	require.NoError(t, err)
	_, err = f.eng.DeclareWinner(f.ctx, "m1", "Australia")
	assert.ErrorIs(t, err, ledger.ErrWinnerAlreadyDeclared)
	assert.Equal(t, "India", f.marketState("m1").Winner)
}

func TestDeclareWinner_RollsBackWhenWalletMissing(t *testing.T) {
	f := newFixture(t)
	f.market("m1", "India", "Australia", "1.70", "2.15", false)
	f.wallet("u1", "1000")
	f.place("w1", "u1", "m1", "India", "500")

	// aposta de um usuário sem carteira (ex: carteira removida manualmente)
	require.NoError(t, f.store.InTx(f.ctx, func(tx ledger.Tx) error {
		return tx.CreateWager(f.ctx, &ledger.Wager{
			ID: "ghost", UserID: "gone", MarketID: "m1", Selection: "India",
			Odds: d("1.70"), Stake: d("100"), Status: ledger.WagerPending, PlacedAt: time.Now(),
		})
	}))

	_, err := f.eng.DeclareWinner(f.ctx, "m1", "India")
	assert.ErrorIs(t, err, ledger.ErrWalletNotFound)

	assert.Equal(t, ledger.MarketLive, f.marketState("m1").Status)
	assert.Equal(t, ledger.WagerPending, f.wager("w1").Status)
	assert.True(t, d("500").Equal(f.balance("u1")))
	assert.Empty(t, f.rec.Messages(""))
}

func TestDeclareWinner_ConservesLedger(t *testing.T) {
	f := newFixture(t)
	f.market("m1", "India", "Australia", "1.33", "3.10", true)
	users := []string{"u1", "u2", "u3"}
	for _, u := range users {
		f.wallet(u, "0")
		require.NoError(t, f.store.InTx(f.ctx, func(tx ledger.Tx) error {
			w, err := tx.Wallet(f.ctx, u, ledger.LockUpdate)
			if err != nil {
				return err
			}
			_, err = ledger.Post(f.ctx, tx, w, ledger.EntrySignupBonus, d("1000"), "", time.Now())
			return err
		}))
	}
	f.place("a", "u1", "m1", "India", "150")
	f.place("b", "u1", "m1", "India", "333")
	f.place("c", "u2", "m1", "Australia", "250")
	f.place("e", "u3", "m1", "India", "101")

	res, err := f.eng.DeclareWinner(f.ctx, "m1", "India")
	require.NoError(t, err)
	assert.Equal(t, 3, res.Won)

	// 150*1.33*2=399, 333*1.33*2=885.78, 101*1.33*2=268.66
	assert.True(t, d("1553.44").Equal(res.TotalPayout), res.TotalPayout.String())
	for _, u := range users {
		assert.True(t, f.balance(u).Equal(f.entriesSum(u)), u)
	}
	assert.Len(t, f.rec.Messages(topics.BalanceChanged), 3)
}
