// Package settlement liquida todas as apostas pendentes de um mercado numa única transação.
package settlement

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/cricwin-ledger/internal/ledger"
	"github.com/radieske/cricwin-ledger/internal/shared/metrics"
	"github.com/radieske/cricwin-ledger/pkg/contracts/events"
	"github.com/radieske/cricwin-ledger/pkg/contracts/topics"
)

// Result resume uma chamada de DeclareWinner
type Result struct {
	MarketID        string          `json:"marketId"`
	Winner          string          `json:"winner"`
	Processed       int             `json:"processed"`
	Won             int             `json:"won"`
	Lost            int             `json:"lost"`
	TotalStake      decimal.Decimal `json:"totalStake"`
	TotalPayout     decimal.Decimal `json:"totalPayout"`
	BonusApplied    bool            `json:"bonusApplied"`
	AlreadyFinished bool            `json:"alreadyFinished"`
}

type Engine struct {
	store           ledger.Store
	pub             events.Publisher
	m               *metrics.Ledger
	log             *zap.Logger
	bonusMultiplier int64
	now             func() time.Time
}

// NewEngine; m pode ser nil quando métricas não interessam (ex: testes)
func NewEngine(store ledger.Store, pub events.Publisher, m *metrics.Ledger, log *zap.Logger, bonusMultiplier int64) *Engine {
	return &Engine{
		store:           store,
		pub:             pub,
		m:               m,
		log:             log,
		bonusMultiplier: bonusMultiplier,
		now:             time.Now,
	}
}

// DeclareWinner encerra o mercado com o vencedor e liquida as apostas pendentes.
// Tudo (mercado, apostas, carteiras, lançamentos) é gravado na mesma transação.
// Repetir a chamada com o mesmo vencedor não encontra nada pendente e devolve Processed=0.
func (e *Engine) DeclareWinner(ctx context.Context, marketID, winner string) (*Result, error) {
	start := time.Now()

	var res *Result
	var credits []events.BalanceChanged

	err := e.store.InTx(ctx, func(tx ledger.Tx) error {
		res = &Result{MarketID: marketID, Winner: winner, TotalStake: decimal.Zero, TotalPayout: decimal.Zero}
		credits = credits[:0]

		m, err := tx.Market(ctx, marketID, ledger.LockUpdate)
		if err != nil {
			return err
		}
		if !m.IsSide(winner) {
			return ledger.ErrInvalidWinner
		}
		if m.Status == ledger.MarketFinished && m.Winner != winner {
			return ledger.ErrWinnerAlreadyDeclared
		}

		// o bônus vale pelo valor no momento da liquidação
		bonus := m.BonusFlag
		mult := ledger.Multiplier(bonus, e.bonusMultiplier)
		res.BonusApplied = bonus
		now := e.now().UTC()

		if m.Status == ledger.MarketFinished {
			res.AlreadyFinished = true
		} else {
			m.Status = ledger.MarketFinished
			m.Winner = winner
			m.UpdatedAt = now
			if err := tx.SaveMarket(ctx, m); err != nil {
				return err
			}
		}

		pending, err := tx.PendingWagers(ctx, marketID)
		if err != nil {
			return err
		}

		winners := make(map[string][]ledger.Wager)
		for _, w := range pending {
			settledAt := now
			w.SettledAt = &settledAt
			res.Processed++
			res.TotalStake = res.TotalStake.Add(w.Stake)

			if w.Selection == winner {
				w.Status = ledger.WagerWon
				w.Payout = ledger.Payout(w.Stake, w.Odds, mult)
				w.BonusApplied = bonus
				res.Won++
				res.TotalPayout = res.TotalPayout.Add(w.Payout)
				winners[w.UserID] = append(winners[w.UserID], w)
			} else {
				w.Status = ledger.WagerLost
				w.Payout = decimal.Zero
				w.BonusApplied = false
				res.Lost++
			}
			if err := tx.SaveWager(ctx, &w); err != nil {
				return fmt.Errorf("save wager %s: %w", w.ID, err)
			}
		}

		// carteiras travadas em ordem de userID
		users := make([]string, 0, len(winners))
		for uid := range winners {
			users = append(users, uid)
		}
		sort.Strings(users)

		for _, uid := range users {
			wal, err := tx.Wallet(ctx, uid, ledger.LockUpdate)
			if err != nil {
				return fmt.Errorf("wallet %s: %w", uid, err)
			}
			for _, w := range winners[uid] {
				wal.TotalWinnings = wal.TotalWinnings.Add(w.Payout)
				entry, err := ledger.Post(ctx, tx, wal, ledger.EntryWagerPayout, w.Payout, w.ID, now)
				if err != nil {
					return fmt.Errorf("credit wager %s: %w", w.ID, err)
				}
				credits = append(credits, events.BalanceChanged{
					UserID:  uid,
					Kind:    string(entry.Kind),
					Amount:  entry.Amount,
					Balance: entry.BalanceAfter,
					Ref:     entry.Ref,
					Ts:      now,
				})
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.observe(res, time.Since(start))
	e.log.Info("market settled",
		zap.String("market_id", marketID),
		zap.String("winner", winner),
		zap.Int("processed", res.Processed),
		zap.Int("won", res.Won),
		zap.Int("lost", res.Lost),
		zap.String("total_payout", res.TotalPayout.String()),
		zap.Bool("bonus", res.BonusApplied),
	)

	if !res.AlreadyFinished || res.Processed > 0 {
		e.publish(ctx, topics.MarketSettled, marketID, events.MarketSettled{
			MarketID:     res.MarketID,
			Winner:       res.Winner,
			Processed:    res.Processed,
			Won:          res.Won,
			Lost:         res.Lost,
			TotalStake:   res.TotalStake,
			TotalPayout:  res.TotalPayout,
			BonusApplied: res.BonusApplied,
			Ts:           e.now().UTC(),
		})
	}
	for _, c := range credits {
		e.publish(ctx, topics.BalanceChanged, c.UserID, c)
	}
	return res, nil
}

// publish após o commit: falha de entrega não desfaz a liquidação
func (e *Engine) publish(ctx context.Context, topic, key string, ev any) {
	if e.pub == nil {
		return
	}
	if err := e.pub.Publish(ctx, topic, key, ev); err != nil {
		e.log.Warn("publish failed", zap.String("topic", topic), zap.String("key", key), zap.Error(err))
	}
}

func (e *Engine) observe(res *Result, took time.Duration) {
	if e.m == nil {
		return
	}
	e.m.SettlementTiming.Observe(took.Seconds())
	if res.AlreadyFinished && res.Processed == 0 {
		return
	}
	e.m.Settlements.Inc()
	e.m.WagersSettled.WithLabelValues("won").Add(float64(res.Won))
	e.m.WagersSettled.WithLabelValues("lost").Add(float64(res.Lost))
	e.m.PayoutVolume.Add(res.TotalPayout.InexactFloat64())
}
