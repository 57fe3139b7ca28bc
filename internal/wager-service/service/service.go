package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/cricwin-ledger/internal/ledger"
	"github.com/radieske/cricwin-ledger/internal/shared/config"
	"github.com/radieske/cricwin-ledger/internal/shared/metrics"
	"github.com/radieske/cricwin-ledger/pkg/contracts/events"
	"github.com/radieske/cricwin-ledger/pkg/contracts/topics"
)

// PlaceInput é o pedido de aposta já autenticado
type PlaceInput struct {
	UserID    string
	UserEmail string
	MarketID  string
	Selection string
	Stake     decimal.Decimal
}

// Placement é o resultado de uma aposta aceita
type Placement struct {
	Wager   ledger.Wager    `json:"wager"`
	Balance decimal.Decimal `json:"balance"`
}

type Service struct {
	store  ledger.Store
	pub    events.Publisher
	m      *metrics.Ledger
	log    *zap.Logger
	policy config.Policy
	now    func() time.Time
	newID  func() string
}

func New(store ledger.Store, pub events.Publisher, m *metrics.Ledger, log *zap.Logger, policy config.Policy) *Service {
	return &Service{
		store:  store,
		pub:    pub,
		m:      m,
		log:    log,
		policy: policy,
		now:    time.Now,
		newID:  func() string { return uuid.New().String() },
	}
}

// validateStake roda antes de qualquer leitura ou escrita
func (s *Service) validateStake(stake decimal.Decimal) error {
	if !stake.IsPositive() {
		return ledger.ErrStakeNotPositive
	}
	if stake.LessThan(s.policy.MinStake) {
		return ledger.ErrStakeBelowMinimum
	}
	if s.policy.MaxStake.IsPositive() && stake.GreaterThan(s.policy.MaxStake) {
		return ledger.ErrStakeAboveMaximum
	}
	return nil
}

// PlaceWager valida, debita a carteira e grava a aposta na mesma transação.
// O saldo é conferido com a linha da carteira travada (FOR UPDATE), então duas
// apostas simultâneas do mesmo usuário são serializadas.
func (s *Service) PlaceWager(ctx context.Context, in PlaceInput) (*Placement, error) {
	in.Selection = strings.TrimSpace(in.Selection)
	in.Stake = in.Stake.Round(ledger.MoneyPlaces)
	if err := s.validateStake(in.Stake); err != nil {
		s.reject(err)
		return nil, err
	}

	var out *Placement
	var entry *ledger.Entry
	err := s.store.InTx(ctx, func(tx ledger.Tx) error {
		m, err := tx.Market(ctx, in.MarketID, ledger.LockShare)
		if err != nil {
			return err
		}
		if m.Status == ledger.MarketFinished {
			return ledger.ErrMarketClosed
		}
		odds, err := m.OddsFor(in.Selection)
		if err != nil {
			return err
		}

		wal, err := tx.Wallet(ctx, in.UserID, ledger.LockUpdate)
		if err != nil {
			return err
		}
		if wal.Balance.LessThan(in.Stake) {
			return ledger.ErrInsufficientBalance
		}

		now := s.now().UTC()
		w := ledger.Wager{
			ID:        s.newID(),
			UserID:    in.UserID,
			UserEmail: in.UserEmail,
			MarketID:  m.ID,
			TeamA:     m.TeamA,
			TeamB:     m.TeamB,
			Selection: in.Selection,
			Odds:      odds,
			Stake:     in.Stake,
			Status:    ledger.WagerPending,
			Payout:    decimal.Zero,
			PlacedAt:  now,
		}
		if err := tx.CreateWager(ctx, &w); err != nil {
			return err
		}

		wal.TotalWagers++
		entry, err = ledger.Post(ctx, tx, wal, ledger.EntryWagerStake, in.Stake.Neg(), w.ID, now)
		if err != nil {
			return err
		}
		out = &Placement{Wager: w, Balance: wal.Balance}
		return nil
	})
	if err != nil {
		s.reject(err)
		return nil, err
	}

	if s.m != nil {
		s.m.WagersPlaced.Inc()
		s.m.StakeVolume.Add(in.Stake.InexactFloat64())
	}
	s.log.Info("wager placed",
		zap.String("wager_id", out.Wager.ID),
		zap.String("user_id", in.UserID),
		zap.String("market_id", in.MarketID),
		zap.String("stake", in.Stake.String()),
	)

	w := out.Wager
	s.publish(ctx, topics.WagerPlaced, w.MarketID, events.WagerPlaced{
		WagerID: w.ID, UserID: w.UserID, MarketID: w.MarketID,
		Selection: w.Selection, Odds: w.Odds, Stake: w.Stake, Ts: w.PlacedAt,
	})
	s.publish(ctx, topics.BalanceChanged, w.UserID, events.BalanceChanged{
		UserID: w.UserID, Kind: string(entry.Kind), Amount: entry.Amount,
		Balance: entry.BalanceAfter, Ref: entry.Ref, Ts: entry.CreatedAt,
	})
	return out, nil
}

func (s *Service) Get(ctx context.Context, id string) (*ledger.Wager, error) {
	var out *ledger.Wager
	err := s.store.InTx(ctx, func(tx ledger.Tx) error {
		var err error
		out, err = tx.Wager(ctx, id)
		return err
	})
	return out, err
}

// ListByUser devolve as apostas do usuário, mais recentes primeiro
func (s *Service) ListByUser(ctx context.Context, userID string, status ledger.WagerStatus, limit int) ([]ledger.Wager, error) {
	return s.list(ctx, ledger.WagerFilter{UserID: userID, Status: status, Limit: limit})
}

// ListByMarket é a visão do admin sobre um mercado
func (s *Service) ListByMarket(ctx context.Context, marketID string, status ledger.WagerStatus, limit int) ([]ledger.Wager, error) {
	return s.list(ctx, ledger.WagerFilter{MarketID: marketID, Status: status, Limit: limit})
}

func (s *Service) list(ctx context.Context, f ledger.WagerFilter) ([]ledger.Wager, error) {
	var out []ledger.Wager
	err := s.store.InTx(ctx, func(tx ledger.Tx) error {
		var err error
		out, err = tx.Wagers(ctx, f)
		return err
	})
	if out == nil {
		out = []ledger.Wager{}
	}
	return out, err
}

func (s *Service) publish(ctx context.Context, topic, key string, ev any) {
	if s.pub == nil {
		return
	}
	if err := s.pub.Publish(ctx, topic, key, ev); err != nil {
		s.log.Warn("publish failed", zap.String("topic", topic), zap.Error(err))
	}
}

func (s *Service) reject(err error) {
	if s.m == nil {
		return
	}
	s.m.WagersRejected.WithLabelValues(rejectReason(err)).Inc()
}

func rejectReason(err error) string {
	for _, r := range []struct {
		err    error
		reason string
	}{
		{ledger.ErrStakeNotPositive, "stake_not_positive"},
		{ledger.ErrStakeBelowMinimum, "stake_below_minimum"},
		{ledger.ErrStakeAboveMaximum, "stake_above_maximum"},
		{ledger.ErrInsufficientBalance, "insufficient_balance"},
		{ledger.ErrInvalidSelection, "invalid_selection"},
		{ledger.ErrMarketClosed, "market_closed"},
		{ledger.ErrMarketNotFound, "market_not_found"},
		{ledger.ErrWalletNotFound, "wallet_not_found"},
	} {
		if errors.Is(err, r.err) {
			return r.reason
		}
	}
	return "internal"
}
