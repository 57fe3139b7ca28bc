package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/cricwin-ledger/internal/ledger"
	"github.com/radieske/cricwin-ledger/internal/market-service/cache"
	"github.com/radieske/cricwin-ledger/internal/settlement"
	"github.com/radieske/cricwin-ledger/pkg/contracts/events"
	"github.com/radieske/cricwin-ledger/pkg/contracts/topics"
)

// Settler é implementado por settlement.Engine
type Settler interface {
	DeclareWinner(ctx context.Context, marketID, winner string) (*settlement.Result, error)
}

type CreateInput struct {
	TeamA      string
	TeamB      string
	OddsA      decimal.Decimal
	OddsB      decimal.Decimal
	StartTime  time.Time
	BonusFlag  bool
	Tournament string
}

// Service gerencia o ciclo de vida dos mercados.
// cache pode ser nil (leituras vão direto ao store).
type Service struct {
	store   ledger.Store
	cache   *cache.Cache
	pub     events.Publisher
	settler Settler
	log     *zap.Logger
	now     func() time.Time
	newID   func() string
}

func New(store ledger.Store, c *cache.Cache, pub events.Publisher, settler Settler, log *zap.Logger) *Service {
	return &Service{
		store:   store,
		cache:   c,
		pub:     pub,
		settler: settler,
		log:     log,
		now:     time.Now,
		newID:   func() string { return uuid.New().String() },
	}
}

// Create grava o mercado em Upcoming, sem vencedor. As odds são arredondadas
// antes da validação, então 0.001 vira zero e é recusado.
func (s *Service) Create(ctx context.Context, in CreateInput) (*ledger.Market, error) {
	now := s.now().UTC()
	m := &ledger.Market{
		ID:         s.newID(),
		TeamA:      strings.TrimSpace(in.TeamA),
		TeamB:      strings.TrimSpace(in.TeamB),
		OddsA:      in.OddsA.Round(ledger.OddsPlaces),
		OddsB:      in.OddsB.Round(ledger.OddsPlaces),
		Tournament: strings.TrimSpace(in.Tournament),
		StartTime:  in.StartTime.UTC(),
		Status:     ledger.MarketUpcoming,
		BonusFlag:  in.BonusFlag,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.InTx(ctx, func(tx ledger.Tx) error {
		return tx.CreateMarket(ctx, m)
	}); err != nil {
		return nil, err
	}

	s.changed(ctx, m, events.MarketCreated)
	return m, nil
}

// Transition aplica a política forward-only (Upcoming -> Live).
// Repetir o status atual é no-op; Finished só via DeclareWinner.
func (s *Service) Transition(ctx context.Context, id string, to ledger.MarketStatus) (*ledger.Market, error) {
	var out *ledger.Market
	changed := false
	err := s.store.InTx(ctx, func(tx ledger.Tx) error {
		m, err := tx.Market(ctx, id, ledger.LockUpdate)
		if err != nil {
			return err
		}
		out = m
		if m.Status == to {
			return nil
		}
		if !ledger.CanTransition(m.Status, to) {
			return ledger.ErrInvalidTransition
		}
		m.Status = to
		m.UpdatedAt = s.now().UTC()
		changed = true
		return tx.SaveMarket(ctx, m)
	})
	if err != nil {
		return nil, err
	}
	if changed {
		s.changed(ctx, out, events.MarketStatusChanged)
	}
	return out, nil
}

// ToggleBonus inverte a flag em qualquer status; apostas já liquidadas não mudam
func (s *Service) ToggleBonus(ctx context.Context, id string) (*ledger.Market, error) {
	var out *ledger.Market
	err := s.store.InTx(ctx, func(tx ledger.Tx) error {
		m, err := tx.Market(ctx, id, ledger.LockUpdate)
		if err != nil {
			return err
		}
		m.BonusFlag = !m.BonusFlag
		m.UpdatedAt = s.now().UTC()
		out = m
		return tx.SaveMarket(ctx, m)
	})
	if err != nil {
		return nil, err
	}
	s.changed(ctx, out, events.MarketBonusToggled)
	return out, nil
}

// Delete remove só o mercado; apostas mantêm o snapshot e, se pendentes, continuam pendentes
func (s *Service) Delete(ctx context.Context, id string) error {
	var m *ledger.Market
	err := s.store.InTx(ctx, func(tx ledger.Tx) error {
		var err error
		if m, err = tx.Market(ctx, id, ledger.LockUpdate); err != nil {
			return err
		}
		return tx.DeleteMarket(ctx, id)
	})
	if err != nil {
		return err
	}
	s.changed(ctx, m, events.MarketDeleted)
	return nil
}

// DeclareWinner delega a liquidação e invalida o cache do mercado
func (s *Service) DeclareWinner(ctx context.Context, id, winner string) (*settlement.Result, error) {
	res, err := s.settler.DeclareWinner(ctx, id, strings.TrimSpace(winner))
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, id)
	return res, nil
}

func (s *Service) Get(ctx context.Context, id string) (*ledger.Market, error) {
	gen, cacheable := s.cachedGeneration(ctx)
	if cacheable {
		if m, ok, err := s.cache.GetMarket(ctx, id); err == nil && ok {
			return m, nil
		}
	}

	var out *ledger.Market
	err := s.store.InTx(ctx, func(tx ledger.Tx) error {
		var err error
		out, err = tx.Market(ctx, id, ledger.LockNone)
		return err
	})
	if err != nil {
		return nil, err
	}
	if cacheable {
		ok, err := s.cache.SetMarket(ctx, gen, out)
		s.cacheStored(ok, err, "market:"+id)
	}
	return out, nil
}

// List ordena por data de início; status vazio lista todos
func (s *Service) List(ctx context.Context, status ledger.MarketStatus) ([]ledger.Market, error) {
	gen, cacheable := s.cachedGeneration(ctx)
	if cacheable {
		if ms, ok, err := s.cache.GetList(ctx, status); err == nil && ok {
			return ms, nil
		}
	}

	var out []ledger.Market
	err := s.store.InTx(ctx, func(tx ledger.Tx) error {
		var err error
		out, err = tx.Markets(ctx, ledger.MarketFilter{Status: status})
		return err
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []ledger.Market{}
	}
	if cacheable {
		ok, err := s.cache.SetList(ctx, gen, status, out)
		s.cacheStored(ok, err, "markets:"+string(status))
	}
	return out, nil
}

// cachedGeneration lê a geração antes do banco; sem ela a leitura não usa o cache
func (s *Service) cachedGeneration(ctx context.Context) (int64, bool) {
	if s.cache == nil {
		return 0, false
	}
	gen, err := s.cache.Generation(ctx)
	if err != nil {
		s.log.Warn("cache generation failed", zap.Error(err))
		return 0, false
	}
	return gen, true
}

func (s *Service) cacheStored(ok bool, err error, key string) {
	switch {
	case err != nil:
		s.log.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	case !ok:
		s.log.Debug("cache set skipped, invalidated during read", zap.String("key", key))
	}
}

func (s *Service) invalidate(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, id); err != nil {
		s.log.Warn("cache invalidate failed", zap.String("market_id", id), zap.Error(err))
	}
}

// changed invalida o cache e publica market_updated
func (s *Service) changed(ctx context.Context, m *ledger.Market, action string) {
	s.invalidate(ctx, m.ID)
	s.log.Info("market updated", zap.String("market_id", m.ID), zap.String("action", action), zap.String("status", string(m.Status)))

	if s.pub == nil {
		return
	}
	ev := events.MarketUpdated{
		MarketID:  m.ID,
		Action:    action,
		TeamA:     m.TeamA,
		TeamB:     m.TeamB,
		OddsA:     m.OddsA,
		OddsB:     m.OddsB,
		Status:    string(m.Status),
		BonusFlag: m.BonusFlag,
		Ts:        s.now().UTC(),
	}
	if err := s.pub.Publish(ctx, topics.MarketUpdated, m.ID, ev); err != nil {
		s.log.Warn("publish failed", zap.String("topic", topics.MarketUpdated), zap.Error(err))
	}
}
