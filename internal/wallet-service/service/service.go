package service

import (
	"context"
	"errors"
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

const DefaultLeaderboardSize = 10

// Service concentra carteira, extrato e pedidos de recarga/saque.
// Todo movimento de saldo passa por ledger.Post.
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

// EnsureWallet cria a carteira no primeiro acesso e credita o bônus inicial.
// O bônus só entra se a carteira ainda não tem lançamentos, então chamadas concorrentes
// para o mesmo usuário creditam uma única vez.
func (s *Service) EnsureWallet(ctx context.Context, userID, email string) (*ledger.Wallet, error) {
	var out *ledger.Wallet
	var bonus *ledger.Entry
	err := s.store.InTx(ctx, func(tx ledger.Tx) error {
		bonus = nil
		w, err := tx.Wallet(ctx, userID, ledger.LockUpdate)
		if err == nil {
			out = w
			return nil
		}
		if !errors.Is(err, ledger.ErrWalletNotFound) {
			return err
		}

		now := s.now().UTC()
		if err := tx.CreateWallet(ctx, &ledger.Wallet{
			UserID:    userID,
			Email:     email,
			Balance:   decimal.Zero,
			CreatedAt: now,
			UpdatedAt: now,
		}); err != nil {
			return err
		}
		if w, err = tx.Wallet(ctx, userID, ledger.LockUpdate); err != nil {
			return err
		}
		out = w

		prior, err := tx.Entries(ctx, userID, 1)
		if err != nil {
			return err
		}
		if len(prior) > 0 || !s.policy.StartingBonus.IsPositive() {
			return nil
		}
		bonus, err = ledger.Post(ctx, tx, w, ledger.EntrySignupBonus, s.policy.StartingBonus, "", now)
		return err
	})
	if err != nil {
		return nil, err
	}
	if bonus != nil {
		s.log.Info("wallet created", zap.String("user_id", userID), zap.String("bonus", bonus.Amount.String()))
		s.balanceChanged(ctx, bonus)
	}
	return out, nil
}

func (s *Service) Wallet(ctx context.Context, userID string) (*ledger.Wallet, error) {
	var out *ledger.Wallet
	err := s.store.InTx(ctx, func(tx ledger.Tx) error {
		var err error
		out, err = tx.Wallet(ctx, userID, ledger.LockNone)
		return err
	})
	return out, err
}

// History devolve o extrato, mais recente primeiro
func (s *Service) History(ctx context.Context, userID string, limit int) ([]ledger.Entry, error) {
	var out []ledger.Entry
	err := s.store.InTx(ctx, func(tx ledger.Tx) error {
		if _, err := tx.Wallet(ctx, userID, ledger.LockNone); err != nil {
			return err
		}
		var err error
		out, err = tx.Entries(ctx, userID, limit)
		return err
	})
	if out == nil {
		out = []ledger.Entry{}
	}
	return out, err
}

func (s *Service) Leaderboard(ctx context.Context, limit int) ([]ledger.Wallet, error) {
	if limit <= 0 {
		limit = DefaultLeaderboardSize
	}
	var out []ledger.Wallet
	err := s.store.InTx(ctx, func(tx ledger.Tx) error {
		var err error
		out, err = tx.TopWallets(ctx, limit)
		return err
	})
	if out == nil {
		out = []ledger.Wallet{}
	}
	return out, err
}

// AdjustUser é a edição manual do admin. A diferença de saldo vira um lançamento
// "adjustment"; newBalance nil mantém o saldo e isAdmin nil mantém o papel atual.
func (s *Service) AdjustUser(ctx context.Context, adminID, userID string, newBalance *decimal.Decimal, isAdmin *bool) (*ledger.Wallet, error) {
	var target decimal.Decimal
	if newBalance != nil {
		if newBalance.IsNegative() {
			return nil, ledger.ErrAmountNotPositive
		}
		target = newBalance.Round(ledger.MoneyPlaces)
	}

	var out *ledger.Wallet
	var entry *ledger.Entry
	err := s.store.InTx(ctx, func(tx ledger.Tx) error {
		entry = nil
		w, err := tx.Wallet(ctx, userID, ledger.LockUpdate)
		if err != nil {
			return err
		}
		now := s.now().UTC()
		if isAdmin != nil {
			w.IsAdmin = *isAdmin
		}
		// sem saldo no pedido a edição é só de papel
		if newBalance == nil {
			target = w.Balance
		}
		if delta := target.Sub(w.Balance); !delta.IsZero() {
			if entry, err = ledger.Post(ctx, tx, w, ledger.EntryAdjustment, delta, "admin:"+adminID, now); err != nil {
				return err
			}
		} else {
			w.UpdatedAt = now
			if err := tx.SaveWallet(ctx, w); err != nil {
				return err
			}
		}
		out = w
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("wallet adjusted", zap.String("admin_id", adminID), zap.String("user_id", userID), zap.String("balance", out.Balance.String()))
	if entry != nil {
		s.balanceChanged(ctx, entry)
	}
	return out, nil
}

// RequestRecharge registra um pedido de recarga; o saldo só muda na aprovação
func (s *Service) RequestRecharge(ctx context.Context, userID, email string, amount decimal.Decimal, reference string) (*ledger.FundingRequest, error) {
	amount = amount.Round(ledger.MoneyPlaces)
	if !amount.IsPositive() {
		return nil, ledger.ErrAmountNotPositive
	}

	var out *ledger.FundingRequest
	err := s.store.InTx(ctx, func(tx ledger.Tx) error {
		if _, err := tx.Wallet(ctx, userID, ledger.LockShare); err != nil {
			return err
		}
		out = s.newRequest(userID, email, ledger.FundingRecharge, amount)
		out.Reference = reference
		return tx.CreateFunding(ctx, out)
	})
	if err != nil {
		return nil, err
	}
	s.fundingRequested(ctx, out)
	return out, nil
}

// RequestWithdrawal debita na hora (como uma reserva) e incrementa ActiveWithdrawals.
// A rejeição devolve o valor com um lançamento withdrawal_refund.
func (s *Service) RequestWithdrawal(ctx context.Context, userID, email string, amount decimal.Decimal, method ledger.PayoutMethod, details string) (*ledger.FundingRequest, error) {
	if !method.Valid() {
		return nil, ledger.ErrInvalidPayoutMethod
	}
	amount = amount.Round(ledger.MoneyPlaces)
	if !amount.IsPositive() {
		return nil, ledger.ErrAmountNotPositive
	}
	if amount.LessThan(s.policy.MinWithdrawal) {
		return nil, ledger.ErrBelowMinimumWithdrawal
	}

	var out *ledger.FundingRequest
	var entry *ledger.Entry
	err := s.store.InTx(ctx, func(tx ledger.Tx) error {
		w, err := tx.Wallet(ctx, userID, ledger.LockUpdate)
		if err != nil {
			return err
		}
		out = s.newRequest(userID, email, ledger.FundingWithdrawal, amount)
		out.Method = method
		out.Details = details

		w.ActiveWithdrawals++
		if entry, err = ledger.Post(ctx, tx, w, ledger.EntryWithdrawal, amount.Neg(), out.ID, out.CreatedAt); err != nil {
			return err
		}
		return tx.CreateFunding(ctx, out)
	})
	if err != nil {
		return nil, err
	}
	s.fundingRequested(ctx, out)
	s.balanceChanged(ctx, entry)
	return out, nil
}

// ResolveFunding aprova ou rejeita um pedido pendente
func (s *Service) ResolveFunding(ctx context.Context, requestID string, approve bool) (*ledger.FundingRequest, error) {
	var out *ledger.FundingRequest
	var entry *ledger.Entry
	err := s.store.InTx(ctx, func(tx ledger.Tx) error {
		entry = nil
		r, err := tx.Funding(ctx, requestID, ledger.LockUpdate)
		if err != nil {
			return err
		}
		if r.Status != ledger.FundingPending {
			return ledger.ErrAlreadyResolved
		}
		w, err := tx.Wallet(ctx, r.UserID, ledger.LockUpdate)
		if err != nil {
			return err
		}
		now := s.now().UTC()

		switch {
		case r.Kind == ledger.FundingRecharge && approve:
			w.TotalDeposited = w.TotalDeposited.Add(r.Amount)
			entry, err = ledger.Post(ctx, tx, w, ledger.EntryDeposit, r.Amount, r.ID, now)
		case r.Kind == ledger.FundingWithdrawal && approve:
			w.TotalWithdrawn = w.TotalWithdrawn.Add(r.Amount)
			w.ActiveWithdrawals = max(w.ActiveWithdrawals-1, 0)
			w.UpdatedAt = now
			err = tx.SaveWallet(ctx, w)
		case r.Kind == ledger.FundingWithdrawal && !approve:
			w.ActiveWithdrawals = max(w.ActiveWithdrawals-1, 0)
			entry, err = ledger.Post(ctx, tx, w, ledger.EntryWithdrawalRefund, r.Amount, r.ID, now)
		}
		if err != nil {
			return err
		}

		r.Status = ledger.FundingRejected
		if approve {
			r.Status = ledger.FundingApproved
		}
		r.ResolvedAt = &now
		out = r
		return tx.SaveFunding(ctx, r)
	})
	if err != nil {
		return nil, err
	}

	if s.m != nil {
		s.m.FundingResolved.WithLabelValues(string(out.Kind), string(out.Status)).Inc()
	}
	s.log.Info("funding resolved", zap.String("request_id", out.ID), zap.String("kind", string(out.Kind)), zap.String("status", string(out.Status)))
	s.publish(ctx, topics.FundingResolved, out.UserID, events.FundingResolved{
		RequestID: out.ID, UserID: out.UserID, Kind: string(out.Kind),
		Amount: out.Amount, Status: string(out.Status), Ts: *out.ResolvedAt,
	})
	if entry != nil {
		s.balanceChanged(ctx, entry)
	}
	return out, nil
}

// ListFunding é a fila do admin (kind/status vazios = todos)
func (s *Service) ListFunding(ctx context.Context, kind ledger.FundingKind, status ledger.FundingStatus, limit int) ([]ledger.FundingRequest, error) {
	return s.listFunding(ctx, ledger.FundingFilter{Kind: kind, Status: status, Limit: limit})
}

func (s *Service) ListUserFunding(ctx context.Context, userID string, limit int) ([]ledger.FundingRequest, error) {
	return s.listFunding(ctx, ledger.FundingFilter{UserID: userID, Limit: limit})
}

func (s *Service) listFunding(ctx context.Context, f ledger.FundingFilter) ([]ledger.FundingRequest, error) {
	var out []ledger.FundingRequest
	err := s.store.InTx(ctx, func(tx ledger.Tx) error {
		var err error
		out, err = tx.FundingRequests(ctx, f)
		return err
	})
	if out == nil {
		out = []ledger.FundingRequest{}
	}
	return out, err
}

func (s *Service) newRequest(userID, email string, kind ledger.FundingKind, amount decimal.Decimal) *ledger.FundingRequest {
	return &ledger.FundingRequest{
		ID:        s.newID(),
		UserID:    userID,
		UserEmail: email,
		Kind:      kind,
		Amount:    amount,
		Status:    ledger.FundingPending,
		CreatedAt: s.now().UTC(),
	}
}

func (s *Service) fundingRequested(ctx context.Context, r *ledger.FundingRequest) {
	s.log.Info("funding requested", zap.String("request_id", r.ID), zap.String("user_id", r.UserID), zap.String("kind", string(r.Kind)))
	s.publish(ctx, topics.FundingRequested, r.UserID, events.FundingRequested{
		RequestID: r.ID, UserID: r.UserID, UserEmail: r.UserEmail, Kind: string(r.Kind),
		Amount: r.Amount, Reference: r.Reference, Method: string(r.Method), Details: r.Details, Ts: r.CreatedAt,
	})
}

func (s *Service) balanceChanged(ctx context.Context, e *ledger.Entry) {
	s.publish(ctx, topics.BalanceChanged, e.UserID, events.BalanceChanged{
		UserID: e.UserID, Kind: string(e.Kind), Amount: e.Amount,
		Balance: e.BalanceAfter, Ref: e.Ref, Ts: e.CreatedAt,
	})
}

func (s *Service) publish(ctx context.Context, topic, key string, ev any) {
	if s.pub == nil {
		return
	}
	if err := s.pub.Publish(ctx, topic, key, ev); err != nil {
		s.log.Warn("publish failed", zap.String("topic", topic), zap.Error(err))
	}
}
