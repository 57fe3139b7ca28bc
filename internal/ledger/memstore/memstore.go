// Package memstore é um ledger.Store em memória com semântica tudo-ou-nada.
// Cada InTx trabalha sobre uma cópia do estado e só a publica se fn retornar nil.
package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/radieske/cricwin-ledger/internal/ledger"
)

type state struct {
	markets map[string]ledger.Market
	wagers  map[string]ledger.Wager
	wallets map[string]ledger.Wallet
	entries []ledger.Entry
	funding map[string]ledger.FundingRequest
	nextID  int64
	mOrder  []string // ordem de inserção dos mercados
	wOrder  []string // ordem de inserção das apostas
	fOrder  []string
}

func newState() *state {
	return &state{
		markets: make(map[string]ledger.Market),
		wagers:  make(map[string]ledger.Wager),
		wallets: make(map[string]ledger.Wallet),
		funding: make(map[string]ledger.FundingRequest),
	}
}

func (s *state) clone() *state {
	c := &state{
		markets: make(map[string]ledger.Market, len(s.markets)),
		wagers:  make(map[string]ledger.Wager, len(s.wagers)),
		wallets: make(map[string]ledger.Wallet, len(s.wallets)),
		funding: make(map[string]ledger.FundingRequest, len(s.funding)),
		entries: append([]ledger.Entry(nil), s.entries...),
		nextID:  s.nextID,
		mOrder:  append([]string(nil), s.mOrder...),
		wOrder:  append([]string(nil), s.wOrder...),
		fOrder:  append([]string(nil), s.fOrder...),
	}
	for k, v := range s.markets {
		c.markets[k] = v
	}
	for k, v := range s.wagers {
		c.wagers[k] = v
	}
	for k, v := range s.wallets {
		c.wallets[k] = v
	}
	for k, v := range s.funding {
		c.funding[k] = v
	}
	return c
}

// Store serializa as transações; é suficiente para testes e execução local
type Store struct {
	mu sync.Mutex
	st *state
}

func New() *Store { return &Store{st: newState()} }

func (s *Store) InTx(ctx context.Context, fn func(tx ledger.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.st.clone()
	if err := fn(&tx{st: work}); err != nil {
		return err
	}
	s.st = work
	return nil
}

type tx struct{ st *state }

// ===== markets

func (t *tx) CreateMarket(_ context.Context, m *ledger.Market) error {
	t.st.markets[m.ID] = *m
	t.st.mOrder = append(t.st.mOrder, m.ID)
	return nil
}

func (t *tx) Market(_ context.Context, id string, _ ledger.LockMode) (*ledger.Market, error) {
	m, ok := t.st.markets[id]
	if !ok {
		return nil, ledger.ErrMarketNotFound
	}
	return &m, nil
}

func (t *tx) Markets(_ context.Context, f ledger.MarketFilter) ([]ledger.Market, error) {
	var out []ledger.Market
	for _, id := range t.st.mOrder {
		m, ok := t.st.markets[id]
		if !ok {
			continue
		}
		if f.Status != "" && m.Status != f.Status {
			continue
		}
		out = append(out, m)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (t *tx) SaveMarket(_ context.Context, m *ledger.Market) error {
	if _, ok := t.st.markets[m.ID]; !ok {
		return ledger.ErrMarketNotFound
	}
	t.st.markets[m.ID] = *m
	return nil
}

func (t *tx) DeleteMarket(_ context.Context, id string) error {
	if _, ok := t.st.markets[id]; !ok {
		return ledger.ErrMarketNotFound
	}
	delete(t.st.markets, id)
	return nil
}

// ===== wagers

func (t *tx) CreateWager(_ context.Context, w *ledger.Wager) error {
	t.st.wagers[w.ID] = *w
	t.st.wOrder = append(t.st.wOrder, w.ID)
	return nil
}

func (t *tx) Wager(_ context.Context, id string) (*ledger.Wager, error) {
	w, ok := t.st.wagers[id]
	if !ok {
		return nil, ledger.ErrWagerNotFound
	}
	return &w, nil
}

func (t *tx) Wagers(_ context.Context, f ledger.WagerFilter) ([]ledger.Wager, error) {
	var out []ledger.Wager
	// mais recentes primeiro
	for i := len(t.st.wOrder) - 1; i >= 0; i-- {
		w := t.st.wagers[t.st.wOrder[i]]
		if f.UserID != "" && w.UserID != f.UserID {
			continue
		}
		if f.MarketID != "" && w.MarketID != f.MarketID {
			continue
		}
		if f.Status != "" && w.Status != f.Status {
			continue
		}
		out = append(out, w)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out, nil
}

func (t *tx) PendingWagers(ctx context.Context, marketID string) ([]ledger.Wager, error) {
	return t.Wagers(ctx, ledger.WagerFilter{MarketID: marketID, Status: ledger.WagerPending})
}

func (t *tx) SaveWager(_ context.Context, w *ledger.Wager) error {
	if _, ok := t.st.wagers[w.ID]; !ok {
		return ledger.ErrWagerNotFound
	}
	t.st.wagers[w.ID] = *w
	return nil
}

// ===== wallets

func (t *tx) CreateWallet(_ context.Context, w *ledger.Wallet) error {
	if _, ok := t.st.wallets[w.UserID]; ok {
		return nil
	}
	t.st.wallets[w.UserID] = *w
	return nil
}

func (t *tx) Wallet(_ context.Context, userID string, _ ledger.LockMode) (*ledger.Wallet, error) {
	w, ok := t.st.wallets[userID]
	if !ok {
		return nil, ledger.ErrWalletNotFound
	}
	return &w, nil
}

func (t *tx) TopWallets(_ context.Context, limit int) ([]ledger.Wallet, error) {
	out := make([]ledger.Wallet, 0, len(t.st.wallets))
	for _, w := range t.st.wallets {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Balance.Cmp(out[j].Balance); c != 0 {
			return c > 0
		}
		return out[i].UserID < out[j].UserID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (t *tx) SaveWallet(_ context.Context, w *ledger.Wallet) error {
	if _, ok := t.st.wallets[w.UserID]; !ok {
		return ledger.ErrWalletNotFound
	}
	t.st.wallets[w.UserID] = *w
	return nil
}

func (t *tx) AppendEntry(_ context.Context, e *ledger.Entry) error {
	t.st.nextID++
	e.ID = t.st.nextID
	t.st.entries = append(t.st.entries, *e)
	return nil
}

func (t *tx) Entries(_ context.Context, userID string, limit int) ([]ledger.Entry, error) {
	var out []ledger.Entry
	for i := len(t.st.entries) - 1; i >= 0; i-- {
		if t.st.entries[i].UserID != userID {
			continue
		}
		out = append(out, t.st.entries[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// ===== funding

func (t *tx) CreateFunding(_ context.Context, r *ledger.FundingRequest) error {
	t.st.funding[r.ID] = *r
	t.st.fOrder = append(t.st.fOrder, r.ID)
	return nil
}

func (t *tx) Funding(_ context.Context, id string, _ ledger.LockMode) (*ledger.FundingRequest, error) {
	r, ok := t.st.funding[id]
	if !ok {
		return nil, ledger.ErrFundingNotFound
	}
	return &r, nil
}

func (t *tx) FundingRequests(_ context.Context, f ledger.FundingFilter) ([]ledger.FundingRequest, error) {
	var out []ledger.FundingRequest
	for i := len(t.st.fOrder) - 1; i >= 0; i-- {
		r := t.st.funding[t.st.fOrder[i]]
		if f.UserID != "" && r.UserID != f.UserID {
			continue
		}
		if f.Kind != "" && r.Kind != f.Kind {
			continue
		}
		if f.Status != "" && r.Status != f.Status {
			continue
		}
		out = append(out, r)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out, nil
}

func (t *tx) SaveFunding(_ context.Context, r *ledger.FundingRequest) error {
	if _, ok := t.st.funding[r.ID]; !ok {
		return ledger.ErrFundingNotFound
	}
	t.st.funding[r.ID] = *r
	return nil
}
