package ledger

import (
	"context"
)

// LockMode controla o lock de linha em leituras que alimentam escritas
type LockMode int

const (
	LockNone   LockMode = iota
	LockShare           // FOR SHARE
	LockUpdate          // FOR UPDATE
)

// Store executa fn dentro de uma única transação: ou tudo é aplicado, ou nada.
// É a primitiva de "batch atômico" da qual a liquidação depende.
type Store interface {
	InTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx são as operações por registro disponíveis dentro de uma transação
type Tx interface {
	CreateMarket(ctx context.Context, m *Market) error
	Market(ctx context.Context, id string, lock LockMode) (*Market, error)
	Markets(ctx context.Context, f MarketFilter) ([]Market, error)
	SaveMarket(ctx context.Context, m *Market) error
	DeleteMarket(ctx context.Context, id string) error

	CreateWager(ctx context.Context, w *Wager) error
	Wager(ctx context.Context, id string) (*Wager, error)
	Wagers(ctx context.Context, f WagerFilter) ([]Wager, error)
	// PendingWagers retorna (com lock) todas as apostas pending do mercado
	PendingWagers(ctx context.Context, marketID string) ([]Wager, error)
	SaveWager(ctx context.Context, w *Wager) error

	CreateWallet(ctx context.Context, w *Wallet) error
	Wallet(ctx context.Context, userID string, lock LockMode) (*Wallet, error)
	TopWallets(ctx context.Context, limit int) ([]Wallet, error)
	SaveWallet(ctx context.Context, w *Wallet) error
	AppendEntry(ctx context.Context, e *Entry) error
	Entries(ctx context.Context, userID string, limit int) ([]Entry, error)

	CreateFunding(ctx context.Context, r *FundingRequest) error
	Funding(ctx context.Context, id string, lock LockMode) (*FundingRequest, error)
	FundingRequests(ctx context.Context, f FundingFilter) ([]FundingRequest, error)
	SaveFunding(ctx context.Context, r *FundingRequest) error
}
