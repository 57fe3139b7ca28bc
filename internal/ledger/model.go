package ledger

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// MarketStatus representa o ciclo de vida de uma partida (mercado)
type MarketStatus string

const (
	MarketUpcoming MarketStatus = "Upcoming"
	MarketLive     MarketStatus = "Live"
	MarketFinished MarketStatus = "Finished"
)

// ParseMarketStatus aceita o status sem diferenciar maiúsculas/minúsculas
func ParseMarketStatus(s string) (MarketStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "upcoming":
		return MarketUpcoming, true
	case "live":
		return MarketLive, true
	case "finished":
		return MarketFinished, true
	}
	return "", false
}

// WagerStatus: pending -> won | lost
type WagerStatus string

const (
	WagerPending WagerStatus = "pending"
	WagerWon     WagerStatus = "won"
	WagerLost    WagerStatus = "lost"
)

// Market é uma partida com dois lados e odds decimais.
// Winner só é preenchido quando Status = Finished.
type Market struct {
	ID         string          `json:"id"`
	TeamA      string          `json:"teamA"`
	TeamB      string          `json:"teamB"`
	OddsA      decimal.Decimal `json:"oddsTeamA"`
	OddsB      decimal.Decimal `json:"oddsTeamB"`
	Tournament string          `json:"tournament,omitempty"`
	StartTime  time.Time       `json:"matchTime"`
	Status     MarketStatus    `json:"status"`
	Winner     string          `json:"winner,omitempty"`
	BonusFlag  bool            `json:"bonusFlag"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

// Wager é a aposta de um usuário em um lado do mercado.
// TeamA/TeamB e Odds são snapshots do momento da aposta.
type Wager struct {
	ID           string          `json:"id"`
	UserID       string          `json:"userId"`
	UserEmail    string          `json:"userEmail,omitempty"`
	MarketID     string          `json:"marketId"`
	TeamA        string          `json:"teamA"`
	TeamB        string          `json:"teamB"`
	Selection    string          `json:"selectedTeam"`
	Odds         decimal.Decimal `json:"odds"`
	Stake        decimal.Decimal `json:"amount"`
	Status       WagerStatus     `json:"status"`
	Payout       decimal.Decimal `json:"payout"`
	BonusApplied bool            `json:"bonusApplied"`
	PlacedAt     time.Time       `json:"placedAt"`
	SettledAt    *time.Time      `json:"settledAt,omitempty"`
}

// Wallet guarda o saldo derivado do ledger e contadores estatísticos.
// Os contadores são informativos; a fonte da verdade é wallet_ledger.
type Wallet struct {
	UserID            string          `json:"userId"`
	Email             string          `json:"email,omitempty"`
	Balance           decimal.Decimal `json:"balance"`
	TotalWagers       int64           `json:"totalBets"`
	TotalWinnings     decimal.Decimal `json:"totalWinnings"`
	TotalDeposited    decimal.Decimal `json:"totalDeposit"`
	TotalWithdrawn    decimal.Decimal `json:"totalWithdrawn"`
	ActiveWithdrawals int             `json:"activeWithdrawals"`
	IsAdmin           bool            `json:"isAdmin"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

// EntryKind classifica cada lançamento no ledger
type EntryKind string

const (
	EntrySignupBonus      EntryKind = "signup_bonus"
	EntryWagerStake       EntryKind = "wager_stake"
	EntryWagerPayout      EntryKind = "wager_payout"
	EntryDeposit          EntryKind = "deposit"
	EntryWithdrawal       EntryKind = "withdrawal"
	EntryWithdrawalRefund EntryKind = "withdrawal_refund"
	EntryAdjustment       EntryKind = "adjustment"
)

// Entry é um lançamento imutável; Amount é positivo para crédito e negativo para débito
type Entry struct {
	ID           int64           `json:"id"`
	UserID       string          `json:"userId"`
	Kind         EntryKind       `json:"kind"`
	Amount       decimal.Decimal `json:"amount"`
	BalanceAfter decimal.Decimal `json:"balanceAfter"`
	Ref          string          `json:"ref,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
}

type FundingKind string

const (
	FundingRecharge   FundingKind = "recharge"
	FundingWithdrawal FundingKind = "withdrawal"
)

type FundingStatus string

const (
	FundingPending  FundingStatus = "pending"
	FundingApproved FundingStatus = "approved"
	FundingRejected FundingStatus = "rejected"
)

// PayoutMethod é o meio pelo qual o saque é pago
type PayoutMethod string

const (
	PayoutUPI  PayoutMethod = "UPI"
	PayoutBank PayoutMethod = "BANK"
)

func (m PayoutMethod) Valid() bool { return m == PayoutUPI || m == PayoutBank }

// FundingRequest cobre recargas (depósito manual) e saques, ambos aprovados por um admin
type FundingRequest struct {
	ID         string          `json:"id"`
	UserID     string          `json:"userId"`
	UserEmail  string          `json:"userEmail,omitempty"`
	Kind       FundingKind     `json:"kind"`
	Amount     decimal.Decimal `json:"amount"`
	Status     FundingStatus   `json:"status"`
	Reference  string          `json:"reference,omitempty"` // ex: UTR do pagamento
	Method     PayoutMethod    `json:"method,omitempty"`    // só saques
	Details    string          `json:"details,omitempty"`   // ex: chave UPI ou conta
	CreatedAt  time.Time       `json:"createdAt"`
	ResolvedAt *time.Time      `json:"resolvedAt,omitempty"`
}

// Filtros usados nas consultas de leitura

type MarketFilter struct {
	Status MarketStatus
}

type WagerFilter struct {
	UserID   string
	MarketID string
	Status   WagerStatus
	Limit    int
}

type FundingFilter struct {
	UserID string
	Kind   FundingKind
	Status FundingStatus
	Limit  int
}
