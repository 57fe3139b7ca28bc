package events

import (
	"time"

	"github.com/shopspring/decimal"
)

// BalanceChanged espelha um lançamento no wallet_ledger
type BalanceChanged struct {
	UserID  string          `json:"userId"`
	Kind    string          `json:"kind"`
	Amount  decimal.Decimal `json:"amount"`
	Balance decimal.Decimal `json:"balance"`
	Ref     string          `json:"ref,omitempty"`
	Ts      time.Time       `json:"ts"`
}

type FundingRequested struct {
	RequestID string          `json:"requestId"`
	UserID    string          `json:"userId"`
	UserEmail string          `json:"userEmail,omitempty"`
	Kind      string          `json:"kind"` // "recharge" | "withdrawal"
	Amount    decimal.Decimal `json:"amount"`
	Reference string          `json:"reference,omitempty"`
	Method    string          `json:"method,omitempty"` // "UPI" | "BANK", só saques
	Details   string          `json:"details,omitempty"`
	Ts        time.Time       `json:"ts"`
}

type FundingResolved struct {
	RequestID string          `json:"requestId"`
	UserID    string          `json:"userId"`
	Kind      string          `json:"kind"`
	Amount    decimal.Decimal `json:"amount"`
	Status    string          `json:"status"` // "approved" | "rejected"
	Ts        time.Time       `json:"ts"`
}
