package dto

import "github.com/shopspring/decimal"

type RechargeRequest struct {
	Amount    decimal.Decimal `json:"amount"`
	Reference string          `json:"reference" validate:"required,max=64"` // UTR do pagamento
}

type WithdrawRequest struct {
	Amount  decimal.Decimal `json:"amount"`
	Method  string          `json:"method" validate:"required,oneof=UPI BANK"`
	Details string          `json:"details" validate:"required,max=256"` // chave UPI ou conta/IFSC
}

// AdjustUserRequest: campos ausentes ficam como estão
type AdjustUserRequest struct {
	Balance *decimal.Decimal `json:"balance,omitempty"`
	IsAdmin *bool            `json:"isAdmin,omitempty"`
}
