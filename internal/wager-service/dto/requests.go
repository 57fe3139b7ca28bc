package dto

import "github.com/shopspring/decimal"

type PlaceWagerRequest struct {
	MarketID  string          `json:"marketId" validate:"required"`
	Selection string          `json:"selectedTeam" validate:"required"`
	Amount    decimal.Decimal `json:"amount"` // regras de valor ficam no service
}
