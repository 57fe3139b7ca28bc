package dto

import (
	"github.com/shopspring/decimal"

	"github.com/radieske/cricwin-ledger/internal/ledger"
)

type PlaceWagerResponse struct {
	Wager      ledger.Wager    `json:"wager"`
	NewBalance decimal.Decimal `json:"newBalance"`
}

type WagerListResponse struct {
	Wagers []ledger.Wager `json:"wagers"`
}
