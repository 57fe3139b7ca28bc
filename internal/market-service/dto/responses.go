package dto

import "github.com/radieske/cricwin-ledger/internal/ledger"

type MarketListResponse struct {
	Markets []ledger.Market `json:"markets"`
}
