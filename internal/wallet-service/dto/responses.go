package dto

import "github.com/radieske/cricwin-ledger/internal/ledger"

type HistoryResponse struct {
	Entries []ledger.Entry `json:"entries"`
}

type LeaderboardResponse struct {
	Wallets []ledger.Wallet `json:"wallets"`
}

type FundingListResponse struct {
	Requests []ledger.FundingRequest `json:"requests"`
}
