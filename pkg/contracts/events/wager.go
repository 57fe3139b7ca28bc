package events

import (
	"time"

	"github.com/shopspring/decimal"
)

type WagerPlaced struct {
	WagerID   string          `json:"wagerId"`
	UserID    string          `json:"userId"`
	MarketID  string          `json:"marketId"`
	Selection string          `json:"selection"`
	Odds      decimal.Decimal `json:"odds"`
	Stake     decimal.Decimal `json:"stake"`
	Ts        time.Time       `json:"ts"`
}
