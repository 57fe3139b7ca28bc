package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type CreateMarketRequest struct {
	TeamA      string          `json:"teamA" validate:"required"`
	TeamB      string          `json:"teamB" validate:"required"`
	OddsA      decimal.Decimal `json:"oddsTeamA"`
	OddsB      decimal.Decimal `json:"oddsTeamB"`
	StartTime  time.Time       `json:"matchTime"`
	BonusFlag  bool            `json:"bonusFlag"`
	Tournament string          `json:"tournament"`
}

type TransitionRequest struct {
	Status string `json:"status" validate:"required"`
}

type DeclareWinnerRequest struct {
	Winner string `json:"winner" validate:"required"`
}
