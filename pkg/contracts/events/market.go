package events

import (
	"time"

	"github.com/shopspring/decimal"
)

// Ações possíveis em MarketUpdated
const (
	MarketCreated       = "created"
	MarketStatusChanged = "status_changed"
	MarketBonusToggled  = "bonus_toggled"
	MarketDeleted       = "deleted"
)

// Evento publicado no tópico "market_updated" a cada mutação de mercado
type MarketUpdated struct {
	MarketID  string          `json:"marketId"`
	Action    string          `json:"action"`
	TeamA     string          `json:"teamA,omitempty"`
	TeamB     string          `json:"teamB,omitempty"`
	OddsA     decimal.Decimal `json:"oddsTeamA"`
	OddsB     decimal.Decimal `json:"oddsTeamB"`
	Status    string          `json:"status,omitempty"`
	BonusFlag bool            `json:"bonusFlag"`
	Ts        time.Time       `json:"ts"`
}

// Evento publicado no tópico "market_settled" após o commit da liquidação
type MarketSettled struct {
	MarketID     string          `json:"marketId"`
	Winner       string          `json:"winner"`
	Processed    int             `json:"processed"`
	Won          int             `json:"won"`
	Lost         int             `json:"lost"`
	TotalStake   decimal.Decimal `json:"totalStake"`
	TotalPayout  decimal.Decimal `json:"totalPayout"`
	BonusApplied bool            `json:"bonusApplied"`
	Ts           time.Time       `json:"ts"`
}
