package ledger

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Validate checa os campos obrigatórios na criação do mercado
func (m *Market) Validate() error {
	a, b := strings.TrimSpace(m.TeamA), strings.TrimSpace(m.TeamB)
	if a == "" || b == "" || strings.EqualFold(a, b) {
		return ErrMissingTeams
	}
	if !m.OddsA.IsPositive() || !m.OddsB.IsPositive() {
		return ErrInvalidOdds
	}
	if m.StartTime.IsZero() {
		return ErrMissingStartTime
	}
	return nil
}

// OddsFor retorna a odd corrente do lado escolhido
func (m *Market) OddsFor(selection string) (decimal.Decimal, error) {
	switch selection {
	case m.TeamA:
		return m.OddsA, nil
	case m.TeamB:
		return m.OddsB, nil
	}
	return decimal.Zero, ErrInvalidSelection
}

// IsSide indica se o nome corresponde a um dos dois lados
func (m *Market) IsSide(team string) bool {
	return team != "" && (team == m.TeamA || team == m.TeamB)
}

// CanTransition implementa a política forward-only: apenas Upcoming -> Live.
// Finished só é atingido via DeclareWinner, que também define o vencedor.
func CanTransition(from, to MarketStatus) bool {
	return from == MarketUpcoming && to == MarketLive
}
