package ledger

import "github.com/shopspring/decimal"

// MoneyPlaces é a precisão de saldos e prêmios (centavos)
const MoneyPlaces = 2

// OddsPlaces é a precisão das odds decimais gravadas no mercado
const OddsPlaces = 2

// Payout = stake × odds × multiplier, arredondado (half away from zero) para centavos
func Payout(stake, odds decimal.Decimal, multiplier int64) decimal.Decimal {
	return stake.Mul(odds).Mul(decimal.NewFromInt(multiplier)).Round(MoneyPlaces)
}

// Multiplier devolve o multiplicador do bônus vigente no momento da liquidação
func Multiplier(bonus bool, bonusMultiplier int64) int64 {
	if bonus {
		return bonusMultiplier
	}
	return 1
}
