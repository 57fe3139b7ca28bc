package topics

const (
	// Mercados
	MarketUpdated = "market_updated"
	MarketSettled = "market_settled"

	// Apostas
	WagerPlaced = "wager_placed"

	// Carteira
	BalanceChanged   = "balance_changed"
	FundingRequested = "funding_requested"
	FundingResolved  = "funding_resolved"
)

// All lista os tópicos consumidos pelo notification-worker
var All = []string{MarketUpdated, MarketSettled, WagerPlaced, BalanceChanged, FundingRequested, FundingResolved}
