package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Ledger agrupa os coletores de negócio compartilhados pelos serviços
type Ledger struct {
	WagersPlaced     prometheus.Counter
	WagersRejected   *prometheus.CounterVec // label: reason
	StakeVolume      prometheus.Counter
	Settlements      prometheus.Counter
	WagersSettled    *prometheus.CounterVec // label: outcome (won|lost)
	PayoutVolume     prometheus.Counter
	FundingResolved  *prometheus.CounterVec // labels: kind, status
	SettlementTiming prometheus.Histogram
}

// NewLedger registra os coletores em reg (use prometheus.DefaultRegisterer em produção)
func NewLedger(reg prometheus.Registerer) *Ledger {
	m := &Ledger{
		WagersPlaced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ledger_wagers_placed_total",
			Help: "Wagers accepted.",
		}),
		WagersRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_wagers_rejected_total",
			Help: "Wager placements rejected, by reason.",
		}, []string{"reason"}),
		StakeVolume: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ledger_stake_volume",
			Help: "Sum of accepted stakes.",
		}),
		Settlements: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ledger_settlements_total",
			Help: "Markets settled.",
		}),
		WagersSettled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_wagers_settled_total",
			Help: "Wagers settled, by outcome.",
		}, []string{"outcome"}),
		PayoutVolume: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ledger_payout_volume",
			Help: "Sum of payouts credited.",
		}),
		FundingResolved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_funding_resolved_total",
			Help: "Funding requests resolved, by kind and status.",
		}, []string{"kind", "status"}),
		SettlementTiming: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ledger_settlement_duration_seconds",
			Help:    "Time spent in the settlement transaction.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.WagersPlaced, m.WagersRejected, m.StakeVolume, m.Settlements,
		m.WagersSettled, m.PayoutVolume, m.FundingResolved, m.SettlementTiming)
	return m
}
