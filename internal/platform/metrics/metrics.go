package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the ledger.
type Metrics struct {
	PoliciesRegistered prometheus.Counter
	FundsAccepted      prometheus.Counter
	ClaimsPaid         prometheus.Counter
	PayoutsSkipped     *prometheus.CounterVec
	ClaimCycles        *prometheus.CounterVec
	CycleDuration      prometheus.Histogram
	EscrowBalance      prometheus.Gauge
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		PoliciesRegistered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "parasol_policies_registered_total",
			Help: "Total number of policies registered on the ledger",
		}),
		FundsAccepted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "parasol_funds_accepted_total",
			Help: "Total number of unsolicited deposits accepted into escrow",
		}),
		ClaimsPaid: promauto.NewCounter(prometheus.CounterOpts{
			Name: "parasol_claims_paid_total",
			Help: "Total number of claim payouts settled",
		}),
		PayoutsSkipped: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "parasol_payouts_skipped_total",
			Help: "Total number of payouts skipped during claim cycles",
		}, []string{"reason"}),
		ClaimCycles: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "parasol_claim_cycles_total",
			Help: "Total number of completed claim cycles",
		}, []string{"verdict"}),
		CycleDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "parasol_claim_cycle_duration_seconds",
			Help:    "Duration of claim cycles",
			Buckets: prometheus.DefBuckets,
		}),
		EscrowBalance: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "parasol_escrow_balance",
			Help: "Current ledger-held escrow balance",
		}),
	}
}

func (m *Metrics) IncrementPoliciesRegistered() {
	if m == nil {
		return
	}
	m.PoliciesRegistered.Inc()
}

func (m *Metrics) IncrementFundsAccepted() {
	if m == nil {
		return
	}
	m.FundsAccepted.Inc()
}

func (m *Metrics) IncrementClaimsPaid() {
	if m == nil {
		return
	}
	m.ClaimsPaid.Inc()
}

func (m *Metrics) IncrementPayoutsSkipped(reason string) {
	if m == nil {
		return
	}
	m.PayoutsSkipped.WithLabelValues(reason).Inc()
}

func (m *Metrics) IncrementClaimCycles(verdict string) {
	if m == nil {
		return
	}
	m.ClaimCycles.WithLabelValues(verdict).Inc()
}

func (m *Metrics) ObserveCycleDuration(seconds float64) {
	if m == nil {
		return
	}
	m.CycleDuration.Observe(seconds)
}

func (m *Metrics) SetEscrowBalance(balance uint64) {
	if m == nil {
		return
	}
	m.EscrowBalance.Set(float64(balance))
}
