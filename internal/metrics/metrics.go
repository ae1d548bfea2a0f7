package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the settlement collectors. A nil *Metrics records nothing.
type Metrics struct {
	registry        *prometheus.Registry
	rewardsCredited prometheus.Counter
	payouts         *prometheus.CounterVec
	transferSeconds prometheus.Histogram
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		rewardsCredited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dataverse_rewards_credited_total",
			Help: "Rewards credited to worker pending balances, in the smallest currency unit.",
		}),
		payouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dataverse_payouts_total",
			Help: "Payout attempts by final status.",
		}, []string{"status"}),
		transferSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "dataverse_transfer_seconds",
			Help:    "Time from broadcast to a final on-chain status.",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		}),
	}
	m.registry.MustRegister(
		m.rewardsCredited,
		m.payouts,
		m.transferSeconds,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) RewardCredited(amount int64) {
	if m == nil {
		return
	}
	m.rewardsCredited.Add(float64(amount))
}

func (m *Metrics) PayoutFinished(status string) {
	if m == nil {
		return
	}
	m.payouts.WithLabelValues(status).Inc()
}

func (m *Metrics) TransferObserved(d time.Duration) {
	if m == nil {
		return
	}
	m.transferSeconds.Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
