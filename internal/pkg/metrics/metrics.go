package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "control_room"

var (
	// Ledger client
	LedgerRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "ledger",
		Name:      "requests_total",
		Help:      "JSON-RPC attempts by method, endpoint and outcome",
	}, []string{"method", "endpoint", "outcome"})

	LedgerFailoversTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "ledger",
		Name:      "failovers_total",
		Help:      "Rotations to the next endpoint after a failed attempt",
	}, []string{"from"})

	LedgerRequestLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "ledger",
		Name:      "request_duration_seconds",
		Help:      "JSON-RPC attempt duration",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
	}, []string{"method"})

	// Wallets
	WalletRefreshTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "wallets",
		Name:      "refresh_total",
		Help:      "Wallet fetches by settled state",
	}, []string{"source", "state"})

	WalletsTracked = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "wallets",
		Name:      "tracked",
		Help:      "Number of tracked wallets",
	})

	// Assets
	MetadataResolveTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "assets",
		Name:      "metadata_resolve_total",
		Help:      "NFT metadata resolutions by outcome",
	}, []string{"outcome"})

	// Pollers
	PollTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "poller",
		Name:      "ticks_total",
		Help:      "Background poll ticks by poller and outcome",
	}, []string{"poller", "outcome"})

	LedgerIndex = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "network",
		Name:      "validated_ledger_index",
		Help:      "Latest validated ledger index seen",
	})

	registerOnce sync.Once
)

// MustRegisterMetrics registers every collector with the default registry.
// Safe to call more than once.
func MustRegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			LedgerRequestsTotal,
			LedgerFailoversTotal,
			LedgerRequestLatency,
			WalletRefreshTotal,
			WalletsTracked,
			MetadataResolveTotal,
			PollTotal,
			LedgerIndex,
		)
	})
}
