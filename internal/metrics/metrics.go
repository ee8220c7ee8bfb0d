// Package metrics exposes the Prometheus collectors for the signal pipeline
// and the trading loop.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SignalResolutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "signal_resolutions_total", Help: "Signal requests served, by origin"},
		[]string{"origin"},
	)
	SignalFailures = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "signal_no_data_total", Help: "Signal requests with no live, cached or fallback data"},
	)
	ProviderAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "provider_attempts_total", Help: "Market data fetch attempts, by result"},
		[]string{"result"},
	)
	ProviderLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "provider_fetch_duration_seconds",
		Help:    "Market data fetch latency",
		Buckets: prometheus.DefBuckets,
	})
	CacheEntries = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "signal_cache_entries", Help: "Tickers held in the signal cache"},
	)
	OrdersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "orders_total", Help: "Orders submitted, by side and status"},
		[]string{"side", "status"},
	)
	LedgerFailures = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "ledger_write_failures_total", Help: "Executed trades that could not be recorded"},
	)
	LoopCycles = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "trading_loop_cycles_total", Help: "Trading loop cycles, by result"},
		[]string{"result"},
	)
	LoopActive = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "trading_loop_active", Help: "1 while the trading loop runs"},
	)
)

var registry = prometheus.NewRegistry()

func init() {
	registry.MustRegister(
		SignalResolutions,
		SignalFailures,
		ProviderAttempts,
		ProviderLatency,
		CacheEntries,
		OrdersTotal,
		LedgerFailures,
		LoopCycles,
		LoopActive,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// Handler serves the registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
