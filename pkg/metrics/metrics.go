// Package metrics provides the Prometheus collectors shared by the SDK's
// endpoint pool, read cache and transaction orchestrator.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "btf2300"

// Outcome labels.
const (
	OutcomeOK       = "ok"
	OutcomeRPCError = "rpc_error"
	OutcomeFailure  = "failure"
	OutcomeReverted = "reverted"
)

// Metrics holds all Prometheus collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	gatherer prometheus.Gatherer

	// Endpoint pool
	RPCRequests *prometheus.CounterVec
	RPCDuration *prometheus.HistogramVec

	// Read cache
	CacheLookups *prometheus.CounterVec

	// Orchestrator
	Transactions *prometheus.CounterVec
}

// New registers the collectors on reg (prometheus.DefaultRegisterer when
// nil) under namespace (DefaultNamespace when empty).
func New(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	var gatherer prometheus.Gatherer = prometheus.DefaultGatherer
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	} else if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}
	factory := promauto.With(reg)

	return &Metrics{
		gatherer: gatherer,
		RPCRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rpc",
			Name:      "requests_total",
			Help:      "JSON-RPC attempts by endpoint, method and outcome",
		}, []string{"endpoint", "method", "outcome"}),
		RPCDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "rpc",
			Name:      "request_duration_seconds",
			Help:      "JSON-RPC attempt latency by method",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"method"}),
		CacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Read cache lookups by result (hit, miss, shared)",
		}, []string{"result"}),
		Transactions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tx",
			Name:      "transactions_total",
			Help:      "Write operations by operation and outcome",
		}, []string{"operation", "outcome"}),
	}
}

// ObserveRPC records one JSON-RPC attempt.
func (m *Metrics) ObserveRPC(endpoint, method, outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.RPCRequests.WithLabelValues(endpoint, method, outcome).Inc()
	m.RPCDuration.WithLabelValues(method).Observe(took.Seconds())
}

// CacheLookup records a cache lookup result.
func (m *Metrics) CacheLookup(result string) {
	if m == nil {
		return
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}

// Transaction records the final outcome of a write operation.
func (m *Metrics) Transaction(operation, outcome string) {
	if m == nil {
		return
	}
	m.Transactions.WithLabelValues(operation, outcome).Inc()
}

// Handler exposes the registry the collectors were registered on.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
