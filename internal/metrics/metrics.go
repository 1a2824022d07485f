package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for Paylink. All Observe methods are
// safe on a nil receiver so tests can skip instrumentation.
type Metrics struct {
	// Action endpoint metrics
	ActionRequestsTotal *prometheus.CounterVec
	ActionDuration      *prometheus.HistogramVec

	// Transaction builder metrics
	TransactionsBuiltTotal *prometheus.CounterVec
	TransferAmountTotal    *prometheus.CounterVec

	// RPC call metrics
	RPCCallsTotal   *prometheus.CounterVec
	RPCCallDuration *prometheus.HistogramVec
	RPCErrorsTotal  *prometheus.CounterVec

	// Rate limiting metrics
	RateLimitHitsTotal *prometheus.CounterVec

	// Invoice store metrics
	DBQueryDuration *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(registry)

	return &Metrics{
		ActionRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "paylink_action_requests_total",
				Help: "Total number of action requests by route, method and outcome",
			},
			[]string{"route", "method", "outcome"},
		),
		ActionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "paylink_action_duration_seconds",
				Help:    "Time taken to serve an action request",
				Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"route", "method"},
		),

		TransactionsBuiltTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "paylink_transactions_built_total",
				Help: "Total number of unsigned transactions returned",
			},
			[]string{"asset", "creates_account"},
		),
		TransferAmountTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "paylink_transfer_amount_total",
				Help: "Sum of requested transfer amounts in major units",
			},
			[]string{"asset"},
		),

		RPCCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "paylink_rpc_calls_total",
				Help: "Total number of RPC calls to the cluster",
			},
			[]string{"method", "network"},
		),
		RPCCallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "paylink_rpc_call_duration_seconds",
				Help:    "Duration of RPC calls to the cluster",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"method", "network"},
		),
		RPCErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "paylink_rpc_errors_total",
				Help: "Total number of RPC errors",
			},
			[]string{"method", "network", "error_type"},
		),

		RateLimitHitsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "paylink_rate_limit_hits_total",
				Help: "Total number of rate limit hits",
			},
			[]string{"limit_type"},
		),

		DBQueryDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "paylink_db_query_duration_seconds",
				Help:    "Invoice store query duration",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.5, 1, 2},
			},
			[]string{"operation", "backend"},
		),
	}
}

// ObserveAction records one action request.
func (m *Metrics) ObserveAction(route, method, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.ActionRequestsTotal.WithLabelValues(route, method, outcome).Inc()
	m.ActionDuration.WithLabelValues(route, method).Observe(duration.Seconds())
}

// ObserveTransaction records a returned unsigned transaction.
func (m *Metrics) ObserveTransaction(asset string, createsAccount bool, amountMajor float64) {
	if m == nil {
		return
	}
	creates := "false"
	if createsAccount {
		creates = "true"
	}
	m.TransactionsBuiltTotal.WithLabelValues(asset, creates).Inc()
	m.TransferAmountTotal.WithLabelValues(asset).Add(amountMajor)
}

// ObserveRPCCall records an RPC call to the cluster.
func (m *Metrics) ObserveRPCCall(method, network string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.RPCCallsTotal.WithLabelValues(method, network).Inc()
	m.RPCCallDuration.WithLabelValues(method, network).Observe(duration.Seconds())

	if err != nil {
		m.RPCErrorsTotal.WithLabelValues(method, network, classifyError(err)).Inc()
	}
}

// ObserveRateLimit records a rate limit hit.
func (m *Metrics) ObserveRateLimit(limitType string) {
	if m == nil {
		return
	}
	m.RateLimitHitsTotal.WithLabelValues(limitType).Inc()
}

// ObserveDBQuery records an invoice store query.
func (m *Metrics) ObserveDBQuery(operation, backend string, duration time.Duration) {
	if m == nil {
		return
	}
	m.DBQueryDuration.WithLabelValues(operation, backend).Observe(duration.Seconds())
}

func classifyError(err error) string {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "deadline exceeded"):
		return "timeout"
	case strings.Contains(msg, "rate limit"), strings.Contains(msg, "429"):
		return "rate_limit"
	case strings.Contains(msg, "connection"):
		return "connection"
	case strings.Contains(msg, "not found"):
		return "not_found"
	case strings.Contains(msg, "circuit breaker"):
		return "circuit_open"
	default:
		return "other"
	}
}
