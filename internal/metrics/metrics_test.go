package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsInitialization(t *testing.T) {
	m := New(prometheus.NewRegistry())

	if m.ActionRequestsTotal == nil || m.ActionDuration == nil {
		t.Error("action metrics should be initialized")
	}
	if m.TransactionsBuiltTotal == nil || m.TransferAmountTotal == nil {
		t.Error("transaction metrics should be initialized")
	}
	if m.RPCCallsTotal == nil || m.RPCCallDuration == nil || m.RPCErrorsTotal == nil {
		t.Error("rpc metrics should be initialized")
	}
}

func TestObserveAction(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveAction("pay", "POST", "ok", 20*time.Millisecond)
	m.ObserveAction("pay", "POST", "invalid_address", time.Millisecond)
	m.ObserveAction("pay", "POST", "ok", 10*time.Millisecond)

	if got := promtest.ToFloat64(m.ActionRequestsTotal.WithLabelValues("pay", "POST", "ok")); got != 2 {
		t.Errorf("expected 2 ok requests, got %.0f", got)
	}
	if got := promtest.ToFloat64(m.ActionRequestsTotal.WithLabelValues("pay", "POST", "invalid_address")); got != 1 {
		t.Errorf("expected 1 failed request, got %.0f", got)
	}
}

func TestObserveTransaction(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveTransaction("USDC", true, 10)
	m.ObserveTransaction("USDC", false, 2.5)

	if got := promtest.ToFloat64(m.TransactionsBuiltTotal.WithLabelValues("USDC", "true")); got != 1 {
		t.Errorf("expected 1 account-creating tx, got %.0f", got)
	}
	if got := promtest.ToFloat64(m.TransferAmountTotal.WithLabelValues("USDC")); got != 12.5 {
		t.Errorf("expected amount 12.5, got %v", got)
	}
}

func TestObserveRPCCall(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		errorType  string
		wantErrors float64
	}{
		{"success", nil, "other", 0},
		{"connection error", errors.New("connection reset"), "connection", 1},
		{"deadline", errors.New("context deadline exceeded"), "timeout", 1},
		{"breaker", errors.New("circuit breaker open"), "circuit_open", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New(prometheus.NewRegistry())
			m.ObserveRPCCall("getLatestBlockhash", "devnet", 50*time.Millisecond, tt.err)

			if calls := promtest.ToFloat64(m.RPCCallsTotal.WithLabelValues("getLatestBlockhash", "devnet")); calls != 1 {
				t.Errorf("expected 1 call, got %.0f", calls)
			}
			got := promtest.ToFloat64(m.RPCErrorsTotal.WithLabelValues("getLatestBlockhash", "devnet", tt.errorType))
			if got != tt.wantErrors {
				t.Errorf("expected %.0f %s errors, got %.0f", tt.wantErrors, tt.errorType, got)
			}
		})
	}
}

func TestObserveRateLimit(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.ObserveRateLimit("per_ip")
	if got := promtest.ToFloat64(m.RateLimitHitsTotal.WithLabelValues("per_ip")); got != 1 {
		t.Errorf("expected 1 hit, got %.0f", got)
	}
}

func TestNilMetricsAreNoOps(t *testing.T) {
	var m *Metrics
	m.ObserveAction("pay", "GET", "ok", time.Millisecond)
	m.ObserveTransaction("SOL", false, 1)
	m.ObserveRPCCall("getAccountInfo", "devnet", time.Millisecond, nil)
	m.ObserveRateLimit("per_ip")
	MeasureDBQuery(m, "get_invoice", "bolt")()
}

func TestMeasureDBQuery(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)
	MeasureDBQuery(m, "get_invoice", "postgres")()

	if n := promtest.CollectAndCount(m.DBQueryDuration); n != 1 {
		t.Errorf("expected 1 series, got %d", n)
	}
}
