package circuitbreaker

import (
	"errors"
	"testing"
	"time"
)

func TestManager_TripsAfterConsecutiveFailures(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SolanaRPC.ConsecutiveFailures = 2
	cfg.SolanaRPC.Timeout = time.Minute
	m := NewManager(cfg)

	boom := errors.New("boom")
	for i := 0; i < 2; i++ {
		if _, err := Do(m, ServiceSolanaRPC, func() (int, error) { return 0, boom }); !errors.Is(err, boom) {
			t.Fatalf("call %d: expected boom, got %v", i, err)
		}
	}

	calls := 0
	_, err := Do(m, ServiceSolanaRPC, func() (int, error) {
		calls++
		return 1, nil
	})
	if !errors.Is(err, ErrOpen) {
		t.Fatalf("expected ErrOpen, got %v", err)
	}
	if calls != 0 {
		t.Error("open breaker must not invoke the function")
	}
	if m.State(ServiceSolanaRPC) != "open" {
		t.Errorf("state = %s, want open", m.State(ServiceSolanaRPC))
	}

	// Services are isolated.
	if v, err := Do(m, ServiceInvoiceStore, func() (string, error) { return "ok", nil }); err != nil || v != "ok" {
		t.Errorf("invoice store breaker affected: %v %v", v, err)
	}
}

func TestManager_Disabled(t *testing.T) {
	m := NewManager(Config{Enabled: false})
	if m.State(ServiceSolanaRPC) != "disabled" {
		t.Errorf("state = %s", m.State(ServiceSolanaRPC))
	}
	for i := 0; i < 20; i++ {
		_, _ = Do(m, ServiceSolanaRPC, func() (int, error) { return 0, errors.New("x") })
	}
	if v, err := Do(m, ServiceSolanaRPC, func() (int, error) { return 7, nil }); err != nil || v != 7 {
		t.Errorf("disabled manager should pass through, got %v %v", v, err)
	}
}

func TestManager_NilPassThrough(t *testing.T) {
	var m *Manager
	if v, err := Do(m, ServiceSolanaRPC, func() (int, error) { return 3, nil }); err != nil || v != 3 {
		t.Errorf("nil manager should pass through, got %v %v", v, err)
	}
	if m.Counts(ServiceSolanaRPC) != (Counts{}) {
		t.Error("nil manager should report zero counts")
	}
}

func TestManager_Counts(t *testing.T) {
	m := NewManager(DefaultConfig())
	_, _ = Do(m, ServiceInvoiceStore, func() (int, error) { return 1, nil })
	_, _ = Do(m, ServiceInvoiceStore, func() (int, error) { return 0, errors.New("x") })

	c := m.Counts(ServiceInvoiceStore)
	if c.Requests != 2 || c.TotalSuccesses != 1 || c.TotalFailures != 1 {
		t.Errorf("unexpected counts %+v", c)
	}
}
