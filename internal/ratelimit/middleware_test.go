package ratelimit

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if !cfg.PerIPEnabled {
		t.Error("Expected per-IP rate limiting to be enabled by default")
	}
	if cfg.PerIPLimit != 120 {
		t.Errorf("Expected per-IP limit 120, got %d", cfg.PerIPLimit)
	}
	if !cfg.PerAccountEnabled {
		t.Error("Expected per-account rate limiting to be enabled by default")
	}
	if cfg.PerAccountLimit != 30 {
		t.Errorf("Expected per-account limit 30, got %d", cfg.PerAccountLimit)
	}
}

func TestIPLimiter_Disabled(t *testing.T) {
	handler := IPLimiter(Config{PerIPEnabled: false})(okHandler())

	for i := 0; i < 100; i++ {
		req := httptest.NewRequest("GET", "/test", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Request %d: expected 200, got %d", i, w.Code)
		}
	}
}

func TestIPLimiter_EnforcesLimit(t *testing.T) {
	cfg := Config{
		PerIPEnabled: true,
		PerIPLimit:   3,
		PerIPWindow:  1 * time.Second,
	}
	handler := IPLimiter(cfg)(okHandler())

	ip := "192.168.1.100:54321"

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest("GET", "/test", nil)
		req.RemoteAddr = ip
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Request %d: expected 200, got %d", i, w.Code)
		}
	}

	req := httptest.NewRequest("GET", "/test", nil)
	req.RemoteAddr = ip
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("Expected 429 after IP limit, got %d", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("Expected Retry-After header to be set")
	}

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["code"] != "rate_limited" {
		t.Errorf("Expected code rate_limited, got %v", body["code"])
	}
	if body["retryable"] != true {
		t.Errorf("Expected retryable=true, got %v", body["retryable"])
	}

	// Different IP should not be affected
	req = httptest.NewRequest("GET", "/test", nil)
	req.RemoteAddr = "192.168.1.101:54321"
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Different IP: Expected 200, got %d", w.Code)
	}
}

func postAccount(account string) *http.Request {
	return postAccountFrom("10.0.0.1:1000", account)
}

func postAccountFrom(remoteAddr, account string) *http.Request {
	body := `{"account":"` + account + `"}`
	req := httptest.NewRequest("POST", "/api/actions/pay", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = remoteAddr
	return req
}

func TestAccountLimiter_PerAccount(t *testing.T) {
	cfg := Config{
		PerAccountEnabled: true,
		PerAccountLimit:   2,
		PerAccountWindow:  1 * time.Second,
	}
	handler := AccountLimiter(cfg)(okHandler())

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, postAccount("Account1"))
		if w.Code != http.StatusOK {
			t.Errorf("Account1 request %d: expected 200, got %d", i, w.Code)
		}
	}

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, postAccount("Account1"))
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("Account1: expected 429 after limit, got %d", w.Code)
	}

	// Same IP, different account: separate bucket
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, postAccount("Account2"))
	if w.Code != http.StatusOK {
		t.Errorf("Account2: expected 200, got %d", w.Code)
	}
}

func TestAccountLimiter_OtherClientCannotExhaustAccount(t *testing.T) {
	cfg := Config{
		PerAccountEnabled: true,
		PerAccountLimit:   2,
		PerAccountWindow:  time.Minute,
	}
	handler := AccountLimiter(cfg)(okHandler())

	// A third party floods builds naming the payer's wallet.
	for i := 0; i < 5; i++ {
		handler.ServeHTTP(httptest.NewRecorder(), postAccountFrom("203.0.113.9:4000", "Victim1"))
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, postAccountFrom("203.0.113.9:4000", "Victim1"))
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("flooding client: expected 429, got %d", w.Code)
	}

	// The payer's own client still has its full allowance.
	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, postAccountFrom("10.0.0.1:1000", "Victim1"))
		if w.Code != http.StatusOK {
			t.Errorf("payer request %d: expected 200, got %d", i, w.Code)
		}
	}
}

func TestAccountLimiter_NoAccountFallsBackToIP(t *testing.T) {
	cfg := Config{
		PerAccountEnabled: true,
		PerAccountLimit:   1,
		PerAccountWindow:  time.Minute,
	}
	handler := AccountLimiter(cfg)(okHandler())

	newReq := func() *http.Request {
		req := httptest.NewRequest("POST", "/api/actions/pay", strings.NewReader(`{}`))
		req.RemoteAddr = "10.0.0.5:1000"
		return req
	}

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, newReq())
	if w.Code != http.StatusOK {
		t.Fatalf("first request: expected 200, got %d", w.Code)
	}
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, newReq())
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("second request: expected 429, got %d", w.Code)
	}
}

func TestAccountLimiter_IgnoresGET(t *testing.T) {
	cfg := Config{
		PerAccountEnabled: true,
		PerAccountLimit:   1,
		PerAccountWindow:  1 * time.Second,
	}
	handler := AccountLimiter(cfg)(okHandler())

	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest("GET", "/api/actions/pay", nil))
		if w.Code != http.StatusOK {
			t.Errorf("GET %d: expected 200, got %d", i, w.Code)
		}
	}
}

func TestAccountLimiter_PreservesBody(t *testing.T) {
	cfg := Config{
		PerAccountEnabled: true,
		PerAccountLimit:   10,
		PerAccountWindow:  1 * time.Second,
	}

	var got string
	handler := AccountLimiter(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		got = string(b)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), postAccount("Account1"))

	if got != `{"account":"Account1"}` {
		t.Errorf("Expected body to reach handler intact, got %q", got)
	}
}

func TestPeekAccount(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"account field", `{"account":" Wallet1 "}`, "Wallet1"},
		{"missing field", `{"other":"x"}`, ""},
		{"malformed json", `{"account":`, ""},
		{"empty body", ``, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/", strings.NewReader(tt.body))
			if got := peekAccount(req); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}
