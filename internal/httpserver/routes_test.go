package httpserver

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAdminMetricsAuth(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name     string
		key      string
		header   string
		expected int
	}{
		{name: "no key configured", key: "", header: "", expected: http.StatusOK},
		{name: "missing header", key: "secret", header: "", expected: http.StatusUnauthorized},
		{name: "wrong key", key: "secret", header: "Bearer nope", expected: http.StatusUnauthorized},
		{name: "wrong scheme", key: "secret", header: "secret", expected: http.StatusUnauthorized},
		{name: "valid key", key: "secret", header: "Bearer secret", expected: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			adminMetricsAuth(tt.key)(ok).ServeHTTP(rec, req)

			if rec.Code != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, rec.Code)
			}
		})
	}
}

func TestMetricsRouteProtected(t *testing.T) {
	cfg := testConfig()
	cfg.Server.AdminMetricsAPIKey = "secret"
	env := newTestEnv(t, cfg)

	rec := env.do(http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without key, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 with key, got %d", rec.Code)
	}
}

func TestPayHref(t *testing.T) {
	h := &handlers{cfg: testConfig()}
	h.cfg.Server.PublicBaseURL = "https://pay.example/"

	req := httptest.NewRequest(http.MethodGet, "/api/actions/pay?to=abc&amount=&token=USDC&utm=x", nil)
	got := h.payHref(req)

	want := "https://pay.example/api/actions/pay?to=abc&token=USDC"
	if got != want {
		t.Errorf("payHref = %q, want %q", got, want)
	}
}
