package ratelimit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/httprate"
	"github.com/paylinkhq/server/internal/config"
	apierrors "github.com/paylinkhq/server/internal/errors"
	"github.com/paylinkhq/server/internal/metrics"
)

// maxPeekBytes bounds how much of a POST body is read to find the account.
const maxPeekBytes = 8 << 10

// Config holds rate limiting configuration.
type Config struct {
	// Per-IP limiting applies to every action request.
	PerIPEnabled bool
	PerIPLimit   int
	PerIPWindow  time.Duration

	// Per-account limiting applies to build requests, keyed by the payer.
	PerAccountEnabled bool
	PerAccountLimit   int
	PerAccountWindow  time.Duration

	// Metrics collector (optional)
	Metrics *metrics.Metrics
}

// DefaultConfig returns limits generous enough for wallets that poll
// metadata while still stopping obvious abuse.
func DefaultConfig() Config {
	return Config{
		// Per-IP: 120 req/min
		PerIPEnabled: true,
		PerIPLimit:   120,
		PerIPWindow:  1 * time.Minute,

		// Per-account: 30 builds/min
		PerAccountEnabled: true,
		PerAccountLimit:   30,
		PerAccountWindow:  1 * time.Minute,
	}
}

// limitHandler writes the standard 429 error body.
func limitHandler(limitType string, window time.Duration, m *metrics.Metrics) http.HandlerFunc {
	retryAfter := int(window.Seconds())
	if retryAfter < 1 {
		retryAfter = 1
	}
	return func(w http.ResponseWriter, r *http.Request) {
		m.ObserveRateLimit(limitType)

		message := "Rate limit exceeded. Please try again later."
		if limitType == "per_account" {
			message = "Too many transactions requested for this account. Please try again later."
		}

		w.Header().Set("Retry-After", fmt.Sprintf("%d", retryAfter))
		apierrors.WriteError(w, apierrors.ErrCodeRateLimited, message)
	}
}

func passthrough(next http.Handler) http.Handler {
	return next
}

// IPLimiter limits requests per client IP.
func IPLimiter(cfg Config) func(http.Handler) http.Handler {
	if !cfg.PerIPEnabled || cfg.PerIPLimit <= 0 {
		return passthrough
	}

	return httprate.Limit(
		cfg.PerIPLimit,
		cfg.PerIPWindow,
		httprate.WithKeyByIP(),
		httprate.WithLimitHandler(limitHandler("per_ip", cfg.PerIPWindow, cfg.Metrics)),
	)
}

// AccountLimiter limits build requests per client IP and payer account. The
// account comes from an unauthenticated body, so it never forms a bucket on
// its own: one client naming a victim's wallet only exhausts its own bucket.
func AccountLimiter(cfg Config) func(http.Handler) http.Handler {
	if !cfg.PerAccountEnabled || cfg.PerAccountLimit <= 0 {
		return passthrough
	}

	limiter := httprate.Limit(
		cfg.PerAccountLimit,
		cfg.PerAccountWindow,
		httprate.WithKeyFuncs(httprate.KeyByIP, accountKey),
		httprate.WithLimitHandler(limitHandler("per_account", cfg.PerAccountWindow, cfg.Metrics)),
	)

	return func(next http.Handler) http.Handler {
		limited := limiter(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}
			limited.ServeHTTP(w, r)
		})
	}
}

// accountKey is empty when the body names no account, leaving the IP key.
func accountKey(r *http.Request) (string, error) {
	if account := peekAccount(r); account != "" {
		return "account:" + account, nil
	}
	return "", nil
}

// peekAccount reads the "account" field from a JSON body and restores the
// body for the next handler.
func peekAccount(r *http.Request) string {
	if r.Body == nil || r.Body == http.NoBody {
		return ""
	}
	head, err := io.ReadAll(io.LimitReader(r.Body, maxPeekBytes))
	r.Body = struct {
		io.Reader
		io.Closer
	}{io.MultiReader(bytes.NewReader(head), r.Body), r.Body}
	if err != nil {
		return ""
	}

	var body struct {
		Account string `json:"account"`
	}
	if json.Unmarshal(head, &body) != nil {
		return ""
	}
	return strings.TrimSpace(body.Account)
}

// FromConfig converts the file configuration.
func FromConfig(cfg config.RateLimitConfig, m *metrics.Metrics) Config {
	return Config{
		PerIPEnabled:      cfg.PerIPEnabled,
		PerIPLimit:        cfg.PerIPLimit,
		PerIPWindow:       cfg.PerIPWindow.Duration,
		PerAccountEnabled: cfg.PerAccountEnabled,
		PerAccountLimit:   cfg.PerAccountLimit,
		PerAccountWindow:  cfg.PerAccountWindow.Duration,
		Metrics:           m,
	}
}
