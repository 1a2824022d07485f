package httputil

import (
	"net/http"
	"time"
)

// NewClient returns an HTTP client with a pooled keep-alive transport. Every
// RPC call and probe goes to a handful of hosts, so idle connections are kept
// per host.
func NewClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        64,
			MaxIdleConnsPerHost: 16,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 5 * time.Second,
			ForceAttemptHTTP2:   true,
		},
	}
}
