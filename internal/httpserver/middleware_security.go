package httpserver

import "net/http"

// securityHeadersMiddleware adds browser hardening headers to all responses.
// Framing stays allowed: action clients render responses inside other sites.
func securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")

		// Built transactions reference a fresh blockhash.
		if r.Method == http.MethodPost {
			h.Set("Cache-Control", "no-store")
		}

		if r.TLS != nil {
			h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		next.ServeHTTP(w, r)
	})
}
