package httpserver

import (
	"net/http"
	"strings"
)

// ActionVersion is the Actions protocol version this server speaks.
const ActionVersion = "2.1.3"

var (
	actionMethods = []string{"GET", "POST", "PUT", "OPTIONS"}

	actionAllowedHeaders = []string{
		"Content-Type",
		"Authorization",
		"Content-Encoding",
		"Accept-Encoding",
		"X-Accept-Action-Version",
		"X-Accept-Blockchain-Ids",
	}

	actionExposedHeaders = []string{"X-Action-Version", "X-Blockchain-Ids"}
)

// actionHeaders sets the headers wallets require on every response,
// including errors and pre-flight.
func actionHeaders(blockchainID string) func(http.Handler) http.Handler {
	methods := strings.Join(actionMethods, ", ")
	allowed := strings.Join(actionAllowedHeaders, ", ")
	exposed := strings.Join(actionExposedHeaders, ", ")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", "*")
			h.Set("Access-Control-Allow-Methods", methods)
			h.Set("Access-Control-Allow-Headers", allowed)
			h.Set("Access-Control-Expose-Headers", exposed)
			h.Set("X-Action-Version", ActionVersion)
			h.Set("X-Blockchain-Ids", blockchainID)
			next.ServeHTTP(w, r)
		})
	}
}

// preflight answers OPTIONS with 200 and no body.
func preflight(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}
