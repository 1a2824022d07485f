package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/paylinkhq/server/internal/logger"
)

// actionsRule maps a website path to the API path that serves it.
type actionsRule struct {
	PathPattern string `json:"pathPattern"`
	APIPath     string `json:"apiPath"`
}

// actionsJSON handles GET /actions.json. Wallets use it to discover the
// action behind a shared link.
func (h *handlers) actionsJSON(w http.ResponseWriter, r *http.Request) {
	prefix := h.cfg.Server.RoutePrefix
	writeJSON(w, http.StatusOK, map[string]any{
		"rules": []actionsRule{
			{PathPattern: "/pay", APIPath: prefix + payPath},
			{PathPattern: "/invoice/*", APIPath: prefix + invoicePath + "/*"},
			{PathPattern: prefix + "/api/actions/**", APIPath: prefix + "/api/actions/**"},
		},
	})
}

// health handles GET /health. An unreachable RPC node reports degraded with
// 503. A chain without a health check (an injected client) reports
// rpcHealthy "unknown" and stays 200.
func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	now := time.Now()
	status := "ok"
	statusCode := http.StatusOK

	var rpcHealthy any = "unknown"
	if h.chain != nil {
		healthy := h.checkRPCHealth(ctx)
		rpcHealthy = healthy
		if !healthy {
			status = "degraded"
			statusCode = http.StatusServiceUnavailable
		}
	}

	response := map[string]any{
		"status":        status,
		"uptime":        now.Sub(serverStartTime).String(),
		"timestamp":     now.UTC(),
		"rpcHealthy":    rpcHealthy,
		"cluster":       h.cfg.Solana.Cluster,
		"actionVersion": ActionVersion,
		"invoiceSource": h.cfg.Invoices.Source,
	}
	if h.chain != nil {
		response["rpcBreaker"] = h.chain.BreakerState()
	}
	if h.cfg.Server.RoutePrefix != "" {
		response["routePrefix"] = h.cfg.Server.RoutePrefix
	}

	writeJSON(w, statusCode, response)
}

func (h *handlers) checkRPCHealth(ctx context.Context) bool {
	if err := h.chain.Health(ctx); err != nil {
		log := logger.FromContext(ctx)
		log.Warn().Err(err).Msg("health.rpc_unreachable")
		return false
	}
	return true
}
