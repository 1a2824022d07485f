package httpserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime/debug"

	apierrors "github.com/paylinkhq/server/internal/errors"
	"github.com/paylinkhq/server/internal/logger"
	"github.com/paylinkhq/server/internal/payment"
)

// writeJSON writes an application/json response with status code and payload.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(payload)
}

// writeActionError formats a pipeline failure. Server-side failures carry a
// stack outside production.
func (h *handlers) writeActionError(w http.ResponseWriter, r *http.Request, err error) {
	pErr := payment.AsError(err)
	resp := apierrors.NewErrorResponse(pErr.Kind.Code(), pErr.Message)

	serverSide := pErr.Kind == payment.KindUnknown || pErr.Kind == payment.KindNetworkUnavailable
	if serverSide && !h.cfg.Logging.IsProduction() {
		resp = resp.WithStack(fmt.Sprintf("%v\n\n%s", pErr, debug.Stack()))
	}

	log := logger.FromContext(r.Context())
	if serverSide {
		log.Error().
			Err(err).
			Str("code", string(resp.Code)).
			Msg("action.request_failed")
	} else {
		log.Debug().
			Str("code", string(resp.Code)).
			Str("reason", pErr.Message).
			Msg("action.request_rejected")
	}

	resp.WriteJSON(w)
}
