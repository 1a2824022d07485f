package httpserver

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/paylinkhq/server/internal/logger"
	"github.com/paylinkhq/server/internal/payment"
)

const (
	payPath     = "/api/actions/pay"
	invoicePath = "/api/actions/invoice"

	// maxBodyBytes bounds the POST body; it only carries the payer account.
	maxBodyBytes = 16 << 10
)

// payParams are the query parameters echoed into the build href.
var payParams = []string{"to", "amount", "token", "memo"}

// describePay handles GET /api/actions/pay.
func (h *handlers) describePay(w http.ResponseWriter, r *http.Request) {
	src := payment.QuerySource{Values: r.URL.Query()}
	h.describe(w, r, "pay", src, h.payHref(r))
}

// buildPay handles POST /api/actions/pay.
func (h *handlers) buildPay(w http.ResponseWriter, r *http.Request) {
	src := payment.QuerySource{Values: r.URL.Query(), Account: readAccount(r)}
	h.build(w, r, "pay", src)
}

// describeInvoice handles GET /api/actions/invoice/{invoiceID}.
func (h *handlers) describeInvoice(w http.ResponseWriter, r *http.Request) {
	src := payment.InvoiceSource{
		ID:   chi.URLParam(r, "invoiceID"),
		Repo: h.invoices,
	}
	h.describe(w, r, "invoice", src, h.absoluteURL(r.URL.Path))
}

// buildInvoice handles POST /api/actions/invoice/{invoiceID}.
func (h *handlers) buildInvoice(w http.ResponseWriter, r *http.Request) {
	src := payment.InvoiceSource{
		ID:      chi.URLParam(r, "invoiceID"),
		Account: readAccount(r),
		Amount:  r.URL.Query().Get("amount"),
		Repo:    h.invoices,
	}
	h.build(w, r, "invoice", src)
}

func (h *handlers) describe(w http.ResponseWriter, r *http.Request, route string, src payment.Source, href string) {
	ctx, cancel := h.deadline(r.Context())
	defer cancel()
	start := time.Now()

	meta, err := h.pipeline.Describe(ctx, src, payment.ActionInfo{
		Title:       h.cfg.Action.Title,
		Icon:        h.cfg.Action.Icon,
		Description: h.cfg.Action.Description,
		Href:        href,
	})
	h.observe(route, r.Method, start, err)
	if err != nil {
		h.writeActionError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, meta)
}

func (h *handlers) build(w http.ResponseWriter, r *http.Request, route string, src payment.Source) {
	ctx, cancel := h.deadline(r.Context())
	defer cancel()
	start := time.Now()

	result, err := h.pipeline.Build(ctx, src)
	h.observe(route, r.Method, start, err)
	if err != nil {
		h.writeActionError(w, r, err)
		return
	}

	log := logger.FromContext(r.Context())
	log.Debug().
		Str("route", route).
		Str("blockhash", result.Assembled.Blockhash).
		Uint64("last_valid_block_height", result.Assembled.LastValidBlockHeight).
		Msg("action.response_ready")

	writeJSON(w, http.StatusOK, result)
}

// deadline bounds one action request, including every chain call it makes.
func (h *handlers) deadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if d := h.cfg.Server.RequestTimeout.Duration; d > 0 {
		return context.WithTimeout(ctx, d)
	}
	return context.WithCancel(ctx)
}

func (h *handlers) observe(route, method string, start time.Time, err error) {
	outcome := "success"
	if err != nil {
		outcome = payment.KindOf(err).String()
	}
	h.metrics.ObserveAction(route, method, outcome, time.Since(start))
}

// payHref rebuilds the build URL from the recognised query parameters.
func (h *handlers) payHref(r *http.Request) string {
	query := r.URL.Query()
	params := url.Values{}
	for _, key := range payParams {
		if v := strings.TrimSpace(query.Get(key)); v != "" {
			params.Set(key, v)
		}
	}

	href := h.absoluteURL(r.URL.Path)
	if len(params) > 0 {
		href += "?" + params.Encode()
	}
	return href
}

// absoluteURL prefixes path with the public origin when one is configured.
func (h *handlers) absoluteURL(path string) string {
	return strings.TrimRight(h.cfg.Server.PublicBaseURL, "/") + path
}

// readAccount extracts "account" from the POST body. Unknown fields are
// ignored; an empty or malformed body yields "" and fails validation as a
// missing sender.
func readAccount(r *http.Request) string {
	if r.Body == nil {
		return ""
	}
	defer r.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil || len(raw) == 0 {
		return ""
	}

	var body struct {
		Account string `json:"account"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	return body.Account
}
