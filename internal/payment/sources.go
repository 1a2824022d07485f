package payment

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/paylinkhq/server/internal/invoices"
)

// Source supplies raw payment parameters for one request.
type Source interface {
	Load(ctx context.Context) (RawRequest, error)
}

// QuerySource reads parameters from a query string.
type QuerySource struct {
	Values  url.Values
	Account string // from the POST body; empty for metadata requests
}

// Load never fails; validation happens in the pipeline.
func (s QuerySource) Load(_ context.Context) (RawRequest, error) {
	return RawRequest{
		To:      s.Values.Get("to"),
		Amount:  s.Values.Get("amount"),
		Token:   s.Values.Get("token"),
		Memo:    s.Values.Get("memo"),
		Account: s.Account,
	}, nil
}

// InvoiceSource reads parameters from a stored invoice.
type InvoiceSource struct {
	ID      string
	Account string
	Amount  string // payer-entered; used only for open-amount invoices
	Repo    invoices.Repository
}

// Load resolves the invoice. Unknown IDs are ResourceNotFound; paid or
// cancelled invoices are AlreadySettled.
func (s InvoiceSource) Load(ctx context.Context) (RawRequest, error) {
	id := strings.TrimSpace(s.ID)
	if id == "" {
		return RawRequest{}, newError(KindResourceNotFound, "Invoice not found", nil)
	}

	inv, err := s.Repo.GetInvoice(ctx, id)
	if errors.Is(err, invoices.ErrInvoiceNotFound) {
		return RawRequest{}, newError(KindResourceNotFound, fmt.Sprintf("Invoice %s not found", id), err)
	}
	if err != nil {
		return RawRequest{}, newError(KindNetworkUnavailable, "Invoice store is unavailable, please retry", err)
	}

	switch {
	case inv.IsSettled():
		return RawRequest{}, newError(KindAlreadySettled, fmt.Sprintf("Invoice %s has already been paid", id), nil)
	case !inv.IsPayable():
		return RawRequest{}, newError(KindAlreadySettled, fmt.Sprintf("Invoice %s is %s and can no longer be paid", id, inv.Status), nil)
	}

	raw := RawRequest{
		To:          inv.Payee,
		Token:       inv.Token,
		Account:     s.Account,
		Memo:        "invoice:" + inv.ID,
		InvoiceID:   inv.ID,
		Description: invoiceDescription(inv),
	}
	if inv.Amount.IsZero() {
		raw.Amount = s.Amount
	} else {
		raw.Amount = inv.Amount.String()
	}
	return raw, nil
}

func invoiceDescription(inv invoices.Invoice) string {
	desc := strings.TrimSpace(inv.Description)
	if inv.ClientName != "" {
		if desc == "" {
			desc = "Invoice for " + inv.ClientName
		} else {
			desc = desc + " (" + inv.ClientName + ")"
		}
	}
	if inv.DueDate != nil {
		if desc != "" {
			desc += ". "
		}
		desc += "Due " + inv.DueDate.Format("2006-01-02")
	}
	return desc
}
