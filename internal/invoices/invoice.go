package invoices

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/paylinkhq/server/internal/config"
	"github.com/shopspring/decimal"
)

// ErrInvoiceNotFound is returned when an invoice ID does not resolve.
var ErrInvoiceNotFound = errors.New("invoice not found")

// ErrReadOnly is returned by stores that cannot accept writes.
var ErrReadOnly = errors.New("invoice store is read-only")

// Status is the invoice lifecycle state.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusSent      Status = "sent"
	StatusPaid      Status = "paid"
	StatusCancelled Status = "cancelled"
)

// ParseStatus normalizes a stored status. Empty means sent.
func ParseStatus(raw string) (Status, error) {
	switch s := Status(strings.ToLower(strings.TrimSpace(raw))); s {
	case "":
		return StatusSent, nil
	case StatusDraft, StatusSent, StatusPaid, StatusCancelled:
		return s, nil
	default:
		return "", fmt.Errorf("unknown invoice status %q", raw)
	}
}

// Invoice is a freelancer's request for payment. Amount is in major units of
// Token; an empty Token means the native coin.
type Invoice struct {
	ID          string          `json:"id"`
	Payee       string          `json:"payee"`
	Amount      decimal.Decimal `json:"amount"`
	Token       string          `json:"token,omitempty"`
	Status      Status          `json:"status"`
	Description string          `json:"description,omitempty"`
	ClientName  string          `json:"clientName,omitempty"`
	DueDate     *time.Time      `json:"dueDate,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// IsSettled reports whether the invoice has been paid.
func (i Invoice) IsSettled() bool {
	return i.Status == StatusPaid
}

// IsPayable reports whether a payment may still be built for the invoice.
func (i Invoice) IsPayable() bool {
	return i.Status == StatusDraft || i.Status == StatusSent
}

// FromEntry converts a config-declared invoice.
func FromEntry(e config.InvoiceEntry) (Invoice, error) {
	inv := Invoice{
		ID:          strings.TrimSpace(e.ID),
		Payee:       strings.TrimSpace(e.Payee),
		Token:       strings.TrimSpace(e.Token),
		Description: e.Description,
		ClientName:  e.ClientName,
	}
	if inv.ID == "" {
		return Invoice{}, errors.New("invoice id is required")
	}

	status, err := ParseStatus(e.Status)
	if err != nil {
		return Invoice{}, fmt.Errorf("invoice %s: %w", inv.ID, err)
	}
	inv.Status = status

	if e.Amount != "" {
		amount, err := decimal.NewFromString(strings.TrimSpace(e.Amount))
		if err != nil {
			return Invoice{}, fmt.Errorf("invoice %s: invalid amount %q", inv.ID, e.Amount)
		}
		inv.Amount = amount
	}

	if e.DueDate != "" {
		due, err := parseDate(e.DueDate)
		if err != nil {
			return Invoice{}, fmt.Errorf("invoice %s: %w", inv.ID, err)
		}
		inv.DueDate = &due
	}
	return inv, nil
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid due date %q", raw)
}
