package invoices

import (
	"context"
	"fmt"
	"sort"

	"github.com/paylinkhq/server/internal/config"
)

// YAMLRepository serves invoices declared in the config file. It is
// read-only; edits go through the config file and a restart.
type YAMLRepository struct {
	invoices map[string]Invoice
}

// NewYAMLRepository converts config entries into invoices.
func NewYAMLRepository(entries []config.InvoiceEntry) (*YAMLRepository, error) {
	repo := &YAMLRepository{invoices: make(map[string]Invoice, len(entries))}
	for _, e := range entries {
		inv, err := FromEntry(e)
		if err != nil {
			return nil, err
		}
		if _, dup := repo.invoices[inv.ID]; dup {
			return nil, fmt.Errorf("duplicate invoice id %q", inv.ID)
		}
		repo.invoices[inv.ID] = inv
	}
	return repo, nil
}

// GetInvoice returns a configured invoice.
func (r *YAMLRepository) GetInvoice(_ context.Context, id string) (Invoice, error) {
	inv, ok := r.invoices[id]
	if !ok {
		return Invoice{}, ErrInvoiceNotFound
	}
	return inv, nil
}

// SaveInvoice always fails.
func (r *YAMLRepository) SaveInvoice(_ context.Context, _ Invoice) (Invoice, error) {
	return Invoice{}, ErrReadOnly
}

// ListInvoices returns configured invoices ordered by ID.
func (r *YAMLRepository) ListInvoices(_ context.Context) ([]Invoice, error) {
	out := make([]Invoice, 0, len(r.invoices))
	for _, inv := range r.invoices {
		out = append(out, inv)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *YAMLRepository) Close() error {
	return nil
}

// DisabledRepository is used when no invoice store is configured. Every
// invoice ID is unknown.
type DisabledRepository struct{}

// NewDisabledRepository creates a disabled repository.
func NewDisabledRepository() *DisabledRepository {
	return &DisabledRepository{}
}

func (DisabledRepository) GetInvoice(_ context.Context, _ string) (Invoice, error) {
	return Invoice{}, ErrInvoiceNotFound
}

func (DisabledRepository) SaveInvoice(_ context.Context, _ Invoice) (Invoice, error) {
	return Invoice{}, ErrReadOnly
}

func (DisabledRepository) ListInvoices(_ context.Context) ([]Invoice, error) {
	return []Invoice{}, nil
}

func (DisabledRepository) Close() error {
	return nil
}
