package invoices

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingRepository records calls and serves a fixed set of invoices.
type countingRepository struct {
	invoices  map[string]Invoice
	getCalls  int
	listCalls int
	saveCalls int
}

func (m *countingRepository) GetInvoice(_ context.Context, id string) (Invoice, error) {
	m.getCalls++
	inv, ok := m.invoices[id]
	if !ok {
		return Invoice{}, ErrInvoiceNotFound
	}
	return inv, nil
}

func (m *countingRepository) SaveInvoice(_ context.Context, inv Invoice) (Invoice, error) {
	m.saveCalls++
	m.invoices[inv.ID] = inv
	return inv, nil
}

func (m *countingRepository) ListInvoices(_ context.Context) ([]Invoice, error) {
	m.listCalls++
	out := make([]Invoice, 0, len(m.invoices))
	for _, inv := range m.invoices {
		out = append(out, inv)
	}
	return out, nil
}

func (m *countingRepository) Close() error { return nil }

func TestCachedRepository_GetInvoice(t *testing.T) {
	mock := &countingRepository{invoices: map[string]Invoice{"a": {ID: "a", Status: StatusSent}}}
	repo := NewCachedRepository(mock, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := repo.GetInvoice(ctx, "a")
		require.NoError(t, err)
	}
	assert.Equal(t, 1, mock.getCalls, "repeated reads are served from cache")

	// Misses are not cached.
	for i := 0; i < 2; i++ {
		_, err := repo.GetInvoice(ctx, "b")
		assert.ErrorIs(t, err, ErrInvoiceNotFound)
	}
	assert.Equal(t, 3, mock.getCalls)
}

func TestCachedRepository_SaveInvalidates(t *testing.T) {
	mock := &countingRepository{invoices: map[string]Invoice{"a": {ID: "a", Status: StatusSent}}}
	repo := NewCachedRepository(mock, time.Minute)
	ctx := context.Background()

	_, err := repo.GetInvoice(ctx, "a")
	require.NoError(t, err)
	_, err = repo.ListInvoices(ctx)
	require.NoError(t, err)

	_, err = repo.SaveInvoice(ctx, Invoice{ID: "a", Status: StatusPaid})
	require.NoError(t, err)

	inv, err := repo.GetInvoice(ctx, "a")
	require.NoError(t, err)
	assert.True(t, inv.IsSettled(), "a settled invoice must not be served stale")
	assert.Equal(t, 2, mock.getCalls)

	_, err = repo.ListInvoices(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, mock.listCalls)
}

func TestCachedRepository_ZeroTTLPassesThrough(t *testing.T) {
	mock := &countingRepository{invoices: map[string]Invoice{"a": {ID: "a"}}}
	repo := NewCachedRepository(mock, 0)

	for i := 0; i < 2; i++ {
		_, err := repo.GetInvoice(context.Background(), "a")
		require.NoError(t, err)
	}
	assert.Equal(t, 2, mock.getCalls)
}
