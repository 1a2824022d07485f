package invoices

import (
	"context"
	"errors"

	"github.com/paylinkhq/server/internal/circuitbreaker"
	"github.com/paylinkhq/server/internal/metrics"
)

// instrumentedRepository times every store call and routes it through the
// invoice-store circuit breaker. Lookups of unknown IDs are answers, not
// failures, so they never count against the breaker.
type instrumentedRepository struct {
	underlying Repository
	backend    string
	metrics    *metrics.Metrics
	breakers   *circuitbreaker.Manager
}

func newInstrumentedRepository(underlying Repository, backend string, deps Deps) *instrumentedRepository {
	return &instrumentedRepository{
		underlying: underlying,
		backend:    backend,
		metrics:    deps.Metrics,
		breakers:   deps.Breakers,
	}
}

type lookup struct {
	invoice  Invoice
	notFound bool
}

func (r *instrumentedRepository) GetInvoice(ctx context.Context, id string) (Invoice, error) {
	defer metrics.MeasureDBQuery(r.metrics, "get_invoice", r.backend)()

	res, err := circuitbreaker.Do(r.breakers, circuitbreaker.ServiceInvoiceStore, func() (lookup, error) {
		inv, err := r.underlying.GetInvoice(ctx, id)
		if errors.Is(err, ErrInvoiceNotFound) {
			return lookup{notFound: true}, nil
		}
		return lookup{invoice: inv}, err
	})
	if err != nil {
		return Invoice{}, err
	}
	if res.notFound {
		return Invoice{}, ErrInvoiceNotFound
	}
	return res.invoice, nil
}

func (r *instrumentedRepository) SaveInvoice(ctx context.Context, inv Invoice) (Invoice, error) {
	defer metrics.MeasureDBQuery(r.metrics, "save_invoice", r.backend)()

	// Keep rejections from read-only stores out of the breaker counts.
	if _, ok := r.underlying.(*YAMLRepository); ok {
		return Invoice{}, ErrReadOnly
	}
	return circuitbreaker.Do(r.breakers, circuitbreaker.ServiceInvoiceStore, func() (Invoice, error) {
		return r.underlying.SaveInvoice(ctx, inv)
	})
}

func (r *instrumentedRepository) ListInvoices(ctx context.Context) ([]Invoice, error) {
	defer metrics.MeasureDBQuery(r.metrics, "list_invoices", r.backend)()

	return circuitbreaker.Do(r.breakers, circuitbreaker.ServiceInvoiceStore, func() ([]Invoice, error) {
		return r.underlying.ListInvoices(ctx)
	})
}

func (r *instrumentedRepository) Close() error {
	return r.underlying.Close()
}
