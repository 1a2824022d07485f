package invoices

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/paylinkhq/server/internal/circuitbreaker"
	"github.com/paylinkhq/server/internal/config"
	"github.com/paylinkhq/server/internal/metrics"
)

// Repository is the invoice store read by the invoice-bound action routes.
type Repository interface {
	// GetInvoice returns ErrInvoiceNotFound for unknown IDs.
	GetInvoice(ctx context.Context, id string) (Invoice, error)

	// SaveInvoice inserts or replaces an invoice. An empty ID is assigned a
	// new UUID; the stored invoice is returned.
	SaveInvoice(ctx context.Context, inv Invoice) (Invoice, error)

	// ListInvoices returns all invoices, newest first.
	ListInvoices(ctx context.Context) ([]Invoice, error)

	Close() error
}

// Deps are optional collaborators shared with the rest of the server.
type Deps struct {
	Metrics  *metrics.Metrics
	Breakers *circuitbreaker.Manager
	SharedDB *sql.DB // reused for the postgres source when non-nil
}

// NewRepository builds the store selected by cfg.Source.
func NewRepository(cfg config.InvoicesConfig, deps Deps) (Repository, error) {
	var (
		underlying Repository
		backend    = cfg.Source
	)

	switch cfg.Source {
	case "", "disabled":
		return NewDisabledRepository(), nil
	case "yaml":
		repo, err := NewYAMLRepository(cfg.Static)
		if err != nil {
			return nil, err
		}
		// Config-declared invoices are already in memory.
		return newInstrumentedRepository(repo, backend, deps), nil
	case "bolt":
		repo, err := NewBoltRepository(cfg.BoltPath)
		if err != nil {
			return nil, err
		}
		underlying = repo
	case "postgres":
		var pgRepo *PostgresRepository
		if deps.SharedDB != nil {
			pgRepo = NewPostgresRepositoryWithDB(deps.SharedDB)
		} else {
			var err error
			pgRepo, err = NewPostgresRepository(cfg.PostgresURL, cfg.PostgresPool)
			if err != nil {
				return nil, err
			}
		}
		underlying = pgRepo.WithTableName(cfg.PostgresTableName)
	case "mongodb":
		repo, err := NewMongoDBRepository(cfg.MongoDBURL, cfg.MongoDBDatabase, cfg.MongoDBCollection)
		if err != nil {
			return nil, err
		}
		underlying = repo
	default:
		return nil, fmt.Errorf("invalid invoices.source %q: must be 'yaml', 'bolt', 'postgres', 'mongodb', or 'disabled'", cfg.Source)
	}

	repo := newInstrumentedRepository(underlying, backend, deps)
	if ttl := cfg.CacheTTL.Duration; ttl > 0 {
		return NewCachedRepository(repo, ttl), nil
	}
	return repo, nil
}

// prepareForSave fills the ID and timestamps shared by every writable store.
func prepareForSave(inv Invoice, now time.Time) Invoice {
	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}
	if inv.Status == "" {
		inv.Status = StatusDraft
	}
	if inv.CreatedAt.IsZero() {
		inv.CreatedAt = now
	}
	inv.UpdatedAt = now
	return inv
}
