package invoices

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	bolt "go.etcd.io/bbolt"
)

var invoicesBucket = []byte("invoices")

// BoltRepository stores invoices as JSON values in a single-file key-value
// database, keyed by invoice ID.
type BoltRepository struct {
	db  *bolt.DB
	now func() time.Time
}

// NewBoltRepository opens (or creates) the database at path.
func NewBoltRepository(path string) (*BoltRepository, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt database: %w", err)
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(invoicesBucket)
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("create invoices bucket: %w", err)
	}

	return &BoltRepository{db: db, now: time.Now}, nil
}

// GetInvoice reads one invoice.
func (r *BoltRepository) GetInvoice(ctx context.Context, id string) (Invoice, error) {
	if err := ctx.Err(); err != nil {
		return Invoice{}, err
	}

	var inv Invoice
	err := r.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(invoicesBucket).Get([]byte(id))
		if raw == nil {
			return ErrInvoiceNotFound
		}
		// raw is only valid inside the transaction; Unmarshal copies it.
		return json.Unmarshal(raw, &inv)
	})
	if err != nil {
		return Invoice{}, err
	}
	return inv, nil
}

// SaveInvoice writes an invoice, replacing any previous value.
func (r *BoltRepository) SaveInvoice(ctx context.Context, inv Invoice) (Invoice, error) {
	if err := ctx.Err(); err != nil {
		return Invoice{}, err
	}

	inv = prepareForSave(inv, r.now().UTC())
	raw, err := json.Marshal(inv)
	if err != nil {
		return Invoice{}, fmt.Errorf("encode invoice: %w", err)
	}

	err = r.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(invoicesBucket).Put([]byte(inv.ID), raw)
	})
	if err != nil {
		return Invoice{}, fmt.Errorf("store invoice: %w", err)
	}
	return inv, nil
}

// ListInvoices returns all stored invoices, newest first.
func (r *BoltRepository) ListInvoices(ctx context.Context) ([]Invoice, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []Invoice
	err := r.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(invoicesBucket).ForEach(func(k, v []byte) error {
			var inv Invoice
			if err := json.Unmarshal(v, &inv); err != nil {
				return fmt.Errorf("decode invoice %s: %w", k, err)
			}
			out = append(out, inv)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Close releases the database file lock.
func (r *BoltRepository) Close() error {
	return r.db.Close()
}
