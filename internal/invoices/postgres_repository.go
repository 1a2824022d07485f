package invoices

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/paylinkhq/server/internal/config"
	"github.com/shopspring/decimal"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db        *sql.DB
	ownsDB    bool   // only close connections we opened
	tableName string // default: "invoices"
	now       func() time.Time
}

// NewPostgresRepository opens a dedicated connection pool.
func NewPostgresRepository(connectionString string, poolConfig config.PostgresPoolConfig) (*PostgresRepository, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("open postgres connection: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	config.ApplyPostgresPoolSettings(db, poolConfig)

	return &PostgresRepository{db: db, ownsDB: true, tableName: "invoices", now: time.Now}, nil
}

// NewPostgresRepositoryWithDB uses an existing pool, which the caller closes.
func NewPostgresRepositoryWithDB(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db, ownsDB: false, tableName: "invoices", now: time.Now}
}

// WithTableName sets a custom table name.
func (r *PostgresRepository) WithTableName(tableName string) *PostgresRepository {
	if tableName != "" {
		r.tableName = tableName
	}
	return r
}

// EnsureSchema creates the invoice table and its status index if missing.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id          TEXT PRIMARY KEY,
	payee       TEXT NOT NULL,
	amount      NUMERIC(38, 18) NOT NULL DEFAULT 0,
	token       TEXT NOT NULL DEFAULT '',
	status      TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	client_name TEXT NOT NULL DEFAULT '',
	due_date    TIMESTAMPTZ,
	created_at  TIMESTAMPTZ NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL
)`, r.tableName),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_status_idx ON %s (status)`, r.tableName, r.tableName),
	}
	for _, stmt := range stmts {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure invoice schema: %w", err)
		}
	}
	return nil
}

const invoiceColumns = `id, payee, amount, token, status, description, client_name, due_date, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInvoice(row rowScanner) (Invoice, error) {
	var (
		inv     Invoice
		amount  string
		status  string
		dueDate sql.NullTime
	)
	if err := row.Scan(
		&inv.ID,
		&inv.Payee,
		&amount,
		&inv.Token,
		&status,
		&inv.Description,
		&inv.ClientName,
		&dueDate,
		&inv.CreatedAt,
		&inv.UpdatedAt,
	); err != nil {
		return Invoice{}, err
	}

	parsed, err := decimal.NewFromString(amount)
	if err != nil {
		return Invoice{}, fmt.Errorf("parse amount for invoice %s: %w", inv.ID, err)
	}
	inv.Amount = parsed
	inv.Status = Status(status)
	if dueDate.Valid {
		due := dueDate.Time
		inv.DueDate = &due
	}
	return inv, nil
}

// GetInvoice retrieves an invoice by ID.
func (r *PostgresRepository) GetInvoice(ctx context.Context, id string) (Invoice, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, invoiceColumns, r.tableName)

	inv, err := scanInvoice(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Invoice{}, ErrInvoiceNotFound
	}
	if err != nil {
		return Invoice{}, fmt.Errorf("query invoice: %w", err)
	}
	return inv, nil
}

// SaveInvoice upserts an invoice.
func (r *PostgresRepository) SaveInvoice(ctx context.Context, inv Invoice) (Invoice, error) {
	inv = prepareForSave(inv, r.now().UTC())

	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			payee = EXCLUDED.payee,
			amount = EXCLUDED.amount,
			token = EXCLUDED.token,
			status = EXCLUDED.status,
			description = EXCLUDED.description,
			client_name = EXCLUDED.client_name,
			due_date = EXCLUDED.due_date,
			updated_at = EXCLUDED.updated_at
	`, r.tableName, invoiceColumns)

	var dueDate sql.NullTime
	if inv.DueDate != nil {
		dueDate = sql.NullTime{Time: *inv.DueDate, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, query,
		inv.ID,
		inv.Payee,
		inv.Amount.String(),
		inv.Token,
		string(inv.Status),
		inv.Description,
		inv.ClientName,
		dueDate,
		inv.CreatedAt,
		inv.UpdatedAt,
	)
	if err != nil {
		return Invoice{}, fmt.Errorf("upsert invoice: %w", err)
	}
	return inv, nil
}

// ListInvoices returns all invoices, newest first.
func (r *PostgresRepository) ListInvoices(ctx context.Context) ([]Invoice, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY created_at DESC`, invoiceColumns, r.tableName)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query invoices: %w", err)
	}
	defer rows.Close()

	var out []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		out = append(out, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate invoices: %w", err)
	}
	return out, nil
}

// Close closes the pool if this repository opened it.
func (r *PostgresRepository) Close() error {
	if r.ownsDB {
		return r.db.Close()
	}
	return nil
}
