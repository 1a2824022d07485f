package dbpool

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/paylinkhq/server/internal/config"
)

const pingTimeout = 5 * time.Second

// SharedPool owns the process-wide PostgreSQL connection pool used by the
// invoice store and the readiness check.
type SharedPool struct {
	db *sql.DB
}

// NewSharedPool opens a pool and verifies it with a bounded ping.
func NewSharedPool(ctx context.Context, connectionString string, poolConfig config.PostgresPoolConfig) (*SharedPool, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("open postgres connection: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	config.ApplyPostgresPoolSettings(db, poolConfig)

	return &SharedPool{db: db}, nil
}

// DB returns the underlying *sql.DB for use by repositories.
func (p *SharedPool) DB() *sql.DB {
	return p.db
}

// Ping reports whether the pool can reach the database within ctx.
func (p *SharedPool) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return p.db.PingContext(pingCtx)
}

// Close closes the pool. Call once at shutdown.
func (p *SharedPool) Close() error {
	return p.db.Close()
}
