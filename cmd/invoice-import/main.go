package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/paylinkhq/server/internal/config"
	"github.com/paylinkhq/server/internal/dbpool"
	"github.com/paylinkhq/server/internal/invoices"
	"github.com/paylinkhq/server/pkg/solanapay"
)

type importFile struct {
	Invoices []config.InvoiceEntry `yaml:"invoices"`
}

func main() {
	var (
		cfgPath = flag.String("config", "", "path to Paylink config file")
		input   = flag.String("file", "", "YAML file with an `invoices:` list to import")
		dryRun  = flag.Bool("dry-run", false, "validate the file without writing")
	)
	flag.Parse()

	if *input == "" {
		log.Fatal("file flag is required")
	}

	_ = godotenv.Load()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	entries, err := readEntries(*input)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("✓ Parsed %d invoices from %s\n", len(entries), *input)
	if *dryRun {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	repo, err := openStore(ctx, cfg.Invoices)
	if err != nil {
		log.Fatalf("open invoice store: %v", err)
	}
	defer repo.Close()

	for _, inv := range entries {
		saved, err := repo.SaveInvoice(ctx, inv)
		if errors.Is(err, invoices.ErrReadOnly) {
			log.Fatalf("invoices.source %q is read-only; use bolt, postgres, or mongodb", cfg.Invoices.Source)
		}
		if err != nil {
			log.Fatalf("save invoice %s: %v", inv.ID, err)
		}
		fmt.Printf("  %s  %s %s  %s\n", saved.ID, saved.Amount.String(), tokenLabel(saved.Token), saved.Status)
	}

	fmt.Printf("✓ Imported %d invoices into %s\n", len(entries), cfg.Invoices.Source)
}

func readEntries(path string) ([]invoices.Invoice, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var file importFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	out := make([]invoices.Invoice, 0, len(file.Invoices))
	for _, e := range file.Invoices {
		inv, err := invoices.FromEntry(e)
		if err != nil {
			return nil, err
		}
		if _, err := solanapay.ParseAddress(inv.Payee); err != nil {
			return nil, fmt.Errorf("invoice %s: payee: %w", inv.ID, err)
		}
		out = append(out, inv)
	}
	return out, nil
}

// openStore opens the configured store without the read cache. Postgres
// tables are created when missing.
func openStore(ctx context.Context, cfg config.InvoicesConfig) (invoices.Repository, error) {
	if cfg.Source != "postgres" {
		cfg.CacheTTL = config.Duration{}
		return invoices.NewRepository(cfg, invoices.Deps{})
	}

	pool, err := dbpool.NewSharedPool(ctx, cfg.PostgresURL, cfg.PostgresPool)
	if err != nil {
		return nil, err
	}
	repo := invoices.NewPostgresRepositoryWithDB(pool.DB()).WithTableName(cfg.PostgresTableName)
	if err := repo.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &pooledRepository{PostgresRepository: repo, pool: pool}, nil
}

// pooledRepository closes the pool along with the repository.
type pooledRepository struct {
	*invoices.PostgresRepository
	pool *dbpool.SharedPool
}

func (p *pooledRepository) Close() error {
	return p.pool.Close()
}

func tokenLabel(token string) string {
	if token == "" {
		return "SOL"
	}
	return token
}
