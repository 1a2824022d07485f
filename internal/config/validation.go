package config

import (
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/paylinkhq/server/internal/money"
)

// finalize applies defaults and validates the configuration.
func (c *Config) finalize() error {
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Logging.Environment == "" {
		c.Logging.Environment = "production"
	}
	if c.Server.Address == "" {
		c.Server.Address = ":8080"
	}
	if c.Server.RequestTimeout.Duration <= 0 {
		c.Server.RequestTimeout = Duration{Duration: 15 * time.Second}
	}
	c.Server.PublicBaseURL = strings.TrimSuffix(strings.TrimSpace(c.Server.PublicBaseURL), "/")

	c.Solana.Cluster = strings.ToLower(strings.TrimSpace(c.Solana.Cluster))
	if c.Solana.Cluster == "" {
		c.Solana.Cluster = money.ClusterDevnet
	}
	if c.Solana.RPCURL == "" {
		c.Solana.RPCURL = defaultRPCURL(c.Solana.Cluster)
	}
	if c.Solana.RPCTimeout.Duration <= 0 {
		c.Solana.RPCTimeout = Duration{Duration: 5 * time.Second}
	}
	if c.Solana.RPCMaxRetries < 0 {
		c.Solana.RPCMaxRetries = 0
	}
	switch strings.ToLower(c.Solana.Commitment) {
	case "processed", "confirmed", "finalized":
		c.Solana.Commitment = strings.ToLower(c.Solana.Commitment)
	case "finalised":
		c.Solana.Commitment = string(rpc.CommitmentFinalized)
	default:
		c.Solana.Commitment = string(rpc.CommitmentConfirmed)
	}

	c.Invoices.Source = strings.ToLower(strings.TrimSpace(c.Invoices.Source))
	if c.Invoices.Source == "" {
		c.Invoices.Source = "yaml"
	}
	if c.Invoices.PostgresTableName == "" {
		c.Invoices.PostgresTableName = "invoices"
	}
	if c.Invoices.MongoDBCollection == "" {
		c.Invoices.MongoDBCollection = "invoices"
	}

	return c.validate()
}

// validate checks that required configuration fields are set correctly.
func (c *Config) validate() error {
	var errs []string

	if _, err := money.DefaultUSDCMint(c.Solana.Cluster); err != nil {
		errs = append(errs, fmt.Sprintf("solana.cluster %q must be one of mainnet-beta, devnet, testnet, localnet", c.Solana.Cluster))
	}
	if c.Solana.USDCMint != "" {
		if _, err := solana.PublicKeyFromBase58(c.Solana.USDCMint); err != nil {
			errs = append(errs, fmt.Sprintf("solana.usdc_mint is not a valid address: %v", err))
		} else if c.Solana.Cluster == money.ClusterMainnet && c.Solana.USDCMint != money.USDCMintMainnet {
			// A wrong mint on mainnet sends real funds to the wrong token.
			errs = append(errs, fmt.Sprintf("solana.usdc_mint must be %s on mainnet-beta", money.USDCMintMainnet))
		}
	}
	if err := validateHTTPURL(c.Solana.RPCURL); err != nil {
		errs = append(errs, fmt.Sprintf("solana.rpc_url: %v", err))
	}

	if c.Action.Title == "" {
		errs = append(errs, "action.title is required")
	}
	if err := validateHTTPURL(c.Action.Icon); err != nil {
		errs = append(errs, fmt.Sprintf("action.icon must be an absolute URL: %v", err))
	}
	if c.Server.PublicBaseURL != "" {
		if err := validateHTTPURL(c.Server.PublicBaseURL); err != nil {
			errs = append(errs, fmt.Sprintf("server.public_base_url: %v", err))
		}
	}

	switch c.Invoices.Source {
	case "yaml", "disabled":
	case "bolt":
		if c.Invoices.BoltPath == "" {
			errs = append(errs, "invoices.bolt_path is required when source is 'bolt'")
		}
	case "postgres":
		if c.Invoices.PostgresURL == "" {
			errs = append(errs, "invoices.postgres_url is required when source is 'postgres'")
		}
	case "mongodb":
		if c.Invoices.MongoDBURL == "" || c.Invoices.MongoDBDatabase == "" {
			errs = append(errs, "invoices.mongodb_url and invoices.mongodb_database are required when source is 'mongodb'")
		}
	default:
		errs = append(errs, fmt.Sprintf("invoices.source %q must be one of yaml, bolt, postgres, mongodb, disabled", c.Invoices.Source))
	}
	if c.Invoices.Source != "yaml" && len(c.Invoices.Static) > 0 {
		errs = append(errs, fmt.Sprintf("invoices.static is only read when source is 'yaml' (source is %q)", c.Invoices.Source))
	}
	seen := make(map[string]bool, len(c.Invoices.Static))
	for i, inv := range c.Invoices.Static {
		if inv.ID == "" {
			errs = append(errs, fmt.Sprintf("invoices.static[%d].id is required", i))
			continue
		}
		if seen[inv.ID] {
			errs = append(errs, fmt.Sprintf("invoices.static[%d].id %q is duplicated", i, inv.ID))
		}
		seen[inv.ID] = true
		if inv.Payee == "" {
			errs = append(errs, fmt.Sprintf("invoices.static[%d].payee is required", i))
		}
	}

	if c.RateLimit.PerIPEnabled && c.RateLimit.PerIPLimit <= 0 {
		errs = append(errs, "rate_limit.per_ip_limit must be positive when per_ip_enabled")
	}
	if c.RateLimit.PerAccountEnabled && c.RateLimit.PerAccountLimit <= 0 {
		errs = append(errs, "rate_limit.per_account_limit must be positive when per_account_enabled")
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func defaultRPCURL(cluster string) string {
	switch cluster {
	case money.ClusterMainnet:
		return rpc.MainNetBeta_RPC
	case money.ClusterTestnet:
		return rpc.TestNet_RPC
	case money.ClusterLocalnet:
		return rpc.LocalNet_RPC
	default:
		return rpc.DevNet_RPC
	}
}

func validateHTTPURL(raw string) error {
	if raw == "" {
		return errors.New("url empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	switch u.Scheme {
	case "http", "https":
	case "":
		return errors.New("url missing scheme")
	default:
		return fmt.Errorf("unsupported url scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("url missing host")
	}
	return nil
}

// ApplyPostgresPoolSettings applies connection pool settings, falling back to
// defaults for unset values.
func ApplyPostgresPoolSettings(db *sql.DB, pool PostgresPoolConfig) {
	maxOpen := pool.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 10
	}

	maxIdle := pool.MaxIdleConns
	if maxIdle <= 0 {
		maxIdle = 2
	}
	if maxIdle > maxOpen {
		maxIdle = maxOpen
	}

	maxLifetime := pool.ConnMaxLifetime.Duration
	if maxLifetime <= 0 {
		maxLifetime = 5 * time.Minute
	}

	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(maxLifetime)
}
